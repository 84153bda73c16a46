package pipeline

import "contentdex/internal/model"

const (
	// priority bands per extension family; lower runs earlier
	priorityText    = 1
	priorityOffice  = 3
	priorityPDF     = 5
	priorityImage   = 7
	priorityArchive = 9
	priorityMax     = 10

	largeFileBytes = 10 << 20
	hugeFileBytes  = 50 << 20

	// small text files are grouped into one task to amortize scheduling
	batchableMaxBytes = 100 << 10
	batchMaxFiles     = 10

	maxDepth = 5
)

var extPriority = map[string]int{
	"txt": priorityText, "json": priorityText, "xml": priorityText,
	"yaml": priorityText, "yml": priorityText, "html": priorityText,
	"htm": priorityText, "md": priorityText, "log": priorityText,
	"ini": priorityText, "cfg": priorityText, "rtf": priorityText,
	"bin": priorityText, "csv": priorityText,

	"docx": priorityOffice, "xlsx": priorityOffice, "pptx": priorityOffice,
	"doc": priorityOffice, "xls": priorityOffice, "ppt": priorityOffice,

	"pdf": priorityPDF,

	"png": priorityImage, "jpg": priorityImage, "jpeg": priorityImage,
	"gif": priorityImage, "bmp": priorityImage, "tiff": priorityImage,
	"tif": priorityImage, "webp": priorityImage, "ico": priorityImage,
	"svg": priorityImage,

	"zip": priorityArchive, "tar": priorityArchive, "gz": priorityArchive,
	"tgz": priorityArchive, "bz2": priorityArchive, "rar": priorityArchive,
	"7z": priorityArchive, "eml": priorityArchive, "mbox": priorityArchive,
	"msg": priorityArchive, "pst": priorityArchive,
}

// Priority computes the scheduling band for a file. Larger files are
// pushed later so cheap text flows through first.
func Priority(fi model.FileInfo) int {
	p, ok := extPriority[fi.Ext]
	if !ok {
		p = priorityPDF
	}
	if fi.Size > largeFileBytes {
		p += 2
	}
	if fi.Size > hugeFileBytes {
		p++
	}
	if p > priorityMax {
		p = priorityMax
	}
	return p
}

// NeedsCPUPool reports whether the file is routed to the CPU-bound pool.
// Rendering, OCR and decompression dominate these; everything else is
// mostly I/O and database round trips.
func NeedsCPUPool(fi model.FileInfo) bool {
	if fi.Size > largeFileBytes {
		return true
	}
	switch fi.Ext {
	case "eml", "mbox", "msg", "pst":
		// header parsing is I/O bound even though emails share the
		// archive priority band
		return false
	}
	switch extPriority[fi.Ext] {
	case priorityPDF, priorityImage, priorityArchive:
		return true
	}
	return false
}

// Batchable reports whether the file qualifies for small-text batching.
func Batchable(fi model.FileInfo) bool {
	if fi.Size >= batchableMaxBytes {
		return false
	}
	switch fi.Ext {
	case "txt", "json", "xml", "csv":
		return true
	}
	return false
}
