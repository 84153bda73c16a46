package extract

import (
	"bytes"
	"io"
	"os"

	"contentdex/internal/model"
)

// sniffLimit bounds the header read for magic-byte detection.
const sniffLimit = 4096

type signature struct {
	offset int
	magic  []byte
	ext    string
}

var signatures = []signature{
	{0, []byte("%PDF"), "pdf"},
	{0, []byte("PK\x03\x04"), "zip"},
	{0, []byte("\x89PNG\r\n\x1a\n"), "png"},
	{0, []byte{0xFF, 0xD8, 0xFF}, "jpg"},
	{0, []byte("GIF87a"), "gif"},
	{0, []byte("GIF89a"), "gif"},
	{0, []byte("II*\x00"), "tif"},
	{0, []byte("MM\x00*"), "tif"},
	{0, []byte{0x1F, 0x8B}, "gz"},
	{0, []byte("Rar!\x1A\x07"), "rar"},
	{0, []byte("7z\xBC\xAF\x27\x1C"), "7z"},
	{0, []byte("BZh"), "bz2"},
	{0, []byte{0x00, 0x00, 0x01, 0x00}, "ico"},
	{0, []byte("BM"), "bmp"},
	{257, []byte("ustar"), "tar"},
}

// emailHeaders mark a file as an RFC 5322 message when one of them opens
// the first line.
var emailHeaders = []string{"From:", "Received:", "Return-Path:", "Delivered-To:"}

// Sniff identifies the true format of data by magic bytes, returning the
// canonical extension or "".
func Sniff(data []byte) string {
	for _, sig := range signatures {
		end := sig.offset + len(sig.magic)
		if len(data) >= end && bytes.Equal(data[sig.offset:end], sig.magic) {
			if sig.ext == "bmp" && bmpLooksInvalid(data) {
				continue
			}
			return sig.ext
		}
	}
	if len(data) >= 12 && bytes.Equal(data[:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")) {
		return "webp"
	}
	firstLine := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		firstLine = data[:i]
	}
	for _, h := range emailHeaders {
		if bytes.HasPrefix(firstLine, []byte(h)) {
			return "eml"
		}
	}
	return ""
}

// bmpLooksInvalid guards the weak two-byte "BM" signature.
func bmpLooksInvalid(data []byte) bool {
	return len(data) < 26
}

// SniffFile reads the file header and sniffs it.
func SniffFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	buf := make([]byte, sniffLimit)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", err
	}
	return Sniff(buf[:n]), nil
}

// extFamilies groups claimed extensions that legitimately share magic
// bytes with the sniffed format, so OOXML files are not "corrected" to
// .zip and .jpeg survives as .jpeg.
var extFamilies = map[string][]string{
	"zip": {"zip", "docx", "xlsx", "pptx", "jar", "epub", "odt", "ods", "odp"},
	"gz":  {"gz", "tgz"},
	"tif": {"tif", "tiff"},
	"jpg": {"jpg", "jpeg"},
	"eml": {"eml", "mbox", "txt", "log", "md"},
	"tar": {"tar"},
}

// CorrectName returns the filename to use for a staged child: when the
// magic bytes disagree with the claimed extension, the sniffed extension
// is appended so the right extractor picks the file up.
func CorrectName(name, path string) string {
	sniffed, err := SniffFile(path)
	if err != nil || sniffed == "" {
		return name
	}
	claimed := model.ExtOf(name)
	if claimed == sniffed {
		return name
	}
	for _, member := range extFamilies[sniffed] {
		if claimed == member {
			return name
		}
	}
	return name + "." + sniffed
}
