package extract

import (
	"archive/tar"
	"archive/zip"
	"compress/bzip2"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"contentdex/internal/model"
)

const archiveMemberMaxBytes = 10 * 1024 * 1024 // 10 MiB

// archiveExtractor stages archive members under the extraction folder.
// rar and 7z have no stdlib support and degrade to MissingDependency.
type archiveExtractor struct {
	stagingRoot string
}

func (e *archiveExtractor) Extensions() []string {
	return []string{"zip", "tar", "gz", "tgz", "bz2", "rar", "7z"}
}

// archiveFormat returns a canonical format string for the file name, or
// "" when the format has no stdlib extractor.
func archiveFormat(name string) string {
	name = strings.ToLower(filepath.Base(name))
	switch {
	case strings.HasSuffix(name, ".tar.gz"), strings.HasSuffix(name, ".tgz"):
		return "tar.gz"
	case strings.HasSuffix(name, ".tar.bz2"):
		return "tar.bz2"
	case strings.HasSuffix(name, ".tar"):
		return "tar"
	case strings.HasSuffix(name, ".zip"):
		return "zip"
	case strings.HasSuffix(name, ".gz"):
		return "gz"
	case strings.HasSuffix(name, ".bz2"):
		return "bz2"
	default:
		return ""
	}
}

func (e *archiveExtractor) Extract(ctx context.Context, fi model.FileInfo) model.Extracted {
	if fi.Ext == "rar" || fi.Ext == "7z" {
		return model.ExtractError{
			Kind:   model.KindMissingDependency,
			Detail: fmt.Sprintf("no %s backend available", fi.Ext),
		}
	}
	format := archiveFormat(fi.Name)
	if format == "" {
		return model.ExtractError{
			Kind:   model.KindUnsupportedType,
			Detail: fmt.Sprintf("unrecognized archive name %q", fi.Name),
		}
	}

	dir, err := StageDir(e.stagingRoot, fi.Name)
	if err != nil {
		return model.ExtractError{Kind: model.KindPermanent, Detail: err.Error()}
	}

	switch format {
	case "zip":
		err = extractZip(fi.Path, dir)
	case "tar", "tar.gz", "tar.bz2":
		err = extractTar(fi.Path, format, dir)
	case "gz":
		err = extractSingleGzip(fi.Path, fi.Name, dir)
	case "bz2":
		err = extractSingleBzip2(fi.Path, fi.Name, dir)
	}
	if err != nil {
		return model.ExtractError{
			Kind:   model.KindInvalidData,
			Detail: fmt.Sprintf("extracting %s: %v", fi.Name, err),
		}
	}
	return model.Archive{ExtractionDir: dir}
}

// extractZip writes safe members into dir. Unsafe or oversized members
// are skipped silently.
func extractZip(absPath, dir string) error {
	r, err := zip.OpenReader(absPath)
	if err != nil {
		return fmt.Errorf("open zip: %w", err)
	}
	defer r.Close()

	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if !isSafeMemberPath(f.Name) {
			continue
		}
		if f.UncompressedSize64 > archiveMemberMaxBytes {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			continue
		}
		content, readErr := io.ReadAll(io.LimitReader(rc, archiveMemberMaxBytes+1))
		_ = rc.Close()
		if readErr != nil || int64(len(content)) > archiveMemberMaxBytes {
			continue
		}
		if err := writeMember(dir, f.Name, content); err != nil {
			return err
		}
	}
	return nil
}

func extractTar(absPath, format, dir string) error {
	f, err := os.Open(absPath)
	if err != nil {
		return fmt.Errorf("open tar: %w", err)
	}
	defer f.Close()

	var rd io.Reader = f
	switch format {
	case "tar.gz":
		gr, err := gzip.NewReader(f)
		if err != nil {
			return fmt.Errorf("gzip reader: %w", err)
		}
		defer gr.Close()
		rd = gr
	case "tar.bz2":
		rd = bzip2.NewReader(f)
	}

	tr := tar.NewReader(rd)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			break // corrupted entry: keep what was staged so far
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		if !isSafeMemberPath(hdr.Name) {
			continue
		}
		if hdr.Size > archiveMemberMaxBytes {
			continue
		}
		content, readErr := io.ReadAll(io.LimitReader(tr, archiveMemberMaxBytes+1))
		if readErr != nil || int64(len(content)) > archiveMemberMaxBytes {
			continue
		}
		if err := writeMember(dir, hdr.Name, content); err != nil {
			return err
		}
	}
	return nil
}

// extractSingleGzip handles a bare .gz wrapping one file.
func extractSingleGzip(absPath, name, dir string) error {
	f, err := os.Open(absPath)
	if err != nil {
		return fmt.Errorf("open gzip: %w", err)
	}
	defer f.Close()
	gr, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("gzip reader: %w", err)
	}
	defer gr.Close()
	content, err := io.ReadAll(io.LimitReader(gr, archiveMemberMaxBytes+1))
	if err != nil || int64(len(content)) > archiveMemberMaxBytes {
		return fmt.Errorf("gzip member unreadable or too large")
	}
	return writeMember(dir, strings.TrimSuffix(name, ".gz"), content)
}

func extractSingleBzip2(absPath, name, dir string) error {
	f, err := os.Open(absPath)
	if err != nil {
		return fmt.Errorf("open bzip2: %w", err)
	}
	defer f.Close()
	content, err := io.ReadAll(io.LimitReader(bzip2.NewReader(f), archiveMemberMaxBytes+1))
	if err != nil || int64(len(content)) > archiveMemberMaxBytes {
		return fmt.Errorf("bzip2 member unreadable or too large")
	}
	return writeMember(dir, strings.TrimSuffix(name, ".bz2"), content)
}
