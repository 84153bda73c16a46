package pipeline

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"

	"contentdex/internal/model"
)

// submitChildren queues every regular file staged under dir as a child of
// the given path row.
func (d *Dispatcher) submitChildren(ctx context.Context, dir string, parentPathID int64, parentDepth int) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		d.log.Warn().Err(err).Str("dir", dir).Msg("staged children unreadable")
		return
	}
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			d.log.Warn().Err(err).Str("name", entry.Name()).Msg("staged child stat failed")
			continue
		}
		fi := model.FileInfoFor(filepath.Join(dir, entry.Name()), entry.Name(), info.Size(), info.ModTime())
		fi.ParentPathID = parentPathID
		fi.Depth = parentDepth + 1
		d.Submit(fi)
	}
}

// Walk enumerates the regular files under root for a top-level ingestion
// run. Root may be a single file or a directory. Hidden files and
// directories are skipped, except when named as the root itself.
func Walk(root string) ([]model.FileInfo, error) {
	var files []model.FileInfo
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := entry.Name()
		if path != root && name[0] == '.' {
			if entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !entry.Type().IsRegular() {
			return nil
		}
		info, err := entry.Info()
		if err != nil {
			return err
		}
		files = append(files, model.FileInfoFor(path, name, info.Size(), info.ModTime()))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
