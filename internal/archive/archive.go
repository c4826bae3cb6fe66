package archive

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zip"
)

const Ext = ".zip"

// entryTime is stamped on every entry so rebuilding an unchanged tree
// yields the same bytes.
var entryTime = time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC)

// Summary describes a written archive.
type Summary struct {
	Path    string
	Entries []string
	Bytes   int64
}

// Build zips every regular file under root into dest, with entry names
// relative to root. dest is written to a temp file and renamed into place.
func Build(root, dest string) (Summary, error) {
	info, err := os.Stat(root)
	if err != nil {
		return Summary{}, fmt.Errorf("archive root: %w", err)
	}
	if !info.IsDir() {
		return Summary{}, fmt.Errorf("archive root %s is not a directory", root)
	}
	absDest, err := filepath.Abs(dest)
	if err != nil {
		return Summary{}, err
	}

	tmp, err := os.CreateTemp(filepath.Dir(absDest), ".archive-*")
	if err != nil {
		return Summary{}, err
	}
	tmpPath := tmp.Name()
	success := false
	defer func() {
		if !success {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	zw := zip.NewWriter(tmp)
	var entries []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if abs, err := filepath.Abs(path); err == nil && (abs == absDest || abs == tmpPath) {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)
		if err := addFile(zw, path, name); err != nil {
			return fmt.Errorf("add %s: %w", name, err)
		}
		entries = append(entries, name)
		return nil
	})
	if err != nil {
		return Summary{}, err
	}
	if err := zw.Close(); err != nil {
		return Summary{}, err
	}
	if err := tmp.Close(); err != nil {
		return Summary{}, err
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return Summary{}, err
	}
	if err := os.Rename(tmpPath, absDest); err != nil {
		return Summary{}, err
	}
	success = true

	st, err := os.Stat(absDest)
	if err != nil {
		return Summary{}, err
	}
	return Summary{Path: absDest, Entries: entries, Bytes: st.Size()}, nil
}

func addFile(zw *zip.Writer, path, name string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w, err := zw.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: entryTime,
	})
	if err != nil {
		return err
	}
	_, err = io.Copy(w, f)
	return err
}

// List returns the entry names of an archive in stored order.
func List(path string) ([]string, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	out := make([]string, 0, len(r.File))
	for _, f := range r.File {
		out = append(out, f.Name)
	}
	return out, nil
}
