package csvimport

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// ArchiveFiles zips the named files from dir. Entries are stored under their
// base names in the given order.
func ArchiveFiles(dir string, names []string) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	for _, name := range names {
		if err := addFile(zw, filepath.Join(dir, name), name); err != nil {
			_ = zw.Close()
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish archive: %w", err)
	}
	return buf.Bytes(), nil
}

func addFile(zw *zip.Writer, src, name string) error {
	f, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", name, err)
	}
	defer f.Close()

	w, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("failed to add %s to archive: %w", name, err)
	}
	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("failed to write %s to archive: %w", name, err)
	}
	return nil
}

// ReadArchive returns the CSV entries of a ZIP archive keyed by lower-case
// base name without extension ("products" for "export/Products.csv").
// Directories and non-CSV entries are skipped. Any entry larger than
// maxEntrySize yields ErrFileTooLarge; maxEntrySize <= 0 disables the check.
func ReadArchive(data []byte, maxEntrySize int64) (map[string][]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("invalid zip archive: %w", err)
	}

	files := make(map[string][]byte)
	for _, entry := range zr.File {
		if entry.FileInfo().IsDir() {
			continue
		}
		base := path.Base(entry.Name)
		ext := path.Ext(base)
		if !strings.EqualFold(ext, ".csv") || strings.HasPrefix(base, ".") {
			continue
		}
		key := strings.ToLower(strings.TrimSuffix(base, ext))

		content, err := readEntry(entry, maxEntrySize)
		if err != nil {
			return nil, err
		}
		files[key] = content
	}
	return files, nil
}

func readEntry(entry *zip.File, maxSize int64) ([]byte, error) {
	if maxSize > 0 && entry.UncompressedSize64 > uint64(maxSize) {
		return nil, fmt.Errorf("%s: %w", entry.Name, ErrFileTooLarge)
	}
	rc, err := entry.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", entry.Name, err)
	}
	defer rc.Close()

	var r io.Reader = rc
	if maxSize > 0 {
		r = io.LimitReader(rc, maxSize+1)
	}
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", entry.Name, err)
	}
	if maxSize > 0 && int64(len(content)) > maxSize {
		return nil, fmt.Errorf("%s: %w", entry.Name, ErrFileTooLarge)
	}
	return content, nil
}
