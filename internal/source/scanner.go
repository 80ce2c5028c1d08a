package source

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ScanPath resolves the input location. A file is returned as-is; a directory
// yields every *.csv directly inside it, sorted by name.
func ScanPath(path string) ([]DiscoveredFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	if !info.IsDir() {
		return []DiscoveredFile{{Path: path, Name: filepath.Base(path)}}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}

	var files []DiscoveredFile
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			continue
		}
		files = append(files, DiscoveredFile{
			Path: filepath.Join(path, e.Name()),
			Name: e.Name(),
		})
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrNoInput)
	}
	return files, nil
}
