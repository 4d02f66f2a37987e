package station

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// fileCache persists learned station codes as a JSON object of name -> code
type fileCache struct {
	path   string
	maxAge time.Duration // zero means entries never go stale
}

// load reads the cache file. stale reports whether the file is older than maxAge.
func (c *fileCache) load() (codes map[string]string, stale bool, err error) {
	info, err := os.Stat(c.path)
	if err != nil {
		return nil, false, err
	}

	data, err := os.ReadFile(c.path)
	if err != nil {
		return nil, false, err
	}

	if err := json.Unmarshal(data, &codes); err != nil {
		return nil, false, fmt.Errorf("failed to parse %s: %w", c.path, err)
	}

	if c.maxAge > 0 && time.Since(info.ModTime()) > c.maxAge {
		stale = true
	}
	return codes, stale, nil
}

// save writes codes to a temp file in the same directory and renames it over
// the cache, so readers never see a partially written document.
func (c *fileCache) save(codes map[string]string) error {
	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(c.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	enc := json.NewEncoder(tmp)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(codes); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to encode station codes: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return err
	}

	return os.Rename(tmpPath, c.path)
}
