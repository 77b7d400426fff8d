// Package storage keeps small JSON documents (settings, favorites) as flat
// files under the application config root.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/peterbourgon/diskv/v3"
)

// ErrNotFound is returned by ReadJSON when the document has never been written.
var ErrNotFound = errors.New("storage: document not found")

type DocStore struct {
	d        *diskv.Diskv
	basePath string
}

// NewDocStore stores each key as <basePath>/<key>. Writes go through a temp
// directory and a rename, so readers never observe a half-written document.
func NewDocStore(basePath string) *DocStore {
	return &DocStore{
		d: diskv.New(diskv.Options{
			BasePath:     basePath,
			Transform:    func(string) []string { return []string{} },
			TempDir:      filepath.Join(basePath, ".tmp"),
			CacheSizeMax: 0,
			PathPerm:     0o755,
			FilePerm:     0o644,
		}),
		basePath: basePath,
	}
}

func (s *DocStore) BasePath() string {
	return s.basePath
}

// Path returns the file backing key.
func (s *DocStore) Path(key string) string {
	return filepath.Join(s.basePath, key)
}

func (s *DocStore) Has(key string) bool {
	return s.d.Has(key)
}

func (s *DocStore) ReadJSON(key string, v any) error {
	data, err := s.d.Read(key)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("read %s: %w", key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

// WriteJSON replaces the whole document.
func (s *DocStore) WriteJSON(key string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.d.Write(key, data); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

func (s *DocStore) Erase(key string) error {
	err := s.d.Erase(key)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
