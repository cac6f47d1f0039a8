// Package notes keeps local drafts as plain files in one directory.
package notes

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/peterbourgon/diskv/v3"
)

var ErrNoteNotFound = errors.New("note not found")

// Store lists and reads notes. Files are written by the user's editor, so
// reads always go to disk.
type Store struct {
	d        *diskv.Diskv
	basePath string
}

func NewStore(basePath string) (*Store, error) {
	if err := os.MkdirAll(basePath, 0o700); err != nil {
		return nil, fmt.Errorf("create notes directory: %w", err)
	}
	return &Store{
		d: diskv.New(diskv.Options{
			BasePath:     basePath,
			CacheSizeMax: 0,
		}),
		basePath: basePath,
	}, nil
}

// List returns note names in lexical order, skipping hidden and backup files.
func (s *Store) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	names := make([]string, 0, 8)
	for key := range s.d.Keys(ctx.Done()) {
		if strings.HasPrefix(key, ".") || strings.HasSuffix(key, "~") {
			continue
		}
		names = append(names, key)
	}
	sort.Strings(names)
	return names, nil
}

func (s *Store) Read(name string) (string, error) {
	if err := validName(name); err != nil {
		return "", err
	}
	data, err := s.d.Read(name)
	if os.IsNotExist(err) {
		return "", fmt.Errorf("%s: %w", name, ErrNoteNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("read note %s: %w", name, err)
	}
	return string(data), nil
}

// PathFor returns the file an editor should open for name. The file does not
// need to exist yet.
func (s *Store) PathFor(name string) (string, error) {
	if err := validName(name); err != nil {
		return "", err
	}
	return filepath.Join(s.basePath, name), nil
}

func validName(name string) error {
	if name == "" || name == "." || name == ".." || strings.HasPrefix(name, ".") ||
		strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("invalid note name %q", name)
	}
	return nil
}
