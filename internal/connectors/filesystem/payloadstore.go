package filesystem

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"github.com/custodia-labs/catsync/internal/core/domain"
	"github.com/custodia-labs/catsync/internal/core/ports/driven"
)

// PayloadStore keeps one file per item in dir.
type PayloadStore struct {
	fs  afero.Fs
	dir string
	ext string
}

var _ driven.PayloadStore = (*PayloadStore)(nil)

// NewPayloadStore creates the payload directory if needed.
// ext is normalised to start with a dot.
func NewPayloadStore(fsys afero.Fs, dir, ext string) (*PayloadStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: empty payload directory", domain.ErrInvalidInput)
	}
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	if err := fsys.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create payload directory: %w", err)
	}
	return &PayloadStore{fs: fsys, dir: dir, ext: ext}, nil
}

// Dir returns the payload directory.
func (s *PayloadStore) Dir() string {
	return s.dir
}

// Extension returns the payload file extension.
func (s *PayloadStore) Extension() string {
	return s.ext
}

// Path returns where the payload for name lives.
func (s *PayloadStore) Path(name string) string {
	return filepath.Join(s.dir, name+s.ext)
}

// Exists reports whether a regular file exists for name.
func (s *PayloadStore) Exists(name string) bool {
	if !validName(name) {
		return false
	}
	info, err := s.fs.Stat(s.Path(name))
	return err == nil && info.Mode().IsRegular()
}

// Read returns the payload, or domain.ErrNotFound.
func (s *PayloadStore) Read(name string) ([]byte, error) {
	if !validName(name) {
		return nil, fmt.Errorf("payload %q: %w", name, domain.ErrNotFound)
	}
	data, err := afero.ReadFile(s.fs, s.Path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("payload %s: %w", name, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read payload %s: %w", name, err)
	}
	return data, nil
}

// Write replaces the payload through a temp file and rename.
func (s *PayloadStore) Write(name string, data []byte) error {
	if !validName(name) {
		return fmt.Errorf("%w: payload name %q", domain.ErrInvalidInput, name)
	}

	tmp, err := afero.TempFile(s.fs, s.dir, "."+name+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp payload: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("write temp payload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("close temp payload: %w", err)
	}
	if err := s.fs.Rename(tmpName, s.Path(name)); err != nil {
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("rename payload %s: %w", name, err)
	}
	return nil
}

// Remove deletes the payload. A missing payload is not an error.
func (s *PayloadStore) Remove(name string) error {
	if !validName(name) {
		return nil
	}
	err := s.fs.Remove(s.Path(name))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove payload %s: %w", name, err)
	}
	return nil
}

// List returns the sorted names of all payloads with the store's extension.
// The extension match is exact so every listed name resolves through Path.
// Hidden files and directories are skipped.
func (s *PayloadStore) List() ([]string, error) {
	entries, err := afero.ReadDir(s.fs, s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list payloads: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if name, ok := s.nameOf(entry.Name()); ok && entry.Mode().IsRegular() {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// nameOf maps a file base name to an item name.
func (s *PayloadStore) nameOf(base string) (string, bool) {
	if strings.HasPrefix(base, ".") {
		return "", false
	}
	if !strings.HasSuffix(base, s.ext) {
		return "", false
	}
	name := strings.TrimSuffix(base, s.ext)
	return name, validName(name)
}

func validName(name string) bool {
	return name != "" && name != "." && name != ".." &&
		!strings.ContainsAny(name, `/\`)
}
