// SPDX-License-Identifier: GPL-2.0-or-later

// Package filesystem resolves asset file references against an ordered list
// of search roots. Roots added later shadow earlier ones.
package filesystem

import (
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"anchorsound/pack"
)

type File interface {
	io.ReadSeekCloser
	Stat() (fs.FileInfo, error)
}

type Store struct {
	mutex sync.RWMutex
	roots []fs.FS
	names []string
	packs []*pack.Pack
}

// NewStore creates a store searching dirs, the last dir has the highest
// priority.
func NewStore(dirs ...string) *Store {
	s := &Store{}
	for _, d := range dirs {
		s.AddDir(d)
	}
	return s
}

// AddDir binds dir before all existing roots.
func (s *Store) AddDir(dir string) {
	s.AddFS(dir, os.DirFS(dir))
}

// AddFS binds an arbitrary file system before all existing roots.
func (s *Store) AddFS(name string, fsys fs.FS) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.roots = append([]fs.FS{fsys}, s.roots...)
	s.names = append([]string{name}, s.names...)
}

// Mount binds a directory or a .pak sound bank.
func (s *Store) Mount(name string) error {
	if Ext(name) != ".pak" {
		st, err := os.Stat(name)
		if err != nil {
			return errors.Wrap(err, "mount")
		}
		if !st.IsDir() {
			return errors.Errorf("mount %s: not a directory", name)
		}
		s.AddDir(name)
		return nil
	}
	p, err := pack.Open(name)
	if err != nil {
		return errors.Wrap(err, "mount")
	}
	s.AddFS(name, p)
	s.mutex.Lock()
	s.packs = append(s.packs, p)
	s.mutex.Unlock()
	return nil
}

// Close releases the mounted packs.
func (s *Store) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	var first error
	for _, p := range s.packs {
		if err := p.Close(); err != nil && first == nil {
			first = err
		}
	}
	s.packs = nil
	return first
}

func (s *Store) Roots() []string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return append([]string(nil), s.names...)
}

func clean(name string) string {
	name = filepath.ToSlash(name)
	return strings.TrimPrefix(path.Clean("/"+name), "/")
}

// Open returns the first match. Absolute paths bypass the roots.
func (s *Store) Open(name string) (File, error) {
	if filepath.IsAbs(name) {
		f, err := os.Open(name)
		if err != nil {
			return nil, err
		}
		return f, nil
	}
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	n := clean(name)
	for _, r := range s.roots {
		f, err := r.Open(n)
		if err != nil {
			continue
		}
		rf, ok := f.(File)
		if !ok {
			f.Close()
			continue
		}
		return rf, nil
	}
	return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
}

func (s *Store) ReadFile(name string) ([]byte, error) {
	file, err := s.Open(name)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(file)
}

func isSep(c uint8) bool {
	return c == '/' || c == '\\'
}

// Ext returns the lower case extension including the dot.
func Ext(path string) string {
	for i := len(path) - 1; i >= 0 && !isSep(path[i]); i-- {
		if path[i] == '.' {
			return strings.ToLower(path[i:])
		}
	}
	return ""
}

func StripExt(path string) string {
	for i := len(path) - 1; i >= 0 && !isSep(path[i]); i-- {
		if path[i] == '.' {
			return path[:i]
		}
	}
	return path
}
