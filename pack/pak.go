// SPDX-License-Identifier: GPL-2.0-or-later

// Package pack reads and writes PACK archives, a flat container to ship a
// sound bank as a single file. A Pack is an fs.FS.
package pack

import (
	"bytes"
	"encoding/binary"
	"io"
	"io/fs"
	"os"
	"path"
	"sort"
	"time"

	"github.com/pkg/errors"
)

type header struct {
	ID     [4]byte
	Offset int32
	Size   int32
}

type entry struct {
	Name   [56]byte
	Offset int32
	Size   int32
}

const entrySize = 64

var magic = [4]byte{'P', 'A', 'C', 'K'}

type Pack struct {
	r       io.ReaderAt
	closer  io.Closer
	files   map[string]*qfile
	name    string
	modTime time.Time
}

type qfile struct {
	name   string
	offset int64
	size   int64
}

// Open implements fs.FS.
func (p *Pack) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	q, ok := p.files[name]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	return &file{
		SectionReader: io.NewSectionReader(p.r, q.offset, q.size),
		info:          fileInfo{q: q, modTime: p.modTime},
	}, nil
}

// Names lists the entries in lexical order.
func (p *Pack) Names() []string {
	r := make([]string, 0, len(p.files))
	for n := range p.files {
		r = append(r, n)
	}
	sort.Strings(r)
	return r
}

func (p *Pack) String() string {
	return p.name
}

func (p *Pack) Close() error {
	if p.closer == nil {
		return nil
	}
	return p.closer.Close()
}

type file struct {
	*io.SectionReader
	info fileInfo
}

func (f *file) Stat() (fs.FileInfo, error) { return f.info, nil }
func (f *file) Close() error { return nil }

type fileInfo struct {
	q       *qfile
	modTime time.Time
}

func (i fileInfo) Name() string { return path.Base(i.q.name) }
func (i fileInfo) Size() int64 { return i.q.size }
func (i fileInfo) Mode() fs.FileMode { return 0444 }
func (i fileInfo) ModTime() time.Time { return i.modTime }
func (i fileInfo) IsDir() bool { return false }
func (i fileInfo) Sys() interface{} { return nil }

// NewReader parses the directory of r. size is the length of the archive.
func NewReader(r io.ReaderAt, size int64, name string) (*Pack, error) {
	p := &Pack{r: r, name: name}
	if err := p.init(size); err != nil {
		return nil, errors.Wrapf(err, "pack %s", name)
	}
	return p, nil
}

func (p *Pack) init(size int64) error {
	var h header
	if err := binary.Read(io.NewSectionReader(p.r, 0, 12), binary.LittleEndian, &h); err != nil {
		return err
	}
	if h.ID != magic {
		return errors.New("not a pack")
	}
	if h.Offset < 0 || h.Size < 0 || int64(h.Offset)+int64(h.Size) > size {
		return errors.New("directory out of range")
	}
	filenum := h.Size / entrySize
	dir := io.NewSectionReader(p.r, int64(h.Offset), int64(h.Size))
	p.files = make(map[string]*qfile, filenum)
	for i := int32(0); i < filenum; i++ {
		var e entry
		if err := binary.Read(dir, binary.LittleEndian, &e); err != nil {
			return err
		}
		n := bytes.IndexByte(e.Name[:], 0)
		if n < 0 {
			n = len(e.Name)
		}
		name := string(e.Name[:n])
		if p.files[name] != nil {
			return errors.Errorf("%q is not unique", name)
		}
		if e.Offset < 0 || e.Size < 0 || int64(e.Offset)+int64(e.Size) > size {
			return errors.Errorf("%q out of range", name)
		}
		p.files[name] = &qfile{
			name:   name,
			offset: int64(e.Offset),
			size:   int64(e.Size),
		}
	}
	return nil
}

// Open reads the pack file at name. The file stays open until Close.
func Open(name string) (*Pack, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	p, err := NewReader(f, st.Size(), name)
	if err != nil {
		f.Close()
		return nil, err
	}
	p.closer = f
	p.modTime = st.ModTime()
	return p, nil
}

// Write stores files as a pack. Names are limited to 55 bytes.
func Write(w io.Writer, files map[string][]byte) error {
	names := make([]string, 0, len(files))
	for n := range files {
		if len(n) >= len(entry{}.Name) {
			return errors.Errorf("name %q too long", n)
		}
		if !fs.ValidPath(n) {
			return errors.Errorf("invalid name %q", n)
		}
		names = append(names, n)
	}
	sort.Strings(names)

	offset := int32(12)
	dir := make([]entry, 0, len(names))
	for _, n := range names {
		e := entry{Offset: offset, Size: int32(len(files[n]))}
		copy(e.Name[:], n)
		dir = append(dir, e)
		offset += e.Size
	}
	h := header{ID: magic, Offset: offset, Size: int32(len(dir) * entrySize)}
	if err := binary.Write(w, binary.LittleEndian, &h); err != nil {
		return err
	}
	for _, n := range names {
		if _, err := w.Write(files[n]); err != nil {
			return err
		}
	}
	return binary.Write(w, binary.LittleEndian, dir)
}
