// SPDX-License-Identifier: GPL-2.0-or-later

package snd

import (
	"sort"
	"sync"

	"github.com/gopxl/beep/v2"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"anchorsound/filesystem"
)

// Asset is a registered, fully decoded sound. It is immutable.
type Asset struct {
	name string
	file string
	buf  *beep.Buffer
}

func (a *Asset) Name() string { return a.name }

// File is the file reference the asset was registered with.
func (a *Asset) File() string { return a.file }

// Len is the number of frames at the engine sample rate.
func (a *Asset) Len() int { return a.buf.Len() }

func (a *Asset) Format() beep.Format { return a.buf.Format() }

func (a *Asset) streamer() beep.StreamSeeker {
	return a.buf.Streamer(0, a.buf.Len())
}

// Registry maps sound names to decoded assets. It is append only, the only
// way to drop assets is Close at the end of the session.
type Registry struct {
	mu      sync.RWMutex
	assets  map[string]*Asset
	files   *filesystem.Store
	decoder Decoder
	rate    beep.SampleRate
	log     logrus.FieldLogger
}

func NewRegistry(files *filesystem.Store, decoder Decoder, rate beep.SampleRate, log logrus.FieldLogger) *Registry {
	if decoder == nil {
		decoder = FileDecoder{}
	}
	if files == nil {
		files = filesystem.NewStore()
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Registry{
		assets:  make(map[string]*Asset),
		files:   files,
		decoder: decoder,
		rate:    rate,
		log:     log.WithField("component", "registry"),
	}
}

// Register resolves and decodes file and binds it to name.
func (r *Registry) Register(name, file string) (*Asset, error) {
	if r.has(name) {
		return nil, &DuplicateAssetError{Name: name}
	}
	f, err := r.files.Open(file)
	if err != nil {
		return nil, &AssetNotFoundError{Name: name, File: file, Err: err}
	}
	defer f.Close()
	buf, err := r.decoder.Decode(file, f, r.rate)
	if err != nil {
		return nil, &AssetNotFoundError{Name: name, File: file, Err: err}
	}
	return r.RegisterBuffer(name, file, buf)
}

// RegisterBuffer binds an already decoded buffer. The buffer must use the
// sample rate of the registry.
func (r *Registry) RegisterBuffer(name, file string, buf *beep.Buffer) (*Asset, error) {
	if buf == nil {
		return nil, &AssetNotFoundError{Name: name, File: file, Err: errors.New("no buffer")}
	}
	if buf.Format().SampleRate != r.rate {
		return nil, &AssetNotFoundError{Name: name, File: file,
			Err: errors.Errorf("sample rate %d, want %d", buf.Format().SampleRate, r.rate)}
	}
	a := &Asset{name: name, file: file, buf: buf}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.assets[name]; ok {
		return nil, &DuplicateAssetError{Name: name}
	}
	r.assets[name] = a
	r.log.WithFields(logrus.Fields{
		"name":   name,
		"file":   file,
		"frames": buf.Len(),
	}).Debug("Registered sound asset")
	return a, nil
}

func (r *Registry) has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.assets[name]
	return ok
}

// Lookup returns ErrNotFound for unknown names.
func (r *Registry) Lookup(name string) (*Asset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.assets[name]
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "asset %q", name)
	}
	return a, nil
}

// Names returns the sorted asset names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := make([]string, 0, len(r.assets))
	for k := range r.assets {
		n = append(n, k)
	}
	sort.Strings(n)
	return n
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.assets)
}

func (r *Registry) SampleRate() beep.SampleRate {
	return r.rate
}

// Close drops all assets. Handles given out stay valid for running streams.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.assets = make(map[string]*Asset)
}
