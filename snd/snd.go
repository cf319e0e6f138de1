// SPDX-License-Identifier: GPL-2.0-or-later

// Package snd is the spatial mixing engine: a listener, emitters bound to
// anchors and the distance model, rendered into one beep.Streamer.
package snd

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/gopxl/beep/v2"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"anchorsound/math"
	"anchorsound/math/mat"
	"anchorsound/math/vec"
)

const (
	DefaultSampleRate = beep.SampleRate(44100)
)

// Output is the audio device pulling the rendered mix. Close must not
// return while the streamer is still being read.
type Output interface {
	Play(s beep.Streamer) error
	Close() error
}

// Suspender is implemented by outputs that can pause the device.
type Suspender interface {
	Suspend() error
	Resume() error
}

// VolumeSetter is implemented by outputs with a device volume.
type VolumeSetter interface {
	SetVolume(v float64)
}

// NullOutput never pulls. It is used without an audio device.
type NullOutput struct{}

func (NullOutput) Play(beep.Streamer) error { return nil }
func (NullOutput) Close() error { return nil }

type engineState int

const (
	idle engineState = iota
	running
	stopped
)

func (s engineState) String() string {
	switch s {
	case idle:
		return "idle"
	case running:
		return "running"
	}
	return "stopped"
}

type EngineOptions struct {
	SampleRate beep.SampleRate
	Reverb     ReverbPreset
	Output     Output
	Logger     logrus.FieldLogger
}

// Mix is the result of spatializing one source against the listener.
type Mix struct {
	Distance   float64
	Gain       float64
	Left       float64
	Right      float64
	ReverbSend float64
	Culled     bool
}

type Engine struct {
	rate     beep.SampleRate
	output   Output
	log      logrus.FieldLogger
	listener atomic.Pointer[mat.Mat4]

	mu      sync.Mutex
	state   engineState
	sources map[string]*Source
	events  []*PlaybackEvent

	// render state, guarded by renderMu
	renderMu sync.Mutex
	reverb   *Reverb
	active   []*PlaybackEvent
	scratch  [][2]float64
	send     []float64
}

func NewEngine(opts EngineOptions) *Engine {
	if opts.SampleRate == 0 {
		opts.SampleRate = DefaultSampleRate
	}
	if opts.Output == nil {
		opts.Output = NullOutput{}
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	e := &Engine{
		rate:    opts.SampleRate,
		output:  opts.Output,
		log:     opts.Logger.WithField("component", "engine"),
		sources: make(map[string]*Source),
		reverb:  NewReverb(opts.Reverb, opts.SampleRate),
	}
	id := mat.Identity()
	e.listener.Store(&id)
	return e
}

func (e *Engine) SampleRate() beep.SampleRate { return e.rate }

// Start hands the mix to the output. Starting a stopped engine fails.
func (e *Engine) Start() error {
	e.mu.Lock()
	switch e.state {
	case running:
		e.mu.Unlock()
		return nil
	case stopped:
		e.mu.Unlock()
		return &EngineStartError{Err: ErrEngineStopped}
	}
	e.state = running
	e.mu.Unlock()

	if err := e.output.Play(e); err != nil {
		e.mu.Lock()
		e.state = idle
		e.mu.Unlock()
		e.log.WithError(err).Error("Could not start audio output")
		return &EngineStartError{Err: err}
	}
	e.log.WithFields(logrus.Fields{
		"sample_rate": e.rate,
		"reverb":      e.reverb.Preset(),
	}).Info("Engine started")
	return nil
}

// Stop is synchronous. Once it returns no render touches sources or events
// anymore and all playback events are done.
func (e *Engine) Stop() error {
	e.mu.Lock()
	if e.state == stopped {
		e.mu.Unlock()
		return nil
	}
	wasRunning := e.state == running
	e.state = stopped
	e.mu.Unlock()

	var err error
	if wasRunning {
		err = e.output.Close()
	}
	// wait for a render in flight
	e.renderMu.Lock()
	e.mu.Lock()
	for _, ev := range e.events {
		ev.Stop()
	}
	e.events = nil
	e.mu.Unlock()
	e.active = nil
	e.renderMu.Unlock()

	e.log.Info("Engine stopped")
	return errors.Wrap(err, "close output")
}

// Block pauses the output device if it supports it. Sources, events and
// poses are kept and keep being updated.
func (e *Engine) Block() error {
	s, ok := e.output.(Suspender)
	if !ok {
		return nil
	}
	e.log.Info("Blocking audio output")
	return errors.Wrap(s.Suspend(), "suspend output")
}

func (e *Engine) Unblock() error {
	s, ok := e.output.(Suspender)
	if !ok {
		return nil
	}
	e.log.Info("Unblocking audio output")
	return errors.Wrap(s.Resume(), "resume output")
}

// SetVolume sets the master volume, clamped to [0,1]. It returns false if
// the output has no volume control.
func (e *Engine) SetVolume(v float64) bool {
	vs, ok := e.output.(VolumeSetter)
	if !ok {
		return false
	}
	vs.SetVolume(math.Clamp(0, v, 1))
	return true
}

func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state == running
}

// SetListener publishes the listener transform for the next render quantum.
func (e *Engine) SetListener(m mat.Mat4) bool {
	if !m.Finite() {
		return false
	}
	e.listener.Store(&m)
	return true
}

func (e *Engine) Listener() mat.Mat4 {
	return *e.listener.Load()
}

// CreateSource adds an emitter for anchor to the graph. The initial
// transform is the identity. If anchor already has a source that source is
// returned unchanged. asset may be nil, triggering such a source plays
// nothing.
func (e *Engine) CreateSource(anchor string, mix *SpatialMixConfig, asset *Asset, shapeRadius float32, opts SourceOptions) (*Source, error) {
	if mix == nil {
		return nil, errors.Wrapf(ErrNoMixConfig, "anchor %q", anchor)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == stopped {
		return nil, ErrEngineStopped
	}
	if s, ok := e.sources[anchor]; ok {
		return s, nil
	}
	s := &Source{
		engine:      e,
		anchor:      anchor,
		mix:         mix,
		asset:       asset,
		shapeRadius: max(shapeRadius, 0),
		opts:        opts,
	}
	id := mat.Identity()
	s.transform.Store(&id)
	e.sources[anchor] = s
	fields := logrus.Fields{
		"anchor": anchor,
		"mix":    mix.ID,
		"radius": s.shapeRadius,
	}
	if asset != nil {
		fields["asset"] = asset.Name()
	}
	e.log.WithFields(fields).Debug("Created source")
	return s, nil
}

// Source looks up the emitter of anchor.
func (e *Engine) Source(anchor string) (*Source, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.sources[anchor]
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "source %q", anchor)
	}
	return s, nil
}

// Sources returns all emitters ordered by anchor name.
func (e *Engine) Sources() []*Source {
	e.mu.Lock()
	r := make([]*Source, 0, len(e.sources))
	for _, s := range e.sources {
		r = append(r, s)
	}
	e.mu.Unlock()
	sort.Slice(r, func(i, j int) bool { return r[i].anchor < r[j].anchor })
	return r
}

// ActiveEvents is the number of playback events not done yet.
func (e *Engine) ActiveEvents() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, ev := range e.events {
		if ev.Active() {
			n++
		}
	}
	return n
}

// Spatialize evaluates s against the current listener.
func (e *Engine) Spatialize(s *Source) Mix {
	return spatialize(e.Listener(), s)
}

func spatialize(listener mat.Mat4, s *Source) Mix {
	v := vec.Sub(s.Transform().Position(), listener.Position())
	dist := v.Length()
	gain := s.mix.Gain(dist, s.shapeRadius)
	if s.opts.Volume > 0 {
		gain *= s.opts.Volume
	}
	m := Mix{
		Distance:   float64(dist),
		Gain:       float64(gain),
		ReverbSend: float64(s.mix.ReverbSend),
	}
	if gain <= 0 {
		m.Culled = true
		return m
	}
	var dot float32
	if dist > s.shapeRadius {
		right := listener.Right().Normalize()
		dot = vec.Dot(right, v.Normalize())
	}
	m.Left = math.Clamp(0, float64((1-dot)*gain), 1)
	m.Right = math.Clamp(0, float64((1+dot)*gain), 1)
	return m
}

// Stream renders all active events. It is called from the output goroutine.
func (e *Engine) Stream(samples [][2]float64) (int, bool) {
	e.renderMu.Lock()
	defer e.renderMu.Unlock()

	e.mu.Lock()
	if e.state == stopped {
		e.mu.Unlock()
		return 0, false
	}
	e.active = append(e.active[:0], e.events...)
	e.mu.Unlock()

	n := len(samples)
	clear(samples)
	if cap(e.scratch) < n {
		e.scratch = make([][2]float64, n)
		e.send = make([]float64, n)
	}
	scratch := e.scratch[:n]
	send := e.send[:n]
	clear(send)

	listener := e.Listener()
	finished := false
	for _, ev := range e.active {
		if !ev.Active() {
			finished = true
			continue
		}
		m := spatialize(listener, ev.source)
		if m.Culled {
			continue
		}
		clear(scratch)
		if !ev.render(scratch, samples, send, m) {
			finished = true
		}
	}
	e.reverb.Process(send, samples)

	if finished {
		e.prune()
	}
	return n, true
}

func (e *Engine) prune() {
	e.mu.Lock()
	defer e.mu.Unlock()
	kept := e.events[:0]
	for _, ev := range e.events {
		if ev.Active() {
			kept = append(kept, ev)
		}
	}
	clear(e.events[len(kept):])
	e.events = kept
}

func (e *Engine) Err() error {
	return nil
}
