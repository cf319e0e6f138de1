// SPDX-License-Identifier: GPL-2.0-or-later

package snd

import (
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"anchorsound/math/mat"
)

type SourceOptions struct {
	Loop bool
	// Volume scales the distance gain, zero means unity.
	Volume float32
}

// Source is a spatial emitter bound to an anchor. It lives until the engine
// is stopped.
type Source struct {
	engine      *Engine
	anchor      string
	mix         *SpatialMixConfig
	asset       *Asset // nil if the asset could not be registered
	shapeRadius float32
	opts        SourceOptions
	transform   atomic.Pointer[mat.Mat4]
	updates     atomic.Uint64

	// guarded by engine.mu
	triggered bool
	event     *PlaybackEvent
}

func (s *Source) Anchor() string { return s.anchor }
func (s *Source) Mix() *SpatialMixConfig { return s.mix }
func (s *Source) Asset() *Asset { return s.asset }
func (s *Source) ShapeRadius() float32 { return s.shapeRadius }
func (s *Source) Options() SourceOptions { return s.opts }
func (s *Source) Transform() mat.Mat4 { return *s.transform.Load() }

// Updates counts the accepted SetTransform calls.
func (s *Source) Updates() uint64 { return s.updates.Load() }

// SetTransform moves the emitter. It never blocks, the renderer picks the
// new position up with its next quantum. Non finite transforms are dropped
// and the last good one stays in effect.
func (s *Source) SetTransform(m mat.Mat4) bool {
	if !m.Finite() {
		s.engine.log.WithFields(logrus.Fields{
			"anchor": s.anchor,
		}).Warn("Dropping non finite source transform")
		return false
	}
	s.transform.Store(&m)
	s.updates.Add(1)
	return true
}

// Trigger starts the playback of the bound asset. Only the first call on a
// source starts anything, later calls return the existing event and false.
func (s *Source) Trigger() (*PlaybackEvent, bool) {
	return s.engine.trigger(s)
}

func (s *Source) Triggered() bool {
	s.engine.mu.Lock()
	defer s.engine.mu.Unlock()
	return s.triggered
}

// Event returns the playback event or nil if the source never played.
func (s *Source) Event() *PlaybackEvent {
	s.engine.mu.Lock()
	defer s.engine.mu.Unlock()
	return s.event
}

func (e *Engine) trigger(s *Source) (*PlaybackEvent, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == stopped {
		return nil, false
	}
	if s.triggered {
		return s.event, false
	}
	s.triggered = true
	log := e.log.WithFields(logrus.Fields{
		"anchor": s.anchor,
	})
	if s.asset == nil {
		log.Warn("No asset for triggered source, nothing to play")
		return nil, false
	}
	ev, err := newPlaybackEvent(s)
	if err != nil {
		log.WithError(err).Error("Could not create playback event")
		return nil, false
	}
	s.event = ev
	e.events = append(e.events, ev)
	log.WithFields(logrus.Fields{
		"asset": s.asset.Name(),
		"event": ev.ID(),
		"loop":  s.opts.Loop,
	}).Info("Triggered source")
	return ev, true
}
