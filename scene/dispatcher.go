// SPDX-License-Identifier: GPL-2.0-or-later

package scene

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"anchorsound/math/mat"
	"anchorsound/snd"
)

// AnchorState only moves forward: Unknown -> Bound -> Triggered.
type AnchorState int

const (
	Unknown AnchorState = iota
	Bound
	Triggered
)

func (s AnchorState) String() string {
	switch s {
	case Unknown:
		return "unknown"
	case Bound:
		return "bound"
	case Triggered:
		return "triggered"
	}
	return fmt.Sprintf("AnchorState(%d)", int(s))
}

// Emitter is the part of a source the dispatcher drives.
type Emitter interface {
	SetTransform(m mat.Mat4) bool
	Trigger() (*snd.PlaybackEvent, bool)
}

// Lookup resolves an anchor name to its emitter.
type Lookup func(anchor string) (Emitter, error)

// Dispatcher binds discovered anchors to their sources and triggers every
// source at most once per session. Re-discovery only moves the source.
type Dispatcher struct {
	mu       sync.Mutex
	lookup   Lookup
	states   map[string]AnchorState
	unknown  map[string]bool
	triggers int
	log      logrus.FieldLogger
}

func NewDispatcher(lookup Lookup, log logrus.FieldLogger) *Dispatcher {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Dispatcher{
		lookup:  lookup,
		states:  make(map[string]AnchorState),
		unknown: make(map[string]bool),
		log:     log.WithField("component", "dispatcher"),
	}
}

// Discover handles an anchor discovery and returns the resulting state.
// Anchors without a source stay Unknown and are reported once.
func (d *Dispatcher) Discover(anchor string, m mat.Mat4) AnchorState {
	d.mu.Lock()
	defer d.mu.Unlock()
	e, err := d.lookup(anchor)
	if err != nil {
		if !d.unknown[anchor] {
			d.unknown[anchor] = true
			d.log.WithFields(logrus.Fields{
				"anchor": anchor,
			}).Warn("No sound registered for anchor")
		}
		return Unknown
	}
	e.SetTransform(m)
	st := d.states[anchor]
	if st == Unknown {
		st = Bound
		d.log.WithFields(logrus.Fields{
			"anchor":   anchor,
			"position": m.Position(),
		}).Info("Anchor discovered")
	}
	if st == Bound {
		e.Trigger()
		d.triggers++
		st = Triggered
	}
	d.states[anchor] = st
	return st
}

// Update moves the source of an already discovered anchor. Updates of
// anchors never discovered are ignored.
func (d *Dispatcher) Update(anchor string, m mat.Mat4) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.states[anchor] == Unknown {
		return false
	}
	e, err := d.lookup(anchor)
	if err != nil {
		return false
	}
	return e.SetTransform(m)
}

func (d *Dispatcher) State(anchor string) AnchorState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.states[anchor]
}

// Counts returns the number of anchors per state and the trigger calls made.
func (d *Dispatcher) Counts() (bound, triggered, triggers int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, st := range d.states {
		switch st {
		case Bound:
			bound++
		case Triggered:
			triggered++
		}
	}
	return bound, triggered, d.triggers
}
