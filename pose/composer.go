// SPDX-License-Identifier: GPL-2.0-or-later

// Package pose combines the independently updated device and head poses into
// the listener transform.
package pose

import (
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"anchorsound/math/mat"
)

// Listener is an immutable snapshot. Composed is always Device*Head of the
// very same Device and Head values.
type Listener struct {
	Device   mat.Mat4
	Head     mat.Mat4
	Composed mat.Mat4
	Seq      uint64
}

// Composer can be written from the tracking and the motion callback at the
// same time. Writers are serialized by mu, readers never block.
type Composer struct {
	mu        sync.Mutex
	current   atomic.Pointer[Listener]
	observers []func(Listener)
	log       logrus.FieldLogger
}

func NewComposer(log logrus.FieldLogger) *Composer {
	if log == nil {
		log = logrus.StandardLogger()
	}
	c := &Composer{
		log: log.WithField("component", "pose"),
	}
	c.current.Store(&Listener{
		Device:   mat.Identity(),
		Head:     mat.Identity(),
		Composed: mat.Identity(),
	})
	return c
}

// Subscribe registers f to be called with every newly published listener.
// f runs on the goroutine of the update while writers are held off, it
// must not block or update poses itself.
func (c *Composer) Subscribe(f func(Listener)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, f)
}

// UpdateDevicePose replaces the device (camera) pose. Non finite transforms
// are dropped and false is returned.
func (c *Composer) UpdateDevicePose(m mat.Mat4) bool {
	return c.update(m, func(l *Listener) { l.Device = m }, "device")
}

// UpdateHeadPose replaces the head pose, relative to the device frame.
func (c *Composer) UpdateHeadPose(m mat.Mat4) bool {
	return c.update(m, func(l *Listener) { l.Head = m }, "head")
}

func (c *Composer) update(m mat.Mat4, set func(*Listener), source string) bool {
	if !m.Finite() {
		c.log.WithFields(logrus.Fields{
			"source": source,
		}).Warn("Dropping non finite pose")
		return false
	}
	c.mu.Lock()
	old := c.current.Load()
	next := *old
	set(&next)
	next.Composed = mat.Mul(next.Device, next.Head)
	next.Seq = old.Seq + 1
	c.current.Store(&next)
	// observers see the snapshots in publishing order
	for _, f := range c.observers {
		f(next)
	}
	c.mu.Unlock()
	return true
}

// Listener returns the latest published snapshot.
func (c *Composer) Listener() Listener {
	return *c.current.Load()
}

// Transform returns the latest composed listener transform.
func (c *Composer) Transform() mat.Mat4 {
	return c.current.Load().Composed
}
