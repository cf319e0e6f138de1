// SPDX-License-Identifier: GPL-2.0-or-later

package snd

import (
	"fmt"
	"sync"

	"github.com/chewxy/math32"

	"anchorsound/math"
)

type DistanceModel int

const (
	// Geometric spreading, gain = (ref/d)^rolloff.
	Geometric DistanceModel = iota
	// Inverse distance, gain = ref/(ref + rolloff*(d-ref)).
	Inverse
	// Linear falloff reaching zero at the cull distance for rolloff 1.
	Linear
)

func (m DistanceModel) String() string {
	switch m {
	case Geometric:
		return "geometric"
	case Inverse:
		return "inverse"
	case Linear:
		return "linear"
	}
	return fmt.Sprintf("DistanceModel(%d)", int(m))
}

func ParseDistanceModel(s string) (DistanceModel, error) {
	switch s {
	case "geometric", "":
		return Geometric, nil
	case "inverse":
		return Inverse, nil
	case "linear":
		return Linear, nil
	}
	return Geometric, fmt.Errorf("unknown distance model %q", s)
}

// SpatialMixConfig holds the distance model parameters of a mix definition.
// Configs are shared by all sources using the same definition and must not
// be changed after creation.
type SpatialMixConfig struct {
	ID                string
	Model             DistanceModel
	CullDistance      float32
	RolloffFactor     float32
	ReferenceDistance float32
	ReverbSend        float32
}

// Gain computes the distance attenuation for a source whose center is
// distance away from the listener. The distance is measured to the surface
// of the source shape. Gain is 1 up to the reference distance, never
// increases with the distance and is exactly 0 at and beyond the cull
// distance.
func (c *SpatialMixConfig) Gain(distance, shapeRadius float32) float32 {
	if !(distance < c.CullDistance) {
		return 0
	}
	d := max(distance-shapeRadius, 0)
	ref := c.ReferenceDistance
	if d <= ref {
		return 1
	}
	switch c.Model {
	case Inverse:
		return ref / (ref + c.RolloffFactor*(d-ref))
	case Linear:
		span := c.CullDistance - ref
		if span <= 0 {
			return 0
		}
		return math.Clamp(0, 1-c.RolloffFactor*(d-ref)/span, 1)
	default:
		return math32.Pow(ref/d, c.RolloffFactor)
	}
}

// MixTable deduplicates mix configs by id.
type MixTable struct {
	mu    sync.Mutex
	mixes map[string]*SpatialMixConfig
}

func NewMixTable() *MixTable {
	return &MixTable{mixes: make(map[string]*SpatialMixConfig)}
}

// Intern returns the config already stored under c.ID or stores a copy of c.
func (t *MixTable) Intern(c SpatialMixConfig) *SpatialMixConfig {
	t.mu.Lock()
	defer t.mu.Unlock()
	if m, ok := t.mixes[c.ID]; ok {
		return m
	}
	m := &c
	t.mixes[c.ID] = m
	return m
}

func (t *MixTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.mixes)
}
