// SPDX-License-Identifier: GPL-2.0-or-later

package snd

import (
	"fmt"

	"github.com/gopxl/beep/v2"
)

type ReverbPreset int

const (
	ReverbNone ReverbPreset = iota
	SmallRoom
	MediumRoom
	LargeRoom
	Cathedral
)

var reverbNames = map[ReverbPreset]string{
	ReverbNone: "none",
	SmallRoom:  "smallRoom",
	MediumRoom: "mediumRoom",
	LargeRoom:  "largeRoom",
	Cathedral:  "cathedral",
}

func (p ReverbPreset) String() string {
	if n, ok := reverbNames[p]; ok {
		return n
	}
	return fmt.Sprintf("ReverbPreset(%d)", int(p))
}

func ParseReverbPreset(s string) (ReverbPreset, error) {
	for p, n := range reverbNames {
		if n == s {
			return p, nil
		}
	}
	return ReverbNone, fmt.Errorf("unknown reverb preset %q", s)
}

type reverbParams struct {
	size     float64 // delay line scale
	feedback float64
	damp     float64
	wet      float64
}

var presets = map[ReverbPreset]reverbParams{
	SmallRoom:  {size: 0.5, feedback: 0.70, damp: 0.5, wet: 0.6},
	MediumRoom: {size: 0.75, feedback: 0.78, damp: 0.4, wet: 0.7},
	LargeRoom:  {size: 1.0, feedback: 0.84, damp: 0.3, wet: 0.8},
	Cathedral:  {size: 1.6, feedback: 0.92, damp: 0.2, wet: 1.0},
}

// delay lines in frames at 44.1kHz, the right channel is detuned by
// stereoSpread frames
var (
	combTuning    = []int{1116, 1188, 1277, 1356}
	allpassTuning = []int{556, 441}
	stereoSpread  = 23
)

type comb struct {
	buf      []float64
	pos      int
	feedback float64
	damp     float64
	store    float64
}

func (c *comb) process(in float64) float64 {
	out := c.buf[c.pos]
	c.store = out*(1-c.damp) + c.store*c.damp
	c.buf[c.pos] = in + c.store*c.feedback
	c.pos++
	if c.pos == len(c.buf) {
		c.pos = 0
	}
	return out
}

type allpass struct {
	buf []float64
	pos int
}

func (a *allpass) process(in float64) float64 {
	b := a.buf[a.pos]
	a.buf[a.pos] = in + b*0.5
	a.pos++
	if a.pos == len(a.buf) {
		a.pos = 0
	}
	return b - in
}

// Reverb is the shared reverb bus: parallel combs followed by serial
// allpasses per channel. It is only used from the render goroutine.
type Reverb struct {
	preset    ReverbPreset
	wet       float64
	combs     [2][]comb
	allpasses [2][]allpass
}

func NewReverb(p ReverbPreset, rate beep.SampleRate) *Reverb {
	r := &Reverb{preset: p}
	params, ok := presets[p]
	if !ok {
		return r
	}
	r.wet = params.wet / float64(len(combTuning))
	scale := float64(rate) / 44100 * params.size
	frames := func(n int) int {
		return max(int(float64(n)*scale), 1)
	}
	for ch := 0; ch < 2; ch++ {
		spread := ch * stereoSpread
		for _, n := range combTuning {
			r.combs[ch] = append(r.combs[ch], comb{
				buf:      make([]float64, frames(n+spread)),
				feedback: params.feedback,
				damp:     params.damp,
			})
		}
		for _, n := range allpassTuning {
			r.allpasses[ch] = append(r.allpasses[ch], allpass{
				buf: make([]float64, frames(n+spread)),
			})
		}
	}
	return r
}

func (r *Reverb) Preset() ReverbPreset {
	return r.preset
}

// Process adds the wet signal produced from the mono send to out.
func (r *Reverb) Process(send []float64, out [][2]float64) {
	if r.wet == 0 {
		return
	}
	for i, in := range send[:min(len(send), len(out))] {
		for ch := 0; ch < 2; ch++ {
			var acc float64
			for j := range r.combs[ch] {
				acc += r.combs[ch][j].process(in)
			}
			for j := range r.allpasses[ch] {
				acc = r.allpasses[ch][j].process(acc)
			}
			out[i][ch] += acc * r.wet
		}
	}
}
