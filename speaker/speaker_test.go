// SPDX-License-Identifier: GPL-2.0-or-later

package speaker

import (
	"encoding/binary"
	"io"
	"math"
	"testing"

	"github.com/gopxl/beep/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type constStreamer struct {
	v     float64
	calls int
}

func (c *constStreamer) Stream(samples [][2]float64) (int, bool) {
	c.calls++
	for i := range samples {
		samples[i] = [2]float64{c.v, -c.v}
	}
	return len(samples), true
}

func (c *constStreamer) Err() error { return nil }

func frame(p []byte, i int) (float32, float32) {
	off := i * bytesPerFrame
	return math.Float32frombits(binary.LittleEndian.Uint32(p[off:])),
		math.Float32frombits(binary.LittleEndian.Uint32(p[off+4:]))
}

func TestReadConvertsAndClamps(t *testing.T) {
	o := newOutput(4)
	s := &constStreamer{v: 2}
	o.streamer = s
	p := make([]byte, 10*bytesPerFrame+3)
	n, err := o.Read(p)
	require.NoError(t, err)
	assert.Equal(t, 10*bytesPerFrame, n)
	// 10 frames in chunks of 4
	assert.Equal(t, 3, s.calls)
	for i := 0; i < 10; i++ {
		l, r := frame(p, i)
		assert.Equal(t, float32(1), l)
		assert.Equal(t, float32(-1), r)
	}
}

func TestReadPadsDrainedStreamer(t *testing.T) {
	o := newOutput(8)
	o.streamer = beep.Silence(2)
	p := make([]byte, 8*bytesPerFrame)
	for i := range p {
		p[i] = 0xff
	}
	n, err := o.Read(p)
	require.NoError(t, err)
	assert.Equal(t, len(p), n)
	for i := 0; i < 8; i++ {
		l, r := frame(p, i)
		assert.Zero(t, l)
		assert.Zero(t, r)
	}
}

func TestCloseStopsReading(t *testing.T) {
	o := newOutput(4)
	s := &constStreamer{v: 0.5}
	o.streamer = s
	require.NoError(t, o.Close())
	n, err := o.Read(make([]byte, 64))
	assert.Equal(t, 0, n)
	assert.Equal(t, io.EOF, err)
	assert.Zero(t, s.calls)
	assert.Error(t, o.Play(s))
}
