// SPDX-License-Identifier: GPL-2.0-or-later

// Package speaker plays a beep.Streamer on the default audio device.
package speaker

import (
	"encoding/binary"
	"io"
	"math"
	"sync"

	"github.com/ebitengine/oto/v3"
	"github.com/gopxl/beep/v2"
	"github.com/pkg/errors"
)

const (
	channelNum    = 2
	bytesPerFrame = channelNum * 4 // float32 per channel
)

var (
	// oto allows a single context per process
	ctxMu   sync.Mutex
	ctx     *oto.Context
	ctxRate beep.SampleRate
)

func context(rate beep.SampleRate, bufferSize int) (*oto.Context, error) {
	ctxMu.Lock()
	defer ctxMu.Unlock()
	if ctx != nil {
		if ctxRate != rate {
			return nil, errors.Errorf("audio device already opened at %d Hz", ctxRate)
		}
		return ctx, nil
	}
	c, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   int(rate),
		ChannelCount: channelNum,
		Format:       oto.FormatFloat32LE,
		BufferSize:   rate.D(bufferSize),
	})
	if err != nil {
		return nil, errors.Wrap(err, "open audio device")
	}
	<-ready
	ctx = c
	ctxRate = rate
	return ctx, nil
}

// Output pulls samples from a streamer on the oto player goroutine.
type Output struct {
	ctx    *oto.Context
	player *oto.Player

	mu       sync.Mutex
	streamer beep.Streamer
	samples  [][2]float64
	closed   bool
}

// New opens the audio device. bufferSize is in frames and also the chunk
// size the streamer is asked for.
func New(rate beep.SampleRate, bufferSize int) (*Output, error) {
	if bufferSize <= 0 {
		return nil, errors.Errorf("invalid buffer size %d", bufferSize)
	}
	c, err := context(rate, bufferSize)
	if err != nil {
		return nil, err
	}
	o := newOutput(bufferSize)
	o.ctx = c
	return o, nil
}

func newOutput(bufferSize int) *Output {
	return &Output{
		samples: make([][2]float64, bufferSize),
	}
}

func (o *Output) Play(s beep.Streamer) error {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return errors.New("output closed")
	}
	if o.streamer != nil {
		o.mu.Unlock()
		return errors.New("output already playing")
	}
	o.streamer = s
	player := o.ctx.NewPlayer(o)
	o.player = player
	o.mu.Unlock()

	player.Play()
	return nil
}

// Read implements io.Reader for the oto player.
func (o *Output) Read(p []byte) (int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return 0, io.EOF
	}
	frames := len(p) / bytesPerFrame
	for done := 0; done < frames; {
		chunk := o.samples[:min(len(o.samples), frames-done)]
		n := 0
		if o.streamer != nil {
			n, _ = o.streamer.Stream(chunk)
		}
		clear(chunk[n:])
		for i := range chunk {
			off := (done + i) * bytesPerFrame
			for c := 0; c < channelNum; c++ {
				v := max(-1, min(chunk[i][c], 1))
				binary.LittleEndian.PutUint32(p[off+c*4:], math.Float32bits(float32(v)))
			}
		}
		done += len(chunk)
	}
	return frames * bytesPerFrame, nil
}

// Close stops pulling. Once it returns the streamer is not read anymore.
func (o *Output) Close() error {
	o.mu.Lock()
	o.closed = true
	o.streamer = nil
	player := o.player
	o.mu.Unlock()
	if player != nil {
		player.Pause()
	}
	return nil
}

func (o *Output) SetVolume(v float64) {
	o.mu.Lock()
	player := o.player
	o.mu.Unlock()
	if player != nil {
		player.SetVolume(max(0, min(v, 1)))
	}
}

func (o *Output) Suspend() error {
	if o.ctx == nil {
		return nil
	}
	return o.ctx.Suspend()
}

func (o *Output) Resume() error {
	if o.ctx == nil {
		return nil
	}
	return o.ctx.Resume()
}
