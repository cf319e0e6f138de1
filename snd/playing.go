// SPDX-License-Identifier: GPL-2.0-or-later

package snd

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gopxl/beep/v2"
	"github.com/pkg/errors"
)

// PlaybackEvent is a started playback of a source. Looping events stay
// active until stopped, one shot events end with their asset.
type PlaybackEvent struct {
	id        uuid.UUID
	source    *Source
	stream    beep.Streamer
	startTime time.Time
	frames    atomic.Int64
	done      atomic.Bool
}

func newPlaybackEvent(s *Source) (*PlaybackEvent, error) {
	var stream beep.Streamer = s.asset.streamer()
	if s.opts.Loop {
		l, err := beep.Loop2(s.asset.streamer())
		if err != nil {
			return nil, errors.Wrap(err, "loop")
		}
		stream = l
	}
	return &PlaybackEvent{
		id:        uuid.Must(uuid.NewV7()),
		source:    s,
		stream:    stream,
		startTime: time.Now(),
	}, nil
}

func (p *PlaybackEvent) ID() uuid.UUID { return p.id }
func (p *PlaybackEvent) Anchor() string { return p.source.anchor }
func (p *PlaybackEvent) StartTime() time.Time { return p.startTime }

// Frames is the number of frames rendered so far.
func (p *PlaybackEvent) Frames() int64 { return p.frames.Load() }

func (p *PlaybackEvent) Active() bool { return !p.done.Load() }

// Stop ends the event, the renderer drops it with the next quantum. The
// source stays triggered.
func (p *PlaybackEvent) Stop() {
	p.done.Store(true)
}

// render streams the next quantum into buf and mixes it into out and the
// reverb send. It returns false once the event is done.
func (p *PlaybackEvent) render(buf, out [][2]float64, send []float64, m Mix) bool {
	n, ok := p.stream.Stream(buf)
	for i := range buf[:n] {
		l, r := buf[i][0], buf[i][1]
		out[i][0] += l * m.Left
		out[i][1] += r * m.Right
		send[i] += (l + r) / 2 * m.Gain * m.ReverbSend
	}
	p.frames.Add(int64(n))
	if !ok {
		p.done.Store(true)
		return false
	}
	return true
}
