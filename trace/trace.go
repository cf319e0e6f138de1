// SPDX-License-Identifier: GPL-2.0-or-later

// Package trace replays recorded tracking and motion events into a scene.
package trace

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"anchorsound/math/mat"
	"anchorsound/math/vec"
)

type Kind string

const (
	Anchor Kind = "anchor" // anchor discovered
	Update Kind = "update" // anchor moved
	Pose   Kind = "pose"   // device pose
	Head   Kind = "head"   // head pose

	Interrupt Kind = "interrupt" // tracking session interrupted
	Resume    Kind = "resume"    // interruption ended
)

// Event is one recorded callback. The transform is either given as a full
// row major matrix or as position plus yaw/pitch/roll in degree.
type Event struct {
	At       time.Duration `yaml:"at"`
	Kind     Kind          `yaml:"kind"`
	Name     string        `yaml:"name"`
	Position []float32     `yaml:"position"`
	Yaw      float32       `yaml:"yaw"`
	Pitch    float32       `yaml:"pitch"`
	Roll     float32       `yaml:"roll"`
	Matrix   []float32     `yaml:"matrix"`
}

type Trace struct {
	Events []Event `yaml:"events"`
}

// Sink receives the replayed events.
type Sink interface {
	OnAnchorDiscovered(name string, m mat.Mat4)
	OnAnchorUpdated(name string, m mat.Mat4)
	OnPoseUpdated(m mat.Mat4)
	OnHeadPoseUpdated(m mat.Mat4)
	OnSessionInterrupted()
	OnSessionResumed()
}

func Load(path string) (*Trace, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read trace")
	}
	return Parse(data)
}

func Parse(data []byte) (*Trace, error) {
	var t Trace
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, errors.Wrap(err, "parse trace")
	}
	for i, e := range t.Events {
		if err := e.validate(); err != nil {
			return nil, errors.Wrapf(err, "events[%d]", i)
		}
	}
	sort.SliceStable(t.Events, func(i, j int) bool {
		return t.Events[i].At < t.Events[j].At
	})
	return &t, nil
}

func (e Event) validate() error {
	switch e.Kind {
	case Anchor, Update:
		if e.Name == "" {
			return errors.New("name required")
		}
	case Pose, Head, Interrupt, Resume:
	default:
		return fmt.Errorf("unknown kind %q", e.Kind)
	}
	if e.Matrix != nil && len(e.Matrix) != 16 {
		return fmt.Errorf("matrix needs 16 values, got %d", len(e.Matrix))
	}
	if e.Position != nil && len(e.Position) != 3 {
		return fmt.Errorf("position needs 3 values, got %d", len(e.Position))
	}
	return nil
}

// Transform returns the transform of the event.
func (e Event) Transform() mat.Mat4 {
	if len(e.Matrix) == 16 {
		var a [16]float32
		copy(a[:], e.Matrix)
		return mat.FromArray(a)
	}
	var p vec.Vec3
	if len(e.Position) == 3 {
		p = vec.Vec3{X: e.Position[0], Y: e.Position[1], Z: e.Position[2]}
	}
	return mat.Euler(p, e.Yaw, e.Pitch, e.Roll)
}

func (e Event) Deliver(s Sink) {
	m := e.Transform()
	switch e.Kind {
	case Anchor:
		s.OnAnchorDiscovered(e.Name, m)
	case Update:
		s.OnAnchorUpdated(e.Name, m)
	case Pose:
		s.OnPoseUpdated(m)
	case Head:
		s.OnHeadPoseUpdated(m)
	case Interrupt:
		s.OnSessionInterrupted()
	case Resume:
		s.OnSessionResumed()
	}
}

// Replay delivers the events in order, waiting between them. speed scales
// the time line, 0 delivers everything at once.
func (t *Trace) Replay(ctx context.Context, s Sink, speed float64) error {
	start := time.Now()
	for _, e := range t.Events {
		if speed > 0 {
			due := start.Add(time.Duration(float64(e.At) / speed))
			if wait := time.Until(due); wait > 0 {
				timer := time.NewTimer(wait)
				select {
				case <-ctx.Done():
					timer.Stop()
					return ctx.Err()
				case <-timer.C:
				}
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}
		e.Deliver(s)
	}
	return nil
}

// Duration is the time of the last event.
func (t *Trace) Duration() time.Duration {
	if len(t.Events) == 0 {
		return 0
	}
	return t.Events[len(t.Events)-1].At
}
