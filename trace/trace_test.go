// SPDX-License-Identifier: GPL-2.0-or-later

package trace

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anchorsound/math/mat"
	"anchorsound/math/vec"
)

type recorder struct {
	calls []string
	last  mat.Mat4
}

func (r *recorder) OnAnchorDiscovered(name string, m mat.Mat4) {
	r.calls = append(r.calls, "anchor:"+name)
	r.last = m
}

func (r *recorder) OnAnchorUpdated(name string, m mat.Mat4) {
	r.calls = append(r.calls, "update:"+name)
	r.last = m
}

func (r *recorder) OnPoseUpdated(m mat.Mat4) {
	r.calls = append(r.calls, "pose")
	r.last = m
}

func (r *recorder) OnHeadPoseUpdated(m mat.Mat4) {
	r.calls = append(r.calls, "head")
	r.last = m
}

func (r *recorder) OnSessionInterrupted() {
	r.calls = append(r.calls, "interrupt")
}

func (r *recorder) OnSessionResumed() {
	r.calls = append(r.calls, "resume")
}

const doc = `
events:
  - {at: 20ms, kind: anchor, name: A, position: [0, 0, 2]}
  - {at: 0s, kind: pose}
  - {at: 10ms, kind: head, yaw: 90}
  - at: 30ms
    kind: update
    name: A
    matrix: [1,0,0,4, 0,1,0,5, 0,0,1,6, 0,0,0,1]
  - {at: 40ms, kind: interrupt}
  - {at: 50ms, kind: resume}
`

func TestParseSortsByTime(t *testing.T) {
	tr, err := Parse([]byte(doc))
	require.NoError(t, err)
	require.Len(t, tr.Events, 6)
	assert.Equal(t, Pose, tr.Events[0].Kind)
	assert.Equal(t, Head, tr.Events[1].Kind)
	assert.Equal(t, Anchor, tr.Events[2].Kind)
	assert.Equal(t, 50*time.Millisecond, tr.Duration())
}

func TestTransform(t *testing.T) {
	tr, err := Parse([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, vec.Vec3{X: 0, Y: 0, Z: 2}, tr.Events[2].Transform().Position())
	assert.Equal(t, mat.Translation(4, 5, 6), tr.Events[3].Transform())
	assert.True(t, mat.ApproxEqual(mat.RotationY(90), tr.Events[1].Transform(), 1e-6))
}

func TestReplay(t *testing.T) {
	tr, err := Parse([]byte(doc))
	require.NoError(t, err)
	r := &recorder{}
	require.NoError(t, tr.Replay(context.Background(), r, 0))
	assert.Equal(t, []string{"pose", "head", "anchor:A", "update:A", "interrupt", "resume"}, r.calls)
	assert.Equal(t, mat.Translation(4, 5, 6), r.last)
}

func TestReplayCancel(t *testing.T) {
	tr, err := Parse([]byte(`events: [{at: 1h, kind: pose}]`))
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := &recorder{}
	assert.ErrorIs(t, tr.Replay(ctx, r, 1), context.Canceled)
	assert.Empty(t, r.calls)
}

func TestParseErrors(t *testing.T) {
	for _, d := range []string{
		`events: [{kind: jump}]`,
		`events: [{kind: anchor}]`,
		`events: [{kind: pose, matrix: [1, 2]}]`,
		`events: [{kind: pose, position: [1]}]`,
		`events: [`,
	} {
		_, err := Parse([]byte(d))
		assert.Error(t, err, d)
	}
}
