// SPDX-License-Identifier: GPL-2.0-or-later

package scene

import (
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anchorsound/math/mat"
	"anchorsound/snd"
)

type fakeEmitter struct {
	mu         sync.Mutex
	transforms []mat.Mat4
	triggers   int
}

func (f *fakeEmitter) SetTransform(m mat.Mat4) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transforms = append(f.transforms, m)
	return true
}

func (f *fakeEmitter) Trigger() (*snd.PlaybackEvent, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.triggers++
	return nil, f.triggers == 1
}

func fakeLookup(emitters map[string]*fakeEmitter) Lookup {
	return func(anchor string) (Emitter, error) {
		e, ok := emitters[anchor]
		if !ok {
			return nil, errors.Wrapf(snd.ErrNotFound, "source %q", anchor)
		}
		return e, nil
	}
}

func TestRediscoveryRepositionsOnly(t *testing.T) {
	a := &fakeEmitter{}
	log, _ := test.NewNullLogger()
	d := NewDispatcher(fakeLookup(map[string]*fakeEmitter{"A": a}), log)

	assert.Equal(t, Unknown, d.State("A"))
	first := mat.Translation(0, 0, -2)
	second := mat.Translation(1, 0, -2)
	assert.Equal(t, Triggered, d.Discover("A", first))
	assert.Equal(t, Triggered, d.Discover("A", second))

	assert.Equal(t, 1, a.triggers)
	require.Len(t, a.transforms, 2)
	assert.Equal(t, second, a.transforms[1])
	_, triggered, triggers := d.Counts()
	assert.Equal(t, 1, triggered)
	assert.Equal(t, 1, triggers)
}

func TestUpdateNeedsDiscovery(t *testing.T) {
	a := &fakeEmitter{}
	log, _ := test.NewNullLogger()
	d := NewDispatcher(fakeLookup(map[string]*fakeEmitter{"A": a}), log)

	assert.False(t, d.Update("A", mat.Translation(1, 2, 3)))
	assert.Empty(t, a.transforms)
	d.Discover("A", mat.Identity())
	assert.True(t, d.Update("A", mat.Translation(1, 2, 3)))
	assert.Equal(t, 1, a.triggers)
	assert.Len(t, a.transforms, 2)
}

func TestUnknownAnchorReportedOnce(t *testing.T) {
	log, hook := test.NewNullLogger()
	d := NewDispatcher(fakeLookup(map[string]*fakeEmitter{}), log)
	for i := 0; i < 5; i++ {
		assert.Equal(t, Unknown, d.Discover("mystery", mat.Identity()))
	}
	assert.Len(t, hook.AllEntries(), 1)
	assert.Equal(t, "No sound registered for anchor", hook.LastEntry().Message)
	assert.Equal(t, Unknown, d.State("mystery"))
}

func TestConcurrentDiscoveryTriggersOnce(t *testing.T) {
	a := &fakeEmitter{}
	log, _ := test.NewNullLogger()
	d := NewDispatcher(fakeLookup(map[string]*fakeEmitter{"A": a}), log)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			d.Discover("A", mat.Translation(float32(i), 0, 0))
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 1, a.triggers)
	assert.Len(t, a.transforms, 32)
}

func TestAnchorStateString(t *testing.T) {
	assert.Equal(t, "unknown", Unknown.String())
	assert.Equal(t, "bound", Bound.String())
	assert.Equal(t, "triggered", Triggered.String())
}
