// SPDX-License-Identifier: GPL-2.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
sounds:
  - name: guitar
    file: guitar.mp3
`))
	require.NoError(t, err)
	require.Len(t, cfg.Sounds, 1)
	s := cfg.Sounds[0]
	assert.Equal(t, "guitar", s.AnchorName)
	assert.Equal(t, float32(DefaultShapeRadius), *s.ShapeRadius)
	assert.Equal(t, float32(DefaultCullDistance), *s.CullDistance)
	assert.Equal(t, float32(DefaultRolloffFactor), *s.RolloffFactor)
	assert.Equal(t, float32(DefaultReverbSend), *s.ReverbSend)
	assert.Equal(t, DefaultDistanceModel, s.DistanceModel)
	assert.True(t, *s.Loop)
	assert.Equal(t, DefaultReverbPreset, cfg.ReverbPreset)
	assert.Equal(t, DefaultSampleRate, cfg.SampleRate)
}

func TestParseJSON(t *testing.T) {
	cfg, err := Parse([]byte(`{
  "reverb_preset": "mediumRoom",
  "sounds": [
    {"name": "guitar", "anchor_name": "serres_parasite", "file": "guitar.mp3", "rolloff_factor": 0.25, "cull_distance": 10},
    {"name": "drone", "anchor_name": "douglas_purity_danger", "file": "drone.mp3", "loop": false}
  ]
}`))
	require.NoError(t, err)
	assert.Equal(t, "mediumRoom", cfg.ReverbPreset)
	g, ok := cfg.Sound("guitar")
	require.True(t, ok)
	assert.Equal(t, "serres_parasite", g.AnchorName)
	assert.Equal(t, float32(0.25), *g.RolloffFactor)
	assert.Equal(t, float32(10), *g.CullDistance)
	d, ok := cfg.Sound("drone")
	require.True(t, ok)
	assert.False(t, *d.Loop)
	_, ok = cfg.Sound("piano")
	assert.False(t, ok)
}

func TestMixSharedByParameters(t *testing.T) {
	cfg, err := Parse([]byte(`
sounds:
  - {name: a, file: a.wav}
  - {name: b, file: b.wav}
  - {name: c, file: c.wav, rolloff_factor: 0.25}
`))
	require.NoError(t, err)
	assert.Equal(t, cfg.Sounds[0].Mix, cfg.Sounds[1].Mix)
	assert.NotEqual(t, cfg.Sounds[0].Mix, cfg.Sounds[2].Mix)
}

func TestConfigErrors(t *testing.T) {
	tests := []struct {
		doc   string
		field string
	}{
		{`sounds: [{file: a.wav}]`, "name"},
		{`sounds: [{name: a}]`, "file"},
		{`sounds: [{name: a, file: a.wav}, {name: a, file: b.wav}]`, "name"},
		{`sounds: [{name: a, file: a.wav}, {name: b, anchor_name: a, file: b.wav}]`, "anchor_name"},
		{`sounds: [{name: a, file: a.wav, cull_distance: 0.5}]`, "cull_distance"},
		{`sounds: [{name: a, file: a.wav, shape_radius: -1}]`, "shape_radius"},
		{`sounds: [{name: a, file: a.wav, reverb_send: 2}]`, "reverb_send"},
		{`sounds: [{name: a, file: a.wav, distance_model: cubic}]`, "distance_model"},
		{`sounds: [{name: a, file: a.wav, volume: 0}]`, "volume"},
		{`sounds: [{name: a, file: a.wav, reference_distance: 0}]`, "reference_distance"},
		{`sounds: [{name: a, file: a.wav, reference_distance: 0, distance_model: inverse}]`, "reference_distance"},
		{`sounds: [{name: a, file: a.wav, cull_distance: .nan}]`, "cull_distance"},
		{`sounds: [{name: a, file: a.wav, rolloff_factor: .inf}]`, "rolloff_factor"},
		{`sounds: [{name: a, file: a.wav, volume: .nan}]`, "volume"},
		{`sounds: [{name: a, file: a.wav, mix: m}, {name: b, file: b.wav, mix: m, rolloff_factor: 1}]`, "mix"},
		{`{reverb_preset: hall, sounds: []}`, "reverb_preset"},
		{`sounds: [[`, "document"},
	}
	for _, tc := range tests {
		_, err := Parse([]byte(tc.doc))
		var ce *ConfigError
		if assert.True(t, errors.As(err, &ce), "doc %q: %v", tc.doc, err) {
			assert.Equal(t, tc.field, ce.Field, "doc %q", tc.doc)
		}
	}
}

func TestLinearZeroReference(t *testing.T) {
	cfg, err := Parse([]byte(`sounds: [{name: a, file: a.wav, reference_distance: 0, distance_model: linear}]`))
	require.NoError(t, err)
	assert.Zero(t, *cfg.Sounds[0].ReferenceDistance)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sounds.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"sounds":[{"name":"piano","file":"piano.mp3"}]}`), 0o644))
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "piano", cfg.Sounds[0].Name)

	_, err = Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
