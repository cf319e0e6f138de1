// SPDX-License-Identifier: GPL-2.0-or-later

// Package config decodes the sound definitions of a scene. The files are
// YAML, which makes the JSON configs of the demo apps valid input as well.
package config

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"anchorsound/math"
)

const (
	DefaultShapeRadius       = 0.0142
	DefaultCullDistance      = 5.0
	DefaultRolloffFactor     = 2.0
	DefaultReverbSend        = 0.1
	DefaultReferenceDistance = 1.0
	DefaultDistanceModel     = "geometric"
	DefaultReverbPreset      = "largeRoom"
	DefaultSampleRate        = 44100
)

var (
	DistanceModels = []string{"geometric", "inverse", "linear"}
	ReverbPresets  = []string{"none", "smallRoom", "mediumRoom", "largeRoom", "cathedral"}
)

type Config struct {
	ReverbPreset string  `yaml:"reverb_preset"`
	SampleRate   int     `yaml:"sample_rate"`
	Sounds       []Sound `yaml:"sounds"`
}

// Sound is one sound definition. Pointer fields are optional, nil means
// the default applies.
type Sound struct {
	Name              string   `yaml:"name"`
	AnchorName        string   `yaml:"anchor_name"`
	File              string   `yaml:"file"`
	Mix               string   `yaml:"mix"`
	ShapeRadius       *float32 `yaml:"shape_radius"`
	CullDistance      *float32 `yaml:"cull_distance"`
	RolloffFactor     *float32 `yaml:"rolloff_factor"`
	ReverbSend        *float32 `yaml:"reverb_send"`
	ReferenceDistance *float32 `yaml:"reference_distance"`
	DistanceModel     string   `yaml:"distance_model"`
	Loop              *bool    `yaml:"loop"`
	Volume            *float32 `yaml:"volume"`
}

// ConfigError reports a malformed or missing field. Index is the position
// in the sounds list or -1 for document level problems.
type ConfigError struct {
	Index  int
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("config: sounds[%d].%s: %s", e.Index, e.Field, e.Reason)
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}
	return Parse(data)
}

// Parse decodes, applies the defaults and validates.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, &ConfigError{Index: -1, Field: "document", Reason: err.Error()}
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func f32(v float32) *float32 { return &v }

func (c *Config) applyDefaults() {
	if c.ReverbPreset == "" {
		c.ReverbPreset = DefaultReverbPreset
	}
	if c.SampleRate == 0 {
		c.SampleRate = DefaultSampleRate
	}
	for i := range c.Sounds {
		s := &c.Sounds[i]
		if s.AnchorName == "" {
			s.AnchorName = s.Name
		}
		if s.ShapeRadius == nil {
			s.ShapeRadius = f32(DefaultShapeRadius)
		}
		if s.CullDistance == nil {
			s.CullDistance = f32(DefaultCullDistance)
		}
		if s.RolloffFactor == nil {
			s.RolloffFactor = f32(DefaultRolloffFactor)
		}
		if s.ReverbSend == nil {
			s.ReverbSend = f32(DefaultReverbSend)
		}
		if s.ReferenceDistance == nil {
			s.ReferenceDistance = f32(DefaultReferenceDistance)
		}
		if s.DistanceModel == "" {
			s.DistanceModel = DefaultDistanceModel
		}
		if s.Loop == nil {
			loop := true
			s.Loop = &loop
		}
		if s.Volume == nil {
			s.Volume = f32(1)
		}
		if s.Mix == "" {
			s.Mix = fmt.Sprintf("%s/%g/%g/%g/%g", s.DistanceModel,
				*s.CullDistance, *s.RolloffFactor, *s.ReferenceDistance, *s.ReverbSend)
		}
	}
}

func oneOf(v string, set []string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

// Validate expects defaults to be applied already.
func (c *Config) Validate() error {
	if !oneOf(c.ReverbPreset, ReverbPresets) {
		return &ConfigError{Index: -1, Field: "reverb_preset", Reason: fmt.Sprintf("unknown preset %q", c.ReverbPreset)}
	}
	if c.SampleRate < 0 {
		return &ConfigError{Index: -1, Field: "sample_rate", Reason: "must be positive"}
	}
	names := make(map[string]int)
	anchors := make(map[string]int)
	mixes := make(map[string]Sound)
	for i, s := range c.Sounds {
		if s.Name == "" {
			return &ConfigError{Index: i, Field: "name", Reason: "required"}
		}
		if s.File == "" {
			return &ConfigError{Index: i, Field: "file", Reason: "required"}
		}
		if j, ok := names[s.Name]; ok {
			return &ConfigError{Index: i, Field: "name", Reason: fmt.Sprintf("%q already defined by sounds[%d]", s.Name, j)}
		}
		names[s.Name] = i
		if j, ok := anchors[s.AnchorName]; ok {
			return &ConfigError{Index: i, Field: "anchor_name", Reason: fmt.Sprintf("%q already bound by sounds[%d]", s.AnchorName, j)}
		}
		anchors[s.AnchorName] = i
		for _, f := range []struct {
			name string
			v    float32
		}{
			{"shape_radius", *s.ShapeRadius},
			{"cull_distance", *s.CullDistance},
			{"rolloff_factor", *s.RolloffFactor},
			{"reverb_send", *s.ReverbSend},
			{"reference_distance", *s.ReferenceDistance},
			{"volume", *s.Volume},
		} {
			if !math.Finite(f.v) {
				return &ConfigError{Index: i, Field: f.name, Reason: "must be finite"}
			}
		}
		switch {
		case *s.ShapeRadius < 0:
			return &ConfigError{Index: i, Field: "shape_radius", Reason: "must not be negative"}
		case *s.ReferenceDistance < 0:
			return &ConfigError{Index: i, Field: "reference_distance", Reason: "must not be negative"}
		case *s.CullDistance <= *s.ReferenceDistance:
			return &ConfigError{Index: i, Field: "cull_distance", Reason: "must be larger than reference_distance"}
		case *s.RolloffFactor < 0:
			return &ConfigError{Index: i, Field: "rolloff_factor", Reason: "must not be negative"}
		case *s.ReverbSend < 0 || *s.ReverbSend > 1:
			return &ConfigError{Index: i, Field: "reverb_send", Reason: "must be within [0,1]"}
		case *s.Volume <= 0:
			return &ConfigError{Index: i, Field: "volume", Reason: "must be positive"}
		}
		if !oneOf(s.DistanceModel, DistanceModels) {
			return &ConfigError{Index: i, Field: "distance_model", Reason: fmt.Sprintf("unknown model %q", s.DistanceModel)}
		}
		// geometric and inverse scale by reference/distance, zero silences them
		if s.DistanceModel != "linear" && *s.ReferenceDistance == 0 {
			return &ConfigError{Index: i, Field: "reference_distance", Reason: fmt.Sprintf("must be positive for the %s model", s.DistanceModel)}
		}
		if m, ok := mixes[s.Mix]; ok && !sameMix(m, s) {
			return &ConfigError{Index: i, Field: "mix", Reason: fmt.Sprintf("%q redefined with different parameters", s.Mix)}
		}
		mixes[s.Mix] = s
	}
	return nil
}

func sameMix(a, b Sound) bool {
	return a.DistanceModel == b.DistanceModel &&
		*a.CullDistance == *b.CullDistance &&
		*a.RolloffFactor == *b.RolloffFactor &&
		*a.ReferenceDistance == *b.ReferenceDistance &&
		*a.ReverbSend == *b.ReverbSend
}

// Sound returns the definition with the given name.
func (c *Config) Sound(name string) (Sound, bool) {
	for _, s := range c.Sounds {
		if s.Name == name {
			return s, true
		}
	}
	return Sound{}, false
}
