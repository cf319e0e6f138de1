// SPDX-License-Identifier: GPL-2.0-or-later

// Package scene owns one spatial audio session: the asset registry, the
// mixing engine with its sources, the listener pose and the dispatcher
// turning tracking events into playback.
package scene

import (
	"sync"

	"github.com/google/uuid"
	"github.com/gopxl/beep/v2"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"anchorsound/config"
	"anchorsound/filesystem"
	"anchorsound/math/mat"
	"anchorsound/pose"
	"anchorsound/snd"
)

type Options struct {
	// Files resolves the file references of the sounds.
	Files   *filesystem.Store
	Decoder snd.Decoder
	Output  snd.Output
	Logger  logrus.FieldLogger
	// Strict aborts Setup on the first asset that can not be registered.
	// Otherwise the asset is skipped with a warning and its source stays
	// silent.
	Strict bool
}

type sceneState int

const (
	created sceneState = iota
	ready
	tornDown
)

// AudioScene is explicitly created, set up and torn down. There is no
// global engine.
type AudioScene struct {
	id       uuid.UUID
	cfg      *config.Config
	strict   bool
	log      logrus.FieldLogger
	registry *snd.Registry
	mixes    *snd.MixTable
	engine   *snd.Engine
	composer *pose.Composer
	dispatch *Dispatcher

	mu       sync.Mutex
	state    sceneState
	prepared bool
	missing  []string
}

type Stats struct {
	Assets       int
	Missing      int
	Mixes        int
	Sources      int
	Bound        int
	Triggered    int
	Triggers     int
	ActiveEvents int
}

// New builds the scene graph for cfg without touching any file or device.
func New(cfg *config.Config, opts Options) (*AudioScene, error) {
	if cfg == nil {
		return nil, &config.ConfigError{Index: -1, Field: "document", Reason: "missing"}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	preset, err := snd.ParseReverbPreset(cfg.ReverbPreset)
	if err != nil {
		return nil, &config.ConfigError{Index: -1, Field: "reverb_preset", Reason: err.Error()}
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	id := uuid.Must(uuid.NewV7())
	log := opts.Logger.WithField("session", id)
	rate := beep.SampleRate(cfg.SampleRate)

	s := &AudioScene{
		id:       id,
		cfg:      cfg,
		strict:   opts.Strict,
		log:      log,
		registry: snd.NewRegistry(opts.Files, opts.Decoder, rate, log),
		mixes:    snd.NewMixTable(),
		engine: snd.NewEngine(snd.EngineOptions{
			SampleRate: rate,
			Reverb:     preset,
			Output:     opts.Output,
			Logger:     log,
		}),
		composer: pose.NewComposer(log),
	}
	s.dispatch = NewDispatcher(func(anchor string) (Emitter, error) {
		src, err := s.engine.Source(anchor)
		if err != nil {
			return nil, err
		}
		return src, nil
	}, log)
	s.composer.Subscribe(func(l pose.Listener) {
		s.engine.SetListener(l.Composed)
	})
	return s, nil
}

func (s *AudioScene) ID() uuid.UUID { return s.id }

func (s *AudioScene) Engine() *snd.Engine { return s.engine }

func (s *AudioScene) Registry() *snd.Registry { return s.registry }

func (s *AudioScene) Dispatcher() *Dispatcher { return s.dispatch }

func (s *AudioScene) Composer() *pose.Composer { return s.composer }

// Setup registers the assets, creates one source per sound definition and
// starts the engine.
func (s *AudioScene) Setup() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case ready:
		return nil
	case tornDown:
		return &snd.EngineStartError{Err: snd.ErrEngineStopped}
	}
	if !s.prepared {
		for _, def := range s.cfg.Sounds {
			if err := s.addSound(def); err != nil {
				s.engine.Stop()
				s.registry.Close()
				s.state = tornDown
				return err
			}
		}
		s.prepared = true
	}
	// a failed start leaves assets and sources in place, Setup may be retried
	if err := s.engine.Start(); err != nil {
		return err
	}
	s.state = ready
	s.log.WithFields(logrus.Fields{
		"sounds":  len(s.cfg.Sounds),
		"assets":  s.registry.Len(),
		"missing": len(s.missing),
		"mixes":   s.mixes.Len(),
	}).Info("Scene ready")
	return nil
}

func (s *AudioScene) addSound(def config.Sound) error {
	asset, err := s.registry.Register(def.Name, def.File)
	if err != nil {
		if s.strict {
			return &snd.EngineStartError{Err: err}
		}
		s.missing = append(s.missing, def.Name)
		s.log.WithFields(logrus.Fields{
			"sound": def.Name,
			"file":  def.File,
		}).WithError(err).Warn("Skipping sound asset")
		asset = nil
	}
	model, err := snd.ParseDistanceModel(def.DistanceModel)
	if err != nil {
		return &config.ConfigError{Index: -1, Field: "distance_model", Reason: err.Error()}
	}
	mix := s.mixes.Intern(snd.SpatialMixConfig{
		ID:                def.Mix,
		Model:             model,
		CullDistance:      *def.CullDistance,
		RolloffFactor:     *def.RolloffFactor,
		ReferenceDistance: *def.ReferenceDistance,
		ReverbSend:        *def.ReverbSend,
	})
	_, err = s.engine.CreateSource(def.AnchorName, mix, asset, *def.ShapeRadius, snd.SourceOptions{
		Loop:   *def.Loop,
		Volume: *def.Volume,
	})
	return errors.Wrapf(err, "sound %q", def.Name)
}

// Missing lists the sounds whose asset could not be registered.
func (s *AudioScene) Missing() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.missing...)
}

func (s *AudioScene) active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == ready
}

// OnAnchorDiscovered is called by the tracking collaborator for every
// detected anchor, re-detections included.
func (s *AudioScene) OnAnchorDiscovered(name string, m mat.Mat4) AnchorState {
	if !s.active() {
		return Unknown
	}
	return s.dispatch.Discover(name, m)
}

// OnAnchorUpdated follows a tracked anchor without triggering.
func (s *AudioScene) OnAnchorUpdated(name string, m mat.Mat4) bool {
	if !s.active() {
		return false
	}
	return s.dispatch.Update(name, m)
}

// OnPoseUpdated takes the device (camera) pose.
func (s *AudioScene) OnPoseUpdated(m mat.Mat4) bool {
	return s.composer.UpdateDevicePose(m)
}

// OnHeadPoseUpdated takes the head pose relative to the device.
func (s *AudioScene) OnHeadPoseUpdated(m mat.Mat4) bool {
	return s.composer.UpdateHeadPose(m)
}

// OnSessionInterrupted pauses the output while the tracking session is
// interrupted. Anchors and poses keep being accepted.
func (s *AudioScene) OnSessionInterrupted() error {
	if !s.active() {
		return nil
	}
	return s.engine.Block()
}

// OnSessionResumed resumes the output after an interruption.
func (s *AudioScene) OnSessionResumed() error {
	if !s.active() {
		return nil
	}
	return s.engine.Unblock()
}

// SetVolume sets the master volume of the output device.
func (s *AudioScene) SetVolume(v float64) bool {
	return s.engine.SetVolume(v)
}

// Listener returns the composed listener transform.
func (s *AudioScene) Listener() mat.Mat4 {
	return s.composer.Transform()
}

// PlaySampleAtPosition places the source of the named sound at m and
// triggers it like a discovery of its anchor would.
func (s *AudioScene) PlaySampleAtPosition(sample string, m mat.Mat4) (*snd.Source, error) {
	def, ok := s.cfg.Sound(sample)
	if !ok {
		return nil, errors.Wrapf(snd.ErrNotFound, "sound %q", sample)
	}
	if !s.active() {
		return nil, snd.ErrEngineStopped
	}
	s.dispatch.Discover(def.AnchorName, m)
	return s.engine.Source(def.AnchorName)
}

func (s *AudioScene) Stats() Stats {
	bound, triggered, triggers := s.dispatch.Counts()
	return Stats{
		Assets:       s.registry.Len(),
		Missing:      len(s.Missing()),
		Mixes:        s.mixes.Len(),
		Sources:      len(s.engine.Sources()),
		Bound:        bound,
		Triggered:    triggered,
		Triggers:     triggers,
		ActiveEvents: s.engine.ActiveEvents(),
	}
}

// Teardown stops the engine synchronously and releases the assets.
func (s *AudioScene) Teardown() error {
	s.mu.Lock()
	if s.state == tornDown {
		s.mu.Unlock()
		return nil
	}
	s.state = tornDown
	s.mu.Unlock()
	err := s.engine.Stop()
	s.registry.Close()
	s.log.Info("Scene torn down")
	return err
}
