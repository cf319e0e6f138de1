// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/gopxl/beep/v2"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"anchorsound/commandline"
	"anchorsound/config"
	"anchorsound/conlog"
	"anchorsound/filesystem"
	"anchorsound/math/mat"
	"anchorsound/pack"
	"anchorsound/scene"
	"anchorsound/snd"
	"anchorsound/speaker"
	"anchorsound/trace"
)

// sceneSink feeds replayed tracking events into the scene.
type sceneSink struct {
	s   *scene.AudioScene
	log logrus.FieldLogger
}

func (k sceneSink) OnAnchorDiscovered(name string, m mat.Mat4) { k.s.OnAnchorDiscovered(name, m) }
func (k sceneSink) OnAnchorUpdated(name string, m mat.Mat4) { k.s.OnAnchorUpdated(name, m) }
func (k sceneSink) OnPoseUpdated(m mat.Mat4) { k.s.OnPoseUpdated(m) }
func (k sceneSink) OnHeadPoseUpdated(m mat.Mat4) { k.s.OnHeadPoseUpdated(m) }

func (k sceneSink) OnSessionInterrupted() {
	if err := k.s.OnSessionInterrupted(); err != nil {
		k.log.WithError(err).Warn("Session interruption")
	}
}

func (k sceneSink) OnSessionResumed() {
	if err := k.s.OnSessionResumed(); err != nil {
		k.log.WithError(err).Warn("Session resume")
	}
}

// writeBank bundles the files of all sounds of cfg into one pack at name.
func writeBank(name string, cfg *config.Config, files *filesystem.Store) error {
	bank := make(map[string][]byte)
	for _, def := range cfg.Sounds {
		if filepath.IsAbs(def.File) {
			return errors.Errorf("sound %q: absolute file %s can not be bundled", def.Name, def.File)
		}
		entry := strings.TrimPrefix(path.Clean("/"+filepath.ToSlash(def.File)), "/")
		if _, ok := bank[entry]; ok {
			continue
		}
		data, err := files.ReadFile(entry)
		if err != nil {
			return errors.Wrapf(err, "sound %q", def.Name)
		}
		bank[entry] = data
	}
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	if err := pack.Write(f, bank); err != nil {
		f.Close()
		return errors.Wrapf(err, "write %s", name)
	}
	return f.Close()
}

func main() {
	flag.Parse()
	log, err := conlog.Setup(commandline.LogLevel(), commandline.LogJSON())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, log); err != nil {
		log.WithError(err).Error("Exiting")
		os.Exit(1)
	}
}

func run(ctx context.Context, log *logrus.Logger) error {
	cfg, err := config.Load(commandline.Config())
	if err != nil {
		return err
	}
	if r := commandline.SampleRate(); r > 0 {
		cfg.SampleRate = r
	}

	// the config directory first, explicit asset dirs shadow it
	files := filesystem.NewStore(filepath.Dir(commandline.Config()))
	defer files.Close()
	for _, d := range commandline.AssetDirs() {
		if err := files.Mount(d); err != nil {
			return err
		}
	}

	if bank := commandline.MakePack(); bank != "" {
		if err := writeBank(bank, cfg, files); err != nil {
			return err
		}
		log.WithFields(logrus.Fields{
			"bank":   bank,
			"sounds": len(cfg.Sounds),
		}).Info("Wrote sound bank")
		return nil
	}

	var out snd.Output = snd.NullOutput{}
	if !commandline.NoSound() {
		o, err := speaker.New(beep.SampleRate(cfg.SampleRate), commandline.BufferSize())
		if err != nil {
			log.WithError(err).Warn("No audio device, continuing without sound")
		} else {
			out = o
		}
	}

	s, err := scene.New(cfg, scene.Options{
		Files:  files,
		Output: out,
		Logger: log,
		Strict: commandline.Strict(),
	})
	if err != nil {
		return err
	}
	if err := s.Setup(); err != nil {
		return err
	}
	defer func() {
		if err := s.Teardown(); err != nil {
			log.WithError(err).Warn("Teardown")
		}
	}()
	if !s.SetVolume(commandline.Volume()) && !commandline.NoSound() {
		log.Debug("Output has no volume control")
	}

	if name := commandline.Trace(); name != "" {
		t, err := trace.Load(name)
		if err != nil {
			return err
		}
		log.WithFields(logrus.Fields{
			"events":   len(t.Events),
			"duration": t.Duration(),
		}).Info("Replaying trace")
		if err := t.Replay(ctx, sceneSink{s: s, log: log}, commandline.Speed()); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
	}
	st := s.Stats()
	log.WithFields(logrus.Fields{
		"assets":    st.Assets,
		"missing":   st.Missing,
		"sources":   st.Sources,
		"triggered": st.Triggered,
		"active":    st.ActiveEvents,
	}).Info("Scene state")

	if _, silent := out.(snd.NullOutput); !silent && st.ActiveEvents > 0 {
		log.Info("Playing, interrupt to stop")
		<-ctx.Done()
	}
	return nil
}
