// SPDX-License-Identifier: GPL-2.0-or-later

package commandline

import (
	"flag"
	"strings"
)

var (
	conDebug bool
	logJSON  bool
	noSound  bool
	strict   bool

	bufferSize int
	sampleRate int

	speed  float64
	volume float64

	config   string
	logLevel string
	makePack string
	trace    string

	assets dirList
)

// dirList collects a flag given multiple times, "-assets a -assets b" and
// "-assets a,b" are the same.
type dirList []string

func (d *dirList) Set(s string) error {
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			*d = append(*d, p)
		}
	}
	return nil
}

func (d *dirList) String() string {
	if d == nil {
		return ""
	}
	return strings.Join(*d, ",")
}

func init() {
	flag.BoolVar(&conDebug, "condebug", false, "enable debug logging")
	flag.BoolVar(&logJSON, "logjson", false, "log as json lines")
	flag.BoolVar(&noSound, "nosound", false, "Disable sound output")
	flag.BoolVar(&strict, "strict", false, "fail on the first sound asset that can not be loaded")

	flag.IntVar(&bufferSize, "buffer", 2048, "output buffer size in frames")
	flag.IntVar(&sampleRate, "samplerate", 0, "engine sample rate, 0 uses the config value")

	flag.Float64Var(&speed, "speed", 1, "trace replay speed, 0 replays without delays")
	flag.Float64Var(&volume, "volume", 1, "master volume in [0,1]")

	flag.StringVar(&config, "config", "sounds.yaml", "sound definitions, yaml or json")
	flag.StringVar(&logLevel, "loglevel", "info", "")
	flag.StringVar(&makePack, "mkpak", "", "write the sound files of the config into this .pak bank and exit")
	flag.StringVar(&trace, "trace", "", "tracking trace to replay")

	flag.Var(&assets, "assets", "asset directory or .pak bank, may be repeated, later ones win")
}

func LogJSON() bool {
	return logJSON
}

// LogLevel is the logrus level, -condebug forces debug.
func LogLevel() string {
	if conDebug {
		return "debug"
	}
	return logLevel
}

func NoSound() bool {
	return noSound
}

func Strict() bool {
	return strict
}

func BufferSize() int {
	return bufferSize
}

func SampleRate() int {
	return sampleRate
}

func Speed() float64 {
	return speed
}

func Volume() float64 {
	return volume
}

func MakePack() string {
	return makePack
}

func Config() string {
	return config
}

func Trace() string {
	return trace
}

func AssetDirs() []string {
	return append([]string(nil), assets...)
}
