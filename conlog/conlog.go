// Package conlog configures the process wide logrus logger.
package conlog

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var (
	log = logrus.StandardLogger()
)

// Setup sets level and format of the standard logger. Unknown levels are an
// error and leave the logger untouched.
func Setup(level string, json bool) (*logrus.Logger, error) {
	return setup(log, os.Stderr, level, json)
}

func setup(l *logrus.Logger, w io.Writer, level string, json bool) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, errors.Wrapf(err, "log level %q", level)
	}
	l.SetOutput(w)
	l.SetLevel(lvl)
	if json {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return l, nil
}
