package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

var Log = newLogger(os.Stderr, os.Getenv("DEBUG"), os.Getenv("LOG_LEVEL"))

// newLogger builds the shared logger. DEBUG=1 wins over LOG_LEVEL,
// an unknown LOG_LEVEL falls back to info.
func newLogger(out io.Writer, debug, level string) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(out)
	log.SetFormatter(&logrus.TextFormatter{
		ForceColors:      true,
		DisableTimestamp: true,
	})

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	if debug == "1" {
		lvl = logrus.DebugLevel
	}
	log.SetLevel(lvl)

	return log
}

// Scope returns an entry tagged with the component name.
func Scope(name string) *logrus.Entry {
	return Log.WithField("scope", name)
}
