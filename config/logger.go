package config

import (
	"os"

	"github.com/sirupsen/logrus"
)

var Log *logrus.Logger

// InitLogger builds the shared logger. Output is JSON on stdout unless format
// is "text"; an unparseable level falls back to info.
func InitLogger(level, format string) {
	Log = logrus.New()

	if format == "text" {
		Log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		Log.SetFormatter(&logrus.JSONFormatter{})
	}

	Log.SetOutput(os.Stdout)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		Log.Warnf("Unknown log level %q, using info", level)
		lvl = logrus.InfoLevel
	}
	Log.SetLevel(lvl)
}
