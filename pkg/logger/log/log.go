// Package log is a thin global-logger façade, grounded on the teacher's
// Lens/core/pkg/logger/log package: package-level functions delegate to a
// swappable underlying logger so every component logs the same way without
// threading a logger instance through every constructor.
package log

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Fields is an alias for structured log fields.
type Fields = logrus.Fields

var global = newDefault()

func newDefault() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	l.SetLevel(logrus.InfoLevel)
	return l
}

// Configure replaces the global logger's level and formatter. The CLI calls
// it once from its persistent pre-run with the --log-level/--log-json flag
// values, before loading configuration; safe to call more than once (e.g. in
// tests) since it only swaps fields on the existing *logrus.Logger.
func Configure(level string, jsonFormat bool) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	global.SetLevel(lvl)
	if jsonFormat {
		global.SetFormatter(&logrus.JSONFormatter{})
	} else {
		global.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}

// SetGlobal replaces the underlying logrus logger wholesale, mainly for
// tests that want to capture output.
func SetGlobal(l *logrus.Logger) {
	global = l
}

// WithFields returns a logrus entry pre-populated with the given fields,
// for call sites that want structured context without a full wrapper.
func WithFields(fields Fields) *logrus.Entry {
	return global.WithFields(fields)
}

func Trace(args ...interface{}) { global.Trace(args...) }
func Tracef(format string, args ...interface{}) { global.Tracef(format, args...) }

func Debug(args ...interface{}) { global.Debug(args...) }
func Debugf(format string, args ...interface{}) { global.Debugf(format, args...) }

func Info(args ...interface{}) { global.Info(args...) }
func Infof(format string, args ...interface{}) { global.Infof(format, args...) }

func Warn(args ...interface{}) { global.Warn(args...) }
func Warnf(format string, args ...interface{}) { global.Warnf(format, args...) }

func Error(args ...interface{}) { global.Error(args...) }
func Errorf(format string, args ...interface{}) { global.Errorf(format, args...) }

func Fatal(args ...interface{}) { global.Fatal(args...) }
func Fatalf(format string, args ...interface{}) { global.Fatalf(format, args...) }
