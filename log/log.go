// Package log provides the process-wide logger and step timing helpers.
package log

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var logger *zap.SugaredLogger

func init() {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		panic(err)
	}
	logger = l.Sugar()
}

// SetLogger replaces the process logger, e.g. with a config-built one.
func SetLogger(l *zap.Logger) {
	logger = l.Sugar()
}

// Logger returns the current process logger.
func Logger() *zap.SugaredLogger {
	return logger
}

func Debugf(format string, args ...interface{}) {
	logger.Debugf(format, args...)
}

func Printf(format string, args ...interface{}) {
	logger.Infof(format, args...)
}

func Warnf(format string, args ...interface{}) {
	logger.Warnf(format, args...)
}

func Errorf(format string, args ...interface{}) {
	logger.Errorf(format, args...)
}

func Fatalf(format string, args ...interface{}) {
	logger.Fatalf(format, args...)
}

func Fatal(args ...interface{}) {
	logger.Fatal(args...)
}

// Step tracks the duration of a named processing step.
type Step struct {
	name  string
	start time.Time
}

// StartStep logs the start of a step and returns a handle for StopStep.
func StartStep(format string, args ...interface{}) *Step {
	name := fmt.Sprintf(format, args...)
	logger.Infof("%s", name)
	return &Step{name: name, start: time.Now()}
}

// StopStep logs the step duration. Use with defer:
//
//	defer log.StopStep(log.StartStep("Creating indices"))
func StopStep(s *Step) {
	logger.Infof("%s took %s", s.name, time.Since(s.start).Round(time.Millisecond))
}
