// Copyright 2026 The Reflow Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package logging provides the logger interface used across the runtime,
// backed by logrus for hosts that want structured output.
package logging

import (
	"io"

	"github.com/sirupsen/logrus"
)

// Level log level for Logger
type Level uint8

const (
	// ErrorLevel log errors
	ErrorLevel Level = iota
	// WarnLevel log warnings
	WarnLevel
	// InfoLevel log informational messages
	InfoLevel
	// DebugLevel log debug messages
	DebugLevel
)

// Logger provides interface for the runtime's logging components.
type Logger interface {
	Debug(fmt string, a ...any)
	Info(fmt string, a ...any)
	Error(fmt string, a ...any)
	Warn(fmt string, a ...any)

	WithFields(map[string]any) Logger

	GetLevel() Level
	SetLevel(Level)
}

// StandardLogger is the default implementation of Logger.
type StandardLogger struct {
	logger *logrus.Logger
	fields map[string]any
}

// New returns a new standard logger.
func New() *StandardLogger {
	return &StandardLogger{
		logger: logrus.New(),
	}
}

// Get returns the standard logger used throughout the runtime.
func Get() *StandardLogger {
	return &StandardLogger{
		logger: logrus.StandardLogger(),
	}
}

// SetOutput sets the underlying logrus output.
func (l *StandardLogger) SetOutput(w io.Writer) {
	l.logger.SetOutput(w)
}

// SetFormatter sets the underlying logrus formatter.
func (l *StandardLogger) SetFormatter(formatter logrus.Formatter) {
	l.logger.SetFormatter(formatter)
}

// WithFields provides additional fields to include in log output.
func (l *StandardLogger) WithFields(fields map[string]any) Logger {
	cp := *l
	cp.fields = make(map[string]any, len(l.fields)+len(fields))
	for k, v := range l.fields {
		cp.fields[k] = v
	}
	for k, v := range fields {
		cp.fields[k] = v
	}
	return &cp
}

// getFields returns additional fields of this logger.
func (l *StandardLogger) getFields() map[string]any {
	return l.fields
}

// SetLevel sets the logger level.
func (l *StandardLogger) SetLevel(level Level) {
	var logrusLevel logrus.Level
	switch level {
	case ErrorLevel:
		logrusLevel = logrus.ErrorLevel
	case WarnLevel:
		logrusLevel = logrus.WarnLevel
	case InfoLevel:
		logrusLevel = logrus.InfoLevel
	case DebugLevel:
		logrusLevel = logrus.DebugLevel
	}
	l.logger.SetLevel(logrusLevel)
}

// GetLevel returns the logger level.
func (l *StandardLogger) GetLevel() Level {
	switch l.logger.GetLevel() {
	case logrus.ErrorLevel:
		return ErrorLevel
	case logrus.WarnLevel:
		return WarnLevel
	case logrus.InfoLevel:
		return InfoLevel
	default:
		return DebugLevel
	}
}

// Debug logs at debug level.
func (l *StandardLogger) Debug(fmt string, a ...any) {
	l.logger.WithFields(l.getFields()).Debugf(fmt, a...)
}

// Info logs at info level.
func (l *StandardLogger) Info(fmt string, a ...any) {
	l.logger.WithFields(l.getFields()).Infof(fmt, a...)
}

// Error logs at error level.
func (l *StandardLogger) Error(fmt string, a ...any) {
	l.logger.WithFields(l.getFields()).Errorf(fmt, a...)
}

// Warn logs at warn level.
func (l *StandardLogger) Warn(fmt string, a ...any) {
	l.logger.WithFields(l.getFields()).Warnf(fmt, a...)
}

// NoOpLogger logging implementation that does nothing.
type NoOpLogger struct {
	level  Level
	fields map[string]any
}

// NewNoOpLogger instantiates new NoOpLogger.
func NewNoOpLogger() *NoOpLogger {
	return &NoOpLogger{
		level: InfoLevel,
	}
}

// WithFields provides additional fields to include in log output.
// Implemented here primarily to be able to switch between implementations without loss of data.
func (l *NoOpLogger) WithFields(fields map[string]any) Logger {
	cp := *l
	cp.fields = fields
	return &cp
}

// Debug noop
func (*NoOpLogger) Debug(string, ...any) {}

// Info noop
func (*NoOpLogger) Info(string, ...any) {}

// Error noop
func (*NoOpLogger) Error(string, ...any) {}

// Warn noop
func (*NoOpLogger) Warn(string, ...any) {}

// SetLevel set log level.
func (l *NoOpLogger) SetLevel(level Level) {
	l.level = level
}

// GetLevel get log level.
func (l *NoOpLogger) GetLevel() Level {
	return l.level
}
