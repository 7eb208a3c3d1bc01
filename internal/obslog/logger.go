// Package obslog wires the ambient logging used by both cmd/toolserver and
// cmd/scheduler: a single logrus.Logger plus a fluent, context-carrying
// wrapper used throughout the internal packages.
package obslog

import (
	"time"

	"github.com/sirupsen/logrus"
)

// Level is one of the standard logging levels, read from LOG_LEVEL.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
	LevelFatal Level = "fatal"
)

// Config controls logger construction.
type Config struct {
	Level Level
	// ForceConsole disables JSON formatting even outside a TTY, mirroring
	// the FORCE_CONSOLE environment variable.
	ForceConsole bool
	Service      string
}

// DefaultConfig returns sensible defaults: info level, JSON output.
func DefaultConfig() Config {
	return Config{Level: LevelInfo}
}

// New builds a configured *logrus.Logger.
func New(cfg Config) *logrus.Logger {
	logger := logrus.New()

	switch cfg.Level {
	case LevelDebug:
		logger.SetLevel(logrus.DebugLevel)
	case LevelWarn:
		logger.SetLevel(logrus.WarnLevel)
	case LevelError:
		logger.SetLevel(logrus.ErrorLevel)
	case LevelFatal:
		logger.SetLevel(logrus.FatalLevel)
	default:
		logger.SetLevel(logrus.InfoLevel)
	}

	if cfg.ForceConsole {
		logger.SetFormatter(&logrus.TextFormatter{
			TimestampFormat: time.RFC3339,
			FullTimestamp:   true,
		})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339,
		})
	}

	if cfg.Service != "" {
		return logger
	}
	return logger
}

// Context is a fluent, immutable field-carrying logger, matching the shape
// callers pass down through a request or sync tick.
type Context struct {
	logger *logrus.Logger
	fields logrus.Fields
}

// NewContext wraps logger with a base set of fields (e.g. {"service": "toolserver"}).
func NewContext(logger *logrus.Logger, fields map[string]interface{}) *Context {
	base := make(logrus.Fields, len(fields))
	for k, v := range fields {
		base[k] = v
	}
	return &Context{logger: logger, fields: base}
}

// WithField returns a copy of c with key=value added.
func (c *Context) WithField(key string, value interface{}) *Context {
	next := make(logrus.Fields, len(c.fields)+1)
	for k, v := range c.fields {
		next[k] = v
	}
	next[key] = value
	return &Context{logger: c.logger, fields: next}
}

// WithFields returns a copy of c with every key in fields added.
func (c *Context) WithFields(fields map[string]interface{}) *Context {
	next := make(logrus.Fields, len(c.fields)+len(fields))
	for k, v := range c.fields {
		next[k] = v
	}
	for k, v := range fields {
		next[k] = v
	}
	return &Context{logger: c.logger, fields: next}
}

// WithError returns a copy of c with the error's message attached.
func (c *Context) WithError(err error) *Context {
	return c.WithField("error", err.Error())
}

func (c *Context) Debug(msg string) { c.logger.WithFields(c.fields).Debug(msg) }
func (c *Context) Info(msg string)  { c.logger.WithFields(c.fields).Info(msg) }
func (c *Context) Warn(msg string)  { c.logger.WithFields(c.fields).Warn(msg) }
func (c *Context) Error(msg string) { c.logger.WithFields(c.fields).Error(msg) }
func (c *Context) Fatal(msg string) { c.logger.WithFields(c.fields).Fatal(msg) }
