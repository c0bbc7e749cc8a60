// Package logger provides the colored, prefixed component loggers used across the arena.
package logger

import (
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/beka-birhanu/vinom-arena/config"
	"github.com/beka-birhanu/vinom-arena/service/i"
)

var ErrNilWriter = errors.New("logger writer is nil")

var _ i.Logger = &Logger{}

// Logger writes "[PREFIX] [LEVEL] message" lines with the prefix in the component color.
type Logger struct {
	prefix string
	color  string
	out    *log.Logger
}

// New creates a component logger writing to w.
func New(prefix, color string, w io.Writer) (*Logger, error) {
	if w == nil {
		return nil, ErrNilWriter
	}

	return &Logger{
		prefix: prefix,
		color:  color,
		out:    log.New(w, "", log.LstdFlags),
	}, nil
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	l, _ := New("", "", io.Discard)
	return l
}

// Info implements i.Logger.
func (l *Logger) Info(msg string) {
	l.write(config.LogInfoColor, "INFO", msg)
}

// Warning implements i.Logger.
func (l *Logger) Warning(msg string) {
	l.write(config.LogWarningColor, "WARNING", msg)
}

// Error implements i.Logger.
func (l *Logger) Error(msg string) {
	l.write(config.LogErrorColor, "ERROR", msg)
}

func (l *Logger) write(levelColor, level, msg string) {
	l.out.Print(fmt.Sprintf("%s[%s]%s %s[%s]%s %s",
		l.color, l.prefix, config.LogColorReset,
		levelColor, level, config.LogColorReset,
		msg,
	))
}
