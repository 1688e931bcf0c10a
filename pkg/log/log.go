package log

import (
	"fmt"
	"io"
	"os"
	"sync"
)

type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Debugf(format string, args ...interface{})
}

type logger struct {
	mu    sync.Mutex
	w     io.Writer
	debug bool
}

// New returns a Logger that writes to stdout with debug
// messages enabled.
func New() Logger {
	return &logger{w: os.Stdout, debug: true}
}

// NewWithWriter returns a Logger that writes to w. Debug
// messages are dropped unless debug is true.
func NewWithWriter(w io.Writer, debug bool) Logger {
	return &logger{w: w, debug: debug}
}

func (l *logger) printf(level, format string, args ...interface{}) {
	l.mu.Lock()
	fmt.Fprintf(l.w, "["+level+"]\t"+format+"\n", args...)
	l.mu.Unlock()
}

func (l *logger) Infof(format string, args ...interface{}) {
	l.printf("INFO", format, args...)
}

func (l *logger) Warnf(format string, args ...interface{}) {
	l.printf("WARN", format, args...)
}

func (l *logger) Errorf(format string, args ...interface{}) {
	l.printf("ERROR", format, args...)
}

func (l *logger) Debugf(format string, args ...interface{}) {
	if !l.debug {
		return
	}
	l.printf("DEBUG", format, args...)
}
