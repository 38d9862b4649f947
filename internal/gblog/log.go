// Package gblog is the ambient logging interface used across the emulator
// core. It mirrors the teacher's pkg/log: a tiny interface with a
// fmt-backed implementation and a null implementation for tests and for
// running with logging disabled.
package gblog

import "fmt"

// Logger is the logging interface used by every package in this module.
type Logger interface {
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Debugf(format string, args ...interface{})
}

type printfLogger struct {
	debug bool
}

// New returns a Logger that writes to stdout via fmt.Printf. When debug is
// false, Debugf calls are discarded.
func New(debug bool) Logger {
	return &printfLogger{debug: debug}
}

func (l *printfLogger) Infof(format string, args ...interface{}) {
	fmt.Printf("INFO  "+format+"\n", args...)
}

func (l *printfLogger) Errorf(format string, args ...interface{}) {
	fmt.Printf("ERROR "+format+"\n", args...)
}

func (l *printfLogger) Debugf(format string, args ...interface{}) {
	if !l.debug {
		return
	}
	fmt.Printf("DEBUG "+format+"\n", args...)
}
