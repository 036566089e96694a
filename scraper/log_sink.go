package scraper

import (
	"fmt"
	"log"
)

// LogSink receives human-readable pipeline progress messages
type LogSink interface {
	Emit(message string)
}

// LogFunc adapts a plain function to LogSink
type LogFunc func(message string)

// Emit calls f
func (f LogFunc) Emit(message string) {
	f(message)
}

// StdLogSink writes every message through the standard logger
type StdLogSink struct {
	Prefix string
}

// Emit logs the message
func (s StdLogSink) Emit(message string) {
	log.Print(s.Prefix + message)
}

// emitf formats and emits a message; a nil sink is a no-op
func emitf(sink LogSink, format string, args ...interface{}) {
	if sink == nil {
		return
	}
	sink.Emit(fmt.Sprintf(format, args...))
}
