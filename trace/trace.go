// Package trace is a debug-only event recorder. A CKB-VM script has no
// stdout in production and must not let logging influence control flow, so
// this package never does anything on the accept/reject path -- it only
// collects events in memory for a caller to read back. No other package in
// this module records into it, and no build tag switches it on.
package trace

import "fmt"

// Level mirrors the teacher's log.Level shape, trimmed to what a script
// trace actually needs: no Fatal (a script never owns a process to exit).
type Level int

const (
	Debug Level = iota
	Info
	Warn
	Error
)

func (l Level) String() string {
	switch l {
	case Debug:
		return "DEBUG"
	case Info:
		return "INFO"
	case Warn:
		return "WARN"
	case Error:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Event is one recorded trace point.
type Event struct {
	Level   Level
	Message string
}

// Recorder collects events in-process. The zero value is ready to use, and
// a nil *Recorder is valid and discards.
type Recorder struct {
	events []Event
}

// NewRecorder returns a Recorder ready to collect events.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) record(lvl Level, format string, args []any) {
	if r == nil {
		return
	}
	r.events = append(r.events, Event{Level: lvl, Message: fmt.Sprintf(format, args...)})
}

func (r *Recorder) Debugf(format string, args ...any) { r.record(Debug, format, args) }
func (r *Recorder) Infof(format string, args ...any)  { r.record(Info, format, args) }
func (r *Recorder) Warnf(format string, args ...any)  { r.record(Warn, format, args) }
func (r *Recorder) Errorf(format string, args ...any) { r.record(Error, format, args) }

// Events returns the events recorded so far, in order.
func (r *Recorder) Events() []Event {
	if r == nil {
		return nil
	}
	return r.events
}

// Last returns the most recently recorded event, or the zero Event if none.
func (r *Recorder) Last() Event {
	if r == nil || len(r.events) == 0 {
		return Event{}
	}
	return r.events[len(r.events)-1]
}
