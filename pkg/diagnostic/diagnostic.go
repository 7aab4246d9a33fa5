// Package diagnostic provides the caller-supplied sink analysis drivers
// report non-fatal conditions to (ConvergenceWarning, a SolverFailure that
// truncates a sweep, a dropped connectivity check, ...). It generalizes the
// original simulator's ErrorManager (ErrorManager.h/.cpp: displayError,
// logError, handleCriticalError) from a static, process-global logger into
// an injectable collaborator, so two drivers running in the same process
// don't share mutable log state and tests can assert on emitted messages.
package diagnostic

import "github.com/sirupsen/logrus"

// Sink receives diagnostics from analysis drivers. Implementations must be
// safe to call from a single analysis's synchronous execution path; the
// core never calls a Sink concurrently with itself.
type Sink interface {
	Info(msg string, fields map[string]any)
	Warnf(msg string, fields map[string]any)
	Errorf(msg string, fields map[string]any)
}

// Logrus adapts a *logrus.Logger to Sink.
type Logrus struct {
	Logger *logrus.Logger
}

// NewLogrus returns a Sink backed by a fresh *logrus.Logger with text output.
func NewLogrus() *Logrus {
	l := logrus.New()
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return &Logrus{Logger: l}
}

func (s *Logrus) Info(msg string, fields map[string]any) {
	s.Logger.WithFields(fields).Info(msg)
}

func (s *Logrus) Warnf(msg string, fields map[string]any) {
	s.Logger.WithFields(fields).Warn(msg)
}

func (s *Logrus) Errorf(msg string, fields map[string]any) {
	s.Logger.WithFields(fields).Error(msg)
}

// Discard silently drops every diagnostic. Useful in tests that only care
// about result tables, and as the zero-value default so a nil Sink never
// has to be guarded against by callers.
type Discard struct{}

func (Discard) Info(string, map[string]any)  {}
func (Discard) Warnf(string, map[string]any) {}
func (Discard) Errorf(string, map[string]any) {}

// Recording collects every diagnostic it receives, in order. Used by tests
// that need to assert a ConvergenceWarning or SolverFailure was reported.
type Recording struct {
	Entries []Entry
}

// Entry is one recorded diagnostic.
type Entry struct {
	Level  string // "info", "warn", "error"
	Msg    string
	Fields map[string]any
}

func (r *Recording) Info(msg string, fields map[string]any) {
	r.Entries = append(r.Entries, Entry{Level: "info", Msg: msg, Fields: fields})
}

func (r *Recording) Warnf(msg string, fields map[string]any) {
	r.Entries = append(r.Entries, Entry{Level: "warn", Msg: msg, Fields: fields})
}

func (r *Recording) Errorf(msg string, fields map[string]any) {
	r.Entries = append(r.Entries, Entry{Level: "error", Msg: msg, Fields: fields})
}
