// Package store owns the editor state: a reducer over immutable snapshots,
// the undo history, and selectors used by the renderer and the canvas engine.
package store

import (
	"go.uber.org/zap"

	"github.com/vectorforge/canvas/internal/document"
)

// Store holds the current editor state and its history. It is not safe for
// concurrent use; the canvas engine drives it from a single goroutine.
type Store struct {
	history   *History
	limit     int
	logger    *zap.Logger
	listeners []func(State)
}

type Option func(*Store)

func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.logger = l }
}

func WithHistoryLimit(n int) Option {
	return func(s *Store) { s.limit = n }
}

// New creates a store editing doc.
func New(doc *document.Document, opts ...Option) *Store {
	s := &Store{limit: DefaultHistoryLimit, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	s.history = NewHistory(NewState(doc), s.limit)
	return s
}

// Load replaces the document and clears history. The viewport is kept.
func (s *Store) Load(doc *document.Document) {
	next := NewState(doc)
	next.Viewport = s.history.Present().Viewport
	s.history = NewHistory(next, s.limit)
	s.notify()
}

// Snapshot returns the present state.
func (s *Store) Snapshot() State { return s.history.Present() }

// Dispatch reduces the action into the present state. Recording actions that
// change the document or selection push an undo entry.
func (s *Store) Dispatch(a Action) {
	prev := s.history.Present()
	next := Reduce(prev, a)

	if Records(a) && prev.differs(next) {
		s.history.Push(next)
		s.logger.Debug("recorded action",
			zap.String("action", a.Name()),
			zap.Int("history", s.history.Len()),
		)
	} else {
		s.history.Replace(next)
	}
	s.notify()
}

// Apply reduces an action into the present without recording it. Remote
// edits arrive this way; they are not part of the local undo stack.
func (s *Store) Apply(a Action) {
	s.history.Replace(Reduce(s.history.Present(), a))
	s.notify()
}

func (s *Store) Undo() bool {
	if !s.history.Undo() {
		return false
	}
	s.logger.Debug("undo", zap.Int("history", s.history.Len()))
	s.notify()
	return true
}

func (s *Store) Redo() bool {
	if !s.history.Redo() {
		return false
	}
	s.logger.Debug("redo", zap.Int("history", s.history.Len()))
	s.notify()
	return true
}

func (s *Store) CanUndo() bool { return s.history.CanUndo() }
func (s *Store) CanRedo() bool { return s.history.CanRedo() }

// HistoryLength returns the number of undoable entries.
func (s *Store) HistoryLength() int { return s.history.Len() }

// Subscribe registers fn to be called with the new state after every change.
func (s *Store) Subscribe(fn func(State)) {
	s.listeners = append(s.listeners, fn)
}

func (s *Store) notify() {
	if len(s.listeners) == 0 {
		return
	}
	state := s.history.Present()
	for _, fn := range s.listeners {
		fn(state)
	}
}
