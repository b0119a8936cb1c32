package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"Cablecalc/internal/calc/engine"
	"Cablecalc/internal/catalog"
	"Cablecalc/internal/logging"
)

var ErrNotFound = errors.New("session not found")

// Gauge is satisfied by prometheus.Gauge.
type Gauge interface {
	Set(float64)
}

// Session owns one engine. The engine is single-threaded, so every access goes through Do.
type Session struct {
	ID    string
	Owner int

	mu       sync.Mutex
	engine   *engine.Engine
	lastUsed time.Time
}

// Do runs fn with exclusive access to the engine and returns the resulting snapshot.
func (s *Session) Do(fn func(e *engine.Engine)) engine.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fn != nil {
		fn(s.engine)
	}
	return s.engine.Snapshot()
}

type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session

	tables   catalog.Provider
	ttl      time.Duration
	log      logging.Logger
	observer engine.Observer
	gauge    Gauge
	now      func() time.Time
}

type Option func(*Store)

func WithTTL(ttl time.Duration) Option {
	return func(s *Store) { s.ttl = ttl }
}

func WithLogger(l logging.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

func WithObserver(o engine.Observer) Option {
	return func(s *Store) { s.observer = o }
}

func WithGauge(g Gauge) Option {
	return func(s *Store) { s.gauge = g }
}

// NewStore creates sessions whose engines read from tables at creation time.
func NewStore(tables catalog.Provider, opts ...Option) *Store {
	s := &Store{
		sessions: make(map[string]*Session),
		tables:   tables,
		ttl:      2 * time.Hour,
		log:      logging.Noop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Create(ctx context.Context, owner int) *Session {
	opts := []engine.Option{engine.WithLogger(s.log)}
	if s.observer != nil {
		opts = append(opts, engine.WithObserver(s.observer))
	}
	sess := &Session{
		ID:     uuid.NewString(),
		Owner:  owner,
		engine: engine.New(s.tables, opts...),
	}

	s.mu.Lock()
	now := s.now()
	s.pruneLocked(ctx, now)
	sess.lastUsed = now
	s.sessions[sess.ID] = sess
	s.reportLocked()
	s.mu.Unlock()

	s.log.Info(ctx, "session created", logging.String("session", sess.ID), logging.Int("owner", owner))
	return sess
}

// Get returns the session if it exists, has not expired and belongs to owner.
// Sessions of other users are reported as missing.
func (s *Store) Get(ctx context.Context, id string, owner int) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.pruneLocked(ctx, now)
	sess, ok := s.sessions[id]
	if !ok || sess.Owner != owner {
		return nil, ErrNotFound
	}
	sess.lastUsed = now
	return sess, nil
}

func (s *Store) Delete(ctx context.Context, id string, owner int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok || sess.Owner != owner {
		return ErrNotFound
	}
	delete(s.sessions, id)
	s.reportLocked()
	s.log.Info(ctx, "session deleted", logging.String("session", id))
	return nil
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Store) pruneLocked(ctx context.Context, now time.Time) {
	if s.ttl <= 0 {
		return
	}
	pruned := 0
	for id, sess := range s.sessions {
		if now.Sub(sess.lastUsed) > s.ttl {
			delete(s.sessions, id)
			pruned++
		}
	}
	if pruned > 0 {
		s.log.Debug(ctx, "sessions expired", logging.Int("count", pruned))
		s.reportLocked()
	}
}

func (s *Store) reportLocked() {
	if s.gauge != nil {
		s.gauge.Set(float64(len(s.sessions)))
	}
}
