// Package session keeps live play sessions in memory, one narrative
// controller each, and records every resolved turn to storage.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/story-turns/internal/logger"
	"github.com/jwebster45206/story-turns/pkg/narrative"
	"github.com/jwebster45206/story-turns/pkg/storage"
)

// ErrSessionNotFound is returned for unknown or evicted sessions.
var ErrSessionNotFound = errors.New("session not found")

// DefaultStartKnot is used when neither the request nor the manager names one.
const DefaultStartKnot = "start"

// Turn is the outcome of a session operation.
type Turn struct {
	SessionID uuid.UUID           `json:"session_id"`
	Story     string              `json:"story"`
	View      narrative.ViewState `json:"view"`

	// Finished is set only on the turn that reached an ending.
	Finished bool `json:"-"`
}

type session struct {
	id    uuid.UUID
	story string
	knot  string
	log   *slog.Logger

	mu   sync.Mutex // serializes turns
	ctrl *narrative.Controller

	lastUsed atomic.Int64 // unix nanos
}

func (s *session) touch(now time.Time) {
	s.lastUsed.Store(now.UnixNano())
}

// Manager owns all live sessions. It is safe for concurrent use; turns on
// the same session are serialized, turns on different sessions are not.
type Manager struct {
	store     storage.Storage
	factory   narrative.EngineFactory
	logger    *slog.Logger
	startKnot string
	idle      time.Duration
	ctrlOpts  []narrative.Option
	now       func() time.Time

	mu       sync.RWMutex
	sessions map[uuid.UUID]*session
}

// Option configures a Manager.
type Option func(*Manager)

// WithStartKnot sets the knot used when Create is given none.
func WithStartKnot(knot string) Option {
	return func(m *Manager) {
		if knot != "" {
			m.startKnot = knot
		}
	}
}

// WithIdleTimeout sets how long a session may sit unused before Sweep evicts it.
func WithIdleTimeout(d time.Duration) Option {
	return func(m *Manager) {
		m.idle = d
	}
}

// WithControllerOptions passes options to every controller the manager builds.
func WithControllerOptions(opts ...narrative.Option) Option {
	return func(m *Manager) {
		m.ctrlOpts = append(m.ctrlOpts, opts...)
	}
}

// WithClock replaces time.Now; tests use it to drive idle eviction.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

func NewManager(store storage.Storage, factory narrative.EngineFactory, log *slog.Logger, opts ...Option) *Manager {
	m := &Manager{
		store:     store,
		factory:   factory,
		logger:    log,
		startKnot: DefaultStartKnot,
		idle:      30 * time.Minute,
		now:       time.Now,
		sessions:  make(map[uuid.UUID]*session),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create loads storyFile, starts it at knot and registers the session. A
// session whose start fails is never registered.
func (m *Manager) Create(ctx context.Context, storyFile, knot string) (Turn, error) {
	if knot == "" {
		knot = m.startKnot
	}

	doc, err := m.store.GetStory(ctx, storyFile)
	if err != nil {
		return Turn{}, fmt.Errorf("failed to load story: %w", err)
	}

	id := uuid.New()
	log := logger.WithSessionID(m.logger, id).With("story", storyFile)
	opts := append([]narrative.Option{narrative.WithLogger(log)}, m.ctrlOpts...)

	s := &session{
		id:    id,
		story: storyFile,
		knot:  knot,
		log:   log,
		ctrl:  narrative.New(doc, m.factory, opts...),
	}

	view, err := s.ctrl.Start(knot)
	if err != nil {
		log.Warn("Session failed to start", "knot", knot, "error", err)
		return Turn{}, err
	}
	s.touch(m.now())

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()

	log.Info("Session created", "knot", knot)
	m.record(ctx, s, storage.ActionStart, nil, view)
	turn := s.turn(view)
	turn.Finished = view.Ended
	return turn, nil
}

// Get returns the session's current view without advancing it.
func (m *Manager) Get(id uuid.UUID) (Turn, error) {
	s, err := m.lookup(id)
	if err != nil {
		return Turn{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch(m.now())
	return s.turn(s.ctrl.View()), nil
}

// Continue advances the story one turn.
func (m *Manager) Continue(ctx context.Context, id uuid.UUID) (Turn, error) {
	return m.play(ctx, id, storage.ActionContinue, nil, func(c *narrative.Controller) (narrative.ViewState, error) {
		return c.Advance()
	})
}

// Choose picks choice index and advances. A rejected choice returns the
// unchanged view alongside the error.
func (m *Manager) Choose(ctx context.Context, id uuid.UUID, index int) (Turn, error) {
	return m.play(ctx, id, storage.ActionChoose, &index, func(c *narrative.Controller) (narrative.ViewState, error) {
		return c.Choose(index)
	})
}

// Restart rebuilds the session's story from scratch at its original knot.
func (m *Manager) Restart(ctx context.Context, id uuid.UUID) (Turn, error) {
	s, err := m.lookup(id)
	if err != nil {
		return Turn{}, err
	}
	return m.play(ctx, id, storage.ActionRestart, nil, func(c *narrative.Controller) (narrative.ViewState, error) {
		return c.Restart(s.knot)
	})
}

func (m *Manager) play(ctx context.Context, id uuid.UUID, action string, index *int,
	step func(*narrative.Controller) (narrative.ViewState, error)) (Turn, error) {
	s, err := m.lookup(id)
	if err != nil {
		return Turn{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch(m.now())

	wasEnded := s.ctrl.View().Ended && action != storage.ActionRestart
	view, err := step(s.ctrl)
	if err != nil {
		s.log.Warn("Turn rejected", "action", action, "error", err)
		return s.turn(view), err
	}
	m.record(ctx, s, action, index, view)
	turn := s.turn(view)
	turn.Finished = view.Ended && !wasEnded
	return turn, nil
}

// Transcript returns the recorded turns. It stays readable after the session
// is evicted until the transcript's own TTL runs out.
func (m *Manager) Transcript(ctx context.Context, id uuid.UUID) ([]storage.TurnRecord, error) {
	records, err := m.store.Transcript(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		if _, err := m.lookup(id); err != nil {
			return nil, err
		}
	}
	return records, nil
}

// Delete drops the session and its transcript.
func (m *Manager) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}

	if err := m.store.DeleteTranscript(ctx, id); err != nil {
		s.log.Warn("Failed to delete transcript", "error", err)
	}
	s.log.Info("Session deleted")
	return nil
}

// Sweep evicts sessions idle longer than the idle timeout and returns how
// many were removed. Transcripts are left to expire on their own.
func (m *Manager) Sweep(now time.Time) int {
	if m.idle <= 0 {
		return 0
	}
	cutoff := now.Add(-m.idle).UnixNano()

	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, s := range m.sessions {
		if s.lastUsed.Load() < cutoff {
			delete(m.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		m.logger.Info("Evicted idle sessions", "count", removed, "remaining", len(m.sessions))
	}
	return removed
}

// RunSweeper calls Sweep every interval until ctx is cancelled.
func (m *Manager) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep(m.now())
		}
	}
}

// Len reports the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *Manager) lookup(id uuid.UUID) (*session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// record appends the turn to the transcript. The transcript is an audit
// trail, so a storage failure never fails the turn.
func (m *Manager) record(ctx context.Context, s *session, action string, index *int, view narrative.ViewState) {
	rec := storage.TurnRecord{
		Turn:        view.Turn,
		Action:      action,
		ChoiceIndex: index,
		View:        view,
		At:          m.now().UTC(),
	}
	if err := m.store.AppendTurn(ctx, s.id, rec); err != nil {
		logger.WithError(s.log, err).Error("Failed to record turn", "action", action, "turn", view.Turn)
	}
}

func (s *session) turn(view narrative.ViewState) Turn {
	return Turn{SessionID: s.id, Story: s.story, View: view}
}
