package session

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AppletOS/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AppletOS/backend/internal/shared/id"
)

// ErrNotFound is returned for an unknown session id.
var ErrNotFound = errors.New("session: not found")

// ErrDefaultSession is returned when closing the default session.
var ErrDefaultSession = errors.New("session: default session cannot be closed")

// Metadata describes a live session.
type Metadata struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Default   bool      `json:"default"`
}

// Stats summarizes the registry.
type Stats struct {
	Active      int        `json:"active"`
	LastCreated *time.Time `json:"last_created,omitempty"`
	LastClosed  *time.Time `json:"last_closed,omitempty"`
}

// Manager is the registry of live sessions. One default session is created
// with the manager and serves the unscoped API routes.
type Manager struct {
	sessions sync.Map
	cfg      Config
	deps     Deps
	clock    clockwork.Clock
	log      *zap.Logger
	metrics  *monitoring.Metrics

	defaultID id.SessionID

	mu          sync.RWMutex
	lastCreated *time.Time
	lastClosed  *time.Time
	runCtx      context.Context
}

// NewManager creates the registry and its default session.
func NewManager(cfg Config, deps Deps) (*Manager, error) {
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	m := &Manager{
		cfg:     cfg,
		deps:    deps,
		clock:   deps.Clock,
		log:     deps.Logger,
		metrics: deps.Metrics,
	}
	s, err := m.Create()
	if err != nil {
		return nil, err
	}
	m.defaultID = s.ID()
	return m, nil
}

// Create starts a new session.
func (m *Manager) Create() (*Session, error) {
	s, err := New(m.cfg, m.deps)
	if err != nil {
		return nil, err
	}
	m.sessions.Store(s.ID(), s)

	now := m.clock.Now()
	m.mu.Lock()
	m.lastCreated = &now
	ctx := m.runCtx
	m.mu.Unlock()
	if ctx != nil {
		m.run(ctx, s)
	}

	if m.metrics != nil {
		m.metrics.IncSessionsTotal()
		m.metrics.SetSessionsActive(m.count())
	}
	return s, nil
}

// Start drives every live session, and every session created later, until
// ctx is done.
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	if m.runCtx != nil {
		m.mu.Unlock()
		return
	}
	m.runCtx = ctx
	m.mu.Unlock()

	m.Each(func(s *Session) { m.run(ctx, s) })
}

func (m *Manager) run(ctx context.Context, s *Session) {
	go func() {
		if err := s.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			m.log.Warn("session driver stopped", zap.String("session_id", s.ID().String()), zap.Error(err))
		}
	}()
}

// Get returns a live session.
func (m *Manager) Get(sid id.SessionID) (*Session, error) {
	v, ok := m.sessions.Load(sid)
	if !ok {
		return nil, ErrNotFound
	}
	return v.(*Session), nil
}

// Default returns the session created with the manager.
func (m *Manager) Default() *Session {
	s, err := m.Get(m.defaultID)
	if err != nil {
		return nil
	}
	return s
}

// List returns the live sessions, oldest first.
func (m *Manager) List() []Metadata {
	var out []Metadata
	m.sessions.Range(func(_, value any) bool {
		s := value.(*Session)
		out = append(out, Metadata{
			ID:        s.ID().String(),
			CreatedAt: s.CreatedAt(),
			Default:   s.ID() == m.defaultID,
		})
		return true
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Close stops and removes a session. The default session cannot be closed.
func (m *Manager) Close(sid id.SessionID) error {
	if sid == m.defaultID {
		return ErrDefaultSession
	}
	v, ok := m.sessions.LoadAndDelete(sid)
	if !ok {
		return ErrNotFound
	}
	v.(*Session).Close()

	now := m.clock.Now()
	m.mu.Lock()
	m.lastClosed = &now
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.SetSessionsActive(m.count())
	}
	return nil
}

// Shutdown closes every session, the default one included.
func (m *Manager) Shutdown() {
	m.sessions.Range(func(key, value any) bool {
		value.(*Session).Close()
		m.sessions.Delete(key)
		return true
	})
	if m.metrics != nil {
		m.metrics.SetSessionsActive(0)
	}
}

// Each calls fn for every live session.
func (m *Manager) Each(fn func(*Session)) {
	m.sessions.Range(func(_, value any) bool {
		fn(value.(*Session))
		return true
	})
}

// Stats returns registry statistics.
func (m *Manager) Stats() Stats {
	m.mu.RLock()
	lastCreated := m.lastCreated
	lastClosed := m.lastClosed
	m.mu.RUnlock()

	return Stats{
		Active:      m.count(),
		LastCreated: lastCreated,
		LastClosed:  lastClosed,
	}
}

func (m *Manager) count() int {
	var n int
	m.sessions.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
