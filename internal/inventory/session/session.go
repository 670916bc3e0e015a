package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	accessdomain "github.com/tair/stockroom/internal/access/domain"
	"github.com/tair/stockroom/internal/access/gate"
	"github.com/tair/stockroom/internal/inventory/domain"
	"github.com/tair/stockroom/internal/inventory/engine"
	"github.com/tair/stockroom/pkg/logger"
)

const (
	DefaultIdleTimeout = 30 * time.Minute
	resubscribeBackoff = 500 * time.Millisecond
)

// Config tunes session lifetimes
type Config struct {
	Engine      engine.Config
	IdleTimeout time.Duration
	// ReapInterval defaults to a quarter of IdleTimeout.
	ReapInterval time.Duration
}

// Session is one actor's gate and engine, kept in sync with the change feed
// by a background goroutine until closed
type Session struct {
	actorID string
	gate    *gate.Gate
	engine  *engine.Engine

	cancel   context.CancelFunc
	done     chan struct{}
	lastSeen atomic.Int64
}

// ActorID returns the actor the session belongs to
func (s *Session) ActorID() string { return s.actorID }

// Gate returns the session's resolved role gate
func (s *Session) Gate() *gate.Gate { return s.gate }

// Engine returns the session's reconciliation engine
func (s *Session) Engine() *engine.Engine { return s.engine }

func (s *Session) touch(now time.Time) { s.lastSeen.Store(now.UnixNano()) }

func (s *Session) idleSince() time.Time { return time.Unix(0, s.lastSeen.Load()) }

// Manager owns every live session
type Manager struct {
	store domain.ItemStore
	feed  domain.Subscriber
	roles accessdomain.RoleSource
	cfg   Config
	now   func() time.Time

	opening  singleflight.Group
	mu       sync.Mutex
	sessions map[string]*Session
	closed   bool
}

// NewManager creates a session manager
func NewManager(store domain.ItemStore, feed domain.Subscriber, roles accessdomain.RoleSource, cfg Config) *Manager {
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.ReapInterval <= 0 {
		cfg.ReapInterval = cfg.IdleTimeout / 4
	}
	return &Manager{
		store:    store,
		feed:     feed,
		roles:    roles,
		cfg:      cfg,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Open returns the actor's session, creating it if needed: the role is
// resolved, the feed subscribed and the initial inventory loaded. Concurrent
// opens for one actor share a single attempt; a caller whose ctx ends stops
// waiting without failing the others.
func (m *Manager) Open(ctx context.Context, actorID string) (*Session, error) {
	if actorID == "" {
		return nil, domain.ErrUnauthenticated
	}
	if s, ok := m.Get(actorID); ok {
		return s, nil
	}

	// The attempt is shared, so it must outlive any single caller. Each
	// remote call inside it is still bounded by the engine's RemoteTimeout.
	shared := context.WithoutCancel(ctx)
	ch := m.opening.DoChan(actorID, func() (interface{}, error) {
		if s, ok := m.Get(actorID); ok {
			return s, nil
		}
		return m.open(shared, actorID)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Session), nil
	}
}

func (m *Manager) open(ctx context.Context, actorID string) (*Session, error) {
	ctx = logger.ContextWithActor(ctx, actorID)

	g := gate.New(m.roles, m.cfg.Engine.RemoteTimeout)
	if _, err := g.ResolveRole(ctx, actorID); err != nil {
		return nil, err
	}

	e := engine.New(m.store, m.cfg.Engine)

	// Subscribe before loading so no write between the two goes unseen.
	sub, err := m.feed.Subscribe()
	if err != nil {
		return nil, domain.Remote("subscribe", err)
	}
	if _, err := e.LoadInitial(ctx); err != nil {
		sub.Close()
		e.Close()
		return nil, err
	}

	runCtx, cancel := context.WithCancel(logger.ContextWithActor(context.Background(), actorID))
	s := &Session{
		actorID: actorID,
		gate:    g,
		engine:  e,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	s.touch(m.now())

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		cancel()
		sub.Close()
		e.Close()
		return nil, fmt.Errorf("session manager closed: %w", domain.ErrRemoteUnavailable)
	}
	m.sessions[actorID] = s
	activeSessions.Set(float64(len(m.sessions)))
	m.mu.Unlock()

	go m.follow(runCtx, s, sub)

	logger.Info(ctx).Msg("Session opened")
	return s, nil
}

// follow keeps the engine applying feed events. A lagged subscription is
// replaced and the view resynchronised.
func (m *Manager) follow(ctx context.Context, s *Session, sub domain.Subscription) {
	defer close(s.done)

	for {
		err := s.engine.Run(ctx, sub)
		sub.Close()

		if ctx.Err() != nil {
			return
		}
		if err == nil {
			logger.Info(ctx).Msg("Change feed ended, session stops following")
			return
		}
		if !errors.Is(err, domain.ErrSubscriberLagged) {
			logger.Warn(ctx).Err(err).Msg("Change feed subscription failed")
		}

		sub = m.resubscribe(ctx, s)
		if sub == nil {
			return
		}
	}
}

func (m *Manager) resubscribe(ctx context.Context, s *Session) domain.Subscription {
	for {
		sub, err := m.feed.Subscribe()
		if err == nil {
			if _, err = s.engine.Resync(ctx); err == nil {
				logger.Info(ctx).Msg("Session resynchronised")
				return sub
			}
			sub.Close()
		}

		logger.Warn(ctx).Err(err).Msg("Failed to resubscribe, retrying")
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(resubscribeBackoff):
		}
	}
}

// Get returns a live session and marks it used
func (m *Manager) Get(actorID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[actorID]
	if ok {
		s.touch(m.now())
	}
	return s, ok
}

// Len returns the number of live sessions
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Close ends the actor's session, if any. It waits for the session's feed
// goroutine to stop.
func (m *Manager) Close(actorID string) {
	m.mu.Lock()
	s, ok := m.sessions[actorID]
	if ok {
		delete(m.sessions, actorID)
		activeSessions.Set(float64(len(m.sessions)))
	}
	m.mu.Unlock()

	if ok {
		m.stop(s)
		logger.Logger.Info().Str("actor_id", actorID).Msg("Session closed")
	}
}

// CloseAll ends every session and refuses new ones
func (m *Manager) CloseAll() {
	m.mu.Lock()
	m.closed = true
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	activeSessions.Set(0)
	m.mu.Unlock()

	for _, s := range sessions {
		m.stop(s)
	}
	logger.Logger.Info().Int("sessions", len(sessions)).Msg("All sessions closed")
}

func (m *Manager) stop(s *Session) {
	s.cancel()
	<-s.done
	s.engine.Close()
}

// Run reaps idle sessions until ctx is done, then closes every session
func (m *Manager) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.cfg.ReapInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.CloseAll()
			return nil
		case <-ticker.C:
			m.reapIdle()
		}
	}
}

func (m *Manager) reapIdle() {
	cutoff := m.now().Add(-m.cfg.IdleTimeout)

	m.mu.Lock()
	var idle []string
	for id, s := range m.sessions {
		if s.idleSince().Before(cutoff) {
			idle = append(idle, id)
		}
	}
	m.mu.Unlock()

	for _, id := range idle {
		logger.Logger.Info().Str("actor_id", id).Msg("Reaping idle session")
		m.Close(id)
	}
}
