package api

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/bgrules/pkg/engine"
)

// ErrTooManySessions is returned when the session limit is reached.
var ErrTooManySessions = errors.New("too many sessions")

// Session is one hot-seat game held by the server, plus the event feeds
// of the clients watching it.
type Session struct {
	ID      string
	Game    *engine.Game
	Created time.Time

	mu       sync.Mutex
	lastSeen time.Time
	feeds    map[chan engine.Event]struct{}
	closed   bool
	unsub    func()
}

func newSession(id string, g *engine.Game, now time.Time) *Session {
	s := &Session{
		ID:       id,
		Game:     g,
		Created:  now,
		lastSeen: now,
		feeds:    make(map[chan engine.Event]struct{}),
	}
	s.unsub = g.Subscribe(s.broadcast)
	return s
}

// broadcast fans an event out to every feed. A feed that is not keeping
// up loses the event rather than stalling the game.
func (s *Session) broadcast(ev engine.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.feeds {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Watch returns a feed of the game's events. The feed is closed when
// cancel is called or the session ends.
func (s *Session) Watch(buffer int) (<-chan engine.Event, func()) {
	ch := make(chan engine.Event, buffer)
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	s.feeds[ch] = struct{}{}
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if _, ok := s.feeds[ch]; ok {
				delete(s.feeds, ch)
				close(ch)
			}
		})
	}
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

// LastSeen returns when the session was last used.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Watchers returns the number of open feeds.
func (s *Session) Watchers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.feeds)
}

func (s *Session) close() {
	s.unsub()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for ch := range s.feeds {
		delete(s.feeds, ch)
		close(ch)
	}
}

// SessionManager owns the server's games, keyed by a random id.
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	max      int
	ttl      time.Duration
	now      func() time.Time
	logger   *slog.Logger
	metrics  *Metrics
}

// NewSessionManager creates a manager holding at most max games, each
// evicted after ttl without use.
func NewSessionManager(max int, ttl time.Duration, logger *slog.Logger, metrics *Metrics) *SessionManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionManager{
		sessions: make(map[string]*Session),
		max:      max,
		ttl:      ttl,
		now:      time.Now,
		logger:   logger,
		metrics:  metrics,
	}
}

// Create starts a new game with opts and registers it.
func (m *SessionManager) Create(opts ...engine.Option) (*Session, error) {
	id := uuid.NewString()
	opts = append(opts, engine.WithLogger(m.logger.With("game", id)))
	g, err := engine.NewGame(opts...)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	if m.max > 0 && len(m.sessions) >= m.max {
		m.mu.Unlock()
		return nil, ErrTooManySessions
	}
	s := newSession(id, g, m.now())
	m.sessions[id] = s
	n := len(m.sessions)
	m.mu.Unlock()

	m.metrics.setSessions(n)
	m.logger.Info("game created", "game", id, "sessions", n)
	return s, nil
}

// Get returns the session with id and marks it used.
func (m *SessionManager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if ok {
		s.touch(m.now())
	}
	return s, ok
}

// Delete ends the session with id.
func (m *SessionManager) Delete(id string) bool {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	n := len(m.sessions)
	m.mu.Unlock()
	if !ok {
		return false
	}
	s.close()
	m.metrics.setSessions(n)
	m.logger.Info("game deleted", "game", id, "sessions", n)
	return true
}

// Len returns the number of live sessions.
func (m *SessionManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep evicts sessions idle for longer than the ttl. Sessions with open
// feeds are kept. It returns the number evicted.
func (m *SessionManager) Sweep() int {
	cutoff := m.now().Add(-m.ttl)
	var stale []*Session
	m.mu.Lock()
	for id, s := range m.sessions {
		if s.Watchers() == 0 && s.LastSeen().Before(cutoff) {
			stale = append(stale, s)
			delete(m.sessions, id)
		}
	}
	n := len(m.sessions)
	m.mu.Unlock()

	for _, s := range stale {
		s.close()
		m.logger.Info("game evicted", "game", s.ID, "idle", m.now().Sub(s.LastSeen()).Round(time.Second))
	}
	if len(stale) > 0 {
		m.metrics.setSessions(n)
	}
	return len(stale)
}

// Run sweeps every interval until ctx is done.
func (m *SessionManager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}

// CloseAll ends every session.
func (m *SessionManager) CloseAll() {
	m.mu.Lock()
	all := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()
	for _, s := range all {
		s.close()
	}
	m.metrics.setSessions(0)
}
