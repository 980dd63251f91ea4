package application

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/dresscode/pkg/helpers"
)

type sessionEntry struct {
	wizard   *Wizard
	lastSeen time.Time
}

// WizardSessions keeps one Wizard per registration session and forgets
// sessions idle for longer than TTL. With a positive max, Create refuses new
// sessions while that many are live.
type WizardSessions struct {
	deps   WizardDeps
	ttl    time.Duration
	max    int
	now    func() time.Time
	logger *logrus.Logger

	mu       sync.Mutex
	sessions map[string]*sessionEntry
}

type SessionOption func(*WizardSessions)

// WithMaxSessions caps live sessions; zero or less means no cap.
func WithMaxSessions(n int) SessionOption { return func(s *WizardSessions) { s.max = n } }

func NewWizardSessions(deps WizardDeps, ttl time.Duration, opts ...SessionOption) *WizardSessions {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = helpers.NopLogger()
	}
	s := &WizardSessions{
		deps:     deps,
		ttl:      ttl,
		now:      now,
		logger:   logger,
		sessions: make(map[string]*sessionEntry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create opens a session on the welcome screen. At the cap, idle sessions are
// swept first; ErrTooManySessions is returned if none could be freed.
func (s *WizardSessions) Create() (string, *Wizard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if s.max > 0 && len(s.sessions) >= s.max {
		s.sweepLocked(now)
		if len(s.sessions) >= s.max {
			s.logger.WithField("max", s.max).Warn("wizard session limit reached")
			return "", nil, ErrTooManySessions
		}
	}
	id := uuid.NewString()
	w := NewWizard(s.deps)
	s.sessions[id] = &sessionEntry{wizard: w, lastSeen: now}
	return id, w, nil
}

// Get returns the session and marks it as seen.
func (s *WizardSessions) Get(id string) (*Wizard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	now := s.now()
	if s.expired(e, now) {
		delete(s.sessions, id)
		return nil, ErrSessionNotFound
	}
	e.lastSeen = now
	return e.wizard, nil
}

func (s *WizardSessions) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.sessions[id]; ok {
		e.wizard.Reset()
		delete(s.sessions, id)
	}
}

func (s *WizardSessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *WizardSessions) expired(e *sessionEntry, now time.Time) bool {
	return s.ttl > 0 && now.Sub(e.lastSeen) > s.ttl
}

// Sweep drops idle sessions and returns how many were removed.
func (s *WizardSessions) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweepLocked(s.now())
}

func (s *WizardSessions) sweepLocked(now time.Time) int {
	n := 0
	for id, e := range s.sessions {
		if s.expired(e, now) {
			delete(s.sessions, id)
			n++
		}
	}
	return n
}

// Run sweeps every interval until ctx is done.
func (s *WizardSessions) Run(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := s.Sweep(); n > 0 {
				s.logger.WithField("expired", n).Debug("wizard sessions swept")
			}
		}
	}
}
