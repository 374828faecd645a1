package httpapi

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vovakirdan/stage2048/internal/session"
)

// game is a session guarded by its own lock.
type game struct {
	id string

	mu      sync.Mutex
	sess    *session.Session
	touched time.Time
}

type sessions struct {
	mu    sync.RWMutex
	games map[string]*game
}

func newSessions() *sessions {
	return &sessions{games: make(map[string]*game)}
}

func (s *sessions) add(sess *session.Session) *game {
	g := &game{id: uuid.NewString(), sess: sess, touched: time.Now()}
	s.mu.Lock()
	s.games[g.id] = g
	s.mu.Unlock()
	return g
}

func (s *sessions) get(id string) (*game, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.games[id]
	return g, ok
}

func (s *sessions) remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.games[id]; !ok {
		return false
	}
	delete(s.games, id)
	return true
}

func (s *sessions) len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.games)
}

// evict drops games not touched since cutoff and returns how many.
func (s *sessions) evict(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, g := range s.games {
		g.mu.Lock()
		stale := g.touched.Before(cutoff)
		g.mu.Unlock()
		if stale {
			delete(s.games, id)
			n++
		}
	}
	return n
}

// with runs fn holding g's lock and marks g as used.
func (g *game) with(fn func(*session.Session)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.touched = time.Now()
	fn(g.sess)
}
