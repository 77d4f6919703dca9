package web

import (
	"net/http"
	"sync"
	"time"
)

const flashTTL = 30 * time.Second

type Flash struct {
	Kind      string
	Message   string
	CreatedAt time.Time
}

// flashStore keeps one-shot notices per user until the next page render.
type flashStore struct {
	mu     sync.Mutex
	ttl    time.Duration
	now    func() time.Time
	byUser map[string][]Flash
}

func newFlashStore(ttl time.Duration) *flashStore {
	return &flashStore{ttl: ttl, now: time.Now, byUser: make(map[string][]Flash)}
}

func (s *flashStore) Add(key, kind, message string) {
	if key == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byUser[key] = append(s.byUser[key], Flash{Kind: kind, Message: message, CreatedAt: s.now()})
}

// Take returns the unexpired notices for key and forgets all of them.
func (s *flashStore) Take(key string) []Flash {
	if key == "" {
		return nil
	}
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	flashes := s.byUser[key]
	delete(s.byUser, key)
	var out []Flash
	for _, f := range flashes {
		if s.ttl > 0 && now.After(f.CreatedAt.Add(s.ttl)) {
			continue
		}
		out = append(out, f)
	}
	return out
}

func (s *Server) flash(r *http.Request, kind, message string) {
	s.flashes.Add(currentUserID(r.Context()), kind, message)
}
