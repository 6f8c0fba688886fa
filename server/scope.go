package server

import (
	"sync"

	"github.com/google/uuid"
)

// embedScope is the state shared by the embeds of a single page render.
// It only grows, and it dies with the render.
type embedScope struct {
	id string

	mu     sync.Mutex
	tweets map[string]map[string]struct{}
}

func newEmbedScope() *embedScope {
	return &embedScope{
		id:     uuid.NewString(),
		tweets: make(map[string]map[string]struct{}),
	}
}

// claimTweet records that url gets a tweet widget inside the cast identified
// by castHash. It returns false if the widget was already claimed.
func (s *embedScope) claimTweet(castHash, url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	claimed, ok := s.tweets[castHash]
	if !ok {
		claimed = make(map[string]struct{})
		s.tweets[castHash] = claimed
	}
	if _, seen := claimed[url]; seen {
		return false
	}
	claimed[url] = struct{}{}
	return true
}
