package store

import (
	"crypto/rand"
	"fmt"
	"sync"

	"lycan/internal/config"
	"lycan/internal/game"
)

// MemoryStore holds all matches in memory.
type MemoryStore struct {
	mu      sync.RWMutex
	matches map[string]*game.Match
	cfg     *config.ServerConfig
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore(cfg *config.ServerConfig) *MemoryStore {
	return &MemoryStore{
		matches: make(map[string]*game.Match),
		cfg:     cfg,
	}
}

// CreateMatch creates a new match under a fresh code.
func (s *MemoryStore) CreateMatch() (*game.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var code string
	for i := 0; i < 10; i++ {
		code = generateMatchCode(s.cfg.Server.MatchCodeLength)
		if _, exists := s.matches[code]; !exists {
			break
		}
	}
	if _, exists := s.matches[code]; exists {
		return nil, fmt.Errorf("could not generate a unique match code")
	}

	match := game.NewMatch(code, s.cfg.Server.MaxPlayersPerMatch)
	s.matches[code] = match
	return match, nil
}

// GetMatch retrieves a match by code.
func (s *MemoryStore) GetMatch(code string) (*game.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	match, exists := s.matches[code]
	if !exists {
		return nil, fmt.Errorf("match %s not found", code)
	}
	return match, nil
}

// RemoveMatch drops a match from the store.
func (s *MemoryStore) RemoveMatch(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.matches, code)
}

// Matches returns a snapshot of all stored matches.
func (s *MemoryStore) Matches() []*game.Match {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*game.Match, 0, len(s.matches))
	for _, m := range s.matches {
		out = append(out, m)
	}
	return out
}

// Count returns the number of stored matches.
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.matches)
}

// generateMatchCode generates an alphanumeric code of the given length.
func generateMatchCode(length int) string {
	const chars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, length)
	rand.Read(b)
	for i := range b {
		b[i] = chars[b[i]%byte(len(chars))]
	}
	return string(b)
}
