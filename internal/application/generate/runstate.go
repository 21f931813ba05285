package generate

import (
	"sync"
	"sync/atomic"

	"github.com/Bardin08/docify/internal/domain"
)

// runState is the shared mutable aggregation for one orchestrator run.
// Created per run, discarded after; never reused.
type runState struct {
	mu   sync.Mutex
	docs []domain.GeneratedDocumentation

	completed   atomic.Int64
	cacheHits   atomic.Int64
	cacheMisses atomic.Int64

	// One-shot authentication-failure flag. The first task to claim it
	// wins; its message is the one surfaced to the caller.
	authClaimed atomic.Bool
	authMu      sync.Mutex
	authMessage string
}

func newRunState() *runState {
	return &runState{}
}

func (s *runState) append(doc domain.GeneratedDocumentation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = append(s.docs, doc)
}

func (s *runState) results() []domain.GeneratedDocumentation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.GeneratedDocumentation(nil), s.docs...)
}

// claimAuthFailure atomically claims the one-shot flag. Only the winning
// caller's message is retained; it returns true for that caller alone.
func (s *runState) claimAuthFailure(msg string) bool {
	if !s.authClaimed.CompareAndSwap(false, true) {
		return false
	}
	s.authMu.Lock()
	s.authMessage = msg
	s.authMu.Unlock()
	return true
}

func (s *runState) authFailure() (string, bool) {
	if !s.authClaimed.Load() {
		return "", false
	}
	s.authMu.Lock()
	defer s.authMu.Unlock()
	return s.authMessage, true
}
