// Package mode holds the process-wide operation mode.
package mode

import (
	"errors"
	"strings"
	"sync"
)

// Mode selects how input actions are synthesized.
type Mode int

const (
	// Assistant animates cursor moves and types one character at a time.
	Assistant Mode = iota
	// Production issues every action as a single direct call.
	Production
)

// ErrInvalidMode is returned by Parse for tokens other than assistant or production.
var ErrInvalidMode = errors.New("invalid mode, use 'assistant' or 'production'")

func (m Mode) String() string {
	if m == Production {
		return "production"
	}
	return "assistant"
}

// Parse maps a case-insensitive token to a Mode.
func Parse(token string) (Mode, error) {
	switch strings.ToLower(token) {
	case "assistant":
		return Assistant, nil
	case "production":
		return Production, nil
	}
	return Assistant, ErrInvalidMode
}

// State is a lock-guarded Mode cell shared by all request handlers.
type State struct {
	mu        sync.Mutex
	mode      Mode
	listeners []func(Mode)
}

// NewState creates a State holding initial.
func NewState(initial Mode) *State {
	return &State{mode: initial}
}

// Get returns the active mode.
func (s *State) Get() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// Set replaces the active mode and notifies listeners after the lock is released.
func (s *State) Set(m Mode) {
	s.mu.Lock()
	s.mode = m
	listeners := append([]func(Mode){}, s.listeners...)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(m)
	}
}

// OnChange registers fn to be called after every Set.
func (s *State) OnChange(fn func(Mode)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}
