package bot

import (
	"sync"

	"github.com/mvcampos/vendabot/internal/catalog"
	"github.com/mvcampos/vendabot/internal/chat"
)

// Kind tags the wizard a session belongs to.
type Kind int

const (
	KindAddItem Kind = iota + 1
	KindAddImage
	KindBroadcast
)

// Session is the in-flight state of one wizard, keyed by sender address.
// Sessions live in memory only and have no expiry; they end on completion,
// cancellation, or process restart.
type Session struct {
	Kind Kind
	Step int

	// Draft accumulates add-item wizard fields until the final save.
	Draft catalog.Item

	// TargetID is the item receiving an image in the add-image wizard.
	TargetID int

	// Broadcast payload collected across steps.
	Media   *chat.Media
	Caption string
}

// Sessions tracks at most one wizard per sender.
type Sessions struct {
	mu sync.Mutex
	m  map[string]*Session
}

func NewSessions() *Sessions {
	return &Sessions{m: make(map[string]*Session)}
}

// Get returns the sender's session or nil.
func (s *Sessions) Get(sender string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m[sender]
}

// Put installs the session, replacing any previous one.
func (s *Sessions) Put(sender string, sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[sender] = sess
}

// Clear removes the sender's session if any.
func (s *Sessions) Clear(sender string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, sender)
}
