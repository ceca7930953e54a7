// Package auth tracks who is signed in.
package auth

import (
	"errors"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"moodjournal/internal/domain"
)

var ErrMissingUserID = errors.New("user id is required")

// Session implements ports.IdentityProvider.
type Session struct {
	mu   sync.RWMutex
	user *domain.User
}

func NewSession() *Session {
	return &Session{}
}

// SignIn replaces the current user.
func (s *Session) SignIn(user domain.User) error {
	user.ID = strings.TrimSpace(user.ID)
	if user.ID == "" {
		return ErrMissingUserID
	}
	if user.Name == "" {
		user.Name = user.ID
	}

	s.mu.Lock()
	s.user = &user
	s.mu.Unlock()

	log.Debug().Str("user", user.ID).Msg("Signed in")
	return nil
}

func (s *Session) SignOut() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
}

func (s *Session) CurrentUser() (domain.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return domain.User{}, false
	}
	return *s.user, true
}
