package client

import (
	"sync"

	"github.com/utsav306/farmconnect-sub000/internal/models"
)

// Session holds the bearer token and the cached account of the signed-in
// user. The zero value is a signed-out session.
type Session struct {
	mu    sync.RWMutex
	token string
	user  *models.User
}

func (s *Session) Set(token string, user *models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.user = cloneUser(user)
}

// SetUser refreshes the cached account and keeps the token.
func (s *Session) SetUser(user *models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = cloneUser(user)
}

func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.user = nil
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User returns a copy of the cached account, or nil when signed out.
func (s *Session) User() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneUser(s.user)
}

func (s *Session) Authenticated() bool {
	return s.Token() != ""
}

func cloneUser(u *models.User) *models.User {
	if u == nil {
		return nil
	}
	c := *u
	c.Roles = append(models.Roles(nil), u.Roles...)
	return &c
}
