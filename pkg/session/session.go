package session

import (
	"time"

	"github.com/google/uuid"
)

// Session represents a browser session with associated data.
type Session struct {
	ID        uuid.UUID      `json:"id"`
	Token     string         `json:"token"`
	UserID    *uuid.UUID     `json:"user_id,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
	ExpiresAt time.Time      `json:"expires_at"`
	CreatedAt time.Time      `json:"created_at"`
}

// NewSession creates a session with the given token, optional user, and TTL.
func NewSession(token string, userID *uuid.UUID, ttl time.Duration) *Session {
	now := time.Now()
	return &Session{
		ID:        uuid.New(),
		Token:     token,
		UserID:    userID,
		Data:      make(map[string]any),
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
}

// IsAuthenticated reports whether the session belongs to a signed-in user.
func (s *Session) IsAuthenticated() bool {
	return s != nil && s.UserID != nil
}

// IsExpired reports whether the session has expired.
func (s *Session) IsExpired() bool {
	return s != nil && time.Now().After(s.ExpiresAt)
}

// Get retrieves a value from session data.
func (s *Session) Get(key string) (any, bool) {
	if s == nil || s.Data == nil {
		return nil, false
	}
	val, ok := s.Data[key]
	return val, ok
}

// GetString retrieves a string value from session data.
func (s *Session) GetString(key string) (string, bool) {
	val, ok := s.Get(key)
	if !ok {
		return "", false
	}
	str, ok := val.(string)
	return str, ok
}

// Set stores a value in session data.
func (s *Session) Set(key string, value any) {
	if s == nil {
		return
	}
	if s.Data == nil {
		s.Data = make(map[string]any)
	}
	s.Data[key] = value
}

// Delete removes a value from session data.
func (s *Session) Delete(key string) {
	if s == nil || s.Data == nil {
		return
	}
	delete(s.Data, key)
}

// Pop retrieves and removes a string value in one step. Flow state like the
// pending destination and OIDC context is single-use, so reads consume it.
func (s *Session) Pop(key string) (string, bool) {
	val, ok := s.GetString(key)
	if ok {
		s.Delete(key)
	}
	return val, ok
}
