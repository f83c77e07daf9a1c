// Package auth holds the session record shared by the handlers, the auth
// middleware and the proxy.
package auth

import "time"

// Session is the per-user state kept in the session store, addressed by
// the signed cookie value. Identity produced by ticket validation lives in
// Values under the configured token/username/attributes key names; the
// CAS client itself never touches a Session.
type Session struct {
	ID        string         `json:"id"`
	Values    map[string]any `json:"values"`
	CreatedAt time.Time      `json:"created_at"`
	ExpiresAt time.Time      `json:"expires_at"`
}

// New returns an empty session with the given ID and lifetime.
func New(id string, ttl time.Duration) *Session {
	now := time.Now()
	return &Session{
		ID:        id,
		Values:    make(map[string]any),
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

func (s *Session) Set(key string, value any) {
	if s.Values == nil {
		s.Values = make(map[string]any)
	}
	s.Values[key] = value
}

func (s *Session) Get(key string) (any, bool) {
	value, ok := s.Values[key]
	return value, ok
}

// GetString returns the value under key if it is a non-empty string.
func (s *Session) GetString(key string) (string, bool) {
	value, ok := s.Values[key].(string)
	return value, ok && value != ""
}

func (s *Session) Delete(key string) {
	delete(s.Values, key)
}
