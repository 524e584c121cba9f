package domain

import "time"

// SessionTTL is the fixed validity window of a freshly issued session.
const SessionTTL = 7 * 24 * time.Hour

// Session binds an opaque bearer token to a user for a bounded window.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Token     string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Active    bool      `json:"active"`
	DeviceID  string    `json:"device_id,omitempty"`
	IPAddress string    `json:"ip_address,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
}

func (s *Session) IsExpired(reference time.Time) bool {
	if s == nil {
		return true
	}
	if reference.IsZero() {
		reference = time.Now()
	}
	return !s.ExpiresAt.After(reference)
}

// IsValid reports whether the session may authenticate a request at reference.
// The active flag alone is not enough: an active session past its expiry is invalid.
func (s *Session) IsValid(reference time.Time) bool {
	return s != nil && s.Active && !s.IsExpired(reference)
}
