package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSessionIsExpired(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		session   *Session
		wantValid bool
		wantExp   bool
	}{
		{"NilSession", nil, false, true},
		{"ActiveFuture", &Session{Active: true, ExpiresAt: now.Add(time.Minute)}, true, false},
		{"ActiveAtExpiry", &Session{Active: true, ExpiresAt: now}, false, true},
		{"ActivePast", &Session{Active: true, ExpiresAt: now.Add(-time.Second)}, false, true},
		{"InactiveFuture", &Session{Active: false, ExpiresAt: now.Add(time.Hour)}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantExp, tt.session.IsExpired(now))
			assert.Equal(t, tt.wantValid, tt.session.IsValid(now))
		})
	}
}

func TestUserPublicOmitsHash(t *testing.T) {
	u := &User{ID: "u1", Email: "a@x.com", PasswordHash: "secret", Name: "A", SubscriptionTier: "pro"}
	assert.Equal(t, PublicUser{ID: "u1", Email: "a@x.com", Name: "A", SubscriptionTier: "pro"}, u.Public())

	var nilUser *User
	assert.Equal(t, PublicUser{}, nilUser.Public())
}
