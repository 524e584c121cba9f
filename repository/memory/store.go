// Package memory provides an in-process implementation of every repository
// port. It backs the use case and handler tests and local runs without a database.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fastygo/gateway/domain"
	"github.com/fastygo/gateway/repository"
)

// Store keeps users, sessions, services and versions behind one mutex.
type Store struct {
	mu       sync.RWMutex
	users    map[string]domain.User
	sessions map[string]domain.Session // keyed by token
	services []domain.Service
	versions []domain.Version
}

func NewStore() *Store {
	return &Store{
		users:    make(map[string]domain.User),
		sessions: make(map[string]domain.Session),
	}
}

// AddUser seeds a user. Missing ids are generated and emails are trimmed.
func (s *Store) AddUser(user domain.User) domain.User {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.Email = strings.TrimSpace(user.Email)
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	user.UpdatedAt = user.CreatedAt

	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID] = user
	return user
}

func (s *Store) AddService(service domain.Service) domain.Service {
	if service.ID == "" {
		service.ID = uuid.NewString()
	}
	if service.CreatedAt.IsZero() {
		service.CreatedAt = time.Now()
	}
	if service.UpdatedAt.IsZero() {
		service.UpdatedAt = service.CreatedAt
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.services = append(s.services, service)
	return service
}

func (s *Store) AddVersion(version domain.Version) domain.Version {
	if version.ID == "" {
		version.ID = uuid.NewString()
	}
	if version.CreatedAt.IsZero() {
		version.CreatedAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.versions = append(s.versions, version)
	return version
}

// Session returns a copy of the stored session for token.
func (s *Store) Session(token string) (domain.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[token]
	return session, ok
}

func (s *Store) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, user := range s.users {
		if strings.EqualFold(user.Email, email) {
			found := user
			return &found, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (s *Store) Create(ctx context.Context, session *domain.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if session == nil || session.Token == "" || session.UserID == "" {
		return domain.ErrInvalidPayload
	}
	if session.ID == "" {
		session.ID = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[session.UserID]; !ok {
		return domain.ErrUserNotFound
	}
	if _, exists := s.sessions[session.Token]; exists {
		return domain.NewError(domain.ErrCodeInvalid, "duplicate session token")
	}
	s.sessions[session.Token] = *session
	return nil
}

func (s *Store) FindActiveByToken(ctx context.Context, token string) (*domain.Session, *domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[token]
	if !ok || !session.Active {
		return nil, nil, domain.ErrSessionNotFound
	}
	user, ok := s.users[session.UserID]
	if !ok {
		return nil, nil, domain.ErrSessionNotFound
	}
	return &session, &user, nil
}

func (s *Store) DeactivateByToken(ctx context.Context, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[token]
	if !ok {
		return domain.ErrSessionNotFound
	}
	session.Active = false
	s.sessions[token] = session
	return nil
}

func (s *Store) DeactivateAllForUser(ctx context.Context, userID string) (int64, error) {
	return s.deactivateWhere(ctx, func(session domain.Session) bool {
		return session.UserID == userID
	})
}

func (s *Store) DeactivateExpired(ctx context.Context, before time.Time) (int64, error) {
	return s.deactivateWhere(ctx, func(session domain.Session) bool {
		return session.IsExpired(before)
	})
}

func (s *Store) deactivateWhere(ctx context.Context, match func(domain.Session) bool) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for token, session := range s.sessions {
		if session.Active && match(session) {
			session.Active = false
			s.sessions[token] = session
			n++
		}
	}
	return n, nil
}

func (s *Store) ListByUser(ctx context.Context, userID string) ([]domain.Service, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Service, 0)
	for _, service := range s.services {
		if service.UserID == userID {
			out = append(out, service)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) Latest(ctx context.Context) (*domain.Version, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest *domain.Version
	for i := range s.versions {
		v := s.versions[i]
		if !v.Published {
			continue
		}
		if latest == nil || publishedAt(v).After(publishedAt(*latest)) {
			found := v
			latest = &found
		}
	}
	return latest, nil
}

func publishedAt(v domain.Version) time.Time {
	if v.PublishedAt != nil {
		return *v.PublishedAt
	}
	return v.CreatedAt
}

var (
	_ repository.UserRepository    = (*Store)(nil)
	_ repository.SessionRepository = (*Store)(nil)
	_ repository.ServiceRepository = (*Store)(nil)
	_ repository.VersionRepository = (*Store)(nil)
)
