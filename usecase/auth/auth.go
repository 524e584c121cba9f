package auth

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fastygo/gateway/domain"
	"github.com/fastygo/gateway/pkg/logger"
	"github.com/fastygo/gateway/repository"
	"github.com/fastygo/gateway/usecase"
)

// LoginInput carries the credentials and the caller metadata recorded on the session.
type LoginInput struct {
	Email     string
	Password  string
	DeviceID  string
	IPAddress string
	UserAgent string
}

// LoginResult is what a successful login hands back to the transport layer.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      domain.PublicUser
	Session   *domain.Session
}

type Option func(*UseCase)

// WithClock overrides the time source used for issuance and expiry checks.
func WithClock(now func() time.Time) Option {
	return func(uc *UseCase) {
		if now != nil {
			uc.now = now
		}
	}
}

// WithTokenGenerator overrides how session tokens are minted.
func WithTokenGenerator(gen usecase.TokenGenerator) Option {
	return func(uc *UseCase) {
		if gen != nil {
			uc.newToken = gen
		}
	}
}

type UseCase struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
	verifier usecase.PasswordVerifier
	newToken usecase.TokenGenerator
	now      func() time.Time
	logger   *zap.Logger

	dummyOnce sync.Once
	dummyHash string
}

func New(
	users repository.UserRepository,
	sessions repository.SessionRepository,
	verifier usecase.PasswordVerifier,
	logger *zap.Logger,
	opts ...Option,
) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	uc := &UseCase{
		users:    users,
		sessions: sessions,
		verifier: verifier,
		newToken: NewToken,
		now:      time.Now,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// NewToken returns a random UUIDv4. It carries no structure and is resolved by lookup only.
func NewToken() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// Login verifies credentials and issues a new session valid for domain.SessionTTL.
// Unknown emails and wrong passwords yield the same domain.ErrInvalidCredentials.
func (uc *UseCase) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	log := logger.WithRequestID(ctx, uc.logger)

	email := normalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return nil, domain.ErrMissingFields
	}

	user, err := uc.users.GetByEmail(ctx, email)
	if err != nil {
		if domain.IsDomainError(err, domain.ErrCodeNotFound) {
			uc.burnComparison(in.Password)
			log.Debug("login rejected", zap.String("reason", "unknown_email"))
			return nil, domain.ErrInvalidCredentials
		}
		return nil, domain.StorageError("find user", err)
	}

	if err := uc.verifier.Compare(user.PasswordHash, in.Password); err != nil {
		log.Debug("login rejected", zap.String("reason", "password_mismatch"), zap.String("user_id", user.ID))
		return nil, domain.ErrInvalidCredentials
	}

	token, err := uc.newToken()
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeInternal, "generate token", err)
	}

	now := uc.now()
	session := &domain.Session{
		UserID:    user.ID,
		Token:     token,
		CreatedAt: now,
		ExpiresAt: now.Add(domain.SessionTTL),
		Active:    true,
		DeviceID:  strings.TrimSpace(in.DeviceID),
		IPAddress: in.IPAddress,
		UserAgent: in.UserAgent,
	}
	if err := uc.sessions.Create(ctx, session); err != nil {
		log.Error("failed to persist session", zap.String("user_id", user.ID), zap.Error(err))
		return nil, domain.StorageError("insert session", err)
	}

	log.Info("session issued", zap.String("user_id", user.ID), zap.String("session_id", session.ID))
	return &LoginResult{
		Token:     token,
		ExpiresAt: session.ExpiresAt,
		User:      user.Public(),
		Session:   session,
	}, nil
}

// Authenticate resolves a bearer token to its owner. It never mutates the session.
func (uc *UseCase) Authenticate(ctx context.Context, token string) (*domain.User, *domain.Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, nil, domain.ErrMissingToken
	}

	session, user, err := uc.sessions.FindActiveByToken(ctx, token)
	if err != nil {
		if domain.IsDomainError(err, domain.ErrCodeNotFound) {
			return nil, nil, domain.ErrInvalidToken
		}
		return nil, nil, domain.StorageError("find session", err)
	}
	if !session.IsValid(uc.now()) {
		return nil, nil, domain.ErrInvalidToken
	}
	return user, session, nil
}

// Logout deactivates the session identified by token. A session that is
// already gone counts as logged out.
func (uc *UseCase) Logout(ctx context.Context, token string) error {
	if err := uc.sessions.DeactivateByToken(ctx, token); err != nil {
		if domain.IsDomainError(err, domain.ErrCodeNotFound) {
			logger.WithRequestID(ctx, uc.logger).Debug("logout of unknown session")
			return nil
		}
		return domain.StorageError("deactivate session", err)
	}
	return nil
}

// RevokeAll deactivates every session belonging to userID and reports how many were active.
func (uc *UseCase) RevokeAll(ctx context.Context, userID string) (int64, error) {
	if userID == "" {
		return 0, domain.ErrInvalidPayload
	}
	n, err := uc.sessions.DeactivateAllForUser(ctx, userID)
	if err != nil {
		return 0, domain.StorageError("deactivate user sessions", err)
	}
	logger.WithRequestID(ctx, uc.logger).Info("sessions revoked", zap.String("user_id", userID), zap.Int64("count", n))
	return n, nil
}

// burnComparison spends one hash comparison so unknown emails cost as much as wrong passwords.
func (uc *UseCase) burnComparison(password string) {
	uc.dummyOnce.Do(func() {
		hash, err := uc.verifier.Hash("unused-placeholder-password")
		if err != nil {
			uc.logger.Warn("dummy hash unavailable", zap.Error(err))
			return
		}
		uc.dummyHash = hash
	})
	if uc.dummyHash != "" {
		_ = uc.verifier.Compare(uc.dummyHash, password)
	}
}

// normalizeEmail only trims; case folding belongs to the user repository.
func normalizeEmail(email string) string {
	return strings.TrimSpace(email)
}
