package service

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-assignments-api/internal/observability"
	"github.com/noah-isme/gema-assignments-api/internal/repository"
)

// Principal identifies the authenticated caller of a request.
type Principal struct {
	UserID uint
	Email  string
}

// Authenticator resolves an Authorization header into a Principal.
type Authenticator interface {
	Authenticate(ctx context.Context, header string) (Principal, error)
}

type authenticator struct {
	users  repository.UserRepository
	logger zerolog.Logger

	dummyOnce sync.Once
	dummyHash []byte
}

// NewAuthenticator builds a Basic authenticator backed by the user store.
func NewAuthenticator(users repository.UserRepository, logger zerolog.Logger) Authenticator {
	return &authenticator{
		users:  users,
		logger: logger.With().Str("component", "authenticator").Logger(),
	}
}

func (a *authenticator) Authenticate(ctx context.Context, header string) (Principal, error) {
	email, password, ok := parseBasicCredentials(header)
	if !ok {
		observability.AuthFailures().WithLabelValues("malformed").Inc()
		return Principal{}, ErrUnauthorized
	}

	user, err := a.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Burn a comparable amount of time so unknown emails are not distinguishable.
			_ = bcrypt.CompareHashAndPassword(a.placeholderHash(), []byte(password))
			observability.AuthFailures().WithLabelValues("unknown_user").Inc()
			return Principal{}, ErrUnauthorized
		}
		a.logger.Error().Err(err).Msg("failed to load user for authentication")
		return Principal{}, unavailable("load user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		observability.AuthFailures().WithLabelValues("bad_password").Inc()
		return Principal{}, ErrUnauthorized
	}

	return Principal{UserID: user.ID, Email: user.Email}, nil
}

func (a *authenticator) placeholderHash() []byte {
	a.dummyOnce.Do(func() {
		hash, err := bcrypt.GenerateFromPassword([]byte("placeholder-password"), bcrypt.DefaultCost)
		if err != nil {
			a.logger.Warn().Err(err).Msg("failed to build placeholder hash")
			return
		}
		a.dummyHash = hash
	})
	return a.dummyHash
}

// parseBasicCredentials decodes "Basic base64(email:password)". The password may contain colons.
func parseBasicCredentials(header string) (string, string, bool) {
	scheme, encoded, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Basic") {
		return "", "", false
	}

	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return "", "", false
	}

	email, password, found := strings.Cut(string(decoded), ":")
	if !found {
		return "", "", false
	}
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return "", "", false
	}

	return email, password, true
}

// HashPassword returns the bcrypt hash stored for a user password.
func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
