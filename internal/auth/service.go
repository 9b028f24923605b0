// Package auth authenticates the single admin: credential checks with
// plaintext-to-bcrypt upgrade, login rate limiting and signed tokens.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/myquiz/backend/internal/quiz"
)

type Service struct {
	creds   quiz.CredentialStore
	tokens  *Tokens
	limiter Limiter
	logger  *slog.Logger
	cost    int
	now     func() time.Time

	fallback *quiz.AdminCredential
}

type Option func(*Service)

func WithBcryptCost(cost int) Option {
	return func(s *Service) { s.cost = cost }
}

// WithClock overrides the time source for credential timestamps and tokens.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
		s.tokens.now = now
	}
}

// WithDefaultCredential sets the credential used while the store holds none.
// A plaintext password is hashed and persisted on the first successful login.
func WithDefaultCredential(email, password string) Option {
	return func(s *Service) {
		s.fallback = &quiz.AdminCredential{
			Email:    strings.ToLower(strings.TrimSpace(email)),
			Password: quiz.DecodePassword(password),
		}
	}
}

func NewService(creds quiz.CredentialStore, tokens *Tokens, limiter Limiter, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		creds:   creds,
		tokens:  tokens,
		limiter: limiter,
		logger:  logger,
		cost:    DefaultCost,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Login authenticates the admin. caller keys the rate limiter; every
// attempt counts, successful or not.
func (s *Service) Login(ctx context.Context, caller, email, password string) (Token, error) {
	start := time.Now()
	defer func() { loginDuration.Observe(time.Since(start).Seconds()) }()

	dec, err := s.limiter.Allow(ctx, caller)
	if err != nil {
		loginAttempts.WithLabelValues(resultError).Inc()
		return Token{}, err
	}
	if !dec.Allowed {
		loginAttempts.WithLabelValues(resultRateLimited).Inc()
		s.logger.Warn("admin login rate limited", "caller", caller, "retry_after", dec.RetryAfter)
		return Token{}, &quiz.RateLimitError{RetryAfter: dec.RetryAfter}
	}

	cred, err := s.checkCredential(ctx, email, password)
	if err != nil {
		if errors.Is(err, quiz.ErrInvalidCredentials) {
			loginAttempts.WithLabelValues(resultInvalid).Inc()
			s.logger.Info("admin login rejected", "caller", caller, "remaining", dec.Remaining)
		} else {
			loginAttempts.WithLabelValues(resultError).Inc()
		}
		return Token{}, err
	}

	if !cred.Password.IsHashed() {
		if err := s.upgrade(ctx, cred, password); err != nil {
			loginAttempts.WithLabelValues(resultError).Inc()
			return Token{}, err
		}
	}

	tok, err := s.tokens.Issue(cred.Email)
	if err != nil {
		loginAttempts.WithLabelValues(resultError).Inc()
		return Token{}, err
	}
	loginAttempts.WithLabelValues(resultSuccess).Inc()
	s.logger.Info("admin logged in", "email", cred.Email)
	return tok, nil
}

func (s *Service) checkCredential(ctx context.Context, email, password string) (quiz.AdminCredential, error) {
	cred, err := s.credential(ctx)
	if err != nil {
		return quiz.AdminCredential{}, err
	}
	if !strings.EqualFold(strings.TrimSpace(email), cred.Email) || !verifyPassword(cred.Password, password) {
		return quiz.AdminCredential{}, quiz.ErrInvalidCredentials
	}
	return cred, nil
}

// credential loads the stored admin credential, or the default one when
// none was saved. With neither, every login is rejected.
func (s *Service) credential(ctx context.Context) (quiz.AdminCredential, error) {
	cred, err := s.creds.AdminCredential(ctx)
	switch {
	case errors.Is(err, quiz.ErrNotFound) && s.fallback != nil:
		return *s.fallback, nil
	case errors.Is(err, quiz.ErrNotFound):
		return quiz.AdminCredential{}, quiz.ErrInvalidCredentials
	case err != nil:
		return quiz.AdminCredential{}, fmt.Errorf("loading admin credential: %w", err)
	}
	return cred, nil
}

// upgrade replaces a legacy plaintext password with its bcrypt hash.
func (s *Service) upgrade(ctx context.Context, cred quiz.AdminCredential, password string) error {
	hash, err := HashPassword(password, s.cost)
	if err != nil {
		return err
	}
	cred.Password = quiz.HashedPassword(hash)
	cred.UpdatedAt = s.now().UTC()
	if err := s.creds.SaveAdminCredential(ctx, cred); err != nil {
		return fmt.Errorf("saving upgraded credential: %w", err)
	}
	passwordUpgrades.Inc()
	s.logger.Info("upgraded plaintext admin password to bcrypt", "email", cred.Email)
	return nil
}

// ChangeCredentials replaces the admin email and password after checking
// the current password. It returns the stored email.
func (s *Service) ChangeCredentials(ctx context.Context, currentPassword, newEmail, newPassword string) (string, error) {
	newEmail = strings.ToLower(strings.TrimSpace(newEmail))
	if newEmail == "" {
		return "", quiz.Invalid("newEmail", "is required")
	}
	if msg := PasswordStrength(newPassword); msg != "" {
		return "", quiz.Invalid("newPassword", msg)
	}

	cred, err := s.credential(ctx)
	if err != nil {
		return "", err
	}
	if !verifyPassword(cred.Password, currentPassword) {
		return "", quiz.ErrInvalidCredentials
	}

	hash, err := HashPassword(newPassword, s.cost)
	if err != nil {
		return "", err
	}
	err = s.creds.SaveAdminCredential(ctx, quiz.AdminCredential{
		Email:     newEmail,
		Password:  quiz.HashedPassword(hash),
		UpdatedAt: s.now().UTC(),
	})
	if err != nil {
		return "", fmt.Errorf("saving credential: %w", err)
	}
	s.logger.Info("admin credentials changed", "email", newEmail)
	return newEmail, nil
}

// Verify validates an admin token.
func (s *Service) Verify(raw string) (*Claims, error) {
	return s.tokens.Verify(raw)
}

// MinPasswordLength and MaxPasswordLength bound new admin passwords. bcrypt
// ignores input past 72 bytes.
const (
	MinPasswordLength = 8
	MaxPasswordLength = 72
)

// PasswordStrength returns a description of what pw lacks, or "".
func PasswordStrength(pw string) string {
	if len(pw) < MinPasswordLength {
		return fmt.Sprintf("must be at least %d characters", MinPasswordLength)
	}
	if len(pw) > MaxPasswordLength {
		return fmt.Sprintf("must be at most %d bytes", MaxPasswordLength)
	}
	var upper, lower, digit bool
	for _, r := range pw {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !upper || !lower || !digit {
		return "must contain an uppercase letter, a lowercase letter and a digit"
	}
	return ""
}
