// Package auth — вход, сессии и подтверждение email.
package auth

import (
	"context"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"

	"quarters/internal/audit"
	"quarters/internal/models"
	"quarters/internal/repo"
	"quarters/internal/throttle"
	"quarters/internal/token"
)

var (
	ErrBadCredentials = errors.New("invalid email or password")
	ErrUnverified     = errors.New("email not verified")
)

type Service struct {
	users      *repo.UserStore
	tokens     *token.Service
	limiter    *throttle.Limiter
	audit      *audit.Recorder
	sessionTTL time.Duration
}

func New(users *repo.UserStore, tokens *token.Service, limiter *throttle.Limiter, rec *audit.Recorder, sessionTTL time.Duration) *Service {
	if sessionTTL <= 0 {
		sessionTTL = 7 * 24 * time.Hour
	}
	return &Service{users: users, tokens: tokens, limiter: limiter, audit: rec, sessionTTL: sessionTTL}
}

// Login — bcrypt-проверка пароля под rate-limit по IP источника.
// Неудачные попытки считаются в разделяемом счётчике; успех его сбрасывает.
func (s *Service) Login(ctx context.Context, email, password string, origin models.Origin) (string, error) {
	if err := s.limiter.Allow(ctx, origin.IP); err != nil {
		return "", err
	}

	fail := func() (string, error) {
		_ = s.limiter.Hit(ctx, origin.IP)
		return "", ErrBadCredentials
	}

	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, repo.ErrNotFound) {
		return fail()
	}
	if err != nil {
		return "", err
	}
	if bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)) != nil {
		return fail()
	}
	if !u.Verified {
		return "", ErrUnverified
	}

	_ = s.limiter.Reset(ctx, origin.IP)

	sess, err := s.tokens.Issue(token.KindSession, token.Claims{
		UserID: u.ID,
		Email:  u.Email,
		Name:   u.Name,
		Role:   u.Role,
	}, s.sessionTTL)
	if err != nil {
		return "", err
	}
	s.audit.Record(ctx, models.Actor{UserID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role},
		"logged in", "user", u.ID, origin)
	return sess, nil
}

// VerifyEmail подтверждает адрес по email-verify токену.
func (s *Service) VerifyEmail(ctx context.Context, rawToken string) error {
	claims, err := s.tokens.Verify(token.KindEmailVerify, rawToken)
	if err != nil {
		return err
	}
	return s.users.MarkVerified(ctx, claims.Email)
}
