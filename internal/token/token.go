// Package token — выпуск и проверка самодостаточных подписанных токенов
// (email-подтверждение, одобрение договора, приглашение арендатора, сессия).
//
// Токены stateless: отзыв делает держатель (Lease затирает сохранённую
// ссылку), сам сервис ничего не хранит.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type Kind string

const (
	KindEmailVerify   Kind = "email-verify"
	KindLeaseApproval Kind = "lease-approval"
	KindTenantInvite  Kind = "tenant-invite"
	KindSession       Kind = "session"
)

var (
	ErrExpired = errors.New("token expired")
	ErrInvalid = errors.New("token invalid")
)

// Claims — полезная нагрузка; набор полей зависит от Kind.
type Claims struct {
	LeaseID     uint   `json:"leaseId,omitempty"`
	TenantID    uint   `json:"tenantId,omitempty"`
	TenantEmail string `json:"tenantEmail,omitempty"`
	Email       string `json:"email,omitempty"`
	UserID      uint   `json:"userId,omitempty"`
	Name        string `json:"name,omitempty"`
	Role        string `json:"role,omitempty"`
}

type tokenClaims struct {
	Kind string `json:"kind"`
	Claims
	jwt.RegisteredClaims
}

type Service struct {
	secret []byte
	now    func() time.Time
}

func New(secret string) *Service {
	return &Service{secret: []byte(secret), now: func() time.Time { return time.Now().UTC() }}
}

// Issue подписывает claims с kind и сроком годности ttl (HS256).
func (s *Service) Issue(kind Kind, c Claims, ttl time.Duration) (string, error) {
	if len(s.secret) == 0 {
		return "", errors.New("token: empty signing secret")
	}
	now := s.now()
	tc := tokenClaims{
		Kind:   string(kind),
		Claims: c,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, tc).SignedString(s.secret)
}

// Verify проверяет подпись, срок и kind. Причины отказа схлопываются
// в ErrInvalid, отдельно различается только ErrExpired.
func (s *Service) Verify(kind Kind, raw string) (*Claims, error) {
	tc := &tokenClaims{}
	tok, err := jwt.ParseWithClaims(raw, tc,
		func(t *jwt.Token) (interface{}, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, ErrInvalid
	}
	if !tok.Valid || tc.Kind != string(kind) {
		return nil, ErrInvalid
	}
	return &tc.Claims, nil
}
