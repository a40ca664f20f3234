// Package token issues and verifies the service's signed tokens.
//
// Two kinds exist: proof tokens attest a completed OAuth exchange for one
// platform account, user tokens are the session credential. Both are HS512
// JWTs with a shared secret and a fixed lifetime.
package token

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"pronounapi/internal/identity"
	domainerrors "pronounapi/pkg/domain-errors"
	"pronounapi/pkg/platform/sentinel"
)

// TTL is the lifetime of every issued token.
const TTL = 2 * time.Hour

// Kind discriminates proof tokens from session tokens.
type Kind string

const (
	KindProof Kind = "proof"
	KindUser  Kind = "user"
)

// Claims is the token payload. Platform and Username are set on proof tokens
// only.
type Claims struct {
	Type     Kind   `json:"type"`
	Platform string `json:"platform,omitempty"`
	Username string `json:"username,omitempty"`
	jwt.RegisteredClaims
}

type Service struct {
	secret []byte
	issuer string
	now    func() time.Time
}

type Option func(*Service)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(secret []byte, issuer string, opts ...Option) *Service {
	s := &Service{secret: secret, issuer: issuer, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IssueProof mints a proof token binding a platform account after a
// successful OAuth exchange.
func (s *Service) IssueProof(platform identity.Platform, externalID, username string) (string, error) {
	return s.sign(Claims{
		Type:             KindProof,
		Platform:         string(platform),
		Username:         username,
		RegisteredClaims: s.registered(externalID),
	})
}

// IssueUser mints a session token for an identity.
func (s *Service) IssueUser(identityID int64) (string, error) {
	return s.sign(Claims{
		Type:             KindUser,
		RegisteredClaims: s.registered(strconv.FormatInt(identityID, 10)),
	})
}

func (s *Service) registered(subject string) jwt.RegisteredClaims {
	now := s.now()
	return jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    s.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(TTL)),
		ID:        uuid.NewString(),
	}
}

func (s *Service) sign(claims Claims) (string, error) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(s.secret)
	if err != nil {
		return "", domainerrors.Wrap(err, domainerrors.CodeInternal, "sign token")
	}
	return signed, nil
}

// VerifyProof validates a proof token and returns its claims.
func (s *Service) VerifyProof(tokenString string) (*Claims, error) {
	claims, err := s.parse(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Type != KindProof {
		return nil, domainerrors.New(domainerrors.CodeUnauthorized, "Invalid token")
	}
	if _, err := identity.ParsePlatform(claims.Platform); err != nil {
		return nil, domainerrors.New(domainerrors.CodeUnauthorized, "Invalid token")
	}
	return claims, nil
}

// VerifyProofFor additionally requires the proof to be for one platform.
func (s *Service) VerifyProofFor(tokenString string, platform identity.Platform) (*Claims, error) {
	claims, err := s.VerifyProof(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Platform != string(platform) {
		return nil, domainerrors.New(domainerrors.CodeUnauthorized, "Invalid token")
	}
	return claims, nil
}

// VerifyUser validates a session token and returns the identity id.
func (s *Service) VerifyUser(tokenString string) (int64, error) {
	claims, err := s.parse(tokenString)
	if err != nil {
		return 0, err
	}
	if claims.Type != KindUser {
		return 0, domainerrors.New(domainerrors.CodeUnauthorized, "Invalid token")
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, domainerrors.New(domainerrors.CodeUnauthorized, "Invalid token")
	}
	return id, nil
}

func (s *Service) parse(tokenString string) (*Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(tokenString, &claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domainerrors.Wrap(sentinel.ErrExpired, domainerrors.CodeUnauthorized, "Token has expired")
		}
		return nil, domainerrors.Wrap(err, domainerrors.CodeUnauthorized, "Invalid token")
	}
	return &claims, nil
}
