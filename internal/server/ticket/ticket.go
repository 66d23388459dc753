// Package ticket issues and verifies the signed tickets a peer presents on
// reconnect to keep its peer identity.
package ticket

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "syncstore"

var (
	// ErrInvalidTicket is returned for tickets that fail verification.
	ErrInvalidTicket = errors.New("invalid ticket")
	// ErrExpiredTicket is returned for tickets past their expiry.
	ErrExpiredTicket = errors.New("ticket expired")
)

// Service provides ticket generation and validation
type Service struct {
	now    func() time.Time
	secret []byte
	ttl    time.Duration
}

// Claims represents ticket claims; the subject is the peer id
type Claims struct {
	jwt.RegisteredClaims
}

// NewService creates a new ticket service.
// secret should be a key derived with crypto.DeriveTicketKey.
func NewService(secret []byte, ttl time.Duration) *Service {
	return &Service{
		secret: secret,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue signs a ticket for peerID
func (s *Service) Issue(peerID string) (string, error) {
	now := s.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   peerID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign ticket: %w", err)
	}
	return token, nil
}

// Verify checks the ticket and returns the peer id it was issued for
func (s *Service) Verify(token string) (string, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return "", ErrExpiredTicket
	case err != nil:
		return "", fmt.Errorf("%w: %w", ErrInvalidTicket, err)
	case claims.Subject == "":
		return "", fmt.Errorf("%w: empty subject", ErrInvalidTicket)
	}
	return claims.Subject, nil
}
