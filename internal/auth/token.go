package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ErrInvalidToken covers every verification failure: malformed input, bad
// signature, wrong algorithm, expiry. Callers cannot tell them apart.
var ErrInvalidToken = errors.New("invalid token")

// Claims carries only the subject. Role is resolved from the store per request.
type Claims struct {
	jwt.RegisteredClaims
}

// Identity is what a verified token proves.
type Identity struct {
	Subject  uuid.UUID
	IssuedAt time.Time
}

// TokenManager issues and verifies HS256 session tokens. It is safe for
// concurrent use; the secret is fixed for its lifetime.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	parser *jwt.Parser
	now    func() time.Time
}

func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		ttl:    ttl,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
			jwt.WithIssuedAt(),
			jwt.WithStrictDecoding(),
		),
		now: time.Now,
	}
}

// Issue signs a token for subject that expires after the configured TTL.
func (m *TokenManager) Issue(subject uuid.UUID) (string, error) {
	now := m.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

func (m *TokenManager) Verify(tokenString string) (*Identity, error) {
	claims := &Claims{}
	token, err := m.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return m.secret, nil
	})
	if err != nil {
		log.Debug().Err(err).Msg("token verification failed")
		return nil, ErrInvalidToken
	}
	if !token.Valid || claims.IssuedAt == nil {
		return nil, ErrInvalidToken
	}

	subject, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, ErrInvalidToken
	}

	return &Identity{
		Subject:  subject,
		IssuedAt: claims.IssuedAt.Time,
	}, nil
}
