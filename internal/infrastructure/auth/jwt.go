package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/tuition/backend/internal/domain/identity"
	"github.com/tuition/backend/internal/infrastructure/config"
)

// Common errors
var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInvalidClaims    = errors.New("invalid token claims")
	ErrTokenNotYetValid = errors.New("token is not yet valid")
	ErrMissingSessionID = errors.New("missing session id in claims")
)

// Claims are the session token claims. The JWT ID is the session ID; the role
// fields mirror identity.Role so a token can be inspected without the store.
type Claims struct {
	jwt.RegisteredClaims
	RoleKind  identity.RoleKind `json:"role"`
	StudentID *uuid.UUID        `json:"student_id,omitempty"`
	ClassName string            `json:"class_name,omitempty"`
}

// SessionID parses the JWT ID
func (c *Claims) SessionID() (uuid.UUID, error) {
	if c.ID == "" {
		return uuid.Nil, ErrMissingSessionID
	}
	id, err := uuid.Parse(c.ID)
	if err != nil {
		return uuid.Nil, ErrInvalidClaims
	}
	return id, nil
}

// Role rebuilds the identity role carried in the claims
func (c *Claims) Role() (identity.Role, error) {
	return identity.RoleFromParts(c.RoleKind, c.StudentID, c.ClassName)
}

// JWTService signs and verifies session tokens with HS256
type JWTService struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// NewJWTService creates a new JWT service
func NewJWTService(cfg config.JWTConfig) *JWTService {
	return &JWTService{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
		now:    time.Now,
	}
}

// WithClock replaces the time source used for validation
func (s *JWTService) WithClock(now func() time.Time) *JWTService {
	s.now = now
	return s
}

// Issue signs a token for session. The token expires with the session.
func (s *JWTService) Issue(session *identity.Session) (string, error) {
	if session == nil || session.Role == nil {
		return "", ErrInvalidClaims
	}
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        session.ID.String(),
			Issuer:    s.issuer,
			Subject:   session.Subject,
			Audience:  jwt.ClaimStrings{s.issuer},
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
			NotBefore: jwt.NewNumericDate(session.IssuedAt),
			IssuedAt:  jwt.NewNumericDate(session.IssuedAt),
		},
		RoleKind: session.Role.Kind(),
	}
	if sr, ok := session.Role.(identity.StudentRole); ok {
		id := sr.StudentID
		claims.StudentID = &id
		claims.ClassName = sr.ClassName
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Parse verifies signature, issuer and time claims and returns the claims
func (s *JWTService) Parse(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithTimeFunc(s.now),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer), jwt.WithAudience(s.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			return nil, ErrTokenNotYetValid
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidClaims
	}
	if _, err := claims.SessionID(); err != nil {
		return nil, err
	}
	if _, err := claims.Role(); err != nil {
		return nil, ErrInvalidClaims
	}
	return claims, nil
}

// ParseSessionID verifies the token and returns the session it refers to
func (s *JWTService) ParseSessionID(tokenString string) (uuid.UUID, error) {
	claims, err := s.Parse(tokenString)
	if err != nil {
		return uuid.Nil, err
	}
	return claims.SessionID()
}
