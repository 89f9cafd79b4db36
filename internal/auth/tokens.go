package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	kindAccess  = "access"
	kindRefresh = "refresh"
)

// TokenClaims are the claims carried by access and refresh tokens.
type TokenClaims struct {
	UserID string `json:"uid"`
	Email  string `json:"email"`
	Kind   string `json:"kind"`
	jwt.RegisteredClaims
}

func (s *Service) signToken(user *User, kind string, ttl time.Duration) (string, *TokenClaims, error) {
	now := s.now()
	claims := &TokenClaims{
		UserID: user.ID,
		Email:  user.Email,
		Kind:   kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", nil, err
	}
	return signed, claims, nil
}

func (s *Service) parseToken(tokenString, kind string) (*TokenClaims, error) {
	claims := &TokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrSessionExpired
		}
		return nil, ErrInvalidToken
	}
	if !token.Valid || claims.Kind != kind || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
