package services

import (
	"errors"
	"strconv"
	"time"

	"assistant-chat/pkg/apperrors"

	"github.com/golang-jwt/jwt/v5"
)

// TokenService issues and validates HMAC-signed bearer tokens. The signing
// secret is set once at startup and read-only afterwards, so the service is
// safe to share across requests.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenService(secret string, ttl time.Duration) *TokenService {
	return &TokenService{secret: []byte(secret), ttl: ttl}
}

// Issue returns a signed token carrying the user id and an absolute expiry.
func (s *TokenService) Issue(userID int64) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Validate verifies the signature before trusting any claim, then resolves
// the subject. Expired, malformed and tampered tokens are told apart.
func (s *TokenService) Validate(tokenString string) (int64, error) {
	if tokenString == "" {
		return 0, apperrors.ErrUnauthenticated
	}

	parsed, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apperrors.ErrTokenSignature
		}
		return s.secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return 0, apperrors.ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return 0, apperrors.ErrTokenSignature
		case errors.Is(err, jwt.ErrTokenMalformed):
			return 0, apperrors.ErrTokenMalformed
		default:
			return 0, apperrors.ErrUnauthenticated
		}
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || !parsed.Valid {
		return 0, apperrors.ErrUnauthenticated
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, apperrors.ErrTokenMalformed
	}
	return userID, nil
}
