package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/golang-jwt/jwt/v5/request"
	"github.com/google/uuid"

	"github.com/angelmondragon/lockerlend-backend/pkg/config"
)

var signingMethod = jwt.SigningMethodHS256

var (
	// ErrNoToken means the request carried no Authorization header.
	ErrNoToken = errors.New("no access token in request")
	// ErrNoMember means the token verified but names no member.
	ErrNoMember = errors.New("token has no member id")
)

// MintAccessToken signs a token valid for ttl from now. Production tokens come
// from the identity service; this serves local tooling and tests.
func MintAccessToken(cfg config.JWTConfig, now time.Time, ttl time.Duration, payload AccessTokenPayload) (string, error) {
	switch {
	case cfg.Secret == "":
		return "", errors.New("jwt secret is required")
	case cfg.Issuer == "":
		return "", errors.New("jwt issuer is required")
	case ttl <= 0:
		return "", errors.New("jwt ttl must be positive")
	case payload.MemberID == uuid.Nil:
		return "", errors.New("member id is required")
	}

	jti := strings.TrimSpace(payload.JTI)
	if jti == "" {
		jti = uuid.NewString()
	}
	claims := AccessTokenClaims{
		MemberID:   payload.MemberID,
		University: payload.University,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			Subject:   payload.MemberID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        jti,
		},
	}
	signed, err := jwt.NewWithClaims(signingMethod, claims).SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("sign jwt: %w", err)
	}
	return signed, nil
}

// ParseAccessToken verifies a raw token string.
func ParseAccessToken(cfg config.JWTConfig, raw string) (*AccessTokenClaims, error) {
	claims := &AccessTokenClaims{}
	if _, err := parser(cfg).ParseWithClaims(raw, claims, keyFunc(cfg)); err != nil {
		return nil, err
	}
	return claims.resolve()
}

// ParseRequest verifies the token in r's Authorization header. The "Bearer "
// prefix is optional. A request without a header yields ErrNoToken.
func ParseRequest(cfg config.JWTConfig, r *http.Request) (*AccessTokenClaims, error) {
	claims := &AccessTokenClaims{}
	_, err := request.ParseFromRequest(r, request.AuthorizationHeaderExtractor, keyFunc(cfg),
		request.WithClaims(claims),
		request.WithParser(parser(cfg)),
	)
	if errors.Is(err, request.ErrNoTokenInRequest) {
		return nil, ErrNoToken
	}
	if err != nil {
		return nil, err
	}
	return claims.resolve()
}

func parser(cfg config.JWTConfig) *jwt.Parser {
	return jwt.NewParser(
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithIssuer(cfg.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(cfg.Leeway),
	)
}

func keyFunc(cfg config.JWTConfig) jwt.Keyfunc {
	return func(*jwt.Token) (any, error) {
		if cfg.Secret == "" {
			return nil, errors.New("jwt secret is required")
		}
		return []byte(cfg.Secret), nil
	}
}
