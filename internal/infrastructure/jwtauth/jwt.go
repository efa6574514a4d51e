package jwtauth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"taskmeet/internal/domain/entity"
	"taskmeet/pkg/errors"
)

// Claims carries the identity fields the realtime layer shows to other participants.
type Claims struct {
	Name   string `json:"name,omitempty"`
	Avatar string `json:"avatar,omitempty"`
	Role   string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Authenticator signs and verifies HS256 tokens with a shared secret.
type Authenticator struct {
	secret []byte
	expiry time.Duration
	issuer string
	now    func() time.Time
}

func NewAuthenticator(secret string, expiry time.Duration) *Authenticator {
	return &Authenticator{
		secret: []byte(secret),
		expiry: expiry,
		issuer: "taskmeet",
		now:    time.Now,
	}
}

func (a *Authenticator) IssueToken(identity entity.Identity) (string, error) {
	if identity.UserID == "" {
		return "", errors.BadRequest("user id is required", nil)
	}

	now := a.now()
	claims := Claims{
		Name:   identity.Name,
		Avatar: identity.AvatarURL,
		Role:   identity.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.UserID,
			Issuer:    a.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.expiry)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", errors.Internal("Failed to sign token", err)
	}
	return signed, nil
}

func (a *Authenticator) VerifyToken(_ context.Context, token string) (*entity.Identity, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, errors.Unauthorized("Invalid or expired token", err)
	}
	if claims.Subject == "" {
		return nil, errors.Unauthorized("Token has no subject", nil)
	}

	return &entity.Identity{
		UserID:    claims.Subject,
		Name:      claims.Name,
		AvatarURL: claims.Avatar,
		Role:      claims.Role,
	}, nil
}
