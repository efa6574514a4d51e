package service

import (
	"context"

	"taskmeet/internal/domain/entity"
)

// TokenVerifier turns a bearer token into the caller's identity.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (*entity.Identity, error)
}

// TokenIssuer mints tokens for local development and tooling.
type TokenIssuer interface {
	IssueToken(identity entity.Identity) (string, error)
}
