package jwtauth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskmeet/internal/domain/entity"
	"taskmeet/pkg/errors"
)

func TestAuthenticator_RoundTrip(t *testing.T) {
	a := NewAuthenticator("secret", time.Hour)

	token, err := a.IssueToken(entity.Identity{UserID: "u1", Name: "Alice", AvatarURL: "a.png", Role: entity.RoleAdmin})
	require.NoError(t, err)

	identity, err := a.VerifyToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "u1", identity.UserID)
	assert.Equal(t, "Alice", identity.Name)
	assert.Equal(t, "a.png", identity.AvatarURL)
	assert.True(t, identity.IsAdmin())
}

func TestAuthenticator_Rejects(t *testing.T) {
	a := NewAuthenticator("secret", time.Hour)
	other := NewAuthenticator("other-secret", time.Hour)

	token, err := other.IssueToken(entity.Identity{UserID: "u1"})
	require.NoError(t, err)

	_, err = a.VerifyToken(context.Background(), token)
	assert.True(t, errors.Is(err, errors.CodeUnauthorized))

	expired := NewAuthenticator("secret", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, err = expired.IssueToken(entity.Identity{UserID: "u1"})
	require.NoError(t, err)

	_, err = a.VerifyToken(context.Background(), token)
	assert.True(t, errors.Is(err, errors.CodeUnauthorized))

	_, err = a.VerifyToken(context.Background(), "not-a-token")
	assert.True(t, errors.Is(err, errors.CodeUnauthorized))

	_, err = a.IssueToken(entity.Identity{})
	assert.True(t, errors.Is(err, errors.CodeBadRequest))
}
