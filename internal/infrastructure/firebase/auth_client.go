package firebase

import (
	"context"

	"firebase.google.com/go/v4/auth"

	"taskmeet/internal/domain/entity"
	"taskmeet/pkg/errors"
)

type FirebaseAuthClient struct {
	client *auth.Client
}

func NewFirebaseAuthClient(client *auth.Client) *FirebaseAuthClient {
	return &FirebaseAuthClient{
		client: client,
	}
}

// VerifyToken checks a Firebase ID token. Display fields come from the standard
// name/picture claims and the role from a custom "role" claim.
func (f *FirebaseAuthClient) VerifyToken(ctx context.Context, token string) (*entity.Identity, error) {
	result, err := f.client.VerifyIDToken(ctx, token)
	if err != nil {
		return nil, errors.Unauthorized("Invalid or expired token", err)
	}

	return &entity.Identity{
		UserID:    result.UID,
		Name:      stringClaim(result.Claims, "name"),
		AvatarURL: stringClaim(result.Claims, "picture"),
		Role:      stringClaim(result.Claims, "role"),
	}, nil
}

func stringClaim(claims map[string]interface{}, key string) string {
	if v, ok := claims[key].(string); ok {
		return v
	}
	return ""
}
