package firebase

import (
	"context"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
)

// PingFirestore reads at most one document to prove the client can reach the project.
func PingFirestore(ctx context.Context, client *firestore.Client) error {
	iter := client.Collection("users").Limit(1).Documents(ctx)
	defer iter.Stop()

	if _, err := iter.Next(); err != nil && err != iterator.Done {
		return err
	}
	return nil
}
