package firebase

import (
	"context"
	"fmt"
	"os"

	"cloud.google.com/go/firestore"
	fbapp "firebase.google.com/go/v4"
	"google.golang.org/api/option"

	"taskmeet/pkg/config"
	"taskmeet/pkg/logger"
)

// App bundles the Firebase handles the service needs.
type App struct {
	app    *fbapp.App
	option option.ClientOption
	cfg    *config.Config
}

// NewApp initialises Firebase from service account credentials. JSON content
// from the environment is preferred over a credentials file.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	opt, err := credentialsOption(cfg)
	if err != nil {
		return nil, err
	}

	app, err := fbapp.NewApp(ctx, &fbapp.Config{ProjectID: cfg.FirebaseProject}, opt)
	if err != nil {
		return nil, fmt.Errorf("initialize firebase: %w", err)
	}

	return &App{app: app, option: opt, cfg: cfg}, nil
}

func (a *App) Firestore(ctx context.Context) (*firestore.Client, error) {
	client, err := firestore.NewClient(ctx, a.cfg.FirebaseProject, a.option)
	if err != nil {
		return nil, fmt.Errorf("create firestore client: %w", err)
	}
	return client, nil
}

func (a *App) AuthClient(ctx context.Context) (*FirebaseAuthClient, error) {
	client, err := a.app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("initialize firebase auth: %w", err)
	}
	return NewFirebaseAuthClient(client), nil
}

func credentialsOption(cfg *config.Config) (option.ClientOption, error) {
	if cfg.FirebaseCredentialsJSON != "" {
		logger.Info("Using Firebase service account from environment variable")
		return option.WithCredentialsJSON([]byte(cfg.FirebaseCredentialsJSON)), nil
	}

	path := cfg.FirebaseCredentialsPath
	if path == "" {
		return nil, fmt.Errorf("firebase credentials missing: set FIREBASE_SERVICE_ACCOUNT_JSON or FIREBASE_SERVICE_ACCOUNT_PATH")
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("service account file %s: %w", path, err)
	}

	logger.Info("Using Firebase service account from file: %s", path)
	return option.WithCredentialsFile(path), nil
}
