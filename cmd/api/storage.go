package main

import (
	"context"
	"fmt"

	"taskmeet/internal/adapter/api/handler"
	"taskmeet/internal/adapter/repository"
	domainrepo "taskmeet/internal/domain/repository"
	"taskmeet/internal/infrastructure/database"
	"taskmeet/internal/infrastructure/firebase"
	"taskmeet/pkg/config"
	"taskmeet/pkg/logger"
)

// stores is the repository set behind the configured storage driver.
type stores struct {
	chatRepo domainrepo.ChatRepository
	callRepo domainrepo.CallSessionRepository
	userRepo domainrepo.UserRepository
	probe    handler.StorageProbe
	close    func() error
}

func openStores(ctx context.Context, cfg *config.Config, fb *firebase.App) (*stores, error) {
	switch cfg.StorageDriver {
	case config.StorageFirestore:
		if fb == nil {
			return nil, fmt.Errorf("firestore storage requires firebase credentials")
		}
		client, err := fb.Firestore(ctx)
		if err != nil {
			return nil, err
		}
		logger.Info("Storage: Firestore project %s", cfg.FirebaseProject)
		return &stores{
			chatRepo: repository.NewFirestoreChatRepository(client),
			callRepo: repository.NewFirestoreCallSessionRepository(client),
			userRepo: repository.NewFirestoreUserRepository(client),
			probe: func(ctx context.Context) error {
				return firebase.PingFirestore(ctx, client)
			},
			close: client.Close,
		}, nil

	case config.StorageSQLite:
		db, err := database.OpenSQLite(cfg.SQLitePath, cfg.IsDevelopment())
		if err != nil {
			return nil, err
		}
		if err := repository.MigrateSQL(db); err != nil {
			_ = database.Close(db)
			return nil, fmt.Errorf("migrate sqlite: %w", err)
		}
		logger.Info("Storage: SQLite at %s", cfg.SQLitePath)
		return &stores{
			chatRepo: repository.NewGormChatRepository(db),
			callRepo: repository.NewGormCallSessionRepository(db),
			userRepo: repository.NewGormUserRepository(db),
			probe: func(ctx context.Context) error {
				return database.Ping(ctx, db)
			},
			close: func() error { return database.Close(db) },
		}, nil
	}

	return nil, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.StorageDriver)
}
