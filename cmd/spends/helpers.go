package main

import (
	"context"
	"fmt"

	"github.com/spf13/viper"

	"github.com/InyerM/spends-assistant-web-sub000/internal/cli"
	"github.com/InyerM/spends-assistant-web-sub000/internal/config"
	"github.com/InyerM/spends-assistant-web-sub000/internal/service"
	"github.com/InyerM/spends-assistant-web-sub000/internal/storage"
)

// loadConfig reads the typed configuration from the global viper instance.
func loadConfig() (*config.Config, error) {
	return config.Load(viper.GetViper())
}

// openStorage opens the configured database without migrating it.
func openStorage() (*storage.SQLiteStorage, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	store, err := storage.NewSQLiteStorage(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return store, nil
}

// initStorage opens the configured database and brings the schema up to date.
func initStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	store, err := openStorage()
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// loadNames indexes account and category display names.
func loadNames(ctx context.Context, store service.Storage) (cli.Names, error) {
	accounts, err := store.GetAccounts(ctx)
	if err != nil {
		return cli.Names{}, fmt.Errorf("failed to get accounts: %w", err)
	}
	categories, err := store.GetCategories(ctx)
	if err != nil {
		return cli.Names{}, fmt.Errorf("failed to get categories: %w", err)
	}
	return cli.NewNames(accounts, categories), nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
