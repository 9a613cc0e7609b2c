package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/talentmap/bidding-api/internal/config"
	"github.com/talentmap/bidding-api/internal/database"
	"github.com/talentmap/bidding-api/internal/logger"
	"go.uber.org/zap"
)

// sourceDir is where create writes new migration files
const sourceDir = "./migrations"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
		os.Exit(1)
	}
}

func usage() error {
	return fmt.Errorf("usage: migrate <%s|create NAME>", strings.Join(database.MigrationCommands, "|"))
}

func run(args []string) error {
	if len(args) == 0 {
		return usage()
	}
	command, rest := args[0], args[1:]

	if command == "create" {
		if len(rest) == 0 {
			return fmt.Errorf("create requires a migration name")
		}
		// create only writes a file and never touches the database
		if err := goose.Create(nil, sourceDir, rest[0], "sql"); err != nil {
			return fmt.Errorf("failed to create migration: %w", err)
		}
		return nil
	}

	basicCfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	log, err := logger.NewLogger(&basicCfg.Logging, &basicCfg.App)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	// database credentials may live in Key Vault outside development
	cfg, err := config.LoadWithSecrets(context.Background(), log)
	if err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}

	db, err := sql.Open("postgres", cfg.Database.ConnectionString())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping database %s/%s: %w", cfg.Database.Host, cfg.Database.Name, err)
	}

	log.Info("Running migration command",
		zap.String("command", command),
		zap.Strings("args", rest),
		zap.String("database", cfg.Database.Name))

	if err := database.Migrate(db, command, rest...); err != nil {
		return fmt.Errorf("%s failed: %w", command, err)
	}
	return nil
}
