package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/pressly/goose/v3"
	"github.com/talentmap/bidding-api/migrations"
)

// ErrUnknownMigrationCommand is returned for a command Migrate does not support
var ErrUnknownMigrationCommand = errors.New("unknown migration command")

// MigrationCommands lists the commands accepted by Migrate
var MigrationCommands = []string{"up", "up-to", "down", "down-to", "redo", "reset", "status", "version"}

// Migrate runs a goose command against the embedded migrations. up-to and
// down-to take the target version as their only argument.
func Migrate(db *sql.DB, command string, args ...string) error {
	goose.SetBaseFS(migrations.FS)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}

	const dir = "."
	switch command {
	case "up":
		return goose.Up(db, dir)
	case "up-to":
		version, err := targetVersion(command, args)
		if err != nil {
			return err
		}
		return goose.UpTo(db, dir, version)
	case "down":
		return goose.Down(db, dir)
	case "down-to":
		version, err := targetVersion(command, args)
		if err != nil {
			return err
		}
		return goose.DownTo(db, dir, version)
	case "redo":
		return goose.Redo(db, dir)
	case "reset":
		return goose.Reset(db, dir)
	case "status":
		return goose.Status(db, dir)
	case "version":
		return goose.Version(db, dir)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownMigrationCommand, command)
	}
}

func targetVersion(command string, args []string) (int64, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("%s requires a target version", command)
	}
	version, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || version < 0 {
		return 0, fmt.Errorf("invalid target version %q", args[0])
	}
	return version, nil
}
