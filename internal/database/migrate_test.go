package database_test

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/talentmap/bidding-api/internal/database"
	"github.com/talentmap/bidding-api/migrations"
)

func TestMigrate_RejectsBadCommands(t *testing.T) {
	err := database.Migrate(nil, "sideways")
	assert.ErrorIs(t, err, database.ErrUnknownMigrationCommand)

	err = database.Migrate(nil, "up-to")
	assert.ErrorContains(t, err, "requires a target version")

	err = database.Migrate(nil, "down-to", "latest")
	assert.ErrorContains(t, err, "invalid target version")
}

func TestEmbeddedMigrations(t *testing.T) {
	files, err := fs.Glob(migrations.FS, "*.sql")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"00001_initial_schema.sql",
		"00002_bids_and_handshakes.sql",
		"00003_rankings_statistics_notifications.sql",
	}, files)
}
