// Package testutil provides database fixtures for package tests
package testutil

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/talentmap/bidding-api/internal/auth"
	"github.com/talentmap/bidding-api/internal/database"
	"github.com/talentmap/bidding-api/internal/domain"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// SetupTestDB opens a migrated SQLite database in a temporary file that is
// removed when the test ends
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "bidding.db") + "?_busy_timeout=5000&_foreign_keys=on"
	db, err := gorm.Open(sqlite.Open(dsn), database.Options())
	require.NoError(t, err, "failed to open test database")
	require.NoError(t, database.AutoMigrate(db), "failed to migrate test database")

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// CreateBidCycle inserts a bid cycle
func CreateBidCycle(t *testing.T, db *gorm.DB, id int64, active bool, deadline *time.Time) *domain.BidCycle {
	t.Helper()
	cycle := &domain.BidCycle{ID: id, Name: "Cycle", Active: active, CycleDeadlineDate: deadline}
	require.NoError(t, db.Create(cycle).Error)
	return cycle
}

// CreatePosition inserts a position in the given bureau and organisation
func CreatePosition(t *testing.T, db *gorm.DB, cpID, bidCycleID int64, bureauCode, orgCode string) *domain.Position {
	t.Helper()
	position := &domain.Position{
		CpID:       cpID,
		Title:      "Political Officer",
		BureauCode: bureauCode,
		OrgCode:    orgCode,
		Grade:      "03",
		SkillCode:  "5505",
		BidCycleID: bidCycleID,
		SyncedAt:   time.Now().UTC(),
	}
	require.NoError(t, db.Create(position).Error)
	return position
}

// CreateBidder inserts a bidder profile
func CreateBidder(t *testing.T, db *gorm.DB, perdet, cdoPerdet string) *domain.Bidder {
	t.Helper()
	bidder := &domain.Bidder{
		Perdet:      perdet,
		DisplayName: "Bidder " + perdet,
		Grade:       "03",
		SkillCodes:  []string{"5505"},
		CDOPerdet:   cdoPerdet,
	}
	require.NoError(t, db.Create(bidder).Error)
	return bidder
}

// GrantScope gives perdet an access grant
func GrantScope(t *testing.T, db *gorm.DB, perdet string, kind domain.ScopeKind, code string) {
	t.Helper()
	grant := &domain.AccessGrant{Perdet: perdet, ScopeKind: kind, ScopeCode: code}
	require.NoError(t, db.Create(grant).Error)
}

// CreateBid inserts a bid on the position in the given status
func CreateBid(t *testing.T, db *gorm.DB, perdet string, position *domain.Position, status domain.BidStatus) *domain.Bid {
	t.Helper()
	bid := &domain.Bid{
		UserPerdet:        perdet,
		CpID:              position.CpID,
		BidCycleID:        position.BidCycleID,
		BureauCode:        position.BureauCode,
		OrgCode:           position.OrgCode,
		PositionTitle:     position.Title,
		PositionGrade:     position.Grade,
		PositionSkillCode: position.SkillCode,
	}
	bid.SetStatus(status, time.Now().UTC())
	require.NoError(t, db.Create(bid).Error)
	return bid
}

// ContextWithUser returns a context carrying an authenticated user
func ContextWithUser(perdet string, roles ...domain.Role) context.Context {
	return auth.WithUserContext(context.Background(), &auth.UserContext{
		Perdet:      perdet,
		DisplayName: "User " + perdet,
		Roles:       roles,
	})
}
