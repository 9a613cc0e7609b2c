package repository

import (
	"context"
	"time"

	"github.com/talentmap/bidding-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PositionRepository serves the local snapshot of available positions
type PositionRepository struct {
	db *gorm.DB
}

func NewPositionRepository(db *gorm.DB) *PositionRepository {
	return &PositionRepository{db: db}
}

// GetPosition resolves a cp_id to its position record
func (r *PositionRepository) GetPosition(ctx context.Context, cpID int64) (*domain.Position, error) {
	var position domain.Position
	if err := r.db.WithContext(ctx).First(&position, "cp_id = ?", cpID).Error; err != nil {
		return nil, err
	}
	return &position, nil
}

// UpsertBatch stores a batch of positions, refreshing existing snapshots
func (r *PositionRepository) UpsertBatch(ctx context.Context, positions []domain.Position) error {
	if len(positions) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for i := range positions {
		positions[i].SyncedAt = now
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "cp_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"position_number", "title", "bureau_code", "org_code",
			"grade", "skill_code", "bid_cycle_id", "synced_at",
		}),
	}).CreateInBatches(&positions, 200).Error
}

// LatestSync returns the most recent synced_at, or the zero time
func (r *PositionRepository) LatestSync(ctx context.Context) (time.Time, error) {
	var position domain.Position
	err := r.db.WithContext(ctx).Order("synced_at DESC").Limit(1).Find(&position).Error
	return position.SyncedAt, err
}
