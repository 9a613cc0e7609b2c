package repository

import (
	"context"

	"github.com/talentmap/bidding-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BidCycleRepository struct {
	db *gorm.DB
}

func NewBidCycleRepository(db *gorm.DB) *BidCycleRepository {
	return &BidCycleRepository{db: db}
}

func (r *BidCycleRepository) GetByID(ctx context.Context, id int64) (*domain.BidCycle, error) {
	var cycle domain.BidCycle
	if err := r.db.WithContext(ctx).First(&cycle, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &cycle, nil
}

// ListActiveIDs returns the ids of all active bid cycles
func (r *BidCycleRepository) ListActiveIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).
		Model(&domain.BidCycle{}).
		Where("active = ?", true).
		Order("id").
		Pluck("id", &ids).Error
	return ids, err
}

// UpsertBatch inserts or refreshes bid cycles mirrored from the warehouse
func (r *BidCycleRepository) UpsertBatch(ctx context.Context, cycles []domain.BidCycle) error {
	if len(cycles) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "active", "cycle_deadline_date", "updated_at"}),
	}).Create(&cycles).Error
}
