package repository

import (
	"context"

	"github.com/talentmap/bidding-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StatisticsRepository persists the bid aggregates
type StatisticsRepository struct {
	db *gorm.DB
}

func NewStatisticsRepository(db *gorm.DB) *StatisticsRepository {
	return &StatisticsRepository{db: db}
}

// SavePosition gets-or-creates the (cycle, position) row and overwrites its counts
func (r *StatisticsRepository) SavePosition(ctx context.Context, stats *domain.PositionBidStatistics) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "bid_cycle_id"}, {Name: "cp_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"total_bids", "in_grade", "at_skill", "in_grade_at_skill",
			"has_handshake_offered", "has_handshake_accepted", "updated_at",
		}),
	}).Create(stats).Error
}

// SaveUser gets-or-creates the (cycle, bidder) row and overwrites its counts
func (r *StatisticsRepository) SaveUser(ctx context.Context, stats *domain.UserBidStatistics) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "bid_cycle_id"}, {Name: "user_perdet"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"draft", "submitted", "handshake_offered", "handshake_accepted",
			"handshake_declined", "in_panel", "approved", "declined", "closed", "updated_at",
		}),
	}).Create(stats).Error
}

func (r *StatisticsRepository) GetPosition(ctx context.Context, bidCycleID, cpID int64) (*domain.PositionBidStatistics, error) {
	var stats domain.PositionBidStatistics
	err := r.db.WithContext(ctx).
		Where("bid_cycle_id = ? AND cp_id = ?", bidCycleID, cpID).
		First(&stats).Error
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func (r *StatisticsRepository) GetUser(ctx context.Context, bidCycleID int64, perdet string) (*domain.UserBidStatistics, error) {
	var stats domain.UserBidStatistics
	err := r.db.WithContext(ctx).
		Where("bid_cycle_id = ? AND user_perdet = ?", bidCycleID, perdet).
		First(&stats).Error
	if err != nil {
		return nil, err
	}
	return &stats, nil
}
