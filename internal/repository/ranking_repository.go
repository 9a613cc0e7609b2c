package repository

import (
	"context"
	"fmt"

	"github.com/talentmap/bidding-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RankingRepository stores position rankings and their locks
type RankingRepository struct {
	db *gorm.DB
}

func NewRankingRepository(db *gorm.DB) *RankingRepository {
	return &RankingRepository{db: db}
}

// UpsertBatch writes all rows in one statement; an existing (cp_id, bidder) row takes the new rank and owner
func (r *RankingRepository) UpsertBatch(ctx context.Context, tx *gorm.DB, rows []domain.AvailablePositionRanking) error {
	if len(rows) == 0 {
		return nil
	}
	return conn(r.db, tx).WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "cp_id"}, {Name: "bidder_perdet"}},
		DoUpdates: clause.AssignmentColumns([]string{"rank", "user_perdet", "updated_at"}),
	}).Create(&rows).Error
}

func (r *RankingRepository) ListForPosition(ctx context.Context, cpID int64) ([]domain.AvailablePositionRanking, error) {
	var rows []domain.AvailablePositionRanking
	err := r.db.WithContext(ctx).Where("cp_id = ?", cpID).Order("rank, bidder_perdet").Find(&rows).Error
	return rows, err
}

// MapRanksForBidder returns the bidder's rank keyed by cp_id
func (r *RankingRepository) MapRanksForBidder(ctx context.Context, bidderPerdet string) (map[int64]int, error) {
	var rows []domain.AvailablePositionRanking
	if err := r.db.WithContext(ctx).Where("bidder_perdet = ?", bidderPerdet).Find(&rows).Error; err != nil {
		return nil, err
	}
	ranks := make(map[int64]int, len(rows))
	for _, row := range rows {
		ranks[row.CpID] = row.Rank
	}
	return ranks, nil
}

// DeleteForPosition deletes one bidder's row, or all rows when bidderPerdet is empty
func (r *RankingRepository) DeleteForPosition(ctx context.Context, tx *gorm.DB, cpID int64, bidderPerdet string) (int64, error) {
	query := conn(r.db, tx).WithContext(ctx).Where("cp_id = ?", cpID)
	if bidderPerdet != "" {
		query = query.Where("bidder_perdet = ?", bidderPerdet)
	}
	result := query.Delete(&domain.AvailablePositionRanking{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete rankings: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// UpsertLock creates the position's lock or refreshes its codes in one atomic statement
func (r *RankingRepository) UpsertLock(ctx context.Context, lock *domain.AvailablePositionRankingLock) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "cp_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"bureau_code", "org_code", "updated_at"}),
	}).Create(lock).Error
}

// IsLocked reports whether the position's ranking is locked
func (r *RankingRepository) IsLocked(ctx context.Context, cpID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.AvailablePositionRankingLock{}).
		Where("cp_id = ?", cpID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *RankingRepository) DeleteLock(ctx context.Context, tx *gorm.DB, cpID int64) error {
	return conn(r.db, tx).WithContext(ctx).
		Where("cp_id = ?", cpID).
		Delete(&domain.AvailablePositionRankingLock{}).Error
}
