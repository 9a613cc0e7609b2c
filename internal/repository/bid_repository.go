package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/talentmap/bidding-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BidRepository struct {
	db *gorm.DB
}

func NewBidRepository(db *gorm.DB) *BidRepository {
	return &BidRepository{db: db}
}

func (r *BidRepository) Create(ctx context.Context, tx *gorm.DB, bid *domain.Bid) error {
	return conn(r.db, tx).WithContext(ctx).Create(bid).Error
}

func (r *BidRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Bid, error) {
	var bid domain.Bid
	if err := r.db.WithContext(ctx).First(&bid, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &bid, nil
}

// GetByIDForUpdate loads a bid with a row lock held until tx ends
func (r *BidRepository) GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*domain.Bid, error) {
	var bid domain.Bid
	err := conn(r.db, tx).WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&bid, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &bid, nil
}

// ListForUserForUpdate loads and row-locks every bid of a bidder. Submission limit
// and priority checks run against this set so concurrent requests by the same
// bidder serialize.
func (r *BidRepository) ListForUserForUpdate(ctx context.Context, tx *gorm.DB, perdet string) ([]domain.Bid, error) {
	var bids []domain.Bid
	err := conn(r.db, tx).WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_perdet = ?", perdet).
		Order("id").
		Find(&bids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to lock bids for user: %w", err)
	}
	return bids, nil
}

func (r *BidRepository) Update(ctx context.Context, tx *gorm.DB, bid *domain.Bid) error {
	return conn(r.db, tx).WithContext(ctx).Save(bid).Error
}

func (r *BidRepository) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	result := conn(r.db, tx).WithContext(ctx).Delete(&domain.Bid{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListForUser lists a bidder's bids, optionally limited to one cycle
func (r *BidRepository) ListForUser(ctx context.Context, perdet string, bidCycleID *int64) ([]domain.Bid, error) {
	var bids []domain.Bid
	query := r.db.WithContext(ctx).Where("user_perdet = ?", perdet)
	if bidCycleID != nil {
		query = query.Where("bid_cycle_id = ?", *bidCycleID)
	}
	err := query.Order("updated_at DESC").Find(&bids).Error
	return bids, err
}

// ListForUserInCycle returns all bids of a bidder in one cycle
func (r *BidRepository) ListForUserInCycle(ctx context.Context, bidCycleID int64, perdet string) ([]domain.Bid, error) {
	var bids []domain.Bid
	err := r.db.WithContext(ctx).
		Where("bid_cycle_id = ? AND user_perdet = ?", bidCycleID, perdet).
		Find(&bids).Error
	return bids, err
}

// ListForPosition returns all bids on a position in one cycle
func (r *BidRepository) ListForPosition(ctx context.Context, bidCycleID, cpID int64) ([]domain.Bid, error) {
	var bids []domain.Bid
	err := r.db.WithContext(ctx).
		Where("bid_cycle_id = ? AND cp_id = ?", bidCycleID, cpID).
		Find(&bids).Error
	return bids, err
}

// ListOtherBidders returns the distinct perdets bidding on a position, excluding one bidder
func (r *BidRepository) ListOtherBidders(ctx context.Context, bidCycleID, cpID int64, excludePerdet string) ([]string, error) {
	var perdets []string
	err := r.db.WithContext(ctx).
		Model(&domain.Bid{}).
		Distinct("user_perdet").
		Where("bid_cycle_id = ? AND cp_id = ? AND user_perdet <> ?", bidCycleID, cpID, excludePerdet).
		Order("user_perdet").
		Pluck("user_perdet", &perdets).Error
	return perdets, err
}

// PositionKey identifies a position within a bid cycle
type PositionKey struct {
	BidCycleID int64
	CpID       int64
}

// UserKey identifies a bidder within a bid cycle
type UserKey struct {
	BidCycleID int64
	UserPerdet string
}

// ListStatisticsKeys returns every (cycle, position) and (cycle, bidder) pair with bids in the given cycles
func (r *BidRepository) ListStatisticsKeys(ctx context.Context, bidCycleIDs []int64) ([]PositionKey, []UserKey, error) {
	if len(bidCycleIDs) == 0 {
		return nil, nil, nil
	}

	var positions []PositionKey
	err := r.db.WithContext(ctx).
		Model(&domain.Bid{}).
		Select("DISTINCT bid_cycle_id, cp_id").
		Where("bid_cycle_id IN ?", bidCycleIDs).
		Scan(&positions).Error
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list position keys: %w", err)
	}

	var users []UserKey
	err = r.db.WithContext(ctx).
		Model(&domain.Bid{}).
		Select("DISTINCT bid_cycle_id, user_perdet").
		Where("bid_cycle_id IN ?", bidCycleIDs).
		Scan(&users).Error
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list user keys: %w", err)
	}

	return positions, users, nil
}
