package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/talentmap/bidding-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type HandshakeRepository struct {
	db *gorm.DB
}

func NewHandshakeRepository(db *gorm.DB) *HandshakeRepository {
	return &HandshakeRepository{db: db}
}

// LockPosition row-locks every handshake of a position for the rest of tx and
// returns them. Offers on the same cp_id serialize behind this lock; the first
// offer on a position has no rows to lock and relies on the partial unique index.
func (r *HandshakeRepository) LockPosition(ctx context.Context, tx *gorm.DB, cpID int64) ([]domain.BidHandshake, error) {
	var handshakes []domain.BidHandshake
	err := conn(r.db, tx).WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("cp_id = ?", cpID).
		Order("id").
		Find(&handshakes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to lock handshakes for position: %w", err)
	}
	return handshakes, nil
}

// RevokeCompeting revokes every active handshake on cpID except the one held by exceptBidder
func (r *HandshakeRepository) RevokeCompeting(ctx context.Context, tx *gorm.DB, cpID int64, exceptBidder, byPerdet string, at time.Time) (int64, error) {
	result := conn(r.db, tx).WithContext(ctx).
		Model(&domain.BidHandshake{}).
		Where("cp_id = ? AND bidder_perdet <> ? AND state <> ?", cpID, exceptBidder, domain.HandshakeRevoked).
		Updates(map[string]interface{}{
			"state":                    domain.HandshakeRevoked,
			"date_revoked":             at,
			"last_editing_user_perdet": byPerdet,
			"updated_at":               at,
		})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to revoke competing handshakes: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// Get returns the handshake for a position and bidder
func (r *HandshakeRepository) Get(ctx context.Context, tx *gorm.DB, cpID int64, bidderPerdet string) (*domain.BidHandshake, error) {
	var hs domain.BidHandshake
	err := conn(r.db, tx).WithContext(ctx).
		Where("cp_id = ? AND bidder_perdet = ?", cpID, bidderPerdet).
		First(&hs).Error
	if err != nil {
		return nil, err
	}
	return &hs, nil
}

// GetForUpdate is Get with a row lock held until tx ends
func (r *HandshakeRepository) GetForUpdate(ctx context.Context, tx *gorm.DB, cpID int64, bidderPerdet string) (*domain.BidHandshake, error) {
	var hs domain.BidHandshake
	err := conn(r.db, tx).WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("cp_id = ? AND bidder_perdet = ?", cpID, bidderPerdet).
		First(&hs).Error
	if err != nil {
		return nil, err
	}
	return &hs, nil
}

// Save inserts a new handshake or updates an existing one
func (r *HandshakeRepository) Save(ctx context.Context, tx *gorm.DB, hs *domain.BidHandshake) error {
	return conn(r.db, tx).WithContext(ctx).Save(hs).Error
}

// GetActiveForPosition returns the position's non-revoked handshake
func (r *HandshakeRepository) GetActiveForPosition(ctx context.Context, cpID int64) (*domain.BidHandshake, error) {
	var hs domain.BidHandshake
	err := r.db.WithContext(ctx).
		Where("cp_id = ? AND state <> ?", cpID, domain.HandshakeRevoked).
		Order("updated_at DESC").
		First(&hs).Error
	if err != nil {
		return nil, err
	}
	return &hs, nil
}

// ListForPosition returns every handshake of a position, most recently updated first
func (r *HandshakeRepository) ListForPosition(ctx context.Context, cpID int64) ([]domain.BidHandshake, error) {
	var handshakes []domain.BidHandshake
	err := r.db.WithContext(ctx).
		Where("cp_id = ?", cpID).
		Order("updated_at DESC").
		Find(&handshakes).Error
	return handshakes, err
}

// ListForBidder returns every handshake offered to a bidder, most recently updated first
func (r *HandshakeRepository) ListForBidder(ctx context.Context, bidderPerdet string) ([]domain.BidHandshake, error) {
	var handshakes []domain.BidHandshake
	err := r.db.WithContext(ctx).
		Where("bidder_perdet = ?", bidderPerdet).
		Order("updated_at DESC").
		Find(&handshakes).Error
	return handshakes, err
}
