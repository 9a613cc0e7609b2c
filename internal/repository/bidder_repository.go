package repository

import (
	"context"

	"github.com/talentmap/bidding-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BidderRepository struct {
	db *gorm.DB
}

func NewBidderRepository(db *gorm.DB) *BidderRepository {
	return &BidderRepository{db: db}
}

func (r *BidderRepository) GetByPerdet(ctx context.Context, perdet string) (*domain.Bidder, error) {
	var bidder domain.Bidder
	if err := r.db.WithContext(ctx).First(&bidder, "perdet = ?", perdet).Error; err != nil {
		return nil, err
	}
	return &bidder, nil
}

// MapByPerdets loads the profiles of the given bidders keyed by perdet
func (r *BidderRepository) MapByPerdets(ctx context.Context, perdets []string) (map[string]domain.Bidder, error) {
	result := make(map[string]domain.Bidder, len(perdets))
	if len(perdets) == 0 {
		return result, nil
	}
	var bidders []domain.Bidder
	if err := r.db.WithContext(ctx).Where("perdet IN ?", perdets).Find(&bidders).Error; err != nil {
		return nil, err
	}
	for _, b := range bidders {
		result[b.Perdet] = b
	}
	return result, nil
}

func (r *BidderRepository) Upsert(ctx context.Context, bidder *domain.Bidder) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "perdet"}},
		DoUpdates: clause.AssignmentColumns([]string{"display_name", "grade", "skill_codes", "cdo_perdet", "updated_at"}),
	}).Create(bidder).Error
}
