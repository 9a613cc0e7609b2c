package repository

import (
	"context"

	"github.com/talentmap/bidding-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AccessGrantRepository stores the capability grants behind permission checks
type AccessGrantRepository struct {
	db *gorm.DB
}

func NewAccessGrantRepository(db *gorm.DB) *AccessGrantRepository {
	return &AccessGrantRepository{db: db}
}

// HasGrant reports whether perdet holds a grant on scope
func (r *AccessGrantRepository) HasGrant(ctx context.Context, perdet string, scope domain.Scope) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.AccessGrant{}).
		Where("perdet = ? AND scope_kind = ? AND scope_code = ?", perdet, scope.Kind, scope.Code).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *AccessGrantRepository) ListByPerdet(ctx context.Context, perdet string) ([]domain.AccessGrant, error) {
	var grants []domain.AccessGrant
	err := r.db.WithContext(ctx).Where("perdet = ?", perdet).Order("scope_kind, scope_code").Find(&grants).Error
	return grants, err
}

// Grant adds a grant; granting an existing scope is a no-op
func (r *AccessGrantRepository) Grant(ctx context.Context, perdet string, scope domain.Scope) error {
	grant := domain.AccessGrant{Perdet: perdet, ScopeKind: scope.Kind, ScopeCode: scope.Code}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "perdet"}, {Name: "scope_kind"}, {Name: "scope_code"}},
		DoNothing: true,
	}).Create(&grant).Error
}

func (r *AccessGrantRepository) Revoke(ctx context.Context, perdet string, scope domain.Scope) error {
	return r.db.WithContext(ctx).
		Where("perdet = ? AND scope_kind = ? AND scope_code = ?", perdet, scope.Kind, scope.Code).
		Delete(&domain.AccessGrant{}).Error
}
