package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/talentmap/bidding-api/internal/domain"
	"gorm.io/gorm"
)

type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(ctx context.Context, notification *domain.Notification) error {
	return r.db.WithContext(ctx).Create(notification).Error
}

func (r *NotificationRepository) ListByOwner(ctx context.Context, ownerPerdet string, page, pageSize int, unreadOnly bool) ([]domain.Notification, int64, error) {
	var notifications []domain.Notification
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.Notification{}).Where("owner_perdet = ?", ownerPerdet)
	if unreadOnly {
		query = query.Where("read = ?", false)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Offset(offset).Limit(pageSize).Order("created_at DESC").Find(&notifications).Error
	return notifications, total, err
}

// MarkAsRead marks one of the owner's notifications read
func (r *NotificationRepository) MarkAsRead(ctx context.Context, id uuid.UUID, ownerPerdet string) error {
	result := r.db.WithContext(ctx).
		Model(&domain.Notification{}).
		Where("id = ? AND owner_perdet = ?", id, ownerPerdet).
		Updates(map[string]interface{}{
			"read":    true,
			"read_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *NotificationRepository) MarkAllAsRead(ctx context.Context, ownerPerdet string) error {
	return r.db.WithContext(ctx).
		Model(&domain.Notification{}).
		Where("owner_perdet = ? AND read = ?", ownerPerdet, false).
		Updates(map[string]interface{}{
			"read":    true,
			"read_at": time.Now().UTC(),
		}).Error
}

func (r *NotificationRepository) CountUnread(ctx context.Context, ownerPerdet string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.Notification{}).
		Where("owner_perdet = ? AND read = ?", ownerPerdet, false).
		Count(&count).Error
	return count, err
}
