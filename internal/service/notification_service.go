package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/talentmap/bidding-api/internal/domain"
	"github.com/talentmap/bidding-api/internal/events"
	"github.com/talentmap/bidding-api/internal/mapper"
	"github.com/talentmap/bidding-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// NotificationService fans transition messages out to the affected users and
// publishes transition events
type NotificationService struct {
	notificationRepo *repository.NotificationRepository
	bidRepo          *repository.BidRepository
	bidderRepo       *repository.BidderRepository
	publisher        events.Publisher
	logger           *zap.Logger
}

// NewNotificationService creates a new NotificationService instance.
// A nil publisher disables event publishing.
func NewNotificationService(
	notificationRepo *repository.NotificationRepository,
	bidRepo *repository.BidRepository,
	bidderRepo *repository.BidderRepository,
	publisher events.Publisher,
	logger *zap.Logger,
) *NotificationService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &NotificationService{
		notificationRepo: notificationRepo,
		bidRepo:          bidRepo,
		bidderRepo:       bidderRepo,
		publisher:        publisher,
		logger:           logger,
	}
}

// Emit sends every message the transition's templates define and publishes the
// transition event. Delivery failures are logged and never fail the caller.
func (s *NotificationService) Emit(ctx context.Context, t domain.Transition) {
	sent, failed := 0, 0
	send := func(owner, key string) {
		template, ok := t.Templates[key]
		if !ok || owner == "" {
			return
		}
		if err := s.create(ctx, owner, t.Render(template), t.Tags()); err != nil {
			failed++
			s.logger.Warn("failed to create notification",
				zap.String("owner", owner),
				zap.String("key", key),
				zap.Error(err))
			return
		}
		sent++
	}

	owner := s.ownerProfile(ctx, t.OwnerPerdet)
	if t.BidderName == "" {
		t.BidderName = owner.DisplayName
	}

	send(t.OwnerPerdet, domain.Key(t.Status, domain.RecipientOwner))

	if _, ok := t.Templates[domain.Key(t.Status, domain.RecipientOther)]; ok {
		others, err := s.bidRepo.ListOtherBidders(ctx, t.BidCycleID, t.CpID, t.OwnerPerdet)
		if err != nil {
			s.logger.Warn("failed to list other bidders",
				zap.Int64("cp_id", t.CpID),
				zap.Error(err))
		}
		for _, other := range others {
			send(other, domain.Key(t.Status, domain.RecipientOther))
		}
	}

	if _, ok := t.Templates[domain.Key(t.Status, domain.RecipientCDO)]; ok {
		if owner.CDOPerdet != t.ActorPerdet {
			send(owner.CDOPerdet, domain.Key(t.Status, domain.RecipientCDO))
		}
	}

	if t.BureauPerdet != t.ActorPerdet {
		send(t.BureauPerdet, domain.Key(t.Status, domain.RecipientBureau))
	}

	if t.ActedAsCDO {
		send(t.OwnerPerdet, domain.RequestedCDOKey)
	}

	s.publish(ctx, t)

	s.logger.Debug("transition notifications emitted",
		zap.String("entity", t.Entity),
		zap.String("status", t.Status),
		zap.Int64("cp_id", t.CpID),
		zap.Int("sent", sent),
		zap.Int("failed", failed))
}

func (s *NotificationService) create(ctx context.Context, owner, message string, tags []string) error {
	return s.notificationRepo.Create(ctx, &domain.Notification{
		OwnerPerdet: owner,
		Message:     message,
		Tags:        tags,
	})
}

// ownerProfile loads the owner's bidder profile. A missing or unreadable profile
// yields an empty one, which only suppresses the CDO message.
func (s *NotificationService) ownerProfile(ctx context.Context, perdet string) domain.Bidder {
	bidder, err := s.bidderRepo.GetByPerdet(ctx, perdet)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn("failed to load owner profile",
				zap.String("owner", perdet),
				zap.Error(err))
		}
		return domain.Bidder{Perdet: perdet}
	}
	return *bidder
}

func (s *NotificationService) publish(ctx context.Context, t domain.Transition) {
	eventType := events.TypeBidTransition
	if t.Entity == domain.EntityHandshake {
		eventType = events.TypeHandshakeTransition
	}
	s.PublishEvent(ctx, events.Event{
		Type:        eventType,
		Status:      t.Status,
		CpID:        t.CpID,
		BidCycleID:  t.BidCycleID,
		Perdet:      t.OwnerPerdet,
		ActorPerdet: t.ActorPerdet,
	})
}

// PublishEvent publishes an event, logging failures
func (s *NotificationService) PublishEvent(ctx context.Context, event events.Event) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish event",
			zap.String("event_type", event.Type),
			zap.Int64("cp_id", event.CpID),
			zap.Error(err))
	}
}

// ListForCurrentUser returns a page of the caller's notifications
func (s *NotificationService) ListForCurrentUser(ctx context.Context, page, pageSize int, unreadOnly bool) (*domain.PaginatedResponse, error) {
	user, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	notifications, total, err := s.notificationRepo.ListByOwner(ctx, user.Perdet, page, pageSize, unreadOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	dtos := make([]domain.NotificationDTO, len(notifications))
	for i := range notifications {
		dtos[i] = mapper.ToNotificationDTO(&notifications[i])
	}
	return &domain.PaginatedResponse{Data: dtos, Total: total, Page: page, PageSize: pageSize}, nil
}

// MarkAsRead marks one of the caller's notifications read
func (s *NotificationService) MarkAsRead(ctx context.Context, id uuid.UUID) error {
	user, err := currentUser(ctx)
	if err != nil {
		return err
	}
	if err := s.notificationRepo.MarkAsRead(ctx, id, user.Perdet); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotificationNotFound
		}
		return fmt.Errorf("failed to mark notification as read: %w", err)
	}
	return nil
}

// MarkAllAsRead marks every unread notification of the caller read
func (s *NotificationService) MarkAllAsRead(ctx context.Context) error {
	user, err := currentUser(ctx)
	if err != nil {
		return err
	}
	return s.notificationRepo.MarkAllAsRead(ctx, user.Perdet)
}

// CountUnread counts the caller's unread notifications
func (s *NotificationService) CountUnread(ctx context.Context) (int64, error) {
	user, err := currentUser(ctx)
	if err != nil {
		return 0, err
	}
	return s.notificationRepo.CountUnread(ctx, user.Perdet)
}
