package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/talentmap/bidding-api/internal/auth"
	"github.com/talentmap/bidding-api/internal/domain"
	"github.com/talentmap/bidding-api/internal/logger"
	"github.com/talentmap/bidding-api/internal/mapper"
	"github.com/talentmap/bidding-api/internal/repository"
	"github.com/talentmap/bidding-api/internal/telemetry"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// HandshakeService runs the per-position handshake negotiation between a bureau,
// a bidder and the bidder's CDO. At most one handshake per position is live
// (not revoked) at any time.
type HandshakeService struct {
	handshakeRepo *repository.HandshakeRepository
	permissions   *PermissionService
	notifier      *NotificationService
	db            *gorm.DB
	logger        *zap.Logger
}

// NewHandshakeService creates a new HandshakeService instance
func NewHandshakeService(
	handshakeRepo *repository.HandshakeRepository,
	permissions *PermissionService,
	notifier *NotificationService,
	db *gorm.DB,
	logger *zap.Logger,
) *HandshakeService {
	return &HandshakeService{
		handshakeRepo: handshakeRepo,
		permissions:   permissions,
		notifier:      notifier,
		db:            db,
		logger:        logger,
	}
}

// Offer makes the caller's bureau offer for cpID to bidderPerdet. Every other live
// offer on the position is revoked in the same transaction.
func (s *HandshakeService) Offer(ctx context.Context, cpID int64, bidderPerdet string, expiration *time.Time) (hs *domain.BidHandshake, err error) {
	ctx, span := telemetry.StartSpan(ctx, "HandshakeService.Offer")
	defer func() { telemetry.EndSpan(span, err) }()

	user, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	position, err := s.requireBureau(ctx, user, cpID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if expiration != nil {
		if expiration.Before(now) {
			return nil, ErrExpirationInPast
		}
		utc := expiration.UTC()
		expiration = &utc
	}

	var revoked int64
	hs, revoked, err = s.offer(ctx, position, bidderPerdet, user.Perdet, expiration, now)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// A concurrent first offer on the position won the partial unique index.
		logger.FromContext(ctx, s.logger).Info("handshake offer conflicted, retrying",
			zap.Int64("cp_id", cpID),
			zap.String("bidder_perdet", bidderPerdet))
		hs, revoked, err = s.offer(ctx, position, bidderPerdet, user.Perdet, expiration, now)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrHandshakeOfferConflict
		}
		return nil, err
	}

	logger.FromContext(ctx, s.logger).Info("handshake offered",
		zap.Int64("cp_id", cpID),
		zap.String("bidder_perdet", bidderPerdet),
		zap.String("bureau_perdet", user.Perdet),
		zap.Int64("revoked", revoked))

	s.emit(ctx, hs, position, user, false)
	return hs, nil
}

func (s *HandshakeService) offer(ctx context.Context, position *domain.Position, bidderPerdet, ownerPerdet string, expiration *time.Time, now time.Time) (*domain.BidHandshake, int64, error) {
	var (
		hs      *domain.BidHandshake
		revoked int64
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.handshakeRepo.LockPosition(ctx, tx, position.CpID)
		if err != nil {
			return err
		}

		revoked, err = s.handshakeRepo.RevokeCompeting(ctx, tx, position.CpID, bidderPerdet, ownerPerdet, now)
		if err != nil {
			return err
		}

		hs = &domain.BidHandshake{CpID: position.CpID, BidderPerdet: bidderPerdet}
		for i := range existing {
			if existing[i].BidderPerdet == bidderPerdet {
				hs = &existing[i]
				break
			}
		}
		hs.Offer(ownerPerdet, position.BidCycleID, expiration, now)

		if err := s.handshakeRepo.Save(ctx, tx, hs); err != nil {
			return fmt.Errorf("failed to save handshake: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return hs, revoked, nil
}

// Revoke withdraws the bureau's offer to bidderPerdet
func (s *HandshakeService) Revoke(ctx context.Context, cpID int64, bidderPerdet string) (hs *domain.BidHandshake, err error) {
	ctx, span := telemetry.StartSpan(ctx, "HandshakeService.Revoke")
	defer func() { telemetry.EndSpan(span, err) }()

	user, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	position, err := s.requireBureau(ctx, user, cpID)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		hs, err = s.lockHandshake(ctx, tx, cpID, bidderPerdet)
		if err != nil {
			return err
		}
		hs.Revoke(user.Perdet, time.Now().UTC())
		return s.handshakeRepo.Save(ctx, tx, hs)
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx, s.logger).Info("handshake revoked",
		zap.Int64("cp_id", cpID),
		zap.String("bidder_perdet", bidderPerdet),
		zap.String("bureau_perdet", user.Perdet))

	s.emit(ctx, hs, position, user, false)
	return hs, nil
}

// RespondAsBidder records the caller's own answer to the offer on cpID
func (s *HandshakeService) RespondAsBidder(ctx context.Context, cpID int64, accept bool) (*domain.BidHandshake, error) {
	user, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	return s.respond(ctx, user, cpID, user.Perdet, domain.PartyBidder, accept)
}

// RespondAsCDO records an answer given by the caller on behalf of a bidder they counsel
func (s *HandshakeService) RespondAsCDO(ctx context.Context, cpID int64, bidderPerdet string, accept bool) (*domain.BidHandshake, error) {
	user, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	return s.respond(ctx, user, cpID, bidderPerdet, domain.PartyCDO, accept)
}

func (s *HandshakeService) respond(ctx context.Context, user *auth.UserContext, cpID int64, bidderPerdet string, party domain.HandshakeParty, accept bool) (hs *domain.BidHandshake, err error) {
	ctx, span := telemetry.StartSpan(ctx, "HandshakeService.Respond")
	defer func() { telemetry.EndSpan(span, err) }()

	if party == domain.PartyCDO {
		isCDO, err := s.permissions.IsCDOFor(ctx, user, bidderPerdet)
		if err != nil {
			return nil, err
		}
		if !isCDO {
			return nil, ErrPermissionDenied
		}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		hs, err = s.lockHandshake(ctx, tx, cpID, bidderPerdet)
		if err != nil {
			return err
		}
		if !hs.IsActive() {
			return ErrHandshakeRevoked
		}
		hs.Respond(party, accept, user.Perdet, time.Now().UTC())
		return s.handshakeRepo.Save(ctx, tx, hs)
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx, s.logger).Info("handshake answered",
		zap.Int64("cp_id", cpID),
		zap.String("bidder_perdet", bidderPerdet),
		zap.String("state", string(hs.State)),
		zap.String("by", user.Perdet))

	position, err := s.permissions.ResolvePosition(ctx, cpID)
	if err != nil {
		logger.FromContext(ctx, s.logger).Warn("position lookup failed after handshake answer",
			zap.Int64("cp_id", cpID),
			zap.Error(err))
		position = &domain.Position{CpID: cpID, BidCycleID: hs.BidCycleID}
	}
	s.emit(ctx, hs, position, user, party == domain.PartyCDO)
	return hs, nil
}

func (s *HandshakeService) lockHandshake(ctx context.Context, tx *gorm.DB, cpID int64, bidderPerdet string) (*domain.BidHandshake, error) {
	hs, err := s.handshakeRepo.GetForUpdate(ctx, tx, cpID, bidderPerdet)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrHandshakeNotFound
		}
		return nil, fmt.Errorf("failed to load handshake: %w", err)
	}
	return hs, nil
}

func (s *HandshakeService) requireBureau(ctx context.Context, user *auth.UserContext, cpID int64) (*domain.Position, error) {
	position, err := s.permissions.ResolvePosition(ctx, cpID)
	if err != nil {
		return nil, err
	}
	if err := s.permissions.requireScope(ctx, user, domain.Scope{Kind: domain.ScopeBureau, Code: position.BureauCode}); err != nil {
		return nil, err
	}
	return position, nil
}

// PositionHandshake names the bidder holding the live handshake on cpID, if any
func (s *HandshakeService) PositionHandshake(ctx context.Context, cpID int64) (*domain.PositionHandshakeDTO, error) {
	dto := &domain.PositionHandshakeDTO{CpID: cpID}
	hs, err := s.handshakeRepo.GetActiveForPosition(ctx, cpID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto, nil
		}
		return nil, fmt.Errorf("failed to get position handshake: %w", err)
	}
	bidder := hs.BidderPerdet
	dto.BidderPerdet = &bidder
	return dto, nil
}

// LeadHandshake summarises the most recently updated handshake on cpID
func (s *HandshakeService) LeadHandshake(ctx context.Context, cpID int64) (*domain.HandshakeView, error) {
	handshakes, err := s.handshakeRepo.ListForPosition(ctx, cpID)
	if err != nil {
		return nil, fmt.Errorf("failed to list handshakes: %w", err)
	}
	lead := domain.MostRecentlyUpdated(handshakes)
	if lead == nil {
		return nil, ErrHandshakeNotFound
	}
	view := mapper.ToHandshakeView(lead)
	return &view, nil
}

// BidderHandshake summarises the handshake offered to bidderPerdet on cpID
func (s *HandshakeService) BidderHandshake(ctx context.Context, cpID int64, bidderPerdet string) (*domain.HandshakeView, error) {
	hs, err := s.handshakeRepo.Get(ctx, nil, cpID, bidderPerdet)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrHandshakeNotFound
		}
		return nil, fmt.Errorf("failed to get handshake: %w", err)
	}
	view := mapper.ToHandshakeView(hs)
	return &view, nil
}

// ListForPosition returns every handshake recorded on cpID. The caller must hold
// the position's bureau scope.
func (s *HandshakeService) ListForPosition(ctx context.Context, cpID int64) ([]domain.HandshakeDTO, error) {
	user, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := s.requireBureau(ctx, user, cpID); err != nil {
		return nil, err
	}

	handshakes, err := s.handshakeRepo.ListForPosition(ctx, cpID)
	if err != nil {
		return nil, fmt.Errorf("failed to list handshakes: %w", err)
	}
	dtos := make([]domain.HandshakeDTO, len(handshakes))
	for i := range handshakes {
		dtos[i] = mapper.ToHandshakeDTO(&handshakes[i])
	}
	return dtos, nil
}

// ListMine returns the handshakes offered to the caller
func (s *HandshakeService) ListMine(ctx context.Context) ([]domain.HandshakeDTO, error) {
	user, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	handshakes, err := s.handshakeRepo.ListForBidder(ctx, user.Perdet)
	if err != nil {
		return nil, fmt.Errorf("failed to list handshakes: %w", err)
	}
	dtos := make([]domain.HandshakeDTO, len(handshakes))
	for i := range handshakes {
		dtos[i] = mapper.ToHandshakeDTO(&handshakes[i])
	}
	return dtos, nil
}

func (s *HandshakeService) emit(ctx context.Context, hs *domain.BidHandshake, position *domain.Position, actor *auth.UserContext, actedAsCDO bool) {
	bureau := ""
	if actor.Perdet != hs.OwnerPerdet {
		bureau = hs.OwnerPerdet
	}
	s.notifier.Emit(ctx, domain.Transition{
		Entity:        domain.EntityHandshake,
		Status:        hs.NotificationStatus(),
		CpID:          hs.CpID,
		BidCycleID:    hs.BidCycleID,
		OwnerPerdet:   hs.BidderPerdet,
		BureauPerdet:  bureau,
		ActorPerdet:   actor.Perdet,
		ActedAsCDO:    actedAsCDO,
		PositionTitle: position.Title,
		Date:          hs.ExpirationDate,
		Templates:     domain.HandshakeMessageTemplates,
	})
}
