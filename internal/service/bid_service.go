package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/talentmap/bidding-api/internal/auth"
	"github.com/talentmap/bidding-api/internal/config"
	"github.com/talentmap/bidding-api/internal/domain"
	"github.com/talentmap/bidding-api/internal/logger"
	"github.com/talentmap/bidding-api/internal/mapper"
	"github.com/talentmap/bidding-api/internal/repository"
	"github.com/talentmap/bidding-api/internal/telemetry"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// BidService owns bid status transitions and their business-rule gates.
// Each transition commits in its own transaction and then refreshes statistics
// and emits notifications.
type BidService struct {
	bidRepo     *repository.BidRepository
	cycleRepo   *repository.BidCycleRepository
	permissions *PermissionService
	stats       *StatisticsService
	notifier    *NotificationService
	db          *gorm.DB
	submitLimit int
	logger      *zap.Logger
}

// NewBidService creates a new BidService instance
func NewBidService(
	bidRepo *repository.BidRepository,
	cycleRepo *repository.BidCycleRepository,
	permissions *PermissionService,
	stats *StatisticsService,
	notifier *NotificationService,
	cfg *config.BiddingConfig,
	db *gorm.DB,
	logger *zap.Logger,
) *BidService {
	limit := config.DefaultSubmittedBidLimit
	if cfg != nil && cfg.SubmittedBidLimit > 0 {
		limit = cfg.SubmittedBidLimit
	}
	return &BidService{
		bidRepo:     bidRepo,
		cycleRepo:   cycleRepo,
		permissions: permissions,
		stats:       stats,
		notifier:    notifier,
		db:          db,
		submitLimit: limit,
		logger:      logger,
	}
}

// AddToBidlist creates a draft bid for the caller on a position of an active bid cycle
func (s *BidService) AddToBidlist(ctx context.Context, cpID int64) (bid *domain.Bid, err error) {
	ctx, span := telemetry.StartSpan(ctx, "BidService.AddToBidlist")
	defer func() { telemetry.EndSpan(span, err) }()

	user, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	position, err := s.permissions.ResolvePosition(ctx, cpID)
	if err != nil {
		return nil, err
	}

	cycle, err := s.cycleRepo.GetByID(ctx, position.BidCycleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBidCycleNotFound
		}
		return nil, fmt.Errorf("failed to load bid cycle: %w", err)
	}
	if !cycle.Active {
		return nil, ErrBidCycleInactive
	}

	now := time.Now().UTC()
	bid = &domain.Bid{
		UserPerdet:        user.Perdet,
		CpID:              position.CpID,
		BidCycleID:        position.BidCycleID,
		BureauCode:        position.BureauCode,
		OrgCode:           position.OrgCode,
		PositionTitle:     position.Title,
		PositionGrade:     position.Grade,
		PositionSkillCode: position.SkillCode,
	}
	bid.SetStatus(domain.BidStatusDraft, now)

	if err := s.bidRepo.Create(ctx, nil, bid); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrBidAlreadyExists
		}
		return nil, fmt.Errorf("failed to create bid: %w", err)
	}

	logger.FromContext(ctx, s.logger).Info("bid added to bidlist",
		zap.String("bid_id", bid.ID.String()),
		zap.String("perdet", user.Perdet),
		zap.Int64("cp_id", cpID))

	s.afterTransition(ctx, bid, user, false, nil)
	return bid, nil
}

// Submit moves one of the caller's draft bids to submitted. The caller's bid rows
// are locked while the submission limit and priority guards are evaluated.
func (s *BidService) Submit(ctx context.Context, id uuid.UUID) (bid *domain.Bid, err error) {
	ctx, span := telemetry.StartSpan(ctx, "BidService.Submit")
	defer func() { telemetry.EndSpan(span, err) }()

	user, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		bids, err := s.bidRepo.ListForUserForUpdate(ctx, tx, user.Perdet)
		if err != nil {
			return err
		}
		target := findBid(bids, id)
		if target == nil || !target.Status.CanTransitionTo(domain.BidStatusSubmitted) {
			return ErrBidNotFound
		}
		if domain.CountInStatus(bids, domain.BidStatusSubmitted) >= s.submitLimit {
			return ErrSubmittedLimitReached
		}
		if domain.HoldsPriorityConflict(bids, target) {
			return ErrPriorityBidExists
		}

		target.SetStatus(domain.BidStatusSubmitted, time.Now().UTC())
		if err := s.bidRepo.Update(ctx, tx, target); err != nil {
			return fmt.Errorf("failed to submit bid: %w", err)
		}
		bid = target
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterTransition(ctx, bid, user, false, nil)
	return bid, nil
}

// AcceptHandshake records the bidder's acceptance of an offered handshake. It is
// refused while another bid of the same cycle is a priority bid.
func (s *BidService) AcceptHandshake(ctx context.Context, id uuid.UUID) (bid *domain.Bid, err error) {
	ctx, span := telemetry.StartSpan(ctx, "BidService.AcceptHandshake")
	defer func() { telemetry.EndSpan(span, err) }()

	user, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		bids, err := s.bidRepo.ListForUserForUpdate(ctx, tx, user.Perdet)
		if err != nil {
			return err
		}
		target := findBid(bids, id)
		if target == nil {
			return ErrBidNotFound
		}
		if err := requireTransition(target, domain.BidStatusHandshakeAccepted); err != nil {
			return err
		}
		if domain.HoldsPriorityConflict(bids, target) {
			return ErrPriorityBidExists
		}

		target.SetStatus(domain.BidStatusHandshakeAccepted, time.Now().UTC())
		if err := s.bidRepo.Update(ctx, tx, target); err != nil {
			return fmt.Errorf("failed to accept handshake: %w", err)
		}
		bid = target
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterTransition(ctx, bid, user, false, nil)
	return bid, nil
}

// DeclineHandshake records the bidder's refusal of an offered handshake
func (s *BidService) DeclineHandshake(ctx context.Context, id uuid.UUID) (bid *domain.Bid, err error) {
	ctx, span := telemetry.StartSpan(ctx, "BidService.DeclineHandshake")
	defer func() { telemetry.EndSpan(span, err) }()

	user, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		target, err := s.bidRepo.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBidNotFound
			}
			return fmt.Errorf("failed to load bid: %w", err)
		}
		if target.UserPerdet != user.Perdet {
			return ErrBidNotFound
		}
		if err := requireTransition(target, domain.BidStatusHandshakeDeclined); err != nil {
			return err
		}

		target.SetStatus(domain.BidStatusHandshakeDeclined, time.Now().UTC())
		if err := s.bidRepo.Update(ctx, tx, target); err != nil {
			return fmt.Errorf("failed to decline handshake: %w", err)
		}
		bid = target
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterTransition(ctx, bid, user, false, nil)
	return bid, nil
}

// OfferHandshake moves a submitted bid to handshake_offered. The caller must hold
// the bid's bureau scope.
func (s *BidService) OfferHandshake(ctx context.Context, id uuid.UUID) (*domain.Bid, error) {
	return s.bureauTransition(ctx, "BidService.OfferHandshake", id, func(bid *domain.Bid, now time.Time) error {
		if err := requireTransition(bid, domain.BidStatusHandshakeOffered); err != nil {
			return err
		}
		bid.SetStatus(domain.BidStatusHandshakeOffered, now)
		return nil
	})
}

// SchedulePanel puts an accepted bid in panel or moves its panel date.
// Replacing a different existing date counts as a reschedule.
func (s *BidService) SchedulePanel(ctx context.Context, id uuid.UUID, panelDate time.Time) (*domain.Bid, domain.PanelScheduleEvent, error) {
	if panelDate.IsZero() {
		return nil, "", ErrPanelDateRequired
	}

	var event domain.PanelScheduleEvent
	bid, err := s.bureauTransition(ctx, "BidService.SchedulePanel", id, func(bid *domain.Bid, now time.Time) error {
		if err := requireTransition(bid, domain.BidStatusInPanel); err != nil {
			return err
		}
		event = bid.SchedulePanel(panelDate.UTC(), now)
		return nil
	})
	if err != nil {
		return nil, "", err
	}

	logger.FromContext(ctx, s.logger).Info("panel date set",
		zap.String("bid_id", bid.ID.String()),
		zap.String("event", string(event)),
		zap.Int("reschedule_count", bid.PanelRescheduleCount))
	return bid, event, nil
}

// Approve records the panel's approval of a bid in panel
func (s *BidService) Approve(ctx context.Context, id uuid.UUID) (*domain.Bid, error) {
	return s.bureauTransition(ctx, "BidService.Approve", id, func(bid *domain.Bid, now time.Time) error {
		if err := requireTransition(bid, domain.BidStatusApproved); err != nil {
			return err
		}
		bid.SetStatus(domain.BidStatusApproved, now)
		return nil
	})
}

// Decline records the bureau's rejection of a bid in any status
func (s *BidService) Decline(ctx context.Context, id uuid.UUID) (*domain.Bid, error) {
	return s.bureauTransition(ctx, "BidService.Decline", id, func(bid *domain.Bid, now time.Time) error {
		bid.SetStatus(domain.BidStatusDeclined, now)
		return nil
	})
}

// bureauTransition runs an AO transition: the bid must exist, the caller must hold
// the bid's bureau scope, and apply decides the new state under a row lock.
func (s *BidService) bureauTransition(ctx context.Context, name string, id uuid.UUID, apply func(bid *domain.Bid, now time.Time) error) (bid *domain.Bid, err error) {
	ctx, span := telemetry.StartSpan(ctx, name)
	defer func() { telemetry.EndSpan(span, err) }()

	user, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	existing, err := s.bidRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBidNotFound
		}
		return nil, fmt.Errorf("failed to load bid: %w", err)
	}
	if err := s.permissions.requireScope(ctx, user, domain.Scope{Kind: domain.ScopeBureau, Code: existing.BureauCode}); err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		target, err := s.bidRepo.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBidNotFound
			}
			return fmt.Errorf("failed to load bid: %w", err)
		}
		if err := apply(target, time.Now().UTC()); err != nil {
			return err
		}
		if user.Perdet != auth.SystemPerdet {
			reviewer := user.Perdet
			target.ReviewerPerdet = &reviewer
		}
		if err := s.bidRepo.Update(ctx, tx, target); err != nil {
			return fmt.Errorf("failed to update bid: %w", err)
		}
		bid = target
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterTransition(ctx, bid, user, false, bid.ScheduledPanelDate)
	return bid, nil
}

// Close ends a bid. The owner may delete a draft or submitted bid before the
// cycle deadline; the bidder's CDO may close a bid in any status at any time.
// It returns true when the bid row was deleted rather than closed.
func (s *BidService) Close(ctx context.Context, id uuid.UUID) (deleted bool, err error) {
	ctx, span := telemetry.StartSpan(ctx, "BidService.Close")
	defer func() { telemetry.EndSpan(span, err) }()

	user, err := currentUser(ctx)
	if err != nil {
		return false, err
	}

	bid, err := s.bidRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, ErrBidNotFound
		}
		return false, fmt.Errorf("failed to load bid: %w", err)
	}

	if bid.UserPerdet == user.Perdet {
		if err := s.deleteOwnBid(ctx, bid); err != nil {
			return false, err
		}
		logger.FromContext(ctx, s.logger).Info("bid deleted by owner",
			zap.String("bid_id", id.String()),
			zap.String("perdet", user.Perdet))
		bid.SetStatus(domain.BidStatusClosed, time.Now().UTC())
		s.afterTransition(ctx, bid, user, false, nil)
		return true, nil
	}

	isCDO, err := s.permissions.IsCDOFor(ctx, user, bid.UserPerdet)
	if err != nil {
		return false, err
	}
	if !isCDO {
		return false, ErrPermissionDenied
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		target, err := s.bidRepo.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBidNotFound
			}
			return fmt.Errorf("failed to load bid: %w", err)
		}
		target.SetStatus(domain.BidStatusClosed, time.Now().UTC())
		if err := s.bidRepo.Update(ctx, tx, target); err != nil {
			return fmt.Errorf("failed to close bid: %w", err)
		}
		bid = target
		return nil
	})
	if err != nil {
		return false, err
	}

	logger.FromContext(ctx, s.logger).Info("bid closed by CDO",
		zap.String("bid_id", id.String()),
		zap.String("cdo_perdet", user.Perdet),
		zap.String("bidder_perdet", bid.UserPerdet))
	s.afterTransition(ctx, bid, user, true, nil)
	return false, nil
}

func (s *BidService) deleteOwnBid(ctx context.Context, bid *domain.Bid) error {
	if bid.Status != domain.BidStatusDraft && bid.Status != domain.BidStatusSubmitted {
		return ErrBidNotOwnerClosable
	}

	cycle, err := s.cycleRepo.GetByID(ctx, bid.BidCycleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrBidCycleNotFound
		}
		return fmt.Errorf("failed to load bid cycle: %w", err)
	}
	if !cycle.AcceptsOwnerChanges(time.Now().UTC()) {
		return ErrCycleDeadlinePassed
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		target, err := s.bidRepo.GetByIDForUpdate(ctx, tx, bid.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBidNotFound
			}
			return fmt.Errorf("failed to load bid: %w", err)
		}
		if target.Status != domain.BidStatusDraft && target.Status != domain.BidStatusSubmitted {
			return ErrBidNotOwnerClosable
		}
		if err := s.bidRepo.Delete(ctx, tx, target.ID); err != nil {
			return fmt.Errorf("failed to delete bid: %w", err)
		}
		return nil
	})
}

// GetByID returns a bid visible to the caller: its owner, the owner's CDO or an
// AO holding the bid's bureau scope
func (s *BidService) GetByID(ctx context.Context, id uuid.UUID) (*domain.BidDTO, error) {
	user, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	bid, err := s.bidRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBidNotFound
		}
		return nil, fmt.Errorf("failed to get bid: %w", err)
	}

	if bid.UserPerdet != user.Perdet {
		allowed, err := s.permissions.IsCDOFor(ctx, user, bid.UserPerdet)
		if err != nil {
			return nil, err
		}
		if !allowed {
			allowed, err = s.permissions.CanAct(ctx, user, domain.Scope{Kind: domain.ScopeBureau, Code: bid.BureauCode})
			if err != nil {
				return nil, err
			}
		}
		if !allowed {
			return nil, ErrPermissionDenied
		}
	}

	dto := mapper.ToBidDTO(bid)
	return &dto, nil
}

// ListMine returns the caller's bids, optionally limited to one bid cycle
func (s *BidService) ListMine(ctx context.Context, bidCycleID *int64) ([]domain.BidDTO, error) {
	user, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	bids, err := s.bidRepo.ListForUser(ctx, user.Perdet, bidCycleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bids: %w", err)
	}

	dtos := make([]domain.BidDTO, len(bids))
	for i := range bids {
		dtos[i] = mapper.ToBidDTO(&bids[i])
	}
	return dtos, nil
}

// afterTransition refreshes the statistics touched by the bid and notifies the
// affected users. Neither step can fail the committed transition.
func (s *BidService) afterTransition(ctx context.Context, bid *domain.Bid, actor *auth.UserContext, actedAsCDO bool, date *time.Time) {
	logger.FromContext(ctx, s.logger).Debug("bid transition committed",
		zap.String("bid_id", bid.ID.String()),
		zap.String("status", string(bid.Status)),
		zap.Int64("cp_id", bid.CpID))
	s.stats.Refresh(ctx, bid.BidCycleID, bid.CpID, bid.UserPerdet)
	s.notifier.Emit(ctx, domain.Transition{
		Entity:        domain.EntityBid,
		Status:        string(bid.Status),
		CpID:          bid.CpID,
		BidCycleID:    bid.BidCycleID,
		OwnerPerdet:   bid.UserPerdet,
		ActorPerdet:   actor.Perdet,
		ActedAsCDO:    actedAsCDO,
		PositionTitle: bid.PositionTitle,
		Date:          date,
		Templates:     domain.BidMessageTemplates,
	})
}

// requireTransition returns ErrBidWrongStatus unless bid may move to next
func requireTransition(bid *domain.Bid, next domain.BidStatus) error {
	if !bid.Status.CanTransitionTo(next) {
		return ErrBidWrongStatus
	}
	return nil
}

func findBid(bids []domain.Bid, id uuid.UUID) *domain.Bid {
	for i := range bids {
		if bids[i].ID == id {
			return &bids[i]
		}
	}
	return nil
}
