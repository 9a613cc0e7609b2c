package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/talentmap/bidding-api/internal/auth"
	"github.com/talentmap/bidding-api/internal/domain"
	"github.com/talentmap/bidding-api/internal/events"
	"github.com/talentmap/bidding-api/internal/logger"
	"github.com/talentmap/bidding-api/internal/mapper"
	"github.com/talentmap/bidding-api/internal/repository"
	"github.com/talentmap/bidding-api/internal/telemetry"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ExternalBidSource lists an employee's bids as held outside this service
type ExternalBidSource interface {
	GetUserBids(ctx context.Context, perdet string) ([]domain.ExternalBid, error)
}

// LocalBidSource serves external bid lookups from the local bid table. It is used
// when the personnel warehouse is not configured.
type LocalBidSource struct {
	bidRepo *repository.BidRepository
}

// NewLocalBidSource creates a LocalBidSource
func NewLocalBidSource(bidRepo *repository.BidRepository) *LocalBidSource {
	return &LocalBidSource{bidRepo: bidRepo}
}

// GetUserBids lists the employee's local bids
func (l *LocalBidSource) GetUserBids(ctx context.Context, perdet string) ([]domain.ExternalBid, error) {
	bids, err := l.bidRepo.ListForUser(ctx, perdet, nil)
	if err != nil {
		return nil, err
	}
	result := make([]domain.ExternalBid, len(bids))
	for i, bid := range bids {
		result[i] = domain.ExternalBid{
			CpID:          bid.CpID,
			BidCycleID:    bid.BidCycleID,
			PositionTitle: bid.PositionTitle,
			BureauCode:    bid.BureauCode,
			Status:        string(bid.Status),
		}
	}
	return result, nil
}

// RankingService manages bureau preference orders and their locks
type RankingService struct {
	rankingRepo *repository.RankingRepository
	permissions *PermissionService
	bids        ExternalBidSource
	notifier    *NotificationService
	db          *gorm.DB
	logger      *zap.Logger
}

// NewRankingService creates a new RankingService instance
func NewRankingService(
	rankingRepo *repository.RankingRepository,
	permissions *PermissionService,
	bids ExternalBidSource,
	notifier *NotificationService,
	db *gorm.DB,
	logger *zap.Logger,
) *RankingService {
	return &RankingService{
		rankingRepo: rankingRepo,
		permissions: permissions,
		bids:        bids,
		notifier:    notifier,
		db:          db,
		logger:      logger,
	}
}

// canMutateRanking allows bureau users always and org users only while the
// position's ranking is unlocked
func (s *RankingService) canMutateRanking(ctx context.Context, user *auth.UserContext, cpID int64) error {
	position, err := s.permissions.ResolvePosition(ctx, cpID)
	if err != nil {
		return err
	}

	bureau, err := s.permissions.CanAct(ctx, user, domain.Scope{Kind: domain.ScopeBureau, Code: position.BureauCode})
	if err != nil {
		return err
	}
	if bureau {
		return nil
	}

	locked, err := s.rankingRepo.IsLocked(ctx, cpID)
	if err != nil {
		return fmt.Errorf("failed to check ranking lock: %w", err)
	}
	if locked {
		return ErrPermissionDenied
	}

	org, err := s.permissions.CanAct(ctx, user, domain.Scope{Kind: domain.ScopeOrg, Code: position.OrgCode})
	if err != nil {
		return err
	}
	if !org {
		return ErrPermissionDenied
	}
	return nil
}

// requireBureauOrOrg returns the position when the caller holds either scope on it
func (s *RankingService) requireBureauOrOrg(ctx context.Context, user *auth.UserContext, cpID int64) (*domain.Position, error) {
	position, err := s.permissions.ResolvePosition(ctx, cpID)
	if err != nil {
		return nil, err
	}
	ok, err := s.permissions.CanAct(ctx, user, domain.Scope{Kind: domain.ScopeBureau, Code: position.BureauCode})
	if err != nil {
		return nil, err
	}
	if !ok {
		ok, err = s.permissions.CanAct(ctx, user, domain.Scope{Kind: domain.ScopeOrg, Code: position.OrgCode})
		if err != nil {
			return nil, err
		}
	}
	if !ok {
		return nil, ErrPermissionDenied
	}
	return position, nil
}

// BulkUpsert writes a batch of rank rows for a single position with the caller as
// owner. Empty and mixed-position batches are rejected before any write.
func (s *RankingService) BulkUpsert(ctx context.Context, req []domain.RankingRowRequest) (dtos []domain.RankingDTO, err error) {
	ctx, span := telemetry.StartSpan(ctx, "RankingService.BulkUpsert")
	defer func() { telemetry.EndSpan(span, err) }()

	user, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	if len(req) == 0 {
		return nil, ErrEmptyRankingBatch
	}
	rows := make([]domain.AvailablePositionRanking, len(req))
	for i, r := range req {
		rows[i] = domain.AvailablePositionRanking{
			CpID:         r.CpID,
			BidderPerdet: r.BidderPerdet,
			Rank:         r.Rank,
			UserPerdet:   user.Perdet,
		}
	}
	cpIDs := domain.DistinctCpIDs(rows)
	if len(cpIDs) > 1 {
		return nil, ErrMixedRankingBatch
	}
	if perdet := domain.DuplicateBidder(rows); perdet != "" {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateRankingBidder, perdet)
	}
	cpID := cpIDs[0]

	if err := s.canMutateRanking(ctx, user, cpID); err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.rankingRepo.UpsertBatch(ctx, tx, rows)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save rankings: %w", err)
	}

	logger.FromContext(ctx, s.logger).Info("rankings saved",
		zap.Int64("cp_id", cpID),
		zap.Int("rows", len(rows)),
		zap.String("perdet", user.Perdet))

	saved, err := s.rankingRepo.ListForPosition(ctx, cpID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rankings: %w", err)
	}
	return toRankingDTOs(saved), nil
}

// Delete removes one bidder's rank row, or the whole ranking when bidderPerdet is empty
func (s *RankingService) Delete(ctx context.Context, cpID int64, bidderPerdet string) (err error) {
	ctx, span := telemetry.StartSpan(ctx, "RankingService.Delete")
	defer func() { telemetry.EndSpan(span, err) }()

	user, err := currentUser(ctx)
	if err != nil {
		return err
	}
	if err := s.canMutateRanking(ctx, user, cpID); err != nil {
		return err
	}

	deleted, err := s.rankingRepo.DeleteForPosition(ctx, nil, cpID, bidderPerdet)
	if err != nil {
		return err
	}

	logger.FromContext(ctx, s.logger).Info("rankings deleted",
		zap.Int64("cp_id", cpID),
		zap.String("bidder_perdet", bidderPerdet),
		zap.Int64("rows", deleted))
	return nil
}

// ListForPosition returns the position's ranking in rank order
func (s *RankingService) ListForPosition(ctx context.Context, cpID int64) ([]domain.RankingDTO, error) {
	user, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := s.requireBureauOrOrg(ctx, user, cpID); err != nil {
		return nil, err
	}

	rows, err := s.rankingRepo.ListForPosition(ctx, cpID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rankings: %w", err)
	}
	return toRankingDTOs(rows), nil
}

// Lock freezes the position's ranking for org users. Relocking refreshes the
// codes and is otherwise a no-op.
func (s *RankingService) Lock(ctx context.Context, cpID int64) (err error) {
	ctx, span := telemetry.StartSpan(ctx, "RankingService.Lock")
	defer func() { telemetry.EndSpan(span, err) }()

	user, err := currentUser(ctx)
	if err != nil {
		return err
	}

	position, err := s.permissions.ResolvePosition(ctx, cpID)
	if err != nil {
		return err
	}
	if err := s.permissions.requireScope(ctx, user, domain.Scope{Kind: domain.ScopeBureau, Code: position.BureauCode}); err != nil {
		return err
	}

	lock := &domain.AvailablePositionRankingLock{
		CpID:       cpID,
		BureauCode: position.BureauCode,
		OrgCode:    position.OrgCode,
	}
	if err := s.rankingRepo.UpsertLock(ctx, lock); err != nil {
		return fmt.Errorf("failed to lock ranking: %w", err)
	}

	logger.FromContext(ctx, s.logger).Info("ranking locked",
		zap.Int64("cp_id", cpID),
		zap.String("bureau_code", position.BureauCode),
		zap.String("org_code", position.OrgCode))
	s.notifier.PublishEvent(ctx, events.Event{
		Type:        events.TypeRankingLocked,
		CpID:        cpID,
		BidCycleID:  position.BidCycleID,
		ActorPerdet: user.Perdet,
	})
	return nil
}

// IsLocked reports whether the position's ranking is locked. The caller needs
// bureau or org scope on the position.
func (s *RankingService) IsLocked(ctx context.Context, cpID int64) (bool, error) {
	user, err := currentUser(ctx)
	if err != nil {
		return false, err
	}
	if _, err := s.requireBureauOrOrg(ctx, user, cpID); err != nil {
		return false, err
	}

	locked, err := s.rankingRepo.IsLocked(ctx, cpID)
	if err != nil {
		return false, fmt.Errorf("failed to check ranking lock: %w", err)
	}
	return locked, nil
}

// Unlock deletes the position's ranking rows and its lock in one transaction
func (s *RankingService) Unlock(ctx context.Context, cpID int64) (err error) {
	ctx, span := telemetry.StartSpan(ctx, "RankingService.Unlock")
	defer func() { telemetry.EndSpan(span, err) }()

	user, err := currentUser(ctx)
	if err != nil {
		return err
	}

	position, err := s.permissions.ResolvePosition(ctx, cpID)
	if err != nil {
		return err
	}
	if err := s.permissions.requireScope(ctx, user, domain.Scope{Kind: domain.ScopeBureau, Code: position.BureauCode}); err != nil {
		return err
	}

	var deleted int64
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		n, err := s.rankingRepo.DeleteForPosition(ctx, tx, cpID, "")
		if err != nil {
			return err
		}
		deleted = n
		return s.rankingRepo.DeleteLock(ctx, tx, cpID)
	})
	if err != nil {
		return fmt.Errorf("failed to unlock ranking: %w", err)
	}

	logger.FromContext(ctx, s.logger).Info("ranking unlocked",
		zap.Int64("cp_id", cpID),
		zap.Int64("rows_deleted", deleted))
	s.notifier.PublishEvent(ctx, events.Event{
		Type:        events.TypeRankingUnlocked,
		CpID:        cpID,
		BidCycleID:  position.BidCycleID,
		ActorPerdet: user.Perdet,
	})
	return nil
}

// BidderRankings joins an employee's bids with the local ranks, limited to the
// positions the caller holds bureau or org scope for
func (s *RankingService) BidderRankings(ctx context.Context, perdet string) (result []domain.BidderRankingDTO, err error) {
	ctx, span := telemetry.StartSpan(ctx, "RankingService.BidderRankings")
	defer func() { telemetry.EndSpan(span, err) }()

	user, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	bids, err := s.bids.GetUserBids(ctx, perdet)
	if err != nil {
		logger.FromContext(ctx, s.logger).Error("external bid lookup failed",
			zap.String("perdet", perdet),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrExternalDependency, err)
	}

	ranks, err := s.rankingRepo.MapRanksForBidder(ctx, perdet)
	if err != nil {
		return nil, fmt.Errorf("failed to load ranks: %w", err)
	}

	result = make([]domain.BidderRankingDTO, 0, len(bids))
	for _, bid := range bids {
		if _, err := s.requireBureauOrOrg(ctx, user, bid.CpID); err != nil {
			if errors.Is(err, ErrPermissionDenied) || errors.Is(err, ErrPositionNotFound) {
				continue
			}
			return nil, err
		}
		row := domain.BidderRankingDTO{
			CpID:          bid.CpID,
			BidCycleID:    bid.BidCycleID,
			PositionTitle: bid.PositionTitle,
			BureauCode:    bid.BureauCode,
			Status:        bid.Status,
		}
		if rank, ok := ranks[bid.CpID]; ok {
			r := rank
			row.Rank = &r
		}
		result = append(result, row)
	}
	return result, nil
}

func toRankingDTOs(rows []domain.AvailablePositionRanking) []domain.RankingDTO {
	dtos := make([]domain.RankingDTO, len(rows))
	for i := range rows {
		dtos[i] = mapper.ToRankingDTO(&rows[i])
	}
	return dtos
}
