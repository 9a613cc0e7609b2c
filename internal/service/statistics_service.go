package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/talentmap/bidding-api/internal/domain"
	"github.com/talentmap/bidding-api/internal/mapper"
	"github.com/talentmap/bidding-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// StatisticsService maintains the bid aggregates by full recomputation
type StatisticsService struct {
	bidRepo     *repository.BidRepository
	bidderRepo  *repository.BidderRepository
	cycleRepo   *repository.BidCycleRepository
	statsRepo   *repository.StatisticsRepository
	permissions *PermissionService
	logger      *zap.Logger
}

// NewStatisticsService creates a new StatisticsService instance
func NewStatisticsService(
	bidRepo *repository.BidRepository,
	bidderRepo *repository.BidderRepository,
	cycleRepo *repository.BidCycleRepository,
	statsRepo *repository.StatisticsRepository,
	permissions *PermissionService,
	logger *zap.Logger,
) *StatisticsService {
	return &StatisticsService{
		bidRepo:     bidRepo,
		bidderRepo:  bidderRepo,
		cycleRepo:   cycleRepo,
		statsRepo:   statsRepo,
		permissions: permissions,
		logger:      logger,
	}
}

// RecomputePosition re-derives the (cycle, position) aggregate from the current bids
func (s *StatisticsService) RecomputePosition(ctx context.Context, bidCycleID, cpID int64) error {
	bids, err := s.bidRepo.ListForPosition(ctx, bidCycleID, cpID)
	if err != nil {
		return fmt.Errorf("failed to load bids for position: %w", err)
	}

	perdets := make([]string, 0, len(bids))
	for _, bid := range bids {
		perdets = append(perdets, bid.UserPerdet)
	}
	bidders, err := s.bidderRepo.MapByPerdets(ctx, perdets)
	if err != nil {
		return fmt.Errorf("failed to load bidders: %w", err)
	}

	stats := domain.ComputePositionStatistics(bidCycleID, cpID, bids, bidders)
	if err := s.statsRepo.SavePosition(ctx, &stats); err != nil {
		return fmt.Errorf("failed to save position statistics: %w", err)
	}
	return nil
}

// RecomputeUser re-derives the (cycle, bidder) aggregate from the current bids
func (s *StatisticsService) RecomputeUser(ctx context.Context, bidCycleID int64, perdet string) error {
	bids, err := s.bidRepo.ListForUserInCycle(ctx, bidCycleID, perdet)
	if err != nil {
		return fmt.Errorf("failed to load bids for user: %w", err)
	}

	stats := domain.ComputeUserStatistics(bidCycleID, perdet, bids)
	if err := s.statsRepo.SaveUser(ctx, &stats); err != nil {
		return fmt.Errorf("failed to save user statistics: %w", err)
	}
	return nil
}

// Refresh recomputes both aggregates touched by a bid change. Failures are
// logged and swallowed; the read model may lag until the next refresh.
func (s *StatisticsService) Refresh(ctx context.Context, bidCycleID, cpID int64, perdet string) {
	if err := s.RecomputePosition(ctx, bidCycleID, cpID); err != nil {
		s.logger.Warn("failed to refresh position statistics",
			zap.Int64("bid_cycle_id", bidCycleID),
			zap.Int64("cp_id", cpID),
			zap.Error(err))
	}
	if err := s.RecomputeUser(ctx, bidCycleID, perdet); err != nil {
		s.logger.Warn("failed to refresh user statistics",
			zap.Int64("bid_cycle_id", bidCycleID),
			zap.String("perdet", perdet),
			zap.Error(err))
	}
}

// ReconcileActiveCycles recomputes every aggregate of the active bid cycles.
// It returns the number of aggregates that failed.
func (s *StatisticsService) ReconcileActiveCycles(ctx context.Context) (int, error) {
	cycleIDs, err := s.cycleRepo.ListActiveIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list active bid cycles: %w", err)
	}

	positions, users, err := s.bidRepo.ListStatisticsKeys(ctx, cycleIDs)
	if err != nil {
		return 0, err
	}

	failed := 0
	for _, key := range positions {
		if err := ctx.Err(); err != nil {
			return failed, err
		}
		if err := s.RecomputePosition(ctx, key.BidCycleID, key.CpID); err != nil {
			failed++
			s.logger.Warn("failed to reconcile position statistics",
				zap.Int64("bid_cycle_id", key.BidCycleID),
				zap.Int64("cp_id", key.CpID),
				zap.Error(err))
		}
	}
	for _, key := range users {
		if err := ctx.Err(); err != nil {
			return failed, err
		}
		if err := s.RecomputeUser(ctx, key.BidCycleID, key.UserPerdet); err != nil {
			failed++
			s.logger.Warn("failed to reconcile user statistics",
				zap.Int64("bid_cycle_id", key.BidCycleID),
				zap.String("perdet", key.UserPerdet),
				zap.Error(err))
		}
	}

	s.logger.Info("statistics reconciled",
		zap.Int("cycles", len(cycleIDs)),
		zap.Int("positions", len(positions)),
		zap.Int("users", len(users)),
		zap.Int("failed", failed))
	return failed, nil
}

// GetPositionStatistics returns the stored position aggregate. The caller needs
// bureau or org permission on the position.
func (s *StatisticsService) GetPositionStatistics(ctx context.Context, bidCycleID, cpID int64) (*domain.PositionStatisticsDTO, error) {
	user, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	allowed, err := s.permissions.HasBureauPermission(ctx, user, cpID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		if allowed, err = s.permissions.HasOrgPermission(ctx, user, cpID); err != nil {
			return nil, err
		}
	}
	if !allowed {
		return nil, ErrPermissionDenied
	}

	stats, err := s.statsRepo.GetPosition(ctx, bidCycleID, cpID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStatisticsNotFound
		}
		return nil, err
	}
	dto := mapper.ToPositionStatisticsDTO(stats)
	return &dto, nil
}

// GetUserStatistics returns the stored bidder aggregate to the bidder or their CDO
func (s *StatisticsService) GetUserStatistics(ctx context.Context, bidCycleID int64, perdet string) (*domain.UserStatisticsDTO, error) {
	user, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	if user.Perdet != perdet {
		if err := s.permissions.requireScope(ctx, user, domain.Scope{Kind: domain.ScopeCDO, Code: perdet}); err != nil {
			return nil, err
		}
	}

	stats, err := s.statsRepo.GetUser(ctx, bidCycleID, perdet)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStatisticsNotFound
		}
		return nil, err
	}
	dto := mapper.ToUserStatisticsDTO(stats)
	return &dto, nil
}
