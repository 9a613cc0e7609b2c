package service

import (
	"context"
	"fmt"

	"github.com/talentmap/bidding-api/internal/domain"
	"github.com/talentmap/bidding-api/internal/repository"
	"go.uber.org/zap"
)

// PositionSource lists the positions and bid cycles held by the warehouse
type PositionSource interface {
	GetBidCycles(ctx context.Context) ([]domain.BidCycle, error)
	GetPositions(ctx context.Context) ([]domain.Position, error)
}

// PositionSyncService mirrors warehouse positions and bid cycles into the local
// position directory
type PositionSyncService struct {
	source       PositionSource
	cycleRepo    *repository.BidCycleRepository
	positionRepo *repository.PositionRepository
	logger       *zap.Logger
}

// NewPositionSyncService creates a new PositionSyncService instance
func NewPositionSyncService(
	source PositionSource,
	cycleRepo *repository.BidCycleRepository,
	positionRepo *repository.PositionRepository,
	logger *zap.Logger,
) *PositionSyncService {
	return &PositionSyncService{
		source:       source,
		cycleRepo:    cycleRepo,
		positionRepo: positionRepo,
		logger:       logger,
	}
}

// SyncFromWarehouse upserts every bid cycle, then every position. Positions
// whose bid cycle is unknown are skipped.
func (s *PositionSyncService) SyncFromWarehouse(ctx context.Context) (int, int, error) {
	cycles, err := s.source.GetBidCycles(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: failed to read bid cycles: %v", ErrExternalDependency, err)
	}
	if err := s.cycleRepo.UpsertBatch(ctx, cycles); err != nil {
		return 0, 0, fmt.Errorf("failed to store bid cycles: %w", err)
	}

	known := make(map[int64]bool, len(cycles))
	for _, c := range cycles {
		known[c.ID] = true
	}

	positions, err := s.source.GetPositions(ctx)
	if err != nil {
		return len(cycles), 0, fmt.Errorf("%w: failed to read positions: %v", ErrExternalDependency, err)
	}

	kept := positions[:0]
	skipped := 0
	for _, p := range positions {
		if p.CpID == 0 || !known[p.BidCycleID] {
			skipped++
			continue
		}
		kept = append(kept, p)
	}
	if skipped > 0 {
		s.logger.Warn("skipped warehouse positions without a known bid cycle",
			zap.Int("skipped", skipped))
	}

	if err := s.positionRepo.UpsertBatch(ctx, kept); err != nil {
		return len(cycles), 0, fmt.Errorf("failed to store positions: %w", err)
	}
	return len(cycles), len(kept), nil
}
