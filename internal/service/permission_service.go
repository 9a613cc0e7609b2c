package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/talentmap/bidding-api/internal/auth"
	"github.com/talentmap/bidding-api/internal/domain"
	"github.com/talentmap/bidding-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PositionDirectory resolves cp_ids to position records
type PositionDirectory interface {
	GetPosition(ctx context.Context, cpID int64) (*domain.Position, error)
}

// PermissionService answers capability checks against the access grant store.
// Lookup failures are returned as errors and never treated as permitted.
type PermissionService struct {
	grantRepo  *repository.AccessGrantRepository
	bidderRepo *repository.BidderRepository
	positions  PositionDirectory
	logger     *zap.Logger
}

// NewPermissionService creates a new permission service
func NewPermissionService(
	grantRepo *repository.AccessGrantRepository,
	bidderRepo *repository.BidderRepository,
	positions PositionDirectory,
	logger *zap.Logger,
) *PermissionService {
	return &PermissionService{
		grantRepo:  grantRepo,
		bidderRepo: bidderRepo,
		positions:  positions,
		logger:     logger,
	}
}

// CanAct reports whether user may act within scope. Super users may act anywhere.
// A CDO scope is also satisfied when the bidder's profile names user as their CDO.
func (s *PermissionService) CanAct(ctx context.Context, user *auth.UserContext, scope domain.Scope) (bool, error) {
	if user.IsSuperUser() {
		return true, nil
	}
	if scope.Code == "" {
		return false, nil
	}

	if scope.Kind == domain.ScopeCDO {
		bidder, err := s.bidderRepo.GetByPerdet(ctx, scope.Code)
		switch {
		case err == nil && bidder.CDOPerdet != "" && bidder.CDOPerdet == user.Perdet:
			return true, nil
		case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
			return false, fmt.Errorf("failed to load bidder profile: %w", err)
		}
	}

	granted, err := s.grantRepo.HasGrant(ctx, user.Perdet, scope)
	if err != nil {
		s.logger.Error("access grant lookup failed",
			zap.String("perdet", user.Perdet),
			zap.String("scope_kind", string(scope.Kind)),
			zap.String("scope_code", scope.Code),
			zap.Error(err))
		return false, fmt.Errorf("failed to check access grant: %w", err)
	}
	return granted, nil
}

// ResolvePosition loads a position, mapping a missing record to ErrPositionNotFound
func (s *PermissionService) ResolvePosition(ctx context.Context, cpID int64) (*domain.Position, error) {
	position, err := s.positions.GetPosition(ctx, cpID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPositionNotFound
		}
		return nil, fmt.Errorf("failed to resolve position: %w", err)
	}
	return position, nil
}

// HasBureauPermission reports whether user may act for the bureau owning the position
func (s *PermissionService) HasBureauPermission(ctx context.Context, user *auth.UserContext, cpID int64) (bool, error) {
	if user.IsSuperUser() {
		return true, nil
	}
	position, err := s.ResolvePosition(ctx, cpID)
	if err != nil {
		return false, err
	}
	return s.CanAct(ctx, user, domain.Scope{Kind: domain.ScopeBureau, Code: position.BureauCode})
}

// HasOrgPermission reports whether user may act for the organisation owning the position
func (s *PermissionService) HasOrgPermission(ctx context.Context, user *auth.UserContext, cpID int64) (bool, error) {
	if user.IsSuperUser() {
		return true, nil
	}
	position, err := s.ResolvePosition(ctx, cpID)
	if err != nil {
		return false, err
	}
	return s.CanAct(ctx, user, domain.Scope{Kind: domain.ScopeOrg, Code: position.OrgCode})
}

// IsCDOFor reports whether user counsels the bidder
func (s *PermissionService) IsCDOFor(ctx context.Context, user *auth.UserContext, bidderPerdet string) (bool, error) {
	return s.CanAct(ctx, user, domain.Scope{Kind: domain.ScopeCDO, Code: bidderPerdet})
}

// requireScope returns ErrPermissionDenied unless user can act within scope
func (s *PermissionService) requireScope(ctx context.Context, user *auth.UserContext, scope domain.Scope) error {
	ok, err := s.CanAct(ctx, user, scope)
	if err != nil {
		return err
	}
	if !ok {
		return ErrPermissionDenied
	}
	return nil
}

func currentUser(ctx context.Context) (*auth.UserContext, error) {
	user, ok := auth.FromContext(ctx)
	if !ok || user == nil {
		return nil, ErrUserContextRequired
	}
	return user, nil
}

// ListGrants returns the grants held by perdet. Users may list their own grants;
// listing anyone else's requires super user.
func (s *PermissionService) ListGrants(ctx context.Context, perdet string) ([]domain.AccessGrant, error) {
	user, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	if user.Perdet != perdet && !user.IsSuperUser() {
		return nil, ErrPermissionDenied
	}
	grants, err := s.grantRepo.ListByPerdet(ctx, perdet)
	if err != nil {
		return nil, fmt.Errorf("failed to list access grants: %w", err)
	}
	return grants, nil
}

// Grant gives perdet capability over scope. Super user only.
func (s *PermissionService) Grant(ctx context.Context, perdet string, scope domain.Scope) error {
	user, err := s.requireSuperUser(ctx, perdet, scope)
	if err != nil {
		return err
	}
	if err := s.grantRepo.Grant(ctx, perdet, scope); err != nil {
		return fmt.Errorf("failed to grant access: %w", err)
	}
	s.logger.Info("access granted",
		zap.String("perdet", perdet),
		zap.String("scope_kind", string(scope.Kind)),
		zap.String("scope_code", scope.Code),
		zap.String("granted_by", user.Perdet))
	return nil
}

// Revoke removes a grant. Revoking a grant that does not exist is a no-op.
func (s *PermissionService) Revoke(ctx context.Context, perdet string, scope domain.Scope) error {
	user, err := s.requireSuperUser(ctx, perdet, scope)
	if err != nil {
		return err
	}
	if err := s.grantRepo.Revoke(ctx, perdet, scope); err != nil {
		return fmt.Errorf("failed to revoke access: %w", err)
	}
	s.logger.Info("access revoked",
		zap.String("perdet", perdet),
		zap.String("scope_kind", string(scope.Kind)),
		zap.String("scope_code", scope.Code),
		zap.String("revoked_by", user.Perdet))
	return nil
}

func (s *PermissionService) requireSuperUser(ctx context.Context, perdet string, scope domain.Scope) (*auth.UserContext, error) {
	user, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	if !user.IsSuperUser() {
		return nil, ErrPermissionDenied
	}
	if perdet == "" || scope.Code == "" || !scope.Kind.IsValid() {
		return nil, ErrInvalidScope
	}
	return user, nil
}
