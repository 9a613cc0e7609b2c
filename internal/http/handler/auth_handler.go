package handler

import (
	"context"
	"net/http"

	"github.com/talentmap/bidding-api/internal/auth"
	"github.com/talentmap/bidding-api/internal/domain"
	"github.com/talentmap/bidding-api/internal/mapper"
	"go.uber.org/zap"
)

// GrantManager lists and administers access grants
type GrantManager interface {
	ListGrants(ctx context.Context, perdet string) ([]domain.AccessGrant, error)
	Grant(ctx context.Context, perdet string, scope domain.Scope) error
	Revoke(ctx context.Context, perdet string, scope domain.Scope) error
}

type AuthHandler struct {
	grants GrantManager
	logger *zap.Logger
}

func NewAuthHandler(grants GrantManager, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		grants: grants,
		logger: logger,
	}
}

// Me godoc
// @Summary Get current authenticated user
// @Description Returns the caller's perdet, roles and access grants
// @Tags Auth
// @Produce json
// @Success 200 {object} domain.CurrentUserDTO
// @Failure 401 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /auth/me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userCtx, ok := auth.FromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	grants, err := h.grants.ListGrants(r.Context(), userCtx.Perdet)
	if err != nil {
		handleServiceError(w, h.logger, err, "list access grants")
		return
	}

	dto := domain.CurrentUserDTO{
		Perdet:      userCtx.Perdet,
		DisplayName: userCtx.DisplayName,
		Email:       userCtx.Email,
		Roles:       userCtx.RolesAsStrings(),
		Grants:      make([]domain.AccessGrantDTO, len(grants)),
	}
	for i := range grants {
		dto.Grants[i] = mapper.ToAccessGrantDTO(&grants[i])
	}
	respondJSON(w, http.StatusOK, dto)
}

// ListGrants godoc
// @Summary List a user's access grants
// @Tags Auth
// @Produce json
// @Param perdet path string true "User perdet"
// @Success 200 {array} domain.AccessGrantDTO
// @Failure 403 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /access-grants/{perdet} [get]
func (h *AuthHandler) ListGrants(w http.ResponseWriter, r *http.Request) {
	perdet, ok := perdetParam(w, r)
	if !ok {
		return
	}
	grants, err := h.grants.ListGrants(r.Context(), perdet)
	if err != nil {
		handleServiceError(w, h.logger, err, "list access grants")
		return
	}
	dtos := make([]domain.AccessGrantDTO, len(grants))
	for i := range grants {
		dtos[i] = mapper.ToAccessGrantDTO(&grants[i])
	}
	respondJSON(w, http.StatusOK, dtos)
}

// Grant godoc
// @Summary Grant a user capability over a bureau, org or bidder
// @Tags Auth
// @Accept json
// @Param request body domain.AccessGrantRequest true "Grant"
// @Success 204
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /access-grants [post]
func (h *AuthHandler) Grant(w http.ResponseWriter, r *http.Request) {
	var req domain.AccessGrantRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	scope := domain.Scope{Kind: req.ScopeKind, Code: req.ScopeCode}
	if err := h.grants.Grant(r.Context(), req.Perdet, scope); err != nil {
		handleServiceError(w, h.logger, err, "grant access")
		return
	}
	respondNoContent(w)
}

// Revoke godoc
// @Summary Revoke an access grant
// @Tags Auth
// @Accept json
// @Param request body domain.AccessGrantRequest true "Grant"
// @Success 204
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /access-grants [delete]
func (h *AuthHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	var req domain.AccessGrantRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	scope := domain.Scope{Kind: req.ScopeKind, Code: req.ScopeCode}
	if err := h.grants.Revoke(r.Context(), req.Perdet, scope); err != nil {
		handleServiceError(w, h.logger, err, "revoke access")
		return
	}
	respondNoContent(w)
}
