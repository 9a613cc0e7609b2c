package handler

import (
	"net/http"

	"github.com/talentmap/bidding-api/internal/domain"
	"github.com/talentmap/bidding-api/internal/service"
	"go.uber.org/zap"
)

// RankingHandler handles HTTP requests for position rankings and ranking locks
type RankingHandler struct {
	rankingService *service.RankingService
	logger         *zap.Logger
}

// NewRankingHandler creates a new RankingHandler instance
func NewRankingHandler(rankingService *service.RankingService, logger *zap.Logger) *RankingHandler {
	return &RankingHandler{
		rankingService: rankingService,
		logger:         logger,
	}
}

// BulkUpsert godoc
// @Summary Create or update ranking rows
// @Description All rows must target the same position. Rows are owned by the caller.
// @Tags Rankings
// @Accept json
// @Param request body domain.BulkRankingRequest true "Ranking rows"
// @Success 204
// @Failure 400 {object} domain.APIError "Empty batch or more than one position"
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /rankings [post]
func (h *RankingHandler) BulkUpsert(w http.ResponseWriter, r *http.Request) {
	var req domain.BulkRankingRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if _, err := h.rankingService.BulkUpsert(r.Context(), req.Rankings); err != nil {
		handleServiceError(w, h.logger, err, "save rankings")
		return
	}
	respondNoContent(w)
}

// ListForPosition godoc
// @Summary List a position's ranking
// @Tags Rankings
// @Produce json
// @Param cpId path int true "Position ID"
// @Success 200 {array} domain.RankingDTO
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /positions/{cpId}/rankings [get]
func (h *RankingHandler) ListForPosition(w http.ResponseWriter, r *http.Request) {
	cpID, ok := parseInt64Param(w, r, "cpId")
	if !ok {
		return
	}
	rankings, err := h.rankingService.ListForPosition(r.Context(), cpID)
	if err != nil {
		handleServiceError(w, h.logger, err, "list rankings")
		return
	}
	respondJSON(w, http.StatusOK, rankings)
}

// DeleteAll godoc
// @Summary Delete a position's whole ranking
// @Tags Rankings
// @Param cpId path int true "Position ID"
// @Success 204
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /positions/{cpId}/rankings [delete]
func (h *RankingHandler) DeleteAll(w http.ResponseWriter, r *http.Request) {
	cpID, ok := parseInt64Param(w, r, "cpId")
	if !ok {
		return
	}
	if err := h.rankingService.Delete(r.Context(), cpID, ""); err != nil {
		handleServiceError(w, h.logger, err, "delete rankings")
		return
	}
	respondNoContent(w)
}

// DeleteBidder godoc
// @Summary Delete one bidder's rank on a position
// @Tags Rankings
// @Param cpId path int true "Position ID"
// @Param perdet path string true "Bidder perdet"
// @Success 204
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /positions/{cpId}/rankings/{perdet} [delete]
func (h *RankingHandler) DeleteBidder(w http.ResponseWriter, r *http.Request) {
	cpID, ok := parseInt64Param(w, r, "cpId")
	if !ok {
		return
	}
	perdet, ok := perdetParam(w, r)
	if !ok {
		return
	}
	if err := h.rankingService.Delete(r.Context(), cpID, perdet); err != nil {
		handleServiceError(w, h.logger, err, "delete ranking")
		return
	}
	respondNoContent(w)
}

// Lock godoc
// @Summary Lock a position's ranking
// @Description Once locked, only the position's bureau may change the ranking. Relocking is a no-op.
// @Tags Rankings
// @Param cpId path int true "Position ID"
// @Success 204
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /positions/{cpId}/ranking-lock [put]
func (h *RankingHandler) Lock(w http.ResponseWriter, r *http.Request) {
	cpID, ok := parseInt64Param(w, r, "cpId")
	if !ok {
		return
	}
	if err := h.rankingService.Lock(r.Context(), cpID); err != nil {
		handleServiceError(w, h.logger, err, "lock ranking")
		return
	}
	respondNoContent(w)
}

// GetLock godoc
// @Summary Check whether a position's ranking is locked
// @Tags Rankings
// @Param cpId path int true "Position ID"
// @Success 204 "Locked"
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError "Not locked"
// @Security BearerAuth
// @Router /positions/{cpId}/ranking-lock [get]
func (h *RankingHandler) GetLock(w http.ResponseWriter, r *http.Request) {
	cpID, ok := parseInt64Param(w, r, "cpId")
	if !ok {
		return
	}
	locked, err := h.rankingService.IsLocked(r.Context(), cpID)
	if err != nil {
		handleServiceError(w, h.logger, err, "check ranking lock")
		return
	}
	if !locked {
		handleServiceError(w, h.logger, service.ErrRankingNotLocked, "check ranking lock")
		return
	}
	respondNoContent(w)
}

// Unlock godoc
// @Summary Unlock a position's ranking
// @Description Deletes the ranking rows together with the lock
// @Tags Rankings
// @Param cpId path int true "Position ID"
// @Success 204
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /positions/{cpId}/ranking-lock [delete]
func (h *RankingHandler) Unlock(w http.ResponseWriter, r *http.Request) {
	cpID, ok := parseInt64Param(w, r, "cpId")
	if !ok {
		return
	}
	if err := h.rankingService.Unlock(r.Context(), cpID); err != nil {
		handleServiceError(w, h.logger, err, "unlock ranking")
		return
	}
	respondNoContent(w)
}

// BidderRankings godoc
// @Summary List an employee's bids with their local rank
// @Description Only positions the caller holds bureau or org permission for are returned
// @Tags Rankings
// @Produce json
// @Param perdet path string true "Bidder perdet"
// @Success 200 {array} domain.BidderRankingDTO
// @Failure 502 {object} domain.APIError "Bid source unavailable"
// @Security BearerAuth
// @Router /bidders/{perdet}/rankings [get]
func (h *RankingHandler) BidderRankings(w http.ResponseWriter, r *http.Request) {
	perdet, ok := perdetParam(w, r)
	if !ok {
		return
	}
	rankings, err := h.rankingService.BidderRankings(r.Context(), perdet)
	if err != nil {
		handleServiceError(w, h.logger, err, "list bidder rankings")
		return
	}
	respondJSON(w, http.StatusOK, rankings)
}
