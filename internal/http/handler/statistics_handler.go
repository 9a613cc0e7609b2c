package handler

import (
	"net/http"

	"github.com/talentmap/bidding-api/internal/service"
	"go.uber.org/zap"
)

// StatisticsHandler serves the bid statistics read model
type StatisticsHandler struct {
	statisticsService *service.StatisticsService
	logger            *zap.Logger
}

// NewStatisticsHandler creates a new StatisticsHandler instance
func NewStatisticsHandler(statisticsService *service.StatisticsService, logger *zap.Logger) *StatisticsHandler {
	return &StatisticsHandler{
		statisticsService: statisticsService,
		logger:            logger,
	}
}

// GetPositionStatistics godoc
// @Summary Get the bid statistics of a position
// @Tags Statistics
// @Produce json
// @Param bidCycleId path int true "Bid cycle ID"
// @Param cpId path int true "Position ID"
// @Success 200 {object} domain.PositionStatisticsDTO
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /bid-cycles/{bidCycleId}/positions/{cpId}/statistics [get]
func (h *StatisticsHandler) GetPositionStatistics(w http.ResponseWriter, r *http.Request) {
	cycleID, ok := parseInt64Param(w, r, "bidCycleId")
	if !ok {
		return
	}
	cpID, ok := parseInt64Param(w, r, "cpId")
	if !ok {
		return
	}

	stats, err := h.statisticsService.GetPositionStatistics(r.Context(), cycleID, cpID)
	if err != nil {
		handleServiceError(w, h.logger, err, "get position statistics")
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

// GetUserStatistics godoc
// @Summary Get the bid status counts of a bidder
// @Description Visible to the bidder and their CDO
// @Tags Statistics
// @Produce json
// @Param bidCycleId path int true "Bid cycle ID"
// @Param perdet path string true "Bidder perdet"
// @Success 200 {object} domain.UserStatisticsDTO
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /bid-cycles/{bidCycleId}/bidders/{perdet}/statistics [get]
func (h *StatisticsHandler) GetUserStatistics(w http.ResponseWriter, r *http.Request) {
	cycleID, ok := parseInt64Param(w, r, "bidCycleId")
	if !ok {
		return
	}
	perdet, ok := perdetParam(w, r)
	if !ok {
		return
	}

	stats, err := h.statisticsService.GetUserStatistics(r.Context(), cycleID, perdet)
	if err != nil {
		handleServiceError(w, h.logger, err, "get user statistics")
		return
	}
	respondJSON(w, http.StatusOK, stats)
}
