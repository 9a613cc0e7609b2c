package handler

import (
	"encoding/json"
	"net/http"

	"github.com/talentmap/bidding-api/internal/domain"
	"github.com/talentmap/bidding-api/internal/service"
	"go.uber.org/zap"
)

// HandshakeHandler handles HTTP requests for position handshakes
type HandshakeHandler struct {
	handshakeService *service.HandshakeService
	logger           *zap.Logger
}

// NewHandshakeHandler creates a new HandshakeHandler instance
func NewHandshakeHandler(handshakeService *service.HandshakeService, logger *zap.Logger) *HandshakeHandler {
	return &HandshakeHandler{
		handshakeService: handshakeService,
		logger:           logger,
	}
}

// Offer godoc
// @Summary Offer a handshake to a bidder
// @Description Offers the position to the bidder and revokes every other live offer on the position
// @Tags Handshakes
// @Accept json
// @Param cpId path int true "Position ID"
// @Param perdet path string true "Bidder perdet"
// @Param request body domain.OfferHandshakeRequest false "Optional expiration"
// @Success 204
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError "Concurrent competing offer"
// @Security BearerAuth
// @Router /positions/{cpId}/handshakes/{perdet} [put]
func (h *HandshakeHandler) Offer(w http.ResponseWriter, r *http.Request) {
	cpID, ok := parseInt64Param(w, r, "cpId")
	if !ok {
		return
	}
	perdet, ok := perdetParam(w, r)
	if !ok {
		return
	}

	var req domain.OfferHandshakeRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	if _, err := h.handshakeService.Offer(r.Context(), cpID, perdet, req.ExpirationDate); err != nil {
		handleServiceError(w, h.logger, err, "offer handshake")
		return
	}
	respondNoContent(w)
}

// Revoke godoc
// @Summary Revoke a handshake offer
// @Tags Handshakes
// @Param cpId path int true "Position ID"
// @Param perdet path string true "Bidder perdet"
// @Success 204
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /positions/{cpId}/handshakes/{perdet} [delete]
func (h *HandshakeHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	cpID, ok := parseInt64Param(w, r, "cpId")
	if !ok {
		return
	}
	perdet, ok := perdetParam(w, r)
	if !ok {
		return
	}

	if _, err := h.handshakeService.Revoke(r.Context(), cpID, perdet); err != nil {
		handleServiceError(w, h.logger, err, "revoke handshake")
		return
	}
	respondNoContent(w)
}

// BidderAccept godoc
// @Summary Accept the handshake offered to me
// @Tags Handshakes
// @Param cpId path int true "Position ID"
// @Success 204
// @Failure 404 {object} domain.APIError "No live handshake offered to the caller"
// @Security BearerAuth
// @Router /positions/{cpId}/handshake/accept [put]
func (h *HandshakeHandler) BidderAccept(w http.ResponseWriter, r *http.Request) {
	h.bidderRespond(w, r, true)
}

// BidderDecline godoc
// @Summary Decline the handshake offered to me
// @Tags Handshakes
// @Param cpId path int true "Position ID"
// @Success 204
// @Failure 404 {object} domain.APIError "No live handshake offered to the caller"
// @Security BearerAuth
// @Router /positions/{cpId}/handshake/decline [put]
func (h *HandshakeHandler) BidderDecline(w http.ResponseWriter, r *http.Request) {
	h.bidderRespond(w, r, false)
}

func (h *HandshakeHandler) bidderRespond(w http.ResponseWriter, r *http.Request, accept bool) {
	cpID, ok := parseInt64Param(w, r, "cpId")
	if !ok {
		return
	}
	if _, err := h.handshakeService.RespondAsBidder(r.Context(), cpID, accept); err != nil {
		handleServiceError(w, h.logger, err, "respond to handshake")
		return
	}
	respondNoContent(w)
}

// CDOAccept godoc
// @Summary Accept a handshake on behalf of a bidder
// @Tags Handshakes
// @Param cpId path int true "Position ID"
// @Param perdet path string true "Bidder perdet"
// @Success 204
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /positions/{cpId}/handshakes/{perdet}/cdo-accept [put]
func (h *HandshakeHandler) CDOAccept(w http.ResponseWriter, r *http.Request) {
	h.cdoRespond(w, r, true)
}

// CDODecline godoc
// @Summary Decline a handshake on behalf of a bidder
// @Tags Handshakes
// @Param cpId path int true "Position ID"
// @Param perdet path string true "Bidder perdet"
// @Success 204
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /positions/{cpId}/handshakes/{perdet}/cdo-decline [put]
func (h *HandshakeHandler) CDODecline(w http.ResponseWriter, r *http.Request) {
	h.cdoRespond(w, r, false)
}

func (h *HandshakeHandler) cdoRespond(w http.ResponseWriter, r *http.Request, accept bool) {
	cpID, ok := parseInt64Param(w, r, "cpId")
	if !ok {
		return
	}
	perdet, ok := perdetParam(w, r)
	if !ok {
		return
	}
	if _, err := h.handshakeService.RespondAsCDO(r.Context(), cpID, perdet, accept); err != nil {
		handleServiceError(w, h.logger, err, "respond to handshake")
		return
	}
	respondNoContent(w)
}

// GetPositionHandshake godoc
// @Summary Get the bidder holding the position's live handshake
// @Tags Handshakes
// @Produce json
// @Param cpId path int true "Position ID"
// @Success 200 {object} domain.PositionHandshakeDTO
// @Security BearerAuth
// @Router /positions/{cpId}/handshake [get]
func (h *HandshakeHandler) GetPositionHandshake(w http.ResponseWriter, r *http.Request) {
	cpID, ok := parseInt64Param(w, r, "cpId")
	if !ok {
		return
	}
	dto, err := h.handshakeService.PositionHandshake(r.Context(), cpID)
	if err != nil {
		handleServiceError(w, h.logger, err, "get position handshake")
		return
	}
	respondJSON(w, http.StatusOK, dto)
}

// GetLeadHandshake godoc
// @Summary Get the most recently updated handshake on a position
// @Tags Handshakes
// @Produce json
// @Param cpId path int true "Position ID"
// @Success 200 {object} domain.HandshakeView
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /positions/{cpId}/handshake/lead [get]
func (h *HandshakeHandler) GetLeadHandshake(w http.ResponseWriter, r *http.Request) {
	cpID, ok := parseInt64Param(w, r, "cpId")
	if !ok {
		return
	}
	view, err := h.handshakeService.LeadHandshake(r.Context(), cpID)
	if err != nil {
		handleServiceError(w, h.logger, err, "get lead handshake")
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// GetBidderHandshake godoc
// @Summary Get the handshake offered to a bidder on a position
// @Tags Handshakes
// @Produce json
// @Param cpId path int true "Position ID"
// @Param perdet path string true "Bidder perdet"
// @Success 200 {object} domain.HandshakeView
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /positions/{cpId}/handshakes/{perdet} [get]
func (h *HandshakeHandler) GetBidderHandshake(w http.ResponseWriter, r *http.Request) {
	cpID, ok := parseInt64Param(w, r, "cpId")
	if !ok {
		return
	}
	perdet, ok := perdetParam(w, r)
	if !ok {
		return
	}
	view, err := h.handshakeService.BidderHandshake(r.Context(), cpID, perdet)
	if err != nil {
		handleServiceError(w, h.logger, err, "get bidder handshake")
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// ListForPosition godoc
// @Summary List every handshake recorded on a position
// @Tags Handshakes
// @Produce json
// @Param cpId path int true "Position ID"
// @Success 200 {array} domain.HandshakeDTO
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /positions/{cpId}/handshakes [get]
func (h *HandshakeHandler) ListForPosition(w http.ResponseWriter, r *http.Request) {
	cpID, ok := parseInt64Param(w, r, "cpId")
	if !ok {
		return
	}
	handshakes, err := h.handshakeService.ListForPosition(r.Context(), cpID)
	if err != nil {
		handleServiceError(w, h.logger, err, "list handshakes")
		return
	}
	respondJSON(w, http.StatusOK, handshakes)
}

// ListMine godoc
// @Summary List the handshakes offered to me
// @Tags Handshakes
// @Produce json
// @Success 200 {array} domain.HandshakeDTO
// @Security BearerAuth
// @Router /handshakes/mine [get]
func (h *HandshakeHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	handshakes, err := h.handshakeService.ListMine(r.Context())
	if err != nil {
		handleServiceError(w, h.logger, err, "list handshakes")
		return
	}
	respondJSON(w, http.StatusOK, handshakes)
}
