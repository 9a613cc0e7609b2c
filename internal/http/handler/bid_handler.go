package handler

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/talentmap/bidding-api/internal/domain"
	"github.com/talentmap/bidding-api/internal/service"
	"go.uber.org/zap"
)

// BidHandler handles HTTP requests for bids
type BidHandler struct {
	bidService *service.BidService
	logger     *zap.Logger
}

// NewBidHandler creates a new BidHandler instance
func NewBidHandler(bidService *service.BidService, logger *zap.Logger) *BidHandler {
	return &BidHandler{
		bidService: bidService,
		logger:     logger,
	}
}

// AddToBidlist godoc
// @Summary Add a position to the bid list
// @Description Creates a draft bid for the caller on a position of an active bid cycle
// @Tags Bids
// @Accept json
// @Param request body domain.AddToBidlistRequest true "Position"
// @Success 204 "Draft bid created; Location names the bid"
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /bids [post]
func (h *BidHandler) AddToBidlist(w http.ResponseWriter, r *http.Request) {
	var req domain.AddToBidlistRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	bid, err := h.bidService.AddToBidlist(r.Context(), req.CpID)
	if err != nil {
		handleServiceError(w, h.logger, err, "add position to bid list")
		return
	}

	w.Header().Set("Location", "/api/v1/bids/"+bid.ID.String())
	respondNoContent(w)
}

// ListMine godoc
// @Summary List my bids
// @Tags Bids
// @Produce json
// @Param bidCycleId query int false "Limit to one bid cycle"
// @Success 200 {array} domain.BidDTO
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Router /bids [get]
func (h *BidHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	var cycle *int64
	if raw := r.URL.Query().Get("bidCycleId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid bidCycleId")
			return
		}
		cycle = &id
	}

	bids, err := h.bidService.ListMine(r.Context(), cycle)
	if err != nil {
		handleServiceError(w, h.logger, err, "list bids")
		return
	}
	respondJSON(w, http.StatusOK, bids)
}

// GetByID godoc
// @Summary Get a bid
// @Description Visible to the bid owner, the owner's CDO and AOs of the bid's bureau
// @Tags Bids
// @Produce json
// @Param id path string true "Bid ID" format(uuid)
// @Success 200 {object} domain.BidDTO
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /bids/{id} [get]
func (h *BidHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}

	bid, err := h.bidService.GetByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.logger, err, "get bid")
		return
	}
	respondJSON(w, http.StatusOK, bid)
}

// bidAction adapts a bid transition to a 204 handler
func (h *BidHandler) bidAction(action string, run func(r *http.Request, id uuid.UUID) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseUUIDParam(w, r, "id")
		if !ok {
			return
		}
		if err := run(r, id); err != nil {
			handleServiceError(w, h.logger, err, action)
			return
		}
		respondNoContent(w)
	}
}

// Submit godoc
// @Summary Submit a draft bid
// @Tags Bids
// @Param id path string true "Bid ID" format(uuid)
// @Success 204
// @Failure 400 {object} domain.APIError "Submitted limit reached or priority bid held"
// @Failure 404 {object} domain.APIError "No matching draft bid"
// @Security BearerAuth
// @Router /bids/{id}/submit [put]
func (h *BidHandler) Submit(w http.ResponseWriter, r *http.Request) {
	h.bidAction("submit bid", func(r *http.Request, id uuid.UUID) error {
		_, err := h.bidService.Submit(r.Context(), id)
		return err
	})(w, r)
}

// OfferHandshake godoc
// @Summary Offer a handshake on a submitted bid
// @Tags Bids
// @Param id path string true "Bid ID" format(uuid)
// @Success 204
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /bids/{id}/handshake-offer [put]
func (h *BidHandler) OfferHandshake(w http.ResponseWriter, r *http.Request) {
	h.bidAction("offer handshake", func(r *http.Request, id uuid.UUID) error {
		_, err := h.bidService.OfferHandshake(r.Context(), id)
		return err
	})(w, r)
}

// AcceptHandshake godoc
// @Summary Accept the handshake offered on my bid
// @Tags Bids
// @Param id path string true "Bid ID" format(uuid)
// @Success 204
// @Failure 400 {object} domain.APIError "Another priority bid is held in the cycle"
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /bids/{id}/handshake-accept [put]
func (h *BidHandler) AcceptHandshake(w http.ResponseWriter, r *http.Request) {
	h.bidAction("accept handshake", func(r *http.Request, id uuid.UUID) error {
		_, err := h.bidService.AcceptHandshake(r.Context(), id)
		return err
	})(w, r)
}

// DeclineHandshake godoc
// @Summary Decline the handshake offered on my bid
// @Tags Bids
// @Param id path string true "Bid ID" format(uuid)
// @Success 204
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /bids/{id}/handshake-decline [put]
func (h *BidHandler) DeclineHandshake(w http.ResponseWriter, r *http.Request) {
	h.bidAction("decline handshake", func(r *http.Request, id uuid.UUID) error {
		_, err := h.bidService.DeclineHandshake(r.Context(), id)
		return err
	})(w, r)
}

// SchedulePanel godoc
// @Summary Schedule or reschedule the panel for a bid
// @Tags Bids
// @Accept json
// @Produce json
// @Param id path string true "Bid ID" format(uuid)
// @Param request body domain.SchedulePanelRequest true "Panel date"
// @Success 204
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /bids/{id}/panel [put]
func (h *BidHandler) SchedulePanel(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}
	var req domain.SchedulePanelRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	_, event, err := h.bidService.SchedulePanel(r.Context(), id, req.ScheduledPanelDate)
	if err != nil {
		handleServiceError(w, h.logger, err, "schedule panel")
		return
	}
	w.Header().Set("X-Panel-Event", string(event))
	respondNoContent(w)
}

// Approve godoc
// @Summary Approve a bid in panel
// @Tags Bids
// @Param id path string true "Bid ID" format(uuid)
// @Success 204
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /bids/{id}/approve [put]
func (h *BidHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.bidAction("approve bid", func(r *http.Request, id uuid.UUID) error {
		_, err := h.bidService.Approve(r.Context(), id)
		return err
	})(w, r)
}

// Decline godoc
// @Summary Decline a bid
// @Tags Bids
// @Param id path string true "Bid ID" format(uuid)
// @Success 204
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /bids/{id}/decline [put]
func (h *BidHandler) Decline(w http.ResponseWriter, r *http.Request) {
	h.bidAction("decline bid", func(r *http.Request, id uuid.UUID) error {
		_, err := h.bidService.Decline(r.Context(), id)
		return err
	})(w, r)
}

// Close godoc
// @Summary Close or delete a bid
// @Description The owner deletes a draft or submitted bid before the cycle deadline; the owner's CDO closes a bid in any status
// @Tags Bids
// @Param id path string true "Bid ID" format(uuid)
// @Success 204
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /bids/{id} [delete]
func (h *BidHandler) Close(w http.ResponseWriter, r *http.Request) {
	h.bidAction("close bid", func(r *http.Request, id uuid.UUID) error {
		_, err := h.bidService.Close(r.Context(), id)
		return err
	})(w, r)
}
