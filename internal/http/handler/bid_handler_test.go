package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/talentmap/bidding-api/internal/domain"
	"github.com/talentmap/bidding-api/internal/testutil"
)

func TestBidHandler_AddToBidlist(t *testing.T) {
	h := setupHandlers(t)
	ctx := asUser(bidderPerdet, domain.RoleBidder)

	t.Run("creates draft", func(t *testing.T) {
		req := newRequest(t, http.MethodPost, "/api/v1/bids", map[string]int64{"cpId": testCpID}, ctx)
		rr := serve(h.bids.AddToBidlist, req)

		assert.Equal(t, http.StatusNoContent, rr.Code)
		location := rr.Header().Get("Location")
		require.True(t, strings.HasPrefix(location, "/api/v1/bids/"), location)

		var bid domain.Bid
		require.NoError(t, h.db.First(&bid, "id = ?", strings.TrimPrefix(location, "/api/v1/bids/")).Error)
		assert.Equal(t, domain.BidStatusDraft, bid.Status)
	})

	t.Run("duplicate is rejected", func(t *testing.T) {
		req := newRequest(t, http.MethodPost, "/api/v1/bids", map[string]int64{"cpId": testCpID}, ctx)
		rr := serve(h.bids.AddToBidlist, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("missing position id", func(t *testing.T) {
		req := newRequest(t, http.MethodPost, "/api/v1/bids", map[string]int64{}, ctx)
		rr := serve(h.bids.AddToBidlist, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		apiErr := decodeError(t, rr)
		assert.Equal(t, domain.ErrorTypeValidation, apiErr.Type)
		assert.NotEmpty(t, apiErr.Errors)
	})

	t.Run("unknown position", func(t *testing.T) {
		req := newRequest(t, http.MethodPost, "/api/v1/bids", map[string]int64{"cpId": 404}, ctx)
		rr := serve(h.bids.AddToBidlist, req)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestBidHandler_Submit(t *testing.T) {
	h := setupHandlers(t)
	ctx := asUser(bidderPerdet, domain.RoleBidder)
	bid := testutil.CreateBid(t, h.db, bidderPerdet, h.position, domain.BidStatusDraft)

	rr := serve(h.bids.Submit, newRequest(t, http.MethodPut, "/", nil, ctx, "id", bid.ID.String()))
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = serve(h.bids.Submit, newRequest(t, http.MethodPut, "/", nil, ctx, "id", bid.ID.String()))
	assert.Equal(t, http.StatusNotFound, rr.Code, "a submitted bid is not a draft")
	assert.Equal(t, domain.ErrorTypeNotFound, decodeError(t, rr).Type)

	rr = serve(h.bids.Submit, newRequest(t, http.MethodPut, "/", nil, ctx, "id", "not-a-uuid"))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = serve(h.bids.Submit, newRequest(t, http.MethodPut, "/", nil, context.Background(), "id", bid.ID.String()))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestBidHandler_OfferHandshake(t *testing.T) {
	h := setupHandlers(t)
	bid := testutil.CreateBid(t, h.db, bidderPerdet, h.position, domain.BidStatusSubmitted)

	rr := serve(h.bids.OfferHandshake, newRequest(t, http.MethodPut, "/", nil,
		asUser(otherAO, domain.RoleBureau), "id", bid.ID.String()))
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = serve(h.bids.OfferHandshake, newRequest(t, http.MethodPut, "/", nil,
		asUser(aoPerdet, domain.RoleBureau), "id", bid.ID.String()))
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = serve(h.bids.GetByID, newRequest(t, http.MethodGet, "/", nil,
		asUser(bidderPerdet, domain.RoleBidder), "id", bid.ID.String()))
	require.Equal(t, http.StatusOK, rr.Code)

	var dto domain.BidDTO
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &dto))
	assert.Equal(t, domain.BidStatusHandshakeOffered, dto.Status)
}

func TestBidHandler_SchedulePanel(t *testing.T) {
	h := setupHandlers(t)
	ctx := asUser(aoPerdet, domain.RoleBureau)
	bid := testutil.CreateBid(t, h.db, bidderPerdet, h.position, domain.BidStatusHandshakeAccepted)
	panelDate := time.Date(2026, 11, 3, 14, 0, 0, 0, time.UTC)

	rr := serve(h.bids.SchedulePanel, newRequest(t, http.MethodPut, "/", map[string]string{},
		ctx, "id", bid.ID.String()))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	body := domain.SchedulePanelRequest{ScheduledPanelDate: panelDate}
	rr = serve(h.bids.SchedulePanel, newRequest(t, http.MethodPut, "/", body, ctx, "id", bid.ID.String()))
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, string(domain.PanelScheduled), rr.Header().Get("X-Panel-Event"))

	body.ScheduledPanelDate = panelDate.Add(48 * time.Hour)
	rr = serve(h.bids.SchedulePanel, newRequest(t, http.MethodPut, "/", body, ctx, "id", bid.ID.String()))
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, string(domain.PanelRescheduled), rr.Header().Get("X-Panel-Event"))
}

func TestBidHandler_ListMine(t *testing.T) {
	h := setupHandlers(t)
	ctx := asUser(bidderPerdet, domain.RoleBidder)
	testutil.CreateBid(t, h.db, bidderPerdet, h.position, domain.BidStatusDraft)

	rr := serve(h.bids.ListMine, newRequest(t, http.MethodGet, "/api/v1/bids?bidCycleId=7", nil, ctx))
	require.Equal(t, http.StatusOK, rr.Code)

	var bids []domain.BidDTO
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &bids))
	require.Len(t, bids, 1)
	assert.Equal(t, testCpID, bids[0].CpID)

	rr = serve(h.bids.ListMine, newRequest(t, http.MethodGet, "/api/v1/bids?bidCycleId=abc", nil, ctx))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestBidHandler_Close(t *testing.T) {
	h := setupHandlers(t)
	bid := testutil.CreateBid(t, h.db, bidderPerdet, h.position, domain.BidStatusHandshakeOffered)

	rr := serve(h.bids.Close, newRequest(t, http.MethodDelete, "/", nil,
		asUser(bidderPerdet, domain.RoleBidder), "id", bid.ID.String()))
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = serve(h.bids.Close, newRequest(t, http.MethodDelete, "/", nil,
		asUser(cdoPerdet, domain.RoleCDO), "id", bid.ID.String()))
	assert.Equal(t, http.StatusNoContent, rr.Code)
}
