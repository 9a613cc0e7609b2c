package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/talentmap/bidding-api/internal/domain"
)

func TestBidHandshake_Codes(t *testing.T) {
	tests := []struct {
		state        domain.HandshakeState
		status       string
		bidderStatus string
		cdoUpdate    bool
		notification string
	}{
		{domain.HandshakeOffered, "O", "", false, "handshake_offered"},
		{domain.HandshakeAcceptedByBidder, "A", "A", false, "handshake_accepted"},
		{domain.HandshakeAcceptedByCDO, "A", "A", true, "handshake_accepted"},
		{domain.HandshakeDeclinedByBidder, "D", "D", false, "handshake_declined"},
		{domain.HandshakeDeclinedByCDO, "D", "D", true, "handshake_declined"},
		{domain.HandshakeRevoked, "R", "", false, "handshake_revoked"},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			hs := &domain.BidHandshake{State: tt.state}
			assert.True(t, tt.state.IsValid())
			assert.Equal(t, tt.status, hs.Status())
			assert.Equal(t, tt.bidderStatus, hs.BidderStatus())
			assert.Equal(t, tt.cdoUpdate, hs.IsCDOUpdate())
			assert.Equal(t, tt.notification, hs.NotificationStatus())
			assert.Equal(t, tt.state != domain.HandshakeRevoked, hs.IsActive())
		})
	}
}

func TestBidHandshake_Lifecycle(t *testing.T) {
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	expiry := at.Add(72 * time.Hour)
	hs := &domain.BidHandshake{CpID: 42, BidderPerdet: "1001"}

	hs.Offer("3001", 7, &expiry, at)
	assert.Equal(t, domain.HandshakeOffered, hs.State)
	assert.Equal(t, "3001", hs.OwnerPerdet)
	require.NotNil(t, hs.DateOffered)

	hs.Respond(domain.PartyBidder, false, "1001", at.Add(time.Hour))
	assert.Equal(t, domain.HandshakeDeclinedByBidder, hs.State)
	require.NotNil(t, hs.LastEditingBidderPerdet)
	assert.Equal(t, "1001", *hs.LastEditingBidderPerdet)
	require.NotNil(t, hs.DateDeclined)

	hs.Respond(domain.PartyCDO, true, "2001", at.Add(2*time.Hour))
	assert.Equal(t, domain.HandshakeAcceptedByCDO, hs.State)
	assert.Equal(t, "2001", hs.LastEditingUserPerdet)
	require.NotNil(t, hs.DateAccepted)

	hs.Revoke("3001", at.Add(3*time.Hour))
	assert.Equal(t, domain.HandshakeRevoked, hs.State)
	require.NotNil(t, hs.DateRevoked)

	hs.Offer("3002", 7, nil, at.Add(4*time.Hour))
	assert.Equal(t, domain.HandshakeOffered, hs.State)
	assert.Nil(t, hs.DateRevoked, "a new offer clears earlier answers")
	assert.Nil(t, hs.DateAccepted)
	assert.Nil(t, hs.DateDeclined)
	assert.Nil(t, hs.LastEditingBidderPerdet)
	assert.Nil(t, hs.ExpirationDate)
	assert.Equal(t, "3002", hs.OwnerPerdet)
}

func TestMostRecentlyUpdated(t *testing.T) {
	assert.Nil(t, domain.MostRecentlyUpdated(nil))

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	handshakes := []domain.BidHandshake{
		{BaseModel: domain.BaseModel{UpdatedAt: base}, BidderPerdet: "1001"},
		{BaseModel: domain.BaseModel{UpdatedAt: base.Add(time.Minute)}, BidderPerdet: "1002"},
		{BaseModel: domain.BaseModel{UpdatedAt: base.Add(-time.Minute)}, BidderPerdet: "1003"},
	}
	latest := domain.MostRecentlyUpdated(handshakes)
	require.NotNil(t, latest)
	assert.Equal(t, "1002", latest.BidderPerdet)
}
