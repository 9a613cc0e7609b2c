package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/talentmap/bidding-api/internal/domain"
)

func TestTransition_Render(t *testing.T) {
	panel := time.Date(2026, 4, 2, 15, 30, 0, 0, time.UTC)
	tr := &domain.Transition{
		Entity:        domain.EntityBid,
		Status:        string(domain.BidStatusInPanel),
		BidCycleID:    7,
		OwnerPerdet:   "1001",
		BidderName:    "Jane Doe",
		PositionTitle: "Economic Officer",
		Date:          &panel,
	}

	got := tr.Render(domain.BidMessageTemplates[domain.Key("in_panel", domain.RecipientCDO)])
	assert.Equal(t, "Jane Doe's bid for Economic Officer is scheduled for panel on 2026-04-02.", got)
	assert.Equal(t, "Bidding in cycle 7", tr.Render("Bidding in {cycle}"))
	assert.Equal(t, []string{"bid", "in_panel"}, tr.Tags())
}

func TestTransition_RenderFallbacks(t *testing.T) {
	tr := &domain.Transition{OwnerPerdet: "1001"}

	got := tr.Render("{bidder} submitted a bid for {position}.")
	assert.Equal(t, "1001 submitted a bid for the position.", got)
	assert.Equal(t, "on ", tr.Render("on {date}"))
}

func TestMessageTemplates_Keys(t *testing.T) {
	assert.Equal(t, "handshake_offered_other", domain.Key("handshake_offered", domain.RecipientOther))
	assert.Contains(t, domain.BidMessageTemplates, domain.RequestedCDOKey)
	assert.Contains(t, domain.HandshakeMessageTemplates, domain.RequestedCDOKey)
	assert.NotContains(t, domain.HandshakeMessageTemplates, domain.Key("handshake_accepted", domain.RecipientOwner),
		"the bidder is not told about their own answer")
}

func TestDistinctCpIDs(t *testing.T) {
	rows := []domain.AvailablePositionRanking{{CpID: 42}, {CpID: 43}, {CpID: 42}}
	assert.Equal(t, []int64{42, 43}, domain.DistinctCpIDs(rows))
	assert.Empty(t, domain.DistinctCpIDs(nil))
}

func TestDuplicateBidder(t *testing.T) {
	rows := []domain.AvailablePositionRanking{
		{CpID: 42, BidderPerdet: "1001"},
		{CpID: 42, BidderPerdet: "1002"},
		{CpID: 43, BidderPerdet: "1001"},
	}
	assert.Empty(t, domain.DuplicateBidder(rows))

	rows = append(rows, domain.AvailablePositionRanking{CpID: 42, BidderPerdet: "1002"})
	assert.Equal(t, "1002", domain.DuplicateBidder(rows))
}
