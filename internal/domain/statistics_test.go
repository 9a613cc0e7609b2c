package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/talentmap/bidding-api/internal/domain"
)

func TestComputePositionStatistics(t *testing.T) {
	offered := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	bid := func(perdet string, status domain.BidStatus) domain.Bid {
		return domain.Bid{UserPerdet: perdet, Status: status, PositionGrade: "03", PositionSkillCode: "5505"}
	}

	withOffer := bid("1002", domain.BidStatusHandshakeOffered)
	withOffer.HandshakeOfferedDate = &offered

	bids := []domain.Bid{
		bid("1001", domain.BidStatusSubmitted),
		withOffer,
		bid("1003", domain.BidStatusDraft),
		bid("unknown", domain.BidStatusSubmitted),
	}
	bidders := map[string]domain.Bidder{
		"1001": {Perdet: "1001", Grade: "03", SkillCodes: []string{"5505"}},
		"1002": {Perdet: "1002", Grade: "02", SkillCodes: []string{"5505", "2010"}},
		"1003": {Perdet: "1003", Grade: "03"},
	}

	stats := domain.ComputePositionStatistics(7, 42, bids, bidders)
	assert.Equal(t, int64(7), stats.BidCycleID)
	assert.Equal(t, int64(42), stats.CpID)
	assert.Equal(t, 4, stats.TotalBids)
	assert.Equal(t, 2, stats.InGrade)
	assert.Equal(t, 2, stats.AtSkill)
	assert.Equal(t, 1, stats.InGradeAtSkill)
	assert.True(t, stats.HasHandshakeOffered)
	assert.False(t, stats.HasHandshakeAccepted)
}

func TestComputePositionStatistics_Empty(t *testing.T) {
	stats := domain.ComputePositionStatistics(7, 42, nil, nil)
	assert.Zero(t, stats.TotalBids)
	assert.False(t, stats.HasHandshakeOffered)
}

func TestComputeUserStatistics(t *testing.T) {
	bids := []domain.Bid{
		{Status: domain.BidStatusDraft},
		{Status: domain.BidStatusSubmitted},
		{Status: domain.BidStatusSubmitted},
		{Status: domain.BidStatusHandshakeDeclined},
		{Status: domain.BidStatusClosed},
	}

	stats := domain.ComputeUserStatistics(7, "1001", bids)
	assert.Equal(t, "1001", stats.UserPerdet)
	assert.Equal(t, 1, stats.Draft)
	assert.Equal(t, 2, stats.Submitted)
	assert.Equal(t, 1, stats.HandshakeDeclined)
	assert.Equal(t, 1, stats.Closed)
	assert.Zero(t, stats.Approved)
}
