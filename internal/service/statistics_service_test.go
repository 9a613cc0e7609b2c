package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/talentmap/bidding-api/internal/domain"
	"github.com/talentmap/bidding-api/internal/service"
	"github.com/talentmap/bidding-api/internal/testutil"
)

func TestStatisticsService_RefreshedByTransitions(t *testing.T) {
	f := newFixture(t)
	testutil.CreateBidder(t, f.db, "1003", "")
	require.NoError(t, f.db.Model(&domain.Bidder{}).Where("perdet = ?", "1003").Update("grade", "02").Error)

	bid, err := f.bids.AddToBidlist(asBidder(bidderA), cpID)
	require.NoError(t, err)
	_, err = f.bids.AddToBidlist(asBidder("1003"), cpID)
	require.NoError(t, err)
	_, err = f.bids.Submit(asBidder(bidderA), bid.ID)
	require.NoError(t, err)
	_, err = f.bids.OfferHandshake(asAO(aoPerdet), bid.ID)
	require.NoError(t, err)

	stats, err := f.stats.GetPositionStatistics(asAO(aoPerdet), cycleID, cpID)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalBids)
	assert.Equal(t, 1, stats.InGrade)
	assert.Equal(t, 2, stats.AtSkill)
	assert.Equal(t, 1, stats.InGradeAtSkill)
	assert.True(t, stats.HasHandshakeOffered)
	assert.False(t, stats.HasHandshakeAccepted)

	mine, err := f.stats.GetUserStatistics(asBidder(bidderA), cycleID, bidderA)
	require.NoError(t, err)
	assert.Equal(t, 1, mine.HandshakeOffered)
	assert.Zero(t, mine.Draft)
	assert.Zero(t, mine.Submitted)
}

func TestStatisticsService_Authorization(t *testing.T) {
	f := newFixture(t)
	testutil.CreateBid(t, f.db, bidderA, f.position, domain.BidStatusSubmitted)
	require.NoError(t, f.stats.RecomputePosition(context.Background(), cycleID, cpID))
	require.NoError(t, f.stats.RecomputeUser(context.Background(), cycleID, bidderA))

	t.Run("org user reads position statistics", func(t *testing.T) {
		stats, err := f.stats.GetPositionStatistics(asBidder(orgPerdet), cycleID, cpID)
		require.NoError(t, err)
		assert.Equal(t, 1, stats.TotalBids)
	})

	t.Run("other bureau denied", func(t *testing.T) {
		_, err := f.stats.GetPositionStatistics(asAO(otherAO), cycleID, cpID)
		assert.ErrorIs(t, err, service.ErrPermissionDenied)
	})

	t.Run("CDO reads bidder statistics", func(t *testing.T) {
		stats, err := f.stats.GetUserStatistics(asCDO(), cycleID, bidderA)
		require.NoError(t, err)
		assert.Equal(t, 1, stats.Submitted)
	})

	t.Run("another bidder denied", func(t *testing.T) {
		_, err := f.stats.GetUserStatistics(asBidder(bidderB), cycleID, bidderA)
		assert.ErrorIs(t, err, service.ErrPermissionDenied)
	})

	t.Run("missing aggregate", func(t *testing.T) {
		_, err := f.stats.GetUserStatistics(asBidder(bidderB), cycleID, bidderB)
		assert.ErrorIs(t, err, service.ErrStatisticsNotFound)
	})
}

func TestStatisticsService_ReconcileActiveCycles(t *testing.T) {
	f := newFixture(t)
	testutil.CreateBid(t, f.db, bidderA, f.position, domain.BidStatusSubmitted)
	testutil.CreateBid(t, f.db, bidderB, f.position, domain.BidStatusApproved)

	testutil.CreateBidCycle(t, f.db, 9, false, nil)
	closed := testutil.CreatePosition(t, f.db, 60, 9, bureauCode, orgCode)
	testutil.CreateBid(t, f.db, bidderA, closed, domain.BidStatusSubmitted)

	failed, err := f.stats.ReconcileActiveCycles(context.Background())
	require.NoError(t, err)
	assert.Zero(t, failed)

	var positionRows, userRows int64
	require.NoError(t, f.db.Model(&domain.PositionBidStatistics{}).Count(&positionRows).Error)
	require.NoError(t, f.db.Model(&domain.UserBidStatistics{}).Count(&userRows).Error)
	assert.Equal(t, int64(1), positionRows, "inactive cycles are skipped")
	assert.Equal(t, int64(2), userRows)

	stats, err := f.stats.GetPositionStatistics(asAO(aoPerdet), cycleID, cpID)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalBids)
	assert.False(t, stats.HasHandshakeOffered, "status dates drive the handshake flags")
}
