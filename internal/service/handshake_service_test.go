package service_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/talentmap/bidding-api/internal/domain"
	"github.com/talentmap/bidding-api/internal/service"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"gorm.io/gorm"
)

func loadHandshake(t *testing.T, db *gorm.DB, bidder string) domain.BidHandshake {
	t.Helper()
	var hs domain.BidHandshake
	require.NoError(t, db.Where("cp_id = ? AND bidder_perdet = ?", cpID, bidder).First(&hs).Error)
	return hs
}

func TestHandshakeService_OfferRevokesCompetitors(t *testing.T) {
	f := newFixture(t)
	ctx := asAO(aoPerdet)

	first, err := f.handshakes.Offer(ctx, cpID, bidderA, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.HandshakeOffered, first.State)
	assert.Equal(t, domain.HandshakeCodeOffered, first.Status())
	assert.Equal(t, aoPerdet, first.OwnerPerdet)
	assert.Equal(t, cycleID, first.BidCycleID)

	second, err := f.handshakes.Offer(ctx, cpID, bidderB, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.HandshakeOffered, second.State)

	a := loadHandshake(t, f.db, bidderA)
	assert.Equal(t, domain.HandshakeRevoked, a.State)
	assert.Equal(t, domain.HandshakeCodeRevoked, a.Status())
	assert.NotNil(t, a.DateRevoked)

	b := loadHandshake(t, f.db, bidderB)
	assert.Equal(t, domain.HandshakeCodeOffered, b.Status())

	current, err := f.handshakes.PositionHandshake(ctx, cpID)
	require.NoError(t, err)
	require.NotNil(t, current.BidderPerdet)
	assert.Equal(t, bidderB, *current.BidderPerdet)

	t.Run("re-offer to a revoked bidder", func(t *testing.T) {
		again, err := f.handshakes.Offer(ctx, cpID, bidderA, nil)
		require.NoError(t, err)
		assert.Equal(t, domain.HandshakeOffered, again.State)
		assert.Nil(t, again.DateRevoked)
		assert.Equal(t, a.ID, again.ID)

		assert.Equal(t, domain.HandshakeRevoked, loadHandshake(t, f.db, bidderB).State)

		var active int64
		require.NoError(t, f.db.Model(&domain.BidHandshake{}).
			Where("cp_id = ? AND state <> ?", cpID, domain.HandshakeRevoked).
			Count(&active).Error)
		assert.Equal(t, int64(1), active)
	})
}

func TestHandshakeService_OfferValidation(t *testing.T) {
	f := newFixture(t)

	t.Run("other bureau", func(t *testing.T) {
		_, err := f.handshakes.Offer(asAO(otherAO), cpID, bidderA, nil)
		assert.ErrorIs(t, err, service.ErrPermissionDenied)
	})

	t.Run("expiration in the past", func(t *testing.T) {
		past := time.Now().Add(-time.Hour)
		_, err := f.handshakes.Offer(asAO(aoPerdet), cpID, bidderA, &past)
		assert.ErrorIs(t, err, service.ErrExpirationInPast)
	})

	t.Run("future expiration is stored", func(t *testing.T) {
		future := time.Now().Add(48 * time.Hour)
		hs, err := f.handshakes.Offer(asAO(aoPerdet), cpID, bidderA, &future)
		require.NoError(t, err)
		require.NotNil(t, hs.ExpirationDate)
		assert.WithinDuration(t, future, *hs.ExpirationDate, time.Second)
	})

	t.Run("unknown position", func(t *testing.T) {
		_, err := f.handshakes.Offer(asAO(aoPerdet), 404, bidderA, nil)
		assert.ErrorIs(t, err, service.ErrPositionNotFound)
	})
}

func TestHandshakeService_BidderResponds(t *testing.T) {
	f := newFixture(t)
	_, err := f.handshakes.Offer(asAO(aoPerdet), cpID, bidderA, nil)
	require.NoError(t, err)

	hs, err := f.handshakes.RespondAsBidder(asBidder(bidderA), cpID, true)
	require.NoError(t, err)
	assert.Equal(t, domain.HandshakeAcceptedByBidder, hs.State)
	assert.Equal(t, domain.HandshakeCodeAccepted, hs.Status())
	assert.Equal(t, domain.HandshakeCodeAccepted, hs.BidderStatus())
	assert.False(t, hs.IsCDOUpdate())
	require.NotNil(t, hs.LastEditingBidderPerdet)
	assert.Equal(t, bidderA, *hs.LastEditingBidderPerdet)

	hs, err = f.handshakes.RespondAsBidder(asBidder(bidderA), cpID, false)
	require.NoError(t, err)
	assert.Equal(t, domain.HandshakeDeclinedByBidder, hs.State)
	assert.Equal(t, domain.HandshakeCodeDeclined, hs.BidderStatus())

	_, err = f.handshakes.RespondAsBidder(asBidder(bidderB), cpID, true)
	assert.ErrorIs(t, err, service.ErrHandshakeNotFound)
}

func TestHandshakeService_CDOResponds(t *testing.T) {
	f := newFixture(t)
	_, err := f.handshakes.Offer(asAO(aoPerdet), cpID, bidderA, nil)
	require.NoError(t, err)

	_, err = f.handshakes.RespondAsCDO(asBidder(stranger), cpID, bidderA, true)
	assert.ErrorIs(t, err, service.ErrPermissionDenied)

	hs, err := f.handshakes.RespondAsCDO(asCDO(), cpID, bidderA, true)
	require.NoError(t, err)
	assert.Equal(t, domain.HandshakeAcceptedByCDO, hs.State)
	assert.True(t, hs.IsCDOUpdate())
	assert.Equal(t, domain.HandshakeCodeAccepted, hs.Status())
	assert.Equal(t, domain.HandshakeCodeAccepted, hs.BidderStatus())
	assert.Equal(t, cdoPerdet, hs.LastEditingUserPerdet)

	view, err := f.handshakes.BidderHandshake(asAO(aoPerdet), cpID, bidderA)
	require.NoError(t, err)
	assert.Equal(t, domain.HandshakeViewOffered, view.HsStatusCode)
	require.NotNil(t, view.BidderHsCode)
	assert.Equal(t, domain.HandshakeViewAccepted, *view.BidderHsCode)
	assert.True(t, view.HsCDOIndicator)
}

func TestHandshakeService_CDODenialIsTraced(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))
	t.Cleanup(func() { otel.SetTracerProvider(previous) })

	f := newFixture(t)
	_, err := f.handshakes.Offer(asAO(aoPerdet), cpID, bidderA, nil)
	require.NoError(t, err)

	_, err = f.handshakes.RespondAsCDO(asBidder(stranger), cpID, bidderA, true)
	require.ErrorIs(t, err, service.ErrPermissionDenied)

	var respond []sdktrace.ReadOnlySpan
	for _, span := range recorder.Ended() {
		if span.Name() == "HandshakeService.Respond" {
			respond = append(respond, span)
		}
	}
	require.Len(t, respond, 1)
	assert.Equal(t, codes.Error, respond[0].Status().Code)
}

// injectCompetingOffer makes the next n inserts of a handshake for bidder meet a
// live offer to competitor written earlier in the same transaction, as a
// concurrent first offer on the position would
func injectCompetingOffer(t *testing.T, db *gorm.DB, bidder, competitor string, n int) {
	t.Helper()
	remaining := n
	err := db.Callback().Create().Before("gorm:create").Register("test:competing_offer", func(tx *gorm.DB) {
		hs, ok := tx.Statement.Dest.(*domain.BidHandshake)
		if !ok || hs.BidderPerdet != bidder || remaining == 0 {
			return
		}
		remaining--
		competing := &domain.BidHandshake{
			CpID:         hs.CpID,
			BidderPerdet: competitor,
			State:        domain.HandshakeOffered,
			BidCycleID:   hs.BidCycleID,
			OwnerPerdet:  hs.OwnerPerdet,
		}
		if err := tx.Session(&gorm.Session{NewDB: true}).Create(competing).Error; err != nil {
			_ = tx.AddError(err)
		}
	})
	require.NoError(t, err)
}

func countLiveHandshakes(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(&domain.BidHandshake{}).
		Where("cp_id = ? AND state <> ?", cpID, domain.HandshakeRevoked).
		Count(&count).Error)
	return count
}

func TestHandshakeService_OfferConflict(t *testing.T) {
	t.Run("retried once", func(t *testing.T) {
		f := newFixture(t)
		injectCompetingOffer(t, f.db, bidderA, bidderB, 1)

		hs, err := f.handshakes.Offer(asAO(aoPerdet), cpID, bidderA, nil)
		require.NoError(t, err)
		assert.Equal(t, domain.HandshakeOffered, hs.State)
		assert.Equal(t, bidderA, hs.BidderPerdet)

		assert.Equal(t, int64(1), countLiveHandshakes(t, f.db))
		var competitor int64
		require.NoError(t, f.db.Model(&domain.BidHandshake{}).
			Where("bidder_perdet = ?", bidderB).
			Count(&competitor).Error)
		assert.Zero(t, competitor, "the conflicting attempt is rolled back")
	})

	t.Run("second conflict is reported", func(t *testing.T) {
		f := newFixture(t)
		injectCompetingOffer(t, f.db, bidderA, bidderB, 2)

		_, err := f.handshakes.Offer(asAO(aoPerdet), cpID, bidderA, nil)
		assert.ErrorIs(t, err, service.ErrHandshakeOfferConflict)

		var total int64
		require.NoError(t, f.db.Model(&domain.BidHandshake{}).Count(&total).Error)
		assert.Zero(t, total)
		assert.Empty(t, messagesFor(t, f.db, bidderA))
	})
}

func TestHandshakeService_ConcurrentOffers(t *testing.T) {
	f := newFixture(t)
	bidders := []string{bidderA, bidderB}

	var wg sync.WaitGroup
	errs := make([]error, len(bidders))
	for i, bidder := range bidders {
		i, bidder := i, bidder
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = f.handshakes.Offer(asAO(aoPerdet), cpID, bidder, nil)
		}()
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		}
	}
	assert.GreaterOrEqual(t, succeeded, 1, "errors: %v", errs)
	assert.Equal(t, int64(1), countLiveHandshakes(t, f.db))
}

func TestHandshakeService_Revoke(t *testing.T) {
	f := newFixture(t)
	_, err := f.handshakes.Offer(asAO(aoPerdet), cpID, bidderA, nil)
	require.NoError(t, err)

	_, err = f.handshakes.Revoke(asAO(otherAO), cpID, bidderA)
	assert.ErrorIs(t, err, service.ErrPermissionDenied)

	hs, err := f.handshakes.Revoke(asAO(aoPerdet), cpID, bidderA)
	require.NoError(t, err)
	assert.Equal(t, domain.HandshakeRevoked, hs.State)
	assert.NotNil(t, hs.DateRevoked)

	_, err = f.handshakes.RespondAsBidder(asBidder(bidderA), cpID, true)
	assert.ErrorIs(t, err, service.ErrHandshakeRevoked)

	current, err := f.handshakes.PositionHandshake(asAO(aoPerdet), cpID)
	require.NoError(t, err)
	assert.Nil(t, current.BidderPerdet)

	_, err = f.handshakes.Revoke(asAO(aoPerdet), cpID, bidderB)
	assert.ErrorIs(t, err, service.ErrHandshakeNotFound)
}

func TestHandshakeService_Reads(t *testing.T) {
	f := newFixture(t)

	_, err := f.handshakes.LeadHandshake(asAO(aoPerdet), cpID)
	assert.ErrorIs(t, err, service.ErrHandshakeNotFound)

	_, err = f.handshakes.Offer(asAO(aoPerdet), cpID, bidderA, nil)
	require.NoError(t, err)

	lead, err := f.handshakes.LeadHandshake(asAO(aoPerdet), cpID)
	require.NoError(t, err)
	assert.Equal(t, bidderA, lead.BidderPerdet)
	assert.Equal(t, domain.HandshakeViewOffered, lead.HsStatusCode)
	assert.Nil(t, lead.BidderHsCode)

	list, err := f.handshakes.ListForPosition(asAO(aoPerdet), cpID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = f.handshakes.ListForPosition(asAO(otherAO), cpID)
	assert.ErrorIs(t, err, service.ErrPermissionDenied)

	mine, err := f.handshakes.ListMine(asBidder(bidderA))
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, cpID, mine[0].CpID)

	none, err := f.handshakes.ListMine(asBidder(bidderB))
	require.NoError(t, err)
	assert.Empty(t, none)
}
