package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/talentmap/bidding-api/internal/domain"
	"github.com/talentmap/bidding-api/internal/events"
	"github.com/talentmap/bidding-api/internal/service"
	"github.com/talentmap/bidding-api/internal/testutil"
)

func TestNotificationService_BidTransitions(t *testing.T) {
	t.Run("submit notifies owner and CDO", func(t *testing.T) {
		f := newFixture(t)
		bid, err := f.bids.AddToBidlist(asBidder(bidderA), cpID)
		require.NoError(t, err)
		_, err = f.bids.Submit(asBidder(bidderA), bid.ID)
		require.NoError(t, err)

		assert.Contains(t, messagesFor(t, f.db, bidderA), "Your bid for Political Officer has been submitted.")
		assert.Equal(t, []string{"Bidder 1001 submitted a bid for Political Officer."}, messagesFor(t, f.db, cdoPerdet))
		assert.Contains(t, f.publisher.types(), events.TypeBidTransition)
	})

	t.Run("handshake offer reaches other bidders but not the owner twice", func(t *testing.T) {
		f := newFixture(t)
		bid := testutil.CreateBid(t, f.db, bidderA, f.position, domain.BidStatusSubmitted)
		testutil.CreateBid(t, f.db, bidderB, f.position, domain.BidStatusSubmitted)

		_, err := f.bids.OfferHandshake(asAO(aoPerdet), bid.ID)
		require.NoError(t, err)

		assert.Equal(t, []string{"A handshake has been offered to you for Political Officer."}, messagesFor(t, f.db, bidderA))
		assert.Equal(t, []string{"A handshake has been offered to another bidder for Political Officer."}, messagesFor(t, f.db, bidderB))
		assert.Empty(t, messagesFor(t, f.db, aoPerdet))
	})

	t.Run("CDO close tells the owner who acted", func(t *testing.T) {
		f := newFixture(t)
		bid := testutil.CreateBid(t, f.db, bidderA, f.position, domain.BidStatusSubmitted)

		_, err := f.bids.Close(asCDO(), bid.ID)
		require.NoError(t, err)

		messages := messagesFor(t, f.db, bidderA)
		assert.ElementsMatch(t, []string{
			"Your bid for Political Officer has been closed.",
			"Your CDO updated your bid for Political Officer.",
		}, messages)
		assert.Empty(t, messagesFor(t, f.db, cdoPerdet))
	})

	t.Run("owner delete emits closed", func(t *testing.T) {
		f := newFixture(t)
		bid := testutil.CreateBid(t, f.db, bidderA, f.position, domain.BidStatusDraft)

		_, err := f.bids.Close(asBidder(bidderA), bid.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"Your bid for Political Officer has been closed."}, messagesFor(t, f.db, bidderA))
	})
}

func TestNotificationService_HandshakeTransitions(t *testing.T) {
	t.Run("CDO acceptance skips the CDO message", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.handshakes.Offer(asAO(aoPerdet), cpID, bidderA, nil)
		require.NoError(t, err)
		offeredToCDO := len(messagesFor(t, f.db, cdoPerdet))

		_, err = f.handshakes.RespondAsCDO(asCDO(), cpID, bidderA, true)
		require.NoError(t, err)

		assert.Len(t, messagesFor(t, f.db, cdoPerdet), offeredToCDO)
		assert.Contains(t, messagesFor(t, f.db, bidderA), "Your CDO answered the handshake for Political Officer on your behalf.")
		assert.Equal(t, []string{"Bidder 1001 accepted the handshake for Political Officer."}, messagesFor(t, f.db, aoPerdet))
		assert.Contains(t, f.publisher.types(), events.TypeHandshakeTransition)
	})

	t.Run("bidder acceptance reaches bureau and CDO", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.handshakes.Offer(asAO(aoPerdet), cpID, bidderA, nil)
		require.NoError(t, err)

		_, err = f.handshakes.RespondAsBidder(asBidder(bidderA), cpID, true)
		require.NoError(t, err)

		assert.Contains(t, messagesFor(t, f.db, cdoPerdet), "Bidder 1001 accepted a handshake for Political Officer.")
		assert.Equal(t, []string{"Bidder 1001 accepted the handshake for Political Officer."}, messagesFor(t, f.db, aoPerdet))
		assert.NotContains(t, messagesFor(t, f.db, bidderA), "Your CDO answered the handshake for Political Officer on your behalf.")
	})
}

func TestNotificationService_Inbox(t *testing.T) {
	f := newFixture(t)
	bid := testutil.CreateBid(t, f.db, bidderA, f.position, domain.BidStatusSubmitted)
	_, err := f.bids.OfferHandshake(asAO(aoPerdet), bid.ID)
	require.NoError(t, err)
	_, err = f.bids.AcceptHandshake(asBidder(bidderA), bid.ID)
	require.NoError(t, err)

	ctx := asBidder(bidderA)
	count, err := f.notifications.CountUnread(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	page, err := f.notifications.ListForCurrentUser(ctx, 1, 20, false)
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
	items, ok := page.Data.([]domain.NotificationDTO)
	require.True(t, ok)
	require.Len(t, items, 2)
	assert.ElementsMatch(t, []string{domain.EntityBid}, uniqueFirstTags(items))

	require.NoError(t, f.notifications.MarkAsRead(ctx, items[0].ID))
	count, err = f.notifications.CountUnread(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	unread, err := f.notifications.ListForCurrentUser(ctx, 1, 20, true)
	require.NoError(t, err)
	assert.Equal(t, int64(1), unread.Total)

	err = f.notifications.MarkAsRead(asBidder(bidderB), items[1].ID)
	assert.ErrorIs(t, err, service.ErrNotificationNotFound)

	err = f.notifications.MarkAsRead(ctx, uuid.New())
	assert.ErrorIs(t, err, service.ErrNotFound)

	require.NoError(t, f.notifications.MarkAllAsRead(ctx))
	count, err = f.notifications.CountUnread(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	_, err = f.notifications.CountUnread(context.Background())
	assert.ErrorIs(t, err, service.ErrUserContextRequired)
}

func uniqueFirstTags(items []domain.NotificationDTO) []string {
	seen := map[string]bool{}
	var tags []string
	for _, item := range items {
		if len(item.Tags) > 0 && !seen[item.Tags[0]] {
			seen[item.Tags[0]] = true
			tags = append(tags, item.Tags[0])
		}
	}
	return tags
}
