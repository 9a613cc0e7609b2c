package domain_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/talentmap/bidding-api/internal/domain"
)

func TestBidStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from domain.BidStatus
		to   domain.BidStatus
		want bool
	}{
		{domain.BidStatusDraft, domain.BidStatusSubmitted, true},
		{domain.BidStatusDraft, domain.BidStatusHandshakeOffered, false},
		{domain.BidStatusSubmitted, domain.BidStatusHandshakeOffered, true},
		{domain.BidStatusHandshakeOffered, domain.BidStatusHandshakeAccepted, true},
		{domain.BidStatusHandshakeOffered, domain.BidStatusHandshakeDeclined, true},
		{domain.BidStatusHandshakeDeclined, domain.BidStatusHandshakeAccepted, false},
		{domain.BidStatusHandshakeAccepted, domain.BidStatusInPanel, true},
		{domain.BidStatusInPanel, domain.BidStatusInPanel, true},
		{domain.BidStatusInPanel, domain.BidStatusApproved, true},
		{domain.BidStatusSubmitted, domain.BidStatusApproved, false},
		{domain.BidStatusApproved, domain.BidStatusDeclined, true},
		{domain.BidStatusDraft, domain.BidStatusClosed, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestBidStatus_Flags(t *testing.T) {
	for _, status := range domain.AllBidStatuses {
		assert.True(t, status.IsValid(), status)
	}
	assert.False(t, domain.BidStatus("pending").IsValid())

	assert.True(t, domain.BidStatusHandshakeAccepted.IsPriority())
	assert.True(t, domain.BidStatusInPanel.IsPriority())
	assert.True(t, domain.BidStatusApproved.IsPriority())
	assert.False(t, domain.BidStatusHandshakeOffered.IsPriority())
	assert.False(t, domain.BidStatusClosed.IsPriority())
}

func TestBid_SetStatus(t *testing.T) {
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	bid := &domain.Bid{Status: domain.BidStatusSubmitted}

	bid.SetStatus(domain.BidStatusHandshakeAccepted, at)
	assert.True(t, bid.IsPriority)
	require.NotNil(t, bid.HandshakeAcceptedDate)
	assert.True(t, bid.HandshakeAcceptedDate.Equal(at))

	bid.SetStatus(domain.BidStatusDeclined, at.Add(time.Hour))
	assert.False(t, bid.IsPriority, "declining drops priority")
	require.NotNil(t, bid.DeclinedDate)
	assert.NotNil(t, bid.HandshakeAcceptedDate, "earlier dates are kept")
}

func TestBid_SchedulePanel(t *testing.T) {
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	first := time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC)
	bid := &domain.Bid{Status: domain.BidStatusHandshakeAccepted}

	assert.Equal(t, domain.PanelScheduled, bid.SchedulePanel(first, at))
	assert.Equal(t, domain.BidStatusInPanel, bid.Status)
	assert.Zero(t, bid.PanelRescheduleCount)

	assert.Equal(t, domain.PanelScheduled, bid.SchedulePanel(first, at), "same date is not a reschedule")
	assert.Zero(t, bid.PanelRescheduleCount)

	assert.Equal(t, domain.PanelRescheduled, bid.SchedulePanel(first.AddDate(0, 0, 7), at))
	assert.Equal(t, 1, bid.PanelRescheduleCount)
	assert.True(t, bid.IsPriority)
}

func TestHoldsPriorityConflict(t *testing.T) {
	target := domain.Bid{BaseModel: domain.BaseModel{ID: uuid.New()}, BidCycleID: 1, Status: domain.BidStatusHandshakeOffered}
	other := func(cycle int64, status domain.BidStatus) domain.Bid {
		return domain.Bid{BaseModel: domain.BaseModel{ID: uuid.New()}, BidCycleID: cycle, Status: status}
	}

	assert.False(t, domain.HoldsPriorityConflict(nil, &target))
	assert.False(t, domain.HoldsPriorityConflict([]domain.Bid{target}, &target), "the bid itself is excluded")
	assert.False(t, domain.HoldsPriorityConflict([]domain.Bid{other(2, domain.BidStatusApproved)}, &target))
	assert.False(t, domain.HoldsPriorityConflict([]domain.Bid{other(1, domain.BidStatusSubmitted)}, &target))
	assert.True(t, domain.HoldsPriorityConflict([]domain.Bid{other(1, domain.BidStatusInPanel)}, &target))
}

func TestCountInStatus(t *testing.T) {
	bids := []domain.Bid{
		{Status: domain.BidStatusSubmitted},
		{Status: domain.BidStatusDraft},
		{Status: domain.BidStatusSubmitted},
	}
	assert.Equal(t, 2, domain.CountInStatus(bids, domain.BidStatusSubmitted))
	assert.Zero(t, domain.CountInStatus(bids, domain.BidStatusApproved))
}

func TestBidCycle_AcceptsOwnerChanges(t *testing.T) {
	deadline := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	open := &domain.BidCycle{}
	assert.True(t, open.AcceptsOwnerChanges(deadline))

	cycle := &domain.BidCycle{CycleDeadlineDate: &deadline}
	assert.True(t, cycle.AcceptsOwnerChanges(deadline.Add(-time.Second)))
	assert.False(t, cycle.AcceptsOwnerChanges(deadline), "the deadline itself is closed")
}
