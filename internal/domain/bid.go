package domain

import "time"

// BidStatus represents the lifecycle state of a bid
type BidStatus string

const (
	BidStatusDraft             BidStatus = "draft"
	BidStatusSubmitted         BidStatus = "submitted"
	BidStatusHandshakeOffered  BidStatus = "handshake_offered"
	BidStatusHandshakeAccepted BidStatus = "handshake_accepted"
	BidStatusHandshakeDeclined BidStatus = "handshake_declined"
	BidStatusInPanel           BidStatus = "in_panel"
	BidStatusApproved          BidStatus = "approved"
	BidStatusDeclined          BidStatus = "declined"
	BidStatusClosed            BidStatus = "closed"
)

// AllBidStatuses lists every status in lifecycle order
var AllBidStatuses = []BidStatus{
	BidStatusDraft,
	BidStatusSubmitted,
	BidStatusHandshakeOffered,
	BidStatusHandshakeAccepted,
	BidStatusHandshakeDeclined,
	BidStatusInPanel,
	BidStatusApproved,
	BidStatusDeclined,
	BidStatusClosed,
}

// PriorityBidStatuses are the statuses that make a bid the bidder's priority bid.
// A bidder holds at most one priority bid per bid cycle.
var PriorityBidStatuses = []BidStatus{
	BidStatusHandshakeAccepted,
	BidStatusInPanel,
	BidStatusApproved,
}

// IsValid checks if the BidStatus is a valid enum value
func (s BidStatus) IsValid() bool {
	for _, status := range AllBidStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// IsPriority reports whether a bid in this status is a priority bid
func (s BidStatus) IsPriority() bool {
	for _, status := range PriorityBidStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// forwardBidTransitions holds the regular lifecycle edges. Declining (bureau) and
// closing (CDO) are allowed from every status and are not listed here.
var forwardBidTransitions = map[BidStatus][]BidStatus{
	BidStatusDraft:             {BidStatusSubmitted},
	BidStatusSubmitted:         {BidStatusHandshakeOffered},
	BidStatusHandshakeOffered:  {BidStatusHandshakeAccepted, BidStatusHandshakeDeclined},
	BidStatusHandshakeAccepted: {BidStatusInPanel},
	BidStatusInPanel:           {BidStatusInPanel, BidStatusApproved},
}

// CanTransitionTo reports whether a bid may move from s to next
func (s BidStatus) CanTransitionTo(next BidStatus) bool {
	if next == BidStatusDeclined || next == BidStatusClosed {
		return true
	}
	for _, allowed := range forwardBidTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Bid is a bidder's expressed interest in one position within one bid cycle
type Bid struct {
	BaseModel
	UserPerdet string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_bid_user_position_cycle,priority:1;index"`
	CpID       int64     `gorm:"column:cp_id;not null;uniqueIndex:idx_bid_user_position_cycle,priority:2;index"`
	BidCycleID int64     `gorm:"not null;uniqueIndex:idx_bid_user_position_cycle,priority:3;index"`
	Status     BidStatus `gorm:"type:varchar(30);not null;default:'draft';index"`
	IsPriority bool      `gorm:"not null;default:false"`

	// Position attributes captured when the bid was placed
	BureauCode        string `gorm:"type:varchar(20);not null;index"`
	OrgCode           string `gorm:"type:varchar(20)"`
	PositionTitle     string `gorm:"type:varchar(300)"`
	PositionGrade     string `gorm:"type:varchar(10)"`
	PositionSkillCode string `gorm:"type:varchar(20)"`

	DraftDate             *time.Time
	SubmittedDate         *time.Time
	HandshakeOfferedDate  *time.Time
	HandshakeAcceptedDate *time.Time
	HandshakeDeclinedDate *time.Time
	InPanelDate           *time.Time
	ScheduledPanelDate    *time.Time
	ApprovedDate          *time.Time
	DeclinedDate          *time.Time
	ClosedDate            *time.Time

	PanelRescheduleCount int     `gorm:"not null;default:0"`
	ReviewerPerdet       *string `gorm:"type:varchar(50)"`
}

// SetStatus moves the bid to status, stamps the matching date and recomputes IsPriority
func (b *Bid) SetStatus(status BidStatus, at time.Time) {
	b.Status = status
	b.IsPriority = status.IsPriority()

	stamp := at
	switch status {
	case BidStatusDraft:
		b.DraftDate = &stamp
	case BidStatusSubmitted:
		b.SubmittedDate = &stamp
	case BidStatusHandshakeOffered:
		b.HandshakeOfferedDate = &stamp
	case BidStatusHandshakeAccepted:
		b.HandshakeAcceptedDate = &stamp
	case BidStatusHandshakeDeclined:
		b.HandshakeDeclinedDate = &stamp
	case BidStatusInPanel:
		b.InPanelDate = &stamp
	case BidStatusApproved:
		b.ApprovedDate = &stamp
	case BidStatusDeclined:
		b.DeclinedDate = &stamp
	case BidStatusClosed:
		b.ClosedDate = &stamp
	}
}

// PanelScheduleEvent tells whether scheduling a panel was a first schedule or a reschedule
type PanelScheduleEvent string

const (
	PanelScheduled   PanelScheduleEvent = "scheduled"
	PanelRescheduled PanelScheduleEvent = "rescheduled"
)

// SchedulePanel puts the bid in panel for the given date. Replacing an existing,
// different panel date counts as a reschedule.
func (b *Bid) SchedulePanel(panelDate, at time.Time) PanelScheduleEvent {
	event := PanelScheduled
	if b.ScheduledPanelDate != nil && !b.ScheduledPanelDate.Equal(panelDate) {
		b.PanelRescheduleCount++
		event = PanelRescheduled
	}
	date := panelDate
	b.ScheduledPanelDate = &date
	b.SetStatus(BidStatusInPanel, at)
	return event
}

// HoldsPriorityConflict reports whether any bid other than exclude, in the same
// bid cycle, is a priority bid.
func HoldsPriorityConflict(bids []Bid, exclude *Bid) bool {
	for i := range bids {
		other := &bids[i]
		if other.ID == exclude.ID || other.BidCycleID != exclude.BidCycleID {
			continue
		}
		if other.Status.IsPriority() {
			return true
		}
	}
	return false
}

// CountInStatus counts bids holding the given status
func CountInStatus(bids []Bid, status BidStatus) int {
	n := 0
	for i := range bids {
		if bids[i].Status == status {
			n++
		}
	}
	return n
}
