package domain

import "time"

// HandshakeState is the negotiation state of a bureau handshake offer.
// Each value records both the outcome and which party produced it.
type HandshakeState string

const (
	HandshakeOffered          HandshakeState = "offered"
	HandshakeAcceptedByBidder HandshakeState = "accepted_by_bidder"
	HandshakeAcceptedByCDO    HandshakeState = "accepted_by_cdo"
	HandshakeDeclinedByBidder HandshakeState = "declined_by_bidder"
	HandshakeDeclinedByCDO    HandshakeState = "declined_by_cdo"
	HandshakeRevoked          HandshakeState = "revoked"
)

// IsValid checks if the HandshakeState is a valid enum value
func (s HandshakeState) IsValid() bool {
	switch s {
	case HandshakeOffered, HandshakeAcceptedByBidder, HandshakeAcceptedByCDO,
		HandshakeDeclinedByBidder, HandshakeDeclinedByCDO, HandshakeRevoked:
		return true
	}
	return false
}

// Legacy single-letter status codes exposed by read views
const (
	HandshakeCodeOffered  = "O"
	HandshakeCodeAccepted = "A"
	HandshakeCodeDeclined = "D"
	HandshakeCodeRevoked  = "R"
)

// HandshakeParty identifies who answered a handshake on the bidder's side
type HandshakeParty string

const (
	PartyBidder HandshakeParty = "bidder"
	PartyCDO    HandshakeParty = "cdo"
)

// BidHandshake is a bureau's offer to one bidder for one position.
// Rows are never deleted; a withdrawn offer is kept as revoked.
type BidHandshake struct {
	BaseModel
	CpID         int64          `gorm:"column:cp_id;not null;uniqueIndex:idx_handshake_position_bidder,priority:1;index:idx_handshake_active_position,unique,where:state <> 'revoked'"`
	BidderPerdet string         `gorm:"type:varchar(50);not null;uniqueIndex:idx_handshake_position_bidder,priority:2;index"`
	State        HandshakeState `gorm:"type:varchar(30);not null"`
	BidCycleID   int64          `gorm:"not null"`

	DateOffered    *time.Time
	DateAccepted   *time.Time
	DateDeclined   *time.Time
	DateRevoked    *time.Time
	ExpirationDate *time.Time

	OwnerPerdet             string  `gorm:"type:varchar(50);not null"`
	LastEditingUserPerdet   string  `gorm:"type:varchar(50)"`
	LastEditingBidderPerdet *string `gorm:"type:varchar(50)"`
}

// IsActive reports whether the handshake still counts as the position's offer
func (h *BidHandshake) IsActive() bool {
	return h.State != HandshakeRevoked
}

// Status derives the legacy O/A/D/R code
func (h *BidHandshake) Status() string {
	switch h.State {
	case HandshakeAcceptedByBidder, HandshakeAcceptedByCDO:
		return HandshakeCodeAccepted
	case HandshakeDeclinedByBidder, HandshakeDeclinedByCDO:
		return HandshakeCodeDeclined
	case HandshakeRevoked:
		return HandshakeCodeRevoked
	default:
		return HandshakeCodeOffered
	}
}

// BidderStatus derives the legacy bidder-side answer code. It is empty until the
// bidder or their CDO answers; IsCDOUpdate tells the two apart.
func (h *BidHandshake) BidderStatus() string {
	switch {
	case h.IsAccepted():
		return HandshakeCodeAccepted
	case h.IsDeclined():
		return HandshakeCodeDeclined
	}
	return ""
}

// IsCDOUpdate reports whether the current answer was given by the bidder's CDO
func (h *BidHandshake) IsCDOUpdate() bool {
	return h.State == HandshakeAcceptedByCDO || h.State == HandshakeDeclinedByCDO
}

// IsAccepted reports whether the bidder side accepted
func (h *BidHandshake) IsAccepted() bool {
	return h.State == HandshakeAcceptedByBidder || h.State == HandshakeAcceptedByCDO
}

// IsDeclined reports whether the bidder side declined
func (h *BidHandshake) IsDeclined() bool {
	return h.State == HandshakeDeclinedByBidder || h.State == HandshakeDeclinedByCDO
}

// Offer resets the handshake to a fresh offer from the bureau user ownerPerdet
func (h *BidHandshake) Offer(ownerPerdet string, bidCycleID int64, expiration *time.Time, at time.Time) {
	stamp := at
	h.State = HandshakeOffered
	h.BidCycleID = bidCycleID
	h.OwnerPerdet = ownerPerdet
	h.LastEditingUserPerdet = ownerPerdet
	h.LastEditingBidderPerdet = nil
	h.DateOffered = &stamp
	h.DateAccepted = nil
	h.DateDeclined = nil
	h.DateRevoked = nil
	h.ExpirationDate = expiration
}

// Revoke withdraws the offer
func (h *BidHandshake) Revoke(byPerdet string, at time.Time) {
	stamp := at
	h.State = HandshakeRevoked
	h.LastEditingUserPerdet = byPerdet
	h.DateRevoked = &stamp
}

// Respond records the bidder side's answer given by party. The caller must have
// checked that the handshake is active.
func (h *BidHandshake) Respond(party HandshakeParty, accept bool, byPerdet string, at time.Time) {
	stamp := at
	switch {
	case accept && party == PartyCDO:
		h.State = HandshakeAcceptedByCDO
	case accept:
		h.State = HandshakeAcceptedByBidder
	case party == PartyCDO:
		h.State = HandshakeDeclinedByCDO
	default:
		h.State = HandshakeDeclinedByBidder
	}
	if accept {
		h.DateAccepted = &stamp
	} else {
		h.DateDeclined = &stamp
	}
	if party == PartyCDO {
		h.LastEditingUserPerdet = byPerdet
	} else {
		bidder := byPerdet
		h.LastEditingBidderPerdet = &bidder
	}
}

// NotificationStatus is the template key prefix for the handshake's current state
func (h *BidHandshake) NotificationStatus() string {
	switch {
	case h.State == HandshakeRevoked:
		return "handshake_revoked"
	case h.IsAccepted():
		return "handshake_accepted"
	case h.IsDeclined():
		return "handshake_declined"
	default:
		return "handshake_offered"
	}
}

// MostRecentlyUpdated returns the handshake with the latest UpdatedAt, or nil
func MostRecentlyUpdated(handshakes []BidHandshake) *BidHandshake {
	var latest *BidHandshake
	for i := range handshakes {
		if latest == nil || handshakes[i].UpdatedAt.After(latest.UpdatedAt) {
			latest = &handshakes[i]
		}
	}
	return latest
}
