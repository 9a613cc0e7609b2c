package domain

import (
	"strconv"
	"strings"
	"time"
)

// Entity kinds that emit notifications
const (
	EntityBid       = "bid"
	EntityHandshake = "handshake"
)

// Template key suffixes by recipient
const (
	RecipientOwner  = "owner"
	RecipientOther  = "other"
	RecipientCDO    = "cdo"
	RecipientBureau = "bureau"
	// RequestedCDOKey addresses the owner when their CDO performed the transition
	RequestedCDOKey = "requested_cdo"
)

// MessageTemplates maps "{status}_{recipient}" keys to message text.
// Supported placeholders: {position}, {bidder}, {cycle}, {date}.
type MessageTemplates map[string]string

// Key builds the template key for a status and recipient
func Key(status, recipient string) string {
	return status + "_" + recipient
}

// BidMessageTemplates are the messages sent on bid status changes
var BidMessageTemplates = MessageTemplates{
	"submitted_owner":          "Your bid for {position} has been submitted.",
	"submitted_cdo":            "{bidder} submitted a bid for {position}.",
	"handshake_offered_owner":  "A handshake has been offered to you for {position}.",
	"handshake_offered_other":  "A handshake has been offered to another bidder for {position}.",
	"handshake_accepted_owner": "You accepted the handshake for {position}.",
	"handshake_accepted_other": "Another bidder has accepted a handshake for {position}.",
	"handshake_accepted_cdo":   "{bidder} accepted a handshake for {position}.",
	"handshake_declined_owner": "You declined the handshake for {position}.",
	"handshake_declined_cdo":   "{bidder} declined a handshake for {position}.",
	"in_panel_owner":           "Your bid for {position} is scheduled for panel on {date}.",
	"in_panel_cdo":             "{bidder}'s bid for {position} is scheduled for panel on {date}.",
	"approved_owner":           "Your bid for {position} has been approved by panel.",
	"approved_other":           "{position} has been filled.",
	"approved_cdo":             "{bidder}'s bid for {position} has been approved.",
	"declined_owner":           "Your bid for {position} has been declined.",
	"declined_cdo":             "{bidder}'s bid for {position} has been declined.",
	"closed_owner":             "Your bid for {position} has been closed.",
	RequestedCDOKey:            "Your CDO updated your bid for {position}.",
}

// HandshakeMessageTemplates are the messages sent on handshake negotiation
var HandshakeMessageTemplates = MessageTemplates{
	"handshake_offered_owner":   "A handshake has been offered to you for {position}.",
	"handshake_offered_other":   "A handshake has been offered to another bidder for {position}.",
	"handshake_offered_cdo":     "{bidder} has been offered a handshake for {position}.",
	"handshake_revoked_owner":   "The handshake offered to you for {position} has been revoked.",
	"handshake_revoked_cdo":     "The handshake offered to {bidder} for {position} has been revoked.",
	"handshake_accepted_bureau": "{bidder} accepted the handshake for {position}.",
	"handshake_accepted_cdo":    "{bidder} accepted a handshake for {position}.",
	"handshake_declined_bureau": "{bidder} declined the handshake for {position}.",
	"handshake_declined_cdo":    "{bidder} declined a handshake for {position}.",
	RequestedCDOKey:             "Your CDO answered the handshake for {position} on your behalf.",
}

// Transition describes a completed state change for notification fan-out
type Transition struct {
	Entity        string
	Status        string
	CpID          int64
	BidCycleID    int64
	OwnerPerdet   string
	BureauPerdet  string
	ActorPerdet   string
	ActedAsCDO    bool
	PositionTitle string
	BidderName    string
	Date          *time.Time
	Templates     MessageTemplates
}

// Render fills the template placeholders from the transition
func (t *Transition) Render(template string) string {
	position := t.PositionTitle
	if position == "" {
		position = "the position"
	}
	bidder := t.BidderName
	if bidder == "" {
		bidder = t.OwnerPerdet
	}
	date := ""
	if t.Date != nil {
		date = t.Date.Format("2006-01-02")
	}
	return strings.NewReplacer(
		"{position}", position,
		"{bidder}", bidder,
		"{cycle}", formatCycle(t.BidCycleID),
		"{date}", date,
	).Replace(template)
}

// Tags returns the notification tags for the transition
func (t *Transition) Tags() []string {
	return []string{t.Entity, t.Status}
}

func formatCycle(id int64) string {
	if id == 0 {
		return ""
	}
	return "cycle " + strconv.FormatInt(id, 10)
}
