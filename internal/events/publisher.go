package events

import (
	"context"
	"time"
)

// Event types published on bidding state changes
const (
	TypeBidTransition       = "bid.transition"
	TypeHandshakeTransition = "handshake.transition"
	TypeRankingLocked       = "ranking.locked"
	TypeRankingUnlocked     = "ranking.unlocked"
)

// Event is the JSON payload published for a position's subscribers
type Event struct {
	Type        string    `json:"type"`
	Status      string    `json:"status,omitempty"`
	CpID        int64     `json:"cpId"`
	BidCycleID  int64     `json:"bidCycleId,omitempty"`
	Perdet      string    `json:"perdet,omitempty"`
	ActorPerdet string    `json:"actorPerdet,omitempty"`
	OccurredAt  time.Time `json:"occurredAt"`
}

// Publisher delivers events to downstream listeners
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// NopPublisher discards events. It is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

func (NopPublisher) Close() error { return nil }
