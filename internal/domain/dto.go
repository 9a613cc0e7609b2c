package domain

import (
	"time"

	"github.com/google/uuid"
)

// BidDTO is the API representation of a bid
type BidDTO struct {
	ID                   uuid.UUID  `json:"id"`
	UserPerdet           string     `json:"userPerdet"`
	CpID                 int64      `json:"cpId"`
	BidCycleID           int64      `json:"bidCycleId"`
	PositionTitle        string     `json:"positionTitle,omitempty"`
	BureauCode           string     `json:"bureauCode"`
	Status               BidStatus  `json:"status"`
	IsPriority           bool       `json:"isPriority"`
	PanelRescheduleCount int        `json:"panelRescheduleCount"`
	ScheduledPanelDate   *time.Time `json:"scheduledPanelDate,omitempty"`
	DraftDate            *time.Time `json:"draftDate,omitempty"`
	SubmittedDate        *time.Time `json:"submittedDate,omitempty"`
	HandshakeOfferedDate *time.Time `json:"handshakeOfferedDate,omitempty"`
	HandshakeAcceptedAt  *time.Time `json:"handshakeAcceptedDate,omitempty"`
	HandshakeDeclinedAt  *time.Time `json:"handshakeDeclinedDate,omitempty"`
	InPanelDate          *time.Time `json:"inPanelDate,omitempty"`
	ApprovedDate         *time.Time `json:"approvedDate,omitempty"`
	DeclinedDate         *time.Time `json:"declinedDate,omitempty"`
	ClosedDate           *time.Time `json:"closedDate,omitempty"`
	UpdatedAt            string     `json:"updatedAt"` // ISO 8601
}

// HandshakeDTO exposes a handshake with its legacy codes
type HandshakeDTO struct {
	ID             uuid.UUID      `json:"id"`
	CpID           int64          `json:"cpId"`
	BidderPerdet   string         `json:"bidderPerdet"`
	BidCycleID     int64          `json:"bidCycleId"`
	State          HandshakeState `json:"state"`
	Status         string         `json:"status"`
	BidderStatus   *string        `json:"bidderStatus"`
	IsCDOUpdate    bool           `json:"isCdoUpdate"`
	ExpirationDate *time.Time     `json:"expirationDate,omitempty"`
	DateOffered    *time.Time     `json:"dateOffered,omitempty"`
	DateAccepted   *time.Time     `json:"dateAccepted,omitempty"`
	DateDeclined   *time.Time     `json:"dateDeclined,omitempty"`
	DateRevoked    *time.Time     `json:"dateRevoked,omitempty"`
	UpdatedAt      string         `json:"updatedAt"`
}

// Handshake view status codes
const (
	HandshakeViewOffered  = "handshake_offered"
	HandshakeViewRevoked  = "handshake_revoked"
	HandshakeViewAccepted = "handshake_accepted"
	HandshakeViewDeclined = "handshake_declined"
)

// HandshakeView is the summarised handshake shown to bureau and bidder views
type HandshakeView struct {
	BidderPerdet   string     `json:"bidderPerdet"`
	HsStatusCode   string     `json:"hsStatusCode"`
	BidderHsCode   *string    `json:"bidderHsCode"`
	HsCDOIndicator bool       `json:"hsCdoIndicator"`
	ExpirationDate *time.Time `json:"hsExpirationDate,omitempty"`
	DateOffered    *time.Time `json:"hsDateOffered,omitempty"`
	DateAccepted   *time.Time `json:"hsDateAccepted,omitempty"`
	DateDeclined   *time.Time `json:"hsDateDeclined,omitempty"`
	DateRevoked    *time.Time `json:"hsDateRevoked,omitempty"`
}

// PositionHandshakeDTO names the bidder holding the position's live handshake
type PositionHandshakeDTO struct {
	CpID         int64   `json:"cpId"`
	BidderPerdet *string `json:"bidderPerdet"`
}

// RankingDTO is one row of a position ranking
type RankingDTO struct {
	ID           uuid.UUID `json:"id"`
	CpID         int64     `json:"cpId"`
	BidderPerdet string    `json:"bidderPerdet"`
	Rank         int       `json:"rank"`
	UserPerdet   string    `json:"userPerdet"`
}

// BidderRankingDTO joins an employee's external bid with the local rank
type BidderRankingDTO struct {
	CpID          int64  `json:"cpId"`
	BidCycleID    int64  `json:"bidCycleId"`
	PositionTitle string `json:"positionTitle,omitempty"`
	BureauCode    string `json:"bureauCode"`
	Status        string `json:"status"`
	Rank          *int   `json:"rank"`
}

// PositionStatisticsDTO is the position bid aggregate
type PositionStatisticsDTO struct {
	BidCycleID           int64 `json:"bidCycleId"`
	CpID                 int64 `json:"cpId"`
	TotalBids            int   `json:"totalBids"`
	InGrade              int   `json:"inGrade"`
	AtSkill              int   `json:"atSkill"`
	InGradeAtSkill       int   `json:"inGradeAtSkill"`
	HasHandshakeOffered  bool  `json:"hasHandshakeOffered"`
	HasHandshakeAccepted bool  `json:"hasHandshakeAccepted"`
}

// UserStatisticsDTO is the per-bidder status count aggregate
type UserStatisticsDTO struct {
	BidCycleID        int64  `json:"bidCycleId"`
	UserPerdet        string `json:"userPerdet"`
	Draft             int    `json:"draft"`
	Submitted         int    `json:"submitted"`
	HandshakeOffered  int    `json:"handshakeOffered"`
	HandshakeAccepted int    `json:"handshakeAccepted"`
	HandshakeDeclined int    `json:"handshakeDeclined"`
	InPanel           int    `json:"inPanel"`
	Approved          int    `json:"approved"`
	Declined          int    `json:"declined"`
	Closed            int    `json:"closed"`
}

// NotificationDTO is the API representation of a notification
type NotificationDTO struct {
	ID        uuid.UUID `json:"id"`
	Message   string    `json:"message"`
	Tags      []string  `json:"tags"`
	Read      bool      `json:"read"`
	CreatedAt string    `json:"createdAt"` // ISO 8601
}

// AddToBidlistRequest places a position on the caller's bid list
type AddToBidlistRequest struct {
	CpID int64 `json:"cpId" validate:"required,gt=0"`
}

// SchedulePanelRequest carries the panel meeting date
type SchedulePanelRequest struct {
	ScheduledPanelDate time.Time `json:"scheduledPanelDate" validate:"required"`
}

// OfferHandshakeRequest carries the optional offer expiration
type OfferHandshakeRequest struct {
	ExpirationDate *time.Time `json:"expirationDate"`
}

// RankingRowRequest is one entry of a bulk ranking request
type RankingRowRequest struct {
	CpID         int64  `json:"cpId" validate:"required,gt=0"`
	BidderPerdet string `json:"bidderPerdet" validate:"required,max=50"`
	Rank         int    `json:"rank" validate:"gte=1"`
}

// BulkRankingRequest creates or updates ranking rows for a single position
type BulkRankingRequest struct {
	Rankings []RankingRowRequest `json:"rankings" validate:"dive"`
}

// PaginatedResponse wraps a page of results
type PaginatedResponse struct {
	Data     interface{} `json:"data"`
	Total    int64       `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"pageSize"`
}

// AccessGrantDTO is one scope a user may act within
type AccessGrantDTO struct {
	Perdet    string    `json:"perdet"`
	ScopeKind ScopeKind `json:"scopeKind"`
	ScopeCode string    `json:"scopeCode"`
}

// AccessGrantRequest adds or removes a grant
type AccessGrantRequest struct {
	Perdet    string    `json:"perdet" validate:"required,max=50"`
	ScopeKind ScopeKind `json:"scopeKind" validate:"required,oneof=bureau org cdo"`
	ScopeCode string    `json:"scopeCode" validate:"required,max=50"`
}

// CurrentUserDTO describes the authenticated caller
type CurrentUserDTO struct {
	Perdet      string           `json:"perdet"`
	DisplayName string           `json:"displayName"`
	Email       string           `json:"email,omitempty"`
	Roles       []string         `json:"roles"`
	Grants      []AccessGrantDTO `json:"grants"`
}

// UnreadCountDTO carries the number of unread notifications
type UnreadCountDTO struct {
	Count int64 `json:"count"`
}
