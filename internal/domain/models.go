package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// BaseModel holds the common row fields
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// BeforeCreate assigns a UUID when the caller did not set one
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// BidCycle is a bidding season mirrored from the personnel warehouse
type BidCycle struct {
	ID                int64  `gorm:"primaryKey;autoIncrement:false"`
	Name              string `gorm:"type:varchar(200);not null"`
	Active            bool   `gorm:"not null;default:false;index"`
	CycleDeadlineDate *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// AcceptsOwnerChanges reports whether at is strictly before the cycle deadline.
// A cycle without a deadline never closes to its bidders.
func (c *BidCycle) AcceptsOwnerChanges(at time.Time) bool {
	return c.CycleDeadlineDate == nil || at.Before(*c.CycleDeadlineDate)
}

// Position is the local snapshot of a posted (available) position, keyed by cp_id
type Position struct {
	CpID           int64  `gorm:"column:cp_id;primaryKey;autoIncrement:false"`
	PositionNumber string `gorm:"type:varchar(50)"`
	Title          string `gorm:"type:varchar(300)"`
	BureauCode     string `gorm:"type:varchar(20);not null;index"`
	OrgCode        string `gorm:"type:varchar(20);not null;index"`
	Grade          string `gorm:"type:varchar(10)"`
	SkillCode      string `gorm:"type:varchar(20)"`
	BidCycleID     int64  `gorm:"not null;index"`
	SyncedAt       time.Time
}

// Bidder is the bidding profile of an employee, identified by perdet
type Bidder struct {
	Perdet      string                      `gorm:"type:varchar(50);primaryKey"`
	DisplayName string                      `gorm:"type:varchar(200)"`
	Grade       string                      `gorm:"type:varchar(10)"`
	SkillCodes  datatypes.JSONSlice[string] `gorm:"column:skill_codes"`
	CDOPerdet   string                      `gorm:"column:cdo_perdet;type:varchar(50);index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// HasSkill reports whether the bidder holds the given skill code
func (b *Bidder) HasSkill(code string) bool {
	for _, s := range b.SkillCodes {
		if s == code {
			return true
		}
	}
	return false
}

// ScopeKind is the kind of organisational scope a grant covers
type ScopeKind string

const (
	ScopeBureau ScopeKind = "bureau"
	ScopeOrg    ScopeKind = "org"
	// ScopeCDO grants counseling rights over the bidder whose perdet is the scope code
	ScopeCDO ScopeKind = "cdo"
)

// IsValid checks if the ScopeKind is a valid enum value
func (k ScopeKind) IsValid() bool {
	switch k {
	case ScopeBureau, ScopeOrg, ScopeCDO:
		return true
	}
	return false
}

// Scope identifies a resource boundary a user may act within
type Scope struct {
	Kind ScopeKind
	Code string
}

// AccessGrant gives a user capability over one scope
type AccessGrant struct {
	BaseModel
	Perdet    string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_access_grant_scope,priority:1"`
	ScopeKind ScopeKind `gorm:"type:varchar(20);not null;uniqueIndex:idx_access_grant_scope,priority:2"`
	ScopeCode string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_access_grant_scope,priority:3"`
}

// Notification is a message addressed to one user
type Notification struct {
	BaseModel
	OwnerPerdet string                      `gorm:"type:varchar(50);not null;index"`
	Tags        datatypes.JSONSlice[string] `gorm:"column:tags"`
	Message     string                      `gorm:"type:text;not null"`
	Read        bool                        `gorm:"column:read;not null;default:false;index"`
	ReadAt      *time.Time
}
