package domain

// PositionBidStatistics aggregates bids on one position within one bid cycle
type PositionBidStatistics struct {
	BaseModel
	BidCycleID           int64 `gorm:"not null;uniqueIndex:idx_position_statistics,priority:1"`
	CpID                 int64 `gorm:"column:cp_id;not null;uniqueIndex:idx_position_statistics,priority:2"`
	TotalBids            int   `gorm:"not null;default:0"`
	InGrade              int   `gorm:"not null;default:0"`
	AtSkill              int   `gorm:"not null;default:0"`
	InGradeAtSkill       int   `gorm:"not null;default:0"`
	HasHandshakeOffered  bool  `gorm:"not null;default:false"`
	HasHandshakeAccepted bool  `gorm:"not null;default:false"`
}

func (PositionBidStatistics) TableName() string { return "position_bid_statistics" }

// UserBidStatistics counts one bidder's bids per status within one bid cycle
type UserBidStatistics struct {
	BaseModel
	BidCycleID        int64  `gorm:"not null;uniqueIndex:idx_user_statistics,priority:1"`
	UserPerdet        string `gorm:"type:varchar(50);not null;uniqueIndex:idx_user_statistics,priority:2"`
	Draft             int    `gorm:"not null;default:0"`
	Submitted         int    `gorm:"not null;default:0"`
	HandshakeOffered  int    `gorm:"not null;default:0"`
	HandshakeAccepted int    `gorm:"not null;default:0"`
	HandshakeDeclined int    `gorm:"not null;default:0"`
	InPanel           int    `gorm:"not null;default:0"`
	Approved          int    `gorm:"not null;default:0"`
	Declined          int    `gorm:"not null;default:0"`
	Closed            int    `gorm:"not null;default:0"`
}

func (UserBidStatistics) TableName() string { return "user_bid_statistics" }

// ComputePositionStatistics derives the position aggregate from the full set of
// bids on (bidCycleID, cpID). bidders supplies grade and skills by perdet; bids
// whose bidder is unknown count only toward TotalBids.
func ComputePositionStatistics(bidCycleID, cpID int64, bids []Bid, bidders map[string]Bidder) PositionBidStatistics {
	stats := PositionBidStatistics{BidCycleID: bidCycleID, CpID: cpID}
	for i := range bids {
		bid := &bids[i]
		stats.TotalBids++
		if bid.HandshakeOfferedDate != nil {
			stats.HasHandshakeOffered = true
		}
		if bid.HandshakeAcceptedDate != nil {
			stats.HasHandshakeAccepted = true
		}

		bidder, ok := bidders[bid.UserPerdet]
		if !ok {
			continue
		}
		inGrade := bid.PositionGrade != "" && bidder.Grade == bid.PositionGrade
		atSkill := bid.PositionSkillCode != "" && bidder.HasSkill(bid.PositionSkillCode)
		if inGrade {
			stats.InGrade++
		}
		if atSkill {
			stats.AtSkill++
		}
		if inGrade && atSkill {
			stats.InGradeAtSkill++
		}
	}
	return stats
}

// ComputeUserStatistics derives the per-status counts of one bidder's bids in a cycle
func ComputeUserStatistics(bidCycleID int64, userPerdet string, bids []Bid) UserBidStatistics {
	stats := UserBidStatistics{BidCycleID: bidCycleID, UserPerdet: userPerdet}
	for i := range bids {
		switch bids[i].Status {
		case BidStatusDraft:
			stats.Draft++
		case BidStatusSubmitted:
			stats.Submitted++
		case BidStatusHandshakeOffered:
			stats.HandshakeOffered++
		case BidStatusHandshakeAccepted:
			stats.HandshakeAccepted++
		case BidStatusHandshakeDeclined:
			stats.HandshakeDeclined++
		case BidStatusInPanel:
			stats.InPanel++
		case BidStatusApproved:
			stats.Approved++
		case BidStatusDeclined:
			stats.Declined++
		case BidStatusClosed:
			stats.Closed++
		}
	}
	return stats
}
