package domain

// AvailablePositionRanking is a bureau's rank for one bidder on one position
type AvailablePositionRanking struct {
	BaseModel
	CpID         int64  `gorm:"column:cp_id;not null;uniqueIndex:idx_ranking_position_bidder,priority:1"`
	BidderPerdet string `gorm:"type:varchar(50);not null;uniqueIndex:idx_ranking_position_bidder,priority:2"`
	Rank         int    `gorm:"not null"`
	UserPerdet   string `gorm:"type:varchar(50);not null"`
}

// AvailablePositionRankingLock marks a position's ranking as frozen for org users
type AvailablePositionRankingLock struct {
	BaseModel
	CpID       int64  `gorm:"column:cp_id;not null;uniqueIndex"`
	BureauCode string `gorm:"type:varchar(20);not null"`
	OrgCode    string `gorm:"type:varchar(20);not null"`
}

// DistinctCpIDs returns the cp_ids of the given rows in first-seen order
func DistinctCpIDs(rows []AvailablePositionRanking) []int64 {
	seen := make(map[int64]bool, len(rows))
	var ids []int64
	for _, row := range rows {
		if !seen[row.CpID] {
			seen[row.CpID] = true
			ids = append(ids, row.CpID)
		}
	}
	return ids
}

// DuplicateBidder returns the first bidder listed twice for the same position,
// or "" when every (cp_id, bidder) pair is unique
func DuplicateBidder(rows []AvailablePositionRanking) string {
	type key struct {
		cpID   int64
		perdet string
	}
	seen := make(map[key]bool, len(rows))
	for _, row := range rows {
		k := key{row.CpID, row.BidderPerdet}
		if seen[k] {
			return row.BidderPerdet
		}
		seen[k] = true
	}
	return ""
}

// ExternalBid is a bid record as held by the personnel warehouse
type ExternalBid struct {
	CpID          int64
	BidCycleID    int64
	PositionTitle string
	BureauCode    string
	Status        string
}
