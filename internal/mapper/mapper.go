package mapper

import (
	"github.com/talentmap/bidding-api/internal/domain"
)

const timestampLayout = "2006-01-02T15:04:05Z"

// ToBidDTO converts Bid to BidDTO
func ToBidDTO(bid *domain.Bid) domain.BidDTO {
	return domain.BidDTO{
		ID:                   bid.ID,
		UserPerdet:           bid.UserPerdet,
		CpID:                 bid.CpID,
		BidCycleID:           bid.BidCycleID,
		PositionTitle:        bid.PositionTitle,
		BureauCode:           bid.BureauCode,
		Status:               bid.Status,
		IsPriority:           bid.IsPriority,
		PanelRescheduleCount: bid.PanelRescheduleCount,
		ScheduledPanelDate:   bid.ScheduledPanelDate,
		DraftDate:            bid.DraftDate,
		SubmittedDate:        bid.SubmittedDate,
		HandshakeOfferedDate: bid.HandshakeOfferedDate,
		HandshakeAcceptedAt:  bid.HandshakeAcceptedDate,
		HandshakeDeclinedAt:  bid.HandshakeDeclinedDate,
		InPanelDate:          bid.InPanelDate,
		ApprovedDate:         bid.ApprovedDate,
		DeclinedDate:         bid.DeclinedDate,
		ClosedDate:           bid.ClosedDate,
		UpdatedAt:            bid.UpdatedAt.UTC().Format(timestampLayout),
	}
}

// ToHandshakeDTO converts BidHandshake to HandshakeDTO with derived legacy codes
func ToHandshakeDTO(hs *domain.BidHandshake) domain.HandshakeDTO {
	return domain.HandshakeDTO{
		ID:             hs.ID,
		CpID:           hs.CpID,
		BidderPerdet:   hs.BidderPerdet,
		BidCycleID:     hs.BidCycleID,
		State:          hs.State,
		Status:         hs.Status(),
		BidderStatus:   optional(hs.BidderStatus()),
		IsCDOUpdate:    hs.IsCDOUpdate(),
		ExpirationDate: hs.ExpirationDate,
		DateOffered:    hs.DateOffered,
		DateAccepted:   hs.DateAccepted,
		DateDeclined:   hs.DateDeclined,
		DateRevoked:    hs.DateRevoked,
		UpdatedAt:      hs.UpdatedAt.UTC().Format(timestampLayout),
	}
}

// ToHandshakeView summarises a handshake for bureau and bidder read views
func ToHandshakeView(hs *domain.BidHandshake) domain.HandshakeView {
	view := domain.HandshakeView{
		BidderPerdet:   hs.BidderPerdet,
		HsStatusCode:   domain.HandshakeViewOffered,
		HsCDOIndicator: hs.IsCDOUpdate(),
		ExpirationDate: hs.ExpirationDate,
		DateOffered:    hs.DateOffered,
		DateAccepted:   hs.DateAccepted,
		DateDeclined:   hs.DateDeclined,
		DateRevoked:    hs.DateRevoked,
	}
	if !hs.IsActive() {
		view.HsStatusCode = domain.HandshakeViewRevoked
	}
	switch {
	case hs.IsAccepted():
		view.BidderHsCode = optional(domain.HandshakeViewAccepted)
	case hs.IsDeclined():
		view.BidderHsCode = optional(domain.HandshakeViewDeclined)
	}
	return view
}

// ToRankingDTO converts AvailablePositionRanking to RankingDTO
func ToRankingDTO(r *domain.AvailablePositionRanking) domain.RankingDTO {
	return domain.RankingDTO{
		ID:           r.ID,
		CpID:         r.CpID,
		BidderPerdet: r.BidderPerdet,
		Rank:         r.Rank,
		UserPerdet:   r.UserPerdet,
	}
}

// ToPositionStatisticsDTO converts PositionBidStatistics to its DTO
func ToPositionStatisticsDTO(s *domain.PositionBidStatistics) domain.PositionStatisticsDTO {
	return domain.PositionStatisticsDTO{
		BidCycleID:           s.BidCycleID,
		CpID:                 s.CpID,
		TotalBids:            s.TotalBids,
		InGrade:              s.InGrade,
		AtSkill:              s.AtSkill,
		InGradeAtSkill:       s.InGradeAtSkill,
		HasHandshakeOffered:  s.HasHandshakeOffered,
		HasHandshakeAccepted: s.HasHandshakeAccepted,
	}
}

// ToUserStatisticsDTO converts UserBidStatistics to its DTO
func ToUserStatisticsDTO(s *domain.UserBidStatistics) domain.UserStatisticsDTO {
	return domain.UserStatisticsDTO{
		BidCycleID:        s.BidCycleID,
		UserPerdet:        s.UserPerdet,
		Draft:             s.Draft,
		Submitted:         s.Submitted,
		HandshakeOffered:  s.HandshakeOffered,
		HandshakeAccepted: s.HandshakeAccepted,
		HandshakeDeclined: s.HandshakeDeclined,
		InPanel:           s.InPanel,
		Approved:          s.Approved,
		Declined:          s.Declined,
		Closed:            s.Closed,
	}
}

// ToNotificationDTO converts Notification to NotificationDTO
func ToNotificationDTO(n *domain.Notification) domain.NotificationDTO {
	tags := []string(n.Tags)
	if tags == nil {
		tags = []string{}
	}
	return domain.NotificationDTO{
		ID:        n.ID,
		Message:   n.Message,
		Tags:      tags,
		Read:      n.Read,
		CreatedAt: n.CreatedAt.UTC().Format(timestampLayout),
	}
}

// ToAccessGrantDTO converts an AccessGrant to its DTO
func ToAccessGrantDTO(g *domain.AccessGrant) domain.AccessGrantDTO {
	return domain.AccessGrantDTO{
		Perdet:    g.Perdet,
		ScopeKind: g.ScopeKind,
		ScopeCode: g.ScopeCode,
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
