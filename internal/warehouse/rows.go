package warehouse

import (
	"strconv"
	"strings"
	"time"

	"github.com/talentmap/bidding-api/internal/domain"
)

// Warehouse status codes
const (
	cycleStatusActive = "A"
)

// bidStatusCodes maps warehouse bid status codes to bid statuses
var bidStatusCodes = map[string]domain.BidStatus{
	"W": domain.BidStatusDraft,
	"A": domain.BidStatusSubmitted,
	"O": domain.BidStatusHandshakeOffered,
	"H": domain.BidStatusHandshakeAccepted,
	"N": domain.BidStatusHandshakeDeclined,
	"P": domain.BidStatusInPanel,
	"S": domain.BidStatusApproved,
	"U": domain.BidStatusDeclined,
	"C": domain.BidStatusClosed,
}

func toPosition(row map[string]interface{}) domain.Position {
	return domain.Position{
		CpID:           asInt64(row["cp_id"]),
		PositionNumber: asString(row["pos_seq_num"]),
		Title:          asString(row["pos_title_desc"]),
		BureauCode:     asString(row["bureau_code"]),
		OrgCode:        asString(row["org_code"]),
		Grade:          asString(row["pos_grade_code"]),
		SkillCode:      asString(row["pos_skill_code"]),
		BidCycleID:     asInt64(row["cycle_id"]),
	}
}

func toBidCycle(row map[string]interface{}) domain.BidCycle {
	return domain.BidCycle{
		ID:                asInt64(row["cycle_id"]),
		Name:              asString(row["cycle_name_text"]),
		Active:            strings.EqualFold(asString(row["cycle_status_code"]), cycleStatusActive),
		CycleDeadlineDate: asTime(row["cycle_deadline_date"]),
	}
}

func toExternalBid(row map[string]interface{}) domain.ExternalBid {
	status := asString(row["bid_status_code"])
	if mapped, ok := bidStatusCodes[status]; ok {
		status = string(mapped)
	}
	return domain.ExternalBid{
		CpID:          asInt64(row["cp_id"]),
		BidCycleID:    asInt64(row["cycle_id"]),
		PositionTitle: asString(row["pos_title_desc"]),
		BureauCode:    asString(row["bureau_code"]),
		Status:        status,
	}
}

func asString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case []byte:
		return strings.TrimSpace(string(t))
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		return ""
	}
}

func asInt64(v interface{}) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int32:
		return int64(t)
	case int:
		return int64(t)
	case float64:
		return int64(t)
	case string:
		n, _ := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		return n
	case []byte:
		// DECIMAL and NUMERIC columns arrive as text
		f, _ := strconv.ParseFloat(strings.TrimSpace(string(t)), 64)
		return int64(f)
	default:
		return 0
	}
}

func asTime(v interface{}) *time.Time {
	t, ok := v.(time.Time)
	if !ok || t.IsZero() {
		return nil
	}
	utc := t.UTC()
	return &utc
}
