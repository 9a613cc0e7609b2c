package warehouse

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/talentmap/bidding-api/internal/config"
	"github.com/talentmap/bidding-api/internal/domain"
	"go.uber.org/zap"
)

func TestNewClient_DisabledReturnsNil(t *testing.T) {
	client, err := NewClient(&config.WarehouseConfig{Enabled: false}, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, client)
	assert.False(t, client.IsEnabled())
}

func TestNewClient_MissingCredentialsReturnsNil(t *testing.T) {
	client, err := NewClient(&config.WarehouseConfig{Enabled: true, URL: "dw:1433/hr"}, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, client)
}

func TestNilClient(t *testing.T) {
	var client *Client

	assert.NoError(t, client.Close())
	assert.Equal(t, "disabled", client.HealthCheck(context.Background()).Status)

	_, err := client.GetPositions(context.Background())
	assert.Error(t, err)
}

func TestBuildConnectionString(t *testing.T) {
	connStr := buildConnectionString(&config.WarehouseConfig{
		URL:      "dw.example.org:1444/personnel",
		User:     "reader",
		Password: "p@ss word",
	})

	u, err := url.Parse(connStr)
	require.NoError(t, err)
	assert.Equal(t, "sqlserver", u.Scheme)
	assert.Equal(t, "dw.example.org:1444", u.Host)
	assert.Equal(t, "reader", u.User.Username())
	password, _ := u.User.Password()
	assert.Equal(t, "p@ss word", password)
	assert.Equal(t, "personnel", u.Query().Get("database"))
	assert.Equal(t, "ReadOnly", u.Query().Get("ApplicationIntent"))
}

func TestBuildConnectionString_DefaultPort(t *testing.T) {
	u, err := url.Parse(buildConnectionString(&config.WarehouseConfig{URL: "dw", User: "u", Password: "p"}))
	require.NoError(t, err)
	assert.Equal(t, "dw:1433", u.Host)
	assert.Empty(t, u.Query().Get("database"))
}

func TestRowConversion(t *testing.T) {
	deadline := time.Date(2026, 11, 30, 17, 0, 0, 0, time.UTC)

	position := toPosition(map[string]interface{}{
		"cp_id":          int64(42),
		"pos_seq_num":    "S7750401",
		"pos_title_desc": "POLITICAL OFFICER ",
		"bureau_code":    "EUR",
		"org_code":       "PARIS",
		"pos_grade_code": "03",
		"pos_skill_code": []byte("5505"),
		"cycle_id":       []byte("2026.000"),
	})
	assert.Equal(t, int64(42), position.CpID)
	assert.Equal(t, "POLITICAL OFFICER", position.Title)
	assert.Equal(t, "5505", position.SkillCode)
	assert.Equal(t, int64(2026), position.BidCycleID)

	cycle := toBidCycle(map[string]interface{}{
		"cycle_id":            int32(7),
		"cycle_name_text":     "Summer 2027",
		"cycle_status_code":   "a",
		"cycle_deadline_date": deadline,
	})
	assert.Equal(t, int64(7), cycle.ID)
	assert.True(t, cycle.Active)
	require.NotNil(t, cycle.CycleDeadlineDate)
	assert.True(t, cycle.CycleDeadlineDate.Equal(deadline))

	closed := toBidCycle(map[string]interface{}{"cycle_id": int64(8), "cycle_status_code": "C", "cycle_deadline_date": nil})
	assert.False(t, closed.Active)
	assert.Nil(t, closed.CycleDeadlineDate)

	bid := toExternalBid(map[string]interface{}{"cp_id": int64(42), "cycle_id": int64(7), "bid_status_code": "H"})
	assert.Equal(t, string(domain.BidStatusHandshakeAccepted), bid.Status)

	unknown := toExternalBid(map[string]interface{}{"bid_status_code": "Z"})
	assert.Equal(t, "Z", unknown.Status)
}
