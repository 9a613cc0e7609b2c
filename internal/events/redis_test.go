package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/talentmap/bidding-api/internal/config"
	"go.uber.org/zap"
)

func TestChannelName(t *testing.T) {
	assert.Equal(t, "position:42", ChannelName("", 42))
	assert.Equal(t, "bidding:position:42", ChannelName("bidding", 42))
}

func TestNewRedisPublisher_Unreachable(t *testing.T) {
	_, err := NewRedisPublisher(&config.RedisConfig{Addr: "127.0.0.1:1"}, zap.NewNop())
	require.Error(t, err)
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}
	assert.NoError(t, p.Publish(context.Background(), Event{Type: TypeBidTransition, CpID: 1}))
	assert.NoError(t, p.Close())
}
