package logger_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/talentmap/bidding-api/internal/config"
	"github.com/talentmap/bidding-api/internal/domain"
	"github.com/talentmap/bidding-api/internal/logger"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLogger(t *testing.T) {
	log, err := logger.NewLogger(
		&config.LoggingConfig{Level: "debug", Format: "json"},
		&config.AppConfig{Name: "bidding-api", Environment: "development"},
	)
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(zapcore.DebugLevel))

	log, err = logger.NewLogger(
		&config.LoggingConfig{Level: "loud"},
		&config.AppConfig{Name: "bidding-api", Environment: "development"},
	)
	require.NoError(t, err)
	assert.False(t, log.Core().Enabled(zapcore.DebugLevel), "unknown levels fall back to info")
}

func TestScope_TagActor(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	base := zap.New(core)

	ctx, scope := logger.NewContext(context.Background(), logger.ForRequest(base, "PUT", "/api/v1/bids/1/submit", "req-1"))
	logger.TagActor(ctx, "1001", []domain.Role{domain.RoleBidder})

	logger.FromContext(ctx, zap.NewNop()).Info("bid submitted")
	scope.Logger().Info("request done")

	require.Equal(t, 2, logs.Len())
	for _, entry := range logs.All() {
		fields := entry.ContextMap()
		assert.Equal(t, "req-1", fields["request_id"])
		assert.Equal(t, "1001", fields["actor_perdet"])
		assert.Equal(t, []interface{}{"bidder"}, fields["actor_roles"])
	}
}

func TestFromContext_Fallback(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	fallback := zap.New(core)

	logger.TagActor(context.Background(), "1001", nil)
	logger.FromContext(context.Background(), fallback).Info("outside a request")

	require.Equal(t, 1, logs.Len())
	assert.NotContains(t, logs.All()[0].ContextMap(), "actor_perdet")
}
