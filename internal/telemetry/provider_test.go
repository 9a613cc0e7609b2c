package telemetry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/talentmap/bidding-api/internal/config"
	"github.com/talentmap/bidding-api/internal/telemetry"
)

func TestSetup_NoopWhenEndpointEmpty(t *testing.T) {
	shutdown, err := telemetry.Setup(context.Background(), &config.TelemetryConfig{ServiceName: "test-service"})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestSetup_CreatesProviderWhenEndpointSet(t *testing.T) {
	// Non-routable address so no export actually happens
	shutdown, err := telemetry.Setup(context.Background(), &config.TelemetryConfig{
		OTLPEndpoint: "http://192.0.2.1:4318",
		ServiceName:  "test-service",
	})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestStartAndEndSpan(t *testing.T) {
	ctx, span := telemetry.StartSpan(context.Background(), "test.operation")
	assert.NotNil(t, ctx)
	telemetry.EndSpan(span, errors.New("boom"))
}
