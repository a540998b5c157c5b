package observability_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/sensorhub/pkg/observability"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := observability.DefaultConfig()

	assert.Equal(t, "sensorhub", cfg.ServiceName)
	assert.Equal(t, observability.ModeCLI, cfg.Mode)
	assert.Empty(t, cfg.OTLPEndpoint)
	assert.Positive(t, cfg.ShutdownTimeoutSec)
}

func TestInit_WithoutEndpointUsesNoopProviders(t *testing.T) {
	providers, err := observability.Init(context.Background(), observability.DefaultConfig())
	require.NoError(t, err)

	require.NotNil(t, providers.Tracer)
	require.NotNil(t, providers.Meter)
	require.NotNil(t, providers.Logger)
	require.NotNil(t, providers.Shutdown)

	// Noop providers still produce usable instruments.
	_, span := providers.Tracer.Start(context.Background(), "test-span")
	span.End()

	counter, err := providers.Meter.Int64Counter("test.counter")
	require.NoError(t, err)
	counter.Add(context.Background(), 1)

	require.NoError(t, providers.Shutdown(context.Background()))
}

func TestParseOTLPHeaders(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want map[string]string
	}{
		{
			name: "empty string returns nil",
			raw:  "",
			want: nil,
		},
		{
			name: "single pair",
			raw:  "authorization=Bearer token",
			want: map[string]string{"authorization": "Bearer token"},
		},
		{
			name: "multiple pairs",
			raw:  "a=1,b=2",
			want: map[string]string{"a": "1", "b": "2"},
		},
		{
			name: "whitespace is trimmed",
			raw:  " a = 1 , b = 2 ",
			want: map[string]string{"a": "1", "b": "2"},
		},
		{
			name: "pairs without equals are skipped",
			raw:  "nonsense,a=1",
			want: map[string]string{"a": "1"},
		},
		{
			name: "all invalid returns nil",
			raw:  "nonsense",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := observability.ParseOTLPHeaders(tt.raw)

			assert.Equal(t, tt.want, got)
		})
	}
}
