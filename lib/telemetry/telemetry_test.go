package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSetupWithoutEndpoints(t *testing.T) {
	tel, err := Setup(context.Background(), "test:ronin-scraper", Config{})
	require.NoError(t, err)
	require.Nil(t, tel.TracerProvider)
	require.Nil(t, tel.MeterProvider)
	require.NoError(t, tel.Shutdown(context.Background()))
}

func TestOtlpConnConfigEnabled(t *testing.T) {
	require.False(t, OtlpConnConfig{}.enabled())
	require.True(t, OtlpConnConfig{HttpEndpoint: "http://localhost:4318/v1/traces"}.enabled())
	require.True(t, OtlpConnConfig{GrpcEndpoint: "http://localhost:4317"}.enabled())
}

func TestMetricInterval(t *testing.T) {
	require.Equal(t, time.Second*5, Config{}.metricInterval())
	require.Equal(t, time.Second*60, Config{MetricInterval: 60}.metricInterval())
}
