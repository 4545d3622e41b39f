package bootstrap

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/Domenick1991/parkbooking/config"
	"github.com/Domenick1991/parkbooking/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func testConfig() *config.Config {
	return &config.Config{
		HTTP: config.HTTPConfig{Address: "127.0.0.1:0"},
		GRPC: config.GRPCConfig{Address: "127.0.0.1:0"},
	}
}

func status(t *testing.T, s *Servers, service string) healthpb.HealthCheckResponse_ServingStatus {
	t.Helper()
	resp, err := s.health.Check(context.Background(), &healthpb.HealthCheckRequest{Service: service})
	require.NoError(t, err)
	return resp.GetStatus()
}

func TestNewServers(t *testing.T) {
	s := newServers(testConfig(), http.NotFoundHandler(), nil, logger.Nop())

	assert.NotNil(t, s.grpcServer)
	assert.Equal(t, "127.0.0.1:0", s.httpServer.Addr)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, status(t, s, ""))
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, status(t, s, ServiceName))
}

func TestServers_CheckOnce(t *testing.T) {
	var probeErr error
	probe := func(ctx context.Context) error { return probeErr }
	s := newServers(testConfig(), http.NotFoundHandler(), probe, logger.Nop())

	probeErr = errors.New("postgres down")
	s.checkOnce(context.Background())
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, status(t, s, ServiceName))

	probeErr = nil
	s.checkOnce(context.Background())
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, status(t, s, ServiceName))
}

func TestServers_WatchHealthStopsOnCancel(t *testing.T) {
	calls := 0
	probe := func(ctx context.Context) error {
		calls++
		return nil
	}
	s := newServers(testConfig(), http.NotFoundHandler(), probe, logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.watchHealth(ctx, time.Hour)

	assert.Equal(t, 1, calls)
}

func TestRun_StopsOnCancel(t *testing.T) {
	cfg := testConfig()
	cfg.HTTP.ShutdownTimeout = time.Second

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Run(ctx, cfg, http.NotFoundHandler(), nil, logger.Nop()) }()

	cancel()
	assert.NoError(t, <-done)
}
