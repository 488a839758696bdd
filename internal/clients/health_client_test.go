package clients

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func startHealthServer(t *testing.T) (*health.Server, string) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	server := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(server, hs)
	go server.Serve(lis)
	t.Cleanup(server.Stop)

	return hs, lis.Addr().String()
}

func TestHealthClientCheck(t *testing.T) {
	hs, addr := startHealthServer(t)
	hs.SetServingStatus(JudgeService, healthpb.HealthCheckResponse_NOT_SERVING)

	client, err := NewHealthClient(addr)
	require.NoError(t, err)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	status, err := client.Check(ctx)
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, status)

	go func() {
		time.Sleep(50 * time.Millisecond)
		hs.SetServingStatus(JudgeService, healthpb.HealthCheckResponse_SERVING)
	}()
	require.NoError(t, client.WaitServing(ctx, 10*time.Millisecond))
}

func TestWaitServingGivesUp(t *testing.T) {
	_, addr := startHealthServer(t)

	client, err := NewHealthClient(addr)
	require.NoError(t, err)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err = client.WaitServing(ctx, 10*time.Millisecond)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
