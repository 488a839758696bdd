package clients

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// JudgeService is the name the server registers its serving status under.
const JudgeService = "judge.JudgeService"

// HealthClient probes the judge server's gRPC health endpoint.
type HealthClient struct {
	conn   *grpc.ClientConn
	client healthpb.HealthClient
}

func NewHealthClient(address string) (*HealthClient, error) {
	conn, err := grpc.NewClient(address, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to judge server: %w", err)
	}

	return &HealthClient{
		conn:   conn,
		client: healthpb.NewHealthClient(conn),
	}, nil
}

func (c *HealthClient) Check(ctx context.Context) (healthpb.HealthCheckResponse_ServingStatus, error) {
	resp, err := c.client.Check(ctx, &healthpb.HealthCheckRequest{Service: JudgeService})
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN, fmt.Errorf("health check failed: %w", err)
	}
	return resp.Status, nil
}

// WaitServing polls until the server reports SERVING or ctx is done.
func (c *HealthClient) WaitServing(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		status, err := c.Check(ctx)
		if err == nil && status == healthpb.HealthCheckResponse_SERVING {
			return nil
		}
		logrus.WithError(err).WithField("status", status.String()).Debug("Judge server not serving yet")

		select {
		case <-ctx.Done():
			return fmt.Errorf("judge server not serving: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}

func (c *HealthClient) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
