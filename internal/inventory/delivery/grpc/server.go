package grpc

import (
	"context"
	"fmt"
	"net"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/tair/stockroom/pkg/logger"
)

// ServiceName is the health-checked service name
const ServiceName = "stockroom.inventory"

// Server is the gRPC endpoint of stockd. It serves only the standard health
// and reflection services; inventory operations are exposed over HTTP.
type Server struct {
	grpc   *grpc.Server
	health *health.Server
}

// NewServer creates a gRPC server with tracing, metrics and logging
func NewServer() *Server {
	s := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			MetricsInterceptor,
			LoggingInterceptor,
			ErrorInterceptor,
		),
	)

	h := health.NewServer()
	healthpb.RegisterHealthServer(s, h)
	reflection.Register(s)

	h.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	h.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)

	return &Server{grpc: s, health: h}
}

// Serve listens on addr until Shutdown
func (s *Server) Serve(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	logger.Logger.Info().Str("addr", addr).Msg("gRPC server listening")
	if err := s.grpc.Serve(lis); err != nil && err != grpc.ErrServerStopped {
		return fmt.Errorf("gRPC server failed: %w", err)
	}
	return nil
}

// SetDependencyHealth reports a dependency failure through the health
// service without stopping the server
func (s *Server) SetDependencyHealth(ok bool) {
	status := healthpb.HealthCheckResponse_SERVING
	if !ok {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus(ServiceName, status)
}

// Shutdown marks every service NOT_SERVING and drains in-flight calls
func (s *Server) Shutdown(ctx context.Context) {
	s.health.Shutdown()

	stopped := make(chan struct{})
	go func() {
		s.grpc.GracefulStop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-ctx.Done():
		s.grpc.Stop()
	}
	logger.Logger.Info().Msg("gRPC server stopped")
}
