package grpc

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"github.com/tair/stockroom/internal/inventory/domain"
	"github.com/tair/stockroom/pkg/logger"
)

var (
	grpcCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockroom_grpc_calls_total",
			Help: "gRPC calls by service, method and status code",
		},
		[]string{"service", "method", "code"},
	)

	grpcCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stockroom_grpc_call_duration_seconds",
			Help:    "gRPC call latency",
			Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 5},
		},
		[]string{"service", "method"},
	)
)

func init() {
	prometheus.MustRegister(grpcCallsTotal, grpcCallDuration)
}

// splitMethod turns "/pkg.Service/Method" into its two halves
func splitMethod(fullMethod string) (string, string) {
	name := strings.TrimPrefix(fullMethod, "/")
	if i := strings.LastIndex(name, "/"); i >= 0 {
		return name[:i], name[i+1:]
	}
	return "unknown", name
}

// ToStatus converts a domain error into a gRPC status error. Errors that
// already carry a status are returned unchanged.
func ToStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	var code codes.Code
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		code = codes.InvalidArgument
	case errors.Is(err, domain.ErrNegativeStock):
		code = codes.FailedPrecondition
	case errors.Is(err, domain.ErrNotFound):
		code = codes.NotFound
	case errors.Is(err, domain.ErrUnauthenticated):
		code = codes.Unauthenticated
	case errors.Is(err, domain.ErrPermissionDenied):
		code = codes.PermissionDenied
	case errors.Is(err, domain.ErrConflict):
		code = codes.Aborted
	case errors.Is(err, domain.ErrRemoteUnavailable):
		return status.Error(codes.Unavailable, "store temporarily unavailable")
	case errors.Is(err, context.DeadlineExceeded):
		code = codes.DeadlineExceeded
	case errors.Is(err, context.Canceled):
		code = codes.Canceled
	default:
		return status.Error(codes.Internal, "internal error")
	}
	return status.Error(code, err.Error())
}

// ErrorInterceptor maps handler errors onto gRPC status codes. It runs
// innermost so metrics and logs see the final code.
func ErrorInterceptor(
	ctx context.Context,
	req interface{},
	_ *grpc.UnaryServerInfo,
	handler grpc.UnaryHandler,
) (interface{}, error) {
	resp, err := handler(ctx, req)
	return resp, ToStatus(err)
}

// MetricsInterceptor counts calls per service, method and code
func MetricsInterceptor(
	ctx context.Context,
	req interface{},
	info *grpc.UnaryServerInfo,
	handler grpc.UnaryHandler,
) (interface{}, error) {
	start := time.Now()
	resp, err := handler(ctx, req)

	service, method := splitMethod(info.FullMethod)
	grpcCallsTotal.WithLabelValues(service, method, status.Code(err).String()).Inc()
	grpcCallDuration.WithLabelValues(service, method).Observe(time.Since(start).Seconds())
	return resp, err
}

// LoggingInterceptor logs failed calls. Health checks are polled by
// orchestrators and only logged when they fail.
func LoggingInterceptor(
	ctx context.Context,
	req interface{},
	info *grpc.UnaryServerInfo,
	handler grpc.UnaryHandler,
) (interface{}, error) {
	start := time.Now()
	resp, err := handler(ctx, req)

	service, method := splitMethod(info.FullMethod)
	code := status.Code(err)
	switch {
	case code == codes.OK && service == healthpb.Health_ServiceDesc.ServiceName:
	case code == codes.OK:
		logger.Debug(ctx).Str("service", service).Str("method", method).
			Dur("duration", time.Since(start)).Msg("gRPC call completed")
	case code == codes.Internal || code == codes.Unavailable || code == codes.Unknown:
		logger.Error(ctx).Str("service", service).Str("method", method).
			Str("code", code.String()).Err(err).Msg("gRPC call failed")
	default:
		logger.Warn(ctx).Str("service", service).Str("method", method).
			Str("code", code.String()).Err(err).Msg("gRPC call rejected")
	}
	return resp, err
}
