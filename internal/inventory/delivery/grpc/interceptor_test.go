package grpc

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/tair/stockroom/internal/inventory/domain"
)

func TestSplitMethod(t *testing.T) {
	service, method := splitMethod("/grpc.health.v1.Health/Check")
	assert.Equal(t, "grpc.health.v1.Health", service)
	assert.Equal(t, "Check", method)

	service, method = splitMethod("Check")
	assert.Equal(t, "unknown", service)
	assert.Equal(t, "Check", method)
}

func TestToStatus(t *testing.T) {
	tests := []struct {
		err  error
		want codes.Code
	}{
		{domain.Invalid("empty name"), codes.InvalidArgument},
		{fmt.Errorf("commit: %w", domain.ErrNegativeStock), codes.FailedPrecondition},
		{domain.ErrNotFound, codes.NotFound},
		{domain.ErrUnauthenticated, codes.Unauthenticated},
		{domain.ErrPermissionDenied, codes.PermissionDenied},
		{domain.ErrConflict, codes.Aborted},
		{domain.Remote("read item", errors.New("dial tcp: refused")), codes.Unavailable},
		{context.DeadlineExceeded, codes.DeadlineExceeded},
		{context.Canceled, codes.Canceled},
		{errors.New("boom"), codes.Internal},
		{status.Error(codes.ResourceExhausted, "slow down"), codes.ResourceExhausted},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, status.Code(ToStatus(tt.err)), tt.err.Error())
	}
	assert.NoError(t, ToStatus(nil))
}

func TestToStatus_HidesRemoteDetail(t *testing.T) {
	err := ToStatus(domain.Remote("update stock", errors.New("pq: password authentication failed")))
	st, ok := status.FromError(err)
	require.True(t, ok)
	assert.NotContains(t, st.Message(), "pq:")
}

func TestInterceptorChain_CountsMappedCode(t *testing.T) {
	info := &grpc.UnaryServerInfo{FullMethod: "/stockroom.inventory.Items/Adjust"}
	failing := func(ctx context.Context, req interface{}) (interface{}, error) {
		return nil, domain.ErrNegativeStock
	}
	inner := func(ctx context.Context, req interface{}) (interface{}, error) {
		return ErrorInterceptor(ctx, req, info, failing)
	}
	logged := func(ctx context.Context, req interface{}) (interface{}, error) {
		return LoggingInterceptor(ctx, req, info, inner)
	}

	counter := grpcCallsTotal.WithLabelValues("stockroom.inventory.Items", "Adjust", codes.FailedPrecondition.String())
	before := testutil.ToFloat64(counter)

	_, err := MetricsInterceptor(context.Background(), nil, info, logged)
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))
	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}
