package middleware

import (
	"context"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/dtroode/vibenotes-server/internal/logger"
)

// Health probes arrive every few seconds and are logged at debug level.
const healthMethodPrefix = "/grpc.health.v1.Health/"

// Logging logs gRPC requests and results.
type Logging struct {
	logger *logger.Logger
}

// NewLogging creates a new Logging middleware.
func NewLogging(logger *logger.Logger) *Logging {
	return &Logging{logger: logger}
}

// HandleGRPC logs method name, duration and status for each unary request.
func (l *Logging) HandleGRPC(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	l.log(ctx, info.FullMethod, start, err)
	return resp, err
}

// HandleGRPCStream logs method name, duration and status for each stream.
func (l *Logging) HandleGRPCStream(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
	start := time.Now()
	err := handler(srv, ss)
	l.log(ss.Context(), info.FullMethod, start, err)
	return err
}

func (l *Logging) log(ctx context.Context, method string, start time.Time, err error) {
	code := codes.OK
	if err != nil {
		code = codes.Internal
		if st, ok := status.FromError(err); ok {
			code = st.Code()
		}
	}

	args := []any{
		"method", method,
		"duration_ms", time.Since(start).Milliseconds(),
		"status", code.String(),
	}

	if err != nil && code != codes.Canceled {
		l.logger.ErrorContext(ctx, "gRPC request failed", append(args, "error", err.Error())...)
		return
	}

	if strings.HasPrefix(method, healthMethodPrefix) {
		l.logger.DebugContext(ctx, "gRPC request completed", args...)
		return
	}
	l.logger.InfoContext(ctx, "gRPC request completed", args...)
}
