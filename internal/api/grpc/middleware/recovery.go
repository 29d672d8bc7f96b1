package middleware

import (
	"context"
	"runtime/debug"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/dtroode/vibenotes-server/internal/logger"
)

// Recovery turns handler panics into Internal errors.
type Recovery struct {
	logger *logger.Logger
}

// NewRecovery creates a new Recovery handler.
func NewRecovery(logger *logger.Logger) *Recovery {
	return &Recovery{logger: logger}
}

// Handle logs the panic value with its stack and returns the error sent to the client.
func (r *Recovery) Handle(ctx context.Context, p any) error {
	r.logger.ErrorContext(ctx, "gRPC handler panicked",
		"panic", p,
		"stack", string(debug.Stack()))
	return status.Error(codes.Internal, "internal server error")
}
