package router

import (
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/recovery"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/dtroode/vibenotes-server/internal/api/grpc/middleware"
	"github.com/dtroode/vibenotes-server/internal/logger"
)

// Router represents the gRPC router of the operations endpoint.
// It manages service registration and middleware configuration.
type Router struct {
	health *health.Server
	logger *logger.Logger
}

// New creates new gRPC Router instance.
//
// Parameters:
//   - health: The health server updated by the health monitor
//   - logger: The logger for request logging
//
// Returns a pointer to the newly created Router instance.
func New(health *health.Server, logger *logger.Logger) *Router {
	return &Router{
		health: health,
		logger: logger,
	}
}

// Register registers all gRPC services and middleware.
// It sets up the gRPC server with request logging and panic recovery interceptors.
//
// Returns the configured gRPC server instance.
func (r *Router) Register() *grpc.Server {
	logging := middleware.NewLogging(r.logger)
	recoverer := recovery.WithRecoveryHandlerContext(middleware.NewRecovery(r.logger).Handle)

	s := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			logging.HandleGRPC,
			recovery.UnaryServerInterceptor(recoverer),
		),
		grpc.ChainStreamInterceptor(
			logging.HandleGRPCStream,
			recovery.StreamServerInterceptor(recoverer),
		),
	)

	healthpb.RegisterHealthServer(s, r.health)
	reflection.Register(s)

	return s
}
