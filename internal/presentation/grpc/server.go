package grpc

import (
	"fmt"
	"log/slog"
	"net"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/med2305/mlops/pkg/auth"
)

// HealthServiceName is the service name reported to gRPC health checks.
const HealthServiceName = "fraudml.v1.FraudScoringService"

// ServerConfig holds the optional parts of the gRPC server.
type ServerConfig struct {
	Address string
	// JWT enables bearer token auth when non-nil.
	JWT *auth.JWTService
	// Creds enables TLS when non-nil.
	Creds      credentials.TransportCredentials
	Reflection bool
}

// Server wraps the gRPC server with scoring handlers.
type Server struct {
	address    string
	grpcServer *grpclib.Server
	health     *health.Server
	logger     *slog.Logger
}

// NewServer creates a new gRPC server for the scoring service.
func NewServer(handler *ScoringHandler, cfg ServerConfig, logger *slog.Logger) *Server {
	opts := []grpclib.ServerOption{
		grpclib.StatsHandler(otelgrpc.NewServerHandler()),
	}
	if cfg.JWT != nil {
		opts = append(opts, grpclib.ChainUnaryInterceptor(auth.UnaryAuthInterceptor(cfg.JWT, []string{
			"/grpc.health.v1.Health/Check",
			"/grpc.health.v1.Health/Watch",
		})))
	} else {
		logger.Info("gRPC auth not configured, accepting unauthenticated calls")
	}
	if cfg.Creds != nil {
		opts = append(opts, grpclib.Creds(cfg.Creds))
		logger.Info("gRPC TLS enabled")
	}

	grpcServer := grpclib.NewServer(opts...)

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus(HealthServiceName, healthpb.HealthCheckResponse_NOT_SERVING)

	RegisterFraudScoringServiceServer(grpcServer, handler)

	if cfg.Reflection {
		reflection.Register(grpcServer)
	}

	return &Server{
		address:    cfg.Address,
		grpcServer: grpcServer,
		health:     healthServer,
		logger:     logger,
	}
}

// SetServing reports whether a bundle is loaded to gRPC health checks.
func (s *Server) SetServing(serving bool) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		st = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus(HealthServiceName, st)
}

// Start begins listening and serving gRPC requests.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.address, err)
	}
	return s.Serve(listener)
}

// Serve serves gRPC requests on lis.
func (s *Server) Serve(lis net.Listener) error {
	s.logger.Info("gRPC server starting", slog.String("address", lis.Addr().String()))
	return s.grpcServer.Serve(lis)
}

// Stop gracefully stops the gRPC server.
func (s *Server) Stop() {
	s.logger.Info("gRPC server shutting down")
	s.health.Shutdown()
	s.grpcServer.GracefulStop()
}
