package internalgrpc

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

// Service is the name the importer reports its health under, next to the
// overall "" service.
const Service = "importer"

type Config struct {
	Host string
	Port int
}

type Server struct {
	grpcServer *grpc.Server
	health     *health.Server
	addr       string
	conn       *grpc.ClientConn
}

func NewServer(config Config) *Server {
	s := &Server{
		health: health.NewServer(),
		addr:   net.JoinHostPort(config.Host, strconv.Itoa(config.Port)),
	}
	s.grpcServer = grpc.NewServer(grpc.UnaryInterceptor(loggingHandler))
	healthpb.RegisterHealthServer(s.grpcServer, s.health)
	return s
}

func (s *Server) Start(_ context.Context) error {
	lsn, err := net.Listen("tcp", s.addr)
	if err != nil {
		log.Errorf("failed to listen grpc endpoint: %v", err)
		return err
	}
	return s.Serve(lsn)
}

func (s *Server) Serve(lsn net.Listener) error {
	log.Printf("starting grpc server on %s", lsn.Addr())
	return s.grpcServer.Serve(lsn)
}

// SetServing reports whether the last sync pass succeeded.
func (s *Server) SetServing(serving bool) {
	st := healthpb.HealthCheckResponse_SERVING
	if !serving {
		st = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(Service, st)
}

// GatewayMux returns a mux exposing the health service as GET /healthz.
func (s *Server) GatewayMux(ctx context.Context) (*runtime.ServeMux, error) {
	//nolint:staticcheck
	conn, err := grpc.DialContext(ctx, s.addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	s.conn = conn
	return runtime.NewServeMux(runtime.WithHealthzEndpoint(healthpb.NewHealthClient(conn))), nil
}

func (s *Server) Stop(_ context.Context) error {
	s.health.Shutdown()
	s.grpcServer.GracefulStop()
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

func loggingHandler(
	ctx context.Context,
	req interface{},
	info *grpc.UnaryServerInfo,
	handler grpc.UnaryHandler,
) (interface{}, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	log.WithField("method", info.FullMethod).WithField("code", status.Code(err)).
		WithField("latency", time.Since(start)).
		Debug("grpc request processed")
	return resp, err
}
