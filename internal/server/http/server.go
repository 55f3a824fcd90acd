package internalhttp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"github.com/ryanparsons7/calendly-notion/internal/app"
	"github.com/ryanparsons7/calendly-notion/internal/syncer"
	log "github.com/sirupsen/logrus"
)

type Config struct {
	Host string
	Port int
}

type Application interface {
	Status() app.Status
	TrySync(ctx context.Context) (syncer.Report, error)
}

type Server struct {
	srv  *http.Server
	addr string
	app  Application
	ctx  context.Context
}

type syncResponse struct {
	Report *syncer.Report `json:"report,omitempty"`
	Error  string         `json:"error,omitempty"`
}

func NewServer(config Config, app Application) *Server {
	addr := net.JoinHostPort(config.Host, strconv.Itoa(config.Port))
	return &Server{
		addr: addr,
		srv:  &http.Server{Addr: addr},
		app:  app,
		ctx:  context.Background(),
	}
}

// Handler registers the status endpoints on mux.
func (s *Server) Handler(mux *runtime.ServeMux) http.Handler {
	if mux == nil {
		mux = runtime.NewServeMux()
	}
	mux.HandlePath(http.MethodGet, "/status", s.status)
	mux.HandlePath(http.MethodPost, "/sync", s.sync)
	return loggingMiddleware(mux)
}

// Start serves until Stop is called. Passes triggered over HTTP run with ctx
// rather than the request context.
func (s *Server) Start(ctx context.Context, mux *runtime.ServeMux) error {
	s.ctx = ctx
	s.srv.Handler = s.Handler(mux)

	log.Printf("starting http server on %s", s.addr)
	err := s.srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server failed: %w", err)
	}

	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) status(w http.ResponseWriter, _ *http.Request, _ map[string]string) {
	writeJSON(w, http.StatusOK, s.app.Status())
}

func (s *Server) sync(w http.ResponseWriter, _ *http.Request, _ map[string]string) {
	report, err := s.app.TrySync(s.ctx)
	switch {
	case errors.Is(err, app.ErrBusy):
		writeJSON(w, http.StatusConflict, syncResponse{Error: err.Error()})
	case errors.Is(err, syncer.ErrInvalidConfig):
		writeJSON(w, http.StatusInternalServerError, syncResponse{Error: err.Error()})
	case err != nil:
		writeJSON(w, http.StatusBadGateway, syncResponse{Report: &report, Error: err.Error()})
	default:
		writeJSON(w, http.StatusOK, syncResponse{Report: &report})
	}
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("failed to write response: %v", err)
	}
}

func getIP(req *http.Request) (string, error) {
	ip, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		return "", fmt.Errorf("userip: %q is not IP:port", req.RemoteAddr)
	}

	if parsed := net.ParseIP(ip); parsed == nil {
		return "", fmt.Errorf("userip: %q is not IP:port", req.RemoteAddr)
	}
	return ip, nil
}
