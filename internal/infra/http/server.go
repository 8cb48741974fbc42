package http

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Options struct {
	Addr              string
	ReadHeaderTimeout time.Duration
	// Metrics is served on /metrics when set.
	Metrics prometheus.Gatherer
}

type Server struct {
	srv *http.Server
}

// New mounts /health, optionally /metrics, and the API under /api/.
func New(opts Options, api *API) *Server {
	return &Server{srv: &http.Server{
		Addr:              opts.Addr,
		Handler:           Handler(opts, api),
		ReadHeaderTimeout: opts.ReadHeaderTimeout,
	}}
}

func Handler(opts Options, api *API) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	if opts.Metrics != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(opts.Metrics, promhttp.HandlerOpts{}))
	}

	if api != nil {
		api.Register(mux)
	}
	return mux
}

func (s *Server) Start() error {
	return s.srv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
