package observability

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
)

// Diagnostics endpoint paths.
const (
	PathHealth  = "/healthz"
	PathReady   = "/readyz"
	PathMetrics = "/metrics"
	PathVersion = "/version"
)

const (
	statusOK          = "ok"
	statusUnavailable = "unavailable"
)

// ReadyCheck is a named readiness probe. Check returns nil when ready.
type ReadyCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type statusBody struct {
	Status string   `json:"status"`
	Failed []string `json:"failed,omitempty"`
}

// HealthHandler answers liveness probes. It always reports ok.
func HealthHandler() http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, _ *http.Request) {
		writeJSONStatus(rw, http.StatusOK, statusBody{Status: statusOK})
	})
}

// ReadyHandler runs every check and answers 503 naming the failed ones.
func ReadyHandler(checks ...ReadyCheck) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		var failed []string

		for _, c := range checks {
			if c.Check(req.Context()) != nil {
				failed = append(failed, c.Name)
			}
		}

		if len(failed) > 0 {
			writeJSONStatus(rw, http.StatusServiceUnavailable, statusBody{Status: statusUnavailable, Failed: failed})

			return
		}

		writeJSONStatus(rw, http.StatusOK, statusBody{Status: statusOK})
	})
}

func writeJSONStatus(rw http.ResponseWriter, code int, body any) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(code)

	_ = json.NewEncoder(rw).Encode(body) //nolint:errcheck // the client is gone.
}

// DiagnosticsOption configures a DiagnosticsServer.
type DiagnosticsOption func(*diagnosticsRoutes)

type diagnosticsRoutes struct {
	metrics http.Handler
	checks  []ReadyCheck
	build   map[string]string
}

// WithMetrics serves h at /metrics. Without it the path answers 404.
func WithMetrics(h http.Handler) DiagnosticsOption {
	return func(r *diagnosticsRoutes) {
		r.metrics = h
	}
}

// WithReadyCheck adds a readiness probe to /readyz.
func WithReadyCheck(name string, check func(ctx context.Context) error) DiagnosticsOption {
	return func(r *diagnosticsRoutes) {
		r.checks = append(r.checks, ReadyCheck{Name: name, Check: check})
	}
}

// WithBuildInfo serves info as JSON at /version.
func WithBuildInfo(info map[string]string) DiagnosticsOption {
	return func(r *diagnosticsRoutes) {
		r.build = info
	}
}

// DiagnosticsHandler returns the mux a DiagnosticsServer serves.
func DiagnosticsHandler(opts ...DiagnosticsOption) http.Handler {
	routes := &diagnosticsRoutes{}
	for _, opt := range opts {
		opt(routes)
	}

	mux := http.NewServeMux()
	mux.Handle(PathHealth, HealthHandler())
	mux.Handle(PathReady, ReadyHandler(routes.checks...))

	if routes.metrics != nil {
		mux.Handle(PathMetrics, routes.metrics)
	}

	if routes.build != nil {
		mux.HandleFunc(PathVersion, func(rw http.ResponseWriter, _ *http.Request) {
			writeJSONStatus(rw, http.StatusOK, routes.build)
		})
	}

	return mux
}

// DiagnosticsServer serves the diagnostics endpoints over HTTP in the
// background.
type DiagnosticsServer struct {
	server   *http.Server
	listener net.Listener
}

// NewDiagnosticsServer listens on addr and starts serving.
func NewDiagnosticsServer(addr string, opts ...DiagnosticsOption) (*DiagnosticsServer, error) {
	var lc net.ListenConfig

	listener, err := lc.Listen(context.Background(), "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}

	d := &DiagnosticsServer{
		server:   &http.Server{Handler: DiagnosticsHandler(opts...)}, //nolint:gosec // bound to a local address.
		listener: listener,
	}

	go d.serve()

	return d, nil
}

func (d *DiagnosticsServer) serve() {
	err := d.server.Serve(d.listener)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Warn("diagnostics server stopped", "addr", d.Addr(), "error", err)
	}
}

// Addr returns the bound address, which resolves a ":0" port.
func (d *DiagnosticsServer) Addr() string {
	return d.listener.Addr().String()
}

// Close stops accepting connections and waits for in-flight requests.
func (d *DiagnosticsServer) Close(ctx context.Context) error {
	err := d.server.Shutdown(ctx)
	if err != nil {
		return fmt.Errorf("shutdown diagnostics server: %w", err)
	}

	return nil
}
