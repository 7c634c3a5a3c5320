package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"permitdesk.org/internal/auth"
	"permitdesk.org/internal/obs"
	"permitdesk.org/internal/permits"
)

const serviceName = "permitdesk-api"

type readinessChecker interface {
	Check(ctx context.Context) error
}

type pinger interface {
	Ping(ctx context.Context) error
}

// ReadyProbe reports ready when the store answers a ping.
type ReadyProbe struct {
	Store pinger
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.Store == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return rp.Store.Ping(ctx)
}

// Options tune the HTTP surface.
type Options struct {
	Version        string
	Development    bool
	CORSOrigins    []string
	RateLimitRPS   float64
	RateLimitBurst int
	MaxBodyBytes   int64
	TrustProxy     bool
}

// API is the HTTP layer.
type API struct {
	router       *mux.Router
	auth         *auth.Service
	permits      *permits.Service
	readiness    readinessChecker
	opts         Options
	requirements map[string]auth.Requirement
}

// New builds the router from the route table.
func New(authSvc *auth.Service, permitSvc *permits.Service, readiness readinessChecker, opts Options) *API {
	if readiness == nil {
		readiness = ReadyProbe{}
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 1 << 20
	}
	a := &API{
		router:       mux.NewRouter(),
		auth:         authSvc,
		permits:      permitSvc,
		readiness:    readiness,
		opts:         opts,
		requirements: make(map[string]auth.Requirement),
	}
	a.registerRoutes()
	return a
}

// Handler returns the router wrapped in the middleware chain.
func (a *API) Handler() http.Handler {
	var h http.Handler = obs.Instrument(a.router)
	if a.opts.RateLimitRPS > 0 {
		h = RateLimit(h, a.opts.RateLimitBurst, a.opts.RateLimitRPS, a.opts.TrustProxy)
	}
	h = MaxBodyBytes(h, a.opts.MaxBodyBytes)
	h = CORS(h, a.opts.CORSOrigins)
	h = SecurityHeaders(h)
	h = LoggingJSON(h)
	return RequestID(h)
}

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, http.StatusOK, "Service is healthy", map[string]any{
		"status":  "ok",
		"service": serviceName,
		"version": a.opts.Version,
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readiness.Check(r.Context()); err != nil {
		obs.SetReady(false)
		f := apiFailure{Status: http.StatusServiceUnavailable, Code: CodeUnavailable, Message: "Service is not ready"}
		if a.opts.Development {
			f.Details = err.Error()
		}
		writeFailure(w, r, f)
		return
	}
	obs.SetReady(true)
	writeSuccess(w, http.StatusOK, "Service is ready", map[string]any{"status": "ready"})
}

func (a *API) notFound(w http.ResponseWriter, r *http.Request) {
	writeFailure(w, r, apiFailure{Status: http.StatusNotFound, Code: CodeNotFound, Message: "Route not found"})
}

func (a *API) methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeFailure(w, r, apiFailure{Status: http.StatusMethodNotAllowed, Code: CodeMethodNotAllowed, Message: "Method not allowed"})
}
