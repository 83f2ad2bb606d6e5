// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/okian/smarthire/pkg/logger"
)

// Request limits.
const (
	DefaultMaxUploadBytes = 10 << 20
	maxJSONBodyBytes      = 1 << 20
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	HealthChecker
	StatsProvider
	CandidateDependencies
	PositionDependencies
	UploadDependencies
	NotificationDependencies
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler       *HealthHandler
	statsHandler        *StatsHandler
	candidatesHandler   *CandidatesHandler
	positionsHandler    *PositionsHandler
	uploadsHandler      *UploadsHandler
	notificationHandler *NotificationsHandler
}

// Option applies a configuration option to the Server.
type Option func(*serverConfig)

type serverConfig struct {
	maxUploadBytes int64
	logger         logger.Logger
}

// WithMaxUploadBytes bounds the size of an uploaded CSV request.
func WithMaxUploadBytes(n int64) Option {
	return func(c *serverConfig) {
		if n > 0 {
			c.maxUploadBytes = n
		}
	}
}

// WithLogger sets the logger used for server-side failures.
func WithLogger(l logger.Logger) Option {
	return func(c *serverConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	cfg := serverConfig{maxUploadBytes: DefaultMaxUploadBytes, logger: logger.NewNop()}
	for _, opt := range opts {
		opt(&cfg)
	}

	r := &responder{logger: cfg.logger.Named("api"), validate: newValidator()}
	return &Server{
		healthHandler:       NewHealthHandler(deps),
		statsHandler:        newStatsHandler(deps, r),
		candidatesHandler:   newCandidatesHandler(deps, r),
		positionsHandler:    newPositionsHandler(deps, r),
		uploadsHandler:      newUploadsHandler(deps, r, cfg.maxUploadBytes),
		notificationHandler: newNotificationsHandler(deps, r),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}

	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("GET /api/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	c := s.candidatesHandler
	mux.HandleFunc("GET /api/candidates", MetricsMiddleware(c.HandleList, "candidates"))
	mux.HandleFunc("GET /api/candidates/{id}", MetricsMiddleware(c.HandleGet, "candidate"))
	mux.HandleFunc("POST /api/candidates/{id}/status", MetricsMiddleware(c.HandleUpdateStatus, "candidate_status"))
	mux.HandleFunc("POST /api/candidates/{id}/notes", MetricsMiddleware(c.HandleUpdateNotes, "candidate_notes"))
	mux.HandleFunc("POST /api/score", MetricsMiddleware(c.HandleScore, "score"))

	p := s.positionsHandler
	mux.HandleFunc("GET /api/positions", MetricsMiddleware(p.HandleList, "positions"))
	mux.HandleFunc("GET /api/active-positions", MetricsMiddleware(p.HandleListActive, "active_positions"))
	mux.HandleFunc("POST /api/positions", MetricsMiddleware(p.HandleCreate, "positions"))
	mux.HandleFunc("GET /api/positions/{id}", MetricsMiddleware(p.HandleGet, "position"))
	mux.HandleFunc("PUT /api/positions/{id}", MetricsMiddleware(p.HandleUpdate, "position"))

	u := s.uploadsHandler
	mux.HandleFunc("POST /api/upload", MetricsMiddleware(u.HandleUpload, "upload"))
	mux.HandleFunc("GET /api/uploads", MetricsMiddleware(u.HandleList, "uploads"))
	mux.HandleFunc("GET /api/exports", MetricsMiddleware(u.HandleExport, "exports"))

	n := s.notificationHandler
	mux.HandleFunc("GET /api/notifications", MetricsMiddleware(n.HandleList, "notifications"))
	mux.HandleFunc("POST /api/notifications/{id}/read", MetricsMiddleware(n.HandleMarkRead, "notification_read"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// responder holds what every handler needs to decode requests and report
// failures.
type responder struct {
	logger   logger.Logger
	validate *validator.Validate
}

// fail classifies err and writes the matching error response. Server-side
// failures are logged and their detail is not echoed to the client.
func (rs *responder) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, code := classify(err)
	if status >= statusInternalError {
		rs.logger.Error(r.Context(), "request failed",
			logger.String("op", op),
			logger.String("path", r.URL.Path),
			logger.Error(err),
		)
		writeError(w, status, code, nil)
		return
	}
	writeError(w, status, code, Wrap(op, err))
}

// decode reads a JSON body into dst and validates its struct tags.
func (rs *responder) decode(w http.ResponseWriter, r *http.Request, dst any) error {
	if err := decodeJSON(w, r, dst); err != nil {
		return err
	}
	return rs.check(dst)
}

// check validates the struct tags of v.
func (rs *responder) check(v any) error {
	if err := rs.validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %s", ErrBadRequest, validationMessage(err))
	}
	return nil
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBodyBytes))
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		return fmt.Errorf("%w: malformed json: %w", ErrBadRequest, err)
	}
	return nil
}

// validationMessage reports the first failed rule.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		if fe.Param() != "" {
			return fmt.Sprintf("%s failed %s=%s", fe.Field(), fe.Tag(), fe.Param())
		}
		return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
	}
	return "invalid request"
}

// pathID parses the {id} path value as a positive integer.
func pathID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid id %q", ErrBadRequest, raw)
	}
	return id, nil
}
