// Package api exposes the monitor query contract over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/Guliveer/vitalis/monitor/internal/models"
	"github.com/Guliveer/vitalis/monitor/internal/monitor"
)

// Service is the part of query.Service the API depends on.
type Service interface {
	Query(ctx context.Context, q models.Query) (models.Result, error)
	Monitors() []models.MonitorInfo
}

type errorResp struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// NewServer builds the root router with the v1 routes mounted under /api/v1.
// timeout bounds each request; sampling a monitor can take several seconds,
// so it should exceed the longest interval callers will ask for.
func NewServer(svc Service, logger *zap.Logger, timeout time.Duration) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(timeout))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResp{
			Error:   "not_found",
			Message: "Use a versioned path like /api/v1/monitors",
		})
	})

	h := &handler{svc: svc}
	r.Route("/api/v1", func(v1 chi.Router) {
		v1.Get("/monitors", h.listMonitors)
		v1.Get("/monitors/{module}/{purpose}", h.queryMonitor)
	})

	return r
}

type handler struct {
	svc Service
}

// listMonitors handles GET /api/v1/monitors
func (h *handler) listMonitors(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"items": h.svc.Monitors()})
}

// queryMonitor handles GET /api/v1/monitors/{module}/{purpose}?field=&para=
func (h *handler) queryMonitor(w http.ResponseWriter, r *http.Request) {
	q := models.Query{
		Module:  chi.URLParam(r, "module"),
		Purpose: chi.URLParam(r, "purpose"),
		Field:   r.URL.Query().Get("field"),
		Para:    r.URL.Query().Get("para"),
	}

	res, err := h.svc.Query(r.Context(), q)
	if err != nil {
		status, code := StatusFor(err)
		writeJSON(w, status, errorResp{Error: code, Message: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// StatusFor maps a query error to an HTTP status and a short error code.
func StatusFor(err error) (int, string) {
	switch {
	case errors.Is(err, monitor.ErrInvalidParameter):
		return http.StatusBadRequest, "invalid_parameter"
	case errors.Is(err, monitor.ErrUnknownField):
		return http.StatusBadRequest, "unknown_field"
	case errors.Is(err, monitor.ErrUnknownMonitor):
		return http.StatusNotFound, "unknown_monitor"
	case errors.Is(err, monitor.ErrNoDataFound):
		return http.StatusUnprocessableEntity, "no_data"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	case errors.Is(err, monitor.ErrSamplingTool):
		return http.StatusBadGateway, "sampling_failure"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// requestLogger logs one line per request with zap.
func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				logger.Info("HTTP request",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", ww.Status()),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("elapsed", time.Since(start)),
					zap.String("request_id", middleware.GetReqID(r.Context())))
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
