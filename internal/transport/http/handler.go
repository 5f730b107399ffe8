package http

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/render"
	"go.uber.org/zap"

	"smart-factory/bridge/internal/pipeline"
)

type Ingester interface {
	Ingest(ctx context.Context, body []byte) (pipeline.IngestResult, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type response struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type Handler struct {
	ingester     Ingester
	store        Pinger
	maxBodyBytes int64
	logger       *zap.Logger
}

func NewHandler(ingester Ingester, store Pinger, maxBodyBytes int64, logger *zap.Logger) *Handler {
	return &Handler{
		ingester:     ingester,
		store:        store,
		maxBodyBytes: maxBodyBytes,
		logger:       logger,
	}
}

// HandleIngest answers success for everything except unreadable payloads and
// internal faults. The sender never learns which internal step failed.
func (h *Handler) HandleIngest(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if p := recover(); p != nil {
			h.logger.Error("handler panic", zap.Any("panic", p), zap.Stack("stack"))
			writeError(w, r, http.StatusInternalServerError, "Internal Server Error")
		}
	}()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.logger.Warn("payload too large", zap.Int64("limit", tooLarge.Limit))
			writeError(w, r, http.StatusBadRequest, "Payload Too Large")
			return
		}
		h.logger.Warn("failed to read body", zap.Error(err))
		writeError(w, r, http.StatusBadRequest, "Invalid JSON")
		return
	}

	_, err = h.ingester.Ingest(r.Context(), body)
	switch {
	case err == nil:
		render.Status(r, http.StatusOK)
		render.JSON(w, r, response{Status: "success"})
	case errors.Is(err, pipeline.ErrMalformedPayload):
		writeError(w, r, http.StatusBadRequest, "Invalid JSON")
	default:
		writeError(w, r, http.StatusInternalServerError, "Internal Server Error")
	}
}

func (h *Handler) HandleLivez(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, response{Status: "ok"})
}

func (h *Handler) HandleReadyz(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		h.logger.Warn("readiness check failed", zap.Error(err))
		writeError(w, r, http.StatusServiceUnavailable, "store unavailable")
		return
	}
	render.JSON(w, r, response{Status: "ok"})
}

func (h *Handler) HandleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, http.StatusMethodNotAllowed, "Method Not Allowed")
}

func writeError(w http.ResponseWriter, r *http.Request, code int, message string) {
	render.Status(r, code)
	render.JSON(w, r, response{Status: "error", Message: message})
}
