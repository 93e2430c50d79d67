package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/BagasRo/predictions"
)

// maxDocumentBytes matches the Firestore per-document size limit.
const maxDocumentBytes = 1 << 20

// Handler adapts predictions.Service to HTTP. Every response body is the
// operation's Result.
type Handler struct {
	Service *predictions.Service
	logger  *slog.Logger
}

func NewHandler(svc *predictions.Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{Service: svc, logger: logger}
}

// PutPrediction handles PUT /predictions/{id}.
func (h *Handler) PutPrediction(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxDocumentBytes)
	var data predictions.Document
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		h.writeResult(w, badRequest(fmt.Errorf("invalid JSON body: %w", err)))
		return
	}
	if data == nil {
		h.writeResult(w, badRequest(errors.New("body must be a JSON object")))
		return
	}
	h.writeResult(w, h.Service.Store(r.Context(), r.PathValue("id"), data))
}

// GetPrediction handles GET /predictions/{id}.
func (h *Handler) GetPrediction(w http.ResponseWriter, r *http.Request) {
	h.writeResult(w, h.Service.Get(r.Context(), r.PathValue("id")))
}

// DeletePrediction handles DELETE /predictions/{id}.
func (h *Handler) DeletePrediction(w http.ResponseWriter, r *http.Request) {
	h.writeResult(w, h.Service.Delete(r.Context(), r.PathValue("id")))
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, "ok")
}

var errBadRequest = errors.New("bad request")

func badRequest(err error) predictions.Result {
	return predictions.Result{Error: err.Error(), Err: fmt.Errorf("%w: %w", errBadRequest, err)}
}

func statusFor(res predictions.Result) int {
	switch {
	case res.Success:
		return http.StatusOK
	case errors.Is(res.Err, predictions.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(res.Err, predictions.ErrInvalidID), errors.Is(res.Err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(res.Err, predictions.ErrRemoteFailure):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func (h *Handler) writeResult(w http.ResponseWriter, res predictions.Result) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusFor(res))
	if err := json.NewEncoder(w).Encode(res); err != nil {
		h.logger.Error("failed to encode result", "error", err)
	}
}
