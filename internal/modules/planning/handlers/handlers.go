// Package handlers provides HTTP handlers for goal planning.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aristath/goalsip/internal/domain"
	"github.com/aristath/goalsip/internal/modules/charts"
	"github.com/aristath/goalsip/internal/modules/planning"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

const contentTypeMsgpack = "application/msgpack"

// maxRequestBody caps decoded request bodies
const maxRequestBody = 1 << 20

// Handler handles goal planning HTTP requests
type Handler struct {
	service *planning.Service
	log     zerolog.Logger
}

// NewHandler creates a new goal planning handler
func NewHandler(service *planning.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "planning").Logger(),
	}
}

// HandleCalculate handles POST /api/goals/calculate
func (h *Handler) HandleCalculate(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}

	summary, err := h.service.Analyze(r.Context(), req)
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}

	h.writeResponse(w, r, http.StatusOK, map[string]interface{}{
		"data": summary,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleCalculateGoal handles POST /calculate-goal, answering with the bare summary
func (h *Handler) HandleCalculateGoal(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}

	summary, err := h.service.Analyze(r.Context(), req)
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}

	h.writeResponse(w, r, http.StatusOK, summary)
}

// HandleGetProfiles handles GET /api/goals/profiles
func (h *Handler) HandleGetProfiles(w http.ResponseWriter, r *http.Request) {
	table := h.service.Profiles()

	h.writeResponse(w, r, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"names":       table.Names(),
			"profiles":    table.Profiles,
			"fixed_rates": table.FixedRates,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleChart handles POST /api/goals/chart?kind=trajectory|rolling and answers with a PNG
func (h *Handler) HandleChart(w http.ResponseWriter, r *http.Request) {
	kind := r.URL.Query().Get("kind")
	if kind == "" {
		kind = "trajectory"
	}
	if kind != "trajectory" && kind != "rolling" {
		h.writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown chart kind %q", kind))
		return
	}

	req, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}

	proj, err := h.service.Project(r.Context(), req)
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}

	var img []byte
	switch kind {
	case "rolling":
		title := fmt.Sprintf("%d-year rolling returns (%s): %.2f%%", req.TimeHorizon, req.RiskProfile, proj.Rolling.Rate)
		img, err = charts.RollingReturns(proj.Rolling.Samples, proj.Rolling.WindowEnds, title)
	default:
		title := fmt.Sprintf("Goal %.0f in %d years (%s)", req.GoalAmount, req.TimeHorizon, req.RiskProfile)
		img, err = charts.Trajectory(proj.Trajectory, title)
	}
	if err != nil {
		h.log.Error().Err(err).Str("kind", kind).Msg("Failed to render chart")
		h.writeError(w, http.StatusInternalServerError, "failed to render chart")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(img); err != nil {
		h.log.Error().Err(err).Msg("Failed to write chart")
	}
}

// decodeRequest reads a JSON or msgpack goal request. On failure it has already answered 400.
func (h *Handler) decodeRequest(w http.ResponseWriter, r *http.Request) (planning.Request, bool) {
	var req planning.Request
	body := http.MaxBytesReader(w, r.Body, maxRequestBody)

	var err error
	if strings.HasPrefix(r.Header.Get("Content-Type"), contentTypeMsgpack) {
		err = msgpack.NewDecoder(body).Decode(&req)
	} else {
		err = json.NewDecoder(body).Decode(&req)
	}
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		h.writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return planning.Request{}, false
	}
	return req, true
}

// writeFailure maps validation and data errors to 400 and hides everything else behind 500
func (h *Handler) writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, context.Canceled) && r.Context().Err() != nil {
		h.log.Warn().Msg("Client went away during analysis")
		return
	}
	if domain.IsClientFault(err) {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.log.Error().Err(err).Msg("Goal analysis failed")
	h.writeError(w, http.StatusInternalServerError, "internal error")
}

// writeResponse encodes as msgpack when the client asks for it and as JSON otherwise
func (h *Handler) writeResponse(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	if !strings.Contains(r.Header.Get("Accept"), contentTypeMsgpack) {
		h.writeJSON(w, status, data)
		return
	}

	payload, err := msgpack.Marshal(data)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to encode msgpack response")
		h.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.Header().Set("Content-Type", contentTypeMsgpack)
	w.WriteHeader(status)
	if _, err := w.Write(payload); err != nil {
		h.log.Error().Err(err).Msg("Failed to write msgpack response")
	}
}

// writeJSON writes a JSON response, encoding before the status line goes out
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
		status = http.StatusInternalServerError
		payload = []byte(`{"error":"internal error"}`)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(payload, '\n')); err != nil {
		h.log.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// writeError writes an error response
func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{
		"error": message,
	})
}
