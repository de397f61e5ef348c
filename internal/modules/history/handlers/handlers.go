// Package handlers provides HTTP handlers for the NAV and exchange-rate history store.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/aristath/goalsip/internal/modules/history"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// maxUploadBytes caps CSV uploads
const maxUploadBytes = 10 << 20

// Handler handles history HTTP requests
type Handler struct {
	repo         *history.Repository
	importer     *history.Importer
	baseCurrency string
	log          zerolog.Logger
}

// NewHandler creates a new history handler. Uploads without a currency are stored in baseCurrency.
func NewHandler(repo *history.Repository, importer *history.Importer, baseCurrency string, log zerolog.Logger) *Handler {
	return &Handler{
		repo:         repo,
		importer:     importer,
		baseCurrency: baseCurrency,
		log:          log.With().Str("handler", "history").Logger(),
	}
}

// HandleListAssets handles GET /api/history/assets
func (h *Handler) HandleListAssets(w http.ResponseWriter, r *http.Request) {
	assets, err := h.repo.ListAssets(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list assets")
		h.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": assets,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
			"count":     len(assets),
		},
	})
}

// HandleImportPrices handles POST /api/history/assets/{name}/prices?currency=USD with a date,price CSV body
func (h *Handler) HandleImportPrices(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	currency := r.URL.Query().Get("currency")
	if currency == "" {
		currency = h.baseCurrency
	}

	body := http.MaxBytesReader(w, r.Body, maxUploadBytes)
	result, err := h.importer.ImportPricesCSV(r.Context(), name, currency, "api", body)
	if err != nil {
		h.writeImportError(w, err)
		return
	}
	h.writeImported(w, result)
}

// HandleImportRates handles POST /api/history/fx/{currency} with a date,rate CSV body
func (h *Handler) HandleImportRates(w http.ResponseWriter, r *http.Request) {
	currency := chi.URLParam(r, "currency")

	body := http.MaxBytesReader(w, r.Body, maxUploadBytes)
	result, err := h.importer.ImportRatesCSV(r.Context(), currency, "api", body)
	if err != nil {
		h.writeImportError(w, err)
		return
	}
	h.writeImported(w, result)
}

func (h *Handler) writeImported(w http.ResponseWriter, result history.ImportResult) {
	h.writeJSON(w, http.StatusCreated, map[string]interface{}{
		"data": result,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

func (h *Handler) writeImportError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		h.writeError(w, http.StatusRequestEntityTooLarge, "upload too large")
	case errors.Is(err, history.ErrInvalidImport):
		h.writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.log.Error().Err(err).Msg("Import failed")
		h.writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError writes an error response
func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{
		"error": message,
	})
}
