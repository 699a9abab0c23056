package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/yegors/atc-semframe/internal/callsign"
	"github.com/yegors/atc-semframe/internal/config"
	"github.com/yegors/atc-semframe/internal/metrics"
	"github.com/yegors/atc-semframe/internal/semparse"
	"github.com/yegors/atc-semframe/internal/storage/sqlite"
	"github.com/yegors/atc-semframe/pkg/logger"
)

const defaultQueryLimit = 100

// Handler serves the API endpoints.
type Handler struct {
	parser  *semparse.Parser
	storage *sqlite.TransmissionStorage
	config  *config.Config
	metrics *metrics.Metrics
	reload  func() error
	logger  *logger.Logger
}

// NewHandler creates a new API handler. storage may be nil when
// persistence is disabled; reload may be nil when the grammar is embedded.
func NewHandler(parser *semparse.Parser, storage *sqlite.TransmissionStorage, cfg *config.Config, m *metrics.Metrics, reload func() error, log *logger.Logger) *Handler {
	return &Handler{
		parser:  parser,
		storage: storage,
		config:  cfg,
		metrics: m,
		reload:  reload,
		logger:  log.Named("api-handler"),
	}
}

type parseRequest struct {
	Text  string `json:"text"`
	Store *bool  `json:"store,omitempty"`
}

type parseResponse struct {
	ID           string          `json:"id,omitempty"`
	Input        string          `json:"input"`
	Normalized   string          `json:"normalized"`
	Placeholders string          `json:"placeholders"`
	LogicalForm  string          `json:"logical_form"`
	Frame        json.RawMessage `json:"frame"`
	Callsign     string          `json:"callsign,omitempty"`
	CallsignCode string          `json:"callsign_code,omitempty"`
	Segments     int             `json:"segments"`
	ParseMillis  int64           `json:"parse_ms"`
}

// ParseTransmission parses one transmission and optionally stores it.
func (h *Handler) ParseTransmission(w http.ResponseWriter, r *http.Request) {
	var req parseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.parser.Parse(r.Context(), req.Text)
	if err != nil {
		if errors.Is(err, semparse.ErrEmpty) {
			h.metrics.ParsesTotal.WithLabelValues("empty").Inc()
			h.respondError(w, http.StatusBadRequest, "empty transmission")
			return
		}
		h.metrics.ParsesTotal.WithLabelValues("error").Inc()
		h.logger.WithError(err).Error("Parse failed")
		h.respondError(w, http.StatusInternalServerError, "parse failed")
		return
	}
	h.metrics.ParsesTotal.WithLabelValues("ok").Inc()
	h.metrics.ParseDuration.Observe(result.Duration.Seconds())
	h.metrics.SegmentsParsed.Observe(float64(result.Segments))

	frameJSON, err := json.Marshal(result.Frame)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "frame encoding failed")
		return
	}

	resp := parseResponse{
		Input:        result.Input,
		Normalized:   result.Normalized,
		Placeholders: result.Placeholders,
		LogicalForm:  result.LogicalForm,
		Frame:        frameJSON,
		Callsign:     result.Callsign(),
		CallsignCode: callsign.Canonical(result.Callsign()),
		Segments:     result.Segments,
		ParseMillis:  result.Duration.Milliseconds(),
	}

	store := h.storage != nil && h.config.Storage.Enabled
	if req.Store != nil {
		store = *req.Store && h.storage != nil
	}
	if store {
		id, err := h.storage.Store(&sqlite.TransmissionRecord{
			Content:     result.Input,
			Normalized:  result.Normalized,
			LogicalForm: result.LogicalForm,
			FrameJSON:   string(frameJSON),
			Callsign:    result.Callsign(),
			Segments:    result.Segments,
			ParseMillis: result.Duration.Milliseconds(),
		})
		if err != nil {
			h.logger.WithError(err).Error("Failed to store transmission")
		} else {
			resp.ID = id
			if _, err := h.storage.Prune(h.config.Storage.MaxHistory); err != nil {
				h.logger.WithError(err).Warn("Failed to prune transmissions")
			}
		}
	}

	h.respondJSON(w, http.StatusOK, resp)
}

// GetTransmissions returns recent transmissions.
func (h *Handler) GetTransmissions(w http.ResponseWriter, r *http.Request) {
	if h.storage == nil {
		h.respondError(w, http.StatusNotFound, "storage disabled")
		return
	}
	records, err := h.storage.GetRecent(h.queryLimit(r))
	if err != nil {
		h.logger.WithError(err).Error("Failed to query transmissions")
		h.respondError(w, http.StatusInternalServerError, "query failed")
		return
	}
	h.respondJSON(w, http.StatusOK, records)
}

// GetTransmissionByID returns one stored transmission.
func (h *Handler) GetTransmissionByID(w http.ResponseWriter, r *http.Request) {
	if h.storage == nil {
		h.respondError(w, http.StatusNotFound, "storage disabled")
		return
	}
	record, err := h.storage.GetByID(chi.URLParam(r, "id"))
	if err != nil {
		h.logger.WithError(err).Error("Failed to query transmission")
		h.respondError(w, http.StatusInternalServerError, "query failed")
		return
	}
	if record == nil {
		h.respondError(w, http.StatusNotFound, "transmission not found")
		return
	}
	h.respondJSON(w, http.StatusOK, record)
}

// GetTransmissionsByCallsign returns transmissions for one callsign.
func (h *Handler) GetTransmissionsByCallsign(w http.ResponseWriter, r *http.Request) {
	if h.storage == nil {
		h.respondError(w, http.StatusNotFound, "storage disabled")
		return
	}
	records, err := h.storage.GetByCallsign(chi.URLParam(r, "callsign"), h.queryLimit(r))
	if err != nil {
		h.logger.WithError(err).Error("Failed to query transmissions by callsign")
		h.respondError(w, http.StatusInternalServerError, "query failed")
		return
	}
	h.respondJSON(w, http.StatusOK, records)
}

// GetTransmissionsByTimeRange returns transmissions between the start and
// end query parameters (RFC3339).
func (h *Handler) GetTransmissionsByTimeRange(w http.ResponseWriter, r *http.Request) {
	if h.storage == nil {
		h.respondError(w, http.StatusNotFound, "storage disabled")
		return
	}
	start, err := time.Parse(time.RFC3339, r.URL.Query().Get("start"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid start time")
		return
	}
	end, err := time.Parse(time.RFC3339, r.URL.Query().Get("end"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid end time")
		return
	}
	records, err := h.storage.GetByTimeRange(start, end)
	if err != nil {
		h.logger.WithError(err).Error("Failed to query transmissions by time range")
		h.respondError(w, http.StatusInternalServerError, "query failed")
		return
	}
	h.respondJSON(w, http.StatusOK, records)
}

// GetGrammar returns grammar statistics.
func (h *Handler) GetGrammar(w http.ResponseWriter, r *http.Request) {
	g := h.parser.Grammar()
	h.respondJSON(w, http.StatusOK, map[string]any{
		"stats": g.Stats(),
		"files": g.Files(),
	})
}

// ReloadGrammar reloads the grammar files and swaps the lexicons.
func (h *Handler) ReloadGrammar(w http.ResponseWriter, r *http.Request) {
	if h.reload == nil {
		h.respondError(w, http.StatusConflict, "grammar is embedded, nothing to reload")
		return
	}
	if err := h.reload(); err != nil {
		h.logger.WithError(err).Error("Grammar reload failed")
		h.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.metrics.GrammarReloads.Inc()
	h.respondJSON(w, http.StatusOK, map[string]any{
		"status": "reloaded",
		"stats":  h.parser.Grammar().Stats(),
	})
}

// GetHealth returns service health.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	health := map[string]any{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	}
	if h.storage != nil {
		if n, err := h.storage.Count(); err == nil {
			health["transmissions"] = n
		}
	}
	h.respondJSON(w, http.StatusOK, health)
}

// GetConfig returns the active configuration.
func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, h.config)
}

func (h *Handler) queryLimit(r *http.Request) int {
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return defaultQueryLimit
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.WithError(err).Error("Failed to encode response")
	}
}

func (h *Handler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
