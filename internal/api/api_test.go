package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/yegors/atc-semframe/internal/config"
	"github.com/yegors/atc-semframe/internal/grammar"
	"github.com/yegors/atc-semframe/internal/metrics"
	"github.com/yegors/atc-semframe/internal/semparse"
	"github.com/yegors/atc-semframe/internal/storage/sqlite"
	"github.com/yegors/atc-semframe/pkg/logger"
	"go.uber.org/zap"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	log := &logger.Logger{Logger: zap.NewNop()}

	g, err := grammar.Load(grammar.Config{}, log)
	require.NoError(t, err)
	parser, err := semparse.New(g, semparse.Config{}, log)
	require.NoError(t, err)

	db, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	storage, err := sqlite.NewTransmissionStorage(db, log)
	require.NoError(t, err)

	cfg := config.Default()
	return NewRouter(parser, storage, cfg, metrics.New(), nil, log).Routes()
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestParseEndpoint(t *testing.T) {
	h := newTestRouter(t)

	w := doJSON(t, h, http.MethodPost, "/api/v1/parse", map[string]any{
		"text": "Emirates 215 fly heading 330 vectors around weather advise when able direct DAG",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		ID          string          `json:"id"`
		LogicalForm string          `json:"logical_form"`
		Frame       json.RawMessage `json:"frame"`
		Callsign    string          `json:"callsign"`
		Segments    int             `json:"segments"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.ID, "default config stores the transmission")
	require.Equal(t, "Emirates 215", resp.Callsign)
	require.Equal(t, 6, resp.Segments)
	require.Contains(t, resp.LogicalForm, "_RADAR_(_RADAR_(*vectors*)")

	var frame map[string]any
	require.NoError(t, json.Unmarshal(resp.Frame, &frame))
	require.Contains(t, frame, "CALLSIGN")
	require.Contains(t, frame, "DIRECTION_1")

	// The stored record is retrievable by id and by callsign.
	w = doJSON(t, h, http.MethodGet, "/api/v1/transmissions/"+resp.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, h, http.MethodGet, "/api/v1/transmissions/callsign/"+url.PathEscape("Emirates 215"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var records []*sqlite.TransmissionRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &records))
	require.Len(t, records, 1)
}

func TestParseEndpointSkipStore(t *testing.T) {
	h := newTestRouter(t)

	store := false
	w := doJSON(t, h, http.MethodPost, "/api/v1/parse", map[string]any{
		"text":  "Delta 100 turn left heading 250",
		"store": &store,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Empty(t, resp.ID)

	w = doJSON(t, h, http.MethodGet, "/api/v1/transmissions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "null\n", w.Body.String())
}

func TestParseEndpointRejectsEmpty(t *testing.T) {
	h := newTestRouter(t)

	w := doJSON(t, h, http.MethodPost, "/api/v1/parse", map[string]any{"text": "   "})
	require.Equal(t, http.StatusBadRequest, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/parse", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTransmissionNotFound(t *testing.T) {
	h := newTestRouter(t)

	w := doJSON(t, h, http.MethodGet, "/api/v1/transmissions/no-such-id", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestTimeRangeValidation(t *testing.T) {
	h := newTestRouter(t)

	w := doJSON(t, h, http.MethodGet, "/api/v1/transmissions/time-range?start=bogus&end=2025-06-02T00:00:00Z", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, h, http.MethodGet,
		"/api/v1/transmissions/time-range?start=2025-06-01T00:00:00Z&end=2025-06-02T00:00:00Z", nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestGrammarEndpoints(t *testing.T) {
	h := newTestRouter(t)

	w := doJSON(t, h, http.MethodGet, "/api/v1/grammar", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Stats grammar.Stats `json:"stats"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Greater(t, resp.Stats.Patterns, 0)

	// No reload hook: the grammar is embedded.
	w = doJSON(t, h, http.MethodPost, "/api/v1/grammar/reload", nil)
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestHealthAndConfig(t *testing.T) {
	h := newTestRouter(t)

	w := doJSON(t, h, http.MethodGet, "/api/v1/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var health map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	require.Equal(t, "ok", health["status"])

	w = doJSON(t, h, http.MethodGet, "/api/v1/config", nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestRouter(t)

	doJSON(t, h, http.MethodPost, "/api/v1/parse", map[string]any{"text": "Delta 100 turn left heading 250"})

	w := doJSON(t, h, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "semframe_parses_total")
}
