package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/stitchgraph/pkg/buildinfo"
	"github.com/matzehuels/stitchgraph/pkg/observability"
	"github.com/matzehuels/stitchgraph/pkg/pipeline"
	"github.com/matzehuels/stitchgraph/pkg/storage"
)

const swatch = `{
  "type": "knitting pattern",
  "version": "0.1",
  "patterns": [{
    "id": "swatch",
    "name": "Swatch",
    "rows": [
      {"id": 1, "instructions": [{}, {}]},
      {"id": 2, "instructions": [{"type": "purl"}, {"type": "purl"}]},
      {"id": 3, "instructions": [{"type": "k2tog"}]}
    ],
    "connections": [
      {"from": {"id": 1}, "to": {"id": 2}},
      {"from": {"id": 2}, "to": {"id": 3}}
    ]
  }]
}`

const swatchYAML = `type: knitting pattern
version: "0.1"
patterns:
  - id: tiny
    name: Tiny
    rows:
      - id: 1
        instructions: [{}]
`

func newTestServer(t *testing.T) (*httptest.Server, *prometheus.Registry) {
	t.Helper()
	quiet := log.NewWithOptions(io.Discard, log.Options{})
	reg := prometheus.NewRegistry()
	srv := New(Config{
		Runner:   pipeline.NewRunner(nil, nil, quiet),
		Store:    storage.NewMemoryStore(),
		Logger:   quiet,
		Gatherer: reg,
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, reg
}

func do(t *testing.T, method, url, contentType, body string) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(data)
}

func TestHealth(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, body := do(t, http.MethodGet, ts.URL+"/healthz", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok","version":"`+buildinfo.Version+`"}`, body)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	assert.Equal(t, buildinfo.UserAgent(), resp.Header.Get("Server"))
}

func TestWalk(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, body := do(t, http.MethodPost, ts.URL+"/v1/walk", "application/json", swatch)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.JSONEq(t, `{"pattern":"swatch","order":["1","2","3"]}`, body)
}

func TestRender(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, body := do(t, http.MethodPost, ts.URL+"/v1/render?format=svg&zoom=10", "application/json", swatch)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Equal(t, "image/svg+xml", resp.Header.Get("Content-Type"))
	assert.Equal(t, "miss", resp.Header.Get("X-Cache"))
	assert.Contains(t, body, `<g class="row" id="row-3">`)

	resp, body = do(t, http.MethodPost, ts.URL+"/v1/render?format=dot", "application/json", swatch)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Contains(t, body, `"row-2" -> "row-3"`)

	resp, body = do(t, http.MethodPost, ts.URL+"/v1/render?format=png", "application/json", swatch)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.True(t, strings.HasPrefix(body, "\x89PNG"))

	resp, body = do(t, http.MethodPost, ts.URL+"/v1/render?download=swatch.svg", "application/json", swatch)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Equal(t, "attachment; filename=swatch.svg", resp.Header.Get("Content-Disposition"))
}

func TestLayoutYAML(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, body := do(t, http.MethodPost, ts.URL+"/v1/layout", "application/yaml", swatchYAML)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)

	var out struct {
		Pattern string `json:"pattern"`
		Rows    []any  `json:"rows"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &out))
	assert.Equal(t, "tiny", out.Pattern)
	assert.Len(t, out.Rows, 1)
}

func TestRequestErrors(t *testing.T) {
	ts, _ := newTestServer(t)

	tests := []struct {
		name   string
		path   string
		body   string
		status int
		code   string
	}{
		{"bad format", "/v1/render?format=gif", swatch, http.StatusBadRequest, "INVALID_INPUT"},
		{"bad zoom", "/v1/render?zoom=wide", swatch, http.StatusBadRequest, "INVALID_INPUT"},
		{"zoom range", "/v1/render?zoom=9000", swatch, http.StatusBadRequest, "INVALID_INPUT"},
		{"empty body", "/v1/render", "", http.StatusBadRequest, "INVALID_INPUT"},
		{"parse error", "/v1/layout", `{"type": "crochet"}`, http.StatusBadRequest, "PARSE_ERROR"},
		{"unknown pattern", "/v1/layout?pattern=hat", swatch, http.StatusNotFound, "PATTERN_NOT_FOUND"},
		{"download path", "/v1/render?download=../x.svg", swatch, http.StatusBadRequest, "INVALID_PATH"},
		{"index out of range", "/v1/walk?index=4", swatch, http.StatusUnprocessableEntity, "INDEX_OUT_OF_RANGE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := do(t, http.MethodPost, ts.URL+tt.path, "application/json", tt.body)
			assert.Equal(t, tt.status, resp.StatusCode, body)
			var e errorResponse
			require.NoError(t, json.Unmarshal([]byte(body), &e))
			assert.Equal(t, tt.code, e.Code)
			assert.NotEmpty(t, e.Error)
		})
	}
}

func TestStoredPatterns(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, body := do(t, http.MethodPost, ts.URL+"/v1/patterns", "application/json", swatch)
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	var created createResponse
	require.NoError(t, json.Unmarshal([]byte(body), &created))
	require.NotEmpty(t, created.ID)
	assert.Equal(t, []string{"swatch"}, created.Patterns)
	assert.Equal(t, "/v1/patterns/"+created.ID, resp.Header.Get("Location"))

	resp, body = do(t, http.MethodGet, ts.URL+"/v1/patterns", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list struct {
		Patterns []storage.Record `json:"patterns"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &list))
	require.Len(t, list.Patterns, 1)
	assert.Equal(t, "Swatch", list.Patterns[0].Name)

	base := ts.URL + "/v1/patterns/" + created.ID
	resp, body = do(t, http.MethodGet, base, "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, swatch, body)

	resp, body = do(t, http.MethodGet, base+"/layout", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Contains(t, body, `"pattern": "swatch"`)

	resp, body = do(t, http.MethodGet, base+"/render?format=ayab", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))

	resp, _ = do(t, http.MethodDelete, base, "", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = do(t, http.MethodGet, base, "", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = do(t, http.MethodGet, ts.URL+"/v1/patterns/not-a-uuid", "", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, body)
}

func TestMetrics(t *testing.T) {
	ts, reg := newTestServer(t)
	observability.SetHTTPHooks(observability.NewMetrics(reg))
	defer observability.Reset()

	do(t, http.MethodGet, ts.URL+"/healthz", "", "")
	resp, body := do(t, http.MethodGet, ts.URL+"/metrics", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `stitchgraph_http_requests_total{method="GET",route="/healthz",status="200"} 1`)
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, statusOf(io.ErrUnexpectedEOF))
}
