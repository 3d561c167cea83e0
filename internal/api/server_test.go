package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/docsieve/internal/config"
	"github.com/dgallion1/docsieve/internal/library"
	"github.com/dgallion1/docsieve/internal/pipeline"
)

const testKey = "test-key"

const guideMD = `# Install

## Linux

apt install docsieve

## macOS

brew install docsieve

# Usage

Run the server.
`

func newTestServer(t *testing.T) *Server {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := config.Config{
		APIKey:         testKey,
		WorkerCount:    1,
		MaxQueueSize:   10,
		MaxUploadBytes: 1 << 20,
		JobTTL:         time.Hour,
	}
	lib := library.New(library.Options{CacheTTL: time.Minute}, log)
	orch := pipeline.NewOrchestrator(cfg, lib, log)
	orch.Start(context.Background())
	t.Cleanup(func() {
		orch.Stop()
		lib.Close()
	})
	return NewServer(orch, log, cfg)
}

func do(t *testing.T, s *Server, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Authorization", "Bearer "+testKey)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func upload(t *testing.T, s *Server, filename, content string, fields map[string]string) map[string]any {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	rec := do(t, s, http.MethodPost, "/api/documents", &buf, mw.FormDataContentType())
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	return decode(t, rec)
}

func awaitJob(t *testing.T, s *Server, pollURL string) map[string]any {
	t.Helper()
	var job map[string]any
	require.Eventually(t, func() bool {
		rec := do(t, s, http.MethodGet, pollURL, nil, "")
		if rec.Code != http.StatusOK {
			return false
		}
		job = decode(t, rec)
		status := job["status"]
		return status == "completed" || status == "failed" || status == "duplicate_skipped"
	}, 5*time.Second, 5*time.Millisecond)
	return job
}

func ingestGuide(t *testing.T, s *Server) {
	t.Helper()
	accepted := upload(t, s, "guide.md", guideMD, map[string]string{"doc_id": "guide", "title": "Guide"})
	job := awaitJob(t, s, accepted["poll_url"].(string))
	require.Equal(t, "completed", job["status"], job)
}

func TestHealthIsPublic(t *testing.T) {
	s := newTestServer(t)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/documents", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "missing authorization", decode(t, rec)["error"])

	req := httptest.NewRequest(http.MethodGet, "/api/documents", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid api key", decode(t, rec)["error"])
}

func TestIngestAndSearch(t *testing.T) {
	s := newTestServer(t)
	ingestGuide(t, s)

	rec := do(t, s, http.MethodPost, "/api/documents/guide/search",
		strings.NewReader(`{"query":"brew","snippets":true}`), "application/json")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res library.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "guide", res.DocID)
	assert.Equal(t, 1, res.Matches)
	require.Len(t, res.Forest, 1)
	assert.Equal(t, "Install", res.Forest[0].Value.Title)
	require.Len(t, res.Forest[0].Children, 1)
	assert.Equal(t, "macOS", res.Forest[0].Children[0].Value.Title)
	assert.True(t, res.Forest[0].Children[0].Value.Matched)
	require.Len(t, res.Snippets, 1)
	assert.Equal(t, []string{"Install", "macOS"}, res.Snippets[0].Breadcrumb)

	rec = do(t, s, http.MethodPost, "/api/documents/guide/search",
		strings.NewReader(`{"query":"BREW","snippets":true}`), "application/json")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode(t, rec)["cached"])

	rec = do(t, s, http.MethodGet, "/api/stats/search", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode(t, rec)["search"].(map[string]any)
	assert.EqualValues(t, 2, stats["count"])
	assert.EqualValues(t, 1, stats["cache_hits"])
	assert.EqualValues(t, 1, stats["documents"])
}

func TestSearchErrors(t *testing.T) {
	s := newTestServer(t)
	ingestGuide(t, s)

	tests := []struct {
		name string
		path string
		body string
		code int
	}{
		{"unknown doc", "/api/documents/nope/search", `{"query":"x"}`, http.StatusNotFound},
		{"empty query", "/api/documents/guide/search", `{"query":"  "}`, http.StatusBadRequest},
		{"bad regex", "/api/documents/guide/search", `{"query":"(","regex":true}`, http.StatusBadRequest},
		{"bad field", "/api/documents/guide/search", `{"query":"x","field":"body"}`, http.StatusBadRequest},
		{"bad json", "/api/documents/guide/search", `{`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, tt.path, strings.NewReader(tt.body), "application/json")
			assert.Equal(t, tt.code, rec.Code, rec.Body.String())
			assert.NotEmpty(t, decode(t, rec)["error"])
		})
	}
}

func TestOutlineListDelete(t *testing.T) {
	s := newTestServer(t)
	ingestGuide(t, s)

	rec := do(t, s, http.MethodGet, "/api/documents/guide/outline", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	outline := decode(t, rec)
	assert.Equal(t, "Guide", outline["title"])
	assert.Len(t, outline["sections"], 2)

	rec = do(t, s, http.MethodGet, "/api/documents", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	docs := decode(t, rec)["documents"].([]any)
	require.Len(t, docs, 1)
	assert.Equal(t, "guide", docs[0].(map[string]any)["doc_id"])
	assert.EqualValues(t, 4, docs[0].(map[string]any)["sections"])

	rec = do(t, s, http.MethodDelete, "/api/documents/guide", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, s, http.MethodDelete, "/api/documents/guide", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = do(t, s, http.MethodGet, "/api/documents/guide/outline", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestIngestDuplicate(t *testing.T) {
	s := newTestServer(t)
	ingestGuide(t, s)

	accepted := upload(t, s, "copy.md", guideMD, nil)
	job := awaitJob(t, s, accepted["poll_url"].(string))
	assert.Equal(t, "duplicate_skipped", job["status"])
	assert.Equal(t, "guide", job["duplicate_of"])
}

func TestIngestRejectsUnsupportedType(t *testing.T) {
	s := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "notes.rtf")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("x"))
	require.NoError(t, mw.Close())

	rec := do(t, s, http.MethodPost, "/api/documents", &buf, mw.FormDataContentType())
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBatchIngest(t *testing.T) {
	s := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, content := range map[string]string{"a.txt": "alpha text", "b.exe": "nope"} {
		fw, err := mw.CreateFormFile("files", name)
		require.NoError(t, err)
		_, _ = fw.Write([]byte(content))
	}
	require.NoError(t, mw.Close())

	rec := do(t, s, http.MethodPost, "/api/documents/batch", &buf, mw.FormDataContentType())
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	jobs := decode(t, rec)["jobs"].([]any)
	require.Len(t, jobs, 2)

	var accepted, rejected int
	for _, j := range jobs {
		m := j.(map[string]any)
		if _, ok := m["error"]; ok {
			rejected++
			continue
		}
		accepted++
		job := awaitJob(t, s, m["poll_url"].(string))
		assert.Equal(t, "completed", job["status"])
	}
	assert.Equal(t, 1, accepted)
	assert.Equal(t, 1, rejected)
}

func TestJobNotFound(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/api/jobs/missing", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"../../etc/passwd": "passwd",
		"report.pdf":       "report.pdf",
		"a..b.md":          "a_b.md",
		"":                 "unnamed",
	}
	for in, want := range tests {
		if got := sanitizeFilename(in); got != want {
			t.Errorf("sanitizeFilename(%q): expected %q, got %q", in, want, got)
		}
	}
}
