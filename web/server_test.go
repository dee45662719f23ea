package web

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/leadline/db"
	"github.com/harperreed/leadline/kpi"
	"github.com/harperreed/leadline/logger"
	"github.com/harperreed/leadline/models"
	"github.com/harperreed/leadline/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router    http.Handler
	exportDir string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	dir := t.TempDir()
	conn, err := db.OpenDatabase(filepath.Join(dir, "leadline.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	exportDir := filepath.Join(dir, "exports", "discovery")
	crm := services.NewCRM(conn, logger.Nop(), services.Options{
		Agent:     "Dana",
		Basis:     kpi.ByType,
		ExportDir: exportDir,
		BackupDir: filepath.Join(dir, "backups"),
	})
	return &testServer{router: NewServer(crm, logger.Nop()).Router(), exportDir: exportDir}
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func createLead(t *testing.T, ts *testServer, body map[string]any) models.Contact {
	t.Helper()
	w := ts.do(t, http.MethodPost, "/api/contacts", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var c models.Contact
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &c))
	return c
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode(t, w)["status"])
}

func TestDiscoveryFlow(t *testing.T) {
	ts := newTestServer(t)
	lead := createLead(t, ts, map[string]any{"firstName": "Maria", "lastName": "Garcia", "phone": "555-123-4567"})

	w := ts.do(t, http.MethodGet, "/api/discovery/by-client/"+lead.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	lookup := decode(t, w)
	assert.Equal(t, false, lookup["exists"])
	assert.Nil(t, lookup["sessionId"])
	assert.Equal(t, lead.ID.String(), lookup["clientId"])

	w = ts.do(t, http.MethodPost, "/api/discovery", map[string]any{
		"clientId": lead.ID,
		"seed":     map[string]any{"client": map[string]any{"zip": "02134"}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode(t, w)
	sessionID, _ := created["sessionId"].(string)
	require.NotEmpty(t, sessionID)
	assert.NotEmpty(t, created["createdAt"])

	w = ts.do(t, http.MethodGet, "/api/discovery/"+sessionID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var session models.DiscoverySession
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &session))
	assert.Equal(t, "Maria Garcia", session.ClientName)
	assert.Equal(t, "", session.YAMLPayload)

	data := session.Payload
	require.NoError(t, data.Set("client.state", "MA"))
	w = ts.do(t, http.MethodPost, "/api/discovery/save", map[string]any{
		"sessionId":    sessionID,
		"data":         data,
		"callDuration": 300,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, sessionID, decode(t, w)["sessionId"])

	w = ts.do(t, http.MethodGet, "/api/discovery/by-client/"+lead.ID.String(), nil)
	lookup = decode(t, w)
	assert.Equal(t, true, lookup["exists"])
	assert.Equal(t, "MA", lookup["state"])

	w = ts.do(t, http.MethodGet, "/api/discovery/"+sessionID, nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &session))
	require.NotNil(t, session.Payload.Meta.CallDuration)
	assert.Equal(t, int64(300), *session.Payload.Meta.CallDuration)
	assert.NotEmpty(t, session.YAMLPayload)

	w = ts.do(t, http.MethodPost, "/api/discovery/export", map[string]any{"sessionId": sessionID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	exported := decode(t, w)
	assert.Equal(t, ts.exportDir, exported["dir"])
	assert.FileExists(t, filepath.Join(ts.exportDir, exported["jsonFile"].(string)))
	assert.FileExists(t, filepath.Join(ts.exportDir, exported["yamlFile"].(string)))
}

func TestDiscoveryErrors(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/discovery", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	envelope := decode(t, w)["error"].(map[string]any)
	assert.Equal(t, "clientId is required", envelope["message"])
	assert.Equal(t, "validation", envelope["code"])

	w = ts.do(t, http.MethodPost, "/api/discovery", map[string]any{"clientId": uuid.New()})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = ts.do(t, http.MethodGet, "/api/discovery/discovery_0_missing00", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = ts.do(t, http.MethodPost, "/api/discovery/save", map[string]any{"sessionId": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodGet, "/api/discovery/by-client/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestKPIEndpoints(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/kpis/log", map[string]any{"type": "DIAL", "count": 10})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = ts.do(t, http.MethodPost, "/api/kpis/log", map[string]any{"type": "CLOSE", "count": 2, "revenue": 500})
	require.Equal(t, http.StatusCreated, w.Code)

	for _, q := range []string{"?days=7", "?range=today", "?range=week", ""} {
		w = ts.do(t, http.MethodGet, "/api/kpis"+q, nil)
		require.Equal(t, http.StatusOK, w.Code, q)
		res := decode(t, w)
		assert.Equal(t, float64(10), res["dials"], q)
		assert.Equal(t, float64(2), res["closes"], q)
		assert.Equal(t, float64(500), res["revenue"], q)
		assert.Equal(t, "20.0", res["conversionRate"], q)
	}

	w = ts.do(t, http.MethodGet, "/api/kpis?from=2001-01-01&to=2001-01-31", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "0", decode(t, w)["conversionRate"])

	w = ts.do(t, http.MethodGet, "/api/kpis?days=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestContactDuplicates(t *testing.T) {
	ts := newTestServer(t)
	lead := createLead(t, ts, map[string]any{"firstName": "Ana", "email": "Ana@Example.com"})

	w := ts.do(t, http.MethodPost, "/api/contacts", map[string]any{"firstName": "Ana", "email": "ana@example.com "})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.NotNil(t, decode(t, w)["existing"])

	w = ts.do(t, http.MethodGet, "/api/contacts/duplicates?email=ANA@example.com", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["duplicate"])

	w = ts.do(t, http.MethodGet, "/api/contacts/duplicates?email=ana@example.com&excludeId="+lead.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode(t, w)["duplicate"])

	w = ts.do(t, http.MethodDelete, "/api/contacts/"+lead.ID.String(), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = ts.do(t, http.MethodGet, "/api/contacts/"+lead.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBulkTaskEndpoints(t *testing.T) {
	ts := newTestServer(t)

	var ids []string
	for _, title := range []string{"Call Ana", "Email Ben"} {
		w := ts.do(t, http.MethodPost, "/api/tasks", map[string]any{"title": title})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		ids = append(ids, decode(t, w)["id"].(string))
	}

	w := ts.do(t, http.MethodPost, "/api/tasks/bulk-update", map[string]any{
		"scope": "IDS",
		"ids":   []string{ids[0]},
		"patch": map[string]any{"status": "DONE"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, float64(1), decode(t, w)["updated"])

	w = ts.do(t, http.MethodGet, "/api/tasks", nil)
	var open []models.Task
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &open))
	require.Len(t, open, 1)
	assert.Equal(t, "Email Ben", open[0].Title)

	w = ts.do(t, http.MethodGet, "/api/tasks?showArchived=true&status=DONE", nil)
	var done []models.Task
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &done))
	require.Len(t, done, 1)
	assert.NotNil(t, done[0].ArchivedAt)
	assert.NotNil(t, done[0].CompletedAt)

	w = ts.do(t, http.MethodPost, "/api/tasks/bulk-update", map[string]any{
		"scope": "GLOBAL",
		"patch": map[string]any{"color": "red"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodPost, "/api/tasks/bulk-delete", map[string]any{
		"scope":   "GLOBAL",
		"filters": map[string]any{"q": "email"},
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["deleted"])
}

func TestBackupRoundTrip(t *testing.T) {
	src := newTestServer(t)
	createLead(t, src, map[string]any{"firstName": "Ana"})

	w := src.do(t, http.MethodGet, "/api/backup/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	snapshot := w.Body.Bytes()
	for _, key := range []string{"leads", "activities", "tasks", "settings", "contacts", "discovery"} {
		assert.Contains(t, decode(t, w), key)
	}

	dst := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/backup/import", bytes.NewReader(snapshot))
	rec := httptest.NewRecorder()
	dst.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, float64(1), decode(t, rec)["contacts"])

	w = dst.do(t, http.MethodPost, "/api/backup/import", map[string]any{"unrelated": true})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = src.do(t, http.MethodPost, "/api/backups", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = src.do(t, http.MethodGet, "/api/backups", nil)
	var backups []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &backups))
	assert.Len(t, backups, 2)
}
