package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/botblocks/botblocks/pkg/models"
	"github.com/botblocks/botblocks/pkg/persistence/file"
	"github.com/botblocks/botblocks/pkg/registry"
	"github.com/botblocks/botblocks/pkg/state"
)

func setupTestApp(tempDir string) *API {
	return NewAPI(
		slog.Default(),
		file.NewPersistence(tempDir),
		registry.Builtin(slog.Default()),
		nil,
		state.NewMemoryStore(),
	)
}

func healthyGraph() models.BotSchema {
	return models.BotSchema{
		Nodes: []models.Node{
			{ID: "t1", Type: models.NodeTypeTriggerCommand, Data: map[string]any{"command": "/start"}},
			{ID: "a1", Type: models.NodeTypeActionSend, Data: map[string]any{"message": "hi"}},
		},
		Edges: []models.Edge{{ID: "e1", Source: "t1", Target: "a1"}},
	}
}

func postJSON(t *testing.T, app *fiber.App, path string, body any) *http.Response {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)

	return resp
}

func TestAPI_RootEndpoint(t *testing.T) {
	app := setupTestApp(t.TempDir()).App()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "BotBlocks API", string(body))
}

func TestAPI_Liveness(t *testing.T) {
	app := setupTestApp(t.TempDir()).App()

	req := httptest.NewRequest(http.MethodGet, "/livez", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAPI_SchemaLifecycle(t *testing.T) {
	app := setupTestApp(t.TempDir()).App()

	resp := postJSON(t, app, "/schemas/", map[string]any{
		"name":  "Welcome Bot",
		"graph": healthyGraph(),
	})

	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created models.StoredSchema

	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	require.NotEmpty(t, created.ID)

	req := httptest.NewRequest(http.MethodGet, "/schemas/"+created.ID, nil)
	getResp, err := app.Test(req)
	require.NoError(t, err)

	defer func() { _ = getResp.Body.Close() }()

	assert.Equal(t, http.StatusOK, getResp.StatusCode)

	var loaded models.StoredSchema

	require.NoError(t, json.NewDecoder(getResp.Body).Decode(&loaded))
	assert.Equal(t, "Welcome Bot", loaded.Name)
	assert.Len(t, loaded.Graph.Nodes, 2)

	req = httptest.NewRequest(http.MethodDelete, "/schemas/"+created.ID, nil)
	delResp, err := app.Test(req)
	require.NoError(t, err)

	defer func() { _ = delResp.Body.Close() }()

	assert.Equal(t, http.StatusNoContent, delResp.StatusCode)
}

func TestAPI_CreateSchema_ShortName(t *testing.T) {
	app := setupTestApp(t.TempDir()).App()

	resp := postJSON(t, app, "/schemas/", map[string]any{"name": "ab"})

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "application/json")
}

func TestAPI_GetSchema_NotFound(t *testing.T) {
	app := setupTestApp(t.TempDir()).App()

	req := httptest.NewRequest(http.MethodGet, "/schemas/missing", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_ValidateGraph(t *testing.T) {
	app := setupTestApp(t.TempDir()).App()

	graph := healthyGraph()
	graph.Edges = append(graph.Edges, models.Edge{ID: "e2", Source: "a1", Target: "ghost"})

	resp := postJSON(t, app, "/validate", map[string]any{"graph": graph})

	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var report struct {
		IsValid bool `json:"isValid"`
	}

	require.NoError(t, json.NewDecoder(resp.Body).Decode(&report))
	assert.False(t, report.IsValid)
}

func TestAPI_FixSchema(t *testing.T) {
	app := setupTestApp(t.TempDir()).App()

	resp := postJSON(t, app, "/schemas/", map[string]any{
		"name":  "Untyped Bot",
		"graph": models.BotSchema{Nodes: []models.Node{{ID: "n1"}}},
	})

	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created models.StoredSchema

	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))

	req := httptest.NewRequest(http.MethodPost, "/schemas/"+created.ID+"/fix", nil)
	fixResp, err := app.Test(req)
	require.NoError(t, err)

	defer func() { _ = fixResp.Body.Close() }()

	require.Equal(t, http.StatusOK, fixResp.StatusCode)

	var result struct {
		FixLog     []string `json:"fixLog"`
		Validation struct {
			IsValid bool `json:"isValid"`
		} `json:"validation"`
	}

	require.NoError(t, json.NewDecoder(fixResp.Body).Decode(&result))
	assert.Len(t, result.FixLog, 2)
	assert.True(t, result.Validation.IsValid)
}

func TestAPI_SimulateSchema(t *testing.T) {
	app := setupTestApp(t.TempDir()).App()

	resp := postJSON(t, app, "/schemas/", map[string]any{
		"name":  "Welcome Bot",
		"graph": healthyGraph(),
	})

	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created models.StoredSchema

	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))

	simResp := postJSON(t, app, "/schemas/"+created.ID+"/simulate", map[string]any{
		"event": models.InboundEvent{
			Type: models.EventTypeCommand, Text: "/start", UserID: "u1", ChatID: "c1",
		},
	})

	defer func() { _ = simResp.Body.Close() }()

	require.Equal(t, http.StatusOK, simResp.StatusCode)

	var run models.ExecutionContext

	require.NoError(t, json.NewDecoder(simResp.Body).Decode(&run))
	require.Len(t, run.Effects, 1)
	assert.Equal(t, "hi", run.Effects[0].Text)
}

func TestAPI_CORS_Headers(t *testing.T) {
	app := setupTestApp(t.TempDir()).App()

	req := httptest.NewRequest(http.MethodOptions, "/schemas", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "GET")
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
