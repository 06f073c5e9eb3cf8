package compare_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"

	"criteria-diff/core/database"
	"criteria-diff/core/loader"
	"criteria-diff/core/storage/mocks"
	"criteria-diff/feature/compare"
	"criteria-diff/feature/compare/store"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupTestApp(t *testing.T, withRuns bool) (*fiber.App, *mocks.Client) {
	client := new(mocks.Client)

	var runs *store.Store
	if withRuns {
		db, err := database.Connect(database.Config{Driver: "sqlite", Name: ":memory:"})
		require.NoError(t, err)
		runs = store.New(db)
		require.NoError(t, runs.Migrate(context.Background()))
	}

	cfg := compare.Config{LabelA: "tenon", LabelB: "w3c", Order: "lexical", ReportObject: "reports/compare.json"}
	feature := compare.NewFeature(client, "catalogues", zap.NewNop(), runs, cfg)

	mgr := loader.NewManager()
	mgr.Register(feature)

	app := fiber.New()
	loaded, err := mgr.LoadAll(app)
	require.NoError(t, err)
	require.Equal(t, []string{"compare"}, loaded)

	return app, client
}

func postJSON(t *testing.T, app *fiber.App, path string, body any) (int, map[string]any) {
	data, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest("POST", path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp.StatusCode, decodeBody(t, resp.Body)
}

func get(t *testing.T, app *fiber.App, path string) (int, map[string]any) {
	resp, err := app.Test(httptest.NewRequest("GET", path, nil), -1)
	require.NoError(t, err)
	return resp.StatusCode, decodeBody(t, resp.Body)
}

func decodeBody(t *testing.T, r io.Reader) map[string]any {
	var out map[string]any
	require.NoError(t, json.NewDecoder(r).Decode(&out))
	return out
}

func TestHandleCompareInline(t *testing.T) {
	app, _ := setupTestApp(t, false)

	status, body := postJSON(t, app, "/compare", map[string]any{
		"a": map[string]any{"criteria": []any{
			map[string]any{"id": "1.1.1", "level": "A"},
			map[string]any{"id": "2.1.1", "level": "A"},
		}},
		"b": []any{
			map[string]any{"id": "1.1.1", "level": "AA"},
		},
	})
	require.Equal(t, fiber.StatusOK, status)

	assert.Equal(t, []any{"2.1.1"}, body["only_a"])
	assert.Equal(t, []any{}, body["only_b"])

	counts := body["counts"].(map[string]any)
	assert.Equal(t, float64(2), counts["a_items"])
	assert.Equal(t, float64(1), counts["changed_common"])

	changes := body["changes"].([]any)
	require.Len(t, changes, 1)
	change := changes[0].(map[string]any)
	assert.Equal(t, "1.1.1", change["id"])
	diff := change["diffs"].([]any)[0].(map[string]any)
	assert.Equal(t, "level", diff["field"])
	assert.Nil(t, diff["diff_text"])
}

func TestHandleCompareInline_BadRequests(t *testing.T) {
	app, _ := setupTestApp(t, false)

	status, _ := postJSON(t, app, "/compare", map[string]any{"a": []any{}})
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, body := postJSON(t, app, "/compare", map[string]any{"a": []any{}, "b": []any{}, "order": "random"})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, body["error"], "invalid comparison options")

	req := httptest.NewRequest("POST", "/compare", bytes.NewReader([]byte(`{"a": [`)))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestHandleCompareStorage(t *testing.T) {
	app, client := setupTestApp(t, true)

	client.On("GetObject", mock.Anything, "catalogues", "wcag/tenon.json", mock.Anything).
		Return(io.NopCloser(bytes.NewReader([]byte(`[{"id": "1.1.1"}, {"id": "1.2.1"}]`))), nil)
	client.On("GetObject", mock.Anything, "other", "w3c.yaml", mock.Anything).
		Return(io.NopCloser(bytes.NewReader([]byte("- id: 1.1.1\n"))), nil)

	status, body := postJSON(t, app, "/compare/storage", map[string]any{
		"a_object": "wcag/tenon.json",
		"b_object": "s3://other/w3c.yaml",
	})
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Equal(t, []any{"1.2.1"}, body["only_a"])

	status, body = get(t, app, "/compare/runs")
	require.Equal(t, fiber.StatusOK, status)
	runs := body["runs"].([]any)
	require.Len(t, runs, 1)
	run := runs[0].(map[string]any)
	assert.Equal(t, "s3://catalogues/wcag/tenon.json", run["source_a"])
	assert.Equal(t, "s3://other/w3c.yaml", run["source_b"])

	status, body = get(t, app, "/compare/runs/"+run["id"].(string))
	require.Equal(t, fiber.StatusOK, status)
	report := body["report"].(map[string]any)
	assert.Equal(t, []any{"1.2.1"}, report["only_a"])

	client.AssertExpectations(t)
}

func TestHandleCompareStorage_StorageCallsOutliveRequest(t *testing.T) {
	app, client := setupTestApp(t, false)

	for i := 0; i < 2; i++ {
		client.On("GetObject", mock.Anything, "catalogues", "a.json", mock.Anything).
			Return(io.NopCloser(bytes.NewReader([]byte(`[{"id": "1.1.1"}]`))), nil).Once()
		client.On("GetObject", mock.Anything, "catalogues", "b.json", mock.Anything).
			Return(io.NopCloser(bytes.NewReader([]byte(`[{"id": "2.1.1"}]`))), nil).Once()
	}

	request := map[string]any{"a_object": "a.json", "b_object": "b.json"}

	// Recorded call arguments, contexts included, are inspected between requests.
	status, body := postJSON(t, app, "/compare/storage", request)
	require.Equal(t, fiber.StatusOK, status, body)
	client.AssertNumberOfCalls(t, "GetObject", 2)
	for _, call := range client.Calls {
		assert.NotEmpty(t, fmt.Sprintf("%v", call.Arguments))
	}

	status, body = postJSON(t, app, "/compare/storage", request)
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Equal(t, []any{"1.1.1"}, body["only_a"])
	assert.Equal(t, []any{"2.1.1"}, body["only_b"])

	client.AssertExpectations(t)
}

func TestHandleCompareStorage_LoadFailure(t *testing.T) {
	app, client := setupTestApp(t, false)

	client.On("GetObject", mock.Anything, "catalogues", mock.Anything, mock.Anything).
		Return(nil, assert.AnError)

	status, body := postJSON(t, app, "/compare/storage", map[string]any{
		"a_object": "a.json",
		"b_object": "b.json",
	})
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Contains(t, body["error"], "s3://catalogues/")

	status, _ = postJSON(t, app, "/compare/storage", map[string]any{"a_object": "a.json"})
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = postJSON(t, app, "/compare/storage", map[string]any{"a_object": "s3://bucket-only", "b_object": "b.json"})
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestHandleRuns_NotFoundAndDisabled(t *testing.T) {
	app, _ := setupTestApp(t, true)
	status, _ := get(t, app, "/compare/runs/unknown")
	assert.Equal(t, fiber.StatusNotFound, status)

	app, _ = setupTestApp(t, false)
	status, _ = get(t, app, "/compare/runs")
	assert.Equal(t, fiber.StatusServiceUnavailable, status)
}

func TestFeature(t *testing.T) {
	f := compare.NewFeature(nil, "catalogues", zap.NewNop(), nil, compare.Config{})
	assert.Equal(t, "compare", f.Name())
	assert.True(t, f.IsEnabled())
	assert.NotNil(t, f.Service())
}
