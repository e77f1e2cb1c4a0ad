package sync

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"temporal-sync/core/temporal"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupApp(t *testing.T, dbName string) *fiber.App {
	t.Helper()
	db := setupTestDB(t, dbName)
	handler := NewHandler(NewService(db, nil, "", zap.NewNop()))

	app := fiber.New()
	handler.RegisterRoutes(app.Group("/api"))
	return app
}

func postJob(t *testing.T, app *fiber.App, body []byte) (int, []byte) {
	t.Helper()
	req := httptest.NewRequest("POST", "/api/sync/run", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, payload
}

func TestHandleRun(t *testing.T) {
	app := setupApp(t, "handler_run")

	job := materialJob(writeExtract(t,
		"material,plant,safety_stock\nM-100,1000,25\n"))
	body, err := json.Marshal(job)
	require.NoError(t, err)

	status, payload := postJob(t, app, body)
	assert.Equal(t, fiber.StatusOK, status)

	var stats temporal.Stats
	require.NoError(t, json.Unmarshal(payload, &stats))
	assert.Equal(t, temporal.Stats{SourceRows: 1, New: 1}, stats)
}

func TestHandleRunBadPayload(t *testing.T) {
	app := setupApp(t, "handler_bad_payload")

	status, payload := postJob(t, app, []byte("{not json"))
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, string(payload), "invalid job payload")
}

func TestHandleRunJobError(t *testing.T) {
	app := setupApp(t, "handler_job_error")

	job := materialJob("does-not-exist.csv")
	body, err := json.Marshal(job)
	require.NoError(t, err)

	status, payload := postJob(t, app, body)
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Contains(t, string(payload), "error")
}

func TestHandleRunStorageNotConfigured(t *testing.T) {
	app := setupApp(t, "handler_nostore")

	job := materialJob("extracts/mm.csv")
	job.Source.FromStorage = true
	body, err := json.Marshal(job)
	require.NoError(t, err)

	status, payload := postJob(t, app, body)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, string(payload), ErrNoStorage.Error())
}
