// Package v1_test contains tests for the API v1 handlers
package v1_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adima959/vl-marketing-tool-sub006/internal/crm"
	"github.com/adima959/vl-marketing-tool-sub006/internal/testsupport"
	"github.com/adima959/vl-marketing-tool-sub006/internal/visits"
)

const testAPIKey = "report-key-for-tests"

// postJSON sends a drill-down request, optionally authenticated.
func postJSON(t *testing.T, app *fiber.App, apiKey string, payload interface{}) *http.Response {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/api/v1/reports/drilldown", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	resp, err := app.Test(req, 30000)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &body), "body: %s", raw)
	return body
}

func TestDrilldownReportHandler(t *testing.T) {
	trackerDB, crmDB := testsupport.SetupTestStores(t)
	app := testsupport.CreateAPITestApp(t, trackerDB, crmDB, testAPIKey)

	testsupport.InsertVisits(t, trackerDB, []visits.Visit{
		{VisitorID: "v1", Network: "google", Campaign: "c1", OccurredAt: testsupport.Day(2026, time.June, 3, 10)},
		{VisitorID: "v2", Network: "google", Campaign: "c1", OccurredAt: testsupport.Day(2026, time.June, 4, 11)},
		{VisitorID: "v3", Network: "facebook", Campaign: "c2", OccurredAt: testsupport.Day(2026, time.June, 5, 12)},
	})
	testsupport.InsertOrders(t, crmDB, []crm.Order{
		{VisitorID: "v1", Network: "google", Campaign: "c1", IsTrial: true, IsApproved: true,
			CreatedAt: testsupport.Day(2026, time.June, 6, 9)},
	})

	validPayload := map[string]interface{}{
		"dimensions": []string{"network"},
		"depth":      0,
		"from":       "2026-06-01",
		"to":         "2026-06-30",
	}

	t.Run("returns a drill-down level", func(t *testing.T) {
		resp := postJSON(t, app, testAPIKey, validPayload)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Equal(t, "network", body["dimension"])
		assert.Equal(t, "direct", body["mode"])
		assert.Equal(t, float64(0), body["depth"])

		rows, ok := body["rows"].([]interface{})
		require.True(t, ok, "rows should be an array")
		require.Len(t, rows, 2)

		first, ok := rows[0].(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, "google", first["value"])
		assert.Equal(t, float64(2), first["visits"])
		assert.Equal(t, float64(2), first["visitors"])
		assert.Equal(t, float64(1), first["trials"])
		assert.Equal(t, float64(1), first["approved"])
		assert.Equal(t, 0.5, first["conversionRate"])

		second, ok := rows[1].(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, "facebook", second["value"])
		assert.Equal(t, float64(0), second["trials"])
	})

	t.Run("rejects missing api key", func(t *testing.T) {
		resp := postJSON(t, app, "", validPayload)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Equal(t, "Missing Authorization header", body["error"])
	})

	t.Run("rejects wrong api key", func(t *testing.T) {
		resp := postJSON(t, app, "not-the-configured-key-00", validPayload)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Equal(t, "Invalid API key", body["error"])
	})

	t.Run("rejects malformed body", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/v1/reports/drilldown", strings.NewReader("{not-json"))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+testAPIKey)

		resp, err := app.Test(req, 30000)
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Equal(t, "Invalid request", body["error"])
	})

	t.Run("rejects a bad date range", func(t *testing.T) {
		payload := map[string]interface{}{
			"dimensions": []string{"network"},
			"from":       "2026-06-30",
			"to":         "2026-06-01",
		}

		resp := postJSON(t, app, testAPIKey, payload)
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Contains(t, body["error"], "invalid date range")
	})

	t.Run("accepts a named timezone", func(t *testing.T) {
		payload := map[string]interface{}{
			"dimensions": []string{"network"},
			"from":       "2026-06-01",
			"to":         "2026-06-30",
			"tz":         "Europe/Madrid",
		}

		resp := postJSON(t, app, testAPIKey, payload)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("rejects an unknown timezone", func(t *testing.T) {
		payload := map[string]interface{}{
			"dimensions": []string{"network"},
			"from":       "2026-06-01",
			"to":         "2026-06-30",
			"tz":         "Mars/Olympus_Mons",
		}

		resp := postJSON(t, app, testAPIKey, payload)
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Contains(t, body["error"], "unknown timezone")
	})

	t.Run("rejects an unknown dimension", func(t *testing.T) {
		payload := map[string]interface{}{
			"dimensions": []string{"flavor"},
			"from":       "2026-06-01",
			"to":         "2026-06-30",
		}

		resp := postJSON(t, app, testAPIKey, payload)
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Contains(t, body["error"], "unknown dimension")
	})
}

func TestListDimensionsHandler(t *testing.T) {
	trackerDB, crmDB := testsupport.SetupTestStores(t)
	app := testsupport.CreateAPITestApp(t, trackerDB, crmDB, testAPIKey)

	req := httptest.NewRequest("GET", "/api/v1/dimensions", nil)
	req.Header.Set("Authorization", "Bearer "+testAPIKey)

	resp, err := app.Test(req, 30000)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	dims, ok := body["dimensions"].([]interface{})
	require.True(t, ok, "dimensions should be an array")
	require.NotEmpty(t, dims)

	seen := make(map[string]string)
	for _, raw := range dims {
		dim, ok := raw.(map[string]interface{})
		require.True(t, ok)
		id, _ := dim["id"].(string)
		mode, _ := dim["mode"].(string)
		assert.NotEmpty(t, dim["label"], "dimension %s should carry a label", id)
		seen[id] = mode
	}

	assert.Equal(t, "direct", seen["network"])
	assert.Equal(t, "proportional", seen["campaign"])
	assert.Equal(t, "visitor_based", seen["device"])
	assert.Equal(t, "unsupported", seen["language"])
}
