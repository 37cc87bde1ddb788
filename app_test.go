package main

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"productapi/internal/config"
	"productapi/internal/logger"
	"productapi/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(driver string) config.Config {
	cfg := config.Config{
		AppPort:        ":0",
		DBDriver:       driver,
		MetricsEnabled: true,
	}
	if driver == config.DriverSQLite {
		cfg.DBDSN = "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	}
	return cfg
}

func newTestApp(t *testing.T, cfg config.Config) *fiber.App {
	t.Helper()
	st, err := openStore(cfg, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { st.close() })
	require.NoError(t, st.migrate())

	return NewApp(cfg, Dependencies{
		Products: services.NewProductService(st.repo, nil, logger.Nop()),
		Ping:     st.ping,
		Log:      logger.Nop(),
	})
}

func send(t *testing.T, app *fiber.App, method, path, body string) (*http.Response, string) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	return resp, string(data)
}

func TestHealthCheck(t *testing.T) {
	for _, driver := range []string{config.DriverSQLite, config.DriverMemory} {
		t.Run(driver, func(t *testing.T) {
			app := newTestApp(t, testConfig(driver))

			resp, body := send(t, app, http.MethodGet, "/health", "")
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Contains(t, body, `"status":"healthy"`)
			assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
		})
	}
}

func TestHealthCheckUnhealthyStore(t *testing.T) {
	cfg := testConfig(config.DriverMemory)
	app := NewApp(cfg, Dependencies{
		Products: services.NewProductService(nil, nil, logger.Nop()),
		Ping:     func() error { return errors.New("connection refused") },
		Log:      logger.Nop(),
	})

	resp, body := send(t, app, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Contains(t, body, `"status":"unhealthy"`)
}

func TestProductRoutesOverBothStores(t *testing.T) {
	for _, driver := range []string{config.DriverSQLite, config.DriverMemory} {
		t.Run(driver, func(t *testing.T) {
			app := newTestApp(t, testConfig(driver))

			resp, body := send(t, app, http.MethodPost, "/product", `{"name":"Widget","description":"A widget","price":9.99,"qty":10}`)
			require.Equal(t, http.StatusOK, resp.StatusCode, body)
			assert.JSONEq(t, `{"id":1,"name":"Widget","description":"A widget","price":9.99,"qty":10}`, body)

			resp, body = send(t, app, http.MethodGet, "/product/1", "")
			require.Equal(t, http.StatusOK, resp.StatusCode)
			assert.JSONEq(t, `{"id":1,"name":"Widget","description":"A widget","price":9.99,"qty":10}`, body)

			resp, body = send(t, app, http.MethodGet, "/product", "")
			require.Equal(t, http.StatusOK, resp.StatusCode)
			assert.JSONEq(t, `{"data":[{"id":1,"name":"Widget","description":"A widget","price":9.99,"qty":10}]}`, body)

			resp, _ = send(t, app, http.MethodPost, "/product", `{"name":"Widget","description":"again","price":1,"qty":1}`)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

			resp, _ = send(t, app, http.MethodDelete, "/product/1", "")
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			resp, _ = send(t, app, http.MethodDelete, "/product/1", "")
			assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		})
	}
}

func TestStoreIsUsableOnlyAfterMigrate(t *testing.T) {
	cfg := testConfig(config.DriverSQLite)
	st, err := openStore(cfg, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { st.close() })

	_, err = st.repo.GetAll()
	assert.Error(t, err, "product table should not exist before migrate")

	require.NoError(t, st.migrate())
	products, err := st.repo.GetAll()
	require.NoError(t, err)
	assert.Empty(t, products)

	// Running it again is harmless.
	assert.NoError(t, st.migrate())
}

func TestUnknownRouteRendersJSON(t *testing.T) {
	app := newTestApp(t, testConfig(config.DriverMemory))

	resp, body := send(t, app, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var payload map[string]string
	require.NoError(t, json.Unmarshal([]byte(body), &payload))
	assert.Equal(t, "Not Found", payload["message"])
	assert.NotEmpty(t, payload["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	app := newTestApp(t, testConfig(config.DriverMemory))

	resp, _ := send(t, app, http.MethodPost, "/product", `{"name":"Counted","description":"","price":1,"qty":1}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := send(t, app, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `productapi_http_requests_total{method="POST",path="/product`)
	assert.Contains(t, body, `productapi_products_mutations_total{type="product.created"}`)
}

func TestMetricsCanBeDisabled(t *testing.T) {
	cfg := testConfig(config.DriverMemory)
	cfg.MetricsEnabled = false
	app := newTestApp(t, cfg)

	resp, _ := send(t, app, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestOpenPublisherDisabledWithoutURL(t *testing.T) {
	publisher, closePublisher, err := openPublisher(config.Config{}, logger.Nop())
	require.NoError(t, err)
	assert.IsType(t, services.NopPublisher{}, publisher)
	assert.NoError(t, closePublisher())
}
