package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"milsabores/internal/auth"
	"milsabores/internal/client/backend"
	"milsabores/internal/config"
	"milsabores/internal/domain"
	"milsabores/internal/middleware"
	"milsabores/internal/returns"
	"milsabores/internal/sale"
	settingsctrl "milsabores/internal/settings/controller"
	"milsabores/internal/settings/service"
)

const secret = "router-test-secret"

type memoryRepository struct {
	values map[string]string
}

func (m *memoryRepository) FindAll(ctx context.Context) (map[string]string, error) {
	return m.values, nil
}

func (m *memoryRepository) Upsert(ctx context.Context, values map[string]string) error {
	for k, v := range values {
		m.values[k] = v
	}
	return nil
}

func newTestRouter(t *testing.T, checks map[string]Check) http.Handler {
	t.Helper()
	logger := zap.NewNop()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"saleId": 7, "details": [{"saleDetailId": 1, "productId": 1, "quantity": 2, "unitPrice": "990"}]}`))
	}))
	t.Cleanup(upstream.Close)

	client := backend.NewClient(config.BackendConfig{BaseURL: upstream.URL, Timeout: time.Second}, logger)
	settingsSvc := service.NewSettingsService(&memoryRepository{values: map[string]string{}}, nil, "ch", domain.DefaultSettings(), logger)

	return NewRouter(Controllers{
		Basket:   sale.NewModule(client, settingsSvc, logger).Controller,
		Returns:  returns.NewModule(client, settingsSvc, logger),
		Settings: settingsctrl.NewSettingsController(settingsSvc, logger),
		Health:   NewHealthHandler(checks, logger),
	}, secret, logger)
}

func request(t *testing.T, h http.Handler, method, path, rol, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	if rol != "" {
		token, err := auth.IssueToken([]byte(secret), "12", rol, time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouter_Health(t *testing.T) {
	h := newTestRouter(t, map[string]Check{
		"mysql": func(ctx context.Context) error { return nil },
	})

	rec := request(t, h, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
	assert.NotEmpty(t, rec.Header().Get(middleware.TraceHeader))
}

func TestRouter_HealthDegraded(t *testing.T) {
	h := newTestRouter(t, map[string]Check{
		"mysql": func(ctx context.Context) error { return nil },
		"redis": func(ctx context.Context) error { return errors.New("connection refused") },
	})

	rec := request(t, h, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"redis":"down"`)
	assert.Contains(t, rec.Body.String(), `"mysql":"up"`)
}

func TestRouter_RequiresToken(t *testing.T) {
	h := newTestRouter(t, nil)

	assert.Equal(t, http.StatusUnauthorized, request(t, h, http.MethodGet, "/api/v1/basket", "", "").Code)
}

func TestRouter_BasketFlow(t *testing.T) {
	h := newTestRouter(t, nil)

	rec := request(t, h, http.MethodPost, "/api/v1/basket/items", auth.RoleCajero,
		`{"productId": 1, "name": "Brazo de reina", "unitPrice": "990", "quantity": 2}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = request(t, h, http.MethodGet, "/api/v1/basket", auth.RoleCajero, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total":"1980"`)

	rec = request(t, h, http.MethodPost, "/api/v1/basket/confirm", auth.RoleCajero, "")
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"saleId":7`)

	rec = request(t, h, http.MethodPost, "/api/v1/basket/confirm", auth.RoleCajero, "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "EMPTY_BASKET")
}

func TestRouter_ReturnsNeedSupervisor(t *testing.T) {
	h := newTestRouter(t, nil)

	assert.Equal(t, http.StatusForbidden,
		request(t, h, http.MethodGet, "/api/v1/ventas/7/devolucion/preview", auth.RoleCajero, "").Code)

	rec := request(t, h, http.MethodGet, "/api/v1/ventas/7/devolucion/preview?items=1:1", auth.RoleSupervisor, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"estimatedRefund":"990"`)
}

func TestRouter_SettingsUpdateNeedsAdmin(t *testing.T) {
	h := newTestRouter(t, nil)

	assert.Equal(t, http.StatusOK, request(t, h, http.MethodGet, "/api/v1/settings", auth.RoleCajero, "").Code)
	assert.Equal(t, http.StatusForbidden,
		request(t, h, http.MethodPut, "/api/v1/settings", auth.RoleSupervisor, `{"stockAlertThreshold": 2}`).Code)

	rec := request(t, h, http.MethodPut, "/api/v1/settings", auth.RoleAdmin, `{"stockAlertThreshold": 2}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"stockAlertThreshold":2`)
}
