package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/orderbridge/colissimo/internal/server"
	"github.com/orderbridge/colissimo/pkg/colissimo"
	"github.com/orderbridge/colissimo/pkg/gateway"
	"github.com/orderbridge/colissimo/pkg/gateway/labelary"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

type stubConverter struct{}

func (stubConverter) Convert(ctx context.Context, zpl []byte, opts *labelary.Options) (*labelary.Result, error) {
	return &labelary.Result{ContentType: "image/png", Content: []byte("png-bytes")}, nil
}

// The Prometheus metrics register globally, so every test shares one
// server instance.
var (
	testHandler     http.Handler
	testHandlerOnce sync.Once
)

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()

	testHandlerOnce.Do(func() {
		platform, err := gateway.NewPlatform(
			gateway.Config{Login: "test-contract", Password: "secret"},
			gateway.Deps{
				API:       colissimo.NewMockAPIClient(),
				Converter: stubConverter{},
				Settings: gateway.SettingsMap{
					gateway.SettingAdminEmail: "shop@example.com",
					gateway.SettingSiteName:   "Example Shop",
				},
			},
		)
		require.NoError(t, err)

		srv := server.New(server.Config{Port: 0}, platform, otelzap.New(zap.NewNop()))
		testHandler = srv.Handler()
	})

	return testHandler
}

const shipmentJSON = `{
	"weight": 1.2,
	"sale": {"number": "S-10042", "email": "jane@example.com", "firstName": "Jane", "lastName": "Doe"},
	"senderAddress": {"company": "Example Shop", "street": "10 rue de Rivoli", "city": "Paris", "postalCode": "75001", "countryCode": "FR"},
	"receiverAddress": {"firstName": "Jane", "lastName": "Doe", "street": "3 avenue Jean Jaures", "city": "Lyon", "postalCode": "69007", "countryCode": "FR"}
}`

func TestServer_Health(t *testing.T) {
	handler := newTestHandler(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestServer_Services(t *testing.T) {
	handler := newTestHandler(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/services", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Services []struct {
			Service string `json:"service"`
			Label   string `json:"label"`
		} `json:"services"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Services, 4)
	assert.Equal(t, "HomeUnsigned", body.Services[0].Service)
	assert.NotEmpty(t, body.Services[0].Label)
}

func TestServer_Ship(t *testing.T) {
	handler := newTestHandler(t)

	payload := `{"shipment": ` + shipmentJSON + `}`
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/shipments", strings.NewReader(payload)))

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Shipped        bool   `json:"shipped"`
		TrackingNumber string `json:"trackingNumber"`
		Labels         []struct {
			Type string `json:"type"`
		} `json:"labels"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Shipped)
	assert.True(t, strings.HasPrefix(body.TrackingNumber, "6A"))
	require.Len(t, body.Labels, 1)
	assert.Equal(t, "shipment", body.Labels[0].Type)
}

func TestServer_Ship_InvalidJSON(t *testing.T) {
	handler := newTestHandler(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/shipments", strings.NewReader("{not json")))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_Ship_UnsupportedShipment(t *testing.T) {
	handler := newTestHandler(t)

	var payload bytes.Buffer
	payload.WriteString(`{"shipment": {"return": true, "weight": 1.0, `)
	payload.WriteString(`"senderAddress": {"street": "a", "city": "b", "postalCode": "c", "countryCode": "FR"}, `)
	payload.WriteString(`"receiverAddress": {"street": "a", "city": "b", "postalCode": "c", "countryCode": "FR"}}}`)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/shipments", &payload))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestServer_Ship_UnknownService(t *testing.T) {
	handler := newTestHandler(t)

	payload := `{"service": "Pigeon", "shipment": ` + shipmentJSON + `}`
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/shipments", strings.NewReader(payload)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_Labels(t *testing.T) {
	handler := newTestHandler(t)

	payload := `{"shipments": [` + shipmentJSON + `, ` + shipmentJSON + `]}`
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/labels", strings.NewReader(payload)))

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Labels []struct {
			Type string `json:"type"`
		} `json:"labels"`
		Errors []struct {
			Kind string `json:"kind"`
		} `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Labels, 2)
	assert.Empty(t, body.Errors)
}

func TestServer_Labels_Empty(t *testing.T) {
	handler := newTestHandler(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/labels", strings.NewReader(`{"shipments": []}`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_RelaySearch(t *testing.T) {
	handler := newTestHandler(t)

	payload := `{"address": {"street": "10 rue de Rivoli", "city": "Paris", "postalCode": "75001", "countryCode": "FR"}, "weight": 1.5}`
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/relay-points/search", strings.NewReader(payload)))

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Points []struct {
			ID   string `json:"ID"`
			Type string `json:"Type"`
		} `json:"points"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Points, 3)
	assert.Equal(t, "BPR", body.Points[0].Type)
}

func TestServer_RelayGet(t *testing.T) {
	handler := newTestHandler(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/relay-points/620123", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var point struct {
		ID   string `json:"ID"`
		Type string `json:"Type"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &point))
	assert.Equal(t, "620123", point.ID)
	assert.Equal(t, "A2P", point.Type)
}

func TestServer_MethodNotAllowed(t *testing.T) {
	handler := newTestHandler(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/shipments", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
