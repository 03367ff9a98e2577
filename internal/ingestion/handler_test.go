package ingestion

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(svc *Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	api := router.Group("/api")
	NewHandler(svc).RegisterRoutes(api)
	return router
}

func postJSON(t *testing.T, router *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestUnknownDeviceLocationGetsRebootEnvelope(t *testing.T) {
	svc, _ := newTestService()
	router := newTestRouter(svc)

	w := postJSON(t, router, "/api/device/FF:FF:FF:FF:FF:FF/location", map[string]interface{}{
		"latitude":  45.4642,
		"longitude": 9.19,
	})

	// Deliberately 200, not 404: the firmware treats the envelope as
	// actionable guidance and reboots into registration.
	require.Equal(t, http.StatusOK, w.Code)

	var envelope RebootEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.False(t, envelope.Success)
	assert.Equal(t, "reboot", envelope.Action)
	assert.Equal(t, "device_not_registered", envelope.Reason)
	require.Len(t, envelope.Commands, 1)
	assert.EqualValues(t, 10000, envelope.Commands[0].CommandData["delay"])
}

func TestUnknownDeviceHeartbeatGetsShorterRebootDelay(t *testing.T) {
	svc, _ := newTestService()
	router := newTestRouter(svc)

	w := postJSON(t, router, "/api/device/FF:FF:FF:FF:FF:FF/heartbeat", map[string]interface{}{
		"status": "online",
	})

	require.Equal(t, http.StatusOK, w.Code)

	var envelope RebootEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Len(t, envelope.Commands, 1)
	assert.EqualValues(t, 5000, envelope.Commands[0].CommandData["delay"])
}

func TestKnownDeviceLocationReturns201(t *testing.T) {
	svc, deps := newTestService()
	registeredDevice(deps, "AA:BB:CC:DD:EE:FF")
	router := newTestRouter(svc)

	w := postJSON(t, router, "/api/device/AA:BB:CC:DD:EE:FF/location", map[string]interface{}{
		"latitude":  45.4642,
		"longitude": 9.19,
	})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Len(t, deps.locations.inserted, 1)
}

func TestHeartbeatEnvelopeBypassesResponseWrapper(t *testing.T) {
	svc, deps := newTestService()
	registeredDevice(deps, "AA:BB:CC:DD:EE:FF")
	router := newTestRouter(svc)

	w := postJSON(t, router, "/api/device/AA:BB:CC:DD:EE:FF/heartbeat", map[string]interface{}{
		"status": "online",
	})

	require.Equal(t, http.StatusOK, w.Code)

	var resp HeartbeatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 30000, resp.Config.HeartbeatInterval)
	assert.NotEmpty(t, resp.Timestamp)
}

func TestRegisterEndpointReturns201WithDefaults(t *testing.T) {
	svc, _ := newTestService()
	router := newTestRouter(svc)

	w := postJSON(t, router, "/api/device/register", map[string]interface{}{
		"deviceId":   "AA:BB:CC:DD:EE:FF",
		"deviceName": "Bike tracker",
	})

	assert.Equal(t, http.StatusCreated, w.Code)
}
