package provisioning_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kaiser-net/nodefw/internal/config"
	"github.com/kaiser-net/nodefw/internal/provisioning"
	"github.com/kaiser-net/nodefw/internal/store"
	"github.com/kaiser-net/nodefw/internal/testutil"
)

func newManager(t *testing.T) (*provisioning.Manager, *config.Manager) {
	t.Helper()
	_, client := testutil.NewRedis(t)
	s := store.FromClient(client)
	cfg := config.New(s, [6]byte{0xAA, 0xBB, 0xCC, 0xAB, 0x12, 0xCD})
	return provisioning.New(cfg, "ESP_AB12CD", nil), cfg
}

func TestBegin_EntersWaitingConfig(t *testing.T) {
	m, _ := newManager(t)
	m.Begin()
	require.Equal(t, provisioning.WaitingConfig, m.State())
}

func TestHandleProvision_PersistsValidCredentialsAndTriggersReboot(t *testing.T) {
	m, cfg := newManager(t)
	m.Begin()

	body := `{"ssid":"Lab","password":"hunter2","server_address":"192.168.0.10","mqtt_port":1883}`
	req := httptest.NewRequest(http.MethodPost, "/provision", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	m.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"success":true`)

	var n config.NetworkCredentials
	require.NoError(t, cfg.LoadNetwork(&n))
	require.True(t, n.Configured)
	require.Equal(t, "Lab", n.SSID)

	<-m.RebootRequested()
}

func TestHandleProvision_RejectsInvalidCredentials(t *testing.T) {
	m, _ := newManager(t)
	m.Begin()

	body := `{"ssid":"","server_address":"","mqtt_port":1883}`
	req := httptest.NewRequest(http.MethodPost, "/provision", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	m.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleReset_RequiresConfirmTrue(t *testing.T) {
	m, _ := newManager(t)
	req := httptest.NewRequest(http.MethodPost, "/reset", bytes.NewBufferString(`{"confirm":false}`))
	rec := httptest.NewRecorder()
	m.Router().ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleStatus_ReportsStateAndESPID(t *testing.T) {
	m, _ := newManager(t)
	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()
	m.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "ESP_AB12CD")
}
