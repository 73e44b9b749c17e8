package store_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kaiser-net/nodefw/internal/store"
	"github.com/kaiser-net/nodefw/internal/testutil"
)

func TestHandle_PutGetRoundTrip(t *testing.T) {
	_, client := testutil.NewRedis(t)
	s := store.FromClient(client)

	h, err := s.Open(store.NamespaceSystem, false)
	require.NoError(t, err)

	require.NoError(t, h.PutString("node_id", "ESP_AB12CD"))
	require.Equal(t, "ESP_AB12CD", h.GetString("node_id", ""))

	require.NoError(t, h.PutBool("configured", true))
	require.True(t, h.GetBool("configured", false))

	require.NoError(t, h.PutU16("boot_count", 42))
	require.EqualValues(t, 42, h.GetU16("boot_count", 0))
}

func TestHandle_GetReturnsDefaultWhenAbsent(t *testing.T) {
	_, client := testutil.NewRedis(t)
	s := store.FromClient(client)
	h, err := s.Open(store.NamespaceWiFi, false)
	require.NoError(t, err)

	require.Equal(t, "fallback", h.GetString("ssid", "fallback"))
	require.False(t, h.GetBool("configured", false))
}

func TestHandle_ReadonlyRejectsWrites(t *testing.T) {
	_, client := testutil.NewRedis(t)
	s := store.FromClient(client)
	h, err := s.Open(store.NamespaceWiFi, true)
	require.NoError(t, err)

	require.ErrorIs(t, h.PutString("ssid", "Lab"), store.ErrNotWritable)
}

func TestHandle_PutListGetListRoundTrip(t *testing.T) {
	_, client := testutil.NewRedis(t)
	s := store.FromClient(client)
	h, err := s.Open(store.NamespaceSensors, false)
	require.NoError(t, err)

	items := []map[string]string{
		{"pin": "4", "type": "temp_ds18b20"},
		{"pin": "5", "type": "temp_sht31"},
	}
	require.NoError(t, h.PutList("count", items))

	got, err := h.GetList("count", []string{"pin", "type"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "4", got[0]["pin"])
	require.Equal(t, "temp_sht31", got[1]["type"])
}

func TestHandle_Clear(t *testing.T) {
	_, client := testutil.NewRedis(t)
	s := store.FromClient(client)
	h, err := s.Open(store.NamespaceZone, false)
	require.NoError(t, err)

	require.NoError(t, h.PutString("zone_id", "greenhouse-1"))
	require.NoError(t, h.Clear())
	require.Equal(t, "", h.GetString("zone_id", ""))
}
