package sensor_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kaiser-net/nodefw/internal/boardprofile"
	"github.com/kaiser-net/nodefw/internal/config"
	"github.com/kaiser-net/nodefw/internal/errtrack"
	"github.com/kaiser-net/nodefw/internal/pinmgr"
	"github.com/kaiser-net/nodefw/internal/sensor"
)

func newManager(t *testing.T) (*sensor.Manager, *pinmgr.Manager) {
	t.Helper()
	profile := boardprofile.Full
	pins := pinmgr.New(&profile, 40, nil)
	errs := errtrack.New()
	published := make([]sensor.Payload, 0)
	m := sensor.New(pins, errs, 10, "ESP_AB12CD", func() string { return "zone-1" }, func(p sensor.Payload) {
		published = append(published, p)
	})
	return m, pins
}

func TestConfigure_ReservesPinAndInitializesDriver(t *testing.T) {
	m, pins := newManager(t)
	require.NoError(t, m.Configure(config.SensorRecord{
		Pin: 4, Type: "onewire", Name: "soil-a", Active: true, Params: map[string]string{"rom": "28ff"},
	}))

	_, ok := pins.Status(4)
	require.True(t, ok)
}

func TestConfigure_SameTypeUpdatesInPlace(t *testing.T) {
	m, pins := newManager(t)
	require.NoError(t, m.Configure(config.SensorRecord{Pin: 4, Type: "onewire", Name: "a", Active: true}))
	require.NoError(t, m.Configure(config.SensorRecord{Pin: 4, Type: "onewire", Name: "b", Active: true}))

	_, ok := pins.Status(4)
	require.True(t, ok)
}

func TestConfigure_DifferentTypeReinstantiatesDriver(t *testing.T) {
	m, _ := newManager(t)
	require.NoError(t, m.Configure(config.SensorRecord{Pin: 4, Type: "onewire", Name: "a", Active: true}))
	require.NoError(t, m.Configure(config.SensorRecord{Pin: 4, Type: "i2c", Name: "a", Active: true}))
}

func TestRemove_ReleasesPin(t *testing.T) {
	m, pins := newManager(t)
	require.NoError(t, m.Configure(config.SensorRecord{Pin: 4, Type: "onewire", Name: "a", Active: true}))
	m.Remove(4)

	_, ok := pins.Status(4)
	require.False(t, ok)
}

func TestSampleAll_PublishesReadingsWhenIntervalElapsed(t *testing.T) {
	profile := boardprofile.Full
	pins := pinmgr.New(&profile, 40, nil)
	errs := errtrack.New()
	var published []sensor.Payload
	m := sensor.New(pins, errs, 10, "ESP_AB12CD", func() string { return "zone-1" }, func(p sensor.Payload) {
		published = append(published, p)
	})

	require.NoError(t, m.Configure(config.SensorRecord{
		Pin: 4, Type: "onewire", Name: "a", Active: true,
		Params: map[string]string{"interval_ms": "1"},
	}))
	time.Sleep(5 * time.Millisecond)
	m.SampleAll()

	require.Len(t, published, 1)
	require.Equal(t, "ESP_AB12CD", published[0].ESPID)
	require.Equal(t, "celsius", published[0].Unit)
}
