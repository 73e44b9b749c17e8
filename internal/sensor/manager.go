package sensor

import (
	"strconv"
	"sync"
	"time"

	"github.com/kaiser-net/nodefw/internal/config"
	"github.com/kaiser-net/nodefw/internal/errtrack"
	"github.com/kaiser-net/nodefw/internal/nodelog"
	"github.com/kaiser-net/nodefw/internal/pinmgr"
)

// Quality reflects the trustworthiness of a sensor's last reading.
type Quality string

const (
	QualityGood     Quality = "good"
	QualityDegraded Quality = "degraded"
	QualityStale    Quality = "stale"
)

const defaultIntervalMS = 30000
const failuresToService = 3

// Payload is the single-sensor-reading publish body.
type Payload struct {
	ESPID           string  `json:"esp_id"`
	ZoneID          string  `json:"zone_id"`
	SubzoneID       string  `json:"subzone_id"`
	GPIO            int     `json:"gpio"`
	SensorType      string  `json:"sensor_type"`
	RawValue        float64 `json:"raw_value"`
	ProcessedValue  float64 `json:"processed_value"`
	Unit            string  `json:"unit"`
	Quality         Quality `json:"quality"`
	Timestamp       int64   `json:"timestamp"`
}

type entry struct {
	record              config.SensorRecord
	driver              Driver
	consecutiveFailures int
	quality             Quality
	lastSampleAt        time.Time
	intervalMS          int
}

// Manager is the fixed-capacity, pin-indexed sensor registry.
type Manager struct {
	mu       sync.Mutex
	pins     *pinmgr.Manager
	errs     *errtrack.Tracker
	entries  map[int]*entry
	maxCount int
	now      func() time.Time
	publish  func(Payload)
	zoneID   func() (zoneID string)
	espID    string
}

// New creates a sensor manager bounded to maxCount entries (the board
// profile's MaxSensors).
func New(pins *pinmgr.Manager, errs *errtrack.Tracker, maxCount int, espID string, zoneID func() string, publish func(Payload)) *Manager {
	return &Manager{
		pins:     pins,
		errs:     errs,
		entries:  make(map[int]*entry),
		maxCount: maxCount,
		now:      time.Now,
		publish:  publish,
		zoneID:   zoneID,
		espID:    espID,
	}
}

// Configure adds or updates a sensor record: a differing type
// for an existing pin destroys the old driver and instantiates the new
// one; a matching type updates mutable fields in place; a new pin reserves
// it via the pin manager first.
func (m *Manager) Configure(record config.SensorRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.entries[record.Pin]
	if ok && existing.record.Type == record.Type {
		existing.record = record
		existing.intervalMS = intervalFromParams(record.Params)
		return nil
	}

	if ok {
		existing.driver.Destroy()
		delete(m.entries, record.Pin)
	} else if len(m.entries) >= m.maxCount {
		return errCapacityExceeded
	} else {
		if err := m.pins.Reserve(record.Pin, pinmgr.KindSensor, record.Name); err != nil {
			return err
		}
	}

	driver, err := NewDriver(record.Type)
	if err != nil {
		m.pins.Release(record.Pin)
		m.entries[record.Pin] = &entry{record: record, quality: QualityStale}
		return err
	}
	if err := driver.Initialize(record.Params); err != nil {
		m.entries[record.Pin] = &entry{record: record, quality: QualityStale}
		return err
	}

	m.entries[record.Pin] = &entry{
		record:     record,
		driver:     driver,
		quality:    QualityGood,
		intervalMS: intervalFromParams(record.Params),
	}
	return nil
}

// Remove stops the driver and releases the pin.
func (m *Manager) Remove(pin int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[pin]
	if !ok {
		return
	}
	if e.driver != nil {
		e.driver.Destroy()
	}
	m.pins.Release(pin)
	delete(m.entries, pin)
}

// SampleAll samples every active sensor whose interval has elapsed,
// publishing a payload per successful read and applying the three-strikes
// degrade policy on failure.
func (m *Manager) SampleAll() {
	m.mu.Lock()
	entries := make([]*entry, 0, len(m.entries))
	for _, e := range m.entries {
		entries = append(entries, e)
	}
	m.mu.Unlock()

	now := m.now()
	for _, e := range entries {
		if !e.record.Active || e.driver == nil {
			continue
		}
		interval := time.Duration(e.intervalMS) * time.Millisecond
		if now.Sub(e.lastSampleAt) < interval {
			continue
		}
		m.sampleOne(e, now)
	}
}

func (m *Manager) sampleOne(e *entry, now time.Time) {
	raw, processed, unit, err := e.driver.Read()
	m.mu.Lock()
	e.lastSampleAt = now
	if err != nil {
		e.consecutiveFailures++
		if e.consecutiveFailures >= failuresToService {
			e.quality = QualityDegraded
			m.mu.Unlock()
			m.errs.Report(2001, errtrack.Error, "sensor pin "+strconv.Itoa(e.record.Pin)+" degraded: "+err.Error())
		} else {
			m.mu.Unlock()
			nodelog.Logger.WithField("pin", e.record.Pin).Warn("sensor: read failed")
		}
		return
	}
	e.consecutiveFailures = 0
	e.quality = QualityGood
	m.mu.Unlock()

	m.publish(Payload{
		ESPID:          m.espID,
		ZoneID:         m.zoneID(),
		SubzoneID:      e.record.SubZone,
		GPIO:           e.record.Pin,
		SensorType:     e.record.Type,
		RawValue:       raw,
		ProcessedValue: processed,
		Unit:           unit,
		Quality:        e.quality,
		Timestamp:      now.Unix(),
	})
}

func intervalFromParams(params map[string]string) int {
	if v, ok := params["interval_ms"]; ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return defaultIntervalMS
}
