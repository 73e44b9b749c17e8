// Package sensor is the fixed-capacity sensor registry. Driver is a
// tagged-union capability set of {Initialize, Read, Destroy}. Two built-in
// drivers stand in for concrete chip drivers, which are out of scope for a
// host-process simulator, with deterministic simulated behavior so the
// manager's reconfigure-vs-new-type logic is fully exercised without real
// hardware.
package sensor

import (
	"fmt"
	"math"
)

// Driver is the capability set a sensor type must implement.
type Driver interface {
	Initialize(params map[string]string) error
	Read() (raw, processed float64, unit string, err error)
	Destroy()
}

// Factory constructs a new Driver instance for a sensor type tag.
type Factory func() Driver

var registry = map[string]Factory{
	"onewire": func() Driver { return &oneWireDriver{} },
	"i2c":     func() Driver { return &i2cDriver{} },
}

// NewDriver instantiates the driver registered for typeTag, or an error if
// the type is unknown.
func NewDriver(typeTag string) (Driver, error) {
	factory, ok := registry[typeTag]
	if !ok {
		return nil, fmt.Errorf("sensor: unknown driver type %q", typeTag)
	}
	return factory(), nil
}

// oneWireDriver simulates a one-wire temperature probe (e.g. DS18B20),
// identified by a ROM address parameter. Its reading walks a small
// deterministic sine-like pattern instead of sampling real hardware.
type oneWireDriver struct {
	rom   string
	ticks int
}

func (d *oneWireDriver) Initialize(params map[string]string) error {
	d.rom = params["rom"]
	return nil
}

func (d *oneWireDriver) Read() (raw, processed float64, unit string, err error) {
	d.ticks++
	processed = 20.0 + 3.0*math.Sin(float64(d.ticks)/10.0)
	return processed * 16, processed, "celsius", nil
}

func (d *oneWireDriver) Destroy() {}

// i2cDriver simulates an I2C humidity/temperature combo (e.g. SHT31),
// identified by a bus address parameter.
type i2cDriver struct {
	addr  string
	ticks int
}

func (d *i2cDriver) Initialize(params map[string]string) error {
	d.addr = params["address"]
	return nil
}

func (d *i2cDriver) Read() (raw, processed float64, unit string, err error) {
	d.ticks++
	processed = 55.0 + 10.0*math.Sin(float64(d.ticks)/15.0)
	return processed * 65535 / 100, processed, "percent_rh", nil
}

func (d *i2cDriver) Destroy() {}
