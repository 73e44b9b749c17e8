package actuator

import "fmt"

// Driver is the capability set an actuator type must implement: command
// the output, force it safe-off, and release resources.
type Driver interface {
	Initialize(params map[string]string) error
	Command(value float64) error
	SafeStop()
	Destroy()
	State() (state bool, pwm *float64)
}

// Factory constructs a new Driver instance for an actuator type tag.
type Factory func() Driver

var registry = map[string]Factory{
	"relay": func() Driver { return &relayDriver{} },
	"pwm":   func() Driver { return &pwmDriver{} },
}

// NewDriver instantiates the driver registered for typeTag.
func NewDriver(typeTag string) (Driver, error) {
	factory, ok := registry[typeTag]
	if !ok {
		return nil, fmt.Errorf("actuator: unknown driver type %q", typeTag)
	}
	return factory(), nil
}

// relayDriver simulates a binary on/off output (e.g. a relay board).
type relayDriver struct {
	on bool
}

func (d *relayDriver) Initialize(params map[string]string) error { return nil }

func (d *relayDriver) Command(value float64) error {
	d.on = value >= 0.5
	return nil
}

func (d *relayDriver) SafeStop() { d.on = false }

func (d *relayDriver) Destroy() {}

func (d *relayDriver) State() (bool, *float64) { return d.on, nil }

// pwmDriver simulates a PWM output in [0, 1] (e.g. a fan or dimmer).
type pwmDriver struct {
	duty float64
}

func (d *pwmDriver) Initialize(params map[string]string) error { return nil }

func (d *pwmDriver) Command(value float64) error {
	if value < 0 {
		value = 0
	}
	if value > 1 {
		value = 1
	}
	d.duty = value
	return nil
}

func (d *pwmDriver) SafeStop() { d.duty = 0 }

func (d *pwmDriver) Destroy() {}

func (d *pwmDriver) State() (bool, *float64) {
	duty := d.duty
	return d.duty > 0, &duty
}
