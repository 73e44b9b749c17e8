// Package boardprofile loads the node's static board-capability descriptor:
// which board variant this binary is running on, its restricted pin set,
// and its sensor/actuator capacity.
package boardprofile

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SafeConvention describes which logic level a pin should idle at when
// free, per board wiring.
type SafeConvention string

const (
	PullDown SafeConvention = "pulldown"
	PullUp   SafeConvention = "pullup"
)

// Profile describes one board variant's capabilities.
type Profile struct {
	Name                string         `yaml:"name"`
	RestrictedPins      []int          `yaml:"restricted_pins"`
	MaxSensors          int            `yaml:"max_sensors"`
	MaxActuators        int            `yaml:"max_actuators"`
	SafeStateConvention SafeConvention `yaml:"safe_state_convention"`
}

// Full is the default full-featured board profile: 10 sensors, 12 actuators.
var Full = Profile{
	Name:                "full",
	RestrictedPins:      []int{0, 1, 3, 6, 7, 8, 9, 10, 11}, // boot strap + flash pins
	MaxSensors:          10,
	MaxActuators:        12,
	SafeStateConvention: PullDown,
}

// Restricted is the reduced-capacity board profile: 8 sensors, 8 actuators.
var Restricted = Profile{
	Name:                "restricted",
	RestrictedPins:      append([]int{12, 13, 14, 15}, Full.RestrictedPins...),
	MaxSensors:          8,
	MaxActuators:        8,
	SafeStateConvention: PullDown,
}

// Load reads a board profile from a YAML file, validating its fields.
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading board profile %s: %w", path, err)
	}

	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing board profile %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate checks that a profile's capacity fields are sane.
func (p *Profile) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("board profile: name is required")
	}
	if p.MaxSensors <= 0 || p.MaxSensors > 32 {
		return fmt.Errorf("board profile %s: max_sensors out of range: %d", p.Name, p.MaxSensors)
	}
	if p.MaxActuators <= 0 || p.MaxActuators > 32 {
		return fmt.Errorf("board profile %s: max_actuators out of range: %d", p.Name, p.MaxActuators)
	}
	if p.SafeStateConvention != PullDown && p.SafeStateConvention != PullUp {
		return fmt.Errorf("board profile %s: invalid safe_state_convention %q", p.Name, p.SafeStateConvention)
	}
	return nil
}

// IsRestrictedPin reports whether pin is in the board's restricted set.
func (p *Profile) IsRestrictedPin(pin int) bool {
	for _, r := range p.RestrictedPins {
		if r == pin {
			return true
		}
	}
	return false
}
