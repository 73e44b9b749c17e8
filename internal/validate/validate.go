// Package validate collects the node agent's field-validation helpers: a
// Builder for accumulating multiple field errors into one report, plus the
// network-address checks config records are validated against.
package validate

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

// ErrValidationFailed is the sentinel all *Error values Unwrap to.
var ErrValidationFailed = errors.New("validation failed")

// Error represents one or more validation failures for a single record.
type Error struct {
	Errors []string
}

func (e *Error) Error() string {
	if len(e.Errors) == 1 {
		return "validation failed: " + e.Errors[0]
	}
	return fmt.Sprintf("validation failed:\n  - %s", strings.Join(e.Errors, "\n  - "))
}

func (e *Error) Unwrap() error {
	return ErrValidationFailed
}

// Builder accumulates validation errors across a record's fields.
type Builder struct {
	errors []string
}

// Add appends message if condition is false.
func (b *Builder) Add(condition bool, message string) *Builder {
	if !condition {
		b.errors = append(b.errors, message)
	}
	return b
}

// Addf appends a formatted message if condition is false.
func (b *Builder) Addf(condition bool, format string, args ...interface{}) *Builder {
	if !condition {
		b.errors = append(b.errors, fmt.Sprintf(format, args...))
	}
	return b
}

// HasErrors reports whether any field failed.
func (b *Builder) HasErrors() bool {
	return len(b.errors) > 0
}

// Build returns the accumulated *Error, or nil if every field passed.
func (b *Builder) Build() error {
	if len(b.errors) == 0 {
		return nil
	}
	return &Error{Errors: b.errors}
}

// IsValidIPv4 reports whether s is a dotted-quad IPv4 address.
func IsValidIPv4(s string) bool {
	ip := net.ParseIP(s)
	return ip != nil && ip.To4() != nil
}

// IsValidHostname reports whether s is an RFC 1123 hostname: 1-253 bytes,
// dot-separated labels of letters, digits and hyphens, no leading/trailing
// hyphen per label.
func IsValidHostname(s string) bool {
	if len(s) == 0 || len(s) > 253 {
		return false
	}
	labels := strings.Split(s, ".")
	for _, label := range labels {
		if len(label) == 0 || len(label) > 63 {
			return false
		}
		if label[0] == '-' || label[len(label)-1] == '-' {
			return false
		}
		for _, r := range label {
			if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-') {
				return false
			}
		}
	}
	return true
}

// IsValidBrokerHost reports whether s is a usable messaging-broker address:
// either a valid IPv4 literal or an RFC 1123 hostname.
func IsValidBrokerHost(s string) bool {
	return IsValidIPv4(s) || IsValidHostname(s)
}

// IsValidMACAddress reports whether s parses as an IEEE 802 MAC address.
func IsValidMACAddress(s string) bool {
	_, err := net.ParseMAC(s)
	return err == nil
}

// NormalizeMACAddress canonicalizes a MAC address to lowercase colon form.
func NormalizeMACAddress(s string) (string, error) {
	hw, err := net.ParseMAC(s)
	if err != nil {
		return "", err
	}
	return hw.String(), nil
}
