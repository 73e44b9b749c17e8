// Package nodectlcfg holds nodectl's own local operator preferences —
// distinct from the node's persistent store, which nodectl reads and
// writes through its provision and factory-reset commands.
package nodectlcfg

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"

	"github.com/kaiser-net/nodefw/internal/validate"
)

// DefaultRedisAddr is used when neither --redis-addr nor a saved setting
// names one.
const DefaultRedisAddr = "127.0.0.1:6379"

// Settings holds persistent operator preferences for nodectl.
type Settings struct {
	DefaultRedisAddr string `json:"default_redis_addr,omitempty"`
	DefaultNodeID    string `json:"default_node_id,omitempty"`
	AuditLogFile     string `json:"audit_log_file,omitempty"`
}

// Validate checks that any set fields are well-formed, the same
// validate-before-write discipline the node's own config records use.
func (s *Settings) Validate() error {
	var b validate.Builder
	if s.DefaultRedisAddr != "" {
		host, port, err := net.SplitHostPort(s.DefaultRedisAddr)
		b.Addf(err == nil, "default_redis_addr %q must be host:port", s.DefaultRedisAddr)
		if err == nil {
			b.Addf(validate.IsValidBrokerHost(host), "default_redis_addr host %q is not a valid address or hostname", host)
			if n, perr := strconv.Atoi(port); perr != nil || n < 1 || n > 65535 {
				b.Addf(false, "default_redis_addr port %q must be between 1 and 65535", port)
			}
		}
	}
	if s.DefaultNodeID != "" {
		b.Addf(len(s.DefaultNodeID) <= 64, "default_node_id must be at most 64 bytes")
	}
	return b.Build()
}

// DefaultSettingsPath returns the default path for nodectl's settings file.
func DefaultSettingsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "/tmp/nodectl_settings.json"
	}
	return filepath.Join(home, ".nodectl", "settings.json")
}

// Load reads settings from the default location, returning an empty value
// (not an error) when none has been saved yet.
func Load() (*Settings, error) {
	return LoadFrom(DefaultSettingsPath())
}

// LoadFrom reads settings from a specific path. A settings file written by
// a future nodectl version may carry fields this one doesn't know about;
// those are silently dropped by json.Unmarshal rather than rejected.
func LoadFrom(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Settings{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	s := &Settings{}
	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return s, nil
}

// Save validates then writes settings to the default location.
func (s *Settings) Save() error {
	return s.SaveTo(DefaultSettingsPath())
}

// SaveTo validates then writes settings to a specific path, creating parent
// directories as needed. The write goes through a temp file and rename so a
// crash mid-write can never leave a half-written settings file behind.
func (s *Settings) SaveTo(path string) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}

// GetRedisAddr returns the configured redis address, falling back to
// DefaultRedisAddr.
func (s *Settings) GetRedisAddr() string {
	if s.DefaultRedisAddr != "" {
		return s.DefaultRedisAddr
	}
	return DefaultRedisAddr
}

// AuditLogPath returns the configured audit log path, falling back to a
// path alongside the settings directory.
func (s *Settings) AuditLogPath() string {
	if s.AuditLogFile != "" {
		return s.AuditLogFile
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "/tmp/nodectl_audit.log"
	}
	return filepath.Join(home, ".nodectl", "audit.log")
}
