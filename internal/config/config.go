// Package config is the facade over internal/store: typed load/save/validate
// for the node's persisted records, one record type per store namespace.
package config

import (
	"crypto/rand"
	"fmt"
	"strings"

	"github.com/kaiser-net/nodefw/internal/store"
	"github.com/kaiser-net/nodefw/internal/validate"
)

// NetworkCredentials is the wifi_config record.
type NetworkCredentials struct {
	SSID          string
	Passphrase    string
	BrokerHost    string
	BrokerPort    uint16
	BrokerUser    string
	BrokerPass    string
	Configured    bool
}

// ZoneAssignment is the zone_config record.
type ZoneAssignment struct {
	ZoneID       string
	ParentZoneID string
	ZoneName     string
	Assigned     bool
}

// SystemRecord is the system_config record.
type SystemRecord struct {
	NodeID        string
	DeviceName    string
	LifecycleState string
	SafeModeReason string
	BootCount     uint16
}

// Manager is the config facade over a persistent store.
type Manager struct {
	store   *store.Store
	macAddr [6]byte // simulated hardware address, stable for the process lifetime
}

// New creates a config manager over the given store, seeded with a
// simulated 48-bit hardware address used to derive the node identifier.
func New(s *store.Store, hwAddr [6]byte) *Manager {
	return &Manager{store: s, macAddr: hwAddr}
}

// LoadNetwork populates out from wifi_config, defaulting Configured to false.
func (m *Manager) LoadNetwork(out *NetworkCredentials) error {
	h, err := m.store.Open(store.NamespaceWiFi, true)
	if err != nil {
		return err
	}
	defer h.Close()

	out.SSID = h.GetString("ssid", "")
	out.Passphrase = h.GetString("passphrase", "")
	out.BrokerHost = h.GetString("broker_host", "")
	out.BrokerPort = h.GetU16("broker_port", 0)
	out.BrokerUser = h.GetString("broker_user", "")
	out.BrokerPass = h.GetString("broker_pass", "")
	out.Configured = h.GetBool("configured", false)
	return nil
}

// ValidateNetwork checks field bounds; a record marked Configured must
// additionally carry a non-empty SSID and broker host.
func ValidateNetwork(r NetworkCredentials) error {
	var b validate.Builder
	b.Add(len(r.SSID) >= 0 && len(r.SSID) <= 32, "ssid must be at most 32 bytes")
	b.Add(len(r.Passphrase) <= 63, "passphrase must be at most 63 bytes")
	b.Add(r.BrokerHost == "" || validate.IsValidBrokerHost(r.BrokerHost), "broker_host must be a valid IPv4 address or hostname")
	b.Add((!r.Configured && r.BrokerPort == 0) || r.BrokerPort >= 1, "broker_port must be between 1 and 65535")
	if r.Configured {
		b.Add(r.SSID != "", "configured record requires a non-empty ssid")
		b.Add(r.BrokerHost != "", "configured record requires a non-empty broker_host")
	}
	return b.Build()
}

// SaveNetwork validates then persists r, refusing any write on failure.
func (m *Manager) SaveNetwork(r NetworkCredentials) error {
	if err := ValidateNetwork(r); err != nil {
		return err
	}
	h, err := m.store.Open(store.NamespaceWiFi, false)
	if err != nil {
		return err
	}
	defer h.Close()

	if err := h.PutString("ssid", r.SSID); err != nil {
		return err
	}
	if err := h.PutString("passphrase", r.Passphrase); err != nil {
		return err
	}
	if err := h.PutString("broker_host", r.BrokerHost); err != nil {
		return err
	}
	if err := h.PutU16("broker_port", r.BrokerPort); err != nil {
		return err
	}
	if err := h.PutString("broker_user", r.BrokerUser); err != nil {
		return err
	}
	if err := h.PutString("broker_pass", r.BrokerPass); err != nil {
		return err
	}
	return h.PutBool("configured", r.Configured)
}

// LoadZone populates out from zone_config, defaulting Assigned to false.
func (m *Manager) LoadZone(out *ZoneAssignment) error {
	h, err := m.store.Open(store.NamespaceZone, true)
	if err != nil {
		return err
	}
	defer h.Close()

	out.ZoneID = h.GetString("zone_id", "")
	out.ParentZoneID = h.GetString("parent_zone_id", "")
	out.ZoneName = h.GetString("zone_name", "")
	out.Assigned = h.GetBool("assigned", false)
	return nil
}

// ValidateZone checks that an assigned zone has a non-empty identifier.
func ValidateZone(z ZoneAssignment) error {
	var b validate.Builder
	if z.Assigned {
		b.Add(z.ZoneID != "", "assigned zone requires a non-empty zone_id")
	}
	return b.Build()
}

// SaveZone validates then persists z.
func (m *Manager) SaveZone(z ZoneAssignment) error {
	if err := ValidateZone(z); err != nil {
		return err
	}
	h, err := m.store.Open(store.NamespaceZone, false)
	if err != nil {
		return err
	}
	defer h.Close()

	if err := h.PutString("zone_id", z.ZoneID); err != nil {
		return err
	}
	if err := h.PutString("parent_zone_id", z.ParentZoneID); err != nil {
		return err
	}
	if err := h.PutString("zone_name", z.ZoneName); err != nil {
		return err
	}
	return h.PutBool("assigned", z.Assigned)
}

// LoadSystem populates out from system_config, generating and persisting a
// node identifier on first call if one is not already present.
func (m *Manager) LoadSystem(out *SystemRecord) error {
	h, err := m.store.Open(store.NamespaceSystem, false)
	if err != nil {
		return err
	}
	defer h.Close()

	out.NodeID = h.GetString("node_id", "")
	out.DeviceName = h.GetString("device_name", "")
	out.LifecycleState = h.GetString("lifecycle_state", "BOOT")
	out.SafeModeReason = h.GetString("safe_mode_reason", "")
	out.BootCount = h.GetU16("boot_count", 0)

	if out.NodeID == "" {
		out.NodeID = deriveNodeID(m.macAddr)
		if err := h.PutString("node_id", out.NodeID); err != nil {
			return err
		}
	}
	return nil
}

// SaveSystem persists r, except NodeID which is never rewritten once set:
// it is created at first boot and stays in the store across restarts.
func (m *Manager) SaveSystem(r SystemRecord) error {
	h, err := m.store.Open(store.NamespaceSystem, false)
	if err != nil {
		return err
	}
	defer h.Close()

	if err := h.PutString("device_name", r.DeviceName); err != nil {
		return err
	}
	if err := h.PutString("lifecycle_state", r.LifecycleState); err != nil {
		return err
	}
	if err := h.PutString("safe_mode_reason", r.SafeModeReason); err != nil {
		return err
	}
	return h.PutU16("boot_count", r.BootCount)
}

// Reset clears wifi_config and zone_config only — the node identifier and
// sensor/actuator registries survive a factory reset.
func (m *Manager) Reset() error {
	wifi, err := m.store.Open(store.NamespaceWiFi, false)
	if err != nil {
		return err
	}
	defer wifi.Close()
	if err := wifi.Clear(); err != nil {
		return err
	}

	zone, err := m.store.Open(store.NamespaceZone, false)
	if err != nil {
		return err
	}
	defer zone.Close()
	return zone.Clear()
}

// deriveNodeID forms "ESP_XXXXXX" from the uppercase hex of the last three
// bytes of a 48-bit hardware address.
func deriveNodeID(mac [6]byte) string {
	return fmt.Sprintf("ESP_%02X%02X%02X", mac[3], mac[4], mac[5])
}

// RandomMAC generates a simulated locally-administered hardware address for
// hosts that have no real NIC to derive one from (the host-process
// simulator's stand-in for ESP32 efuse MAC readout).
func RandomMAC() [6]byte {
	var mac [6]byte
	_, _ = rand.Read(mac[:])
	mac[0] = (mac[0] | 0x02) &^ 0x01 // locally administered, unicast
	return mac
}

// FormatMAC renders mac in standard colon-separated form.
func FormatMAC(mac [6]byte) string {
	parts := make([]string, 6)
	for i, b := range mac {
		parts[i] = fmt.Sprintf("%02x", b)
	}
	return strings.Join(parts, ":")
}
