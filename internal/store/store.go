// Package store implements the node's persistent key/value layer: typed
// namespaces backed by non-volatile storage. On the real ESP32 this is NVS
// flash; here each namespace is a Redis hash, one hash per logical table.
package store

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-redis/redis/v8"
)

// Namespace names used by the node.
const (
	NamespaceWiFi      = "wifi_config"
	NamespaceZone      = "zone_config"
	NamespaceSystem    = "system_config"
	NamespaceSensors   = "sensors"
	NamespaceActuators = "actuators"
)

// ErrNotWritable is returned when a write is attempted through a handle
// opened readonly.
var ErrNotWritable = fmt.Errorf("store: handle opened readonly")

// Store is a connection to the backing key/value server, shared by every
// namespace handle.
type Store struct {
	client *redis.Client
}

// Open dials the backing store. addr is a "host:port" redis endpoint.
func Open(addr string) (*Store, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("opening persistent store at %s: %w", addr, err)
	}
	return &Store{client: client}, nil
}

// FromClient wraps an already-constructed client (used by tests against an
// embedded miniredis instance).
func FromClient(client *redis.Client) *Store {
	return &Store{client: client}
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	return s.client.Close()
}

// Handle is an open namespace. Namespace writes are HSET per key, so a
// single key write is atomic: a failed write leaves the previous value in
// place.
type Handle struct {
	store     *Store
	namespace string
	readonly  bool
	ctx       context.Context
}

// Open opens a namespace handle. When readonly is true, Put* calls fail
// with ErrNotWritable instead of reaching the transport.
func (s *Store) Open(namespace string, readonly bool) (*Handle, error) {
	return &Handle{store: s, namespace: namespace, readonly: readonly, ctx: context.Background()}, nil
}

// Close is a no-op for a Redis-backed handle — the connection is owned by
// the Store, not the handle — kept for symmetry with the NVS-style API a
// flash-backed implementation would need.
func (h *Handle) Close() error { return nil }

// Clear removes every key in the namespace.
func (h *Handle) Clear() error {
	if h.readonly {
		return ErrNotWritable
	}
	return h.store.client.Del(h.ctx, h.namespace).Err()
}

func (h *Handle) get(key string) (string, bool, error) {
	val, err := h.store.client.HGet(h.ctx, h.namespace, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("store: get %s/%s: %w", h.namespace, key, err)
	}
	return val, true, nil
}

func (h *Handle) put(key, value string) error {
	if h.readonly {
		return ErrNotWritable
	}
	if err := h.store.client.HSet(h.ctx, h.namespace, key, value).Err(); err != nil {
		return fmt.Errorf("store: put %s/%s: %w", h.namespace, key, err)
	}
	return nil
}

// GetString returns the stored value for key, or def if absent.
func (h *Handle) GetString(key, def string) string {
	v, ok, err := h.get(key)
	if err != nil || !ok {
		return def
	}
	return v
}

// PutString stores a string value.
func (h *Handle) PutString(key, value string) error {
	return h.put(key, value)
}

// GetBool returns the stored boolean for key, or def if absent or unparsable.
func (h *Handle) GetBool(key string, def bool) bool {
	v, ok, err := h.get(key)
	if err != nil || !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// PutBool stores a boolean value.
func (h *Handle) PutBool(key string, value bool) error {
	return h.put(key, strconv.FormatBool(value))
}

// GetU8 returns the stored uint8 for key, or def if absent or unparsable.
func (h *Handle) GetU8(key string, def uint8) uint8 {
	v, ok, err := h.get(key)
	if err != nil || !ok {
		return def
	}
	n, err := strconv.ParseUint(v, 10, 8)
	if err != nil {
		return def
	}
	return uint8(n)
}

// PutU8 stores a uint8 value.
func (h *Handle) PutU8(key string, value uint8) error {
	return h.put(key, strconv.FormatUint(uint64(value), 10))
}

// GetU16 returns the stored uint16 for key, or def if absent or unparsable.
func (h *Handle) GetU16(key string, def uint16) uint16 {
	v, ok, err := h.get(key)
	if err != nil || !ok {
		return def
	}
	n, err := strconv.ParseUint(v, 10, 16)
	if err != nil {
		return def
	}
	return uint16(n)
}

// PutU16 stores a uint16 value.
func (h *Handle) PutU16(key string, value uint16) error {
	return h.put(key, strconv.FormatUint(uint64(value), 10))
}

// PutList replaces the whole bounded list in one atomic transaction: a
// count key plus indexed "<i>.<field>" subkeys. All-or-nothing, via a
// Redis MULTI/EXEC pipeline so a failed write can never leave a partial
// list behind.
func (h *Handle) PutList(countKey string, items []map[string]string) error {
	if h.readonly {
		return ErrNotWritable
	}

	pipe := h.store.client.TxPipeline()
	pipe.HSet(h.ctx, h.namespace, countKey, strconv.Itoa(len(items)))
	for i, fields := range items {
		for field, value := range fields {
			pipe.HSet(h.ctx, h.namespace, fmt.Sprintf("%d.%s", i, field), value)
		}
	}
	if _, err := pipe.Exec(h.ctx); err != nil {
		return fmt.Errorf("store: put list %s: %w", h.namespace, err)
	}
	return nil
}

// GetList reads back a bounded list written by PutList. fields names which
// subkeys to collect per item.
func (h *Handle) GetList(countKey string, fields []string) ([]map[string]string, error) {
	count := h.GetU8(countKey, 0)
	items := make([]map[string]string, 0, count)
	for i := 0; i < int(count); i++ {
		item := make(map[string]string, len(fields))
		for _, field := range fields {
			v, _, err := h.get(fmt.Sprintf("%d.%s", i, field))
			if err != nil {
				return nil, err
			}
			item[field] = v
		}
		items = append(items, item)
	}
	return items, nil
}
