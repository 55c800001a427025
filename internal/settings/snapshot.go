package settings

import (
	"encoding/json"
	"strings"
	"sync/atomic"
	"time"
)

// snapshot holds the in-memory copy of DB-backed settings.
type snapshot struct {
	updatedAt time.Time
	values    map[string]json.RawMessage
}

// globalSnapshot stores the latest snapshot atomically. Handlers and the
// play engine read it on the hot path; only Store replaces it.
var globalSnapshot atomic.Value // stores snapshot

// init seeds the global snapshot.
func init() {
	globalSnapshot.Store(snapshot{values: map[string]json.RawMessage{}})
}

// Store replaces the in-memory snapshot of DB-backed settings.
func Store(updatedAt time.Time, values map[string]json.RawMessage) {
	next := make(map[string]json.RawMessage, len(values))
	for k, v := range values {
		key := strings.TrimSpace(k)
		if key == "" {
			continue
		}
		if v == nil {
			next[key] = nil
			continue
		}
		copied := make([]byte, len(v))
		copy(copied, v)
		next[key] = copied
	}

	globalSnapshot.Store(snapshot{
		updatedAt: updatedAt.UTC(),
		values:    next,
	})
}

// UpdatedAt returns the last update timestamp for the snapshot.
func UpdatedAt() time.Time {
	return load().updatedAt
}

// Value returns a copy of the raw setting value for a key.
func Value(key string) (json.RawMessage, bool) {
	cfg := load()
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, false
	}
	val, ok := cfg.values[key]
	if !ok {
		return nil, false
	}
	if val == nil {
		return nil, true
	}
	copied := make([]byte, len(val))
	copy(copied, val)
	return copied, true
}

// IntValue returns a setting decoded as int, or fallback when unset or
// malformed.
func IntValue(key string, fallback int) int {
	raw, ok := Value(key)
	if !ok || raw == nil {
		return fallback
	}
	var out int
	if errDecode := json.Unmarshal(raw, &out); errDecode != nil {
		return fallback
	}
	return out
}

// StringValue returns a setting decoded as string, or fallback when unset
// or malformed.
func StringValue(key, fallback string) string {
	raw, ok := Value(key)
	if !ok || raw == nil {
		return fallback
	}
	var out string
	if errDecode := json.Unmarshal(raw, &out); errDecode != nil {
		return fallback
	}
	return out
}

// load returns the current snapshot with safe defaults.
func load() snapshot {
	v := globalSnapshot.Load()
	cfg, ok := v.(snapshot)
	if !ok {
		return snapshot{values: map[string]json.RawMessage{}}
	}
	if cfg.values == nil {
		return snapshot{updatedAt: cfg.updatedAt, values: map[string]json.RawMessage{}}
	}
	return cfg
}
