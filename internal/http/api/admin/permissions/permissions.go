package permissions

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"gorm.io/datatypes"
)

// Permission keys grantable to non-super admins. Super admins hold every
// permission implicitly.
const (
	// PermShops covers shop management.
	PermShops = "shops"
	// PermGames covers the game catalog.
	PermGames = "games"
	// PermAssignments covers shop game assignments.
	PermAssignments = "assignments"
	// PermActions covers QR touchpoints.
	PermActions = "actions"
	// PermRewards covers prize management.
	PermRewards = "rewards"
	// PermPlayers covers player browsing.
	PermPlayers = "players"
	// PermEvents covers play event logs and stats.
	PermEvents = "events"
)

// known lists every grantable key.
var known = map[string]struct{}{
	PermShops:       {},
	PermGames:       {},
	PermAssignments: {},
	PermActions:     {},
	PermRewards:     {},
	PermPlayers:     {},
	PermEvents:      {},
}

// All returns every grantable permission key, sorted.
func All() []string {
	out := make([]string, 0, len(known))
	for key := range known {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}

// Normalize trims, lower-cases, and de-duplicates permission keys.
func Normalize(keys []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(keys))
	for _, key := range keys {
		normalized := strings.ToLower(strings.TrimSpace(key))
		if normalized == "" {
			continue
		}
		if _, dup := seen[normalized]; dup {
			continue
		}
		seen[normalized] = struct{}{}
		out = append(out, normalized)
	}
	sort.Strings(out)
	return out
}

// Validate rejects unknown permission keys.
func Validate(keys []string) error {
	for _, key := range keys {
		if _, ok := known[key]; !ok {
			return fmt.Errorf("unknown permission: %s", key)
		}
	}
	return nil
}

// Marshal encodes permission keys as a JSON array.
func Marshal(keys []string) ([]byte, error) {
	if keys == nil {
		keys = []string{}
	}
	return json.Marshal(keys)
}

// Parse decodes the stored JSON permission list; malformed data yields an
// empty list rather than an error.
func Parse(raw datatypes.JSON) []string {
	if len(raw) == 0 {
		return []string{}
	}
	var out []string
	if errDecode := json.Unmarshal(raw, &out); errDecode != nil {
		return []string{}
	}
	return Normalize(out)
}

// Has reports whether the key is in the granted list.
func Has(granted []string, key string) bool {
	for _, g := range granted {
		if g == key {
			return true
		}
	}
	return false
}
