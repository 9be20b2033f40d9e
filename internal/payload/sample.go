// Package payload generates the fixed-schema sample claim used for
// interactive rule testing when the analyst supplies no claim of their own.
package payload

import (
	"encoding/json"

	"github.com/finelli/fraudgate/internal/types"
)

// Sample returns a representative claim payload covering every field the
// condition builder offers. Values are chosen so common demo rules
// (claim.amount greater 5000, geo_distance greater 50) trigger.
func Sample() types.Payload {
	claim := map[string]any{
		"claim": map[string]any{
			"amount":           7500,
			"submission_count": 4,
		},
		"claimant": map[string]any{
			"ip_address": "203.0.113.42",
		},
		"geo_distance": 120,
		"document": map[string]any{
			"hash": "9f2c81d4aa0e4b5c",
		},
		"device": map[string]any{
			"id":     "dev-55120",
			"is_new": true,
		},
		"transaction": map[string]any{
			"count": 7,
		},
		"distinct_claims": 2,
	}

	// Marshaling a map of scalars cannot fail
	raw, _ := json.Marshal(claim)
	return types.Payload(raw)
}
