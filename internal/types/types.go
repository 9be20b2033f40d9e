// Package types provides domain models shared across fraudgate components.
//
// Zero-dependency design: types.go, rules.go and errors.go use only
// encoding/json so the evaluator can be embedded without pulling in storage
// or transport packages. ID utilities in ids.go import uuid but are isolated
// for selective inclusion.
package types

import "encoding/json"

// Payload represents an arbitrary JSON claim payload.
// json.RawMessage wrapper preserves original bytes for schema-agnostic
// handling; the evaluator operates directly on the raw JSON structure.
type Payload json.RawMessage

// MarshalJSON implements json.Marshaler.
// Delegates to json.RawMessage to preserve original payload bytes unchanged.
func (p Payload) MarshalJSON() ([]byte, error) {
	if p == nil {
		return []byte("null"), nil
	}
	return json.RawMessage(p).MarshalJSON()
}

// UnmarshalJSON implements json.Unmarshaler.
// Delegates to json.RawMessage to capture raw bytes without parsing.
func (p *Payload) UnmarshalJSON(data []byte) error {
	return (*json.RawMessage)(p).UnmarshalJSON(data)
}

// Resource limits enforced by the evaluator and the API layer.
const (
	// MaxPathDepth bounds dot-path traversal into claim payloads.
	// 16 levels handles deeply nested claims without unbounded recursion.
	MaxPathDepth = 16

	// MaxConditionsPerRule bounds a rule's flattened condition count so
	// evaluation stays O(total conditions) with a known ceiling.
	MaxConditionsPerRule = 128

	// MaxPayloadSize limits test and execution payloads to prevent OOM
	// when analysts paste arbitrary claim JSON.
	MaxPayloadSize = 1024 * 1024
)
