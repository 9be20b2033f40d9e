// internal/rules/fieldpath.go
package rules

import (
	"strings"

	"github.com/finelli/fraudgate/internal/types"
)

/*
 * Field path resolution for claim payloads.
 *
 * A condition's field is a dot-delimited path into the payload object
 * (e.g. "claim.amount"). Resolution walks the parsed JSON key by key.
 * Missing intermediate keys, traversal through a non-object, or a path
 * that terminates on a container rather than a scalar all resolve to an
 * absent sentinel, distinct from 0/false/"".
 *
 * Absent values fail every operator's match test except not_equals
 * against a non-absent value (vacuously different); that policy lives in
 * operators.go, not here.
 */

// FieldValue is the outcome of resolving a condition's field path.
// Present=false is the absent sentinel.
type FieldValue struct {
	Value   any
	Present bool
}

// Absent is the sentinel for paths that do not resolve to a scalar.
var Absent = FieldValue{}

// Resolve walks payload following the dot-delimited field path.
// payload is the result of unmarshaling a JSON object into map[string]any.
// Paths deeper than MaxPathDepth resolve to absent.
func Resolve(field string, payload map[string]any) FieldValue {
	segments := strings.Split(field, ".")
	if len(segments) == 0 || len(segments) > types.MaxPathDepth {
		return Absent
	}

	var current any = payload
	for _, seg := range segments {
		obj, ok := current.(map[string]any)
		if !ok {
			// Intermediate value is a scalar, array or null
			return Absent
		}
		val, ok := obj[seg]
		if !ok {
			return Absent
		}
		current = val
	}

	switch current.(type) {
	case map[string]any, []any:
		// Path terminates on a container, not a scalar
		return Absent
	}
	return FieldValue{Value: current, Present: true}
}
