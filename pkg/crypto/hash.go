// Package crypto provides the hashing and signing primitives shared by the
// ledger, contract, and reflexive subsystems.
package crypto

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
)

// CanonicalJSON encodes v into a deterministic byte representation: map
// keys are sorted lexicographically at every level and the result is
// plain UTF-8 JSON with no extra whitespace. It is the only encoding the
// ledger, contract, and reflexive engines may hash, so that the same
// logical content always produces the same hash across processes.
func CanonicalJSON(v interface{}) ([]byte, error) {
	normalized, err := normalize(v)
	if err != nil {
		return nil, err
	}
	return json.Marshal(normalized)
}

// normalize round-trips v through JSON so that map[string]interface{}
// values come back out with Go's native map type, then recursively
// rebuilds them using an order-stable representation. encoding/json
// already sorts map[string]T keys when marshaling, so the round trip
// itself is sufficient to produce canonical output; normalize exists to
// make that guarantee explicit and keep it true for nested structs that
// decode into ordinary maps.
func normalize(v interface{}) (interface{}, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var generic interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, err
	}
	return sortValue(generic), nil
}

func sortValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make(map[string]interface{}, len(t))
		for _, k := range keys {
			out[k] = sortValue(t[k])
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, e := range t {
			out[i] = sortValue(e)
		}
		return out
	default:
		return v
	}
}

// HashContent returns the lowercase hex SHA-256 of the canonical encoding
// of v. It is the single hashing entry point used by the ledger entry
// hash, the ledger event content hash, the contract content hash, and the
// reflexive decision proof hash.
func HashContent(v interface{}) (string, error) {
	canonical, err := CanonicalJSON(v)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// HashBytes returns the lowercase hex SHA-256 of raw bytes, for a
// pre-encoded value that needs hashing directly.
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// HashBytesRaw returns the raw 32-byte SHA-256 digest.
func HashBytesRaw(data []byte) [32]byte {
	return sha256.Sum256(data)
}
