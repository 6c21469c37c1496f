package cache

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"hash"
	"sort"
	"strings"
)

// Descriptor identifies a request for key derivation purposes: the
// operation (method + path or operation name), its parameters, and an
// optional caller-supplied namespace for per-user or per-platform
// variants. The engine never interprets the namespace.
type Descriptor struct {
	Method    string
	Path      string
	Params    map[string]any
	Namespace string
}

// Operation returns the method+path identity of the descriptor.
func (d Descriptor) Operation() string {
	m := strings.ToUpper(strings.TrimSpace(d.Method))
	if m == "" {
		return d.Path
	}
	return m + " " + d.Path
}

// Keyer generates deterministic cache keys from request descriptors.
//
// Contract:
// - Determinism: same descriptor must produce same key, regardless of map iteration order.
// - Concurrency: implementations must be safe for concurrent use.
type Keyer interface {
	// Key generates a cache key for the descriptor.
	Key(d Descriptor) (string, error)
}

// DefaultKeyer generates SHA-256 based cache keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates a new default keyer.
func NewDefaultKeyer() *DefaultKeyer {
	return &DefaultKeyer{}
}

// Key generates a deterministic cache key.
// Format: req:<namespace>:<method> <path>:<hash> (namespace segment omitted
// when empty), where hash is the first 16 hex characters of a SHA-256
// over the length-prefixed namespace, operation, and canonical JSON
// params. Hashing all three segments keeps descriptors distinct even
// when the printed prefix is ambiguous, e.g. namespace "a" with path
// "b" against no namespace and path "a:b".
func (k *DefaultKeyer) Key(d Descriptor) (string, error) {
	canonical, err := canonicalize(d.Params)
	if err != nil {
		return "", fmt.Errorf("cache: failed to canonicalize params: %w", err)
	}

	h := sha256.New()
	writeSegment(h, []byte(d.Namespace))
	writeSegment(h, []byte(d.Operation()))
	writeSegment(h, canonical)
	hashStr := hex.EncodeToString(h.Sum(nil)[:8]) // First 8 bytes = 16 hex chars

	if d.Namespace != "" {
		return fmt.Sprintf("req:%s:%s:%s", d.Namespace, d.Operation(), hashStr), nil
	}
	return fmt.Sprintf("req:%s:%s", d.Operation(), hashStr), nil
}

// writeSegment writes a length-prefixed segment so adjacent segments
// cannot be re-split into a colliding descriptor.
func writeSegment(h hash.Hash, b []byte) {
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], uint64(len(b)))
	h.Write(n[:])
	h.Write(b)
}

// canonicalize produces a deterministic JSON representation of the input.
// Maps are sorted by key to ensure consistent ordering.
func canonicalize(v any) ([]byte, error) {
	if v == nil {
		return []byte("null"), nil
	}

	switch val := v.(type) {
	case map[string]any:
		return canonicalizeMap(val)
	case []any:
		return canonicalizeSlice(val)
	default:
		return json.Marshal(v)
	}
}

func canonicalizeMap(m map[string]any) ([]byte, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := []byte("{")
	for i, k := range keys {
		if i > 0 {
			result = append(result, ',')
		}

		keyBytes, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		result = append(result, keyBytes...)
		result = append(result, ':')

		valBytes, err := canonicalize(m[k])
		if err != nil {
			return nil, err
		}
		result = append(result, valBytes...)
	}
	result = append(result, '}')

	return result, nil
}

func canonicalizeSlice(s []any) ([]byte, error) {
	result := []byte("[")
	for i, v := range s {
		if i > 0 {
			result = append(result, ',')
		}

		valBytes, err := canonicalize(v)
		if err != nil {
			return nil, err
		}
		result = append(result, valBytes...)
	}
	result = append(result, ']')

	return result, nil
}

// Ensure DefaultKeyer implements Keyer
var _ Keyer = (*DefaultKeyer)(nil)
