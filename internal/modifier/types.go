package modifier

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// #region contract

// Modifier computes one signed contribution to the difficulty delta.
// Positive values make the game harder, negative values easier.
type Modifier interface {
	Name() string
	Priority() int
	IsEnabled() bool
	Calculate() Result
}

// AppliedObserver is implemented by modifiers that keep auxiliary counters.
// The apply step calls OnApplied with the modifier's own result.
type AppliedObserver interface {
	OnApplied(result Result)
}

// #endregion contract

// #region result

// Result is the output of a single modifier evaluation.
type Result struct {
	Name     string   `json:"name"`
	Value    float64  `json:"value"`
	Reason   string   `json:"reason"`
	Metadata Metadata `json:"metadata,omitempty"`
}

// neutral builds a zero-valued result with the given reason.
func neutral(name, reason string) Result {
	return Result{Name: name, Value: 0, Reason: reason}
}

// #endregion result

// #region metadata

// Entry is one key/value pair of diagnostic metadata.
type Entry struct {
	Key   string
	Value any
}

// Metadata is an insertion-ordered key/value list.
type Metadata []Entry

// Set stores value under key. An existing key keeps its position.
func (m *Metadata) Set(key string, value any) {
	for i := range *m {
		if (*m)[i].Key == key {
			(*m)[i].Value = value
			return
		}
	}
	*m = append(*m, Entry{Key: key, Value: value})
}

// Get returns the value stored under key.
func (m Metadata) Get(key string) (any, bool) {
	for _, e := range m {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}

// Keys returns the keys in insertion order.
func (m Metadata) Keys() []string {
	keys := make([]string, len(m))
	for i, e := range m {
		keys[i] = e.Key
	}
	return keys
}

// MarshalJSON encodes the metadata as a JSON object preserving key order.
func (m Metadata) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range m {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(e.Key)
		if err != nil {
			return nil, fmt.Errorf("marshal metadata key: %w", err)
		}
		v, err := json.Marshal(e.Value)
		if err != nil {
			return nil, fmt.Errorf("marshal metadata %s: %w", e.Key, err)
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object, keeping the document's key order.
func (m *Metadata) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("decode metadata: %w", err)
	}
	if tok == nil {
		*m = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("decode metadata: expected object, got %v", tok)
	}
	var out Metadata
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("decode metadata key: %w", err)
		}
		key, _ := keyTok.(string)
		var value any
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("decode metadata %s: %w", key, err)
		}
		out = append(out, Entry{Key: key, Value: value})
	}
	*m = out
	return nil
}

// #endregion metadata
