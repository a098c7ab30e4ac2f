package discovery

import (
	"encoding/json"
	"fmt"
)

// QueryItem is one (key, value-spec) pair from the submit query
// template. The wire form is a two-element array whose second element
// is either a literal scalar or an object {"dynamic": true, "value":
// "<runtime key>"}.
type QueryItem struct {
	Key  string
	Spec ValueSpec
}

// ValueSpec is the tagged union behind a query value: a literal used
// as-is, or a dynamic reference resolved from the runtime value table.
type ValueSpec struct {
	Dynamic bool
	Value   string
}

// UnmarshalJSON decodes the two-element array form.
func (q *QueryItem) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("query item is not an array: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("query item has %d elements, want 2", len(pair))
	}
	if err := json.Unmarshal(pair[0], &q.Key); err != nil {
		return fmt.Errorf("query item key: %w", err)
	}

	var dyn struct {
		Dynamic bool   `json:"dynamic"`
		Value   string `json:"value"`
	}
	if err := json.Unmarshal(pair[1], &dyn); err == nil && dyn.Dynamic {
		q.Spec = ValueSpec{Dynamic: true, Value: dyn.Value}
		return nil
	}

	// Literal values may be strings or numbers; both flatten to their
	// string form.
	var literal any
	if err := json.Unmarshal(pair[1], &literal); err != nil {
		return fmt.Errorf("query item value for %q: %w", q.Key, err)
	}
	if s, ok := literal.(string); ok {
		q.Spec = ValueSpec{Value: s}
		return nil
	}
	q.Spec = ValueSpec{Value: fmt.Sprintf("%v", literal)}
	return nil
}
