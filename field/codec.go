package field

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"relink/element"
)

var null = json.RawMessage("null")

func isNull(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, null)
}

func decodeAs[T any](raw json.RawMessage) (any, error) {
	if isNull(raw) {
		return nil, nil
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func encodeAs[T any](fieldType string, value any) (json.RawMessage, error) {
	if value == nil {
		return null, nil
	}
	v, ok := value.(T)
	if !ok {
		return nil, fmt.Errorf("unexpected value type %T for %s field", value, fieldType)
	}
	return json.Marshal(v)
}

// looseRef is reference as it may come from stored or imported data.
type looseRef struct {
	Type string `json:"type"`
	ID   any    `json:"id"`
}

func (l looseRef) ref() (element.Ref, bool) {
	t, ok := element.ParseTypeName(strings.TrimSpace(l.Type))
	if !ok {
		return element.Ref{}, false
	}
	id, ok := element.ToID(l.ID)
	if !ok {
		return element.Ref{}, false
	}
	return element.Ref{Type: t, ID: id}, true
}

// decodeRefs reads list of references, malformed entries are skipped.
func decodeRefs(raw json.RawMessage) ([]element.Ref, error) {
	var list []looseRef
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, err
	}
	refs := make([]element.Ref, 0, len(list))
	for _, l := range list {
		if r, ok := l.ref(); ok {
			refs = append(refs, r)
		}
	}
	return refs, nil
}

func decodeIDs(raw json.RawMessage) ([]int64, error) {
	var list []any
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(list))
	for _, v := range list {
		if id, ok := element.ToID(v); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}
