package tag

import (
	"encoding/json"
)

// Text is plain input or textarea editable.
type Text struct {
	base
	kind  string
	Value string
}

func (t *Text) Type() string {
	return t.kind
}

func (t *Text) IsEmpty() bool {
	return len(t.Value) == 0
}

func (t *Text) Unmarshal(raw json.RawMessage) error {
	if isNull(raw) {
		t.Value = ""
		return nil
	}
	return json.Unmarshal(raw, &t.Value)
}

func (t *Text) Marshal() (json.RawMessage, error) {
	return json.Marshal(t.Value)
}
