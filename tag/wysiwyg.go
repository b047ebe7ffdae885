package tag

import (
	"encoding/json"

	"relink/element"
	"relink/richtext"
)

// Wysiwyg is rich text editable.
type Wysiwyg struct {
	base
	Text string
}

func (w *Wysiwyg) Type() string {
	return TypeWysiwyg
}

func (w *Wysiwyg) IsEmpty() bool {
	return len(w.Text) == 0
}

func (w *Wysiwyg) Unmarshal(raw json.RawMessage) error {
	w.Text = ""
	if isNull(raw) {
		return nil
	}
	return json.Unmarshal(raw, &w.Text)
}

func (w *Wysiwyg) Marshal() (json.RawMessage, error) {
	return json.Marshal(w.Text)
}

func (w *Wysiwyg) RewriteIDs(m element.Mapping) {
	w.Text = richtext.Rewrite(w.Text, m)
}

func (w *Wysiwyg) ResolveDependencies() element.Dependencies {
	return richtext.References(w.Text)
}
