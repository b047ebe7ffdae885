package tag

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"relink/element"
)

// RelationData is stored state of renderlet and href editables.
type RelationData struct {
	ID      int64  `json:"id,omitempty"`
	Type    string `json:"type,omitempty"`
	Subtype string `json:"subtype,omitempty"`
}

// Relation is an editable which points to a single element of any type.
type Relation struct {
	base
	kind string
	Data RelationData
}

func (r *Relation) Type() string {
	return r.kind
}

func (r *Relation) IsEmpty() bool {
	_, ok := r.Ref()
	return !ok
}

func (r *Relation) Unmarshal(raw json.RawMessage) error {
	r.Data = RelationData{}
	if isNull(raw) {
		return nil
	}
	return json.Unmarshal(raw, &r.Data)
}

func (r *Relation) Marshal() (json.RawMessage, error) {
	return json.Marshal(r.Data)
}

func (r *Relation) Ref() (element.Ref, bool) {
	t, ok := element.ParseTypeName(r.Data.Type)
	if !ok || r.Data.ID <= 0 {
		return element.Ref{}, false
	}
	return element.Ref{Type: t, ID: r.Data.ID}, true
}

func (r *Relation) RewriteIDs(m element.Mapping) {
	ref, ok := r.Ref()
	if !ok {
		return
	}
	if to, ok := m.Apply(ref); ok {
		r.Data.ID = to.ID
	}
}

func (r *Relation) ResolveDependencies() element.Dependencies {
	deps := element.NewDependencies()
	if ref, ok := r.Ref(); ok {
		deps.Add(ref)
	}
	return deps
}

func (r *Relation) CheckValidity(ctx context.Context, f element.Finder, log *zap.Logger) (bool, error) {
	ref, ok := r.Ref()
	if !ok {
		return true, nil
	}
	gone, err := missing(ctx, f, ref)
	if err != nil || !gone {
		return true, err
	}
	logInvalid(log, r, ref)
	r.Data = RelationData{}
	return false, nil
}

// Set points editable to the element described by header.
func (r *Relation) Set(h *element.Header) {
	r.Data = RelationData{ID: h.Ref.ID, Type: h.Ref.Type.String(), Subtype: h.Subtype}
}
