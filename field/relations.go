package field

import (
	"context"
	"encoding/json"
	"fmt"

	"relink/element"
)

// allowedTypes converts list of type names, empty list allows everything.
func allowedTypes(names []string) (map[element.Type]bool, error) {
	if len(names) == 0 {
		return nil, nil
	}
	res := make(map[element.Type]bool, len(names))
	for _, n := range names {
		t, err := element.ParseType(n)
		if err != nil {
			return nil, err
		}
		res[t] = true
	}
	return res, nil
}

func checkAllowed(allowed map[element.Type]bool, ref element.Ref) bool {
	return allowed == nil || allowed[ref.Type]
}

// Href is a single relation to document, asset or object.
type Href struct {
	Base
	allowed map[element.Type]bool
}

func newHref(spec *Spec, _ *Builder) (Definition, error) {
	allowed, err := allowedTypes(spec.Types)
	if err != nil {
		return nil, err
	}
	return &Href{Base: spec.base(), allowed: allowed}, nil
}

func (f *Href) FieldType() string {
	return TypeHref
}

func (f *Href) Decode(raw json.RawMessage) (any, error) {
	if isNull(raw) {
		return nil, nil
	}
	var l looseRef
	if err := json.Unmarshal(raw, &l); err != nil {
		return nil, err
	}
	if r, ok := l.ref(); ok {
		return r, nil
	}
	return nil, nil
}

func (f *Href) Encode(value any) (json.RawMessage, error) {
	return encodeAs[element.Ref](TypeHref, value)
}

func (f *Href) IsEmpty(value any) bool {
	r, ok := value.(element.Ref)
	return !ok || !r.Valid()
}

func (f *Href) Validate(value any, omitMandatory bool) error {
	if value != nil {
		r, ok := value.(element.Ref)
		if !ok {
			return f.invalid(value, "unexpected type")
		}
		if !checkAllowed(f.allowed, r) {
			return f.invalid(value, fmt.Sprintf("relation to %s is not allowed", r.Type))
		}
	}
	return f.checkMandatory(f.IsEmpty(value), omitMandatory)
}

func (f *Href) RewriteIDs(value any, m element.Mapping) any {
	r, ok := value.(element.Ref)
	if !ok {
		return value
	}
	to, _ := m.Apply(r)
	return to
}

func (f *Href) ResolveDependencies(value any) element.Dependencies {
	deps := element.NewDependencies()
	if r, ok := value.(element.Ref); ok {
		deps.Add(r)
	}
	return deps
}

func (f *Href) Sanitize(ctx context.Context, value any, finder element.Finder) (any, int, error) {
	r, ok := value.(element.Ref)
	if !ok {
		return value, 0, nil
	}
	found, err := element.Exists(ctx, finder, r)
	if err != nil {
		return value, 0, err
	}
	if !found {
		return nil, 1, nil
	}
	return r, 0, nil
}

// MultiHref is an ordered list of relations.
type MultiHref struct {
	Base
	allowed map[element.Type]bool
}

func newMultiHref(spec *Spec, _ *Builder) (Definition, error) {
	allowed, err := allowedTypes(spec.Types)
	if err != nil {
		return nil, err
	}
	return &MultiHref{Base: spec.base(), allowed: allowed}, nil
}

func (f *MultiHref) FieldType() string {
	return TypeMultiHref
}

func (f *MultiHref) Decode(raw json.RawMessage) (any, error) {
	if isNull(raw) {
		return nil, nil
	}
	refs, err := decodeRefs(raw)
	if err != nil {
		return nil, err
	}
	return refs, nil
}

func (f *MultiHref) Encode(value any) (json.RawMessage, error) {
	return encodeAs[[]element.Ref](TypeMultiHref, value)
}

func (f *MultiHref) IsEmpty(value any) bool {
	refs, ok := value.([]element.Ref)
	return !ok || len(refs) == 0
}

func (f *MultiHref) Validate(value any, omitMandatory bool) error {
	if value != nil {
		refs, ok := value.([]element.Ref)
		if !ok {
			return f.invalid(value, "unexpected type")
		}
		for _, r := range refs {
			if !r.Valid() {
				return f.invalid(value, "bad relation "+r.Key())
			}
			if !checkAllowed(f.allowed, r) {
				return f.invalid(value, fmt.Sprintf("relation to %s is not allowed", r.Type))
			}
		}
	}
	return f.checkMandatory(f.IsEmpty(value), omitMandatory)
}

func (f *MultiHref) RewriteIDs(value any, m element.Mapping) any {
	refs, ok := value.([]element.Ref)
	if !ok {
		return value
	}
	out := make([]element.Ref, len(refs))
	for i, r := range refs {
		out[i], _ = m.Apply(r)
	}
	return out
}

func (f *MultiHref) ResolveDependencies(value any) element.Dependencies {
	deps := element.NewDependencies()
	if refs, ok := value.([]element.Ref); ok {
		for _, r := range refs {
			deps.Add(r)
		}
	}
	return deps
}

func (f *MultiHref) Sanitize(ctx context.Context, value any, finder element.Finder) (any, int, error) {
	refs, ok := value.([]element.Ref)
	if !ok {
		return value, 0, nil
	}
	out := make([]element.Ref, 0, len(refs))
	for _, r := range refs {
		found, err := element.Exists(ctx, finder, r)
		if err != nil {
			return value, 0, err
		}
		if found {
			out = append(out, r)
		}
	}
	return out, len(refs) - len(out), nil
}

// Objects is an ordered list of data objects, value is list of object ids.
type Objects struct {
	Base
}

func newObjects(spec *Spec, _ *Builder) (Definition, error) {
	return &Objects{Base: spec.base()}, nil
}

func (f *Objects) FieldType() string {
	return TypeObjects
}

func (f *Objects) Decode(raw json.RawMessage) (any, error) {
	if isNull(raw) {
		return nil, nil
	}
	ids, err := decodeIDs(raw)
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (f *Objects) Encode(value any) (json.RawMessage, error) {
	return encodeAs[[]int64](TypeObjects, value)
}

func (f *Objects) IsEmpty(value any) bool {
	ids, ok := value.([]int64)
	return !ok || len(ids) == 0
}

func (f *Objects) Validate(value any, omitMandatory bool) error {
	if value != nil {
		ids, ok := value.([]int64)
		if !ok {
			return f.invalid(value, "unexpected type")
		}
		for _, id := range ids {
			if id <= 0 {
				return f.invalid(value, "bad object id")
			}
		}
	}
	return f.checkMandatory(f.IsEmpty(value), omitMandatory)
}

func (f *Objects) RewriteIDs(value any, m element.Mapping) any {
	ids, ok := value.([]int64)
	if !ok {
		return value
	}
	out := make([]int64, len(ids))
	for i, id := range ids {
		out[i], _ = m.Lookup(element.TypeObject, id)
	}
	return out
}

func (f *Objects) ResolveDependencies(value any) element.Dependencies {
	deps := element.NewDependencies()
	if ids, ok := value.([]int64); ok {
		for _, id := range ids {
			deps.Add(element.NewRef(element.TypeObject, id))
		}
	}
	return deps
}

func (f *Objects) Sanitize(ctx context.Context, value any, finder element.Finder) (any, int, error) {
	ids, ok := value.([]int64)
	if !ok {
		return value, 0, nil
	}
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		found, err := element.Exists(ctx, finder, element.NewRef(element.TypeObject, id))
		if err != nil {
			return value, 0, err
		}
		if found {
			out = append(out, id)
		}
	}
	return out, len(ids) - len(out), nil
}

// Image keeps id of image asset.
type Image struct {
	Base
}

func newImage(spec *Spec, _ *Builder) (Definition, error) {
	return &Image{Base: spec.base()}, nil
}

func (f *Image) FieldType() string {
	return TypeImage
}

func (f *Image) Decode(raw json.RawMessage) (any, error) {
	if isNull(raw) {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	if id, ok := element.ToID(v); ok {
		return id, nil
	}
	return nil, nil
}

func (f *Image) Encode(value any) (json.RawMessage, error) {
	return encodeAs[int64](TypeImage, value)
}

func (f *Image) IsEmpty(value any) bool {
	id, ok := value.(int64)
	return !ok || id <= 0
}

func (f *Image) Validate(value any, omitMandatory bool) error {
	if value != nil {
		if _, ok := value.(int64); !ok {
			return f.invalid(value, "unexpected type")
		}
	}
	return f.checkMandatory(f.IsEmpty(value), omitMandatory)
}

func (f *Image) RewriteIDs(value any, m element.Mapping) any {
	id, ok := value.(int64)
	if !ok {
		return value
	}
	to, _ := m.Lookup(element.TypeAsset, id)
	return to
}

func (f *Image) ResolveDependencies(value any) element.Dependencies {
	deps := element.NewDependencies()
	if id, ok := value.(int64); ok {
		deps.Add(element.NewRef(element.TypeAsset, id))
	}
	return deps
}

func (f *Image) Sanitize(ctx context.Context, value any, finder element.Finder) (any, int, error) {
	id, ok := value.(int64)
	if !ok {
		return value, 0, nil
	}
	found, err := element.Exists(ctx, finder, element.NewRef(element.TypeAsset, id))
	if err != nil {
		return value, 0, err
	}
	if !found {
		return nil, 1, nil
	}
	return id, 0, nil
}
