package field

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"relink/element"
)

// CollectionDefinition is a reusable group of fields, items of
// fieldcollections fields are instances of it.
type CollectionDefinition struct {
	Key    string
	Title  string
	Fields []Definition
}

func (c *CollectionDefinition) Field(name string) (Definition, bool) {
	for _, d := range c.Fields {
		if d.Name() == name {
			return d, true
		}
	}
	return nil, false
}

// Collections keeps collection definitions by key.
type Collections map[string]*CollectionDefinition

func (c Collections) Lookup(key string) (*CollectionDefinition, bool) {
	def, ok := c[key]
	return def, ok
}

// CollectionItem is single entry of field collection. Values are decoded
// with fields of the collection definition named by Type.
type CollectionItem struct {
	Type   string
	Index  int
	Values map[string]any

	// stored values of item with unknown type, kept to be written back
	raw map[string]json.RawMessage
}

func (it CollectionItem) clone() CollectionItem {
	c := it
	c.Values = make(map[string]any, len(it.Values))
	for k, v := range it.Values {
		c.Values[k] = v
	}
	return c
}

// Fieldcollection is value of fieldcollections field.
type Fieldcollection struct {
	Items []CollectionItem
}

type storedItem struct {
	Type   string                     `json:"type"`
	Index  int                        `json:"index"`
	Values map[string]json.RawMessage `json:"values,omitempty"`
}

type Fieldcollections struct {
	Base
	AllowedTypes []string
	MaxItems     int
	LazyLoading  bool

	collections Collections
}

func newFieldcollections(spec *Spec, b *Builder) (Definition, error) {
	if spec.MaxItems < 0 {
		return nil, fmt.Errorf("negative maxItems")
	}
	return &Fieldcollections{
		Base:         spec.base(),
		AllowedTypes: spec.AllowedTypes,
		MaxItems:     spec.MaxItems,
		LazyLoading:  spec.LazyLoading,
		collections:  b.Collections,
	}, nil
}

func (f *Fieldcollections) FieldType() string {
	return TypeFieldcollections
}

func (f *Fieldcollections) isAllowed(typ string) bool {
	return len(f.AllowedTypes) == 0 || slices.Contains(f.AllowedTypes, typ)
}

func (f *Fieldcollections) Decode(raw json.RawMessage) (any, error) {
	if isNull(raw) {
		return nil, nil
	}
	var stored []storedItem
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, err
	}

	fc := Fieldcollection{Items: make([]CollectionItem, 0, len(stored))}
	for i, si := range stored {
		item := CollectionItem{Type: si.Type, Index: si.Index, Values: make(map[string]any)}
		def, ok := f.collections.Lookup(si.Type)
		if !ok {
			item.raw = si.Values
			fc.Items = append(fc.Items, item)
			continue
		}
		for _, fd := range def.Fields {
			data, ok := si.Values[fd.Name()]
			if !ok {
				continue
			}
			v, err := fd.Decode(data)
			if err != nil {
				return nil, fmt.Errorf("item %d (%s), field '%s': %w", i, si.Type, fd.Name(), err)
			}
			if v != nil {
				item.Values[fd.Name()] = v
			}
		}
		fc.Items = append(fc.Items, item)
	}
	return fc, nil
}

func (f *Fieldcollections) Encode(value any) (json.RawMessage, error) {
	if value == nil {
		return null, nil
	}
	fc, ok := value.(Fieldcollection)
	if !ok {
		return nil, fmt.Errorf("unexpected value type %T for %s field", value, TypeFieldcollections)
	}

	stored := make([]storedItem, 0, len(fc.Items))
	for i, item := range fc.Items {
		si := storedItem{Type: item.Type, Index: item.Index}
		def, ok := f.collections.Lookup(item.Type)
		if !ok {
			si.Values = item.raw
			stored = append(stored, si)
			continue
		}
		si.Values = make(map[string]json.RawMessage, len(item.Values))
		for _, fd := range def.Fields {
			v, ok := item.Values[fd.Name()]
			if !ok {
				continue
			}
			data, err := fd.Encode(v)
			if err != nil {
				return nil, fmt.Errorf("item %d (%s), field '%s': %w", i, item.Type, fd.Name(), err)
			}
			si.Values[fd.Name()] = data
		}
		stored = append(stored, si)
	}
	return json.Marshal(stored)
}

func (f *Fieldcollections) IsEmpty(value any) bool {
	fc, ok := value.(Fieldcollection)
	return !ok || len(fc.Items) == 0
}

func (f *Fieldcollections) Validate(value any, omitMandatory bool) error {
	if err := f.checkMandatory(f.IsEmpty(value), omitMandatory); err != nil {
		return err
	}
	if value == nil {
		return nil
	}
	fc, ok := value.(Fieldcollection)
	if !ok {
		return f.invalid(value, "unexpected type")
	}
	if f.MaxItems > 0 && len(fc.Items) > f.MaxItems {
		return f.invalid(value, fmt.Sprintf("%d items exceed maximum of %d", len(fc.Items), f.MaxItems))
	}
	for i, item := range fc.Items {
		if !f.isAllowed(item.Type) {
			return f.invalid(value, fmt.Sprintf("item %d: type '%s' is not allowed", i, item.Type))
		}
		def, ok := f.collections.Lookup(item.Type)
		if !ok {
			return f.invalid(value, fmt.Sprintf("item %d: unknown collection '%s'", i, item.Type))
		}
		for _, fd := range def.Fields {
			if err := fd.Validate(item.Values[fd.Name()], omitMandatory); err != nil {
				return fmt.Errorf("field '%s' item %d: %w", f.FieldName, i, err)
			}
		}
	}
	return nil
}

// each runs fn for every child field value of items with known collection
// type, items of unknown types are left alone.
func (f *Fieldcollections) each(fc Fieldcollection, fn func(fd Definition, v any) (any, error)) (Fieldcollection, error) {
	out := Fieldcollection{Items: make([]CollectionItem, 0, len(fc.Items))}
	for _, item := range fc.Items {
		def, ok := f.collections.Lookup(item.Type)
		if !ok {
			out.Items = append(out.Items, item)
			continue
		}
		item = item.clone()
		for _, fd := range def.Fields {
			v, ok := item.Values[fd.Name()]
			if !ok {
				continue
			}
			nv, err := fn(fd, v)
			if err != nil {
				return fc, err
			}
			if nv == nil {
				delete(item.Values, fd.Name())
			} else {
				item.Values[fd.Name()] = nv
			}
		}
		out.Items = append(out.Items, item)
	}
	return out, nil
}

func (f *Fieldcollections) RewriteIDs(value any, m element.Mapping) any {
	fc, ok := value.(Fieldcollection)
	if !ok {
		return value
	}
	out, _ := f.each(fc, func(fd Definition, v any) (any, error) {
		return RewriteIDs(fd, v, m), nil
	})
	return out
}

func (f *Fieldcollections) ResolveDependencies(value any) element.Dependencies {
	deps := element.NewDependencies()
	fc, ok := value.(Fieldcollection)
	if !ok {
		return deps
	}
	_, _ = f.each(fc, func(fd Definition, v any) (any, error) {
		deps.Merge(ResolveDependencies(fd, v))
		return v, nil
	})
	return deps
}

func (f *Fieldcollections) Sanitize(ctx context.Context, value any, finder element.Finder) (any, int, error) {
	fc, ok := value.(Fieldcollection)
	if !ok {
		return value, 0, nil
	}
	var removed int
	out, err := f.each(fc, func(fd Definition, v any) (any, error) {
		nv, n, err := Sanitize(ctx, fd, v, finder)
		removed += n
		return nv, err
	})
	if err != nil {
		return value, 0, err
	}
	return out, removed, nil
}
