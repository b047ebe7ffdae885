package field

import (
	"context"
	"encoding/json"
	"sort"

	"relink/element"
)

// Column describes single metadata column.
type Column struct {
	Key      string `yaml:"key" json:"key"`
	Label    string `yaml:"label,omitempty" json:"label,omitempty"`
	Type     string `yaml:"type,omitempty" json:"type,omitempty"`
	Position int    `yaml:"position,omitempty" json:"position,omitempty"`
}

// ObjectMetadata is a relation to an object with additional per-relation
// column values.
type ObjectMetadata struct {
	Object    int64             `json:"object"`
	Fieldname string            `json:"fieldname,omitempty"`
	Columns   []string          `json:"columns,omitempty"`
	Data      map[string]string `json:"data,omitempty"`
}

func (o ObjectMetadata) clone() ObjectMetadata {
	c := o
	c.Columns = append([]string(nil), o.Columns...)
	if o.Data != nil {
		c.Data = make(map[string]string, len(o.Data))
		for k, v := range o.Data {
			c.Data[k] = v
		}
	}
	return c
}

type ObjectsMetadata struct {
	Base
	AllowedClassID string
	VisibleFields  []string
	Columns        []Column
}

func newObjectsMetadata(spec *Spec, _ *Builder) (Definition, error) {
	cols := append([]Column(nil), spec.Columns...)
	sort.SliceStable(cols, func(i, j int) bool {
		return cols[i].Position < cols[j].Position
	})
	return &ObjectsMetadata{
		Base:           spec.base(),
		AllowedClassID: spec.AllowedClassID,
		VisibleFields:  spec.VisibleFields,
		Columns:        cols,
	}, nil
}

func (f *ObjectsMetadata) FieldType() string {
	return TypeObjectsMetadata
}

// ColumnKeys returns keys of columns in position order.
func (f *ObjectsMetadata) ColumnKeys() []string {
	keys := make([]string, 0, len(f.Columns))
	for _, c := range f.Columns {
		keys = append(keys, c.Key)
	}
	return keys
}

func (f *ObjectsMetadata) Decode(raw json.RawMessage) (any, error) {
	if isNull(raw) {
		return nil, nil
	}
	var list []ObjectMetadata
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, err
	}

	keys := f.ColumnKeys()
	out := make([]ObjectMetadata, 0, len(list))
	for _, item := range list {
		if item.Object <= 0 {
			continue
		}
		data := make(map[string]string, len(keys))
		for _, k := range keys {
			if v, ok := item.Data[k]; ok {
				data[k] = v
			}
		}
		item.Fieldname = f.FieldName
		item.Columns = keys
		item.Data = data
		out = append(out, item)
	}
	return out, nil
}

func (f *ObjectsMetadata) Encode(value any) (json.RawMessage, error) {
	return encodeAs[[]ObjectMetadata](TypeObjectsMetadata, value)
}

func (f *ObjectsMetadata) IsEmpty(value any) bool {
	list, ok := value.([]ObjectMetadata)
	return !ok || len(list) == 0
}

func (f *ObjectsMetadata) Validate(value any, omitMandatory bool) error {
	if value != nil {
		list, ok := value.([]ObjectMetadata)
		if !ok {
			return f.invalid(value, "unexpected type")
		}
		for _, item := range list {
			if item.Object <= 0 {
				return f.invalid(value, "bad object id")
			}
		}
	}
	return f.checkMandatory(f.IsEmpty(value), omitMandatory)
}

func (f *ObjectsMetadata) RewriteIDs(value any, m element.Mapping) any {
	list, ok := value.([]ObjectMetadata)
	if !ok {
		return value
	}
	out := make([]ObjectMetadata, len(list))
	for i, item := range list {
		out[i] = item.clone()
		out[i].Object, _ = m.Lookup(element.TypeObject, item.Object)
	}
	return out
}

func (f *ObjectsMetadata) ResolveDependencies(value any) element.Dependencies {
	deps := element.NewDependencies()
	if list, ok := value.([]ObjectMetadata); ok {
		for _, item := range list {
			deps.Add(element.NewRef(element.TypeObject, item.Object))
		}
	}
	return deps
}

func (f *ObjectsMetadata) Sanitize(ctx context.Context, value any, finder element.Finder) (any, int, error) {
	list, ok := value.([]ObjectMetadata)
	if !ok {
		return value, 0, nil
	}
	out := make([]ObjectMetadata, 0, len(list))
	for _, item := range list {
		found, err := element.Exists(ctx, finder, element.NewRef(element.TypeObject, item.Object))
		if err != nil {
			return value, 0, err
		}
		if found {
			out = append(out, item)
		}
	}
	return out, len(list) - len(out), nil
}
