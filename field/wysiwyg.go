package field

import (
	"encoding/json"

	"relink/element"
	"relink/richtext"
)

// Wysiwyg is rich text, it refers to elements from links and images.
type Wysiwyg struct {
	Base
}

func newWysiwyg(spec *Spec, _ *Builder) (Definition, error) {
	return &Wysiwyg{Base: spec.base()}, nil
}

func (f *Wysiwyg) FieldType() string {
	return TypeWysiwyg
}

func (f *Wysiwyg) Decode(raw json.RawMessage) (any, error) {
	return decodeAs[string](raw)
}

func (f *Wysiwyg) Encode(value any) (json.RawMessage, error) {
	return encodeAs[string](TypeWysiwyg, value)
}

func (f *Wysiwyg) IsEmpty(value any) bool {
	s, ok := value.(string)
	return !ok || len(s) == 0
}

func (f *Wysiwyg) Validate(value any, omitMandatory bool) error {
	if value != nil {
		if _, ok := value.(string); !ok {
			return f.invalid(value, "unexpected type")
		}
	}
	return f.checkMandatory(f.IsEmpty(value), omitMandatory)
}

func (f *Wysiwyg) RewriteIDs(value any, m element.Mapping) any {
	s, ok := value.(string)
	if !ok {
		return value
	}
	return richtext.Rewrite(s, m)
}

func (f *Wysiwyg) ResolveDependencies(value any) element.Dependencies {
	s, ok := value.(string)
	if !ok {
		return element.NewDependencies()
	}
	return richtext.References(s)
}
