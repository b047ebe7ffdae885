package field

import (
	"encoding/json"
)

const (
	TypeInput            = "input"
	TypeTextarea         = "textarea"
	TypeNumeric          = "numeric"
	TypeCheckbox         = "checkbox"
	TypeSelect           = "select"
	TypeLink             = "link"
	TypeHref             = "href"
	TypeMultiHref        = "multihref"
	TypeObjects          = "objects"
	TypeObjectsMetadata  = "objectsMetadata"
	TypeImage            = "image"
	TypeWysiwyg          = "wysiwyg"
	TypeFieldcollections = "fieldcollections"
	TypeLocalizedfields  = "localizedfields"
)

// Scalar is a field without references.
type Scalar[T comparable] struct {
	Base
	kind  string
	empty func(T) bool
}

func (s *Scalar[T]) FieldType() string {
	return s.kind
}

func (s *Scalar[T]) Decode(raw json.RawMessage) (any, error) {
	return decodeAs[T](raw)
}

func (s *Scalar[T]) Encode(value any) (json.RawMessage, error) {
	return encodeAs[T](s.kind, value)
}

func (s *Scalar[T]) IsEmpty(value any) bool {
	v, ok := value.(T)
	if !ok {
		return true
	}
	return s.empty != nil && s.empty(v)
}

func (s *Scalar[T]) Validate(value any, omitMandatory bool) error {
	if value != nil {
		if _, ok := value.(T); !ok {
			return s.invalid(value, "unexpected type")
		}
	}
	return s.checkMandatory(s.IsEmpty(value), omitMandatory)
}

func emptyString(s string) bool {
	return len(s) == 0
}

func newInput(spec *Spec, _ *Builder) (Definition, error) {
	return &Scalar[string]{Base: spec.base(), kind: TypeInput, empty: emptyString}, nil
}

func newTextarea(spec *Spec, _ *Builder) (Definition, error) {
	return &Scalar[string]{Base: spec.base(), kind: TypeTextarea, empty: emptyString}, nil
}

func newNumeric(spec *Spec, _ *Builder) (Definition, error) {
	return &Scalar[float64]{Base: spec.base(), kind: TypeNumeric}, nil
}

func newCheckbox(spec *Spec, _ *Builder) (Definition, error) {
	return &Scalar[bool]{Base: spec.base(), kind: TypeCheckbox}, nil
}
