package model

import (
	"encoding/json"
	"fmt"

	"relink/field"
	"relink/tag"
)

type storedEditable struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type documentContent struct {
	Editables map[string]storedEditable `json:"editables,omitempty"`
}

type objectContent struct {
	Fields map[string]json.RawMessage `json:"fields,omitempty"`
}

type assetContent struct {
	MimeType string `json:"mime_type,omitempty"`
}

// EncodeContent returns stored representation of element content. Header,
// properties and asset data are kept separately.
func EncodeContent(s *field.Schema, el Element) (json.RawMessage, error) {
	switch e := el.(type) {
	case *Document:
		dc := documentContent{Editables: make(map[string]storedEditable, len(e.Editables))}
		for _, name := range e.EditableNames() {
			t := e.Editables[name]
			data, err := t.Marshal()
			if err != nil {
				return nil, fmt.Errorf("document %s, editable '%s': %w", Ref(el), name, err)
			}
			dc.Editables[name] = storedEditable{Type: t.Type(), Data: data}
		}
		return json.Marshal(dc)
	case *Object:
		oc := objectContent{}
		if class, ok := s.Class(e.ClassName); ok {
			fields, err := class.EncodeValues(e.Values)
			if err != nil {
				return nil, fmt.Errorf("object %s: %w", Ref(el), err)
			}
			oc.Fields = fields
		} else {
			oc.Fields = e.raw
		}
		return json.Marshal(oc)
	case *Asset:
		return json.Marshal(assetContent{MimeType: e.MimeType})
	default:
		return nil, fmt.Errorf("unsupported element %T", el)
	}
}

// DecodeContent fills element content from its stored representation, for
// objects class name must be already set.
func DecodeContent(s *field.Schema, el Element, raw json.RawMessage) error {
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}
	switch e := el.(type) {
	case *Document:
		var dc documentContent
		if err := json.Unmarshal(raw, &dc); err != nil {
			return fmt.Errorf("document %s: %w", Ref(el), err)
		}
		e.Editables = make(map[string]tag.Tag, len(dc.Editables))
		for name, se := range dc.Editables {
			t, err := tag.Decode(se.Type, name, se.Data)
			if err != nil {
				return fmt.Errorf("document %s: %w", Ref(el), err)
			}
			e.Editables[name] = t
		}
	case *Object:
		var oc objectContent
		if err := json.Unmarshal(raw, &oc); err != nil {
			return fmt.Errorf("object %s: %w", Ref(el), err)
		}
		e.raw = nil
		class, ok := s.Class(e.ClassName)
		if !ok {
			e.Values = make(map[string]any)
			e.raw = oc.Fields
			return nil
		}
		values, err := class.DecodeValues(oc.Fields)
		if err != nil {
			return fmt.Errorf("object %s: %w", Ref(el), err)
		}
		e.Values = values
	case *Asset:
		var ac assetContent
		if err := json.Unmarshal(raw, &ac); err != nil {
			return fmt.Errorf("asset %s: %w", Ref(el), err)
		}
		e.MimeType = ac.MimeType
	default:
		return fmt.Errorf("unsupported element %T", el)
	}
	return nil
}

// Clone returns deep copy of the element.
func Clone(s *field.Schema, el Element) (Element, error) {
	content, err := EncodeContent(s, el)
	if err != nil {
		return nil, err
	}
	c := New(Ref(el).Type)
	*c.Meta() = Base{Header: el.Meta().Header, Properties: cloneProperties(el.Meta().Properties)}
	switch e := el.(type) {
	case *Object:
		o := c.(*Object)
		o.ClassName = e.ClassName
	case *Asset:
		c.(*Asset).Data = append([]byte(nil), e.Data...)
	}
	if err := DecodeContent(s, c, content); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks object values against class definition, other elements
// are always valid. Mandatory fields are only enforced for published objects.
func Validate(s *field.Schema, el Element) error {
	o, ok := el.(*Object)
	if !ok {
		return nil
	}
	class, ok := s.Class(o.ClassName)
	if !ok {
		return fmt.Errorf("object %s: unknown class '%s'", Ref(el), o.ClassName)
	}
	return class.Validate(o.Values, !o.Published)
}
