// Package model defines documents, assets and data objects together with
// walks over their content which rewrite and collect element references.
package model

import (
	"encoding/json"
	"sort"

	"relink/element"
	"relink/tag"
)

// Base is shared by all element kinds.
type Base struct {
	element.Header
	Properties []element.Property
}

func (b *Base) Meta() *Base {
	return b
}

// Element is a document, an asset or a data object.
type Element interface {
	Meta() *Base
}

// Document is a page like element built from named editables.
type Document struct {
	Base
	Editables map[string]tag.Tag
}

// EditableNames returns names of editables in stable order.
func (d *Document) EditableNames() []string {
	names := make([]string, 0, len(d.Editables))
	for n := range d.Editables {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Set adds or replaces editable.
func (d *Document) Set(t tag.Tag) {
	if d.Editables == nil {
		d.Editables = make(map[string]tag.Tag)
	}
	d.Editables[t.Name()] = t
}

// Object is a data object, values are decoded with its class definition.
type Object struct {
	Base
	ClassName string
	Values    map[string]any

	// stored values of object with unknown class
	raw map[string]json.RawMessage
}

// Asset is a file.
type Asset struct {
	Base
	MimeType string
	Data     []byte
}

// New returns empty element of requested type.
func New(t element.Type) Element {
	var el Element
	switch t {
	case element.TypeDocument:
		el = &Document{Editables: make(map[string]tag.Tag)}
	case element.TypeAsset:
		el = &Asset{}
	default:
		el = &Object{Values: make(map[string]any)}
	}
	el.Meta().Ref.Type = t
	return el
}

// Ref returns reference to the element.
func Ref(el Element) element.Ref {
	return el.Meta().Ref
}

func cloneProperties(props []element.Property) []element.Property {
	if props == nil {
		return nil
	}
	out := make([]element.Property, len(props))
	copy(out, props)
	return out
}
