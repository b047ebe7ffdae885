package field

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"relink/element"
)

type fakeFinder map[element.Ref]bool

func (f fakeFinder) Find(_ context.Context, ref element.Ref) (*element.Header, error) {
	if f[ref] {
		return &element.Header{Ref: ref}, nil
	}
	return nil, fmt.Errorf("%s: %w", ref, element.ErrNotFound)
}

func (f fakeFinder) FindByPath(_ context.Context, _ element.Type, path string) (*element.Header, error) {
	return nil, fmt.Errorf("%s: %w", path, element.ErrNotFound)
}

const testSchema = `
collections:
  - key: teaser
    fields:
      - {fieldtype: input, name: headline, mandatory: true}
      - {fieldtype: link, name: target}
      - {fieldtype: image, name: picture}
      - {fieldtype: wysiwyg, name: body}
  - key: gallery
    fields:
      - {fieldtype: multihref, name: images, types: [asset]}
classes:
  - name: Product
    id: "1"
    fields:
      - {fieldtype: input, name: name, mandatory: true}
      - fieldtype: select
        name: color
        defaultValue: red
        options:
          - {key: Red, value: red}
          - {key: Blue, value: blue}
      - {fieldtype: href, name: manual, types: [document, asset]}
      - {fieldtype: objects, name: accessories}
      - fieldtype: objectsMetadata
        name: related
        allowedClassId: Product
        columns:
          - {key: note, position: 2}
          - {key: qty, position: 1}
      - {fieldtype: fieldcollections, name: blocks, allowedTypes: [teaser, gallery], maxItems: 3}
      - fieldtype: localizedfields
        name: localized
        languages: [en, de]
        children:
          - {fieldtype: input, name: title}
          - {fieldtype: link, name: more}
          - {fieldtype: wysiwyg, name: text}
`

func loadTestSchema(t *testing.T) *Schema {
	t.Helper()
	s, err := LoadSchema(strings.NewReader(testSchema), NewRegistry())
	if err != nil {
		t.Fatalf("LoadSchema() error = %v", err)
	}
	return s
}

func testField(t *testing.T, name string) Definition {
	t.Helper()
	c, ok := loadTestSchema(t).Class("Product")
	if !ok {
		t.Fatal("class Product not found")
	}
	fd, ok := c.Field(name)
	if !ok {
		t.Fatalf("field %s not found", name)
	}
	return fd
}

func mappingFrom(deps element.Dependencies, offset int64) element.Mapping {
	m := element.NewMapping()
	for _, r := range deps.Refs() {
		m.Add(r.Type, r.ID, r.ID+offset)
	}
	return m
}
