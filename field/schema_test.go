package field

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func TestLoadSchema(t *testing.T) {
	s := loadTestSchema(t)

	c, ok := s.Class("Product")
	if !ok {
		t.Fatal("Class(Product) not found")
	}
	if c.ID != "1" || len(c.Fields) != 7 {
		t.Errorf("class = %s/%s with %d fields", c.ID, c.Name, len(c.Fields))
	}
	if _, ok := s.Collections.Lookup("teaser"); !ok {
		t.Error("collection teaser not found")
	}
	if _, ok := s.Class("Missing"); ok {
		t.Error("Class(Missing) found")
	}
}

func TestLoadSchemaErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown field type", "classes:\n  - name: A\n    fields:\n      - {fieldtype: color, name: c}\n"},
		{"duplicate field", "classes:\n  - name: A\n    fields:\n      - {fieldtype: input, name: c}\n      - {fieldtype: input, name: c}\n"},
		{"duplicate class", "classes:\n  - name: A\n  - name: A\n"},
		{"unknown attribute", "classes:\n  - name: A\n    color: red\n"},
		{"field without name", "classes:\n  - name: A\n    fields:\n      - {fieldtype: input}\n"},
		{"nested collections", "collections:\n  - key: k\n    fields:\n      - {fieldtype: fieldcollections, name: f}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadSchema(strings.NewReader(tt.yaml), nil); err == nil {
				t.Error("LoadSchema() expected error")
			}
		})
	}
}

func TestClassValues(t *testing.T) {
	c, _ := loadTestSchema(t).Class("Product")

	stored := map[string]json.RawMessage{
		"name":        json.RawMessage(`"Widget"`),
		"accessories": json.RawMessage(`[1,"2",0]`),
		"obsolete":    json.RawMessage(`true`),
	}
	values, err := c.DecodeValues(stored)
	if err != nil {
		t.Fatalf("DecodeValues() error = %v", err)
	}
	want := map[string]any{"name": "Widget", "accessories": []int64{1, 2}}
	if !reflect.DeepEqual(values, want) {
		t.Errorf("DecodeValues() = %#v, want %#v", values, want)
	}

	enc, err := c.EncodeValues(values)
	if err != nil {
		t.Fatalf("EncodeValues() error = %v", err)
	}
	if string(enc["accessories"]) != "[1,2]" {
		t.Errorf("EncodeValues() accessories = %s", enc["accessories"])
	}

	if err := c.Validate(map[string]any{}, false); err == nil {
		t.Error("Validate() expected mandatory error for name")
	}
	if err := c.Validate(values, false); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}
