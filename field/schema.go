package field

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	yaml "gopkg.in/yaml.v3"
)

// ClassDefinition describes data objects of a class.
type ClassDefinition struct {
	ID     string
	Name   string
	Fields []Definition
}

func (c *ClassDefinition) Field(name string) (Definition, bool) {
	for _, d := range c.Fields {
		if d.Name() == name {
			return d, true
		}
	}
	return nil, false
}

// DecodeValues converts stored field values to object values, values of
// fields not in the class are dropped.
func (c *ClassDefinition) DecodeValues(stored map[string]json.RawMessage) (map[string]any, error) {
	values := make(map[string]any, len(stored))
	for _, fd := range c.Fields {
		raw, ok := stored[fd.Name()]
		if !ok {
			continue
		}
		v, err := fd.Decode(raw)
		if err != nil {
			return nil, fmt.Errorf("class %s, field '%s': %w", c.Name, fd.Name(), err)
		}
		if v != nil {
			values[fd.Name()] = v
		}
	}
	return values, nil
}

func (c *ClassDefinition) EncodeValues(values map[string]any) (map[string]json.RawMessage, error) {
	stored := make(map[string]json.RawMessage, len(values))
	for _, fd := range c.Fields {
		v, ok := values[fd.Name()]
		if !ok {
			continue
		}
		raw, err := fd.Encode(v)
		if err != nil {
			return nil, fmt.Errorf("class %s, field '%s': %w", c.Name, fd.Name(), err)
		}
		stored[fd.Name()] = raw
	}
	return stored, nil
}

// Validate checks all field values of the object.
func (c *ClassDefinition) Validate(values map[string]any, omitMandatory bool) error {
	for _, fd := range c.Fields {
		if err := fd.Validate(values[fd.Name()], omitMandatory); err != nil {
			return fmt.Errorf("class %s: %w", c.Name, err)
		}
	}
	return nil
}

// Schema is a set of classes and field collections known to the program.
type Schema struct {
	Classes     map[string]*ClassDefinition
	Collections Collections

	builder *Builder
}

func NewSchema(reg *Registry) *Schema {
	b := NewBuilder(reg)
	return &Schema{
		Classes:     make(map[string]*ClassDefinition),
		Collections: b.Collections,
		builder:     b,
	}
}

func (s *Schema) Class(name string) (*ClassDefinition, bool) {
	c, ok := s.Classes[name]
	return c, ok
}

// AddClass builds class definition from field specs.
func (s *Schema) AddClass(name, id string, specs ...Spec) (*ClassDefinition, error) {
	if len(name) == 0 {
		return nil, fmt.Errorf("class without name")
	}
	if _, exists := s.Classes[name]; exists {
		return nil, fmt.Errorf("duplicate class '%s'", name)
	}
	fields, err := s.builder.BuildAll(specs)
	if err != nil {
		return nil, fmt.Errorf("class %s: %w", name, err)
	}
	c := &ClassDefinition{ID: id, Name: name, Fields: fields}
	s.Classes[name] = c
	return c, nil
}

// AddCollection builds field collection definition from field specs.
func (s *Schema) AddCollection(key, title string, specs ...Spec) (*CollectionDefinition, error) {
	if len(key) == 0 {
		return nil, fmt.Errorf("field collection without key")
	}
	if _, exists := s.Collections[key]; exists {
		return nil, fmt.Errorf("duplicate field collection '%s'", key)
	}
	fields, err := s.builder.BuildAll(specs)
	if err != nil {
		return nil, fmt.Errorf("field collection %s: %w", key, err)
	}
	for _, fd := range fields {
		if fd.FieldType() == TypeFieldcollections {
			return nil, fmt.Errorf("field collection %s: nested %s field '%s'", key, TypeFieldcollections, fd.Name())
		}
	}
	c := &CollectionDefinition{Key: key, Title: title, Fields: fields}
	s.Collections[key] = c
	return c, nil
}

type schemaFile struct {
	Collections []struct {
		Key    string `yaml:"key"`
		Title  string `yaml:"title,omitempty"`
		Fields []Spec `yaml:"fields"`
	} `yaml:"collections"`
	Classes []struct {
		ID     string `yaml:"id,omitempty"`
		Name   string `yaml:"name"`
		Fields []Spec `yaml:"fields"`
	} `yaml:"classes"`
}

// LoadSchema reads schema description (YAML).
func LoadSchema(r io.Reader, reg *Registry) (*Schema, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("unable to read schema: %w", err)
	}

	var sf schemaFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&sf); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to decode schema: %w", err)
	}

	s := NewSchema(reg)
	for _, c := range sf.Collections {
		if _, err := s.AddCollection(c.Key, c.Title, c.Fields...); err != nil {
			return nil, err
		}
	}
	for _, c := range sf.Classes {
		if _, err := s.AddClass(c.Name, c.ID, c.Fields...); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// LoadSchemaFile reads schema from file, empty path results in empty schema.
func LoadSchemaFile(path string, reg *Registry) (*Schema, error) {
	if len(path) == 0 {
		return NewSchema(reg), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open schema: %w", err)
	}
	defer f.Close()
	return LoadSchema(f, reg)
}
