package field

import (
	"fmt"
	"sort"
)

// Spec is declarative description of a field as it comes from schema file.
// Only attributes relevant to the field type are used.
type Spec struct {
	Type      string `yaml:"fieldtype"`
	Name      string `yaml:"name"`
	Title     string `yaml:"title,omitempty"`
	Mandatory bool   `yaml:"mandatory,omitempty"`

	// select
	Options      []Option `yaml:"options,omitempty"`
	DefaultValue string   `yaml:"defaultValue,omitempty"`

	// href, multihref
	Types []string `yaml:"types,omitempty"`

	// objectsMetadata
	AllowedClassID string   `yaml:"allowedClassId,omitempty"`
	VisibleFields  []string `yaml:"visibleFields,omitempty"`
	Columns        []Column `yaml:"columns,omitempty"`

	// fieldcollections
	AllowedTypes []string `yaml:"allowedTypes,omitempty"`
	MaxItems     int      `yaml:"maxItems,omitempty"`
	LazyLoading  bool     `yaml:"lazyLoading,omitempty"`

	// localizedfields
	Languages []string `yaml:"languages,omitempty"`
	Children  []Spec   `yaml:"children,omitempty"`
}

func (s *Spec) base() Base {
	return Base{FieldName: s.Name, Title: s.Title, Mandatory: s.Mandatory}
}

// Constructor creates definition from its spec.
type Constructor func(spec *Spec, b *Builder) (Definition, error)

// Registry knows how to construct definitions for field type tags.
type Registry struct {
	ctors map[string]Constructor
}

// NewRegistry returns registry with all built-in field types.
func NewRegistry() *Registry {
	r := &Registry{ctors: make(map[string]Constructor)}
	r.Register(TypeInput, newInput)
	r.Register(TypeTextarea, newTextarea)
	r.Register(TypeNumeric, newNumeric)
	r.Register(TypeCheckbox, newCheckbox)
	r.Register(TypeSelect, newSelect)
	r.Register(TypeLink, newLink)
	r.Register(TypeHref, newHref)
	r.Register(TypeMultiHref, newMultiHref)
	r.Register(TypeObjects, newObjects)
	r.Register(TypeObjectsMetadata, newObjectsMetadata)
	r.Register(TypeImage, newImage)
	r.Register(TypeWysiwyg, newWysiwyg)
	r.Register(TypeFieldcollections, newFieldcollections)
	r.Register(TypeLocalizedfields, newLocalizedfields)
	return r
}

// Register adds or replaces constructor for the tag.
func (r *Registry) Register(tag string, c Constructor) {
	r.ctors[tag] = c
}

func (r *Registry) Lookup(tag string) (Constructor, bool) {
	c, ok := r.ctors[tag]
	return c, ok
}

// Tags returns sorted list of known field types.
func (r *Registry) Tags() []string {
	tags := make([]string, 0, len(r.ctors))
	for t := range r.ctors {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags
}

// Builder constructs definitions, nested definitions are built with the
// same registry. Collections is shared by all field collection fields and
// could be filled after they are built.
type Builder struct {
	Registry    *Registry
	Collections Collections
}

func NewBuilder(reg *Registry) *Builder {
	if reg == nil {
		reg = NewRegistry()
	}
	return &Builder{Registry: reg, Collections: make(Collections)}
}

// Build creates definition for spec.
func (b *Builder) Build(spec *Spec) (Definition, error) {
	if len(spec.Name) == 0 {
		return nil, fmt.Errorf("field of type '%s' has no name", spec.Type)
	}
	ctor, ok := b.Registry.Lookup(spec.Type)
	if !ok {
		return nil, fmt.Errorf("field '%s': unknown field type '%s'", spec.Name, spec.Type)
	}
	d, err := ctor(spec, b)
	if err != nil {
		return nil, fmt.Errorf("field '%s': %w", spec.Name, err)
	}
	return d, nil
}

// BuildAll builds list of definitions making sure names are unique.
func (b *Builder) BuildAll(specs []Spec) ([]Definition, error) {
	defs := make([]Definition, 0, len(specs))
	seen := make(map[string]struct{}, len(specs))
	for i := range specs {
		if _, dup := seen[specs[i].Name]; dup {
			return nil, fmt.Errorf("duplicate field '%s'", specs[i].Name)
		}
		seen[specs[i].Name] = struct{}{}
		d, err := b.Build(&specs[i])
		if err != nil {
			return nil, err
		}
		defs = append(defs, d)
	}
	return defs, nil
}
