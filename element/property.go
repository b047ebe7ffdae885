package element

// Property is a named value attached to an element. Properties of type
// document, asset and object keep element id in Data.
type Property struct {
	Name        string `json:"name" yaml:"name"`
	Type        string `json:"type" yaml:"type"`
	Data        any    `json:"data,omitempty" yaml:"data,omitempty"`
	Inheritable bool   `json:"inheritable,omitempty" yaml:"inheritable,omitempty"`
}

// Ref returns reference carried by the property, if any.
func (p Property) Ref() (Ref, bool) {
	t, ok := ParseTypeName(p.Type)
	if !ok {
		return Ref{}, false
	}
	id, ok := ToID(p.Data)
	if !ok {
		return Ref{}, false
	}
	return Ref{Type: t, ID: id}, true
}

// RewriteProperties translates element ids kept in properties in place and
// returns number of changed properties.
func RewriteProperties(props []Property, m Mapping) int {
	var n int
	for i := range props {
		ref, ok := props[i].Ref()
		if !ok {
			continue
		}
		if to, ok := m.Apply(ref); ok {
			props[i].Data = to.ID
			n++
		}
	}
	return n
}

// PropertyDependencies lists references kept in properties.
func PropertyDependencies(props []Property) Dependencies {
	deps := NewDependencies()
	for _, p := range props {
		if ref, ok := p.Ref(); ok {
			deps.Add(ref)
		}
	}
	return deps
}

// SanitizeProperties drops properties pointing to elements which do not
// exist. Returns cleaned slice and number of removed properties.
func SanitizeProperties(props []Property, exists func(Ref) (bool, error)) ([]Property, int, error) {
	out := make([]Property, 0, len(props))
	var removed int
	for _, p := range props {
		if ref, ok := p.Ref(); ok {
			found, err := exists(ref)
			if err != nil {
				return props, 0, err
			}
			if !found {
				removed++
				continue
			}
		}
		out = append(out, p)
	}
	return out, removed, nil
}
