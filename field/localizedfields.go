package field

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sort"

	"golang.org/x/text/language"

	"relink/element"
)

// Localized is value of localizedfields field: language -> field -> value.
type Localized map[string]map[string]any

// Languages returns sorted list of languages present in value.
func (l Localized) Languages() []string {
	langs := make([]string, 0, len(l))
	for k := range l {
		langs = append(langs, k)
	}
	sort.Strings(langs)
	return langs
}

type Localizedfields struct {
	Base
	Children  []Definition
	Languages []string
}

func canonicalLanguage(code string) (string, error) {
	tag, err := language.Parse(code)
	if err != nil {
		return "", fmt.Errorf("bad language code '%s': %w", code, err)
	}
	return tag.String(), nil
}

func newLocalizedfields(spec *Spec, b *Builder) (Definition, error) {
	children, err := b.BuildAll(spec.Children)
	if err != nil {
		return nil, err
	}
	for _, c := range children {
		if c.FieldType() == TypeLocalizedfields {
			return nil, fmt.Errorf("nested %s field '%s'", TypeLocalizedfields, c.Name())
		}
	}
	langs := make([]string, 0, len(spec.Languages))
	for _, code := range spec.Languages {
		l, err := canonicalLanguage(code)
		if err != nil {
			return nil, err
		}
		langs = append(langs, l)
	}
	return &Localizedfields{Base: spec.base(), Children: children, Languages: langs}, nil
}

func (f *Localizedfields) FieldType() string {
	return TypeLocalizedfields
}

func (f *Localizedfields) Child(name string) (Definition, bool) {
	for _, d := range f.Children {
		if d.Name() == name {
			return d, true
		}
	}
	return nil, false
}

func (f *Localizedfields) Decode(raw json.RawMessage) (any, error) {
	if isNull(raw) {
		return nil, nil
	}
	var stored map[string]map[string]json.RawMessage
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, err
	}
	out := make(Localized, len(stored))
	for code, values := range stored {
		lang, err := canonicalLanguage(code)
		if err != nil {
			return nil, err
		}
		decoded := make(map[string]any, len(values))
		for _, fd := range f.Children {
			data, ok := values[fd.Name()]
			if !ok {
				continue
			}
			v, err := fd.Decode(data)
			if err != nil {
				return nil, fmt.Errorf("language %s, field '%s': %w", lang, fd.Name(), err)
			}
			if v != nil {
				decoded[fd.Name()] = v
			}
		}
		out[lang] = decoded
	}
	return out, nil
}

func (f *Localizedfields) Encode(value any) (json.RawMessage, error) {
	if value == nil {
		return null, nil
	}
	l, ok := value.(Localized)
	if !ok {
		return nil, fmt.Errorf("unexpected value type %T for %s field", value, TypeLocalizedfields)
	}
	stored := make(map[string]map[string]json.RawMessage, len(l))
	for lang, values := range l {
		enc := make(map[string]json.RawMessage, len(values))
		for _, fd := range f.Children {
			v, ok := values[fd.Name()]
			if !ok {
				continue
			}
			data, err := fd.Encode(v)
			if err != nil {
				return nil, fmt.Errorf("language %s, field '%s': %w", lang, fd.Name(), err)
			}
			enc[fd.Name()] = data
		}
		stored[lang] = enc
	}
	return json.Marshal(stored)
}

func (f *Localizedfields) IsEmpty(value any) bool {
	l, ok := value.(Localized)
	if !ok {
		return true
	}
	for _, values := range l {
		for _, fd := range f.Children {
			if v, ok := values[fd.Name()]; ok && !fd.IsEmpty(v) {
				return false
			}
		}
	}
	return true
}

func (f *Localizedfields) Validate(value any, omitMandatory bool) error {
	if value == nil {
		return nil
	}
	l, ok := value.(Localized)
	if !ok {
		return f.invalid(value, "unexpected type")
	}
	for _, lang := range l.Languages() {
		if len(f.Languages) > 0 && !slices.Contains(f.Languages, lang) {
			return f.invalid(value, "language '"+lang+"' is not configured")
		}
		for _, fd := range f.Children {
			if err := fd.Validate(l[lang][fd.Name()], omitMandatory); err != nil {
				return fmt.Errorf("language %s: %w", lang, err)
			}
		}
	}
	return nil
}

func (f *Localizedfields) each(l Localized, fn func(fd Definition, v any) (any, error)) (Localized, error) {
	out := make(Localized, len(l))
	for lang, values := range l {
		nvalues := make(map[string]any, len(values))
		for k, v := range values {
			nvalues[k] = v
		}
		for _, fd := range f.Children {
			v, ok := values[fd.Name()]
			if !ok {
				continue
			}
			nv, err := fn(fd, v)
			if err != nil {
				return l, err
			}
			if nv == nil {
				delete(nvalues, fd.Name())
			} else {
				nvalues[fd.Name()] = nv
			}
		}
		out[lang] = nvalues
	}
	return out, nil
}

func (f *Localizedfields) RewriteIDs(value any, m element.Mapping) any {
	l, ok := value.(Localized)
	if !ok {
		return value
	}
	out, _ := f.each(l, func(fd Definition, v any) (any, error) {
		return RewriteIDs(fd, v, m), nil
	})
	return out
}

func (f *Localizedfields) ResolveDependencies(value any) element.Dependencies {
	deps := element.NewDependencies()
	l, ok := value.(Localized)
	if !ok {
		return deps
	}
	_, _ = f.each(l, func(fd Definition, v any) (any, error) {
		deps.Merge(ResolveDependencies(fd, v))
		return v, nil
	})
	return deps
}

func (f *Localizedfields) Sanitize(ctx context.Context, value any, finder element.Finder) (any, int, error) {
	l, ok := value.(Localized)
	if !ok {
		return value, 0, nil
	}
	var removed int
	out, err := f.each(l, func(fd Definition, v any) (any, error) {
		nv, n, err := Sanitize(ctx, fd, v, finder)
		removed += n
		return nv, err
	})
	if err != nil {
		return value, 0, err
	}
	return out, removed, nil
}
