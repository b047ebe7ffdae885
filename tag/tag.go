// Package tag implements document editables. Editables which may refer to
// other elements take part in id rewriting and dependency resolution.
package tag

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"relink/element"
)

// Tag is a named editable of a document.
type Tag interface {
	Type() string
	Name() string
	IsEmpty() bool
	Unmarshal(raw json.RawMessage) error
	Marshal() (json.RawMessage, error)
}

// IDRewriter translates mapped references in place, unmapped references are
// not touched.
type IDRewriter interface {
	RewriteIDs(m element.Mapping)
}

// DependencyResolver lists references editable carries. Every IDRewriter is
// a DependencyResolver for the same set of references.
type DependencyResolver interface {
	ResolveDependencies() element.Dependencies
}

// Validator drops references to elements which do not exist. It reports
// false when data had to be changed.
type Validator interface {
	CheckValidity(ctx context.Context, f element.Finder, log *zap.Logger) (bool, error)
}

// PathRefresher keeps cached path of referenced element, which goes stale
// once reference is rewritten.
type PathRefresher interface {
	RefreshPath(ctx context.Context, f element.Finder) error
}

func RewriteIDs(t Tag, m element.Mapping) {
	if r, ok := t.(IDRewriter); ok {
		r.RewriteIDs(m)
	}
}

func ResolveDependencies(t Tag) element.Dependencies {
	if r, ok := t.(DependencyResolver); ok {
		return r.ResolveDependencies()
	}
	return element.NewDependencies()
}

func RefreshPath(ctx context.Context, t Tag, f element.Finder) error {
	if r, ok := t.(PathRefresher); ok {
		return r.RefreshPath(ctx, f)
	}
	return nil
}

func CheckValidity(ctx context.Context, t Tag, f element.Finder, log *zap.Logger) (bool, error) {
	if v, ok := t.(Validator); ok {
		return v.CheckValidity(ctx, f, log)
	}
	return true, nil
}

const (
	TypeInput     = "input"
	TypeTextarea  = "textarea"
	TypeLink      = "link"
	TypeRenderlet = "renderlet"
	TypeHref      = "href"
	TypeImage     = "image"
	TypeSnippet   = "snippet"
	TypeVideo     = "video"
	TypeWysiwyg   = "wysiwyg"
)

// Constructor creates empty editable with given name.
type Constructor func(name string) Tag

// registry is filled at startup, Register must not be called concurrently
// with New.
var registry = map[string]Constructor{
	TypeInput:     func(name string) Tag { return &Text{base: base{name}, kind: TypeInput} },
	TypeTextarea:  func(name string) Tag { return &Text{base: base{name}, kind: TypeTextarea} },
	TypeLink:      func(name string) Tag { return &Link{base: base{name}} },
	TypeRenderlet: func(name string) Tag { return &Relation{base: base{name}, kind: TypeRenderlet} },
	TypeHref:      func(name string) Tag { return &Relation{base: base{name}, kind: TypeHref} },
	TypeImage:     func(name string) Tag { return &Image{base: base{name}} },
	TypeSnippet:   func(name string) Tag { return &Snippet{base: base{name}} },
	TypeVideo:     func(name string) Tag { return &Video{base: base{name}} },
	TypeWysiwyg:   func(name string) Tag { return &Wysiwyg{base: base{name}} },
}

// Register adds or replaces constructor for editable type.
func Register(typ string, c Constructor) {
	registry[typ] = c
}

// Types returns sorted list of known editable types.
func Types() []string {
	types := make([]string, 0, len(registry))
	for t := range registry {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// New creates empty editable of requested type.
func New(typ, name string) (Tag, error) {
	c, ok := registry[typ]
	if !ok {
		return nil, fmt.Errorf("unknown editable type '%s' for '%s'", typ, name)
	}
	return c(name), nil
}

// Decode creates editable of requested type from its stored data.
func Decode(typ, name string, raw json.RawMessage) (Tag, error) {
	t, err := New(typ, name)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return t, nil
	}
	if err := t.Unmarshal(raw); err != nil {
		return nil, fmt.Errorf("editable '%s' (%s): %w", name, typ, err)
	}
	return t, nil
}

type base struct {
	name string
}

func (b *base) Name() string {
	return b.name
}

func isNull(raw json.RawMessage) bool {
	s := string(raw)
	return len(s) == 0 || s == "null"
}

// missing reports whether referenced element does not exist.
func missing(ctx context.Context, f element.Finder, ref element.Ref) (bool, error) {
	found, err := element.Exists(ctx, f, ref)
	if err != nil {
		return false, err
	}
	return !found, nil
}

func logInvalid(log *zap.Logger, t Tag, ref element.Ref) {
	if log == nil {
		return
	}
	log.Warn("Detected invalid relation, removing reference to non existent element",
		zap.String("editable", t.Name()), zap.String("type", t.Type()), zap.Stringer("ref", ref))
}
