package model

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"relink/element"
	"relink/field"
	"relink/tag"
)

// Walker visits every reference an element carries: its properties,
// document editables and object field values.
type Walker struct {
	schema *field.Schema
	log    *zap.Logger
}

func NewWalker(schema *field.Schema, log *zap.Logger) *Walker {
	if schema == nil {
		schema = field.NewSchema(nil)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Walker{schema: schema, log: log.Named("walker")}
}

func (w *Walker) Schema() *field.Schema {
	return w.schema
}

func (w *Walker) class(o *Object) (*field.ClassDefinition, bool) {
	class, ok := w.schema.Class(o.ClassName)
	if !ok {
		w.log.Warn("Unknown class, object fields are left untouched",
			zap.Stringer("object", o.Ref), zap.String("class", o.ClassName))
	}
	return class, ok
}

// RewriteIDs translates every mapped reference inside the element content.
// Element own id and parent are not changed, see RewriteSelf.
func (w *Walker) RewriteIDs(el Element, m element.Mapping) {
	element.RewriteProperties(el.Meta().Properties, m)

	switch e := el.(type) {
	case *Document:
		for _, name := range e.EditableNames() {
			tag.RewriteIDs(e.Editables[name], m)
		}
	case *Object:
		class, ok := w.class(e)
		if !ok {
			return
		}
		for _, fd := range class.Fields {
			v, ok := e.Values[fd.Name()]
			if !ok {
				continue
			}
			e.Values[fd.Name()] = field.RewriteIDs(fd, v, m)
		}
	}
}

// Dependencies returns references to other elements. Reference to the
// element itself is left out, so an element never requires itself, while
// RewriteIDs still translates it and a self link follows a copy.
func (w *Walker) Dependencies(el Element) element.Dependencies {
	deps := element.PropertyDependencies(el.Meta().Properties)

	switch e := el.(type) {
	case *Document:
		for _, name := range e.EditableNames() {
			deps.Merge(tag.ResolveDependencies(e.Editables[name]))
		}
	case *Object:
		if class, ok := w.class(e); ok {
			for _, fd := range class.Fields {
				if v, ok := e.Values[fd.Name()]; ok {
					deps.Merge(field.ResolveDependencies(fd, v))
				}
			}
		}
	}
	delete(deps, Ref(el).Key())
	return deps
}

// RefreshPaths updates paths editables cache for their targets. It is
// called after RewriteIDs when all targets are saved.
func (w *Walker) RefreshPaths(ctx context.Context, el Element, f element.Finder) error {
	d, ok := el.(*Document)
	if !ok {
		return nil
	}
	for _, name := range d.EditableNames() {
		if err := tag.RefreshPath(ctx, d.Editables[name], f); err != nil {
			return fmt.Errorf("unable to refresh path of editable '%s': %w", name, err)
		}
	}
	return nil
}

// Sanitize removes references to elements which do not exist and returns
// number of removed references.
func (w *Walker) Sanitize(ctx context.Context, el Element, f element.Finder) (int, error) {
	props, removed, err := element.SanitizeProperties(el.Meta().Properties, func(ref element.Ref) (bool, error) {
		return element.Exists(ctx, f, ref)
	})
	if err != nil {
		return 0, err
	}
	el.Meta().Properties = props

	switch e := el.(type) {
	case *Document:
		for _, name := range e.EditableNames() {
			before := tag.ResolveDependencies(e.Editables[name]).Len()
			if _, err := tag.CheckValidity(ctx, e.Editables[name], f, w.log); err != nil {
				return removed, err
			}
			removed += before - tag.ResolveDependencies(e.Editables[name]).Len()
		}
	case *Object:
		class, ok := w.class(e)
		if !ok {
			return removed, nil
		}
		for _, fd := range class.Fields {
			v, ok := e.Values[fd.Name()]
			if !ok {
				continue
			}
			nv, n, err := field.Sanitize(ctx, fd, v, f)
			if err != nil {
				return removed, err
			}
			removed += n
			if nv == nil {
				delete(e.Values, fd.Name())
			} else {
				e.Values[fd.Name()] = nv
			}
		}
	}
	return removed, nil
}

// RewriteSelf translates element own id and its parent.
func RewriteSelf(el Element, m element.Mapping) {
	h := &el.Meta().Header
	h.Ref, _ = m.Apply(h.Ref)
	h.ParentID, _ = m.Lookup(h.Ref.Type, h.ParentID)
}
