// Package field describes data object class fields: how their values are
// stored, validated and which element references they carry.
package field

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"relink/element"
)

var (
	ErrMandatory    = errors.New("mandatory field is empty")
	ErrInvalidValue = errors.New("invalid field value")
)

// Definition is a single field of a class or a field collection.
type Definition interface {
	Name() string
	FieldType() string
	// Decode converts stored representation into field value, null results
	// in nil value.
	Decode(raw json.RawMessage) (any, error)
	Encode(value any) (json.RawMessage, error)
	Validate(value any, omitMandatory bool) error
	IsEmpty(value any) bool
}

// Rewriter is implemented by fields which may refer to other elements. It
// returns value with every mapped reference translated, references absent
// from the mapping are kept as is.
type Rewriter interface {
	RewriteIDs(value any, m element.Mapping) any
}

// Resolver lists references value carries. Any field which is a Rewriter
// must also be a Resolver and treat exactly the same references.
type Resolver interface {
	ResolveDependencies(value any) element.Dependencies
}

// Sanitizer removes references to elements which do not exist and returns
// number of removed references.
type Sanitizer interface {
	Sanitize(ctx context.Context, value any, f element.Finder) (any, int, error)
}

// RewriteIDs translates references in value if field could have any.
func RewriteIDs(d Definition, value any, m element.Mapping) any {
	if value == nil {
		return nil
	}
	if r, ok := d.(Rewriter); ok {
		return r.RewriteIDs(value, m)
	}
	return value
}

// ResolveDependencies returns references value carries, never nil.
func ResolveDependencies(d Definition, value any) element.Dependencies {
	if value == nil {
		return element.NewDependencies()
	}
	if r, ok := d.(Resolver); ok {
		if deps := r.ResolveDependencies(value); deps != nil {
			return deps
		}
	}
	return element.NewDependencies()
}

// Sanitize drops dangling references from the value.
func Sanitize(ctx context.Context, d Definition, value any, f element.Finder) (any, int, error) {
	if value == nil {
		return nil, 0, nil
	}
	if s, ok := d.(Sanitizer); ok {
		return s.Sanitize(ctx, value, f)
	}
	return value, 0, nil
}

// Base keeps properties common to all definitions.
type Base struct {
	FieldName string
	Title     string
	Mandatory bool
}

func (b *Base) Name() string {
	return b.FieldName
}

func (b *Base) checkMandatory(empty, omitMandatory bool) error {
	if !omitMandatory && b.Mandatory && empty {
		return fmt.Errorf("field '%s': %w", b.FieldName, ErrMandatory)
	}
	return nil
}

func (b *Base) invalid(value any, reason string) error {
	return fmt.Errorf("field '%s' (%T): %s: %w", b.FieldName, value, reason, ErrInvalidValue)
}
