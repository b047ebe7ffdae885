package field

import (
	"context"
	"encoding/json"

	"relink/element"
)

const (
	LinkInternal = "internal"
	LinkDirect   = "direct"
)

// Link is a value of link field. Internal links point to an element by
// InternalType and Internal id, direct links keep URL in Direct.
type Link struct {
	Text         string `json:"text,omitempty"`
	Linktype     string `json:"linktype,omitempty"`
	InternalType string `json:"internalType,omitempty"`
	Internal     int64  `json:"internal,omitempty"`
	Direct       string `json:"direct,omitempty"`
	Target       string `json:"target,omitempty"`
	Parameters   string `json:"parameters,omitempty"`
	Anchor       string `json:"anchor,omitempty"`
	Title        string `json:"title,omitempty"`
	Accesskey    string `json:"accesskey,omitempty"`
	Rel          string `json:"rel,omitempty"`
	Tabindex     string `json:"tabindex,omitempty"`
	Class        string `json:"class,omitempty"`
	Attributes   string `json:"attributes,omitempty"`
}

// Ref returns internal link target. Link without type is internal when it
// has internal target set.
func (l *Link) Ref() (element.Ref, bool) {
	if (l.Linktype != LinkInternal && l.Linktype != "") || l.Internal <= 0 {
		return element.Ref{}, false
	}
	t, ok := element.ParseTypeName(l.InternalType)
	if !ok {
		return element.Ref{}, false
	}
	return element.Ref{Type: t, ID: l.Internal}, true
}

func (l *Link) IsEmpty() bool {
	_, internal := l.Ref()
	return !internal && len(l.Direct) == 0
}

type LinkField struct {
	Base
}

func newLink(spec *Spec, _ *Builder) (Definition, error) {
	return &LinkField{Base: spec.base()}, nil
}

func (f *LinkField) FieldType() string {
	return TypeLink
}

func (f *LinkField) Decode(raw json.RawMessage) (any, error) {
	return decodeAs[Link](raw)
}

func (f *LinkField) Encode(value any) (json.RawMessage, error) {
	return encodeAs[Link](TypeLink, value)
}

func (f *LinkField) IsEmpty(value any) bool {
	l, ok := value.(Link)
	return !ok || l.IsEmpty()
}

func (f *LinkField) Validate(value any, omitMandatory bool) error {
	if value != nil {
		l, ok := value.(Link)
		if !ok {
			return f.invalid(value, "unexpected type")
		}
		switch l.Linktype {
		case "", LinkInternal, LinkDirect:
		default:
			return f.invalid(value, "unknown link type '"+l.Linktype+"'")
		}
	}
	return f.checkMandatory(f.IsEmpty(value), omitMandatory)
}

func (f *LinkField) RewriteIDs(value any, m element.Mapping) any {
	l, ok := value.(Link)
	if !ok {
		return value
	}
	if ref, ok := l.Ref(); ok {
		if to, ok := m.Apply(ref); ok {
			l.Internal = to.ID
		}
	}
	return l
}

func (f *LinkField) ResolveDependencies(value any) element.Dependencies {
	deps := element.NewDependencies()
	if l, ok := value.(Link); ok {
		if ref, ok := l.Ref(); ok {
			deps.Add(ref)
		}
	}
	return deps
}

// Sanitize clears internal target when referenced element is gone.
func (f *LinkField) Sanitize(ctx context.Context, value any, finder element.Finder) (any, int, error) {
	l, ok := value.(Link)
	if !ok {
		return value, 0, nil
	}
	ref, ok := l.Ref()
	if !ok {
		return l, 0, nil
	}
	found, err := element.Exists(ctx, finder, ref)
	if err != nil {
		return value, 0, err
	}
	if found {
		return l, 0, nil
	}
	l.Internal, l.InternalType = 0, ""
	return l, 1, nil
}
