package tag

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"go.uber.org/zap"

	"relink/element"
)

// LinkData is stored state of link editable. Internal links keep target in
// InternalType and InternalID, Path is cached full path of the target.
type LinkData struct {
	Internal     bool   `json:"internal,omitempty"`
	InternalType string `json:"internalType,omitempty"`
	InternalID   int64  `json:"internalId,omitempty"`
	Path         string `json:"path,omitempty"`
	Text         string `json:"text,omitempty"`
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

type Link struct {
	base
	Data LinkData
}

func (l *Link) Type() string {
	return TypeLink
}

func (l *Link) IsEmpty() bool {
	return len(l.Data.Path) == 0 && l.Data.InternalID <= 0
}

func (l *Link) Unmarshal(raw json.RawMessage) error {
	l.Data = LinkData{}
	if isNull(raw) {
		return nil
	}
	return json.Unmarshal(raw, &l.Data)
}

func (l *Link) Marshal() (json.RawMessage, error) {
	return json.Marshal(l.Data)
}

// Ref returns target of internal link.
func (l *Link) Ref() (element.Ref, bool) {
	if !l.Data.Internal || l.Data.InternalID <= 0 {
		return element.Ref{}, false
	}
	t, ok := element.ParseTypeName(l.Data.InternalType)
	if !ok {
		return element.Ref{}, false
	}
	return element.Ref{Type: t, ID: l.Data.InternalID}, true
}

func (l *Link) RewriteIDs(m element.Mapping) {
	ref, ok := l.Ref()
	if !ok {
		return
	}
	if to, ok := m.Apply(ref); ok {
		l.Data.InternalID = to.ID
	}
}

func (l *Link) ResolveDependencies() element.Dependencies {
	deps := element.NewDependencies()
	if ref, ok := l.Ref(); ok {
		deps.Add(ref)
	}
	return deps
}

func (l *Link) CheckValidity(ctx context.Context, f element.Finder, log *zap.Logger) (bool, error) {
	ref, ok := l.Ref()
	if !ok {
		return true, nil
	}
	gone, err := missing(ctx, f, ref)
	if err != nil || !gone {
		return true, err
	}
	logInvalid(log, l, ref)
	l.Data = LinkData{}
	return false, nil
}

// RefreshPath updates cached path of internal link from its target.
func (l *Link) RefreshPath(ctx context.Context, f element.Finder) error {
	ref, ok := l.Ref()
	if !ok {
		return nil
	}
	h, err := f.Find(ctx, ref)
	if err != nil {
		if errors.Is(err, element.ErrNotFound) {
			return nil
		}
		return err
	}
	l.Data.Path = h.FullPath()
	return nil
}

// Href returns link URL including parameters and anchor.
func (l *Link) Href(ctx context.Context, f element.Finder) (string, error) {
	if err := l.RefreshPath(ctx, f); err != nil {
		return "", err
	}
	url := l.Data.Path
	if len(l.Data.Parameters) > 0 {
		url += "?" + strings.ReplaceAll(l.Data.Parameters, "?", "")
	}
	if len(l.Data.Anchor) > 0 {
		url += "#" + strings.ReplaceAll(l.Data.Anchor, "#", "")
	}
	return url, nil
}

// SetFromPath points link to element found by path, documents are tried
// before assets. Unknown paths become direct links.
func (l *Link) SetFromPath(ctx context.Context, f element.Finder, path string) error {
	l.Data.Path = path
	l.Data.Internal, l.Data.InternalType, l.Data.InternalID = false, "", 0

	for _, t := range []element.Type{element.TypeDocument, element.TypeAsset} {
		h, err := f.FindByPath(ctx, t, path)
		if err != nil {
			if errors.Is(err, element.ErrNotFound) {
				continue
			}
			return err
		}
		l.Data.Internal = true
		l.Data.InternalType = t.String()
		l.Data.InternalID = h.Ref.ID
		return nil
	}
	return nil
}
