package element

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotFound is returned (wrapped) by finders for missing elements.
var ErrNotFound = errors.New("element not found")

// Header is common metadata of every element.
type Header struct {
	Ref              Ref       `json:"ref"`
	Subtype          string    `json:"subtype,omitempty"`
	ParentID         int64     `json:"parent_id,omitempty"`
	Key              string    `json:"key"`
	Path             string    `json:"path"`
	Published        bool      `json:"published,omitempty"`
	CreationDate     time.Time `json:"creation_date"`
	ModificationDate time.Time `json:"modification_date"`
	UserOwner        int64     `json:"user_owner,omitempty"`
	UserModification int64     `json:"user_modification,omitempty"`
}

// FullPath is path of the element including its own key. Root element has
// empty key and path "/".
func (h *Header) FullPath() string {
	if len(h.Key) == 0 {
		if len(h.Path) == 0 {
			return "/"
		}
		return h.Path
	}
	return h.Path + h.Key
}

// Parent returns reference to the parent element, which is always of the
// same type.
func (h *Header) Parent() Ref {
	return Ref{Type: h.Ref.Type, ID: h.ParentID}
}

// Finder looks up elements, any storage could implement it.
type Finder interface {
	Find(ctx context.Context, ref Ref) (*Header, error)
	FindByPath(ctx context.Context, t Type, fullPath string) (*Header, error)
}

// Exists reports whether element exists, ErrNotFound is not an error here.
func Exists(ctx context.Context, f Finder, ref Ref) (bool, error) {
	if !ref.Valid() {
		return false, nil
	}
	if _, err := f.Find(ctx, ref); err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Resolve turns command line argument into reference. Besides forms
// accepted by ParseRef it understands "type:/full/path" and "/full/path",
// the latter being a document.
func Resolve(ctx context.Context, f Finder, arg string) (Ref, error) {
	if ref, err := ParseRef(arg); err == nil {
		h, err := f.Find(ctx, ref)
		if err != nil {
			return Ref{}, err
		}
		return h.Ref, nil
	}

	t, path := TypeDocument, arg
	if i := strings.Index(arg, ":"); i > 0 {
		var err error
		if t, err = ParseType(arg[:i]); err != nil {
			return Ref{}, fmt.Errorf("malformed element reference '%s': %w", arg, err)
		}
		path = arg[i+1:]
	}
	if !strings.HasPrefix(path, "/") {
		return Ref{}, fmt.Errorf("malformed element reference '%s'", arg)
	}
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}
	h, err := f.FindByPath(ctx, t, path)
	if err != nil {
		return Ref{}, err
	}
	return h.Ref, nil
}
