// Package copier duplicates element subtrees keeping references between
// copied elements consistent.
package copier

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"

	"relink/element"
	"relink/model"
	"relink/store"
)

// Store is what copying needs from element storage.
type Store interface {
	element.Finder
	Get(ctx context.Context, ref element.Ref) (model.Element, error)
	Create(ctx context.Context, el model.Element) error
	Update(ctx context.Context, el model.Element) error
	Descendants(ctx context.Context, ref element.Ref) ([]*element.Header, error)
	TagsForElement(ctx context.Context, ref element.Ref) ([]*store.Tag, error)
	AddTagToElement(ctx context.Context, ref element.Ref, tagID int64) error
	Walker() *model.Walker
}

// Options controls copying.
type Options struct {
	// Suffix is appended to key of the copy when key is already taken.
	Suffix string
	// Tags copies tag assignments as well.
	Tags bool
}

// Result of the copy.
type Result struct {
	Root    element.Ref     `yaml:"root"`
	Mapping element.Mapping `yaml:"mapping"`
}

type pair struct {
	from element.Ref
	to   model.Element
}

// Copy clones source with all its descendants under target. References
// between copied elements are translated to the copies, references to
// elements outside of the subtree stay as they are.
func Copy(ctx context.Context, s Store, source, target element.Ref, opts Options, log *zap.Logger) (*Result, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if len(opts.Suffix) == 0 {
		opts.Suffix = "_copy"
	}
	if source.Type != target.Type {
		return nil, fmt.Errorf("unable to copy %s into %s: types differ", source, target)
	}

	src, err := s.Find(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("unable to copy: %w", err)
	}
	if src.Ref.ID == store.RootID {
		return nil, fmt.Errorf("unable to copy root %s", source)
	}
	parent, err := s.Find(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("unable to copy into: %w", err)
	}
	if parent.Ref == src.Ref || strings.HasPrefix(parent.FullPath()+"/", src.FullPath()+"/") {
		return nil, fmt.Errorf("unable to copy %s into itself or its descendant %s", source, target)
	}

	// subtree is collected before anything is created
	subtree, err := s.Descendants(ctx, source)
	if err != nil {
		return nil, err
	}
	subtree = append([]*element.Header{src}, subtree...)

	m := element.NewMapping()
	copies := make([]pair, 0, len(subtree))
	for i, h := range subtree {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		el, err := s.Get(ctx, h.Ref)
		if err != nil {
			return nil, err
		}
		dup, err := model.Clone(s.Walker().Schema(), el)
		if err != nil {
			return nil, err
		}

		dh := dup.Meta()
		dh.Ref.ID = 0
		dh.CreationDate, dh.ModificationDate = time.Time{}, time.Time{}
		if i == 0 {
			dh.ParentID = parent.Ref.ID
			if dh.Key, err = freeKey(ctx, s, parent, dh.Key, opts.Suffix); err != nil {
				return nil, err
			}
		} else {
			dh.ParentID, _ = m.Lookup(h.Ref.Type, h.ParentID)
		}
		if err := s.Create(ctx, dup); err != nil {
			return nil, fmt.Errorf("unable to copy %s: %w", h.Ref, err)
		}
		m.Add(h.Ref.Type, h.Ref.ID, dh.Ref.ID)
		copies = append(copies, pair{from: h.Ref, to: dup})
		log.Debug("Element copied", zap.Stringer("from", h.Ref), zap.Stringer("to", dh.Ref), zap.String("path", dh.FullPath()))
	}

	for _, p := range copies {
		s.Walker().RewriteIDs(p.to, m)
		if err := s.Walker().RefreshPaths(ctx, p.to, s); err != nil {
			return nil, err
		}
		if err := s.Update(ctx, p.to); err != nil {
			return nil, fmt.Errorf("unable to correct references of %s: %w", p.to.Meta().Ref, err)
		}
		if !opts.Tags {
			continue
		}
		tags, err := s.TagsForElement(ctx, p.from)
		if err != nil {
			return nil, err
		}
		for _, t := range tags {
			if err := s.AddTagToElement(ctx, p.to.Meta().Ref, t.ID); err != nil {
				return nil, err
			}
		}
	}

	res := &Result{Root: copies[0].to.Meta().Ref, Mapping: m}
	log.Info("Subtree copied", zap.Stringer("source", source), zap.Stringer("copy", res.Root), zap.Int("elements", len(copies)))
	return res, nil
}

// freeKey returns key not used under parent, asset copies keep their
// file extension.
func freeKey(ctx context.Context, f element.Finder, parent *element.Header, key, suffix string) (string, error) {
	base, ext := key, ""
	if parent.Ref.Type == element.TypeAsset {
		ext = path.Ext(key)
		base = strings.TrimSuffix(key, ext)
	}

	prefix := parent.FullPath()
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	candidate := key
	for n := 1; ; n++ {
		_, err := f.FindByPath(ctx, parent.Ref.Type, prefix+element.ValidKey(candidate, parent.Ref.Type))
		if errors.Is(err, element.ErrNotFound) {
			return candidate, nil
		}
		if err != nil {
			return "", err
		}
		if n == 1 {
			candidate = base + suffix + ext
		} else {
			candidate = fmt.Sprintf("%s%s_%d%s", base, suffix, n, ext)
		}
	}
}

// Rewrite applies mapping to references of a single element and saves it.
func Rewrite(ctx context.Context, s Store, ref element.Ref, m element.Mapping) (model.Element, error) {
	el, err := s.Get(ctx, ref)
	if err != nil {
		return nil, err
	}
	s.Walker().RewriteIDs(el, m)
	if err := s.Walker().RefreshPaths(ctx, el, s); err != nil {
		return nil, err
	}
	if err := s.Update(ctx, el); err != nil {
		return nil, fmt.Errorf("unable to rewrite %s: %w", ref, err)
	}
	return el, nil
}
