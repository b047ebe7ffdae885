package importer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"text/template"
	"time"

	sprig "github.com/go-task/slim-sprig/v3"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"relink/config"
	"relink/element"
	"relink/model"
)

// ErrNoKey is returned for bundle elements without key.
var ErrNoKey = errors.New("cannot create element without key")

// Store is what import needs from element storage.
type Store interface {
	element.Finder
	Create(ctx context.Context, el model.Element) error
	Update(ctx context.Context, el model.Element) error
	Walker() *model.Walker
}

// Info describes imported element.
type Info struct {
	ID       int64        `json:"id" yaml:"id"`
	Type     element.Type `json:"type" yaml:"type"`
	FullPath string       `json:"fullpath" yaml:"fullpath"`
}

// Result of the import. Mapping and Info are keyed by ids of exporting
// system.
type Result struct {
	Mapping  element.Mapping `yaml:"mapping"`
	Info     map[string]Info `yaml:"info"`
	Created  []element.Ref   `yaml:"created,omitempty"`
	Reused   []element.Ref   `yaml:"reused,omitempty"`
	Failures []Failure       `yaml:"failures,omitempty"`
	Stripped int             `yaml:"stripped,omitempty"`
}

type keyData struct {
	Path    string
	Uniq    string
	Counter int
	Key     string
}

// Service imports bundles into the store.
type Service struct {
	store   Store
	cfg     *config.ImportConfig
	log     *zap.Logger
	keyTmpl *template.Template
	counter int

	now  func() time.Time
	uniq func() string
}

func NewService(s Store, cfg *config.ImportConfig, log *zap.Logger) (*Service, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.UserID <= 0 {
		return nil, fmt.Errorf("import user is not set")
	}
	tmpl, err := template.New(string(config.DummyKeyTemplateFieldName)).Funcs(sprig.FuncMap()).Parse(cfg.DummyKeyTemplate)
	if err != nil {
		return nil, fmt.Errorf("unable to parse dummy key template: %w", err)
	}
	return &Service{
		store:   s,
		cfg:     cfg,
		log:     log.Named("import"),
		keyTmpl: tmpl,
		now:     time.Now,
		uniq: func() string {
			id, err := uuid.NewV7()
			if err != nil {
				return uuid.NewString()
			}
			return id.String()
		},
	}, nil
}

type imported struct {
	item *Item
	el   model.Element
}

func childPath(h *element.Header) string {
	full := h.FullPath()
	if full == "/" {
		return full
	}
	return full + "/"
}

// Import creates elements of the bundle under root and translates all
// references between them. Elements of other type than root are placed
// relative to their own type root.
func (s *Service) Import(ctx context.Context, root element.Ref, b *Bundle, overwrite bool) (*Result, error) {
	rootHeader, err := s.store.Find(ctx, root)
	if err != nil {
		return nil, fmt.Errorf("unable to find import root: %w", err)
	}

	mapper := NewIDMapper(nil)
	mapper.IgnoreFailures = s.cfg.Dangling != config.DanglingPolicyFail
	res := &Result{Mapping: mapper.Mapping(), Info: make(map[string]Info)}

	var done []imported
	for _, it := range b.ordered() {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		el, reused, err := s.create(ctx, rootHeader, it, mapper.Mapping(), overwrite)
		if err != nil {
			return res, err
		}
		h := el.Meta()
		mapper.Mapping().Add(it.Type, it.ID, h.Ref.ID)
		res.Info[it.Ref().Key()] = Info{ID: h.Ref.ID, Type: h.Ref.Type, FullPath: h.FullPath()}
		if reused {
			res.Reused = append(res.Reused, h.Ref)
		} else {
			res.Created = append(res.Created, h.Ref)
		}
		done = append(done, imported{item: it, el: el})
	}

	// all elements exist now, references could be corrected
	w := s.store.Walker()
	for _, imp := range done {
		w.RewriteIDs(imp.el, mapper.Mapping())
		if err := s.checkDangling(ctx, imp, mapper); err != nil {
			return res, err
		}
	}
	res.Failures = mapper.Failures()
	if err := mapper.Err(); err != nil {
		return res, fmt.Errorf("unable to import: %w", err)
	}

	for _, imp := range done {
		if s.cfg.Dangling == config.DanglingPolicyStrip {
			n, err := w.Sanitize(ctx, imp.el, s.store)
			if err != nil {
				return res, err
			}
			res.Stripped += n
		}
		if err := w.RefreshPaths(ctx, imp.el, s.store); err != nil {
			return res, err
		}
		if err := s.store.Update(ctx, imp.el); err != nil {
			return res, fmt.Errorf("unable to correct relations of %s: %w", imp.el.Meta().Ref, err)
		}
	}
	s.log.Info("Bundle imported",
		zap.Int("created", len(res.Created)),
		zap.Int("reused", len(res.Reused)),
		zap.Int("dangling", len(res.Failures)),
		zap.Int("stripped", res.Stripped))
	return res, nil
}

func (s *Service) checkDangling(ctx context.Context, imp imported, mapper *IDMapper) error {
	for _, ref := range s.store.Walker().Dependencies(imp.el).Refs() {
		ok, err := element.Exists(ctx, s.store, ref)
		if err != nil {
			return err
		}
		if ok {
			continue
		}
		mapper.RecordFailure(imp.item.Type, imp.item.ID, ref.Type, ref.ID)
		if s.cfg.Dangling == config.DanglingPolicyKeep {
			s.log.Warn("Dangling reference kept", zap.Stringer("source", imp.item.Ref()), zap.Stringer("target", ref))
		}
	}
	return nil
}

// create places single bundle element into the store.
func (s *Service) create(ctx context.Context, root *element.Header, it *Item, m element.Mapping, overwrite bool) (model.Element, bool, error) {
	el, err := it.Element(s.store.Walker().Schema())
	if err != nil {
		return nil, false, err
	}
	h := el.Meta()

	// parent imported earlier is known by id, otherwise it is looked up by path
	model.RewriteSelf(el, m)
	if !m.Has(element.NewRef(it.Type, it.ParentID)) {
		parent, err := s.parentByPath(ctx, root, it)
		if err != nil {
			return nil, false, err
		}
		h.ParentID = parent.Ref.ID
	}
	parent, err := s.store.Find(ctx, h.Parent())
	if err != nil {
		return nil, false, fmt.Errorf("%s: parent %w", it.Ref(), err)
	}

	h.Key = element.ValidKey(h.Key, it.Type)
	if len(h.Key) == 0 {
		if it.ID != 1 {
			return nil, false, fmt.Errorf("%s at '%s': %w", it.Ref(), it.Path, ErrNoKey)
		}
		h.Key = element.ValidKey("home_"+s.uniq(), it.Type)
	}
	h.Path = childPath(parent)
	h.UserOwner, h.UserModification = s.cfg.UserID, s.cfg.UserID
	h.ModificationDate = s.now()

	existing, err := s.store.FindByPath(ctx, it.Type, h.FullPath())
	switch {
	case err == nil && overwrite:
		h.Ref = existing.Ref
		h.ParentID = existing.ParentID
		h.CreationDate = existing.CreationDate
		h.UserOwner = existing.UserOwner
		s.log.Debug("Element reused", zap.Stringer("source", it.Ref()), zap.Stringer("ref", h.Ref), zap.String("path", h.FullPath()))
		return el, true, nil
	case err == nil:
		key, err := s.dummyKey(it.Path, h.Key)
		if err != nil {
			return nil, false, err
		}
		s.log.Debug("Path taken, using dummy key", zap.String("path", h.FullPath()), zap.String("key", key))
		h.Key = key
	case !errors.Is(err, element.ErrNotFound):
		return nil, false, err
	}

	if err := s.store.Create(ctx, el); err != nil {
		return nil, false, fmt.Errorf("unable to import %s: %w", it.Ref(), err)
	}
	s.log.Debug("Element imported", zap.Stringer("source", it.Ref()), zap.Stringer("ref", h.Ref), zap.String("path", h.FullPath()))
	return el, false, nil
}

// parentByPath returns closest existing ancestor of the bundle element.
func (s *Service) parentByPath(ctx context.Context, root *element.Header, it *Item) (*element.Header, error) {
	typeRoot := root
	if root.Ref.Type != it.Type {
		h, err := s.store.Find(ctx, element.NewRef(it.Type, 1))
		if err != nil {
			return nil, fmt.Errorf("unable to find %s root: %w", it.Type, err)
		}
		typeRoot = h
	}

	path := it.Path
	if !strings.HasPrefix(path, "/") {
		path = childPath(typeRoot) + path
	}
	for p := strings.TrimSuffix(path, "/"); len(p) > 0; p = p[:strings.LastIndex(p, "/")] {
		h, err := s.store.FindByPath(ctx, it.Type, p)
		if err == nil {
			return h, nil
		}
		if !errors.Is(err, element.ErrNotFound) {
			return nil, err
		}
	}
	return typeRoot, nil
}

func (s *Service) dummyKey(path, key string) (string, error) {
	s.counter++
	var buf bytes.Buffer
	if err := s.keyTmpl.Execute(&buf, keyData{Path: path, Uniq: s.uniq(), Counter: s.counter, Key: key}); err != nil {
		return "", fmt.Errorf("unable to build dummy key: %w", err)
	}
	return buf.String(), nil
}
