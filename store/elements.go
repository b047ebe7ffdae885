package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/maruel/natural"
	"go.uber.org/zap"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"relink/element"
	"relink/graph"
	"relink/model"
)

const headerColumns = `type, id, parent_id, subtype, key, path, published,
	creation_date, modification_date, user_owner, user_modification`

func scanHeader(stmt *sqlite.Stmt) (*element.Header, error) {
	t, err := element.ParseType(stmt.ColumnText(0))
	if err != nil {
		return nil, err
	}
	return &element.Header{
		Ref:              element.NewRef(t, stmt.ColumnInt64(1)),
		ParentID:         stmt.ColumnInt64(2),
		Subtype:          stmt.ColumnText(3),
		Key:              stmt.ColumnText(4),
		Path:             stmt.ColumnText(5),
		Published:        stmt.ColumnBool(6),
		CreationDate:     fromUnix(stmt.ColumnInt64(7)),
		ModificationDate: fromUnix(stmt.ColumnInt64(8)),
		UserOwner:        stmt.ColumnInt64(9),
		UserModification: stmt.ColumnInt64(10),
	}, nil
}

// childPath is path of elements directly under h.
func childPath(h *element.Header) string {
	p := h.FullPath()
	if !strings.HasSuffix(p, "/") {
		p += "/"
	}
	return p
}

// splitPath separates full path into element path and key.
func splitPath(fullPath string) (string, string) {
	if len(fullPath) > 1 {
		fullPath = strings.TrimSuffix(fullPath, "/")
	}
	if fullPath == "/" || len(fullPath) == 0 {
		return "/", ""
	}
	if !strings.HasPrefix(fullPath, "/") {
		fullPath = "/" + fullPath
	}
	i := strings.LastIndex(fullPath, "/")
	return fullPath[:i+1], fullPath[i+1:]
}

func sortHeaders(hs []*element.Header) {
	sort.SliceStable(hs, func(i, j int) bool {
		di, dj := strings.Count(hs[i].Path, "/"), strings.Count(hs[j].Path, "/")
		if di != dj {
			return di < dj
		}
		return natural.Less(hs[i].FullPath(), hs[j].FullPath())
	})
}

func (s *Store) find(ref element.Ref) (*element.Header, error) {
	var h *element.Header
	err := s.exec(`SELECT `+headerColumns+` FROM elements WHERE type = ? AND id = ?`,
		func(stmt *sqlite.Stmt) (err error) {
			h, err = scanHeader(stmt)
			return err
		}, ref.Type.String(), ref.ID)
	if err != nil {
		return nil, fmt.Errorf("unable to find %s: %w", ref, err)
	}
	if h == nil {
		return nil, fmt.Errorf("%s: %w", ref, element.ErrNotFound)
	}
	return h, nil
}

func (s *Store) findByPath(t element.Type, fullPath string) (*element.Header, error) {
	path, key := splitPath(fullPath)
	var h *element.Header
	err := s.exec(`SELECT `+headerColumns+` FROM elements WHERE type = ? AND path = ? AND key = ?`,
		func(stmt *sqlite.Stmt) (err error) {
			h, err = scanHeader(stmt)
			return err
		}, t.String(), path, key)
	if err != nil {
		return nil, fmt.Errorf("unable to find %s '%s': %w", t, fullPath, err)
	}
	if h == nil {
		return nil, fmt.Errorf("%s '%s': %w", t, fullPath, element.ErrNotFound)
	}
	return h, nil
}

// Find implements element.Finder.
func (s *Store) Find(ctx context.Context, ref element.Ref) (*element.Header, error) {
	defer s.lock(ctx)()
	return s.find(ref)
}

// FindByPath implements element.Finder.
func (s *Store) FindByPath(ctx context.Context, t element.Type, fullPath string) (*element.Header, error) {
	defer s.lock(ctx)()
	return s.findByPath(t, fullPath)
}

// Exists reports whether path is taken by element of type t.
func (s *Store) Exists(ctx context.Context, t element.Type, fullPath string) (bool, error) {
	defer s.lock(ctx)()
	if _, err := s.findByPath(t, fullPath); err != nil {
		if errors.Is(err, element.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Get loads complete element.
func (s *Store) Get(ctx context.Context, ref element.Ref) (model.Element, error) {
	defer s.lock(ctx)()
	return s.get(ref)
}

func (s *Store) get(ref element.Ref) (model.Element, error) {
	var (
		el      model.Element
		content string
	)
	err := s.exec(`SELECT `+headerColumns+`, class, properties, content, data FROM elements WHERE type = ? AND id = ?`,
		func(stmt *sqlite.Stmt) error {
			h, err := scanHeader(stmt)
			if err != nil {
				return err
			}
			el = model.New(h.Ref.Type)
			el.Meta().Header = *h
			if el.Meta().Properties, err = decodeProperties(stmt.ColumnText(12)); err != nil {
				return err
			}
			content = stmt.ColumnText(13)
			switch e := el.(type) {
			case *model.Object:
				e.ClassName = stmt.ColumnText(11)
			case *model.Asset:
				if e.Data, err = io.ReadAll(stmt.ColumnReader(14)); err != nil {
					return err
				}
			}
			return nil
		}, ref.Type.String(), ref.ID)
	if err != nil {
		return nil, fmt.Errorf("unable to load %s: %w", ref, err)
	}
	if el == nil {
		return nil, fmt.Errorf("%s: %w", ref, element.ErrNotFound)
	}
	if err := model.DecodeContent(s.walker.Schema(), el, json.RawMessage(content)); err != nil {
		return nil, err
	}
	return el, nil
}

func decodeProperties(text string) ([]element.Property, error) {
	if len(text) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	var props []element.Property
	if err := dec.Decode(&props); err != nil {
		return nil, fmt.Errorf("bad properties: %w", err)
	}
	for i := range props {
		if ref, ok := props[i].Ref(); ok {
			props[i].Data = ref.ID
		}
	}
	return props, nil
}

// Create stores new element under its parent (root when parent is not set)
// assigning it next free id. Element header is updated in place.
func (s *Store) Create(ctx context.Context, el model.Element) (err error) {
	defer s.lock(ctx)()

	h := el.Meta()
	t := h.Ref.Type
	if h.ParentID <= 0 {
		h.ParentID = RootID
	}
	parent, err := s.find(element.NewRef(t, h.ParentID))
	if err != nil {
		return fmt.Errorf("unable to create %s: parent %w", t, err)
	}
	h.Key = element.ValidKey(h.Key, t)
	if len(h.Key) == 0 {
		return fmt.Errorf("unable to create %s under '%s': empty key", t, parent.FullPath())
	}
	h.Path = childPath(parent)
	if err := s.pathFree(t, h.FullPath(), 0); err != nil {
		return err
	}
	if err := model.Validate(s.walker.Schema(), el); err != nil {
		return err
	}

	now := s.now()
	if h.CreationDate.IsZero() {
		h.CreationDate = now
	}
	h.ModificationDate = now

	release := sqlitex.Save(s.conn)
	defer release(&err)

	if h.Ref.ID, err = s.nextID(t); err != nil {
		return fmt.Errorf("unable to allocate %s id: %w", t, err)
	}
	if err = s.write(el, true); err != nil {
		return err
	}
	s.log.Debug("Element created", zap.Stringer("ref", h.Ref), zap.String("path", h.FullPath()))
	return nil
}

// nextID advances sequence of the type. Ids already present, for example
// in databases created before sequences were kept, are never handed out.
func (s *Store) nextID(t element.Type) (int64, error) {
	err := s.exec(`INSERT INTO sequences (type, last_id)
		VALUES (?1, (SELECT COALESCE(MAX(id), 0) FROM elements WHERE type = ?1) + 1)
		ON CONFLICT (type) DO UPDATE SET
			last_id = MAX(last_id, (SELECT COALESCE(MAX(id), 0) FROM elements WHERE type = ?1)) + 1`,
		nil, t.String())
	if err != nil {
		return 0, err
	}
	var id int64
	err = s.exec(`SELECT last_id FROM sequences WHERE type = ?`, func(stmt *sqlite.Stmt) error {
		id = stmt.ColumnInt64(0)
		return nil
	}, t.String())
	return id, err
}

// Update persists element. Changing key or parent moves the element with
// all its descendants.
func (s *Store) Update(ctx context.Context, el model.Element) (err error) {
	defer s.lock(ctx)()

	h := el.Meta()
	old, err := s.find(h.Ref)
	if err != nil {
		return fmt.Errorf("unable to update: %w", err)
	}
	if err := model.Validate(s.walker.Schema(), el); err != nil {
		return err
	}

	release := sqlitex.Save(s.conn)
	defer release(&err)

	if h.Ref.ID == RootID {
		h.ParentID, h.Key, h.Path = old.ParentID, old.Key, old.Path
	} else if h.ParentID != old.ParentID || h.Key != old.Key {
		if err = s.move(old, h); err != nil {
			return err
		}
	} else {
		h.Path = old.Path
	}

	h.ModificationDate = s.now()
	if err = s.write(el, false); err != nil {
		return err
	}
	s.log.Debug("Element updated", zap.Stringer("ref", h.Ref))
	return nil
}

func (s *Store) move(old *element.Header, h *model.Base) error {
	t := h.Ref.Type
	if h.ParentID <= 0 {
		h.ParentID = RootID
	}
	parent, err := s.find(element.NewRef(t, h.ParentID))
	if err != nil {
		return fmt.Errorf("unable to move %s: parent %w", h.Ref, err)
	}
	from := childPath(old)
	if parent.Ref == old.Ref || strings.HasPrefix(parent.FullPath()+"/", from) {
		return fmt.Errorf("unable to move %s into itself", h.Ref)
	}
	h.Key = element.ValidKey(h.Key, t)
	if len(h.Key) == 0 {
		return fmt.Errorf("unable to move %s: empty key", h.Ref)
	}
	h.Path = childPath(parent)
	if err := s.pathFree(t, h.FullPath(), h.Ref.ID); err != nil {
		return err
	}

	to := h.Path + h.Key + "/"
	if err := s.exec(`UPDATE elements SET path = ? || substr(path, ?) WHERE type = ? AND instr(path, ?) = 1`,
		nil, to, int64(len([]rune(from)))+1, t.String(), from); err != nil {
		return fmt.Errorf("unable to move descendants of %s: %w", h.Ref, err)
	}
	s.log.Debug("Element moved", zap.Stringer("ref", h.Ref), zap.String("from", old.FullPath()), zap.String("to", h.FullPath()))
	return nil
}

func (s *Store) pathFree(t element.Type, fullPath string, self int64) error {
	h, err := s.findByPath(t, fullPath)
	if err != nil {
		if errors.Is(err, element.ErrNotFound) {
			return nil
		}
		return err
	}
	if h.Ref.ID == self {
		return nil
	}
	return fmt.Errorf("%s '%s': %w", t, fullPath, ErrExists)
}

func (s *Store) write(el model.Element, insert bool) error {
	h := el.Meta()
	content, err := model.EncodeContent(s.walker.Schema(), el)
	if err != nil {
		return err
	}
	props := []byte("[]")
	if len(h.Properties) > 0 {
		if props, err = json.Marshal(h.Properties); err != nil {
			return fmt.Errorf("%s: bad properties: %w", h.Ref, err)
		}
	}
	var (
		class string
		data  []byte
	)
	switch e := el.(type) {
	case *model.Object:
		class = e.ClassName
	case *model.Asset:
		data = e.Data
	}

	query := `UPDATE elements SET parent_id = ?3, subtype = ?4, key = ?5, path = ?6, class = ?7,
		published = ?8, creation_date = ?9, modification_date = ?10, user_owner = ?11,
		user_modification = ?12, properties = ?13, content = ?14, data = ?15
		WHERE type = ?1 AND id = ?2`
	if insert {
		query = `INSERT INTO elements (type, id, parent_id, subtype, key, path, class, published,
		creation_date, modification_date, user_owner, user_modification, properties, content, data)
		VALUES (?1, ?2, ?3, ?4, ?5, ?6, ?7, ?8, ?9, ?10, ?11, ?12, ?13, ?14, ?15)`
	}
	if err := s.exec(query, nil,
		h.Ref.Type.String(), h.Ref.ID, h.ParentID, h.Subtype, h.Key, h.Path, class,
		boolInt(h.Published), toUnix(h.CreationDate), toUnix(h.ModificationDate),
		h.UserOwner, h.UserModification, string(props), string(content), data); err != nil {
		return fmt.Errorf("unable to save %s: %w", h.Ref, err)
	}
	return s.writeDependencies(el)
}

func (s *Store) writeDependencies(el model.Element) error {
	ref := model.Ref(el)
	if err := s.exec(`DELETE FROM dependencies WHERE source_type = ? AND source_id = ?`,
		nil, ref.Type.String(), ref.ID); err != nil {
		return fmt.Errorf("unable to clear dependencies of %s: %w", ref, err)
	}
	for _, dep := range s.walker.Dependencies(el).Refs() {
		if err := s.exec(`INSERT INTO dependencies (source_type, source_id, target_type, target_id) VALUES (?, ?, ?, ?)`,
			nil, ref.Type.String(), ref.ID, dep.Type.String(), dep.ID); err != nil {
			return fmt.Errorf("unable to save dependencies of %s: %w", ref, err)
		}
	}
	return nil
}

// Children lists elements directly under ref in natural key order.
func (s *Store) Children(ctx context.Context, ref element.Ref) ([]*element.Header, error) {
	defer s.lock(ctx)()

	var hs []*element.Header
	err := s.exec(`SELECT `+headerColumns+` FROM elements WHERE type = ? AND parent_id = ? AND id != ?`,
		func(stmt *sqlite.Stmt) error {
			h, err := scanHeader(stmt)
			if err != nil {
				return err
			}
			hs = append(hs, h)
			return nil
		}, ref.Type.String(), ref.ID, ref.ID)
	if err != nil {
		return nil, fmt.Errorf("unable to list children of %s: %w", ref, err)
	}
	sort.SliceStable(hs, func(i, j int) bool { return natural.Less(hs[i].Key, hs[j].Key) })
	return hs, nil
}

// Descendants lists whole subtree under ref, parents always precede their
// children.
func (s *Store) Descendants(ctx context.Context, ref element.Ref) ([]*element.Header, error) {
	defer s.lock(ctx)()
	return s.descendants(ref)
}

func (s *Store) descendants(ref element.Ref) ([]*element.Header, error) {
	h, err := s.find(ref)
	if err != nil {
		return nil, err
	}
	var hs []*element.Header
	err = s.exec(`SELECT `+headerColumns+` FROM elements WHERE type = ? AND instr(path, ?) = 1 AND id != ?`,
		func(stmt *sqlite.Stmt) error {
			h, err := scanHeader(stmt)
			if err != nil {
				return err
			}
			hs = append(hs, h)
			return nil
		}, ref.Type.String(), childPath(h), ref.ID)
	if err != nil {
		return nil, fmt.Errorf("unable to list descendants of %s: %w", ref, err)
	}
	sortHeaders(hs)
	return hs, nil
}

// Delete removes element with its subtree. Unless forced, elements still
// required by anything outside of the subtree are not deleted.
func (s *Store) Delete(ctx context.Context, ref element.Ref, force bool) (err error) {
	defer s.lock(ctx)()

	if ref.ID == RootID {
		return fmt.Errorf("unable to delete root %s", ref.Type)
	}
	hs, err := s.descendants(ref)
	if err != nil {
		return fmt.Errorf("unable to delete: %w", err)
	}
	subtree := element.NewDependencies(ref)
	for _, h := range hs {
		subtree.Add(h.Ref)
	}

	blockers, err := graph.Blockers(ctx, unlocked{s}, subtree)
	if err != nil {
		return err
	}
	if len(blockers) > 0 {
		if !force {
			return fmt.Errorf("%s required by %s: %w", ref, joinRefs(blockers), ErrRequired)
		}
		s.log.Warn("Deleting element which is still required", zap.Stringer("ref", ref), zap.String("required_by", joinRefs(blockers)))
	}

	release := sqlitex.Save(s.conn)
	defer release(&err)

	for _, r := range subtree.Refs() {
		t := r.Type.String()
		if err = s.exec(`DELETE FROM dependencies WHERE (source_type = ?1 AND source_id = ?2) OR (target_type = ?1 AND target_id = ?2)`,
			nil, t, r.ID); err != nil {
			return fmt.Errorf("unable to delete dependencies of %s: %w", r, err)
		}
		if err = s.exec(`DELETE FROM tags_assignment WHERE ctype = ? AND cid = ?`, nil, t, r.ID); err != nil {
			return fmt.Errorf("unable to delete tags of %s: %w", r, err)
		}
		if err = s.exec(`DELETE FROM elements WHERE type = ? AND id = ?`, nil, t, r.ID); err != nil {
			return fmt.Errorf("unable to delete %s: %w", r, err)
		}
	}
	s.log.Info("Element deleted", zap.Stringer("ref", ref), zap.Int("subtree", subtree.Len()))
	return nil
}

func joinRefs(refs []element.Ref) string {
	var buf bytes.Buffer
	for i, r := range refs {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(r.Key())
	}
	return buf.String()
}

func (s *Store) requires(ref element.Ref) ([]element.Ref, error) {
	deps := element.NewDependencies()
	err := s.exec(`SELECT target_type, target_id FROM dependencies WHERE source_type = ? AND source_id = ?`,
		func(stmt *sqlite.Stmt) error {
			t, err := element.ParseType(stmt.ColumnText(0))
			if err != nil {
				return err
			}
			deps.Add(element.NewRef(t, stmt.ColumnInt64(1)))
			return nil
		}, ref.Type.String(), ref.ID)
	if err != nil {
		return nil, fmt.Errorf("unable to get dependencies of %s: %w", ref, err)
	}
	return deps.Refs(), nil
}

func (s *Store) requiredBy(ref element.Ref) ([]element.Ref, error) {
	deps := element.NewDependencies()
	err := s.exec(`SELECT source_type, source_id FROM dependencies WHERE target_type = ? AND target_id = ?`,
		func(stmt *sqlite.Stmt) error {
			t, err := element.ParseType(stmt.ColumnText(0))
			if err != nil {
				return err
			}
			deps.Add(element.NewRef(t, stmt.ColumnInt64(1)))
			return nil
		}, ref.Type.String(), ref.ID)
	if err != nil {
		return nil, fmt.Errorf("unable to get dependents of %s: %w", ref, err)
	}
	return deps.Refs(), nil
}

// Requires lists elements ref depends on.
func (s *Store) Requires(ctx context.Context, ref element.Ref) ([]element.Ref, error) {
	defer s.lock(ctx)()
	return s.requires(ref)
}

// RequiredBy lists elements which depend on ref.
func (s *Store) RequiredBy(ctx context.Context, ref element.Ref) ([]element.Ref, error) {
	defer s.lock(ctx)()
	return s.requiredBy(ref)
}

// unlocked is graph source for use while the store is already locked.
type unlocked struct {
	s *Store
}

func (u unlocked) Requires(_ context.Context, ref element.Ref) ([]element.Ref, error) {
	return u.s.requires(ref)
}

func (u unlocked) RequiredBy(_ context.Context, ref element.Ref) ([]element.Ref, error) {
	return u.s.requiredBy(ref)
}
