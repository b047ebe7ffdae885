package store

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/maruel/natural"
	"go.uber.org/zap"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"relink/element"
)

// Tag is a node of a tag tree. IDPath lists ids of all ancestors, for top
// level tags it is "/".
type Tag struct {
	ID       int64  `json:"id" yaml:"id"`
	ParentID int64  `json:"parent_id,omitempty" yaml:"parent_id,omitempty"`
	IDPath   string `json:"id_path" yaml:"id_path"`
	Name     string `json:"name" yaml:"name"`

	// NamePath is filled when tags are listed for an element.
	NamePath string `json:"name_path,omitempty" yaml:"name_path,omitempty"`
}

// FullIDPath is id path of the tag children.
func (t *Tag) FullIDPath() string {
	return t.IDPath + strconv.FormatInt(t.ID, 10) + "/"
}

const tagColumns = `id, parent_id, id_path, name`

func scanTag(stmt *sqlite.Stmt) *Tag {
	return &Tag{
		ID:       stmt.ColumnInt64(0),
		ParentID: stmt.ColumnInt64(1),
		IDPath:   stmt.ColumnText(2),
		Name:     stmt.ColumnText(3),
	}
}

func (s *Store) tags(query string, args ...any) ([]*Tag, error) {
	var res []*Tag
	err := s.exec(query, func(stmt *sqlite.Stmt) error {
		res = append(res, scanTag(stmt))
		return nil
	}, args...)
	return res, err
}

func (s *Store) getTag(id int64) (*Tag, error) {
	res, err := s.tags(`SELECT `+tagColumns+` FROM tags WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("unable to get tag %d: %w", id, err)
	}
	if len(res) == 0 {
		return nil, fmt.Errorf("tag %d: %w", id, ErrTagNotFound)
	}
	return res[0], nil
}

// GetTag returns tag by id.
func (s *Store) GetTag(ctx context.Context, id int64) (*Tag, error) {
	defer s.lock(ctx)()
	return s.getTag(id)
}

// SaveTag inserts new tag (ID is 0) or updates existing one. When tag gets
// new parent id paths of all its descendants are rewritten.
func (s *Store) SaveTag(ctx context.Context, t *Tag) (err error) {
	defer s.lock(ctx)()

	t.Name = strings.TrimSpace(t.Name)
	if len(t.Name) == 0 {
		return fmt.Errorf("unable to save tag without name")
	}
	idPath := "/"
	if t.ParentID > 0 {
		parent, err := s.getTag(t.ParentID)
		if err != nil {
			return fmt.Errorf("unable to save tag '%s': parent %w", t.Name, err)
		}
		if t.ID > 0 && (parent.ID == t.ID || strings.Contains(parent.FullIDPath(), "/"+strconv.FormatInt(t.ID, 10)+"/")) {
			return fmt.Errorf("unable to save tag '%s': tag cannot be its own ancestor", t.Name)
		}
		idPath = parent.FullIDPath()
	}
	t.IDPath = idPath

	release := sqlitex.Save(s.conn)
	defer release(&err)

	if t.ID <= 0 {
		if err = s.exec(`INSERT INTO tags (parent_id, id_path, name) VALUES (?, ?, ?)`,
			nil, t.ParentID, t.IDPath, t.Name); err != nil {
			return fmt.Errorf("unable to save tag '%s': %w", t.Name, err)
		}
		t.ID = s.conn.LastInsertRowID()
		s.log.Debug("Tag created", zap.Int64("id", t.ID), zap.String("name", t.Name))
		return nil
	}

	var original string
	if err = s.exec(`SELECT id_path FROM tags WHERE id = ?`, func(stmt *sqlite.Stmt) error {
		original = stmt.ColumnText(0)
		return nil
	}, t.ID); err != nil {
		return fmt.Errorf("unable to save tag %d: %w", t.ID, err)
	}
	if err = s.exec(`INSERT INTO tags (id, parent_id, id_path, name) VALUES (?1, ?2, ?3, ?4)
		ON CONFLICT (id) DO UPDATE SET parent_id = ?2, id_path = ?3, name = ?4`,
		nil, t.ID, t.ParentID, t.IDPath, t.Name); err != nil {
		return fmt.Errorf("unable to save tag %d: %w", t.ID, err)
	}

	if len(original) > 0 && original != t.IDPath {
		from := original + strconv.FormatInt(t.ID, 10) + "/"
		if err = s.exec(`UPDATE tags SET id_path = ? || substr(id_path, ?) WHERE instr(id_path, ?) = 1`,
			nil, t.FullIDPath(), int64(len(from))+1, from); err != nil {
			return fmt.Errorf("unable to move children of tag %d: %w", t.ID, err)
		}
		s.log.Debug("Tag moved", zap.Int64("id", t.ID), zap.String("from", original), zap.String("to", t.IDPath))
	}
	return nil
}

// DeleteTag removes tag with all tags under it and their assignments.
func (s *Store) DeleteTag(ctx context.Context, id int64) (err error) {
	defer s.lock(ctx)()

	t, err := s.getTag(id)
	if err != nil {
		return err
	}

	release := sqlitex.Save(s.conn)
	defer release(&err)

	sub := t.FullIDPath()
	if err = s.exec(`DELETE FROM tags_assignment WHERE tag_id = ?1 OR tag_id IN (SELECT id FROM tags WHERE instr(id_path, ?2) = 1)`,
		nil, id, sub); err != nil {
		return fmt.Errorf("unable to delete assignments of tag %d: %w", id, err)
	}
	if err = s.exec(`DELETE FROM tags WHERE id = ?1 OR instr(id_path, ?2) = 1`, nil, id, sub); err != nil {
		return fmt.Errorf("unable to delete tag %d: %w", id, err)
	}
	s.log.Debug("Tag deleted", zap.Int64("id", id), zap.String("name", t.Name))
	return nil
}

// TagChildren lists tags directly under id (0 for top level tags) in
// natural name order.
func (s *Store) TagChildren(ctx context.Context, id int64) ([]*Tag, error) {
	defer s.lock(ctx)()

	res, err := s.tags(`SELECT `+tagColumns+` FROM tags WHERE parent_id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("unable to list children of tag %d: %w", id, err)
	}
	sort.SliceStable(res, func(i, j int) bool { return natural.Less(res[i].Name, res[j].Name) })
	return res, nil
}

func (s *Store) namePath(t *Tag) (string, error) {
	var b strings.Builder
	for _, part := range strings.Split(strings.Trim(t.IDPath, "/"), "/") {
		if len(part) == 0 {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return "", fmt.Errorf("tag %d: bad id path '%s'", t.ID, t.IDPath)
		}
		parent, err := s.getTag(id)
		if err != nil {
			return "", err
		}
		b.WriteString("/" + parent.Name)
	}
	b.WriteString("/" + t.Name)
	return b.String(), nil
}

// TagNamePath returns names of the tag and all its ancestors joined by "/".
func (s *Store) TagNamePath(ctx context.Context, id int64) (string, error) {
	defer s.lock(ctx)()

	t, err := s.getTag(id)
	if err != nil {
		return "", err
	}
	return s.namePath(t)
}

// TagsForElement lists tags assigned to element sorted by name path.
func (s *Store) TagsForElement(ctx context.Context, ref element.Ref) ([]*Tag, error) {
	defer s.lock(ctx)()

	res, err := s.tags(`SELECT tags.id, tags.parent_id, tags.id_path, tags.name FROM tags
		JOIN tags_assignment ON tags_assignment.tag_id = tags.id
		WHERE tags_assignment.ctype = ? AND tags_assignment.cid = ?`, ref.Type.String(), ref.ID)
	if err != nil {
		return nil, fmt.Errorf("unable to get tags of %s: %w", ref, err)
	}
	for _, t := range res {
		if t.NamePath, err = s.namePath(t); err != nil {
			return nil, err
		}
	}
	sort.SliceStable(res, func(i, j int) bool { return natural.Less(res[i].NamePath, res[j].NamePath) })
	return res, nil
}

func (s *Store) assign(tagID int64, ref element.Ref) error {
	if err := s.exec(`INSERT OR IGNORE INTO tags_assignment (tag_id, ctype, cid) VALUES (?, ?, ?)`,
		nil, tagID, ref.Type.String(), ref.ID); err != nil {
		return fmt.Errorf("unable to assign tag %d to %s: %w", tagID, ref, err)
	}
	return nil
}

// AddTagToElement assigns tag to element, assigning it twice is not an error.
func (s *Store) AddTagToElement(ctx context.Context, ref element.Ref, tagID int64) error {
	defer s.lock(ctx)()

	if _, err := s.getTag(tagID); err != nil {
		return err
	}
	if _, err := s.find(ref); err != nil {
		return err
	}
	return s.assign(tagID, ref)
}

func (s *Store) RemoveTagFromElement(ctx context.Context, ref element.Ref, tagID int64) error {
	defer s.lock(ctx)()

	if err := s.exec(`DELETE FROM tags_assignment WHERE tag_id = ? AND ctype = ? AND cid = ?`,
		nil, tagID, ref.Type.String(), ref.ID); err != nil {
		return fmt.Errorf("unable to remove tag %d from %s: %w", tagID, ref, err)
	}
	return nil
}

// SetTagsForElement replaces all tag assignments of element.
func (s *Store) SetTagsForElement(ctx context.Context, ref element.Ref, tagIDs []int64) (err error) {
	defer s.lock(ctx)()

	release := sqlitex.Save(s.conn)
	defer release(&err)

	if err = s.exec(`DELETE FROM tags_assignment WHERE ctype = ? AND cid = ?`, nil, ref.Type.String(), ref.ID); err != nil {
		return fmt.Errorf("unable to clear tags of %s: %w", ref, err)
	}
	for _, id := range tagIDs {
		if err = s.assign(id, ref); err != nil {
			return err
		}
	}
	return nil
}

// BatchAssignTags assigns every tag to every element of type t, with replace
// existing assignments of these elements are dropped first.
func (s *Store) BatchAssignTags(ctx context.Context, t element.Type, ids, tagIDs []int64, replace bool) (err error) {
	defer s.lock(ctx)()

	release := sqlitex.Save(s.conn)
	defer release(&err)

	for _, id := range ids {
		ref := element.NewRef(t, id)
		if replace {
			if err = s.exec(`DELETE FROM tags_assignment WHERE ctype = ? AND cid = ?`, nil, t.String(), id); err != nil {
				return fmt.Errorf("unable to clear tags of %s: %w", ref, err)
			}
		}
		for _, tagID := range tagIDs {
			if err = s.assign(tagID, ref); err != nil {
				return err
			}
		}
	}
	return nil
}

// ElementsForTag lists elements of type t having tag assigned. With
// considerChildTags elements tagged with any tag under it are listed as
// well. Class names only filter objects.
func (s *Store) ElementsForTag(ctx context.Context, tagID int64, t element.Type, subtypes, classNames []string, considerChildTags bool) ([]*element.Header, error) {
	defer s.lock(ctx)()

	tag, err := s.getTag(tagID)
	if err != nil {
		return nil, err
	}

	var (
		q    strings.Builder
		args = []any{t.String()}
	)
	q.WriteString(`SELECT DISTINCT ` + prefixed("el.", headerColumns) + ` FROM tags_assignment
		JOIN elements el ON el.type = tags_assignment.ctype AND el.id = tags_assignment.cid`)
	if considerChildTags {
		q.WriteString(` JOIN tags ON tags.id = tags_assignment.tag_id
		WHERE tags_assignment.ctype = ? AND (tags_assignment.tag_id = ? OR instr(tags.id_path, ?) = 1)`)
		args = append(args, tagID, tag.FullIDPath())
	} else {
		q.WriteString(` WHERE tags_assignment.ctype = ? AND tags_assignment.tag_id = ?`)
		args = append(args, tagID)
	}
	if len(subtypes) > 0 {
		q.WriteString(` AND el.subtype IN (` + placeholders(len(subtypes)) + `)`)
		for _, st := range subtypes {
			args = append(args, st)
		}
	}
	if t == element.TypeObject && len(classNames) > 0 {
		q.WriteString(` AND el.class IN (` + placeholders(len(classNames)) + `)`)
		for _, c := range classNames {
			args = append(args, c)
		}
	}
	q.WriteString(` ORDER BY el.id`)

	var hs []*element.Header
	err = s.exec(q.String(), func(stmt *sqlite.Stmt) error {
		h, err := scanHeader(stmt)
		if err != nil {
			return err
		}
		hs = append(hs, h)
		return nil
	}, args...)
	if err != nil {
		return nil, fmt.Errorf("unable to list elements for tag %d: %w", tagID, err)
	}
	return hs, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func prefixed(prefix, columns string) string {
	fields := strings.Split(columns, ",")
	for i, f := range fields {
		fields[i] = prefix + strings.TrimSpace(f)
	}
	return strings.Join(fields, ", ")
}
