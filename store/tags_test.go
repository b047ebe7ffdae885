package store

import (
	"context"
	"errors"
	"testing"

	"relink/element"
)

func saveTag(t *testing.T, s *Store, parent int64, name string) *Tag {
	t.Helper()
	tg := &Tag{ParentID: parent, Name: name}
	if err := s.SaveTag(context.Background(), tg); err != nil {
		t.Fatalf("SaveTag(%s) error = %v", name, err)
	}
	return tg
}

func TestSaveTag(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	color := saveTag(t, s, 0, "color")
	red := saveTag(t, s, color.ID, "red")
	dark := saveTag(t, s, red.ID, "dark")
	other := saveTag(t, s, 0, "other")

	if red.IDPath != color.FullIDPath() || dark.IDPath != red.FullIDPath() {
		t.Errorf("IDPath = %s, %s", red.IDPath, dark.IDPath)
	}
	np, err := s.TagNamePath(ctx, dark.ID)
	if err != nil || np != "/color/red/dark" {
		t.Errorf("TagNamePath() = %s, %v", np, err)
	}

	red.ParentID = other.ID
	if err := s.SaveTag(ctx, red); err != nil {
		t.Fatalf("SaveTag(move) error = %v", err)
	}
	got, err := s.GetTag(ctx, dark.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.IDPath != red.FullIDPath() {
		t.Errorf("descendant IDPath = %s, want %s", got.IDPath, red.FullIDPath())
	}
	np, _ = s.TagNamePath(ctx, dark.ID)
	if np != "/other/red/dark" {
		t.Errorf("TagNamePath() after move = %s", np)
	}

	red.ParentID = dark.ID
	if err := s.SaveTag(ctx, red); err == nil {
		t.Error("SaveTag() expected error for cycle")
	}

	children, _ := s.TagChildren(ctx, 0)
	if len(children) != 2 || children[0].Name != "color" || children[1].Name != "other" {
		t.Errorf("TagChildren(0) = %v", children)
	}
}

func TestTagAssignments(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	color := saveTag(t, s, 0, "color")
	red := saveTag(t, s, color.ID, "red")
	size := saveTag(t, s, 0, "size")

	a := newDocument(t, s, 0, "a")
	b := newDocument(t, s, 0, "b")

	if err := s.AddTagToElement(ctx, a.Ref, size.ID); err != nil {
		t.Fatal(err)
	}
	if err := s.AddTagToElement(ctx, a.Ref, red.ID); err != nil {
		t.Fatal(err)
	}
	if err := s.AddTagToElement(ctx, a.Ref, red.ID); err != nil {
		t.Errorf("AddTagToElement() twice error = %v", err)
	}
	if err := s.AddTagToElement(ctx, a.Ref, 999); !errors.Is(err, ErrTagNotFound) {
		t.Errorf("AddTagToElement() error = %v, want ErrTagNotFound", err)
	}

	tags, err := s.TagsForElement(ctx, a.Ref)
	if err != nil {
		t.Fatal(err)
	}
	if len(tags) != 2 || tags[0].NamePath != "/color/red" || tags[1].NamePath != "/size" {
		t.Errorf("TagsForElement() = %v", tags)
	}

	if err := s.BatchAssignTags(ctx, element.TypeDocument, []int64{a.Ref.ID, b.Ref.ID}, []int64{color.ID}, true); err != nil {
		t.Fatal(err)
	}
	tags, _ = s.TagsForElement(ctx, a.Ref)
	if len(tags) != 1 || tags[0].ID != color.ID {
		t.Errorf("TagsForElement() after batch = %v", tags)
	}

	if err := s.SetTagsForElement(ctx, b.Ref, []int64{red.ID}); err != nil {
		t.Fatal(err)
	}
	hs, err := s.ElementsForTag(ctx, color.ID, element.TypeDocument, nil, nil, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(hs) != 1 || hs[0].Ref != a.Ref {
		t.Errorf("ElementsForTag() = %v", hs)
	}
	hs, _ = s.ElementsForTag(ctx, color.ID, element.TypeDocument, nil, nil, true)
	if len(hs) != 2 {
		t.Errorf("ElementsForTag(children) = %v", hs)
	}
	hs, _ = s.ElementsForTag(ctx, color.ID, element.TypeDocument, []string{"email"}, nil, true)
	if len(hs) != 0 {
		t.Errorf("ElementsForTag(subtype) = %v", hs)
	}

	if err := s.RemoveTagFromElement(ctx, b.Ref, red.ID); err != nil {
		t.Fatal(err)
	}
	tags, _ = s.TagsForElement(ctx, b.Ref)
	if len(tags) != 0 {
		t.Errorf("TagsForElement() after remove = %v", tags)
	}

	if err := s.DeleteTag(ctx, color.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetTag(ctx, red.ID); !errors.Is(err, ErrTagNotFound) {
		t.Errorf("GetTag(child) after delete error = %v", err)
	}
	tags, _ = s.TagsForElement(ctx, a.Ref)
	if len(tags) != 0 {
		t.Errorf("TagsForElement() after DeleteTag = %v", tags)
	}
}
