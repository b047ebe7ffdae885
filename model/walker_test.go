package model

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"relink/element"
	"relink/field"
	"relink/tag"
)

const testSchema = `
classes:
  - name: Product
    fields:
      - {fieldtype: input, name: name}
      - {fieldtype: href, name: manual}
      - {fieldtype: objects, name: accessories}
`

func testWalker(t *testing.T) *Walker {
	t.Helper()
	s, err := field.LoadSchema(strings.NewReader(testSchema), nil)
	if err != nil {
		t.Fatalf("LoadSchema() error = %v", err)
	}
	return NewWalker(s, zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1))))
}

func testDocument(t *testing.T) *Document {
	t.Helper()
	d := New(element.TypeDocument).(*Document)
	d.Ref.ID = 2
	d.ParentID = 1
	d.Properties = []element.Property{{Name: "nav", Type: "document", Data: int64(3)}}

	link, err := tag.Decode(tag.TypeLink, "more", []byte(`{"internal":true,"internalType":"document","internalId":4}`))
	if err != nil {
		t.Fatal(err)
	}
	self, _ := tag.Decode(tag.TypeSnippet, "self", []byte(`{"id":2}`))
	img, _ := tag.Decode(tag.TypeImage, "hero", []byte(`{"id":5}`))
	text, _ := tag.Decode(tag.TypeWysiwyg, "body", []byte(`"<a pimcore_id=\"6\" pimcore_type=\"object\">x</a>"`))
	d.Set(link)
	d.Set(self)
	d.Set(img)
	d.Set(text)
	return d
}

func testObject() *Object {
	o := New(element.TypeObject).(*Object)
	o.Ref.ID = 10
	o.ClassName = "Product"
	o.Values = map[string]any{
		"name":        "Widget",
		"manual":      element.NewRef(element.TypeDocument, 4),
		"accessories": []int64{11, 12},
	}
	return o
}

func TestWalkerDependencies(t *testing.T) {
	w := testWalker(t)

	want := []string{"asset_5", "document_3", "document_4", "object_6"}
	if got := w.Dependencies(testDocument(t)).Keys(); !reflect.DeepEqual(got, want) {
		t.Errorf("Dependencies(document) = %v, want %v", got, want)
	}

	want = []string{"document_4", "object_11", "object_12"}
	if got := w.Dependencies(testObject()).Keys(); !reflect.DeepEqual(got, want) {
		t.Errorf("Dependencies(object) = %v, want %v", got, want)
	}
}

func TestWalkerRewriteIDs(t *testing.T) {
	w := testWalker(t)

	m := element.NewMapping()
	m.Add(element.TypeDocument, 3, 30)
	m.Add(element.TypeDocument, 4, 40)
	m.Add(element.TypeObject, 11, 110)
	m.Add(element.TypeObject, 6, 60)

	d := testDocument(t)
	w.RewriteIDs(d, m)
	want := []string{"asset_5", "document_30", "document_40", "object_60"}
	if got := w.Dependencies(d).Keys(); !reflect.DeepEqual(got, want) {
		t.Errorf("document after rewrite = %v, want %v", got, want)
	}

	o := testObject()
	w.RewriteIDs(o, m)
	want = []string{"document_40", "object_110", "object_12"}
	if got := w.Dependencies(o).Keys(); !reflect.DeepEqual(got, want) {
		t.Errorf("object after rewrite = %v, want %v", got, want)
	}
	if o.Ref.ID != 10 {
		t.Errorf("RewriteIDs() changed object id to %d", o.Ref.ID)
	}
}

func TestWalkerUnknownClass(t *testing.T) {
	w := testWalker(t)
	o := testObject()
	o.ClassName = "Gone"
	o.Properties = []element.Property{{Name: "p", Type: "asset", Data: 1}}

	m := element.NewMapping()
	m.Add(element.TypeAsset, 1, 2)
	m.Add(element.TypeDocument, 4, 40)
	w.RewriteIDs(o, m)

	if o.Properties[0].Data != int64(2) {
		t.Errorf("property = %v, want 2", o.Properties[0].Data)
	}
	if o.Values["manual"] != element.NewRef(element.TypeDocument, 4) {
		t.Errorf("field of unknown class changed to %v", o.Values["manual"])
	}
	if got := w.Dependencies(o).Keys(); !reflect.DeepEqual(got, []string{"asset_2"}) {
		t.Errorf("Dependencies() = %v", got)
	}
}

func TestRewriteSelf(t *testing.T) {
	d := testDocument(t)
	m := element.NewMapping()
	m.Add(element.TypeDocument, 2, 20)
	m.Add(element.TypeDocument, 1, 10)
	RewriteSelf(d, m)
	if d.Ref.ID != 20 || d.ParentID != 10 {
		t.Errorf("RewriteSelf() = %d/%d, want 20/10", d.Ref.ID, d.ParentID)
	}
}

type existing map[element.Ref]bool

func (e existing) Find(_ context.Context, ref element.Ref) (*element.Header, error) {
	if e[ref] {
		return &element.Header{Ref: ref}, nil
	}
	return nil, fmt.Errorf("%s: %w", ref, element.ErrNotFound)
}

func (e existing) FindByPath(_ context.Context, _ element.Type, p string) (*element.Header, error) {
	return nil, element.ErrNotFound
}

func TestWalkerSanitize(t *testing.T) {
	w := testWalker(t)
	f := existing{element.NewRef(element.TypeDocument, 4): true}

	d := testDocument(t)
	removed, err := w.Sanitize(context.Background(), d, f)
	if err != nil {
		t.Fatalf("Sanitize() error = %v", err)
	}
	// property document_3, image asset_5, self snippet document_2
	if removed != 3 {
		t.Errorf("Sanitize() removed = %d, want 3", removed)
	}
	want := []string{"document_4", "object_6"}
	if got := w.Dependencies(d).Keys(); !reflect.DeepEqual(got, want) {
		t.Errorf("Dependencies() after Sanitize = %v, want %v", got, want)
	}

	o := testObject()
	removed, err = w.Sanitize(context.Background(), o, f)
	if err != nil {
		t.Fatalf("Sanitize() error = %v", err)
	}
	if removed != 2 {
		t.Errorf("Sanitize() removed = %d, want 2", removed)
	}
	if got := o.Values["accessories"]; !reflect.DeepEqual(got, []int64{}) {
		t.Errorf("accessories = %#v", got)
	}
}

type headers map[element.Ref]*element.Header

func (hs headers) Find(_ context.Context, ref element.Ref) (*element.Header, error) {
	if h, ok := hs[ref]; ok {
		return h, nil
	}
	return nil, fmt.Errorf("%s: %w", ref, element.ErrNotFound)
}

func (hs headers) FindByPath(_ context.Context, _ element.Type, _ string) (*element.Header, error) {
	return nil, element.ErrNotFound
}

func TestWalkerRefreshPaths(t *testing.T) {
	w := testWalker(t)
	d := testDocument(t)
	d.Editables["more"].(*tag.Link).Data.Path = "/exported/elsewhere"

	m := element.NewMapping()
	m.Add(element.TypeDocument, 4, 40)
	w.RewriteIDs(d, m)

	f := headers{element.NewRef(element.TypeDocument, 40): {
		Ref: element.NewRef(element.TypeDocument, 40), Path: "/news/", Key: "second",
	}}
	if err := w.RefreshPaths(context.Background(), d, f); err != nil {
		t.Fatalf("RefreshPaths() error = %v", err)
	}
	if got := d.Editables["more"].(*tag.Link).Data.Path; got != "/news/second" {
		t.Errorf("link path = %q, want /news/second", got)
	}

	// objects carry no cached paths
	if err := w.RefreshPaths(context.Background(), testObject(), f); err != nil {
		t.Errorf("RefreshPaths(object) error = %v", err)
	}
}
