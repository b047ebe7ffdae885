package model

import (
	"bytes"
	"reflect"
	"testing"

	"relink/element"
	"relink/tag"
)

func TestContentRoundTrip(t *testing.T) {
	w := testWalker(t)

	d := testDocument(t)
	raw, err := EncodeContent(w.Schema(), d)
	if err != nil {
		t.Fatalf("EncodeContent() error = %v", err)
	}
	back := New(element.TypeDocument)
	if err := DecodeContent(w.Schema(), back, raw); err != nil {
		t.Fatalf("DecodeContent() error = %v", err)
	}
	bd := back.(*Document)
	if !reflect.DeepEqual(bd.EditableNames(), d.EditableNames()) {
		t.Errorf("editables = %v, want %v", bd.EditableNames(), d.EditableNames())
	}
	if l := bd.Editables["more"].(*tag.Link); l.Data.InternalID != 4 {
		t.Errorf("link = %+v", l.Data)
	}

	o := testObject()
	raw, err = EncodeContent(w.Schema(), o)
	if err != nil {
		t.Fatalf("EncodeContent() error = %v", err)
	}
	bo := New(element.TypeObject).(*Object)
	bo.ClassName = "Product"
	if err := DecodeContent(w.Schema(), bo, raw); err != nil {
		t.Fatalf("DecodeContent() error = %v", err)
	}
	if !reflect.DeepEqual(bo.Values, o.Values) {
		t.Errorf("values = %#v, want %#v", bo.Values, o.Values)
	}
}

func TestContentUnknownClassPreserved(t *testing.T) {
	w := testWalker(t)
	o := New(element.TypeObject).(*Object)
	o.ClassName = "Legacy"
	stored := []byte(`{"fields":{"a":{"x":1}}}`)
	if err := DecodeContent(w.Schema(), o, stored); err != nil {
		t.Fatalf("DecodeContent() error = %v", err)
	}
	raw, err := EncodeContent(w.Schema(), o)
	if err != nil {
		t.Fatalf("EncodeContent() error = %v", err)
	}
	if !bytes.Contains(raw, []byte(`"a":{"x":1}`)) {
		t.Errorf("EncodeContent() = %s", raw)
	}
}

func TestClone(t *testing.T) {
	w := testWalker(t)
	d := testDocument(t)

	c, err := Clone(w.Schema(), d)
	if err != nil {
		t.Fatalf("Clone() error = %v", err)
	}
	cd := c.(*Document)
	cd.Editables["more"].(*tag.Link).Data.InternalID = 99
	cd.Properties[0].Data = int64(99)
	cd.Key = "copy"

	if d.Editables["more"].(*tag.Link).Data.InternalID != 4 {
		t.Error("Clone() shares editables")
	}
	if d.Properties[0].Data != int64(3) {
		t.Error("Clone() shares properties")
	}
	if d.Key == "copy" {
		t.Error("Clone() shares header")
	}

	a := New(element.TypeAsset).(*Asset)
	a.SetData([]byte("hello"))
	ca, err := Clone(w.Schema(), a)
	if err != nil {
		t.Fatalf("Clone() error = %v", err)
	}
	ca.(*Asset).Data[0] = 'j'
	if string(a.Data) != "hello" || ca.(*Asset).MimeType != a.MimeType {
		t.Errorf("Clone() asset = %q/%s", a.Data, ca.(*Asset).MimeType)
	}
}

func TestValidate(t *testing.T) {
	w := testWalker(t)
	o := testObject()
	if err := Validate(w.Schema(), o); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
	o.ClassName = "Gone"
	if err := Validate(w.Schema(), o); err == nil {
		t.Error("Validate() expected error for unknown class")
	}
	if err := Validate(w.Schema(), New(element.TypeAsset)); err != nil {
		t.Errorf("Validate(asset) error = %v", err)
	}
}
