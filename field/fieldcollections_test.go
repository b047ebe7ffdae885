package field

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"relink/element"
)

func TestFieldcollectionsCodec(t *testing.T) {
	fd := testField(t, "blocks")

	stored := `[
		{"type":"teaser","index":0,"values":{"headline":"Hi","target":{"internalType":"document","internal":4},"picture":20,"stale":"dropped"}},
		{"type":"legacy","index":1,"values":{"anything":{"id":1}}}
	]`
	v, err := fd.Decode(json.RawMessage(stored))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	fc := v.(Fieldcollection)
	if len(fc.Items) != 2 {
		t.Fatalf("Decode() items = %d, want 2", len(fc.Items))
	}
	teaser := fc.Items[0]
	if teaser.Values["headline"] != "Hi" || teaser.Values["picture"] != int64(20) {
		t.Errorf("teaser values = %#v", teaser.Values)
	}
	if _, ok := teaser.Values["stale"]; ok {
		t.Error("value of unknown field was kept")
	}
	if l, ok := teaser.Values["target"].(Link); !ok || l.Internal != 4 {
		t.Errorf("teaser target = %#v", teaser.Values["target"])
	}

	raw, err := fd.Encode(fc)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if !strings.Contains(string(raw), `"anything":{"id":1}`) {
		t.Errorf("item of unknown collection was not preserved: %s", raw)
	}

	// unknown collection items carry no references
	deps := ResolveDependencies(fd, fc)
	if deps.Len() != 2 || !deps.Has(element.NewRef(element.TypeDocument, 4)) || !deps.Has(element.NewRef(element.TypeAsset, 20)) {
		t.Errorf("ResolveDependencies() = %v", deps.Keys())
	}
}

func TestFieldcollectionsValidate(t *testing.T) {
	fd := testField(t, "blocks")

	item := func(typ string) CollectionItem {
		return CollectionItem{Type: typ, Values: map[string]any{"headline": "x"}}
	}

	tests := []struct {
		name    string
		value   Fieldcollection
		wantErr error
	}{
		{"valid", Fieldcollection{Items: []CollectionItem{item("teaser")}}, nil},
		{"too many", Fieldcollection{Items: []CollectionItem{item("teaser"), item("teaser"), item("teaser"), item("teaser")}}, ErrInvalidValue},
		{"not allowed", Fieldcollection{Items: []CollectionItem{item("legacy")}}, ErrInvalidValue},
		{"child mandatory", Fieldcollection{Items: []CollectionItem{{Type: "teaser", Values: map[string]any{}}}}, ErrMandatory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := fd.Validate(tt.value, false)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestFieldcollectionsLateCollections(t *testing.T) {
	// field built before collection is registered still sees it
	b := NewBuilder(nil)
	fd, err := b.Build(&Spec{Type: TypeFieldcollections, Name: "blocks"})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	img, _ := b.Build(&Spec{Type: TypeImage, Name: "img"})
	b.Collections["pic"] = &CollectionDefinition{Key: "pic", Fields: []Definition{img}}

	v := Fieldcollection{Items: []CollectionItem{{Type: "pic", Values: map[string]any{"img": int64(3)}}}}
	if deps := ResolveDependencies(fd, v); !deps.Has(element.NewRef(element.TypeAsset, 3)) {
		t.Errorf("ResolveDependencies() = %v", deps.Keys())
	}
}
