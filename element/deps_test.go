package element

import (
	"reflect"
	"testing"
)

func TestDependencies(t *testing.T) {
	d := NewDependencies(
		NewRef(TypeObject, 10),
		NewRef(TypeObject, 9),
		NewRef(TypeAsset, 1),
		NewRef(TypeObject, 9),
		NewRef(TypeDocument, 0),
	)

	if d.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", d.Len())
	}
	want := []string{"asset_1", "object_9", "object_10"}
	if got := d.Keys(); !reflect.DeepEqual(got, want) {
		t.Errorf("Keys() = %v, want %v", got, want)
	}
	if !d.Has(NewRef(TypeAsset, 1)) || d.Has(NewRef(TypeDocument, 1)) {
		t.Error("Has() gives wrong answer")
	}

	d.Merge(NewDependencies(NewRef(TypeDocument, 2)))
	if got := d.Refs()[0]; got != NewRef(TypeAsset, 1) {
		t.Errorf("Refs()[0] = %v", got)
	}
	if d.Len() != 4 {
		t.Errorf("Len() after Merge = %d, want 4", d.Len())
	}
}
