package graph

import (
	"context"
	"reflect"
	"testing"

	"relink/element"
)

func doc(id int64) element.Ref { return element.NewRef(element.TypeDocument, id) }
func asset(id int64) element.Ref { return element.NewRef(element.TypeAsset, id) }

// 2 -> 3 -> 4 -> asset 5, 4 -> 2 (cycle), 6 -> 3
func testIndex() *Index {
	x := NewIndex()
	x.Set(doc(2), element.NewDependencies(doc(3)))
	x.Set(doc(3), element.NewDependencies(doc(4)))
	x.Set(doc(4), element.NewDependencies(asset(5), doc(2)))
	x.Set(doc(6), element.NewDependencies(doc(3)))
	return x
}

func TestClosure(t *testing.T) {
	x := testIndex()
	tests := []struct {
		name  string
		roots []element.Ref
		depth int
		want  []element.Ref
	}{
		{"unlimited", []element.Ref{doc(2)}, 0, []element.Ref{doc(2), doc(3), doc(4), asset(5)}},
		{"depth 1", []element.Ref{doc(2)}, 1, []element.Ref{doc(2), doc(3)}},
		{"leaf", []element.Ref{asset(5)}, 0, []element.Ref{asset(5)}},
		{"several roots", []element.Ref{doc(6), doc(4)}, 1, []element.Ref{doc(6), doc(4), doc(3), asset(5), doc(2)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Closure(context.Background(), x, tt.roots, tt.depth)
			if err != nil {
				t.Fatalf("Closure() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Closure() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClosureCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Closure(ctx, testIndex(), []element.Ref{doc(2)}, 0); err == nil {
		t.Error("Closure() expected error on canceled context")
	}
}

func TestBlockers(t *testing.T) {
	x := testIndex()
	ctx := context.Background()

	got, err := Blockers(ctx, x, element.NewDependencies(doc(3)))
	if err != nil {
		t.Fatal(err)
	}
	if want := []element.Ref{doc(2), doc(6)}; !reflect.DeepEqual(got, want) {
		t.Errorf("Blockers() = %v, want %v", got, want)
	}

	got, _ = Blockers(ctx, x, element.NewDependencies(doc(2), doc(3), doc(4), doc(6)))
	if len(got) != 0 {
		t.Errorf("Blockers() = %v, want none", got)
	}
}

func TestIndexSet(t *testing.T) {
	x := testIndex()
	ctx := context.Background()

	x.Set(doc(6), element.NewDependencies(doc(6), asset(5)))
	users, _ := x.RequiredBy(ctx, doc(3))
	if want := []element.Ref{doc(2)}; !reflect.DeepEqual(users, want) {
		t.Errorf("RequiredBy() = %v, want %v", users, want)
	}
	deps, _ := x.Requires(ctx, doc(6))
	if want := []element.Ref{asset(5)}; !reflect.DeepEqual(deps, want) {
		t.Errorf("Requires() = %v, want %v", deps, want)
	}

	x.Remove(doc(4))
	users, _ = x.RequiredBy(ctx, asset(5))
	if want := []element.Ref{doc(6)}; !reflect.DeepEqual(users, want) {
		t.Errorf("RequiredBy() after Remove = %v, want %v", users, want)
	}
}
