package graph

import (
	"context"

	"relink/element"
)

// Index keeps dependency relation in memory.
type Index struct {
	requires   map[string]element.Dependencies
	requiredBy map[string]element.Dependencies
}

func NewIndex() *Index {
	return &Index{
		requires:   make(map[string]element.Dependencies),
		requiredBy: make(map[string]element.Dependencies),
	}
}

// Set replaces dependencies of ref.
func (x *Index) Set(ref element.Ref, deps element.Dependencies) {
	key := ref.Key()
	for _, old := range x.requires[key] {
		delete(x.requiredBy[old.Key()], key)
	}
	set := element.NewDependencies()
	for _, d := range deps {
		if d == ref {
			continue
		}
		set.Add(d)
		users, ok := x.requiredBy[d.Key()]
		if !ok {
			users = element.NewDependencies()
			x.requiredBy[d.Key()] = users
		}
		users.Add(ref)
	}
	x.requires[key] = set
}

// Remove forgets dependencies of ref, elements requiring ref are unaffected.
func (x *Index) Remove(ref element.Ref) {
	x.Set(ref, nil)
	delete(x.requires, ref.Key())
}

func (x *Index) Requires(_ context.Context, ref element.Ref) ([]element.Ref, error) {
	return x.requires[ref.Key()].Refs(), nil
}

func (x *Index) RequiredBy(_ context.Context, ref element.Ref) ([]element.Ref, error) {
	return x.requiredBy[ref.Key()].Refs(), nil
}
