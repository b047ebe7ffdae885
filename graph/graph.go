// Package graph answers questions about element dependency graph: what has
// to be exported together with an element and what blocks its deletion.
package graph

import (
	"context"

	"relink/element"
)

// Source provides both directions of the dependency relation.
type Source interface {
	Requires(ctx context.Context, ref element.Ref) ([]element.Ref, error)
	RequiredBy(ctx context.Context, ref element.Ref) ([]element.Ref, error)
}

// Closure returns roots with everything they transitively require in
// breadth first visit order. Non positive maxDepth means unlimited depth.
func Closure(ctx context.Context, src Source, roots []element.Ref, maxDepth int) ([]element.Ref, error) {
	seen := element.NewDependencies()
	var (
		order []element.Ref
		level []element.Ref
	)
	for _, r := range roots {
		if seen.Add(r) {
			order = append(order, r)
			level = append(level, r)
		}
	}

	for depth := 0; len(level) > 0 && (maxDepth <= 0 || depth < maxDepth); depth++ {
		var next []element.Ref
		for _, r := range level {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			deps, err := src.Requires(ctx, r)
			if err != nil {
				return nil, err
			}
			for _, d := range deps {
				if seen.Add(d) {
					order = append(order, d)
					next = append(next, d)
				}
			}
		}
		level = next
	}
	return order, nil
}

// Blockers returns elements outside of set which require any of its members.
// Deleting the set is safe when nothing is returned.
func Blockers(ctx context.Context, src Source, set element.Dependencies) ([]element.Ref, error) {
	blockers := element.NewDependencies()
	for _, r := range set.Refs() {
		users, err := src.RequiredBy(ctx, r)
		if err != nil {
			return nil, err
		}
		for _, u := range users {
			if !set.Has(u) {
				blockers.Add(u)
			}
		}
	}
	return blockers.Refs(), nil
}
