package element

import (
	"sort"

	"github.com/maruel/natural"
)

// Dependencies is a set of references keyed by Ref.Key().
type Dependencies map[string]Ref

func NewDependencies(refs ...Ref) Dependencies {
	d := make(Dependencies, len(refs))
	for _, r := range refs {
		d.Add(r)
	}
	return d
}

// Add inserts reference into the set, invalid references are ignored.
func (d Dependencies) Add(ref Ref) bool {
	if !ref.Valid() {
		return false
	}
	key := ref.Key()
	if _, exists := d[key]; exists {
		return false
	}
	d[key] = ref
	return true
}

func (d Dependencies) Merge(other Dependencies) {
	for k, r := range other {
		d[k] = r
	}
}

func (d Dependencies) Has(ref Ref) bool {
	_, ok := d[ref.Key()]
	return ok
}

func (d Dependencies) Len() int {
	return len(d)
}

// Keys returns keys in natural order.
func (d Dependencies) Keys() []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Sort(natural.StringSlice(keys))
	return keys
}

// Refs returns references in natural order of their keys.
func (d Dependencies) Refs() []Ref {
	keys := d.Keys()
	refs := make([]Ref, 0, len(keys))
	for _, k := range keys {
		refs = append(refs, d[k])
	}
	return refs
}
