package element

// Mapping translates old element ids to new ones per element type. It is
// built before any rewriting starts and is never modified during a pass.
// Nil Mapping is valid and maps nothing.
type Mapping map[Type]map[int64]int64

func NewMapping() Mapping {
	return make(Mapping)
}

// Add records translation from old to new id. Mapping must not be nil.
func (m Mapping) Add(t Type, from, to int64) {
	ids, ok := m[t]
	if !ok {
		ids = make(map[int64]int64)
		m[t] = ids
	}
	ids[from] = to
}

// Lookup returns new id for old one. When there is no translation id is
// returned as is.
func (m Mapping) Lookup(t Type, id int64) (int64, bool) {
	ids, ok := m[t]
	if !ok {
		return id, false
	}
	to, ok := ids[id]
	if !ok {
		return id, false
	}
	return to, true
}

// Apply translates reference. Unmapped references are returned unchanged.
func (m Mapping) Apply(ref Ref) (Ref, bool) {
	id, ok := m.Lookup(ref.Type, ref.ID)
	if !ok {
		return ref, false
	}
	return Ref{Type: ref.Type, ID: id}, true
}

// Has reports whether there is translation for the reference.
func (m Mapping) Has(ref Ref) bool {
	_, ok := m.Lookup(ref.Type, ref.ID)
	return ok
}

func (m Mapping) Len() int {
	var n int
	for _, ids := range m {
		n += len(ids)
	}
	return n
}

// Merge copies all translations from other, overwriting existing ones.
func (m Mapping) Merge(other Mapping) {
	for t, ids := range other {
		for from, to := range ids {
			m.Add(t, from, to)
		}
	}
}

// Compose returns mapping equivalent to applying m and then next. Rewriting
// with the result once gives the same value as rewriting with m and then with
// next.
func (m Mapping) Compose(next Mapping) Mapping {
	res := NewMapping()
	for t, ids := range next {
		for from, to := range ids {
			if _, shadowed := m.Lookup(t, from); !shadowed {
				res.Add(t, from, to)
			}
		}
	}
	for t, ids := range m {
		for from, to := range ids {
			final, _ := next.Lookup(t, to)
			res.Add(t, from, final)
		}
	}
	return res
}

// Refs returns all source references the mapping knows about.
func (m Mapping) Refs() []Ref {
	deps := NewDependencies()
	for t, ids := range m {
		for from := range ids {
			deps.Add(Ref{Type: t, ID: from})
		}
	}
	return deps.Refs()
}
