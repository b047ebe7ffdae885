// Package element defines references between content elements and the
// id mapping used to keep them consistent when elements are imported,
// copied or removed.
package element

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Ref identifies an element by type and id. It has no storage of its own,
// references live inside field values of other elements.
type Ref struct {
	Type Type  `json:"type" yaml:"type"`
	ID   int64 `json:"id" yaml:"id"`
}

func NewRef(t Type, id int64) Ref {
	return Ref{Type: t, ID: id}
}

// Key returns dependency key in form "type_id".
func (r Ref) Key() string {
	return r.Type.String() + "_" + strconv.FormatInt(r.ID, 10)
}

func (r Ref) String() string {
	return r.Key()
}

// Valid reports whether reference could point to an existing element.
func (r Ref) Valid() bool {
	return r.Type.IsValid() && r.ID > 0
}

// ParseRef accepts "type_id", "type:id" and "type/id".
func ParseRef(s string) (Ref, error) {
	i := strings.LastIndexAny(s, "_:/")
	if i <= 0 || i == len(s)-1 {
		return Ref{}, fmt.Errorf("malformed element reference '%s'", s)
	}
	t, err := ParseType(s[:i])
	if err != nil {
		return Ref{}, fmt.Errorf("malformed element reference '%s': %w", s, err)
	}
	id, err := strconv.ParseInt(s[i+1:], 10, 64)
	if err != nil || id <= 0 {
		return Ref{}, fmt.Errorf("malformed element reference '%s': bad id", s)
	}
	return Ref{Type: t, ID: id}, nil
}

// ParseTypeName is ParseType which reports failure instead of error, used
// where type comes from loosely structured data.
func ParseTypeName(name string) (Type, bool) {
	if len(name) == 0 {
		return Type(0), false
	}
	t, err := ParseType(name)
	if err != nil {
		return Type(0), false
	}
	return t, true
}

// ToID converts loosely typed decoded value (YAML, JSON, form data) to
// element id. Anything which is not a positive integer is rejected.
func ToID(v any) (int64, bool) {
	var id int64
	switch n := v.(type) {
	case int:
		id = int64(n)
	case int32:
		id = int64(n)
	case int64:
		id = n
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		id = int64(n)
	case float64:
		if n != math.Trunc(n) || n > math.MaxInt64 {
			return 0, false
		}
		id = int64(n)
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		id = i
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err != nil {
			return 0, false
		}
		id = i
	default:
		return 0, false
	}
	if id <= 0 {
		return 0, false
	}
	return id, true
}
