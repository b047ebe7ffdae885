// Package richtext finds and rewrites element references embedded into
// rich text. Links and images created by the editor carry pimcore_id and
// pimcore_type attributes which identify referenced element.
package richtext

import (
	"bytes"
	"errors"
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"relink/element"
)

const (
	attrID   = "pimcore_id"
	attrType = "pimcore_type"
)

// tagRef extracts reference from the current start tag of the tokenizer.
// Only the first occurrence of each attribute counts. Note that tokenizer
// lowercases names in its buffer, raw token must be copied before.
func tagRef(z *html.Tokenizer) (element.Ref, bool) {
	name, hasAttr := z.TagName()
	if !hasAttr {
		return element.Ref{}, false
	}
	switch string(name) {
	case "a", "img":
	default:
		return element.Ref{}, false
	}

	var (
		idVal, typVal []byte
		seenID, seenT bool
	)
	for more := true; more; {
		var key, val []byte
		key, val, more = z.TagAttr()
		switch string(key) {
		case attrID:
			if !seenID {
				idVal, seenID = val, true
			}
		case attrType:
			if !seenT {
				typVal, seenT = val, true
			}
		}
	}
	id, ok := element.ToID(string(idVal))
	if !ok {
		return element.Ref{}, false
	}
	typ, ok := element.ParseTypeName(strings.TrimSpace(string(typVal)))
	if !ok {
		return element.Ref{}, false
	}
	return element.Ref{Type: typ, ID: id}, true
}

// walk calls visit for every token. Tag references are passed to visit when
// token is a start tag of reference carrying element.
func walk(text string, visit func(raw []byte, ref element.Ref, isRef bool)) error {
	z := html.NewTokenizer(strings.NewReader(text))
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				return nil
			}
			return z.Err()
		case html.StartTagToken, html.SelfClosingTagToken:
			raw := bytes.Clone(z.Raw())
			ref, ok := tagRef(z)
			visit(raw, ref, ok)
		default:
			visit(z.Raw(), element.Ref{}, false)
		}
	}
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\n' || c == '\r' || c == '\t' || c == '\f'
}

// attrValue locates value of the first attribute called name in raw start
// tag. It follows tokenizer rules for attribute boundaries so text inside
// other attribute values is never matched. Returned span excludes quotes.
func attrValue(raw []byte, name string) (start, end int, ok bool) {
	i := 1 // skip '<'
	for i < len(raw) && !isSpace(raw[i]) && raw[i] != '/' && raw[i] != '>' {
		i++
	}
	for i < len(raw) {
		for i < len(raw) && (isSpace(raw[i]) || raw[i] == '/') {
			i++
		}
		if i >= len(raw) || raw[i] == '>' {
			return 0, 0, false
		}

		keyStart := i
		i++ // leading '=' belongs to the name
		for i < len(raw) && !isSpace(raw[i]) && raw[i] != '/' && raw[i] != '=' && raw[i] != '>' {
			i++
		}
		key := raw[keyStart:i]

		for i < len(raw) && isSpace(raw[i]) {
			i++
		}
		if i >= len(raw) || raw[i] != '=' {
			if strings.EqualFold(string(key), name) {
				return 0, 0, false
			}
			continue
		}
		i++
		for i < len(raw) && isSpace(raw[i]) {
			i++
		}

		var vs, ve int
		if i < len(raw) && (raw[i] == '"' || raw[i] == '\'') {
			quote := raw[i]
			vs = i + 1
			ve = bytes.IndexByte(raw[vs:], quote)
			if ve < 0 {
				return 0, 0, false
			}
			ve += vs
			i = ve + 1
		} else {
			vs = i
			for i < len(raw) && !isSpace(raw[i]) && raw[i] != '>' {
				i++
			}
			ve = i
		}
		if strings.EqualFold(string(key), name) {
			return vs, ve, true
		}
	}
	return 0, 0, false
}

// replaceID substitutes id inside pimcore_id value of raw start tag keeping
// whitespace around it.
func replaceID(raw []byte, id int64) ([]byte, bool) {
	vs, ve, ok := attrValue(raw, attrID)
	if !ok {
		return raw, false
	}
	for vs < ve && isSpace(raw[vs]) {
		vs++
	}
	for ve > vs && isSpace(raw[ve-1]) {
		ve--
	}
	if vs == ve {
		return raw, false
	}
	out := make([]byte, 0, len(raw)+8)
	out = append(out, raw[:vs]...)
	out = strconv.AppendInt(out, id, 10)
	return append(out, raw[ve:]...), true
}

// mayHaveRefs is a quick check to avoid tokenizing plain texts.
func mayHaveRefs(text string) bool {
	return strings.Contains(strings.ToLower(text), attrID)
}

// References returns all element references found in text.
func References(text string) element.Dependencies {
	deps := element.NewDependencies()
	if !mayHaveRefs(text) {
		return deps
	}
	err := walk(text, func(_ []byte, ref element.Ref, isRef bool) {
		if isRef {
			deps.Add(ref)
		}
	})
	if err != nil {
		return element.NewDependencies()
	}
	return deps
}

// Rewrite replaces ids of mapped references in text. Everything else,
// including link targets and image sources, is copied unchanged.
func Rewrite(text string, m element.Mapping) string {
	if m.Len() == 0 || !mayHaveRefs(text) {
		return text
	}

	var (
		buf     bytes.Buffer
		changed bool
	)
	buf.Grow(len(text))
	err := walk(text, func(raw []byte, ref element.Ref, isRef bool) {
		if !isRef {
			buf.Write(raw)
			return
		}
		to, ok := m.Apply(ref)
		if !ok || to.ID == ref.ID {
			buf.Write(raw)
			return
		}
		out, replaced := replaceID(raw, to.ID)
		changed = changed || replaced
		buf.Write(out)
	})
	if err != nil || !changed {
		return text
	}
	return buf.String()
}
