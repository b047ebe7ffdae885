// Package importer brings bundles of elements exported elsewhere into the
// store, giving them new ids and translating all references between them.
package importer

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	yaml "gopkg.in/yaml.v3"

	"relink/archive"
	"relink/element"
	"relink/field"
	"relink/model"
	"relink/tag"
)

// Editable is exported document editable.
type Editable struct {
	Type string `yaml:"type" json:"type"`
	Data any    `yaml:"data" json:"data"`

	raw json.RawMessage
}

// Item is a single exported element. ID and ParentID are ids in the
// exporting system.
type Item struct {
	Type       element.Type        `yaml:"type"`
	Subtype    string              `yaml:"subtype,omitempty"`
	ID         int64               `yaml:"id"`
	ParentID   int64               `yaml:"parent_id,omitempty"`
	Path       string              `yaml:"path"`
	Key        string              `yaml:"key,omitempty"`
	Filename   string              `yaml:"filename,omitempty"`
	Class      string              `yaml:"class,omitempty"`
	Published  bool                `yaml:"published,omitempty"`
	Properties []element.Property  `yaml:"properties,omitempty"`
	Editables  map[string]Editable `yaml:"editables,omitempty"`
	Fields     map[string]any      `yaml:"fields,omitempty"`
	Data       string              `yaml:"data,omitempty"`
	// File names asset payload inside bundle package, used instead of Data.
	File       string              `yaml:"file,omitempty"`

	// stored field values, XML bundles carry them as JSON text
	rawFields map[string]json.RawMessage
	payload   []byte
}

// Bundle is a set of exported elements.
type Bundle struct {
	Elements []*Item `yaml:"elements"`
}

// Ref is reference to the element in exporting system.
func (it *Item) Ref() element.Ref {
	return element.NewRef(it.Type, it.ID)
}

// ElementKey is key of the element, assets are identified by file name.
func (it *Item) ElementKey() string {
	if it.Type == element.TypeAsset && len(it.Filename) > 0 {
		return it.Filename
	}
	return it.Key
}

func (it *Item) depth() int {
	p := strings.Trim(it.Path, "/")
	if len(p) == 0 {
		return 0
	}
	return strings.Count(p, "/") + 1
}

// ordered returns items with parents before children.
func (b *Bundle) ordered() []*Item {
	items := make([]*Item, len(b.Elements))
	copy(items, b.Elements)
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].depth() < items[j].depth()
	})
	return items
}

// DecodeBundle reads YAML or JSON bundle.
func DecodeBundle(r io.Reader) (*Bundle, error) {
	var b Bundle
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&b); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to decode bundle: %w", err)
	}
	for i, it := range b.Elements {
		if it == nil {
			return nil, fmt.Errorf("bundle element %d is empty", i)
		}
	}
	return &b, nil
}

func decodeByName(name string, data []byte) (*Bundle, error) {
	if strings.EqualFold(filepath.Ext(name), ".xml") {
		return DecodeXMLBundle(bytes.NewReader(data))
	}
	return DecodeBundle(bytes.NewReader(data))
}

// LoadBundle reads bundle from file, format is selected by extension. Zip
// package must have bundle file at the top level, asset payloads are
// referenced from it by name.
func LoadBundle(ctx context.Context, path string) (*Bundle, error) {
	if strings.EqualFold(filepath.Ext(path), ".zip") {
		return loadPackage(ctx, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read bundle: %w", err)
	}
	return decodeByName(path, data)
}

var packageBundleNames = []string{"bundle.yaml", "bundle.yml", "bundle.json", "bundle.xml"}

func loadPackage(ctx context.Context, path string) (*Bundle, error) {
	files, err := archive.ReadAll(ctx, path, "")
	if err != nil {
		return nil, err
	}
	var b *Bundle
	for _, name := range packageBundleNames {
		if data, ok := files[name]; ok {
			if b, err = decodeByName(name, data); err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
			break
		}
	}
	if b == nil {
		return nil, fmt.Errorf("package %s has no bundle file", filepath.Base(path))
	}
	for _, it := range b.Elements {
		if len(it.File) == 0 {
			continue
		}
		data, ok := files[it.File]
		if !ok {
			return nil, fmt.Errorf("%s: payload '%s' is not in package", it.Ref(), it.File)
		}
		it.payload = data
	}
	return b, nil
}

func toRaw(v any) (json.RawMessage, error) {
	if raw, ok := v.(json.RawMessage); ok {
		return raw, nil
	}
	return json.Marshal(v)
}

// Element converts item to model element keeping ids of exporting system.
func (it *Item) Element(schema *field.Schema) (model.Element, error) {
	el := model.New(it.Type)
	h := &el.Meta().Header
	h.Ref = it.Ref()
	h.ParentID = it.ParentID
	h.Subtype = it.Subtype
	h.Key = it.ElementKey()
	h.Path = it.Path
	h.Published = it.Published
	el.Meta().Properties = append([]element.Property(nil), it.Properties...)

	switch e := el.(type) {
	case *model.Document:
		for name, ed := range it.Editables {
			raw := ed.raw
			if raw == nil {
				var err error
				if raw, err = toRaw(ed.Data); err != nil {
					return nil, fmt.Errorf("%s, editable '%s': %w", it.Ref(), name, err)
				}
			}
			t, err := tag.Decode(ed.Type, name, raw)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", it.Ref(), err)
			}
			e.Set(t)
		}
	case *model.Object:
		e.ClassName = it.Class
		class, ok := schema.Class(it.Class)
		if !ok {
			return nil, fmt.Errorf("%s: unknown object class '%s'", it.Ref(), it.Class)
		}
		stored := it.rawFields
		if stored == nil {
			stored = make(map[string]json.RawMessage, len(it.Fields))
			for name, v := range it.Fields {
				raw, err := toRaw(v)
				if err != nil {
					return nil, fmt.Errorf("%s, field '%s': %w", it.Ref(), name, err)
				}
				stored[name] = raw
			}
		}
		values, err := class.DecodeValues(stored)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", it.Ref(), err)
		}
		e.Values = values
	case *model.Asset:
		data := it.payload
		if data == nil {
			var err error
			if data, err = base64.StdEncoding.DecodeString(it.Data); err != nil {
				return nil, fmt.Errorf("%s: bad asset data: %w", it.Ref(), err)
			}
		}
		e.SetData(data)
		if len(it.Subtype) > 0 {
			h.Subtype = it.Subtype
		}
	}
	return el, nil
}
