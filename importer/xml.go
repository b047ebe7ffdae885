package importer

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"relink/element"
)

// DecodeXMLBundle reads bundle in XML form:
//
//	<bundle>
//	  <element type="document" id="3" parent_id="1" path="/" key="news">
//	    <property name="nav" type="document">4</property>
//	    <editable name="more" type="link">{"internalId":4,"internalType":"document"}</editable>
//	  </element>
//	</bundle>
//
// Editable and field payloads are JSON text, asset data is base64.
func DecodeXMLBundle(r io.Reader) (*Bundle, error) {
	doc := etree.NewDocument()
	doc.ReadSettings.CharsetReader = identCharsetReader
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("failed to parse XML bundle: %w", err)
	}
	root := doc.SelectElement("bundle")
	if root == nil {
		return nil, fmt.Errorf("XML bundle has no bundle element")
	}

	var b Bundle
	for i, el := range root.SelectElements("element") {
		it, err := xmlItem(el)
		if err != nil {
			return nil, fmt.Errorf("bundle element %d: %w", i, err)
		}
		b.Elements = append(b.Elements, it)
	}
	return &b, nil
}

func identCharsetReader(charset string, input io.Reader) (io.Reader, error) {
	if strings.EqualFold(charset, "utf-8") {
		return input, nil
	}
	return nil, fmt.Errorf("unsupported charset: %s", charset)
}

func int64Attr(el *etree.Element, name string) (int64, error) {
	v := strings.TrimSpace(el.SelectAttrValue(name, ""))
	if len(v) == 0 {
		return 0, nil
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("bad %s attribute '%s': %w", name, v, err)
	}
	return id, nil
}

func boolAttr(el *etree.Element, name string) bool {
	v, err := strconv.ParseBool(el.SelectAttrValue(name, "false"))
	return err == nil && v
}

func xmlItem(el *etree.Element) (*Item, error) {
	t, err := element.ParseType(el.SelectAttrValue("type", ""))
	if err != nil {
		return nil, err
	}
	it := &Item{
		Type:      t,
		Subtype:   el.SelectAttrValue("subtype", ""),
		Path:      el.SelectAttrValue("path", ""),
		Key:       el.SelectAttrValue("key", ""),
		Filename:  el.SelectAttrValue("filename", ""),
		Class:     el.SelectAttrValue("class", ""),
		File:      el.SelectAttrValue("file", ""),
		Published: boolAttr(el, "published"),
	}
	if it.ID, err = int64Attr(el, "id"); err != nil {
		return nil, err
	}
	if it.ParentID, err = int64Attr(el, "parent_id"); err != nil {
		return nil, err
	}

	for _, c := range el.ChildElements() {
		name := c.SelectAttrValue("name", "")
		text := strings.TrimSpace(c.Text())
		switch c.Tag {
		case "property":
			p := element.Property{
				Name:        name,
				Type:        c.SelectAttrValue("type", "text"),
				Inheritable: boolAttr(c, "inheritable"),
			}
			if len(text) > 0 {
				p.Data = text
				if ref, ok := p.Ref(); ok {
					p.Data = ref.ID
				}
			}
			it.Properties = append(it.Properties, p)
		case "editable":
			if it.Editables == nil {
				it.Editables = make(map[string]Editable)
			}
			raw, err := jsonText(text)
			if err != nil {
				return nil, fmt.Errorf("editable '%s': %w", name, err)
			}
			it.Editables[name] = Editable{Type: c.SelectAttrValue("type", ""), raw: raw}
		case "field":
			if it.rawFields == nil {
				it.rawFields = make(map[string]json.RawMessage)
			}
			raw, err := jsonText(text)
			if err != nil {
				return nil, fmt.Errorf("field '%s': %w", name, err)
			}
			it.rawFields[name] = raw
		case "data":
			it.Data = strings.Join(strings.Fields(text), "")
		default:
			return nil, fmt.Errorf("unexpected XML element '%s'", c.Tag)
		}
	}
	return it, nil
}

func jsonText(text string) (json.RawMessage, error) {
	if len(text) == 0 {
		return json.RawMessage("null"), nil
	}
	if !json.Valid([]byte(text)) {
		return nil, fmt.Errorf("payload is not valid JSON")
	}
	return json.RawMessage(text), nil
}
