package richtext

import (
	"reflect"
	"testing"

	"relink/element"
)

const sample = `<p>See <a href="/en/about" pimcore_id="5" pimcore_type="document">about</a> and
<img src="/logo.png" pimcore_id='7' pimcore_type="asset" alt="logo"/>
<a href="https://example.com">external</a>
<a pimcore_id="9" pimcore_type="folder">bad type</a>
<span pimcore_id="11" pimcore_type="object">not a link</span></p>`

func TestReferences(t *testing.T) {
	deps := References(sample)
	want := []string{"asset_7", "document_5"}
	if got := deps.Keys(); !reflect.DeepEqual(got, want) {
		t.Errorf("References() = %v, want %v", got, want)
	}

	if got := References("plain text"); got.Len() != 0 {
		t.Errorf("References(plain) = %v", got.Keys())
	}
	if got := References(""); got.Len() != 0 {
		t.Errorf("References(empty) = %v", got.Keys())
	}
}

func TestRewrite(t *testing.T) {
	m := element.NewMapping()
	m.Add(element.TypeDocument, 5, 42)
	m.Add(element.TypeObject, 11, 12)

	got := Rewrite(sample, m)
	want := `<p>See <a href="/en/about" pimcore_id="42" pimcore_type="document">about</a> and
<img src="/logo.png" pimcore_id='7' pimcore_type="asset" alt="logo"/>
<a href="https://example.com">external</a>
<a pimcore_id="9" pimcore_type="folder">bad type</a>
<span pimcore_id="11" pimcore_type="object">not a link</span></p>`
	if got != want {
		t.Errorf("Rewrite() =\n%s\nwant\n%s", got, want)
	}
}

func TestRewriteIdentity(t *testing.T) {
	m := element.NewMapping()
	m.Add(element.TypeAsset, 5, 42)

	// wrong type key
	in := `<a pimcore_id="5" pimcore_type="document">x</a>`
	if got := Rewrite(in, m); got != in {
		t.Errorf("Rewrite() = %q, want unchanged", got)
	}
	if got := Rewrite("no refs <b>here</b>", m); got != "no refs <b>here</b>" {
		t.Errorf("Rewrite() changed text without references: %q", got)
	}
	if got := Rewrite(in, nil); got != in {
		t.Errorf("Rewrite() with nil mapping = %q", got)
	}
}

func TestRewriteResolveSymmetry(t *testing.T) {
	// every reference found must be rewritten by mapping built from it
	deps := References(sample)
	m := element.NewMapping()
	for _, r := range deps.Refs() {
		m.Add(r.Type, r.ID, r.ID+1000)
	}
	after := References(Rewrite(sample, m))
	if after.Len() != deps.Len() {
		t.Fatalf("References() after rewrite = %v", after.Keys())
	}
	for _, r := range deps.Refs() {
		if !after.Has(element.NewRef(r.Type, r.ID+1000)) {
			t.Errorf("reference %v was not rewritten", r)
		}
	}
}

func TestRewriteKeepsMarkup(t *testing.T) {
	m := element.NewMapping()
	m.Add(element.TypeDocument, 5, 42)

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			"mixed case",
			`<DIV Class="Box"><A HREF="/x" pimcore_id="5" Pimcore_Type="document">x</A></DIV>`,
			`<DIV Class="Box"><A HREF="/x" pimcore_id="42" Pimcore_Type="document">x</A></DIV>`,
		},
		{
			"upper case attribute",
			`<a PIMCORE_ID=5 pimcore_type=document>x</a>`,
			`<a PIMCORE_ID=42 pimcore_type=document>x</a>`,
		},
		{
			"decoy in other value",
			`<a title="pimcore_id=5" pimcore_id="5" pimcore_type="document">x</a>`,
			`<a title="pimcore_id=5" pimcore_id="42" pimcore_type="document">x</a>`,
		},
		{
			"decoy with space in other value",
			`<a title="see pimcore_id=5" pimcore_type="document" pimcore_id='5'>x</a>`,
			`<a title="see pimcore_id=5" pimcore_type="document" pimcore_id='42'>x</a>`,
		},
		{
			"padded id",
			`<a pimcore_id=" 5 " pimcore_type="document">x</a>`,
			`<a pimcore_id=" 42 " pimcore_type="document">x</a>`,
		},
		{
			"spaces around equals",
			`<img pimcore_id = "5" pimcore_type="document"/>`,
			`<img pimcore_id = "42" pimcore_type="document"/>`,
		},
		{
			"first duplicate wins",
			`<a pimcore_id="5" pimcore_id="7" pimcore_type="document">x</a>`,
			`<a pimcore_id="42" pimcore_id="7" pimcore_type="document">x</a>`,
		},
		{
			"unmapped duplicate",
			`<a pimcore_id="7" pimcore_id="5" pimcore_type="document">x</a>`,
			`<a pimcore_id="7" pimcore_id="5" pimcore_type="document">x</a>`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Rewrite(tt.in, m); got != tt.want {
				t.Errorf("Rewrite() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSymmetryOnOddMarkup(t *testing.T) {
	inputs := []string{
		`<A HREF="/x" pimcore_id=" 5" pimcore_type="document">x</A>`,
		`<a title="pimcore_id=3" pimcore_id=5 pimcore_type=asset>x</a>`,
		`<img alt='pimcore_id="8"' pimcore_type="object" pimcore_id="9">`,
	}
	for _, in := range inputs {
		deps := References(in)
		if deps.Len() != 1 {
			t.Fatalf("References(%q) = %v, want one reference", in, deps.Keys())
		}
		m := element.NewMapping()
		for _, r := range deps.Refs() {
			m.Add(r.Type, r.ID, r.ID+1000)
		}
		after := References(Rewrite(in, m))
		for _, r := range deps.Refs() {
			if !after.Has(element.NewRef(r.Type, r.ID+1000)) || after.Len() != 1 {
				t.Errorf("Rewrite(%q) references = %v, want %v rewritten", in, after.Keys(), r)
			}
		}
	}
}

func TestAttrValue(t *testing.T) {
	tests := []struct {
		raw  string
		want string
		ok   bool
	}{
		{`<a pimcore_id="5">`, "5", true},
		{`<a pimcore_id='5'>`, "5", true},
		{`<a pimcore_id=5>`, "5", true},
		{`<a x_pimcore_id="5">`, "", false},
		{`<a pimcore_id>`, "", false},
		{`<a title="pimcore_id=5">`, "", false},
		{`<a/pimcore_id="6"/>`, "6", true},
	}
	for _, tt := range tests {
		s, e, ok := attrValue([]byte(tt.raw), attrID)
		if ok != tt.ok || (ok && tt.raw[s:e] != tt.want) {
			t.Errorf("attrValue(%q) = %q, %v, want %q, %v", tt.raw, tt.raw[s:e], ok, tt.want, tt.ok)
		}
	}
}
