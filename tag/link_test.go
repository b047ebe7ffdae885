package tag

import (
	"context"
	"testing"

	"relink/element"
)

func TestLinkHref(t *testing.T) {
	finder := newFakeFinder(&element.Header{Ref: element.NewRef(element.TypeDocument, 5), Path: "/en/", Key: "about"})

	l := decode(t, TypeLink, `{"internal":true,"internalType":"document","internalId":5,"path":"/old","parameters":"?a=1","anchor":"#top"}`).(*Link)
	href, err := l.Href(context.Background(), finder)
	if err != nil {
		t.Fatalf("Href() error = %v", err)
	}
	if href != "/en/about?a=1#top" {
		t.Errorf("Href() = %q, want %q", href, "/en/about?a=1#top")
	}

	direct := decode(t, TypeLink, `{"path":"https://example.com"}`).(*Link)
	if href, _ := direct.Href(context.Background(), finder); href != "https://example.com" {
		t.Errorf("Href() = %q", href)
	}
}

func TestLinkRewriteKeepsPathUntilRefresh(t *testing.T) {
	finder := newFakeFinder(&element.Header{Ref: element.NewRef(element.TypeDocument, 42), Path: "/copy/", Key: "about"})
	l := decode(t, TypeLink, `{"internal":true,"internalType":"document","internalId":5,"path":"/en/about"}`).(*Link)

	m := element.NewMapping()
	m.Add(element.TypeDocument, 5, 42)
	l.RewriteIDs(m)
	if l.Data.InternalID != 42 {
		t.Fatalf("InternalID = %d, want 42", l.Data.InternalID)
	}
	if err := l.RefreshPath(context.Background(), finder); err != nil {
		t.Fatalf("RefreshPath() error = %v", err)
	}
	if l.Data.Path != "/copy/about" {
		t.Errorf("Path = %q, want /copy/about", l.Data.Path)
	}
}

func TestLinkSetFromPath(t *testing.T) {
	finder := newFakeFinder(
		&element.Header{Ref: element.NewRef(element.TypeDocument, 5), Path: "/", Key: "shared"},
		&element.Header{Ref: element.NewRef(element.TypeAsset, 6), Path: "/", Key: "shared"},
		&element.Header{Ref: element.NewRef(element.TypeAsset, 7), Path: "/files/", Key: "a.pdf"},
	)

	tests := []struct {
		path     string
		internal bool
		typ      string
		id       int64
	}{
		{"/shared", true, "document", 5},
		{"/files/a.pdf", true, "asset", 7},
		{"https://example.com", false, "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			l := &Link{base: base{"l"}}
			if err := l.SetFromPath(context.Background(), finder, tt.path); err != nil {
				t.Fatalf("SetFromPath() error = %v", err)
			}
			if l.Data.Internal != tt.internal || l.Data.InternalType != tt.typ || l.Data.InternalID != tt.id || l.Data.Path != tt.path {
				t.Errorf("SetFromPath() = %+v", l.Data)
			}
		})
	}
}
