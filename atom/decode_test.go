// Copyright (C) 2025 Opsmate, Inc.
//
// Permission is hereby granted, free of charge, to any person obtaining a
// copy of this software and associated documentation files (the "Software"),
// to deal in the Software without restriction, including without limitation
// the rights to use, copy, modify, merge, publish, distribute, sublicense,
// and/or sell copies of the Software, and to permit persons to whom the
// Software is furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included
// in all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL
// THE AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR
// OTHER LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE,
// ARISING FROM, OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR
// OTHER DEALINGS IN THE SOFTWARE.
//
// Except as contained in this notice, the name(s) of the above copyright
// holders shall not be used in advertising or otherwise to promote the
// sale, use or other dealings in this Software without prior written
// authorization.

package atom

import (
	"encoding/xml"
	"strings"
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	entry := mustParse(t, sampleEntry)

	if got, want := entry.Title().Type(), HTML; got != want {
		t.Errorf("title type = %q, want %q", got, want)
	}
	if got, want := entry.Title().Text(), "Hello <b>world</b>"; got != want {
		t.Errorf("title = %q, want %q", got, want)
	}
	if got, want := entry.ID().URI(), "urn:uuid:1225c695-cfb8-4ebb-aaaa-80da344efa6a"; got != want {
		t.Errorf("id = %q, want %q", got, want)
	}
	if got, want := entry.EditURI(), "http://example.org/blog/entries/1"; got != want {
		t.Errorf("EditURI() = %q, want %q", got, want)
	}
	if entry.ReadOnly() {
		t.Errorf("entry with edit link is read-only")
	}
	if got, want := entry.Links().Len(), 2; got != want {
		t.Fatalf("%d links, want %d", got, want)
	}
	if got, want := entry.Links().At(1).ResolvedHref(), "http://example.org/blog/posts/1.html"; got != want {
		t.Errorf("alternate link = %q, want %q", got, want)
	}
	if got, want := entry.Authors().At(0).PersonName(), "Jane Doe"; got != want {
		t.Errorf("author = %q, want %q", got, want)
	}
	if got, want := entry.Authors().At(0).ResolvedURI(), "http://example.org/blog/people/jane"; got != want {
		t.Errorf("author uri = %q, want %q", got, want)
	}
	if entry.Categories().Find("http://example.org/tags", "go") == nil {
		t.Errorf("category go not found")
	}
	if got, want := entry.Content().Text(), `<div xmlns="http://www.w3.org/1999/xhtml"><p>Body</p></div>`; got != want {
		t.Errorf("content = %q, want %q", got, want)
	}
	if got, want := entry.Updated(), time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("updated = %s, want %s", got, want)
	}
	if entry.Source() != nil {
		t.Errorf("entry without source has a source")
	}

	ext := entry.FindExtension(xml.Name{Space: "http://example.com/ns", Local: "rating"})
	if ext == nil {
		t.Fatalf("extension ex:rating not preserved")
	}
	if got, want := string(ext.Raw), `<ex:rating ex:scale="5">4</ex:rating>`; got != want {
		t.Errorf("extension = %q, want %q", got, want)
	}
}

func TestParseNotModified(t *testing.T) {
	entry := mustParse(t, sampleEntry)
	if IsModified(entry) {
		t.Errorf("freshly parsed entry is modified")
	}
	feed := mustParseFeed(t, sampleFeed)
	if IsModified(feed) {
		t.Errorf("freshly parsed feed is modified")
	}
}

func TestParseFeed(t *testing.T) {
	feed := mustParseFeed(t, sampleFeed)

	if got, want := feed.Title().Text(), "Example Feed"; got != want {
		t.Errorf("title = %q, want %q", got, want)
	}
	entries := feed.Entries()
	if len(entries) != 2 {
		t.Fatalf("%d entries, want 2", len(entries))
	}
	for i, entry := range entries {
		if entry.Feed() != feed {
			t.Errorf("entry %d does not refer back to its feed", i)
		}
	}
	if got, want := entries[0].EditURI(), "http://example.org/entries/1"; got != want {
		t.Errorf("first EditURI() = %q, want %q", got, want)
	}
	if got, want := entries[1].Links().At(0).ResolvedHref(), "http://example.org/archive/2.html"; got != want {
		t.Errorf("second link = %q, want %q", got, want)
	}
	if feed.FindExtension(xml.Name{Space: "http://example.com/ns", Local: "generator"}) == nil {
		t.Errorf("feed extension not preserved")
	}

	// The entry's extension uses a prefix declared on the feed, so the
	// declaration must travel with the entry.
	out, err := Marshal(entries[0])
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(out), `xmlns:ex="http://example.com/ns"`) {
		t.Errorf("detached entry lacks namespace declaration: %s", out)
	}
	if _, err := Parse(strings.NewReader(string(out))); err != nil {
		t.Errorf("detached entry does not parse: %s", err)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"empty", ""},
		{"wrong root", `<feed xmlns="http://www.w3.org/2005/Atom"/>`},
		{"wrong namespace", `<entry xmlns="http://example.com/"/>`},
		{"truncated", `<entry xmlns="http://www.w3.org/2005/Atom"><title>`},
		{"bad timestamp", `<entry xmlns="http://www.w3.org/2005/Atom"><updated>yesterday</updated></entry>`},
		{"bad base", `<entry xmlns="http://www.w3.org/2005/Atom" xml:base="http://[::1"/>`},
	}
	for _, test := range tests {
		if _, err := Parse(strings.NewReader(test.doc)); err == nil {
			t.Errorf("%s: Parse succeeded, want error", test.name)
		}
	}
}

func TestParseLinkLength(t *testing.T) {
	entry := mustParse(t, `<entry xmlns="http://www.w3.org/2005/Atom">
		<link rel="enclosure" href="a.mp3" length="1234"/>
		<link rel="enclosure" href="b.mp3" length="unknown"/>
	</entry>`)
	if got := entry.Links().At(0).Length(); got != 1234 {
		t.Errorf("length = %d, want 1234", got)
	}
	b := entry.Links().At(1)
	if b.Length() != 0 {
		t.Errorf("unparseable length = %d, want 0", b.Length())
	}
	attrs := b.Attrs()
	if len(attrs) != 1 || attrs[0].Value != "unknown" {
		t.Errorf("unparseable length not preserved: %v", attrs)
	}
}
