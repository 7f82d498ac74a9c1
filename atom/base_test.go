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
	"testing"
)

func TestResolveBase(t *testing.T) {
	tests := []struct {
		inherited, declared string
		want                string
	}{
		{"", "", ""},
		{"http://example.com/a/", "", "http://example.com/a/"},
		{"", "http://example.com/b/", "http://example.com/b/"},
		{"http://example.com/a/", "b/", "http://example.com/a/b/"},
		{"http://example.com/a/", "/c/", "http://example.com/c/"},
		{"http://example.com/a/", "http://other.example/", "http://other.example/"},
	}
	for i, test := range tests {
		inherited, _ := ParseBase(test.inherited)
		declared, _ := ParseBase(test.declared)
		got := ""
		if u := resolveBase(inherited, declared); u != nil {
			got = u.String()
		}
		if got != test.want {
			t.Errorf("#%d: resolveBase(%q, %q) = %q, want %q", i, test.inherited, test.declared, got, test.want)
		}
	}
}

func TestBasePropagation(t *testing.T) {
	entry := NewEntry()
	link := NewLink(RelAlternate, "", "a/b")
	entry.Links().Add(link)
	content := NewContentRef("image/png", "img.png")
	entry.SetContent(content)

	entry.SetBase(mustURL(t, "http://example.com/x/"))
	if got, want := link.ResolvedHref(), "http://example.com/x/a/b"; got != want {
		t.Errorf("link = %q, want %q", got, want)
	}
	if got, want := content.ResolvedSrc(), "http://example.com/x/img.png"; got != want {
		t.Errorf("content src = %q, want %q", got, want)
	}

	feed := NewFeed()
	feed.SetBase(mustURL(t, "http://example.org/feed/"))
	entry.SetBase(mustURL(t, "sub/"))
	feed.AddEntry(entry)
	if got, want := link.ResolvedHref(), "http://example.org/feed/sub/a/b"; got != want {
		t.Errorf("link in feed = %q, want %q", got, want)
	}

	feed.SetBase(mustURL(t, "https://example.net/"))
	if got, want := link.ResolvedHref(), "https://example.net/sub/a/b"; got != want {
		t.Errorf("link after feed base change = %q, want %q", got, want)
	}
}

func TestBaseChangedDoesNotMarkModified(t *testing.T) {
	entry := mustParse(t, sampleEntry)
	entry.BaseChanged(mustURL(t, "http://example.net/"))
	if IsModified(entry) {
		t.Errorf("BaseChanged marked the tree modified")
	}
}

func TestAddedItemInheritsBase(t *testing.T) {
	entry := NewEntry()
	entry.SetBase(mustURL(t, "http://example.com/"))
	person := NewPerson("P")
	person.SetURI("people/p")
	entry.Authors().Add(person)
	if got, want := person.ResolvedURI(), "http://example.com/people/p"; got != want {
		t.Errorf("person uri = %q, want %q", got, want)
	}
}
