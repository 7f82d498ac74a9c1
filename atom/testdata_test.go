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
	"net/url"
	"strings"
	"testing"
)

const sampleEntry = `<?xml version="1.0" encoding="utf-8"?>
<entry xmlns="http://www.w3.org/2005/Atom" xmlns:ex="http://example.com/ns" xml:base="http://example.org/blog/">
  <title type="html">Hello &lt;b&gt;world&lt;/b&gt;</title>
  <id>urn:uuid:1225c695-cfb8-4ebb-aaaa-80da344efa6a</id>
  <link rel="edit" type="application/atom+xml" href="entries/1"/>
  <link href="posts/1.html"/>
  <author><name>Jane Doe</name><uri>people/jane</uri></author>
  <category term="go" scheme="http://example.org/tags"/>
  <summary>A summary</summary>
  <content type="xhtml"><div xmlns="http://www.w3.org/1999/xhtml"><p>Body</p></div></content>
  <updated>2025-03-01T12:00:00Z</updated>
  <ex:rating ex:scale="5">4</ex:rating>
</entry>
`

const sampleFeed = `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom" xmlns:ex="http://example.com/ns" xml:base="http://example.org/">
  <id>tag:example.org,2025:feed</id>
  <title>Example Feed</title>
  <link rel="self" href="feed.atom"/>
  <author><name>Feed Author</name></author>
  <updated>2025-03-02T00:00:00Z</updated>
  <ex:generator>gen</ex:generator>
  <entry>
    <title>First</title>
    <id>urn:uuid:00000000-0000-4000-8000-000000000001</id>
    <link rel="edit" href="entries/1"/>
    <ex:flag/>
  </entry>
  <entry xml:base="archive/">
    <title>Second</title>
    <link href="2.html"/>
  </entry>
</feed>
`

func mustParse(t *testing.T, doc string) *Entry {
	t.Helper()
	entry, err := Parse(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Parse: %s", err)
	}
	return entry
}

func mustParseFeed(t *testing.T, doc string) *Feed {
	t.Helper()
	feed, err := ParseFeed(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("ParseFeed: %s", err)
	}
	return feed
}

func mustURL(t *testing.T, s string) *url.URL {
	t.Helper()
	u, err := url.Parse(s)
	if err != nil {
		t.Fatalf("url.Parse(%q): %s", s, err)
	}
	return u
}
