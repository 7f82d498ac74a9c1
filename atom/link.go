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

// Link relations used by the model.
const (
	RelAlternate = "alternate"
	RelEdit      = "edit"
	RelSelf      = "self"
	RelEnclosure = "enclosure"
	RelRelated   = "related"
	RelVia       = "via"
)

// A Link references a web resource from an entry, feed or source.
type Link struct {
	Element
	rel      string
	typ      string
	href     string
	hreflang string
	title    string
	length   int64
}

// NewLink returns a link with the given relation, media type and target.
func NewLink(rel, typ, href string) *Link {
	return &Link{rel: rel, typ: typ, href: href}
}

// Rel returns the link relation. A link without one is an alternate link.
func (l *Link) Rel() string {
	if l.rel == "" {
		return RelAlternate
	}
	return l.rel
}

func (l *Link) SetRel(rel string) {
	l.rel = rel
	l.markDirty()
}

// Type returns the advisory media type.
func (l *Link) Type() string {
	return l.typ
}

func (l *Link) SetType(typ string) {
	l.typ = typ
	l.markDirty()
}

// Href returns the link target as written.
func (l *Link) Href() string {
	return l.href
}

func (l *Link) SetHref(href string) {
	l.href = href
	l.markDirty()
}

// ResolvedHref returns the link target resolved against the effective base.
func (l *Link) ResolvedHref() string {
	return resolveRef(l.EffectiveBase(), l.href)
}

func (l *Link) HrefLang() string {
	return l.hreflang
}

func (l *Link) SetHrefLang(lang string) {
	l.hreflang = lang
	l.markDirty()
}

func (l *Link) Title() string {
	return l.title
}

func (l *Link) SetTitle(title string) {
	l.title = title
	l.markDirty()
}

// Length returns the advisory length in octets, or 0 if unknown.
func (l *Link) Length() int64 {
	return l.length
}

func (l *Link) SetLength(length int64) {
	l.length = length
	l.markDirty()
}

func (l *Link) Walk(v Visitor) bool {
	return walkLeaf(l, v)
}

func (l *Link) clone() *Link {
	c := &Link{rel: l.rel, typ: l.typ, href: l.href, hreflang: l.hreflang, title: l.title, length: l.length}
	c.copyElement(&l.Element)
	return c
}
