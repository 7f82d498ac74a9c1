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
	"bytes"
	"encoding/xml"
	"io"
	"strconv"
	"time"
)

// DateFormat is the layout of timestamps written by Write. Timestamps are
// always written in UTC with millisecond precision, so that their textual
// order matches their chronological order.
const DateFormat = "2006-01-02T15:04:05.000Z07:00"

// FormatTime formats t the way Write does.
func FormatTime(t time.Time) string {
	return t.UTC().Format(DateFormat)
}

// Write serializes the tree rooted at n to w. Children are written in the
// order the Atom schema lists them, followed by extension nodes. Optional
// children that were never created are omitted.
func Write(w io.Writer, n Node) error {
	enc := &encoder{w: w, xml: xml.NewEncoder(w), root: true}
	if err := n.encode(enc); err != nil {
		return err
	}
	return enc.xml.Flush()
}

// Marshal returns the serialization of the tree rooted at n.
func Marshal(n Node) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, n); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type encoder struct {
	w      io.Writer
	xml    *xml.Encoder
	root   bool
	scopes []map[string]string // namespace URI to declared prefix
}

// start writes the start tag of el with the given model attributes, el's
// common attributes and its preserved attributes.
func (enc *encoder) start(el *Element, attrs ...xml.Attr) error {
	start := el.startElement()
	if enc.root {
		start.Attr = append([]xml.Attr{{Name: xml.Name{Local: "xmlns"}, Value: Namespace}}, start.Attr...)
		enc.root = false
	}
	start.Attr = append(start.Attr, attrs...)

	scope := make(map[string]string)
	for _, attr := range el.attrs {
		if attr.Name.Space == xmlnsNamespace {
			scope[attr.Value] = attr.Name.Local
			start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: "xmlns:" + attr.Name.Local}, Value: attr.Value})
		}
	}
	enc.scopes = append(enc.scopes, scope)
	for _, attr := range el.attrs {
		switch {
		case attr.Name.Space == xmlnsNamespace:
		case attr.Name.Space == "" && attr.Name.Local == "xmlns":
		case attr.Name.Space == "" || attr.Name.Space == xmlNamespace:
			start.Attr = append(start.Attr, attr)
		default:
			if prefix, ok := enc.prefix(attr.Name.Space); ok {
				attr.Name = xml.Name{Local: prefix + ":" + attr.Name.Local}
			}
			start.Attr = append(start.Attr, attr)
		}
	}
	return enc.xml.EncodeToken(start)
}

func (enc *encoder) prefix(uri string) (string, bool) {
	for i := len(enc.scopes) - 1; i >= 0; i-- {
		if prefix, ok := enc.scopes[i][uri]; ok {
			return prefix, true
		}
	}
	return "", false
}

// end writes el's extension nodes and its end tag.
func (enc *encoder) end(el *Element) error {
	for _, ext := range el.extensions {
		if err := enc.raw(ext.Raw); err != nil {
			return err
		}
	}
	enc.scopes = enc.scopes[:len(enc.scopes)-1]
	return enc.xml.EncodeToken(xml.EndElement{Name: xml.Name{Local: el.name.Local}})
}

func (enc *encoder) text(s string) error {
	if s == "" {
		return nil
	}
	return enc.xml.EncodeToken(xml.CharData(s))
}

// raw writes markup verbatim.
func (enc *encoder) raw(b []byte) error {
	if err := enc.xml.Flush(); err != nil {
		return err
	}
	_, err := enc.w.Write(b)
	return err
}

// simple writes an Atom element containing only text.
func (enc *encoder) simple(local, value string) error {
	name := xml.Name{Local: local}
	if err := enc.xml.EncodeToken(xml.StartElement{Name: name}); err != nil {
		return err
	}
	if err := enc.text(value); err != nil {
		return err
	}
	return enc.xml.EncodeToken(xml.EndElement{Name: name})
}

func (enc *encoder) optional(local, value string) error {
	if value == "" {
		return nil
	}
	return enc.simple(local, value)
}

func (enc *encoder) timestamp(local string, t time.Time) error {
	if t.IsZero() {
		return nil
	}
	return enc.simple(local, FormatTime(t))
}

func attr(local, value string) xml.Attr {
	return xml.Attr{Name: xml.Name{Local: local}, Value: value}
}

func optionalAttrs(pairs ...string) []xml.Attr {
	var attrs []xml.Attr
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] != "" {
			attrs = append(attrs, attr(pairs[i], pairs[i+1]))
		}
	}
	return attrs
}

func encodeAll[T Node](enc *encoder, items []T) error {
	for _, item := range items {
		if err := item.encode(enc); err != nil {
			return err
		}
	}
	return nil
}

func (t *TextConstruct) encode(enc *encoder) error {
	if err := enc.start(&t.Element, optionalAttrs("type", string(t.typ))...); err != nil {
		return err
	}
	if t.Type() == XHTML {
		if err := enc.raw([]byte(t.text)); err != nil {
			return err
		}
	} else if err := enc.text(t.text); err != nil {
		return err
	}
	return enc.end(&t.Element)
}

func (id *ID) encode(enc *encoder) error {
	if err := enc.start(&id.Element); err != nil {
		return err
	}
	if err := enc.text(id.uri); err != nil {
		return err
	}
	return enc.end(&id.Element)
}

func (l *Link) encode(enc *encoder) error {
	attrs := optionalAttrs("href", l.href, "rel", l.rel, "type", l.typ, "hreflang", l.hreflang, "title", l.title)
	if l.length > 0 {
		attrs = append(attrs, attr("length", strconv.FormatInt(l.length, 10)))
	}
	if err := enc.start(&l.Element, attrs...); err != nil {
		return err
	}
	return enc.end(&l.Element)
}

func (p *Person) encode(enc *encoder) error {
	if err := enc.start(&p.Element); err != nil {
		return err
	}
	if err := enc.simple("name", p.name); err != nil {
		return err
	}
	if err := enc.optional("uri", p.uri); err != nil {
		return err
	}
	if err := enc.optional("email", p.email); err != nil {
		return err
	}
	return enc.end(&p.Element)
}

func (c *Category) encode(enc *encoder) error {
	if err := enc.start(&c.Element, optionalAttrs("term", c.term, "scheme", c.scheme, "label", c.label)...); err != nil {
		return err
	}
	return enc.end(&c.Element)
}

func (c *Content) encode(enc *encoder) error {
	if err := enc.start(&c.Element, optionalAttrs("type", c.typ, "src", c.src)...); err != nil {
		return err
	}
	if c.IsInline() {
		if c.isMarkup() {
			if err := enc.raw([]byte(c.text)); err != nil {
				return err
			}
		} else if err := enc.text(c.text); err != nil {
			return err
		}
	}
	return enc.end(&c.Element)
}

func (s *Source) encode(enc *encoder) error {
	if err := enc.start(&s.Element); err != nil {
		return err
	}
	if s.id != nil {
		if err := s.id.encode(enc); err != nil {
			return err
		}
	}
	for _, t := range []*TextConstruct{s.title, s.subtitle} {
		if t != nil {
			if err := t.encode(enc); err != nil {
				return err
			}
		}
	}
	if err := encodeAll(enc, s.links.items); err != nil {
		return err
	}
	if err := encodeAll(enc, s.authors.items); err != nil {
		return err
	}
	if err := encodeAll(enc, s.categories.items); err != nil {
		return err
	}
	if s.rights != nil {
		if err := s.rights.encode(enc); err != nil {
			return err
		}
	}
	if err := enc.optional("icon", s.icon); err != nil {
		return err
	}
	if err := enc.optional("logo", s.logo); err != nil {
		return err
	}
	if err := enc.timestamp("updated", s.updated); err != nil {
		return err
	}
	return enc.end(&s.Element)
}

func (f *Feed) encode(enc *encoder) error {
	if err := enc.start(&f.Element); err != nil {
		return err
	}
	if f.id != nil {
		if err := f.id.encode(enc); err != nil {
			return err
		}
	}
	for _, t := range []*TextConstruct{f.title, f.subtitle} {
		if t != nil {
			if err := t.encode(enc); err != nil {
				return err
			}
		}
	}
	if err := encodeAll(enc, linksOf(f.links)); err != nil {
		return err
	}
	if err := encodeAll(enc, itemsOf(f.authors)); err != nil {
		return err
	}
	if err := encodeAll(enc, itemsOf(f.contributors)); err != nil {
		return err
	}
	if err := encodeAll(enc, categoriesOf(f.categories)); err != nil {
		return err
	}
	if f.rights != nil {
		if err := f.rights.encode(enc); err != nil {
			return err
		}
	}
	if err := enc.optional("icon", f.icon); err != nil {
		return err
	}
	if err := enc.optional("logo", f.logo); err != nil {
		return err
	}
	if err := enc.timestamp("updated", f.updated); err != nil {
		return err
	}
	for _, ext := range f.extensions {
		if err := enc.raw(ext.Raw); err != nil {
			return err
		}
	}
	if err := encodeAll(enc, f.entries); err != nil {
		return err
	}
	enc.scopes = enc.scopes[:len(enc.scopes)-1]
	return enc.xml.EncodeToken(xml.EndElement{Name: xml.Name{Local: f.name.Local}})
}

func (e *Entry) encode(enc *encoder) error {
	if err := enc.start(&e.Element); err != nil {
		return err
	}
	if e.title != nil {
		if err := e.title.encode(enc); err != nil {
			return err
		}
	}
	if e.id != nil {
		if err := e.id.encode(enc); err != nil {
			return err
		}
	}
	if err := encodeAll(enc, linksOf(e.links)); err != nil {
		return err
	}
	if err := encodeAll(enc, itemsOf(e.authors)); err != nil {
		return err
	}
	if err := encodeAll(enc, itemsOf(e.contributors)); err != nil {
		return err
	}
	if err := encodeAll(enc, categoriesOf(e.categories)); err != nil {
		return err
	}
	for _, t := range []*TextConstruct{e.rights, e.summary} {
		if t != nil {
			if err := t.encode(enc); err != nil {
				return err
			}
		}
	}
	if e.content != nil {
		if err := e.content.encode(enc); err != nil {
			return err
		}
	}
	if e.source != nil {
		if err := e.source.encode(enc); err != nil {
			return err
		}
	}
	if err := enc.timestamp("updated", e.updated); err != nil {
		return err
	}
	if err := enc.timestamp("published", e.published); err != nil {
		return err
	}
	return enc.end(&e.Element)
}
