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
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// Parse reads an Atom entry document. The returned entry has its base
// propagated and no node marked modified. Elements and attributes the model
// does not interpret are preserved.
func Parse(r io.Reader) (*Entry, error) {
	d, start, err := newDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("error parsing Atom entry: %w", err)
	}
	if start.Name != atomName("entry") {
		return nil, fmt.Errorf("error parsing Atom entry: root element is {%s}%s", start.Name.Space, start.Name.Local)
	}
	entry := NewEntry()
	if err := d.entry(entry, start, nil); err != nil {
		return nil, fmt.Errorf("error parsing Atom entry: %w", err)
	}
	entry.BaseChanged(nil)
	MarkTreeClean(entry)
	return entry, nil
}

// ParseFeed reads an Atom feed document. Every entry refers back to the
// returned feed. No node is marked modified.
func ParseFeed(r io.Reader) (*Feed, error) {
	d, start, err := newDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("error parsing Atom feed: %w", err)
	}
	if start.Name != atomName("feed") {
		return nil, fmt.Errorf("error parsing Atom feed: root element is {%s}%s", start.Name.Space, start.Name.Local)
	}
	feed := NewFeed()
	if err := d.feed(feed, start); err != nil {
		return nil, fmt.Errorf("error parsing Atom feed: %w", err)
	}
	feed.BaseChanged(nil)
	MarkTreeClean(feed)
	return feed, nil
}

type decoder struct {
	input  []byte
	xml    *xml.Decoder
	offset int64 // input offset before the most recent token
}

func newDecoder(r io.Reader) (*decoder, xml.StartElement, error) {
	input, err := io.ReadAll(r)
	if err != nil {
		return nil, xml.StartElement{}, err
	}
	d := &decoder{input: input, xml: xml.NewDecoder(bytes.NewReader(input))}
	for {
		tok, err := d.token()
		if err == io.EOF {
			return nil, xml.StartElement{}, io.ErrUnexpectedEOF
		} else if err != nil {
			return nil, xml.StartElement{}, err
		}
		if start, ok := tok.(xml.StartElement); ok {
			return d, start, nil
		}
	}
}

func (d *decoder) token() (xml.Token, error) {
	d.offset = d.xml.InputOffset()
	return d.xml.Token()
}

// extension captures the element whose start tag was just read as raw markup.
func (d *decoder) extension(el *Element, start xml.StartElement) error {
	begin := d.offset
	if err := d.xml.Skip(); err != nil {
		return err
	}
	raw := bytes.Clone(d.input[begin:d.xml.InputOffset()])
	el.extensions = append(el.extensions, &Extension{Name: start.Name, Raw: raw})
	return nil
}

// inner returns the raw markup between the start tag that was just read and
// its end tag, and consumes the end tag.
func (d *decoder) inner() ([]byte, error) {
	begin := d.xml.InputOffset()
	depth := 1
	for {
		tok, err := d.token()
		if err != nil {
			return nil, err
		}
		switch tok.(type) {
		case xml.StartElement:
			depth++
		case xml.EndElement:
			depth--
			if depth == 0 {
				return bytes.Clone(d.input[begin:d.offset]), nil
			}
		}
	}
}

// attrs stores the common and preserved attributes of start in el and
// returns the values of the attributes named in known.
func (d *decoder) attrs(el *Element, start xml.StartElement, known ...string) (map[string]string, error) {
	values := make(map[string]string)
	for _, attr := range start.Attr {
		switch {
		case attr.Name.Space == xmlNamespace && attr.Name.Local == "base":
			base, err := ParseBase(attr.Value)
			if err != nil {
				return nil, fmt.Errorf("invalid xml:base on <%s>: %w", start.Name.Local, err)
			}
			el.base = base
		case attr.Name.Space == xmlNamespace && attr.Name.Local == "lang":
			el.lang = attr.Value
		case attr.Name.Space == "" && attr.Name.Local == "xmlns":
		case attr.Name.Space == "" && contains(known, attr.Name.Local):
			values[attr.Name.Local] = attr.Value
		default:
			el.attrs = append(el.attrs, attr)
		}
	}
	return values, nil
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

// chardata reads the text content of the element whose start tag was just
// read. Child elements are kept as extensions of el.
func (d *decoder) chardata(el *Element) (string, error) {
	var text strings.Builder
	for {
		tok, err := d.token()
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.CharData:
			text.Write(t)
		case xml.StartElement:
			if err := d.extension(el, t); err != nil {
				return "", err
			}
		case xml.EndElement:
			return text.String(), nil
		}
	}
}

// simple reads the text of an Atom element that carries no attributes of
// its own, such as name or icon.
func (d *decoder) simple(parent *Element) (string, error) {
	text, err := d.chardata(parent)
	return strings.TrimSpace(text), err
}

func (d *decoder) timestamp(parent *Element, start xml.StartElement) (time.Time, error) {
	text, err := d.simple(parent)
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse(time.RFC3339, text)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid <%s> timestamp: %w", start.Name.Local, err)
	}
	return t, nil
}

func (d *decoder) text(start xml.StartElement) (*TextConstruct, error) {
	t := &TextConstruct{}
	t.bindName(start.Name)
	values, err := d.attrs(&t.Element, start, "type")
	if err != nil {
		return nil, err
	}
	t.typ = TextType(values["type"])
	if t.typ == XHTML {
		raw, err := d.inner()
		if err != nil {
			return nil, err
		}
		t.text = string(raw)
		return t, nil
	}
	t.text, err = d.chardata(&t.Element)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (d *decoder) id(start xml.StartElement) (*ID, error) {
	id := &ID{}
	id.bindName(start.Name)
	if _, err := d.attrs(&id.Element, start); err != nil {
		return nil, err
	}
	text, err := d.chardata(&id.Element)
	if err != nil {
		return nil, err
	}
	id.uri = strings.TrimSpace(text)
	return id, nil
}

func (d *decoder) link(start xml.StartElement) (*Link, error) {
	l := &Link{}
	values, err := d.attrs(&l.Element, start, "href", "rel", "type", "hreflang", "title", "length")
	if err != nil {
		return nil, err
	}
	l.href = values["href"]
	l.rel = values["rel"]
	l.typ = values["type"]
	l.hreflang = values["hreflang"]
	l.title = values["title"]
	if length, ok := values["length"]; ok {
		if n, err := strconv.ParseInt(length, 10, 64); err == nil && n > 0 {
			l.length = n
		} else {
			l.attrs = append(l.attrs, xml.Attr{Name: xml.Name{Local: "length"}, Value: length})
		}
	}
	if err := d.children(&l.Element, nil); err != nil {
		return nil, err
	}
	return l, nil
}

func (d *decoder) person(start xml.StartElement) (*Person, error) {
	p := &Person{}
	if _, err := d.attrs(&p.Element, start); err != nil {
		return nil, err
	}
	err := d.children(&p.Element, func(child xml.StartElement) (err error) {
		switch child.Name.Local {
		case "name":
			p.name, err = d.simple(&p.Element)
		case "email":
			p.email, err = d.simple(&p.Element)
		case "uri":
			p.uri, err = d.simple(&p.Element)
		default:
			err = d.extension(&p.Element, child)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (d *decoder) category(start xml.StartElement) (*Category, error) {
	c := &Category{}
	values, err := d.attrs(&c.Element, start, "term", "scheme", "label")
	if err != nil {
		return nil, err
	}
	c.term = values["term"]
	c.scheme = values["scheme"]
	c.label = values["label"]
	if err := d.children(&c.Element, nil); err != nil {
		return nil, err
	}
	return c, nil
}

func (d *decoder) content(start xml.StartElement) (*Content, error) {
	c := &Content{}
	c.bindName(start.Name)
	values, err := d.attrs(&c.Element, start, "type", "src")
	if err != nil {
		return nil, err
	}
	c.typ = values["type"]
	c.src = values["src"]
	switch {
	case c.src != "":
		err = d.children(&c.Element, nil)
	case c.isMarkup():
		var raw []byte
		raw, err = d.inner()
		c.text = string(raw)
	default:
		c.text, err = d.chardata(&c.Element)
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// children reads the children of the element whose start tag was just
// read, up to and including its end tag. Atom elements are passed to known;
// everything else, and everything when known is nil, becomes an extension.
// Comments and processing instructions are kept as unnamed extensions.
func (d *decoder) children(el *Element, known func(xml.StartElement) error) error {
	for {
		tok, err := d.token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if known == nil || t.Name.Space != Namespace {
				err = d.extension(el, t)
			} else {
				err = known(t)
			}
			if err != nil {
				return err
			}
		case xml.Comment, xml.ProcInst:
			d.passthrough(el)
		case xml.EndElement:
			return nil
		}
	}
}

// passthrough keeps the comment or processing instruction that was just
// read as an unnamed extension of el.
func (d *decoder) passthrough(el *Element) {
	raw := bytes.Clone(d.input[d.offset:d.xml.InputOffset()])
	el.extensions = append(el.extensions, &Extension{Raw: raw})
}

func (d *decoder) source(start xml.StartElement) (*Source, error) {
	s := newSource()
	if _, err := d.attrs(&s.Element, start); err != nil {
		return nil, err
	}
	err := d.children(&s.Element, func(child xml.StartElement) (err error) {
		switch child.Name.Local {
		case "id":
			s.id, err = d.id(child)
		case "title":
			s.title, err = d.text(child)
		case "subtitle":
			s.subtitle, err = d.text(child)
		case "rights":
			s.rights, err = d.text(child)
		case "link":
			var link *Link
			if link, err = d.link(child); err == nil {
				s.links.appendParsed(link)
			}
		case "author":
			var person *Person
			if person, err = d.person(child); err == nil {
				s.authors.appendParsed(person)
			}
		case "category":
			var cat *Category
			if cat, err = d.category(child); err == nil {
				s.categories.appendParsed(cat)
			}
		case "icon":
			s.icon, err = d.simple(&s.Element)
		case "logo":
			s.logo, err = d.simple(&s.Element)
		case "updated":
			s.updated, err = d.timestamp(&s.Element, child)
		default:
			err = d.extension(&s.Element, child)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// entry reads an entry. inherited holds the namespace declarations in scope
// from enclosing elements; they are copied onto the entry so that its
// extensions stay well-formed when it is written on its own.
func (d *decoder) entry(e *Entry, start xml.StartElement, inherited []xml.Attr) error {
	if _, err := d.attrs(&e.Element, start); err != nil {
		return err
	}
	for _, decl := range inherited {
		if !declares(e.attrs, decl.Name.Local) {
			e.attrs = append(e.attrs, decl)
		}
	}
	return d.children(&e.Element, func(child xml.StartElement) (err error) {
		switch child.Name.Local {
		case "title":
			e.title, err = d.text(child)
		case "id":
			e.id, err = d.id(child)
		case "link":
			var link *Link
			if link, err = d.link(child); err == nil {
				e.Links().appendParsed(link)
			}
		case "author":
			var person *Person
			if person, err = d.person(child); err == nil {
				e.Authors().appendParsed(person)
			}
		case "contributor":
			var person *Person
			if person, err = d.person(child); err == nil {
				e.Contributors().appendParsed(person)
			}
		case "category":
			var cat *Category
			if cat, err = d.category(child); err == nil {
				e.Categories().appendParsed(cat)
			}
		case "rights":
			e.rights, err = d.text(child)
		case "summary":
			e.summary, err = d.text(child)
		case "content":
			e.content, err = d.content(child)
		case "source":
			e.source, err = d.source(child)
		case "updated":
			e.updated, err = d.timestamp(&e.Element, child)
		case "published":
			e.published, err = d.timestamp(&e.Element, child)
		default:
			err = d.extension(&e.Element, child)
		}
		return err
	})
}

func (d *decoder) feed(f *Feed, start xml.StartElement) error {
	if _, err := d.attrs(&f.Element, start); err != nil {
		return err
	}
	var decls []xml.Attr
	for _, attr := range f.attrs {
		if attr.Name.Space == xmlnsNamespace {
			decls = append(decls, attr)
		}
	}
	return d.children(&f.Element, func(child xml.StartElement) (err error) {
		switch child.Name.Local {
		case "id":
			f.id, err = d.id(child)
		case "title":
			f.title, err = d.text(child)
		case "subtitle":
			f.subtitle, err = d.text(child)
		case "rights":
			f.rights, err = d.text(child)
		case "link":
			var link *Link
			if link, err = d.link(child); err == nil {
				f.Links().appendParsed(link)
			}
		case "author":
			var person *Person
			if person, err = d.person(child); err == nil {
				f.Authors().appendParsed(person)
			}
		case "contributor":
			var person *Person
			if person, err = d.person(child); err == nil {
				f.Contributors().appendParsed(person)
			}
		case "category":
			var cat *Category
			if cat, err = d.category(child); err == nil {
				f.Categories().appendParsed(cat)
			}
		case "icon":
			f.icon, err = d.simple(&f.Element)
		case "logo":
			f.logo, err = d.simple(&f.Element)
		case "updated":
			f.updated, err = d.timestamp(&f.Element, child)
		case "entry":
			entry := NewEntry()
			if err = d.entry(entry, child, decls); err == nil {
				f.entries = append(f.entries, entry)
				entry.feed = f
			}
		default:
			err = d.extension(&f.Element, child)
		}
		return err
	})
}

func declares(attrs []xml.Attr, prefix string) bool {
	for _, attr := range attrs {
		if attr.Name.Space == xmlnsNamespace && attr.Name.Local == prefix {
			return true
		}
	}
	return false
}
