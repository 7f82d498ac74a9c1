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

import "fmt"

// TextType is the type attribute of a text construct.
type TextType string

const (
	Text  TextType = "text"
	HTML  TextType = "html"
	XHTML TextType = "xhtml"
)

func (t TextType) valid() bool {
	switch t {
	case Text, HTML, XHTML:
		return true
	}
	return false
}

// A TextConstruct holds human-readable text for elements such as title,
// summary and rights. For XHTML the text is the raw markup of the enclosing
// div, written back verbatim.
type TextConstruct struct {
	Element
	typ  TextType
	text string
}

// NewText returns a text construct of the given type. Its element name is
// assigned when it is attached to an entry, feed or source.
func NewText(typ TextType, text string) *TextConstruct {
	return &TextConstruct{typ: typ, text: text}
}

func newTextConstruct(local string) *TextConstruct {
	t := &TextConstruct{typ: Text}
	t.bindName(atomName(local))
	return t
}

// Type returns the construct's type, defaulting to Text.
func (t *TextConstruct) Type() TextType {
	if t.typ == "" {
		return Text
	}
	return t.typ
}

// SetType changes the construct's type.
func (t *TextConstruct) SetType(typ TextType) error {
	if !typ.valid() {
		return fmt.Errorf("%w: unknown text construct type %q", ErrInvalidArgument, typ)
	}
	t.typ = typ
	t.markDirty()
	return nil
}

// Text returns the construct's content.
func (t *TextConstruct) Text() string {
	return t.text
}

// SetText replaces the construct's content.
func (t *TextConstruct) SetText(text string) {
	t.text = text
	t.markDirty()
}

// Equal reports whether t and other have the same name, type and text.
func (t *TextConstruct) Equal(other *TextConstruct) bool {
	if t == nil || other == nil {
		return t == other
	}
	return t.name == other.name && t.Type() == other.Type() && t.text == other.text
}

func (t *TextConstruct) Walk(v Visitor) bool {
	return walkLeaf(t, v)
}

func (t *TextConstruct) clone() *TextConstruct {
	if t == nil {
		return nil
	}
	c := &TextConstruct{typ: t.typ, text: t.text}
	c.copyElement(&t.Element)
	return c
}

func (t *TextConstruct) String() string {
	return t.text
}
