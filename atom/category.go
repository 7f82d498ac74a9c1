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

// A Category classifies an entry or feed.
type Category struct {
	Element
	term   string
	scheme string
	label  string
}

// NewCategory returns a category with the given term and scheme.
func NewCategory(term, scheme string) *Category {
	return &Category{term: term, scheme: scheme}
}

func (c *Category) Term() string {
	return c.term
}

func (c *Category) SetTerm(term string) {
	c.term = term
	c.markDirty()
}

func (c *Category) Scheme() string {
	return c.scheme
}

func (c *Category) SetScheme(scheme string) {
	c.scheme = scheme
	c.markDirty()
}

func (c *Category) Label() string {
	return c.label
}

func (c *Category) SetLabel(label string) {
	c.label = label
	c.markDirty()
}

func (c *Category) Walk(v Visitor) bool {
	return walkLeaf(c, v)
}

func (c *Category) clone() *Category {
	dup := &Category{term: c.term, scheme: c.scheme, label: c.label}
	dup.copyElement(&c.Element)
	return dup
}
