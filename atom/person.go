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

// A Person is an author or contributor.
type Person struct {
	Element
	name  string
	email string
	uri   string
}

// NewPerson returns a person with the given name.
func NewPerson(name string) *Person {
	return &Person{name: name}
}

func (p *Person) PersonName() string {
	return p.name
}

func (p *Person) SetPersonName(name string) {
	p.name = name
	p.markDirty()
}

func (p *Person) Email() string {
	return p.email
}

func (p *Person) SetEmail(email string) {
	p.email = email
	p.markDirty()
}

// URI returns the person's IRI as written.
func (p *Person) URI() string {
	return p.uri
}

func (p *Person) SetURI(uri string) {
	p.uri = uri
	p.markDirty()
}

// ResolvedURI returns the person's IRI resolved against the effective base.
func (p *Person) ResolvedURI() string {
	return resolveRef(p.EffectiveBase(), p.uri)
}

func (p *Person) Walk(v Visitor) bool {
	return walkLeaf(p, v)
}

func (p *Person) clone() *Person {
	c := &Person{name: p.name, email: p.email, uri: p.uri}
	c.copyElement(&p.Element)
	return c
}
