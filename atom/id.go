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

// An ID is the permanent, universally unique identifier of an entry or feed.
type ID struct {
	Element
	uri string
}

// NewID returns an ID node holding uri.
func NewID(uri string) *ID {
	id := &ID{uri: uri}
	id.bindName(atomName("id"))
	return id
}

// URI returns the identifier.
func (id *ID) URI() string {
	return id.uri
}

// SetURI replaces the identifier.
func (id *ID) SetURI(uri string) {
	id.uri = uri
	id.markDirty()
}

func (id *ID) Walk(v Visitor) bool {
	return walkLeaf(id, v)
}

func (id *ID) clone() *ID {
	if id == nil {
		return nil
	}
	c := &ID{uri: id.uri}
	c.copyElement(&id.Element)
	return c
}

func (id *ID) String() string {
	return id.uri
}
