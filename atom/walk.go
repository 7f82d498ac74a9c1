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
	"net/url"
)

// Node is implemented by every member of the tree.
type Node interface {
	Name() xml.Name
	IsDirty() bool
	MarkClean()
	EffectiveBase() *url.URL

	// BaseChanged delivers the effective base of the node's container. The
	// node recomputes its own effective base and passes it on to its
	// children in serialization order.
	BaseChanged(inherited *url.URL)

	// Walk visits the node and then its children in serialization order,
	// skipping children that were never materialized. It stops as soon as
	// the visitor returns true and reports whether it stopped.
	Walk(v Visitor) bool

	element() *Element
	encode(enc *encoder) error
}

// A Visitor is invoked once per node by Walk. Returning true stops the walk.
type Visitor interface {
	Visit(n Node) (stop bool)
}

// VisitorFunc adapts a function to a Visitor.
type VisitorFunc func(n Node) bool

func (f VisitorFunc) Visit(n Node) bool {
	return f(n)
}

// Walk traverses the tree rooted at n.
func Walk(n Node, v Visitor) bool {
	return n.Walk(v)
}

// IsModified reports whether any node in the tree rooted at n is dirty.
func IsModified(n Node) bool {
	return n.Walk(VisitorFunc(func(n Node) bool {
		return n.IsDirty()
	}))
}

// MarkTreeClean clears the modified flag of every node in the tree rooted at n.
func MarkTreeClean(n Node) {
	n.Walk(VisitorFunc(func(n Node) bool {
		n.MarkClean()
		return false
	}))
}

// walkLeaf is the Walk implementation of nodes without children.
func walkLeaf(n Node, v Visitor) bool {
	return v.Visit(n)
}

func walkAll[T Node](items []T, v Visitor) bool {
	for _, item := range items {
		if item.Walk(v) {
			return true
		}
	}
	return false
}
