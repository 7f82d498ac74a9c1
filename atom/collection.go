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
	"iter"
	"net/url"
	"slices"
)

// A Collection is an ordered sequence of child nodes that share an element
// name. Duplicates are allowed. Changing the sequence marks the owning node
// modified; changes to the items themselves only mark the items.
type Collection[T Node] struct {
	owner *Element
	name  xml.Name
	items []T
}

func newCollection[T Node](owner *Element, local string) *Collection[T] {
	return &Collection[T]{owner: owner, name: atomName(local)}
}

// Len returns the number of items.
func (c *Collection[T]) Len() int {
	return len(c.items)
}

// At returns the i'th item.
func (c *Collection[T]) At(i int) T {
	return c.items[i]
}

// All iterates over the items in order.
func (c *Collection[T]) All() iter.Seq2[int, T] {
	return slices.All(c.items)
}

// Items returns a copy of the item slice.
func (c *Collection[T]) Items() []T {
	return slices.Clone(c.items)
}

// Add appends items to the collection.
func (c *Collection[T]) Add(items ...T) {
	for _, item := range items {
		c.attach(item)
	}
	c.items = append(c.items, items...)
	c.owner.markDirty()
}

// Insert inserts item at position i.
func (c *Collection[T]) Insert(i int, item T) {
	c.attach(item)
	c.items = slices.Insert(c.items, i, item)
	c.owner.markDirty()
}

// RemoveAt removes the item at position i.
func (c *Collection[T]) RemoveAt(i int) {
	c.items = slices.Delete(c.items, i, i+1)
	c.owner.markDirty()
}

// Remove removes the first occurrence of item and reports whether it was
// present.
func (c *Collection[T]) Remove(item T) bool {
	i := slices.IndexFunc(c.items, func(other T) bool {
		return any(other) == any(item)
	})
	if i == -1 {
		return false
	}
	c.RemoveAt(i)
	return true
}

// Clear removes every item.
func (c *Collection[T]) Clear() {
	if len(c.items) == 0 {
		return
	}
	c.items = nil
	c.owner.markDirty()
}

func (c *Collection[T]) attach(item T) {
	item.element().bindName(c.name)
	item.BaseChanged(c.owner.EffectiveBase())
}

// appendParsed adds an item read by the parser without marking the owner.
func (c *Collection[T]) appendParsed(item T) {
	item.element().bindName(c.name)
	c.items = append(c.items, item)
}

func (c *Collection[T]) baseChanged(base *url.URL) {
	for _, item := range c.items {
		item.BaseChanged(base)
	}
}

// cloneTo returns a deep copy of c owned by owner.
func (c *Collection[T]) cloneTo(owner *Element, cloneItem func(T) T) *Collection[T] {
	dup := &Collection[T]{owner: owner, name: c.name, items: make([]T, 0, len(c.items))}
	for _, item := range c.items {
		dup.items = append(dup.items, cloneItem(item))
	}
	return dup
}

// itemsOf returns the items of a possibly unmaterialized collection.
func itemsOf[T Node](c *Collection[T]) []T {
	if c == nil {
		return nil
	}
	return c.items
}

// PersonCollection is the sequence of authors or contributors.
type PersonCollection = Collection[*Person]

// LinkCollection is the sequence of links of an entry, feed or source.
type LinkCollection struct {
	Collection[*Link]
}

func newLinkCollection(owner *Element) *LinkCollection {
	return &LinkCollection{Collection: *newCollection[*Link](owner, "link")}
}

// FindService returns the first link with relation rel whose media type
// matches typ, or nil. An empty type on either side matches any type.
func (c *LinkCollection) FindService(rel, typ string) *Link {
	for _, link := range c.items {
		if link.Rel() != rel {
			continue
		}
		if typ == "" || link.typ == "" || link.typ == typ {
			return link
		}
	}
	return nil
}

// FindAll returns every link with relation rel.
func (c *LinkCollection) FindAll(rel string) []*Link {
	var links []*Link
	for _, link := range c.items {
		if link.Rel() == rel {
			links = append(links, link)
		}
	}
	return links
}

func (c *LinkCollection) cloneLinks(owner *Element) *LinkCollection {
	if c == nil {
		return nil
	}
	return &LinkCollection{Collection: *c.cloneTo(owner, (*Link).clone)}
}

func linksOf(c *LinkCollection) []*Link {
	if c == nil {
		return nil
	}
	return c.items
}

// CategoryCollection is the sequence of categories of an entry, feed or
// source.
type CategoryCollection struct {
	Collection[*Category]
}

func newCategoryCollection(owner *Element) *CategoryCollection {
	return &CategoryCollection{Collection: *newCollection[*Category](owner, "category")}
}

// Find returns the first category with the given scheme and term, or nil.
func (c *CategoryCollection) Find(scheme, term string) *Category {
	for _, cat := range c.items {
		if cat.scheme == scheme && cat.term == term {
			return cat
		}
	}
	return nil
}

func (c *CategoryCollection) cloneCategories(owner *Element) *CategoryCollection {
	if c == nil {
		return nil
	}
	return &CategoryCollection{Collection: *c.cloneTo(owner, (*Category).clone)}
}

func categoriesOf(c *CategoryCollection) []*Category {
	if c == nil {
		return nil
	}
	return c.items
}

func clonePersons(c *PersonCollection, owner *Element) *PersonCollection {
	if c == nil {
		return nil
	}
	return c.cloneTo(owner, (*Person).clone)
}
