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
	"slices"
	"time"
)

// A Feed is an ordered set of entries together with the feed's metadata.
// It owns its entries; each entry refers back to it without owning it.
type Feed struct {
	Element
	id           *ID
	title        *TextConstruct
	subtitle     *TextConstruct
	rights       *TextConstruct
	links        *LinkCollection
	authors      *PersonCollection
	contributors *PersonCollection
	categories   *CategoryCollection
	icon         string
	logo         string
	updated      time.Time
	entries      []*Entry
}

// NewFeed returns an empty feed.
func NewFeed() *Feed {
	f := &Feed{}
	f.bindName(atomName("feed"))
	return f
}

func (f *Feed) snapshot() *Source {
	return NewSource(f)
}

// ID returns the feed's identifier, materializing an empty one if needed.
func (f *Feed) ID() *ID {
	if f.id == nil {
		f.id = NewID("")
		f.id.BaseChanged(f.EffectiveBase())
	}
	return f.id
}

func (f *Feed) SetID(id *ID) {
	if id != nil {
		id.bindName(atomName("id"))
		id.BaseChanged(f.EffectiveBase())
	}
	f.id = id
	f.markDirty()
}

// Title returns the feed's title, materializing an empty one if needed.
func (f *Feed) Title() *TextConstruct {
	if f.title == nil {
		f.title = f.newText("title")
	}
	return f.title
}

func (f *Feed) SetTitle(t *TextConstruct) {
	f.title = f.attachText(t, "title")
}

// Subtitle returns the feed's subtitle, materializing an empty one if needed.
func (f *Feed) Subtitle() *TextConstruct {
	if f.subtitle == nil {
		f.subtitle = f.newText("subtitle")
	}
	return f.subtitle
}

func (f *Feed) SetSubtitle(t *TextConstruct) {
	f.subtitle = f.attachText(t, "subtitle")
}

// Rights returns the feed's rights, materializing an empty one if needed.
func (f *Feed) Rights() *TextConstruct {
	if f.rights == nil {
		f.rights = f.newText("rights")
	}
	return f.rights
}

func (f *Feed) SetRights(t *TextConstruct) {
	f.rights = f.attachText(t, "rights")
}

func (f *Feed) Links() *LinkCollection {
	if f.links == nil {
		f.links = newLinkCollection(&f.Element)
	}
	return f.links
}

func (f *Feed) Authors() *PersonCollection {
	if f.authors == nil {
		f.authors = newCollection[*Person](&f.Element, "author")
	}
	return f.authors
}

func (f *Feed) Contributors() *PersonCollection {
	if f.contributors == nil {
		f.contributors = newCollection[*Person](&f.Element, "contributor")
	}
	return f.contributors
}

func (f *Feed) Categories() *CategoryCollection {
	if f.categories == nil {
		f.categories = newCategoryCollection(&f.Element)
	}
	return f.categories
}

func (f *Feed) Icon() string {
	return f.icon
}

func (f *Feed) SetIcon(icon string) {
	f.icon = icon
	f.markDirty()
}

func (f *Feed) Logo() string {
	return f.logo
}

func (f *Feed) SetLogo(logo string) {
	f.logo = logo
	f.markDirty()
}

func (f *Feed) Updated() time.Time {
	return f.updated
}

func (f *Feed) SetUpdated(t time.Time) {
	f.updated = t
	f.markDirty()
}

// Entries returns the feed's entries in order.
func (f *Feed) Entries() []*Entry {
	return slices.Clone(f.entries)
}

// AddEntry appends entry to the feed, making the feed its owner. An entry
// that belongs to another feed is removed from it first.
func (f *Feed) AddEntry(entry *Entry) {
	if entry.feed != nil && entry.feed != f {
		entry.feed.RemoveEntry(entry)
	}
	f.entries = append(f.entries, entry)
	entry.setFeed(f)
	entry.BaseChanged(f.EffectiveBase())
	f.markDirty()
}

// RemoveEntry removes entry from the feed and reports whether it was present.
func (f *Feed) RemoveEntry(entry *Entry) bool {
	i := slices.Index(f.entries, entry)
	if i == -1 {
		return false
	}
	f.entries = slices.Delete(f.entries, i, i+1)
	entry.setFeed(nil)
	f.markDirty()
	return true
}

// SetBase declares xml:base on the feed and propagates the new effective
// base to its metadata and entries.
func (f *Feed) SetBase(base *url.URL) {
	f.Element.SetBase(base)
	f.BaseChanged(f.inherited)
}

func (f *Feed) BaseChanged(inherited *url.URL) {
	f.Element.BaseChanged(inherited)
	base := f.EffectiveBase()
	if f.id != nil {
		f.id.BaseChanged(base)
	}
	if f.title != nil {
		f.title.BaseChanged(base)
	}
	if f.subtitle != nil {
		f.subtitle.BaseChanged(base)
	}
	if f.links != nil {
		f.links.baseChanged(base)
	}
	if f.authors != nil {
		f.authors.baseChanged(base)
	}
	if f.contributors != nil {
		f.contributors.baseChanged(base)
	}
	if f.categories != nil {
		f.categories.baseChanged(base)
	}
	if f.rights != nil {
		f.rights.BaseChanged(base)
	}
	for _, entry := range f.entries {
		entry.BaseChanged(base)
	}
}

func (f *Feed) Walk(v Visitor) bool {
	if v.Visit(f) {
		return true
	}
	if f.id != nil && f.id.Walk(v) {
		return true
	}
	if f.title != nil && f.title.Walk(v) {
		return true
	}
	if f.subtitle != nil && f.subtitle.Walk(v) {
		return true
	}
	if walkAll(linksOf(f.links), v) ||
		walkAll(itemsOf(f.authors), v) ||
		walkAll(itemsOf(f.contributors), v) ||
		walkAll(categoriesOf(f.categories), v) {
		return true
	}
	if f.rights != nil && f.rights.Walk(v) {
		return true
	}
	return walkAll(f.entries, v)
}

func (f *Feed) newText(local string) *TextConstruct {
	t := newTextConstruct(local)
	t.BaseChanged(f.EffectiveBase())
	return t
}

func (f *Feed) attachText(t *TextConstruct, local string) *TextConstruct {
	if t != nil {
		t.bindName(atomName(local))
		t.BaseChanged(f.EffectiveBase())
	}
	f.markDirty()
	return t
}
