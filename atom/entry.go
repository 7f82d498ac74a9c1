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
	"context"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"time"
)

// An EntryFactory returns a new, empty entry of a particular flavor.
// Entries that carry a factory reproduce their flavor when imported.
type EntryFactory func() *Entry

// An Entry is a single item of a feed. It may belong to a Feed or exist on
// its own.
//
// Accessors of optional children create an empty child when none exists.
// Creating it does not mark the entry modified, but a created child is
// written out by Write. Source is the exception and returns nil when absent.
type Entry struct {
	Element
	title        *TextConstruct
	id           *ID
	links        *LinkCollection
	updated      time.Time
	published    time.Time
	authors      *PersonCollection
	contributors *PersonCollection
	rights       *TextConstruct
	categories   *CategoryCollection
	summary      *TextConstruct
	content      *Content
	source       *Source

	feed    *Feed
	service Service
	factory EntryFactory
}

// NewEntry returns an empty entry.
func NewEntry() *Entry {
	e := &Entry{}
	e.bindName(atomName("entry"))
	return e
}

// SetFactory records the factory that creates entries of the same flavor as e.
func (e *Entry) SetFactory(factory EntryFactory) {
	e.factory = factory
}

// NewLike returns a new, empty entry of the same flavor as e.
func (e *Entry) NewLike() *Entry {
	if e.factory == nil {
		return NewEntry()
	}
	entry := e.factory()
	entry.bindName(atomName("entry"))
	entry.factory = e.factory
	return entry
}

// Title returns the entry's title, creating an empty one if needed.
func (e *Entry) Title() *TextConstruct {
	if e.title == nil {
		e.title = e.newText("title")
	}
	return e.title
}

func (e *Entry) SetTitle(t *TextConstruct) {
	e.title = e.attachText(t, "title")
}

// ID returns the entry's identifier, creating an empty one if needed.
func (e *Entry) ID() *ID {
	if e.id == nil {
		e.id = NewID("")
		e.id.BaseChanged(e.EffectiveBase())
	}
	return e.id
}

func (e *Entry) SetID(id *ID) {
	if id != nil {
		id.bindName(atomName("id"))
		id.BaseChanged(e.EffectiveBase())
	}
	e.id = id
	e.markDirty()
}

// HasID reports whether the entry has a non-empty identifier.
func (e *Entry) HasID() bool {
	return e.id != nil && e.id.uri != ""
}

func (e *Entry) Links() *LinkCollection {
	if e.links == nil {
		e.links = newLinkCollection(&e.Element)
	}
	return e.links
}

// Updated returns the time the entry was last modified in a significant way.
func (e *Entry) Updated() time.Time {
	return e.updated
}

func (e *Entry) SetUpdated(t time.Time) {
	e.updated = t
	e.markDirty()
}

// Published returns the time the entry was first made available.
func (e *Entry) Published() time.Time {
	return e.published
}

func (e *Entry) SetPublished(t time.Time) {
	e.published = t
	e.markDirty()
}

func (e *Entry) Authors() *PersonCollection {
	if e.authors == nil {
		e.authors = newCollection[*Person](&e.Element, "author")
	}
	return e.authors
}

func (e *Entry) Contributors() *PersonCollection {
	if e.contributors == nil {
		e.contributors = newCollection[*Person](&e.Element, "contributor")
	}
	return e.contributors
}

// Rights returns the entry's rights, creating an empty one if needed.
func (e *Entry) Rights() *TextConstruct {
	if e.rights == nil {
		e.rights = e.newText("rights")
	}
	return e.rights
}

func (e *Entry) SetRights(t *TextConstruct) {
	e.rights = e.attachText(t, "rights")
}

func (e *Entry) Categories() *CategoryCollection {
	if e.categories == nil {
		e.categories = newCategoryCollection(&e.Element)
	}
	return e.categories
}

// Summary returns the entry's summary, creating an empty one if needed.
func (e *Entry) Summary() *TextConstruct {
	if e.summary == nil {
		e.summary = e.newText("summary")
	}
	return e.summary
}

func (e *Entry) SetSummary(t *TextConstruct) {
	e.summary = e.attachText(t, "summary")
}

// Content returns the entry's content, creating an empty one if needed.
func (e *Entry) Content() *Content {
	if e.content == nil {
		e.content = &Content{}
		e.content.bindName(atomName("content"))
		e.content.BaseChanged(e.EffectiveBase())
	}
	return e.content
}

func (e *Entry) SetContent(c *Content) {
	if c != nil {
		c.bindName(atomName("content"))
		c.BaseChanged(e.EffectiveBase())
	}
	e.content = c
	e.markDirty()
}

// Source returns the metadata of the feed the entry came from, or nil.
func (e *Entry) Source() *Source {
	return e.source
}

// SetSource sets the entry's source to a copy of origin. A *Feed is reduced
// to a Source snapshot; origin itself is never stored.
func (e *Entry) SetSource(origin Origin) {
	var src *Source
	if origin != nil {
		src = origin.snapshot()
	}
	if src != nil {
		src.bindName(atomName("source"))
		src.BaseChanged(e.EffectiveBase())
	}
	e.source = src
	e.markDirty()
}

// Feed returns the feed the entry belongs to, or nil.
func (e *Entry) Feed() *Feed {
	return e.feed
}

// setFeed records the owning feed. Like the service binding it is not part
// of the document and does not mark the entry modified.
func (e *Entry) setFeed(feed *Feed) {
	e.feed = feed
}

// Service returns the binding used by Commit and Delete, or nil.
func (e *Entry) Service() Service {
	return e.service
}

// SetService binds the entry to a service. The binding is not part of the
// document and does not mark the entry modified.
func (e *Entry) SetService(service Service) {
	e.service = service
}

// EditURI returns the resolved target of the entry's edit link, or "".
func (e *Entry) EditURI() string {
	return e.serviceURI(RelEdit)
}

// SetEditURI sets the target of the entry's edit link, adding the link if
// there is none.
func (e *Entry) SetEditURI(href string) {
	e.setServiceURI(RelEdit, href)
}

// SelfURI returns the resolved target of the entry's self link, or "".
func (e *Entry) SelfURI() string {
	return e.serviceURI(RelSelf)
}

// SetSelfURI sets the target of the entry's self link, adding the link if
// there is none.
func (e *Entry) SetSelfURI(href string) {
	e.setServiceURI(RelSelf, href)
}

func (e *Entry) serviceURI(rel string) string {
	if e.links == nil {
		return ""
	}
	link := e.links.FindService(rel, MediaType)
	if link == nil {
		return ""
	}
	return link.ResolvedHref()
}

func (e *Entry) setServiceURI(rel, href string) {
	link := e.Links().FindService(rel, MediaType)
	if link == nil {
		e.links.Add(NewLink(rel, MediaType, href))
		return
	}
	link.SetHref(href)
}

// ReadOnly reports whether the entry lacks an edit link.
func (e *Entry) ReadOnly() bool {
	return e.links == nil || e.links.FindService(RelEdit, MediaType) == nil
}

// Commit sends the entry to its service and replaces the entry's contents
// with the canonical representation the service returns. Afterwards no node
// of the entry is marked modified. Without a service Commit does nothing and
// returns nil, nil. Errors from the service are returned unchanged.
func (e *Entry) Commit(ctx context.Context) (*Entry, error) {
	if e.service == nil {
		return nil, nil
	}
	updated, err := e.service.Update(ctx, e)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, errors.New("service returned no entry")
	}
	e.copyFields(updated)
	e.base = cloneURL(updated.base)
	e.lang = updated.lang
	e.attrs = slices.Clone(updated.attrs)
	e.extensions = cloneExtensions(updated.extensions)
	e.BaseChanged(e.inherited)
	MarkTreeClean(e)
	return updated, nil
}

// Delete asks the entry's service to delete it. Without a service Delete
// does nothing. Errors from the service are returned unchanged.
func (e *Entry) Delete(ctx context.Context) error {
	if e.service == nil {
		return nil
	}
	return e.service.Delete(ctx, e)
}

// Clone returns a deep copy of e, including its identity. The copy belongs
// to no feed and has no service, but resolves relative references the same
// way as e.
func (e *Entry) Clone() *Entry {
	dup := e.NewLike()
	dup.copyElement(&e.Element)
	dup.copyFields(e)
	dup.BaseChanged(e.inherited)
	return dup
}

// Import returns a copy of src suitable for adding to a different feed or
// creating through a service. The copy shares no mutable state with src,
// has no identifier, belongs to no feed and has no service. If src has no
// source, the copy's source is taken from the feed src belongs to. The
// effective base of src is declared on the copy.
func Import(src *Entry) (*Entry, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: entry to import is nil", ErrInvalidArgument)
	}
	entry := src.NewLike()
	entry.copyElement(&src.Element)
	entry.copyFields(src)
	entry.base = src.EffectiveBase()
	entry.id = nil
	if entry.source == nil && src.feed != nil {
		entry.source = NewSource(src.feed)
	}
	entry.BaseChanged(nil)
	entry.markDirty()
	return entry, nil
}

// copyFields deep-copies the Atom children of src into e.
func (e *Entry) copyFields(src *Entry) {
	e.title = src.title.clone()
	e.id = src.id.clone()
	e.links = src.links.cloneLinks(&e.Element)
	e.updated = src.updated
	e.published = src.published
	e.authors = clonePersons(src.authors, &e.Element)
	e.contributors = clonePersons(src.contributors, &e.Element)
	e.rights = src.rights.clone()
	e.categories = src.categories.cloneCategories(&e.Element)
	e.summary = src.summary.clone()
	e.content = src.content.clone()
	e.source = src.source.clone()
}

// SetBase declares xml:base on the entry and propagates the new effective
// base to its children.
func (e *Entry) SetBase(base *url.URL) {
	e.Element.SetBase(base)
	e.BaseChanged(e.inherited)
}

func (e *Entry) BaseChanged(inherited *url.URL) {
	e.Element.BaseChanged(inherited)
	base := e.EffectiveBase()
	if e.title != nil {
		e.title.BaseChanged(base)
	}
	if e.id != nil {
		e.id.BaseChanged(base)
	}
	if e.links != nil {
		e.links.baseChanged(base)
	}
	if e.authors != nil {
		e.authors.baseChanged(base)
	}
	if e.contributors != nil {
		e.contributors.baseChanged(base)
	}
	if e.categories != nil {
		e.categories.baseChanged(base)
	}
	if e.rights != nil {
		e.rights.BaseChanged(base)
	}
	if e.summary != nil {
		e.summary.BaseChanged(base)
	}
	if e.content != nil {
		e.content.BaseChanged(base)
	}
	if e.source != nil {
		e.source.BaseChanged(base)
	}
}

func (e *Entry) Walk(v Visitor) bool {
	if v.Visit(e) {
		return true
	}
	if e.title != nil && e.title.Walk(v) {
		return true
	}
	if e.id != nil && e.id.Walk(v) {
		return true
	}
	if walkAll(linksOf(e.links), v) ||
		walkAll(itemsOf(e.authors), v) ||
		walkAll(itemsOf(e.contributors), v) ||
		walkAll(categoriesOf(e.categories), v) {
		return true
	}
	if e.rights != nil && e.rights.Walk(v) {
		return true
	}
	if e.summary != nil && e.summary.Walk(v) {
		return true
	}
	if e.content != nil && e.content.Walk(v) {
		return true
	}
	if e.source != nil && e.source.Walk(v) {
		return true
	}
	return false
}

func (e *Entry) String() string {
	if e.title == nil {
		return "Entry: "
	}
	return "Entry: " + e.title.text
}

func (e *Entry) newText(local string) *TextConstruct {
	t := newTextConstruct(local)
	t.BaseChanged(e.EffectiveBase())
	return t
}

func (e *Entry) attachText(t *TextConstruct, local string) *TextConstruct {
	if t != nil {
		t.bindName(atomName(local))
		t.BaseChanged(e.EffectiveBase())
	}
	e.markDirty()
	return t
}

func cloneExtensions(exts []*Extension) []*Extension {
	dup := make([]*Extension, 0, len(exts))
	for _, ext := range exts {
		dup = append(dup, ext.clone())
	}
	return dup
}
