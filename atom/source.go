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
	"time"
)

// A Source is a snapshot of the metadata of the feed an entry originally
// came from. It is built by copying and has no setters; changing the
// original feed later does not affect it.
type Source struct {
	Element
	id         *ID
	title      *TextConstruct
	subtitle   *TextConstruct
	rights     *TextConstruct
	links      *LinkCollection
	authors    *PersonCollection
	categories *CategoryCollection
	icon       string
	logo       string
	updated    time.Time
}

// An Origin can be stored as the source of an entry. A *Source is copied;
// a *Feed is reduced to a Source first.
type Origin interface {
	snapshot() *Source
}

func (s *Source) snapshot() *Source {
	return s.clone()
}

func newSource() *Source {
	s := &Source{}
	s.bindName(atomName("source"))
	s.links = newLinkCollection(&s.Element)
	s.authors = newCollection[*Person](&s.Element, "author")
	s.categories = newCategoryCollection(&s.Element)
	return s
}

// NewSource copies the metadata of feed into a new Source. The feed's
// effective base becomes the source's declared base so that relative
// references keep their meaning wherever the source ends up. It returns nil
// if feed is nil.
func NewSource(feed *Feed) *Source {
	if feed == nil {
		return nil
	}
	s := newSource()
	s.base = feed.EffectiveBase()
	s.lang = feed.lang
	s.id = feed.id.clone()
	s.title = feed.title.clone()
	s.subtitle = feed.subtitle.clone()
	s.rights = feed.rights.clone()
	for _, link := range linksOf(feed.links) {
		s.links.appendParsed(link.clone())
	}
	for _, person := range itemsOf(feed.authors) {
		s.authors.appendParsed(person.clone())
	}
	for _, cat := range categoriesOf(feed.categories) {
		s.categories.appendParsed(cat.clone())
	}
	s.icon = feed.icon
	s.logo = feed.logo
	s.updated = feed.updated
	s.BaseChanged(nil)
	MarkTreeClean(s)
	return s
}

// ID returns the identifier of the originating feed, or "".
func (s *Source) ID() string {
	if s.id == nil {
		return ""
	}
	return s.id.uri
}

// Title returns the title of the originating feed, or nil.
func (s *Source) Title() *TextConstruct {
	return s.title
}

// Subtitle returns the subtitle of the originating feed, or nil.
func (s *Source) Subtitle() *TextConstruct {
	return s.subtitle
}

// Rights returns the rights of the originating feed, or nil.
func (s *Source) Rights() *TextConstruct {
	return s.rights
}

func (s *Source) Links() []*Link {
	return s.links.Items()
}

func (s *Source) Authors() []*Person {
	return s.authors.Items()
}

func (s *Source) Categories() []*Category {
	return s.categories.Items()
}

func (s *Source) Icon() string {
	return s.icon
}

func (s *Source) Logo() string {
	return s.logo
}

func (s *Source) Updated() time.Time {
	return s.updated
}

func (s *Source) BaseChanged(inherited *url.URL) {
	s.Element.BaseChanged(inherited)
	base := s.EffectiveBase()
	if s.id != nil {
		s.id.BaseChanged(base)
	}
	if s.title != nil {
		s.title.BaseChanged(base)
	}
	if s.subtitle != nil {
		s.subtitle.BaseChanged(base)
	}
	s.links.baseChanged(base)
	s.authors.baseChanged(base)
	s.categories.baseChanged(base)
	if s.rights != nil {
		s.rights.BaseChanged(base)
	}
}

func (s *Source) Walk(v Visitor) bool {
	if v.Visit(s) {
		return true
	}
	if s.id != nil && s.id.Walk(v) {
		return true
	}
	if s.title != nil && s.title.Walk(v) {
		return true
	}
	if s.subtitle != nil && s.subtitle.Walk(v) {
		return true
	}
	if walkAll(s.links.items, v) || walkAll(s.authors.items, v) || walkAll(s.categories.items, v) {
		return true
	}
	if s.rights != nil && s.rights.Walk(v) {
		return true
	}
	return false
}

func (s *Source) clone() *Source {
	if s == nil {
		return nil
	}
	dup := &Source{icon: s.icon, logo: s.logo, updated: s.updated}
	dup.copyElement(&s.Element)
	dup.id = s.id.clone()
	dup.title = s.title.clone()
	dup.subtitle = s.subtitle.clone()
	dup.rights = s.rights.clone()
	dup.links = s.links.cloneLinks(&dup.Element)
	dup.authors = clonePersons(s.authors, &dup.Element)
	dup.categories = s.categories.cloneCategories(&dup.Element)
	return dup
}
