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

// Package atom implements a mutable document model of Atom (RFC 4287)
// entries that tracks modifications, propagates xml:base down the tree, and
// preserves markup it does not understand so that entries survive a
// parse, modify, serialize round trip.
package atom

import (
	"encoding/xml"
	"net/url"
	"slices"
)

const (
	// Namespace is the Atom namespace URI.
	Namespace = "http://www.w3.org/2005/Atom"

	// MediaType is the media type of Atom documents.
	MediaType = "application/atom+xml"

	xmlNamespace   = "http://www.w3.org/XML/1998/namespace"
	xmlnsNamespace = "xmlns"
)

func atomName(local string) xml.Name {
	return xml.Name{Space: Namespace, Local: local}
}

// Element holds the state common to every node of the tree. It is embedded
// by the concrete node types.
type Element struct {
	name      xml.Name
	base      *url.URL
	inherited *url.URL
	lang      string
	dirty     bool

	attrs      []xml.Attr
	extensions []*Extension
}

func (el *Element) element() *Element {
	return el
}

// Name returns the element name the node is serialized under.
func (el *Element) Name() xml.Name {
	return el.name
}

// bindName assigns the element name of a node when it is attached to a slot.
func (el *Element) bindName(name xml.Name) {
	el.name = name
}

// IsDirty reports whether the node itself, or data it directly owns, has
// been modified since the flag was last cleared. Children are not consulted;
// use IsModified for the whole subtree.
func (el *Element) IsDirty() bool {
	return el.dirty
}

// MarkClean clears the modified flag of this node only.
func (el *Element) MarkClean() {
	el.dirty = false
}

func (el *Element) markDirty() {
	el.dirty = true
}

// Base returns the xml:base declared on this node, or nil.
func (el *Element) Base() *url.URL {
	return el.base
}

// SetBase declares xml:base on a node without children. Nodes with children
// shadow this method so the new base reaches them.
func (el *Element) SetBase(base *url.URL) {
	el.base = cloneURL(base)
	el.markDirty()
}

// EffectiveBase returns the base that relative references inside this node
// resolve against: the declared base resolved against the inherited one.
func (el *Element) EffectiveBase() *url.URL {
	return resolveBase(el.inherited, el.base)
}

// BaseChanged records the effective base of the node's container. It does
// not set the modified flag.
func (el *Element) BaseChanged(inherited *url.URL) {
	el.inherited = cloneURL(inherited)
}

// Lang returns the xml:lang declared on this node.
func (el *Element) Lang() string {
	return el.lang
}

// SetLang declares xml:lang on this node.
func (el *Element) SetLang(lang string) {
	el.lang = lang
	el.markDirty()
}

// Attrs returns the attributes of this node that the model does not
// interpret, in document order.
func (el *Element) Attrs() []xml.Attr {
	return slices.Clone(el.attrs)
}

// SetAttr sets an uninterpreted attribute, replacing any existing attribute
// with the same name.
func (el *Element) SetAttr(name xml.Name, value string) {
	for i := range el.attrs {
		if el.attrs[i].Name == name {
			el.attrs[i].Value = value
			el.markDirty()
			return
		}
	}
	el.attrs = append(el.attrs, xml.Attr{Name: name, Value: value})
	el.markDirty()
}

// Extensions returns the extension nodes of this node in document order.
func (el *Element) Extensions() []*Extension {
	return slices.Clone(el.extensions)
}

// AddExtension appends an extension node.
func (el *Element) AddExtension(ext *Extension) {
	el.extensions = append(el.extensions, ext)
	el.markDirty()
}

// FindExtension returns the first extension node with the given name, or nil.
func (el *Element) FindExtension(name xml.Name) *Extension {
	for _, ext := range el.extensions {
		if ext.Name == name {
			return ext
		}
	}
	return nil
}

// RemoveExtensions removes every extension node with the given name and
// returns how many were removed.
func (el *Element) RemoveExtensions(name xml.Name) int {
	n := len(el.extensions)
	el.extensions = slices.DeleteFunc(el.extensions, func(ext *Extension) bool {
		return ext.Name == name
	})
	if removed := n - len(el.extensions); removed > 0 {
		el.markDirty()
		return removed
	}
	return 0
}

// copyElement copies the common state of src into el. The inherited base is
// left alone since it belongs to el's position in its own tree.
func (el *Element) copyElement(src *Element) {
	el.name = src.name
	el.base = cloneURL(src.base)
	el.lang = src.lang
	el.dirty = src.dirty
	el.attrs = slices.Clone(src.attrs)
	el.extensions = make([]*Extension, 0, len(src.extensions))
	for _, ext := range src.extensions {
		el.extensions = append(el.extensions, ext.clone())
	}
}

// startElement returns the start tag of el with its common attributes.
func (el *Element) startElement() xml.StartElement {
	start := xml.StartElement{Name: xml.Name{Local: el.name.Local}}
	if el.base != nil {
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Space: xmlNamespace, Local: "base"}, Value: el.base.String()})
	}
	if el.lang != "" {
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Space: xmlNamespace, Local: "lang"}, Value: el.lang})
	}
	return start
}
