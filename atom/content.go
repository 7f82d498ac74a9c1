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

import "strings"

// Content is the content of an entry: either inline text or markup, or a
// reference to content stored elsewhere.
type Content struct {
	Element
	typ  string
	text string
	src  string
}

// NewContent returns inline content of the given type ("text", "html",
// "xhtml" or a media type).
func NewContent(typ, text string) *Content {
	return &Content{typ: typ, text: text}
}

// NewContentRef returns out-of-line content referencing src.
func NewContentRef(typ, src string) *Content {
	return &Content{typ: typ, src: src}
}

// Type returns the content type, defaulting to "text".
func (c *Content) Type() string {
	if c.typ == "" {
		return string(Text)
	}
	return c.typ
}

func (c *Content) SetType(typ string) {
	c.typ = typ
	c.markDirty()
}

// Text returns inline content. For XHTML and XML media types it is the raw
// markup.
func (c *Content) Text() string {
	return c.text
}

// SetText sets inline content and drops any out-of-line reference.
func (c *Content) SetText(text string) {
	c.text = text
	c.src = ""
	c.markDirty()
}

// Src returns the out-of-line reference as written.
func (c *Content) Src() string {
	return c.src
}

// SetSrc makes the content out-of-line and drops any inline content.
func (c *Content) SetSrc(src string) {
	c.src = src
	c.text = ""
	c.markDirty()
}

// ResolvedSrc returns the out-of-line reference resolved against the
// effective base.
func (c *Content) ResolvedSrc() string {
	return resolveRef(c.EffectiveBase(), c.src)
}

// IsInline reports whether the content is carried inside the entry.
func (c *Content) IsInline() bool {
	return c.src == ""
}

// isMarkup reports whether inline content of this type is XML that must be
// kept as raw markup.
func (c *Content) isMarkup() bool {
	return isMarkupType(c.Type())
}

func isMarkupType(typ string) bool {
	switch typ {
	case string(XHTML):
		return true
	case string(Text), string(HTML):
		return false
	}
	mediaType, _, _ := strings.Cut(typ, ";")
	mediaType = strings.TrimSpace(strings.ToLower(mediaType))
	return strings.HasSuffix(mediaType, "+xml") || strings.HasSuffix(mediaType, "/xml")
}

func (c *Content) Walk(v Visitor) bool {
	return walkLeaf(c, v)
}

func (c *Content) clone() *Content {
	if c == nil {
		return nil
	}
	dup := &Content{typ: c.typ, text: c.text, src: c.src}
	dup.copyElement(&c.Element)
	return dup
}
