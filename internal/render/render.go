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

// Package render converts entries to Markdown for display.
package render

import (
	"fmt"
	"io"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"software.sslmate.com/src/atomkeeper/atom"
)

// Text returns the Markdown form of a text construct.
func Text(t *atom.TextConstruct) (string, error) {
	switch t.Type() {
	case atom.HTML, atom.XHTML:
		return convert(t.Text())
	default:
		return strings.TrimSpace(t.Text()), nil
	}
}

// Content returns the Markdown form of entry content. Out-of-line content
// becomes a link, XML media types a fenced block, and other media types a
// placeholder.
func Content(c *atom.Content) (string, error) {
	if !c.IsInline() {
		return fmt.Sprintf("[%s](%s)", c.Type(), c.ResolvedSrc()), nil
	}
	typ := c.Type()
	switch {
	case typ == string(atom.Text):
		return strings.TrimSpace(c.Text()), nil
	case typ == string(atom.HTML) || typ == string(atom.XHTML):
		return convert(c.Text())
	case strings.HasSuffix(mediaType(typ), "xml"):
		return "```xml\n" + strings.TrimSpace(c.Text()) + "\n```", nil
	case strings.HasPrefix(mediaType(typ), "text/"):
		return strings.TrimSpace(c.Text()), nil
	default:
		return fmt.Sprintf("*(%s content omitted)*", typ), nil
	}
}

func convert(html string) (string, error) {
	md, err := htmltomarkdown.ConvertString(html)
	if err != nil {
		return "", fmt.Errorf("error converting HTML to Markdown: %w", err)
	}
	return strings.TrimSpace(md), nil
}

func mediaType(typ string) string {
	mt, _, _ := strings.Cut(typ, ";")
	return strings.TrimSpace(strings.ToLower(mt))
}

// Entry writes a Markdown document describing entry. Only elements present
// in the entry are written; rendering does not create missing ones.
func Entry(w io.Writer, entry *atom.Entry) error {
	var (
		title, summary, rights *atom.TextConstruct
		content                *atom.Content
		meta                   []string
	)
	entry.Walk(atom.VisitorFunc(func(n atom.Node) bool {
		switch n := n.(type) {
		case *atom.TextConstruct:
			switch n.Name().Local {
			case "title":
				title = n
			case "summary":
				summary = n
			case "rights":
				rights = n
			}
		case *atom.ID:
			meta = append(meta, "ID: "+n.URI())
		case *atom.Person:
			role := "Author"
			if n.Name().Local == "contributor" {
				role = "Contributor"
			}
			meta = append(meta, role+": "+person(n))
		case *atom.Category:
			meta = append(meta, "Category: "+category(n))
		case *atom.Link:
			meta = append(meta, fmt.Sprintf("Link (%s): %s", n.Rel(), n.ResolvedHref()))
		case *atom.Content:
			content = n
		case *atom.Source:
			meta = append(meta, "Source: "+n.ID())
			return true
		}
		return false
	}))
	if t := entry.Published(); !t.IsZero() {
		meta = append(meta, "Published: "+t.Format(time.RFC3339))
	}
	if t := entry.Updated(); !t.IsZero() {
		meta = append(meta, "Updated: "+t.Format(time.RFC3339))
	}

	var b strings.Builder
	heading := "(untitled)"
	if title != nil {
		if text, err := Text(title); err != nil {
			return err
		} else if text != "" {
			heading = text
		}
	}
	fmt.Fprintf(&b, "# %s\n\n", heading)
	for _, line := range meta {
		fmt.Fprintf(&b, "- %s\n", line)
	}
	for _, t := range []*atom.TextConstruct{summary, rights} {
		if t == nil {
			continue
		}
		text, err := Text(t)
		if err != nil {
			return err
		}
		if text != "" {
			fmt.Fprintf(&b, "\n%s\n", text)
		}
	}
	if content != nil {
		text, err := Content(content)
		if err != nil {
			return err
		}
		if text != "" {
			fmt.Fprintf(&b, "\n%s\n", text)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func person(p *atom.Person) string {
	s := p.PersonName()
	if email := p.Email(); email != "" {
		s += " <" + email + ">"
	}
	if uri := p.ResolvedURI(); uri != "" {
		s += " (" + uri + ")"
	}
	return s
}

func category(c *atom.Category) string {
	if label := c.Label(); label != "" {
		return label
	}
	if scheme := c.Scheme(); scheme != "" {
		return c.Term() + " (" + scheme + ")"
	}
	return c.Term()
}
