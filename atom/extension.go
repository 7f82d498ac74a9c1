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
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
)

// An Extension is a child element the model does not interpret. Its markup
// is kept byte for byte and written back in its original position among the
// node's other extensions. A comment or processing instruction read from a
// document is kept the same way with a zero Name.
type Extension struct {
	Name xml.Name
	Raw  []byte
}

// NewExtension wraps raw markup consisting of exactly one element. Prefixes
// used by the markup must be declared within it.
func NewExtension(raw []byte) (*Extension, error) {
	dec := xml.NewDecoder(bytes.NewReader(raw))
	var name xml.Name
	depth := 0
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, fmt.Errorf("error parsing extension: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if depth == 0 {
				if name.Local != "" {
					return nil, errors.New("extension contains more than one element")
				}
				name = t.Name
			}
			depth++
		case xml.EndElement:
			depth--
		case xml.CharData:
			if depth == 0 && len(bytes.TrimSpace(t)) > 0 {
				return nil, errors.New("extension contains text outside of its element")
			}
		}
	}
	if name.Local == "" {
		return nil, errors.New("extension does not contain an element")
	}
	return &Extension{Name: name, Raw: bytes.Clone(raw)}, nil
}

func (ext *Extension) clone() *Extension {
	return &Extension{Name: ext.Name, Raw: bytes.Clone(ext.Raw)}
}
