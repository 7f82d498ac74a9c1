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

// atomcat prints Atom entries and feeds as Markdown
package main

import (
	"bufio"
	"bytes"
	"encoding/xml"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"software.sslmate.com/src/atomkeeper/atom"
	"software.sslmate.com/src/atomkeeper/internal/render"
)

func main() {
	var flags struct {
		canonical bool
	}
	flag.BoolVar(&flags.canonical, "canonical", false, "Print the canonical Atom serialization instead of Markdown")
	flag.Parse()

	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()

	if flag.NArg() == 0 {
		if err := cat(out, os.Stdin, flags.canonical); err != nil {
			log.Fatal(err)
		}
		return
	}
	for _, filename := range flag.Args() {
		f, err := os.Open(filename)
		if err != nil {
			log.Fatal(err)
		}
		err = cat(out, f, flags.canonical)
		f.Close()
		if err != nil {
			log.Fatalf("%s: %s", filename, err)
		}
	}
}

func cat(w io.Writer, r io.Reader, canonical bool) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	isFeed, err := rootIsFeed(data)
	if err != nil {
		return err
	}

	var (
		root    atom.Node
		entries []*atom.Entry
	)
	if isFeed {
		feed, err := atom.ParseFeed(bytes.NewReader(data))
		if err != nil {
			return err
		}
		root, entries = feed, feed.Entries()
	} else {
		entry, err := atom.Parse(bytes.NewReader(data))
		if err != nil {
			return err
		}
		root, entries = entry, []*atom.Entry{entry}
	}

	if canonical {
		if err := atom.Write(w, root); err != nil {
			return err
		}
		_, err := fmt.Fprintln(w)
		return err
	}
	for i, entry := range entries {
		if i > 0 {
			fmt.Fprintln(w)
		}
		if err := render.Entry(w, entry); err != nil {
			return err
		}
	}
	return nil
}

func rootIsFeed(data []byte) (bool, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err != nil {
			return false, fmt.Errorf("error finding root element: %w", err)
		}
		if start, ok := tok.(xml.StartElement); ok {
			return start.Name.Local == "feed", nil
		}
	}
}
