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

package store

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"

	"software.sslmate.com/src/atomkeeper/atom"
)

// RevisionNamespace is the namespace of the revision element that Feed adds
// to the collection feed.
const RevisionNamespace = "https://software.sslmate.com/src/atomkeeper/ns/revision"

// Feed returns a feed of up to limit entries, most recently updated first.
// The feed carries the head of the revision log as an extension element so
// that subscribers can detect missed or rewritten changes.
func (s *Store) Feed(ctx context.Context, title string, limit int) (*atom.Feed, error) {
	entries, err := s.List(ctx, limit)
	if err != nil {
		return nil, err
	}
	head, err := s.Head(ctx)
	if err != nil {
		return nil, err
	}

	feed := atom.NewFeed()
	feed.SetID(atom.NewID(s.FeedURI()))
	feed.SetTitle(atom.NewText(atom.Text, title))
	feed.Links().Add(atom.NewLink(atom.RelSelf, atom.MediaType, s.FeedURI()))

	var latest time.Time
	for _, entry := range entries {
		if entry.Updated().After(latest) {
			latest = entry.Updated()
		}
		feed.AddEntry(entry)
	}
	if latest.IsZero() {
		latest = s.now()
	}
	feed.SetUpdated(latest)

	ext, err := atom.NewExtension(fmt.Appendf(nil, `<rev:head xmlns:rev=%q size="%d" root="%s"/>`, RevisionNamespace, head.Size, hex.EncodeToString(head.RootHash[:])))
	if err != nil {
		return nil, fmt.Errorf("error building revision element: %w", err)
	}
	feed.AddExtension(ext)
	return feed, nil
}
