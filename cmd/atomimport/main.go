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

// atomimport copies the entries of a feed into an AtomPub collection
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"software.sslmate.com/src/atomkeeper/atom"
	"software.sslmate.com/src/atomkeeper/internal/atompub"
	"software.sslmate.com/src/atomkeeper/internal/httpclient"
)

func main() {
	var flags struct {
		feed        string
		collection  string
		concurrency int
	}
	flag.StringVar(&flags.feed, "feed", "", "URL of the feed to import")
	flag.StringVar(&flags.collection, "collection", "", "URL of the AtomPub collection to import into")
	flag.IntVar(&flags.concurrency, "concurrency", 4, "Number of entries to create at once")
	flag.Parse()

	if flags.feed == "" {
		log.Fatal("-feed flag not provided")
	}
	if flags.collection == "" {
		log.Fatal("-collection flag not provided")
	}

	ctx := context.Background()
	data, err := httpclient.DownloadBytes(ctx, nil, flags.feed, atom.MediaType)
	if err != nil {
		log.Fatal(err)
	}
	feed, err := atom.ParseFeed(bytes.NewReader(data))
	if err != nil {
		log.Fatal(err)
	}

	service := &atompub.Service{
		Collection: flags.collection,
		Client:     &http.Client{Timeout: 30 * time.Second},
	}

	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(flags.concurrency)
	for _, src := range feed.Entries() {
		entry, err := atom.Import(src)
		if err != nil {
			log.Fatal(err)
		}
		entry.SetService(service)
		group.Go(func() error {
			if _, err := entry.Commit(ctx); err != nil {
				return fmt.Errorf("error importing %s: %w", src.ID().URI(), err)
			}
			fmt.Println(entry.EditURI())
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		log.Fatal(err)
	}
}
