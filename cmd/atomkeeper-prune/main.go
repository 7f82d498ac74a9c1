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

// atomkeeper-prune deletes archived entries whose entry is no longer stored
package main

import (
	"context"
	"database/sql"
	"flag"
	"log"

	"github.com/aws/aws-sdk-go-v2/config"
	_ "github.com/lib/pq"

	"software.sslmate.com/src/atomkeeper/internal/archive"
	"software.sslmate.com/src/atomkeeper/internal/store"
)

func main() {
	var flags struct {
		db         string
		collection string
		s3bucket   string
		s3prefix   string
		dryrun     bool
	}
	flag.StringVar(&flags.db, "db", "", "Database address")
	flag.StringVar(&flags.collection, "collection", "", "Collection name")
	flag.StringVar(&flags.s3bucket, "s3-bucket", "", "S3 bucket holding the archive")
	flag.StringVar(&flags.s3prefix, "s3-prefix", "", "Prefix of archived objects")
	flag.BoolVar(&flags.dryrun, "dry-run", false, "Only log the objects that would be deleted")
	flag.Parse()

	if flags.db == "" {
		log.Fatal("-db flag not provided")
	}
	if flags.collection == "" {
		log.Fatal("-collection flag not provided")
	}
	if flags.s3bucket == "" {
		log.Fatal("-s3-bucket flag not provided")
	}

	db, err := sql.Open("postgres", flags.db)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	cfg, err := config.LoadDefaultConfig(context.Background())
	if err != nil {
		log.Fatal(err)
	}

	st := &store.Store{DB: db, Collection: flags.collection}
	arch := &archive.Service{
		Next:   st,
		Client: archive.NewClient(cfg),
		Bucket: flags.s3bucket,
		Prefix: flags.s3prefix,
	}
	exists := func(ctx context.Context, id string) (bool, error) {
		uuid, err := store.ParseID(id)
		if err != nil {
			return false, nil
		}
		return st.Exists(ctx, uuid)
	}
	pruned, err := arch.Prune(context.Background(), exists, flags.dryrun)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("pruned %d archived objects", pruned)
}
