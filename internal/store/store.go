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

// Package store keeps the entries of an Atom collection in PostgreSQL and
// serves as the atom.Service that commits and deletes them.
package store

import (
	"bytes"
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"software.sslmate.com/src/certspotter/merkletree"
	"src.agwa.name/go-dbutil"

	"software.sslmate.com/src/atomkeeper/atom"
)

// ChannelName is the PostgreSQL notification channel on which every change
// to an entry is announced.
const ChannelName = "atomkeeper"

var (
	ErrNotFound  = errors.New("entry not found")
	ErrInvalidID = errors.New("entry id was not assigned by this store")
)

//go:embed schema.sql
var schema string

// A Store holds the entries of one collection.
type Store struct {
	DB         *sql.DB
	Collection string
	BaseURL    string // entries are published under BaseURL + "/entries/"
	Now        func() time.Time
}

func (s *Store) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// CreateSchema creates the database tables if needed and registers the
// store's collection.
func (s *Store) CreateSchema(ctx context.Context) error {
	if _, err := s.DB.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("error creating database schema: %w", err)
	}
	if _, err := s.DB.ExecContext(ctx, `INSERT INTO collection (collection_id, revision_tree) VALUES ($1, $2) ON CONFLICT (collection_id) DO NOTHING`, s.Collection, dbutil.JSON(&merkletree.CollapsedTree{})); err != nil {
		return fmt.Errorf("error inserting collection row: %w", err)
	}
	return nil
}

// EntryURI returns the address at which the entry is published and edited.
func (s *Store) EntryURI(id uuid.UUID) string {
	return strings.TrimSuffix(s.BaseURL, "/") + "/entries/" + id.String()
}

// FeedURI returns the address of the collection feed.
func (s *Store) FeedURI() string {
	return strings.TrimSuffix(s.BaseURL, "/") + "/feed.atom"
}

// ParseID extracts the UUID from an entry id of the form urn:uuid:<uuid>.
func ParseID(uri string) (uuid.UUID, error) {
	rest, ok := strings.CutPrefix(uri, "urn:uuid:")
	if !ok {
		return uuid.Nil, fmt.Errorf("%w: %q", ErrInvalidID, uri)
	}
	id, err := uuid.Parse(rest)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %q", ErrInvalidID, uri)
	}
	return id, nil
}

// Update stores entry. An entry without an id is created under a new
// urn:uuid id; an entry with an id replaces the stored entry, which must
// exist. The store assigns the updated time and the edit and self links,
// records a revision, and returns the stored entry bound to the store.
func (s *Store) Update(ctx context.Context, entry *atom.Entry) (*atom.Entry, error) {
	create := !entry.HasID()
	id := uuid.Nil
	if create {
		id = uuid.New()
	} else if parsed, err := ParseID(entry.ID().URI()); err != nil {
		return nil, err
	} else {
		id = parsed
	}

	canonical, err := atom.Import(entry)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC().Truncate(time.Millisecond)
	canonical.SetID(atom.NewID(id.URN()))
	canonical.SetUpdated(now)
	canonical.SetEditURI(s.EntryURI(id))
	canonical.SetSelfURI(s.EntryURI(id))

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("error starting database transaction: %w", err)
	}
	defer tx.Rollback()

	tree, err := s.lockCollection(ctx, tx)
	if err != nil {
		return nil, err
	}

	if create {
		if canonical.Published().IsZero() {
			canonical.SetPublished(now)
		}
	} else {
		var published time.Time
		if err := tx.QueryRowContext(ctx, `SELECT published FROM entry WHERE entry_id = $1 AND collection_id = $2 FOR UPDATE`, id.String(), s.Collection).Scan(&published); err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id.URN())
		} else if err != nil {
			return nil, fmt.Errorf("error loading entry %s: %w", id, err)
		}
		if canonical.Published().IsZero() {
			canonical.SetPublished(published)
		}
	}

	markup, err := atom.Marshal(canonical)
	if err != nil {
		return nil, fmt.Errorf("error serializing entry %s: %w", id, err)
	}

	if create {
		if _, err := tx.ExecContext(ctx, `INSERT INTO entry (entry_id, collection_id, markup, published, updated) VALUES ($1, $2, $3, $4, $5)`, id.String(), s.Collection, markup, canonical.Published(), now); err != nil {
			return nil, fmt.Errorf("error inserting entry row: %w", err)
		}
	} else {
		if err := dbutil.MustAffectRow(tx.ExecContext(ctx, `UPDATE entry SET markup = $1, published = $2, updated = $3 WHERE entry_id = $4 AND collection_id = $5`, markup, canonical.Published(), now, id.String(), s.Collection)); err != nil {
			return nil, fmt.Errorf("error updating entry row: %w", err)
		}
	}

	if err := s.appendRevision(ctx, tx, tree, id, merkletree.HashLeaf(markup), false); err != nil {
		return nil, err
	}
	if err := notify(ctx, tx, Notification{Collection: s.Collection, Event: EventUpdate, ID: id.URN()}); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("error committing database transaction: %w", err)
	}

	result, err := atom.Parse(bytes.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("error reparsing stored entry %s: %w", id, err)
	}
	result.SetService(s)
	return result, nil
}

// Delete removes entry from the store and records a tombstone revision.
func (s *Store) Delete(ctx context.Context, entry *atom.Entry) error {
	if !entry.HasID() {
		return fmt.Errorf("%w: entry has no id", atom.ErrInvalidArgument)
	}
	id, err := ParseID(entry.ID().URI())
	if err != nil {
		return err
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting database transaction: %w", err)
	}
	defer tx.Rollback()

	tree, err := s.lockCollection(ctx, tx)
	if err != nil {
		return err
	}
	if err := dbutil.MustAffectRow(tx.ExecContext(ctx, `DELETE FROM entry WHERE entry_id = $1 AND collection_id = $2`, id.String(), s.Collection)); err == sql.ErrNoRows {
		return fmt.Errorf("%w: %s", ErrNotFound, id.URN())
	} else if err != nil {
		return fmt.Errorf("error deleting entry row: %w", err)
	}
	if err := s.appendRevision(ctx, tx, tree, id, tombstoneHash(id), true); err != nil {
		return err
	}
	if err := notify(ctx, tx, Notification{Collection: s.Collection, Event: EventDelete, ID: id.URN()}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing database transaction: %w", err)
	}
	return nil
}

// Get returns the stored entry with the given id, bound to the store.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (*atom.Entry, error) {
	var markup []byte
	if err := s.DB.QueryRowContext(ctx, `SELECT markup FROM entry WHERE entry_id = $1 AND collection_id = $2`, id.String(), s.Collection).Scan(&markup); err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id.URN())
	} else if err != nil {
		return nil, fmt.Errorf("error loading entry %s: %w", id, err)
	}
	entry, err := atom.Parse(bytes.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("error parsing stored entry %s: %w", id, err)
	}
	entry.SetService(s)
	return entry, nil
}

// Exists reports whether an entry with the given id is stored.
func (s *Store) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	if err := s.DB.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM entry WHERE entry_id = $1 AND collection_id = $2)`, id.String(), s.Collection).Scan(&exists); err != nil {
		return false, fmt.Errorf("error querying entry %s: %w", id, err)
	}
	return exists, nil
}

// Count returns the number of stored entries.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.DB.QueryRowContext(ctx, `SELECT count(*) FROM entry WHERE collection_id = $1`, s.Collection).Scan(&count); err != nil {
		return 0, fmt.Errorf("error counting entries: %w", err)
	}
	return count, nil
}

type entryRow struct {
	Markup []byte `sql:"markup"`
}

// List returns up to limit entries, most recently updated first.
func (s *Store) List(ctx context.Context, limit int) ([]*atom.Entry, error) {
	var rows []entryRow
	if err := dbutil.QueryAll(ctx, s.DB, &rows, `SELECT markup FROM entry WHERE collection_id = $1 ORDER BY updated DESC, entry_id LIMIT $2`, s.Collection, limit); err != nil {
		return nil, fmt.Errorf("error listing entries: %w", err)
	}
	entries := make([]*atom.Entry, 0, len(rows))
	for _, row := range rows {
		entry, err := atom.Parse(bytes.NewReader(row.Markup))
		if err != nil {
			return nil, fmt.Errorf("error parsing stored entry: %w", err)
		}
		entry.SetService(s)
		entries = append(entries, entry)
	}
	return entries, nil
}
