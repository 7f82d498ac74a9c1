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
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"software.sslmate.com/src/certspotter/merkletree"
	"src.agwa.name/go-dbutil"
)

// Every change to the collection appends a leaf to a Merkle tree: the hash
// of the stored markup for an update, or a tombstone hash for a delete. The
// root hash after each change is recorded with the revision, so the history
// of a collection can be audited and compared between replicas.

// A Head identifies the state of a collection's revision log.
type Head struct {
	Size     uint64
	RootHash merkletree.Hash
}

// A Revision is one change to an entry.
type Revision struct {
	Position   uint64    `sql:"position"`
	EntryID    string    `sql:"entry_id"`
	Deleted    bool      `sql:"deleted"`
	LeafHash   []byte    `sql:"leaf_hash"`
	RootHash   []byte    `sql:"root_hash"`
	RecordedAt time.Time `sql:"recorded_at"`
}

func tombstoneHash(id uuid.UUID) merkletree.Hash {
	return merkletree.HashLeaf([]byte("deleted " + id.URN()))
}

// lockCollection locks the collection row for the rest of tx and returns its
// revision tree.
func (s *Store) lockCollection(ctx context.Context, tx *sql.Tx) (*merkletree.CollapsedTree, error) {
	var tree merkletree.CollapsedTree
	if err := tx.QueryRowContext(ctx, `SELECT revision_tree FROM collection WHERE collection_id = $1 FOR UPDATE`, s.Collection).Scan(dbutil.JSON(&tree)); err == sql.ErrNoRows {
		return nil, fmt.Errorf("collection %q does not exist", s.Collection)
	} else if err != nil {
		return nil, fmt.Errorf("error loading collection %q: %w", s.Collection, err)
	}
	return &tree, nil
}

func (s *Store) appendRevision(ctx context.Context, tx *sql.Tx, tree *merkletree.CollapsedTree, id uuid.UUID, leafHash merkletree.Hash, deleted bool) error {
	position := tree.Size()
	tree.Add(leafHash)
	rootHash := tree.CalculateRoot()
	if _, err := tx.ExecContext(ctx, `INSERT INTO revision (collection_id, position, entry_id, deleted, leaf_hash, root_hash) VALUES ($1, $2, $3, $4, $5, $6)`, s.Collection, position, id.String(), deleted, leafHash[:], rootHash[:]); err != nil {
		return fmt.Errorf("error inserting revision row: %w", err)
	}
	if err := dbutil.MustAffectRow(tx.ExecContext(ctx, `UPDATE collection SET revision_tree = $1 WHERE collection_id = $2`, dbutil.JSON(tree), s.Collection)); err != nil {
		return fmt.Errorf("error updating revision tree: %w", err)
	}
	return nil
}

// Head returns the current size and root hash of the revision log.
func (s *Store) Head(ctx context.Context) (*Head, error) {
	var tree merkletree.CollapsedTree
	if err := s.DB.QueryRowContext(ctx, `SELECT revision_tree FROM collection WHERE collection_id = $1`, s.Collection).Scan(dbutil.JSON(&tree)); err != nil {
		return nil, fmt.Errorf("error loading collection %q: %w", s.Collection, err)
	}
	return &Head{Size: tree.Size(), RootHash: tree.CalculateRoot()}, nil
}

// Revisions returns the revisions of an entry, oldest first.
func (s *Store) Revisions(ctx context.Context, id uuid.UUID) ([]Revision, error) {
	var revisions []Revision
	if err := dbutil.QueryAll(ctx, s.DB, &revisions, `SELECT position, entry_id, deleted, leaf_hash, root_hash, recorded_at FROM revision WHERE collection_id = $1 AND entry_id = $2 ORDER BY position`, s.Collection, id.String()); err != nil {
		return nil, fmt.Errorf("error loading revisions of entry %s: %w", id, err)
	}
	return revisions, nil
}

// RecentRevisions returns up to limit revisions of the collection, newest
// first.
func (s *Store) RecentRevisions(ctx context.Context, limit int) ([]Revision, error) {
	var revisions []Revision
	if err := dbutil.QueryAll(ctx, s.DB, &revisions, `SELECT position, entry_id, deleted, leaf_hash, root_hash, recorded_at FROM revision WHERE collection_id = $1 ORDER BY position DESC LIMIT $2`, s.Collection, limit); err != nil {
		return nil, fmt.Errorf("error loading revisions of collection %q: %w", s.Collection, err)
	}
	return revisions, nil
}

type revisionLeaf struct {
	Position uint64 `sql:"position"`
	LeafHash []byte `sql:"leaf_hash"`
	RootHash []byte `sql:"root_hash"`
}

// Audit rebuilds the revision tree from the recorded leaves and checks it
// against every recorded root hash and against the collection's tree.
func (s *Store) Audit(ctx context.Context) error {
	head, err := s.Head(ctx)
	if err != nil {
		return err
	}
	var leaves []revisionLeaf
	if err := dbutil.QueryAll(ctx, s.DB, &leaves, `SELECT position, leaf_hash, root_hash FROM revision WHERE collection_id = $1 AND position < $2 ORDER BY position`, s.Collection, head.Size); err != nil {
		return fmt.Errorf("error loading revisions of collection %q: %w", s.Collection, err)
	}

	var tree merkletree.CollapsedTree
	for _, leaf := range leaves {
		if leaf.Position != tree.Size() {
			return fmt.Errorf("collection %q: revision %d is missing", s.Collection, tree.Size())
		}
		if len(leaf.LeafHash) != merkletree.HashLen {
			return fmt.Errorf("collection %q: revision %d has a leaf hash of the wrong length", s.Collection, leaf.Position)
		}
		tree.Add((merkletree.Hash)(leaf.LeafHash))
		if rootHash := tree.CalculateRoot(); !bytes.Equal(rootHash[:], leaf.RootHash) {
			return fmt.Errorf("collection %q: root hash after revision %d is %x, but %x was recorded", s.Collection, leaf.Position, rootHash, leaf.RootHash)
		}
	}
	if tree.Size() != head.Size {
		return fmt.Errorf("collection %q: revision log has %d revisions, but the tree has %d", s.Collection, tree.Size(), head.Size)
	}
	if rootHash := tree.CalculateRoot(); rootHash != head.RootHash {
		return fmt.Errorf("collection %q: rebuilt root hash %x does not match tree root hash %x", s.Collection, rootHash, head.RootHash)
	}
	return nil
}
