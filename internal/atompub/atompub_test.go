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

package atompub

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"software.sslmate.com/src/atomkeeper/atom"
	"software.sslmate.com/src/atomkeeper/internal/httpclient"
)

// collectionServer is a minimal AtomPub collection. Created entries are
// returned in the POST response; replaced entries are not, so the client
// has to fetch them.
type collectionServer struct {
	mu      sync.Mutex
	entries map[string]string
	next    int
}

func (c *collectionServer) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if req.URL.Path == "/entries" && req.Method == http.MethodPost {
		if !strings.HasPrefix(req.Header.Get("Content-Type"), atom.MediaType) {
			http.Error(w, "unsupported media type", http.StatusUnsupportedMediaType)
			return
		}
		c.next++
		name := fmt.Sprintf("%d", c.next)
		markup, err := c.store(name, req.Body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Location", "/entries/"+name)
		w.Header().Set("Content-Type", atom.MediaType)
		w.WriteHeader(http.StatusCreated)
		w.Write(markup)
		return
	}
	name, ok := strings.CutPrefix(req.URL.Path, "/entries/")
	if !ok {
		http.NotFound(w, req)
		return
	}
	if _, exists := c.entries[name]; !exists {
		http.NotFound(w, req)
		return
	}
	switch req.Method {
	case http.MethodGet:
		w.Header().Set("Content-Type", atom.MediaType)
		io.WriteString(w, c.entries[name])
	case http.MethodPut:
		if _, err := c.store(name, req.Body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusOK)
	case http.MethodDelete:
		delete(c.entries, name)
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (c *collectionServer) store(name string, body io.Reader) ([]byte, error) {
	entry, err := atom.Parse(body)
	if err != nil {
		return nil, err
	}
	entry.SetID(atom.NewID("tag:example.com,2025:" + name))
	entry.SetEditURI(name)
	markup, err := atom.Marshal(entry)
	if err != nil {
		return nil, err
	}
	c.entries[name] = string(markup)
	return markup, nil
}

func newTestService(t *testing.T) (*Service, *collectionServer) {
	collection := &collectionServer{entries: make(map[string]string)}
	srv := httptest.NewServer(collection)
	t.Cleanup(srv.Close)
	return &Service{Collection: srv.URL + "/entries", Client: srv.Client()}, collection
}

func TestCreateUpdateDelete(t *testing.T) {
	svc, collection := newTestService(t)
	ctx := context.Background()

	entry := atom.NewEntry()
	entry.SetTitle(atom.NewText(atom.Text, "First"))
	entry.SetService(svc)
	if _, err := entry.Commit(ctx); err != nil {
		t.Fatalf("Commit (create): %s", err)
	}
	if got := entry.ID().URI(); got != "tag:example.com,2025:1" {
		t.Errorf("ID after create = %q", got)
	}
	wantEdit := svc.Collection + "/1"
	if got := entry.EditURI(); got != wantEdit {
		t.Errorf("EditURI after create = %q, want %q", got, wantEdit)
	}
	if atom.IsModified(entry) {
		t.Errorf("entry is modified after Commit")
	}

	entry.Title().SetText("Second")
	canonical, err := entry.Commit(ctx)
	if err != nil {
		t.Fatalf("Commit (update): %s", err)
	}
	if canonical.Service() != svc {
		t.Errorf("canonical entry is not bound to the client")
	}
	if got := entry.Title().Text(); got != "Second" {
		t.Errorf("title after update = %q", got)
	}
	if !strings.Contains(collection.entries["1"], "Second") {
		t.Errorf("server did not receive update: %s", collection.entries["1"])
	}

	if err := entry.Delete(ctx); err != nil {
		t.Fatalf("Delete: %s", err)
	}
	if len(collection.entries) != 0 {
		t.Errorf("entry not deleted on server")
	}
	if err := entry.Delete(ctx); httpclient.StatusCode(err) != http.StatusNotFound {
		t.Errorf("second Delete = %v, want 404", err)
	}
}

func TestGet(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	created, err := svc.Update(ctx, atom.NewEntry())
	if err != nil {
		t.Fatalf("Update: %s", err)
	}
	got, err := svc.Get(ctx, created.EditURI())
	if err != nil {
		t.Fatalf("Get: %s", err)
	}
	if got.ID().URI() != created.ID().URI() || got.Service() != svc {
		t.Errorf("Get returned %s bound to %v", got.ID().URI(), got.Service())
	}
	if atom.IsModified(got) {
		t.Errorf("retrieved entry is modified")
	}
}

func TestInvalidArguments(t *testing.T) {
	svc := &Service{}
	if _, err := svc.Update(context.Background(), atom.NewEntry()); !errors.Is(err, atom.ErrInvalidArgument) {
		t.Errorf("Update without collection = %v", err)
	}
	if err := svc.Delete(context.Background(), atom.NewEntry()); !errors.Is(err, atom.ErrInvalidArgument) {
		t.Errorf("Delete without edit link = %v", err)
	}
}
