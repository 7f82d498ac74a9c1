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

package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"software.sslmate.com/src/atomkeeper/atom"
	"software.sslmate.com/src/atomkeeper/internal/store"
)

// memoryBackend keeps entries in memory and assigns ids the way the
// PostgreSQL store does.
type memoryBackend struct {
	baseURL   string
	entries   map[uuid.UUID][]byte
	revisions map[uuid.UUID][]store.Revision
	feeds     int
	position  uint64
}

func newMemoryBackend() *memoryBackend {
	return &memoryBackend{
		baseURL:   "https://example.com",
		entries:   make(map[uuid.UUID][]byte),
		revisions: make(map[uuid.UUID][]store.Revision),
	}
}

func (b *memoryBackend) record(id uuid.UUID, deleted bool) {
	b.revisions[id] = append(b.revisions[id], store.Revision{Position: b.position, EntryID: id.String(), Deleted: deleted})
	b.position++
}

func (b *memoryBackend) Update(ctx context.Context, entry *atom.Entry) (*atom.Entry, error) {
	var id uuid.UUID
	if entry.HasID() {
		var err error
		if id, err = store.ParseID(entry.ID().URI()); err != nil {
			return nil, err
		}
		if _, ok := b.entries[id]; !ok {
			return nil, fmt.Errorf("%w: %s", store.ErrNotFound, id.URN())
		}
	} else {
		id = uuid.New()
	}
	canonical, err := atom.Import(entry)
	if err != nil {
		return nil, err
	}
	canonical.SetID(atom.NewID(id.URN()))
	canonical.SetUpdated(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	canonical.SetEditURI(b.baseURL + "/entries/" + id.String())
	markup, err := atom.Marshal(canonical)
	if err != nil {
		return nil, err
	}
	b.entries[id] = markup
	b.record(id, false)
	return b.Get(ctx, id)
}

func (b *memoryBackend) Delete(ctx context.Context, entry *atom.Entry) error {
	id, err := store.ParseID(entry.ID().URI())
	if err != nil {
		return err
	}
	if _, ok := b.entries[id]; !ok {
		return fmt.Errorf("%w: %s", store.ErrNotFound, id.URN())
	}
	delete(b.entries, id)
	b.record(id, true)
	return nil
}

func (b *memoryBackend) Get(ctx context.Context, id uuid.UUID) (*atom.Entry, error) {
	markup, ok := b.entries[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", store.ErrNotFound, id.URN())
	}
	entry, err := atom.Parse(strings.NewReader(string(markup)))
	if err != nil {
		return nil, err
	}
	entry.SetService(b)
	return entry, nil
}

func (b *memoryBackend) Feed(ctx context.Context, title string, limit int) (*atom.Feed, error) {
	b.feeds++
	feed := atom.NewFeed()
	feed.SetTitle(atom.NewText(atom.Text, title))
	for id := range b.entries {
		entry, err := b.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		feed.AddEntry(entry)
	}
	return feed, nil
}

func (b *memoryBackend) Revisions(ctx context.Context, id uuid.UUID) ([]store.Revision, error) {
	return b.revisions[id], nil
}

func newTestServer(t *testing.T) (*httptest.Server, *memoryBackend) {
	backend := newMemoryBackend()
	s := &Server{Backend: backend, Service: backend, Title: "Test Collection"}
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return srv, backend
}

func do(t *testing.T, method, url, body string) (*http.Response, string) {
	t.Helper()
	var reqBody io.Reader
	if body != "" {
		reqBody = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		t.Fatal(err)
	}
	if body != "" {
		req.Header.Set("Content-Type", atom.MediaType)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %s", method, url, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("%s %s: error reading body: %s", method, url, err)
	}
	return resp, string(data)
}

const submitted = `<entry xmlns="http://www.w3.org/2005/Atom">
  <title>Hello</title>
  <id>tag:client.example,2025:1</id>
  <content type="text">First post.</content>
</entry>`

func TestEntryLifecycle(t *testing.T) {
	srv, backend := newTestServer(t)

	resp, body := do(t, http.MethodPost, srv.URL+"/entries", submitted)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("POST status = %d: %s", resp.StatusCode, body)
	}
	location := resp.Header.Get("Location")
	name, ok := strings.CutPrefix(location, "https://example.com/entries/")
	if !ok {
		t.Fatalf("Location = %q", location)
	}
	created, err := atom.Parse(strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST response does not parse: %s", err)
	}
	if created.ID().URI() != "urn:uuid:"+name {
		t.Errorf("created id = %q, want server-assigned id", created.ID().URI())
	}
	if !strings.HasPrefix(resp.Header.Get("Content-Type"), atom.MediaType) {
		t.Errorf("Content-Type = %q", resp.Header.Get("Content-Type"))
	}

	resp, body = do(t, http.MethodGet, srv.URL+"/entries/"+name, "")
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, "First post.") {
		t.Errorf("GET = %d: %s", resp.StatusCode, body)
	}

	replacement := strings.Replace(strings.Replace(submitted, "First post.", "Edited.", 1), "<id>tag:client.example,2025:1</id>", "", 1)
	resp, body = do(t, http.MethodPut, srv.URL+"/entries/"+name, replacement)
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, "Edited.") {
		t.Errorf("PUT = %d: %s", resp.StatusCode, body)
	}

	resp, body = do(t, http.MethodGet, srv.URL+"/entries/"+name+"/revisions", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET revisions = %d: %s", resp.StatusCode, body)
	}
	var revisions []store.Revision
	if err := json.Unmarshal([]byte(body), &revisions); err != nil {
		t.Fatalf("revisions are not JSON: %s", err)
	}
	if len(revisions) != 2 {
		t.Errorf("%d revisions, want 2", len(revisions))
	}

	resp, body = do(t, http.MethodDelete, srv.URL+"/entries/"+name, "")
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("DELETE = %d: %s", resp.StatusCode, body)
	}
	if len(backend.entries) != 0 {
		t.Errorf("entry still stored after DELETE")
	}
	resp, _ = do(t, http.MethodGet, srv.URL+"/entries/"+name, "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("GET after DELETE = %d", resp.StatusCode)
	}
}

func TestErrors(t *testing.T) {
	srv, _ := newTestServer(t)
	missing := uuid.New().String()

	tests := []struct {
		method string
		path   string
		body   string
		status int
	}{
		{http.MethodGet, "/entries/" + missing, "", 404},
		{http.MethodGet, "/entries/not-a-uuid", "", 404},
		{http.MethodDelete, "/entries/" + missing, "", 404},
		{http.MethodPut, "/entries/" + missing, submitted, 404},
		{http.MethodPost, "/entries", "<entry", 400},
		{http.MethodPost, "/entries", `<feed xmlns="http://www.w3.org/2005/Atom"/>`, 400},
		{http.MethodGet, "/entries/" + missing + "/revisions", "", 404},
		{http.MethodPatch, "/entries/" + missing, "", 405},
	}
	for _, test := range tests {
		resp, body := do(t, test.method, srv.URL+test.path, test.body)
		if resp.StatusCode != test.status {
			t.Errorf("%s %s = %d, want %d: %s", test.method, test.path, resp.StatusCode, test.status, body)
		}
	}
}

func TestWithoutService(t *testing.T) {
	backend := newMemoryBackend()
	existing, err := backend.Update(context.Background(), atom.NewEntry())
	if err != nil {
		t.Fatal(err)
	}
	name := strings.TrimPrefix(existing.ID().URI(), "urn:uuid:")
	srv := httptest.NewServer((&Server{Backend: backend, Title: "Read Only"}).Handler())
	t.Cleanup(srv.Close)

	tests := []struct {
		method string
		path   string
		body   string
		status int
	}{
		{http.MethodPost, "/entries", submitted, 500},
		{http.MethodPut, "/entries/" + name, submitted, 500},
		{http.MethodGet, "/entries/" + name, "", 200},
	}
	for _, test := range tests {
		resp, body := do(t, test.method, srv.URL+test.path, test.body)
		if resp.StatusCode != test.status {
			t.Errorf("%s %s = %d, want %d: %s", test.method, test.path, resp.StatusCode, test.status, body)
		}
	}
	if len(backend.entries) != 1 {
		t.Errorf("backend has %d entries, want 1", len(backend.entries))
	}
}

func TestReplaceWithDifferentID(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, _ := do(t, http.MethodPost, srv.URL+"/entries", submitted)
	name := strings.TrimPrefix(resp.Header.Get("Location"), "https://example.com/entries/")
	resp, body := do(t, http.MethodPut, srv.URL+"/entries/"+name, submitted)
	if resp.StatusCode != 400 {
		t.Errorf("PUT with foreign id = %d: %s", resp.StatusCode, body)
	}
}

func TestFeedCache(t *testing.T) {
	srv, backend := newTestServer(t)

	for range 2 {
		resp, body := do(t, http.MethodGet, srv.URL+"/feed.atom", "")
		if resp.StatusCode != http.StatusOK || !strings.Contains(body, "Test Collection") {
			t.Fatalf("GET feed = %d: %s", resp.StatusCode, body)
		}
	}
	if backend.feeds != 1 {
		t.Errorf("feed built %d times, want 1", backend.feeds)
	}

	do(t, http.MethodPost, srv.URL+"/entries", submitted)
	_, body := do(t, http.MethodGet, srv.URL+"/feed.atom", "")
	if backend.feeds != 2 {
		t.Errorf("feed not rebuilt after a change")
	}
	if !strings.Contains(body, "First post.") {
		t.Errorf("feed lacks new entry: %s", body)
	}
}

func TestMetrics(t *testing.T) {
	srv, _ := newTestServer(t)
	do(t, http.MethodGet, srv.URL+"/feed.atom", "")
	resp, body := do(t, http.MethodGet, srv.URL+"/metrics", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET metrics = %d", resp.StatusCode)
	}
	if !strings.Contains(body, `atomkeeper_http_requests_total{code="200",route="GET /feed.atom"}`) {
		t.Errorf("metrics lack request counter:\n%s", body)
	}
}

func TestDashboardRoute(t *testing.T) {
	backend := newMemoryBackend()
	s := &Server{Backend: backend, Service: backend, Dashboard: http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		io.WriteString(w, "dashboard")
	})}
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	if _, body := do(t, http.MethodGet, srv.URL+"/", ""); body != "dashboard" {
		t.Errorf("GET / = %q", body)
	}
	if resp, _ := do(t, http.MethodGet, srv.URL+"/other", ""); resp.StatusCode != 404 {
		t.Errorf("GET /other = %d, want 404", resp.StatusCode)
	}
}
