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

// Package server exposes a collection over HTTP as an AtomPub collection.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"software.sslmate.com/src/atomkeeper/atom"
	"software.sslmate.com/src/atomkeeper/internal/store"
)

const (
	maxEntrySize     = 1 << 20
	defaultFeedLimit = 50
	entryContentType = atom.MediaType + ";type=entry; charset=utf-8"
	feedContentType  = atom.MediaType + "; charset=utf-8"
)

var errNoService = errors.New("no service configured")

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "atomkeeper_http_requests_total",
		Help: "HTTP requests served, by route and status code",
	}, []string{"route", "code"})
	feedRenders = promauto.NewCounter(prometheus.CounterOpts{
		Name: "atomkeeper_feed_renders_total",
		Help: "Number of times the collection feed was rebuilt",
	})
)

// Backend is the read side of a collection.
type Backend interface {
	Get(ctx context.Context, id uuid.UUID) (*atom.Entry, error)
	Feed(ctx context.Context, title string, limit int) (*atom.Feed, error)
	Revisions(ctx context.Context, id uuid.UUID) ([]store.Revision, error)
}

// Server serves a collection. Entries are read from Backend; changes are
// committed through Service, which normally wraps the same store.
type Server struct {
	Backend   Backend
	Service   atom.Service
	Title     string
	FeedLimit int
	Dashboard http.Handler

	feedMu sync.Mutex
	feed   []byte
}

// Handler returns the server's routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.handle(mux, "GET /feed.atom", s.serveFeed)
	s.handle(mux, "POST /entries", s.createEntry)
	s.handle(mux, "GET /entries/{id}", s.getEntry)
	s.handle(mux, "PUT /entries/{id}", s.replaceEntry)
	s.handle(mux, "DELETE /entries/{id}", s.deleteEntry)
	s.handle(mux, "GET /entries/{id}/revisions", s.serveRevisions)
	mux.Handle("GET /metrics", promhttp.Handler())
	if s.Dashboard != nil {
		s.handle(mux, "GET /{$}", s.Dashboard.ServeHTTP)
	}
	return mux
}

func (s *Server) handle(mux *http.ServeMux, pattern string, handler http.HandlerFunc) {
	mux.Handle(pattern, promhttp.InstrumentHandlerCounter(requestsTotal.MustCurryWith(prometheus.Labels{"route": pattern}), handler))
}

// Invalidate discards the cached feed. It is called whenever the collection
// changes, including changes made by other processes.
func (s *Server) Invalidate() {
	s.feedMu.Lock()
	defer s.feedMu.Unlock()
	s.feed = nil
}

func (s *Server) feedLimit() int {
	if s.FeedLimit > 0 {
		return s.FeedLimit
	}
	return defaultFeedLimit
}

func (s *Server) renderFeed(ctx context.Context) ([]byte, error) {
	s.feedMu.Lock()
	defer s.feedMu.Unlock()
	if s.feed != nil {
		return s.feed, nil
	}
	feed, err := s.Backend.Feed(ctx, s.Title, s.feedLimit())
	if err != nil {
		return nil, err
	}
	data, err := atom.Marshal(feed)
	if err != nil {
		return nil, err
	}
	feedRenders.Inc()
	s.feed = data
	return data, nil
}

func (s *Server) serveFeed(w http.ResponseWriter, req *http.Request) {
	data, err := s.renderFeed(req.Context())
	if err != nil {
		log.Printf("error rendering collection feed: %s", err)
		http.Error(w, "Internal Server Error", 500)
		return
	}
	w.Header().Set("Content-Type", feedContentType)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "public, max-age=60, must-revalidate")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (s *Server) createEntry(w http.ResponseWriter, req *http.Request) {
	if s.Service == nil {
		writeError(w, "creating entry", errNoService)
		return
	}
	submitted, ok := readEntry(w, req)
	if !ok {
		return
	}
	entry, err := atom.Import(submitted)
	if err != nil {
		writeError(w, "creating entry", err)
		return
	}
	entry.SetService(s.Service)
	canonical, err := entry.Commit(req.Context())
	if err != nil {
		writeError(w, "creating entry", err)
		return
	}
	s.Invalidate()
	w.Header().Set("Location", canonical.EditURI())
	writeEntry(w, http.StatusCreated, canonical)
}

func (s *Server) getEntry(w http.ResponseWriter, req *http.Request) {
	entry, ok := s.loadEntry(w, req)
	if !ok {
		return
	}
	writeEntry(w, http.StatusOK, entry)
}

func (s *Server) replaceEntry(w http.ResponseWriter, req *http.Request) {
	if s.Service == nil {
		writeError(w, "replacing entry", errNoService)
		return
	}
	existing, ok := s.loadEntry(w, req)
	if !ok {
		return
	}
	submitted, ok := readEntry(w, req)
	if !ok {
		return
	}
	if submitted.HasID() && submitted.ID().URI() != existing.ID().URI() {
		http.Error(w, "The submitted entry has a different id than the entry being replaced.", 400)
		return
	}
	submitted.SetID(atom.NewID(existing.ID().URI()))
	submitted.SetService(s.Service)
	canonical, err := submitted.Commit(req.Context())
	if err != nil {
		writeError(w, "replacing entry", err)
		return
	}
	s.Invalidate()
	writeEntry(w, http.StatusOK, canonical)
}

func (s *Server) deleteEntry(w http.ResponseWriter, req *http.Request) {
	entry, ok := s.loadEntry(w, req)
	if !ok {
		return
	}
	if err := entry.Delete(req.Context()); err != nil {
		writeError(w, "deleting entry", err)
		return
	}
	s.Invalidate()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) serveRevisions(w http.ResponseWriter, req *http.Request) {
	id, err := uuid.Parse(req.PathValue("id"))
	if err != nil {
		http.Error(w, "Entry Not Found", 404)
		return
	}
	revisions, err := s.Backend.Revisions(req.Context(), id)
	if err != nil {
		writeError(w, "loading revisions", err)
		return
	}
	if len(revisions) == 0 {
		http.Error(w, "Entry Not Found", 404)
		return
	}
	data, err := json.Marshal(revisions)
	if err != nil {
		log.Printf("error encoding revisions: %s", err)
		http.Error(w, "Internal Server Error", 500)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// loadEntry returns the entry named by the request path, bound to
// s.Service so that deleting or committing it goes through the same
// bindings as new entries.
func (s *Server) loadEntry(w http.ResponseWriter, req *http.Request) (*atom.Entry, bool) {
	id, err := uuid.Parse(req.PathValue("id"))
	if err != nil {
		http.Error(w, "Entry Not Found", 404)
		return nil, false
	}
	entry, err := s.Backend.Get(req.Context(), id)
	if err != nil {
		writeError(w, "loading entry", err)
		return nil, false
	}
	entry.SetService(s.Service)
	return entry, true
}

func readEntry(w http.ResponseWriter, req *http.Request) (*atom.Entry, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, req.Body, maxEntrySize))
	if err != nil {
		http.Error(w, "Reading your request failed: "+err.Error(), 400)
		return nil, false
	}
	entry, err := atom.Parse(bytes.NewReader(body))
	if err != nil {
		http.Error(w, "Malformed entry: "+err.Error(), 400)
		return nil, false
	}
	return entry, true
}

func writeEntry(w http.ResponseWriter, status int, entry *atom.Entry) {
	data, err := atom.Marshal(entry)
	if err != nil {
		log.Printf("error encoding entry: %s", err)
		http.Error(w, "Internal Server Error", 500)
		return
	}
	w.Header().Set("Content-Type", entryContentType)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(status)
	w.Write(data)
}

func writeError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		http.Error(w, "Entry Not Found", 404)
	case errors.Is(err, store.ErrInvalidID), errors.Is(err, atom.ErrInvalidArgument):
		http.Error(w, "Invalid entry: "+err.Error(), 400)
	default:
		log.Printf("error %s: %s", op, err)
		http.Error(w, "Internal Server Error", 500)
	}
}
