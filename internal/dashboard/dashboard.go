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

// Package dashboard implements atomkeeper's HTML status page
package dashboard

import (
	"context"
	"embed"
	"encoding/base64"
	"html/template"
	"log"
	"net/http"
	"runtime/debug"
	"time"

	"software.sslmate.com/src/atomkeeper/internal/store"
)

//go:embed templates/*
var content embed.FS

var defaultDashboardTemplate = template.Must(template.ParseFS(content, "templates/dashboard.html"))

const recentRevisions = 20

// Source is the store the dashboard reports on.
type Source interface {
	Head(ctx context.Context) (*store.Head, error)
	Count(ctx context.Context) (int, error)
	RecentRevisions(ctx context.Context, limit int) ([]store.Revision, error)
}

type Revision struct {
	store.Revision
}

func (rev Revision) RootHashString() string {
	return base64.StdEncoding.EncodeToString(rev.RootHash)
}

func (rev Revision) Event() string {
	if rev.Deleted {
		return "delete"
	}
	return "update"
}

type Dashboard struct {
	Title     string
	Entries   int
	Size      uint64
	RootHash  string
	Revisions []Revision
	LoadedAt  time.Time
	BuildInfo *debug.BuildInfo
}

func LoadDashboard(ctx context.Context, src Source, title string) (*Dashboard, error) {
	dashboard := &Dashboard{Title: title, LoadedAt: time.Now().UTC()}

	head, err := src.Head(ctx)
	if err != nil {
		return nil, err
	}
	dashboard.Size = head.Size
	dashboard.RootHash = base64.StdEncoding.EncodeToString(head.RootHash[:])

	if dashboard.Entries, err = src.Count(ctx); err != nil {
		return nil, err
	}

	revisions, err := src.RecentRevisions(ctx, recentRevisions)
	if err != nil {
		return nil, err
	}
	for _, rev := range revisions {
		dashboard.Revisions = append(dashboard.Revisions, Revision{rev})
	}

	dashboard.BuildInfo, _ = debug.ReadBuildInfo()

	return dashboard, nil
}

// Handler returns a handler serving the dashboard of src. If tmpl is nil,
// the built-in template is used.
func Handler(src Source, title string, tmpl *template.Template) http.Handler {
	if tmpl == nil {
		tmpl = defaultDashboardTemplate
	}
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		dashboard, err := LoadDashboard(req.Context(), src, title)
		if err != nil {
			log.Printf("error loading dashboard: %s", err)
			http.Error(w, "Internal Database Error", 500)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=UTF-8")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Xss-Protection", "0")
		w.WriteHeader(http.StatusOK)
		tmpl.Execute(w, dashboard)
	})
}
