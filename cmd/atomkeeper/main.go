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

// atomkeeper is a daemon that serves an Atom collection stored in PostgreSQL
// and continuously audits its revision log
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/lib/pq"
	"golang.org/x/sync/errgroup"
	"src.agwa.name/go-listener"
	_ "src.agwa.name/go-listener/tls"
	"src.agwa.name/go-util/logfilter"

	"software.sslmate.com/src/atomkeeper/atom"
	"software.sslmate.com/src/atomkeeper/internal/archive"
	"software.sslmate.com/src/atomkeeper/internal/dashboard"
	"software.sslmate.com/src/atomkeeper/internal/hook"
	"software.sslmate.com/src/atomkeeper/internal/server"
	"software.sslmate.com/src/atomkeeper/internal/store"
)

const (
	auditInterval = 1 * time.Hour
)

var (
	dbListener  *pq.Listener
	auditSignal = makeSignal()
)

type signal chan struct{}

func makeSignal() signal {
	return make(chan struct{}, 1)
}

func (s signal) raise() {
	select {
	case s <- struct{}{}:
	default:
	}
}

func auditRevisions(ctx context.Context, st *store.Store, wakeup <-chan struct{}) error {
	for {
		if err := st.Audit(ctx); err != nil {
			return err
		}
		if err := sleep(ctx, auditInterval, wakeup); err != nil {
			return err
		}
	}
}

func handleNotifications(ctx context.Context, collection string, srv *server.Server) error {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			// ping server to force a reconnection if connection is broken
			dbListener.Ping()
		case n := <-dbListener.Notify:
			handleNotification(n, collection, srv)
		}
	}
}

func handleNotification(n *pq.Notification, collection string, srv *server.Server) {
	if n == nil {
		// Database connection was re-established, so we may have missed notifications
		srv.Invalidate()
		return
	}

	payload, err := store.ParseNotification(n.Extra)
	if err != nil {
		log.Printf("Ignoring malformed database notification: %s", err)
		return
	}
	if payload.Collection != collection {
		return
	}

	switch payload.Event {
	case store.EventUpdate, store.EventDelete:
		srv.Invalidate()
		auditSignal.raise()
	default:
		log.Printf("Ignoring database notification with unknown event %q", payload.Event)
	}
}

func main() {
	var flags struct {
		config string
		listen []string
	}
	flag.StringVar(&flags.config, "config", "", "Path to configuration file")
	flag.Func("listen", "Socket for HTTP server, in go-listener syntax (repeatable)", func(arg string) error {
		flags.listen = append(flags.listen, arg)
		return nil
	})
	flag.Parse()

	if flags.config == "" {
		log.Fatal("-config flag not provided")
	}

	configData, err := os.ReadFile(flags.config)
	if err != nil {
		log.Fatal(err)
	}
	var cfg struct {
		Database   string
		Collection string
		BaseURL    string
		Title      string
		FeedLimit  int
		Archive    struct {
			Bucket string
			Prefix string
		}
		Hook struct {
			Function string
		}
	}
	if err := json.Unmarshal(configData, &cfg); err != nil {
		log.Fatal(err)
	}

	db, err := sql.Open("postgres", cfg.Database)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	st := &store.Store{
		DB:         db,
		Collection: cfg.Collection,
		BaseURL:    cfg.BaseURL,
	}
	if err := st.CreateSchema(context.Background()); err != nil {
		log.Fatal(err)
	}

	dbListener = pq.NewListener(cfg.Database, 5*time.Second, 2*time.Minute, nil)
	if err := dbListener.Listen(store.ChannelName); err != nil {
		log.Fatal(err)
	}

	var service atom.Service = st
	if cfg.Archive.Bucket != "" || cfg.Hook.Function != "" {
		awsCfg, err := config.LoadDefaultConfig(context.Background())
		if err != nil {
			log.Fatal(err)
		}
		if cfg.Archive.Bucket != "" {
			service = &archive.Service{
				Next:   service,
				Client: archive.NewClient(awsCfg),
				Bucket: cfg.Archive.Bucket,
				Prefix: cfg.Archive.Prefix,
			}
		}
		if cfg.Hook.Function != "" {
			service = &hook.Service{
				Next:     service,
				Client:   hook.NewClient(awsCfg),
				Function: cfg.Hook.Function,
			}
		}
	}

	srv := &server.Server{
		Backend:   st,
		Service:   service,
		Title:     cfg.Title,
		FeedLimit: cfg.FeedLimit,
		Dashboard: dashboard.Handler(st, cfg.Title, nil),
	}

	listeners, err := listener.OpenAll(flags.listen)
	if err != nil {
		log.Fatal(err)
	}
	defer listener.CloseAll(listeners)

	httpServer := http.Server{
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  3 * time.Second,
		Handler:      srv.Handler(),
		ErrorLog:     logfilter.New(log.Default(), logfilter.HTTPServerErrors),
	}

	group, ctx := errgroup.WithContext(context.Background())
	group.Go(func() error {
		return auditRevisions(ctx, st, auditSignal)
	})
	group.Go(func() error {
		return handleNotifications(ctx, cfg.Collection, srv)
	})
	for _, listener := range listeners {
		go func() {
			log.Fatal(httpServer.Serve(listener))
		}()
	}
	log.Fatal(group.Wait())
}

func sleep(ctx context.Context, duration time.Duration, wakeup <-chan struct{}) error {
	timer := time.NewTimer(duration)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	case <-wakeup:
		return nil
	}
}
