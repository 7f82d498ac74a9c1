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

package httpclient

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
)

func TestSend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		switch req.Method {
		case http.MethodPost:
			body, _ := io.ReadAll(req.Body)
			w.Header().Set("Content-Type", req.Header.Get("Content-Type"))
			w.WriteHeader(http.StatusCreated)
			w.Write(body)
		case http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	}))
	defer srv.Close()

	resp, err := Send(context.Background(), srv.Client(), http.MethodPost, srv.URL, "text/plain", []byte("hello"))
	if err != nil {
		t.Fatalf("Send POST: %s", err)
	}
	if resp.StatusCode != http.StatusCreated || string(resp.Body) != "hello" || resp.Header.Get("Content-Type") != "text/plain" {
		t.Errorf("POST response = %d %q %q", resp.StatusCode, resp.Body, resp.Header.Get("Content-Type"))
	}

	if _, err := Send(context.Background(), srv.Client(), http.MethodDelete, srv.URL, "", nil); err != nil {
		t.Errorf("Send DELETE: %s", err)
	}

	_, err = Send(context.Background(), srv.Client(), http.MethodPatch, srv.URL, "text/plain", nil)
	urlErr, ok := err.(*url.Error)
	if !ok {
		t.Fatalf("Send PATCH error = %#v, want *url.Error", err)
	}
	if urlErr.Op != "Patch" {
		t.Errorf("Op = %q, want Patch", urlErr.Op)
	}
	if got := StatusCode(err); got != http.StatusMethodNotAllowed {
		t.Errorf("StatusCode = %d, want %d", got, http.StatusMethodNotAllowed)
	}
	if urlErr.Err.Error() != "405 Method Not Allowed: method not allowed" {
		t.Errorf("error text = %q", urlErr.Err.Error())
	}
}

func TestDownloadBytes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path != "/feed" {
			http.NotFound(w, req)
			return
		}
		w.Write([]byte(req.Header.Get("Accept")))
	}))
	defer srv.Close()

	data, err := DownloadBytes(context.Background(), nil, srv.URL+"/feed", "application/atom+xml")
	if err != nil {
		t.Fatalf("DownloadBytes: %s", err)
	}
	if string(data) != "application/atom+xml" {
		t.Errorf("Accept header = %q", data)
	}
	if _, err := DownloadBytes(context.Background(), nil, srv.URL+"/missing", ""); StatusCode(err) != http.StatusNotFound {
		t.Errorf("missing document: err = %v", err)
	}
	if StatusCode(nil) != 0 {
		t.Errorf("StatusCode(nil) != 0")
	}
}
