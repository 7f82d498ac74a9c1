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

// Package atompub binds entries to a remote collection using the Atom
// Publishing Protocol (RFC 5023).
package atompub

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"

	"software.sslmate.com/src/atomkeeper/atom"
	"software.sslmate.com/src/atomkeeper/internal/httpclient"
)

const entryMediaType = atom.MediaType + ";type=entry"

// Service is an atom.Service backed by an AtomPub server. Entries with an
// edit link are replaced with PUT; entries without one are created by
// POSTing them to Collection.
type Service struct {
	Collection string
	Client     *http.Client
}

func (s *Service) Update(ctx context.Context, entry *atom.Entry) (*atom.Entry, error) {
	markup, err := atom.Marshal(entry)
	if err != nil {
		return nil, err
	}

	method, target := http.MethodPut, entry.EditURI()
	if target == "" {
		if s.Collection == "" {
			return nil, fmt.Errorf("%w: entry has no edit link and no collection is configured", atom.ErrInvalidArgument)
		}
		method, target = http.MethodPost, s.Collection
	}

	resp, err := httpclient.Send(ctx, s.Client, method, target, entryMediaType, markup)
	if err != nil {
		return nil, err
	}
	location := target
	if loc := resp.Header.Get("Location"); loc != "" {
		if u, err := resolve(target, loc); err == nil {
			location = u
		}
	}
	body := resp.Body
	if len(bytes.TrimSpace(body)) == 0 {
		body, err = httpclient.DownloadBytes(ctx, s.Client, location, atom.MediaType)
		if err != nil {
			return nil, err
		}
	}
	return s.bind(body, location)
}

func (s *Service) Delete(ctx context.Context, entry *atom.Entry) error {
	target := entry.EditURI()
	if target == "" {
		return fmt.Errorf("%w: entry has no edit link", atom.ErrInvalidArgument)
	}
	_, err := httpclient.Send(ctx, s.Client, http.MethodDelete, target, "", nil)
	return err
}

// Get retrieves the entry at uri and binds it to s.
func (s *Service) Get(ctx context.Context, uri string) (*atom.Entry, error) {
	body, err := httpclient.DownloadBytes(ctx, s.Client, uri, atom.MediaType)
	if err != nil {
		return nil, err
	}
	return s.bind(body, uri)
}

// bind parses a server response. Relative references in the response
// resolve against the URI it was retrieved from.
func (s *Service) bind(body []byte, location string) (*atom.Entry, error) {
	entry, err := atom.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("error parsing response from %s: %w", location, err)
	}
	if entry.Base() == nil {
		if base, err := url.Parse(location); err == nil {
			entry.SetBase(base)
			entry.MarkClean()
		}
	}
	entry.SetService(s)
	return entry, nil
}

func resolve(base, ref string) (string, error) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return "", err
	}
	return baseURL.ResolveReference(refURL).String(), nil
}
