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
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// StatusError is the error wrapped in a *url.Error when the server responds
// with an unexpected status.
type StatusError struct {
	StatusCode int
	Status     string
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %s", e.Status, bytes.TrimSpace(e.Body))
}

func statusError(resp *http.Response) *StatusError {
	respBody, _ := io.ReadAll(resp.Body)
	return &StatusError{StatusCode: resp.StatusCode, Status: resp.Status, Body: respBody}
}

// Response is a successful response whose body has been read.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

func Download(ctx context.Context, client *http.Client, getURL string, accept string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, getURL, nil)
	if err != nil {
		return nil, err
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	resp, err := clientOrDefault(client).Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, &url.Error{Op: "Get", URL: getURL, Err: statusError(resp)}
	}
	return resp.Body, nil
}

func DownloadBytes(ctx context.Context, client *http.Client, getURL string, accept string) ([]byte, error) {
	r, err := Download(ctx, client, getURL, accept)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &url.Error{Op: "Get", URL: getURL, Err: err}
	}
	return data, nil
}

// Send issues a request with the given method and body and returns the
// response if its status is 2xx. Other statuses are returned as a
// *url.Error. If contentType is empty, the request has no body.
func Send(ctx context.Context, client *http.Client, method string, reqURL string, contentType string, body []byte) (*Response, error) {
	var reqBody io.Reader
	if contentType != "" {
		reqBody = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := clientOrDefault(client).Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &url.Error{Op: opName(method), URL: reqURL, Err: statusError(resp)}
	}
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &url.Error{Op: opName(method), URL: reqURL, Err: err}
	}
	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: respBody}, nil
}

// StatusCode returns the HTTP status carried by err, or 0 if err did not
// come from an HTTP response.
func StatusCode(err error) int {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode
	}
	return 0
}

func opName(method string) string {
	if method == "" {
		return "Get"
	}
	return method[:1] + strings.ToLower(method[1:])
}

func clientOrDefault(client *http.Client) *http.Client {
	if client == nil {
		return http.DefaultClient
	}
	return client
}
