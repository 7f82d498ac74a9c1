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
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

const (
	EventUpdate = "update"
	EventDelete = "delete"
)

// A Notification is the payload sent on ChannelName.
type Notification struct {
	Collection string
	Event      string
	ID         string
}

func notify(ctx context.Context, tx *sql.Tx, n Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("error encoding notification: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `SELECT pg_notify($1, $2)`, ChannelName, string(payload)); err != nil {
		return fmt.Errorf("error sending notification: %w", err)
	}
	return nil
}

// ParseNotification decodes the payload of a notification received on
// ChannelName.
func ParseNotification(extra string) (*Notification, error) {
	var n Notification
	if err := json.Unmarshal([]byte(extra), &n); err != nil {
		return nil, err
	}
	return &n, nil
}
