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

// Package hook notifies an AWS Lambda function whenever an entry is
// committed or deleted.
package hook

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/lambda/types"

	"software.sslmate.com/src/atomkeeper/atom"
)

const (
	EventUpdate = "update"
	EventDelete = "delete"
)

// Event is the payload sent to the function.
type Event struct {
	Event   string
	ID      string
	EditURI string `json:",omitempty"`
}

type Invoker interface {
	Invoke(ctx context.Context, params *lambda.InvokeInput, optFns ...func(*lambda.Options)) (*lambda.InvokeOutput, error)
}

func NewClient(cfg aws.Config) *lambda.Client {
	return lambda.NewFromConfig(cfg)
}

// Service is an atom.Service that passes every call to Next and then invokes
// Function asynchronously. A failed invocation is logged and does not fail
// the call.
type Service struct {
	Next     atom.Service
	Client   Invoker
	Function string
}

func (s *Service) Update(ctx context.Context, entry *atom.Entry) (*atom.Entry, error) {
	canonical, err := s.Next.Update(ctx, entry)
	if err != nil {
		return nil, err
	}
	s.invoke(ctx, Event{Event: EventUpdate, ID: canonical.ID().URI(), EditURI: canonical.EditURI()})
	canonical.SetService(s)
	return canonical, nil
}

func (s *Service) Delete(ctx context.Context, entry *atom.Entry) error {
	if err := s.Next.Delete(ctx, entry); err != nil {
		return err
	}
	s.invoke(ctx, Event{Event: EventDelete, ID: entry.ID().URI()})
	return nil
}

func (s *Service) invoke(ctx context.Context, event Event) {
	if err := s.send(ctx, event); err != nil {
		log.Printf("error invoking %s for %s of %s: %s", s.Function, event.Event, event.ID, err)
	}
}

func (s *Service) send(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("error encoding lambda payload: %w", err)
	}
	result, err := s.Client.Invoke(ctx, &lambda.InvokeInput{
		FunctionName:   aws.String(s.Function),
		InvocationType: types.InvocationTypeEvent,
		Payload:        payload,
	})
	if err != nil {
		return err
	}
	if result.FunctionError != nil {
		return fmt.Errorf("function error: %s", aws.ToString(result.FunctionError))
	}
	return nil
}
