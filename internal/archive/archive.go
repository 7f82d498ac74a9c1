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

// Package archive mirrors committed entries to an S3 bucket.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"software.sslmate.com/src/atomkeeper/atom"
)

// ObjectStore is the subset of *s3.Client used by this package.
type ObjectStore interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	s3.ListObjectsV2APIClient
}

// NewClient returns an S3 client configured the way the archive expects.
func NewClient(cfg aws.Config) *s3.Client {
	return s3.NewFromConfig(cfg, func(opts *s3.Options) {
		opts.EndpointOptions.UseDualStackEndpoint = aws.DualStackEndpointStateEnabled
		opts.DisableLogOutputChecksumValidationSkipped = true
	})
}

// Service is an atom.Service that passes every call to Next and then
// mirrors the canonical entry to Bucket. Archive failures are logged and do
// not fail the call, since Next has already stored the change.
type Service struct {
	Next   atom.Service
	Client ObjectStore
	Bucket string
	Prefix string
}

// ObjectName returns the key under which the entry with the given id is
// archived.
func (s *Service) ObjectName(id string) string {
	return s.Prefix + strings.TrimPrefix(id, "urn:uuid:") + ".atom"
}

func (s *Service) Update(ctx context.Context, entry *atom.Entry) (*atom.Entry, error) {
	canonical, err := s.Next.Update(ctx, entry)
	if err != nil {
		return nil, err
	}
	if err := s.put(ctx, canonical); err != nil {
		log.Printf("error archiving entry %s: %s", canonical.ID().URI(), err)
	}
	canonical.SetService(s)
	return canonical, nil
}

func (s *Service) Delete(ctx context.Context, entry *atom.Entry) error {
	if err := s.Next.Delete(ctx, entry); err != nil {
		return err
	}
	key := s.ObjectName(entry.ID().URI())
	if _, err := s.Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(key),
	}); err != nil {
		log.Printf("error deleting archived entry %s: %s", key, err)
	}
	return nil
}

func (s *Service) put(ctx context.Context, entry *atom.Entry) error {
	markup, err := atom.Marshal(entry)
	if err != nil {
		return err
	}
	_, err = s.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.Bucket),
		Key:         aws.String(s.ObjectName(entry.ID().URI())),
		Body:        bytes.NewReader(markup),
		ContentType: aws.String(atom.MediaType),
	})
	return err
}

// Prune deletes archived objects under Prefix whose entry no longer exists,
// as reported by exists. If dryrun is true, the objects are only logged.
func (s *Service) Prune(ctx context.Context, exists func(ctx context.Context, id string) (bool, error), dryrun bool) (int, error) {
	pruned := 0
	paginator := s3.NewListObjectsV2Paginator(s.Client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.Bucket),
		Prefix: aws.String(s.Prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return pruned, fmt.Errorf("error listing bucket: %w", err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			id, ok := parseObjectName(s.Prefix, key)
			if ok {
				if found, err := exists(ctx, id); err != nil {
					return pruned, err
				} else if found {
					continue
				}
				log.Printf("deleting %s because the entry no longer exists", key)
			} else {
				log.Printf("deleting %s because object name is invalid", key)
			}
			if !dryrun {
				if _, err := s.Client.DeleteObject(ctx, &s3.DeleteObjectInput{
					Bucket: aws.String(s.Bucket),
					Key:    aws.String(key),
				}); err != nil {
					return pruned, fmt.Errorf("error deleting %s: %w", key, err)
				}
			}
			pruned++
		}
	}
	return pruned, nil
}

func parseObjectName(prefix, key string) (string, bool) {
	rest, ok := strings.CutPrefix(key, prefix)
	if !ok {
		return "", false
	}
	name, ok := strings.CutSuffix(rest, ".atom")
	if !ok || name == "" || strings.Contains(name, "/") {
		return "", false
	}
	return "urn:uuid:" + name, true
}
