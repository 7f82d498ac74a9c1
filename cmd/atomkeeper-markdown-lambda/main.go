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

// atomkeeper-markdown-lambda is a commit hook that publishes a Markdown
// rendition of every committed entry to an S3 bucket
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"software.sslmate.com/src/atomkeeper/internal/archive"
	"software.sslmate.com/src/atomkeeper/internal/atompub"
	"software.sslmate.com/src/atomkeeper/internal/hook"
	"software.sslmate.com/src/atomkeeper/internal/render"
)

const markdownContentType = "text/markdown; charset=utf-8"

var (
	bucket   = os.Getenv("MARKDOWN_BUCKET")
	prefix   = os.Getenv("MARKDOWN_PREFIX")
	s3Client *s3.Client
)

func objectName(id string) string {
	return prefix + strings.TrimPrefix(id, "urn:uuid:") + ".md"
}

func handler(ctx context.Context, event hook.Event) error {
	switch event.Event {
	case hook.EventUpdate:
		entry, err := (&atompub.Service{}).Get(ctx, event.EditURI)
		if err != nil {
			return fmt.Errorf("failed to retrieve entry: %w", err)
		}
		var md strings.Builder
		if err := render.Entry(&md, entry); err != nil {
			return fmt.Errorf("failed to render entry: %w", err)
		}
		_, err = s3Client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(bucket),
			Key:         aws.String(objectName(event.ID)),
			Body:        strings.NewReader(md.String()),
			ContentType: aws.String(markdownContentType),
		})
		return err
	case hook.EventDelete:
		_, err := s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(objectName(event.ID)),
		})
		return err
	default:
		return fmt.Errorf("unknown event %q", event.Event)
	}
}

func main() {
	cfg, err := config.LoadDefaultConfig(context.Background())
	if err != nil {
		panic(err)
	}
	s3Client = archive.NewClient(cfg)
	lambda.Start(handler)
}
