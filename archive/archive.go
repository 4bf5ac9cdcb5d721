// Copyright 2025 The NLP Odyssey Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
// Package archive keeps copies of rendered reports, on local disk or in an
// S3-compatible object store.
package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/nlpodyssey/intellimarket/config"
)

// An Archive stores named files and returns where each one was put.
type Archive interface {
	Put(ctx context.Context, name, contentType string, data []byte) (location string, err error)
}

// New returns the archive configured by cfg, or nil when archiving is
// disabled.
func New(cfg config.Archive) (Archive, error) {
	switch {
	case cfg.Dir != "":
		return &DirArchive{Dir: cfg.Dir}, nil
	case cfg.S3Bucket != "":
		a, err := NewS3Archive(S3Params{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			Prefix:          cfg.S3Prefix,
			UsePathStyle:    cfg.S3PathStyle,
		})
		if err != nil {
			return nil, err
		}
		return a, nil
	default:
		return nil, nil
	}
}

func cleanName(name string) (string, error) {
	base := filepath.Base(strings.TrimSpace(name))
	if base == "." || base == ".." || base == string(filepath.Separator) {
		return "", fmt.Errorf("invalid archive name %q", name)
	}
	return base, nil
}

// DirArchive writes files under a local directory, creating it as needed.
type DirArchive struct {
	Dir string
}

func (a *DirArchive) Put(_ context.Context, name, _ string, data []byte) (string, error) {
	name, err := cleanName(name)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(a.Dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	tmp, err := os.CreateTemp(a.Dir, "."+name+".*")
	if err != nil {
		return "", fmt.Errorf("failed to create archive file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	_, err = tmp.Write(data)
	err = errors.Join(err, tmp.Close())
	if err != nil {
		return "", fmt.Errorf("failed to write archive file: %w", err)
	}

	dst := filepath.Join(a.Dir, name)
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return "", fmt.Errorf("failed to write archive file: %w", err)
	}
	return dst, nil
}

// PutObjectAPI is the part of the S3 client used by S3Archive.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type S3Params struct {
	Bucket string
	// Optional region. Defaults to "us-east-1".
	Region string
	// Optional endpoint of an S3-compatible service.
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	// Optional key prefix, e.g. "reports/".
	Prefix       string
	UsePathStyle bool

	// Optional client, mainly for testing.
	Client PutObjectAPI
}

// S3Archive uploads files to an S3 bucket.
type S3Archive struct {
	client PutObjectAPI
	bucket string
	prefix string
}

func NewS3Archive(params S3Params) (*S3Archive, error) {
	if params.Bucket == "" {
		return nil, fmt.Errorf("bucket is required")
	}
	a := &S3Archive{client: params.Client, bucket: params.Bucket, prefix: params.Prefix}
	if a.client != nil {
		return a, nil
	}

	if params.AccessKeyID == "" || params.SecretAccessKey == "" {
		return nil, fmt.Errorf("access key and secret are required")
	}
	opts := s3.Options{
		Region:       params.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(params.AccessKeyID, params.SecretAccessKey, ""),
		UsePathStyle: params.UsePathStyle,
	}
	if opts.Region == "" {
		opts.Region = "us-east-1"
	}
	if params.Endpoint != "" {
		opts.BaseEndpoint = aws.String(strings.TrimSuffix(params.Endpoint, "/"))
	}
	a.client = s3.New(opts)
	return a, nil
}

// Key returns the object key of name.
func (a *S3Archive) Key(name string) string {
	return path.Join(a.prefix, name)
}

func (a *S3Archive) Put(ctx context.Context, name, contentType string, data []byte) (string, error) {
	name, err := cleanName(name)
	if err != nil {
		return "", err
	}
	key := a.Key(name)
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(a.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return "s3://" + a.bucket + "/" + key, nil
}
