// Copyright (c) 2026 Classraise. All rights reserved.
// Author: dev@classraise.org

/*
Package objstore provides a managed client for S3-compatible object storage.

Profile images and project cover images are stored in a public bucket; this
package resolves their stable public URLs and handles uploads. It supports
both AWS S3 and S3-compatible providers (Cloudflare R2, MinIO) via a custom
endpoint.
*/
package objstore

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Options holds connection settings for the object storage client.
type Options struct {
	Bucket    string
	Region    string
	Endpoint  string // Empty for AWS S3; custom for R2/MinIO.
	AccessKey string
	SecretKey string
	PublicURL string // Base URL for public object access (CDN or bucket endpoint).
}

// Store wraps an S3 client with bucket-scoped helpers.
type Store struct {
	client    *s3.Client
	bucket    string
	publicURL string
	logger    *slog.Logger
}

// New creates a Store backed by an S3-compatible bucket.
func New(ctx context.Context, opts Options, logger *slog.Logger) (*Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(opts.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			opts.AccessKey,
			opts.SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("objstore: failed to load storage config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			// Non-AWS providers need the custom endpoint and path-style addressing.
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	logger.Info("object storage client ready",
		slog.String("bucket", opts.Bucket),
		slog.String("region", opts.Region),
	)

	return &Store{
		client:    client,
		bucket:    opts.Bucket,
		publicURL: strings.TrimRight(opts.PublicURL, "/"),
		logger:    logger,
	}, nil
}

// PublicURL returns the stable public URL for an object key.
//
// Keys are opaque paths like "avatars/<user-id>.webp" or
// "projects/<project-id>/cover.webp". An empty key yields an empty URL so
// callers can pass through unset image fields unchanged.
func (store *Store) PublicURL(key string) string {
	if key == "" {
		return ""
	}
	return store.publicURL + "/" + strings.TrimLeft(key, "/")
}

// Upload stores an object under the given key with the given content type.
func (store *Store) Upload(ctx context.Context, key string, body io.Reader, contentType string) error {
	_, err := store.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(store.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("objstore: upload of %q failed: %w", key, err)
	}

	store.logger.Debug("object_uploaded", slog.String("key", key))
	return nil
}

// Delete removes an object. Missing objects are not an error.
func (store *Store) Delete(ctx context.Context, key string) error {
	_, err := store.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(store.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("objstore: delete of %q failed: %w", key, err)
	}
	return nil
}
