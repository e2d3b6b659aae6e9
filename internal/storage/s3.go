// Package storage puts archive photos in an S3-compatible bucket and hands
// out time-limited presigned URLs for reads. It targets Cloudflare R2 but
// works against any S3 endpoint.
package storage

import (
	"context"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-faster/errors"
)

// Config holds the bucket connection settings.
type Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
}

// Client wraps the S3 API for a single bucket.
type Client struct {
	api     *s3.Client
	presign *s3.PresignClient
	bucket  string
}

// New builds a Client for the configured bucket. R2 requires path-style
// addressing, which is harmless against real S3 too.
func New(ctx context.Context, cfg Config) (*Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, errors.Wrap(err, "load aws config")
	}
	api := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = true
	})
	return &Client{
		api:     api,
		presign: s3.NewPresignClient(api),
		bucket:  cfg.Bucket,
	}, nil
}

// Upload stores an object under key.
func (c *Client) Upload(ctx context.Context, key, contentType string, body io.Reader) error {
	_, err := c.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
		Body:        body,
	})
	if err != nil {
		return errors.Wrapf(err, "put object %s", key)
	}
	return nil
}

// PresignGet returns a GET URL for key that expires after ttl.
func (c *Client) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	req, err := c.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", errors.Wrapf(err, "presign %s", key)
	}
	return req.URL, nil
}

// Delete removes objects by key. Missing keys are not an error.
func (c *Client) Delete(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		_, err := c.api.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(c.bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			return errors.Wrapf(err, "delete object %s", key)
		}
	}
	return nil
}
