// Package gcs implements service.ObjectStore using Google Cloud Storage.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	storage "google.golang.org/api/storage/v1"

	"taskboard/internal/config"
	"taskboard/internal/service"
)

const (
	// APITimeout is the timeout for API calls. Uploads carry media, so it is
	// longer than the table timeout.
	APITimeout = 60 * time.Second

	// PublicHost serves publicly readable objects.
	PublicHost = "https://storage.googleapis.com"
)

// ErrExists is returned when an object already exists at the path.
var ErrExists = errors.New("object already exists")

// Client implements service.ObjectStore using the GCS JSON API.
type Client struct {
	svc    *storage.Service
	bucket string
}

var _ service.ObjectStore = (*Client)(nil)

// New creates a GCS client. Credentials come from cfg.GCS.CredentialsFile
// when set, otherwise from Application Default Credentials.
func New(ctx context.Context, cfg *config.Config) (*Client, error) {
	var tokenSource oauth2.TokenSource
	if path := cfg.GCS.CredentialsFile; path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read credentials file: %w", err)
		}
		creds, err := google.CredentialsFromJSON(ctx, data, storage.DevstorageReadWriteScope)
		if err != nil {
			return nil, fmt.Errorf("invalid credentials file: %w", err)
		}
		tokenSource = creds.TokenSource
	} else {
		ts, err := google.DefaultTokenSource(ctx, storage.DevstorageReadWriteScope)
		if err != nil {
			return nil, fmt.Errorf("no google credentials: %w", err)
		}
		tokenSource = ts
	}

	httpClient := oauth2.NewClient(ctx, tokenSource)

	svc, err := storage.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create storage service: %w", err)
	}
	return &Client{svc: svc, bucket: cfg.GCS.Bucket}, nil
}

// NewWithHTTPClient creates a client with a custom HTTP client and endpoint
// (for testing).
func NewWithHTTPClient(ctx context.Context, httpClient *http.Client, endpoint, bucket string) (*Client, error) {
	svc, err := storage.NewService(ctx, option.WithHTTPClient(httpClient), option.WithEndpoint(endpoint))
	if err != nil {
		return nil, err
	}
	return &Client{svc: svc, bucket: bucket}, nil
}

// UploadObject stores r at path. An existing object is never overwritten.
func (c *Client) UploadObject(ctx context.Context, path string, r io.Reader, contentType string) error {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	if contentType == "" {
		contentType = "application/octet-stream"
	}
	obj := &storage.Object{
		Name:         strings.TrimLeft(path, "/"),
		ContentType:  contentType,
		CacheControl: "public, max-age=3600",
	}
	_, err := c.svc.Objects.Insert(c.bucket, obj).
		Media(r, googleapi.ContentType(contentType)).
		IfGenerationMatch(0).
		Context(ctx).
		Do()
	return wrapError(err)
}

// PublicURL returns the public URL of the object at path.
// The bucket must grant allUsers read access for the URL to resolve.
func (c *Client) PublicURL(path string) string {
	parts := strings.Split(strings.TrimLeft(path, "/"), "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return PublicHost + "/" + c.bucket + "/" + strings.Join(parts, "/")
}

// wrapError maps API errors onto service sentinels.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return service.ErrTimeout
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: %s", service.ErrUnauthorized, apiErr.Message)
		case http.StatusNotFound:
			return fmt.Errorf("%w: %s", service.ErrNotFound, apiErr.Message)
		case http.StatusPreconditionFailed:
			return ErrExists
		}
	}

	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return fmt.Errorf("%w: %v", service.ErrUnauthorized, err)
	}

	return err
}
