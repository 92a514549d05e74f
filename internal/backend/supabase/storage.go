package supabase

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// UploadObject uploads r to the attachment bucket at path.
func (c *Client) UploadObject(ctx context.Context, path string, r io.Reader, contentType string) error {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return c.do(ctx, request{
		method: http.MethodPost,
		path:   "/storage/v1/object/" + url.PathEscape(c.bucket) + "/" + escapePath(path),
		header: http.Header{
			"Content-Type":  {contentType},
			"Cache-Control": {"max-age=3600"},
			"X-Upsert":      {"false"},
		},
		body:    r,
		timeout: UploadTimeout,
	}, nil)
}

// PublicURL returns the public URL of an object in the attachment bucket.
// The bucket must be public for the URL to be reachable.
func (c *Client) PublicURL(path string) string {
	return c.baseURL + "/storage/v1/object/public/" + url.PathEscape(c.bucket) + "/" + escapePath(path)
}

func escapePath(p string) string {
	parts := strings.Split(strings.TrimLeft(p, "/"), "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}
