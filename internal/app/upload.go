package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"taskboard/internal/service"
)

// ErrMediaType is returned when a file does not match its category.
var ErrMediaType = errors.New("file type does not match category")

// sniffLen is how much content http.DetectContentType looks at.
const sniffLen = 512

// Uploader is the upload adapter: it names, stores and resolves attachments.
type Uploader struct {
	store service.ObjectStore
	log   *log.Logger
	now   func() time.Time
	newID func() string
}

// NewUploader creates an uploader over store. A nil logger discards.
func NewUploader(store service.ObjectStore, logger *log.Logger) *Uploader {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Uploader{
		store: store,
		log:   logger,
		now:   time.Now,
		newID: func() string { return uuid.NewString()[:8] },
	}
}

// Upload stores the file named name under the category folder and returns
// its public URL.
func (u *Uploader) Upload(ctx context.Context, cat service.Category, name string, r io.Reader) (string, error) {
	url, err := u.upload(ctx, cat, name, r)
	if err != nil {
		u.log.Printf("upload %s %q: %v", cat, name, err)
	}
	return url, err
}

func (u *Uploader) upload(ctx context.Context, cat service.Category, name string, r io.Reader) (string, error) {
	if !cat.Valid() {
		return "", fmt.Errorf("unknown category %q", cat)
	}

	contentType, body, err := detectType(name, r)
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(contentType, string(cat)+"/") {
		return "", fmt.Errorf("%w: %s is %s", ErrMediaType, name, contentType)
	}

	path := u.ObjectPath(cat, name)
	if err := u.store.UploadObject(ctx, path, body, contentType); err != nil {
		return "", err
	}
	url := u.store.PublicURL(path)
	if url == "" {
		return "", fmt.Errorf("no public url for %s", path)
	}
	return url, nil
}

// ObjectPath builds "<category>s/<unix millis>-<8 hex>.<ext>". The extension
// is lower-cased and omitted when the name has none.
func (u *Uploader) ObjectPath(cat service.Category, name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	return fmt.Sprintf("%s/%d-%s%s", cat.Folder(), u.now().UnixMilli(), u.newID(), ext)
}

// detectType resolves the media type from the extension, falling back to
// content sniffing. The returned reader yields the full content.
func detectType(name string, r io.Reader) (string, io.Reader, error) {
	if t := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); t != "" {
		mediaType, _, err := mime.ParseMediaType(t)
		if err == nil {
			return mediaType, r, nil
		}
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", nil, err
	}
	head = head[:n]
	mediaType, _, _ := mime.ParseMediaType(http.DetectContentType(head))
	return mediaType, io.MultiReader(bytes.NewReader(head), r), nil
}
