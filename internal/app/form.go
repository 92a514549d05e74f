package app

import (
	"strings"

	"taskboard/internal/service"
)

// Form holds the user-entered fields and attachment previews.
type Form struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	ImageURL     string `json:"image_url,omitempty"`
	VideoURL     string `json:"video_url,omitempty"`
	ImagePreview string `json:"image_preview,omitempty"`
	VideoPreview string `json:"video_preview,omitempty"`
}

// FormFromTask populates a form, previews included, from a stored task.
func FormFromTask(t service.Task) Form {
	return Form{
		Title:        t.Title,
		Description:  t.Description,
		ImageURL:     t.ImageURL,
		VideoURL:     t.VideoURL,
		ImagePreview: t.ImageURL,
		VideoPreview: t.VideoURL,
	}
}

// Fields returns the values sent to the backend.
func (f Form) Fields() service.TaskFields {
	return service.TaskFields{
		Title:       f.Title,
		Description: f.Description,
		ImageURL:    f.ImageURL,
		VideoURL:    f.VideoURL,
	}
}

// ValidationError reports required fields that are empty.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Fields, " and ") + " required"
}

// Validate checks the required fields. Whitespace-only counts as empty.
func (f Form) Validate() error {
	var missing []string
	if strings.TrimSpace(f.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(f.Description) == "" {
		missing = append(missing, "description")
	}
	if len(missing) > 0 {
		return &ValidationError{Fields: missing}
	}
	return nil
}
