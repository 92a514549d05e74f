// Package service defines the backend-agnostic interface for task operations.
package service

import "time"

// Task represents a single task record as stored by the backend.
type Task struct {
	ID          int64     `json:"id" yaml:"id"`
	Title       string    `json:"title" yaml:"title"`
	Description string    `json:"description" yaml:"description"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
	ImageURL    string    `json:"image_url,omitempty" yaml:"image_url,omitempty"`
	VideoURL    string    `json:"video_url,omitempty" yaml:"video_url,omitempty"`
}

// Fields returns the mutable fields of the task.
func (t Task) Fields() TaskFields {
	return TaskFields{
		Title:       t.Title,
		Description: t.Description,
		ImageURL:    t.ImageURL,
		VideoURL:    t.VideoURL,
	}
}

// TaskFields is the mutable field set sent on insert and update.
// Empty attachment URLs are sent as null, which clears them.
type TaskFields struct {
	Title       string
	Description string
	ImageURL    string
	VideoURL    string
}

// Category classifies an uploaded attachment.
type Category string

const (
	CategoryImage Category = "image"
	CategoryVideo Category = "video"
)

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	return c == CategoryImage || c == CategoryVideo
}

// Folder returns the storage folder for the category ("images", "videos").
func (c Category) Folder() string {
	return string(c) + "s"
}

// User identifies the signed-in account. Display only.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session is an authenticated session. Callers treat it as opaque apart from
// the user shown in the UI.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	TokenType    string    `json:"token_type,omitempty"`
	Expiry       time.Time `json:"expiry,omitempty"`
	User         User      `json:"user"`
}

// Expired reports whether the access token has passed its expiry.
// A zero expiry never expires.
func (s *Session) Expired(now time.Time) bool {
	if s == nil {
		return true
	}
	return !s.Expiry.IsZero() && !now.Before(s.Expiry)
}

// AuthEvent names an auth state change.
type AuthEvent string

const (
	EventSignedIn       AuthEvent = "SIGNED_IN"
	EventSignedOut      AuthEvent = "SIGNED_OUT"
	EventTokenRefreshed AuthEvent = "TOKEN_REFRESHED"
)
