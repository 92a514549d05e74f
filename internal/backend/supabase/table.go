package supabase

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"taskboard/internal/service"
)

// taskPayload is the insert/update body. Empty attachments are sent as null.
type taskPayload struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	ImageURL    *string `json:"image_url"`
	VideoURL    *string `json:"video_url"`
}

func newTaskPayload(f service.TaskFields) taskPayload {
	return taskPayload{
		Title:       f.Title,
		Description: f.Description,
		ImageURL:    nullable(f.ImageURL),
		VideoURL:    nullable(f.VideoURL),
	}
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

var returnRepresentation = http.Header{"Prefer": {"return=representation"}}

func (c *Client) tablePath() string {
	return "/rest/v1/" + url.PathEscape(c.table)
}

func idFilter(id int64) url.Values {
	return url.Values{"id": {"eq." + strconv.FormatInt(id, 10)}}
}

// ListTasks returns every task, newest first.
func (c *Client) ListTasks(ctx context.Context) ([]service.Task, error) {
	var tasks []service.Task
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   c.tablePath(),
		query:  url.Values{"select": {"*"}, "order": {"id.desc"}},
	}, &tasks)
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// InsertTask creates a task and returns the stored record.
func (c *Client) InsertTask(ctx context.Context, fields service.TaskFields) (service.Task, error) {
	body, err := jsonBody([]taskPayload{newTaskPayload(fields)})
	if err != nil {
		return service.Task{}, err
	}
	var rows []service.Task
	err = c.do(ctx, request{
		method: http.MethodPost,
		path:   c.tablePath(),
		header: returnRepresentation,
		body:   body,
	}, &rows)
	if err != nil {
		return service.Task{}, err
	}
	if len(rows) == 0 {
		// Row-level security can hide the inserted row from the caller.
		return service.Task{Title: fields.Title, Description: fields.Description, ImageURL: fields.ImageURL, VideoURL: fields.VideoURL}, nil
	}
	return rows[0], nil
}

// UpdateTask replaces the mutable fields of a task.
func (c *Client) UpdateTask(ctx context.Context, id int64, fields service.TaskFields) (service.Task, error) {
	body, err := jsonBody(newTaskPayload(fields))
	if err != nil {
		return service.Task{}, err
	}
	var rows []service.Task
	err = c.do(ctx, request{
		method: http.MethodPatch,
		path:   c.tablePath(),
		query:  idFilter(id),
		header: returnRepresentation,
		body:   body,
	}, &rows)
	if err != nil {
		return service.Task{}, err
	}
	if len(rows) == 0 {
		return service.Task{}, service.ErrNotFound
	}
	return rows[0], nil
}

// DeleteTask removes a task.
func (c *Client) DeleteTask(ctx context.Context, id int64) error {
	var rows []service.Task
	err := c.do(ctx, request{
		method: http.MethodDelete,
		path:   c.tablePath(),
		query:  idFilter(id),
		header: returnRepresentation,
	}, &rows)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return service.ErrNotFound
	}
	return nil
}
