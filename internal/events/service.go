package events

import (
	"context"
	"errors"
	"io"
	"log"
	"time"

	"taskboard/internal/service"
)

// Service publishes an event after each successful mutation or upload of
// the wrapped service. Publish failures are logged; the mutation already
// succeeded and is not reported as failed.
type Service struct {
	service.Service

	pub Publisher
	log *log.Logger
	now func() time.Time
}

// Wrap returns svc unchanged when pub is Nop.
func Wrap(svc service.Service, pub Publisher, logger *log.Logger) service.Service {
	if _, ok := pub.(Nop); ok {
		return svc
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{Service: svc, pub: pub, log: logger, now: time.Now}
}

func (s *Service) InsertTask(ctx context.Context, fields service.TaskFields) (service.Task, error) {
	t, err := s.Service.InsertTask(ctx, fields)
	if err == nil {
		s.publish(ctx, Event{Action: ActionCreated, TaskID: t.ID, Title: t.Title})
	}
	return t, err
}

func (s *Service) UpdateTask(ctx context.Context, id int64, fields service.TaskFields) (service.Task, error) {
	t, err := s.Service.UpdateTask(ctx, id, fields)
	if err == nil {
		s.publish(ctx, Event{Action: ActionUpdated, TaskID: id, Title: t.Title})
	}
	return t, err
}

func (s *Service) DeleteTask(ctx context.Context, id int64) error {
	err := s.Service.DeleteTask(ctx, id)
	if err == nil {
		s.publish(ctx, Event{Action: ActionDeleted, TaskID: id})
	}
	return err
}

func (s *Service) UploadObject(ctx context.Context, path string, r io.Reader, contentType string) error {
	err := s.Service.UploadObject(ctx, path, r, contentType)
	if err == nil {
		s.publish(ctx, Event{Action: ActionUploaded, Path: path})
	}
	return err
}

func (s *Service) publish(ctx context.Context, ev Event) {
	ev.At = s.now().UTC()
	if err := s.pub.Publish(ctx, ev); err != nil {
		s.log.Printf("publish %s event: %v", ev.Action, err)
	}
}

// Close closes the publisher and then the wrapped service, if it holds
// resources.
func (s *Service) Close() error {
	err := s.pub.Close()
	if c, ok := s.Service.(io.Closer); ok {
		err = errors.Join(err, c.Close())
	}
	return err
}
