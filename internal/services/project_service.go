package services

import (
	"context"
	"fmt"
	"log/slog"

	"reyes/internal/core"
)

// Store is the slice of the SQLite repository the service needs.
type Store interface {
	InsertProject(ctx context.Context, p core.Project) (core.Project, error)
	UpdateProject(ctx context.Context, p core.Project) (version int64, err error)
	DeleteProject(ctx context.Context, id int64) error
	Close() error
}

// Publisher pushes sync messages for the spreadsheet mirror.
type Publisher interface {
	PublishProjectSync(ctx context.Context, id, version int64) error
	PublishProjectDelete(ctx context.Context, id int64) error
	Close() error
}

// ProjectService orchestrates project writes across SQLite and AMQP.
// Publishing is best effort: a write never fails because the broker is
// down, the record is already safe locally.
type ProjectService struct {
	storage   Store
	publisher Publisher
}

func NewProjectService(storage Store, publisher Publisher) *ProjectService {
	return &ProjectService{
		storage:   storage,
		publisher: publisher,
	}
}

// CreateProject validates and saves a record, then queues a mirror write.
func (s *ProjectService) CreateProject(ctx context.Context, p core.Project) (core.Project, error) {
	if err := p.Validate(); err != nil {
		return core.Project{}, err
	}

	created, err := s.storage.InsertProject(ctx, p)
	if err != nil {
		return core.Project{}, fmt.Errorf("save project: %w", err)
	}

	if err := s.publishSync(ctx, created.ID, 1); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message",
			"project_id", created.ID, "error", err)
	}

	return created, nil
}

// UpdateProject validates and overwrites a record, then queues a mirror write.
func (s *ProjectService) UpdateProject(ctx context.Context, p core.Project) error {
	if err := p.Validate(); err != nil {
		return err
	}

	version, err := s.storage.UpdateProject(ctx, p)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}

	if err := s.publishSync(ctx, p.ID, version); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message",
			"project_id", p.ID, "error", err)
	}

	return nil
}

// DeleteProject removes a record locally and queues a mirror delete.
func (s *ProjectService) DeleteProject(ctx context.Context, id int64) error {
	if err := s.storage.DeleteProject(ctx, id); err != nil {
		return fmt.Errorf("delete project: %w", err)
	}

	if err := s.publishDelete(ctx, id); err != nil {
		slog.ErrorContext(ctx, "Failed to publish delete message",
			"project_id", id, "error", err)
	}

	return nil
}

func (s *ProjectService) publishSync(ctx context.Context, id, version int64) error {
	if s.publisher == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping sync message")
		return nil
	}
	return s.publisher.PublishProjectSync(ctx, id, version)
}

func (s *ProjectService) publishDelete(ctx context.Context, id int64) error {
	if s.publisher == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping delete message")
		return nil
	}
	return s.publisher.PublishProjectDelete(ctx, id)
}

// Close closes both storage and AMQP connections.
func (s *ProjectService) Close() error {
	var errs []error

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close project service: %v", errs)
	}

	return nil
}
