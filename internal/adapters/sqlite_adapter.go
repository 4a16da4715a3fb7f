package adapters

import (
	"context"
	"errors"

	"reyes/internal/core"
	"reyes/internal/services"
	"reyes/internal/storage"
	"reyes/internal/store"
)

// SQLiteAdapter implements store.RecordStore on top of the SQLite
// repository for reads and the project service for writes, so every
// mutation flows through the sync queue.
type SQLiteAdapter struct {
	storage *storage.SQLiteRepository
	service *services.ProjectService
}

func NewSQLiteAdapter(repo *storage.SQLiteRepository, service *services.ProjectService) *SQLiteAdapter {
	return &SQLiteAdapter{
		storage: repo,
		service: service,
	}
}

// ListProjects implements store.RecordStore.
func (a *SQLiteAdapter) ListProjects(ctx context.Context) ([]core.Project, error) {
	return a.storage.ListProjects(ctx)
}

// GetProject implements store.RecordStore.
func (a *SQLiteAdapter) GetProject(ctx context.Context, id int64) (core.Project, error) {
	p, err := a.storage.GetProject(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return core.Project{}, store.ErrNotFound
	}
	return p, err
}

// CreateProject implements store.RecordStore.
func (a *SQLiteAdapter) CreateProject(ctx context.Context, p core.Project) (core.Project, error) {
	return a.service.CreateProject(ctx, p)
}

// UpdateProject implements store.RecordStore.
func (a *SQLiteAdapter) UpdateProject(ctx context.Context, p core.Project) error {
	err := a.service.UpdateProject(ctx, p)
	if errors.Is(err, storage.ErrNotFound) {
		return store.ErrNotFound
	}
	return err
}

// DeleteProject implements store.RecordStore.
func (a *SQLiteAdapter) DeleteProject(ctx context.Context, id int64) error {
	err := a.service.DeleteProject(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return store.ErrNotFound
	}
	return err
}
