package store

import (
	"context"
	"errors"

	"reyes/internal/core"
)

// ErrNotFound is returned when a project id does not exist.
var ErrNotFound = errors.New("project not found")

// RecordStore is the port the HTTP layer talks to. Both the SQLite
// adapter and the in-memory store implement it.
type RecordStore interface {
	// ListProjects returns every record ordered by id ascending.
	ListProjects(ctx context.Context) ([]core.Project, error)

	// GetProject retrieves a single record by id.
	GetProject(ctx context.Context, id int64) (core.Project, error)

	// CreateProject stores a new record and returns it with its assigned id.
	CreateProject(ctx context.Context, p core.Project) (core.Project, error)

	// UpdateProject overwrites an existing record.
	UpdateProject(ctx context.Context, p core.Project) error

	// DeleteProject removes a record by id.
	DeleteProject(ctx context.Context, id int64) error
}
