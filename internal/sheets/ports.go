package sheets

import (
	"context"

	"reyes/internal/core"
)

// ProjectMirror is the port the sync worker writes through. The
// spreadsheet copy is a convenience for the owner, never the source of
// truth.
type ProjectMirror interface {
	// UpsertProject writes a project row keyed by id, replacing an
	// existing row for the same id. Returns a human-readable row ref.
	UpsertProject(ctx context.Context, p core.Project) (rowRef string, err error)

	// DeleteProject removes the row for the given id. Unknown ids are
	// not an error, the mirror may simply never have seen the record.
	DeleteProject(ctx context.Context, id int64) error
}
