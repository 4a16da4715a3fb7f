package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"reyes/internal/amqp"
	"reyes/internal/sheets"
	"reyes/internal/storage"
)

// SyncWorker mirrors project records from SQLite to the spreadsheet.
// It consumes AMQP messages for the fast path and sweeps the pending
// queue as a backup for lost messages.
type SyncWorker struct {
	storage   *storage.SQLiteRepository
	mirror    sheets.ProjectMirror
	batchSize int
}

func NewSyncWorker(repo *storage.SQLiteRepository, mirror sheets.ProjectMirror, batchSize int) *SyncWorker {
	return &SyncWorker{
		storage:   repo,
		mirror:    mirror,
		batchSize: batchSize,
	}
}

// HandleSyncMessage processes a single project sync message from AMQP.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.ProjectMessage) error {
	slog.InfoContext(ctx, "Processing sync message",
		"project_id", msg.ID,
		"version", msg.Version)

	return w.syncProject(ctx, msg.ID)
}

// HandleDeleteMessage processes a single project delete message from AMQP.
func (w *SyncWorker) HandleDeleteMessage(ctx context.Context, msg *amqp.ProjectMessage) error {
	slog.InfoContext(ctx, "Processing delete message", "project_id", msg.ID)

	if err := w.mirror.DeleteProject(ctx, msg.ID); err != nil {
		return fmt.Errorf("delete project from mirror: %w", err)
	}

	slog.InfoContext(ctx, "Project removed from mirror", "project_id", msg.ID)
	return nil
}

// ProcessPending sweeps projects that never made it to the mirror.
// This is the backup mechanism for lost AMQP messages.
func (w *SyncWorker) ProcessPending(ctx context.Context) error {
	pending, err := w.storage.GetPendingSync(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending projects: %w", err)
	}

	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending projects", "count", len(pending))

	for _, p := range pending {
		if err := w.syncProject(ctx, p.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to sync pending project",
				"project_id", p.ID, "error", err)
		}
	}

	return nil
}

// StartupSyncCheck drains the pending queue once at worker startup,
// recovering from missed messages or worker downtime.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	pending, err := w.storage.GetPendingSync(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("get pending projects for startup check: %w", err)
	}

	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending projects found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending projects on startup, processing",
		"count", len(pending))

	synced := 0
	failed := 0
	for _, p := range pending {
		if err := w.syncProject(ctx, p.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to sync project during startup",
				"project_id", p.ID, "error", err)
			failed++
			continue
		}
		synced++
	}

	slog.InfoContext(ctx, "Startup sync completed",
		"total", len(pending),
		"synced", synced,
		"errors", failed)

	return nil
}

func (w *SyncWorker) syncProject(ctx context.Context, id int64) error {
	project, err := w.storage.GetProject(ctx, id)
	if err != nil {
		// A record deleted between message and processing is not an
		// error worth requeueing forever.
		if errors.Is(err, storage.ErrNotFound) {
			slog.WarnContext(ctx, "Project vanished before sync, skipping", "project_id", id)
			return nil
		}
		if markErr := w.storage.MarkSyncError(ctx, id); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "project_id", id, "error", markErr)
		}
		return fmt.Errorf("get project from storage: %w", err)
	}

	ref, err := w.mirror.UpsertProject(ctx, project)
	if err != nil {
		if markErr := w.storage.MarkSyncError(ctx, id); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "project_id", id, "error", markErr)
		}
		return fmt.Errorf("upsert project in mirror: %w", err)
	}

	if err := w.storage.MarkSynced(ctx, id); err != nil {
		// The mirror write worked, do not fail the message over bookkeeping.
		slog.ErrorContext(ctx, "Failed to mark as synced", "project_id", id, "error", err)
	}

	slog.InfoContext(ctx, "Project mirrored",
		"project_id", id,
		"sheets_ref", ref,
		"cliente", project.Client)

	return nil
}
