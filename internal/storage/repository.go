package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"reyes/internal/core"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a project id does not exist.
var ErrNotFound = errors.New("project not found")

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

const projectColumns = "id, cliente, servicio, estado, precio, contacto, estado_pago, fecha_terminado"

// ListProjects returns every record ordered by id ascending.
func (r *SQLiteRepository) ListProjects(ctx context.Context) ([]core.Project, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+projectColumns+" FROM proyectos ORDER BY id ASC")
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []core.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projects: %w", err)
	}

	return projects, nil
}

// GetProject retrieves a single record by id.
func (r *SQLiteRepository) GetProject(ctx context.Context, id int64) (core.Project, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+projectColumns+" FROM proyectos WHERE id = ?", id)

	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Project{}, ErrNotFound
	}
	if err != nil {
		return core.Project{}, fmt.Errorf("get project %d: %w", id, err)
	}
	return p, nil
}

// InsertProject stores a new record and returns it with its assigned id.
func (r *SQLiteRepository) InsertProject(ctx context.Context, p core.Project) (core.Project, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO proyectos (cliente, servicio, estado, precio, contacto, estado_pago, fecha_terminado, sync_status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, 'pending')`,
		p.Client, p.Service, p.Status, nullPrice(p.Price), p.Contact, p.Payment, p.Completed.ISO())
	if err != nil {
		return core.Project{}, fmt.Errorf("insert project: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return core.Project{}, fmt.Errorf("last insert id: %w", err)
	}
	p.ID = id

	slog.InfoContext(ctx, "Project saved",
		"project_id", p.ID,
		"cliente", p.Client,
		"servicio", p.Service)

	return p, nil
}

// UpdateProject overwrites every user-editable field of an existing record
// and returns the bumped version for the sync queue.
func (r *SQLiteRepository) UpdateProject(ctx context.Context, p core.Project) (int64, error) {
	row := r.db.QueryRowContext(ctx,
		`UPDATE proyectos
		 SET cliente = ?, servicio = ?, estado = ?, precio = ?, contacto = ?,
		     estado_pago = ?, fecha_terminado = ?,
		     sync_status = 'pending', version = version + 1,
		     updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?
		 RETURNING version`,
		p.Client, p.Service, p.Status, nullPrice(p.Price), p.Contact, p.Payment,
		p.Completed.ISO(), p.ID)

	var version int64
	if err := row.Scan(&version); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("update project %d: %w", p.ID, err)
	}

	return version, nil
}

// DeleteProject removes a record by id.
func (r *SQLiteRepository) DeleteProject(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM proyectos WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete project %d: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	slog.InfoContext(ctx, "Project deleted", "project_id", id)
	return nil
}

// PendingSyncProject carries the minimal data the sync queue needs.
type PendingSyncProject struct {
	ID        int64
	Version   int64
	CreatedAt time.Time
}

// GetPendingSync returns projects awaiting a mirror write, oldest first.
func (r *SQLiteRepository) GetPendingSync(ctx context.Context, limit int) ([]PendingSyncProject, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, version, created_at FROM proyectos
		 WHERE sync_status = 'pending'
		 ORDER BY created_at ASC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("get pending sync projects: %w", err)
	}
	defer rows.Close()

	var pending []PendingSyncProject
	for rows.Next() {
		var p PendingSyncProject
		if err := rows.Scan(&p.ID, &p.Version, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan pending project: %w", err)
		}
		pending = append(pending, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending projects: %w", err)
	}

	return pending, nil
}

// MarkSynced marks a project as successfully mirrored.
func (r *SQLiteRepository) MarkSynced(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx,
		"UPDATE proyectos SET sync_status = 'synced' WHERE id = ?", id); err != nil {
		return fmt.Errorf("mark project synced: %w", err)
	}

	slog.InfoContext(ctx, "Project marked as synced", "project_id", id)
	return nil
}

// MarkSyncError marks a project as having failed its mirror write.
func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx,
		"UPDATE proyectos SET sync_status = 'error' WHERE id = ?", id); err != nil {
		return fmt.Errorf("mark project sync error: %w", err)
	}

	slog.WarnContext(ctx, "Project marked with sync error", "project_id", id)
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (core.Project, error) {
	var (
		p     core.Project
		price sql.NullInt64
		fecha string
	)
	if err := row.Scan(&p.ID, &p.Client, &p.Service, &p.Status, &price,
		&p.Contact, &p.Payment, &fecha); err != nil {
		return core.Project{}, err
	}

	if price.Valid {
		v := price.Int64
		p.Price = &v
	}

	// A malformed stored date degrades to missing rather than failing
	// the whole listing.
	completed, err := core.ParseDate(fecha)
	if err != nil {
		slog.Warn("Unparseable completion date, treating as missing",
			"project_id", p.ID, "fecha_terminado", fecha)
		completed = core.Date{}
	}
	p.Completed = completed

	return p, nil
}

func nullPrice(price *int64) sql.NullInt64 {
	if price == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *price, Valid: true}
}
