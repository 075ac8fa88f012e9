// Package tracking implements the durable, single-writer SQLite-backed
// tracking store described in the data model: one row per tracked job,
// idempotent upsert with a per-call conflict policy, and a Queue-shaped
// view over the table for the reconciliation engine to operate on.
package tracking

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/wbeardall/schedtools-go/internal/jobmodel"
)

// EnvDBPath is the environment variable that overrides the default
// tracking database location.
const EnvDBPath = "JOB_TRACKING_DB"

// DefaultPath returns $HOME/.tracking/jobs.db, or the value of EnvDBPath if
// set.
func DefaultPath() (string, error) {
	if p := os.Getenv(EnvDBPath); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve default tracking db path: %w", err)
	}
	return filepath.Join(home, ".tracking", "jobs.db"), nil
}

// Store is the single-writer SQLite-backed tracking table.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the tracking database at path,
// applying schema migrations. A single connection is enforced via
// SetMaxOpenConns(1) to make the single-writer contract explicit.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create tracking db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open tracking db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("init tracking schema: %w", err)
	}

	return &Store{db: db}, nil
}

// OpenDefault opens the store at DefaultPath().
func OpenDefault() (*Store, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return Open(path)
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS jobs (
		id TEXT PRIMARY KEY,
		state TEXT NOT NULL,
		queue TEXT,
		project TEXT,
		jobscript_path TEXT,
		experiment_path TEXT,
		modified_time TEXT NOT NULL
	);
	`
	if _, err := db.Exec(schema); err != nil {
		return err
	}

	// Tolerate databases created before these columns existed, including
	// ones produced by an older schema that never had them at all.
	_, _ = db.Exec(`ALTER TABLE jobs ADD COLUMN comment TEXT`)
	_, _ = db.Exec(`ALTER TABLE jobs ADD COLUMN cluster TEXT`)

	return nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error { return s.db.Close() }

// All returns every tracked row as a JobSpec, in an arbitrary but stable
// (rowid) order.
func (s *Store) All(ctx context.Context) ([]jobmodel.JobSpec, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, state, cluster, queue, project, jobscript_path, experiment_path, comment, modified_time
		FROM jobs ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("query tracked jobs: %w", err)
	}
	defer rows.Close()

	var specs []jobmodel.JobSpec
	for rows.Next() {
		spec, err := scanJobSpec(rows)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, rows.Err()
}

// Get returns the tracked row for id, if any.
func (s *Store) Get(ctx context.Context, id string) (jobmodel.JobSpec, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, state, cluster, queue, project, jobscript_path, experiment_path, comment, modified_time
		FROM jobs WHERE id = ?`, id)
	spec, err := scanJobSpec(row)
	if err == sql.ErrNoRows {
		return jobmodel.JobSpec{}, false, nil
	}
	if err != nil {
		return jobmodel.JobSpec{}, false, err
	}
	return spec, true, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJobSpec(row rowScanner) (jobmodel.JobSpec, error) {
	var (
		id, state                                          string
		cluster, queue, project, jobscriptPath, experiment sql.NullString
		comment, modifiedTime                              sql.NullString
	)
	if err := row.Scan(&id, &state, &cluster, &queue, &project, &jobscriptPath, &experiment, &comment, &modifiedTime); err != nil {
		return jobmodel.JobSpec{}, fmt.Errorf("scan job row: %w", err)
	}

	spec := jobmodel.JobSpec{
		ID:             id,
		State:          jobmodel.State(state),
		Cluster:        jobmodel.Cluster(nullOr(cluster, string(jobmodel.ClusterUnknown))),
		Queue:          nullOr(queue, ""),
		Project:        nullOr(project, ""),
		JobscriptPath:  nullOr(jobscriptPath, ""),
		ExperimentPath: nullOr(experiment, ""),
		Comment:        nullOr(comment, ""),
	}
	spec.Name = filepath.Base(spec.ExperimentPath)
	if modifiedTime.Valid {
		if t, err := jobmodel.ParseDateTime(modifiedTime.String); err == nil {
			spec.ModifiedTime = t
		}
	}
	return spec, nil
}

func nullOr(v sql.NullString, fallback string) string {
	if v.Valid {
		return v.String
	}
	return fallback
}

// Upsert writes jobs to the store per the given conflict policy.
//
//   - update: replace state, cluster, queue, project, jobscript_path,
//     experiment_path, comment, modified_time on an existing row.
//   - skip: leave an existing row untouched.
//   - throw: fail the whole batch if any row already exists.
func (s *Store) Upsert(ctx context.Context, jobs []jobmodel.JobSpec, onConflict jobmodel.OnConflict) error {
	if len(jobs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("upsert: begin transaction: %w", err)
	}
	defer tx.Rollback()

	if onConflict == jobmodel.OnConflictThrow {
		for _, j := range jobs {
			var exists int
			if err := tx.QueryRowContext(ctx, `SELECT 1 FROM jobs WHERE id = ?`, j.ID).Scan(&exists); err == nil {
				return fmt.Errorf("upsert job %q: %w", j.ID, ErrConflict)
			} else if err != sql.ErrNoRows {
				return fmt.Errorf("upsert: check existing row: %w", err)
			}
		}
	}

	var onConflictClause string
	switch onConflict {
	case jobmodel.OnConflictSkip, jobmodel.OnConflictThrow:
		onConflictClause = "ON CONFLICT (id) DO NOTHING"
	default: // update
		onConflictClause = `ON CONFLICT (id) DO UPDATE SET
			state = excluded.state,
			cluster = excluded.cluster,
			queue = excluded.queue,
			project = excluded.project,
			jobscript_path = excluded.jobscript_path,
			experiment_path = excluded.experiment_path,
			comment = excluded.comment,
			modified_time = excluded.modified_time`
	}

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`
		INSERT INTO jobs (id, state, cluster, queue, project, jobscript_path, experiment_path, comment, modified_time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		%s`, onConflictClause))
	if err != nil {
		return fmt.Errorf("upsert: prepare: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, j := range jobs {
		modified := now
		if !j.ModifiedTime.IsZero() {
			modified = j.ModifiedTime.UTC().Format(time.RFC3339)
		}
		if _, err := stmt.ExecContext(ctx, j.ID, string(j.State), string(j.Cluster), j.Queue, j.Project,
			j.JobscriptPath, j.ExperimentPath, j.Comment, modified); err != nil {
			return fmt.Errorf("upsert job %q: %w", j.ID, err)
		}
	}

	return tx.Commit()
}

// UpdateState conditionally writes state/comment and bumps modified_time.
func (s *Store) UpdateState(ctx context.Context, jobID string, state jobmodel.State, comment string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET state = ?, comment = ?, modified_time = ? WHERE id = ?`,
		string(state), comment, time.Now().UTC().Format(time.RFC3339), jobID)
	if err != nil {
		return fmt.Errorf("update state for job %q: %w", jobID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update state for job %q: %w", jobID, err)
	}
	if n == 0 {
		return fmt.Errorf("update state for job %q: %w", jobID, ErrNotFound)
	}
	return nil
}

// Pop removes the row for id from the store.
func (s *Store) Pop(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM jobs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("pop job %q: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("pop job %q: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("pop job %q: %w", id, ErrNotFound)
	}
	return nil
}
