package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"

	"github.com/corpusarch/carch/internal/corpus"
	"github.com/corpusarch/carch/internal/errs"
	"github.com/corpusarch/carch/internal/models"
)

// SQLiteStore implements Store on a local SQLite database.
type SQLiteStore struct {
	db     *sqlx.DB
	logger *logrus.Logger
}

// NewSQLiteStore opens (and if needed initializes) the survey store at path.
func NewSQLiteStore(path string, logger *logrus.Logger) (*SQLiteStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}

	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("connect to sqlite: %w", err)
	}

	for _, pragma := range []string{"PRAGMA foreign_keys = ON", "PRAGMA journal_mode = WAL"} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %s: %w", pragma, err)
		}
	}

	store := &SQLiteStore{db: db, logger: logger}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS survey_runs (
		id TEXT PRIMARY KEY,
		repository TEXT NOT NULL,
		folder TEXT,
		suffix TEXT,
		commit_count INTEGER NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS versions (
		run_id TEXT NOT NULL,
		sha TEXT NOT NULL,
		running_number INTEGER NOT NULL,
		date_from DATETIME NOT NULL,
		date_until DATETIME,
		author TEXT,
		message TEXT,
		document_count INTEGER NOT NULL,
		size_sum INTEGER NOT NULL,
		non_document_count INTEGER NOT NULL,
		added_count INTEGER NOT NULL,
		removed_count INTEGER NOT NULL,
		modified_count INTEGER NOT NULL,
		renamed_count INTEGER NOT NULL,
		unchanged_count INTEGER NOT NULL,
		PRIMARY KEY (run_id, sha),
		FOREIGN KEY (run_id) REFERENCES survey_runs(id)
	);

	CREATE TABLE IF NOT EXISTS documents (
		run_id TEXT NOT NULL,
		sha TEXT NOT NULL,
		name TEXT NOT NULL,
		size INTEGER NOT NULL,
		content_id TEXT NOT NULL,
		PRIMARY KEY (run_id, sha, name),
		FOREIGN KEY (run_id) REFERENCES survey_runs(id)
	);

	CREATE TABLE IF NOT EXISTS changes (
		run_id TEXT NOT NULL,
		from_sha TEXT NOT NULL,
		to_sha TEXT NOT NULL,
		class TEXT NOT NULL,
		name TEXT NOT NULL,
		renamed_to TEXT,
		FOREIGN KEY (run_id) REFERENCES survey_runs(id)
	);

	CREATE INDEX IF NOT EXISTS idx_versions_run ON versions(run_id, running_number);
	CREATE INDEX IF NOT EXISTS idx_documents_name ON documents(run_id, name);
	CREATE INDEX IF NOT EXISTS idx_changes_run ON changes(run_id, to_sha);
	`
	_, err := s.db.Exec(schema)
	return err
}

// SaveRun implements Store. The whole run is written in one transaction so a
// partial walk can never be mistaken for a complete one.
func (s *SQLiteStore) SaveRun(ctx context.Context, run models.SurveyRun, snapshots []models.Snapshot, timeline *corpus.Timeline) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return errs.Storage(err, "begin transaction")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO survey_runs (id, repository, folder, suffix, commit_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.Repository, run.Folder, run.Suffix, run.CommitCount, run.CreatedAt,
	); err != nil {
		return errs.Storage(err, "insert survey run")
	}

	for _, v := range timeline.Versions {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO versions (run_id, sha, running_number, date_from, date_until,
				author, message, document_count, size_sum, non_document_count,
				added_count, removed_count, modified_count, renamed_count, unchanged_count)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID, v.SHA, v.RunningNumber, v.DateFrom, v.DateUntil,
			v.Author, v.Message, v.DocumentCount, v.SizeSum, v.NonDocumentCount,
			v.AddedCount, v.RemovedCount, v.ModifiedCount, v.RenamedCount, v.UnchangedCount,
		); err != nil {
			return errs.Storage(err, "insert version")
		}
	}

	for _, snap := range snapshots {
		for name, doc := range snap.Docs {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO documents (run_id, sha, name, size, content_id)
				VALUES (?, ?, ?, ?, ?)`,
				run.ID, snap.CommitSHA, name, doc.Size, doc.ContentID,
			); err != nil {
				return errs.Storage(err, "insert document")
			}
		}
	}

	for _, change := range timeline.Changes {
		if err := s.insertChange(ctx, tx, run.ID, change); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return errs.Storage(err, "commit transaction")
	}
	return nil
}

func (s *SQLiteStore) insertChange(ctx context.Context, tx *sqlx.Tx, runID string, change models.ChangeRecord) error {
	insert := func(class, name string, renamedTo *string) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO changes (run_id, from_sha, to_sha, class, name, renamed_to)
			VALUES (?, ?, ?, ?, ?, ?)`,
			runID, change.FromSHA, change.ToSHA, class, name, renamedTo)
		if err != nil {
			return errs.Storage(err, "insert change")
		}
		return nil
	}
	for _, name := range change.Added {
		if err := insert("added", name, nil); err != nil {
			return err
		}
	}
	for _, name := range change.Removed {
		if err := insert("removed", name, nil); err != nil {
			return err
		}
	}
	for _, name := range change.Modified {
		if err := insert("modified", name, nil); err != nil {
			return err
		}
	}
	for _, pair := range change.Renamed {
		to := pair.To
		if err := insert("renamed", pair.From, &to); err != nil {
			return err
		}
	}
	return nil
}

// GetRun implements Store.
func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*models.SurveyRun, error) {
	var run models.SurveyRun
	err := s.db.GetContext(ctx, &run, `
		SELECT id, repository, folder, suffix, commit_count, created_at
		FROM survey_runs WHERE id = ?`, runID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errs.Storage(err, "select survey run")
	}
	return &run, nil
}

// LatestRun implements Store.
func (s *SQLiteStore) LatestRun(ctx context.Context, repository string) (*models.SurveyRun, error) {
	var (
		run models.SurveyRun
		err error
	)
	if repository == "" {
		err = s.db.GetContext(ctx, &run, `
			SELECT id, repository, folder, suffix, commit_count, created_at
			FROM survey_runs ORDER BY created_at DESC LIMIT 1`)
	} else {
		err = s.db.GetContext(ctx, &run, `
			SELECT id, repository, folder, suffix, commit_count, created_at
			FROM survey_runs WHERE repository = ? ORDER BY created_at DESC LIMIT 1`, repository)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errs.Storage(err, "select latest run")
	}
	return &run, nil
}

// ListVersions implements Store.
func (s *SQLiteStore) ListVersions(ctx context.Context, runID string, since, until time.Time) ([]models.Version, error) {
	query := `
		SELECT sha, running_number, date_from, date_until, author, message,
			document_count, size_sum, non_document_count,
			added_count, removed_count, modified_count, renamed_count, unchanged_count
		FROM versions WHERE run_id = ?`
	args := []any{runID}
	if !since.IsZero() {
		query += " AND date_from >= ?"
		args = append(args, since)
	}
	if !until.IsZero() {
		query += " AND date_from <= ?"
		args = append(args, until)
	}
	query += " ORDER BY running_number"

	var versions []models.Version
	if err := s.db.SelectContext(ctx, &versions, query, args...); err != nil {
		return nil, errs.Storage(err, "select versions")
	}
	return versions, nil
}

// GetSnapshot implements Store.
func (s *SQLiteStore) GetSnapshot(ctx context.Context, runID, sha string) (models.Snapshot, error) {
	var dateFrom time.Time
	err := s.db.GetContext(ctx, &dateFrom, `
		SELECT date_from FROM versions WHERE run_id = ? AND sha = ?`, runID, sha)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Snapshot{}, ErrNotFound
	}
	if err != nil {
		return models.Snapshot{}, errs.Storage(err, "select version date")
	}

	rows, err := s.db.QueryxContext(ctx, `
		SELECT name, size, content_id FROM documents
		WHERE run_id = ? AND sha = ?`, runID, sha)
	if err != nil {
		return models.Snapshot{}, errs.Storage(err, "select documents")
	}
	defer rows.Close()

	snap := models.Snapshot{
		CommitSHA: sha,
		Timestamp: dateFrom,
		Docs:      make(map[string]models.Document),
	}
	for rows.Next() {
		var (
			name      string
			size      int64
			contentID string
		)
		if err := rows.Scan(&name, &size, &contentID); err != nil {
			return models.Snapshot{}, errs.Storage(err, "scan document")
		}
		snap.Docs[name] = models.Document{Size: size, ContentID: contentID}
	}
	if err := rows.Err(); err != nil {
		return models.Snapshot{}, errs.Storage(err, "iterate documents")
	}
	return snap, nil
}

// ListChanges implements Store.
func (s *SQLiteStore) ListChanges(ctx context.Context, runID string) ([]models.ChangeRecord, error) {
	rows, err := s.db.QueryxContext(ctx, `
		SELECT c.from_sha, c.to_sha, c.class, c.name, c.renamed_to
		FROM changes c
		JOIN versions v ON v.run_id = c.run_id AND v.sha = c.to_sha
		WHERE c.run_id = ?
		ORDER BY v.running_number, c.class, c.name`, runID)
	if err != nil {
		return nil, errs.Storage(err, "select changes")
	}
	defer rows.Close()

	var (
		records []models.ChangeRecord
		current *models.ChangeRecord
	)
	for rows.Next() {
		var (
			fromSHA, toSHA, class, name string
			renamedTo                   *string
		)
		if err := rows.Scan(&fromSHA, &toSHA, &class, &name, &renamedTo); err != nil {
			return nil, errs.Storage(err, "scan change")
		}
		if current == nil || current.FromSHA != fromSHA || current.ToSHA != toSHA {
			records = append(records, models.ChangeRecord{FromSHA: fromSHA, ToSHA: toSHA})
			current = &records[len(records)-1]
		}
		switch class {
		case "added":
			current.Added = append(current.Added, name)
		case "removed":
			current.Removed = append(current.Removed, name)
		case "modified":
			current.Modified = append(current.Modified, name)
		case "renamed":
			pair := models.RenamePair{From: name}
			if renamedTo != nil {
				pair.To = *renamedTo
			}
			current.Renamed = append(current.Renamed, pair)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Storage(err, "iterate changes")
	}
	return records, nil
}

// DocumentHistory implements Store.
func (s *SQLiteStore) DocumentHistory(ctx context.Context, runID, name string) ([]DocumentSample, error) {
	var samples []DocumentSample
	err := s.db.SelectContext(ctx, &samples, `
		SELECT v.sha, v.running_number, v.date_from, d.size
		FROM versions v
		LEFT JOIN documents d
			ON d.run_id = v.run_id AND d.sha = v.sha AND d.name = ?
		WHERE v.run_id = ?
		ORDER BY v.running_number`, name, runID)
	if err != nil {
		return nil, errs.Storage(err, "select document history")
	}
	return samples, nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
