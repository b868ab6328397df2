// Package storage persists survey runs so re-analysis needs no re-download.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/corpusarch/carch/internal/corpus"
	"github.com/corpusarch/carch/internal/models"
)

// ErrNotFound is returned when a run, version or snapshot does not exist.
var ErrNotFound = errors.New("not found")

// DocumentSample is one point of a single document's size series. Size is
// nil for versions in which the document does not exist.
type DocumentSample struct {
	SHA           string    `db:"sha"`
	RunningNumber int       `db:"running_number"`
	DateFrom      time.Time `db:"date_from"`
	Size          *int64    `db:"size"`
}

// Store is the survey store contract.
type Store interface {
	// SaveRun persists one completed survey run with its snapshots and
	// timeline.
	SaveRun(ctx context.Context, run models.SurveyRun, snapshots []models.Snapshot, timeline *corpus.Timeline) error

	// GetRun returns a run by id.
	GetRun(ctx context.Context, runID string) (*models.SurveyRun, error)

	// LatestRun returns the most recent run for a repository, or the most
	// recent run overall when repository is empty.
	LatestRun(ctx context.Context, repository string) (*models.SurveyRun, error)

	// ListVersions returns a run's versions in chronological order,
	// optionally bounded by a date_from range. Zero times mean unbounded.
	ListVersions(ctx context.Context, runID string, since, until time.Time) ([]models.Version, error)

	// GetSnapshot reconstructs one stored snapshot.
	GetSnapshot(ctx context.Context, runID, sha string) (models.Snapshot, error)

	// ListChanges returns the stored change records in chronological order.
	ListChanges(ctx context.Context, runID string) ([]models.ChangeRecord, error)

	// DocumentHistory returns one document's size across all versions of a
	// run, with nil sizes where the document is absent.
	DocumentHistory(ctx context.Context, runID, name string) ([]DocumentSample, error)

	Close() error
}
