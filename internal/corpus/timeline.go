package corpus

import (
	"github.com/corpusarch/carch/internal/errs"
	"github.com/corpusarch/carch/internal/models"
)

// Timeline is the chronological result of walking one repository's history:
// versions with their aggregates, and the change records between consecutive
// snapshots. Changes[i] leads into Versions[i+1].
type Timeline struct {
	Versions []models.Version
	Changes  []models.ChangeRecord
}

// BuildTimeline turns an ordered commit sequence and its snapshots into
// numbered version records. The caller's list order is authoritative: author
// timestamps are not required to be monotonic, since a pull request merged
// late keeps its original author date and sits between newer-authored commits
// in the history.
func BuildTimeline(commits []models.CommitRecord, snapshots []models.Snapshot) (*Timeline, error) {
	if len(commits) != len(snapshots) {
		return nil, errs.Validationf("commit/snapshot count mismatch: %d vs %d", len(commits), len(snapshots))
	}

	timeline := &Timeline{
		Versions: make([]models.Version, 0, len(commits)),
		Changes:  make([]models.ChangeRecord, 0, max(len(commits)-1, 0)),
	}

	for i, commit := range commits {
		snap := snapshots[i]
		version := models.Version{
			SHA:              commit.SHA,
			RunningNumber:    i + 1,
			DateFrom:         commit.Timestamp,
			Author:           commit.Author,
			Message:          commit.Message,
			DocumentCount:    snap.DocumentCount(),
			SizeSum:          snap.SizeSum(),
			NonDocumentCount: snap.NonDocumentCount,
		}
		if i+1 < len(commits) {
			until := commits[i+1].Timestamp
			version.DateUntil = &until
		}
		if i > 0 {
			change := Diff(snapshots[i-1], snap)
			version.AddedCount = len(change.Added)
			version.RemovedCount = len(change.Removed)
			version.ModifiedCount = len(change.Modified)
			version.RenamedCount = len(change.Renamed)
			version.UnchangedCount = len(change.Unchanged)
			timeline.Changes = append(timeline.Changes, change)
		}
		timeline.Versions = append(timeline.Versions, version)
	}
	return timeline, nil
}
