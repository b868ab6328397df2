package corpus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/corpusarch/carch/internal/models"
)

func snap(sha string, ts time.Time, docs map[string]models.Document) models.Snapshot {
	if docs == nil {
		docs = map[string]models.Document{}
	}
	return models.Snapshot{CommitSHA: sha, Timestamp: ts, Docs: docs}
}

func TestDiff_IdenticalSnapshots(t *testing.T) {
	ts := time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC)
	docs := map[string]models.Document{
		"ger000086": {Size: 1000, ContentID: "b1"},
		"ger000100": {Size: 2000, ContentID: "b2"},
	}

	record := Diff(snap("aaa", ts, docs), snap("aaa", ts, docs))

	assert.Empty(t, record.Added)
	assert.Empty(t, record.Removed)
	assert.Empty(t, record.Modified)
	assert.Empty(t, record.Renamed)
	assert.Equal(t, []string{"ger000086", "ger000100"}, record.Unchanged)
}

func TestDiff_AddRemoveModify(t *testing.T) {
	t1 := time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC)
	t2 := t1.AddDate(0, 1, 0)
	earlier := snap("aaa", t1, map[string]models.Document{
		"ger000086": {Size: 1000, ContentID: "b1"},
		"ger000100": {Size: 2000, ContentID: "b2"},
	})
	later := snap("bbb", t2, map[string]models.Document{
		"ger000086": {Size: 1200, ContentID: "b1a"},
		"ger000101": {Size: 2000, ContentID: "b3"},
	})

	record := Diff(earlier, later)

	assert.Equal(t, []string{"ger000101"}, record.Added)
	assert.Equal(t, []string{"ger000100"}, record.Removed)
	assert.Equal(t, []string{"ger000086"}, record.Modified)
	assert.Empty(t, record.Unchanged)
	assert.Empty(t, record.Renamed)
}

func TestDiff_RenameViaSharedContentID(t *testing.T) {
	t1 := time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC)
	t2 := t1.AddDate(0, 1, 0)
	earlier := snap("aaa", t1, map[string]models.Document{
		"ger000086": {Size: 1000, ContentID: "b1"},
		"ger000100": {Size: 2000, ContentID: "shared"},
	})
	later := snap("bbb", t2, map[string]models.Document{
		"ger000086": {Size: 1200, ContentID: "b1a"},
		"ger000101": {Size: 2000, ContentID: "shared"},
	})

	record := Diff(earlier, later)

	assert.Empty(t, record.Added)
	assert.Empty(t, record.Removed)
	assert.Equal(t, []string{"ger000086"}, record.Modified)
	assert.Empty(t, record.Unchanged)
	assert.Equal(t, []models.RenamePair{{From: "ger000100", To: "ger000101"}}, record.Renamed)
}

func TestDiff_AmbiguousContentIDIsNotARename(t *testing.T) {
	// Two removed candidates share one content id (near-empty files do
	// this); pairing either with the added candidate would be a guess.
	t1 := time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC)
	t2 := t1.AddDate(0, 1, 0)
	earlier := snap("aaa", t1, map[string]models.Document{
		"ger000001": {Size: 10, ContentID: "empty"},
		"ger000002": {Size: 10, ContentID: "empty"},
	})
	later := snap("bbb", t2, map[string]models.Document{
		"ger000003": {Size: 10, ContentID: "empty"},
	})

	record := Diff(earlier, later)

	assert.Empty(t, record.Renamed)
	assert.Equal(t, []string{"ger000003"}, record.Added)
	assert.Equal(t, []string{"ger000001", "ger000002"}, record.Removed)
}

func TestDiff_Antisymmetry(t *testing.T) {
	t1 := time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC)
	t2 := t1.AddDate(0, 1, 0)
	earlier := snap("aaa", t1, map[string]models.Document{
		"ger000086": {Size: 1000, ContentID: "b1"},
		"ger000100": {Size: 2000, ContentID: "b2"},
	})
	later := snap("bbb", t2, map[string]models.Document{
		"ger000086": {Size: 1000, ContentID: "b1"},
		"ger000101": {Size: 3000, ContentID: "b3"},
	})

	forward := Diff(earlier, later)
	backward := Diff(later, earlier)

	assert.Equal(t, forward.Added, backward.Removed)
	assert.Equal(t, forward.Removed, backward.Added)
	assert.Equal(t, forward.Modified, backward.Modified)
	assert.Equal(t, forward.Unchanged, backward.Unchanged)
}

func TestDiff_FromEmptySnapshot(t *testing.T) {
	// The data folder convention did not exist yet at the earlier commit:
	// everything in the later snapshot counts as added.
	t1 := time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC)
	t2 := time.Date(2016, 1, 1, 0, 0, 0, 0, time.UTC)
	earlier := snap("aaa", t1, nil)
	later := snap("bbb", t2, map[string]models.Document{
		"ger000086": {Size: 1000, ContentID: "b1"},
		"ger000100": {Size: 2000, ContentID: "b2"},
	})

	record := Diff(earlier, later)

	assert.Equal(t, []string{"ger000086", "ger000100"}, record.Added)
	assert.Empty(t, record.Removed)
	assert.Empty(t, record.Modified)
	assert.Empty(t, record.Unchanged)
	assert.Empty(t, record.Renamed)
}

func TestDiff_PartitionCoversBothSnapshots(t *testing.T) {
	t1 := time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC)
	t2 := t1.AddDate(0, 1, 0)
	earlier := snap("aaa", t1, map[string]models.Document{
		"a": {Size: 1, ContentID: "c1"},
		"b": {Size: 2, ContentID: "c2"},
		"c": {Size: 3, ContentID: "c3"},
	})
	later := snap("bbb", t2, map[string]models.Document{
		"b": {Size: 2, ContentID: "c2"},
		"c": {Size: 4, ContentID: "c3a"},
		"d": {Size: 5, ContentID: "c4"},
	})

	record := Diff(earlier, later)

	seen := map[string]int{}
	for _, name := range record.Added {
		seen[name]++
	}
	for _, name := range record.Removed {
		seen[name]++
	}
	for _, name := range record.Modified {
		seen[name]++
	}
	for _, name := range record.Unchanged {
		seen[name]++
	}
	for _, name := range []string{"a", "b", "c", "d"} {
		assert.Equal(t, 1, seen[name], "document %s must appear in exactly one set", name)
	}
	assert.Equal(t, 3, record.AffectedCount())
}
