package corpus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corpusarch/carch/internal/errs"
	"github.com/corpusarch/carch/internal/models"
)

func testCommit() models.CommitRecord {
	return models.CommitRecord{
		SHA:       "abc123",
		Timestamp: time.Date(2021, 6, 15, 12, 0, 0, 0, time.UTC),
	}
}

func fileEntry(name string, size int64, contentID string) models.TreeEntry {
	return models.TreeEntry{
		Name:      name,
		Kind:      models.EntryKindFile,
		ContentID: contentID,
		Size:      size,
		SizeKnown: true,
	}
}

func TestBuildSnapshot_RoundTrip(t *testing.T) {
	listing := Listing{Present: true, Entries: []models.TreeEntry{
		fileEntry("ger000086.xml", 1000, "b1"),
		fileEntry("ger000100.xml", 2000, "b2"),
		fileEntry("ger000171.xml", 3000, "b3"),
	}}

	snap, err := BuildSnapshot(testCommit(), listing, ".xml")
	require.NoError(t, err)

	assert.Equal(t, "abc123", snap.CommitSHA)
	assert.Equal(t, len(listing.Entries), snap.DocumentCount())
	assert.Equal(t, int64(6000), snap.SizeSum())
	assert.Equal(t, []string{"ger000086", "ger000100", "ger000171"}, snap.Names())
	assert.Equal(t, models.Document{Size: 2000, ContentID: "b2"}, snap.Docs["ger000100"])
}

func TestBuildSnapshot_NonDocumentsCountedSeparately(t *testing.T) {
	listing := Listing{Present: true, Entries: []models.TreeEntry{
		fileEntry("ger000086.xml", 1000, "b1"),
		fileEntry("README.md", 50, "b2"),
		fileEntry("schema.rng", 70, "b3"),
	}}

	snap, err := BuildSnapshot(testCommit(), listing, ".xml")
	require.NoError(t, err)

	assert.Equal(t, 1, snap.DocumentCount())
	assert.Equal(t, 2, snap.NonDocumentCount)
}

func TestBuildSnapshot_DuplicateIdentifierFails(t *testing.T) {
	// Two entries yielding the same identifier violate the upstream data
	// contract; guessing which one to keep would corrupt the snapshot.
	listing := Listing{Present: true, Entries: []models.TreeEntry{
		fileEntry("ger000086.xml", 1000, "b1"),
		fileEntry("ger000086.xml", 1200, "b2"),
	}}

	_, err := BuildSnapshot(testCommit(), listing, ".xml")
	require.Error(t, err)
	assert.True(t, errs.IsDuplicate(err))
}

func TestBuildSnapshot_AbsentFolderIsEmptyAndValid(t *testing.T) {
	snap, err := BuildSnapshot(testCommit(), AbsentListing(), ".xml")
	require.NoError(t, err)

	assert.Equal(t, 0, snap.DocumentCount())
	assert.Equal(t, int64(0), snap.SizeSum())
	assert.Equal(t, "abc123", snap.CommitSHA)
}

func TestBuildSnapshot_EmptySuffixKeepsEveryFile(t *testing.T) {
	listing := Listing{Present: true, Entries: []models.TreeEntry{
		fileEntry("play-one", 10, "b1"),
		fileEntry("play-two.txt", 20, "b2"),
	}}

	snap, err := BuildSnapshot(testCommit(), listing, "")
	require.NoError(t, err)

	assert.Equal(t, 2, snap.DocumentCount())
	assert.Equal(t, 0, snap.NonDocumentCount)
}
