package models

import (
	"fmt"
	"sort"
	"time"
)

// CommitRecord is one commit as returned by the commit-graph API.
// Records are immutable once fetched.
type CommitRecord struct {
	SHA         string    `json:"sha" db:"sha"`
	TreeSHA     string    `json:"tree_sha" db:"tree_sha"`
	Author      string    `json:"author" db:"author"`
	AuthorEmail string    `json:"author_email" db:"author_email"`
	Message     string    `json:"message" db:"message"`
	Timestamp   time.Time `json:"timestamp" db:"timestamp"`
	ParentSHAs  []string  `json:"parent_shas"`
}

// EntryKind distinguishes files from nested subtrees in a tree listing.
type EntryKind string

const (
	EntryKindFile    EntryKind = "file"
	EntryKindSubtree EntryKind = "subtree"
)

// TreeEntry is one immediate child of a git tree object.
// Size is only meaningful for file entries, and only when SizeKnown is set;
// the API omits sizes on some tree listings and they have to be fetched from
// the blob itself.
type TreeEntry struct {
	Name      string    `json:"name"`
	Kind      EntryKind `json:"kind"`
	ContentID string    `json:"content_id"`
	Size      int64     `json:"size"`
	SizeKnown bool      `json:"size_known"`
}

// Document is one corpus document inside a snapshot.
type Document struct {
	Size      int64  `json:"size"`
	ContentID string `json:"content_id"`
}

// Snapshot is the set of documents found under the data folder at one commit.
// It is a value object; nothing mutates it after the builder returns it.
type Snapshot struct {
	CommitSHA string              `json:"commit_sha"`
	Timestamp time.Time           `json:"timestamp"`
	Docs      map[string]Document `json:"docs"`

	// NonDocumentCount is the number of file entries in the data folder that
	// did not carry the document suffix (READMEs, schema files, ...).
	NonDocumentCount int `json:"non_document_count"`
}

// DocumentCount returns the number of documents in the snapshot.
func (s Snapshot) DocumentCount() int { return len(s.Docs) }

// SizeSum returns the summed byte size of all documents in the snapshot.
func (s Snapshot) SizeSum() int64 {
	var sum int64
	for _, d := range s.Docs {
		sum += d.Size
	}
	return sum
}

// Names returns the document identifiers in lexical order.
func (s Snapshot) Names() []string {
	names := make([]string, 0, len(s.Docs))
	for name := range s.Docs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RenamePair records that a document moved to a new identifier between two
// snapshots without its content changing.
type RenamePair struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// ChangeRecord is the diff between two chronologically ordered snapshots.
// Added, Removed, Modified and Unchanged partition the documents of both
// snapshots; Renamed is an annotation whose members are excluded from the
// Added and Removed sets.
type ChangeRecord struct {
	FromSHA   string       `json:"from_sha"`
	ToSHA     string       `json:"to_sha"`
	Added     []string     `json:"added"`
	Removed   []string     `json:"removed"`
	Modified  []string     `json:"modified"`
	Unchanged []string     `json:"unchanged"`
	Renamed   []RenamePair `json:"renamed"`
}

// AffectedCount returns how many documents the transition touched.
func (c ChangeRecord) AffectedCount() int {
	return len(c.Added) + len(c.Removed) + len(c.Modified) + len(c.Renamed)
}

// Version is one corpus version: a commit enriched with snapshot aggregates
// and the change counts relative to the previous version. The first version
// of a run has zero change counts.
type Version struct {
	SHA           string     `json:"sha" db:"sha"`
	RunningNumber int        `json:"running_number" db:"running_number"`
	DateFrom      time.Time  `json:"date_from" db:"date_from"`
	DateUntil     *time.Time `json:"date_until" db:"date_until"`
	Author        string     `json:"author" db:"author"`
	Message       string     `json:"message" db:"message"`

	DocumentCount    int   `json:"document_count" db:"document_count"`
	SizeSum          int64 `json:"document_sizes_sum" db:"size_sum"`
	NonDocumentCount int   `json:"non_document_count" db:"non_document_count"`

	AddedCount     int `json:"documents_added_count" db:"added_count"`
	RemovedCount   int `json:"documents_removed_count" db:"removed_count"`
	ModifiedCount  int `json:"documents_modified_count" db:"modified_count"`
	RenamedCount   int `json:"documents_renamed_count" db:"renamed_count"`
	UnchangedCount int `json:"documents_unchanged_count" db:"unchanged_count"`
}

// AffectedCount returns how many documents changed coming into this version.
func (v Version) AffectedCount() int {
	return v.AddedCount + v.RemovedCount + v.ModifiedCount + v.RenamedCount
}

// SurveyRun identifies one completed walk over a repository's history.
type SurveyRun struct {
	ID          string    `json:"id" db:"id"`
	Repository  string    `json:"repository" db:"repository"`
	Folder      string    `json:"folder" db:"folder"`
	Suffix      string    `json:"suffix" db:"suffix"`
	CommitCount int       `json:"commit_count" db:"commit_count"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// CommitURL returns the web URL of one version's commit, for loading the
// human-readable diff in a browser.
func CommitURL(repository, sha string) string {
	return fmt.Sprintf("https://github.com/%s/commit/%s", repository, sha)
}
