package corpus

import (
	"strings"

	"github.com/corpusarch/carch/internal/errs"
	"github.com/corpusarch/carch/internal/models"
)

// BuildSnapshot turns one commit's resolved data folder listing into a
// snapshot. Document identifiers are file names with the suffix stripped;
// files without the suffix are counted but not treated as documents. Two
// entries yielding the same identifier violate the upstream data contract
// and fail loudly rather than silently overwriting.
//
// An absent listing produces a valid empty snapshot: the commit predates the
// corpus convention.
func BuildSnapshot(commit models.CommitRecord, listing Listing, suffix string) (models.Snapshot, error) {
	snap := models.Snapshot{
		CommitSHA: commit.SHA,
		Timestamp: commit.Timestamp,
		Docs:      make(map[string]models.Document),
	}
	if !listing.Present {
		return snap, nil
	}

	for _, entry := range listing.Entries {
		if suffix != "" && !strings.HasSuffix(entry.Name, suffix) {
			snap.NonDocumentCount++
			continue
		}
		name := strings.TrimSuffix(entry.Name, suffix)
		if _, exists := snap.Docs[name]; exists {
			return models.Snapshot{}, errs.DuplicateDocumentf(
				"duplicate document identifier %q at commit %s", name, commit.SHA)
		}
		snap.Docs[name] = models.Document{
			Size:      entry.Size,
			ContentID: entry.ContentID,
		}
	}
	return snap, nil
}
