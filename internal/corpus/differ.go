package corpus

import (
	"sort"

	"github.com/corpusarch/carch/internal/models"
)

// Diff computes the change record between two chronologically ordered
// snapshots. The caller must pass the earlier snapshot first; swapping the
// arguments exactly swaps the added and removed sets.
//
// An (earlier-only, later-only) identifier pair sharing a content id is a
// rename, not a delete plus an add - but only when that content id belongs
// to exactly one candidate on each side. A content id shared by several
// candidates admits no unambiguous pairing, and guessing would misattribute
// document provenance, so such candidates stay classified as added/removed.
func Diff(earlier, later models.Snapshot) models.ChangeRecord {
	record := models.ChangeRecord{
		FromSHA: earlier.CommitSHA,
		ToSHA:   later.CommitSHA,
	}

	var removedCand, addedCand []string
	for name := range earlier.Docs {
		if doc, ok := later.Docs[name]; ok {
			if doc.Size != earlier.Docs[name].Size {
				record.Modified = append(record.Modified, name)
			} else {
				record.Unchanged = append(record.Unchanged, name)
			}
		} else {
			removedCand = append(removedCand, name)
		}
	}
	for name := range later.Docs {
		if _, ok := earlier.Docs[name]; !ok {
			addedCand = append(addedCand, name)
		}
	}

	removedByContent := groupByContent(removedCand, earlier)
	addedByContent := groupByContent(addedCand, later)

	renamedFrom := make(map[string]bool)
	renamedTo := make(map[string]bool)
	for contentID, from := range removedByContent {
		to, ok := addedByContent[contentID]
		if !ok || len(from) != 1 || len(to) != 1 {
			continue
		}
		record.Renamed = append(record.Renamed, models.RenamePair{From: from[0], To: to[0]})
		renamedFrom[from[0]] = true
		renamedTo[to[0]] = true
	}

	for _, name := range removedCand {
		if !renamedFrom[name] {
			record.Removed = append(record.Removed, name)
		}
	}
	for _, name := range addedCand {
		if !renamedTo[name] {
			record.Added = append(record.Added, name)
		}
	}

	sort.Strings(record.Added)
	sort.Strings(record.Removed)
	sort.Strings(record.Modified)
	sort.Strings(record.Unchanged)
	sort.Slice(record.Renamed, func(i, j int) bool {
		return record.Renamed[i].From < record.Renamed[j].From
	})
	return record
}

func groupByContent(names []string, snap models.Snapshot) map[string][]string {
	groups := make(map[string][]string)
	for _, name := range names {
		contentID := snap.Docs[name].ContentID
		groups[contentID] = append(groups[contentID], name)
	}
	return groups
}
