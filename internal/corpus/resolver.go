// Package corpus implements the snapshot reconstruction core: resolving a
// commit's data folder, building document snapshots, and diffing consecutive
// snapshots into change records.
package corpus

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/corpusarch/carch/internal/models"
)

// TreeSource reads tree and blob objects of one repository.
type TreeSource interface {
	GetTree(ctx context.Context, treeSHA string) ([]models.TreeEntry, error)
	GetBlobSize(ctx context.Context, blobSHA string) (int64, error)
}

// Listing is the outcome of resolving a data folder at one commit. An absent
// folder is a valid historical state, not an error; Present forces callers
// to handle it.
type Listing struct {
	Present bool
	Entries []models.TreeEntry
}

// AbsentListing returns the listing for a commit where the folder does not
// exist yet.
func AbsentListing() Listing { return Listing{} }

// Resolver walks tree objects down to a repository's data folder.
type Resolver struct {
	src    TreeSource
	logger *logrus.Logger
}

// NewResolver creates a resolver over one repository's trees.
func NewResolver(src TreeSource, logger *logrus.Logger) *Resolver {
	return &Resolver{src: src, logger: logger}
}

// Resolve walks from the commit's root tree down the slash-delimited folder
// path, one tree level per segment, and returns the file entries directly
// under the final segment. Subfolders of the target are not descended.
// Entries whose size the tree listing omitted are completed from blob
// metadata.
func (r *Resolver) Resolve(ctx context.Context, rootTreeSHA, folder string) (Listing, error) {
	current := rootTreeSHA
	for _, segment := range strings.Split(strings.Trim(folder, "/"), "/") {
		entries, err := r.src.GetTree(ctx, current)
		if err != nil {
			return Listing{}, err
		}
		next, found := findSubtree(entries, segment)
		if !found {
			return AbsentListing(), nil
		}
		current = next
	}

	entries, err := r.src.GetTree(ctx, current)
	if err != nil {
		return Listing{}, err
	}

	files := make([]models.TreeEntry, 0, len(entries))
	for _, entry := range entries {
		if entry.Kind != models.EntryKindFile {
			continue
		}
		if !entry.SizeKnown {
			size, err := r.src.GetBlobSize(ctx, entry.ContentID)
			if err != nil {
				return Listing{}, err
			}
			entry.Size = size
			entry.SizeKnown = true
		}
		files = append(files, entry)
	}
	return Listing{Present: true, Entries: files}, nil
}

// ResolveFirst tries candidate folder names in order and returns the first
// present listing together with the folder name that matched. All candidates
// absent yields an absent listing, matching the corpora whose early history
// predates the data folder convention.
func (r *Resolver) ResolveFirst(ctx context.Context, rootTreeSHA string, candidates []string) (Listing, string, error) {
	for _, folder := range candidates {
		listing, err := r.Resolve(ctx, rootTreeSHA, folder)
		if err != nil {
			return Listing{}, "", err
		}
		if listing.Present {
			return listing, folder, nil
		}
		r.logger.WithFields(logrus.Fields{
			"tree":   rootTreeSHA,
			"folder": folder,
		}).Debug("Data folder candidate absent")
	}
	return AbsentListing(), "", nil
}

func findSubtree(entries []models.TreeEntry, name string) (string, bool) {
	for _, entry := range entries {
		if entry.Name == name && entry.Kind == models.EntryKindSubtree {
			return entry.ContentID, true
		}
	}
	return "", false
}
