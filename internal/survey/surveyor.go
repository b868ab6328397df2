// Package survey orchestrates the full corpus archaeology pipeline: fetch
// the commit history, reconstruct a snapshot per commit, diff the ordered
// sequence, and persist the resulting timeline.
package survey

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/corpusarch/carch/internal/config"
	"github.com/corpusarch/carch/internal/corpus"
	"github.com/corpusarch/carch/internal/errs"
	"github.com/corpusarch/carch/internal/github"
	"github.com/corpusarch/carch/internal/models"
	"github.com/corpusarch/carch/internal/storage"
)

// Surveyor coordinates one history walk over a repository.
type Surveyor struct {
	api    github.API
	store  storage.Store
	cfg    *config.Config
	logger *logrus.Logger
}

// New creates a surveyor. A nil store runs the pipeline without persisting.
func New(api github.API, store storage.Store, cfg *config.Config, logger *logrus.Logger) *Surveyor {
	return &Surveyor{api: api, store: store, cfg: cfg, logger: logger}
}

// Options bounds one survey run.
type Options struct {
	Since time.Time
	Until time.Time
	// SampleEvery keeps every n-th commit (and always the newest one);
	// 0 falls back to the configured default.
	SampleEvery int
}

// Result is the outcome of one survey run.
type Result struct {
	Run       models.SurveyRun
	Commits   []models.CommitRecord
	Snapshots []models.Snapshot
	Timeline  *corpus.Timeline
	Duration  time.Duration
}

// Run executes the pipeline for owner/repo.
//
// Snapshot construction for different commits is independent and runs on a
// bounded worker pool; each worker writes only its own slice index, so no
// locking is needed. Diffing happens afterwards, strictly in chronological
// order - the added/removed classification is meaningless otherwise.
func (s *Surveyor) Run(ctx context.Context, owner, repo string, opts Options) (*Result, error) {
	start := time.Now()
	s.logger.WithFields(logrus.Fields{
		"owner": owner,
		"repo":  repo,
	}).Info("Starting corpus survey")

	commits, err := s.api.ListCommits(ctx, owner, repo, github.ListOptions{
		Since:    opts.Since,
		Until:    opts.Until,
		PageSize: s.cfg.GitHub.PageSize,
	})
	if err != nil {
		return nil, err
	}
	if len(commits) == 0 {
		return nil, errs.Validationf("no commits found for %s/%s in the requested range", owner, repo)
	}

	// API order is newest-first; the oldest commit is the first version.
	reverse(commits)
	commits = sample(commits, s.sampleEvery(opts))
	s.logger.WithField("count", len(commits)).Info("Commit history fetched")

	snapshots := make([]models.Snapshot, len(commits))
	folders := make([]string, len(commits))
	resolver := corpus.NewResolver(&repoTrees{api: s.api, owner: owner, repo: repo}, s.logger)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Survey.Workers)
	for i, commit := range commits {
		i, commit := i, commit
		g.Go(func() error {
			listing, folder, err := resolver.ResolveFirst(gctx, commit.TreeSHA, s.cfg.Corpus.FolderCandidates)
			if err != nil {
				return err
			}
			snap, err := corpus.BuildSnapshot(commit, listing, s.cfg.Corpus.DocumentSuffix)
			if err != nil {
				return err
			}
			snapshots[i] = snap
			folders[i] = folder
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	s.logger.WithField("count", len(snapshots)).Info("Snapshots reconstructed")

	timeline, err := corpus.BuildTimeline(commits, snapshots)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Run: models.SurveyRun{
			ID:          uuid.NewString(),
			Repository:  owner + "/" + repo,
			Folder:      latestFolder(folders),
			Suffix:      s.cfg.Corpus.DocumentSuffix,
			CommitCount: len(commits),
			CreatedAt:   start.UTC(),
		},
		Commits:   commits,
		Snapshots: snapshots,
		Timeline:  timeline,
		Duration:  time.Since(start),
	}

	if s.store != nil {
		if err := s.store.SaveRun(ctx, result.Run, snapshots, timeline); err != nil {
			return nil, err
		}
		s.logger.WithField("run_id", result.Run.ID).Info("Survey run persisted")
	}

	s.logger.WithFields(logrus.Fields{
		"versions": len(timeline.Versions),
		"duration": result.Duration.String(),
	}).Info("Corpus survey complete")
	return result, nil
}

func (s *Surveyor) sampleEvery(opts Options) int {
	if opts.SampleEvery > 0 {
		return opts.SampleEvery
	}
	return s.cfg.Survey.SampleEvery
}

// repoTrees binds the repository coordinates to the tree-source contract the
// resolver consumes.
type repoTrees struct {
	api   github.API
	owner string
	repo  string
}

func (t *repoTrees) GetTree(ctx context.Context, treeSHA string) ([]models.TreeEntry, error) {
	return t.api.GetTree(ctx, t.owner, t.repo, treeSHA)
}

func (t *repoTrees) GetBlobSize(ctx context.Context, blobSHA string) (int64, error) {
	return t.api.GetBlobSize(ctx, t.owner, t.repo, blobSHA)
}

func reverse(commits []models.CommitRecord) {
	for i, j := 0, len(commits)-1; i < j; i, j = i+1, j-1 {
		commits[i], commits[j] = commits[j], commits[i]
	}
}

// sample keeps every n-th commit plus the newest one, preserving order.
func sample(commits []models.CommitRecord, every int) []models.CommitRecord {
	if every <= 1 {
		return commits
	}
	kept := make([]models.CommitRecord, 0, len(commits)/every+1)
	for i, commit := range commits {
		if i%every == 0 || i == len(commits)-1 {
			kept = append(kept, commit)
		}
	}
	return kept
}

// latestFolder returns the folder name of the most recent commit where any
// candidate matched.
func latestFolder(folders []string) string {
	for i := len(folders) - 1; i >= 0; i-- {
		if folders[i] != "" {
			return folders[i]
		}
	}
	return ""
}
