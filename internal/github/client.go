// Package github adapts the GitHub REST API to the commit-graph contract the
// survey pipeline consumes: paginated commit listings, single-level tree
// reads and blob metadata.
package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v57/github"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/corpusarch/carch/internal/config"
	"github.com/corpusarch/carch/internal/errs"
	"github.com/corpusarch/carch/internal/models"
)

// ErrStopPaging stops ForEachCommitPage early without reporting an error.
var ErrStopPaging = errors.New("stop paging")

// ListOptions bounds a commit listing.
type ListOptions struct {
	Since    time.Time
	Until    time.Time
	PageSize int
}

// API is the commit-graph query contract. Implementations are read-only and
// idempotent against an immutable upstream history.
type API interface {
	// ForEachCommitPage walks the commit list newest-first, one page at a
	// time. Returning ErrStopPaging from fn ends the walk cleanly.
	ForEachCommitPage(ctx context.Context, owner, repo string, opts ListOptions, fn func(page []models.CommitRecord) error) error

	// ListCommits materializes the full newest-first commit list.
	ListCommits(ctx context.Context, owner, repo string, opts ListOptions) ([]models.CommitRecord, error)

	// GetTree returns the immediate children of one tree object.
	GetTree(ctx context.Context, owner, repo, treeSHA string) ([]models.TreeEntry, error)

	// GetBlobSize returns the byte size of a blob whose tree entry did not
	// inline one.
	GetBlobSize(ctx context.Context, owner, repo, blobSHA string) (int64, error)
}

// Client wraps the GitHub API client with rate limiting and bounded retry.
type Client struct {
	gh         *github.Client
	limiter    *rate.Limiter
	maxRetries int
	pageSize   int
	logger     *logrus.Logger
}

// NewClient creates a GitHub client. An empty token means unauthenticated
// requests, which GitHub throttles to 60 per hour.
func NewClient(cfg config.GitHubConfig, logger *logrus.Logger) (*Client, error) {
	httpClient := &http.Client{Timeout: cfg.Timeout}
	gh := github.NewClient(httpClient)
	if cfg.Token != "" {
		gh = gh.WithAuthToken(cfg.Token)
	}
	if cfg.BaseURL != "" {
		base, err := url.Parse(strings.TrimSuffix(cfg.BaseURL, "/") + "/")
		if err != nil {
			return nil, errs.Configf("invalid github base url %q: %v", cfg.BaseURL, err)
		}
		gh.BaseURL = base
	}

	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 100
	}

	return &Client{
		gh:         gh,
		limiter:    rate.NewLimiter(rate.Limit(cfg.RateLimit), 1),
		maxRetries: cfg.MaxRetries,
		pageSize:   pageSize,
		logger:     logger,
	}, nil
}

// ForEachCommitPage implements API.
func (c *Client) ForEachCommitPage(ctx context.Context, owner, repo string, opts ListOptions, fn func(page []models.CommitRecord) error) error {
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = c.pageSize
	}
	listOpts := &github.CommitsListOptions{
		Since: opts.Since,
		Until: opts.Until,
		ListOptions: github.ListOptions{
			PerPage: pageSize,
		},
	}

	for {
		var (
			commits []*github.RepositoryCommit
			resp    *github.Response
		)
		err := c.do(ctx, "list commits", func() error {
			var err error
			commits, resp, err = c.gh.Repositories.ListCommits(ctx, owner, repo, listOpts)
			return err
		})
		if err != nil {
			return err
		}

		page := make([]models.CommitRecord, 0, len(commits))
		for _, commit := range commits {
			page = append(page, convertCommit(commit))
		}
		if err := fn(page); err != nil {
			if errors.Is(err, ErrStopPaging) {
				return nil
			}
			return err
		}

		c.logRateLimit(resp)
		if resp.NextPage == 0 {
			return nil
		}
		listOpts.Page = resp.NextPage
	}
}

// ListCommits implements API.
func (c *Client) ListCommits(ctx context.Context, owner, repo string, opts ListOptions) ([]models.CommitRecord, error) {
	var all []models.CommitRecord
	err := c.ForEachCommitPage(ctx, owner, repo, opts, func(page []models.CommitRecord) error {
		all = append(all, page...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return all, nil
}

// GetTree implements API. The listing is one level only; subtrees of the
// requested tree are returned as subtree entries, not descended into.
func (c *Client) GetTree(ctx context.Context, owner, repo, treeSHA string) ([]models.TreeEntry, error) {
	var tree *github.Tree
	err := c.do(ctx, "get tree", func() error {
		var err error
		tree, _, err = c.gh.Git.GetTree(ctx, owner, repo, treeSHA, false)
		return err
	})
	if err != nil {
		return nil, err
	}
	if tree.GetTruncated() {
		c.logger.WithField("tree", treeSHA).Warn("Tree listing truncated by the API")
	}

	entries := make([]models.TreeEntry, 0, len(tree.Entries))
	for _, entry := range tree.Entries {
		converted, ok := convertTreeEntry(entry)
		if !ok {
			continue
		}
		entries = append(entries, converted)
	}
	return entries, nil
}

// GetBlobSize implements API.
func (c *Client) GetBlobSize(ctx context.Context, owner, repo, blobSHA string) (int64, error) {
	var blob *github.Blob
	err := c.do(ctx, "get blob", func() error {
		var err error
		blob, _, err = c.gh.Git.GetBlob(ctx, owner, repo, blobSHA)
		return err
	})
	if err != nil {
		return 0, err
	}
	return int64(blob.GetSize()), nil
}

// do paces, executes and retries one API call. Transport failures back off
// exponentially; rate-limit failures wait for the advertised quota reset.
func (c *Client) do(ctx context.Context, op string, call func() error) error {
	for attempt := 0; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return errs.Transportf(err, "rate limiter wait for %s", op)
		}

		err := call()
		if err == nil {
			return nil
		}

		mapped := c.mapError(op, err)
		if !errs.IsRetriable(mapped) || attempt >= c.maxRetries {
			return mapped
		}

		delay := backoffDelay(attempt)
		if reset, ok := errs.RateLimitReset(mapped); ok {
			// The original corpora have thousands of commits; waiting for
			// the reset is the expected steady state, not a failure.
			delay = time.Until(reset) + time.Second
			if delay < time.Second {
				delay = time.Second
			}
		}
		c.logger.WithFields(logrus.Fields{
			"op":      op,
			"attempt": attempt + 1,
			"delay":   delay.String(),
		}).Warn("Retrying GitHub request")

		if err := sleepCtx(ctx, delay); err != nil {
			return errs.Transportf(err, "aborted while waiting to retry %s", op)
		}
	}
}

// mapError translates go-github failures into the pipeline error taxonomy.
func (c *Client) mapError(op string, err error) error {
	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		return errs.RateLimit(err, rateErr.Rate.Reset.Time, fmt.Sprintf("%s: rate limit exhausted", op)).
			WithContext("limit", rateErr.Rate.Limit)
	}
	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		var reset time.Time
		if abuseErr.RetryAfter != nil {
			reset = time.Now().Add(*abuseErr.RetryAfter)
		}
		return errs.RateLimit(err, reset, fmt.Sprintf("%s: secondary rate limit", op))
	}
	return errs.Transportf(err, "%s failed", op)
}

func (c *Client) logRateLimit(resp *github.Response) {
	if resp == nil {
		return
	}
	if resp.Rate.Remaining < 100 {
		c.logger.WithFields(logrus.Fields{
			"remaining": resp.Rate.Remaining,
			"limit":     resp.Rate.Limit,
		}).Warn("GitHub rate limit running low")
	}
}

func convertCommit(commit *github.RepositoryCommit) models.CommitRecord {
	record := models.CommitRecord{
		SHA:         commit.GetSHA(),
		TreeSHA:     commit.GetCommit().GetTree().GetSHA(),
		Author:      commit.GetCommit().GetAuthor().GetName(),
		AuthorEmail: commit.GetCommit().GetAuthor().GetEmail(),
		Message:     commit.GetCommit().GetMessage(),
		Timestamp:   commit.GetCommit().GetAuthor().GetDate().Time,
	}
	for _, parent := range commit.Parents {
		record.ParentSHAs = append(record.ParentSHAs, parent.GetSHA())
	}
	return record
}

func convertTreeEntry(entry *github.TreeEntry) (models.TreeEntry, bool) {
	var kind models.EntryKind
	switch entry.GetType() {
	case "blob":
		kind = models.EntryKindFile
	case "tree":
		kind = models.EntryKindSubtree
	default:
		// commit entries (submodules) have no place in a corpus snapshot
		return models.TreeEntry{}, false
	}
	converted := models.TreeEntry{
		Name:      entry.GetPath(),
		Kind:      kind,
		ContentID: entry.GetSHA(),
	}
	if kind == models.EntryKindFile && entry.Size != nil {
		converted.Size = int64(*entry.Size)
		converted.SizeKnown = true
	}
	return converted, true
}

// backoffDelay returns the exponential delay for a retry attempt.
func backoffDelay(attempt int) time.Duration {
	delay := 500 * time.Millisecond << uint(attempt)
	if delay > 30*time.Second {
		delay = 30 * time.Second
	}
	return delay
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
