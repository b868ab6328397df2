package survey

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corpusarch/carch/internal/config"
	"github.com/corpusarch/carch/internal/corpus"
	"github.com/corpusarch/carch/internal/errs"
	"github.com/corpusarch/carch/internal/github"
	"github.com/corpusarch/carch/internal/models"
	"github.com/corpusarch/carch/internal/storage"
)

// fakeAPI serves a canned newest-first commit list and per-tree listings.
type fakeAPI struct {
	commits []models.CommitRecord
	trees   map[string][]models.TreeEntry
}

func (f *fakeAPI) ForEachCommitPage(_ context.Context, _, _ string, _ github.ListOptions, fn func([]models.CommitRecord) error) error {
	return fn(f.commits)
}

func (f *fakeAPI) ListCommits(ctx context.Context, owner, repo string, opts github.ListOptions) ([]models.CommitRecord, error) {
	var all []models.CommitRecord
	err := f.ForEachCommitPage(ctx, owner, repo, opts, func(page []models.CommitRecord) error {
		all = append(all, page...)
		return nil
	})
	return all, err
}

func (f *fakeAPI) GetTree(_ context.Context, _, _ string, treeSHA string) ([]models.TreeEntry, error) {
	entries, ok := f.trees[treeSHA]
	if !ok {
		return nil, errs.Newf(errs.KindTransport, "tree %s not found", treeSHA)
	}
	return entries, nil
}

func (f *fakeAPI) GetBlobSize(_ context.Context, _, _ string, blobSHA string) (int64, error) {
	return 0, errs.Newf(errs.KindTransport, "blob %s not found", blobSHA)
}

// fakeStore records the arguments of its single SaveRun call.
type fakeStore struct {
	storage.Store
	saved *models.SurveyRun
}

func (f *fakeStore) SaveRun(_ context.Context, run models.SurveyRun, _ []models.Snapshot, _ *corpus.Timeline) error {
	f.saved = &run
	return nil
}

func file(name string, size int64, contentID string) models.TreeEntry {
	return models.TreeEntry{
		Name: name, Kind: models.EntryKindFile,
		ContentID: contentID, Size: size, SizeKnown: true,
	}
}

func subtree(name, contentID string) models.TreeEntry {
	return models.TreeEntry{Name: name, Kind: models.EntryKindSubtree, ContentID: contentID}
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Survey.Workers = 4
	return cfg
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

// threeCommitAPI builds a history where the data folder migrates from "data"
// to "tei" and a document is added along the way.
func threeCommitAPI() *fakeAPI {
	base := time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC)
	return &fakeAPI{
		commits: []models.CommitRecord{
			// API order: newest first
			{SHA: "c3", TreeSHA: "root3", Timestamp: base.Add(48 * time.Hour), Author: "c"},
			{SHA: "c2", TreeSHA: "root2", Timestamp: base.Add(24 * time.Hour), Author: "b"},
			{SHA: "c1", TreeSHA: "root1", Timestamp: base, Author: "a"},
		},
		trees: map[string][]models.TreeEntry{
			"root1": {subtree("data", "data1")},
			"data1": {file("ger000086.xml", 100, "b1")},

			"root2": {subtree("tei", "tei2")},
			"tei2": {
				file("ger000086.xml", 100, "b1"),
				file("ger000100.xml", 200, "b2"),
			},

			"root3": {subtree("tei", "tei3")},
			"tei3": {
				file("ger000086.xml", 150, "b3"),
				file("ger000100.xml", 200, "b2"),
			},
		},
	}
}

func TestSurveyor_RunBuildsChronologicalTimeline(t *testing.T) {
	s := New(threeCommitAPI(), nil, testConfig(), quietLogger())

	result, err := s.Run(context.Background(), "dracor", "gerdracor", Options{})
	require.NoError(t, err)

	require.Len(t, result.Commits, 3)
	assert.Equal(t, "c1", result.Commits[0].SHA)
	assert.Equal(t, "c3", result.Commits[2].SHA)

	require.Len(t, result.Timeline.Versions, 3)
	assert.Equal(t, 1, result.Timeline.Versions[0].RunningNumber)
	assert.Equal(t, 1, result.Timeline.Versions[0].DocumentCount)
	assert.Equal(t, 2, result.Timeline.Versions[1].DocumentCount)
	assert.Equal(t, 1, result.Timeline.Versions[1].AddedCount)
	assert.Equal(t, 1, result.Timeline.Versions[2].ModifiedCount)

	assert.Equal(t, "dracor/gerdracor", result.Run.Repository)
	assert.Equal(t, "tei", result.Run.Folder)
	assert.Equal(t, 3, result.Run.CommitCount)
	assert.NotEmpty(t, result.Run.ID)
}

func TestSurveyor_RunPersistsWhenStoreGiven(t *testing.T) {
	store := &fakeStore{}
	s := New(threeCommitAPI(), store, testConfig(), quietLogger())

	result, err := s.Run(context.Background(), "dracor", "gerdracor", Options{})
	require.NoError(t, err)

	require.NotNil(t, store.saved)
	assert.Equal(t, result.Run.ID, store.saved.ID)
}

func TestSurveyor_RunEmptyHistoryFails(t *testing.T) {
	s := New(&fakeAPI{}, nil, testConfig(), quietLogger())

	_, err := s.Run(context.Background(), "dracor", "gerdracor", Options{})
	require.Error(t, err)
	assert.Equal(t, errs.KindValidation, errs.GetKind(err))
}

func TestSurveyor_RunAbsentFolderYieldsEmptyVersion(t *testing.T) {
	base := time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC)
	api := &fakeAPI{
		commits: []models.CommitRecord{
			{SHA: "c2", TreeSHA: "root2", Timestamp: base.Add(time.Hour)},
			{SHA: "c1", TreeSHA: "root1", Timestamp: base},
		},
		trees: map[string][]models.TreeEntry{
			// before the corpus layout existed
			"root1": {file("README.md", 10, "b0")},
			"root2": {subtree("tei", "tei2")},
			"tei2":  {file("ger000086.xml", 100, "b1")},
		},
	}
	s := New(api, nil, testConfig(), quietLogger())

	result, err := s.Run(context.Background(), "dracor", "gerdracor", Options{})
	require.NoError(t, err)

	require.Len(t, result.Timeline.Versions, 2)
	assert.Equal(t, 0, result.Timeline.Versions[0].DocumentCount)
	assert.Equal(t, 1, result.Timeline.Versions[1].DocumentCount)
	assert.Equal(t, 1, result.Timeline.Versions[1].AddedCount)
}

func TestSurveyor_RunSurvivesNonMonotonicAuthorDates(t *testing.T) {
	// merged pull requests keep their author dates, so the listed history is
	// not monotonic by timestamp; the list order still defines the versions
	base := time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC)
	api := &fakeAPI{
		commits: []models.CommitRecord{
			{SHA: "merge", TreeSHA: "root", Timestamp: base.Add(72 * time.Hour)},
			{SHA: "pr", TreeSHA: "root", Timestamp: base},
			{SHA: "main", TreeSHA: "root", Timestamp: base.Add(48 * time.Hour)},
		},
		trees: map[string][]models.TreeEntry{
			"root": {subtree("tei", "tei1")},
			"tei1": {file("ger000086.xml", 100, "b1")},
		},
	}
	s := New(api, nil, testConfig(), quietLogger())

	result, err := s.Run(context.Background(), "dracor", "gerdracor", Options{})
	require.NoError(t, err)

	require.Len(t, result.Timeline.Versions, 3)
	assert.Equal(t, "main", result.Timeline.Versions[0].SHA)
	assert.Equal(t, "pr", result.Timeline.Versions[1].SHA)
	assert.Equal(t, "merge", result.Timeline.Versions[2].SHA)
	assert.Equal(t, 1, result.Timeline.Versions[1].UnchangedCount)
}

func TestSurveyor_RunPropagatesSnapshotErrors(t *testing.T) {
	base := time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC)
	api := &fakeAPI{
		commits: []models.CommitRecord{
			{SHA: "c1", TreeSHA: "missing", Timestamp: base},
		},
		trees: map[string][]models.TreeEntry{},
	}
	s := New(api, nil, testConfig(), quietLogger())

	_, err := s.Run(context.Background(), "dracor", "gerdracor", Options{})
	require.Error(t, err)
	assert.True(t, errs.IsTransport(err))
}

func TestSurveyor_SamplingKeepsNewestCommit(t *testing.T) {
	base := time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC)
	api := &fakeAPI{trees: map[string][]models.TreeEntry{}}
	for i := 9; i >= 0; i-- {
		sha := fmt.Sprintf("c%d", i)
		api.commits = append(api.commits, models.CommitRecord{
			SHA: sha, TreeSHA: "root", Timestamp: base.Add(time.Duration(i) * time.Hour),
		})
		api.trees["root"] = []models.TreeEntry{}
	}

	s := New(api, nil, testConfig(), quietLogger())
	result, err := s.Run(context.Background(), "dracor", "gerdracor", Options{SampleEvery: 4})
	require.NoError(t, err)

	// indexes 0, 4, 8 plus the final commit
	require.Len(t, result.Commits, 4)
	assert.Equal(t, "c0", result.Commits[0].SHA)
	assert.Equal(t, "c9", result.Commits[3].SHA)
}

func TestSample(t *testing.T) {
	commits := make([]models.CommitRecord, 7)
	for i := range commits {
		commits[i].SHA = fmt.Sprintf("c%d", i)
	}

	kept := sample(commits, 3)
	require.Len(t, kept, 3)
	assert.Equal(t, "c0", kept[0].SHA)
	assert.Equal(t, "c3", kept[1].SHA)
	assert.Equal(t, "c6", kept[2].SHA)

	kept = sample(commits, 1)
	assert.Len(t, kept, 7)
}
