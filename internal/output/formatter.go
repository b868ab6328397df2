// Package output renders survey results for humans: terminal tables, HTML
// charts and JSON exports.
package output

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/corpusarch/carch/internal/models"
	"github.com/corpusarch/carch/internal/storage"
)

const dateFormat = "2006-01-02"

// WriteVersionsTable renders the version list as a table.
func WriteVersionsTable(w io.Writer, versions []models.Version) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"#", "Commit", "From", "Until", "Docs", "Bytes", "Added", "Removed", "Modified", "Renamed"})
	for _, v := range versions {
		until := "-"
		if v.DateUntil != nil {
			until = v.DateUntil.Format(dateFormat)
		}
		t.AppendRow(table.Row{
			v.RunningNumber,
			shortSHA(v.SHA),
			v.DateFrom.Format(dateFormat),
			until,
			v.DocumentCount,
			v.SizeSum,
			v.AddedCount,
			v.RemovedCount,
			v.ModifiedCount,
			v.RenamedCount,
		})
	}
	t.Render()
}

// WriteChangeTable renders one change record as a table, one row per
// affected document. Unchanged documents are summarized, not listed.
func WriteChangeTable(w io.Writer, change models.ChangeRecord) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Class", "Document"})
	for _, name := range change.Added {
		t.AppendRow(table.Row{"added", name})
	}
	for _, name := range change.Removed {
		t.AppendRow(table.Row{"removed", name})
	}
	for _, name := range change.Modified {
		t.AppendRow(table.Row{"modified", name})
	}
	for _, pair := range change.Renamed {
		t.AppendRow(table.Row{"renamed", fmt.Sprintf("%s -> %s", pair.From, pair.To)})
	}
	t.AppendFooter(table.Row{"unchanged", len(change.Unchanged)})
	t.Render()
}

// WriteHistoryTable renders a single document's size series.
func WriteHistoryTable(w io.Writer, name string, samples []storage.DocumentSample) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(name)
	t.AppendHeader(table.Row{"#", "Commit", "Date", "Bytes"})
	for _, sample := range samples {
		size := "absent"
		if sample.Size != nil {
			size = fmt.Sprintf("%d", *sample.Size)
		}
		t.AppendRow(table.Row{
			sample.RunningNumber,
			shortSHA(sample.SHA),
			sample.DateFrom.Format(dateFormat),
			size,
		})
	}
	t.Render()
}

// WriteRunSummary renders the one-paragraph summary of a survey run.
func WriteRunSummary(w io.Writer, run models.SurveyRun, versions []models.Version) {
	fmt.Fprintf(w, "Survey %s of %s: %d versions", run.ID, run.Repository, len(versions))
	if len(versions) > 0 {
		last := versions[len(versions)-1]
		fmt.Fprintf(w, ", latest has %d documents (%d bytes) at %s",
			last.DocumentCount, last.SizeSum, models.CommitURL(run.Repository, last.SHA))
	}
	fmt.Fprintln(w)
}

func shortSHA(sha string) string {
	if len(sha) > 8 {
		return sha[:8]
	}
	return sha
}
