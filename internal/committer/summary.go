// Package committer archives a workflow result directory: it writes a JSON
// manifest of the directory's files and commits the directory to git.
package committer

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// DefaultSummaryFile is the manifest name written into the result directory
const DefaultSummaryFile = "workflow_summary.json"

// TimestampLayout is ISO-8601 local time with microseconds and no zone
const TimestampLayout = "2006-01-02T15:04:05.000000"

// Summary is the manifest written once per invocation. Field order is the
// on-disk key order.
type Summary struct {
	Timestamp       string   `json:"timestamp"`
	WorkflowRun     string   `json:"workflow_run"`
	CommitSHA       string   `json:"commit_sha"`
	ResultDirectory string   `json:"result_directory"`
	FilesCreated    []string `json:"files_created"`
}

// BuildSummary enumerates every regular file under dir. Paths are relative
// to dir in walk order. A directory that does not exist yields an empty list.
func BuildSummary(dir, workflowRun, commitSHA string) (*Summary, error) {
	return buildSummary(dir, workflowRun, commitSHA, time.Now())
}

func buildSummary(dir, workflowRun, commitSHA string, now time.Time) (*Summary, error) {
	summary := &Summary{
		Timestamp:       now.Format(TimestampLayout),
		WorkflowRun:     workflowRun,
		CommitSHA:       commitSHA,
		ResultDirectory: dir,
		FilesCreated:    []string{},
	}

	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return summary, nil
	}

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		summary.FilesCreated = append(summary.FilesCreated, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}

	return summary, nil
}

// WriteSummary writes s as indented JSON to dir/name and returns the path
func WriteSummary(dir, name string, s *Summary) (string, error) {
	if name == "" {
		name = DefaultSummaryFile
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("writing summary: %w", err)
	}
	return path, nil
}

// CommitMessage is the commit subject for a workflow run
func CommitMessage(workflowRun string) string {
	return fmt.Sprintf("Results from workflow run #%s", workflowRun)
}
