package committer

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
)

// Repo stages and commits paths in a working tree
type Repo interface {
	Add(path string) error
	Commit(message string) error
}

// Committer writes the summary and commits the result directory
type Committer struct {
	repo        Repo
	summaryFile string
	out         io.Writer
	logger      *zap.Logger
}

// Option configures a Committer
type Option func(*Committer)

// WithSummaryFile overrides the manifest file name
func WithSummaryFile(name string) Option {
	return func(c *Committer) {
		if name != "" {
			c.summaryFile = name
		}
	}
}

// WithOutput redirects the progress lines normally printed to stdout
func WithOutput(w io.Writer) Option {
	return func(c *Committer) { c.out = w }
}

// WithLogger sets the structured logger
func WithLogger(l *zap.Logger) Option {
	return func(c *Committer) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a Committer that stages and commits through repo
func New(repo Repo, opts ...Option) *Committer {
	c := &Committer{
		repo:        repo,
		summaryFile: DefaultSummaryFile,
		out:         os.Stdout,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Commit writes the summary into dir, stages dir and commits it. It returns
// false when staging or committing fails; the summary file is left in place.
// An error is returned only when the summary itself could not be produced.
func (c *Committer) Commit(dir, workflowRun, commitSHA string) (bool, error) {
	summary, err := BuildSummary(dir, workflowRun, commitSHA)
	if err != nil {
		return false, err
	}

	summaryPath, err := WriteSummary(dir, c.summaryFile, summary)
	if err != nil {
		return false, err
	}
	fmt.Fprintf(c.out, "Created summary: %s\n", summaryPath)
	c.logger.Debug("summary written",
		zap.String("path", summaryPath),
		zap.Int("files", len(summary.FilesCreated)))

	if err := c.repo.Add(dir); err != nil {
		return c.fail(err), nil
	}
	if err := c.repo.Commit(CommitMessage(workflowRun)); err != nil {
		return c.fail(err), nil
	}

	fmt.Fprintf(c.out, "Committed results for run #%s\n", workflowRun)
	c.logger.Info("results committed", zap.String("workflow_run", workflowRun), zap.String("dir", dir))
	return true, nil
}

func (c *Committer) fail(err error) bool {
	fmt.Fprintf(c.out, "Git command failed: %v\n", err)
	fmt.Fprintln(c.out, "Failed to commit results")
	c.logger.Error("commit failed", zap.Error(err))
	return false
}
