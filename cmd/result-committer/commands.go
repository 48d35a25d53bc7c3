package main

import (
	"fmt"
	"os"

	"github.com/hochfrequenz/workflow-results/internal/committer"
	"github.com/hochfrequenz/workflow-results/internal/config"
	"github.com/hochfrequenz/workflow-results/internal/history"
	"github.com/hochfrequenz/workflow-results/internal/logging"
	"github.com/hochfrequenz/workflow-results/internal/notify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	workflowRun string
	commitSHA   string
	resultDir   string
	backend     string
	repoDir     string
)

func init() {
	flags := rootCmd.Flags()
	flags.StringVar(&workflowRun, "workflow-run", "", "workflow run identifier")
	flags.StringVar(&commitSHA, "commit-sha", "", "commit hash the workflow ran against")
	flags.StringVar(&resultDir, "result-dir", "", "directory containing the results")
	flags.StringVar(&backend, "backend", "", "git backend: git or go-git (default from config)")
	flags.StringVar(&repoDir, "repo-dir", "", "repository working directory (default: current directory)")

	for _, name := range []string{"workflow-run", "commit-sha", "result-dir"} {
		if err := rootCmd.MarkFlagRequired(name); err != nil {
			panic(err)
		}
	}
}

func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		path = config.DefaultConfigPath()
	}
	return config.Load(path)
}

func runCommit(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format, verbose)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	info, err := os.Stat(resultDir)
	if err != nil || !info.IsDir() {
		fmt.Fprintf(out, "Result directory does not exist: %s\n", resultDir)
		return &exitError{code: 1}
	}

	if backend != "" {
		cfg.Committer.Backend = backend
	}
	if repoDir != "" {
		cfg.Committer.RepoDir = config.ExpandPath(repoDir)
	}

	run := history.NewRun(history.ToolCommitter, resultDir)
	notifier := notify.FromWebhook(cfg.Notifications.SlackWebhook)

	repo, err := committer.OpenRepo(committer.RepoOptions{
		Backend:     cfg.Committer.Backend,
		GitBinary:   cfg.Committer.GitBinary,
		Dir:         cfg.Committer.RepoDir,
		AuthorName:  cfg.Committer.AuthorName,
		AuthorEmail: cfg.Committer.AuthorEmail,
	})
	if err != nil {
		run.Finish(false, err.Error())
		history.Record(cfg.General.HistoryDB, run, logger)
		return err
	}

	c := committer.New(repo,
		committer.WithSummaryFile(cfg.Committer.SummaryFile),
		committer.WithOutput(out),
		committer.WithLogger(logger),
	)
	logger.Debug("committing results",
		zap.String("workflow_run", workflowRun),
		zap.String("commit_sha", commitSHA),
		zap.String("backend", cfg.Committer.Backend))

	ok, err := c.Commit(resultDir, workflowRun, commitSHA)
	switch {
	case err != nil:
		run.Finish(false, err.Error())
	case !ok:
		run.Finish(false, "git stage or commit failed")
	default:
		run.Finish(true, committer.CommitMessage(workflowRun))
	}
	history.Record(cfg.General.HistoryDB, run, logger)

	if err != nil {
		return err
	}
	if !ok {
		notify.SendLogged(notifier, notify.Notification{
			Title:   "Result commit failed",
			Message: fmt.Sprintf("Could not commit results of workflow run #%s", workflowRun),
			Type:    notify.NotifyError,
			Tool:    history.ToolCommitter,
			Subject: resultDir,
		}, logger)
		return &exitError{code: 1}
	}
	return nil
}
