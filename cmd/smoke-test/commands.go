package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/hochfrequenz/workflow-results/internal/config"
	"github.com/hochfrequenz/workflow-results/internal/history"
	"github.com/hochfrequenz/workflow-results/internal/logging"
	"github.com/hochfrequenz/workflow-results/internal/notify"
	"github.com/hochfrequenz/workflow-results/internal/smoke"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// commandRunner is swapped in tests
var commandRunner smoke.CommandRunner = smoke.ExecRunner{}

func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		path = config.DefaultConfigPath()
	}
	return config.Load(path)
}

func runSmoke(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format, verbose)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	settings := smoke.SettingsFromConfig(cfg.Smoke)
	logger.Debug("running smoke tests",
		zap.String("binary", settings.Binary),
		zap.String("model", settings.Model),
		zap.Duration("timeout", settings.Timeout),
		zap.Bool("api_check", settings.APICheck))

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	run := history.NewRun(history.ToolSmoke, settings.Binary)
	runner := smoke.NewRunner(smoke.Title(settings.Binary), smoke.BuildChecks(commandRunner, settings), cmd.OutOrStdout(), logger)
	report := runner.Run(ctx)

	for _, res := range report.Results {
		run.Checks = append(run.Checks, history.CheckRecord{Name: res.Name, Passed: res.Passed, Message: res.Message})
	}
	run.Finish(report.OK(), fmt.Sprintf("%d/%d tests passed", report.Passed, report.Total))
	history.Record(cfg.General.HistoryDB, run, logger)

	if report.OK() {
		return nil
	}

	var failed []string
	for _, res := range report.Results {
		if !res.Passed {
			failed = append(failed, res.Message)
		}
	}
	notify.SendLogged(notify.FromWebhook(cfg.Notifications.SlackWebhook), notify.Notification{
		Title:   fmt.Sprintf("Smoke tests failed (%d/%d passed)", report.Passed, report.Total),
		Message: strings.Join(failed, "\n"),
		Type:    notify.NotifyError,
		Tool:    history.ToolSmoke,
		Subject: settings.Binary,
	}, logger)
	return &exitError{code: 1}
}
