package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/hochfrequenz/workflow-results/internal/config"
	"github.com/hochfrequenz/workflow-results/internal/history"
	"github.com/hochfrequenz/workflow-results/internal/logging"
	"github.com/hochfrequenz/workflow-results/internal/notify"
	"github.com/hochfrequenz/workflow-results/internal/resultdir"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const selfTestPrefix = "test-run"

var (
	prefix       string
	listLimit    int
	outputFormat string
	keep         int
	historyLimit int
	historyTool  string
)

func init() {
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a timestamped directory and print its path",
		Args:  cobra.NoArgs,
		RunE:  runCreate,
	}
	createCmd.Flags().StringVar(&prefix, "prefix", "", "directory prefix (default from config)")
	rootCmd.AddCommand(createCmd)

	latestCmd := &cobra.Command{
		Use:   "latest",
		Short: "Print the most recently modified matching directory",
		Args:  cobra.NoArgs,
		RunE:  runLatest,
	}
	latestCmd.Flags().StringVar(&prefix, "prefix", "", "directory prefix (default from config)")
	rootCmd.AddCommand(latestCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List matching directories, newest first",
		Args:  cobra.NoArgs,
		RunE:  runList,
	}
	listCmd.Flags().StringVar(&prefix, "prefix", "", "directory prefix (default from config)")
	listCmd.Flags().IntVar(&listLimit, "limit", -1, "maximum number of directories (default from config, 0 for all)")
	listCmd.Flags().StringVarP(&outputFormat, "output", "o", "table", "output format: table, json or yaml")
	rootCmd.AddCommand(listCmd)

	cleanupCmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Remove all but the newest matching directories",
		Args:  cobra.NoArgs,
		RunE:  runCleanup,
	}
	cleanupCmd.Flags().StringVar(&prefix, "prefix", "", "directory prefix (default from config)")
	cleanupCmd.Flags().IntVar(&keep, "keep", -1, "number of directories to keep (default from config)")
	rootCmd.AddCommand(cleanupCmd)

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded tool runs",
		Args:  cobra.NoArgs,
		RunE:  runHistory,
	}
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum number of runs")
	historyCmd.Flags().StringVar(&historyTool, "tool", "", "filter by tool ("+strings.Join([]string{history.ToolCommitter, history.ToolSmoke, history.ToolCleanup}, ", ")+")")
	rootCmd.AddCommand(historyCmd)
}

type env struct {
	cfg     *config.Config
	logger  *zap.Logger
	manager *resultdir.Manager
}

// setup loads config and builds the manager; progress receives the
// manager's human-readable lines
func setup(cmd *cobra.Command, progress io.Writer) (*env, error) {
	path := configPath
	if path == "" {
		path = config.DefaultConfigPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format, verbose)
	if err != nil {
		return nil, err
	}

	dir := cfg.General.ResultsDir
	if baseDir != "" {
		dir = config.ExpandPath(baseDir)
	}
	manager, err := resultdir.New(dir,
		resultdir.WithOutput(progress),
		resultdir.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, logger: logger, manager: manager}, nil
}

func (e *env) prefix() string {
	if prefix != "" {
		return prefix
	}
	return e.cfg.General.Prefix
}

func runSelfTest(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	path, err := e.manager.Create(selfTestPrefix)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Created: %s\n", path)

	recent, err := e.manager.List(e.cfg.General.Prefix, e.cfg.General.ListLimit)
	if err != nil {
		return err
	}
	names := make([]string, 0, len(recent))
	for _, entry := range recent {
		names = append(names, entry.Name)
	}
	fmt.Fprintf(out, "Recent directories: [%s]\n", strings.Join(names, ", "))
	return nil
}

func runCreate(cmd *cobra.Command, args []string) error {
	// stdout carries only the path so scripts can capture it
	e, err := setup(cmd, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	path, err := e.manager.Create(e.prefix())
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}

func runLatest(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	entry, ok, err := e.manager.Latest(e.prefix())
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no directories matching %q in %s", e.prefix()+"-*", e.manager.BaseDir())
	}
	fmt.Fprintln(cmd.OutOrStdout(), entry.Path)
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	limit := listLimit
	if limit < 0 {
		limit = e.cfg.General.ListLimit
	}
	entries, err := e.manager.List(e.prefix(), limit)
	if err != nil {
		return err
	}
	return printEntries(cmd.OutOrStdout(), entries, outputFormat)
}

func printEntries(w io.Writer, entries []resultdir.Entry, format string) error {
	if entries == nil {
		entries = []resultdir.Entry{}
	}
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(entries); err != nil {
			return err
		}
		return enc.Close()
	case "table", "":
		if len(entries) == 0 {
			fmt.Fprintln(w, "No directories found")
			return nil
		}
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tMODIFIED\tPATH")
		for _, e := range entries {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Name, e.ModTime.Format("2006-01-02 15:04:05"), e.Path)
		}
		return tw.Flush()
	default:
		return fmt.Errorf("unknown output format %q (want table, json or yaml)", format)
	}
}

func runCleanup(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	n := keep
	if n < 0 {
		n = e.cfg.General.Keep
	}

	run := history.NewRun(history.ToolCleanup, e.prefix())
	removed, err := e.manager.Cleanup(e.prefix(), n)
	if err != nil {
		run.Finish(false, err.Error())
		history.Record(e.cfg.General.HistoryDB, run, e.logger)
		notify.SendLogged(notify.FromWebhook(e.cfg.Notifications.SlackWebhook), notify.Notification{
			Title:   "Result directory cleanup failed",
			Message: err.Error(),
			Type:    notify.NotifyWarning,
			Tool:    history.ToolCleanup,
			Subject: e.manager.BaseDir(),
		}, e.logger)
		return err
	}
	run.Finish(true, fmt.Sprintf("removed %d, kept %d", removed, n))
	history.Record(e.cfg.General.HistoryDB, run, e.logger)
	return nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	if e.cfg.General.HistoryDB == "" {
		return fmt.Errorf("run history is disabled; set general.history_db or %s", config.EnvHistoryDB)
	}

	store, err := history.New(e.cfg.General.HistoryDB)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.ListRuns(history.ListOptions{Tool: historyTool, Limit: historyLimit})
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tTOOL\tRESULT\tSUBJECT\tDETAIL")
	for _, r := range runs {
		result := "ok"
		if !r.Success {
			result = "FAILED"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			r.StartedAt.Format("2006-01-02 15:04:05"), r.Tool, result, r.Subject, r.Detail)
	}
	return tw.Flush()
}
