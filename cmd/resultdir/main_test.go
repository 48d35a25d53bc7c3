package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hochfrequenz/workflow-results/internal/resultdir"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func execute(t *testing.T, base string, args ...string) (string, string, error) {
	t.Helper()
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	for _, c := range append(rootCmd.Commands(), rootCmd) {
		c.Flags().VisitAll(reset)
	}
	rootCmd.PersistentFlags().VisitAll(reset)

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(append(args, "--config", filepath.Join(t.TempDir(), "none.toml"), "--base-dir", base))
	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func seed(t *testing.T, base, prefix string, n int) []string {
	t.Helper()
	start := time.Date(2025, 6, 1, 8, 0, 0, 0, time.Local)
	var names []string
	for i := 0; i < n; i++ {
		ts := start.Add(-time.Duration(i) * time.Minute)
		name := prefix + "-" + ts.Format(resultdir.TimestampLayout)
		path := filepath.Join(base, name)
		require.NoError(t, os.MkdirAll(path, 0755))
		require.NoError(t, os.Chtimes(path, ts, ts))
		names = append(names, name)
	}
	return names
}

func TestSelfTest(t *testing.T) {
	base := filepath.Join(t.TempDir(), "results")
	names := seed(t, base, "workflow", 2)

	out, _, err := execute(t, base)
	require.NoError(t, err)

	assert.Contains(t, out, "Created directory: "+filepath.Join(base, "test-run-"))
	assert.Contains(t, out, "Created: "+filepath.Join(base, "test-run-"))
	assert.Contains(t, out, "Recent directories: ["+names[0]+", "+names[1]+"]")
}

func TestCreate_PrintsPathOnly(t *testing.T) {
	base := t.TempDir()

	out, progress, err := execute(t, base, "create", "--prefix", "nightly")
	require.NoError(t, err)

	path := strings.TrimSpace(out)
	assert.True(t, strings.HasPrefix(filepath.Base(path), "nightly-"), path)
	assert.DirExists(t, path)
	assert.Contains(t, progress, "Created directory: ")
}

func TestLatest(t *testing.T) {
	base := t.TempDir()

	_, _, err := execute(t, base, "latest")
	assert.Error(t, err)

	names := seed(t, base, "workflow", 3)
	out, _, err := execute(t, base, "latest")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, names[0]), strings.TrimSpace(out))
}

func TestList_Formats(t *testing.T) {
	base := t.TempDir()
	names := seed(t, base, "workflow", 10)

	out, _, err := execute(t, base, "list", "--limit", "3", "--output", "json")
	require.NoError(t, err)
	var fromJSON []resultdir.Entry
	require.NoError(t, json.Unmarshal([]byte(out), &fromJSON))
	require.Len(t, fromJSON, 3)
	assert.Equal(t, names[0], fromJSON[0].Name)
	assert.Equal(t, names[2], fromJSON[2].Name)

	out, _, err = execute(t, base, "list", "--limit", "2", "-o", "yaml")
	require.NoError(t, err)
	var fromYAML []resultdir.Entry
	require.NoError(t, yaml.Unmarshal([]byte(out), &fromYAML))
	require.Len(t, fromYAML, 2)
	assert.Equal(t, names[1], fromYAML[1].Name)

	out, _, err = execute(t, base, "list")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 11, "header plus the config default of 10")
	assert.True(t, strings.HasPrefix(lines[0], "NAME"))

	_, _, err = execute(t, base, "list", "-o", "xml")
	assert.Error(t, err)
}

func TestCleanup(t *testing.T) {
	base := t.TempDir()
	names := seed(t, base, "workflow", 7)

	out, _, err := execute(t, base, "cleanup", "--keep", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "Cleaned up 2 old directories")
	assert.NoDirExists(t, filepath.Join(base, names[5]))
	assert.NoDirExists(t, filepath.Join(base, names[6]))
	assert.DirExists(t, filepath.Join(base, names[4]))

	out, _, err = execute(t, base, "cleanup")
	require.NoError(t, err)
	assert.Contains(t, out, "Only 5 directories found, no cleanup needed")
}

func TestHistory_Disabled(t *testing.T) {
	t.Setenv("WFR_HISTORY_DB", "")
	_, _, err := execute(t, t.TempDir(), "history")
	assert.Error(t, err)
}
