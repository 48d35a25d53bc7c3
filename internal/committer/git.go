package committer

import (
	"bytes"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// GitCLI stages and commits by running the git binary
type GitCLI struct {
	Binary string // defaults to "git"
	Dir    string // working directory for git; empty means cwd
}

// NewGitCLI creates a GitCLI rooted at dir
func NewGitCLI(binary, dir string) *GitCLI {
	return &GitCLI{Binary: binary, Dir: dir}
}

// Add runs git add on path
func (g *GitCLI) Add(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	return g.run("add", abs)
}

// Commit runs git commit -m message
func (g *GitCLI) Commit(message string) error {
	return g.run("commit", "-m", message)
}

func (g *GitCLI) run(args ...string) error {
	binary := g.Binary
	if binary == "" {
		binary = "git"
	}

	cmd := exec.Command(binary, args...)
	cmd.Dir = g.Dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		// git commit reports "nothing to commit" on stdout
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = strings.TrimSpace(stdout.String())
		}
		return fmt.Errorf("git %s: %s: %w", args[0], msg, err)
	}
	return nil
}
