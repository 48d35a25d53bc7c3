package committer

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// ErrNothingToCommit mirrors git commit exiting 1 on a clean index
var ErrNothingToCommit = errors.New("nothing to commit, working tree clean")

// GoGit stages and commits in-process with go-git
type GoGit struct {
	repo        *git.Repository
	authorName  string
	authorEmail string
}

// OpenGoGit opens the repository containing dir (searching parents for .git).
// An empty author falls back to the user settings in git config.
func OpenGoGit(dir, authorName, authorEmail string) (*GoGit, error) {
	if dir == "" {
		dir = "."
	}
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("opening repository at %s: %w", dir, err)
	}
	return &GoGit{repo: repo, authorName: authorName, authorEmail: authorEmail}, nil
}

// Add stages path, recursing into directories
func (g *GoGit) Add(path string) error {
	wt, err := g.repo.Worktree()
	if err != nil {
		return err
	}

	rel, err := relativeTo(wt.Filesystem.Root(), path)
	if err != nil {
		return err
	}

	opts := &git.AddOptions{Path: filepath.ToSlash(rel)}
	if rel == "." {
		opts = &git.AddOptions{All: true}
	}
	if err := wt.AddWithOptions(opts); err != nil {
		return fmt.Errorf("git add %s: %w", rel, err)
	}
	return nil
}

// Commit records the staged changes
func (g *GoGit) Commit(message string) error {
	wt, err := g.repo.Worktree()
	if err != nil {
		return err
	}

	status, err := wt.Status()
	if err != nil {
		return fmt.Errorf("git status: %w", err)
	}
	if !hasStaged(status) {
		return fmt.Errorf("git commit: %w", ErrNothingToCommit)
	}

	opts := &git.CommitOptions{}
	if g.authorName != "" || g.authorEmail != "" {
		opts.Author = &object.Signature{
			Name:  g.authorName,
			Email: g.authorEmail,
			When:  time.Now(),
		}
	}

	if _, err := wt.Commit(message, opts); err != nil {
		return fmt.Errorf("git commit: %w", err)
	}
	return nil
}

// Head returns the current HEAD commit hash
func (g *GoGit) Head() (string, error) {
	ref, err := g.repo.Head()
	if err != nil {
		return "", err
	}
	return ref.Hash().String(), nil
}

func hasStaged(status git.Status) bool {
	for _, s := range status {
		if s.Staging != git.Unmodified && s.Staging != git.Untracked {
			return true
		}
	}
	return false
}

func relativeTo(root, path string) (string, error) {
	absRoot, err := resolve(root)
	if err != nil {
		return "", err
	}
	absPath, err := resolve(path)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(absRoot, absPath)
	if err != nil {
		return "", err
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s is outside the repository at %s", path, root)
	}
	return rel, nil
}

func resolve(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	if real, err := filepath.EvalSymlinks(abs); err == nil {
		return real, nil
	}
	return abs, nil
}
