package committer

import (
	"fmt"
)

// Backend names, matching config.BackendGitCLI and config.BackendGoGit
const (
	BackendGitCLI = "git"
	BackendGoGit  = "go-git"
)

// RepoOptions selects and configures a Repo implementation
type RepoOptions struct {
	Backend     string
	GitBinary   string
	Dir         string
	AuthorName  string
	AuthorEmail string
}

// OpenRepo returns the Repo for the configured backend
func OpenRepo(opts RepoOptions) (Repo, error) {
	switch opts.Backend {
	case "", BackendGitCLI:
		return NewGitCLI(opts.GitBinary, opts.Dir), nil
	case BackendGoGit:
		return OpenGoGit(opts.Dir, opts.AuthorName, opts.AuthorEmail)
	default:
		return nil, fmt.Errorf("unknown backend %q", opts.Backend)
	}
}
