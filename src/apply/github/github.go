package github

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport/http"

	googlegithub "github.com/google/go-github/v39/github"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"
)

var ErrInvalidRepoURL = errors.New("invalid repository url")

type Config struct {
	AccessToken string
	// AuthorName and AuthorEmail sign the commits, git's defaults are used when empty.
	AuthorName  string
	AuthorEmail string
}

type T struct {
	cfg    Config
	client *googlegithub.Client
}

func New(ctx context.Context, cfg Config) *T {
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: cfg.AccessToken},
	)
	tc := oauth2.NewClient(ctx, ts)

	client := googlegithub.NewClient(tc)

	return &T{
		cfg:    cfg,
		client: client,
	}
}

func (github *T) auth() *http.BasicAuth {
	return &http.BasicAuth{
		Username: "_",
		Password: github.cfg.AccessToken,
	}
}

// Repository is a local clone.
type Repository struct {
	github   *T
	repo     *git.Repository
	worktree *git.Worktree
}

type CloneOptions struct {
	RepoURL string
	Folder  string
	// Branch is checked out after cloning, the remote HEAD when empty.
	Branch string
}

func (github *T) Clone(ctx context.Context, options CloneOptions) (out Repository, err error) {
	cloneOptions := &git.CloneOptions{
		URL:               options.RepoURL,
		RecurseSubmodules: git.DefaultSubmoduleRecursionDepth,
		Auth:              github.auth(),
	}
	if options.Branch != "" {
		cloneOptions.ReferenceName = plumbing.NewBranchReferenceName(options.Branch)
		cloneOptions.SingleBranch = true
	}

	repo, err := git.PlainCloneContext(ctx, options.Folder, false, cloneOptions)
	if err != nil {
		return out, errors.Wrapf(err, "git clone %s", options.RepoURL)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return out, errors.WithStack(err)
	}

	out = Repository{
		github:   github,
		repo:     repo,
		worktree: worktree,
	}

	return out, nil
}

type CheckoutOptions struct {
	Branch string
	Create bool
	Force  bool
}

func (repo *Repository) Checkout(options CheckoutOptions) error {
	err := repo.worktree.Checkout(&git.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName(options.Branch),
		Create: options.Create,
		Force:  options.Force,
	})
	if err != nil {
		return errors.Wrapf(err, "git checkout %s", options.Branch)
	}

	return nil
}

type AddOptions struct {
	All bool
}

func (repo *Repository) Add(options AddOptions) error {
	err := repo.worktree.AddWithOptions(&git.AddOptions{All: options.All})
	if err != nil {
		return errors.WithStack(err)
	}

	return nil
}

// FilesAffected returns the paths with staged or unstaged changes, sorted.
func (repo *Repository) FilesAffected() ([]string, error) {
	status, err := repo.worktree.Status()
	if err != nil {
		return nil, errors.WithStack(err)
	}

	files := make([]string, 0, len(status))

	for fileName, fileStatus := range status {
		if fileStatus.Staging == git.Unmodified && fileStatus.Worktree == git.Unmodified {
			continue
		}

		files = append(files, fileName)
	}

	sort.Strings(files)

	return files, nil
}

type CommitOptions struct {
	All bool
}

func (repo *Repository) Commit(message string, options CommitOptions) error {
	commitOptions := &git.CommitOptions{All: options.All}

	cfg := repo.github.cfg
	if cfg.AuthorName != "" {
		commitOptions.Author = &object.Signature{
			Name:  cfg.AuthorName,
			Email: cfg.AuthorEmail,
			When:  time.Now(),
		}
	}

	_, err := repo.worktree.Commit(message, commitOptions)
	if err != nil {
		return errors.WithStack(err)
	}

	return nil
}

// Push pushes branch to origin.
func (repo *Repository) Push(ctx context.Context, branch string) error {
	refSpec := gitconfig.RefSpec(fmt.Sprintf("refs/heads/%s:refs/heads/%s", branch, branch))

	err := repo.repo.PushContext(ctx, &git.PushOptions{
		RefSpecs: []gitconfig.RefSpec{refSpec},
		Auth:     repo.github.auth(),
	})
	if err != nil {
		return errors.Wrapf(err, "git push %s", branch)
	}

	return nil
}

type PullRequestOptions struct {
	RepoURL     string
	Title       string
	FromBranch  string
	ToBranch    string
	Description string
	Draft       bool
}

func (github *T) PullRequest(ctx context.Context, options PullRequestOptions) (*googlegithub.PullRequest, error) {
	repoInfo, err := parseRepoURL(options.RepoURL)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	pullRequest, _, err := github.client.PullRequests.Create(ctx, repoInfo.Owner, repoInfo.Name, &googlegithub.NewPullRequest{
		Title:               googlegithub.String(options.Title),
		Head:                googlegithub.String(options.FromBranch),
		Base:                googlegithub.String(options.ToBranch),
		Body:                googlegithub.String(options.Description),
		MaintainerCanModify: googlegithub.Bool(true),
		Draft:               googlegithub.Bool(options.Draft),
	})
	if err != nil {
		return pullRequest, errors.WithStack(err)
	}

	return pullRequest, nil
}

type RepoInfo struct {
	Owner string
	Name  string
}

func filterOutEmptyStrings(ss []string) []string {
	out := make([]string, 0)

	for _, s := range ss {
		if s == "" {
			continue
		}

		out = append(out, s)
	}

	return out
}

func parseRepoURL(repoURL string) (RepoInfo, error) {
	parsedURL, err := url.Parse(repoURL)
	if err != nil {
		return RepoInfo{}, errors.Wrapf(ErrInvalidRepoURL, "%s: %s", repoURL, err)
	}

	parts := filterOutEmptyStrings(strings.Split(parsedURL.Path, "/"))
	if parsedURL.Host == "" || len(parts) < 2 {
		return RepoInfo{}, errors.Wrapf(ErrInvalidRepoURL, "%s: expected https://host/owner/name", repoURL)
	}

	return RepoInfo{
		Owner: parts[0],
		Name:  strings.TrimSuffix(parts[1], ".git"),
	}, nil
}

// ValidateRepoURL returns ErrInvalidRepoURL when pull requests can't be opened against repoURL.
func ValidateRepoURL(repoURL string) error {
	_, err := parseRepoURL(repoURL)
	return err
}
