package apply

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/PoorlyDefinedBehaviour/testng_to_jupiter/src/apply/github"
	"github.com/PoorlyDefinedBehaviour/testng_to_jupiter/src/codemod"
	"github.com/PoorlyDefinedBehaviour/testng_to_jupiter/src/testng"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	input "github.com/tcnksm/go-input"
	"golang.org/x/sync/errgroup"
)

const tempFolder = "./codemod_tmp"

type Codemod struct {
	ID          string
	Description string
	Transform   func(file *codemod.SourceFile) (codemod.Result, error)
}

// FromRecipes turns the migration recipes into codemods, keeping their order.
func FromRecipes(recipes []testng.Recipe) []Codemod {
	out := make([]Codemod, 0, len(recipes))

	for _, recipe := range recipes {
		out = append(out, Codemod{
			ID:          recipe.ID,
			Description: recipe.Name,
			Transform:   recipe.Apply,
		})
	}

	return out
}

type Options struct {
	Dir      string
	Codemods []Codemod
	// Include and Exclude are doublestar patterns matched against paths relative to Dir.
	Include []string
	Exclude []string
	// Replacements maps regexes to what their matches are replaced with,
	// applied to every file before the codemods.
	Replacements map[string]string
	Jobs         int
	// DryRun writes unified diffs to Out instead of modifying the files.
	DryRun bool
	Out    io.Writer
}

type FileReport struct {
	Path    string
	Changed bool
	Skipped bool
	// Err is why the codemods failed on this file, which is left untouched.
	Err     error
	Result  codemod.Result

	source []byte
	diff   []byte
}

type Summary struct {
	Files []FileReport
}

func (summary Summary) Changed() []string {
	out := make([]string, 0)

	for _, file := range summary.Files {
		if file.Changed {
			out = append(out, file.Path)
		}
	}

	return out
}

func (summary Summary) Skipped() []string {
	out := make([]string, 0)

	for _, file := range summary.Files {
		if file.Skipped {
			out = append(out, file.Path)
		}
	}

	return out
}

func (summary Summary) Failed() []string {
	out := make([]string, 0)

	for _, file := range summary.Files {
		if file.Err != nil {
			out = append(out, file.Path)
		}
	}

	return out
}

func (summary Summary) Migrated() int {
	migrated := 0

	for _, file := range summary.Files {
		migrated += file.Result.Migrated
	}

	return migrated
}

// Diagnostics returns the diagnostics at or above level.
func (summary Summary) Diagnostics(level slog.Level) []codemod.Diagnostic {
	out := make([]codemod.Diagnostic, 0)

	for _, file := range summary.Files {
		for _, diagnostic := range file.Result.Diagnostics {
			if diagnostic.Kind.Level() >= level {
				out = append(out, diagnostic)
			}
		}
	}

	return out
}

// Traverses `options.Dir` and applies each codemod to each Java file in
// `options.Dir` and its subdirectories, `options.Jobs` files at a time.
//
// Files with syntax errors are skipped. A codemod failing on a file only
// fails that file, the others are still migrated.
func applyCodemodsToDirectory(ctx context.Context, options Options) (Summary, error) {
	// If we have nothing to do with the repository files,
	// we won't waste time traversing the directory.
	if len(options.Replacements) == 0 && len(options.Codemods) == 0 {
		return Summary{}, nil
	}

	replacements, err := compileRegexes(options.Replacements)
	if err != nil {
		return Summary{}, errors.WithStack(err)
	}

	paths, err := javaFiles(options.Dir, options.Include, options.Exclude)
	if err != nil {
		return Summary{}, errors.WithStack(err)
	}

	summary := Summary{Files: make([]FileReport, len(paths))}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(max(options.Jobs, 1))

	for i, path := range paths {
		i, path := i, path
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return errors.WithStack(err)
			}

			fullPath := filepath.Join(options.Dir, filepath.FromSlash(path))

			sourceCode, err := os.ReadFile(fullPath)
			if err != nil {
				return errors.WithStack(err)
			}

			report, err := migrateSource(path, sourceCode, replacements, options.Codemods)
			if errors.Is(err, ErrSyntaxErrors) {
				slog.WarnContext(groupCtx, "skipping file with syntax errors", "file", path)
				summary.Files[i] = FileReport{Path: path, Skipped: true}
				return nil
			}
			if err != nil {
				slog.ErrorContext(groupCtx, "couldn't migrate file", "file", path, "error", err)
				summary.Files[i] = FileReport{Path: path, Err: err}
				return nil
			}

			if report.Changed && !options.DryRun {
				if err := writeFile(fullPath, report.source); err != nil {
					return errors.WithStack(err)
				}
			}

			if report.Changed && options.DryRun && options.Out != nil {
				report.diff, err = unifiedDiff(path, sourceCode, report.source)
				if err != nil {
					return errors.WithStack(err)
				}
			}

			summary.Files[i] = report

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return summary, errors.WithStack(err)
	}

	for _, file := range summary.Files {
		for _, diagnostic := range file.Result.Diagnostics {
			slog.Log(ctx, diagnostic.Kind.Level(), diagnostic.Message,
				"kind", diagnostic.Kind,
				"file", diagnostic.Path,
				"line", diagnostic.Line,
				"column", diagnostic.Column,
			)
		}

		// Diffs are written once every file is done so they keep the path order.
		if len(file.diff) > 0 {
			if _, err := options.Out.Write(file.diff); err != nil {
				return summary, errors.WithStack(err)
			}
		}
	}

	return summary, nil
}

var (
	ErrDirIsRequired = errors.New("directory where codemods should be applied is required")
	ErrFilesFailed   = errors.New("codemods failed on some files")
)

// Locally applies the codemods to the files in `options.Dir`.
func Locally(ctx context.Context, options Options) (Summary, error) {
	if options.Dir == "" {
		return Summary{}, errors.WithStack(ErrDirIsRequired)
	}

	info, err := os.Stat(options.Dir)
	if err != nil {
		return Summary{}, errors.WithStack(err)
	}
	if !info.IsDir() {
		return Summary{}, errors.Errorf("%s is not a directory", options.Dir)
	}

	summary, err := applyCodemodsToDirectory(ctx, options)
	if err != nil {
		return summary, errors.WithStack(err)
	}

	if !options.DryRun {
		for _, path := range summary.Changed() {
			fmt.Printf("%s %s\n", color.GreenString("[MIGRATED]"), path)
		}
	}

	slog.InfoContext(ctx, "migration finished",
		"files", len(summary.Files),
		"changed", len(summary.Changed()),
		"skipped", len(summary.Skipped()),
		"failed", len(summary.Failed()),
		"migrated", summary.Migrated(),
		"warnings", len(summary.Diagnostics(slog.LevelWarn)),
	)

	if failed := summary.Failed(); len(failed) > 0 {
		return summary, errors.Wrap(ErrFilesFailed, strings.Join(failed, ", "))
	}

	return summary, nil
}

type Repository struct {
	URL    string
	Branch string
}

type Target struct {
	AccessToken  string
	Repositories []Repository
	Codemods     []Codemod

	// Title of the pull requests.
	Title string
	Draft bool
	// AuthorName and AuthorEmail sign the commits.
	AuthorName  string
	AuthorEmail string
	// Confirm asks before pushing each repository's changes.
	Confirm bool
	// UI is used to ask for confirmation, input.DefaultUI() when nil.
	UI *input.UI

	Include      []string
	Exclude      []string
	Replacements map[string]string
	Jobs         int
}

const defaultTitle = "[AUTO GENERATED] migrate TestNG tests to JUnit Jupiter"

// Codemods clones each repository, applies the codemods in a new branch and
// opens a pull request against the repository branch.
func Codemods(ctx context.Context, target Target) error {
	githubClient := github.New(ctx, github.Config{
		AccessToken: target.AccessToken,
		AuthorName:  target.AuthorName,
		AuthorEmail: target.AuthorEmail,
	})

	for _, repository := range target.Repositories {
		if err := codemodRepository(ctx, githubClient, &target, repository); err != nil {
			return errors.Wrapf(err, "applying codemods to %s", repository.URL)
		}
	}

	return nil
}

func codemodRepository(ctx context.Context, githubClient *github.T, target *Target, repository Repository) error {
	if err := os.RemoveAll(tempFolder); err != nil {
		return errors.WithStack(err)
	}
	defer os.RemoveAll(tempFolder)

	repo, err := githubClient.Clone(ctx, github.CloneOptions{
		RepoURL: repository.URL,
		Folder:  tempFolder,
		Branch:  repository.Branch,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	codemodBranch := "testng-to-jupiter/" + uuid.New().String()

	err = repo.Checkout(github.CheckoutOptions{
		Branch: codemodBranch,
		Create: true,
		Force:  true,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	summary, err := applyCodemodsToDirectory(ctx, Options{
		Dir:          tempFolder,
		Codemods:     target.Codemods,
		Include:      target.Include,
		Exclude:      target.Exclude,
		Replacements: target.Replacements,
		Jobs:         target.Jobs,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	err = repo.Add(github.AddOptions{
		All: true,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	filesAffected, err := repo.FilesAffected()
	if err != nil {
		return errors.WithStack(err)
	}
	if len(filesAffected) == 0 {
		fmt.Printf("%s %s\n", color.RedString("[NOT CHANGED]"), repository.URL)
		return nil
	}

	for _, path := range summary.Failed() {
		fmt.Printf("%s %s\n", color.RedString("[FAILED]"), path)
	}

	for _, diagnostic := range summary.Diagnostics(slog.LevelWarn) {
		fmt.Printf("%s %s\n", color.YellowString("[WARN]"), diagnostic)
	}

	if target.Confirm {
		ui := target.UI
		if ui == nil {
			ui = input.DefaultUI()
		}

		question := fmt.Sprintf("%d files changed in %s, open a pull request?", len(filesAffected), repository.URL)

		ok, err := confirm(ui, question)
		if err != nil {
			return errors.WithStack(err)
		}
		if !ok {
			fmt.Printf("%s %s\n", color.YellowString("[SKIPPED]"), repository.URL)
			return nil
		}
	}

	err = repo.Commit(
		"migrate TestNG tests to JUnit Jupiter",
		github.CommitOptions{All: true},
	)
	if err != nil {
		return errors.WithStack(err)
	}

	err = repo.Push(ctx, codemodBranch)
	if err != nil {
		return errors.WithStack(err)
	}

	title := target.Title
	if title == "" {
		title = defaultTitle
	}

	pullRequest, err := githubClient.PullRequest(ctx, github.PullRequestOptions{
		RepoURL:     repository.URL,
		Title:       title,
		FromBranch:  codemodBranch,
		ToBranch:    repository.Branch,
		Description: buildDescription(target, summary),
		Draft:       target.Draft,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	fmt.Printf("%s %s\n", color.GreenString("[CREATED]"), pullRequest.GetHTMLURL())

	return nil
}

func confirm(ui *input.UI, question string) (bool, error) {
	answer, err := ui.Ask(question+" [y/N]", &input.Options{
		Default:   "n",
		HideOrder: true,
		Loop:      true,
		ValidateFunc: func(answer string) error {
			switch strings.ToLower(answer) {
			case "y", "yes", "n", "no":
				return nil
			default:
				return errors.Errorf("answer y or n, got %q", answer)
			}
		},
	})
	if err != nil {
		return false, errors.WithStack(err)
	}

	answer = strings.ToLower(answer)

	return answer == "y" || answer == "yes", nil
}

func buildDescription(target *Target, summary Summary) string {
	builder := strings.Builder{}

	builder.WriteString("Applied the following codemods:\n\n")

	for i, codemod := range target.Codemods {
		builder.WriteString(fmt.Sprintf("λ %s", codemod.Description))

		if i < len(target.Codemods)-1 {
			builder.WriteString("\n\n")
		}
	}

	diagnostics := summary.Diagnostics(slog.LevelWarn)
	if len(diagnostics) == 0 {
		return builder.String()
	}

	builder.WriteString("\n\nNeeds manual review:\n")

	for _, diagnostic := range diagnostics {
		builder.WriteString(fmt.Sprintf("\n- `%s`", diagnostic))
	}

	return builder.String()
}
