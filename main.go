package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/PoorlyDefinedBehaviour/testng_to_jupiter/src/apply"
	"github.com/PoorlyDefinedBehaviour/testng_to_jupiter/src/apply/github"
	"github.com/PoorlyDefinedBehaviour/testng_to_jupiter/src/config"
	"github.com/PoorlyDefinedBehaviour/testng_to_jupiter/src/logger"
	"github.com/PoorlyDefinedBehaviour/testng_to_jupiter/src/testng"
	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
)

type args struct {
	Dir         string `long:"dir" description:"directory where the tests should be migrated"`
	Config      string `long:"config" description:"config file, defaults to .testng-to-jupiter.yml in --dir"`
	DryRun      bool   `long:"dry-run" description:"print a diff instead of modifying the files"`
	Jobs        int    `long:"jobs" description:"files migrated at the same time"`
	Recipes     string `long:"recipes" description:"comma separated recipes to run, every recipe when empty"`
	ListRecipes bool   `long:"list-recipes" description:"list the recipes and exit"`
	StrictTypes bool   `long:"strict-types" description:"only swap assertEquals operands whose types are known"`
	LogLevel    string `long:"log-level" description:"debug, info, warn or error" default:"info"`

	GithubToken string `long:"github_token" description:"token used to clone the repositories and open the pull requests"`
	Repos       string `long:"repos" description:"comma separated repositories to open pull requests against"`
	Branch      string `long:"branch" description:"branch the pull requests target"`
	Confirm     bool   `long:"confirm" description:"ask before opening each pull request"`
}

func splitList(s string) []string {
	out := make([]string, 0)

	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}

		out = append(out, item)
	}

	return out
}

func loadConfig(args args) (config.Config, error) {
	path := args.Config
	if path == "" {
		path = filepath.Join(args.Dir, config.FileName)
	} else if _, err := os.Stat(path); err != nil {
		return config.Config{}, errors.WithStack(err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		return cfg, errors.WithStack(err)
	}

	// Flags win over the config file.
	if args.Jobs > 0 {
		cfg.Jobs = args.Jobs
	}
	if args.Recipes != "" {
		cfg.Recipes = splitList(args.Recipes)
	}
	if args.StrictTypes {
		cfg.StrictTypes = true
	}
	if args.Branch != "" {
		cfg.GitHub.Branch = args.Branch
	}
	if args.Confirm {
		cfg.GitHub.Confirm = true
	}

	if err := cfg.Validate(); err != nil {
		return cfg, errors.WithStack(err)
	}

	return cfg, nil
}

func listRecipes() {
	for _, recipe := range testng.Recipes(testng.Options{}) {
		fmt.Printf("%s\n    %s\n    %s\n", recipe.ID, recipe.Name, recipe.Description)
	}
}

func run(ctx context.Context, args args) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return errors.WithStack(err)
	}

	pipeline, err := testng.Pipeline(cfg.Recipes, cfg.Options())
	if err != nil {
		return errors.WithStack(err)
	}

	codemods := apply.FromRecipes(pipeline)

	repos := splitList(args.Repos)
	if len(repos) == 0 {
		_, err := apply.Locally(ctx, apply.Options{
			Dir:          args.Dir,
			Codemods:     codemods,
			Include:      cfg.Include,
			Exclude:      cfg.Exclude,
			Replacements: cfg.Replacements,
			Jobs:         cfg.Jobs,
			DryRun:       args.DryRun,
			Out:          os.Stdout,
		})

		return errors.WithStack(err)
	}

	target := apply.Target{
		AccessToken:  args.GithubToken,
		Codemods:     codemods,
		Title:        cfg.GitHub.Title,
		Draft:        cfg.GitHub.Draft,
		AuthorName:   cfg.GitHub.AuthorName,
		AuthorEmail:  cfg.GitHub.AuthorEmail,
		Confirm:      cfg.GitHub.Confirm,
		Include:      cfg.Include,
		Exclude:      cfg.Exclude,
		Replacements: cfg.Replacements,
		Jobs:         cfg.Jobs,
	}

	for _, repo := range repos {
		if err := github.ValidateRepoURL(repo); err != nil {
			return errors.WithStack(err)
		}

		target.Repositories = append(target.Repositories, apply.Repository{
			URL:    repo,
			Branch: cfg.GitHub.Branch,
		})
	}

	return errors.WithStack(apply.Codemods(ctx, target))
}

/*
USAGE:

go run main.go --dir=./my-service --dry-run

go run main.go \
--github_token=token \
--repos=https://github.com/PoorlyDefinedBehaviour/repo_1,https://github.com/PoorlyDefinedBehaviour/repo_2 \
--branch=main \
--confirm
*/
func main() {
	var args args

	_, err := flags.NewParser(&args, flags.Default).ParseArgs(os.Args[1:])
	if flags.WroteHelp(err) {
		return
	}
	if err != nil {
		os.Exit(2)
	}

	if args.ListRecipes {
		listRecipes()
		return
	}

	level, err := logger.ParseLevel(args.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger.Setup(level, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, args); err != nil {
		slog.Error("migration failed", "error", err)
		slog.Debug("migration failed", "stack", fmt.Sprintf("%+v", err))
		stop()
		os.Exit(1)
	}
}
