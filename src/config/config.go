package config

import (
	"io"
	"os"
	"regexp"
	"runtime"
	"strings"

	"github.com/PoorlyDefinedBehaviour/testng_to_jupiter/src/testng"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// FileName is looked up in the migrated directory when no config path is given.
const FileName = ".testng-to-jupiter.yml"

var ErrInvalidConfig = errors.New("invalid config")

type GitHub struct {
	// Branch the pull requests are opened against.
	Branch      string `yaml:"branch"`
	Title       string `yaml:"title"`
	Draft       bool   `yaml:"draft"`
	Confirm     bool   `yaml:"confirm"`
	AuthorName  string `yaml:"authorName"`
	AuthorEmail string `yaml:"authorEmail"`
}

type Config struct {
	// Recipes to run, every recipe when empty. They always run in pipeline order.
	Recipes []string `yaml:"recipes"`
	Include []string `yaml:"include"`
	Exclude []string `yaml:"exclude"`
	// StrictTypes only swaps assertEquals operands whose types are known.
	StrictTypes bool     `yaml:"strictTypes"`
	VerifyTypes []string `yaml:"verifyTypes"`
	Jobs        int      `yaml:"jobs"`
	// Replacements are regexes applied to every file before the recipes.
	Replacements map[string]string `yaml:"replacements"`
	GitHub       GitHub            `yaml:"github"`
}

func Default() Config {
	return Config{
		Include: []string{"**/*.java"},
		Jobs:    runtime.NumCPU(),
		GitHub: GitHub{
			Branch: "main",
		},
	}
}

// Load reads the config at path on top of the defaults.
// A missing file is not an error, the defaults are returned.
func Load(path string) (Config, error) {
	cfg := Default()

	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, errors.WithStack(err)
	}
	defer file.Close()

	cfg, err = Parse(file)
	if err != nil {
		return cfg, errors.Wrapf(err, "reading %s", path)
	}

	return cfg, nil
}

// Parse decodes a config on top of the defaults, unknown keys are rejected.
func Parse(r io.Reader) (Config, error) {
	cfg := Default()

	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)

	err := decoder.Decode(&cfg)
	if err != nil && !errors.Is(err, io.EOF) {
		return cfg, errors.WithStack(err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

func (cfg Config) Validate() error {
	problems := make([]string, 0)

	if cfg.Jobs < 1 {
		problems = append(problems, "jobs must be at least 1")
	}

	if _, err := testng.Pipeline(cfg.Recipes, testng.Options{}); err != nil {
		problems = append(problems, err.Error())
	}

	for _, pattern := range append(append([]string{}, cfg.Include...), cfg.Exclude...) {
		if !doublestar.ValidatePattern(pattern) {
			problems = append(problems, "invalid pattern "+pattern)
		}
	}

	for pattern := range cfg.Replacements {
		if _, err := regexp.Compile(pattern); err != nil {
			problems = append(problems, err.Error())
		}
	}

	if len(problems) > 0 {
		return errors.Wrap(ErrInvalidConfig, strings.Join(problems, "; "))
	}

	return nil
}

// Options returns the recipe options the config describes.
func (cfg Config) Options() testng.Options {
	return testng.Options{
		StrictTypes: cfg.StrictTypes,
		VerifyTypes: cfg.VerifyTypes,
	}
}
