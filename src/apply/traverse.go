package apply

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/PoorlyDefinedBehaviour/testng_to_jupiter/src/codemod"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/pkg/errors"
)

// ErrSyntaxErrors is returned for files tree-sitter can't parse cleanly, they are left untouched.
var ErrSyntaxErrors = errors.New("file has syntax errors")

var DefaultInclude = []string{"**/*.java"}

func isJavaFile(filename string) bool {
	return strings.HasSuffix(filename, ".java")
}

func isVendorFolder(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == "vendor" {
			return true
		}
	}

	return false
}

type replacement struct {
	re   *regexp.Regexp
	with string
}

// compileRegexes orders the replacements by pattern so overlapping ones apply the same way every run.
func compileRegexes(regexes map[string]string) ([]replacement, error) {
	patterns := make([]string, 0, len(regexes))
	for pattern := range regexes {
		patterns = append(patterns, pattern)
	}
	sort.Strings(patterns)

	out := make([]replacement, 0, len(regexes))

	for _, regexToCompile := range patterns {
		re, err := regexp.Compile(regexToCompile)
		if err != nil {
			return out, errors.WithStack(err)
		}

		out = append(out, replacement{re: re, with: regexes[regexToCompile]})
	}

	return out, nil
}

func validatePatterns(patterns []string) error {
	for _, pattern := range patterns {
		if !doublestar.ValidatePattern(pattern) {
			return errors.Wrapf(doublestar.ErrBadPattern, "pattern %q", pattern)
		}
	}

	return nil
}

func matchesAny(patterns []string, path string) (bool, error) {
	for _, pattern := range patterns {
		matched, err := doublestar.Match(pattern, path)
		if err != nil {
			return false, errors.Wrapf(err, "pattern %q", pattern)
		}
		if matched {
			return true, nil
		}
	}

	return false, nil
}

// javaFiles returns the Java files under directory matching include and not
// matching exclude, relative to directory with forward slashes and sorted.
//
// The vendor folder and hidden folders are ignored.
func javaFiles(directory string, include, exclude []string) ([]string, error) {
	if len(include) == 0 {
		include = DefaultInclude
	}

	for _, patterns := range [][]string{include, exclude} {
		if err := validatePatterns(patterns); err != nil {
			return nil, err
		}
	}

	out := make([]string, 0)

	err := filepath.WalkDir(directory, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return errors.WithStack(err)
		}

		relative, err := filepath.Rel(directory, path)
		if err != nil {
			return errors.WithStack(err)
		}
		relative = filepath.ToSlash(relative)

		if entry.IsDir() {
			if relative != "." && (strings.HasPrefix(entry.Name(), ".") || isVendorFolder(relative)) {
				return filepath.SkipDir
			}
			return nil
		}

		if !isJavaFile(entry.Name()) {
			return nil
		}

		included, err := matchesAny(include, relative)
		if err != nil || !included {
			return err
		}

		excluded, err := matchesAny(exclude, relative)
		if err != nil || excluded {
			return err
		}

		out = append(out, relative)

		return nil
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}

	sort.Strings(out)

	return out, nil
}

// migrateSource applies the replacements and then every codemod to sourceCode.
// Each codemod sees the output of the previous one, parsed again.
//
// A panic inside a codemod is returned as an error.
func migrateSource(path string, sourceCode []byte, replacements []replacement, codemods []Codemod) (report FileReport, err error) {
	defer func() {
		if reason := recover(); reason != nil {
			panicErr, ok := reason.(error)
			if !ok {
				err = errors.Errorf("unexpected panic => %+v", reason)
			} else {
				err = errors.WithStack(panicErr)
			}
		}
	}()

	report = FileReport{Path: path}

	migrated := sourceCode
	for _, replacement := range replacements {
		migrated = replacement.re.ReplaceAll(migrated, []byte(replacement.with))
	}

	for i, mod := range codemods {
		out, result, err := runCodemod(mod, path, migrated, i == 0)
		if err != nil {
			return report, err
		}

		report.Result.Merge(result)
		migrated = out
	}

	report.Changed = !bytes.Equal(sourceCode, migrated)
	report.source = migrated

	return report, nil
}

func runCodemod(mod Codemod, path string, sourceCode []byte, checkSyntax bool) ([]byte, codemod.Result, error) {
	file, err := codemod.New(codemod.NewInput{
		SourceCode: sourceCode,
		FilePath:   path,
	})
	if err != nil {
		return nil, codemod.Result{}, errors.WithStack(err)
	}
	defer file.Close()

	if checkSyntax && file.HasSyntaxErrors() {
		return nil, codemod.Result{}, errors.Wrap(ErrSyntaxErrors, path)
	}

	result, err := mod.Transform(file)
	if err != nil {
		return nil, result, errors.Wrapf(err, "%s failed", mod.ID)
	}

	out, err := file.SourceCode()
	if err != nil {
		return nil, result, errors.Wrapf(err, "%s produced overlapping edits", mod.ID)
	}

	return out, result, nil
}

func writeFile(path string, sourceCode []byte) error {
	file, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		return errors.WithStack(err)
	}
	defer file.Close()

	err = file.Truncate(0)
	if err != nil {
		return errors.WithStack(err)
	}

	_, err = file.Seek(0, 0)
	if err != nil {
		return errors.WithStack(err)
	}

	_, err = file.Write(sourceCode)
	if err != nil {
		return errors.WithStack(err)
	}

	err = file.Sync()
	if err != nil {
		return errors.WithStack(err)
	}

	return nil
}
