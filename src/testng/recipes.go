package testng

import (
	"fmt"
	"strings"

	"github.com/PoorlyDefinedBehaviour/testng_to_jupiter/src/codemod"
	"github.com/pkg/errors"
)

var ErrUnknownRecipe = errors.New("unknown recipe")

const (
	MismatchedAssertionsID = "mismatched-assertions"
	AssertEqualsDeepID     = "assert-equals-deep"
	AssertionsID           = "assertions"
	TestAnnotationID       = "test-annotation"
	VerifyReferencesID     = "verify-references"
)

type Options struct {
	// StrictTypes only swaps assertEquals/assertNotEquals operands whose types are resolved.
	StrictTypes bool
	// VerifyTypes are checked by verify-references, DefaultVerifyTypes when empty.
	VerifyTypes []string
}

// Recipe is one migration step over a single file.
type Recipe struct {
	ID          string
	Name        string
	Description string
	Apply       func(file *codemod.SourceFile) (codemod.Result, error)
}

// Recipes returns every recipe in the order they must run.
func Recipes(options Options) []Recipe {
	verifyTypes := options.VerifyTypes
	if len(verifyTypes) == 0 {
		verifyTypes = DefaultVerifyTypes
	}

	return []Recipe{
		{
			ID:          MismatchedAssertionsID,
			Name:        "Replace `Assert#assertEquals(actual[], expected[], delta[, message])` for float and double arrays",
			Description: "Rewrites float and double array assertions with a tolerance into an `Assertions#assertAll` block comparing the sizes and then every element.",
			Apply: func(file *codemod.SourceFile) (codemod.Result, error) {
				return migrateCalls(file, []Rule{arrayDeltaRule}, options, false)
			},
		},
		{
			ID:          AssertEqualsDeepID,
			Name:        "Migrate `Assert#assertEqualsDeep(Map, Map)`",
			Description: "Rewrites `Assert#assertEqualsDeep(Map, Map)` into `Assertions#assertIterableEquals` over the entry sets, comparing array values as lists.",
			Apply: func(file *codemod.SourceFile) (codemod.Result, error) {
				return migrateCalls(file, []Rule{deepMapRule}, options, false)
			},
		},
		{
			ID:          AssertionsID,
			Name:        "Migrate TestNG asserts to Jupiter",
			Description: "Rewrites `org.testng.Assert` calls into `org.junit.jupiter.api.Assertions` calls, swapping actual and expected.",
			Apply: func(file *codemod.SourceFile) (codemod.Result, error) {
				return migrateCalls(file, Catalogue(), options, true)
			},
		},
		{
			ID:          TestAnnotationID,
			Name:        "Migrate TestNG `@Test` annotations to JUnit Jupiter",
			Description: fmt.Sprintf("Replaces `@%s` with `@%s`, translating its attributes.", testngTest, jupiterTest),
			Apply: func(file *codemod.SourceFile) (codemod.Result, error) {
				return migrateTestAnnotations(file, options)
			},
		},
		{
			ID:          VerifyReferencesID,
			Name:        "Verify no TestNG references are left",
			Description: fmt.Sprintf("Reports references to %s left after the migration.", strings.Join(verifyTypes, ", ")),
			Apply: func(file *codemod.SourceFile) (codemod.Result, error) {
				return VerifyReferences(file, verifyTypes), nil
			},
		},
	}
}

// IDs returns the ids of every recipe in order.
func IDs() []string {
	recipes := Recipes(Options{})
	out := make([]string, 0, len(recipes))
	for _, recipe := range recipes {
		out = append(out, recipe.ID)
	}
	return out
}

// Pipeline returns the recipes with the given ids in the order they must
// run, every recipe when ids is empty.
func Pipeline(ids []string, options Options) ([]Recipe, error) {
	recipes := Recipes(options)
	if len(ids) == 0 {
		return recipes, nil
	}

	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}

	out := make([]Recipe, 0, len(ids))
	for _, recipe := range recipes {
		if wanted[recipe.ID] {
			out = append(out, recipe)
			delete(wanted, recipe.ID)
		}
	}

	for _, id := range ids {
		if wanted[id] {
			return nil, errors.Wrapf(ErrUnknownRecipe, "%s, known recipes are %s", id, strings.Join(IDs(), ", "))
		}
	}

	return out, nil
}
