package testng_test

import (
	"testing"

	"github.com/PoorlyDefinedBehaviour/testng_to_jupiter/src/codemod"
	"github.com/PoorlyDefinedBehaviour/testng_to_jupiter/src/testng"
	"github.com/stretchr/testify/require"
)

// migrate runs the recipes with the given ids over source, parsing the
// output of every recipe again like the directory walk does.
func migrate(t *testing.T, options testng.Options, source string, ids ...string) (string, codemod.Result) {
	t.Helper()

	recipes, err := testng.Pipeline(ids, options)
	require.NoError(t, err)

	out := []byte(source)
	total := codemod.Result{}

	for _, recipe := range recipes {
		file, err := codemod.New(codemod.NewInput{SourceCode: out, FilePath: "MyTest.java"})
		require.NoError(t, err)

		result, err := recipe.Apply(file)
		require.NoError(t, err)

		out, err = file.SourceCode()
		require.NoError(t, err)

		file.Close()
		total.Merge(result)
	}

	return string(out), total
}

func kinds(result codemod.Result) []codemod.DiagnosticKind {
	out := make([]codemod.DiagnosticKind, 0, len(result.Diagnostics))
	for _, diagnostic := range result.Diagnostics {
		out = append(out, diagnostic.Kind)
	}
	return out
}
