package codemod_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImports(t *testing.T) {
	t.Parallel()

	source := `package de.foo;

import java.util.List;
import org.testng.Assert;
import org.testng.annotations.*;
import static org.testng.Assert.assertTrue;
import static org.hamcrest.Matchers.*;

class A {}
`

	t.Run("queries", func(t *testing.T) {
		t.Parallel()

		imports := parse(t, source).Imports()

		assert.Equal(t, []string{"java.util.List", "org.testng.Assert", "org.testng.annotations", "org.testng.Assert.assertTrue", "org.hamcrest.Matchers"}, imports.Paths())

		assert.True(t, imports.Has("org.testng.Assert"))
		assert.False(t, imports.Has("org.testng.annotations.Test"))
		assert.True(t, imports.Contains("org.testng.annotations.Test"))
		assert.True(t, imports.ContainsStatic("org.testng.Assert", "assertTrue"))
		assert.False(t, imports.ContainsStatic("org.testng.Assert", "assertFalse"))
		assert.True(t, imports.ContainsStatic("org.hamcrest.Matchers", "is"))

		from, ok := imports.StaticMember("assertTrue")
		assert.True(t, ok)
		assert.Equal(t, "org.testng.Assert", from)

		from, ok = imports.StaticMember("is")
		assert.True(t, ok)
		assert.Equal(t, "org.hamcrest.Matchers", from)
	})

	t.Run("replacing and removing keeps the section in place", func(t *testing.T) {
		t.Parallel()

		file := parse(t, source)
		imports := file.Imports()

		assert.True(t, imports.Replace("org.testng.Assert", "org.junit.jupiter.api.Assertions"))
		assert.False(t, imports.Replace("org.testng.NotImported", "org.junit.jupiter.api.Assertions"))
		imports.RemoveStatic("org.testng.Assert")

		out, err := file.SourceCode()
		require.NoError(t, err)

		assert.Equal(t, `package de.foo;

import java.util.List;
import org.junit.jupiter.api.Assertions;
import org.testng.annotations.*;
import static org.hamcrest.Matchers.*;

class A {}
`, string(out))
	})

	t.Run("adding lays the section out again", func(t *testing.T) {
		t.Parallel()

		file := parse(t, source)
		imports := file.Imports()

		imports.Remove("org.testng.Assert")
		imports.RemoveStatic("org.testng.Assert")
		imports.Add("org.junit.jupiter.api.Assertions")
		imports.Add("org.junit.jupiter.api.Assertions")
		imports.Add("java.lang.String")
		imports.Add("org.testng.annotations.Test")
		imports.AddStatic("org.junit.jupiter.api.Assertions", "assertTrue")

		out, err := file.SourceCode()
		require.NoError(t, err)

		assert.Equal(t, `package de.foo;

import org.junit.jupiter.api.Assertions;
import org.testng.annotations.*;

import java.util.List;

import static org.hamcrest.Matchers.*;
import static org.junit.jupiter.api.Assertions.assertTrue;

class A {}
`, string(out))
	})

	t.Run("adding to a file without imports", func(t *testing.T) {
		t.Parallel()

		file := parse(t, "package de.foo;\n\nclass A {}\n")
		file.Imports().Add("java.util.Arrays")

		out, err := file.SourceCode()
		require.NoError(t, err)

		assert.Equal(t, "package de.foo;\n\nimport java.util.Arrays;\n\nclass A {}\n", string(out))
	})

	t.Run("removing every import", func(t *testing.T) {
		t.Parallel()

		file := parse(t, "import org.testng.Assert;\n\nclass A {}\n")
		file.Imports().Remove("org.testng.Assert")

		out, err := file.SourceCode()
		require.NoError(t, err)

		assert.Equal(t, "class A {}\n", string(out))
	})
}
