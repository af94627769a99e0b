package codemod_test

import (
	"testing"

	"github.com/PoorlyDefinedBehaviour/testng_to_jupiter/src/codemod"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, source string) *codemod.SourceFile {
	t.Helper()

	file, err := codemod.New(codemod.NewInput{SourceCode: []byte(source), FilePath: "A.java"})
	require.NoError(t, err)
	t.Cleanup(file.Close)

	return file
}

func Test_SourceCode(t *testing.T) {
	t.Parallel()

	t.Run("without edits returns the source as is", func(t *testing.T) {
		t.Parallel()

		source := "class A {}\n"
		file := parse(t, source)

		out, err := file.SourceCode()
		require.NoError(t, err)

		assert.False(t, file.Changed())
		assert.Equal(t, source, string(out))
	})

	t.Run("applies edits against the original offsets", func(t *testing.T) {
		t.Parallel()

		file := parse(t, "class A { int a = 1; int b = 2; }\n")

		for _, node := range file.Identifiers() {
			switch file.Text(node) {
			case "a":
				file.Edits().Replace(node, "first")
			case "b":
				file.Edits().Replace(node, "second")
			}
		}

		out, err := file.SourceCode()
		require.NoError(t, err)

		assert.True(t, file.Changed())
		assert.Equal(t, "class A { int first = 1; int second = 2; }\n", string(out))
	})

	t.Run("reports syntax errors", func(t *testing.T) {
		t.Parallel()

		assert.False(t, parse(t, "class A {}").HasSyntaxErrors())
		assert.True(t, parse(t, "class A { void f( }").HasSyntaxErrors())
	})
}

func TestSourceFile_FunctionCalls(t *testing.T) {
	t.Parallel()

	t.Run("when there are no function calls", func(t *testing.T) {
		t.Run("returns nothing", func(t *testing.T) {
			file := parse(t, `class A {
    void a() {}
}`)

			assert.Empty(t, file.FunctionCalls())
		})
	})

	t.Run("when there are function calls", func(t *testing.T) {
		t.Run("returns inner calls first", func(t *testing.T) {
			file := parse(t, `class A {
    void test() {
        Assert.assertEquals(compute(1), "a");
        run();
    }
}`)

			calls := file.FunctionCalls()
			require.Len(t, calls, 3)

			assert.Equal(t, "compute", calls[0].Name)
			assert.Equal(t, "", calls[0].ObjectText())
			assert.Equal(t, []string{"1"}, calls[0].Args.Render())

			assert.Equal(t, "assertEquals", calls[1].Name)
			assert.Equal(t, "Assert", calls[1].ObjectText())
			assert.Equal(t, []string{"compute(1)", `"a"`}, calls[1].Args.Render())
			assert.Equal(t, codemod.Position{Line: 3, Column: 9}, calls[1].Position())

			assert.Equal(t, "run", calls[2].Name)
		})

		t.Run("finds calls by qualified name", func(t *testing.T) {
			file := parse(t, `class A {
    void test() {
        Assert.assertTrue(true);
        assertTrue(false);
        org.testng.Assert.assertTrue(true);
    }
}`)

			assert.Len(t, file.FindCalls("Assert.assertTrue"), 1)
			assert.Len(t, file.FindCalls("assertTrue"), 1)
			assert.Len(t, file.FindCalls("org.testng.Assert.assertTrue"), 1)
		})
	})

	t.Run("replacing an outer call renders the inner replacement", func(t *testing.T) {
		file := parse(t, `class A {
    void test() {
        outer(inner(1));
    }
}`)

		calls := file.FunctionCalls()
		require.Len(t, calls, 2)

		calls[0].Replace("renamed(" + calls[0].Args[0].Render() + ")")
		calls[1].Replace("wrapped(" + calls[1].Args[0].Render() + ")")

		out, err := file.SourceCode()
		require.NoError(t, err)

		assert.Contains(t, string(out), "wrapped(renamed(1));")
	})
}

func TestSourceFile_Methods(t *testing.T) {
	t.Parallel()

	file := parse(t, `@Test
public class A {
    @Test(timeOut = 1)
    public void first() {}

    void second() {}

    public A() {}

    class Inner {
        public static void third() {}
    }
}`)

	methods := file.Methods()
	require.Len(t, methods, 4)

	assert.Equal(t, "first", methods[0].Name())
	assert.True(t, methods[0].IsPublic())
	require.Len(t, methods[0].Annotations(), 1)
	assert.Equal(t, "Test", methods[0].Annotations()[0].Name)
	assert.True(t, methods[0].Annotations()[0].HasArguments())

	assert.Equal(t, "second", methods[1].Name())
	assert.False(t, methods[1].IsPublic())
	assert.Equal(t, "void", file.Text(methods[1].FirstKeyword()))

	assert.True(t, methods[2].IsConstructor())

	class, ok := methods[3].Class()
	require.True(t, ok)
	assert.Equal(t, "Inner", class.Name())
	assert.False(t, class.IsTopLevel())

	classes := file.Classes()
	require.Len(t, classes, 2)
	assert.True(t, classes[0].IsTopLevel())
	require.Len(t, classes[0].Annotations(), 1)
	assert.False(t, classes[0].Annotations()[0].HasArguments())
}

func TestClass_Superclass(t *testing.T) {
	t.Parallel()

	file := parse(t, `class Boom extends java.lang.IllegalStateException {}
class Bang extends Boom {}
class Plain {}`)

	classes := file.Classes()
	require.Len(t, classes, 3)

	assert.Equal(t, "IllegalStateException", classes[0].Superclass())
	assert.Equal(t, "Boom", classes[1].Superclass())
	assert.Equal(t, "", classes[2].Superclass())
}

func TestAnnotation_PrecedingComment(t *testing.T) {
	t.Parallel()

	file := parse(t, `class A {
    /* first */
    @Test
    /* second */
    @Other
    void test() {}

    @Plain
    void plain() {}
}`)

	annotations := file.Annotations()
	require.Len(t, annotations, 3)

	assert.Equal(t, "/* first */", file.Text(annotations[0].PrecedingComment()))
	assert.Equal(t, "/* second */", file.Text(annotations[1].PrecedingComment()))
	assert.Nil(t, annotations[2].PrecedingComment())
}

func TestSourceFile_QualifiedNames(t *testing.T) {
	t.Parallel()

	file := parse(t, `import org.testng.annotations.Test;

class A {
    @org.testng.annotations.Test
    void test() {
        Object o = org.testng.Assert.class;
    }
}`)

	names := make([]string, 0)
	for _, node := range file.QualifiedNames() {
		names = append(names, file.Text(node))
	}

	assert.Contains(t, names, "org.testng.annotations.Test")
	assert.Contains(t, names, "org.testng.Assert")
	assert.NotContains(t, names, "import org.testng.annotations.Test;")
}

func TestSourceFile_FreshName(t *testing.T) {
	t.Parallel()

	file := parse(t, `class A {
    void test(int i, int i2) {
        int entry = 0;
    }
}`)

	scope := file.Methods()[0].Node

	assert.Equal(t, "i3", file.FreshName(scope, "i"))
	assert.Equal(t, "entry2", file.FreshName(scope, "entry"))
	assert.Equal(t, "thrown", file.FreshName(scope, "thrown"))
}

func TestSimpleName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		expected string
	}{
		{name: "org.testng.Assert", expected: "Assert"},
		{name: "Assert", expected: "Assert"},
		{name: "java.util.List<java.lang.String>", expected: "List"},
		{name: "Map.Entry", expected: "Entry"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, codemod.SimpleName(tt.name), tt.name)
	}
}

func TestIndentation(t *testing.T) {
	t.Parallel()

	t.Run("IndentUnit", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, "  ", parse(t, "class A {\n  void a() {\n    run();\n  }\n}").IndentUnit())
		assert.Equal(t, "\t", parse(t, "class A {\n\tvoid a() {}\n}").IndentUnit())
		assert.Equal(t, "    ", parse(t, "class A {}").IndentUnit())
	})

	t.Run("LineIndent and StartsLine", func(t *testing.T) {
		t.Parallel()

		file := parse(t, "class A {\n    @Test public void a() {}\n}")
		method := file.Methods()[0]
		keyword := method.FirstKeyword()

		assert.Equal(t, "    ", file.LineIndent(keyword))
		assert.False(t, file.StartsLine(keyword))
		assert.True(t, file.StartsLine(method.Annotations()[0].Node))
	})

	t.Run("Reindent", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, "  a();\n\n  b();", codemod.Reindent("a();\n   \nb();", "  "))
	})
}
