package testng_test

import (
	"testing"

	"github.com/PoorlyDefinedBehaviour/testng_to_jupiter/src/codemod"
	"github.com/PoorlyDefinedBehaviour/testng_to_jupiter/src/testng"
	"github.com/stretchr/testify/assert"
)

func TestMigrateTestAnnotations(t *testing.T) {
	t.Parallel()

	t.Run("without attributes", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			description string
			source      string
			expected    string
		}{
			{
				description: "replaces the import",
				source: `package de.foo.bar;

import org.testng.annotations.Test;

public class BazTest {
    @Test
    public void shouldDoStuff() {
        //
    }
}
`,
				expected: `package de.foo.bar;

import org.junit.jupiter.api.Test;

public class BazTest {
    @Test
    public void shouldDoStuff() {
        //
    }
}
`,
			},
			{
				description: "preserves other annotations and comments",
				source: `import org.testng.annotations.Test;
import org.openrewrite.Issue;

public class MyTest {

    // some comments
    @Issue("some issue")
    @Test
    public void test() {
    }

    @Test
    // even more comments
    public void test2() {
    }
}
`,
				expected: `import org.junit.jupiter.api.Test;
import org.openrewrite.Issue;

public class MyTest {

    // some comments
    @Issue("some issue")
    @Test
    public void test() {
    }

    @Test
    // even more comments
    public void test2() {
    }
}
`,
			},
			{
				description: "type referenced as a value",
				source: `import org.testng.annotations.Test;

public class MyTest {
    Object o = Test.class;
}
`,
				expected: `import org.junit.jupiter.api.Test;

public class MyTest {
    Object o = Test.class;
}
`,
			},
			{
				description: "type referenced in javadoc",
				source: `import org.testng.annotations.Test;

/** @see org.testng.annotations.Test */
public class MyTest {
    @Test
    public void test() {
    }
}
`,
				expected: `import org.junit.jupiter.api.Test;

/** @see org.junit.jupiter.api.Test */
public class MyTest {
    @Test
    public void test() {
    }
}
`,
			},
			{
				description: "fully qualified on the same line as the method",
				source: `package de.foo.bar;

class Baz {
    @org.testng.annotations.Test public void shouldDoStuff() {
        //
    }
}
`,
				expected: `package de.foo.bar;

class Baz {
    @org.junit.jupiter.api.Test public void shouldDoStuff() {
        //
    }
}
`,
			},
			{
				description: "mixed fully qualified and imported",
				source: `import org.testng.annotations.Test;

public class MyTest {
    @org.testng.annotations.Test
    public void feature1() {
    }

    @Test
    public void feature2() {
    }
}
`,
				expected: `import org.junit.jupiter.api.Test;

public class MyTest {
    @org.junit.jupiter.api.Test
    public void feature1() {
    }

    @Test
    public void feature2() {
    }
}
`,
			},
			{
				description: "keeps the import order when nothing is added",
				source: `import java.util.List;
import org.testng.annotations.Test;

import static org.assertj.core.api.Assertions.assertThat;

class Baz {
    @Test public void shouldDoStuff() {
    }

    public class NestedGroupedTests {
        @Test public void shouldDoStuff() {
        }
    }
}
`,
				expected: `import java.util.List;
import org.junit.jupiter.api.Test;

import static org.assertj.core.api.Assertions.assertThat;

class Baz {
    @Test public void shouldDoStuff() {
    }

    public class NestedGroupedTests {
        @Test public void shouldDoStuff() {
        }
    }
}
`,
			},
		}

		for _, tt := range tests {
			tt := tt
			t.Run(tt.description, func(t *testing.T) {
				t.Parallel()

				actual, result := migrate(t, testng.Options{}, tt.source, testng.TestAnnotationID)

				assert.Equal(t, tt.expected, actual)
				assert.Empty(t, result.Diagnostics)
			})
		}
	})

	t.Run("leaves Jupiter tests alone", func(t *testing.T) {
		t.Parallel()

		sources := []string{
			`import org.junit.jupiter.api.Test;

class Baz {
    @Test public void shouldDoStuff() {
    }
}
`,
			`class Baz {
    @org.junit.jupiter.api.Test public void shouldDoStuff() {
    }
}
`,
		}

		for _, source := range sources {
			actual, result := migrate(t, testng.Options{}, source, testng.TestAnnotationID)

			assert.Equal(t, source, actual)
			assert.Zero(t, result.Migrated)
		}
	})

	t.Run("timeOut", func(t *testing.T) {
		t.Parallel()

		expected := `import org.junit.jupiter.api.Test;
import org.junit.jupiter.api.Timeout;

import java.util.concurrent.TimeUnit;

public class MyTest {

    @Test
    @Timeout(value = 500, unit = TimeUnit.MILLISECONDS)
    public void test() {
    }
}
`

		t.Run("on its own line", func(t *testing.T) {
			t.Parallel()

			source := `import org.testng.annotations.Test;

public class MyTest {

    @Test(timeOut = 500)
    public void test() {
    }
}
`
			actual, _ := migrate(t, testng.Options{}, source, testng.TestAnnotationID)

			assert.Equal(t, expected, actual)
		})

		t.Run("on the same line as the method", func(t *testing.T) {
			t.Parallel()

			source := `import org.testng.annotations.Test;

public class MyTest {

    @Test(timeOut = 500) public void test() {
    }
}
`
			actual, _ := migrate(t, testng.Options{}, source, testng.TestAnnotationID)

			assert.Equal(t, expected, actual)
		})

		t.Run("zero means no timeout", func(t *testing.T) {
			t.Parallel()

			source := `import org.testng.annotations.Test;

public class MyTest {

    @Test(timeOut = 0)
    public void test() {
    }
}
`
			expected := `import org.junit.jupiter.api.Test;

public class MyTest {

    @Test
    public void test() {
    }
}
`
			actual, result := migrate(t, testng.Options{}, source, testng.TestAnnotationID)

			assert.Equal(t, expected, actual)
			assert.Equal(t, 1, result.Migrated)
			assert.Empty(t, result.Diagnostics)
		})
	})

	t.Run("comments between the attributes are kept", func(t *testing.T) {
		t.Parallel()

		t.Run("next to the migrated annotations", func(t *testing.T) {
			t.Parallel()

			source := `import org.testng.annotations.Test;

public class MyTest {

    @Test(
        // slow ones
        groups = "slow", priority = 1)
    public void test() {
    }
}
`
			actual, result := migrate(t, testng.Options{}, source, testng.TestAnnotationID)

			assert.Contains(t, actual, "    @Test\n    // slow ones\n    @Tag(\"slow\")\n    /* ❗ ❗ ❗\n")
			assert.Contains(t, actual, "    @org.testng.annotations.Test(priority = 1)\n    public void test() {")
			assert.Equal(t, []codemod.DiagnosticKind{codemod.UnmigratableAttribute}, kinds(result))
		})

		t.Run("inside a migrated attribute", func(t *testing.T) {
			t.Parallel()

			source := `import org.testng.annotations.Test;

public class MyTest {

    @Test(timeOut = /* none */ 0)
    public void test() {
    }
}
`
			expected := `import org.junit.jupiter.api.Test;

public class MyTest {

    @Test
    /* none */
    public void test() {
    }
}
`
			actual, _ := migrate(t, testng.Options{}, source, testng.TestAnnotationID)

			assert.Equal(t, expected, actual)
		})

		t.Run("on a class level annotation", func(t *testing.T) {
			t.Parallel()

			source := `import org.testng.annotations.Test;

@Test(/* every public method */)
public class MyTest {
}
`
			expected := `/* every public method */
public class MyTest {
}
`
			actual, _ := migrate(t, testng.Options{}, source, testng.TestAnnotationID)

			assert.Contains(t, actual, expected)
		})
	})

	t.Run("expectedExceptions", func(t *testing.T) {
		t.Parallel()

		t.Run("keeps the indentation of the body", func(t *testing.T) {
			t.Parallel()

			source := `import org.testng.annotations.Test;

public class MyTest {

  @Test(expectedExceptions = IllegalArgumentException.class)
  public void test() {
      throw new IllegalArgumentException("boom");
  }
}
`
			expected := `import org.junit.jupiter.api.Test;

import static org.junit.jupiter.api.Assertions.assertThrows;

public class MyTest {

  @Test
  public void test() {
      assertThrows(IllegalArgumentException.class, () -> {
          throw new IllegalArgumentException("boom");
      });
  }
}
`
			actual, result := migrate(t, testng.Options{}, source, testng.TestAnnotationID)

			assert.Equal(t, expected, actual)
			assert.Equal(t, 1, result.Migrated)
		})

		t.Run("wraps every statement", func(t *testing.T) {
			t.Parallel()

			source := `import org.testng.annotations.Test;

public class MyTest {

    @Test(expectedExceptions = IllegalArgumentException.class, timeOut = 500)
    public void test() {
        String foo = "foo";
        throw new IllegalArgumentException(foo);
    }
}
`
			expected := `import org.junit.jupiter.api.Test;
import org.junit.jupiter.api.Timeout;

import java.util.concurrent.TimeUnit;

import static org.junit.jupiter.api.Assertions.assertThrows;

public class MyTest {

    @Test
    @Timeout(value = 500, unit = TimeUnit.MILLISECONDS)
    public void test() {
        assertThrows(IllegalArgumentException.class, () -> {
            String foo = "foo";
            throw new IllegalArgumentException(foo);
        });
    }
}
`
			actual, _ := migrate(t, testng.Options{}, source, testng.TestAnnotationID)

			assert.Equal(t, expected, actual)
		})

		t.Run("with a message pattern", func(t *testing.T) {
			t.Parallel()

			source := `import org.testng.annotations.Test;

public class MyTest {

    @Test(expectedExceptions = IllegalArgumentException.class, expectedExceptionsMessageRegExp = "boom.*!")
    public void test() {
        throw new IllegalArgumentException("boom     !");
    }
}
`
			expected := `import org.junit.jupiter.api.Test;

import static org.junit.jupiter.api.Assertions.assertThrows;
import static org.junit.jupiter.api.Assertions.assertTrue;

public class MyTest {

    @Test
    public void test() {
        Throwable thrown = assertThrows(IllegalArgumentException.class, () -> {
            throw new IllegalArgumentException("boom     !");
        });
        assertTrue(thrown.getMessage().matches("boom.*!"));
    }
}
`
			actual, _ := migrate(t, testng.Options{}, source, testng.TestAnnotationID)

			assert.Equal(t, expected, actual)
		})

		t.Run("follows the superclass chain of exceptions declared in the file", func(t *testing.T) {
			t.Parallel()

			source := `import org.testng.annotations.Test;

public class MyTest {

    static class Boom extends IllegalStateException {
    }

    @Test(expectedExceptions = Boom.class)
    public void test() {
        throw new Boom();
    }
}
`
			actual, result := migrate(t, testng.Options{}, source, testng.TestAnnotationID)

			assert.Contains(t, actual, "        assertThrows(Boom.class, () -> {\n            throw new Boom();\n        });\n")
			assert.Empty(t, result.Diagnostics)
		})

		t.Run("only the first exception is asserted", func(t *testing.T) {
			t.Parallel()

			source := `import org.testng.annotations.Test;

public class MyTest {

    @Test(expectedExceptions = {IllegalStateException.class, IllegalArgumentException.class})
    public void test() {
        run();
    }
}
`
			actual, result := migrate(t, testng.Options{}, source, testng.TestAnnotationID)

			assert.Contains(t, actual, "assertThrows(IllegalStateException.class, () -> {")
			assert.Equal(t, []codemod.DiagnosticKind{codemod.UnmigratableAttribute}, kinds(result))
		})

		t.Run("an empty list expects nothing", func(t *testing.T) {
			t.Parallel()

			source := `import org.testng.annotations.Test;

public class MyTest {

    @Test(expectedExceptions = {})
    public void test() {
        run();
    }
}
`
			expected := `import org.junit.jupiter.api.Test;

public class MyTest {

    @Test
    public void test() {
        run();
    }
}
`
			actual, _ := migrate(t, testng.Options{}, source, testng.TestAnnotationID)

			assert.Equal(t, expected, actual)
		})

		t.Run("a class that is not a Throwable is kept for review", func(t *testing.T) {
			t.Parallel()

			source := `import org.testng.annotations.Test;

public class MyTest {

    @Test(expectedExceptions = String.class)
    public void test() {
        run();
    }
}
`
			actual, result := migrate(t, testng.Options{}, source, testng.TestAnnotationID)

			assert.Contains(t, actual, "    @org.testng.annotations.Test(expectedExceptions = String.class)\n    public void test() {\n        run();\n    }")
			assert.Equal(t, []codemod.DiagnosticKind{codemod.UnmigratableAttribute, codemod.UnmigratableAttribute}, kinds(result))
		})
	})

	t.Run("description, enabled and groups", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			description string
			attributes  string
			imports     string
			annotations string
		}{
			{
				description: "description becomes a display name",
				attributes:  `description = "does stuff"`,
				imports:     "import org.junit.jupiter.api.DisplayName;\nimport org.junit.jupiter.api.Test;",
				annotations: "@Test\n    @DisplayName(\"does stuff\")",
			},
			{
				description: "an empty description is dropped",
				attributes:  `description = ""`,
				imports:     "import org.junit.jupiter.api.Test;",
				annotations: "@Test",
			},
			{
				description: "disabled tests",
				attributes:  "enabled = false",
				imports:     "import org.junit.jupiter.api.Disabled;\nimport org.junit.jupiter.api.Test;",
				annotations: "@Test\n    @Disabled",
			},
			{
				description: "enabled tests",
				attributes:  "enabled = true",
				imports:     "import org.junit.jupiter.api.Test;",
				annotations: "@Test",
			},
			{
				description: "one tag per group",
				attributes:  `groups = {"Fast", "Slow"}`,
				imports:     "import org.junit.jupiter.api.Tag;\nimport org.junit.jupiter.api.Test;",
				annotations: "@Test\n    @Tag(\"Fast\")\n    @Tag(\"Slow\")",
			},
			{
				description: "a single group",
				attributes:  `groups = "Fast"`,
				imports:     "import org.junit.jupiter.api.Tag;\nimport org.junit.jupiter.api.Test;",
				annotations: "@Test\n    @Tag(\"Fast\")",
			},
			{
				description: "no groups",
				attributes:  "groups = {}",
				imports:     "import org.junit.jupiter.api.Test;",
				annotations: "@Test",
			},
		}

		for _, tt := range tests {
			tt := tt
			t.Run(tt.description, func(t *testing.T) {
				t.Parallel()

				source := "import org.testng.annotations.Test;\n\npublic class MyTest {\n\n    @Test(" + tt.attributes + ")\n    public void test() {\n    }\n}\n"
				expected := tt.imports + "\n\npublic class MyTest {\n\n    " + tt.annotations + "\n    public void test() {\n    }\n}\n"

				actual, result := migrate(t, testng.Options{}, source, testng.TestAnnotationID)

				assert.Equal(t, expected, actual)
				assert.Empty(t, result.Diagnostics)
			})
		}
	})

	t.Run("attributes without a counterpart", func(t *testing.T) {
		t.Parallel()

		source := `import org.testng.annotations.Test;

public class MyTest {

    @Test(description = "does stuff", priority = 1, dataProvider = "data")
    public void test() {
    }
}
`
		expected := `import org.junit.jupiter.api.DisplayName;
import org.junit.jupiter.api.Test;

public class MyTest {

    @Test
    @DisplayName("does stuff")
    /* ❗ ❗ ❗
       At least one @Test-attribute could not be migrated to JUnit 5. Kindly review the remainder below
       and manually apply any changes you may require to retain the existing test suite's behavior. Delete
    ↓  the annotation and this comment when satisfied, or use git reset --hard to roll back the migration.

       If you think this is a mistake or have an idea how this migration could be implemented instead, any
       feedback as an issue on the testng_to_jupiter repository will be greatly appreciated.
    */
    @org.testng.annotations.Test(priority = 1, dataProvider = "data")
    public void test() {
    }
}
`

		actual, result := migrate(t, testng.Options{}, source, testng.TestAnnotationID)

		assert.Equal(t, expected, actual)
		assert.Equal(t, []codemod.DiagnosticKind{codemod.UnmigratableAttribute}, kinds(result))

		t.Run("a second run leaves the retained annotation alone", func(t *testing.T) {
			again, result := migrate(t, testng.Options{}, actual, testng.TestAnnotationID)

			assert.Equal(t, expected, again)
			assert.Zero(t, result.Migrated)
		})
	})

	t.Run("values that can't be translated are kept for review", func(t *testing.T) {
		t.Parallel()

		source := `import org.testng.annotations.Test;

public class MyTest {
    static final boolean ENABLED = true;

    @Test(enabled = ENABLED)
    public void test() {
    }
}
`
		actual, result := migrate(t, testng.Options{}, source, testng.TestAnnotationID)

		assert.Contains(t, actual, "    @Test\n    /* ❗")
		assert.Contains(t, actual, "    @org.testng.annotations.Test(enabled = ENABLED)\n    public void test() {")
		assert.Equal(t, []codemod.DiagnosticKind{codemod.UnmigratableAttribute, codemod.UnmigratableAttribute}, kinds(result))
	})

	t.Run("class level annotation", func(t *testing.T) {
		t.Parallel()

		source := `import org.testng.annotations.Test;

@Test
public class MyTest {

    public void first() {
    }

    @Test(timeOut = 10)
    public void second() {
    }

    void third() {
    }

    public MyTest() {
    }
}
`
		expected := `import org.junit.jupiter.api.Test;
import org.junit.jupiter.api.Timeout;

import java.util.concurrent.TimeUnit;

public class MyTest {

    @Test
    public void first() {
    }

    @Test
    @Timeout(value = 10, unit = TimeUnit.MILLISECONDS)
    public void second() {
    }

    void third() {
    }

    public MyTest() {
    }
}
`
		actual, result := migrate(t, testng.Options{}, source, testng.TestAnnotationID)

		assert.Equal(t, expected, actual)
		assert.Equal(t, 3, result.Migrated)
	})

	t.Run("class level attributes are kept for review", func(t *testing.T) {
		t.Parallel()

		source := `import org.testng.annotations.Test;

@Test(threadPoolSize = 8)
class Baz {
    @Test public void shouldDoStuff() {
    }
}
`
		expected := `import org.junit.jupiter.api.Test;

/* ❗ ❗ ❗
   At least one @Test-attribute could not be migrated to JUnit 5. Kindly review the remainder below
   and manually apply any changes you may require to retain the existing test suite's behavior. Delete
↓  the annotation and this comment when satisfied, or use git reset --hard to roll back the migration.

   If you think this is a mistake or have an idea how this migration could be implemented instead, any
   feedback as an issue on the testng_to_jupiter repository will be greatly appreciated.
*/
@org.testng.annotations.Test(threadPoolSize = 8)
class Baz {
    @Test public void shouldDoStuff() {
    }
}
`
		actual, result := migrate(t, testng.Options{}, source, testng.TestAnnotationID)

		assert.Equal(t, expected, actual)
		assert.Equal(t, []codemod.DiagnosticKind{codemod.UnmigratableAttribute}, kinds(result))
	})

	t.Run("annotations with a bare value are pinned to TestNG", func(t *testing.T) {
		t.Parallel()

		source := `import org.testng.annotations.Test;

public class MyTest {

    @Test("x")
    public void test() {
    }

    @Test
    public void other() {
    }
}
`
		expected := `import org.junit.jupiter.api.Test;

public class MyTest {

    @org.testng.annotations.Test("x")
    public void test() {
    }

    @Test
    public void other() {
    }
}
`
		actual, result := migrate(t, testng.Options{}, source, testng.TestAnnotationID)

		assert.Equal(t, expected, actual)
		assert.Equal(t, []codemod.DiagnosticKind{codemod.StructuralInvariantViolation}, kinds(result))
	})
}
