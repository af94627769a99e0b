package testng_test

import (
	"testing"

	"github.com/PoorlyDefinedBehaviour/testng_to_jupiter/src/testng"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipeline(t *testing.T) {
	t.Parallel()

	ids := func(recipes []testng.Recipe) []string {
		out := make([]string, 0, len(recipes))
		for _, recipe := range recipes {
			out = append(out, recipe.ID)
		}
		return out
	}

	t.Run("every recipe in order when no ids are given", func(t *testing.T) {
		t.Parallel()

		recipes, err := testng.Pipeline(nil, testng.Options{})
		require.NoError(t, err)

		assert.Equal(t, []string{
			testng.MismatchedAssertionsID,
			testng.AssertEqualsDeepID,
			testng.AssertionsID,
			testng.TestAnnotationID,
			testng.VerifyReferencesID,
		}, ids(recipes))
		assert.Equal(t, testng.IDs(), ids(recipes))
	})

	t.Run("keeps the order recipes must run in", func(t *testing.T) {
		t.Parallel()

		recipes, err := testng.Pipeline([]string{testng.TestAnnotationID, testng.MismatchedAssertionsID, testng.TestAnnotationID}, testng.Options{})
		require.NoError(t, err)

		assert.Equal(t, []string{testng.MismatchedAssertionsID, testng.TestAnnotationID}, ids(recipes))
	})

	t.Run("unknown recipe", func(t *testing.T) {
		t.Parallel()

		_, err := testng.Pipeline([]string{testng.AssertionsID, "surefire"}, testng.Options{})

		assert.True(t, errors.Is(err, testng.ErrUnknownRecipe))
		assert.Contains(t, err.Error(), "surefire")
	})

	t.Run("every recipe describes itself", func(t *testing.T) {
		t.Parallel()

		for _, recipe := range testng.Recipes(testng.Options{}) {
			assert.NotEmpty(t, recipe.Name, recipe.ID)
			assert.NotEmpty(t, recipe.Description, recipe.ID)
			assert.NotNil(t, recipe.Apply, recipe.ID)
		}
	})
}

func TestFullMigration(t *testing.T) {
	t.Parallel()

	source := `import org.testng.Assert;
import org.testng.annotations.Test;

public class MyTest {

    @Test(expectedExceptions = IllegalStateException.class)
    public void test() {
        Assert.assertEquals(compute(), 42);
        throw new IllegalStateException();
    }
}
`
	expected := `import org.junit.jupiter.api.Assertions;
import org.junit.jupiter.api.Test;

import static org.junit.jupiter.api.Assertions.assertThrows;

public class MyTest {

    @Test
    public void test() {
        assertThrows(IllegalStateException.class, () -> {
            Assertions.assertEquals(42, compute());
            throw new IllegalStateException();
        });
    }
}
`

	actual, result := migrate(t, testng.Options{}, source)

	assert.Equal(t, expected, actual)
	assert.Equal(t, 2, result.Migrated)
	assert.Empty(t, result.Diagnostics)

	t.Run("running again changes nothing", func(t *testing.T) {
		again, result := migrate(t, testng.Options{}, actual)

		assert.Equal(t, expected, again)
		assert.Zero(t, result.Migrated)
		assert.Empty(t, result.Diagnostics)
	})
}
