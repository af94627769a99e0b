package apply

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sourcegraph/go-diff/diff"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func numberedLines(n int, change func(i int) string) string {
	builder := strings.Builder{}

	for i := 1; i <= n; i++ {
		builder.WriteString(change(i))
		builder.WriteString("\n")
	}

	return builder.String()
}

func Test_unifiedDiff(t *testing.T) {
	t.Parallel()

	t.Run("when nothing changed", func(t *testing.T) {
		t.Parallel()

		out, err := unifiedDiff("A.java", []byte("a\n"), []byte("a\n"))
		require.NoError(t, err)

		assert.Nil(t, out)
	})

	t.Run("far apart changes get their own hunks", func(t *testing.T) {
		t.Parallel()

		before := numberedLines(20, func(i int) string { return fmt.Sprintf("l%d", i) })
		after := numberedLines(20, func(i int) string {
			if i == 2 || i == 19 {
				return fmt.Sprintf("L%d", i)
			}
			return fmt.Sprintf("l%d", i)
		})

		out, err := unifiedDiff("A.java", []byte(before), []byte(after))
		require.NoError(t, err)

		expected := `--- a/A.java
+++ b/A.java
@@ -1,5 +1,5 @@
 l1
-l2
+L2
 l3
 l4
 l5
@@ -16,5 +16,5 @@
 l16
 l17
 l18
-l19
+L19
 l20
`
		assert.Equal(t, expected, string(out))

		parsed, err := diff.ParseFileDiff(out)
		require.NoError(t, err)
		assert.Len(t, parsed.Hunks, 2)
	})

	t.Run("marks a missing final newline", func(t *testing.T) {
		t.Parallel()

		out, err := unifiedDiff("A.java", []byte("a\nb"), []byte("a\nc\n"))
		require.NoError(t, err)

		expected := "--- a/A.java\n+++ b/A.java\n@@ -1,2 +1,2 @@\n a\n-b\n\\ No newline at end of file\n+c\n"
		assert.Equal(t, expected, string(out))
	})

	t.Run("insertions into an empty file", func(t *testing.T) {
		t.Parallel()

		out, err := unifiedDiff("A.java", nil, []byte("a\n"))
		require.NoError(t, err)

		assert.Equal(t, "--- a/A.java\n+++ b/A.java\n@@ -0,0 +1 @@\n+a\n", string(out))

		parsed, err := diff.ParseFileDiff(out)
		require.NoError(t, err)
		require.Len(t, parsed.Hunks, 1)
		assert.Equal(t, int32(1), parsed.Hunks[0].NewLines)
	})
}
