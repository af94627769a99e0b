package apply

import (
	"bytes"

	udiff "github.com/aymanbagabas/go-udiff"
	"github.com/pkg/errors"
)

// unifiedDiff returns the unified diff turning before into after, nil when they are equal.
func unifiedDiff(path string, before, after []byte) ([]byte, error) {
	if bytes.Equal(before, after) {
		return nil, nil
	}

	edits := udiff.Bytes(before, after)

	out, err := udiff.ToUnified("a/"+path, "b/"+path, string(before), edits, udiff.DefaultContextLines)
	if err != nil {
		return nil, errors.Wrapf(err, "diffing %s", path)
	}

	return []byte(out), nil
}
