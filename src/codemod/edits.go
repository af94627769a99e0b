package codemod

import (
	"bytes"
	"sort"

	"github.com/pkg/errors"
	sitter "github.com/smacker/go-tree-sitter"
)

var ErrOverlappingEdits = errors.New("edits overlap")

type edit struct {
	start uint32
	end   uint32
	text  string
	seq   int
}

func (e edit) isInsert() bool {
	return e.start == e.end
}

// contains reports whether e swallows other. A replacement recorded later
// than the edits inside its range is assumed to have rendered them already.
func (e edit) contains(other edit) bool {
	if e.isInsert() || other.seq > e.seq {
		return false
	}
	if other.isInsert() {
		return e.start < other.start && other.start < e.end
	}
	return e.start <= other.start && other.end <= e.end
}

// Edits is an ordered set of byte range replacements over one source buffer.
type Edits struct {
	source []byte
	edits  []edit
}

func NewEdits(source []byte) *Edits {
	return &Edits{source: source}
}

func (edits *Edits) Len() int {
	return len(edits.edits)
}

func (edits *Edits) Replace(node *sitter.Node, text string) {
	edits.ReplaceRange(node.StartByte(), node.EndByte(), text)
}

func (edits *Edits) ReplaceRange(start, end uint32, text string) {
	edits.edits = append(edits.edits, edit{start: start, end: end, text: text, seq: len(edits.edits)})
}

func (edits *Edits) InsertAt(position uint32, text string) {
	edits.ReplaceRange(position, position, text)
}

func (edits *Edits) Remove(node *sitter.Node) {
	edits.ReplaceRange(node.StartByte(), node.EndByte(), "")
}

// TextRange renders source[start:end] with the edits that lie inside it.
// Insertions sitting exactly on the boundaries belong to the surrounding text.
func (edits *Edits) TextRange(start, end uint32) string {
	inside := make([]edit, 0)
	for _, e := range edits.edits {
		if e.isInsert() {
			if start < e.start && e.start < end {
				inside = append(inside, e)
			}
			continue
		}
		if start <= e.start && e.end <= end {
			inside = append(inside, e)
		}
	}

	out, err := render(edits.source, start, end, outermost(inside))
	if err != nil {
		return string(edits.source[start:end])
	}

	return string(out)
}

// Apply returns the whole source with every edit applied.
func (edits *Edits) Apply() ([]byte, error) {
	return render(edits.source, 0, uint32(len(edits.source)), outermost(edits.edits))
}

func outermost(list []edit) []edit {
	out := make([]edit, 0, len(list))

	for i, candidate := range list {
		swallowed := false
		for j, other := range list {
			if i != j && other.contains(candidate) {
				swallowed = true
				break
			}
		}
		if !swallowed {
			out = append(out, candidate)
		}
	}

	return out
}

func render(source []byte, start, end uint32, list []edit) ([]byte, error) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].start != list[j].start {
			return list[i].start < list[j].start
		}
		if list[i].end != list[j].end {
			return list[i].end < list[j].end
		}
		return list[i].seq < list[j].seq
	})

	var buffer bytes.Buffer
	cursor := start

	for _, e := range list {
		if e.start < cursor {
			return nil, errors.Wrapf(ErrOverlappingEdits, "edit at %d-%d overlaps a previous edit ending at %d", e.start, e.end, cursor)
		}
		buffer.Write(source[cursor:e.start])
		buffer.WriteString(e.text)
		cursor = e.end
	}

	buffer.Write(source[cursor:end])

	return buffer.Bytes(), nil
}
