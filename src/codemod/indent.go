package codemod

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

const defaultIndent = "    "

// LineIndent returns the leading whitespace of the line node starts on.
func (file *SourceFile) LineIndent(node *sitter.Node) string {
	return lineIndent(file.source, node.StartByte())
}

func lineIndent(source []byte, position uint32) string {
	start := int(position)
	for start > 0 && source[start-1] != '\n' {
		start--
	}

	end := start
	for end < len(source) && (source[end] == ' ' || source[end] == '\t') {
		end++
	}

	return string(source[start:end])
}

// IndentUnit guesses one level of indentation from the file: a tab if any
// line is tab indented first, otherwise the smallest non-empty run of spaces.
func (file *SourceFile) IndentUnit() string {
	smallest := 0

	for _, line := range strings.Split(string(file.source), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if strings.HasPrefix(line, "\t") {
			return "\t"
		}

		width := len(line) - len(strings.TrimLeft(line, " "))
		// lines of a block comment start one space in
		if width == 0 || strings.HasPrefix(strings.TrimLeft(line, " "), "*") {
			continue
		}
		if smallest == 0 || width < smallest {
			smallest = width
		}
	}

	if smallest < 2 {
		return defaultIndent
	}

	return strings.Repeat(" ", smallest)
}

// Reindent prefixes every non blank line of text with prefix.
func Reindent(text, prefix string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			lines[i] = ""
			continue
		}
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}

// StartsLine reports whether only whitespace precedes node on its line.
func (file *SourceFile) StartsLine(node *sitter.Node) bool {
	for i := int(node.StartByte()) - 1; i >= 0; i-- {
		switch file.source[i] {
		case '\n':
			return true
		case ' ', '\t', '\r':
			continue
		default:
			return false
		}
	}
	return true
}

// NextTokenStart returns the offset of the first non whitespace byte at or after position.
func (file *SourceFile) NextTokenStart(position uint32) uint32 {
	return skipWhitespace(file.source, position)
}

// Between returns the original source in [start, end).
func (file *SourceFile) Between(start, end uint32) string {
	return string(file.source[start:end])
}
