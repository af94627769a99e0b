package codemod

import (
	"fmt"
	"log/slog"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

type DiagnosticKind string

const (
	// NoRuleMatched: a recognized call or attribute was left as it was.
	NoRuleMatched DiagnosticKind = "NoRuleMatched"
	// UnmigratableAttribute: an attribute was kept in a commented out remainder for manual review.
	UnmigratableAttribute DiagnosticKind = "UnmigratableAttribute"
	// DanglingTypeReference: the migrated file still refers to a type it migrated away from.
	DanglingTypeReference DiagnosticKind = "DanglingTypeReference"
	// UnresolvedOperandType: an equality assertion was migrated without knowing
	// whether its operands are arrays or iterators, which Jupiter compares by reference.
	UnresolvedOperandType DiagnosticKind = "UnresolvedOperandType"
	// StructuralInvariantViolation: a construct had an unexpected shape and was skipped.
	StructuralInvariantViolation DiagnosticKind = "StructuralInvariantViolation"
)

// Level returns how loudly the diagnostic should be reported.
func (kind DiagnosticKind) Level() slog.Level {
	switch kind {
	case NoRuleMatched:
		return slog.LevelDebug
	case StructuralInvariantViolation:
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

type Diagnostic struct {
	Kind    DiagnosticKind
	Path    string
	Line    int
	Column  int
	Message string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s:%d:%d: %s: %s", d.Path, d.Line, d.Column, d.Kind, d.Message)
}

// Result is what a codemod did to one file.
type Result struct {
	// Migrated counts the rewritten constructs.
	Migrated    int
	Diagnostics []Diagnostic
}

func (r *Result) Merge(other Result) {
	r.Migrated += other.Migrated
	r.Diagnostics = append(r.Diagnostics, other.Diagnostics...)
}

// Report records a diagnostic attached to node.
func (file *SourceFile) Report(result *Result, kind DiagnosticKind, node *sitter.Node, format string, args ...interface{}) {
	position := file.Position(node)
	file.report(result, kind, position, format, args...)
}

// ReportAt records a diagnostic at a byte offset.
func (file *SourceFile) ReportAt(result *Result, kind DiagnosticKind, offset uint32, format string, args ...interface{}) {
	file.report(result, kind, file.PositionAt(offset), format, args...)
}

func (file *SourceFile) report(result *Result, kind DiagnosticKind, position Position, format string, args ...interface{}) {
	result.Diagnostics = append(result.Diagnostics, Diagnostic{
		Kind:    kind,
		Path:    file.Path(),
		Line:    position.Line,
		Column:  position.Column,
		Message: fmt.Sprintf(format, args...),
	})
}

// PositionAt converts a byte offset into a 1-based line and column.
func (file *SourceFile) PositionAt(offset uint32) Position {
	if int(offset) > len(file.source) {
		offset = uint32(len(file.source))
	}

	before := file.source[:offset]
	line := strings.Count(string(before), "\n") + 1
	column := int(offset) - strings.LastIndexByte(string(before), '\n')

	return Position{Line: line, Column: column}
}
