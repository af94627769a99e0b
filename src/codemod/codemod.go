package codemod

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"
)

type NewInput struct {
	SourceCode []byte
	// FilePath is only used to report diagnostics.
	FilePath string
}

// SourceFile is a parsed Java compilation unit plus the pending edits of the
// codemod currently working on it. Edits are recorded against the original
// byte offsets and only materialized by SourceCode.
type SourceFile struct {
	input   NewInput
	source  []byte
	tree    *sitter.Tree
	root    *sitter.Node
	edits   *Edits
	imports *Imports
}

func New(input NewInput) (*SourceFile, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(java.GetLanguage())

	tree, err := parser.ParseCtx(context.Background(), nil, input.SourceCode)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing %s", input.FilePath)
	}

	root := tree.RootNode()
	if root == nil {
		tree.Close()
		return nil, errors.Errorf("parsing %s: tree-sitter returned no root node", input.FilePath)
	}

	file := &SourceFile{
		input:  input,
		source: input.SourceCode,
		tree:   tree,
		root:   root,
		edits:  NewEdits(input.SourceCode),
	}
	file.imports = newImports(file)

	return file, nil
}

// Parse is New for callers that only have the source at hand.
func Parse(sourceCode []byte) (*SourceFile, error) {
	return New(NewInput{SourceCode: sourceCode})
}

func (file *SourceFile) Close() {
	if file.tree != nil {
		file.tree.Close()
		file.tree = nil
	}
}

func (file *SourceFile) Path() string {
	return file.input.FilePath
}

func (file *SourceFile) Source() []byte {
	return file.source
}

func (file *SourceFile) Root() *sitter.Node {
	return file.root
}

func (file *SourceFile) HasSyntaxErrors() bool {
	return file.root.HasError()
}

func (file *SourceFile) Edits() *Edits {
	return file.edits
}

func (file *SourceFile) Imports() *Imports {
	return file.imports
}

// Text returns the original source of node, ignoring pending edits.
func (file *SourceFile) Text(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	return node.Content(file.source)
}

// Render returns the source of node with every pending edit inside it applied.
func (file *SourceFile) Render(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	return file.edits.TextRange(node.StartByte(), node.EndByte())
}

// Changed reports whether the codemod recorded any edit or import change.
func (file *SourceFile) Changed() bool {
	return file.edits.Len() > 0 || file.imports.changed()
}

// SourceCode materializes the pending import changes and edits.
func (file *SourceFile) SourceCode() ([]byte, error) {
	if !file.Changed() {
		return file.source, nil
	}

	if err := file.imports.flush(file.edits); err != nil {
		return nil, errors.WithStack(err)
	}

	out, err := file.edits.Apply()
	if err != nil {
		return nil, errors.Wrapf(err, "applying edits to %s", file.input.FilePath)
	}

	return out, nil
}

type Position struct {
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

func (file *SourceFile) Position(node *sitter.Node) Position {
	point := node.StartPoint()
	return Position{Line: int(point.Row) + 1, Column: int(point.Column) + 1}
}

func Unquote(s string) string {
	if len(s) < 2 {
		return s
	}
	return s[1 : len(s)-1]
}

// Walk visits every node in pre-order. Returning false skips the children.
func (file *SourceFile) Walk(fn func(node *sitter.Node) bool) {
	walk(file.root, fn)
}

func walk(node *sitter.Node, fn func(node *sitter.Node) bool) {
	if node == nil || !fn(node) {
		return
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		walk(node.Child(i), fn)
	}
}

// WalkPost visits every node after its children, so inner nodes come first.
func (file *SourceFile) WalkPost(fn func(node *sitter.Node)) {
	walkPost(file.root, fn)
}

func walkPost(node *sitter.Node, fn func(node *sitter.Node)) {
	if node == nil {
		return
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		walkPost(node.Child(i), fn)
	}

	fn(node)
}

// ChildOfType returns the first direct child of the given type.
func ChildOfType(node *sitter.Node, nodeType string) *sitter.Node {
	if node == nil {
		return nil
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() == nodeType {
			return child
		}
	}

	return nil
}

// NamedChildren skips anonymous tokens and comments.
func NamedChildren(node *sitter.Node) []*sitter.Node {
	if node == nil {
		return nil
	}

	out := make([]*sitter.Node, 0, node.NamedChildCount())
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if IsComment(child) {
			continue
		}
		out = append(out, child)
	}

	return out
}

func IsComment(node *sitter.Node) bool {
	switch node.Type() {
	case "line_comment", "block_comment", "comment":
		return true
	}
	return false
}

// SimpleName strips the package qualifier and type arguments of a type name.
func SimpleName(name string) string {
	if i := strings.IndexByte(name, '<'); i >= 0 {
		name = name[:i]
	}
	name = strings.TrimSpace(name)
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	return name
}
