package codemod

import (
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// Value is an expression handle: a node plus the file it belongs to.
type Value struct {
	file *SourceFile
	Node *sitter.Node
}

func (file *SourceFile) Value(node *sitter.Node) Value {
	return Value{file: file, Node: node}
}

// Text is the original source of the expression.
func (v Value) Text() string {
	return v.file.Text(v.Node)
}

// Render is the source of the expression with the pending edits inside it.
func (v Value) Render() string {
	return v.file.Render(v.Node)
}

func (v Value) Type() Type {
	return v.file.TypeOf(v.Node)
}

func (v Value) NodeType() string {
	if v.Node == nil {
		return ""
	}
	return v.Node.Type()
}

func (v Value) IsStringLiteral() bool {
	return v.NodeType() == "string_literal"
}

// String returns the unquoted value of a string literal.
func (v Value) String() string {
	if !v.IsStringLiteral() {
		return v.Text()
	}
	return Unquote(v.Text())
}

func (v Value) IsLiteral(text string) bool {
	return v.Node != nil && strings.TrimSpace(v.Text()) == text
}

// IsName reports a plain reference: a variable, this.x or a chain of field accesses.
func (v Value) IsName() bool {
	return isName(v.Node)
}

func isName(node *sitter.Node) bool {
	if node == nil {
		return false
	}

	switch node.Type() {
	case "identifier", "this":
		return true
	case "field_access":
		return isName(node.ChildByFieldName("object"))
	case "parenthesized_expression":
		inner := NamedChildren(node)
		return len(inner) == 1 && isName(inner[0])
	}

	return false
}

// IsPrimary reports whether the expression can be used as a method receiver
// without parentheses.
func (v Value) IsPrimary() bool {
	switch v.NodeType() {
	case "identifier", "this", "field_access", "method_invocation", "array_access",
		"parenthesized_expression", "object_creation_expression", "string_literal", "class_literal":
		return true
	}
	return false
}

// Elements returns the items of an array initializer, or the value itself.
func (v Value) Elements() []Value {
	if v.NodeType() != "element_value_array_initializer" && v.NodeType() != "array_initializer" {
		return []Value{v}
	}

	children := NamedChildren(v.Node)
	out := make([]Value, 0, len(children))
	for _, child := range children {
		out = append(out, v.file.Value(child))
	}

	return out
}

func (v Value) IsArrayInitializer() bool {
	return v.NodeType() == "element_value_array_initializer" || v.NodeType() == "array_initializer"
}

type Values []Value

func (values Values) Render() []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, v.Render())
	}
	return out
}

// FunctionCall is a method invocation: object.name(args...).
type FunctionCall struct {
	file   *SourceFile
	Node   *sitter.Node
	Object *sitter.Node
	Name   string
	Args   Values
}

// ObjectText returns the qualifier as written, or "" for an unqualified call.
func (call FunctionCall) ObjectText() string {
	return call.file.Text(call.Object)
}

func (call FunctionCall) Replace(text string) {
	call.file.edits.Replace(call.Node, text)
}

func (call FunctionCall) Position() Position {
	return call.file.Position(call.Node)
}

// FunctionCalls returns every method invocation, inner calls before the
// calls that contain them.
func (file *SourceFile) FunctionCalls() []FunctionCall {
	out := make([]FunctionCall, 0)

	file.WalkPost(func(node *sitter.Node) {
		if node.Type() != "method_invocation" {
			return
		}

		call := FunctionCall{
			file:   file,
			Node:   node,
			Object: node.ChildByFieldName("object"),
			Name:   file.Text(node.ChildByFieldName("name")),
		}
		for _, arg := range NamedChildren(node.ChildByFieldName("arguments")) {
			call.Args = append(call.Args, file.Value(arg))
		}

		out = append(out, call)
	})

	return out
}

// FindCalls returns the invocations of name, e.g. "assertEquals" or "Assert.assertEquals".
func (file *SourceFile) FindCalls(name string) []FunctionCall {
	object, method := "", name
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		object, method = name[:i], name[i+1:]
	}

	out := make([]FunctionCall, 0)
	for _, call := range file.FunctionCalls() {
		if call.Name == method && call.ObjectText() == object {
			out = append(out, call)
		}
	}

	return out
}

type Annotation struct {
	file *SourceFile
	Node *sitter.Node
	// Name is the annotation type as written, e.g. "Test" or "org.testng.annotations.Test".
	Name string
}

func (file *SourceFile) annotation(node *sitter.Node) Annotation {
	return Annotation{file: file, Node: node, Name: file.Text(node.ChildByFieldName("name"))}
}

// Arguments returns the argument list node, nil for a marker annotation.
func (a Annotation) Arguments() *sitter.Node {
	return a.Node.ChildByFieldName("arguments")
}

func (a Annotation) HasArguments() bool {
	return len(NamedChildren(a.Arguments())) > 0
}

func (a Annotation) Text() string {
	return a.file.Text(a.Node)
}

func (a Annotation) Position() Position {
	return a.file.Position(a.Node)
}

// PrecedingComment returns the comment right before the annotation, if any.
func (a Annotation) PrecedingComment() *sitter.Node {
	node := a.Node
	// the first annotation of a declaration: the comment sits before the declaration
	for node.PrevSibling() == nil && isDeclarationPart(node.Parent()) {
		node = node.Parent()
	}

	previous := node.PrevSibling()
	if previous != nil && IsComment(previous) {
		return previous
	}
	return nil
}

func isDeclarationPart(node *sitter.Node) bool {
	if node == nil {
		return false
	}

	switch node.Type() {
	case "modifiers", "method_declaration", "constructor_declaration", "class_declaration":
		return true
	}
	return false
}

func isAnnotation(node *sitter.Node) bool {
	return node.Type() == "annotation" || node.Type() == "marker_annotation"
}

// Annotations returns every annotation in the file.
func (file *SourceFile) Annotations() []Annotation {
	out := make([]Annotation, 0)

	file.Walk(func(node *sitter.Node) bool {
		if isAnnotation(node) {
			out = append(out, file.annotation(node))
		}
		return true
	})

	return out
}

func annotationsOf(file *SourceFile, declaration *sitter.Node) []Annotation {
	out := make([]Annotation, 0)

	modifiers := ChildOfType(declaration, "modifiers")
	if modifiers == nil {
		return out
	}

	for i := 0; i < int(modifiers.ChildCount()); i++ {
		child := modifiers.Child(i)
		if isAnnotation(child) {
			out = append(out, file.annotation(child))
		}
	}

	return out
}

func hasModifier(file *SourceFile, declaration *sitter.Node, keyword string) bool {
	modifiers := ChildOfType(declaration, "modifiers")
	if modifiers == nil {
		return false
	}

	for i := 0; i < int(modifiers.ChildCount()); i++ {
		child := modifiers.Child(i)
		if !isAnnotation(child) && !IsComment(child) && file.Text(child) == keyword {
			return true
		}
	}

	return false
}

// firstKeyword returns the first non annotation token of the declaration:
// a modifier keyword, the type parameters or the return type.
func firstKeyword(declaration *sitter.Node) *sitter.Node {
	for i := 0; i < int(declaration.ChildCount()); i++ {
		child := declaration.Child(i)
		if IsComment(child) {
			continue
		}
		if child.Type() != "modifiers" {
			return child
		}

		for j := 0; j < int(child.ChildCount()); j++ {
			modifier := child.Child(j)
			if !isAnnotation(modifier) && !IsComment(modifier) {
				return modifier
			}
		}
	}

	return nil
}

type Method struct {
	file *SourceFile
	Node *sitter.Node
}

func (m Method) Name() string {
	return m.file.Text(m.Node.ChildByFieldName("name"))
}

func (m Method) IsConstructor() bool {
	return m.Node.Type() == "constructor_declaration" || m.Node.Type() == "compact_constructor_declaration"
}

func (m Method) IsPublic() bool {
	return hasModifier(m.file, m.Node, "public")
}

func (m Method) Annotations() []Annotation {
	return annotationsOf(m.file, m.Node)
}

// Body is the block of the method, nil for abstract and interface methods.
func (m Method) Body() *sitter.Node {
	return m.Node.ChildByFieldName("body")
}

// FirstKeyword is where annotations added to the method go.
func (m Method) FirstKeyword() *sitter.Node {
	return firstKeyword(m.Node)
}

// Class returns the class declaring the method; ok is false for methods of
// enums, interfaces, records and anonymous classes.
func (m Method) Class() (Class, bool) {
	body := m.Node.Parent()
	if body == nil || body.Type() != "class_body" {
		return Class{}, false
	}

	declaration := body.Parent()
	if declaration == nil || declaration.Type() != "class_declaration" {
		return Class{}, false
	}

	return Class{file: m.file, Node: declaration}, true
}

func (m Method) Position() Position {
	return m.file.Position(m.Node)
}

func (file *SourceFile) Methods() []Method {
	out := make([]Method, 0)

	file.Walk(func(node *sitter.Node) bool {
		switch node.Type() {
		case "method_declaration", "constructor_declaration", "compact_constructor_declaration":
			out = append(out, Method{file: file, Node: node})
		}
		return true
	})

	return out
}

type Class struct {
	file *SourceFile
	Node *sitter.Node
}

func (c Class) Name() string {
	return c.file.Text(c.Node.ChildByFieldName("name"))
}

// IsTopLevel reports a class declared directly in the compilation unit.
func (c Class) IsTopLevel() bool {
	parent := c.Node.Parent()
	return parent != nil && parent.Type() == "program"
}

func (c Class) Annotations() []Annotation {
	return annotationsOf(c.file, c.Node)
}

// Superclass returns the simple name of the extended class, if any.
func (c Class) Superclass() string {
	superclass := c.Node.ChildByFieldName("superclass")
	if superclass == nil {
		return ""
	}

	for _, child := range NamedChildren(superclass) {
		return SimpleName(c.file.Text(child))
	}

	return ""
}

func (c Class) Position() Position {
	return c.file.Position(c.Node)
}

// Classes returns every class declaration, nested ones included.
func (file *SourceFile) Classes() []Class {
	out := make([]Class, 0)

	file.Walk(func(node *sitter.Node) bool {
		if node.Type() == "class_declaration" {
			out = append(out, Class{file: file, Node: node})
		}
		return true
	})

	return out
}

// Comments returns every line and block comment.
func (file *SourceFile) Comments() []*sitter.Node {
	out := make([]*sitter.Node, 0)

	file.Walk(func(node *sitter.Node) bool {
		if IsComment(node) {
			out = append(out, node)
		}
		return true
	})

	return out
}

// Identifiers returns every identifier and type identifier outside of the
// import and package declarations.
func (file *SourceFile) Identifiers() []*sitter.Node {
	out := make([]*sitter.Node, 0)

	file.Walk(func(node *sitter.Node) bool {
		switch node.Type() {
		case "import_declaration", "package_declaration":
			return false
		case "identifier", "type_identifier":
			out = append(out, node)
		}
		return true
	})

	return out
}

// QualifiedNames returns the dotted names outside of the import and package
// declarations, outermost first.
func (file *SourceFile) QualifiedNames() []*sitter.Node {
	out := make([]*sitter.Node, 0)

	file.Walk(func(node *sitter.Node) bool {
		switch node.Type() {
		case "import_declaration", "package_declaration":
			return false
		case "scoped_identifier", "scoped_type_identifier", "field_access":
			out = append(out, node)
		}
		return true
	})

	return out
}

// Enclosing returns the closest ancestor of node of one of the given types.
func Enclosing(node *sitter.Node, types ...string) *sitter.Node {
	for parent := node.Parent(); parent != nil; parent = parent.Parent() {
		for _, t := range types {
			if parent.Type() == t {
				return parent
			}
		}
	}
	return nil
}

// FreshName returns base, or base followed by a number, such that no
// identifier inside scope already uses it.
func (file *SourceFile) FreshName(scope *sitter.Node, base string) string {
	used := make(map[string]bool)
	walk(scope, func(node *sitter.Node) bool {
		if node.Type() == "identifier" {
			used[file.Text(node)] = true
		}
		return true
	})

	name := base
	for i := 2; used[name]; i++ {
		name = base + strconv.Itoa(i)
	}

	return name
}
