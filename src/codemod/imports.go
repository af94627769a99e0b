package codemod

import (
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

type Import struct {
	// Path is the imported name without the trailing ".*". For static
	// imports it includes the member, e.g. "org.junit.jupiter.api.Assertions.assertTrue".
	Path     string
	Static   bool
	Wildcard bool

	node *sitter.Node
	name *sitter.Node
}

// Node is the import declaration, nil for an import added by a codemod.
func (i Import) Node() *sitter.Node {
	return i.node
}

func (i Import) String() string {
	var builder strings.Builder

	builder.WriteString("import ")
	if i.Static {
		builder.WriteString("static ")
	}
	builder.WriteString(i.Path)
	if i.Wildcard {
		builder.WriteString(".*")
	}
	builder.WriteString(";")

	return builder.String()
}

// Imports tracks the import declarations of a file and the changes a
// codemod wants to make to them. Changes are idempotent: adding an import
// that is already covered, or removing one that isn't there, is a no-op.
type Imports struct {
	file     *SourceFile
	list     []Import
	added    []Import
	removed  map[int]bool
	replaced map[int]string
}

func newImports(file *SourceFile) *Imports {
	imports := &Imports{
		file:     file,
		removed:  make(map[int]bool),
		replaced: make(map[int]string),
	}

	root := file.root
	for i := 0; i < int(root.ChildCount()); i++ {
		child := root.Child(i)
		if child.Type() != "import_declaration" {
			continue
		}

		imp := Import{node: child}
		for j := 0; j < int(child.ChildCount()); j++ {
			part := child.Child(j)
			switch part.Type() {
			case "static":
				imp.Static = true
			case "asterisk":
				imp.Wildcard = true
			case "identifier", "scoped_identifier":
				imp.name = part
				imp.Path = part.Content(file.source)
			}
		}

		if imp.name != nil {
			imports.list = append(imports.list, imp)
		}
	}

	return imports
}

// All returns the imports as they will look after the pending changes.
func (imports *Imports) All() []Import {
	out := make([]Import, 0, len(imports.list)+len(imports.added))

	for i, imp := range imports.list {
		if imports.removed[i] {
			continue
		}
		if path, ok := imports.replaced[i]; ok {
			imp.Path = path
		}
		out = append(out, imp)
	}

	return append(out, imports.added...)
}

func (imports *Imports) Paths() []string {
	all := imports.All()
	out := make([]string, 0, len(all))

	for _, imp := range all {
		out = append(out, imp.Path)
	}

	return out
}

// Has reports an explicit, non static import of path.
func (imports *Imports) Has(path string) bool {
	for _, imp := range imports.All() {
		if !imp.Static && !imp.Wildcard && imp.Path == path {
			return true
		}
	}
	return false
}

// Contains reports whether typeName can be referred to by its simple name,
// either through an explicit import or an on-demand import of its package.
func (imports *Imports) Contains(typeName string) bool {
	pkg := packageOf(typeName)

	for _, imp := range imports.All() {
		if imp.Static {
			continue
		}
		if (!imp.Wildcard && imp.Path == typeName) || (imp.Wildcard && imp.Path == pkg) {
			return true
		}
	}

	return false
}

// ContainsStatic reports whether member of typeName is statically imported.
func (imports *Imports) ContainsStatic(typeName, member string) bool {
	for _, imp := range imports.All() {
		if !imp.Static {
			continue
		}
		if (!imp.Wildcard && imp.Path == typeName+"."+member) || (imp.Wildcard && imp.Path == typeName) {
			return true
		}
	}

	return false
}

// StaticMember returns the type a member is statically imported from, if any.
// Explicit imports win over on-demand ones, like in the language.
func (imports *Imports) StaticMember(member string) (string, bool) {
	wildcards := make([]string, 0)

	for _, imp := range imports.All() {
		if !imp.Static {
			continue
		}
		if imp.Wildcard {
			wildcards = append(wildcards, imp.Path)
			continue
		}
		if SimpleName(imp.Path) == member {
			return packageOf(imp.Path), true
		}
	}

	if len(wildcards) == 1 {
		return wildcards[0], true
	}

	return "", false
}

func (imports *Imports) Add(typeName string) {
	if strings.HasPrefix(typeName, "java.lang.") && strings.Count(typeName, ".") == 2 {
		return
	}
	if packageOf(typeName) == "" || imports.Contains(typeName) {
		return
	}
	imports.added = append(imports.added, Import{Path: typeName})
}

func (imports *Imports) AddStatic(typeName, member string) {
	if imports.ContainsStatic(typeName, member) {
		return
	}
	imports.added = append(imports.added, Import{Path: typeName + "." + member, Static: true})
}

// Remove drops the explicit, non static import of typeName.
func (imports *Imports) Remove(typeName string) {
	for i, imp := range imports.list {
		if !imp.Static && !imp.Wildcard && imports.currentPath(i) == typeName {
			imports.removed[i] = true
		}
	}

	imports.dropAdded(func(imp Import) bool { return !imp.Static && imp.Path == typeName })
}

// RemoveStatic drops every static import of typeName's members.
func (imports *Imports) RemoveStatic(typeName string) {
	for i, imp := range imports.list {
		if !imp.Static {
			continue
		}
		if (imp.Wildcard && imp.Path == typeName) || (!imp.Wildcard && packageOf(imp.Path) == typeName) {
			imports.removed[i] = true
		}
	}

	imports.dropAdded(func(imp Import) bool { return imp.Static && packageOf(imp.Path) == typeName })
}

// Replace rewrites the explicit import of from into an import of to, keeping
// its position in the file.
func (imports *Imports) Replace(from, to string) bool {
	replaced := false

	for i, imp := range imports.list {
		if imp.Static || imp.Wildcard || imports.removed[i] || imports.currentPath(i) != from {
			continue
		}
		if imports.Has(to) {
			imports.removed[i] = true
		} else {
			imports.replaced[i] = to
		}
		replaced = true
	}

	return replaced
}

func (imports *Imports) currentPath(i int) string {
	if path, ok := imports.replaced[i]; ok {
		return path
	}
	return imports.list[i].Path
}

func (imports *Imports) dropAdded(match func(Import) bool) {
	kept := imports.added[:0]
	for _, imp := range imports.added {
		if !match(imp) {
			kept = append(kept, imp)
		}
	}
	imports.added = kept
}

func (imports *Imports) changed() bool {
	return len(imports.added) > 0 || len(imports.removed) > 0 || len(imports.replaced) > 0
}

// flush turns the pending import changes into edits. Replacements and
// removals are done in place; adding imports lays out the whole section
// again: regular imports, then java/javax, then static imports.
func (imports *Imports) flush(edits *Edits) error {
	if !imports.changed() {
		return nil
	}

	if len(imports.added) == 0 {
		imports.flushInPlace(edits)
		return nil
	}

	section := layout(imports.All())

	if len(imports.list) == 0 {
		if pkg := ChildOfType(imports.file.root, "package_declaration"); pkg != nil {
			edits.InsertAt(pkg.EndByte(), "\n\n"+section)
		} else {
			edits.InsertAt(0, section+"\n\n")
		}
		return nil
	}

	first := imports.list[0].node
	last := imports.list[len(imports.list)-1].node
	edits.ReplaceRange(first.StartByte(), last.EndByte(), section)

	return nil
}

func (imports *Imports) flushInPlace(edits *Edits) {
	source := imports.file.source

	if len(imports.removed) == len(imports.list) {
		first := imports.list[0].node
		last := imports.list[len(imports.list)-1].node
		edits.ReplaceRange(first.StartByte(), skipWhitespace(source, last.EndByte()), "")
		return
	}

	for i, imp := range imports.list {
		if imports.removed[i] {
			edits.ReplaceRange(imp.node.StartByte(), lineEnd(source, imp.node.EndByte()), "")
			continue
		}
		if path, ok := imports.replaced[i]; ok {
			edits.Replace(imp.name, path)
		}
	}
}

func layout(list []Import) string {
	seen := make(map[string]bool)
	regular := make([]string, 0)
	javaGroup := make([]string, 0)
	static := make([]string, 0)

	for _, imp := range list {
		line := imp.String()
		if seen[line] {
			continue
		}
		seen[line] = true

		switch {
		case imp.Static:
			static = append(static, line)
		case strings.HasPrefix(imp.Path, "java.") || strings.HasPrefix(imp.Path, "javax."):
			javaGroup = append(javaGroup, line)
		default:
			regular = append(regular, line)
		}
	}

	groups := make([]string, 0, 3)
	for _, group := range [][]string{regular, javaGroup, static} {
		if len(group) == 0 {
			continue
		}
		sort.Strings(group)
		groups = append(groups, strings.Join(group, "\n"))
	}

	return strings.Join(groups, "\n\n")
}

func packageOf(typeName string) string {
	i := strings.LastIndexByte(typeName, '.')
	if i < 0 {
		return ""
	}
	return typeName[:i]
}

// lineEnd returns the offset just past the newline that ends the line
// containing position, swallowing trailing blanks.
func lineEnd(source []byte, position uint32) uint32 {
	i := position
	for int(i) < len(source) && (source[i] == ' ' || source[i] == '\t' || source[i] == '\r') {
		i++
	}
	if int(i) < len(source) && source[i] == '\n' {
		i++
	}
	return i
}

func skipWhitespace(source []byte, position uint32) uint32 {
	i := position
	for int(i) < len(source) && isSpace(source[i]) {
		i++
	}
	return i
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
