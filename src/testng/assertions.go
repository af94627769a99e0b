package testng

import (
	"fmt"
	"strings"

	"github.com/PoorlyDefinedBehaviour/testng_to_jupiter/src/codemod"
	sitter "github.com/smacker/go-tree-sitter"
)

const (
	testngAssert      = "org.testng.Assert"
	jupiterAssertions = "org.junit.jupiter.api.Assertions"
)

// testngAssertMethods are the members of org.testng.Assert a bare call can refer to.
var testngAssertMethods = map[string]bool{
	"assertEquals": true, "assertNotEquals": true, "assertEqualsDeep": true, "assertNotEqualsDeep": true,
	"assertEqualsNoOrder": true, "assertTrue": true, "assertFalse": true, "assertNull": true,
	"assertNotNull": true, "assertSame": true, "assertNotSame": true, "assertThrows": true,
	"expectThrows": true, "fail": true, "assertListContains": true, "assertListContainsObject": true,
	"assertListNotContains": true, "assertListNotContainsObject": true,
}

type callStyle int

const (
	// Assert.assertEquals(...)
	styleImported callStyle = iota
	// org.testng.Assert.assertEquals(...)
	styleQualified
	// assertEquals(...) through a static import
	styleStatic
)

// CallSite is a recognized call of an org.testng.Assert method.
type CallSite struct {
	file   *codemod.SourceFile
	Call   codemod.FunctionCall
	Method string
	Args   codemod.Values
	style  callStyle
}

func (site *CallSite) arity() int {
	return len(site.Args)
}

func (site *CallSite) arg(i int) codemod.Value {
	return site.Args[i]
}

// rest renders the arguments from i on, e.g. the optional message.
func (site *CallSite) rest(i int) []string {
	if i >= len(site.Args) {
		return nil
	}
	return site.Args[i:].Render()
}

// findCallSites returns the calls of org.testng.Assert methods, inner calls first.
func findCallSites(file *codemod.SourceFile) []*CallSite {
	imports := file.Imports()
	out := make([]*CallSite, 0)

	for _, call := range file.FunctionCalls() {
		site := &CallSite{file: file, Call: call, Method: call.Name, Args: call.Args}

		switch object := call.ObjectText(); {
		case object == testngAssert:
			site.style = styleQualified
		case object == "Assert" && imports.Contains(testngAssert):
			site.style = styleImported
		case object == "" && testngAssertMethods[call.Name] && imports.ContainsStatic(testngAssert, call.Name):
			site.style = styleStatic
		default:
			continue
		}

		out = append(out, site)
	}

	return out
}

// Rule is one entry of the call catalogue. Match only looks at the original
// source; Rewrite renders the replacement of the whole call.
type Rule struct {
	Name    string
	Match   func(site *CallSite, options Options) bool
	Rewrite func(site *CallSite, to *target) string
	// Review returns why a rewritten call still needs a look, "" when it doesn't.
	Review func(site *CallSite) (codemod.DiagnosticKind, string)
}

// target renders calls of Jupiter assertions in the style of the call site
// and keeps track of the imports the replacement needs.
type target struct {
	file  *codemod.SourceFile
	site  *CallSite
	style callStyle
}

func (to *target) member(name string) string {
	switch to.style {
	case styleQualified:
		return jupiterAssertions + "." + name
	case styleStatic:
		to.file.Imports().AddStatic(jupiterAssertions, name)
		return name
	default:
		to.file.Imports().Add(jupiterAssertions)
		return "Assertions." + name
	}
}

func (to *target) call(name string, args ...string) string {
	return fmt.Sprintf("%s(%s)", to.member(name), strings.Join(args, ", "))
}

// use imports typeName and returns how to refer to it.
func (to *target) use(typeName string) string {
	to.file.Imports().Add(typeName)
	return codemod.SimpleName(typeName)
}

// receiver renders v so that a method can be called on it.
func (to *target) receiver(v codemod.Value) string {
	if v.IsPrimary() {
		return v.Render()
	}
	return "(" + v.Render() + ")"
}

// lines joins a multi line template, indenting every line after the first
// like the statement the call is part of.
func (to *target) lines(lines ...string) string {
	indent := to.file.LineIndent(to.site.Call.Node)
	unit := to.file.IndentUnit()

	var builder strings.Builder
	for i, line := range lines {
		if i > 0 {
			builder.WriteString("\n")
			builder.WriteString(indent)
		}
		depth := len(line) - len(strings.TrimLeft(line, "\t"))
		builder.WriteString(strings.Repeat(unit, depth))
		builder.WriteString(line[depth:])
	}

	return builder.String()
}

func (to *target) freshName(base string) string {
	scope := codemod.Enclosing(to.site.Call.Node, "method_declaration", "constructor_declaration", "lambda_expression", "class_body")
	if scope == nil {
		scope = to.file.Root()
	}
	return to.file.FreshName(scope, base)
}

// migrateCalls runs the rules over every TestNG call of the file. The first
// matching rule wins; calls no rule matches are left as they are, and
// reported when reportUnmatched is set.
func migrateCalls(file *codemod.SourceFile, rules []Rule, options Options, reportUnmatched bool) (codemod.Result, error) {
	result := codemod.Result{}

	sites := findCallSites(file)
	if len(sites) == 0 {
		return result, nil
	}

	planned := make(map[*CallSite]Rule, len(sites))
	for _, site := range sites {
		for _, rule := range rules {
			if rule.Match(site, options) {
				planned[site] = rule
				break
			}
		}
	}

	complete := len(planned) == len(sites) && !hasOtherAssertReferences(file, sites)

	for _, site := range sites {
		rule, ok := planned[site]
		if !ok {
			if !reportUnmatched {
				continue
			}
			file.Report(&result, codemod.NoRuleMatched, site.Call.Node,
				"%s with %d argument(s) has no Jupiter equivalent, left unchanged", site.Method, site.arity())
			continue
		}

		to := &target{file: file, site: site, style: site.style}
		// a bare Jupiter call would be ambiguous next to a TestNG static import that stays
		if site.style == styleStatic && !complete {
			to.style = styleImported
		}

		site.Call.Replace(rule.Rewrite(site, to))
		result.Migrated++

		if rule.Review != nil {
			if kind, message := rule.Review(site); message != "" {
				file.Report(&result, kind, site.Call.Node, "%s", message)
			}
		}
	}

	if complete {
		file.Imports().Remove(testngAssert)
		file.Imports().RemoveStatic(testngAssert)
	}

	return result, nil
}

// hasOtherAssertReferences reports uses of org.testng.Assert that are not one
// of the given call sites: method references, class literals, unknown members.
func hasOtherAssertReferences(file *codemod.SourceFile, sites []*CallSite) bool {
	objects := make(map[uint32]bool, len(sites))
	for _, site := range sites {
		if site.Call.Object != nil {
			objects[site.Call.Object.StartByte()] = true
		}
	}

	imported := file.Imports().Contains(testngAssert)

	for _, node := range file.QualifiedNames() {
		if file.Text(node) == testngAssert && !objects[node.StartByte()] {
			return true
		}
	}

	if imported {
		for _, node := range file.Identifiers() {
			if file.Text(node) == "Assert" && !objects[node.StartByte()] && !insideQualifiedName(node) {
				return true
			}
		}
	}

	return false
}

// insideQualifiedName reports a segment of a dotted name other than the first,
// like Assert in org.testng.Assert.
func insideQualifiedName(node *sitter.Node) bool {
	parent := node.Parent()
	if parent == nil {
		return false
	}
	switch parent.Type() {
	case "scoped_identifier", "scoped_type_identifier", "field_access":
		return parent.StartByte() != node.StartByte()
	}
	return false
}
