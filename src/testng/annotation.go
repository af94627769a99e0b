package testng

import (
	"strings"

	"github.com/PoorlyDefinedBehaviour/testng_to_jupiter/src/codemod"
	sitter "github.com/smacker/go-tree-sitter"
)

const (
	testngTest        = "org.testng.annotations.Test"
	jupiterAPI        = "org.junit.jupiter.api"
	jupiterTest       = jupiterAPI + ".Test"
	jupiterDisplay    = jupiterAPI + ".DisplayName"
	jupiterDisabled   = jupiterAPI + ".Disabled"
	jupiterTag        = jupiterAPI + ".Tag"
	jupiterTimeout    = jupiterAPI + ".Timeout"
	javaUtilTimeUnit  = "java.util.concurrent.TimeUnit"
	maxSuperclassHops = 16
)

// misfitHeader identifies the comment above a retained TestNG annotation.
const misfitHeader = "At least one @Test-attribute could not be migrated to JUnit 5."

var misfitComment = []string{
	"/* ❗ ❗ ❗",
	"   " + misfitHeader + " Kindly review the remainder below",
	"   and manually apply any changes you may require to retain the existing test suite's behavior. Delete",
	"↓  the annotation and this comment when satisfied, or use git reset --hard to roll back the migration.",
	"",
	"   If you think this is a mistake or have an idea how this migration could be implemented instead, any",
	"   feedback as an issue on the testng_to_jupiter repository will be greatly appreciated.",
	"*/",
}

// obligation is handed from a class level @Test to the methods of that class:
// every public method without a test annotation gets marker.
type obligation struct {
	marker string
}

type annotationMigration struct {
	file    *codemod.SourceFile
	options Options
	result  codemod.Result
	// retained are TestNG annotations kept on purpose by an earlier run.
	retained map[uint32]bool
	// simpleMarker is set once a bare @Test that relies on an import is emitted.
	simpleMarker bool
}

// migrateTestAnnotations rewrites TestNG @Test annotations into Jupiter ones.
func migrateTestAnnotations(file *codemod.SourceFile, options Options) (codemod.Result, error) {
	migration := &annotationMigration{
		file:     file,
		options:  options,
		retained: make(map[uint32]bool),
	}

	if !migration.referencesTestNG() {
		return migration.result, nil
	}

	for _, annotation := range file.Annotations() {
		if migration.isTestNG(annotation) && isRetainedMisfit(file, annotation) {
			migration.retained[annotation.Node.StartByte()] = true
		}
	}

	// qualified names and comments first: the annotation and body rewrites
	// below render them.
	migration.changeType()

	obligations := make(map[uint32]obligation)
	for _, class := range file.Classes() {
		if o, ok := migration.migrateClass(class); ok && class.IsTopLevel() {
			obligations[class.Node.StartByte()] = o
		}
	}

	for _, method := range file.Methods() {
		o := obligation{}
		if class, ok := method.Class(); ok {
			o = obligations[class.Node.StartByte()]
		}
		migration.migrateMethod(method, o)
	}

	migration.changeImport()

	return migration.result, nil
}

func (migration *annotationMigration) referencesTestNG() bool {
	if migration.file.Imports().Contains(testngTest) {
		return true
	}
	for _, node := range migration.file.QualifiedNames() {
		if migration.file.Text(node) == testngTest {
			return true
		}
	}
	return false
}

func (migration *annotationMigration) isTestNG(annotation codemod.Annotation) bool {
	if annotation.Name == testngTest {
		return true
	}
	if annotation.Name != "Test" {
		return false
	}

	imports := migration.file.Imports()
	return imports.Has(testngTest) || (imports.Contains(testngTest) && !imports.Has(jupiterTest))
}

func (migration *annotationMigration) isJupiter(annotation codemod.Annotation) bool {
	if annotation.Name == jupiterTest {
		return true
	}
	return annotation.Name == "Test" && migration.file.Imports().Has(jupiterTest)
}

func isRetainedMisfit(file *codemod.SourceFile, annotation codemod.Annotation) bool {
	comment := annotation.PrecedingComment()
	return comment != nil && strings.Contains(file.Text(comment), misfitHeader)
}

// testNGAnnotation returns the TestNG @Test among annotations that still needs migrating.
func (migration *annotationMigration) testNGAnnotation(annotations []codemod.Annotation) (codemod.Annotation, bool) {
	for _, annotation := range annotations {
		if migration.isTestNG(annotation) && !migration.retained[annotation.Node.StartByte()] {
			return annotation, true
		}
	}
	return codemod.Annotation{}, false
}

func (migration *annotationMigration) hasJupiterTest(annotations []codemod.Annotation) bool {
	for _, annotation := range annotations {
		if migration.isJupiter(annotation) {
			return true
		}
	}
	return false
}

// changeType rewrites fully qualified references in code and comments.
func (migration *annotationMigration) changeType() {
	file := migration.file

	for _, node := range file.QualifiedNames() {
		if file.Text(node) != testngTest {
			continue
		}
		if parent := node.Parent(); parent != nil && migration.retained[parent.StartByte()] {
			continue
		}
		file.Edits().Replace(node, jupiterTest)
	}

	for _, comment := range file.Comments() {
		text := file.Text(comment)
		if strings.Contains(text, testngTest) {
			file.Edits().Replace(comment, strings.ReplaceAll(text, testngTest, jupiterTest))
		}
	}
}

// changeImport swaps the TestNG import for the Jupiter one.
func (migration *annotationMigration) changeImport() {
	imports := migration.file.Imports()

	replaced := imports.Replace(testngTest, jupiterTest)
	if !replaced && migration.simpleMarker {
		// only reachable through an on demand import of org.testng.annotations
		imports.Add(jupiterTest)
	}
}

// marker returns the bare Jupiter annotation, qualified like annotation.
func (migration *annotationMigration) marker(annotation codemod.Annotation) string {
	if strings.Contains(annotation.Name, ".") {
		return "@" + jupiterTest
	}
	migration.simpleMarker = true
	return "@Test"
}

// keepTestNG pins an annotation that can't be migrated to TestNG, since the
// import it relied on is about to change.
func (migration *annotationMigration) keepTestNG(annotation codemod.Annotation, err error) {
	file := migration.file

	file.Report(&migration.result, codemod.StructuralInvariantViolation, annotation.Node, "%s", err)
	file.Edits().Replace(annotation.Node, "@"+testngTest+file.Text(annotation.Arguments()))
}

// migrateClass drops a class level @Test and returns what it obliges the
// methods of the class to carry.
func (migration *annotationMigration) migrateClass(class codemod.Class) (obligation, bool) {
	file := migration.file

	annotation, ok := migration.testNGAnnotation(class.Annotations())
	if !ok {
		return obligation{}, false
	}

	attributes, err := ExtractAttributes(file, annotation, classAttributes)
	if err != nil {
		migration.keepTestNG(annotation, err)
		return obligation{}, false
	}

	indent := file.LineIndent(annotation.Node)
	replacement := ""
	for _, comment := range attributes.Comments() {
		replacement += comment + "\n" + indent
	}
	if misfit := attributes.Misfit(); len(misfit) > 0 {
		replacement = migration.misfit(annotation, indent, misfit) + "\n" + indent
	}

	file.Edits().ReplaceRange(annotation.Node.StartByte(), file.NextTokenStart(annotation.Node.EndByte()), replacement)
	migration.result.Migrated++

	return obligation{marker: migration.marker(annotation)}, true
}

func (migration *annotationMigration) migrateMethod(method codemod.Method, o obligation) {
	annotations := method.Annotations()

	annotation, ok := migration.testNGAnnotation(annotations)
	if ok && !migration.hasJupiterTest(annotations) {
		migration.translate(method, annotation)
		return
	}

	if o.marker == "" || ok || method.IsConstructor() || !method.IsPublic() || migration.hasJupiterTest(annotations) {
		return
	}

	migration.addMarker(method, o.marker)
}

func (migration *annotationMigration) addMarker(method codemod.Method, marker string) {
	file := migration.file

	keyword := method.FirstKeyword()
	if keyword == nil {
		return
	}

	if file.StartsLine(keyword) {
		file.Edits().InsertAt(keyword.StartByte(), marker+"\n"+file.LineIndent(keyword))
	} else {
		file.Edits().InsertAt(keyword.StartByte(), marker+" ")
	}

	if marker == "@Test" {
		migration.simpleMarker = true
	}
	migration.result.Migrated++
}

// translate replaces a method level @Test(...) with a bare @Test plus the
// Jupiter constructs its attributes map to.
func (migration *annotationMigration) translate(method codemod.Method, annotation codemod.Annotation) {
	file := migration.file
	imports := file.Imports()

	attributes, err := ExtractAttributes(file, annotation, methodAttributes)
	if err != nil {
		migration.keepTestNG(annotation, err)
		return
	}

	// comments go first so they keep describing the test
	extras := attributes.Comments()

	if v, ok := attributes.Get(attributeDescription); ok && !v.IsLiteral(`""`) {
		imports.Add(jupiterDisplay)
		extras = append(extras, "@DisplayName("+v.Render()+")")
	}

	if v, ok := attributes.Get(attributeEnabled); ok {
		switch {
		case v.IsLiteral("false"):
			imports.Add(jupiterDisabled)
			extras = append(extras, "@Disabled")
		case !v.IsLiteral("true"):
			migration.demote(attributes, attributeEnabled, v, "enabled is only migrated for literal values")
		}
	}

	if v, ok := attributes.Get(attributeGroups); ok {
		tags, ok := migration.tags(v)
		if ok {
			if len(tags) > 0 {
				imports.Add(jupiterTag)
			}
			extras = append(extras, tags...)
		} else {
			migration.demote(attributes, attributeGroups, v, "groups must be a string or an array of strings")
		}
	}

	// timeOut = 0 is TestNG's default, no timeout
	if v, ok := attributes.Get(attributeTimeOut); ok && !v.IsLiteral("0") && !v.IsLiteral("0L") {
		imports.Add(jupiterTimeout)
		imports.Add(javaUtilTimeUnit)
		extras = append(extras, "@Timeout(value = "+v.Render()+", unit = TimeUnit.MILLISECONDS)")
	}

	migration.expectedExceptions(method, attributes)

	migration.replaceAnnotation(annotation, extras, attributes.Misfit())
	migration.result.Migrated++
}

func (migration *annotationMigration) demote(attributes AttributeSet, key string, v codemod.Value, reason string) {
	attributes.Demote(key)
	migration.file.Report(&migration.result, codemod.UnmigratableAttribute, v.Node,
		"%s = %s kept for manual review: %s", key, v.Text(), reason)
}

// tags fans groups out into one @Tag per non empty group.
func (migration *annotationMigration) tags(v codemod.Value) ([]string, bool) {
	if !v.IsArrayInitializer() {
		t := v.Type()
		if t.Kind != codemod.KindString {
			return nil, false
		}
	}

	out := make([]string, 0)
	for _, group := range v.Elements() {
		if group.IsLiteral(`""`) {
			continue
		}
		out = append(out, "@Tag("+group.Render()+")")
	}

	return out, true
}

// expectedExceptions wraps the method body in assertThrows.
func (migration *annotationMigration) expectedExceptions(method codemod.Method, attributes AttributeSet) {
	file := migration.file

	v, ok := attributes.Get(attributeExpectedExc)
	if !ok {
		if regexp, ok := attributes.Get(attributeExpectedExcRegExp); ok {
			migration.demote(attributes, attributeExpectedExcRegExp, regexp, "there is no expected exception to match against")
		}
		return
	}

	elements := v.Elements()
	if len(elements) == 0 {
		// expectedExceptions = {} expects nothing
		if regexp, ok := attributes.Get(attributeExpectedExcRegExp); ok {
			migration.demote(attributes, attributeExpectedExcRegExp, regexp, "there is no expected exception to match against")
		}
		return
	}

	first := elements[0]
	if first.NodeType() != "class_literal" || !isThrowable(file, strings.TrimSuffix(first.Text(), ".class")) {
		migration.demote(attributes, attributeExpectedExc, v, "the expected exception must be a Throwable class literal")
		if regexp, ok := attributes.Get(attributeExpectedExcRegExp); ok {
			migration.demote(attributes, attributeExpectedExcRegExp, regexp, "there is no expected exception to match against")
		}
		return
	}

	if method.Body() == nil {
		migration.demote(attributes, attributeExpectedExc, v, "the method has no body")
		return
	}

	if len(elements) > 1 {
		file.Report(&migration.result, codemod.UnmigratableAttribute, elements[1].Node,
			"only %s is asserted, the other %d expected exception(s) are dropped", first.Text(), len(elements)-1)
	}

	var regexp *codemod.Value
	if re, ok := attributes.Get(attributeExpectedExcRegExp); ok {
		if re.IsStringLiteral() {
			regexp = &re
		} else {
			migration.demote(attributes, attributeExpectedExcRegExp, re, "only literal patterns are migrated")
		}
	}

	migration.wrapBody(method, first.Render(), regexp)
}

// isThrowable decides from the name alone, or from the superclass chain of
// a class declared in the same file.
func isThrowable(file *codemod.SourceFile, typeName string) bool {
	classes := make(map[string]codemod.Class)
	for _, class := range file.Classes() {
		classes[class.Name()] = class
	}

	name := codemod.SimpleName(typeName)
	for hops := 0; hops < maxSuperclassHops && name != ""; hops++ {
		if name == "Throwable" || strings.HasSuffix(name, "Exception") || strings.HasSuffix(name, "Error") {
			return true
		}

		class, ok := classes[name]
		if !ok {
			return false
		}
		name = class.Superclass()
	}

	return false
}

// assertion returns how to call a Jupiter assertion from the migrated body:
// statically imported unless TestNG still owns the bare name.
func (migration *annotationMigration) assertion(name string) string {
	imports := migration.file.Imports()

	for _, imp := range imports.All() {
		if imp.Static && !imp.Wildcard && imp.Path == testngAssert+"."+name {
			imports.Add(jupiterAssertions)
			return "Assertions." + name
		}
	}

	imports.AddStatic(jupiterAssertions, name)
	return name
}

func (migration *annotationMigration) wrapBody(method codemod.Method, exception string, regexp *codemod.Value) {
	file := migration.file
	body := method.Body()

	closeIndent := file.LineIndent(body.Child(int(body.ChildCount()) - 1))
	stmtIndent, unit := bodyIndent(file, body, closeIndent)

	inner := file.Render(body)
	inner = strings.TrimSuffix(strings.TrimPrefix(inner, "{"), "}")

	var content string
	switch {
	case strings.TrimSpace(inner) == "":
		content = ""
	case !strings.Contains(strings.TrimRight(inner, " \t\r\n"), "\n"):
		content = stmtIndent + unit + strings.TrimSpace(inner)
	default:
		inner = strings.TrimRight(inner, " \t\r\n")
		if i := strings.IndexByte(inner, '\n'); i >= 0 && strings.TrimSpace(inner[:i]) == "" {
			inner = inner[i+1:]
		}
		content = codemod.Reindent(inner, unit)
	}

	var builder strings.Builder
	builder.WriteString("{\n")
	builder.WriteString(stmtIndent)

	thrown := ""
	if regexp != nil {
		thrown = file.FreshName(body, "thrown")
		builder.WriteString("Throwable " + thrown + " = ")
	}

	builder.WriteString(migration.assertion("assertThrows"))
	builder.WriteString("(" + exception + ", () -> {\n")
	if content != "" {
		builder.WriteString(content)
		builder.WriteString("\n")
	}
	builder.WriteString(stmtIndent + "});")

	if regexp != nil {
		builder.WriteString("\n" + stmtIndent)
		builder.WriteString(migration.assertion("assertTrue"))
		builder.WriteString("(" + thrown + ".getMessage().matches(" + regexp.Render() + "));")
	}

	builder.WriteString("\n" + closeIndent + "}")

	file.Edits().Replace(body, builder.String())
}

// bodyIndent returns the indentation of the statements of body and one
// level of indentation, guessed from the body itself when possible.
func bodyIndent(file *codemod.SourceFile, body *sitter.Node, closeIndent string) (string, string) {
	unit := file.IndentUnit()

	if body.NamedChildCount() > 0 {
		first := body.NamedChild(0)
		if first.StartPoint().Row != body.StartPoint().Row {
			stmtIndent := file.LineIndent(first)
			if len(stmtIndent) > len(closeIndent) && strings.HasPrefix(stmtIndent, closeIndent) {
				unit = stmtIndent[len(closeIndent):]
			}
			return stmtIndent, unit
		}
	}

	return closeIndent + unit, unit
}

// replaceAnnotation writes the bare marker, the extra annotations and the
// misfit remainder where annotation was.
func (migration *annotationMigration) replaceAnnotation(annotation codemod.Annotation, extras []string, misfit []string) {
	file := migration.file
	indent := file.LineIndent(annotation.Node)

	var builder strings.Builder
	builder.WriteString(migration.marker(annotation))
	for _, extra := range extras {
		builder.WriteString("\n" + indent + extra)
	}
	if len(misfit) > 0 {
		builder.WriteString("\n" + indent + migration.misfit(annotation, indent, misfit))
	}

	end := annotation.Node.EndByte()
	next := file.NextTokenStart(end)
	sameLine := !strings.Contains(file.Between(end, next), "\n") && int(next) < len(file.Source())

	if sameLine && (len(extras) > 0 || len(misfit) > 0) {
		builder.WriteString("\n" + indent)
		file.Edits().ReplaceRange(annotation.Node.StartByte(), next, builder.String())
		return
	}

	file.Edits().Replace(annotation.Node, builder.String())
}

// misfit renders the review comment and the fully qualified TestNG
// annotation carrying the arguments that were not migrated.
func (migration *annotationMigration) misfit(annotation codemod.Annotation, indent string, misfit []string) string {
	migration.file.Report(&migration.result, codemod.UnmigratableAttribute, annotation.Node,
		"kept for manual review: %s", strings.Join(misfit, ", "))

	lines := append(append([]string{}, misfitComment...), "@"+testngTest+"("+strings.Join(misfit, ", ")+")")

	// the first line is indented by the caller, blank lines stay empty
	var builder strings.Builder
	for i, line := range lines {
		if i > 0 {
			builder.WriteString("\n")
			if line != "" {
				builder.WriteString(indent)
			}
		}
		builder.WriteString(line)
	}

	return builder.String()
}
