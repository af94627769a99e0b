package testng

import (
	"fmt"

	"github.com/PoorlyDefinedBehaviour/testng_to_jupiter/src/codemod"
)

const (
	javaUtilArrays        = "java.util.Arrays"
	javaUtilSpliterators  = "java.util.Spliterators"
	javaUtilStreamSupport = "java.util.stream.StreamSupport"
	javaUtilAbstractMap   = "java.util.AbstractMap"
	javaUtilCollectors    = "java.util.stream.Collectors"
)

// Catalogue returns the assertion rules in priority order: the rules with
// the most specific operand types come before the generic ones.
func Catalogue() []Rule {
	return []Rule{
		arrayDeltaRule,
		deepMapRule,
		arraysRule,
		iteratorsRule,
		iterablesRule,
		noOrderRule,
		scalarDeltaRule,
		swapRule,
		renameRule,
		throwsRule,
		failRule,
	}
}

func isMethod(site *CallSite, names ...string) bool {
	for _, name := range names {
		if site.Method == name {
			return true
		}
	}
	return false
}

// isMessage reports an argument that can be the optional message.
func isMessage(v codemod.Value) bool {
	t := v.Type()
	return t.Kind == codemod.KindString || t.Kind == codemod.KindNull || (!t.Known() && !isNumericLiteral(v))
}

func isNumericLiteral(v codemod.Value) bool {
	switch v.NodeType() {
	case "decimal_integer_literal", "hex_integer_literal", "octal_integer_literal", "binary_integer_literal",
		"decimal_floating_point_literal", "hex_floating_point_literal":
		return true
	}
	return false
}

// isDelta reports an argument that can only be a tolerance.
func isDelta(v codemod.Value) bool {
	return v.Type().Kind.IsNumeric()
}

// operands returns actual and expected with the types the rules dispatch on.
func operands(site *CallSite) (actual, expected codemod.Type) {
	return site.arg(0).Type(), site.arg(1).Type()
}

func isArrayOperand(t codemod.Type, other codemod.Type) bool {
	return t.IsArray() || (t.Kind == codemod.KindNull && other.IsArray())
}

// assertEquals(float[] actual, float[] expected, float delta[, msg])
var arrayDeltaRule = Rule{
	Name: "array-delta",
	Match: func(site *CallSite, _ Options) bool {
		if !isMethod(site, "assertEquals") || (site.arity() != 3 && site.arity() != 4) {
			return false
		}
		actual, expected := operands(site)
		if !actual.IsArray() || !expected.IsArray() || !isFloatingPoint(actual.Elem) || !isFloatingPoint(expected.Elem) {
			return false
		}
		// the operands and the delta are evaluated once per element
		return site.arg(0).IsName() && site.arg(1).IsName() &&
			(site.arg(2).IsName() || isNumericLiteral(site.arg(2))) &&
			(site.arity() == 3 || isMessage(site.arg(3)))
	},
	Rewrite: func(site *CallSite, to *target) string {
		actual, expected, delta := site.arg(0).Render(), site.arg(1).Render(), site.arg(2).Render()
		i := to.freshName("i")

		args := []string{expected + "[" + i + "]", actual + "[" + i + "]", delta}
		args = append(args, site.rest(3)...)

		return to.lines(
			to.member("assertAll")+"(() -> {",
			"\t"+to.call("assertEquals", expected+".length", actual+".length", `"Arrays don't have the same size."`)+";",
			"\tfor (int "+i+" = 0; "+i+" < "+actual+".length; "+i+"++) {",
			"\t\t"+to.call("assertEquals", args...)+";",
			"\t}",
			"})",
		)
	},
}

func isFloatingPoint(kind codemod.Kind) bool {
	return kind == codemod.KindFloat || kind == codemod.KindDouble
}

// assertEqualsDeep(Map actual, Map expected[, msg])
var deepMapRule = Rule{
	Name: "deep-map",
	Match: func(site *CallSite, _ Options) bool {
		if !isMethod(site, "assertEqualsDeep") || (site.arity() != 2 && site.arity() != 3) {
			return false
		}
		actual, expected := operands(site)
		return actual.Kind == codemod.KindMap && expected.Kind == codemod.KindMap &&
			(site.arity() == 2 || isMessage(site.arg(2)))
	},
	Rewrite: func(site *CallSite, to *target) string {
		entry := to.freshName("entry")
		simpleEntry := to.use(javaUtilAbstractMap) + ".SimpleEntry"
		arrays := to.use(javaUtilArrays)
		collectors := to.use(javaUtilCollectors)

		entries := func(v codemod.Value, last bool) []string {
			end := ").collect(" + collectors + ".toSet())"
			if !last {
				end += ","
			}
			return []string{
				"\t" + to.receiver(v) + ".entrySet().stream().map(",
				"\t\t" + entry + " -> " + entry + ".getValue() == null || !" + entry + ".getValue().getClass().isArray() ? " + entry,
				"\t\t\t// arrays are compared as lists, assertIterableEquals needs an Iterable",
				"\t\t\t: new " + simpleEntry + "<>(" + entry + ".getKey(), " + arrays + ".asList(Object[].class.cast(" + entry + ".getValue())))",
				"\t" + end,
			}
		}

		message := site.rest(2)

		lines := []string{to.member("assertIterableEquals") + "("}
		lines = append(lines, entries(site.arg(1), false)...)
		lines = append(lines, entries(site.arg(0), len(message) == 0)...)
		if len(message) > 0 {
			lines = append(lines, "\t"+message[0])
		}
		lines = append(lines, ")")

		return to.lines(lines...)
	},
}

// assertEquals/assertNotEquals(T[] actual, T[] expected[, delta][, msg])
var arraysRule = Rule{
	Name: "arrays",
	Match: func(site *CallSite, _ Options) bool {
		if !isMethod(site, "assertEquals", "assertNotEquals") || site.arity() < 2 {
			return false
		}
		actual, expected := operands(site)
		if !isArrayOperand(actual, expected) || !isArrayOperand(expected, actual) {
			return false
		}

		switch site.arity() {
		case 2:
			return true
		case 3:
			return isMessage(site.arg(2)) || (site.Method == "assertEquals" && isDelta(site.arg(2)))
		case 4:
			return site.Method == "assertEquals" && isDelta(site.arg(2)) && isMessage(site.arg(3))
		}
		return false
	},
	Rewrite: func(site *CallSite, to *target) string {
		actual, expected := site.arg(0).Render(), site.arg(1).Render()

		if site.Method == "assertNotEquals" {
			arrays := to.use(javaUtilArrays)
			args := []string{arrays + ".toString(" + expected + ")", arrays + ".toString(" + actual + ")"}
			return to.call("assertNotEquals", append(args, site.rest(2)...)...)
		}

		return to.call("assertArrayEquals", append([]string{expected, actual}, site.rest(2)...)...)
	},
}

// drain renders the elements an iterator yields as an array. The iterator
// is consumed.
func drain(to *target, v codemod.Value, sorted bool) string {
	stream := to.use(javaUtilStreamSupport) + ".stream(" + to.use(javaUtilSpliterators) + ".spliteratorUnknownSize(" + v.Render() + ", 0), false)"
	if sorted {
		stream += ".sorted()"
	}
	return stream + ".toArray()"
}

// assertEquals/assertNotEquals(Iterator actual, Iterator expected[, msg])
var iteratorsRule = Rule{
	Name: "iterators",
	Match: func(site *CallSite, _ Options) bool {
		if !isMethod(site, "assertEquals", "assertNotEquals") || (site.arity() != 2 && site.arity() != 3) {
			return false
		}
		actual, expected := operands(site)
		return actual.Kind == codemod.KindIterator && expected.Kind == codemod.KindIterator &&
			(site.arity() == 2 || isMessage(site.arg(2)))
	},
	Rewrite: func(site *CallSite, to *target) string {
		actual, expected := drain(to, site.arg(0), false), drain(to, site.arg(1), false)

		if site.Method == "assertNotEquals" {
			arrays := to.use(javaUtilArrays)
			args := []string{arrays + ".toString(" + expected + ")", arrays + ".toString(" + actual + ")"}
			return to.call("assertNotEquals", append(args, site.rest(2)...)...)
		}

		return to.call("assertArrayEquals", append([]string{expected, actual}, site.rest(2)...)...)
	},
}

// assertEquals(Iterable actual, Iterable expected[, msg])
var iterablesRule = Rule{
	Name: "iterables",
	Match: func(site *CallSite, _ Options) bool {
		if !isMethod(site, "assertEquals") || (site.arity() != 2 && site.arity() != 3) {
			return false
		}
		actual, expected := operands(site)
		return actual.Kind == codemod.KindIterable && expected.Kind == codemod.KindIterable &&
			(site.arity() == 2 || isMessage(site.arg(2)))
	},
	Rewrite: func(site *CallSite, to *target) string {
		return to.call("assertIterableEquals", append([]string{site.arg(1).Render(), site.arg(0).Render()}, site.rest(2)...)...)
	},
}

// assertEqualsNoOrder(actual, expected[, msg]) for collections, arrays and iterators
var noOrderRule = Rule{
	Name: "no-order",
	Match: func(site *CallSite, _ Options) bool {
		if !isMethod(site, "assertEqualsNoOrder") || (site.arity() != 2 && site.arity() != 3) {
			return false
		}
		actual, expected := operands(site)
		if actual.Kind != expected.Kind {
			return false
		}
		switch actual.Kind {
		case codemod.KindCollection, codemod.KindArray, codemod.KindIterator:
			return site.arity() == 2 || isMessage(site.arg(2))
		}
		return false
	},
	Rewrite: func(site *CallSite, to *target) string {
		sorted := func(v codemod.Value) string {
			switch v.Type().Kind {
			case codemod.KindCollection:
				return to.receiver(v) + ".stream().sorted().toArray()"
			case codemod.KindIterator:
				return drain(to, v, true)
			default:
				return to.use(javaUtilArrays) + ".stream(" + v.Render() + ").sorted().toArray()"
			}
		}

		args := []string{sorted(site.arg(1)), sorted(site.arg(0))}
		return to.call("assertArrayEquals", append(args, site.rest(2)...)...)
	},
}

// assertEquals/assertNotEquals(double actual, double expected, double delta[, msg])
var scalarDeltaRule = Rule{
	Name: "scalar-delta",
	Match: func(site *CallSite, _ Options) bool {
		if !isMethod(site, "assertEquals", "assertNotEquals") || (site.arity() != 3 && site.arity() != 4) {
			return false
		}
		actual, expected := operands(site)
		if isUnordered(actual) || isUnordered(expected) {
			return false
		}
		return isDelta(site.arg(2)) && (site.arity() == 3 || isMessage(site.arg(3)))
	},
	Rewrite: swap,
}

// isUnordered reports the operand kinds whose equality differs between the
// two libraries and that the generic rules must not touch.
func isUnordered(t codemod.Type) bool {
	switch t.Kind {
	case codemod.KindArray, codemod.KindIterator, codemod.KindIterable:
		return true
	}
	return false
}

// assertEquals/assertNotEquals/assertSame/assertNotSame(actual, expected[, msg])
var swapRule = Rule{
	Name: "swap",
	Match: func(site *CallSite, options Options) bool {
		if !isMethod(site, "assertEquals", "assertNotEquals", "assertSame", "assertNotSame") {
			return false
		}
		if site.arity() != 2 && site.arity() != 3 {
			return false
		}
		actual, expected := operands(site)
		if isUnordered(actual) || isUnordered(expected) {
			return false
		}
		// an unresolved operand could still be an array or an iterator
		if options.StrictTypes && isMethod(site, "assertEquals", "assertNotEquals") && (!actual.Known() || !expected.Known()) {
			return false
		}
		return site.arity() == 2 || isMessage(site.arg(2)) || isDelta(site.arg(2))
	},
	Rewrite: swap,
	Review:  reviewUnresolvedOperands,
}

// mayBeArray reports operands that can hold an array at runtime.
func mayBeArray(t codemod.Type) bool {
	if !t.Known() {
		return true
	}
	switch codemod.SimpleName(t.Name) {
	case "Object", "Cloneable", "Serializable":
		return t.Kind == codemod.KindObject
	}
	return false
}

// reviewUnresolvedOperands flags equality assertions where both operands may
// be arrays or iterators: TestNG compares those by content, Jupiter by reference.
func reviewUnresolvedOperands(site *CallSite) (codemod.DiagnosticKind, string) {
	// the delta overloads only take numbers
	if !isMethod(site, "assertEquals", "assertNotEquals") || (site.arity() == 3 && isDelta(site.arg(2))) {
		return "", ""
	}

	actual, expected := operands(site)
	if !mayBeArray(actual) || !mayBeArray(expected) {
		return "", ""
	}

	return codemod.UnresolvedOperandType, fmt.Sprintf(
		"%s(%s, %s): operand types unknown, arrays and iterators would now be compared by reference",
		site.Method, site.arg(0).Text(), site.arg(1).Text())
}

func swap(site *CallSite, to *target) string {
	args := []string{site.arg(1).Render(), site.arg(0).Render()}
	return to.call(site.Method, append(args, site.rest(2)...)...)
}

// assertTrue/assertFalse/assertNull/assertNotNull(x[, msg])
var renameRule = Rule{
	Name: "rename",
	Match: func(site *CallSite, _ Options) bool {
		return isMethod(site, "assertTrue", "assertFalse", "assertNull", "assertNotNull") &&
			(site.arity() == 1 || (site.arity() == 2 && isMessage(site.arg(1))))
	},
	Rewrite: keep,
}

func keep(site *CallSite, to *target) string {
	return to.call(site.Method, site.rest(0)...)
}

// assertThrows/expectThrows([Class,] block)
var throwsRule = Rule{
	Name: "throws",
	Match: func(site *CallSite, _ Options) bool {
		if !isMethod(site, "assertThrows", "expectThrows") || (site.arity() != 1 && site.arity() != 2) {
			return false
		}
		// a ThrowingRunnable variable is not an Executable
		switch site.arg(site.arity() - 1).NodeType() {
		case "lambda_expression", "method_reference":
			return true
		}
		return false
	},
	Rewrite: func(site *CallSite, to *target) string {
		if site.arity() == 1 {
			return to.call("assertThrows", "Throwable.class", site.arg(0).Render())
		}
		return to.call("assertThrows", site.rest(0)...)
	},
}

// fail(), fail(msg), fail(msg, cause)
var failRule = Rule{
	Name: "fail",
	Match: func(site *CallSite, _ Options) bool {
		return isMethod(site, "fail") && site.arity() <= 2
	},
	Rewrite: keep,
}
