package codemod

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// Kind is the coarse static type class the migration rules dispatch on.
type Kind int

const (
	KindUnknown Kind = iota
	KindObject
	KindArray
	KindIterator
	KindIterable
	KindCollection
	KindMap
	KindString
	KindBoolean
	KindFloat
	KindDouble
	KindIntegral
	KindClass
	KindNull
)

var kindNames = map[Kind]string{
	KindUnknown:    "unknown",
	KindObject:     "Object",
	KindArray:      "array",
	KindIterator:   "Iterator",
	KindIterable:   "Iterable",
	KindCollection: "Collection",
	KindMap:        "Map",
	KindString:     "String",
	KindBoolean:    "boolean",
	KindFloat:      "float",
	KindDouble:     "double",
	KindIntegral:   "integral",
	KindClass:      "Class",
	KindNull:       "null",
}

func (k Kind) String() string {
	return kindNames[k]
}

// IsNumeric reports primitive or boxed numbers.
func (k Kind) IsNumeric() bool {
	return k == KindFloat || k == KindDouble || k == KindIntegral
}

// Type is what is statically known about an expression.
type Type struct {
	Kind Kind
	// Name is the declared type as written, if any.
	Name string
	// Elem is the component kind of an array.
	Elem Kind
}

func (t Type) Known() bool {
	return t.Kind != KindUnknown
}

func (t Type) IsArray() bool {
	return t.Kind == KindArray
}

var (
	iteratorTypes = map[string]bool{
		"Iterator": true, "ListIterator": true, "PrimitiveIterator": true,
	}
	iterableTypes = map[string]bool{
		"Iterable": true,
	}
	collectionTypes = map[string]bool{
		"Collection": true, "List": true, "Set": true, "SortedSet": true, "NavigableSet": true,
		"Queue": true, "Deque": true, "ArrayList": true, "LinkedList": true, "HashSet": true,
		"LinkedHashSet": true, "TreeSet": true, "Vector": true, "Stack": true, "ArrayDeque": true,
		"PriorityQueue": true, "CopyOnWriteArrayList": true, "EnumSet": true,
	}
	mapTypes = map[string]bool{
		"Map": true, "HashMap": true, "LinkedHashMap": true, "TreeMap": true, "SortedMap": true,
		"NavigableMap": true, "ConcurrentHashMap": true, "ConcurrentMap": true, "EnumMap": true,
		"Hashtable": true, "IdentityHashMap": true, "WeakHashMap": true, "Properties": true,
	}
)

// ClassifyTypeName maps a written type to its Kind.
func ClassifyTypeName(name string) Type {
	name = strings.TrimSpace(name)
	if name == "" || name == "var" {
		return Type{Kind: KindUnknown, Name: name}
	}

	if strings.HasSuffix(name, "]") {
		elem := strings.TrimSpace(name[:strings.LastIndexByte(name, '[')])
		return Type{Kind: KindArray, Name: name, Elem: ClassifyTypeName(elem).Kind}
	}

	if strings.HasSuffix(name, "...") {
		elem := strings.TrimSuffix(name, "...")
		return Type{Kind: KindArray, Name: elem + "[]", Elem: ClassifyTypeName(elem).Kind}
	}

	simple := SimpleName(name)

	kind := KindObject
	switch {
	case simple == "float" || simple == "Float":
		kind = KindFloat
	case simple == "double" || simple == "Double":
		kind = KindDouble
	case simple == "int" || simple == "long" || simple == "short" || simple == "byte" || simple == "char" ||
		simple == "Integer" || simple == "Long" || simple == "Short" || simple == "Byte" || simple == "Character":
		kind = KindIntegral
	case simple == "boolean" || simple == "Boolean":
		kind = KindBoolean
	case simple == "String":
		kind = KindString
	case simple == "Class":
		kind = KindClass
	case iteratorTypes[simple]:
		kind = KindIterator
	case iterableTypes[simple]:
		kind = KindIterable
	case collectionTypes[simple]:
		kind = KindCollection
	case mapTypes[simple]:
		kind = KindMap
	}

	return Type{Kind: kind, Name: name}
}

// TypeOf resolves the static type of an expression from literals and the
// declarations visible at that point (locals, parameters, fields). It never
// guesses: anything it can't see is KindUnknown.
func (file *SourceFile) TypeOf(expr *sitter.Node) Type {
	if expr == nil {
		return Type{}
	}

	switch expr.Type() {
	case "string_literal", "text_block":
		return Type{Kind: KindString, Name: "String"}

	case "decimal_floating_point_literal", "hex_floating_point_literal":
		text := strings.ToLower(file.Text(expr))
		if strings.HasSuffix(text, "f") {
			return Type{Kind: KindFloat, Name: "float"}
		}
		return Type{Kind: KindDouble, Name: "double"}

	case "decimal_integer_literal", "hex_integer_literal", "octal_integer_literal", "binary_integer_literal", "character_literal":
		return Type{Kind: KindIntegral, Name: "int"}

	case "true", "false":
		return Type{Kind: KindBoolean, Name: "boolean"}

	case "null_literal":
		return Type{Kind: KindNull}

	case "class_literal":
		return Type{Kind: KindClass, Name: "Class"}

	case "parenthesized_expression":
		inner := NamedChildren(expr)
		if len(inner) == 1 {
			return file.TypeOf(inner[0])
		}

	case "cast_expression":
		return ClassifyTypeName(file.Text(expr.ChildByFieldName("type")))

	case "array_creation_expression":
		elem := ClassifyTypeName(file.Text(expr.ChildByFieldName("type")))
		return Type{Kind: KindArray, Name: file.Text(expr.ChildByFieldName("type")) + "[]", Elem: elem.Kind}

	case "object_creation_expression":
		return ClassifyTypeName(file.Text(expr.ChildByFieldName("type")))

	case "array_access":
		array := file.TypeOf(expr.ChildByFieldName("array"))
		if array.IsArray() {
			return Type{Kind: array.Elem}
		}

	case "ternary_expression":
		return file.TypeOf(expr.ChildByFieldName("consequence"))

	case "binary_expression":
		return file.typeOfBinary(expr)

	case "unary_expression":
		return file.TypeOf(expr.ChildByFieldName("operand"))

	case "identifier":
		return file.resolve(expr, file.Text(expr), false)

	case "field_access":
		object := expr.ChildByFieldName("object")
		if object != nil && object.Type() == "this" {
			return file.resolve(expr, file.Text(expr.ChildByFieldName("field")), true)
		}
		if file.Text(expr.ChildByFieldName("field")) == "length" && file.TypeOf(object).IsArray() {
			return Type{Kind: KindIntegral, Name: "int"}
		}

	case "method_invocation":
		return file.typeOfCall(expr)
	}

	return Type{}
}

func (file *SourceFile) typeOfBinary(expr *sitter.Node) Type {
	operator := expr.ChildByFieldName("operator")
	left := file.TypeOf(expr.ChildByFieldName("left"))
	right := file.TypeOf(expr.ChildByFieldName("right"))

	switch file.Text(operator) {
	case "==", "!=", "<", ">", "<=", ">=", "&&", "||":
		return Type{Kind: KindBoolean, Name: "boolean"}
	case "+":
		if left.Kind == KindString || right.Kind == KindString {
			return Type{Kind: KindString, Name: "String"}
		}
	}

	switch {
	case left.Kind == KindDouble || right.Kind == KindDouble:
		return Type{Kind: KindDouble, Name: "double"}
	case left.Kind == KindFloat || right.Kind == KindFloat:
		return Type{Kind: KindFloat, Name: "float"}
	case left.Kind == KindIntegral && right.Kind == KindIntegral:
		return Type{Kind: KindIntegral, Name: "int"}
	}

	return Type{}
}

func (file *SourceFile) typeOfCall(expr *sitter.Node) Type {
	name := file.Text(expr.ChildByFieldName("name"))
	object := file.Text(expr.ChildByFieldName("object"))

	switch {
	case name == "iterator" || name == "listIterator":
		return Type{Kind: KindIterator, Name: "Iterator"}
	case name == "asList" && SimpleName(object) == "Arrays":
		return Type{Kind: KindCollection, Name: "List"}
	case (name == "of" || name == "copyOf") && (object == "List" || object == "Set"):
		return Type{Kind: KindCollection, Name: object}
	case (name == "of" || name == "copyOf" || name == "ofEntries") && object == "Map":
		return Type{Kind: KindMap, Name: "Map"}
	case name == "toArray":
		return Type{Kind: KindArray, Name: "Object[]", Elem: KindObject}
	case name == "toString" || name == "getMessage" || name == "name":
		return Type{Kind: KindString, Name: "String"}
	case name == "getClass":
		return Type{Kind: KindClass, Name: "Class"}
	}

	return Type{}
}

// resolve finds the declaration of name visible from node, walking outwards
// through blocks, method and lambda parameters, loops and class bodies.
func (file *SourceFile) resolve(node *sitter.Node, name string, fieldsOnly bool) Type {
	position := node.StartByte()

	for scope := node.Parent(); scope != nil; scope = scope.Parent() {
		if fieldsOnly && scope.Type() != "class_body" && scope.Type() != "enum_body" {
			continue
		}

		switch scope.Type() {
		case "block", "constructor_body", "switch_block_statement_group", "program":
			for _, statement := range NamedChildren(scope) {
				if statement.StartByte() >= position {
					break
				}
				if statement.Type() == "local_variable_declaration" {
					if t, ok := file.declaredIn(statement, name); ok {
						return t
					}
				}
			}

		case "method_declaration", "constructor_declaration", "lambda_expression":
			if t, ok := file.parameter(scope, name); ok {
				return t
			}

		case "enhanced_for_statement":
			if file.Text(scope.ChildByFieldName("name")) == name {
				return ClassifyTypeName(file.Text(scope.ChildByFieldName("type")))
			}

		case "for_statement", "try_with_resources_statement":
			for _, child := range NamedChildren(scope) {
				if child.Type() == "local_variable_declaration" && child.StartByte() < position {
					if t, ok := file.declaredIn(child, name); ok {
						return t
					}
				}
				if child.Type() == "resource_specification" {
					for _, resource := range NamedChildren(child) {
						if file.Text(resource.ChildByFieldName("name")) == name {
							return ClassifyTypeName(file.Text(resource.ChildByFieldName("type")))
						}
					}
				}
			}

		case "catch_clause":
			param := ChildOfType(scope, "catch_formal_parameter")
			if param != nil && file.Text(param.ChildByFieldName("name")) == name {
				return Type{Kind: KindObject, Name: "Throwable"}
			}

		case "class_body", "enum_body":
			for _, member := range NamedChildren(scope) {
				if member.Type() == "field_declaration" || member.Type() == "constant_declaration" {
					if t, ok := file.declaredIn(member, name); ok {
						return t
					}
				}
			}
		}
	}

	return Type{}
}

// declaredIn looks for name among the declarators of a local variable or field declaration.
func (file *SourceFile) declaredIn(declaration *sitter.Node, name string) (Type, bool) {
	typeName := file.Text(declaration.ChildByFieldName("type"))

	for _, declarator := range NamedChildren(declaration) {
		if declarator.Type() != "variable_declarator" {
			continue
		}
		if file.Text(declarator.ChildByFieldName("name")) != name {
			continue
		}

		if typeName == "var" {
			return file.TypeOf(declarator.ChildByFieldName("value")), true
		}

		if dimensions := declarator.ChildByFieldName("dimensions"); dimensions != nil {
			return ClassifyTypeName(typeName + file.Text(dimensions)), true
		}

		return ClassifyTypeName(typeName), true
	}

	return Type{}, false
}

func (file *SourceFile) parameter(scope *sitter.Node, name string) (Type, bool) {
	params := scope.ChildByFieldName("parameters")
	if params == nil {
		return Type{}, false
	}

	// (a, b) -> ... and a -> ...
	if params.Type() == "identifier" {
		if file.Text(params) == name {
			return Type{}, true
		}
		return Type{}, false
	}

	for _, param := range NamedChildren(params) {
		switch param.Type() {
		case "identifier":
			if file.Text(param) == name {
				return Type{}, true
			}

		case "formal_parameter":
			if file.Text(param.ChildByFieldName("name")) != name {
				continue
			}
			typeName := file.Text(param.ChildByFieldName("type"))
			if dimensions := param.ChildByFieldName("dimensions"); dimensions != nil {
				typeName += file.Text(dimensions)
			}
			return ClassifyTypeName(typeName), true

		case "spread_parameter":
			declarator := ChildOfType(param, "variable_declarator")
			if declarator == nil || file.Text(declarator.ChildByFieldName("name")) != name {
				continue
			}
			for _, part := range NamedChildren(param) {
				if part.Type() != "modifiers" && part.Type() != "variable_declarator" {
					return ClassifyTypeName(file.Text(part) + "[]"), true
				}
			}
		}
	}

	return Type{}, false
}
