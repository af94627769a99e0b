package testng

import (
	"github.com/PoorlyDefinedBehaviour/testng_to_jupiter/src/codemod"
	"github.com/pkg/errors"
	sitter "github.com/smacker/go-tree-sitter"
)

const (
	attributeDescription       = "description"
	attributeEnabled           = "enabled"
	attributeExpectedExc       = "expectedExceptions"
	attributeExpectedExcRegExp = "expectedExceptionsMessageRegExp"
	attributeGroups            = "groups"
	attributeTimeOut           = "timeOut"
)

// ErrNotAssignment is returned for an annotation argument that is not a key = value pair.
var ErrNotAssignment = errors.New("annotation argument is not a key = value pair")

// methodAttributes are the @Test attributes with a Jupiter counterpart.
var methodAttributes = map[string]bool{
	attributeDescription:       true,
	attributeEnabled:           true,
	attributeExpectedExc:       true,
	attributeExpectedExcRegExp: true,
	attributeGroups:            true,
	attributeTimeOut:           true,
}

// classAttributes is empty: a class level @Test only carries defaults for
// its methods, none of which are migrated.
var classAttributes = map[string]bool{}

type argument struct {
	key      string
	text     string
	comments []string
}

// AttributeSet is the parsed argument list of one @Test annotation.
type AttributeSet struct {
	// Parsed holds the supported attributes by key.
	Parsed    map[string]codemod.Value
	arguments []argument
	// comments sit between the arguments rather than inside one.
	comments []string
}

// Misfit returns every argument that is not in Parsed verbatim, in source order.
func (attributes AttributeSet) Misfit() []string {
	out := make([]string, 0)
	for _, arg := range attributes.arguments {
		if _, ok := attributes.Parsed[arg.key]; !ok {
			out = append(out, arg.text)
		}
	}
	return out
}

// Demote moves a supported attribute whose value can't be translated to the misfit remainder.
func (attributes AttributeSet) Demote(key string) {
	delete(attributes.Parsed, key)
}

func (attributes AttributeSet) Has(key string) bool {
	_, ok := attributes.Parsed[key]
	return ok
}

func (attributes AttributeSet) Get(key string) (codemod.Value, bool) {
	v, ok := attributes.Parsed[key]
	return v, ok
}

// Comments returns the comments that would be lost with the annotation: the
// ones between the arguments and the ones inside the supported attributes.
// Misfit arguments keep theirs.
func (attributes AttributeSet) Comments() []string {
	out := append([]string{}, attributes.comments...)
	for _, arg := range attributes.arguments {
		if _, ok := attributes.Parsed[arg.key]; ok {
			out = append(out, arg.comments...)
		}
	}
	return out
}

func (attributes AttributeSet) Empty() bool {
	return len(attributes.arguments) == 0
}

// ExtractAttributes walks the arguments of annotation once and sorts every
// key = value pair into the supported ones and the misfit remainder.
func ExtractAttributes(file *codemod.SourceFile, annotation codemod.Annotation, supported map[string]bool) (AttributeSet, error) {
	attributes := AttributeSet{Parsed: make(map[string]codemod.Value)}

	arguments := annotation.Arguments()
	if arguments == nil {
		return attributes, nil
	}

	for i := 0; i < int(arguments.NamedChildCount()); i++ {
		pair := arguments.NamedChild(i)
		if codemod.IsComment(pair) {
			attributes.comments = append(attributes.comments, file.Text(pair))
			continue
		}
		if pair.Type() != "element_value_pair" {
			return attributes, errors.Wrapf(ErrNotAssignment, "%s at %s", file.Text(pair), file.Position(pair))
		}

		key := file.Text(pair.ChildByFieldName("key"))
		attributes.arguments = append(attributes.arguments, argument{
			key:      key,
			text:     file.Text(pair),
			comments: commentsIn(file, pair),
		})

		if supported[key] {
			attributes.Parsed[key] = file.Value(pair.ChildByFieldName("value"))
		}
	}

	return attributes, nil
}

func commentsIn(file *codemod.SourceFile, node *sitter.Node) []string {
	out := make([]string, 0)
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if codemod.IsComment(child) {
			out = append(out, file.Text(child))
			continue
		}
		out = append(out, commentsIn(file, child)...)
	}
	return out
}
