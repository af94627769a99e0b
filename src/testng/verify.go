package testng

import (
	"strings"

	"github.com/PoorlyDefinedBehaviour/testng_to_jupiter/src/codemod"
)

// DefaultVerifyTypes are the types no migrated file should refer to anymore.
var DefaultVerifyTypes = []string{testngTest, testngAssert}

// VerifyReferences reports every reference to types left in the file:
// imports, qualified names, comments and simple names the file still
// imports. It never changes the file.
func VerifyReferences(file *codemod.SourceFile, types []string) codemod.Result {
	result := codemod.Result{}

	for _, typeName := range types {
		verifyType(file, typeName, &result)
	}

	return result
}

func verifyType(file *codemod.SourceFile, typeName string, result *codemod.Result) {
	imported := false
	for _, imp := range file.Imports().All() {
		if imp.Node() == nil {
			continue
		}
		if imp.Path != typeName && !(imp.Static && strings.HasPrefix(imp.Path, typeName+".")) {
			continue
		}
		if !imp.Static && !imp.Wildcard {
			imported = true
		}
		file.Report(result, codemod.DanglingTypeReference, imp.Node(), "%s is still imported", imp.Path)
	}

	retained := make(map[uint32]bool)
	for _, annotation := range file.Annotations() {
		if annotation.Name == typeName && isRetainedMisfit(file, annotation) {
			retained[annotation.Node.StartByte()] = true
			file.Report(result, codemod.UnmigratableAttribute, annotation.Node,
				"%s awaits manual review", annotation.Text())
		}
	}

	for _, node := range file.QualifiedNames() {
		if file.Text(node) != typeName {
			continue
		}
		if parent := node.Parent(); parent != nil && retained[parent.StartByte()] {
			continue
		}
		file.Report(result, codemod.DanglingTypeReference, node, "reference to %s", typeName)
	}

	for _, comment := range file.Comments() {
		text := file.Text(comment)
		for offset := strings.Index(text, typeName); offset >= 0; {
			file.ReportAt(result, codemod.DanglingTypeReference, comment.StartByte()+uint32(offset),
				"comment refers to %s", typeName)

			next := strings.Index(text[offset+len(typeName):], typeName)
			if next < 0 {
				break
			}
			offset += len(typeName) + next
		}
	}

	if !imported {
		return
	}

	simpleName := codemod.SimpleName(typeName)
	for _, node := range file.Identifiers() {
		if file.Text(node) == simpleName && !insideQualifiedName(node) {
			file.Report(result, codemod.DanglingTypeReference, node, "%s refers to %s through its import", simpleName, typeName)
		}
	}
}
