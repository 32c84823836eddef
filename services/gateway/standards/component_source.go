// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package standards

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

const componentDecorator = "Component"

// componentMetadata is what a @Component decorator and its class declare.
type componentMetadata struct {
	selector    string
	standalone  *bool
	template    string
	templateURL string
	styles      []string
	styleURLs   []string
	className   string
}

// extractComponentMetadata finds the first class decorated with
// @Component({...}) in TypeScript source.
//
// # Description
//
// Decorators are read both from the class itself and from an enclosing
// export statement, since tree-sitter attaches decorators written before
// "export" to the export node. Only literal values are understood: strings,
// template strings without substitutions, booleans and arrays of those.
//
// # Outputs
//
//   - *componentMetadata: nil when no decorated class exists.
//   - error: Non-nil only if tree-sitter fails.
func extractComponentMetadata(ctx context.Context, source string) (*componentMetadata, error) {
	src := []byte(source)
	tree, err := parseTree(ctx, typescript.GetLanguage(), src)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	return findDecoratedClass(tree.RootNode(), src), nil
}

func findDecoratedClass(node *sitter.Node, src []byte) *componentMetadata {
	switch node.Type() {
	case tsNodeExportStatement:
		decorators := childrenOfType(node, tsNodeDecorator)
		if class := childOfType(node, tsNodeClassDeclaration); class != nil {
			decorators = append(decorators, childrenOfType(class, tsNodeDecorator)...)
			if meta := componentFromClass(class, decorators, src); meta != nil {
				return meta
			}
		}
	case tsNodeClassDeclaration:
		if meta := componentFromClass(node, childrenOfType(node, tsNodeDecorator), src); meta != nil {
			return meta
		}
	}

	for i := 0; i < int(node.NamedChildCount()); i++ {
		if meta := findDecoratedClass(node.NamedChild(i), src); meta != nil {
			return meta
		}
	}
	return nil
}

func componentFromClass(class *sitter.Node, decorators []*sitter.Node, src []byte) *componentMetadata {
	for _, decorator := range decorators {
		call := childOfType(decorator, tsNodeCallExpression)
		if call == nil || nodeText(childOfType(call, tsNodeIdentifier), src) != componentDecorator {
			continue
		}
		meta := &componentMetadata{className: className(class, src)}
		if args := childOfType(call, tsNodeArguments); args != nil {
			if object := childOfType(args, tsNodeObject); object != nil {
				meta.readObject(object, src)
			}
		}
		return meta
	}
	return nil
}

func className(class *sitter.Node, src []byte) string {
	if name := class.ChildByFieldName("name"); name != nil {
		return nodeText(name, src)
	}
	return nodeText(childOfType(class, "type_identifier"), src)
}

func (m *componentMetadata) readObject(object *sitter.Node, src []byte) {
	for _, pair := range childrenOfType(object, tsNodePair) {
		key := unquote(nodeText(pair.ChildByFieldName("key"), src))
		value := pair.ChildByFieldName("value")
		if value == nil {
			continue
		}
		switch key {
		case "selector":
			m.selector, _ = literalString(value, src)
		case "standalone":
			switch value.Type() {
			case tsNodeTrue:
				v := true
				m.standalone = &v
			case tsNodeFalse:
				v := false
				m.standalone = &v
			}
		case "template":
			m.template, _ = literalString(value, src)
		case "templateUrl":
			m.templateURL, _ = literalString(value, src)
		case "styles":
			m.styles = literalStrings(value, src)
		case "styleUrls":
			m.styleURLs = literalStrings(value, src)
		case "styleUrl":
			if url, ok := literalString(value, src); ok {
				m.styleURLs = append(m.styleURLs, url)
			}
		}
	}
}

// literalString returns the content of a string or template string node.
func literalString(node *sitter.Node, src []byte) (string, bool) {
	switch node.Type() {
	case tsNodeString, tsNodeTemplateString:
		return unquote(nodeText(node, src)), true
	}
	return "", false
}

// literalStrings reads a string array, or a single string as a one-element list.
func literalStrings(node *sitter.Node, src []byte) []string {
	if node.Type() != tsNodeArray {
		if s, ok := literalString(node, src); ok {
			return []string{s}
		}
		return nil
	}
	var out []string
	for i := 0; i < int(node.NamedChildCount()); i++ {
		if s, ok := literalString(node.NamedChild(i), src); ok {
			out = append(out, s)
		}
	}
	return out
}

func unquote(raw string) string {
	if len(raw) >= 2 {
		first, last := raw[0], raw[len(raw)-1]
		if first == last && strings.ContainsRune("'\"`", rune(first)) {
			return raw[1 : len(raw)-1]
		}
	}
	return raw
}

func childrenOfType(node *sitter.Node, nodeType string) []*sitter.Node {
	var out []*sitter.Node
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() == nodeType {
			out = append(out, child)
		}
	}
	return out
}
