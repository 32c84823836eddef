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
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
)

// Tree-sitter node types used by the stylesheet, template and component
// source walkers.
//
// References:
//   - https://github.com/tree-sitter/tree-sitter-css
//   - https://github.com/tree-sitter/tree-sitter-html
//   - https://github.com/tree-sitter/tree-sitter-typescript
const (
	cssNodeRuleSet     = "rule_set"
	cssNodeSelectors   = "selectors"
	cssNodeBlock       = "block"
	cssNodeDeclaration = "declaration"
	cssNodeComment     = "comment"

	htmlNodeAttribute            = "attribute"
	htmlNodeAttributeName        = "attribute_name"
	htmlNodeAttributeValue       = "attribute_value"
	htmlNodeQuotedAttributeValue = "quoted_attribute_value"

	tsNodeClassDeclaration = "class_declaration"
	tsNodeExportStatement  = "export_statement"
	tsNodeDecorator        = "decorator"
	tsNodeCallExpression   = "call_expression"
	tsNodeIdentifier       = "identifier"
	tsNodeArguments        = "arguments"
	tsNodeObject           = "object"
	tsNodePair             = "pair"
	tsNodeArray            = "array"
	tsNodeString           = "string"
	tsNodeStringFragment   = "string_fragment"
	tsNodeTemplateString   = "template_string"
	tsNodeTrue             = "true"
	tsNodeFalse            = "false"
)

// parseTree parses content with the given grammar. The caller closes the tree.
func parseTree(ctx context.Context, lang *sitter.Language, content []byte) (*sitter.Tree, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(lang)

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("tree-sitter parse failed: %w", err)
	}
	return tree, nil
}

func nodeText(node *sitter.Node, content []byte) string {
	if node == nil {
		return ""
	}
	return string(content[node.StartByte():node.EndByte()])
}

func childOfType(node *sitter.Node, nodeType string) *sitter.Node {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() == nodeType {
			return child
		}
	}
	return nil
}
