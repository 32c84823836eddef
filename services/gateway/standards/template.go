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

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/html"
)

// templateClassAttributes returns the value of every class attribute in the
// template, in document order. An attribute written as class="" yields "".
func templateClassAttributes(ctx context.Context, template string) ([]string, error) {
	src := []byte(template)
	tree, err := parseTree(ctx, html.GetLanguage(), src)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	var values []string
	collectClassAttributes(tree.RootNode(), src, &values)
	return values, nil
}

func collectClassAttributes(node *sitter.Node, src []byte, values *[]string) {
	if node.Type() == htmlNodeAttribute {
		name, value, hasValue := attributeNameValue(node, src)
		if name == "class" && hasValue {
			*values = append(*values, value)
		}
		return
	}
	for i := 0; i < int(node.NamedChildCount()); i++ {
		collectClassAttributes(node.NamedChild(i), src, values)
	}
}

// attributeNameValue splits an attribute node. hasValue is false for bare
// attributes such as <input disabled>.
func attributeNameValue(node *sitter.Node, src []byte) (name, value string, hasValue bool) {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case htmlNodeAttributeName:
			name = nodeText(child, src)
		case htmlNodeQuotedAttributeValue:
			hasValue = true
			if inner := childOfType(child, htmlNodeAttributeValue); inner != nil {
				value = nodeText(inner, src)
			}
		case htmlNodeAttributeValue:
			hasValue = true
			value = nodeText(child, src)
		}
	}
	return name, value, hasValue
}
