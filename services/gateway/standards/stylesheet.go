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
	"github.com/smacker/go-tree-sitter/css"
)

// styleRule is one rule of a stylesheet with the selectors of the rules
// that directly enclose it.
type styleRule struct {
	selector string
	path     []string
	depth    int
}

// fullSelectors returns the rule's selectors expanded against its enclosing
// rules: each comma-separated part is prefixed by the ancestor selectors,
// outermost first, joined with a space.
func (r styleRule) fullSelectors() []string {
	parts := strings.Split(r.selector, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if len(r.path) == 0 {
			out = append(out, part)
			continue
		}
		chain := make([]string, 0, len(r.path)+1)
		chain = append(chain, r.path...)
		chain = append(chain, part)
		out = append(out, strings.Join(chain, " "))
	}
	return out
}

// styleSheet is the selector tree of one style source, flattened.
type styleSheet struct {
	rules    []styleRule
	maxDepth int
}

// parseStyleSheet builds the selector tree of a CSS or SCSS source.
//
// # Description
//
// Rules are collected in document order. A rule's depth is 1 at the top
// level and grows by one per enclosing rule; at-rules such as @media do not
// add depth and break the ancestor chain, so a rule inside @media inside a
// rule has an empty path.
//
// Tree-sitter recovers from syntax it does not know (SCSS variables, mixins)
// with ERROR nodes. Rules found under those nodes are still collected.
//
// # Limitations
//
// SCSS parent references (&__element) are kept verbatim in the selector.
func parseStyleSheet(ctx context.Context, content string) (*styleSheet, error) {
	src := []byte(content)
	tree, err := parseTree(ctx, css.GetLanguage(), src)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	sheet := &styleSheet{}
	sheet.walk(tree.RootNode(), src, nil, 1)
	return sheet, nil
}

func (s *styleSheet) walk(node *sitter.Node, src []byte, path []string, depth int) {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case cssNodeRuleSet:
			selector := strings.TrimSpace(nodeText(childOfType(child, cssNodeSelectors), src))
			s.rules = append(s.rules, styleRule{
				selector: selector,
				path:     path,
				depth:    depth,
			})
			if depth > s.maxDepth {
				s.maxDepth = depth
			}
			if block := childOfType(child, cssNodeBlock); block != nil {
				childPath := make([]string, 0, len(path)+1)
				childPath = append(childPath, path...)
				childPath = append(childPath, selector)
				s.walk(block, src, childPath, depth+1)
			}
		case cssNodeDeclaration, cssNodeComment:
		default:
			s.walk(child, src, nil, depth)
		}
	}
}
