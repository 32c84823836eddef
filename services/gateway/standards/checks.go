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
	"strings"
)

// Violation messages with no parameters.
const (
	MsgStandalone        = "Components must not be standalone. Set standalone: false explicitly."
	MsgMissingSelector   = "Component must have a selector."
	MsgMissingTemplate   = "Component must have either templateUrl or template defined."
	MsgMissingStyles     = "Component must have either styleUrls or styles defined."
	MsgHexColor          = "Avoid using hex color values. Use MD3 color tokens instead."
	MsgPixelValue        = "Avoid using direct pixel values. Use MD3 spacing or typography tokens."
	MsgClassNameSuffix   = `Component class name must end with "Component"`
	MsgTemplateClassName = "Template classes must use MD3 utility classes with md3- prefix"
)

// component is a descriptor after source extraction: explicit fields win
// over values read from the decorator.
type component struct {
	selector    string
	standalone  *bool
	template    string
	templateURL string
	styles      []string
	styleURLs   []string
	className   string
}

// styleSource is the text of one stylesheet and the name used in messages.
type styleSource struct {
	name    string
	content string
}

// checkStructure verifies the required component metadata.
func checkStructure(c *component) []string {
	var violations []string
	if c.standalone != nil && *c.standalone {
		violations = append(violations, MsgStandalone)
	}
	if c.selector == "" {
		violations = append(violations, MsgMissingSelector)
	}
	if c.templateURL == "" && c.template == "" {
		violations = append(violations, MsgMissingTemplate)
	}
	if len(c.styleURLs) == 0 && len(c.styles) == 0 {
		violations = append(violations, MsgMissingStyles)
	}
	return violations
}

// checkNaming verifies the selector, the declared class name and the class
// attributes of the template.
func checkNaming(ctx context.Context, rules *ruleSet, c *component) ([]string, error) {
	var violations []string

	if c.selector != "" {
		if !strings.HasPrefix(c.selector, rules.selectorPrefix) {
			violations = append(violations, fmt.Sprintf("Component selector must start with %s", rules.selectorPrefix))
		}
		if !rules.selectorPattern.MatchString(c.selector) {
			violations = append(violations, fmt.Sprintf("Component selector must match pattern %s", rules.selectorPattern.String()))
		}
	}

	if c.className != "" && !strings.HasSuffix(c.className, ClassNameSuffix) {
		violations = append(violations, MsgClassNameSuffix)
	}

	if c.template != "" {
		classes, err := templateClassAttributes(ctx, c.template)
		if err != nil {
			return nil, fmt.Errorf("parse template: %w", err)
		}
		for _, value := range classes {
			if !strings.Contains(value, rules.selectorPrefix) {
				violations = append(violations, MsgTemplateClassName)
			}
		}
	}

	return violations, nil
}

// checkTokenUsage verifies design token usage in every style source.
func checkTokenUsage(rules *ruleSet, sources []styleSource) []string {
	var violations []string
	for _, src := range sources {
		for _, category := range rules.tokenCategories {
			marker := tokenMarkerPrefix + category
			if !strings.Contains(src.content, marker) {
				violations = append(violations, fmt.Sprintf("Missing required %s tokens. Use %s variables.", category, marker))
			}
		}
		if hexColorPattern.MatchString(src.content) {
			violations = append(violations, MsgHexColor)
		}
		if pixelPattern.MatchString(src.content) {
			violations = append(violations, MsgPixelValue)
		}
	}
	return violations
}

// checkStyleStructure verifies BEM selectors, nesting depth and the
// required structural elements of every style source.
func checkStyleStructure(ctx context.Context, sources []styleSource) ([]string, error) {
	var violations []string
	for _, src := range sources {
		sheet, err := parseStyleSheet(ctx, src.content)
		if err != nil {
			return nil, fmt.Errorf("parse style source %s: %w", src.name, err)
		}

		for _, rule := range sheet.rules {
			for _, selector := range rule.fullSelectors() {
				if !bemPattern.MatchString(selector) {
					violations = append(violations, fmt.Sprintf("Invalid BEM naming in selector: %s in %s", selector, src.name))
				}
			}
		}

		if sheet.maxDepth > MaxNestingDepth {
			violations = append(violations, fmt.Sprintf("Nesting depth of %d exceeds maximum allowed (%d) in %s", sheet.maxDepth, MaxNestingDepth, src.name))
		}

		for _, element := range requiredStyleElements {
			if !strings.Contains(src.content, element) {
				violations = append(violations, fmt.Sprintf("Missing required structural element: %s in %s", element, src.name))
			}
		}
	}
	return violations, nil
}

// enforcePatterns returns one message per banned pattern present in code,
// in configuration order.
func enforcePatterns(rules *ruleSet, code string) []string {
	violations := []string{}
	for _, p := range rules.patterns {
		if strings.Contains(code, p.Pattern) {
			violations = append(violations, p.Message)
		}
	}
	return violations
}
