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
	"fmt"
	"regexp"
)

const (
	// MaxNestingDepth is the deepest rule nesting a stylesheet may use.
	// Top-level rules are depth 1.
	MaxNestingDepth = 3

	// ClassNameSuffix is required on declared component class names.
	ClassNameSuffix = "Component"

	// tokenMarkerPrefix precedes each required token category.
	tokenMarkerPrefix = "--md-sys-"
)

// requiredStyleElements must appear somewhere in every stylesheet.
var requiredStyleElements = []string{":host", ".md3-"}

var (
	bemPattern      = regexp.MustCompile(`\.[a-z]([a-z0-9-]*[a-z0-9])?(__[a-z0-9][a-z0-9-]*)?(_[a-z0-9][a-z0-9-]*)*$`)
	hexColorPattern = regexp.MustCompile(`#[0-9a-fA-F]{3,6}`)
	pixelPattern    = regexp.MustCompile(`\d+px`)
)

// ruleSet is the compiled form of the parts of Standards that drive checks.
// It is immutable once built and swapped as a whole on reload.
type ruleSet struct {
	standards       *Standards
	selectorPrefix  string
	selectorPattern *regexp.Regexp
	tokenCategories []string
	patterns        []DisallowedPattern
}

func compileRules(std *Standards) (*ruleSet, error) {
	naming := std.Material.Components.Naming
	pattern, err := regexp.Compile(naming.Pattern)
	if err != nil {
		return nil, fmt.Errorf("compile selector pattern %q: %w", naming.Pattern, err)
	}

	categories := make([]string, len(std.Material.Theming.Tokens.Categories))
	copy(categories, std.Material.Theming.Tokens.Categories)

	patterns := make([]DisallowedPattern, len(std.RxJS.DisallowedPatterns))
	copy(patterns, std.RxJS.DisallowedPatterns)

	return &ruleSet{
		standards:       std,
		selectorPrefix:  naming.Prefix,
		selectorPattern: pattern,
		tokenCategories: categories,
		patterns:        patterns,
	}, nil
}
