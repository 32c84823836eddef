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
	_ "embed"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

//go:embed standards.yaml
var defaultDocument []byte

var standardsValidate = validator.New()

// =============================================================================
// Standards Document
// =============================================================================

// Standards is the workspace standards document.
//
// # Description
//
// The document is served verbatim to clients through getStandards. Only the
// rxjs.disallowedPatterns and material sections drive validation; the rest
// is informational and consumed by tooling outside the gateway.
//
// JSON tags mirror the YAML keys so the served document has the same shape
// as the file it was loaded from.
type Standards struct {
	RxJS         RxJSStandards         `yaml:"rxjs" json:"rxjs"`
	Material     MaterialStandards     `yaml:"material" json:"material"`
	Architecture ArchitectureStandards `yaml:"architecture" json:"architecture"`
	Testing      TestingStandards      `yaml:"testing" json:"testing"`
	Linting      LintingStandards      `yaml:"linting" json:"linting"`
	Utilities    UtilityStandards      `yaml:"utilities" json:"utilities"`
	CI           CIStandards           `yaml:"ci" json:"ci"`
}

// DisallowedPattern is a banned substring and the message reported for it.
type DisallowedPattern struct {
	Pattern string `yaml:"pattern" json:"pattern" validate:"required"`
	Message string `yaml:"message" json:"message" validate:"required"`
}

type RxJSStandards struct {
	EnforceObservables bool                `yaml:"enforceObservables" json:"enforceObservables"`
	DisallowedPatterns []DisallowedPattern `yaml:"disallowedPatterns" json:"disallowedPatterns" validate:"dive"`
	RequiredImports    []string            `yaml:"requiredImports" json:"requiredImports"`
	WebsocketConfig    WebsocketStandards  `yaml:"websocketConfig" json:"websocketConfig"`
}

type WebsocketStandards struct {
	EnforceSecureOnly  bool   `yaml:"enforceSecureOnly" json:"enforceSecureOnly"`
	RequireHeartbeat   bool   `yaml:"requireHeartbeat" json:"requireHeartbeat"`
	ConnectionStrategy string `yaml:"connectionStrategy" json:"connectionStrategy"`
}

type MaterialStandards struct {
	Version       int                 `yaml:"version" json:"version"`
	EnforceTokens bool                `yaml:"enforceTokens" json:"enforceTokens"`
	Components    ComponentStandards  `yaml:"components" json:"components"`
	Theming       ThemingStandards    `yaml:"theming" json:"theming"`
	Typography    TypographyStandards `yaml:"typography" json:"typography"`
	Elevation     ElevationStandards  `yaml:"elevation" json:"elevation"`
	Motion        MotionStandards     `yaml:"motion" json:"motion"`
}

type ComponentStandards struct {
	EnforceStandalone         bool           `yaml:"enforceStandalone" json:"enforceStandalone"`
	RequireExplicitStandalone bool           `yaml:"requireExplicitStandalone" json:"requireExplicitStandalone"`
	Naming                    NamingStandard `yaml:"naming" json:"naming"`
}

// NamingStandard is a required prefix and a full-match pattern.
type NamingStandard struct {
	Prefix  string `yaml:"prefix" json:"prefix" validate:"required"`
	Pattern string `yaml:"pattern" json:"pattern" validate:"required"`
}

type ThemingStandards struct {
	EnforceCustomProperties bool           `yaml:"enforceCustomProperties" json:"enforceCustomProperties"`
	NamingPattern           string         `yaml:"namingPattern" json:"namingPattern"`
	Tokens                  TokenStandards `yaml:"tokens" json:"tokens"`
}

type TokenStandards struct {
	Required   bool     `yaml:"required" json:"required"`
	Categories []string `yaml:"categories" json:"categories" validate:"dive,required"`
}

type TypographyStandards struct {
	Classes []string `yaml:"classes" json:"classes"`
	Tokens  []string `yaml:"tokens" json:"tokens"`
}

type ElevationStandards struct {
	Levels    []int `yaml:"levels" json:"levels"`
	UseTokens bool  `yaml:"useTokens" json:"useTokens"`
}

type MotionStandards struct {
	Animations []string `yaml:"animations" json:"animations"`
	Tokens     []string `yaml:"tokens" json:"tokens"`
}

type ArchitectureStandards struct {
	EnforceModularity   bool `yaml:"enforceModularity" json:"enforceModularity"`
	DependencyInjection struct {
		Required bool   `yaml:"required" json:"required"`
		Scope    string `yaml:"scope" json:"scope"`
	} `yaml:"dependencyInjection" json:"dependencyInjection"`
	StateManagement struct {
		Type    string `yaml:"type" json:"type"`
		Pattern string `yaml:"pattern" json:"pattern"`
	} `yaml:"stateManagement" json:"stateManagement"`
	Monorepo struct {
		EnforceNxStructure bool              `yaml:"enforceNxStructure" json:"enforceNxStructure"`
		ProjectTypes       []string          `yaml:"projectTypes" json:"projectTypes"`
		RequiredGenerators map[string]string `yaml:"requiredGenerators" json:"requiredGenerators"`
	} `yaml:"monorepo" json:"monorepo"`
}

type TestingStandards struct {
	Coverage      map[string]int    `yaml:"coverage" json:"coverage"`
	RequiredTypes []string          `yaml:"requiredTypes" json:"requiredTypes"`
	Frameworks    map[string]string `yaml:"frameworks" json:"frameworks"`
}

type LintingStandards struct {
	ESLint    LinterStandards `yaml:"eslint" json:"eslint"`
	Stylelint LinterStandards `yaml:"stylelint" json:"stylelint"`
}

// LinterStandards holds a linter's presets and rule overrides. Rule values
// are strings or booleans depending on the rule.
type LinterStandards struct {
	Extends []string       `yaml:"extends" json:"extends"`
	Rules   map[string]any `yaml:"rules" json:"rules"`
}

type UtilityStandards struct {
	Classes map[string][]string `yaml:"classes" json:"classes"`
	Naming  NamingStandard      `yaml:"naming" json:"naming"`
}

type CIStandards struct {
	Provider string   `yaml:"provider" json:"provider"`
	Required bool     `yaml:"required" json:"required"`
	Checks   []string `yaml:"checks" json:"checks"`
}

// =============================================================================
// Loading
// =============================================================================

// Default returns the embedded standards document.
//
// The embedded document is part of the binary, so a parse failure is a
// build defect and panics.
func Default() *Standards {
	std, err := Parse(defaultDocument)
	if err != nil {
		panic(fmt.Sprintf("embedded standards document is invalid: %v", err))
	}
	return std
}

// DefaultDocument returns the raw embedded YAML.
func DefaultDocument() []byte {
	out := make([]byte, len(defaultDocument))
	copy(out, defaultDocument)
	return out
}

// Parse decodes and validates a YAML standards document.
//
// # Description
//
// Besides the struct validation, the configured patterns must compile so a
// bad document is rejected here instead of failing every later validation.
//
// # Inputs
//
//   - data: YAML document.
//
// # Outputs
//
//   - *Standards: The decoded document.
//   - error: Non-nil if the YAML is malformed or fails validation.
func Parse(data []byte) (*Standards, error) {
	var std Standards
	if err := yaml.Unmarshal(data, &std); err != nil {
		return nil, fmt.Errorf("decode standards: %w", err)
	}
	if err := standardsValidate.Struct(&std); err != nil {
		return nil, fmt.Errorf("invalid standards: %w", err)
	}
	if _, err := compileRules(&std); err != nil {
		return nil, err
	}
	return &std, nil
}

// Load reads and parses a standards file.
func Load(path string) (*Standards, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read standards file %s: %w", path, err)
	}
	std, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("load standards file %s: %w", path, err)
	}
	return std, nil
}
