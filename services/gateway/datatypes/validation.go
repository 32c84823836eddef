// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package datatypes

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// =============================================================================
// Limits
// =============================================================================

const (
	// MaxSourceBytes caps any single source or template field of a descriptor.
	MaxSourceBytes = 256 * 1024

	// ValidationFailedMessage is the message of every validationError frame.
	ValidationFailedMessage = "Validation process failed on the server."
)

var descriptorValidate = validator.New()

// =============================================================================
// Component Descriptor
// =============================================================================

// StringList is a list of strings that also accepts a bare string on the
// wire, so both "styles": "a {}" and "styles": ["a {}"] decode.
type StringList []string

// UnmarshalJSON accepts null, a string, or an array of strings.
func (l *StringList) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*l = nil
		return nil
	}
	if trimmed[0] == '"' {
		var single string
		if err := json.Unmarshal(trimmed, &single); err != nil {
			return err
		}
		*l = StringList{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(trimmed, &many); err != nil {
		return fmt.Errorf("expected string or string array: %w", err)
	}
	*l = many
	return nil
}

// ComponentDescriptor describes a UI component submitted for validation.
//
// # Description
//
// Every field is optional. Absent and empty are treated the same, except
// Standalone where nil means "not declared" and is not a violation.
//
// Two source-shaped payloads are accepted as well:
//
//   - {ts, scss, html}: the dashboard form. ts is component source, scss a
//     pasted stylesheet, html a template.
//   - {code}: component source only.
//
// The engine extracts decorator metadata from ts or code and fills the
// declarative fields that were not sent explicitly.
type ComponentDescriptor struct {
	Selector    string     `json:"selector,omitempty" validate:"max=1024"`
	Standalone  *bool      `json:"standalone,omitempty"`
	Template    string     `json:"template,omitempty" validate:"max=262144"`
	TemplateURL string     `json:"templateUrl,omitempty" validate:"max=4096"`
	Styles      StringList `json:"styles,omitempty" validate:"max=64,dive,max=262144"`
	StyleURLs   StringList `json:"styleUrls,omitempty" validate:"max=64,dive,max=4096"`
	ClassName   string     `json:"className,omitempty" validate:"max=1024"`

	TS   string `json:"ts,omitempty" validate:"max=262144"`
	SCSS string `json:"scss,omitempty" validate:"max=262144"`
	HTML string `json:"html,omitempty" validate:"max=262144"`
	Code string `json:"code,omitempty" validate:"max=262144"`
}

// Validate checks the size limits of the descriptor.
func (d *ComponentDescriptor) Validate() error {
	return descriptorValidate.Struct(d)
}

// HasSource reports whether the descriptor carries component source.
func (d *ComponentDescriptor) HasSource() bool {
	return d.TS != "" || d.Code != ""
}

// Source returns the component source, preferring ts over code.
func (d *ComponentDescriptor) Source() string {
	if d.TS != "" {
		return d.TS
	}
	return d.Code
}

// EnforceRequest is the payload of an enforceStandards request.
type EnforceRequest struct {
	Code string `json:"code" validate:"max=262144"`
}

// Validate checks the size limit of the request.
func (r *EnforceRequest) Validate() error {
	return descriptorValidate.Struct(r)
}

// =============================================================================
// Results
// =============================================================================

// ValidationResult is the outcome of one validation.
//
// IsValid is true exactly when Violations is empty. Build it with
// NewValidationResult so the invariant holds and Violations encodes as []
// rather than null.
type ValidationResult struct {
	IsValid    bool     `json:"isValid"`
	Violations []string `json:"violations"`
}

// NewValidationResult builds a result from the collected violations.
func NewValidationResult(violations []string) ValidationResult {
	if violations == nil {
		violations = []string{}
	}
	return ValidationResult{
		IsValid:    len(violations) == 0,
		Violations: violations,
	}
}

// ValidationError is sent when a validation could not complete.
type ValidationError struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// NewValidationError wraps the failure cause.
func NewValidationError(err error) ValidationError {
	ve := ValidationError{Message: ValidationFailedMessage}
	if err != nil {
		ve.Error = err.Error()
	}
	return ve
}
