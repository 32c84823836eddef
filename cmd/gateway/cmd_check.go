// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/AleutianAI/WorkspaceGateway/pkg/ux"
	"github.com/AleutianAI/WorkspaceGateway/services/gateway/datatypes"
	"github.com/AleutianAI/WorkspaceGateway/services/gateway/standards"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// errViolations makes the command exit non-zero after the report has been
// printed.
var errViolations = errors.New("violations found")

func runCheck(cmd *cobra.Command, _ []string) error {
	if checkTSPath == "" && checkHTMLPath == "" && checkSCSSPath == "" {
		return errors.New("at least one of --ts, --html or --scss is required")
	}

	var d datatypes.ComponentDescriptor
	var err error
	if d.TS, err = readOptional(checkTSPath); err != nil {
		return err
	}
	if d.HTML, err = readOptional(checkHTMLPath); err != nil {
		return err
	}
	if d.SCSS, err = readOptional(checkSCSSPath); err != nil {
		return err
	}
	if err := d.Validate(); err != nil {
		return fmt.Errorf("input too large: %w", err)
	}

	std, err := loadStandards(checkStandardsPath)
	if err != nil {
		return err
	}

	root := checkStyleRoot
	if root == "" && checkTSPath != "" {
		root = filepath.Dir(checkTSPath)
	}
	engine, err := standards.NewEngine(std, standards.WithLoader(standards.NewFileLoader(root)))
	if err != nil {
		return err
	}

	result, err := engine.Validate(cmd.Context(), d)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	findings := []ux.Finding{{
		Subject:    subjectName(),
		Check:      "component",
		Violations: result.Violations,
	}}
	if d.TS != "" {
		findings = append(findings, ux.Finding{
			Subject:    filepath.Base(checkTSPath),
			Check:      "rxjs",
			Violations: engine.EnforcePatterns(d.TS),
		})
	}

	out := cmd.OutOrStdout()
	mode := ux.DetectMode(out)
	if checkPlain {
		mode = ux.ModeMachine
	}
	if failed := ux.NewPrinter(out, mode).Report("Component standards", findings); failed > 0 {
		return errViolations
	}
	return nil
}

func runStandards(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()

	if standardsPath == "" && !standardsJSON {
		_, err := out.Write(standards.DefaultDocument())
		return err
	}

	std, err := loadStandards(standardsPath)
	if err != nil {
		return err
	}

	var data []byte
	if standardsJSON {
		data, err = json.MarshalIndent(std, "", "  ")
		data = append(data, '\n')
	} else {
		data, err = yaml.Marshal(std)
	}
	if err != nil {
		return fmt.Errorf("encode standards: %w", err)
	}
	_, err = out.Write(data)
	return err
}

// loadStandards returns the document at path, or the embedded default when
// path is empty.
func loadStandards(path string) (*standards.Standards, error) {
	if path == "" {
		return standards.Default(), nil
	}
	return standards.Load(path)
}

func readOptional(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}

// subjectName names the component in the report after the first file given.
func subjectName() string {
	for _, p := range []string{checkTSPath, checkHTMLPath, checkSCSSPath} {
		if p != "" {
			return filepath.Base(p)
		}
	}
	return "component"
}
