// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ux

import (
	"fmt"
	"strings"
)

// Finding is the outcome of one check on one subject, such as a component
// or a source file.
type Finding struct {
	Subject    string
	Check      string
	Violations []string
}

// Passed reports whether the finding has no violations.
func (f Finding) Passed() bool {
	return len(f.Violations) == 0
}

// Report prints the findings and a summary line, and returns the number of
// failed findings.
//
// # Description
//
// Styled mode prints a title, a checkmark per passing finding and a red box
// listing the violations of each failing one. Machine mode prints one
// tab-separated line per finding (PASS) or per violation (FAIL) followed by
// a SUMMARY line, suitable for grep and CI logs.
//
// # Examples
//
//	failed := printer.Report("Component audit", []ux.Finding{
//	    {Subject: "card.component.ts", Check: "validate", Violations: result.Violations},
//	})
//	if failed > 0 {
//	    os.Exit(1)
//	}
func (p *Printer) Report(title string, findings []Finding) int {
	failed := 0
	for _, f := range findings {
		if !f.Passed() {
			failed++
		}
	}
	passed := len(findings) - failed

	if p.mode == ModeMachine {
		for _, f := range findings {
			if f.Passed() {
				fmt.Fprintf(p.w, "PASS\t%s\t%s\n", f.Check, f.Subject)
				continue
			}
			for _, v := range f.Violations {
				fmt.Fprintf(p.w, "FAIL\t%s\t%s\t%s\n", f.Check, f.Subject, v)
			}
		}
		fmt.Fprintf(p.w, "SUMMARY: passed=%d failed=%d\n", passed, failed)
		return failed
	}

	p.Title(title)
	for _, f := range findings {
		label := f.Subject
		if f.Check != "" {
			label = fmt.Sprintf("%s %s", f.Subject, Styles.Muted.Render("("+f.Check+")"))
		}
		if f.Passed() {
			fmt.Fprintf(p.w, "%s %s\n", IconSuccess.Render(), label)
			continue
		}

		lines := make([]string, 0, len(f.Violations)+1)
		lines = append(lines, Styles.Error.Bold(true).Render(fmt.Sprintf("%s %s", IconError, label)))
		for _, v := range f.Violations {
			lines = append(lines, fmt.Sprintf("%s %s", IconBullet, v))
		}
		fmt.Fprintln(p.w, Styles.ErrorBox.Width(72).Render(strings.Join(lines, "\n")))
	}

	fmt.Fprintf(p.w, "\n%s %s  %s %s\n",
		Styles.Success.Render(fmt.Sprintf("%d", passed)), Styles.Muted.Render("passed"),
		Styles.Error.Render(fmt.Sprintf("%d", failed)), Styles.Muted.Render("failed"),
	)
	return failed
}
