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
	"github.com/spf13/cobra"
)

var (
	rootCmd = &cobra.Command{
		Use:   "gateway",
		Short: "Workspace gateway for the component dashboard",
		Long: `The workspace gateway serves live heartbeat and server-metrics updates
over WebSocket and validates Angular Material components against the
workspace standards document. Without a subcommand it runs "serve".`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}
	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and WebSocket gateway",
		Long: `Runs the gateway with configuration from the environment:

  PORT, GLOBAL_PREFIX, CORS_ORIGIN, SAMPLER_INTERVAL_MS, HEARTBEAT_INTERVAL_MS,
  STANDARDS_FILE, STYLE_ROOT, OTEL_TRACES_EXPORTER, OTEL_EXPORTER_OTLP_ENDPOINT,
  GIN_MODE, ENABLE_METRICS, SHUTDOWN_TIMEOUT_MS, LOG_LEVEL, LOG_FORMAT, LOG_DIR`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}

	checkCmd = &cobra.Command{
		Use:   "check",
		Short: "Validate local component files against the standards",
		Long: `Runs the same validation the gateway performs for validateComponent on
local files, plus the RxJS pattern scan on the component source, and prints a
report. Exits non-zero when any violation is found.`,
		Args: cobra.NoArgs,
		RunE: runCheck,
	}
	checkTSPath        string
	checkHTMLPath      string
	checkSCSSPath      string
	checkStyleRoot     string
	checkStandardsPath string
	checkPlain         bool

	standardsCmd = &cobra.Command{
		Use:   "standards",
		Short: "Print the standards document",
		Long:  `Prints the embedded standards document, or validates and prints the one given with --file.`,
		Args:  cobra.NoArgs,
		RunE:  runStandards,
	}
	standardsPath string
	standardsJSON bool
)

func init() {
	checkCmd.Flags().StringVar(&checkTSPath, "ts", "", "Component source file (.ts)")
	checkCmd.Flags().StringVar(&checkHTMLPath, "html", "", "Component template file (.html)")
	checkCmd.Flags().StringVar(&checkSCSSPath, "scss", "", "Component stylesheet file (.scss)")
	checkCmd.Flags().StringVar(&checkStyleRoot, "style-root", "", "Directory styleUrls are resolved against (default: directory of --ts)")
	checkCmd.Flags().StringVar(&checkStandardsPath, "standards", "", "Standards YAML file (default: embedded document)")
	checkCmd.Flags().BoolVar(&checkPlain, "plain", false, "Plain line-oriented output")

	standardsCmd.Flags().StringVar(&standardsPath, "file", "", "Standards YAML file to validate and print")
	standardsCmd.Flags().BoolVar(&standardsJSON, "json", false, "Print as JSON")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(standardsCmd)
}
