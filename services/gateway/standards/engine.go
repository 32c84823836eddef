// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package standards implements the workspace validation engine.
//
// # Description
//
// The engine checks a component descriptor against the workspace standards
// document in four passes, always in this order:
//
//  1. Structure: standalone flag, selector, template and styles present.
//  2. Naming: selector prefix and pattern, class name suffix, template
//     class attributes.
//  3. Token usage: required design token categories, no hex colours, no
//     pixel values.
//  4. Style structure: BEM selectors, nesting depth, required elements.
//
// Passes 3 and 4 only run when the component has style sources: loaded
// style references or a pasted stylesheet.
//
// Stylesheets, templates and component source are parsed with tree-sitter.
//
// # Thread Safety
//
// Engine is safe for concurrent use. The standards document can be swapped
// with SetStandards while validations are running; each validation uses the
// document that was active when it started.
package standards

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/WorkspaceGateway/pkg/logging"
	"github.com/AleutianAI/WorkspaceGateway/services/gateway/datatypes"
)

const (
	// InlineStyleName names a pasted stylesheet in violation messages.
	InlineStyleName = "inline.scss"

	// maxConcurrentLoads bounds parallel style reads per validation.
	maxConcurrentLoads = 8
)

var engineTracer = otel.Tracer("aleutian.gateway.standards")

// DurationObserver records how long validations take.
type DurationObserver interface {
	ObserveValidationDuration(d time.Duration)
}

// Engine validates component descriptors against a standards document.
type Engine struct {
	rules    atomic.Pointer[ruleSet]
	loader   StyleLoader
	observer DurationObserver
	logger   *slog.Logger
	tracer   trace.Tracer
}

// Option configures an Engine.
type Option func(*Engine)

// WithLoader sets how style references are read. Defaults to a FileLoader
// rooted at the working directory.
func WithLoader(loader StyleLoader) Option {
	return func(e *Engine) { e.loader = loader }
}

// WithDurationObserver records validation latency.
func WithDurationObserver(o DurationObserver) Option {
	return func(e *Engine) { e.observer = o }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// NewEngine creates an engine for the given standards. A nil document
// selects the embedded default.
func NewEngine(std *Standards, opts ...Option) (*Engine, error) {
	e := &Engine{
		loader: NewFileLoader(""),
		logger: slog.Default(),
		tracer: engineTracer,
	}
	for _, opt := range opts {
		opt(e)
	}
	if std == nil {
		std = Default()
	}
	if err := e.SetStandards(std); err != nil {
		return nil, err
	}
	return e, nil
}

// SetStandards swaps the active document. Running validations finish with
// the document they started with.
func (e *Engine) SetStandards(std *Standards) error {
	if std == nil {
		return fmt.Errorf("standards document is nil")
	}
	rules, err := compileRules(std)
	if err != nil {
		return err
	}
	e.rules.Store(rules)
	return nil
}

// Standards returns the active document. Callers must not modify it.
func (e *Engine) Standards() *Standards {
	return e.rules.Load().standards
}

// Document returns the active document for serialization.
func (e *Engine) Document() any {
	return e.Standards()
}

// Validate runs the four checks against a descriptor.
//
// # Description
//
// Missing or malformed descriptor fields are reported as violations, never
// as errors. Component source in the descriptor (ts or code) is parsed and
// its @Component metadata fills fields the descriptor left empty.
//
// # Inputs
//
//   - ctx: Cancels style loading and parsing.
//   - d: The descriptor. Not modified.
//
// # Outputs
//
//   - datatypes.ValidationResult: Violations in check order.
//   - error: Non-nil when a style reference cannot be read or ctx ends.
//
// # Examples
//
//	result, err := engine.Validate(ctx, datatypes.ComponentDescriptor{
//	    Selector:   "md3-card",
//	    Standalone: &notStandalone,
//	    Template:   `<div class="md3-card"></div>`,
//	    Styles:     []string{":host {}"},
//	    ClassName:  "CardComponent",
//	})
//	// result.IsValid == true
func (e *Engine) Validate(ctx context.Context, d datatypes.ComponentDescriptor) (datatypes.ValidationResult, error) {
	ctx, span := e.tracer.Start(ctx, "standards.Validate")
	defer span.End()

	start := time.Now()
	defer func() {
		if e.observer != nil {
			e.observer.ObserveValidationDuration(time.Since(start))
		}
	}()

	rules := e.rules.Load()

	comp, refs, inline, err := e.resolve(ctx, &d)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "resolve failed")
		return datatypes.ValidationResult{}, err
	}

	sources, err := e.loadStyles(ctx, refs)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "style load failed")
		return datatypes.ValidationResult{}, err
	}
	sources = append(sources, inline...)

	var violations []string
	violations = append(violations, checkStructure(comp)...)

	naming, err := checkNaming(ctx, rules, comp)
	if err != nil {
		span.RecordError(err)
		return datatypes.ValidationResult{}, err
	}
	violations = append(violations, naming...)

	if len(sources) > 0 {
		violations = append(violations, checkTokenUsage(rules, sources)...)

		structure, err := checkStyleStructure(ctx, sources)
		if err != nil {
			span.RecordError(err)
			return datatypes.ValidationResult{}, err
		}
		violations = append(violations, structure...)
	}

	result := datatypes.NewValidationResult(violations)
	span.SetAttributes(
		attribute.Bool("validation.valid", result.IsValid),
		attribute.Int("validation.violations", len(result.Violations)),
		attribute.Int("validation.style_sources", len(sources)),
	)
	if !result.IsValid {
		logging.LoggerWithTrace(ctx, e.logger).Warn("Component validation failed",
			"selector", comp.selector,
			"violations", result.Violations,
		)
	}
	return result, nil
}

// EnforcePatterns returns the message of every banned pattern found in
// code, in configuration order. Each pattern is reported at most once.
func (e *Engine) EnforcePatterns(code string) []string {
	violations := enforcePatterns(e.rules.Load(), code)
	if len(violations) > 0 {
		e.logger.Warn("RxJS pattern violations", "violations", violations)
	}
	return violations
}

// resolve merges decorator metadata into the descriptor and decides which
// style references must be loaded.
//
// A pasted stylesheet (scss) stands in for the decorator's styleUrls, which
// usually point at files the server does not have. Explicit styleUrls in
// the descriptor are always loaded.
func (e *Engine) resolve(ctx context.Context, d *datatypes.ComponentDescriptor) (*component, []string, []styleSource, error) {
	comp := &component{
		selector:    d.Selector,
		standalone:  d.Standalone,
		template:    d.Template,
		templateURL: d.TemplateURL,
		styles:      d.Styles,
		styleURLs:   d.StyleURLs,
		className:   d.ClassName,
	}
	refs := append([]string(nil), d.StyleURLs...)

	if d.HasSource() {
		meta, err := extractComponentMetadata(ctx, d.Source())
		if err != nil {
			return nil, nil, nil, fmt.Errorf("parse component source: %w", err)
		}
		if meta != nil {
			comp.merge(meta)
			if d.SCSS == "" && len(d.StyleURLs) == 0 {
				refs = append(refs, meta.styleURLs...)
			}
		}
	}

	if comp.template == "" && d.HTML != "" {
		comp.template = d.HTML
	}

	var inline []styleSource
	if d.SCSS != "" {
		comp.styles = append(append([]string(nil), comp.styles...), d.SCSS)
		inline = append(inline, styleSource{name: InlineStyleName, content: d.SCSS})
	}
	return comp, refs, inline, nil
}

func (c *component) merge(meta *componentMetadata) {
	if c.selector == "" {
		c.selector = meta.selector
	}
	if c.standalone == nil {
		c.standalone = meta.standalone
	}
	if c.template == "" {
		c.template = meta.template
	}
	if c.templateURL == "" {
		c.templateURL = meta.templateURL
	}
	if len(c.styles) == 0 {
		c.styles = meta.styles
	}
	if len(c.styleURLs) == 0 {
		c.styleURLs = meta.styleURLs
	}
	if c.className == "" {
		c.className = meta.className
	}
}

// loadStyles reads every reference concurrently, keeping reference order.
// The first failure cancels the remaining reads.
func (e *Engine) loadStyles(ctx context.Context, refs []string) ([]styleSource, error) {
	if len(refs) == 0 {
		return nil, nil
	}

	sources := make([]styleSource, len(refs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentLoads)
	for i, ref := range refs {
		g.Go(func() error {
			content, err := e.loader.Load(gctx, ref)
			if err != nil {
				return fmt.Errorf("failed to read style file %s: %w", ref, err)
			}
			sources[i] = styleSource{name: ref, content: content}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return sources, nil
}
