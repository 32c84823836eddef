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
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/WorkspaceGateway/services/gateway/datatypes"
)

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	engine, err := NewEngine(nil, opts...)
	require.NoError(t, err)
	return engine
}

func boolPtr(v bool) *bool { return &v }

// validDescriptor passes every check: inline styles are not token-checked.
func validDescriptor() datatypes.ComponentDescriptor {
	return datatypes.ComponentDescriptor{
		Selector:   "md3-card",
		Standalone: boolPtr(false),
		Template:   `<div class="md3-card"><span class="md3-card__title">Title</span></div>`,
		Styles:     datatypes.StringList{":host { display: block; }"},
		ClassName:  "CardComponent",
	}
}

// =============================================================================
// Structure
// =============================================================================

func TestValidate_EmptyDescriptor(t *testing.T) {
	engine := newTestEngine(t)

	result, err := engine.Validate(context.Background(), datatypes.ComponentDescriptor{})
	require.NoError(t, err)

	assert.False(t, result.IsValid)
	assert.Equal(t, []string{MsgMissingSelector, MsgMissingTemplate, MsgMissingStyles}, result.Violations)
}

func TestValidate_Standalone(t *testing.T) {
	engine := newTestEngine(t)

	tests := []struct {
		name       string
		standalone *bool
		want       bool
	}{
		{name: "explicit true", standalone: boolPtr(true), want: true},
		{name: "explicit false", standalone: boolPtr(false), want: false},
		{name: "absent", standalone: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validDescriptor()
			d.Standalone = tt.standalone

			result, err := engine.Validate(context.Background(), d)
			require.NoError(t, err)
			if tt.want {
				assert.Contains(t, result.Violations, MsgStandalone)
				assert.False(t, result.IsValid)
			} else {
				assert.NotContains(t, result.Violations, MsgStandalone)
			}
		})
	}
}

func TestValidate_ValidDescriptor(t *testing.T) {
	engine := newTestEngine(t)

	result, err := engine.Validate(context.Background(), validDescriptor())
	require.NoError(t, err)
	assert.True(t, result.IsValid, "violations: %v", result.Violations)
	assert.Empty(t, result.Violations)
}

// =============================================================================
// Naming
// =============================================================================

func TestValidate_Naming(t *testing.T) {
	engine := newTestEngine(t)

	tests := []struct {
		name   string
		mutate func(d *datatypes.ComponentDescriptor)
		want   []string
	}{
		{
			name:   "wrong prefix",
			mutate: func(d *datatypes.ComponentDescriptor) { d.Selector = "app-card" },
			want: []string{
				"Component selector must start with md3-",
				"Component selector must match pattern ^md3-[a-z-]+$",
			},
		},
		{
			name:   "prefix but bad pattern",
			mutate: func(d *datatypes.ComponentDescriptor) { d.Selector = "md3-Card2" },
			want:   []string{"Component selector must match pattern ^md3-[a-z-]+$"},
		},
		{
			name:   "class name suffix",
			mutate: func(d *datatypes.ComponentDescriptor) { d.ClassName = "CardWidget" },
			want:   []string{MsgClassNameSuffix},
		},
		{
			name: "template classes",
			mutate: func(d *datatypes.ComponentDescriptor) {
				d.Template = `<div class="md3-card"><span class="plain"></span><p class=""></p></div>`
			},
			want: []string{MsgTemplateClassName, MsgTemplateClassName},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validDescriptor()
			tt.mutate(&d)

			result, err := engine.Validate(context.Background(), d)
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.Violations)
		})
	}
}

// =============================================================================
// Token Usage and Style Structure
// =============================================================================

func TestValidate_HexColours(t *testing.T) {
	engine := newTestEngine(t)

	withHex := validDescriptor()
	withHex.SCSS = ":host { color: #fff; }"

	result, err := engine.Validate(context.Background(), withHex)
	require.NoError(t, err)
	assert.Contains(t, result.Violations, MsgHexColor)

	withToken := validDescriptor()
	withToken.SCSS = ":host { color: var(--md-sys-color-primary); }"

	result, err = engine.Validate(context.Background(), withToken)
	require.NoError(t, err)
	assert.NotContains(t, result.Violations, MsgHexColor)
}

func TestValidate_TokenCategoriesAndPixels(t *testing.T) {
	engine := newTestEngine(t)

	d := validDescriptor()
	d.SCSS = ":host { color: var(--md-sys-color-primary); margin: 16px; }"

	result, err := engine.Validate(context.Background(), d)
	require.NoError(t, err)

	assert.NotContains(t, result.Violations, "Missing required color tokens. Use --md-sys-color variables.")
	assert.Contains(t, result.Violations, "Missing required typography tokens. Use --md-sys-typography variables.")
	assert.Contains(t, result.Violations, "Missing required elevation tokens. Use --md-sys-elevation variables.")
	assert.Contains(t, result.Violations, "Missing required motion tokens. Use --md-sys-motion variables.")
	assert.Contains(t, result.Violations, MsgPixelValue)
}

func TestValidate_NestingDepth(t *testing.T) {
	engine := newTestEngine(t)

	deep := validDescriptor()
	deep.SCSS = `
.md3-a {
  .md3-b {
    .md3-c {
      .md3-d {
        color: var(--md-sys-color-primary);
      }
    }
  }
}
`
	result, err := engine.Validate(context.Background(), deep)
	require.NoError(t, err)
	assert.Contains(t, result.Violations, "Nesting depth of 4 exceeds maximum allowed (3) in inline.scss")

	flat := validDescriptor()
	flat.SCSS = `
.md3-a { color: var(--md-sys-color-primary); }
.md3-b { color: var(--md-sys-color-secondary); }
`
	result, err = engine.Validate(context.Background(), flat)
	require.NoError(t, err)
	for _, v := range result.Violations {
		assert.NotContains(t, v, "Nesting depth")
	}
}

func TestValidate_StructuralElements(t *testing.T) {
	engine := newTestEngine(t)

	d := validDescriptor()
	d.SCSS = ".md3-card { color: var(--md-sys-color-primary); }"

	result, err := engine.Validate(context.Background(), d)
	require.NoError(t, err)
	assert.Contains(t, result.Violations, "Missing required structural element: :host in inline.scss")
	assert.NotContains(t, result.Violations, "Missing required structural element: .md3- in inline.scss")
}

func TestValidate_BEMSelectors(t *testing.T) {
	engine := newTestEngine(t)

	d := validDescriptor()
	d.SCSS = ".md3-card { color: var(--md-sys-color-primary); } .CardTitle { color: var(--md-sys-color-primary); }"

	result, err := engine.Validate(context.Background(), d)
	require.NoError(t, err)
	assert.Contains(t, result.Violations, "Invalid BEM naming in selector: .CardTitle in inline.scss")
	assert.NotContains(t, result.Violations, "Invalid BEM naming in selector: .md3-card in inline.scss")
}

// =============================================================================
// Style References
// =============================================================================

func TestValidate_StyleURLsLoadedFromRoot(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "card.scss"), []byte(".md3-card { color: #123456; }"), 0o644))

	engine := newTestEngine(t, WithLoader(NewFileLoader(dir)))

	d := validDescriptor()
	d.Styles = nil
	d.StyleURLs = datatypes.StringList{"./card.scss"}

	result, err := engine.Validate(context.Background(), d)
	require.NoError(t, err)
	assert.Contains(t, result.Violations, MsgHexColor)
	assert.Contains(t, result.Violations, "Missing required structural element: :host in ./card.scss")
}

func TestValidate_UnreadableStyleFile(t *testing.T) {
	engine := newTestEngine(t, WithLoader(NewFileLoader(t.TempDir())))

	for _, ref := range []string{"missing.scss", "../outside.scss"} {
		t.Run(ref, func(t *testing.T) {
			d := validDescriptor()
			d.StyleURLs = datatypes.StringList{ref}

			_, err := engine.Validate(context.Background(), d)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "failed to read style file "+ref)
		})
	}
}

// =============================================================================
// Source-Shaped Descriptors
// =============================================================================

const cardSource = `import { Component } from '@angular/core';

@Component({
  selector: 'md3-card',
  standalone: false,
  templateUrl: './card.component.html',
  styleUrls: ['./card.component.scss'],
})
export class CardComponent {}
`

func TestValidate_SourceShape(t *testing.T) {
	engine := newTestEngine(t, WithLoader(NewFileLoader(t.TempDir())))

	d := datatypes.ComponentDescriptor{
		TS:   cardSource,
		HTML: `<section class="md3-card"></section>`,
		SCSS: ".md3-card { color: var(--md-sys-color-primary); }",
	}

	result, err := engine.Validate(context.Background(), d)
	require.NoError(t, err, "pasted scss replaces the decorator's styleUrls")

	assert.NotContains(t, result.Violations, MsgMissingSelector)
	assert.NotContains(t, result.Violations, MsgMissingTemplate)
	assert.NotContains(t, result.Violations, MsgMissingStyles)
	assert.NotContains(t, result.Violations, MsgClassNameSuffix)
	assert.Contains(t, result.Violations, "Missing required structural element: :host in inline.scss")
}

func TestValidate_LegacyCodeShape(t *testing.T) {
	engine := newTestEngine(t)

	d := datatypes.ComponentDescriptor{
		Code: "@Component({ selector: 'md3-list', standalone: true, template: `<ul class=\"md3-list\"></ul>`, styles: [':host {}'] })\nclass ListComponent {}",
	}

	result, err := engine.Validate(context.Background(), d)
	require.NoError(t, err)
	assert.Equal(t, []string{MsgStandalone}, result.Violations)
}

// =============================================================================
// Patterns and Reload
// =============================================================================

func TestEnforcePatterns(t *testing.T) {
	engine := newTestEngine(t)

	code := "async function a(): Promise<void> {}\nasync function b() {}"
	got := engine.EnforcePatterns(code)
	assert.Equal(t, []string{
		"Avoid using Promises directly. Use RxJS Observables instead.",
		"Avoid using async/await. Use RxJS operators like switchMap, mergeMap or concatMap instead.",
	}, got)

	clean := engine.EnforcePatterns("source$.pipe(switchMap(load))")
	assert.NotNil(t, clean)
	assert.Empty(t, clean)
}

func TestSetStandards_SwapsRules(t *testing.T) {
	engine := newTestEngine(t)

	std := Default()
	std.Material.Components.Naming = NamingStandard{Prefix: "app-", Pattern: "^app-[a-z-]+$"}
	require.NoError(t, engine.SetStandards(std))

	result, err := engine.Validate(context.Background(), validDescriptor())
	require.NoError(t, err)
	assert.Contains(t, result.Violations, "Component selector must start with app-")
	assert.Equal(t, "app-", engine.Standards().Material.Components.Naming.Prefix)
}

func TestSetStandards_RejectsBadPattern(t *testing.T) {
	engine := newTestEngine(t)

	std := Default()
	std.Material.Components.Naming.Pattern = "(["
	assert.Error(t, engine.SetStandards(std))
	assert.Equal(t, "^md3-[a-z-]+$", engine.Standards().Material.Components.Naming.Pattern)
}

type recordingObserver struct {
	mu    sync.Mutex
	count int
}

func (r *recordingObserver) ObserveValidationDuration(time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.count++
}

func TestValidate_ObservesDuration(t *testing.T) {
	observer := &recordingObserver{}
	engine := newTestEngine(t, WithDurationObserver(observer))

	_, err := engine.Validate(context.Background(), validDescriptor())
	require.NoError(t, err)
	assert.Equal(t, 1, observer.count)
}
