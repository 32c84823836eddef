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
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	std := Default()

	assert.Equal(t, 3, std.Material.Version)
	assert.Equal(t, "md3-", std.Material.Components.Naming.Prefix)
	assert.Equal(t, []string{"color", "typography", "elevation", "motion"}, std.Material.Theming.Tokens.Categories)
	require.Len(t, std.RxJS.DisallowedPatterns, 3)
	assert.Equal(t, "Promise<", std.RxJS.DisallowedPatterns[0].Pattern)
	assert.Equal(t, []int{1, 2, 3}, std.Material.Elevation.Levels)
	assert.Equal(t, 80, std.Testing.Coverage["lines"])
	assert.Equal(t, true, std.Linting.Stylelint.Rules["color-no-hex"])
}

func TestDefault_JSONShape(t *testing.T) {
	data, err := json.Marshal(Default())
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	for _, section := range []string{"rxjs", "material", "architecture", "testing", "linting", "utilities", "ci"} {
		assert.Contains(t, doc, section)
	}
	assert.Contains(t, string(data), `"disallowedPatterns"`)
	assert.Contains(t, string(data), `"@angular-eslint/no-standalone-false":"off"`)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "malformed yaml", doc: "rxjs: [unclosed"},
		{name: "missing prefix", doc: "material:\n  components:\n    naming:\n      pattern: '^x$'\n"},
		{name: "bad selector pattern", doc: strings.Replace(string(DefaultDocument()), `"^md3-[a-z-]+$"`, `"(["`, 1)},
		{name: "empty disallowed pattern", doc: strings.Replace(string(DefaultDocument()), `pattern: "Promise<"`, `pattern: ""`, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.yaml")
}

func TestFileLoader(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "cards"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cards", "card.scss"), []byte(":host {}"), 0o644))

	loader := NewFileLoader(dir)
	assert.Equal(t, dir, loader.Root())

	content, err := loader.Load(context.Background(), "./cards/card.scss")
	require.NoError(t, err)
	assert.Equal(t, ":host {}", content)

	_, err = loader.Load(context.Background(), "/etc/hostname")
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = loader.Load(ctx, "./cards/card.scss")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "standards.yaml")
	require.NoError(t, os.WriteFile(path, DefaultDocument(), 0o644))

	reloaded := make(chan *Standards, 4)
	w, err := NewWatcher(path, func(std *Standards) { reloaded <- std })
	require.NoError(t, err)
	defer w.Close()
	w.debounce = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	// An invalid document is ignored.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x: 1"), 0o644))
	require.NoError(t, os.WriteFile(path, []byte("rxjs: [unclosed"), 0o644))
	time.Sleep(100 * time.Millisecond)

	updated := strings.Replace(string(DefaultDocument()), `prefix: "md3-"`, `prefix: "app-"`, 1)
	updated = strings.Replace(updated, `pattern: "^md3-[a-z-]+$"`, `pattern: "^app-[a-z-]+$"`, 1)
	require.NoError(t, os.WriteFile(path, []byte(updated), 0o644))

	select {
	case std := <-reloaded:
		assert.Equal(t, "app-", std.Material.Components.Naming.Prefix)
	case <-time.After(5 * time.Second):
		t.Fatal("standards were not reloaded")
	}
}
