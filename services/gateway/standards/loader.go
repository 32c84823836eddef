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
	"io"
	"os"
	"path/filepath"
)

// maxStyleFileBytes bounds how much of a referenced stylesheet is read.
const maxStyleFileBytes = 4 * 1024 * 1024

// StyleLoader resolves a style reference to its source text.
type StyleLoader interface {
	Load(ctx context.Context, ref string) (string, error)
}

// FileLoader reads style references relative to a root directory.
//
// # Description
//
// References are opened through os.Root, so "../" sequences, absolute paths
// and symlinks that leave the root fail like missing files do.
//
// # Thread Safety
//
// FileLoader is stateless and safe for concurrent use.
type FileLoader struct {
	root string
}

// NewFileLoader creates a loader rooted at dir. An empty dir means the
// process working directory.
func NewFileLoader(dir string) *FileLoader {
	if dir == "" {
		dir = "."
	}
	return &FileLoader{root: dir}
}

// Root returns the directory references are resolved against.
func (l *FileLoader) Root() string {
	return l.root
}

// Load reads the referenced file.
func (l *FileLoader) Load(ctx context.Context, ref string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	root, err := os.OpenRoot(l.root)
	if err != nil {
		return "", fmt.Errorf("open style root %s: %w", l.root, err)
	}
	defer root.Close()

	f, err := root.Open(filepath.Clean(ref))
	if err != nil {
		return "", err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxStyleFileBytes))
	if err != nil {
		return "", err
	}
	return string(data), nil
}
