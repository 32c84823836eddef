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
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultReloadDebounce coalesces the burst of events an editor save emits.
const DefaultReloadDebounce = 250 * time.Millisecond

// Watcher reloads a standards file when it changes on disk.
//
// # Description
//
// The parent directory is watched rather than the file, so editors that
// save by writing a temporary file and renaming it over the original are
// seen. Events for other files in the directory are ignored.
//
// A document that fails to parse is logged and ignored; the callback only
// ever receives valid documents.
type Watcher struct {
	path     string
	watcher  *fsnotify.Watcher
	onChange func(*Standards)
	debounce time.Duration
	logger   *slog.Logger
}

// NewWatcher starts watching the directory of path. Call Run to process
// events and Close to release the watch.
func NewWatcher(path string, onChange func(*Standards)) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve standards path %s: %w", path, err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create standards watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	return &Watcher{
		path:     abs,
		watcher:  fw,
		onChange: onChange,
		debounce: DefaultReloadDebounce,
		logger:   slog.Default(),
	}, nil
}

// Run processes file events until ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) error {
	w.logger.Info("Watching standards file", "path", w.path)

	var reload <-chan time.Time
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			reload = time.After(w.debounce)

		case <-reload:
			reload = nil
			w.reload()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("Standards watcher error", "error", err)

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (w *Watcher) reload() {
	std, err := Load(w.path)
	if err != nil {
		w.logger.Warn("Ignoring invalid standards file", "path", w.path, "error", err)
		return
	}
	w.logger.Info("Standards file reloaded", "path", w.path)
	if w.onChange != nil {
		w.onChange(std)
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
