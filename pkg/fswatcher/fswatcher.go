// Copyright (c) 2025 The Loadline Authors.
// SPDX-License-Identifier: Apache-2.0

// Package fswatcher notifies the pipeline when benchmark artifacts change
// on disk, so long-running normalization can pick up fresh sweep results
// without being restarted.
package fswatcher

import (
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// FSWatcher invokes a callback when any watched path changes.
//
// Directories fire on every create, write, rename or remove underneath
// them; that is the mode used for artifact directories where sweeps append
// and rotate CSV files. Individual files are tracked by content hash, so a
// rewrite that ends with identical bytes does not fire.
type FSWatcher struct {
	watcher  *fsnotify.Watcher
	logger   *zap.Logger
	onChange func()

	fileHashes map[string]string
	watchDirs  map[string]bool
}

// New starts watching paths. Each path must exist; files and directories
// can be mixed. The callback runs on the watcher goroutine and must not
// block for long.
func New(paths []string, onChange func(), logger *zap.Logger) (*FSWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &FSWatcher{
		watcher:    watcher,
		logger:     logger,
		onChange:   onChange,
		fileHashes: make(map[string]string),
		watchDirs:  make(map[string]bool),
	}

	added := make(map[string]bool)
	for _, p := range paths {
		if p == "" {
			continue
		}
		info, err := os.Stat(p)
		if err != nil {
			watcher.Close()
			return nil, err
		}
		if info.IsDir() {
			w.watchDirs[filepath.Clean(p)] = true
			if !added[p] {
				if err := watcher.Add(p); err != nil {
					watcher.Close()
					return nil, err
				}
				added[p] = true
			}
			continue
		}
		h, err := hashFile(p)
		if err != nil {
			watcher.Close()
			return nil, err
		}
		w.fileHashes[p] = h
		// Watch the parent: atomic replace via rename invalidates a
		// watch on the file itself.
		dir := filepath.Dir(p)
		if !added[dir] {
			if err := watcher.Add(dir); err != nil {
				watcher.Close()
				return nil, err
			}
			added[dir] = true
		}
	}

	go w.loop()
	return w, nil
}

// Close stops the watcher and its goroutine.
func (w *FSWatcher) Close() error {
	return w.watcher.Close()
}

func (w *FSWatcher) loop() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if w.relevant(event) {
				w.logger.Debug("artifact change detected", zap.String("path", event.Name))
				w.onChange()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("watcher failure", zap.Error(err))
		}
	}
}

func (w *FSWatcher) relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) == 0 {
		return false
	}
	if w.watchDirs[filepath.Clean(filepath.Dir(event.Name))] {
		return true
	}
	changed := false
	for file, oldHash := range w.fileHashes {
		newHash, err := hashFile(file)
		if err != nil {
			w.logger.Warn("watched file unreadable, keeping last known version", zap.String("file", file))
			continue
		}
		if newHash != oldHash {
			w.fileHashes[file] = newHash
			changed = true
		}
	}
	return changed
}

func hashFile(file string) (string, error) {
	f, err := os.Open(filepath.Clean(file))
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}
