// Copyright (c) 2025 Janet Alwanga / NutriWise Assistant
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
)

// DefaultWatchDebounce coalesces the burst of events editors produce on save.
const DefaultWatchDebounce = 150 * time.Millisecond

// ChangeFunc receives the reloaded config, or the error that prevented the
// reload. It runs on the watcher goroutine.
type ChangeFunc func(cfg *Config, err error)

// Watcher reloads a config file whenever it changes on disk.
type Watcher struct {
	path     string
	debounce time.Duration
	onChange ChangeFunc
	watcher  *fsnotify.Watcher

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	started   atomic.Bool
	closeOnce sync.Once
}

// NewWatcher prepares a watcher for path. The parent directory is watched
// rather than the file so atomic renames are seen. Call Start to begin.
func NewWatcher(path string, debounce time.Duration, onChange ChangeFunc) (*Watcher, error) {
	if onChange == nil {
		return nil, errors.New("config watcher needs a change callback")
	}
	if debounce <= 0 {
		debounce = DefaultWatchDebounce
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrap(err, "resolve config path")
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "create fsnotify watcher")
	}
	if err := fw.Add(filepath.Dir(absPath)); err != nil {
		fw.Close()
		return nil, errors.Wrapf(err, "watch %s", filepath.Dir(absPath))
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		path:     absPath,
		debounce: debounce,
		onChange: onChange,
		watcher:  fw,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}, nil
}

// Start runs the event loop in a goroutine.
func (w *Watcher) Start() {
	if w.started.CompareAndSwap(false, true) {
		go w.loop()
	}
}

// Path returns the watched file.
func (w *Watcher) Path() string {
	return w.path
}

// Close stops the watcher and waits for its goroutine to exit.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		w.cancel()
		err = w.watcher.Close()
	})
	if w.started.Load() {
		<-w.done
	}
	return err
}

func (w *Watcher) loop() {
	defer close(w.done)

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			cfg, err := LoadFromPath(w.path)
			if w.ctx.Err() != nil {
				return
			}
			w.onChange(cfg, err)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.onChange(nil, errors.Wrap(err, "config watcher"))
		}
	}
}
