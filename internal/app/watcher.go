package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/samvad-hq/listing-filter/internal/blocklist"
	"github.com/samvad-hq/listing-filter/internal/logger"
	"github.com/samvad-hq/listing-filter/internal/page"
	"github.com/samvad-hq/listing-filter/internal/reconcile"
)

// Sink receives every rendered result.
type Sink func(FilterResult) error

// WatchOptions configures a Watcher.
type WatchOptions struct {
	PagePath string
	Layout   page.Layout
	// StorePath, when set, is watched too; a change re-evaluates every row.
	StorePath string
	Debounce  time.Duration
	Show      bool
}

// Watcher re-runs the filter whenever the page file (or the settings file)
// changes. Events are coalesced by a Debouncer and handled on the Run
// goroutine only.
type Watcher struct {
	opts  WatchOptions
	store *blocklist.Store
	sink  Sink
	log   logger.Logger

	session *Session
}

// NewWatcher validates options and builds a watcher.
func NewWatcher(opts WatchOptions, store *blocklist.Store, sink Sink, log logger.Logger) (*Watcher, error) {
	if opts.PagePath == "" {
		return nil, fmt.Errorf("page path is required")
	}
	if store == nil {
		return nil, fmt.Errorf("blocklist store must not be nil")
	}
	if sink == nil {
		return nil, fmt.Errorf("sink must not be nil")
	}
	opts.PagePath = filepath.Clean(opts.PagePath)
	if opts.StorePath != "" {
		opts.StorePath = filepath.Clean(opts.StorePath)
	}
	return &Watcher{opts: opts, store: store, sink: sink, log: logger.Ensure(log)}, nil
}

// Run blocks until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	defer fsw.Close()

	// Watch directories: editors commonly replace files instead of writing them.
	dirs := map[string]struct{}{filepath.Dir(w.opts.PagePath): {}}
	if w.opts.StorePath != "" {
		dirs[filepath.Dir(w.opts.StorePath)] = struct{}{}
	}
	for dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}

	if err := w.reload(ctx, false); err != nil {
		return fmt.Errorf("initial pass: %w", err)
	}

	pageChanges := NewDebouncer(w.opts.Debounce)
	defer pageChanges.Stop()
	storeChanges := NewDebouncer(w.opts.Debounce)
	defer storeChanges.Stop()

	w.log.InfoObj("watching listing page", "watch_config", map[string]any{
		"page":        w.opts.PagePath,
		"store":       w.opts.StorePath,
		"debounce_ms": w.opts.Debounce.Milliseconds(),
	})

	for {
		select {
		case <-ctx.Done():
			w.log.InfoObj("watch loop exiting", "reason", ctx.Err())
			return nil
		case evt, ok := <-fsw.Events:
			if !ok {
				return errors.New("file watcher closed")
			}
			if !relevant(evt) {
				continue
			}
			switch filepath.Clean(evt.Name) {
			case w.opts.PagePath:
				pageChanges.Trigger()
			case w.opts.StorePath:
				storeChanges.Trigger()
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return errors.New("file watcher closed")
			}
			w.log.WarnObj("file watcher error", "error", err)
		case <-pageChanges.C():
			if err := w.reload(ctx, false); err != nil {
				w.log.ErrorObj("page reload failed", "error", err)
			}
		case <-storeChanges.C():
			if err := w.reload(ctx, true); err != nil {
				w.log.ErrorObj("blocklist reload failed", "error", err)
			}
		}
	}
}

func relevant(evt fsnotify.Event) bool {
	return evt.Has(fsnotify.Write) || evt.Has(fsnotify.Create) || evt.Has(fsnotify.Rename)
}

// reload re-parses the page; reevaluate also clears row flags first.
func (w *Watcher) reload(ctx context.Context, reevaluate bool) error {
	p, err := LoadPage(ctx, w.opts.PagePath, nil, nil, w.opts.Layout)
	if err != nil {
		return err
	}

	if w.session == nil {
		sess, err := NewSession(p, w.store, w.log)
		if err != nil {
			return err
		}
		w.session = sess
	}

	var res reconcile.PassResult
	if reevaluate {
		w.session.page = p
		res = w.session.Reevaluate()
	} else {
		res = w.session.ReplacePage(p)
	}
	if w.opts.Show {
		w.session.Show(true)
	}

	out, err := renderResult(w.session, res)
	if err != nil {
		return err
	}
	w.log.DebugObj("listing page filtered", "filter_result", out)
	return w.sink(out)
}
