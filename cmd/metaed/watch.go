package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"metaed/internal/dsl"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
)

// sourceWatcher следит за каталогами исходников и после паузы в событиях
// вызывает onChange со списком изменённых файлов.
type sourceWatcher struct {
	fsw      *fsnotify.Watcher
	debounce time.Duration
	onChange func(ctx context.Context, changed []string)
	log      *slog.Logger
}

func newSourceWatcher(patterns []string, debounce time.Duration, onChange func(context.Context, []string), log *slog.Logger) (*sourceWatcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}
	w := &sourceWatcher{fsw: fsw, debounce: debounce, onChange: onChange, log: log}
	for _, root := range watchRoots(patterns) {
		if err := w.addRecursive(root); err != nil {
			_ = fsw.Close()
			return nil, err
		}
	}
	return w, nil
}

// watchRoots: статические префиксы шаблонов: каталог целиком или base glob'а.
func watchRoots(patterns []string) []string {
	seen := map[string]struct{}{}
	var roots []string
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		root := p
		if st, err := os.Stat(p); err != nil || !st.IsDir() {
			root, _ = doublestar.SplitPattern(filepath.ToSlash(p))
			root = filepath.FromSlash(root)
		}
		root = filepath.Clean(root)
		if _, ok := seen[root]; ok {
			continue
		}
		seen[root] = struct{}{}
		roots = append(roots, root)
	}
	sort.Strings(roots)
	return roots
}

func (w *sourceWatcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		base := d.Name()
		if path != root && strings.HasPrefix(base, ".") {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			w.log.Warn("failed to watch directory", "path", path, "error", err)
			return nil
		}
		w.log.Debug("watching directory", "path", path)
		return nil
	})
}

func (w *sourceWatcher) Close() error { return w.fsw.Close() }

// Run обрабатывает события до отмены ctx.
func (w *sourceWatcher) Run(ctx context.Context) {
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()
	pending := map[string]struct{}{}

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !w.relevant(ev) {
				continue
			}
			pending[ev.Name] = struct{}{}
			timer.Reset(w.debounce)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Error("watcher error", "error", err)

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			changed := make([]string, 0, len(pending))
			for p := range pending {
				changed = append(changed, p)
			}
			sort.Strings(changed)
			pending = map[string]struct{}{}
			w.onChange(ctx, changed)
		}
	}
}

// relevant: изменения *.metaed; новые каталоги сразу берутся под наблюдение.
func (w *sourceWatcher) relevant(ev fsnotify.Event) bool {
	if ev.Has(fsnotify.Create) {
		if st, err := os.Stat(ev.Name); err == nil && st.IsDir() {
			if err := w.addRecursive(ev.Name); err != nil {
				w.log.Warn("failed to watch new directory", "path", ev.Name, "error", err)
			}
			return true
		}
	}
	if !strings.EqualFold(filepath.Ext(ev.Name), dsl.Ext) {
		return false
	}
	return ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write) || ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename)
}
