package dsl

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"
)

// Ext: расширение исходников MetaEd.
const Ext = ".metaed"

// Source: разобранный файл: путь и записанные события.
type Source struct {
	Path   string
	Events []Event
}

// Expand раскрывает шаблоны (поддерживается **) и каталоги в отсортированный список файлов.
func Expand(patterns []string) ([]string, error) {
	seen := make(map[string]struct{})
	var files []string
	add := func(path string) {
		if _, ok := seen[path]; ok {
			return
		}
		seen[path] = struct{}{}
		files = append(files, path)
	}

	for _, pattern := range patterns {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		// каталог: берём все *.metaed рекурсивно
		if st, err := os.Stat(pattern); err == nil && st.IsDir() {
			pattern = filepath.Join(pattern, "**", "*"+Ext)
		}
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, fmt.Errorf("glob %s: %w", pattern, err)
		}
		for _, m := range matches {
			if st, err := os.Stat(m); err == nil && !st.IsDir() {
				add(filepath.Clean(m))
			}
		}
	}

	sort.Strings(files)
	return files, nil
}

// LoadSources читает и разбирает файлы параллельно (не больше limit одновременно).
// Порядок результата совпадает с отсортированным порядком путей.
func LoadSources(ctx context.Context, patterns []string, limit int) ([]Source, error) {
	files, err := Expand(patterns)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no %s files match %v", Ext, patterns)
	}
	if limit <= 0 {
		limit = 4
	}

	sources := make([]Source, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, path := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			src, err := parseFile(path)
			if err != nil {
				return err
			}
			sources[i] = src
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return sources, nil
}

func parseFile(path string) (Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return Source{}, err
	}
	defer f.Close()

	rec := &Recorder{}
	if err := Parse(path, f, rec); err != nil {
		return Source{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return Source{Path: path, Events: rec.Events}, nil
}

// Walk проигрывает события всех файлов последовательно.
func Walk(sources []Source, l Listener) {
	for _, s := range sources {
		Replay(s.Events, l)
	}
}
