package builder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"metaed/internal/dsl"
	"metaed/internal/model"
	"metaed/internal/validation"
)

// Environment: результат одного прохода: namespace с сущностями,
// диагностики и каталог свойств.
type Environment struct {
	Registry   *model.Registry
	Failures   *validation.Sink
	Properties *model.PropertyCatalog

	log *slog.Logger
}

func NewEnvironment(log *slog.Logger) *Environment {
	if log == nil {
		log = slog.Default()
	}
	return &Environment{
		Registry:   model.NewRegistry(),
		Failures:   validation.NewSink(),
		Properties: model.NewPropertyCatalog(),
		log:        log,
	}
}

func (e *Environment) Deps() Deps {
	return Deps{Registry: e.Registry, Failures: e.Failures, Properties: e.Properties, Logger: e.log}
}

// Listeners: все построители прохода. NamespaceBuilder идёт первым.
func (e *Environment) Listeners(syntaxValidation bool) []dsl.Listener {
	d := e.Deps()
	ls := []dsl.Listener{NewNamespaceBuilder(e.Registry, e.Failures, e.log)}
	for _, b := range EntityBuilders(d) {
		ls = append(ls, b)
	}
	ls = append(ls, NewSimpleTypeBuilder(d))
	if syntaxValidation {
		ls = append(ls, validation.NewSyntaxValidator(e.Failures))
	}
	return ls
}

func (e *Environment) Dispatcher(syntaxValidation bool) *dsl.Dispatcher {
	return dsl.NewDispatcher(e.Listeners(syntaxValidation)...)
}

// Options: настройки Build.
type Options struct {
	Logger *slog.Logger
	// SyntaxValidation включает предупреждения об устаревшем синтаксисе
	SyntaxValidation bool
	// Concurrency: сколько файлов читать одновременно
	Concurrency int
}

// Result: построенная модель и сводка.
type Result struct {
	*Environment
	Files    []string
	Duration time.Duration
}

func (r *Result) Summary() []any {
	return []any{
		"files", len(r.Files),
		"namespaces", r.Registry.Len(),
		"entities", r.Registry.Entities(),
		"properties", r.Properties.Len(),
		"errors", len(r.Failures.Errors()),
		"warnings", len(r.Failures.Warnings()),
		"duration", r.Duration,
	}
}

// Build читает исходники по шаблонам и строит модель.
// Ошибкой считаются только сбои чтения и разбора; диагностики модели лежат в Failures.
func Build(ctx context.Context, patterns []string, opts Options) (*Result, error) {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	start := time.Now()

	sources, err := dsl.LoadSources(ctx, patterns, opts.Concurrency)
	if err != nil {
		return nil, fmt.Errorf("load sources: %w", err)
	}
	res := BuildSources(sources, opts)
	res.Duration = time.Since(start)
	log.Info("model built", res.Summary()...)
	return res, nil
}

// BuildSources строит модель из уже разобранных файлов.
func BuildSources(sources []dsl.Source, opts Options) *Result {
	env := NewEnvironment(opts.Logger)
	dsl.Walk(sources, env.Dispatcher(opts.SyntaxValidation))

	files := make([]string, len(sources))
	for i, s := range sources {
		files[i] = s.Path
	}
	return &Result{Environment: env, Files: files}
}
