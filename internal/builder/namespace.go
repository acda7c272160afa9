package builder

import (
	"log/slog"

	"metaed/internal/dsl"
	"metaed/internal/model"
	"metaed/internal/validation"
)

const NamespaceBuilderName = "NamespaceBuilder"

// coreNamespaceType: тип namespace без project extension.
const coreNamespaceType = "core"

type namespaceFrame struct {
	name      string
	extension string
	source    model.Source

	resolved bool
	ns       *model.Namespace
}

// namespaceScope: текущий namespace построителя. Каждый слушатель держит свой.
type namespaceScope struct {
	registry *model.Registry
	frames   stack[*namespaceFrame]
}

// track обрабатывает события блока namespace; true, если событие ему принадлежит.
func (s *namespaceScope) track(exit bool, rule dsl.Rule, tok dsl.Token) bool {
	switch rule {
	case dsl.RuleNamespace:
		if exit {
			s.frames.Pop()
		} else {
			s.frames.Push(&namespaceFrame{source: model.SourceOf(tok)})
		}
		return true
	case dsl.RuleNamespaceName:
		if f, ok := s.frames.Peek(); ok && !exit {
			f.name = tok.Text
			f.source = model.SourceOf(tok)
		}
		return true
	case dsl.RuleNamespaceType:
		if f, ok := s.frames.Peek(); ok && !exit {
			f.extension = projectExtension(tok.Text)
		}
		return true
	}
	return false
}

// current: namespace, к которому относятся события; nil вне блока
// или если блок конфликтует с ранее объявленным.
func (s *namespaceScope) current() *model.Namespace {
	f, ok := s.frames.Peek()
	if !ok || f.name == "" {
		return nil
	}
	if !f.resolved {
		if ns, ok := s.registry.Get(f.name); ok && ns.ProjectExtension == f.extension {
			f.ns = ns
		}
		f.resolved = true
	}
	return f.ns
}

func projectExtension(namespaceType string) string {
	if namespaceType == coreNamespaceType {
		return ""
	}
	return namespaceType
}

// NamespaceBuilder регистрирует namespace при закрытии заголовка блока.
// Повторный блок с тем же именем переиспользует namespace.
type NamespaceBuilder struct {
	registry *model.Registry
	sink     *validation.Sink
	log      *slog.Logger
	frames   stack[*namespaceFrame]
}

func NewNamespaceBuilder(registry *model.Registry, sink *validation.Sink, log *slog.Logger) *NamespaceBuilder {
	if log == nil {
		log = slog.Default()
	}
	return &NamespaceBuilder{registry: registry, sink: sink, log: log}
}

func (b *NamespaceBuilder) Enter(rule dsl.Rule, tok dsl.Token) {
	switch rule {
	case dsl.RuleNamespace:
		b.frames.Push(&namespaceFrame{source: model.SourceOf(tok)})
	case dsl.RuleNamespaceName:
		if f, ok := b.frames.Peek(); ok {
			f.name = tok.Text
			f.source = model.SourceOf(tok)
		}
	case dsl.RuleNamespaceType:
		if f, ok := b.frames.Peek(); ok {
			f.extension = projectExtension(tok.Text)
		}
	}
}

func (b *NamespaceBuilder) Exit(rule dsl.Rule, _ dsl.Token) {
	switch rule {
	case dsl.RuleNamespaceType:
		f, ok := b.frames.Peek()
		if !ok || f.name == "" {
			return
		}
		ns := model.NewNamespace(f.name, f.extension)
		ns.Source = f.source
		existing, added := b.registry.Add(ns)
		switch {
		case added:
			b.log.Debug("namespace registered", "namespace", ns.Name, "projectExtension", ns.ProjectExtension)
		case existing.ProjectExtension != f.extension:
			b.sink.Errorf(NamespaceBuilderName, f.source,
				"Namespace named %s was previously declared with a different project extension.", f.name)
		default:
			b.log.Debug("namespace reopened", "namespace", ns.Name)
		}
	case dsl.RuleNamespace:
		b.frames.Pop()
	}
}
