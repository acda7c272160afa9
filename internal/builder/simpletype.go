package builder

import (
	"log/slog"

	"metaed/internal/dsl"
	"metaed/internal/model"
	"metaed/internal/validation"
)

var sharedTypeKinds = map[dsl.Rule]model.Kind{
	dsl.RuleSharedDecimal: model.KindDecimalType,
	dsl.RuleSharedInteger: model.KindIntegerType,
	dsl.RuleSharedShort:   model.KindIntegerType,
	dsl.RuleSharedString:  model.KindStringType,
}

type simpleTypeFrame struct {
	ns *model.Namespace
	t  *model.SimpleType
}

// SimpleTypeBuilder заполняет таблицу конкретных типов namespace записями
// из shared-объявлений (Generated=false). Типы из ограничений свойств
// добавляет TopLevelEntityBuilder, когда сущность принята.
type SimpleTypeBuilder struct {
	deps   Deps
	log    *slog.Logger
	scope  namespaceScope
	frames stack[*simpleTypeFrame]
}

func NewSimpleTypeBuilder(d Deps) *SimpleTypeBuilder {
	log := d.Logger
	if log == nil {
		log = slog.Default()
	}
	return &SimpleTypeBuilder{
		deps:  d,
		log:   log.With("builder", "SimpleTypeBuilder"),
		scope: namespaceScope{registry: d.Registry},
	}
}

func newSimpleType(kind model.Kind, ns *model.Namespace) *model.SimpleType {
	t := model.NewSimpleType(kind)
	if ns != nil {
		t.NamespaceName = ns.Name
		t.ProjectExtension = ns.ProjectExtension
	}
	return t
}

func (b *SimpleTypeBuilder) Enter(rule dsl.Rule, tok dsl.Token) {
	if b.scope.track(false, rule, tok) {
		return
	}
	if kind, ok := sharedTypeKinds[rule]; ok {
		t := newSimpleType(kind, b.scope.current())
		t.IsShort = rule == dsl.RuleSharedShort
		t.SourceMap.Set(model.AttrType, tok)
		b.frames.Push(&simpleTypeFrame{ns: b.scope.current(), t: t})
		return
	}

	f, ok := b.frames.Peek()
	if !ok {
		return
	}
	switch rule {
	case dsl.RuleEntityName:
		f.t.Name = tok.Text
		f.t.SourceMap.Set(model.AttrName, tok)
	case dsl.RuleMetaEdID:
		f.t.MetaEdID = metaEdID(tok.Text)
		f.t.SourceMap.Set(model.AttrMetaEdID, tok)
	case dsl.RuleDocumentation:
		f.t.Documentation = tok.Text
		f.t.SourceMap.Set(model.AttrDocumentation, tok)
	case dsl.RuleDeprecated:
		f.t.IsDeprecated = true
		f.t.DeprecationReason = tok.Text
		f.t.SourceMap.Set(model.AttrDeprecated, tok)
	default:
		applyRestriction(&f.t.Restrictions, rule, tok.Text)
	}
}

func (b *SimpleTypeBuilder) Exit(rule dsl.Rule, tok dsl.Token) {
	if b.scope.track(true, rule, tok) {
		return
	}
	if _, shared := sharedTypeKinds[rule]; !shared {
		return
	}
	f, ok := b.frames.Pop()
	if !ok || f.ns == nil || f.t.Name == "" {
		return
	}
	registerSimpleType(b.deps.Failures, b.log, f.ns, f.t)
}

// generatedType: тип из ограничений принятого свойства, под именем с контекстом.
// nil, если свойство своего типа не порождает.
func generatedType(ns *model.Namespace, p *model.Property) *model.SimpleType {
	kind, ok := p.SimpleTypeKind()
	if !ok || p.Restrictions.IsZero() {
		return nil
	}
	t := newSimpleType(kind, ns)
	t.Name = p.FullName()
	t.Generated = true
	t.IsShort = p.Kind == model.PropShort
	t.Restrictions = p.Restrictions
	t.MetaEdID = p.MetaEdID
	t.Documentation = p.Documentation
	t.IsDeprecated = p.IsDeprecated
	t.DeprecationReason = p.DeprecationReason
	for _, attr := range []string{model.AttrType, model.AttrName, model.AttrMetaEdID, model.AttrDocumentation, model.AttrDeprecated} {
		if src, ok := p.SourceMap[attr]; ok {
			t.SourceMap[attr] = src
		}
	}
	return t
}

// registerSimpleType: первая запись с ключом побеждает, повтор даёт две ошибки.
func registerSimpleType(sink *validation.Sink, log *slog.Logger, ns *model.Namespace, t *model.SimpleType) {
	existing, added := ns.Entities.Add(t)
	if !added {
		reportDuplicate(sink, t, existing)
		log.Debug("duplicate simple type discarded", "kind", t.Kind, "key", t.Key())
		return
	}
	log.Debug("simple type registered", "kind", t.Kind, "key", t.Key(), "generated", t.Generated)
}
