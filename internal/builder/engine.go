package builder

import (
	"log/slog"
	"strconv"
	"strings"

	"metaed/internal/dsl"
	"metaed/internal/model"
	"metaed/internal/validation"
)

// TopLevelEntityBuilderName: имя, под которым сообщается о любых повторах.
const TopLevelEntityBuilderName = "TopLevelEntityBuilder"

// Deps: общее состояние, которое делят все построители одного прохода.
type Deps struct {
	Registry   *model.Registry
	Failures   *validation.Sink
	Properties *model.PropertyCatalog
	Logger     *slog.Logger
}

type entityFactory func() model.Entity

type entityFrame struct {
	entity model.Entity
	ns     *model.Namespace
	index  *model.PropertyIndex
	props  stack[*propertyFrame]
	// принятые свойства, включая queryable only
	accepted []*model.Property

	item     *model.Item
	itemRule dsl.Rule
	enumItem *model.EnumerationItem
	mapType  *model.MapType
}

// TopLevelEntityBuilder собирает сущности одного семейства. Какие правила
// открывают сущность и какой вариант создаётся, задаёт таблица factories.
type TopLevelEntityBuilder struct {
	family    string
	factories map[dsl.Rule]entityFactory
	deps      Deps
	log       *slog.Logger
	scope     namespaceScope
	frames    stack[*entityFrame]
}

func newTopLevelEntityBuilder(family string, deps Deps, factories map[dsl.Rule]entityFactory) *TopLevelEntityBuilder {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	return &TopLevelEntityBuilder{
		family:    family,
		factories: factories,
		deps:      deps,
		log:       log.With("builder", family),
		scope:     namespaceScope{registry: deps.Registry},
	}
}

// Family: имя семейства для логов.
func (b *TopLevelEntityBuilder) Family() string { return b.family }

// Handles: правила, открывающие сущность этого семейства.
func (b *TopLevelEntityBuilder) Handles(rule dsl.Rule) bool {
	_, ok := b.factories[rule]
	return ok
}

func (b *TopLevelEntityBuilder) Enter(rule dsl.Rule, tok dsl.Token) {
	if b.scope.track(false, rule, tok) {
		return
	}
	if factory, ok := b.factories[rule]; ok {
		b.openEntity(tok, factory)
		return
	}
	f, ok := b.frames.Peek()
	if !ok {
		return
	}
	if pf, ok := f.props.Peek(); ok {
		b.enterProperty(f, pf, rule, tok)
		return
	}
	b.enterEntity(f, rule, tok)
}

func (b *TopLevelEntityBuilder) Exit(rule dsl.Rule, tok dsl.Token) {
	if b.scope.track(true, rule, tok) {
		return
	}
	if _, ok := b.factories[rule]; ok {
		b.closeEntity()
		return
	}
	f, ok := b.frames.Peek()
	if !ok {
		return
	}
	switch rule {
	case dsl.RuleProperty:
		b.closeProperty(f)
	case dsl.RuleMergeDirective:
		if pf, ok := f.props.Peek(); ok && pf.prop != nil && pf.merge != nil {
			pf.prop.MergeDirectives = append(pf.prop.MergeDirectives, *pf.merge)
			pf.merge = nil
		}
	case dsl.RuleInterchangeElement, dsl.RuleInterchangeIdentity, dsl.RuleDomainItem:
		b.closeItem(f)
	case dsl.RuleEnumerationItem:
		b.closeEnumerationItem(f)
	case dsl.RuleWithMapType:
		if tle, ok := f.entity.(*model.TopLevelEntity); ok && f.mapType != nil {
			tle.MapType = f.mapType
		}
		f.mapType = nil
	}
}

func (b *TopLevelEntityBuilder) openEntity(tok dsl.Token, factory entityFactory) {
	e := factory()
	base := e.Base()
	base.SourceMap.Set(model.AttrType, tok)

	ns := b.scope.current()
	if ns != nil {
		base.NamespaceName = ns.Name
		base.ProjectExtension = ns.ProjectExtension
	}
	b.frames.Push(&entityFrame{entity: e, ns: ns, index: model.NewPropertyIndex()})
}

func (b *TopLevelEntityBuilder) closeEntity() {
	f, ok := b.frames.Pop()
	if !ok {
		return
	}
	base := f.entity.Base()
	if f.ns == nil {
		b.log.Debug("entity outside of a namespace ignored", "kind", base.Kind, "name", base.Name)
		return
	}
	if base.Name == "" {
		return
	}
	existing, added := f.ns.Entities.Add(f.entity)
	if !added {
		reportDuplicate(b.deps.Failures, f.entity, existing)
		b.log.Debug("duplicate entity discarded", "kind", base.Kind, "name", base.Name, "namespace", f.ns.Name)
		return
	}
	b.log.Debug("entity registered", "kind", base.Kind, "name", base.Name, "namespace", f.ns.Name)

	for _, p := range f.accepted {
		if b.deps.Properties != nil {
			b.deps.Properties.Add(p)
		}
		if t := generatedType(f.ns, p); t != nil {
			registerSimpleType(b.deps.Failures, b.log, f.ns, t)
		}
	}
}

func (b *TopLevelEntityBuilder) enterEntity(f *entityFrame, rule dsl.Rule, tok dsl.Token) {
	base := f.entity.Base()
	switch rule {
	case dsl.RuleEntityName:
		base.Name = tok.Text
		base.SourceMap.Set(model.AttrName, tok)
	case dsl.RuleExtendeeName:
		nsName, local := model.ResolveReference(tok.Text, base.NamespaceName)
		base.Name = local
		base.SourceMap.Set(model.AttrName, tok)
		setBaseEntity(f.entity, nsName, local, tok)
	case dsl.RuleBaseName:
		nsName, local := model.ResolveReference(tok.Text, base.NamespaceName)
		setBaseEntity(f.entity, nsName, local, tok)
	case dsl.RuleMetaEdID:
		id := metaEdID(tok.Text)
		switch {
		case f.enumItem != nil:
			f.enumItem.MetaEdID = id
			f.enumItem.SourceMap.Set(model.AttrMetaEdID, tok)
		case f.item != nil:
			f.item.MetaEdID = id
			f.item.SourceMap.Set(model.AttrMetaEdID, tok)
		default:
			base.MetaEdID = id
			base.SourceMap.Set(model.AttrMetaEdID, tok)
		}
	case dsl.RuleDocumentation:
		base.Documentation = tok.Text
		base.SourceMap.Set(model.AttrDocumentation, tok)
	case dsl.RuleDeprecated:
		base.IsDeprecated = true
		base.DeprecationReason = tok.Text
		base.SourceMap.Set(model.AttrDeprecated, tok)
	case dsl.RuleCascadeUpdate:
		if tle, ok := f.entity.(*model.TopLevelEntity); ok {
			tle.AllowPrimaryKeyUpdates = true
		}
	case dsl.RuleExtendedDocumentation, dsl.RuleUseCaseDocumentation:
		if ic, ok := f.entity.(*model.Interchange); ok {
			if rule == dsl.RuleExtendedDocumentation {
				ic.ExtendedDocumentation = tok.Text
			} else {
				ic.UseCaseDocumentation = tok.Text
			}
		}
	case dsl.RuleFooterDocumentation:
		if d, ok := f.entity.(*model.Domain); ok {
			d.FooterDocumentation = tok.Text
		}
	case dsl.RuleParentDomainName:
		if d, ok := f.entity.(*model.Domain); ok {
			d.ParentDomainName = tok.Text
		}
	case dsl.RuleSubdomainPosition:
		if d, ok := f.entity.(*model.Domain); ok {
			if n, err := strconv.Atoi(tok.Text); err == nil {
				d.Position = n
			}
		}
	case dsl.RuleInterchangeElement, dsl.RuleInterchangeIdentity, dsl.RuleDomainItem:
		f.item = &model.Item{ReferencedType: itemType(tok.Text), SourceMap: model.SourceMap{}}
		f.item.SourceMap.Set(model.AttrType, tok)
		f.itemRule = rule
	case dsl.RuleItemName:
		if f.item != nil {
			nsName, local := model.ResolveReference(tok.Text, base.NamespaceName)
			f.item.Name = local
			f.item.ReferencedNamespaceName = nsName
			f.item.SourceMap.Set(model.AttrName, tok)
		}
	case dsl.RuleEnumerationItem:
		f.enumItem = &model.EnumerationItem{SourceMap: model.SourceMap{}}
		f.enumItem.SourceMap.Set(model.AttrType, tok)
	case dsl.RuleShortDescription:
		if f.enumItem != nil {
			f.enumItem.ShortDescription = tok.Text
			f.enumItem.SourceMap.Set(model.AttrName, tok)
		}
	case dsl.RuleEnumerationItemDocumentation:
		if f.enumItem != nil {
			f.enumItem.Documentation = tok.Text
			f.enumItem.SourceMap.Set(model.AttrDocumentation, tok)
		}
	case dsl.RuleWithMapType:
		f.mapType = &model.MapType{SourceMap: model.SourceMap{}}
		f.mapType.SourceMap.Set(model.AttrType, tok)
	case dsl.RuleRequiredMapType:
		if f.mapType != nil {
			f.mapType.IsRequired = true
		}
	case dsl.RuleMapTypeDocumentation:
		if f.mapType != nil {
			f.mapType.Documentation = tok.Text
			f.mapType.SourceMap.Set(model.AttrDocumentation, tok)
		}
	case dsl.RuleProperty:
		f.props.Push(&propertyFrame{})
	default:
		if st, ok := f.entity.(*model.SharedSimpleType); ok {
			applyRestriction(&st.Restrictions, rule, tok.Text)
		}
	}
}

func (b *TopLevelEntityBuilder) closeItem(f *entityFrame) {
	item, rule := f.item, f.itemRule
	f.item, f.itemRule = nil, ""
	if item == nil || item.Name == "" {
		return
	}
	switch e := f.entity.(type) {
	case *model.Interchange:
		if rule == dsl.RuleInterchangeIdentity {
			e.IdentityTemplates = append(e.IdentityTemplates, item)
		} else {
			e.Elements = append(e.Elements, item)
		}
	case *model.Domain:
		e.Items = append(e.Items, item)
	}
}

func (b *TopLevelEntityBuilder) closeEnumerationItem(f *entityFrame) {
	item := f.enumItem
	f.enumItem = nil
	if item == nil {
		return
	}
	if f.mapType != nil {
		f.mapType.Items = append(f.mapType.Items, item)
		return
	}
	if tle, ok := f.entity.(*model.TopLevelEntity); ok {
		tle.EnumerationItems = append(tle.EnumerationItems, item)
	}
}

// reportDuplicate: две ошибки с одинаковым текстом: на новое объявление и на прежнее.
func reportDuplicate(sink *validation.Sink, rejected, existing model.Entity) {
	msg := model.DuplicateMessage(rejected)
	sink.Add(validation.Failure{
		ValidatorName: TopLevelEntityBuilderName,
		Category:      validation.CategoryError,
		Message:       msg,
		Source:        rejected.Base().SourceMap.Get(model.AttrName),
	})
	sink.Add(validation.Failure{
		ValidatorName: TopLevelEntityBuilderName,
		Category:      validation.CategoryError,
		Message:       msg,
		Source:        existing.Base().SourceMap.Get(model.AttrName),
	})
}

func setBaseEntity(e model.Entity, nsName, local string, tok dsl.Token) {
	switch v := e.(type) {
	case *model.TopLevelEntity:
		v.BaseEntityName = local
		v.BaseEntityNamespaceName = nsName
	case *model.Interchange:
		v.BaseEntityName = local
		v.BaseEntityNamespaceName = nsName
	default:
		return
	}
	e.Base().SourceMap.Set(model.AttrBaseEntityName, tok)
	e.Base().SourceMap.Set(model.AttrBaseEntityNamespaceName, tok)
}

func metaEdID(text string) string {
	return strings.TrimSuffix(strings.TrimPrefix(text, "["), "]")
}

func itemType(keyword string) string {
	switch keyword {
	case "domain entity":
		return "domainEntity"
	case "inline common":
		return "inlineCommon"
	}
	return keyword
}

// applyRestriction записывает ограничение; "big" выставляет HasBigHint вместо текста.
func applyRestriction(r *model.Restrictions, rule dsl.Rule, text string) bool {
	switch rule {
	case dsl.RuleMinLength:
		r.MinLength = text
	case dsl.RuleMaxLength:
		r.MaxLength = text
	case dsl.RuleTotalDigits:
		r.TotalDigits = text
	case dsl.RuleDecimalPlaces:
		r.DecimalPlaces = text
	case dsl.RuleMinValue:
		if text == dsl.BigValue {
			r.HasBigHint = true
		} else {
			r.MinValue = text
		}
	case dsl.RuleMaxValue:
		if text == dsl.BigValue {
			r.HasBigHint = true
		} else {
			r.MaxValue = text
		}
	default:
		return false
	}
	return true
}
