package builder

import (
	"metaed/internal/dsl"
	"metaed/internal/model"
	"metaed/internal/validation"
)

type propertyCommand func(e *model.TopLevelEntity, p *model.Property)

type propertyFrame struct {
	prop  *model.Property
	merge *model.MergeDirective
	// выполняются, только если свойство принято
	onExit []propertyCommand
}

var propertyKinds = map[dsl.Rule]model.PropertyKind{
	dsl.RuleBooleanProperty:         model.PropBoolean,
	dsl.RuleCurrencyProperty:        model.PropCurrency,
	dsl.RuleDateProperty:            model.PropDate,
	dsl.RuleDatetimeProperty:        model.PropDatetime,
	dsl.RuleDecimalProperty:         model.PropDecimal,
	dsl.RuleDescriptorProperty:      model.PropDescriptor,
	dsl.RuleDurationProperty:        model.PropDuration,
	dsl.RuleEnumerationProperty:     model.PropEnumeration,
	dsl.RuleIntegerProperty:         model.PropInteger,
	dsl.RuleShortProperty:           model.PropShort,
	dsl.RulePercentProperty:         model.PropPercent,
	dsl.RuleStringProperty:          model.PropString,
	dsl.RuleTimeProperty:            model.PropTime,
	dsl.RuleYearProperty:            model.PropYear,
	dsl.RuleAssociationProperty:     model.PropAssociation,
	dsl.RuleDomainEntityProperty:    model.PropDomainEntity,
	dsl.RuleDefiningDomainEntity:    model.PropDomainEntity,
	dsl.RuleCommonProperty:          model.PropCommon,
	dsl.RuleCommonExtensionOverride: model.PropCommon,
	dsl.RuleInlineCommonProperty:    model.PropInlineCommon,
	dsl.RuleChoiceProperty:          model.PropChoice,
	dsl.RuleSharedDecimalProperty:   model.PropSharedDecimal,
	dsl.RuleSharedIntegerProperty:   model.PropSharedInteger,
	dsl.RuleSharedShortProperty:     model.PropSharedShort,
	dsl.RuleSharedStringProperty:    model.PropSharedString,
}

func addIdentity(e *model.TopLevelEntity, p *model.Property) {
	e.IdentityProperties = append(e.IdentityProperties, p)
}

func addQueryable(e *model.TopLevelEntity, p *model.Property) {
	e.QueryableFields = append(e.QueryableFields, p)
}

func (b *TopLevelEntityBuilder) enterProperty(f *entityFrame, pf *propertyFrame, rule dsl.Rule, tok dsl.Token) {
	if pf.prop == nil {
		kind, ok := propertyKinds[rule]
		if !ok {
			return
		}
		p := model.NewProperty(kind)
		p.NamespaceName = f.entity.Base().NamespaceName
		p.ReferencedNamespaceName = p.NamespaceName
		p.SourceMap.Set(model.AttrType, tok)
		switch rule {
		case dsl.RuleDefiningDomainEntity:
			p.IsPartOfIdentity = true
			pf.onExit = append(pf.onExit, addIdentity)
		case dsl.RuleCommonExtensionOverride:
			p.IsExtensionOverride = true
		}
		pf.prop = p
		return
	}

	p := pf.prop
	switch rule {
	case dsl.RulePropertyName:
		nsName, local := model.ResolveReference(tok.Text, p.NamespaceName)
		p.Name = local
		p.ReferencedNamespaceName = nsName
		p.SourceMap.Set(model.AttrName, tok)
		if nsName != p.NamespaceName {
			p.SourceMap.Set(model.AttrReferencedNamespace, tok)
		}
	case dsl.RuleSharedPropertyType:
		nsName, local := model.ResolveReference(tok.Text, p.NamespaceName)
		p.ReferencedType = local
		p.ReferencedNamespaceName = nsName
		p.SourceMap.Set(model.AttrReferencedType, tok)
	case dsl.RuleSharedPropertyName:
		p.Name = tok.Text
		p.SourceMap.Set(model.AttrName, tok)
	case dsl.RuleMetaEdID:
		p.MetaEdID = metaEdID(tok.Text)
		p.SourceMap.Set(model.AttrMetaEdID, tok)
	case dsl.RulePropertyDocumentation:
		p.Documentation = tok.Text
		p.SourceMap.Set(model.AttrDocumentation, tok)
	case dsl.RuleDocumentationInherited:
		p.DocumentationInherited = true
		p.SourceMap.Set(model.AttrDocumentation, tok)
	case dsl.RulePropertyDeprecated:
		p.IsDeprecated = true
		p.DeprecationReason = tok.Text
		p.SourceMap.Set(model.AttrDeprecated, tok)
	case dsl.RuleIdentity:
		p.IsPartOfIdentity = true
		pf.onExit = append(pf.onExit, addIdentity)
	case dsl.RuleIdentityRename:
		p.IsPartOfIdentity = true
		p.IsIdentityRename = true
		pf.onExit = append(pf.onExit, addIdentity)
	case dsl.RuleBaseKeyName:
		p.BaseKeyName = tok.Text
	case dsl.RuleRequired:
		p.IsRequired = true
	case dsl.RuleOptional:
		p.IsOptional = true
	case dsl.RuleRequiredCollection:
		p.IsRequiredCollection = true
	case dsl.RuleOptionalCollection:
		p.IsOptionalCollection = true
	case dsl.RuleIsQueryableField:
		p.IsQueryableField = true
		pf.onExit = append(pf.onExit, addQueryable)
	case dsl.RuleIsQueryableOnly:
		p.IsQueryableOnly = true
		pf.onExit = append(pf.onExit, addQueryable)
	case dsl.RuleRoleNameName:
		p.RoleName = tok.Text
		p.SourceMap.Set(model.AttrRoleName, tok)
	case dsl.RuleShortenToName:
		p.ShortenTo = tok.Text
		p.SourceMap.Set(model.AttrShortenTo, tok)
	case dsl.RuleIsWeakReference:
		p.IsWeak = true
	case dsl.RulePotentiallyLogical:
		p.PotentiallyLogical = true
	case dsl.RuleMergeDirective:
		pf.merge = &model.MergeDirective{Source: model.SourceOf(tok)}
	case dsl.RuleSourcePropertyPath:
		if pf.merge != nil {
			pf.merge.SourcePath = tok.Text
		}
	case dsl.RuleTargetPropertyPath:
		if pf.merge != nil {
			pf.merge.TargetPath = tok.Text
		}
	default:
		applyRestriction(&p.Restrictions, rule, tok.Text)
	}
}

// closeProperty доводит свойство и добавляет его в сущность.
// Повтор составного ключа отбрасывается с двумя ошибками.
func (b *TopLevelEntityBuilder) closeProperty(f *entityFrame) {
	pf, ok := f.props.Pop()
	if !ok || pf.prop == nil {
		return
	}
	p := pf.prop

	if p.IsShared() && p.Name == "" {
		p.Name = p.ReferencedType
		p.SourceMap[model.AttrName] = p.SourceMap.Get(model.AttrReferencedType)
	}
	if p.Kind == model.PropEnumeration && p.Name == model.SchoolYear {
		p.Kind = model.PropSchoolYearEnumeration
	}
	if p.Name == "" {
		return
	}
	tle, ok := f.entity.(*model.TopLevelEntity)
	if !ok {
		return
	}

	if existing, added := f.index.Add(p); !added {
		msg := model.PropertyDuplicateMessage(p)
		b.deps.Failures.Add(validation.Failure{
			ValidatorName: TopLevelEntityBuilderName,
			Category:      validation.CategoryError,
			Message:       msg,
			Source:        p.SourceMap.Get(model.AttrName),
		})
		b.deps.Failures.Add(validation.Failure{
			ValidatorName: TopLevelEntityBuilderName,
			Category:      validation.CategoryError,
			Message:       msg,
			Source:        existing.SourceMap.Get(model.AttrName),
		})
		b.log.Debug("duplicate property discarded", "entity", tle.Name, "property", p.Key().String())
		return
	}

	// queryable only попадает только в QueryableFields
	if !p.IsQueryableOnly {
		tle.Properties = append(tle.Properties, p)
	}
	for _, cmd := range pf.onExit {
		cmd(tle, p)
	}
	f.accepted = append(f.accepted, p)
}
