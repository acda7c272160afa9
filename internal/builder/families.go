package builder

import (
	"metaed/internal/dsl"
	"metaed/internal/model"
)

func topLevel(kind model.Kind) entityFactory {
	return func() model.Entity { return model.NewTopLevelEntity(kind) }
}

func abstractEntity() model.Entity {
	e := model.NewTopLevelEntity(model.KindDomainEntity)
	e.IsAbstract = true
	return e
}

func inlineCommon() model.Entity {
	e := model.NewTopLevelEntity(model.KindCommon)
	e.Inline = true
	return e
}

func NewDomainEntityBuilder(d Deps) *TopLevelEntityBuilder {
	return newTopLevelEntityBuilder("DomainEntityBuilder", d, map[dsl.Rule]entityFactory{
		dsl.RuleDomainEntity:          topLevel(model.KindDomainEntity),
		dsl.RuleAbstractEntity:        abstractEntity,
		dsl.RuleDomainEntityExtension: topLevel(model.KindDomainEntityExtension),
		dsl.RuleDomainEntitySubclass:  topLevel(model.KindDomainEntitySubclass),
	})
}

func NewAssociationBuilder(d Deps) *TopLevelEntityBuilder {
	return newTopLevelEntityBuilder("AssociationBuilder", d, map[dsl.Rule]entityFactory{
		dsl.RuleAssociation:          topLevel(model.KindAssociation),
		dsl.RuleAssociationExtension: topLevel(model.KindAssociationExtension),
		dsl.RuleAssociationSubclass:  topLevel(model.KindAssociationSubclass),
	})
}

func NewChoiceBuilder(d Deps) *TopLevelEntityBuilder {
	return newTopLevelEntityBuilder("ChoiceBuilder", d, map[dsl.Rule]entityFactory{
		dsl.RuleChoice: topLevel(model.KindChoice),
	})
}

func NewCommonBuilder(d Deps) *TopLevelEntityBuilder {
	return newTopLevelEntityBuilder("CommonBuilder", d, map[dsl.Rule]entityFactory{
		dsl.RuleCommon:          topLevel(model.KindCommon),
		dsl.RuleInlineCommon:    inlineCommon,
		dsl.RuleCommonExtension: topLevel(model.KindCommonExtension),
		dsl.RuleCommonSubclass:  topLevel(model.KindCommonSubclass),
	})
}

func NewDescriptorBuilder(d Deps) *TopLevelEntityBuilder {
	return newTopLevelEntityBuilder("DescriptorBuilder", d, map[dsl.Rule]entityFactory{
		dsl.RuleDescriptor: topLevel(model.KindDescriptor),
	})
}

func NewEnumerationBuilder(d Deps) *TopLevelEntityBuilder {
	return newTopLevelEntityBuilder("EnumerationBuilder", d, map[dsl.Rule]entityFactory{
		dsl.RuleEnumeration: topLevel(model.KindEnumeration),
	})
}

func NewInterchangeBuilder(d Deps) *TopLevelEntityBuilder {
	return newTopLevelEntityBuilder("InterchangeBuilder", d, map[dsl.Rule]entityFactory{
		dsl.RuleInterchange:          func() model.Entity { return model.NewInterchange(model.KindInterchange) },
		dsl.RuleInterchangeExtension: func() model.Entity { return model.NewInterchange(model.KindInterchangeExtension) },
	})
}

func NewDomainBuilder(d Deps) *TopLevelEntityBuilder {
	return newTopLevelEntityBuilder("DomainBuilder", d, map[dsl.Rule]entityFactory{
		dsl.RuleDomain:    func() model.Entity { return model.NewDomain(model.KindDomain) },
		dsl.RuleSubdomain: func() model.Entity { return model.NewDomain(model.KindSubdomain) },
	})
}

// NewSharedSimpleTypeBuilder: Shared Decimal/Integer/Short/String.
// Shared Short регистрируется как sharedInteger с IsShort.
func NewSharedSimpleTypeBuilder(d Deps) *TopLevelEntityBuilder {
	shared := func(kind model.Kind, short bool) entityFactory {
		return func() model.Entity {
			e := model.NewSharedSimpleType(kind)
			e.IsShort = short
			return e
		}
	}
	return newTopLevelEntityBuilder("SharedSimpleTypeBuilder", d, map[dsl.Rule]entityFactory{
		dsl.RuleSharedDecimal: shared(model.KindSharedDecimal, false),
		dsl.RuleSharedInteger: shared(model.KindSharedInteger, false),
		dsl.RuleSharedShort:   shared(model.KindSharedInteger, true),
		dsl.RuleSharedString:  shared(model.KindSharedString, false),
	})
}

// EntityBuilders: по одному построителю на семейство, в порядке регистрации.
func EntityBuilders(d Deps) []*TopLevelEntityBuilder {
	return []*TopLevelEntityBuilder{
		NewDomainEntityBuilder(d),
		NewAssociationBuilder(d),
		NewChoiceBuilder(d),
		NewCommonBuilder(d),
		NewDescriptorBuilder(d),
		NewEnumerationBuilder(d),
		NewInterchangeBuilder(d),
		NewDomainBuilder(d),
		NewSharedSimpleTypeBuilder(d),
	}
}
