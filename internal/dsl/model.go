package dsl

import "fmt"

// Rule: вид узла дерева разбора, о котором сообщает событие.
type Rule string

const (
	RuleNamespace     Rule = "namespace"
	RuleNamespaceName Rule = "namespaceName"
	RuleNamespaceType Rule = "namespaceType"

	// сущности верхнего уровня
	RuleAbstractEntity        Rule = "abstractEntity"
	RuleDomainEntity          Rule = "domainEntity"
	RuleDomainEntityExtension Rule = "domainEntityExtension"
	RuleDomainEntitySubclass  Rule = "domainEntitySubclass"
	RuleAssociation           Rule = "association"
	RuleAssociationExtension  Rule = "associationExtension"
	RuleAssociationSubclass   Rule = "associationSubclass"
	RuleChoice                Rule = "choice"
	RuleCommon                Rule = "common"
	RuleInlineCommon          Rule = "inlineCommon"
	RuleCommonExtension       Rule = "commonExtension"
	RuleCommonSubclass        Rule = "commonSubclass"
	RuleDescriptor            Rule = "descriptor"
	RuleEnumeration           Rule = "enumeration"
	RuleInterchange           Rule = "interchange"
	RuleInterchangeExtension  Rule = "interchangeExtension"
	RuleDomain                Rule = "domain"
	RuleSubdomain             Rule = "subdomain"
	RuleSharedDecimal         Rule = "sharedDecimal"
	RuleSharedInteger         Rule = "sharedInteger"
	RuleSharedShort           Rule = "sharedShort"
	RuleSharedString          Rule = "sharedString"

	// части сущности
	RuleEntityName                   Rule = "entityName"
	RuleExtendeeName                 Rule = "extendeeName"
	RuleBaseName                     Rule = "baseName"
	RuleMetaEdID                     Rule = "metaEdId"
	RuleDocumentation                Rule = "documentation"
	RuleDeprecated                   Rule = "deprecated"
	RuleCascadeUpdate                Rule = "cascadeUpdate"
	RuleExtendedDocumentation        Rule = "extendedDocumentation"
	RuleUseCaseDocumentation         Rule = "useCaseDocumentation"
	RuleFooterDocumentation          Rule = "footerDocumentation"
	RuleParentDomainName             Rule = "parentDomainName"
	RuleSubdomainPosition            Rule = "subdomainPosition"
	RuleDomainItem                   Rule = "domainItem"
	RuleInterchangeElement           Rule = "interchangeElement"
	RuleInterchangeIdentity          Rule = "interchangeIdentity"
	RuleItemName                     Rule = "localItemName"
	RuleEnumerationItem              Rule = "enumerationItem"
	RuleShortDescription             Rule = "shortDescription"
	RuleEnumerationItemDocumentation Rule = "enumerationItemDocumentation"
	RuleWithMapType                  Rule = "withMapType"
	RuleRequiredMapType              Rule = "requiredMapType"
	RuleOptionalMapType              Rule = "optionalMapType"
	RuleMapTypeDocumentation         Rule = "mapTypeDocumentation"

	// свойства
	RuleProperty                Rule = "property"
	RuleBooleanProperty         Rule = "booleanProperty"
	RuleCurrencyProperty        Rule = "currencyProperty"
	RuleDateProperty            Rule = "dateProperty"
	RuleDatetimeProperty        Rule = "datetimeProperty"
	RuleDecimalProperty         Rule = "decimalProperty"
	RuleDescriptorProperty      Rule = "descriptorProperty"
	RuleDurationProperty        Rule = "durationProperty"
	RuleEnumerationProperty     Rule = "enumerationProperty"
	RuleCommonProperty          Rule = "commonProperty"
	RuleInlineCommonProperty    Rule = "inlineCommonProperty"
	RuleChoiceProperty          Rule = "choiceProperty"
	RuleCommonExtensionOverride Rule = "commonExtensionOverride"
	RuleIntegerProperty         Rule = "integerProperty"
	RuleShortProperty           Rule = "shortProperty"
	RulePercentProperty         Rule = "percentProperty"
	RuleAssociationProperty     Rule = "associationProperty"
	RuleDomainEntityProperty    Rule = "domainEntityProperty"
	RuleDefiningDomainEntity    Rule = "definingDomainEntity"
	RuleSharedDecimalProperty   Rule = "sharedDecimalProperty"
	RuleSharedIntegerProperty   Rule = "sharedIntegerProperty"
	RuleSharedShortProperty     Rule = "sharedShortProperty"
	RuleSharedStringProperty    Rule = "sharedStringProperty"
	RuleStringProperty          Rule = "stringProperty"
	RuleTimeProperty            Rule = "timeProperty"
	RuleYearProperty            Rule = "yearProperty"

	// части свойства
	RulePropertyName           Rule = "propertyName"
	RuleSharedPropertyType     Rule = "sharedPropertyType"
	RuleSharedPropertyName     Rule = "sharedPropertyName"
	RulePropertyDocumentation  Rule = "propertyDocumentation"
	RuleDocumentationInherited Rule = "documentationInherited"
	RulePropertyDeprecated     Rule = "propertyDeprecated"
	RuleIdentity               Rule = "identity"
	RuleIdentityRename         Rule = "identityRename"
	RuleBaseKeyName            Rule = "baseKeyName"
	RuleRequired               Rule = "required"
	RuleOptional               Rule = "optional"
	RuleRequiredCollection     Rule = "requiredCollection"
	RuleOptionalCollection     Rule = "optionalCollection"
	RuleIsQueryableField       Rule = "isQueryableField"
	RuleIsQueryableOnly        Rule = "isQueryableOnly"
	RuleRoleName               Rule = "roleName"
	RuleRoleNameName           Rule = "roleNameName"
	RuleShortenToName          Rule = "shortenToName"
	RuleIsWeakReference        Rule = "isWeakReference"
	RulePotentiallyLogical     Rule = "potentiallyLogical"
	RuleMinLength              Rule = "minLength"
	RuleMaxLength              Rule = "maxLength"
	RuleTotalDigits            Rule = "totalDigits"
	RuleDecimalPlaces          Rule = "decimalPlaces"
	RuleMinValue               Rule = "minValue"
	RuleMaxValue               Rule = "maxValue"
	RuleMergeDirective         Rule = "mergeDirective"
	RuleSourcePropertyPath     Rule = "sourcePropertyPath"
	RuleTargetPropertyPath     Rule = "targetPropertyPath"
)

// BigValue: текст токена min/max value, когда граница не помещается в тип.
const BigValue = "big"

// Token: позиция и точный текст узла. Line с 1, Column с 0.
type Token struct {
	File   string
	Line   int
	Column int
	Text   string
}

func (t Token) String() string {
	if t.File == "" {
		return fmt.Sprintf("%d:%d %q", t.Line, t.Column, t.Text)
	}
	return fmt.Sprintf("%s:%d:%d %q", t.File, t.Line, t.Column, t.Text)
}

// Listener получает события обхода в порядке документа.
type Listener interface {
	Enter(rule Rule, tok Token)
	Exit(rule Rule, tok Token)
}

// Dispatcher раздаёт каждое событие всем слушателям в порядке регистрации.
type Dispatcher struct {
	listeners []Listener
}

func NewDispatcher(ls ...Listener) *Dispatcher {
	d := &Dispatcher{}
	for _, l := range ls {
		d.Add(l)
	}
	return d
}

func (d *Dispatcher) Add(l Listener) {
	if l != nil {
		d.listeners = append(d.listeners, l)
	}
}

func (d *Dispatcher) Len() int { return len(d.listeners) }

func (d *Dispatcher) Enter(rule Rule, tok Token) {
	for _, l := range d.listeners {
		l.Enter(rule, tok)
	}
}

func (d *Dispatcher) Exit(rule Rule, tok Token) {
	for _, l := range d.listeners {
		l.Exit(rule, tok)
	}
}

// Event: записанное событие обхода.
type Event struct {
	Exit  bool
	Rule  Rule
	Token Token
}

// Recorder копит события, чтобы потом проиграть их через Replay.
type Recorder struct {
	Events []Event
}

func (r *Recorder) Enter(rule Rule, tok Token) {
	r.Events = append(r.Events, Event{Rule: rule, Token: tok})
}

func (r *Recorder) Exit(rule Rule, tok Token) {
	r.Events = append(r.Events, Event{Exit: true, Rule: rule, Token: tok})
}

// Replay отдаёт события слушателю в исходном порядке.
func Replay(events []Event, l Listener) {
	for _, e := range events {
		if e.Exit {
			l.Exit(e.Rule, e.Token)
		} else {
			l.Enter(e.Rule, e.Token)
		}
	}
}
