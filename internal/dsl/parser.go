package dsl

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
)

var (
	namespaceBeginRe = regexp.MustCompile(`^Begin Namespace\s+([A-Za-z]\w*)(?:\s+([A-Za-z]\w*))?$`)
	namespaceEndRe   = regexp.MustCompile(`^End Namespace$`)
	entityRe         = regexp.MustCompile(`^(Abstract Entity|Domain Entity|Association|Choice|Inline Common|Common|Descriptor|Enumeration|Interchange|Subdomain|Domain|Shared Decimal|Shared Integer|Shared Short|Shared String)\s+([A-Za-z][\w.]*)(?:\s+(based on)\s+([A-Za-z][\w.]*)|\s+(additions)|\s+of\s+([A-Za-z]\w*))?(?:\s+(\[\d+\]))?$`)
	docRe            = regexp.MustCompile(`^(documentation|extended documentation|use case documentation|footer documentation)(?:\s+(.*))?$`)
	deprecatedRe     = regexp.MustCompile(`^deprecated\s+"(.*)"$`)
	propertyRe       = regexp.MustCompile(`^(bool|currency|datetime|date|decimal|descriptor|duration|enumeration|integer|short|percent|string|time|year|association|domain entity|common extension|inline common|common|choice)\s+([A-Za-z][\w.]*)(?:\s+(\[\d+\]))?$`)
	sharedPropertyRe = regexp.MustCompile(`^shared\s+(decimal|integer|short|string)\s+([A-Za-z][\w.]*)(?:\s+named\s+([A-Za-z]\w*))?(?:\s+(\[\d+\]))?$`)
	interchangeRe    = regexp.MustCompile(`^(domain entity|association|descriptor)(\s+identity)?\s+([A-Za-z][\w.]*)(?:\s+(\[\d+\]))?$`)
	domainItemRe     = regexp.MustCompile(`^(domain entity|association|inline common|common|descriptor)\s+([A-Za-z][\w.]*)(?:\s+(\[\d+\]))?$`)
	itemRe           = regexp.MustCompile(`^item\s+"([^"]*)"(?:\s+(\[\d+\]))?$`)
	mapTypeRe        = regexp.MustCompile(`^with\s+(optional\s+)?map type$`)
	positionRe       = regexp.MustCompile(`^position\s+(\d+)$`)
	restrictionRe    = regexp.MustCompile(`^(min length|max length|total digits|decimal places|min value|max value)\s+(-?\d+(?:\.\d+)?|big)$`)
	renameRe         = regexp.MustCompile(`^renames identity property\s+([A-Za-z]\w*)$`)
	roleNameRe       = regexp.MustCompile(`^role name\s+([A-Za-z]\w*)(?:\s+shorten to\s+([A-Za-z]\w*))?$`)
	mergeRe          = regexp.MustCompile(`^merge\s+([A-Za-z][\w.]*)\s+with\s+([A-Za-z][\w.]*)$`)
)

var entityRules = map[string][3]Rule{
	// обычная, subclass, extension
	"Abstract Entity": {RuleAbstractEntity, "", ""},
	"Domain Entity":   {RuleDomainEntity, RuleDomainEntitySubclass, RuleDomainEntityExtension},
	"Association":     {RuleAssociation, RuleAssociationSubclass, RuleAssociationExtension},
	"Choice":          {RuleChoice, "", ""},
	"Inline Common":   {RuleInlineCommon, "", ""},
	"Common":          {RuleCommon, RuleCommonSubclass, RuleCommonExtension},
	"Descriptor":      {RuleDescriptor, "", ""},
	"Enumeration":     {RuleEnumeration, "", ""},
	"Interchange":     {RuleInterchange, "", RuleInterchangeExtension},
	"Domain":          {RuleDomain, "", ""},
	"Subdomain":       {RuleSubdomain, "", ""},
	"Shared Decimal":  {RuleSharedDecimal, "", ""},
	"Shared Integer":  {RuleSharedInteger, "", ""},
	"Shared Short":    {RuleSharedShort, "", ""},
	"Shared String":   {RuleSharedString, "", ""},
}

var propertyRules = map[string]Rule{
	"bool":             RuleBooleanProperty,
	"currency":         RuleCurrencyProperty,
	"date":             RuleDateProperty,
	"datetime":         RuleDatetimeProperty,
	"decimal":          RuleDecimalProperty,
	"descriptor":       RuleDescriptorProperty,
	"duration":         RuleDurationProperty,
	"enumeration":      RuleEnumerationProperty,
	"integer":          RuleIntegerProperty,
	"short":            RuleShortProperty,
	"percent":          RulePercentProperty,
	"string":           RuleStringProperty,
	"time":             RuleTimeProperty,
	"year":             RuleYearProperty,
	"association":      RuleAssociationProperty,
	"domain entity":    RuleDomainEntityProperty,
	"common extension": RuleCommonExtensionOverride,
	"inline common":    RuleInlineCommonProperty,
	"common":           RuleCommonProperty,
	"choice":           RuleChoiceProperty,
}

var sharedPropertyRules = map[string]Rule{
	"decimal": RuleSharedDecimalProperty,
	"integer": RuleSharedIntegerProperty,
	"short":   RuleSharedShortProperty,
	"string":  RuleSharedStringProperty,
}

var restrictionRules = map[string]Rule{
	"min length":     RuleMinLength,
	"max length":     RuleMaxLength,
	"total digits":   RuleTotalDigits,
	"decimal places": RuleDecimalPlaces,
	"min value":      RuleMinValue,
	"max value":      RuleMaxValue,
}

// простые однострочные модификаторы свойства
var flagRules = map[string]Rule{
	"is part of identity":    RuleIdentity,
	"is required":            RuleRequired,
	"is optional":            RuleOptional,
	"is required collection": RuleRequiredCollection,
	"is optional collection": RuleOptionalCollection,
	"is queryable field":     RuleIsQueryableField,
	"is queryable only":      RuleIsQueryableOnly,
	"is weak":                RuleIsWeakReference,
	"potentially logical":    RulePotentiallyLogical,
}

// SyntaxError: строка, которую сканер не смог разобрать.
type SyntaxError struct {
	File   string
	Line   int
	Column int
	Text   string
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s: %q", e.File, e.Line, e.Column, e.Msg, e.Text)
}

type pendingDoc struct {
	rule  Rule
	tok   Token
	lines []string
}

type parser struct {
	file   string
	l      Listener
	raw    string
	line   int
	indent int

	inNamespace bool
	nsTok       Token

	entity    Rule
	entityTok Token
	props     int

	property Rule
	propTok  Token

	item    bool
	itemTok Token

	mapType    bool
	mapTypeTok Token

	doc  *pendingDoc
	errs []error
}

// Parse читает исходник MetaEd построчно и отдаёт события слушателю.
// Нераспознанные строки пропускаются и возвращаются как *SyntaxError.
func Parse(file string, r io.Reader, l Listener) error {
	p := &parser{file: file, l: l}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		p.line++
		p.handle(scanner.Text())
	}
	p.closeNamespace()

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read %s: %w", file, err)
	}
	return errors.Join(p.errs...)
}

// ParseString: то же, что Parse, для текста в памяти.
func ParseString(file, text string, l Listener) error {
	return Parse(file, strings.NewReader(text), l)
}

func (p *parser) handle(raw string) {
	line := strings.TrimSpace(raw)
	if line == "" || strings.HasPrefix(line, "//") {
		return
	}
	p.raw = raw
	p.indent = strings.Index(raw, line)

	// продолжение документации
	if p.doc != nil {
		if strings.HasPrefix(line, `"`) {
			p.doc.lines = append(p.doc.lines, unquote(line))
			return
		}
		if line == "inherited" && p.doc.rule == RulePropertyDocumentation {
			p.doc = nil
			p.emit(RuleDocumentationInherited, p.at(0, line))
			return
		}
		p.closeDoc()
	}

	if m := p.match(namespaceBeginRe, line); m != nil {
		p.closeNamespace()
		p.inNamespace = true
		p.nsTok = p.at(0, line)
		p.l.Enter(RuleNamespace, p.nsTok)
		p.emit(RuleNamespaceName, m.tok(1))
		typ := m.tok(2)
		if !m.ok(2) {
			typ = Token{File: p.file, Line: p.line, Column: p.indent + len(line), Text: "core"}
		}
		p.emit(RuleNamespaceType, typ)
		return
	}
	if namespaceEndRe.MatchString(line) {
		p.closeNamespace()
		return
	}
	if m := p.match(entityRe, line); m != nil {
		p.openEntity(m, line)
		return
	}
	if p.entity == "" {
		p.errorf(line, "statement outside of an entity")
		return
	}

	if m := p.match(docRe, line); m != nil {
		p.openDoc(m, line)
		return
	}
	if m := p.match(deprecatedRe, line); m != nil {
		rule := RuleDeprecated
		if p.property != "" {
			rule = RulePropertyDeprecated
		}
		tok := m.tok(1)
		p.emit(rule, tok)
		return
	}

	switch p.entity {
	case RuleInterchange, RuleInterchangeExtension:
		if m := p.match(interchangeRe, line); m != nil {
			rule := RuleInterchangeElement
			if m.ok(2) {
				rule = RuleInterchangeIdentity
			}
			p.emitItem(rule, m.tok(1), m.tok(3), m, 4)
			return
		}
	case RuleDomain, RuleSubdomain:
		if m := p.match(domainItemRe, line); m != nil {
			p.emitItem(RuleDomainItem, m.tok(1), m.tok(2), m, 3)
			return
		}
		if m := p.match(positionRe, line); m != nil && p.entity == RuleSubdomain {
			p.emit(RuleSubdomainPosition, m.tok(1))
			return
		}
	case RuleEnumeration, RuleDescriptor:
		if m := p.match(itemRe, line); m != nil && (p.entity == RuleEnumeration || p.mapType) {
			p.openItem(m, line)
			return
		}
		if m := p.match(mapTypeRe, line); m != nil && p.entity == RuleDescriptor {
			p.closeProperty()
			p.closeMapType()
			p.mapType = true
			p.mapTypeTok = p.at(0, line)
			p.l.Enter(RuleWithMapType, p.mapTypeTok)
			if m.ok(1) {
				p.emit(RuleOptionalMapType, p.mapTypeTok)
			} else {
				p.emit(RuleRequiredMapType, p.mapTypeTok)
			}
			return
		}
	}

	if line == "allow primary key updates" {
		p.closeProperty()
		p.emit(RuleCascadeUpdate, p.at(0, line))
		return
	}
	if m := p.match(propertyRe, line); m != nil {
		p.openProperty(m, line)
		return
	}
	if m := p.match(sharedPropertyRe, line); m != nil {
		p.openSharedProperty(m, line)
		return
	}
	if m := p.match(restrictionRe, line); m != nil {
		if p.property == "" && !isSharedSimple(p.entity) {
			p.errorf(line, "restriction outside of a property")
			return
		}
		p.emit(restrictionRules[m.text(1)], m.tok(2))
		return
	}
	if p.property == "" {
		p.errorf(line, "unexpected statement")
		return
	}
	p.propertyModifier(line)
}

func (p *parser) propertyModifier(line string) {
	if rule, ok := flagRules[line]; ok {
		p.emit(rule, p.at(0, line))
		return
	}
	if m := p.match(renameRe, line); m != nil {
		tok := p.at(0, line)
		p.l.Enter(RuleIdentityRename, tok)
		p.emit(RuleBaseKeyName, m.tok(1))
		p.l.Exit(RuleIdentityRename, tok)
		return
	}
	if m := p.match(roleNameRe, line); m != nil {
		tok := p.at(0, line)
		p.l.Enter(RuleRoleName, tok)
		p.emit(RuleRoleNameName, m.tok(1))
		if m.ok(2) {
			p.emit(RuleShortenToName, m.tok(2))
		}
		p.l.Exit(RuleRoleName, tok)
		return
	}
	if m := p.match(mergeRe, line); m != nil {
		tok := p.at(0, line)
		p.l.Enter(RuleMergeDirective, tok)
		p.emit(RuleSourcePropertyPath, m.tok(1))
		p.emit(RuleTargetPropertyPath, m.tok(2))
		p.l.Exit(RuleMergeDirective, tok)
		return
	}
	p.errorf(line, "unexpected property statement")
}

func (p *parser) openEntity(m *match, line string) {
	p.closeEntity()

	rules := entityRules[m.text(1)]
	subclass, extension, parent := m.ok(3), m.ok(5), m.ok(6)
	rule := rules[0]
	switch {
	case subclass:
		rule = rules[1]
	case extension:
		rule = rules[2]
	}
	if rule == "" || parent != (rule == RuleSubdomain) {
		p.errorf(line, "unsupported entity declaration")
		return
	}

	p.entity = rule
	p.entityTok = p.at(0, line)
	p.props = 0
	p.l.Enter(rule, p.entityTok)

	if extension {
		p.emit(RuleExtendeeName, m.tok(2))
	} else {
		p.emit(RuleEntityName, m.tok(2))
	}
	if subclass {
		p.emit(RuleBaseName, m.tok(4))
	}
	if parent {
		p.emit(RuleParentDomainName, m.tok(6))
	}
	if m.ok(7) {
		p.emit(RuleMetaEdID, m.tok(7))
	}
}

func (p *parser) openProperty(m *match, line string) {
	p.closeProperty()
	p.props++

	rule := propertyRules[m.text(1)]
	// первые два domain entity в Association задают саму связь
	if rule == RuleDomainEntityProperty && p.entity == RuleAssociation && p.props <= 2 {
		rule = RuleDefiningDomainEntity
	}

	p.property = rule
	p.propTok = p.at(0, line)
	p.l.Enter(RuleProperty, p.propTok)
	p.l.Enter(rule, p.propTok)
	p.emit(RulePropertyName, m.tok(2))
	if m.ok(3) {
		p.emit(RuleMetaEdID, m.tok(3))
	}
}

func (p *parser) openSharedProperty(m *match, line string) {
	p.closeProperty()
	p.props++

	rule := sharedPropertyRules[m.text(1)]
	p.property = rule
	p.propTok = p.at(0, line)
	p.l.Enter(RuleProperty, p.propTok)
	p.l.Enter(rule, p.propTok)
	p.emit(RuleSharedPropertyType, m.tok(2))
	if m.ok(3) {
		p.emit(RuleSharedPropertyName, m.tok(3))
	}
	if m.ok(4) {
		p.emit(RuleMetaEdID, m.tok(4))
	}
}

func (p *parser) openItem(m *match, line string) {
	p.closeItem()
	p.item = true
	p.itemTok = p.at(0, line)
	p.l.Enter(RuleEnumerationItem, p.itemTok)
	p.emit(RuleShortDescription, m.tok(1))
	if m.ok(2) {
		p.emit(RuleMetaEdID, m.tok(2))
	}
}

func (p *parser) openDoc(m *match, line string) {
	var rule Rule
	switch m.text(1) {
	case "extended documentation":
		p.closeProperty()
		rule = RuleExtendedDocumentation
	case "use case documentation":
		p.closeProperty()
		rule = RuleUseCaseDocumentation
	case "footer documentation":
		p.closeProperty()
		rule = RuleFooterDocumentation
	default:
		switch {
		case p.property != "":
			rule = RulePropertyDocumentation
		case p.item:
			rule = RuleEnumerationItemDocumentation
		case p.mapType:
			rule = RuleMapTypeDocumentation
		default:
			rule = RuleDocumentation
		}
	}

	p.doc = &pendingDoc{rule: rule, tok: p.at(0, line)}
	if !m.ok(2) {
		return
	}
	rest := m.text(2)
	switch {
	case rest == "inherited" && rule == RulePropertyDocumentation:
		p.doc = nil
		p.emit(RuleDocumentationInherited, m.tok(2))
	case strings.HasPrefix(rest, `"`):
		p.doc.lines = append(p.doc.lines, unquote(rest))
	default:
		p.doc = nil
		p.errorf(line, "documentation must be quoted")
	}
}

func (p *parser) emitItem(rule Rule, kind, name Token, m *match, idGroup int) {
	p.closeProperty()
	p.l.Enter(rule, kind)
	p.emit(RuleItemName, name)
	if m.ok(idGroup) {
		p.emit(RuleMetaEdID, m.tok(idGroup))
	}
	p.l.Exit(rule, kind)
}

func (p *parser) emit(rule Rule, tok Token) {
	p.l.Enter(rule, tok)
	p.l.Exit(rule, tok)
}

// ---- закрытие открытых узлов ----

func (p *parser) closeDoc() {
	if p.doc == nil {
		return
	}
	d := p.doc
	p.doc = nil
	tok := d.tok
	tok.Text = strings.Join(d.lines, " ")
	p.emit(d.rule, tok)
}

func (p *parser) closeProperty() {
	p.closeDoc()
	if p.property == "" {
		return
	}
	p.l.Exit(p.property, p.propTok)
	p.l.Exit(RuleProperty, p.propTok)
	p.property = ""
}

func (p *parser) closeItem() {
	p.closeDoc()
	if !p.item {
		return
	}
	p.l.Exit(RuleEnumerationItem, p.itemTok)
	p.item = false
}

func (p *parser) closeMapType() {
	p.closeItem()
	if !p.mapType {
		return
	}
	p.l.Exit(RuleWithMapType, p.mapTypeTok)
	p.mapType = false
}

func (p *parser) closeEntity() {
	p.closeProperty()
	p.closeMapType()
	if p.entity == "" {
		return
	}
	p.l.Exit(p.entity, p.entityTok)
	p.entity = ""
}

func (p *parser) closeNamespace() {
	p.closeEntity()
	if !p.inNamespace {
		return
	}
	p.l.Exit(RuleNamespace, p.nsTok)
	p.inNamespace = false
}

// ---- позиции ----

// at возвращает токен для text, начинающегося со смещения off в обрезанной строке.
func (p *parser) at(off int, text string) Token {
	return Token{File: p.file, Line: p.line, Column: p.indent + off, Text: text}
}

func (p *parser) errorf(line, msg string) {
	p.errs = append(p.errs, &SyntaxError{File: p.file, Line: p.line, Column: p.indent, Text: line, Msg: msg})
}

type match struct {
	p    *parser
	line string
	idx  []int
}

func (p *parser) match(re *regexp.Regexp, line string) *match {
	idx := re.FindStringSubmatchIndex(line)
	if idx == nil {
		return nil
	}
	return &match{p: p, line: line, idx: idx}
}

func (m *match) ok(i int) bool {
	return 2*i+1 < len(m.idx) && m.idx[2*i] >= 0
}

func (m *match) text(i int) string {
	if !m.ok(i) {
		return ""
	}
	return m.line[m.idx[2*i]:m.idx[2*i+1]]
}

func (m *match) tok(i int) Token {
	if !m.ok(i) {
		return m.p.at(0, "")
	}
	return m.p.at(m.idx[2*i], m.text(i))
}

func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return strings.Trim(s, `"`)
}

func isSharedSimple(r Rule) bool {
	switch r {
	case RuleSharedDecimal, RuleSharedInteger, RuleSharedShort, RuleSharedString:
		return true
	}
	return false
}
