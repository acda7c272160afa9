package dsl

import (
	"fmt"
	"strings"
)

// TextBuilder собирает исходник MetaEd по шагам. Используется в тестах и примерах.
//
//	src := dsl.NewTextBuilder().
//		BeginNamespace("EdFi", "").
//		StartDomainEntity("Student").
//		WithDocumentation("doc").
//		WithProperty("integer", "Age").WithRequired().EndProperty().
//		EndEntity().
//		EndNamespace().
//		String()
type TextBuilder struct {
	lines  []string
	indent int
}

func NewTextBuilder() *TextBuilder { return &TextBuilder{} }

func (b *TextBuilder) add(line string) *TextBuilder {
	b.lines = append(b.lines, strings.Repeat("  ", b.indent)+line)
	return b
}

// WithLine добавляет произвольную строку на текущем уровне отступа.
func (b *TextBuilder) WithLine(line string) *TextBuilder { return b.add(line) }

func (b *TextBuilder) WithComment(text string) *TextBuilder { return b.add("//" + text) }

func (b *TextBuilder) WithBlankLine() *TextBuilder {
	b.lines = append(b.lines, "")
	return b
}

// LineCount: число строк на данный момент; номер следующей строки = LineCount()+1.
func (b *TextBuilder) LineCount() int { return len(b.lines) }

func (b *TextBuilder) String() string { return strings.Join(b.lines, "\n") + "\n" }

// SendTo разбирает собранный текст и отдаёт события слушателю.
func (b *TextBuilder) SendTo(file string, l Listener) error {
	return ParseString(file, b.String(), l)
}

// ---- namespace ----

// BeginNamespace открывает блок; пустой projectExtension означает core.
func (b *TextBuilder) BeginNamespace(name, projectExtension string) *TextBuilder {
	if projectExtension == "" {
		projectExtension = "core"
	}
	b.add(fmt.Sprintf("Begin Namespace %s %s", name, projectExtension))
	b.indent++
	return b
}

func (b *TextBuilder) EndNamespace() *TextBuilder {
	b.indent--
	return b.add("End Namespace")
}

// ---- сущности ----

func (b *TextBuilder) startTopLevel(line string) *TextBuilder {
	b.add(line)
	b.indent++
	return b
}

func (b *TextBuilder) StartTopLevel(keyword, name string) *TextBuilder {
	return b.startTopLevel(keyword + " " + name)
}

func (b *TextBuilder) StartTopLevelSubclass(keyword, name, base string) *TextBuilder {
	return b.startTopLevel(fmt.Sprintf("%s %s based on %s", keyword, name, base))
}

func (b *TextBuilder) StartTopLevelExtension(keyword, name string) *TextBuilder {
	return b.startTopLevel(fmt.Sprintf("%s %s additions", keyword, name))
}

func (b *TextBuilder) StartAbstractEntity(name string) *TextBuilder {
	return b.StartTopLevel("Abstract Entity", name)
}
func (b *TextBuilder) StartDomainEntity(name string) *TextBuilder {
	return b.StartTopLevel("Domain Entity", name)
}
func (b *TextBuilder) StartDomainEntityExtension(name string) *TextBuilder {
	return b.StartTopLevelExtension("Domain Entity", name)
}
func (b *TextBuilder) StartDomainEntitySubclass(name, base string) *TextBuilder {
	return b.StartTopLevelSubclass("Domain Entity", name, base)
}
func (b *TextBuilder) StartAssociation(name string) *TextBuilder {
	return b.StartTopLevel("Association", name)
}
func (b *TextBuilder) StartAssociationExtension(name string) *TextBuilder {
	return b.StartTopLevelExtension("Association", name)
}
func (b *TextBuilder) StartAssociationSubclass(name, base string) *TextBuilder {
	return b.StartTopLevelSubclass("Association", name, base)
}
func (b *TextBuilder) StartChoice(name string) *TextBuilder { return b.StartTopLevel("Choice", name) }
func (b *TextBuilder) StartCommon(name string) *TextBuilder { return b.StartTopLevel("Common", name) }
func (b *TextBuilder) StartInlineCommon(name string) *TextBuilder {
	return b.StartTopLevel("Inline Common", name)
}
func (b *TextBuilder) StartCommonExtension(name string) *TextBuilder {
	return b.StartTopLevelExtension("Common", name)
}
func (b *TextBuilder) StartCommonSubclass(name, base string) *TextBuilder {
	return b.StartTopLevelSubclass("Common", name, base)
}
func (b *TextBuilder) StartDescriptor(name string) *TextBuilder {
	return b.StartTopLevel("Descriptor", name)
}
func (b *TextBuilder) StartEnumeration(name string) *TextBuilder {
	return b.StartTopLevel("Enumeration", name)
}
func (b *TextBuilder) StartInterchange(name string) *TextBuilder {
	return b.StartTopLevel("Interchange", name)
}
func (b *TextBuilder) StartInterchangeExtension(name string) *TextBuilder {
	return b.StartTopLevelExtension("Interchange", name)
}
func (b *TextBuilder) StartDomain(name string) *TextBuilder { return b.StartTopLevel("Domain", name) }
func (b *TextBuilder) StartSubdomain(name, parent string) *TextBuilder {
	return b.startTopLevel(fmt.Sprintf("Subdomain %s of %s", name, parent))
}
func (b *TextBuilder) StartSharedDecimal(name string) *TextBuilder {
	return b.StartTopLevel("Shared Decimal", name)
}
func (b *TextBuilder) StartSharedInteger(name string) *TextBuilder {
	return b.StartTopLevel("Shared Integer", name)
}
func (b *TextBuilder) StartSharedShort(name string) *TextBuilder {
	return b.StartTopLevel("Shared Short", name)
}
func (b *TextBuilder) StartSharedString(name string) *TextBuilder {
	return b.StartTopLevel("Shared String", name)
}

func (b *TextBuilder) EndEntity() *TextBuilder {
	b.indent--
	return b
}

// WithMetaEdID дописывает [id] к последней строке.
func (b *TextBuilder) WithMetaEdID(id string) *TextBuilder {
	if len(b.lines) > 0 && id != "" {
		b.lines[len(b.lines)-1] += " [" + id + "]"
	}
	return b
}

func (b *TextBuilder) withDocLines(keyword, doc string) *TextBuilder {
	b.add(keyword)
	if doc == "inherited" {
		return b.add(doc)
	}
	return b.add(`"` + doc + `"`)
}

func (b *TextBuilder) WithDocumentation(doc string) *TextBuilder {
	return b.withDocLines("documentation", doc)
}
func (b *TextBuilder) WithInheritedDocumentation() *TextBuilder {
	return b.withDocLines("documentation", "inherited")
}
func (b *TextBuilder) WithExtendedDocumentation(doc string) *TextBuilder {
	return b.withDocLines("extended documentation", doc)
}
func (b *TextBuilder) WithUseCaseDocumentation(doc string) *TextBuilder {
	return b.withDocLines("use case documentation", doc)
}
func (b *TextBuilder) WithFooterDocumentation(doc string) *TextBuilder {
	return b.withDocLines("footer documentation", doc)
}
func (b *TextBuilder) WithDeprecated(reason string) *TextBuilder {
	return b.add(`deprecated "` + reason + `"`)
}
func (b *TextBuilder) WithCascadeUpdate() *TextBuilder { return b.add("allow primary key updates") }

// ---- элементы interchange / domain / enumeration ----

func (b *TextBuilder) WithDomainEntityElement(name string) *TextBuilder {
	return b.add("domain entity " + name)
}
func (b *TextBuilder) WithAssociationElement(name string) *TextBuilder {
	return b.add("association " + name)
}
func (b *TextBuilder) WithDescriptorElement(name string) *TextBuilder {
	return b.add("descriptor " + name)
}
func (b *TextBuilder) WithDomainEntityIdentityTemplate(name string) *TextBuilder {
	return b.add("domain entity identity " + name)
}
func (b *TextBuilder) WithAssociationIdentityTemplate(name string) *TextBuilder {
	return b.add("association identity " + name)
}

// WithDomainItem: kind: "domain entity", "association", "common", "inline common", "descriptor".
func (b *TextBuilder) WithDomainItem(kind, name string) *TextBuilder {
	return b.add(kind + " " + name)
}
func (b *TextBuilder) WithSubdomainPosition(n int) *TextBuilder {
	return b.add(fmt.Sprintf("position %d", n))
}

func (b *TextBuilder) WithEnumerationItem(shortDescription string) *TextBuilder {
	return b.add(`item "` + shortDescription + `"`)
}

func (b *TextBuilder) StartMapType(required bool) *TextBuilder {
	if required {
		b.add("with map type")
	} else {
		b.add("with optional map type")
	}
	b.indent++
	return b
}

func (b *TextBuilder) EndMapType() *TextBuilder {
	b.indent--
	return b
}

// ---- свойства ----

// WithProperty открывает свойство: typ: "integer", "domain entity", "bool" и т.п.
func (b *TextBuilder) WithProperty(typ, name string) *TextBuilder {
	b.add(typ + " " + name)
	b.indent++
	return b
}

// WithSharedProperty: typ: "decimal", "integer", "short", "string"; named может быть пустым.
func (b *TextBuilder) WithSharedProperty(typ, sharedType, named string) *TextBuilder {
	line := fmt.Sprintf("shared %s %s", typ, sharedType)
	if named != "" {
		line += " named " + named
	}
	b.add(line)
	b.indent++
	return b
}

func (b *TextBuilder) EndProperty() *TextBuilder {
	b.indent--
	return b
}

func (b *TextBuilder) WithIdentity() *TextBuilder { return b.add("is part of identity") }
func (b *TextBuilder) WithIdentityRename(baseKey string) *TextBuilder {
	return b.add("renames identity property " + baseKey)
}
func (b *TextBuilder) WithRequired() *TextBuilder           { return b.add("is required") }
func (b *TextBuilder) WithOptional() *TextBuilder           { return b.add("is optional") }
func (b *TextBuilder) WithRequiredCollection() *TextBuilder { return b.add("is required collection") }
func (b *TextBuilder) WithOptionalCollection() *TextBuilder { return b.add("is optional collection") }
func (b *TextBuilder) WithQueryableField() *TextBuilder     { return b.add("is queryable field") }
func (b *TextBuilder) WithQueryableOnly() *TextBuilder      { return b.add("is queryable only") }
func (b *TextBuilder) WithWeak() *TextBuilder               { return b.add("is weak") }
func (b *TextBuilder) WithPotentiallyLogical() *TextBuilder { return b.add("potentially logical") }

// WithRoleName добавляет role name; shortenTo может быть пустым.
func (b *TextBuilder) WithRoleName(context, shortenTo string) *TextBuilder {
	if shortenTo == "" {
		return b.add("role name " + context)
	}
	return b.add(fmt.Sprintf("role name %s shorten to %s", context, shortenTo))
}

func (b *TextBuilder) WithMergeDirective(source, target string) *TextBuilder {
	return b.add(fmt.Sprintf("merge %s with %s", source, target))
}

func (b *TextBuilder) WithMinLength(v string) *TextBuilder     { return b.add("min length " + v) }
func (b *TextBuilder) WithMaxLength(v string) *TextBuilder     { return b.add("max length " + v) }
func (b *TextBuilder) WithTotalDigits(v string) *TextBuilder   { return b.add("total digits " + v) }
func (b *TextBuilder) WithDecimalPlaces(v string) *TextBuilder { return b.add("decimal places " + v) }
func (b *TextBuilder) WithMinValue(v string) *TextBuilder      { return b.add("min value " + v) }
func (b *TextBuilder) WithMaxValue(v string) *TextBuilder      { return b.add("max value " + v) }
func (b *TextBuilder) WithMinValueBig() *TextBuilder           { return b.add("min value " + BigValue) }
func (b *TextBuilder) WithMaxValueBig() *TextBuilder           { return b.add("max value " + BigValue) }
