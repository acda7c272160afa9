package model

import "fmt"

// Entity: элемент репозитория namespace. Набор вариантов закрыт:
// TopLevelEntity, Interchange, Domain, SharedSimpleType, SimpleType.
type Entity interface {
	Base() *EntityBase
	Humanized() string
	isEntity()
}

// EntityBase: поля, общие для всех видов.
type EntityBase struct {
	Kind              Kind      `json:"kind" yaml:"kind"`
	Name              string    `json:"name" yaml:"name"`
	NamespaceName     string    `json:"namespace" yaml:"namespace"`
	ProjectExtension  string    `json:"projectExtension,omitempty" yaml:"projectExtension,omitempty"`
	MetaEdID          string    `json:"metaEdId,omitempty" yaml:"metaEdId,omitempty"`
	Documentation     string    `json:"documentation,omitempty" yaml:"documentation,omitempty"`
	IsDeprecated      bool      `json:"isDeprecated,omitempty" yaml:"isDeprecated,omitempty"`
	DeprecationReason string    `json:"deprecationReason,omitempty" yaml:"deprecationReason,omitempty"`
	SourceMap         SourceMap `json:"sourceMap,omitempty" yaml:"sourceMap,omitempty"`
}

func (b *EntityBase) Base() *EntityBase { return b }

func (b *EntityBase) Humanized() string { return Humanize(b.Kind) }

func newBase(kind Kind) EntityBase {
	return EntityBase{Kind: kind, SourceMap: SourceMap{}}
}

// Restrictions: ограничения простого типа в исходном тексте.
// При "big" текст границы пустой, а HasBigHint выставлен.
type Restrictions struct {
	MinLength     string `json:"minLength,omitempty" yaml:"minLength,omitempty"`
	MaxLength     string `json:"maxLength,omitempty" yaml:"maxLength,omitempty"`
	TotalDigits   string `json:"totalDigits,omitempty" yaml:"totalDigits,omitempty"`
	DecimalPlaces string `json:"decimalPlaces,omitempty" yaml:"decimalPlaces,omitempty"`
	MinValue      string `json:"minValue,omitempty" yaml:"minValue,omitempty"`
	MaxValue      string `json:"maxValue,omitempty" yaml:"maxValue,omitempty"`
	HasBigHint    bool   `json:"hasBigHint,omitempty" yaml:"hasBigHint,omitempty"`
}

// IsZero: ни одного ограничения не задано.
func (r Restrictions) IsZero() bool {
	return r == Restrictions{}
}

// TopLevelEntity: domain entity, association, choice, common, descriptor,
// enumeration и их extension/subclass формы.
type TopLevelEntity struct {
	EntityBase `yaml:",inline"`

	// для extension и subclass
	BaseEntityName          string `json:"baseEntityName,omitempty" yaml:"baseEntityName,omitempty"`
	BaseEntityNamespaceName string `json:"baseEntityNamespaceName,omitempty" yaml:"baseEntityNamespaceName,omitempty"`

	IsAbstract             bool `json:"isAbstract,omitempty" yaml:"isAbstract,omitempty"`
	Inline                 bool `json:"inline,omitempty" yaml:"inline,omitempty"`
	AllowPrimaryKeyUpdates bool `json:"allowPrimaryKeyUpdates,omitempty" yaml:"allowPrimaryKeyUpdates,omitempty"`

	Properties         []*Property `json:"properties,omitempty" yaml:"properties,omitempty"`
	IdentityProperties []*Property `json:"-" yaml:"-"`
	QueryableFields    []*Property `json:"-" yaml:"-"`

	EnumerationItems []*EnumerationItem `json:"items,omitempty" yaml:"items,omitempty"`
	MapType          *MapType           `json:"mapType,omitempty" yaml:"mapType,omitempty"`
}

func (*TopLevelEntity) isEntity() {}

func NewTopLevelEntity(kind Kind) *TopLevelEntity {
	return &TopLevelEntity{EntityBase: newBase(kind)}
}

// IdentityNames: имена свойств идентичности в порядке объявления.
func (e *TopLevelEntity) IdentityNames() []string {
	out := make([]string, 0, len(e.IdentityProperties))
	for _, p := range e.IdentityProperties {
		out = append(out, p.FullName())
	}
	return out
}

type EnumerationItem struct {
	ShortDescription string    `json:"shortDescription" yaml:"shortDescription"`
	Documentation    string    `json:"documentation,omitempty" yaml:"documentation,omitempty"`
	MetaEdID         string    `json:"metaEdId,omitempty" yaml:"metaEdId,omitempty"`
	SourceMap        SourceMap `json:"-" yaml:"-"`
}

// MapType: enumeration, вложенная в descriptor.
type MapType struct {
	IsRequired    bool               `json:"isRequired" yaml:"isRequired"`
	Documentation string             `json:"documentation,omitempty" yaml:"documentation,omitempty"`
	Items         []*EnumerationItem `json:"items,omitempty" yaml:"items,omitempty"`
	SourceMap     SourceMap          `json:"-" yaml:"-"`
}

// Item: ссылка из interchange или domain на другую сущность.
type Item struct {
	ReferencedType          string    `json:"referencedType" yaml:"referencedType"`
	Name                    string    `json:"name" yaml:"name"`
	ReferencedNamespaceName string    `json:"referencedNamespace" yaml:"referencedNamespace"`
	MetaEdID                string    `json:"metaEdId,omitempty" yaml:"metaEdId,omitempty"`
	SourceMap               SourceMap `json:"-" yaml:"-"`
}

type Interchange struct {
	EntityBase `yaml:",inline"`

	BaseEntityName          string `json:"baseEntityName,omitempty" yaml:"baseEntityName,omitempty"`
	BaseEntityNamespaceName string `json:"baseEntityNamespaceName,omitempty" yaml:"baseEntityNamespaceName,omitempty"`

	ExtendedDocumentation string  `json:"extendedDocumentation,omitempty" yaml:"extendedDocumentation,omitempty"`
	UseCaseDocumentation  string  `json:"useCaseDocumentation,omitempty" yaml:"useCaseDocumentation,omitempty"`
	Elements              []*Item `json:"elements,omitempty" yaml:"elements,omitempty"`
	IdentityTemplates     []*Item `json:"identityTemplates,omitempty" yaml:"identityTemplates,omitempty"`
}

func (*Interchange) isEntity() {}

func NewInterchange(kind Kind) *Interchange {
	return &Interchange{EntityBase: newBase(kind)}
}

// Domain: domain или subdomain.
type Domain struct {
	EntityBase `yaml:",inline"`

	ParentDomainName    string  `json:"parentDomainName,omitempty" yaml:"parentDomainName,omitempty"`
	Position            int     `json:"position,omitempty" yaml:"position,omitempty"`
	FooterDocumentation string  `json:"footerDocumentation,omitempty" yaml:"footerDocumentation,omitempty"`
	Items               []*Item `json:"items,omitempty" yaml:"items,omitempty"`
}

func (*Domain) isEntity() {}

func NewDomain(kind Kind) *Domain {
	return &Domain{EntityBase: newBase(kind)}
}

// SharedSimpleType: Shared Decimal/Integer/Short/String.
// Shared Short хранится как sharedInteger с IsShort.
type SharedSimpleType struct {
	EntityBase   `yaml:",inline"`
	Restrictions `yaml:",inline"`

	IsShort bool `json:"isShort,omitempty" yaml:"isShort,omitempty"`
}

func (*SharedSimpleType) isEntity() {}

func (t *SharedSimpleType) Humanized() string {
	if t.IsShort {
		return "Shared Short"
	}
	return Humanize(t.Kind)
}

func NewSharedSimpleType(kind Kind) *SharedSimpleType {
	return &SharedSimpleType{EntityBase: newBase(kind)}
}

// SimpleType: запись таблицы конкретных типов namespace.
// Generated=true, если тип выведен из ограничений свойства.
type SimpleType struct {
	EntityBase   `yaml:",inline"`
	Restrictions `yaml:",inline"`

	IsShort   bool `json:"isShort,omitempty" yaml:"isShort,omitempty"`
	Generated bool `json:"generatedSimpleType" yaml:"generatedSimpleType"`
}

func (*SimpleType) isEntity() {}

func NewSimpleType(kind Kind) *SimpleType {
	return &SimpleType{EntityBase: newBase(kind)}
}

// Key: ключ в таблице, одно имя может повторяться в соседних namespace.
func (t *SimpleType) Key() string {
	return TypeKey(t.ProjectExtension, t.Name)
}

func TypeKey(projectExtension, name string) string {
	return projectExtension + "-" + name
}

// RepositoryKey: локальный ключ сущности внутри её вида.
func RepositoryKey(e Entity) string {
	switch v := e.(type) {
	case *SimpleType:
		return v.Key()
	case *TopLevelEntity, *Interchange, *Domain, *SharedSimpleType:
		return e.Base().Name
	default:
		panic(fmt.Sprintf("model: unknown entity %T", e))
	}
}

// DuplicateMessage: текст ошибки при повторном объявлении сущности.
func DuplicateMessage(e Entity) string {
	return fmt.Sprintf("%s named %s is a duplicate declaration of that name.", e.Humanized(), e.Base().Name)
}
