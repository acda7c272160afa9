package model

import "fmt"

type PropertyKind string

const (
	PropBoolean               PropertyKind = "boolean"
	PropCurrency              PropertyKind = "currency"
	PropDate                  PropertyKind = "date"
	PropDatetime              PropertyKind = "datetime"
	PropDecimal               PropertyKind = "decimal"
	PropDescriptor            PropertyKind = "descriptor"
	PropDuration              PropertyKind = "duration"
	PropEnumeration           PropertyKind = "enumeration"
	PropSchoolYearEnumeration PropertyKind = "schoolYearEnumeration"
	PropInteger               PropertyKind = "integer"
	PropShort                 PropertyKind = "short"
	PropPercent               PropertyKind = "percent"
	PropString                PropertyKind = "string"
	PropTime                  PropertyKind = "time"
	PropYear                  PropertyKind = "year"
	PropAssociation           PropertyKind = "association"
	PropDomainEntity          PropertyKind = "domainEntity"
	PropCommon                PropertyKind = "common"
	PropInlineCommon          PropertyKind = "inlineCommon"
	PropChoice                PropertyKind = "choice"
	PropSharedDecimal         PropertyKind = "sharedDecimal"
	PropSharedInteger         PropertyKind = "sharedInteger"
	PropSharedShort           PropertyKind = "sharedShort"
	PropSharedString          PropertyKind = "sharedString"
)

// SchoolYear: enumeration с этим именем становится schoolYearEnumeration.
const SchoolYear = "SchoolYear"

type MergeDirective struct {
	SourcePath string `json:"sourcePropertyPath" yaml:"sourcePropertyPath"`
	TargetPath string `json:"targetPropertyPath" yaml:"targetPropertyPath"`
	Source     Source `json:"-" yaml:"-"`
}

// Property: свойство сущности в порядке объявления.
type Property struct {
	Kind          PropertyKind `json:"kind" yaml:"kind"`
	Name          string       `json:"name" yaml:"name"`
	NamespaceName string       `json:"namespace" yaml:"namespace"`

	// для ссылочных и shared свойств
	ReferencedType          string `json:"referencedType,omitempty" yaml:"referencedType,omitempty"`
	ReferencedNamespaceName string `json:"referencedNamespace,omitempty" yaml:"referencedNamespace,omitempty"`

	MetaEdID               string `json:"metaEdId,omitempty" yaml:"metaEdId,omitempty"`
	Documentation          string `json:"documentation,omitempty" yaml:"documentation,omitempty"`
	DocumentationInherited bool   `json:"documentationInherited,omitempty" yaml:"documentationInherited,omitempty"`
	IsDeprecated           bool   `json:"isDeprecated,omitempty" yaml:"isDeprecated,omitempty"`
	DeprecationReason      string `json:"deprecationReason,omitempty" yaml:"deprecationReason,omitempty"`

	RoleName  string `json:"roleName,omitempty" yaml:"roleName,omitempty"`
	ShortenTo string `json:"shortenTo,omitempty" yaml:"shortenTo,omitempty"`

	IsPartOfIdentity     bool   `json:"isPartOfIdentity,omitempty" yaml:"isPartOfIdentity,omitempty"`
	IsIdentityRename     bool   `json:"isIdentityRename,omitempty" yaml:"isIdentityRename,omitempty"`
	BaseKeyName          string `json:"baseKeyName,omitempty" yaml:"baseKeyName,omitempty"`
	IsRequired           bool   `json:"isRequired,omitempty" yaml:"isRequired,omitempty"`
	IsOptional           bool   `json:"isOptional,omitempty" yaml:"isOptional,omitempty"`
	IsRequiredCollection bool   `json:"isRequiredCollection,omitempty" yaml:"isRequiredCollection,omitempty"`
	IsOptionalCollection bool   `json:"isOptionalCollection,omitempty" yaml:"isOptionalCollection,omitempty"`
	IsQueryableField     bool   `json:"isQueryableField,omitempty" yaml:"isQueryableField,omitempty"`
	IsQueryableOnly      bool   `json:"isQueryableOnly,omitempty" yaml:"isQueryableOnly,omitempty"`
	IsWeak               bool   `json:"isWeak,omitempty" yaml:"isWeak,omitempty"`
	PotentiallyLogical   bool   `json:"potentiallyLogical,omitempty" yaml:"potentiallyLogical,omitempty"`
	IsExtensionOverride  bool   `json:"isExtensionOverride,omitempty" yaml:"isExtensionOverride,omitempty"`

	Restrictions `yaml:",inline"`

	MergeDirectives []MergeDirective `json:"mergeDirectives,omitempty" yaml:"mergeDirectives,omitempty"`

	SourceMap SourceMap `json:"sourceMap,omitempty" yaml:"sourceMap,omitempty"`
}

func NewProperty(kind PropertyKind) *Property {
	return &Property{Kind: kind, SourceMap: SourceMap{}}
}

// Context: role name, если она не совпадает с именем свойства.
func (p *Property) Context() string {
	if p.RoleName == p.Name {
		return ""
	}
	return p.RoleName
}

// FullName: имя с контекстом, как его видят генераторы.
func (p *Property) FullName() string {
	return p.Context() + p.Name
}

func (p *Property) Key() PropertyKey {
	return PropertyKey{Name: p.Name, Context: p.Context(), ShortenTo: p.ShortenTo}
}

func (p *Property) IsShared() bool {
	switch p.Kind {
	case PropSharedDecimal, PropSharedInteger, PropSharedShort, PropSharedString:
		return true
	}
	return false
}

func (p *Property) IsCollection() bool {
	return p.IsRequiredCollection || p.IsOptionalCollection
}

// SimpleTypeKind: вид конкретного типа, который свойство может породить.
func (p *Property) SimpleTypeKind() (Kind, bool) {
	switch p.Kind {
	case PropDecimal:
		return KindDecimalType, true
	case PropInteger, PropShort:
		return KindIntegerType, true
	case PropString:
		return KindStringType, true
	}
	return "", false
}

// PropertyDuplicateMessage: текст ошибки при повторном свойстве.
func PropertyDuplicateMessage(p *Property) string {
	return fmt.Sprintf("Property named %s is a duplicate declaration of that name. Use 'role name' keyword to avoid naming collisions.", p.Name)
}

// PropertyKey: составная идентичность свойства внутри сущности.
type PropertyKey struct {
	Name      string
	Context   string
	ShortenTo string
}

func (k PropertyKey) String() string {
	s := k.Context + k.Name
	if k.ShortenTo != "" {
		s += " (" + k.ShortenTo + ")"
	}
	return s
}

// PropertyIndex: свойства одной сущности по составному ключу.
type PropertyIndex struct {
	byKey map[PropertyKey]*Property
}

func NewPropertyIndex() *PropertyIndex {
	return &PropertyIndex{byKey: map[PropertyKey]*Property{}}
}

// Add регистрирует свойство. Если ключ занят, возвращает прежнее свойство и false.
func (x *PropertyIndex) Add(p *Property) (*Property, bool) {
	k := p.Key()
	if existing, ok := x.byKey[k]; ok {
		return existing, false
	}
	x.byKey[k] = p
	return nil, true
}

func (x *PropertyIndex) Get(k PropertyKey) (*Property, bool) {
	p, ok := x.byKey[k]
	return p, ok
}

func (x *PropertyIndex) Len() int { return len(x.byKey) }

// PropertyCatalog: все принятые свойства модели по видам.
type PropertyCatalog struct {
	byKind map[PropertyKind][]*Property
	total  int
}

func NewPropertyCatalog() *PropertyCatalog {
	return &PropertyCatalog{byKind: map[PropertyKind][]*Property{}}
}

func (c *PropertyCatalog) Add(p *Property) {
	c.byKind[p.Kind] = append(c.byKind[p.Kind], p)
	c.total++
}

func (c *PropertyCatalog) ByKind(k PropertyKind) []*Property {
	return c.byKind[k]
}

func (c *PropertyCatalog) Len() int { return c.total }
