package model

// Kind: тег вида сущности; вместе с именем образует ключ в репозитории.
type Kind string

const (
	KindDomainEntity          Kind = "domainEntity"
	KindDomainEntityExtension Kind = "domainEntityExtension"
	KindDomainEntitySubclass  Kind = "domainEntitySubclass"
	KindAssociation           Kind = "association"
	KindAssociationExtension  Kind = "associationExtension"
	KindAssociationSubclass   Kind = "associationSubclass"
	KindChoice                Kind = "choice"
	KindCommon                Kind = "common"
	KindCommonExtension       Kind = "commonExtension"
	KindCommonSubclass        Kind = "commonSubclass"
	KindDescriptor            Kind = "descriptor"
	KindEnumeration           Kind = "enumeration"
	KindInterchange           Kind = "interchange"
	KindInterchangeExtension  Kind = "interchangeExtension"
	KindDomain                Kind = "domain"
	KindSubdomain             Kind = "subdomain"
	KindSharedDecimal         Kind = "sharedDecimal"
	KindSharedInteger         Kind = "sharedInteger"
	KindSharedString          Kind = "sharedString"
	KindDecimalType           Kind = "decimalType"
	KindIntegerType           Kind = "integerType"
	KindStringType            Kind = "stringType"
)

// AllKinds: все виды в порядке вывода.
var AllKinds = []Kind{
	KindDomainEntity, KindDomainEntityExtension, KindDomainEntitySubclass,
	KindAssociation, KindAssociationExtension, KindAssociationSubclass,
	KindChoice,
	KindCommon, KindCommonExtension, KindCommonSubclass,
	KindDescriptor, KindEnumeration,
	KindInterchange, KindInterchangeExtension,
	KindDomain, KindSubdomain,
	KindSharedDecimal, KindSharedInteger, KindSharedString,
	KindDecimalType, KindIntegerType, KindStringType,
}

var humanized = map[Kind]string{
	KindDomainEntity:          "Domain Entity",
	KindDomainEntityExtension: "Domain Entity Extension",
	KindDomainEntitySubclass:  "Domain Entity Subclass",
	KindAssociation:           "Association",
	KindAssociationExtension:  "Association Extension",
	KindAssociationSubclass:   "Association Subclass",
	KindChoice:                "Choice",
	KindCommon:                "Common",
	KindCommonExtension:       "Common Extension",
	KindCommonSubclass:        "Common Subclass",
	KindDescriptor:            "Descriptor",
	KindEnumeration:           "Enumeration",
	KindInterchange:           "Interchange",
	KindInterchangeExtension:  "Interchange Extension",
	KindDomain:                "Domain",
	KindSubdomain:             "Subdomain",
	KindSharedDecimal:         "Shared Decimal",
	KindSharedInteger:         "Shared Integer",
	KindSharedString:          "Shared String",
	KindDecimalType:           "Decimal Type",
	KindIntegerType:           "Integer Type",
	KindStringType:            "String Type",
}

// Humanize возвращает читаемое имя вида для сообщений.
func Humanize(k Kind) string {
	if h, ok := humanized[k]; ok {
		return h
	}
	return string(k)
}

// ParseKind понимает и тег ("domainEntity"), и читаемое имя ("Domain Entity"),
// без учёта регистра, пробелов и дефисов.
func ParseKind(s string) (Kind, bool) {
	want := foldKind(s)
	if want == "" {
		return "", false
	}
	for _, k := range AllKinds {
		if foldKind(string(k)) == want {
			return k, true
		}
	}
	return "", false
}

func foldKind(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == ' ' || c == '-' || c == '_':
			continue
		case c >= 'A' && c <= 'Z':
			c += 'a' - 'A'
		}
		out = append(out, c)
	}
	return string(out)
}

// IsExtension: вид дополняет сущность с тем же именем.
func (k Kind) IsExtension() bool {
	switch k {
	case KindDomainEntityExtension, KindAssociationExtension, KindCommonExtension, KindInterchangeExtension:
		return true
	}
	return false
}

// IsSubclass: вид наследует от базовой сущности.
func (k Kind) IsSubclass() bool {
	switch k {
	case KindDomainEntitySubclass, KindAssociationSubclass, KindCommonSubclass:
		return true
	}
	return false
}
