package validation

import (
	"metaed/internal/dsl"
	"metaed/internal/model"
)

const SyntaxValidatorName = "DeprecatedSyntaxValidator"

var deprecatedSyntax = map[dsl.Rule]string{
	dsl.RuleShortProperty:       "The 'short' property type is deprecated. Use 'integer' instead.",
	dsl.RuleSharedShortProperty: "The 'shared short' property type is deprecated. Use 'shared integer' instead.",
	dsl.RuleSharedShort:         "The 'Shared Short' declaration is deprecated. Use 'Shared Integer' instead.",
	dsl.RuleIsWeakReference:     "The 'is weak' keyword is deprecated and has no effect on generated artifacts.",
	dsl.RuleIsQueryableField:    "The 'is queryable field' keyword is deprecated.",
	dsl.RuleIsQueryableOnly:     "The 'is queryable only' keyword is deprecated.",
	dsl.RuleShortenToName:       "The 'shorten to' keyword is deprecated.",
	dsl.RuleIdentityRename:      "The 'renames identity property' keyword is deprecated. Use a subclass with its own identity instead.",
	dsl.RulePotentiallyLogical:  "The 'potentially logical' keyword is deprecated.",
}

// SyntaxValidator предупреждает об устаревших конструкциях.
// Модель не трогает: пишет только в Sink.
type SyntaxValidator struct {
	sink *Sink
}

func NewSyntaxValidator(sink *Sink) *SyntaxValidator {
	return &SyntaxValidator{sink: sink}
}

func (v *SyntaxValidator) Enter(rule dsl.Rule, tok dsl.Token) {
	msg, ok := deprecatedSyntax[rule]
	if !ok {
		return
	}
	v.sink.Add(Failure{
		ValidatorName: SyntaxValidatorName,
		Category:      CategoryWarning,
		Message:       msg,
		Source:        model.SourceOf(tok),
	})
}

func (v *SyntaxValidator) Exit(dsl.Rule, dsl.Token) {}

// DeprecatedRules: конструкции, о которых предупреждает SyntaxValidator.
func DeprecatedRules() []dsl.Rule {
	return []dsl.Rule{
		dsl.RuleShortProperty,
		dsl.RuleSharedShortProperty,
		dsl.RuleSharedShort,
		dsl.RuleIsWeakReference,
		dsl.RuleIsQueryableField,
		dsl.RuleIsQueryableOnly,
		dsl.RuleShortenToName,
		dsl.RuleIdentityRename,
		dsl.RulePotentiallyLogical,
	}
}
