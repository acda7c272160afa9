package api

import (
	"fmt"
	"strings"

	"metaed/internal/model"
	"metaed/internal/validation"
)

// Row: плоское представление для листингов, фильтров и сортировки.
type Row map[string]any

func entityRow(e model.Entity) Row {
	b := e.Base()
	out := Row{
		"kind":      string(b.Kind),
		"humanized": e.Humanized(),
		"name":      b.Name,
		"namespace": b.NamespaceName,
	}
	if b.ProjectExtension != "" {
		out["projectExtension"] = b.ProjectExtension
	}
	if b.MetaEdID != "" {
		out["metaEdId"] = b.MetaEdID
	}
	if b.IsDeprecated {
		out["deprecated"] = true
	}
	if src := b.SourceMap.Get(model.AttrName); !src.IsZero() {
		out["source"] = src.String()
	}

	switch v := e.(type) {
	case *model.TopLevelEntity:
		out["properties"] = len(v.Properties)
		if v.BaseEntityName != "" {
			out["baseEntity"] = v.BaseEntityNamespaceName + "." + v.BaseEntityName
		}
		if ids := v.IdentityNames(); len(ids) > 0 {
			out["identity"] = strings.Join(ids, ",")
		}
	case *model.Interchange:
		out["elements"] = len(v.Elements)
		if v.BaseEntityName != "" {
			out["baseEntity"] = v.BaseEntityNamespaceName + "." + v.BaseEntityName
		}
	case *model.Domain:
		out["items"] = len(v.Items)
		if v.ParentDomainName != "" {
			out["parent"] = v.ParentDomainName
		}
	case *model.SimpleType:
		out["key"] = v.Key()
		out["generated"] = v.Generated
		out["short"] = v.IsShort
		restrictionCols(out, v.Restrictions)
	case *model.SharedSimpleType:
		out["short"] = v.IsShort
		restrictionCols(out, v.Restrictions)
	}
	return out
}

func restrictionCols(out Row, r model.Restrictions) {
	set := func(k, v string) {
		if v != "" {
			out[k] = v
		}
	}
	set("minLength", r.MinLength)
	set("maxLength", r.MaxLength)
	set("totalDigits", r.TotalDigits)
	set("decimalPlaces", r.DecimalPlaces)
	set("minValue", r.MinValue)
	set("maxValue", r.MaxValue)
	if r.HasBigHint {
		out["hasBigHint"] = true
	}
}

func failureRow(f validation.Failure) Row {
	return Row{
		"validator": f.ValidatorName,
		"category":  string(f.Category),
		"message":   f.Message,
		"file":      f.Source.File,
		"line":      f.Source.Line,
		"column":    f.Source.Column,
		"source":    f.Source.String(),
	}
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	case fmt.Stringer:
		return t.String()
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", v))
	}
}
