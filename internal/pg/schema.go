package pg

import (
	"fmt"
	"strings"
)

// таблицы каталога модели
const (
	TableBuild    = "metaed_build"
	TableEntity   = "metaed_entity"
	TableProperty = "metaed_property"
	TableFailure  = "metaed_failure"
)

func sqlIdent(s string) string { return `"` + strings.ToLower(s) + `"` }

type column struct {
	name, typ string
	notNull  bool
}

type table struct {
	name    string
	columns []column
	primary []string
	indexes [][]string
}

func (d Dialect) timestampType() string {
	if d == DialectPostgres {
		return "timestamp with time zone"
	}
	return "text"
}

func catalogTables(d Dialect) []table {
	return []table{
		{
			name: TableBuild,
			columns: []column{
				{"id", "text", true},
				{"built_at", d.timestampType(), true},
				{"files", "integer", true},
				{"namespaces", "integer", true},
				{"entities", "integer", true},
				{"properties", "integer", true},
				{"errors", "integer", true},
				{"warnings", "integer", true},
			},
			primary: []string{"id"},
		},
		{
			name: TableEntity,
			columns: []column{
				{"build_id", "text", true},
				{"namespace", "text", true},
				{"project_extension", "text", true},
				{"kind", "text", true},
				{"key", "text", true},
				{"name", "text", true},
				{"meta_ed_id", "text", false},
				{"base_namespace", "text", false},
				{"base_name", "text", false},
				{"deprecated", "boolean", true},
				{"generated", "boolean", true},
				{"documentation", "text", false},
				{"source", "text", false},
			},
			primary: []string{"build_id", "namespace", "kind", "key"},
			indexes: [][]string{{"build_id", "kind"}},
		},
		{
			name: TableProperty,
			columns: []column{
				{"build_id", "text", true},
				{"namespace", "text", true},
				{"entity_kind", "text", true},
				{"entity_key", "text", true},
				{"position", "integer", true},
				{"kind", "text", true},
				{"name", "text", true},
				{"role_name", "text", false},
				{"shorten_to", "text", false},
				{"referenced_namespace", "text", false},
				{"referenced_type", "text", false},
				{"identity", "boolean", true},
				{"required", "boolean", true},
				{"collection", "boolean", true},
				{"queryable_only", "boolean", true},
			},
			primary: []string{"build_id", "namespace", "entity_kind", "entity_key", "position"},
			indexes: [][]string{{"build_id", "kind"}},
		},
		{
			name: TableFailure,
			columns: []column{
				{"build_id", "text", true},
				{"seq", "integer", true},
				{"validator", "text", true},
				{"category", "text", true},
				{"message", "text", true},
				{"file", "text", false},
				{"line", "integer", false},
				{"col", "integer", false},
			},
			primary: []string{"build_id", "seq"},
			indexes: [][]string{{"build_id", "category"}},
		},
	}
}

func joinIdents(cols []string) string {
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = sqlIdent(c)
	}
	return strings.Join(parts, ", ")
}

// CatalogDDL возвращает карту шаг -> SQL; ApplyDDL выполняет шаги по порядку ключей.
// В Postgres ссылки на metaed_build добавляются отдельным шагом через alter table,
// в SQLite они объявляются прямо в create table.
func CatalogDDL(d Dialect) map[string]string {
	out := make(map[string]string, 2)

	// --- Phase A: таблицы и индексы ---
	var phaseA strings.Builder
	for _, t := range catalogTables(d) {
		var cols []string
		for _, c := range t.columns {
			null := "null"
			if c.notNull {
				null = "not null"
			}
			cols = append(cols, fmt.Sprintf("%s %s %s", sqlIdent(c.name), c.typ, null))
		}
		cols = append(cols, fmt.Sprintf("primary key (%s)", joinIdents(t.primary)))
		if d == DialectSQLite && t.name != TableBuild {
			cols = append(cols, fmt.Sprintf("foreign key (%s) references %s(%s) on delete cascade",
				sqlIdent("build_id"), sqlIdent(TableBuild), sqlIdent("id")))
		}
		fmt.Fprintf(&phaseA, "create table if not exists %s (\n  %s\n);\n",
			sqlIdent(t.name), strings.Join(cols, ",\n  "))

		for _, idx := range t.indexes {
			name := strings.ToLower(t.name + "_" + strings.Join(idx, "_") + "_idx")
			fmt.Fprintf(&phaseA, "create index if not exists %s on %s(%s);\n",
				sqlIdent(name), sqlIdent(t.name), joinIdents(idx))
		}
	}
	out["000_tables"] = phaseA.String()

	// --- Phase B: foreign keys (после создания всех таблиц) ---
	if d == DialectPostgres {
		var phaseB strings.Builder
		for _, t := range catalogTables(d) {
			if t.name == TableBuild {
				continue
			}
			fmt.Fprintf(&phaseB,
				"alter table %s add constraint %s foreign key (%s) references %s(%s) on delete cascade;\n",
				sqlIdent(t.name), sqlIdent(t.name+"_build_fk"),
				sqlIdent("build_id"), sqlIdent(TableBuild), sqlIdent("id"))
		}
		out["200_foreign_keys"] = phaseB.String()
	}
	return out
}
