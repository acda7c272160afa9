package pg

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"metaed/internal/builder"
	"metaed/internal/model"
)

// ExportStats: сколько строк записано по таблицам.
type ExportStats struct {
	Entities   int `json:"entities"`
	Properties int `json:"properties"`
	Failures   int `json:"failures"`
}

func (d Dialect) insert(table string, cols ...string) string {
	return fmt.Sprintf("insert into %s (%s) values (%s)", sqlIdent(table), joinIdents(cols), d.placeholders(len(cols)))
}

func (d Dialect) timestamp(t time.Time) any {
	if d == DialectPostgres {
		return t.UTC()
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// Export записывает модель в таблицы каталога одной транзакцией.
// Повторный экспорт того же buildID заменяет прежние строки.
func Export(ctx context.Context, db *DB, buildID string, builtAt time.Time, res *builder.Result) (ExportStats, error) {
	var stats ExportStats
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return stats, fmt.Errorf("begin export: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	d := db.Dialect
	for _, t := range []string{TableFailure, TableProperty, TableEntity, TableBuild} {
		col := "build_id"
		if t == TableBuild {
			col = "id"
		}
		q := fmt.Sprintf("delete from %s where %s = %s", sqlIdent(t), sqlIdent(col), d.Placeholder(1))
		if _, err := tx.ExecContext(ctx, q, buildID); err != nil {
			return stats, fmt.Errorf("clear %s: %w", t, err)
		}
	}

	_, err = tx.ExecContext(ctx,
		d.insert(TableBuild, "id", "built_at", "files", "namespaces", "entities", "properties", "errors", "warnings"),
		buildID, d.timestamp(builtAt), len(res.Files), res.Registry.Len(), res.Registry.Entities(),
		res.Properties.Len(), len(res.Failures.Errors()), len(res.Failures.Warnings()))
	if err != nil {
		return stats, fmt.Errorf("insert build: %w", err)
	}

	if err := exportEntities(ctx, tx, d, buildID, res, &stats); err != nil {
		return stats, err
	}
	if err := exportFailures(ctx, tx, d, buildID, res, &stats); err != nil {
		return stats, err
	}

	if err := tx.Commit(); err != nil {
		return stats, fmt.Errorf("commit export: %w", err)
	}
	return stats, nil
}

func exportEntities(ctx context.Context, tx *sql.Tx, d Dialect, buildID string, res *builder.Result, stats *ExportStats) error {
	entStmt, err := tx.PrepareContext(ctx, d.insert(TableEntity,
		"build_id", "namespace", "project_extension", "kind", "key", "name", "meta_ed_id",
		"base_namespace", "base_name", "deprecated", "generated", "documentation", "source"))
	if err != nil {
		return fmt.Errorf("prepare entity insert: %w", err)
	}
	defer entStmt.Close()

	propStmt, err := tx.PrepareContext(ctx, d.insert(TableProperty,
		"build_id", "namespace", "entity_kind", "entity_key", "position", "kind", "name", "role_name", "shorten_to",
		"referenced_namespace", "referenced_type", "identity", "required", "collection", "queryable_only"))
	if err != nil {
		return fmt.Errorf("prepare property insert: %w", err)
	}
	defer propStmt.Close()

	for _, ns := range res.Registry.All() {
		for _, kind := range ns.Entities.Kinds() {
			for _, e := range ns.Entities.All(kind) {
				b := e.Base()
				key := model.RepositoryKey(e)
				baseNs, baseName, generated := entityExtras(e)
				var source any
				if src := b.SourceMap.Get(model.AttrName); !src.IsZero() {
					source = src.String()
				}
				_, err := entStmt.ExecContext(ctx, buildID, ns.Name, ns.ProjectExtension, string(kind), key, b.Name,
					nullable(b.MetaEdID), nullable(baseNs), nullable(baseName), b.IsDeprecated, generated,
					nullable(b.Documentation), source)
				if err != nil {
					return fmt.Errorf("insert entity %s %s.%s: %w", kind, ns.Name, key, err)
				}
				stats.Entities++

				tle, ok := e.(*model.TopLevelEntity)
				if !ok {
					continue
				}
				for i, p := range exportedProperties(tle) {
					_, err := propStmt.ExecContext(ctx, buildID, ns.Name, string(kind), key, i, string(p.Kind), p.Name,
						nullable(p.RoleName), nullable(p.ShortenTo), nullable(p.ReferencedNamespaceName),
						nullable(p.ReferencedType), p.IsPartOfIdentity, p.IsRequired, p.IsCollection(), p.IsQueryableOnly)
					if err != nil {
						return fmt.Errorf("insert property %s.%s: %w", key, p.FullName(), err)
					}
					stats.Properties++
				}
			}
		}
	}
	return nil
}

// exportedProperties: Properties, затем queryable only поля, которых в Properties нет.
func exportedProperties(e *model.TopLevelEntity) []*model.Property {
	out := append([]*model.Property(nil), e.Properties...)
	for _, p := range e.QueryableFields {
		if p.IsQueryableOnly {
			out = append(out, p)
		}
	}
	return out
}

func entityExtras(e model.Entity) (baseNamespace, baseName string, generated bool) {
	switch v := e.(type) {
	case *model.TopLevelEntity:
		return v.BaseEntityNamespaceName, v.BaseEntityName, false
	case *model.Interchange:
		return v.BaseEntityNamespaceName, v.BaseEntityName, false
	case *model.Domain:
		if v.ParentDomainName != "" {
			return v.NamespaceName, v.ParentDomainName, false
		}
	case *model.SimpleType:
		return "", "", v.Generated
	}
	return "", "", false
}

func exportFailures(ctx context.Context, tx *sql.Tx, d Dialect, buildID string, res *builder.Result, stats *ExportStats) error {
	stmt, err := tx.PrepareContext(ctx, d.insert(TableFailure,
		"build_id", "seq", "validator", "category", "message", "file", "line", "col"))
	if err != nil {
		return fmt.Errorf("prepare failure insert: %w", err)
	}
	defer stmt.Close()

	for i, f := range res.Failures.All() {
		var line, col any
		if !f.Source.IsZero() {
			line, col = f.Source.Line, f.Source.Column
		}
		_, err := stmt.ExecContext(ctx, buildID, i, f.ValidatorName, string(f.Category), f.Message,
			nullable(strings.TrimSpace(f.Source.File)), line, col)
		if err != nil {
			return fmt.Errorf("insert failure %d: %w", i, err)
		}
		stats.Failures++
	}
	return nil
}
