package api

import (
	"strings"

	"metaed/internal/model"
)

// NormalizeNamespace ищет namespace по имени: сначала точно, потом без учёта регистра.
func (s *Snapshot) NormalizeNamespace(name string) (*model.Namespace, bool) {
	name = strings.TrimSpace(name)
	if name == "" || s == nil {
		return nil, false
	}
	reg := s.Result.Registry
	if ns, ok := reg.Get(name); ok {
		return ns, true
	}
	for _, ns := range reg.All() {
		if strings.EqualFold(ns.Name, name) {
			return ns, true
		}
	}
	return nil, false
}

// LookupEntity находит сущность в namespace.
// Для таблицы типов name может быть как ключом ("ext-Name"), так и коротким именем.
func LookupEntity(ns *model.Namespace, kind model.Kind, name string) (model.Entity, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, false
	}
	if e, ok := ns.Entities.Get(kind, name); ok {
		return e, true
	}
	if e, ok := ns.Entities.Get(kind, model.TypeKey(ns.ProjectExtension, name)); ok {
		return e, true
	}

	// регистронезависимо, но только если совпадение единственное
	var found model.Entity
	for _, e := range ns.Entities.All(kind) {
		if !strings.EqualFold(e.Base().Name, name) {
			continue
		}
		if found != nil {
			return nil, false
		}
		found = e
	}
	return found, found != nil
}
