package api

import (
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// ==== Параметры листинга ====

type SortKey struct {
	Field string
	Desc  bool
}

type ListParams struct {
	Limit   int
	Offset  int
	Sort    []SortKey
	Filters map[string][]string
	Q       string
	Nulls   string // "last" (default) | "first"
}

func parseListParams(q url.Values) ListParams {
	limit := 50
	lv := q.Get("_limit")
	if lv == "" {
		lv = q.Get("limit")
	}
	if lv != "" {
		if n, err := strconv.Atoi(lv); err == nil && n >= 0 && n <= 1000 {
			limit = n
		}
	}

	offset := 0
	ov := q.Get("_offset")
	if ov == "" {
		ov = q.Get("offset")
	}
	if ov != "" {
		if n, err := strconv.Atoi(ov); err == nil && n >= 0 {
			offset = n
		}
	}

	var sortKeys []SortKey
	sv := strings.TrimSpace(q.Get("_sort"))
	if sv == "" {
		sv = strings.TrimSpace(q.Get("sort"))
	}
	for _, p := range strings.Split(sv, ",") {
		p = strings.TrimSpace(p)
		desc := false
		if strings.HasPrefix(p, "-") {
			desc = true
			p = strings.TrimPrefix(p, "-")
		} else {
			p = strings.TrimPrefix(p, "+")
		}
		if p != "" {
			sortKeys = append(sortKeys, SortKey{Field: p, Desc: desc})
		}
	}

	nulls := strings.ToLower(strings.TrimSpace(q.Get("nulls")))
	if nulls != "first" && nulls != "last" {
		nulls = "last"
	}

	// фильтры (исключаем служебные ключи)
	filters := make(map[string][]string)
	for key, vals := range q {
		switch key {
		case "q", "offset", "limit", "sort",
			"_offset", "_limit", "_sort",
			"nulls":
			continue
		}
		clean := make([]string, 0, len(vals))
		for _, v := range vals {
			if strings.TrimSpace(v) != "" {
				clean = append(clean, v)
			}
		}
		if len(clean) > 0 {
			filters[key] = clean
		}
	}

	return ListParams{
		Limit:   limit,
		Offset:  offset,
		Sort:    sortKeys,
		Filters: filters,
		Q:       strings.TrimSpace(q.Get("q")),
		Nulls:   nulls,
	}
}

// filterRows: равенство по фильтрам (любое из значений) и поиск q по строковым колонкам.
func filterRows(all []Row, lp ListParams) []Row {
	out := make([]Row, 0, len(all))
	q := strings.ToLower(lp.Q)
	for _, r := range all {
		match := true
		for k, vals := range lp.Filters {
			got, ok := r[k]
			if !ok {
				match = false
				break
			}
			okv := false
			for _, want := range vals {
				if strings.EqualFold(stringify(got), want) {
					okv = true
					break
				}
			}
			if !okv {
				match = false
				break
			}
		}
		if !match {
			continue
		}
		if q != "" {
			found := false
			for _, v := range r {
				if s, ok := v.(string); ok && strings.Contains(strings.ToLower(s), q) {
					found = true
					break
				}
			}
			if !found {
				continue
			}
		}
		out = append(out, r)
	}
	return out
}

func isNull(v any, ok bool) bool { return !ok || v == nil }

// сравнение двух строк по одному ключу с учётом nullsPolicy и направления
func cmpByKey(a, b Row, key string, nullsPolicy string, desc bool) int {
	va, oka := a[key]
	vb, okb := b[key]

	na := isNull(va, oka)
	nb := isNull(vb, okb)
	if na && nb {
		return 0
	}
	if na != nb {
		if nullsPolicy == "last" {
			if na {
				return +1
			}
			return -1
		}
		if na {
			return -1
		}
		return +1
	}

	rel := 0
	if ia, ok := va.(int); ok {
		if ib, ok := vb.(int); ok {
			switch {
			case ia < ib:
				rel = -1
			case ia > ib:
				rel = +1
			}
			if desc {
				rel = -rel
			}
			return rel
		}
	}
	sa, sb := stringify(va), stringify(vb)
	switch {
	case sa < sb:
		rel = -1
	case sa > sb:
		rel = +1
	}
	if desc {
		rel = -rel
	}
	return rel
}

func sortRows(rows []Row, keys []SortKey, nullsPolicy string) {
	if len(keys) == 0 {
		return
	}
	sort.SliceStable(rows, func(i, j int) bool {
		for _, k := range keys {
			if c := cmpByKey(rows[i], rows[j], k.Field, nullsPolicy, k.Desc); c != 0 {
				return c < 0
			}
		}
		return false
	})
}

// applyList фильтрует, сортирует и режет страницу; второй результат: total до пагинации.
func applyList(all []Row, lp ListParams) ([]Row, int) {
	filtered := filterRows(all, lp)
	sortRows(filtered, lp.Sort, lp.Nulls)

	start := lp.Offset
	if start > len(filtered) {
		start = len(filtered)
	}
	end := start + lp.Limit
	if end > len(filtered) {
		end = len(filtered)
	}
	return filtered[start:end], len(filtered)
}
