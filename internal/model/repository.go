package model

// Repository: сущности одного namespace: вид -> локальный ключ -> сущность.
// Порядок вставки сохраняется внутри каждого вида.
type Repository struct {
	buckets map[Kind]*bucket
	total   int
}

type bucket struct {
	order []Entity
	byKey map[string]Entity
}

func NewRepository() *Repository {
	return &Repository{buckets: map[Kind]*bucket{}}
}

// Add регистрирует сущность. Занятый ключ не перезаписывается:
// возвращаются прежняя сущность и false.
func (r *Repository) Add(e Entity) (Entity, bool) {
	kind := e.Base().Kind
	key := RepositoryKey(e)
	b := r.buckets[kind]
	if b == nil {
		b = &bucket{byKey: map[string]Entity{}}
		r.buckets[kind] = b
	}
	if existing, ok := b.byKey[key]; ok {
		return existing, false
	}
	b.byKey[key] = e
	b.order = append(b.order, e)
	r.total++
	return nil, true
}

func (r *Repository) Get(kind Kind, key string) (Entity, bool) {
	b := r.buckets[kind]
	if b == nil {
		return nil, false
	}
	e, ok := b.byKey[key]
	return e, ok
}

// All: сущности вида в порядке регистрации.
func (r *Repository) All(kind Kind) []Entity {
	b := r.buckets[kind]
	if b == nil {
		return nil
	}
	out := make([]Entity, len(b.order))
	copy(out, b.order)
	return out
}

func (r *Repository) Count(kind Kind) int {
	if b := r.buckets[kind]; b != nil {
		return len(b.order)
	}
	return 0
}

// Len: всего сущностей во всех видах.
func (r *Repository) Len() int { return r.total }

// Kinds: непустые виды в порядке AllKinds.
func (r *Repository) Kinds() []Kind {
	var out []Kind
	for _, k := range AllKinds {
		if r.Count(k) > 0 {
			out = append(out, k)
		}
	}
	return out
}

// Lookup: Get с приведением к конкретному варианту.
func Lookup[T Entity](r *Repository, kind Kind, key string) (T, bool) {
	var zero T
	e, ok := r.Get(kind, key)
	if !ok {
		return zero, false
	}
	v, ok := e.(T)
	return v, ok
}

// AllOf: All с приведением; сущности другого варианта пропускаются.
func AllOf[T Entity](r *Repository, kind Kind) []T {
	var out []T
	for _, e := range r.All(kind) {
		if v, ok := e.(T); ok {
			out = append(out, v)
		}
	}
	return out
}
