package model

// Namespace: блок объявлений со своим репозиторием.
// Пустой ProjectExtension означает core.
type Namespace struct {
	Name             string      `json:"name" yaml:"name"`
	ProjectExtension string      `json:"projectExtension" yaml:"projectExtension"`
	Source           Source      `json:"source" yaml:"source"`
	Entities         *Repository `json:"-" yaml:"-"`
}

func NewNamespace(name, projectExtension string) *Namespace {
	return &Namespace{Name: name, ProjectExtension: projectExtension, Entities: NewRepository()}
}

func (n *Namespace) IsExtension() bool { return n.ProjectExtension != "" }

// Registry: namespace по имени, в порядке объявления.
type Registry struct {
	order  []*Namespace
	byName map[string]*Namespace
}

func NewRegistry() *Registry {
	return &Registry{byName: map[string]*Namespace{}}
}

// Add регистрирует namespace; если имя уже есть, возвращает прежний и false.
func (r *Registry) Add(ns *Namespace) (*Namespace, bool) {
	if existing, ok := r.byName[ns.Name]; ok {
		return existing, false
	}
	r.byName[ns.Name] = ns
	r.order = append(r.order, ns)
	return ns, true
}

func (r *Registry) Get(name string) (*Namespace, bool) {
	ns, ok := r.byName[name]
	return ns, ok
}

func (r *Registry) All() []*Namespace {
	out := make([]*Namespace, len(r.order))
	copy(out, r.order)
	return out
}

func (r *Registry) Len() int { return len(r.order) }

// Entities: число сущностей во всех namespace.
func (r *Registry) Entities() int {
	n := 0
	for _, ns := range r.order {
		n += ns.Entities.Len()
	}
	return n
}
