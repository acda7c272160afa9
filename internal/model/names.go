package model

import "strings"

// SplitQualifiedName делит "Namespace.Name" на ("Namespace", "Name").
// Для имени без ровно одной точки-префикса возвращает ("", name): ссылка локальная.
func SplitQualifiedName(name string) (namespace, local string) {
	name = strings.TrimSpace(name)
	i := strings.IndexByte(name, '.')
	if i <= 0 || i >= len(name)-1 || strings.IndexByte(name[i+1:], '.') >= 0 {
		return "", name
	}
	return name[:i], name[i+1:]
}

// ResolveReference: пара (namespace, name) для ссылки, набранной в namespace declaring.
// Разрешение чисто синтаксическое: существование цели не проверяется.
func ResolveReference(typed, declaring string) (namespace, local string) {
	namespace, local = SplitQualifiedName(typed)
	if namespace == "" {
		namespace = declaring
	}
	return namespace, local
}
