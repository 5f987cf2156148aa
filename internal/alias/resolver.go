// Package alias maps raw source-specific commodity names to canonical names.
package alias

// Resolver performs a total table lookup: names without an alias entry are
// returned unchanged, including the empty string.
type Resolver struct {
	table map[string]string
}

// NewResolver builds a resolver over the given alias table. The table is
// copied so later mutation by the caller cannot change resolution.
func NewResolver(table map[string]string) *Resolver {
	copied := make(map[string]string, len(table))
	for k, v := range table {
		copied[k] = v
	}
	return &Resolver{table: copied}
}

// Resolve returns the canonical name for rawName, or rawName itself when no
// alias entry exists. Resolution happens before region parsing and must not
// strip region qualifiers.
func (r *Resolver) Resolve(rawName string) string {
	if canonical, ok := r.table[rawName]; ok {
		return canonical
	}
	return rawName
}
