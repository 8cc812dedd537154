package erd

import "sort"

// SortFields orders fields in place: primary key first, then relation
// fields, then plain attributes, each group by name.
func SortFields(fields []Field) {
	sort.SliceStable(fields, func(i, j int) bool {
		a, b := fields[i], fields[j]
		if a.IsPrimaryKey != b.IsPrimaryKey {
			return a.IsPrimaryKey
		}
		if a.IsRelation != b.IsRelation {
			return a.IsRelation
		}
		return a.Name < b.Name
	})
}
