package annotate

import "strings"

// FilterFields keeps only the comma-separated fields named in list, in the
// order they are named. Fields a row lacks are dropped, not nulled. An empty
// list returns rows unchanged.
func FilterFields(rows []Row, list string) []Row {
	if strings.TrimSpace(list) == "" {
		return rows
	}

	var keys []string
	seen := make(map[string]bool)
	for _, k := range strings.Split(list, ",") {
		k = strings.TrimSpace(k)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		keys = append(keys, k)
	}

	filtered := make([]Row, len(rows))
	for i, row := range rows {
		out := Row{}
		for _, k := range keys {
			if v, ok := row.Get(k); ok {
				out = append(out, Field{k, v})
			}
		}
		filtered[i] = out
	}
	return filtered
}
