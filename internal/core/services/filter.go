package services

import (
	"sort"
	"strings"

	"github.com/custodia-labs/catsync/internal/core/domain"
)

// FilterItems returns the items matching query, sorted by name.
//
// A single word matches any item whose name contains it, ignoring case.
// Several words must all appear in the item's spaced-out name, so
// "replace obj" matches ReplaceSelectedObjects.
func FilterItems(items []domain.Item, query string) []domain.Item {
	words := strings.Fields(strings.ToLower(query))

	out := make([]domain.Item, 0, len(items))
	for _, item := range items {
		if matchesWords(item.Name, words) {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func matchesWords(name string, words []string) bool {
	switch len(words) {
	case 0:
		return true
	case 1:
		return strings.Contains(strings.ToLower(name), words[0])
	}

	nice := strings.ToLower(domain.NicifyName(name))
	for _, w := range words {
		if !strings.Contains(nice, w) {
			return false
		}
	}
	return true
}
