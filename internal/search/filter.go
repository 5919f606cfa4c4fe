package search

import (
	"errors"
	"strings"

	"github.com/nao1215/ransomwatch/internal/classify"
	"github.com/nao1215/ransomwatch/internal/model"
)

// ErrUnknownCollection is returned for a collection name that does not exist.
var ErrUnknownCollection = errors.New("unknown collection")

// AttackViewLimit is the number of attacks listed by the attack view.
const AttackViewLimit = 100

// Filter returns the elements of items that contain query.
//
// Nil elements are always dropped. An empty query returns the remaining
// elements unchanged; when items holds no nil element, items itself is
// returned. Otherwise an element is kept when any of its fields contains
// the query, ignoring case. Order is preserved.
func Filter[T any, P interface {
	*T
	model.Record
}](items []P, query string) []P {
	clean := dropNil(items)
	if query == "" {
		return clean
	}

	needle := classify.Fold(query)
	matched := make([]P, 0, len(clean))
	for _, item := range clean {
		if matches(item, needle) {
			matched = append(matched, item)
		}
	}
	return matched
}

// dropNil returns items without nil elements. items is returned as is
// when it has none.
func dropNil[T any, P interface {
	*T
	model.Record
}](items []P) []P {
	for i, item := range items {
		if item != nil {
			continue
		}
		clean := make([]P, i, len(items))
		copy(clean, items[:i])
		for _, rest := range items[i+1:] {
			if rest != nil {
				clean = append(clean, rest)
			}
		}
		return clean
	}
	return items
}

// matches reports whether any field of record contains the folded needle.
func matches(record model.Record, needle string) bool {
	for _, f := range record.Fields() {
		if strings.Contains(classify.Fold(f.Value), needle) {
			return true
		}
	}
	return false
}

// Limit returns at most n leading elements of items.
// A non-positive n returns items unchanged.
func Limit[T any](items []T, n int) []T {
	if n <= 0 || len(items) <= n {
		return items
	}
	return items[:n]
}
