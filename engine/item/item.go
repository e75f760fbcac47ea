// Package item holds the record model shared by list views, mutation
// coordinators, the REST client and the mock backend.
package item

import (
	"maps"
	"slices"
	"strings"

	"golang.org/x/text/cases"
)

// Item is one record of a managed collection. Key is its identity; Fields
// holds display values keyed by their wire name.
type Item struct {
	Key    string            `json:"key"`
	Fields map[string]string `json:"fields"`
}

// Get returns the named field or an empty string.
func (i Item) Get(name string) string {
	if i.Fields == nil {
		return ""
	}
	return i.Fields[name]
}

// Clone returns a copy that shares no maps with i.
func (i Item) Clone() Item {
	return Item{Key: i.Key, Fields: maps.Clone(i.Fields)}
}

// Fold returns the case-folded form of s used for identity comparisons.
func Fold(s string) string {
	return cases.Fold().String(s)
}

// SameKey compares two identities case-insensitively.
func SameKey(a, b string) bool {
	if a == b {
		return true
	}
	return Fold(a) == Fold(b)
}

// Find returns the first item whose key matches key case-insensitively.
func Find(items []Item, key string) (Item, bool) {
	idx := slices.IndexFunc(items, func(it Item) bool { return SameKey(it.Key, key) })
	if idx < 0 {
		return Item{}, false
	}
	return items[idx], true
}

// CloneAll deep-copies a collection. A nil input stays nil.
func CloneAll(items []Item) []Item {
	if items == nil {
		return nil
	}
	out := make([]Item, len(items))
	for i, it := range items {
		out[i] = it.Clone()
	}
	return out
}

// Matches reports whether any of the given fields contains the folded needle.
func (i Item) Matches(needle string, fields []string) bool {
	needle = Fold(strings.TrimSpace(needle))
	if needle == "" {
		return true
	}
	if strings.Contains(Fold(i.Key), needle) {
		return true
	}
	for _, f := range fields {
		if strings.Contains(Fold(i.Get(f)), needle) {
			return true
		}
	}
	return false
}
