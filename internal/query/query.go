// Package query filters and sorts cached item snapshots.
package query

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/neststash/neststash/internal/model"
)

// Filters are the active filter predicates. All non-empty conditions
// are ANDed; matching is case-insensitive.
type Filters struct {
	Search   string `json:"search"`
	Category string `json:"category"`
	Shop     string `json:"shop"`
}

// Engine applies filters and a stable sort over an item snapshot.
// String fields compare with a locale-aware collator.
type Engine struct {
	collator *collate.Collator
}

func New() *Engine {
	return &Engine{collator: collate.New(language.Und, collate.Loose)}
}

// Apply returns the items matching every active filter, ordered by the
// sort spec. The input slice is never modified; ties keep their input
// order for both directions.
func (e *Engine) Apply(items []model.Item, filters Filters, sortSpec model.SortSpec) []model.Item {
	result := make([]model.Item, 0, len(items))
	for _, item := range items {
		if matches(item, filters) {
			result = append(result, item)
		}
	}

	desc := sortSpec.Direction == "desc"
	sort.SliceStable(result, func(i, j int) bool {
		r := e.compare(result[i], result[j], sortSpec.Field)
		if desc {
			r = -r
		}
		return r < 0
	})

	return result
}

func matches(item model.Item, filters Filters) bool {
	if filters.Search != "" {
		term := strings.ToLower(filters.Search)
		if !strings.Contains(strings.ToLower(item.Name), term) &&
			!strings.Contains(strings.ToLower(item.Shop), term) &&
			!strings.Contains(strings.ToLower(item.Notes), term) &&
			!strings.Contains(strings.ToLower(item.Category), term) {
			return false
		}
	}
	if filters.Category != "" && !strings.EqualFold(item.Category, filters.Category) {
		return false
	}
	if filters.Shop != "" && !strings.EqualFold(item.Shop, filters.Shop) {
		return false
	}
	return true
}

// compare orders a before b when negative. Missing shop and price sort
// as empty string and zero; an unrecognized field falls back to date.
func (e *Engine) compare(a, b model.Item, field string) int {
	switch field {
	case "name":
		return e.collator.CompareString(a.Name, b.Name)
	case "category":
		return e.collator.CompareString(a.Category, b.Category)
	case "shop":
		return e.collator.CompareString(a.Shop, b.Shop)
	case "price":
		switch {
		case a.Price < b.Price:
			return -1
		case a.Price > b.Price:
			return 1
		}
		return 0
	default:
		return a.DateAdded.Compare(b.DateAdded)
	}
}
