// Package feed filters and aggregates experiences. Every function is pure:
// inputs are never mutated and results are freshly allocated.
package feed

import (
	"strings"

	"tripshare/internal/model"
)

// ParseFilter maps a type query parameter to a filter. Empty means all.
func ParseFilter(s string) (model.Category, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == string(model.CategoryAll) {
		return model.CategoryAll, nil
	}
	return model.ParseCategory(s)
}

// Query returns the experiences matching both the search term and the
// category filter, keeping their relative order.
//
// An empty term matches everything. Otherwise the lower-cased term must be a
// substring of the lower-cased place name, description, location or tips.
func Query(experiences []model.Experience, term string, filter model.Category) []model.Experience {
	needle := strings.ToLower(term)

	out := make([]model.Experience, 0, len(experiences))
	for _, exp := range experiences {
		if matchesTerm(exp, needle) && matchesType(exp, filter) {
			out = append(out, exp)
		}
	}
	return out
}

func matchesTerm(exp model.Experience, needle string) bool {
	if needle == "" {
		return true
	}
	for _, field := range [...]string{exp.PlaceName, exp.Description, exp.Location, exp.Tips} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

func matchesType(exp model.Experience, filter model.Category) bool {
	return filter == model.CategoryAll || filter == "" || exp.Type == filter
}
