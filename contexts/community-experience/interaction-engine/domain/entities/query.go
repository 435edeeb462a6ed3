package entities

import "strings"

// CategoryAll is the sentinel that disables the category filter.
const CategoryAll = "All"

type SortKey string

const (
	SortKeyPopularity SortKey = "popularity"
	SortKeyRecency    SortKey = "recency"
	SortKeyUnanswered SortKey = "unanswered"
)

// ParseSortKey also accepts the short forms used by the forum page.
func ParseSortKey(raw string) (SortKey, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "popularity", "popular":
		return SortKeyPopularity, true
	case "recency", "recent":
		return SortKeyRecency, true
	case "unanswered":
		return SortKeyUnanswered, true
	default:
		return "", false
	}
}

// IsAllCategory reports whether value is the sentinel or one of the page
// spellings of it ("All Topics" on the forum, "All Categories" on groups).
func IsAllCategory(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "all", "all topics", "all categories":
		return true
	default:
		return false
	}
}

// QueryState parameterizes a derivation. It owns no items.
type QueryState struct {
	SelectedCategory string
	SearchText       string
	SortKey          SortKey
}

func NewQueryState() QueryState {
	return QueryState{
		SelectedCategory: CategoryAll,
		SearchText:       "",
		SortKey:          SortKeyPopularity,
	}
}
