package queries

import (
	"cmp"
	"iter"
	"slices"
	"strings"

	"qconnect/contexts/community-experience/interaction-engine/domain/entities"

	"golang.org/x/text/cases"
)

// Sequence is a derived, ordered view of items. It can be ranged over any
// number of times and never aliases the collection it was derived from.
type Sequence struct {
	items []entities.Item
}

// All yields (position, item) pairs in display order.
func (s Sequence) All() iter.Seq2[int, entities.Item] {
	return func(yield func(int, entities.Item) bool) {
		for i, item := range s.items {
			if !yield(i, item.Clone()) {
				return
			}
		}
	}
}

func (s Sequence) Len() int {
	return len(s.items)
}

// Items returns a copy of the ordered items.
func (s Sequence) Items() []entities.Item {
	out := make([]entities.Item, 0, len(s.items))
	for _, item := range s.items {
		out = append(out, item.Clone())
	}
	return out
}

func (s Sequence) IDs() []string {
	ids := make([]string, 0, len(s.items))
	for _, item := range s.items {
		ids = append(ids, item.ItemID)
	}
	return ids
}

// Derive filters by category, then by search text, then stable-sorts by the
// selected key. Input order is the insertion order used to break ties.
func Derive(items []entities.Item, state entities.QueryState) Sequence {
	folder := cases.Fold()
	needle := folder.String(state.SearchText)

	out := make([]entities.Item, 0, len(items))
	for _, item := range items {
		if !matchesCategory(item, state.SelectedCategory) {
			continue
		}
		if needle != "" && !strings.Contains(folder.String(item.SearchableText()), needle) {
			continue
		}
		out = append(out, item.Clone())
	}

	slices.SortStableFunc(out, comparator(state.SortKey))
	return Sequence{items: out}
}

func matchesCategory(item entities.Item, selected string) bool {
	if entities.IsAllCategory(selected) {
		return true
	}
	return item.Category == selected
}

func comparator(key entities.SortKey) func(a, b entities.Item) int {
	switch key {
	case entities.SortKeyRecency:
		return func(a, b entities.Item) int {
			return b.CreatedAt.Compare(a.CreatedAt)
		}
	case entities.SortKeyUnanswered:
		return func(a, b entities.Item) int {
			return cmp.Compare(a.SecondaryMetric, b.SecondaryMetric)
		}
	default:
		return func(a, b entities.Item) int {
			return cmp.Compare(b.Score, a.Score)
		}
	}
}
