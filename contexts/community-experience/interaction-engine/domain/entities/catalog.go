package entities

import (
	"fmt"
	"strings"

	domainerrors "qconnect/contexts/community-experience/interaction-engine/domain/errors"
)

// Validate checks the load-time invariants: unique ids, known kinds, known
// categories, and seeded records that point at items of the right kind.
func (c Catalog) Validate() error {
	categories := make(map[string]struct{}, len(c.Categories))
	for _, category := range c.Categories {
		category = strings.TrimSpace(category)
		if category == "" || IsAllCategory(category) {
			return fmt.Errorf("%w: category %q is reserved or empty", domainerrors.ErrInvalidCatalog, category)
		}
		categories[category] = struct{}{}
	}

	kinds := make(map[string]ItemKind, len(c.Items))
	for _, item := range c.Items {
		id := strings.TrimSpace(item.ItemID)
		if id == "" {
			return fmt.Errorf("%w: item id is required", domainerrors.ErrInvalidCatalog)
		}
		if _, dup := kinds[id]; dup {
			return fmt.Errorf("%w: duplicate item id %q", domainerrors.ErrInvalidCatalog, id)
		}
		if item.Kind != ItemKindPost && item.Kind != ItemKindGroup {
			return fmt.Errorf("%w: item %q has unknown kind %q", domainerrors.ErrInvalidCatalog, id, item.Kind)
		}
		if _, ok := categories[item.Category]; !ok {
			return fmt.Errorf("%w: item %q: %w %q", domainerrors.ErrInvalidCatalog, id, domainerrors.ErrInvalidCategory, item.Category)
		}
		kinds[id] = item.Kind
	}

	for _, vote := range c.Votes {
		if kinds[strings.TrimSpace(vote.ItemID)] != ItemKindPost {
			return fmt.Errorf("%w: seeded vote on %q: %w", domainerrors.ErrInvalidCatalog, vote.ItemID, domainerrors.ErrInvalidItem)
		}
		if strings.TrimSpace(vote.ActorID) == "" {
			return fmt.Errorf("%w: seeded vote on %q: %w", domainerrors.ErrInvalidCatalog, vote.ItemID, domainerrors.ErrInvalidActor)
		}
	}
	for _, membership := range c.Memberships {
		if kinds[strings.TrimSpace(membership.GroupID)] != ItemKindGroup {
			return fmt.Errorf("%w: seeded membership on %q: %w", domainerrors.ErrInvalidCatalog, membership.GroupID, domainerrors.ErrInvalidGroup)
		}
		if strings.TrimSpace(membership.ActorID) == "" {
			return fmt.Errorf("%w: seeded membership on %q: %w", domainerrors.ErrInvalidCatalog, membership.GroupID, domainerrors.ErrInvalidActor)
		}
	}
	return nil
}
