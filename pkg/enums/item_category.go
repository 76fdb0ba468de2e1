package enums

import (
	"fmt"
	"strings"
)

// ItemCategory maps to the item_category_enum enum in Postgres.
type ItemCategory string

const (
	ItemCategorySpirit           ItemCategory = "spirit"
	ItemCategoryBotanical        ItemCategory = "botanical"
	ItemCategoryPackagingBottle  ItemCategory = "packaging_bottle"
	ItemCategoryPackagingClosure ItemCategory = "packaging_closure"
	ItemCategoryPackagingLabel   ItemCategory = "packaging_label"
	ItemCategoryPackagingBox     ItemCategory = "packaging_box"
	ItemCategoryOther            ItemCategory = "other"
)

var validItemCategories = []ItemCategory{
	ItemCategorySpirit,
	ItemCategoryBotanical,
	ItemCategoryPackagingBottle,
	ItemCategoryPackagingClosure,
	ItemCategoryPackagingLabel,
	ItemCategoryPackagingBox,
	ItemCategoryOther,
}

// IsValid reports whether the value matches the canonical item category enum.
func (c ItemCategory) IsValid() bool {
	for _, candidate := range validItemCategories {
		if candidate == c {
			return true
		}
	}
	return false
}

// IsPackaging reports whether the category is one of the packaging_* values.
func (c ItemCategory) IsPackaging() bool {
	return strings.HasPrefix(string(c), "packaging_")
}

// ParseItemCategory converts raw input into ItemCategory.
func ParseItemCategory(value string) (ItemCategory, error) {
	for _, candidate := range validItemCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid item category %q", value)
}
