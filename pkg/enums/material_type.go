package enums

import "fmt"

// MaterialType maps to the batch_material_type_enum enum in Postgres. It
// decides which cost bucket a batch material line rolls into.
type MaterialType string

const (
	MaterialTypeEthanol   MaterialType = "ethanol"
	MaterialTypeWater     MaterialType = "water"
	MaterialTypeBotanical MaterialType = "botanical"
	MaterialTypePackaging MaterialType = "packaging"
	MaterialTypeOther     MaterialType = "other"
)

var validMaterialTypes = []MaterialType{
	MaterialTypeEthanol,
	MaterialTypeWater,
	MaterialTypeBotanical,
	MaterialTypePackaging,
	MaterialTypeOther,
}

// IsValid reports whether the value matches the canonical material enum.
func (m MaterialType) IsValid() bool {
	for _, candidate := range validMaterialTypes {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseMaterialType converts raw input into MaterialType.
func ParseMaterialType(value string) (MaterialType, error) {
	for _, candidate := range validMaterialTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid material type %q", value)
}

// MaterialTypeForCategory maps an item's catalog category onto the material
// bucket used by batch cost roll-ups.
func MaterialTypeForCategory(category ItemCategory) MaterialType {
	switch {
	case category == ItemCategorySpirit:
		return MaterialTypeEthanol
	case category == ItemCategoryBotanical:
		return MaterialTypeBotanical
	case category.IsPackaging():
		return MaterialTypePackaging
	default:
		return MaterialTypeOther
	}
}
