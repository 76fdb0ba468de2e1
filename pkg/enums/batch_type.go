package enums

import "fmt"

// BatchType maps to the batch_type_enum enum in Postgres.
type BatchType string

const (
	BatchTypeGin        BatchType = "gin"
	BatchTypeVodka      BatchType = "vodka"
	BatchTypeRum        BatchType = "rum"
	BatchTypeCaneSpirit BatchType = "cane_spirit"
)

var validBatchTypes = []BatchType{
	BatchTypeGin,
	BatchTypeVodka,
	BatchTypeRum,
	BatchTypeCaneSpirit,
}

// IsValid reports whether the value matches the canonical batch type enum.
func (b BatchType) IsValid() bool {
	for _, candidate := range validBatchTypes {
		if candidate == b {
			return true
		}
	}
	return false
}

// ParseBatchType converts raw input into BatchType.
func ParseBatchType(value string) (BatchType, error) {
	for _, candidate := range validBatchTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid batch type %q", value)
}
