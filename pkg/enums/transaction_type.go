package enums

import "fmt"

// TransactionType maps to the inventory_txn_type_enum enum in Postgres.
type TransactionType string

const (
	TransactionTypeReceive  TransactionType = "RECEIVE"
	TransactionTypeProduce  TransactionType = "PRODUCE"
	TransactionTypeConsume  TransactionType = "CONSUME"
	TransactionTypeTransfer TransactionType = "TRANSFER"
	TransactionTypeDestroy  TransactionType = "DESTROY"
	TransactionTypeAdjust   TransactionType = "ADJUST"
)

var validTransactionTypes = []TransactionType{
	TransactionTypeReceive,
	TransactionTypeProduce,
	TransactionTypeConsume,
	TransactionTypeTransfer,
	TransactionTypeDestroy,
	TransactionTypeAdjust,
}

// IsValid reports whether the value matches the canonical transaction enum.
func (t TransactionType) IsValid() bool {
	for _, candidate := range validTransactionTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseTransactionType converts raw input into TransactionType.
func ParseTransactionType(value string) (TransactionType, error) {
	for _, candidate := range validTransactionTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid transaction type %q", value)
}

// StockDirection pins the sign convention for the on-hand fold.
type StockDirection int

const (
	// StockInbound adds the entry's quantity magnitude.
	StockInbound StockDirection = 1
	// StockOutbound subtracts the entry's quantity magnitude.
	StockOutbound StockDirection = -1
	// StockSignedDelta ignores the magnitude and adds the entry's signed
	// delta column (ADJUST only).
	StockSignedDelta StockDirection = 0
)

// Direction returns how entries of this type contribute to on-hand stock.
func (t TransactionType) Direction() StockDirection {
	switch t {
	case TransactionTypeReceive, TransactionTypeProduce:
		return StockInbound
	case TransactionTypeConsume, TransactionTypeTransfer, TransactionTypeDestroy:
		return StockOutbound
	default:
		return StockSignedDelta
	}
}
