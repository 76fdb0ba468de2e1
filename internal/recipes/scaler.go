package recipes

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/copperstill/stillhouse-backend/pkg/db/models"
	pkgerrors "github.com/copperstill/stillhouse-backend/pkg/errors"
)

// toleranceFraction is the conservation band: 1% of the target volume, in
// litres of absolute alcohol. A difference of exactly the tolerance is fine.
var toleranceFraction = decimal.RequireFromString("0.01")

var oneHundred = decimal.NewFromInt(100)

// ScaledIngredient is one formulation line scaled to the target volume.
type ScaledIngredient struct {
	ItemID         uuid.UUID       `json:"item_id"`
	Name           string          `json:"name"`
	BaseQuantity   decimal.Decimal `json:"base_quantity"`
	Quantity       decimal.Decimal `json:"quantity"`
	Unit           string          `json:"unit"`
	ProcessingStep string          `json:"processing_step"`
	IsAlcohol      bool            `json:"is_alcohol"`
}

// ConservationWarning reports an alcohol balance that the scaled recipe does
// not conserve. It is advisory: scaling always returns the scaled quantities.
type ConservationWarning struct {
	ExpectedLAL decimal.Decimal `json:"expected_lal"`
	ActualLAL   decimal.Decimal `json:"actual_lal"`
	// Difference is ActualLAL minus ExpectedLAL: positive means the scaled
	// recipe carries more absolute alcohol than the bottling target implies.
	Difference decimal.Decimal `json:"difference"`
}

// ScaleResult is the full outcome of scaling a recipe to a target volume.
type ScaleResult struct {
	RecipeID        uuid.UUID            `json:"recipe_id"`
	RecipeName      string               `json:"recipe_name"`
	BaselineVolumeL decimal.Decimal      `json:"baseline_volume_l"`
	TargetVolumeL   decimal.Decimal      `json:"target_volume_l"`
	ScaleFactor     decimal.Decimal      `json:"scale_factor"`
	Ingredients     []ScaledIngredient   `json:"ingredients"`
	Warning         *ConservationWarning `json:"warning,omitempty"`
}

// Scale linearly scales every ingredient of the recipe from the baseline
// volume to the target volume, then checks that litres of absolute alcohol
// are conserved within 1% of the target volume.
//
// The first alcohol-bearing ingredient in authored order drives the check:
// baseline LAL is its quantity times its ABV, expected LAL is the target
// volume times the recipe's target bottling strength. Recipes without a
// target ABV or without an alcohol ingredient skip the check.
func Scale(recipe *models.Recipe, baselineVolumeL, targetVolumeL decimal.Decimal) (*ScaleResult, error) {
	if recipe == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidRecipe, "recipe is required")
	}
	if !targetVolumeL.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "target volume must be positive")
	}
	if !baselineVolumeL.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidRecipe, "recipe has no usable baseline volume")
	}

	scaleFactor := targetVolumeL.Div(baselineVolumeL)

	result := &ScaleResult{
		RecipeID:        recipe.ID,
		RecipeName:      recipe.Name,
		BaselineVolumeL: baselineVolumeL,
		TargetVolumeL:   targetVolumeL,
		ScaleFactor:     scaleFactor,
		Ingredients:     make([]ScaledIngredient, 0, len(recipe.Ingredients)),
	}

	for _, line := range recipe.Ingredients {
		result.Ingredients = append(result.Ingredients, ScaledIngredient{
			ItemID:         line.ItemID,
			Name:           line.Item.Name,
			BaseQuantity:   line.QuantityPerBaseline,
			Quantity:       line.QuantityPerBaseline.Mul(scaleFactor),
			Unit:           line.Unit,
			ProcessingStep: line.ProcessingStep,
			IsAlcohol:      line.Item.IsAlcohol,
		})
	}

	result.Warning = conservationCheck(recipe, scaleFactor, targetVolumeL)
	return result, nil
}

func conservationCheck(recipe *models.Recipe, scaleFactor, targetVolumeL decimal.Decimal) *ConservationWarning {
	if recipe.TargetABV == nil || recipe.TargetABV.IsZero() {
		return nil
	}

	var alcohol *models.RecipeIngredient
	for i := range recipe.Ingredients {
		line := &recipe.Ingredients[i]
		if line.Item.IsAlcohol && line.Item.ABVPercent != nil {
			alcohol = line
			break
		}
	}
	if alcohol == nil {
		return nil
	}

	baselineLAL := alcohol.QuantityPerBaseline.Mul(alcohol.Item.ABVPercent.Div(oneHundred))
	actualLAL := baselineLAL.Mul(scaleFactor)
	expectedLAL := targetVolumeL.Mul(*recipe.TargetABV)

	difference := actualLAL.Sub(expectedLAL)
	tolerance := targetVolumeL.Mul(toleranceFraction)
	if difference.Abs().LessThanOrEqual(tolerance) {
		return nil
	}

	return &ConservationWarning{
		ExpectedLAL: expectedLAL,
		ActualLAL:   actualLAL,
		Difference:  difference,
	}
}
