package recipes

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	pkgerrors "github.com/copperstill/stillhouse-backend/pkg/errors"
	"github.com/copperstill/stillhouse-backend/pkg/logger"
	"github.com/copperstill/stillhouse-backend/pkg/metrics"
)

// Service scales stored recipes to requested batch volumes.
type Service interface {
	ScaleRecipe(ctx context.Context, orgID, recipeID uuid.UUID, targetVolumeL decimal.Decimal) (*ScaleResult, error)
}

type service struct {
	repo            Repository
	defaultBaseline decimal.Decimal
	metrics         *metrics.ConsumptionMetrics
	logg            *logger.Logger
}

// NewService wires the scaling service. defaultBaseline substitutes for
// recipes authored before baseline volumes were recorded; an explicit zero
// baseline on the recipe still fails.
func NewService(repo Repository, defaultBaseline decimal.Decimal, m *metrics.ConsumptionMetrics, logg *logger.Logger) (Service, error) {
	if repo == nil || logg == nil {
		return nil, fmt.Errorf("recipe service requires a repository and logger")
	}
	return &service{repo: repo, defaultBaseline: defaultBaseline, metrics: m, logg: logg}, nil
}

func (s *service) ScaleRecipe(ctx context.Context, orgID, recipeID uuid.UUID, targetVolumeL decimal.Decimal) (*ScaleResult, error) {
	recipe, err := s.repo.FindByID(ctx, orgID, recipeID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "look up recipe")
	}
	if recipe == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "recipe not found")
	}

	baseline := s.defaultBaseline
	if recipe.BaselineVolumeL != nil {
		baseline = *recipe.BaselineVolumeL
	}

	result, err := Scale(recipe, baseline, targetVolumeL)
	if err != nil {
		return nil, err
	}

	if result.Warning != nil {
		s.metrics.IncConservationWarning()
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
			"recipe_id":    recipe.ID.String(),
			"expected_lal": result.Warning.ExpectedLAL.String(),
			"actual_lal":   result.Warning.ActualLAL.String(),
		}), "scaled recipe does not conserve absolute alcohol")
	}
	return result, nil
}
