package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/copperstill/stillhouse-backend/api/middleware"
	"github.com/copperstill/stillhouse-backend/api/responses"
	"github.com/copperstill/stillhouse-backend/api/validators"
	"github.com/copperstill/stillhouse-backend/internal/recipes"
	pkgerrors "github.com/copperstill/stillhouse-backend/pkg/errors"
	"github.com/copperstill/stillhouse-backend/pkg/logger"
)

type recipeScaleRequest struct {
	TargetVolumeL decimal.Decimal `json:"target_volume_l" validate:"required"`
}

// RecipeScale scales a recipe's ingredients to the requested batch volume.
func RecipeScale(svc recipes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orgID := middleware.OrgIDFromContext(r.Context())
		recipeID, err := uuid.Parse(chi.URLParam(r, "recipeID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid recipe id"))
			return
		}

		var payload recipeScaleRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ScaleRecipe(r.Context(), orgID, recipeID, payload.TargetVolumeL)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
