package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/copperstill/stillhouse-backend/api/middleware"
	"github.com/copperstill/stillhouse-backend/api/responses"
	"github.com/copperstill/stillhouse-backend/api/validators"
	"github.com/copperstill/stillhouse-backend/internal/consumption"
	"github.com/copperstill/stillhouse-backend/internal/costs"
	"github.com/copperstill/stillhouse-backend/pkg/db/models"
	"github.com/copperstill/stillhouse-backend/pkg/enums"
	pkgerrors "github.com/copperstill/stillhouse-backend/pkg/errors"
	"github.com/copperstill/stillhouse-backend/pkg/logger"
)

type batchConsumeRequest struct {
	BatchType  string                  `json:"batch_type" validate:"required"`
	Selections []batchSelectionRequest `json:"selections" validate:"dive"`
	Water      *waterAdditionRequest   `json:"water"`
	CreatedBy  *string                 `json:"created_by" validate:"omitempty,uuid"`
}

type batchSelectionRequest struct {
	ItemID   string          `json:"item_id" validate:"required,uuid"`
	Quantity decimal.Decimal `json:"quantity" validate:"required"`
}

type waterAdditionRequest struct {
	Quantity decimal.Decimal `json:"quantity" validate:"required"`
	Unit     string          `json:"unit"`
}

func (r batchConsumeRequest) toInput(batchID uuid.UUID) (consumption.ConsumeInput, error) {
	batchType, err := enums.ParseBatchType(strings.TrimSpace(r.BatchType))
	if err != nil {
		return consumption.ConsumeInput{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid batch type")
	}

	input := consumption.ConsumeInput{
		BatchID:   batchID,
		BatchType: batchType,
	}

	for _, sel := range r.Selections {
		itemID, err := uuid.Parse(strings.TrimSpace(sel.ItemID))
		if err != nil {
			return consumption.ConsumeInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid selection item_id")
		}
		input.Selections = append(input.Selections, consumption.MaterialSelection{
			ItemID:   itemID,
			Quantity: sel.Quantity,
		})
	}

	if r.Water != nil {
		input.Water = &consumption.WaterAddition{Quantity: r.Water.Quantity, Unit: r.Water.Unit}
	}

	if r.CreatedBy != nil {
		createdBy, err := uuid.Parse(strings.TrimSpace(*r.CreatedBy))
		if err != nil {
			return consumption.ConsumeInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid created_by")
		}
		input.CreatedBy = &createdBy
	}

	return input, nil
}

// BatchConsume commits material consumption against a batch.
func BatchConsume(svc consumption.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orgID := middleware.OrgIDFromContext(r.Context())
		batchID, err := uuid.Parse(chi.URLParam(r, "batchID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid batch id"))
			return
		}

		var payload batchConsumeRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput(batchID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithBatchID(ctx, batchID.String())
		}

		result, err := svc.ConsumeForBatch(ctx, orgID, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

type batchCostRequest struct {
	BatchType string `json:"batch_type" validate:"required"`
}

type batchCostResponse struct {
	BatchID       uuid.UUID       `json:"batch_id"`
	BatchType     enums.BatchType `json:"batch_type"`
	EthanolCost   decimal.Decimal `json:"ethanol_cost"`
	BotanicalCost decimal.Decimal `json:"botanical_cost"`
	PackagingCost decimal.Decimal `json:"packaging_cost"`
	OtherCost     decimal.Decimal `json:"other_cost"`
	TotalCost     decimal.Decimal `json:"total_cost"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func batchCostResponseFromModel(m *models.BatchCostSummary) batchCostResponse {
	return batchCostResponse{
		BatchID:       m.BatchID,
		BatchType:     m.BatchType,
		EthanolCost:   m.EthanolCost,
		BotanicalCost: m.BotanicalCost,
		PackagingCost: m.PackagingCost,
		OtherCost:     m.OtherCost,
		TotalCost:     m.TotalCost,
		UpdatedAt:     m.UpdatedAt,
	}
}

// BatchCostRecompute rebuilds the batch's cost summary from its material
// lines.
func BatchCostRecompute(svc costs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orgID := middleware.OrgIDFromContext(r.Context())
		batchID, err := uuid.Parse(chi.URLParam(r, "batchID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid batch id"))
			return
		}

		var payload batchCostRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		batchType, err := enums.ParseBatchType(strings.TrimSpace(payload.BatchType))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid batch type"))
			return
		}

		summary, err := svc.RecomputeBatchCost(r.Context(), orgID, batchID, batchType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, batchCostResponseFromModel(summary))
	}
}

// BatchCosts returns the stored cost summary for a batch.
func BatchCosts(svc costs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orgID := middleware.OrgIDFromContext(r.Context())
		batchID, err := uuid.Parse(chi.URLParam(r, "batchID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid batch id"))
			return
		}

		batchType, err := enums.ParseBatchType(strings.TrimSpace(r.URL.Query().Get("batch_type")))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid batch type"))
			return
		}

		summary, err := svc.Get(r.Context(), orgID, batchID, batchType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, batchCostResponseFromModel(summary))
	}
}
