package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/copperstill/stillhouse-backend/api/middleware"
	"github.com/copperstill/stillhouse-backend/api/responses"
	"github.com/copperstill/stillhouse-backend/api/validators"
	"github.com/copperstill/stillhouse-backend/internal/lots"
	"github.com/copperstill/stillhouse-backend/internal/stock"
	"github.com/copperstill/stillhouse-backend/pkg/db/models"
	"github.com/copperstill/stillhouse-backend/pkg/enums"
	pkgerrors "github.com/copperstill/stillhouse-backend/pkg/errors"
	"github.com/copperstill/stillhouse-backend/pkg/logger"
)

// ItemStock reports the item's folded on-hand position.
func ItemStock(svc stock.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orgID := middleware.OrgIDFromContext(r.Context())
		itemID, err := uuid.Parse(chi.URLParam(r, "itemID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item id"))
			return
		}

		result, err := svc.OnHand(r.Context(), orgID, itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

type lotResponse struct {
	ID           uuid.UUID       `json:"id"`
	ItemID       uuid.UUID       `json:"item_id"`
	Code         string          `json:"code"`
	ReceivedDate *time.Time      `json:"received_date"`
	RemainingQty decimal.Decimal `json:"remaining_qty"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
	Supplier     *string         `json:"supplier,omitempty"`
	Note         *string         `json:"note,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

func lotResponseFromModel(m models.Lot) lotResponse {
	return lotResponse{
		ID:           m.ID,
		ItemID:       m.ItemID,
		Code:         m.Code,
		ReceivedDate: m.ReceivedDate,
		RemainingQty: m.RemainingQty,
		UnitCost:     m.UnitCost,
		Supplier:     m.Supplier,
		Note:         m.Note,
		CreatedAt:    m.CreatedAt,
	}
}

// ItemLots lists the item's open lots in consumption order.
func ItemLots(svc lots.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orgID := middleware.OrgIDFromContext(r.Context())
		itemID, err := uuid.Parse(chi.URLParam(r, "itemID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item id"))
			return
		}

		open, err := svc.OpenByItem(r.Context(), orgID, itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]lotResponse, 0, len(open))
		for _, lot := range open {
			out = append(out, lotResponseFromModel(lot))
		}
		responses.WriteSuccess(w, out)
	}
}

// LotStockDetail reports a single lot's ledger fold next to its stored
// balance. Divergence between the two is logged by the service as drift.
func LotStockDetail(svc stock.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orgID := middleware.OrgIDFromContext(r.Context())
		lotID, err := uuid.Parse(chi.URLParam(r, "lotID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid lot id"))
			return
		}

		result, err := svc.LotStock(r.Context(), orgID, lotID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

type transactionResponse struct {
	ID            uuid.UUID             `json:"id"`
	ItemID        uuid.UUID             `json:"item_id"`
	LotID         *uuid.UUID            `json:"lot_id,omitempty"`
	Type          enums.TransactionType `json:"type"`
	Quantity      decimal.Decimal       `json:"quantity"`
	Delta         *decimal.Decimal      `json:"delta,omitempty"`
	Unit          string                `json:"unit"`
	ReferenceType *string               `json:"reference_type,omitempty"`
	ReferenceID   *uuid.UUID            `json:"reference_id,omitempty"`
	UnitCost      *decimal.Decimal      `json:"unit_cost,omitempty"`
	TotalCost     *decimal.Decimal      `json:"total_cost,omitempty"`
	Note          *string               `json:"note,omitempty"`
	CreatedAt     time.Time             `json:"created_at"`
}

func transactionResponseFromModel(m models.InventoryTransaction) transactionResponse {
	return transactionResponse{
		ID:            m.ID,
		ItemID:        m.ItemID,
		LotID:         m.LotID,
		Type:          m.Type,
		Quantity:      m.Quantity,
		Delta:         m.Delta,
		Unit:          m.Unit,
		ReferenceType: m.ReferenceType,
		ReferenceID:   m.ReferenceID,
		UnitCost:      m.UnitCost,
		TotalCost:     m.TotalCost,
		Note:          m.Note,
		CreatedAt:     m.CreatedAt,
	}
}

// ItemTransactions lists the item's most recent ledger entries.
func ItemTransactions(svc stock.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orgID := middleware.OrgIDFromContext(r.Context())
		itemID, err := uuid.Parse(chi.URLParam(r, "itemID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item id"))
			return
		}

		var lotID *uuid.UUID
		if raw := r.URL.Query().Get("lot_id"); raw != "" {
			parsed, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid lot id"))
				return
			}
			lotID = &parsed
		}

		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid limit"))
				return
			}
			limit = parsed
		}

		entries, err := svc.RecentTransactions(r.Context(), orgID, itemID, lotID, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]transactionResponse, 0, len(entries))
		for _, entry := range entries {
			out = append(out, transactionResponseFromModel(entry))
		}
		responses.WriteSuccess(w, out)
	}
}

type availabilityRequest struct {
	Requirements []availabilityRequirement `json:"requirements" validate:"required,min=1,dive"`
}

type availabilityRequirement struct {
	ItemID   string          `json:"item_id" validate:"required,uuid"`
	Quantity decimal.Decimal `json:"quantity" validate:"required"`
}

// StockAvailability runs the sufficiency check for a set of requirements.
func StockAvailability(svc stock.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orgID := middleware.OrgIDFromContext(r.Context())

		var payload availabilityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		requirements := make([]stock.Requirement, 0, len(payload.Requirements))
		for _, req := range payload.Requirements {
			itemID, err := uuid.Parse(req.ItemID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item id"))
				return
			}
			requirements = append(requirements, stock.Requirement{ItemID: itemID, Quantity: req.Quantity})
		}

		result, err := svc.CheckAvailability(r.Context(), orgID, requirements)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

type adjustRequest struct {
	ItemID string          `json:"item_id" validate:"required,uuid"`
	LotID  *string         `json:"lot_id" validate:"omitempty,uuid"`
	Delta  decimal.Decimal `json:"delta" validate:"required"`
	Note   *string         `json:"note"`
}

// StockAdjust records a signed manual correction.
func StockAdjust(svc lots.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orgID := middleware.OrgIDFromContext(r.Context())

		var payload adjustRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		itemID, err := uuid.Parse(payload.ItemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item id"))
			return
		}

		input := lots.AdjustInput{ItemID: itemID, Delta: payload.Delta, Note: payload.Note}
		if payload.LotID != nil {
			lotID, err := uuid.Parse(*payload.LotID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid lot id"))
				return
			}
			input.LotID = &lotID
		}

		entry, err := svc.Adjust(r.Context(), orgID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, transactionResponseFromModel(*entry))
	}
}
