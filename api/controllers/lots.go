package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/copperstill/stillhouse-backend/api/middleware"
	"github.com/copperstill/stillhouse-backend/api/responses"
	"github.com/copperstill/stillhouse-backend/api/validators"
	"github.com/copperstill/stillhouse-backend/internal/lots"
	pkgerrors "github.com/copperstill/stillhouse-backend/pkg/errors"
	"github.com/copperstill/stillhouse-backend/pkg/logger"
)

type lotReceiveRequest struct {
	ItemID       string           `json:"item_id" validate:"required,uuid"`
	Code         string           `json:"code" validate:"required"`
	Quantity     decimal.Decimal  `json:"quantity" validate:"required"`
	Unit         string           `json:"unit"`
	UnitCost     *decimal.Decimal `json:"unit_cost"`
	ReceivedDate *time.Time       `json:"received_date"`
	Supplier     *string          `json:"supplier"`
	Note         *string          `json:"note"`
}

func (r lotReceiveRequest) toInput() (lots.ReceiveLotInput, error) {
	itemID, err := uuid.Parse(strings.TrimSpace(r.ItemID))
	if err != nil {
		return lots.ReceiveLotInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item_id")
	}

	unitCost := decimal.Zero
	if r.UnitCost != nil {
		unitCost = *r.UnitCost
	}

	return lots.ReceiveLotInput{
		ItemID:       itemID,
		Code:         strings.TrimSpace(r.Code),
		Quantity:     r.Quantity,
		Unit:         strings.TrimSpace(r.Unit),
		UnitCost:     unitCost,
		ReceivedDate: r.ReceivedDate,
		Supplier:     r.Supplier,
		Note:         r.Note,
	}, nil
}

// LotReceive creates a lot and its RECEIVE ledger entry.
func LotReceive(svc lots.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orgID := middleware.OrgIDFromContext(r.Context())

		var payload lotReceiveRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lot, err := svc.ReceiveLot(r.Context(), orgID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, lotResponseFromModel(*lot))
	}
}
