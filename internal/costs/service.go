package costs

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/copperstill/stillhouse-backend/internal/materials"
	"github.com/copperstill/stillhouse-backend/pkg/db/models"
	"github.com/copperstill/stillhouse-backend/pkg/enums"
	pkgerrors "github.com/copperstill/stillhouse-backend/pkg/errors"
	"github.com/copperstill/stillhouse-backend/pkg/logger"
)

// Service rolls committed batch material lines into cost summaries.
type Service interface {
	RecomputeBatchCost(ctx context.Context, orgID, batchID uuid.UUID, batchType enums.BatchType) (*models.BatchCostSummary, error)
	Get(ctx context.Context, orgID, batchID uuid.UUID, batchType enums.BatchType) (*models.BatchCostSummary, error)
}

type service struct {
	repo      Repository
	materials materials.Repository
	logg      *logger.Logger
}

// NewService wires the cost aggregation service.
func NewService(repo Repository, materialRepo materials.Repository, logg *logger.Logger) (Service, error) {
	if repo == nil || materialRepo == nil || logg == nil {
		return nil, fmt.Errorf("cost service requires summary and material repositories and a logger")
	}
	return &service{repo: repo, materials: materialRepo, logg: logg}, nil
}

// RecomputeBatchCost folds every material line of the batch into the four
// cost buckets and overwrites the stored summary. Recomputing without new
// lines reproduces the same figures; nothing accumulates across runs.
func (s *service) RecomputeBatchCost(ctx context.Context, orgID, batchID uuid.UUID, batchType enums.BatchType) (*models.BatchCostSummary, error) {
	if orgID == uuid.Nil || batchID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "organization and batch ids are required")
	}
	if !batchType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid batch type %q", batchType))
	}

	lines, err := s.materials.ListByBatch(ctx, orgID, batchID, batchType)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load batch materials")
	}

	summary := &models.BatchCostSummary{
		OrganizationID: orgID,
		BatchID:        batchID,
		BatchType:      batchType,
		EthanolCost:    decimal.Zero,
		BotanicalCost:  decimal.Zero,
		PackagingCost:  decimal.Zero,
		OtherCost:      decimal.Zero,
		TotalCost:      decimal.Zero,
	}

	for _, line := range lines {
		switch line.MaterialType {
		case enums.MaterialTypeEthanol:
			summary.EthanolCost = summary.EthanolCost.Add(line.TotalCost)
		case enums.MaterialTypeBotanical:
			summary.BotanicalCost = summary.BotanicalCost.Add(line.TotalCost)
		case enums.MaterialTypePackaging:
			summary.PackagingCost = summary.PackagingCost.Add(line.TotalCost)
		default:
			// Water and untyped lines land here; water is costless anyway.
			summary.OtherCost = summary.OtherCost.Add(line.TotalCost)
		}
		summary.TotalCost = summary.TotalCost.Add(line.TotalCost)
	}

	if err := s.repo.Upsert(ctx, summary); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store cost summary")
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"batch_id":   batchID.String(),
		"batch_type": string(batchType),
		"total_cost": summary.TotalCost.String(),
		"lines":      len(lines),
	}), "batch cost summary recomputed")
	return summary, nil
}

func (s *service) Get(ctx context.Context, orgID, batchID uuid.UUID, batchType enums.BatchType) (*models.BatchCostSummary, error) {
	summary, err := s.repo.Find(ctx, orgID, batchID, batchType)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cost summary")
	}
	if summary == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no cost summary for batch")
	}
	return summary, nil
}
