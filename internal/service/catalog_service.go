package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mira-santoso/salonbook-api/internal/models"
	"github.com/mira-santoso/salonbook-api/internal/repository"
	appErrors "github.com/mira-santoso/salonbook-api/pkg/errors"
)

type catalogStore interface {
	GetByID(ctx context.Context, id string) (*repository.RawService, error)
	ListActive(ctx context.Context) ([]repository.RawService, error)
}

// CatalogService is the strict boundary in front of the service catalog.
// Rows are validated into fully populated models.Service values here; the
// booking engine never sees a nullable column or a silent zero default.
type CatalogService struct {
	repo   catalogStore
	logger *zap.Logger
}

// NewCatalogService builds a CatalogService.
func NewCatalogService(repo catalogStore, logger *zap.Logger) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{repo: repo, logger: logger}
}

// Get resolves one catalog entry. An unknown id is an input error for the
// booking path; a stored row that fails validation is a data fault and is
// never papered over with defaults.
func (s *CatalogService) Get(ctx context.Context, id string) (*models.Service, error) {
	raw, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrDependency.Code, appErrors.ErrDependency.Status, "catalog lookup failed")
	}
	if raw == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown service id %s", id))
	}
	svc, err := s.materialize(*raw)
	if err != nil {
		s.logger.Error("catalog row rejected", zap.String("service_id", id), zap.Error(err))
		return nil, err
	}
	return svc, nil
}

// ListActive returns the bookable catalog. Rows failing validation are
// skipped with a log line rather than failing the whole listing.
func (s *CatalogService) ListActive(ctx context.Context) ([]models.Service, error) {
	raws, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrDependency.Code, appErrors.ErrDependency.Status, "catalog listing failed")
	}
	services := make([]models.Service, 0, len(raws))
	for _, raw := range raws {
		svc, err := s.materialize(raw)
		if err != nil {
			s.logger.Warn("skipping invalid catalog row", zap.String("service_id", raw.ID), zap.Error(err))
			continue
		}
		services = append(services, *svc)
	}
	return services, nil
}

func (s *CatalogService) materialize(raw repository.RawService) (*models.Service, error) {
	if raw.ID == "" {
		return nil, appErrors.Clone(appErrors.ErrInternal, "catalog row missing id")
	}
	if !raw.Name.Valid || raw.Name.String == "" {
		return nil, appErrors.Clone(appErrors.ErrInternal, fmt.Sprintf("service %s has no name", raw.ID))
	}
	if !raw.DurationMinutes.Valid || raw.DurationMinutes.Int64 <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("service %s has no usable duration", raw.ID))
	}
	if !raw.Price.Valid || raw.Price.Float64 < 0 {
		return nil, appErrors.Clone(appErrors.ErrInternal, fmt.Sprintf("service %s has no usable price", raw.ID))
	}

	svc := &models.Service{
		ID:              raw.ID,
		Name:            raw.Name.String,
		DurationMinutes: int(raw.DurationMinutes.Int64),
		Price:           raw.Price.Float64,
		Active:          raw.Active,
	}
	if raw.CostBasis.Valid {
		svc.CostBasis = raw.CostBasis.Float64
	}
	if raw.PromoPrice.Valid {
		price := raw.PromoPrice.Float64
		svc.PromoPrice = &price
	}
	if raw.PromoUntil.Valid {
		until := raw.PromoUntil.Time
		svc.PromoUntil = &until
	}
	return svc, nil
}

// EffectivePriceAt is a convenience passthrough used when completing an
// appointment: promo price while the promotion is live, list price after.
func (s *CatalogService) EffectivePriceAt(ctx context.Context, id string, at time.Time) (float64, error) {
	svc, err := s.Get(ctx, id)
	if err != nil {
		return 0, err
	}
	return svc.EffectivePrice(at), nil
}
