package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mira-santoso/salonbook-api/internal/repository"
	appErrors "github.com/mira-santoso/salonbook-api/pkg/errors"
)

func TestCatalogGetMaterializesRow(t *testing.T) {
	promo := 40000.0
	until := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	raw := rawService("svc-cut", "Haircut", 30, 50000)
	raw.PromoPrice = sql.NullFloat64{Float64: promo, Valid: true}
	raw.PromoUntil = sql.NullTime{Time: until, Valid: true}

	catalog := NewCatalogService(&stubCatalog{rows: map[string]repository.RawService{"svc-cut": raw}}, zap.NewNop())

	svc, err := catalog.Get(context.Background(), "svc-cut")
	require.NoError(t, err)
	assert.Equal(t, "Haircut", svc.Name)
	assert.Equal(t, 30, svc.DurationMinutes)
	require.NotNil(t, svc.PromoPrice)
	assert.Equal(t, promo, *svc.PromoPrice)
}

func TestCatalogGetUnknownID(t *testing.T) {
	catalog := NewCatalogService(&stubCatalog{rows: map[string]repository.RawService{}}, zap.NewNop())

	_, err := catalog.Get(context.Background(), "svc-missing")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "svc-missing")
}

func TestCatalogGetRejectsMissingDuration(t *testing.T) {
	raw := rawService("svc-bad", "Broken", 30, 50000)
	raw.DurationMinutes = sql.NullInt64{}
	catalog := NewCatalogService(&stubCatalog{rows: map[string]repository.RawService{"svc-bad": raw}}, zap.NewNop())

	_, err := catalog.Get(context.Background(), "svc-bad")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCatalogGetRejectsNamelessRow(t *testing.T) {
	raw := rawService("svc-bad", "", 30, 50000)
	raw.Name = sql.NullString{}
	catalog := NewCatalogService(&stubCatalog{rows: map[string]repository.RawService{"svc-bad": raw}}, zap.NewNop())

	_, err := catalog.Get(context.Background(), "svc-bad")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}

func TestCatalogGetWrapsStoreFailure(t *testing.T) {
	catalog := NewCatalogService(&stubCatalog{err: assert.AnError}, zap.NewNop())

	_, err := catalog.Get(context.Background(), "svc-cut")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrDependency.Code, appErrors.FromError(err).Code)
}

func TestCatalogListSkipsInvalidRows(t *testing.T) {
	bad := rawService("svc-bad", "Broken", 0, 50000)
	bad.DurationMinutes = sql.NullInt64{}
	catalog := NewCatalogService(&stubCatalog{rows: map[string]repository.RawService{
		"svc-cut": rawService("svc-cut", "Haircut", 30, 50000),
		"svc-bad": bad,
	}}, zap.NewNop())

	services, err := catalog.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, services, 1)
	assert.Equal(t, "svc-cut", services[0].ID)
}

func TestEffectivePriceAt(t *testing.T) {
	promo := 40000.0
	until := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	raw := rawService("svc-cut", "Haircut", 30, 50000)
	raw.PromoPrice = sql.NullFloat64{Float64: promo, Valid: true}
	raw.PromoUntil = sql.NullTime{Time: until, Valid: true}
	catalog := NewCatalogService(&stubCatalog{rows: map[string]repository.RawService{"svc-cut": raw}}, zap.NewNop())

	during, err := catalog.EffectivePriceAt(context.Background(), "svc-cut", until.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, promo, during)

	after, err := catalog.EffectivePriceAt(context.Background(), "svc-cut", until.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 50000.0, after)
}
