package detecting

import (
	"context"

	"github.com/vfg2006/traffic-advisor-api/internal/domain"
)

//go:generate mockgen -source=provider.go -destination=mocks/fact_provider.go -package=mocks

// FactProvider é a fonte somente leitura de fatos agregados.
// Tabela ou coluna ausente deve resultar em slice vazio e erro nil.
type FactProvider interface {
	GetAggregate(ctx context.Context, dimension domain.Dimension, windowDays int, filters domain.FactFilters) ([]domain.FactRow, error)
	GetCreatives(ctx context.Context, windowDays int, filters domain.FactFilters) ([]domain.CreativeFact, error)
	GetClickViolations(ctx context.Context, windowDays int, filters domain.FactFilters) ([]domain.ClickViolation, error)
	GetFilteredBids(ctx context.Context, windowDays int, filters domain.FactFilters) ([]domain.FilteredBidFact, error)
	GetInventory(ctx context.Context, filters domain.FactFilters) ([]domain.InventoryRow, error)
	GetAvailability(ctx context.Context, windowDays int, filters domain.FactFilters) (domain.DataAvailability, error)
}
