package detecting

import (
	"context"
	"time"

	"github.com/vfg2006/traffic-advisor-api/internal/domain"
)

var testNow = time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)

func testScope(windowDays int) Scope {
	return Scope{AccountID: "acc-1", WindowDays: windowDays, Now: testNow}
}

func intPtr(v int) *int {
	return &v
}

func traffic(queries, impressions, clicks int64, spendUSD float64) domain.Traffic {
	return domain.Traffic{
		ReachedQueries: queries,
		Impressions:    impressions,
		Clicks:         clicks,
		SpendMicros:    int64(spendUSD * 1_000_000),
	}
}

func row(key string, t domain.Traffic) domain.FactRow {
	return domain.FactRow{DimensionKey: key, Traffic: t}
}

func rowWithCreatives(key string, creatives int, t domain.Traffic) domain.FactRow {
	return domain.FactRow{DimensionKey: key, CreativeCount: intPtr(creatives), Traffic: t}
}

// stubProvider devolve fatos fixos, sem banco
type stubProvider struct {
	aggregates   map[domain.Dimension][]domain.FactRow
	creatives    []domain.CreativeFact
	violations   []domain.ClickViolation
	filteredBids []domain.FilteredBidFact
	inventory    []domain.InventoryRow
	availability domain.DataAvailability
	err          error
}

func (s *stubProvider) GetAggregate(ctx context.Context, dimension domain.Dimension, windowDays int, filters domain.FactFilters) ([]domain.FactRow, error) {
	if s.err != nil {
		return nil, s.err
	}
	return append([]domain.FactRow(nil), s.aggregates[dimension]...), nil
}

func (s *stubProvider) GetCreatives(ctx context.Context, windowDays int, filters domain.FactFilters) ([]domain.CreativeFact, error) {
	return s.creatives, s.err
}

func (s *stubProvider) GetClickViolations(ctx context.Context, windowDays int, filters domain.FactFilters) ([]domain.ClickViolation, error) {
	return s.violations, s.err
}

func (s *stubProvider) GetFilteredBids(ctx context.Context, windowDays int, filters domain.FactFilters) ([]domain.FilteredBidFact, error) {
	return s.filteredBids, s.err
}

func (s *stubProvider) GetInventory(ctx context.Context, filters domain.FactFilters) ([]domain.InventoryRow, error) {
	return s.inventory, s.err
}

func (s *stubProvider) GetAvailability(ctx context.Context, windowDays int, filters domain.FactFilters) (domain.DataAvailability, error) {
	return s.availability, s.err
}

func signalTypes(recommendations []domain.Recommendation) []string {
	types := make([]string, 0, len(recommendations))
	for _, r := range recommendations {
		types = append(types, r.SignalType)
	}
	return types
}

func findByEntity(recommendations []domain.Recommendation, entity string) []domain.Recommendation {
	var found []domain.Recommendation
	for _, r := range recommendations {
		if r.EntityID == entity {
			found = append(found, r)
		}
	}
	return found
}
