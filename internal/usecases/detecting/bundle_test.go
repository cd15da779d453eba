package detecting

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vfg2006/traffic-advisor-api/internal/config"
	"github.com/vfg2006/traffic-advisor-api/internal/domain"
	"github.com/vfg2006/traffic-advisor-api/pkg/log"
)

func bundleProvider() *stubProvider {
	return &stubProvider{
		aggregates: map[domain.Dimension][]domain.FactRow{
			domain.DimensionAccount: {row("acc-1", traffic(400_000, 150_050, 3_010, 400))},
			domain.DimensionGeo: {
				row("United States", traffic(200_000, 100_000, 3_000, 300)),
				row("Brazil", traffic(150_000, 50_000, 10, 100)),
				row("Chile", traffic(50_000, 50, 0, 0)),
			},
			domain.DimensionFormat: {
				row("HTML", traffic(300_000, 120_000, 2_500, 320)),
				row("VIDEO", traffic(100_000, 30_050, 510, 80)),
			},
		},
		inventory: []domain.InventoryRow{
			{Format: "HTML", Width: 300, Height: 250, Count: 5},
			{Format: "HTML", Width: 728, Height: 90, Count: 3},
			{Format: "VIDEO", Width: 640, Height: 360, Count: 2},
			{Format: "NATIVE", Width: 0, Height: 0, Count: 4},
		},
	}
}

func TestBundleRecommenderPlan(t *testing.T) {
	log.SetupTestLogger()

	tests := []struct {
		name     string
		limit    int
		validate func(t *testing.T, plan *domain.PretargetingPlan)
	}{
		{
			name:  "Um bundle por formato e um geral quando sobra vaga",
			limit: 0,
			validate: func(t *testing.T, plan *domain.PretargetingPlan) {
				assert.Equal(t, 10, plan.ConfigLimit)
				require.Len(t, plan.Bundles, 4)

				assert.Equal(t, []string{"HTML"}, plan.Bundles[0].Formats)
				assert.Equal(t, []string{"NATIVE"}, plan.Bundles[1].Formats)
				assert.Equal(t, []string{"VIDEO"}, plan.Bundles[2].Formats)

				html := plan.Bundles[0]
				assert.Equal(t, []string{"300x250", "728x90"}, html.IncludedSizes)
				assert.Equal(t, 8, html.CreativeCount)
				assert.Equal(t, int64(120_000), html.EstimatedImpressions)
				assert.Equal(t, 320.0, html.EstimatedSpendUSD)
				assert.Equal(t, []string{"US"}, html.IncludedGeos)
				assert.Equal(t, []string{"BR"}, html.ExcludedGeos)
				assert.Equal(t, 50.0, html.WasteReductionPct)

				assert.Empty(t, plan.Bundles[1].IncludedSizes)

				all := plan.Bundles[3]
				assert.Equal(t, []string{"HTML", "NATIVE", "VIDEO"}, all.Formats)
				assert.Equal(t, []string{"300x250", "640x360", "728x90"}, all.IncludedSizes)
				assert.Equal(t, 14, all.CreativeCount)
				assert.Equal(t, 400.0, all.EstimatedSpendUSD)

				assert.Equal(t, 50.0, plan.TotalEstimatedWasteReductionPct)
				assert.NotEmpty(t, plan.Summary)
			},
		},
		{
			name:  "Limite de 2 configurações - sem bundle geral",
			limit: 2,
			validate: func(t *testing.T, plan *domain.PretargetingPlan) {
				require.Len(t, plan.Bundles, 2)
				assert.Equal(t, []string{"HTML"}, plan.Bundles[0].Formats)
				assert.Equal(t, []string{"NATIVE"}, plan.Bundles[1].Formats)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recommender := NewBundleRecommender(bundleProvider(), config.DefaultThresholds())

			plan, err := recommender.Plan(context.Background(), testScope(7), tt.limit)
			require.NoError(t, err)
			require.NotNil(t, plan)
			assert.Equal(t, "acc-1", plan.AccountID)
			tt.validate(t, plan)
		})
	}
}

func TestBundleRecommenderSingleFormat(t *testing.T) {
	log.SetupTestLogger()

	provider := bundleProvider()
	provider.inventory = []domain.InventoryRow{{Format: "html", Width: 300, Height: 250, Count: 2}}

	plan, err := NewBundleRecommender(provider, config.DefaultThresholds()).Plan(context.Background(), testScope(7), 0)
	require.NoError(t, err)
	require.Len(t, plan.Bundles, 1)
	assert.Equal(t, []string{"HTML"}, plan.Bundles[0].Formats)
}

func TestBundleRecommenderGeoSplit(t *testing.T) {
	log.SetupTestLogger()

	geos := func(prefix string, n int, clicks int64) []domain.FactRow {
		rows := make([]domain.FactRow, 0, n)
		for i := 1; i <= n; i++ {
			rows = append(rows, row(fmt.Sprintf("%s%02d", prefix, i), traffic(20_000, 10_000, clicks, 20)))
		}
		return rows
	}

	tests := []struct {
		name     string
		geos     []domain.FactRow
		validate func(t *testing.T, bundle domain.Bundle)
	}{
		{
			name: "Mais países que o teto - só os incluídos são cortados",
			geos: append(geos("B", 25, 300), geos("R", 25, 0)...),
			validate: func(t *testing.T, bundle domain.Bundle) {
				assert.Len(t, bundle.IncludedGeos, 20)
				assert.Equal(t, "B01", bundle.IncludedGeos[0])
				assert.Len(t, bundle.ExcludedGeos, 25)
				assert.Equal(t, "R25", bundle.ExcludedGeos[24])
				assert.Equal(t, 50.0, bundle.WasteReductionPct)
			},
		},
		{
			name: "Redução conta países, não gasto",
			geos: append(geos("B", 3, 300), geos("R", 1, 0)...),
			validate: func(t *testing.T, bundle domain.Bundle) {
				assert.Len(t, bundle.IncludedGeos, 3)
				assert.Equal(t, []string{"R01"}, bundle.ExcludedGeos)
				assert.Equal(t, 25.0, bundle.WasteReductionPct)
			},
		},
		{
			name: "Nenhum país classificado - redução zero",
			geos: []domain.FactRow{row("Chile", traffic(500, 50, 0, 0))},
			validate: func(t *testing.T, bundle domain.Bundle) {
				assert.Empty(t, bundle.IncludedGeos)
				assert.Empty(t, bundle.ExcludedGeos)
				assert.Zero(t, bundle.WasteReductionPct)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &stubProvider{
				aggregates: map[domain.Dimension][]domain.FactRow{
					domain.DimensionAccount: {row("acc-1", traffic(2_000_000, 1_000_000, 10_000, 2_000))},
					domain.DimensionGeo:     tt.geos,
				},
				inventory: []domain.InventoryRow{{Format: "HTML", Width: 300, Height: 250, Count: 2}},
			}

			plan, err := NewBundleRecommender(provider, config.DefaultThresholds()).Plan(context.Background(), testScope(7), 0)
			require.NoError(t, err)
			require.Len(t, plan.Bundles, 1)
			tt.validate(t, plan.Bundles[0])
		})
	}
}

func TestBundleRecommenderNoInventory(t *testing.T) {
	_, err := NewBundleRecommender(&stubProvider{}, config.DefaultThresholds()).Plan(context.Background(), testScope(7), 0)
	assert.ErrorIs(t, err, ErrNoData)
}
