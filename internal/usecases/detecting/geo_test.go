package detecting

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vfg2006/traffic-advisor-api/internal/config"
	"github.com/vfg2006/traffic-advisor-api/internal/domain"
	"github.com/vfg2006/traffic-advisor-api/pkg/log"
)

func TestGeoDetector(t *testing.T) {
	log.SetupTestLogger()

	// média da conta: 1% de CTR
	account := row("acc-1", traffic(2_000_000, 1_000_000, 10_000, 2_000))

	tests := []struct {
		name     string
		geos     []domain.FactRow
		validate func(t *testing.T, recs []domain.Recommendation)
	}{
		{
			name: "País com CTR muito abaixo da média e gasto alto - exclusão com severidade alta",
			geos: []domain.FactRow{
				row("XX", traffic(60_000, 50_000, 10, 120)),
				row("United States", traffic(150_000, 100_000, 3_000, 400)),
			},
			validate: func(t *testing.T, recs []domain.Recommendation) {
				require.Len(t, recs, 1)
				rec := recs[0]
				assert.Equal(t, domain.RecommendationGeoExclusion, rec.Type)
				assert.Equal(t, "XX", rec.EntityID)
				assert.Equal(t, domain.SeverityHigh, rec.Severity)
				assert.Equal(t, domain.ConfidenceHigh, rec.Confidence)
				assert.Equal(t, domain.ActionExclude, rec.Actions[0].ActionType)
				assert.Equal(t, "excluded_geographies", *rec.Actions[0].PretargetingField)
				assert.Equal(t, 60.0, rec.Impact.WastedSpendUSD)
				assert.Equal(t, 257.14, rec.Impact.PotentialSavingsMonthly)

				require.Len(t, rec.Evidence, 2)
				assert.Equal(t, "ctr", rec.Evidence[0].MetricName)
				assert.Equal(t, 0.02, rec.Evidence[0].MetricValue)
				assert.Equal(t, domain.ComparisonBelow, rec.Evidence[0].Comparison)
			},
		},
		{
			name: "Gasto entre 50 e 100 - severidade média e confiança média com poucas impressões",
			geos: []domain.FactRow{
				row("Chile", traffic(10_000, 5_000, 1, 60)),
			},
			validate: func(t *testing.T, recs []domain.Recommendation) {
				require.Len(t, recs, 1)
				assert.Equal(t, domain.SeverityMedium, recs[0].Severity)
				assert.Equal(t, domain.ConfidenceMedium, recs[0].Confidence)
				assert.Equal(t, "CL", recs[0].Actions[0].TargetID)
			},
		},
		{
			name: "Gasto abaixo do mínimo - nenhuma exclusão",
			geos: []domain.FactRow{
				row("Peru", traffic(10_000, 5_000, 1, 10)),
			},
			validate: func(t *testing.T, recs []domain.Recommendation) {
				assert.Empty(t, recs)
			},
		},
		{
			name: "Desperdício acima de 95% - exclusão de severidade alta",
			geos: []domain.FactRow{
				row("Germany", traffic(1_000_000, 40_000, 2_000, 5)),
			},
			validate: func(t *testing.T, recs []domain.Recommendation) {
				require.Len(t, recs, 1)
				assert.Equal(t, "geo_high_waste", recs[0].SignalType)
				assert.Equal(t, domain.SeverityHigh, recs[0].Severity)
				assert.Equal(t, domain.ActionExclude, recs[0].Actions[0].ActionType)
				assert.Equal(t, "DE", recs[0].Actions[0].TargetID)
			},
		},
		{
			name: "Desperdício entre 80% e 95% - apenas revisão",
			geos: []domain.FactRow{
				row("Spain", traffic(1_000_000, 100_000, 5_000, 5)),
			},
			validate: func(t *testing.T, recs []domain.Recommendation) {
				require.Len(t, recs, 1)
				assert.Equal(t, domain.SeverityMedium, recs[0].Severity)
				assert.Equal(t, domain.ActionReview, recs[0].Actions[0].ActionType)
			},
		},
		{
			name: "País com volume e poucos criativos - lacuna de cobertura",
			geos: []domain.FactRow{
				rowWithCreatives("Mexico", 1, traffic(80_000, 40_000, 2_000, 5)),
			},
			validate: func(t *testing.T, recs []domain.Recommendation) {
				require.Len(t, recs, 1)
				assert.Equal(t, domain.RecommendationConfigInefficiency, recs[0].Type)
				assert.Equal(t, domain.SeverityLow, recs[0].Severity)
				assert.Equal(t, domain.ActionAdd, recs[0].Actions[0].ActionType)
				assert.Equal(t, testNow.AddDate(0, 0, 14), *recs[0].ExpiresAt)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &stubProvider{aggregates: map[domain.Dimension][]domain.FactRow{
				domain.DimensionAccount: {account},
				domain.DimensionGeo:     tt.geos,
			}}
			detector := NewGeoDetector(provider, config.DefaultThresholds())

			recs, err := detector.Detect(context.Background(), testScope(7))
			require.NoError(t, err)
			tt.validate(t, recs)
		})
	}
}

func TestGeoDetectorBoundaries(t *testing.T) {
	log.SetupTestLogger()

	account := row("acc-1", traffic(2_000_000, 1_000_000, 10_000, 2_000))

	tests := []struct {
		name     string
		geo      domain.FactRow
		validate func(t *testing.T, recs []domain.Recommendation)
	}{
		{
			name: "Exatamente 1.000 impressões - amostra insuficiente",
			geo:  row("Chile", traffic(2_000, 1_000, 0, 20)),
			validate: func(t *testing.T, recs []domain.Recommendation) {
				assert.Empty(t, recs)
			},
		},
		{
			name: "1.001 impressões - exclusão sugerida",
			geo:  row("Chile", traffic(2_002, 1_001, 0, 20)),
			validate: func(t *testing.T, recs []domain.Recommendation) {
				require.Len(t, recs, 1)
				assert.Equal(t, domain.SeverityLow, recs[0].Severity)
			},
		},
		{
			name: "Gasto de exatamente US$ 10 - ignorado",
			geo:  row("Chile", traffic(10_000, 5_000, 0, 10)),
			validate: func(t *testing.T, recs []domain.Recommendation) {
				assert.Empty(t, recs)
			},
		},
		{
			name: "Gasto de US$ 49 - severidade baixa",
			geo:  row("Chile", traffic(10_000, 5_000, 0, 49)),
			validate: func(t *testing.T, recs []domain.Recommendation) {
				require.Len(t, recs, 1)
				assert.Equal(t, domain.SeverityLow, recs[0].Severity)
			},
		},
		{
			name: "Gasto de exatamente US$ 50 - ainda severidade baixa",
			geo:  row("Chile", traffic(10_000, 5_000, 0, 50)),
			validate: func(t *testing.T, recs []domain.Recommendation) {
				require.Len(t, recs, 1)
				assert.Equal(t, domain.SeverityLow, recs[0].Severity)
			},
		},
		{
			name: "Gasto de US$ 51 - severidade média",
			geo:  row("Chile", traffic(10_000, 5_000, 0, 51)),
			validate: func(t *testing.T, recs []domain.Recommendation) {
				require.Len(t, recs, 1)
				assert.Equal(t, domain.SeverityMedium, recs[0].Severity)
			},
		},
		{
			name: "Gasto de US$ 99 - severidade média",
			geo:  row("Chile", traffic(10_000, 5_000, 0, 99)),
			validate: func(t *testing.T, recs []domain.Recommendation) {
				require.Len(t, recs, 1)
				assert.Equal(t, domain.SeverityMedium, recs[0].Severity)
			},
		},
		{
			name: "Gasto de exatamente US$ 100 - ainda severidade média",
			geo:  row("Chile", traffic(10_000, 5_000, 0, 100)),
			validate: func(t *testing.T, recs []domain.Recommendation) {
				require.Len(t, recs, 1)
				assert.Equal(t, domain.SeverityMedium, recs[0].Severity)
			},
		},
		{
			name: "Gasto de US$ 101 - severidade alta",
			geo:  row("Chile", traffic(10_000, 5_000, 0, 101)),
			validate: func(t *testing.T, recs []domain.Recommendation) {
				require.Len(t, recs, 1)
				assert.Equal(t, domain.SeverityHigh, recs[0].Severity)
			},
		},
		{
			name: "Exatamente 10.000 impressões - confiança média",
			geo:  row("Chile", traffic(20_000, 10_000, 0, 60)),
			validate: func(t *testing.T, recs []domain.Recommendation) {
				require.Len(t, recs, 1)
				assert.Equal(t, domain.ConfidenceMedium, recs[0].Confidence)
			},
		},
		{
			name: "10.001 impressões - confiança alta",
			geo:  row("Chile", traffic(20_002, 10_001, 0, 60)),
			validate: func(t *testing.T, recs []domain.Recommendation) {
				require.Len(t, recs, 1)
				assert.Equal(t, domain.ConfidenceHigh, recs[0].Confidence)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &stubProvider{aggregates: map[domain.Dimension][]domain.FactRow{
				domain.DimensionAccount: {account},
				domain.DimensionGeo:     {tt.geo},
			}}

			recs, err := NewGeoDetector(provider, config.DefaultThresholds()).Detect(context.Background(), testScope(7))
			require.NoError(t, err)
			for _, rec := range recs {
				assert.Equal(t, "geo_underperforming", rec.SignalType)
			}
			tt.validate(t, recs)
		})
	}
}

func TestGeoDetectorNoData(t *testing.T) {
	detector := NewGeoDetector(&stubProvider{}, config.DefaultThresholds())

	_, err := detector.Detect(context.Background(), testScope(7))
	assert.ErrorIs(t, err, ErrNoData)
}

func TestClassifyGeo(t *testing.T) {
	th := config.DefaultThresholds()
	avg := 0.01

	tests := []struct {
		name     string
		row      domain.FactRow
		expected GeoClass
	}{
		{name: "CTR baixo com gasto - EXCLUDE", row: row("BR", traffic(10_000, 5_000, 1, 20)), expected: GeoExclude},
		{name: "CTR muito acima da média - EXPAND", row: row("US", traffic(10_000, 5_000, 150, 20)), expected: GeoExpand},
		{name: "CTR próximo da média sem gasto relevante - OK", row: row("CA", traffic(10_000, 5_000, 50, 5)), expected: GeoOK},
		{name: "Amostra pequena - MONITOR", row: row("CL", traffic(100, 50, 0, 0)), expected: GeoMonitor},
		{name: "CTR abaixo de 80% da média sem gasto - MONITOR", row: row("PE", traffic(10_000, 5_000, 20, 5)), expected: GeoMonitor},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ClassifyGeo(tt.row, avg, th))
		})
	}
}

func TestCountryCode(t *testing.T) {
	assert.Equal(t, "BR", CountryCode("Brazil"))
	assert.Equal(t, "US", CountryCode(" united states "))
	assert.Equal(t, "GB", CountryCode("gb"))
	assert.Equal(t, "Atlantis", CountryCode("Atlantis"))
}
