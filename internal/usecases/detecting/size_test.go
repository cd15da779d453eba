package detecting

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vfg2006/traffic-advisor-api/internal/config"
	"github.com/vfg2006/traffic-advisor-api/internal/domain"
	"github.com/vfg2006/traffic-advisor-api/pkg/log"
)

func detectSizes(t *testing.T, windowDays int, rows ...domain.FactRow) []domain.Recommendation {
	t.Helper()

	provider := &stubProvider{aggregates: map[domain.Dimension][]domain.FactRow{domain.DimensionSize: rows}}
	detector := NewSizeDetector(provider, config.DefaultThresholds())

	recs, err := detector.Detect(context.Background(), testScope(windowDays))
	require.NoError(t, err)
	return recs
}

func TestSizeDetector(t *testing.T) {
	log.SetupTestLogger()

	tests := []struct {
		name       string
		windowDays int
		rows       []domain.FactRow
		validate   func(t *testing.T, recs []domain.Recommendation)
	}{
		{
			name:       "Tamanho não padrão sem criativo e alto volume - bloqueio com severidade alta",
			windowDays: 7,
			rows:       []domain.FactRow{rowWithCreatives("320x481", 0, traffic(100_000, 0, 0, 0))},
			validate: func(t *testing.T, recs []domain.Recommendation) {
				require.Len(t, recs, 1)
				rec := recs[0]
				assert.Equal(t, domain.RecommendationSizeMismatch, rec.Type)
				assert.Equal(t, domain.SeverityHigh, rec.Severity)
				assert.Equal(t, domain.ConfidenceMedium, rec.Confidence)
				assert.Equal(t, "320x481", rec.EntityID)
				require.Len(t, rec.Actions, 1)
				assert.Equal(t, domain.ActionBlock, rec.Actions[0].ActionType)
				assert.Equal(t, domain.TargetSize, rec.Actions[0].TargetType)
				require.NotNil(t, rec.Actions[0].PretargetingField)
				assert.Equal(t, "excluded_creative_dimensions", *rec.Actions[0].PretargetingField)
				assert.InDelta(t, 0.165, rec.Impact.WastedQPS, 0.001)
				assert.Equal(t, int64(14285), rec.Impact.WastedQueriesDaily)
				assert.Equal(t, 100.0, rec.Impact.PercentOfTotalWaste)
				assert.Equal(t, 0.86, rec.Impact.PotentialSavingsMonthly)
				assert.NotContains(t, rec.Attributes, "closest_iab_size")
				require.NotNil(t, rec.ExpiresAt)
				assert.Equal(t, testNow.Add(7*24*time.Hour), *rec.ExpiresAt)
			},
		},
		{
			name:       "Tamanho a 1px de um IAB - criativo flexível sugerido",
			windowDays: 7,
			rows:       []domain.FactRow{rowWithCreatives("301x250", 0, traffic(15_000, 0, 0, 0))},
			validate: func(t *testing.T, recs []domain.Recommendation) {
				require.Len(t, recs, 1)
				rec := recs[0]
				assert.Equal(t, domain.SeverityMedium, rec.Severity)
				require.Len(t, rec.Actions, 1)
				assert.Equal(t, domain.ActionAdd, rec.Actions[0].ActionType)
				assert.Equal(t, domain.TargetCreative, rec.Actions[0].TargetType)
				assert.Contains(t, rec.Actions[0].TargetName, "HTML5 flexível")
				assert.Equal(t, "300x250 (Medium Rectangle)", rec.Attributes["closest_iab_size"])
			},
		},
		{
			name:       "Tamanho quase quadrado perto de 250x250 - criativo flexível, não bloqueio",
			windowDays: 7,
			rows:       []domain.FactRow{rowWithCreatives("251x250", 0, traffic(100_000, 0, 0, 0))},
			validate: func(t *testing.T, recs []domain.Recommendation) {
				require.Len(t, recs, 1)
				rec := recs[0]
				require.Len(t, rec.Actions, 1)
				assert.Equal(t, domain.ActionAdd, rec.Actions[0].ActionType)
				assert.Equal(t, "250x250 (Square)", rec.Attributes["closest_iab_size"])
				assert.Equal(t, "Video 1:1 (Square)", rec.Attributes["canonical_size"])
			},
		},
		{
			name:       "Tamanho perto de 200x200 - vizinho Small Square",
			windowDays: 7,
			rows:       []domain.FactRow{rowWithCreatives("202x200", 0, traffic(100_000, 0, 0, 0))},
			validate: func(t *testing.T, recs []domain.Recommendation) {
				require.Len(t, recs, 1)
				assert.Equal(t, domain.ActionAdd, recs[0].Actions[0].ActionType)
				assert.Equal(t, "200x200 (Small Square)", recs[0].Attributes["closest_iab_size"])
			},
		},
		{
			name:       "Tamanho com criativos e volume - nenhuma lacuna de cobertura",
			windowDays: 7,
			rows:       []domain.FactRow{rowWithCreatives("300x250", 4, traffic(700_000, 210_000, 300, 50))},
			validate: func(t *testing.T, recs []domain.Recommendation) {
				assert.Empty(t, recs)
			},
		},
		{
			name:       "Tamanho com criativos e taxa de vitória baixa - oportunidade sem bloqueio",
			windowDays: 7,
			rows:       []domain.FactRow{rowWithCreatives("300x250", 3, traffic(100_000, 1_000, 5, 2))},
			validate: func(t *testing.T, recs []domain.Recommendation) {
				require.Len(t, recs, 1)
				assert.Equal(t, domain.RecommendationOpportunity, recs[0].Type)
				assert.Equal(t, "size_low_win_rate", recs[0].SignalType)
				assert.Equal(t, domain.SeverityMedium, recs[0].Severity)
				assert.Equal(t, domain.ActionReview, recs[0].Actions[0].ActionType)
			},
		},
		{
			name:       "Taxa de vitória alta com pouco volume - oportunidade de escala",
			windowDays: 7,
			rows:       []domain.FactRow{rowWithCreatives("728x90", 2, traffic(10_000, 3_000, 20, 5))},
			validate: func(t *testing.T, recs []domain.Recommendation) {
				require.Len(t, recs, 1)
				assert.Equal(t, "size_high_win_rate", recs[0].SignalType)
				assert.Equal(t, domain.SeverityLow, recs[0].Severity)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.validate(t, detectSizes(t, tt.windowDays, tt.rows...))
		})
	}
}

func TestSizeDetectorVolumeTiers(t *testing.T) {
	log.SetupTestLogger()

	tests := []struct {
		name     string
		queries  int64
		validate func(t *testing.T, recs []domain.Recommendation)
	}{
		{
			name:    "Abaixo de 100 por dia - apenas monitorado, sem recomendação",
			queries: 99,
			validate: func(t *testing.T, recs []domain.Recommendation) {
				assert.Empty(t, recs)
			},
		},
		{
			name:    "Exatamente 100 por dia - revisão de baixa severidade",
			queries: 100,
			validate: func(t *testing.T, recs []domain.Recommendation) {
				require.Len(t, recs, 1)
				assert.Equal(t, domain.SeverityLow, recs[0].Severity)
				assert.Equal(t, domain.ConfidenceLow, recs[0].Confidence)
				assert.Equal(t, domain.ActionReview, recs[0].Actions[0].ActionType)
			},
		},
		{
			name:    "Exatamente 1.000 por dia - faixa intermediária",
			queries: 1_000,
			validate: func(t *testing.T, recs []domain.Recommendation) {
				require.Len(t, recs, 1)
				assert.Equal(t, domain.SeverityMedium, recs[0].Severity)
				assert.Equal(t, domain.ActionAdd, recs[0].Actions[0].ActionType)
			},
		},
		{
			name:    "Exatamente 10.000 por dia - faixa alta com bloqueio",
			queries: 10_000,
			validate: func(t *testing.T, recs []domain.Recommendation) {
				require.Len(t, recs, 1)
				assert.Equal(t, domain.SeverityHigh, recs[0].Severity)
				assert.Equal(t, domain.ConfidenceLow, recs[0].Confidence)
				assert.Equal(t, domain.ActionBlock, recs[0].Actions[0].ActionType)
			},
		},
		{
			name:    "Mais de 100.000 queries - confiança alta",
			queries: 100_001,
			validate: func(t *testing.T, recs []domain.Recommendation) {
				require.Len(t, recs, 1)
				assert.Equal(t, domain.ConfidenceHigh, recs[0].Confidence)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recs := detectSizes(t, 1, rowWithCreatives("333x444", 0, traffic(tt.queries, 0, 0, 0)))
			tt.validate(t, recs)
		})
	}
}

func TestSizeDetectorWasteShare(t *testing.T) {
	log.SetupTestLogger()

	// 970x91 fica com 4% das queries: faixa alta mas abaixo de 5% vira medium
	recs := detectSizes(t, 1,
		rowWithCreatives("970x91", 0, traffic(40_000, 0, 0, 0)),
		rowWithCreatives("300x250", 5, traffic(960_000, 400_000, 500, 100)),
	)

	found := findByEntity(recs, "970x91")
	require.Len(t, found, 1)
	assert.Equal(t, domain.SeverityMedium, found[0].Severity)
	assert.Equal(t, 4.0, found[0].Impact.PercentOfTotalWaste)
}

func TestSizeDetectorNoData(t *testing.T) {
	detector := NewSizeDetector(&stubProvider{}, config.DefaultThresholds())

	_, err := detector.Detect(context.Background(), testScope(7))
	assert.ErrorIs(t, err, ErrNoData)
}

func TestSizeDetectorDeterministic(t *testing.T) {
	log.SetupTestLogger()

	rows := []domain.FactRow{
		rowWithCreatives("320x481", 0, traffic(100_000, 0, 0, 0)),
		rowWithCreatives("301x250", 0, traffic(15_000, 0, 0, 0)),
		rowWithCreatives("300x250", 3, traffic(100_000, 1_000, 5, 2)),
	}

	first := detectSizes(t, 7, rows...)
	second := detectSizes(t, 7, rows...)

	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].SignalType, second[i].SignalType)
		assert.Equal(t, first[i].EntityID, second[i].EntityID)
		assert.Equal(t, first[i].Severity, second[i].Severity)
		assert.Equal(t, first[i].Evidence, second[i].Evidence)
		assert.Equal(t, first[i].Impact, second[i].Impact)
	}
}
