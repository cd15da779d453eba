package evaluating

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vfg2006/traffic-advisor-api/internal/config"
	"github.com/vfg2006/traffic-advisor-api/internal/domain"
)

func targets(recommendations []domain.Recommendation) []string {
	out := make([]string, 0, len(recommendations))
	for _, r := range recommendations {
		out = append(out, r.PrimaryTarget())
	}
	return out
}

func TestRank(t *testing.T) {
	tests := []struct {
		name        string
		input       []domain.Recommendation
		minSeverity domain.Severity
		validate    func(t *testing.T, ranked []domain.Recommendation)
	}{
		{
			name: "Ordenação estável por severidade",
			input: []domain.Recommendation{
				recommendation(domain.RecommendationSizeMismatch, domain.SeverityLow, "a"),
				recommendation(domain.RecommendationSizeMismatch, domain.SeverityHigh, "b"),
				recommendation(domain.RecommendationGeoExclusion, domain.SeverityLow, "c"),
				recommendation(domain.RecommendationGeoExclusion, domain.SeverityCritical, "d"),
				recommendation(domain.RecommendationFraudAlert, domain.SeverityHigh, "e"),
			},
			minSeverity: domain.SeverityLow,
			validate: func(t *testing.T, ranked []domain.Recommendation) {
				assert.Equal(t, []string{"d", "b", "e", "a", "c"}, targets(ranked))
			},
		},
		{
			name: "Duplicata por tipo e alvo mantém a mais severa",
			input: []domain.Recommendation{
				recommendation(domain.RecommendationCreativePause, domain.SeverityMedium, "cr-1"),
				recommendation(domain.RecommendationCreativePause, domain.SeverityCritical, "cr-1"),
				recommendation(domain.RecommendationCreativeReview, domain.SeverityMedium, "cr-1"),
			},
			minSeverity: domain.SeverityLow,
			validate: func(t *testing.T, ranked []domain.Recommendation) {
				require.Len(t, ranked, 2)
				assert.Equal(t, domain.RecommendationCreativePause, ranked[0].Type)
				assert.Equal(t, domain.SeverityCritical, ranked[0].Severity)
				assert.Equal(t, domain.RecommendationCreativeReview, ranked[1].Type)
			},
		},
		{
			name: "Severidade mínima medium",
			input: []domain.Recommendation{
				recommendation(domain.RecommendationSizeMismatch, domain.SeverityLow, "a"),
				recommendation(domain.RecommendationSizeMismatch, domain.SeverityMedium, "b"),
			},
			minSeverity: domain.SeverityMedium,
			validate: func(t *testing.T, ranked []domain.Recommendation) {
				assert.Equal(t, []string{"b"}, targets(ranked))
			},
		},
		{
			name:        "Lista vazia devolve slice vazio",
			input:       nil,
			minSeverity: domain.SeverityLow,
			validate: func(t *testing.T, ranked []domain.Recommendation) {
				assert.NotNil(t, ranked)
				assert.Empty(t, ranked)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.validate(t, Rank(tt.input, tt.minSeverity))
		})
	}
}

func TestRankHasNoDuplicateKeys(t *testing.T) {
	input := make([]domain.Recommendation, 0, 40)
	severities := []domain.Severity{domain.SeverityLow, domain.SeverityHigh, domain.SeverityMedium, domain.SeverityCritical}
	for i := 0; i < 40; i++ {
		target := []string{"x", "y", "z"}[i%3]
		input = append(input, recommendation(domain.RecommendationSizeMismatch, severities[i%4], target))
	}

	ranked := Rank(input, domain.SeverityLow)

	seen := map[string]bool{}
	for i, r := range ranked {
		key := string(r.Type) + "|" + r.PrimaryTarget()
		assert.False(t, seen[key], "chave duplicada %s", key)
		seen[key] = true
		if i > 0 {
			assert.GreaterOrEqual(t, ranked[i-1].Severity.Rank(), r.Severity.Rank())
		}
	}
	assert.Len(t, ranked, 3)
}

func TestSummarize(t *testing.T) {
	recommendations := []domain.Recommendation{
		withSavings(recommendation(domain.RecommendationSizeMismatch, domain.SeverityHigh, "a"), 10.1),
		withSavings(recommendation(domain.RecommendationSizeMismatch, domain.SeverityLow, "b"), 0.2),
		recommendation(domain.RecommendationPublisherBlock, domain.SeverityHigh, "pub-1"),
	}

	summary := Summarize(recommendations, domain.Traffic{
		ReachedQueries: 86_400,
		Impressions:    0,
		Clicks:         0,
		SpendMicros:    0,
	}, 1)

	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 10.3, summary.Totals.PotentialSavingsMonthly)
	assert.Equal(t, 1.0, summary.Totals.WastedQPS)
	assert.Equal(t, 1.0, summary.Totals.WasteRate)

	bySeverity, byType := 0, 0
	for _, count := range summary.BySeverity {
		bySeverity += count
	}
	for _, count := range summary.ByType {
		byType += count
	}
	assert.Equal(t, summary.Total, bySeverity)
	assert.Equal(t, summary.Total, byType)
	assert.Len(t, summary.ByType, len(domain.RecommendationTypes))
	assert.Len(t, summary.BySeverity, 4)
}

func TestAssessDataQuality(t *testing.T) {
	th := config.DefaultThresholds()

	tests := []struct {
		name         string
		availability domain.DataAvailability
		validate     func(t *testing.T, quality domain.DataQuality)
	}{
		{
			name:         "Todas as fontes presentes",
			availability: fullAvailability(),
			validate: func(t *testing.T, quality domain.DataQuality) {
				assert.Equal(t, 1.0, quality.Score)
				assert.True(t, quality.Sufficient)
				assert.Empty(t, quality.MissingSources)
			},
		},
		{
			name:         "Somente lances filtrados atinge o mínimo",
			availability: domain.DataAvailability{TroubleshootRows: 1},
			validate: func(t *testing.T, quality domain.DataQuality) {
				assert.Equal(t, 0.3, quality.Score)
				assert.True(t, quality.Sufficient)
				assert.Equal(t, []domain.DataSource{domain.DataSourceTraffic, domain.DataSourceCreatives}, quality.MissingSources)
			},
		},
		{
			name:         "Nenhuma fonte",
			availability: domain.DataAvailability{},
			validate: func(t *testing.T, quality domain.DataQuality) {
				assert.Equal(t, 0.0, quality.Score)
				assert.False(t, quality.Sufficient)
				assert.Len(t, quality.MissingSources, 3)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.validate(t, AssessDataQuality(tt.availability, th))
		})
	}
}
