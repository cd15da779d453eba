package evaluating

import (
	"fmt"
	"strings"

	"github.com/vfg2006/traffic-advisor-api/internal/config"
	"github.com/vfg2006/traffic-advisor-api/internal/domain"
	"github.com/vfg2006/traffic-advisor-api/internal/usecases/detecting"
	"github.com/vfg2006/traffic-advisor-api/pkg/utils"
)

const signalInsufficientData = "insufficient_data"

// AssessDataQuality soma o peso de cada fonte presente na janela
func AssessDataQuality(availability domain.DataAvailability, th config.Thresholds) domain.DataQuality {
	quality := domain.DataQuality{
		MissingSources: []domain.DataSource{},
		Availability:   availability,
	}

	sources := []struct {
		source domain.DataSource
		rows   int64
		weight float64
	}{
		{domain.DataSourceTraffic, availability.TrafficRows, th.GateTrafficWeight},
		{domain.DataSourceFilteredBids, availability.TroubleshootRows, th.GateFilteredBidsWeight},
		{domain.DataSourceCreatives, availability.CreativeRows, th.GateCreativesWeight},
	}

	score := 0.0
	for _, s := range sources {
		if s.rows > 0 {
			score += s.weight
			continue
		}
		quality.MissingSources = append(quality.MissingSources, s.source)
	}

	quality.Score = utils.RoundTo(score, 4)
	quality.Sufficient = quality.Score >= th.GateMinScore

	return quality
}

// insufficientDataAdvisory é a única recomendação emitida quando o portão de
// qualidade barra a avaliação
func insufficientDataAdvisory(scope detecting.Scope, quality domain.DataQuality, th config.Thresholds) domain.Recommendation {
	missing := make([]string, 0, len(quality.MissingSources))
	for _, source := range quality.MissingSources {
		missing = append(missing, string(source))
	}
	names := strings.Join(missing, ", ")

	return domain.Recommendation{
		ID:         utils.GeneratePrefixedID(string(domain.RecommendationConfigInefficiency)),
		Type:       domain.RecommendationConfigInefficiency,
		SignalType: signalInsufficientData,
		EntityID:   "data_sources",
		Severity:   domain.SeverityMedium,
		Confidence: domain.ConfidenceHigh,
		Status:     domain.RecommendationStatusNew,
		Title:      "Dados insuficientes para avaliar a conta",
		Description: fmt.Sprintf(
			"O score de qualidade dos dados é %.2f (mínimo %.2f). Fontes ausentes na janela: %s. Importe os dados antes de confiar nas recomendações.",
			quality.Score, th.GateMinScore, names,
		),
		Evidence: []domain.Evidence{{
			MetricName:     "data_quality_score",
			MetricValue:    quality.Score,
			Threshold:      th.GateMinScore,
			Comparison:     domain.ComparisonBelow,
			TimePeriodDays: scope.WindowDays,
			SampleSize:     quality.Availability.TrafficRows + quality.Availability.TroubleshootRows + quality.Availability.CreativeRows,
		}},
		Actions: []domain.Action{{
			ActionType: domain.ActionReview,
			TargetType: domain.TargetConfig,
			TargetID:   "data_sources",
			TargetName: fmt.Sprintf("Fontes ausentes: %s", names),
		}},
		AffectedCreatives: []string{},
		AffectedCampaigns: []string{},
		Attributes:        map[string]string{"missing_sources": names},
		GeneratedAt:       scope.Now,
	}
}
