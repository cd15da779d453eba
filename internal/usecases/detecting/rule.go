package detecting

import (
	"context"
	"time"

	"github.com/vfg2006/traffic-advisor-api/internal/domain"
	"github.com/vfg2006/traffic-advisor-api/pkg/log"
	"github.com/vfg2006/traffic-advisor-api/pkg/utils"
)

// Env carrega o contexto compartilhado pelas regras de uma execução
type Env struct {
	Scope  Scope
	AvgCTR float64
	Totals domain.Traffic
}

// Rule descreve uma verificação sobre linhas do tipo T.
// Match decide se dispara; os demais campos montam a recomendação.
// Impact, Attributes e Affected são opcionais.
type Rule[T any] struct {
	SignalType string
	Type       domain.RecommendationType
	ExpiryDays int

	Entity   func(row T) string
	Match    func(row T, env Env) bool
	Classify func(row T, env Env) (domain.Severity, domain.Confidence)
	Evidence func(row T, env Env) []domain.Evidence
	Actions  func(row T, env Env) []domain.Action
	Text     func(row T, env Env) (title string, description string)

	Impact     func(row T, env Env) domain.Impact
	Attributes func(row T, env Env) map[string]string
	Affected   func(row T) []string
}

// evaluate aplica as regras na ordem declarada, cada uma sobre todas as linhas
func evaluate[T any](ctx context.Context, rows []T, rules []Rule[T], env Env) []domain.Recommendation {
	recommendations := make([]domain.Recommendation, 0)

	for _, rule := range rules {
		for _, row := range rows {
			if !rule.Match(row, env) {
				continue
			}

			recommendation, ok := rule.build(row, env)
			if !ok {
				log.ForAccount(ctx, env.Scope.AccountID).
					WithField("signal_type", rule.SignalType).
					Warn("Regra disparou sem evidências, recomendação descartada")
				continue
			}
			recommendations = append(recommendations, recommendation)
		}
	}

	return recommendations
}

func (r Rule[T]) build(row T, env Env) (domain.Recommendation, bool) {
	evidence := r.Evidence(row, env)
	if len(evidence) == 0 {
		return domain.Recommendation{}, false
	}

	severity, confidence := r.Classify(row, env)
	title, description := r.Text(row, env)

	actions := r.Actions(row, env)
	if actions == nil {
		actions = []domain.Action{}
	}

	recommendation := domain.Recommendation{
		ID:                utils.GeneratePrefixedID(string(r.Type)),
		Type:              r.Type,
		SignalType:        r.SignalType,
		EntityID:          r.Entity(row),
		Severity:          severity,
		Confidence:        confidence,
		Status:            domain.RecommendationStatusNew,
		Title:             title,
		Description:       description,
		Evidence:          evidence,
		Actions:           actions,
		AffectedCreatives: []string{},
		AffectedCampaigns: []string{},
		GeneratedAt:       env.Scope.Now,
	}

	if r.Impact != nil {
		recommendation.Impact = r.Impact(row, env)
	}
	if r.Attributes != nil {
		recommendation.Attributes = r.Attributes(row, env)
	}
	if r.Affected != nil {
		if affected := r.Affected(row); affected != nil {
			recommendation.AffectedCreatives = affected
		}
	}
	if r.ExpiryDays > 0 {
		expiresAt := env.Scope.Now.Add(time.Duration(r.ExpiryDays) * 24 * time.Hour)
		recommendation.ExpiresAt = &expiresAt
	}

	return recommendation, true
}

// evidence monta um ponto de evidência com a janela do escopo
func evidence(env Env, metric string, value, threshold float64, comparison domain.Comparison, sample int64) domain.Evidence {
	return domain.Evidence{
		MetricName:     metric,
		MetricValue:    utils.RoundTo(value, 4),
		Threshold:      threshold,
		Comparison:     comparison,
		TimePeriodDays: env.Scope.WindowDays,
		SampleSize:     sample,
	}
}

// spendSeverity escalona a severidade pelo gasto com limites estritos
func spendSeverity(spend, high, medium float64) domain.Severity {
	switch {
	case spend > high:
		return domain.SeverityHigh
	case spend > medium:
		return domain.SeverityMedium
	default:
		return domain.SeverityLow
	}
}

// monthlySavings projeta o custo de processar queries desperdiçadas por 30 dias
func monthlySavings(dailyQueries, costPerThousand float64) float64 {
	return utils.RoundWithTwoDecimalPlace(dailyQueries * 30 / 1000 * costPerThousand)
}

func qps(dailyQueries float64) float64 {
	return utils.RoundTo(dailyQueries/domain.SecondsPerDay, 4)
}
