package evaluating

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/vfg2006/traffic-advisor-api/internal/domain"
	"github.com/vfg2006/traffic-advisor-api/pkg/utils"
)

type dedupKey struct {
	recommendationType domain.RecommendationType
	target             string
}

// Rank filtra pela severidade mínima, ordena de critical para low mantendo a
// ordem dos detectores entre iguais e remove duplicatas por (tipo, alvo da
// primeira ação). A primeira ocorrência, a mais severa, é a que fica.
func Rank(recommendations []domain.Recommendation, minSeverity domain.Severity) []domain.Recommendation {
	ranked := make([]domain.Recommendation, 0, len(recommendations))
	for _, recommendation := range recommendations {
		if recommendation.Severity.AtLeast(minSeverity) {
			ranked = append(ranked, recommendation)
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Severity.Rank() > ranked[j].Severity.Rank()
	})

	seen := make(map[dedupKey]struct{}, len(ranked))
	unique := ranked[:0]
	for _, recommendation := range ranked {
		key := dedupKey{recommendationType: recommendation.Type, target: recommendation.PrimaryTarget()}
		if _, exists := seen[key]; exists {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, recommendation)
	}

	return unique
}

// Summarize conta as recomendações por severidade e tipo e resume o tráfego da janela
func Summarize(recommendations []domain.Recommendation, totals domain.Traffic, windowDays int) domain.Summary {
	summary := domain.NewSummary()
	summary.Total = len(recommendations)

	savings := decimal.Zero
	for _, recommendation := range recommendations {
		summary.BySeverity[recommendation.Severity]++
		summary.ByType[recommendation.Type]++
		savings = savings.Add(decimal.NewFromFloat(recommendation.Impact.PotentialSavingsMonthly))
	}

	wastedDaily := domain.Traffic{ReachedQueries: totals.ReachedQueries - totals.Impressions}.DailyQueries(windowDays)
	if wastedDaily < 0 {
		wastedDaily = 0
	}

	summary.Totals = domain.Totals{
		ReachedQueries:          totals.ReachedQueries,
		Impressions:             totals.Impressions,
		Clicks:                  totals.Clicks,
		SpendUSD:                totals.SpendUSD(),
		WasteRate:               utils.RoundTo(totals.WasteRate(), 4),
		WastedQPS:               utils.RoundTo(wastedDaily/domain.SecondsPerDay, 4),
		PotentialSavingsMonthly: savings.Round(2).InexactFloat64(),
	}

	return summary
}
