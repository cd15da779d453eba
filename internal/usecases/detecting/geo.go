package detecting

import (
	"context"
	"fmt"

	"github.com/vfg2006/traffic-advisor-api/internal/config"
	"github.com/vfg2006/traffic-advisor-api/internal/domain"
	"github.com/vfg2006/traffic-advisor-api/pkg/utils"
)

const fieldExcludedGeographies = "excluded_geographies"

// GeoClass é a classificação de um país usada na montagem do pretargeting
type GeoClass string

const (
	GeoExclude GeoClass = "EXCLUDE"
	GeoExpand  GeoClass = "EXPAND"
	GeoOK      GeoClass = "OK"
	GeoMonitor GeoClass = "MONITOR"
)

type GeoDetector struct {
	provider   FactProvider
	thresholds config.Thresholds
	rules      []Rule[domain.FactRow]
}

func NewGeoDetector(provider FactProvider, thresholds config.Thresholds) *GeoDetector {
	return &GeoDetector{
		provider:   provider,
		thresholds: thresholds,
		rules:      geoRules(thresholds),
	}
}

func (d *GeoDetector) Name() string {
	return "geo_waste"
}

func (d *GeoDetector) Detect(ctx context.Context, scope Scope) ([]domain.Recommendation, error) {
	rows, totals, err := loadGeoRows(ctx, d.provider, scope)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNoData
	}

	env := Env{Scope: scope, AvgCTR: totals.CTR(), Totals: totals}

	return evaluate(ctx, rows, d.rules, env), nil
}

// loadGeoRows busca as linhas por país e os totais da conta. Sem linha de
// conta, os totais são a soma dos países.
func loadGeoRows(ctx context.Context, provider FactProvider, scope Scope) ([]domain.FactRow, domain.Traffic, error) {
	rows, err := provider.GetAggregate(ctx, domain.DimensionGeo, scope.WindowDays, scope.Filters())
	if err != nil {
		return nil, domain.Traffic{}, fmt.Errorf("erro ao buscar tráfego por país: %w", err)
	}

	totals, err := AccountTotals(ctx, provider, scope)
	if err != nil {
		return nil, domain.Traffic{}, err
	}
	if totals.Impressions == 0 && totals.ReachedQueries == 0 {
		for _, row := range rows {
			totals = totals.Add(row.Traffic)
		}
	}

	return rows, totals, nil
}

func isUnderperformingGeo(row domain.FactRow, avgCTR float64, th config.Thresholds) bool {
	ctr := row.CTR()
	lowCTR := (avgCTR > 0 && ctr < avgCTR*th.GeoUnderperformRatio) || ctr < th.GeoLowCTRFloor

	return lowCTR && row.Impressions > th.GeoMinImpressions && row.SpendUSD() > th.GeoMinSpendUSD
}

// ClassifyGeo decide se o país entra, sai ou fica em observação no pretargeting
func ClassifyGeo(row domain.FactRow, avgCTR float64, th config.Thresholds) GeoClass {
	if isUnderperformingGeo(row, avgCTR, th) {
		return GeoExclude
	}
	if row.Impressions < th.BundleGoodGeoMinImpressions {
		return GeoMonitor
	}

	ctr := row.CTR()
	switch {
	case avgCTR > 0 && ctr > avgCTR*th.GeoExpandCTRRatio:
		return GeoExpand
	case ctr >= avgCTR*th.GeoGoodCTRRatio:
		return GeoOK
	default:
		return GeoMonitor
	}
}

func geoRules(th config.Thresholds) []Rule[domain.FactRow] {
	entity := func(row domain.FactRow) string { return row.DimensionKey }

	excludeAction := func(row domain.FactRow) domain.Action {
		return domain.Action{
			ActionType:        domain.ActionExclude,
			TargetType:        domain.TargetGeo,
			TargetID:          CountryCode(row.DimensionKey),
			TargetName:        row.DimensionKey,
			PretargetingField: domain.StringPtr(fieldExcludedGeographies),
			Example:           domain.StringPtr(fmt.Sprintf("Adicionar %s em excludedGeographies do pretargeting", CountryCode(row.DimensionKey))),
		}
	}

	wasteImpact := func(row domain.FactRow, env Env) domain.Impact {
		wastedDaily := row.DailyQueries(env.Scope.WindowDays) * row.WasteRate()
		return domain.Impact{
			WastedQPS:               qps(wastedDaily),
			WastedQueriesDaily:      int64(wastedDaily),
			PercentOfTotalWaste:     utils.Percent(float64(row.ReachedQueries), float64(env.Totals.ReachedQueries)),
			PotentialSavingsMonthly: monthlySavings(wastedDaily, th.CostPerThousandQueries),
		}
	}

	return []Rule[domain.FactRow]{
		{
			SignalType: "geo_underperforming",
			Type:       domain.RecommendationGeoExclusion,
			ExpiryDays: th.GeoExpiryDays,
			Entity:     entity,
			Match: func(row domain.FactRow, env Env) bool {
				return isUnderperformingGeo(row, env.AvgCTR, th)
			},
			Classify: func(row domain.FactRow, env Env) (domain.Severity, domain.Confidence) {
				confidence := domain.ConfidenceMedium
				if row.Impressions > th.GeoHighConfidenceImpressions {
					confidence = domain.ConfidenceHigh
				}
				return spendSeverity(row.SpendUSD(), th.GeoHighSpendUSD, th.GeoMediumSpendUSD), confidence
			},
			Evidence: func(row domain.FactRow, env Env) []domain.Evidence {
				threshold := th.GeoLowCTRFloor
				if env.AvgCTR > 0 && env.AvgCTR*th.GeoUnderperformRatio > threshold {
					threshold = env.AvgCTR * th.GeoUnderperformRatio
				}
				return []domain.Evidence{
					evidence(env, "ctr", row.CTR()*100, utils.RoundTo(threshold*100, 4), domain.ComparisonBelow, row.Impressions),
					evidence(env, "spend_usd", row.SpendUSD(), th.GeoMinSpendUSD, domain.ComparisonAbove, row.Impressions),
				}
			},
			Actions: func(row domain.FactRow, env Env) []domain.Action {
				return []domain.Action{excludeAction(row)}
			},
			Text: func(row domain.FactRow, env Env) (string, string) {
				return fmt.Sprintf("País com baixo desempenho: %s", row.DimensionKey),
					fmt.Sprintf(
						"%s tem CTR de %.3f%% contra média da conta de %.3f%%, com US$ %.2f gastos em %d impressões.",
						row.DimensionKey, row.CTR()*100, env.AvgCTR*100, row.SpendUSD(), row.Impressions,
					)
			},
			Impact: func(row domain.FactRow, env Env) domain.Impact {
				wasted := row.SpendUSD() * th.GeoSavingsRatio
				return domain.Impact{
					WastedSpendUSD:          utils.RoundWithTwoDecimalPlace(wasted),
					PercentOfTotalWaste:     utils.Percent(row.SpendUSD(), env.Totals.SpendUSD()),
					PotentialSavingsMonthly: utils.RoundWithTwoDecimalPlace(wasted * 30 / float64(max(env.Scope.WindowDays, 1))),
				}
			},
			Attributes: func(row domain.FactRow, env Env) map[string]string {
				return map[string]string{"country_code": CountryCode(row.DimensionKey)}
			},
		},
		{
			SignalType: "geo_high_waste",
			Type:       domain.RecommendationGeoExclusion,
			ExpiryDays: th.GeoExpiryDays,
			Entity:     entity,
			Match: func(row domain.FactRow, env Env) bool {
				return row.ReachedQueries > th.GeoHighWasteMinQueries && row.WasteRate() > th.GeoHighWasteRate
			},
			Classify: func(row domain.FactRow, env Env) (domain.Severity, domain.Confidence) {
				if row.WasteRate() > th.GeoExtremeWasteRate {
					return domain.SeverityHigh, domain.ConfidenceHigh
				}
				return domain.SeverityMedium, domain.ConfidenceMedium
			},
			Evidence: func(row domain.FactRow, env Env) []domain.Evidence {
				return []domain.Evidence{
					evidence(env, "waste_rate", row.WasteRate(), th.GeoHighWasteRate, domain.ComparisonAbove, row.ReachedQueries),
					evidence(env, "reached_queries", float64(row.ReachedQueries), float64(th.GeoHighWasteMinQueries), domain.ComparisonAbove, row.ReachedQueries),
				}
			},
			Actions: func(row domain.FactRow, env Env) []domain.Action {
				if row.WasteRate() > th.GeoExtremeWasteRate {
					return []domain.Action{excludeAction(row)}
				}
				return []domain.Action{{
					ActionType: domain.ActionReview,
					TargetType: domain.TargetGeo,
					TargetID:   CountryCode(row.DimensionKey),
					TargetName: fmt.Sprintf("Revisar segmentação em %s", row.DimensionKey),
				}}
			},
			Text: func(row domain.FactRow, env Env) (string, string) {
				return fmt.Sprintf("Desperdício alto de queries: %s", row.DimensionKey),
					fmt.Sprintf(
						"%.1f%% das %d queries de %s não viram impressão.",
						row.WasteRate()*100, row.ReachedQueries, row.DimensionKey,
					)
			},
			Impact: wasteImpact,
			Attributes: func(row domain.FactRow, env Env) map[string]string {
				return map[string]string{"country_code": CountryCode(row.DimensionKey)}
			},
		},
		{
			SignalType: "geo_coverage_gap",
			Type:       domain.RecommendationConfigInefficiency,
			ExpiryDays: th.GeoCoverageExpiryDays,
			Entity:     entity,
			Match: func(row domain.FactRow, env Env) bool {
				return row.CreativeCount != nil &&
					row.ReachedQueries > th.GeoCoverageMinQueries &&
					row.Creatives() < th.GeoCoverageMinCreatives
			},
			Classify: func(row domain.FactRow, env Env) (domain.Severity, domain.Confidence) {
				return domain.SeverityLow, domain.ConfidenceMedium
			},
			Evidence: func(row domain.FactRow, env Env) []domain.Evidence {
				return []domain.Evidence{
					evidence(env, "creative_count", float64(row.Creatives()), float64(th.GeoCoverageMinCreatives), domain.ComparisonBelow, row.ReachedQueries),
					evidence(env, "reached_queries", float64(row.ReachedQueries), float64(th.GeoCoverageMinQueries), domain.ComparisonAbove, row.ReachedQueries),
				}
			},
			Actions: func(row domain.FactRow, env Env) []domain.Action {
				return []domain.Action{{
					ActionType: domain.ActionAdd,
					TargetType: domain.TargetCreative,
					TargetID:   CountryCode(row.DimensionKey),
					TargetName: fmt.Sprintf("Mais criativos para %s", row.DimensionKey),
				}}
			},
			Text: func(row domain.FactRow, env Env) (string, string) {
				return fmt.Sprintf("Poucos criativos ativos em %s", row.DimensionKey),
					fmt.Sprintf(
						"%s recebeu %d queries com apenas %d criativo(s) ativo(s).",
						row.DimensionKey, row.ReachedQueries, row.Creatives(),
					)
			},
			Impact: wasteImpact,
		},
	}
}
