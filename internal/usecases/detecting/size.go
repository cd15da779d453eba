package detecting

import (
	"context"
	"fmt"

	"github.com/vfg2006/traffic-advisor-api/internal/config"
	"github.com/vfg2006/traffic-advisor-api/internal/domain"
	"github.com/vfg2006/traffic-advisor-api/pkg/utils"
)

const (
	fieldExcludedDimensions = "excluded_creative_dimensions"
	signalSizeCoverage      = "size_coverage_gap"
)

// sizeRow é a linha de tamanho já normalizada para as regras
type sizeRow struct {
	domain.FactRow
	Canonical string
	Category  domain.SizeCategory
	Nearest   *domain.IABSize
	Daily     float64
	WastePct  float64
}

func (r sizeRow) nearestLabel() string {
	if r.Nearest == nil {
		return ""
	}
	return r.Nearest.Label()
}

type SizeDetector struct {
	provider   FactProvider
	thresholds config.Thresholds
	rules      []Rule[sizeRow]
}

func NewSizeDetector(provider FactProvider, thresholds config.Thresholds) *SizeDetector {
	return &SizeDetector{
		provider:   provider,
		thresholds: thresholds,
		rules:      sizeRules(thresholds),
	}
}

func (d *SizeDetector) Name() string {
	return "size_coverage"
}

func (d *SizeDetector) Detect(ctx context.Context, scope Scope) ([]domain.Recommendation, error) {
	facts, err := d.provider.GetAggregate(ctx, domain.DimensionSize, scope.WindowDays, scope.Filters())
	if err != nil {
		return nil, fmt.Errorf("erro ao buscar tráfego por tamanho: %w", err)
	}
	if len(facts) == 0 {
		return nil, ErrNoData
	}

	rows := normalizeSizes(facts, scope.WindowDays, d.thresholds.SizeIABTolerancePx)

	return evaluate(ctx, rows, d.rules, Env{Scope: scope}), nil
}

// normalizeSizes calcula nome canônico, vizinho IAB, volume diário e
// participação de cada tamanho no total de queries.
func normalizeSizes(facts []domain.FactRow, windowDays, tolerancePx int) []sizeRow {
	var total int64
	for _, fact := range facts {
		total += fact.ReachedQueries
	}

	rows := make([]sizeRow, 0, len(facts))
	for _, fact := range facts {
		row := sizeRow{
			FactRow:   fact,
			Canonical: fact.DimensionKey,
			Category:  domain.SizeCategoryNonStandard,
			Daily:     fact.DailyQueries(windowDays),
			WastePct:  utils.Percent(float64(fact.ReachedQueries), float64(total)),
		}

		if width, height, ok := domain.ParseSize(fact.DimensionKey); ok {
			row.Canonical = domain.CanonicalSize(width, height)
			row.Category = domain.CategoryOf(row.Canonical)
			if iab, near := domain.NearestIAB(width, height, tolerancePx); near {
				row.Nearest = &iab
			}
		}

		rows = append(rows, row)
	}

	return rows
}

func sizeConfidence(queries int64, th config.Thresholds) domain.Confidence {
	switch {
	case queries > th.SizeHighConfidenceQueries:
		return domain.ConfidenceHigh
	case queries > th.SizeMediumConfidenceQueries:
		return domain.ConfidenceMedium
	default:
		return domain.ConfidenceLow
	}
}

func sizeRules(th config.Thresholds) []Rule[sizeRow] {
	uncovered := func(row sizeRow) bool {
		return row.Creatives() == 0
	}

	coverageEvidence := func(floor float64) func(row sizeRow, env Env) []domain.Evidence {
		return func(row sizeRow, env Env) []domain.Evidence {
			return []domain.Evidence{
				evidence(env, "daily_requests", row.Daily, floor, domain.ComparisonAbove, row.ReachedQueries),
				evidence(env, "creative_count", 0, 1, domain.ComparisonBelow, row.ReachedQueries),
			}
		}
	}

	impact := func(row sizeRow, env Env) domain.Impact {
		savings := monthlySavings(row.Daily, th.CostPerThousandQueries)
		return domain.Impact{
			WastedQPS:               qps(row.Daily),
			WastedQueriesDaily:      int64(row.Daily),
			WastedSpendUSD:          utils.RoundWithTwoDecimalPlace(savings / 30),
			PercentOfTotalWaste:     row.WastePct,
			PotentialSavingsMonthly: savings,
		}
	}

	attributes := func(row sizeRow, env Env) map[string]string {
		attrs := map[string]string{
			"canonical_size": row.Canonical,
			"size_category":  string(row.Category),
		}
		if row.Nearest != nil {
			attrs["closest_iab_size"] = row.Nearest.Label()
		}
		return attrs
	}

	flexibleAction := func(row sizeRow) domain.Action {
		return domain.Action{
			ActionType: domain.ActionAdd,
			TargetType: domain.TargetCreative,
			TargetID:   row.DimensionKey,
			TargetName: fmt.Sprintf("HTML5 flexível para %s", row.nearestLabel()),
			Example:    domain.StringPtr(fmt.Sprintf("Criar criativo HTML5 que renderize em %s", row.nearestLabel())),
		}
	}

	text := func(row sizeRow, env Env) (string, string) {
		title := fmt.Sprintf("Tamanho sem criativo: %s", row.Canonical)
		description := fmt.Sprintf(
			"%s recebe %.0f queries/dia sem nenhum criativo aprovado (%.2f%% das queries por tamanho).",
			row.DimensionKey, row.Daily, row.WastePct,
		)
		if row.Nearest != nil {
			description += fmt.Sprintf(" Está a poucos pixels de %s.", row.nearestLabel())
		}
		return title, description
	}

	entity := func(row sizeRow) string { return row.DimensionKey }

	return []Rule[sizeRow]{
		{
			SignalType: signalSizeCoverage,
			Type:       domain.RecommendationSizeMismatch,
			ExpiryDays: th.SizeExpiryDays,
			Entity:     entity,
			Match: func(row sizeRow, env Env) bool {
				return uncovered(row) && row.Daily >= th.SizeHighVolumeDaily
			},
			Classify: func(row sizeRow, env Env) (domain.Severity, domain.Confidence) {
				severity := domain.SeverityMedium
				if row.WastePct > th.SizeHighWastePct {
					severity = domain.SeverityHigh
				}
				return severity, sizeConfidence(row.ReachedQueries, th)
			},
			Evidence: coverageEvidence(th.SizeHighVolumeDaily),
			Actions: func(row sizeRow, env Env) []domain.Action {
				if row.Nearest != nil {
					return []domain.Action{flexibleAction(row)}
				}
				return []domain.Action{{
					ActionType:        domain.ActionBlock,
					TargetType:        domain.TargetSize,
					TargetID:          row.DimensionKey,
					TargetName:        row.Canonical,
					PretargetingField: domain.StringPtr(fieldExcludedDimensions),
					Example:           domain.StringPtr(fmt.Sprintf("Adicionar %s em excludedCreativeDimensions do pretargeting", row.DimensionKey)),
				}}
			},
			Text:       text,
			Impact:     impact,
			Attributes: attributes,
		},
		{
			SignalType: signalSizeCoverage,
			Type:       domain.RecommendationSizeMismatch,
			ExpiryDays: th.SizeExpiryDays,
			Entity:     entity,
			Match: func(row sizeRow, env Env) bool {
				return uncovered(row) && row.Daily >= th.SizeMediumVolumeDaily && row.Daily < th.SizeHighVolumeDaily
			},
			Classify: func(row sizeRow, env Env) (domain.Severity, domain.Confidence) {
				severity := domain.SeverityLow
				if row.WastePct > th.SizeMediumWastePct {
					severity = domain.SeverityMedium
				}
				return severity, sizeConfidence(row.ReachedQueries, th)
			},
			Evidence: coverageEvidence(th.SizeMediumVolumeDaily),
			Actions: func(row sizeRow, env Env) []domain.Action {
				if row.Nearest != nil {
					return []domain.Action{flexibleAction(row)}
				}
				return []domain.Action{{
					ActionType: domain.ActionAdd,
					TargetType: domain.TargetCreative,
					TargetID:   row.DimensionKey,
					TargetName: fmt.Sprintf("Novo criativo para %s", row.Canonical),
				}}
			},
			Text:       text,
			Impact:     impact,
			Attributes: attributes,
		},
		{
			SignalType: signalSizeCoverage,
			Type:       domain.RecommendationSizeMismatch,
			ExpiryDays: th.SizeExpiryDays,
			Entity:     entity,
			Match: func(row sizeRow, env Env) bool {
				return uncovered(row) && row.Daily >= th.SizeLowVolumeDaily && row.Daily < th.SizeMediumVolumeDaily
			},
			Classify: func(row sizeRow, env Env) (domain.Severity, domain.Confidence) {
				return domain.SeverityLow, sizeConfidence(row.ReachedQueries, th)
			},
			Evidence: coverageEvidence(th.SizeLowVolumeDaily),
			Actions: func(row sizeRow, env Env) []domain.Action {
				return []domain.Action{{
					ActionType: domain.ActionReview,
					TargetType: domain.TargetSize,
					TargetID:   row.DimensionKey,
					TargetName: fmt.Sprintf("Monitorar %s", row.Canonical),
				}}
			},
			Text:       text,
			Impact:     impact,
			Attributes: attributes,
		},
		{
			SignalType: "size_low_win_rate",
			Type:       domain.RecommendationOpportunity,
			ExpiryDays: th.SizeExpiryDays,
			Entity:     entity,
			Match: func(row sizeRow, env Env) bool {
				return row.Creatives() > 0 &&
					row.ReachedQueries > th.SizeLowWinRateMinQueries &&
					row.WinRate() < th.SizeLowWinRate
			},
			Classify: func(row sizeRow, env Env) (domain.Severity, domain.Confidence) {
				return domain.SeverityMedium, domain.ConfidenceMedium
			},
			Evidence: func(row sizeRow, env Env) []domain.Evidence {
				return []domain.Evidence{
					evidence(env, "win_rate", row.WinRate(), th.SizeLowWinRate, domain.ComparisonBelow, row.ReachedQueries),
					evidence(env, "reached_queries", float64(row.ReachedQueries), float64(th.SizeLowWinRateMinQueries), domain.ComparisonAbove, row.ReachedQueries),
				}
			},
			Actions: func(row sizeRow, env Env) []domain.Action {
				return []domain.Action{{
					ActionType: domain.ActionReview,
					TargetType: domain.TargetSize,
					TargetID:   row.DimensionKey,
					TargetName: fmt.Sprintf("Revisar lances e criativos de %s", row.Canonical),
				}}
			},
			Text: func(row sizeRow, env Env) (string, string) {
				return fmt.Sprintf("Baixa taxa de vitória em %s", row.Canonical),
					fmt.Sprintf(
						"%s tem %d criativo(s) mas vence apenas %.2f%% das %d queries. Revise lances e qualidade dos criativos antes de qualquer bloqueio.",
						row.DimensionKey, row.Creatives(), row.WinRate()*100, row.ReachedQueries,
					)
			},
			Attributes: attributes,
		},
		{
			SignalType: "size_high_win_rate",
			Type:       domain.RecommendationOpportunity,
			ExpiryDays: th.SizeExpiryDays,
			Entity:     entity,
			Match: func(row sizeRow, env Env) bool {
				return row.WinRate() > th.SizeHighWinRate &&
					row.ReachedQueries > th.SizeHighWinRateMinQueries &&
					row.ReachedQueries < th.SizeHighWinRateMaxQueries
			},
			Classify: func(row sizeRow, env Env) (domain.Severity, domain.Confidence) {
				return domain.SeverityLow, domain.ConfidenceMedium
			},
			Evidence: func(row sizeRow, env Env) []domain.Evidence {
				return []domain.Evidence{
					evidence(env, "win_rate", row.WinRate(), th.SizeHighWinRate, domain.ComparisonAbove, row.ReachedQueries),
				}
			},
			Actions: func(row sizeRow, env Env) []domain.Action {
				return []domain.Action{{
					ActionType: domain.ActionReview,
					TargetType: domain.TargetSize,
					TargetID:   row.DimensionKey,
					TargetName: fmt.Sprintf("Aumentar alocação em %s", row.Canonical),
				}}
			},
			Text: func(row sizeRow, env Env) (string, string) {
				return fmt.Sprintf("Oportunidade de escala em %s", row.Canonical),
					fmt.Sprintf(
						"%s vence %.2f%% das queries com volume ainda pequeno (%d). Considere ampliar a alocação.",
						row.DimensionKey, row.WinRate()*100, row.ReachedQueries,
					)
			},
			Attributes: attributes,
		},
	}
}
