package detecting

import (
	"context"
	"fmt"
	"strings"

	"github.com/vfg2006/traffic-advisor-api/internal/config"
	"github.com/vfg2006/traffic-advisor-api/internal/domain"
	"github.com/vfg2006/traffic-advisor-api/pkg/utils"
)

const (
	statusNotApproved = "CREATIVE_NOT_APPROVED"
	statusDisapproved = "CREATIVE_DISAPPROVED"
)

type ConfigDetector struct {
	provider    FactProvider
	totalRules  []Rule[domain.Traffic]
	formatRules []Rule[domain.FactRow]
	deviceRules []Rule[domain.FactRow]
	bidRules    []Rule[domain.FilteredBidFact]
}

func NewConfigDetector(provider FactProvider, thresholds config.Thresholds) *ConfigDetector {
	return &ConfigDetector{
		provider:    provider,
		totalRules:  configTotalRules(thresholds),
		formatRules: configFormatRules(thresholds),
		deviceRules: configDeviceRules(thresholds),
		bidRules:    filteredBidRules(thresholds),
	}
}

func (d *ConfigDetector) Name() string {
	return "config_efficiency"
}

func (d *ConfigDetector) Detect(ctx context.Context, scope Scope) ([]domain.Recommendation, error) {
	filters := scope.Filters()

	totals, err := AccountTotals(ctx, d.provider, scope)
	if err != nil {
		return nil, err
	}

	formats, err := d.provider.GetAggregate(ctx, domain.DimensionFormat, scope.WindowDays, filters)
	if err != nil {
		return nil, fmt.Errorf("erro ao buscar tráfego por formato: %w", err)
	}

	devices, err := d.provider.GetAggregate(ctx, domain.DimensionDevice, scope.WindowDays, filters)
	if err != nil {
		return nil, fmt.Errorf("erro ao buscar tráfego por dispositivo: %w", err)
	}

	bids, err := d.provider.GetFilteredBids(ctx, scope.WindowDays, filters)
	if err != nil {
		return nil, fmt.Errorf("erro ao buscar lances filtrados: %w", err)
	}

	if totals.ReachedQueries == 0 && len(formats) == 0 && len(devices) == 0 && len(bids) == 0 {
		return nil, ErrNoData
	}

	env := Env{Scope: scope, AvgCTR: totals.CTR(), Totals: totals}

	recommendations := evaluate(ctx, []domain.Traffic{totals}, d.totalRules, env)
	recommendations = append(recommendations, evaluate(ctx, formats, d.formatRules, env)...)
	recommendations = append(recommendations, evaluate(ctx, devices, d.deviceRules, env)...)
	recommendations = append(recommendations, evaluate(ctx, withBidShares(bids), d.bidRules, env)...)

	return recommendations, nil
}

// withBidShares preenche o percentual de cada motivo sobre o total filtrado
func withBidShares(bids []domain.FilteredBidFact) []domain.FilteredBidFact {
	var total int64
	for _, bid := range bids {
		total += bid.Bids
	}

	shared := make([]domain.FilteredBidFact, 0, len(bids))
	for _, bid := range bids {
		bid.Percent = utils.Percent(float64(bid.Bids), float64(total))
		shared = append(shared, bid)
	}
	return shared
}

func configTotalRules(th config.Thresholds) []Rule[domain.Traffic] {
	return []Rule[domain.Traffic]{
		{
			SignalType: "config_overall_waste",
			Type:       domain.RecommendationConfigInefficiency,
			ExpiryDays: th.ConfigExpiryDays,
			Entity:     func(t domain.Traffic) string { return "pretargeting" },
			Match: func(t domain.Traffic, env Env) bool {
				return t.ReachedQueries >= th.ConfigMinQueries && t.WasteRate() > th.ConfigHighWasteRate
			},
			Classify: func(t domain.Traffic, env Env) (domain.Severity, domain.Confidence) {
				if t.WasteRate() > th.ConfigCriticalWasteRate {
					return domain.SeverityHigh, domain.ConfidenceHigh
				}
				return domain.SeverityMedium, domain.ConfidenceHigh
			},
			Evidence: func(t domain.Traffic, env Env) []domain.Evidence {
				return []domain.Evidence{
					evidence(env, "waste_rate", t.WasteRate(), th.ConfigHighWasteRate, domain.ComparisonAbove, t.ReachedQueries),
				}
			},
			Actions: func(t domain.Traffic, env Env) []domain.Action {
				return []domain.Action{{
					ActionType:        domain.ActionReview,
					TargetType:        domain.TargetConfig,
					TargetID:          "pretargeting",
					TargetName:        "Configuração de pretargeting",
					PretargetingField: domain.StringPtr("all"),
					Example:           domain.StringPtr("Revisar e restringir a configuração de pretargeting"),
				}}
			},
			Text: func(t domain.Traffic, env Env) (string, string) {
				return "Pretargeting com desperdício alto",
					fmt.Sprintf(
						"%.1f%% das %d queries recebidas não viram impressão.",
						t.WasteRate()*100, t.ReachedQueries,
					)
			},
			Impact: func(t domain.Traffic, env Env) domain.Impact {
				wastedDaily := t.DailyQueries(env.Scope.WindowDays) * t.WasteRate()
				return domain.Impact{
					WastedQPS:               qps(wastedDaily),
					WastedQueriesDaily:      int64(wastedDaily),
					PercentOfTotalWaste:     100,
					PotentialSavingsMonthly: monthlySavings(wastedDaily, th.CostPerThousandQueries),
				}
			},
		},
	}
}

func configFormatRules(th config.Thresholds) []Rule[domain.FactRow] {
	return []Rule[domain.FactRow]{
		{
			SignalType: "config_format_coverage",
			Type:       domain.RecommendationConfigInefficiency,
			ExpiryDays: th.ConfigFormatExpiryDays,
			Entity:     func(row domain.FactRow) string { return row.DimensionKey },
			Match: func(row domain.FactRow, env Env) bool {
				return row.ReachedQueries >= th.ConfigMinQueries &&
					row.WinRate() < th.ConfigFormatMaxWinRate &&
					row.Creatives() < th.ConfigFormatMinCreatives
			},
			Classify: func(row domain.FactRow, env Env) (domain.Severity, domain.Confidence) {
				return domain.SeverityMedium, domain.ConfidenceMedium
			},
			Evidence: func(row domain.FactRow, env Env) []domain.Evidence {
				return []domain.Evidence{
					evidence(env, "win_rate", row.WinRate(), th.ConfigFormatMaxWinRate, domain.ComparisonBelow, row.ReachedQueries),
					evidence(env, "creative_count", float64(row.Creatives()), float64(th.ConfigFormatMinCreatives), domain.ComparisonBelow, row.ReachedQueries),
				}
			},
			Actions: func(row domain.FactRow, env Env) []domain.Action {
				return []domain.Action{
					{
						ActionType: domain.ActionAdd,
						TargetType: domain.TargetFormat,
						TargetID:   row.DimensionKey,
						TargetName: fmt.Sprintf("Criativos %s", row.DimensionKey),
					},
					{
						ActionType:        domain.ActionExclude,
						TargetType:        domain.TargetFormat,
						TargetID:          row.DimensionKey,
						TargetName:        row.DimensionKey,
						PretargetingField: domain.StringPtr("excluded_creative_formats"),
					},
				}
			},
			Text: func(row domain.FactRow, env Env) (string, string) {
				return fmt.Sprintf("Formato %s sem criativos suficientes", row.DimensionKey),
					fmt.Sprintf(
						"%s recebe %d queries com %d criativo(s) aprovado(s) e vence %.2f%% delas. Adicione criativos ou exclua o formato.",
						row.DimensionKey, row.ReachedQueries, row.Creatives(), row.WinRate()*100,
					)
			},
		},
	}
}

func configDeviceRules(th config.Thresholds) []Rule[domain.FactRow] {
	return []Rule[domain.FactRow]{
		{
			SignalType: "config_device",
			Type:       domain.RecommendationConfigInefficiency,
			ExpiryDays: th.ConfigExpiryDays,
			Entity:     func(row domain.FactRow) string { return row.DimensionKey },
			Match: func(row domain.FactRow, env Env) bool {
				return row.ReachedQueries > th.ConfigMinQueries &&
					row.WinRate() < th.ConfigDeviceMaxWinRate &&
					row.CTR() < th.ConfigDeviceMaxCTR &&
					row.SpendUSD() > th.ConfigDeviceMinSpendUSD
			},
			Classify: func(row domain.FactRow, env Env) (domain.Severity, domain.Confidence) {
				return domain.SeverityMedium, domain.ConfidenceMedium
			},
			Evidence: func(row domain.FactRow, env Env) []domain.Evidence {
				return []domain.Evidence{
					evidence(env, "win_rate", row.WinRate(), th.ConfigDeviceMaxWinRate, domain.ComparisonBelow, row.ReachedQueries),
					evidence(env, "ctr", row.CTR()*100, th.ConfigDeviceMaxCTR*100, domain.ComparisonBelow, row.Impressions),
				}
			},
			Actions: func(row domain.FactRow, env Env) []domain.Action {
				return []domain.Action{{
					ActionType:        domain.ActionExclude,
					TargetType:        domain.TargetDevice,
					TargetID:          row.DimensionKey,
					TargetName:        row.DimensionKey,
					PretargetingField: domain.StringPtr("device_types"),
				}}
			},
			Text: func(row domain.FactRow, env Env) (string, string) {
				return fmt.Sprintf("Dispositivo com baixo retorno: %s", row.DimensionKey),
					fmt.Sprintf(
						"%s vence %.2f%% das queries com CTR de %.3f%% e US$ %.2f gastos.",
						row.DimensionKey, row.WinRate()*100, row.CTR()*100, row.SpendUSD(),
					)
			},
			Impact: func(row domain.FactRow, env Env) domain.Impact {
				return domain.Impact{
					WastedSpendUSD:          row.SpendUSD(),
					PotentialSavingsMonthly: utils.RoundWithTwoDecimalPlace(row.SpendUSD() * 30 / float64(max(env.Scope.WindowDays, 1))),
				}
			},
		},
	}
}

func filteredBidRules(th config.Thresholds) []Rule[domain.FilteredBidFact] {
	entity := func(bid domain.FilteredBidFact) string { return bid.Status }

	shareEvidence := func(threshold float64) func(bid domain.FilteredBidFact, env Env) []domain.Evidence {
		return func(bid domain.FilteredBidFact, env Env) []domain.Evidence {
			return []domain.Evidence{
				evidence(env, "filtered_bid_pct", bid.Percent, threshold, domain.ComparisonAbove, bid.Bids),
			}
		}
	}

	text := func(bid domain.FilteredBidFact, env Env) (string, string) {
		return fmt.Sprintf("Lances filtrados por %s", bid.Status),
			fmt.Sprintf("%.2f%% dos lances filtrados (%d) tiveram o motivo %s.", bid.Percent, bid.Bids, bid.Status)
	}

	reviewConfig := func(name string) func(bid domain.FilteredBidFact, env Env) []domain.Action {
		return func(bid domain.FilteredBidFact, env Env) []domain.Action {
			return []domain.Action{{
				ActionType: domain.ActionReview,
				TargetType: domain.TargetConfig,
				TargetID:   bid.Status,
				TargetName: name,
			}}
		}
	}

	return []Rule[domain.FilteredBidFact]{
		{
			SignalType: "filtered_not_approved",
			Type:       domain.RecommendationCreativeReview,
			ExpiryDays: th.ConfigExpiryDays,
			Entity:     entity,
			Match: func(bid domain.FilteredBidFact, env Env) bool {
				return bid.Status == statusNotApproved && bid.Percent > th.ConfigNotApprovedPct
			},
			Classify: func(bid domain.FilteredBidFact, env Env) (domain.Severity, domain.Confidence) {
				return domain.SeverityHigh, domain.ConfidenceMedium
			},
			Evidence: shareEvidence(th.ConfigNotApprovedPct),
			Actions:  reviewConfig("Criativos aguardando aprovação"),
			Text:     text,
		},
		{
			SignalType: "filtered_disapproved",
			Type:       domain.RecommendationCreativeReview,
			ExpiryDays: th.ConfigExpiryDays,
			Entity:     entity,
			Match: func(bid domain.FilteredBidFact, env Env) bool {
				return bid.Status == statusDisapproved && bid.Percent > th.ConfigDisapprovedPct
			},
			Classify: func(bid domain.FilteredBidFact, env Env) (domain.Severity, domain.Confidence) {
				return domain.SeverityMedium, domain.ConfidenceMedium
			},
			Evidence: shareEvidence(th.ConfigDisapprovedPct),
			Actions:  reviewConfig("Criativos reprovados"),
			Text:     text,
		},
		{
			SignalType: "filtered_floor",
			Type:       domain.RecommendationConfigInefficiency,
			ExpiryDays: th.ConfigExpiryDays,
			Entity:     entity,
			Match: func(bid domain.FilteredBidFact, env Env) bool {
				return strings.Contains(strings.ToUpper(bid.Status), "FLOOR") && bid.Percent > th.ConfigFloorPct
			},
			Classify: func(bid domain.FilteredBidFact, env Env) (domain.Severity, domain.Confidence) {
				return domain.SeverityMedium, domain.ConfidenceMedium
			},
			Evidence: shareEvidence(th.ConfigFloorPct),
			Actions:  reviewConfig("Lances abaixo do preço mínimo"),
			Text:     text,
		},
	}
}
