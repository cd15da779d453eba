package detecting

import (
	"context"
	"fmt"

	"github.com/vfg2006/traffic-advisor-api/internal/config"
	"github.com/vfg2006/traffic-advisor-api/internal/domain"
	"github.com/vfg2006/traffic-advisor-api/pkg/utils"
)

const fieldExcludedPublishers = "excluded_publisher_list"

// HumanReviewNotice acompanha toda recomendação de fraude: são indícios, não provas
const HumanReviewNotice = "Sinal de fraude é apenas um indício: confirme manualmente antes de bloquear qualquer publisher."

type FraudDetector struct {
	provider       FactProvider
	publisherRules []Rule[domain.FactRow]
	violationRules []Rule[domain.ClickViolation]
}

func NewFraudDetector(provider FactProvider, thresholds config.Thresholds) *FraudDetector {
	return &FraudDetector{
		provider:       provider,
		publisherRules: fraudPublisherRules(thresholds),
		violationRules: fraudViolationRules(thresholds),
	}
}

func (d *FraudDetector) Name() string {
	return "fraud_signal"
}

func (d *FraudDetector) Detect(ctx context.Context, scope Scope) ([]domain.Recommendation, error) {
	publishers, err := d.provider.GetAggregate(ctx, domain.DimensionPublisher, scope.WindowDays, scope.Filters())
	if err != nil {
		return nil, fmt.Errorf("erro ao buscar tráfego por publisher: %w", err)
	}

	violations, err := d.provider.GetClickViolations(ctx, scope.WindowDays, scope.Filters())
	if err != nil {
		return nil, fmt.Errorf("erro ao buscar dias com cliques acima de impressões: %w", err)
	}

	if len(publishers) == 0 && len(violations) == 0 {
		return nil, ErrNoData
	}

	env := Env{Scope: scope}
	recommendations := evaluate(ctx, publishers, d.publisherRules, env)
	recommendations = append(recommendations, evaluate(ctx, violations, d.violationRules, env)...)

	return recommendations, nil
}

// violationStrength gradua dias com cliques acima de impressões; severidade e
// confiança andam juntas
func violationStrength(days int, th config.Thresholds) (domain.Severity, domain.Confidence) {
	switch {
	case days >= th.FraudHighViolationDays:
		return domain.SeverityHigh, domain.ConfidenceHigh
	case days >= th.FraudMediumViolationDays:
		return domain.SeverityMedium, domain.ConfidenceMedium
	default:
		return domain.SeverityLow, domain.ConfidenceLow
	}
}

func withNotice(description string) string {
	return description + " " + HumanReviewNotice
}

func reviewPublisher(publisherID string) domain.Action {
	return domain.Action{
		ActionType:        domain.ActionReview,
		TargetType:        domain.TargetPublisher,
		TargetID:          publisherID,
		TargetName:        publisherID,
		PretargetingField: domain.StringPtr(fieldExcludedPublishers),
		Example:           domain.StringPtr("Investigar o tráfego antes de incluir o publisher em excludedPublisherList"),
	}
}

func fraudPublisherRules(th config.Thresholds) []Rule[domain.FactRow] {
	entity := func(row domain.FactRow) string { return row.DimensionKey }

	return []Rule[domain.FactRow]{
		{
			SignalType: "fraud_click_rate",
			Type:       domain.RecommendationFraudAlert,
			ExpiryDays: th.FraudAlertExpiryDays,
			Entity:     entity,
			Match: func(row domain.FactRow, env Env) bool {
				return row.Impressions > th.FraudMinImpressions && row.CTR() > th.FraudHighCTR
			},
			Classify: func(row domain.FactRow, env Env) (domain.Severity, domain.Confidence) {
				if row.SpendUSD() > th.FraudCriticalSpendUSD {
					return domain.SeverityCritical, domain.ConfidenceMedium
				}
				return domain.SeverityHigh, domain.ConfidenceMedium
			},
			Evidence: func(row domain.FactRow, env Env) []domain.Evidence {
				return []domain.Evidence{
					evidence(env, "ctr", row.CTR()*100, th.FraudHighCTR*100, domain.ComparisonAbove, row.Impressions),
					evidence(env, "spend_usd", row.SpendUSD(), th.FraudCriticalSpendUSD, domain.ComparisonAbove, row.Impressions),
				}
			},
			Actions: func(row domain.FactRow, env Env) []domain.Action {
				return []domain.Action{reviewPublisher(row.DimensionKey)}
			},
			Text: func(row domain.FactRow, env Env) (string, string) {
				return fmt.Sprintf("Taxa de cliques suspeita: %s", row.DimensionKey),
					withNotice(fmt.Sprintf(
						"%s tem CTR de %.2f%% em %d impressões, muito acima do normal para display.",
						row.DimensionKey, row.CTR()*100, row.Impressions,
					))
			},
			Impact: func(row domain.FactRow, env Env) domain.Impact {
				return domain.Impact{
					WastedSpendUSD:          row.SpendUSD(),
					PotentialSavingsMonthly: utils.RoundWithTwoDecimalPlace(row.SpendUSD() * 30 / float64(max(env.Scope.WindowDays, 1))),
				}
			},
		},
		{
			SignalType: "fraud_zero_clicks",
			Type:       domain.RecommendationPublisherBlock,
			ExpiryDays: th.FraudBlockExpiryDays,
			Entity:     entity,
			Match: func(row domain.FactRow, env Env) bool {
				return row.SpendUSD() > th.FraudZeroClickSpendUSD && row.Clicks == 0
			},
			Classify: func(row domain.FactRow, env Env) (domain.Severity, domain.Confidence) {
				if row.SpendUSD() > th.FraudZeroClickHighSpendUSD {
					return domain.SeverityHigh, domain.ConfidenceHigh
				}
				return domain.SeverityMedium, domain.ConfidenceHigh
			},
			Evidence: func(row domain.FactRow, env Env) []domain.Evidence {
				return []domain.Evidence{
					evidence(env, "spend_usd", row.SpendUSD(), th.FraudZeroClickSpendUSD, domain.ComparisonAbove, row.Impressions),
					evidence(env, "clicks", 0, 1, domain.ComparisonBelow, row.Impressions),
				}
			},
			Actions: func(row domain.FactRow, env Env) []domain.Action {
				return []domain.Action{{
					ActionType:        domain.ActionBlock,
					TargetType:        domain.TargetPublisher,
					TargetID:          row.DimensionKey,
					TargetName:        row.DimensionKey,
					PretargetingField: domain.StringPtr(fieldExcludedPublishers),
					Example:           domain.StringPtr(fmt.Sprintf("Adicionar %s em excludedPublisherList após revisão", row.DimensionKey)),
				}}
			},
			Text: func(row domain.FactRow, env Env) (string, string) {
				return fmt.Sprintf("Gasto sem nenhum clique: %s", row.DimensionKey),
					withNotice(fmt.Sprintf(
						"%s consumiu US$ %.2f em %d impressões sem registrar cliques.",
						row.DimensionKey, row.SpendUSD(), row.Impressions,
					))
			},
			Impact: func(row domain.FactRow, env Env) domain.Impact {
				return domain.Impact{
					WastedSpendUSD:          row.SpendUSD(),
					PotentialSavingsMonthly: utils.RoundWithTwoDecimalPlace(row.SpendUSD() * 30 / float64(max(env.Scope.WindowDays, 1))),
				}
			},
		},
		{
			SignalType: "fraud_low_ctr",
			Type:       domain.RecommendationFraudAlert,
			ExpiryDays: th.FraudAlertExpiryDays,
			Entity:     entity,
			Match: func(row domain.FactRow, env Env) bool {
				return row.Impressions > th.FraudLowCTRMinImpressions &&
					row.SpendUSD() > th.FraudLowCTRMinSpendUSD &&
					row.Clicks > 0 &&
					row.CTR() < th.FraudLowCTR
			},
			Classify: func(row domain.FactRow, env Env) (domain.Severity, domain.Confidence) {
				return domain.SeverityMedium, domain.ConfidenceLow
			},
			Evidence: func(row domain.FactRow, env Env) []domain.Evidence {
				return []domain.Evidence{
					evidence(env, "ctr", row.CTR()*100, th.FraudLowCTR*100, domain.ComparisonBelow, row.Impressions),
				}
			},
			Actions: func(row domain.FactRow, env Env) []domain.Action {
				return []domain.Action{reviewPublisher(row.DimensionKey)}
			},
			Text: func(row domain.FactRow, env Env) (string, string) {
				return fmt.Sprintf("CTR anormalmente baixo: %s", row.DimensionKey),
					withNotice(fmt.Sprintf(
						"%s tem %d cliques em %d impressões, padrão comum de impressões não visíveis.",
						row.DimensionKey, row.Clicks, row.Impressions,
					))
			},
		},
	}
}

func fraudViolationRules(th config.Thresholds) []Rule[domain.ClickViolation] {
	return []Rule[domain.ClickViolation]{
		{
			SignalType: "fraud_clicks_exceed_impressions",
			Type:       domain.RecommendationFraudAlert,
			ExpiryDays: th.FraudAlertExpiryDays,
			Entity:     func(row domain.ClickViolation) string { return row.PublisherID },
			Match: func(row domain.ClickViolation, env Env) bool {
				return row.ViolationDays >= th.FraudMinViolationDays
			},
			Classify: func(row domain.ClickViolation, env Env) (domain.Severity, domain.Confidence) {
				return violationStrength(row.ViolationDays, th)
			},
			Evidence: func(row domain.ClickViolation, env Env) []domain.Evidence {
				return []domain.Evidence{
					evidence(env, "violation_days", float64(row.ViolationDays), float64(th.FraudMinViolationDays), domain.ComparisonAbove, int64(row.ViolationDays)),
				}
			},
			Actions: func(row domain.ClickViolation, env Env) []domain.Action {
				return []domain.Action{reviewPublisher(row.PublisherID)}
			},
			Text: func(row domain.ClickViolation, env Env) (string, string) {
				return fmt.Sprintf("Cliques acima de impressões: %s", row.PublisherID),
					withNotice(fmt.Sprintf(
						"%s registrou mais cliques que impressões em %d dia(s) da janela.",
						row.PublisherID, row.ViolationDays,
					))
			},
		},
	}
}
