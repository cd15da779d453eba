package detecting

import (
	"context"
	"fmt"

	"github.com/vfg2006/traffic-advisor-api/internal/config"
	"github.com/vfg2006/traffic-advisor-api/internal/domain"
	"github.com/vfg2006/traffic-advisor-api/pkg/utils"
)

const signalBrokenVideo = "creative_broken_video"

type CreativeDetector struct {
	provider FactProvider
	rules    []Rule[domain.CreativeFact]
}

func NewCreativeDetector(provider FactProvider, thresholds config.Thresholds) *CreativeDetector {
	return &CreativeDetector{
		provider: provider,
		rules:    creativeRules(thresholds),
	}
}

func (d *CreativeDetector) Name() string {
	return "creative_health"
}

func (d *CreativeDetector) Detect(ctx context.Context, scope Scope) ([]domain.Recommendation, error) {
	creatives, err := d.provider.GetCreatives(ctx, scope.WindowDays, scope.Filters())
	if err != nil {
		return nil, fmt.Errorf("erro ao buscar desempenho dos criativos: %w", err)
	}
	if len(creatives) == 0 {
		return nil, ErrNoData
	}

	totals, err := AccountTotals(ctx, d.provider, scope)
	if err != nil {
		return nil, err
	}
	if totals.Impressions == 0 {
		for _, creative := range creatives {
			totals = totals.Add(creative.Traffic)
		}
	}

	env := Env{Scope: scope, AvgCTR: totals.CTR(), Totals: totals}

	return evaluate(ctx, creatives, d.rules, env), nil
}

func pauseCreative(creative domain.CreativeFact, example string) domain.Action {
	return domain.Action{
		ActionType: domain.ActionPause,
		TargetType: domain.TargetCreative,
		TargetID:   creative.CreativeID,
		TargetName: creative.CreativeID,
		Example:    domain.StringPtr(example),
	}
}

func reviewCreative(creative domain.CreativeFact, example string) domain.Action {
	return domain.Action{
		ActionType: domain.ActionReview,
		TargetType: domain.TargetCreative,
		TargetID:   creative.CreativeID,
		TargetName: creative.CreativeID,
		Example:    domain.StringPtr(example),
	}
}

func thumbnailFailed(creative domain.CreativeFact) bool {
	return creative.ThumbnailStatus == domain.ThumbnailFailed
}

func creativeRules(th config.Thresholds) []Rule[domain.CreativeFact] {
	entity := func(c domain.CreativeFact) string { return c.CreativeID }
	affected := func(c domain.CreativeFact) []string { return []string{c.CreativeID} }

	spendImpact := func(c domain.CreativeFact, env Env) domain.Impact {
		return domain.Impact{
			WastedSpendUSD:          c.SpendUSD(),
			PercentOfTotalWaste:     utils.Percent(c.SpendUSD(), env.Totals.SpendUSD()),
			PotentialSavingsMonthly: utils.RoundWithTwoDecimalPlace(c.SpendUSD() * 30 / float64(max(env.Scope.WindowDays, 1))),
		}
	}

	queryImpact := func(c domain.CreativeFact, env Env) domain.Impact {
		daily := c.DailyQueries(env.Scope.WindowDays) * c.WasteRate()
		return domain.Impact{
			WastedQPS:               qps(daily),
			WastedQueriesDaily:      int64(daily),
			WastedSpendUSD:          c.SpendUSD(),
			PotentialSavingsMonthly: monthlySavings(daily, th.CostPerThousandQueries),
		}
	}

	return []Rule[domain.CreativeFact]{
		{
			SignalType: "creative_disapproved",
			Type:       domain.RecommendationCreativePause,
			ExpiryDays: th.CreativeUrgentExpiryDays,
			Entity:     entity,
			Affected:   affected,
			Match: func(c domain.CreativeFact, env Env) bool {
				return c.ApprovalStatus != "" && c.ApprovalStatus != domain.ApprovalApproved && c.ReachedQueries > 0
			},
			Classify: func(c domain.CreativeFact, env Env) (domain.Severity, domain.Confidence) {
				return domain.SeverityCritical, domain.ConfidenceHigh
			},
			Evidence: func(c domain.CreativeFact, env Env) []domain.Evidence {
				return []domain.Evidence{
					evidence(env, "reached_queries", float64(c.ReachedQueries), 0, domain.ComparisonAbove, c.ReachedQueries),
				}
			},
			Actions: func(c domain.CreativeFact, env Env) []domain.Action {
				return []domain.Action{
					pauseCreative(c, "Pausar o criativo até a nova aprovação"),
					reviewCreative(c, "Corrigir o motivo da reprovação e reenviar"),
				}
			},
			Text: func(c domain.CreativeFact, env Env) (string, string) {
				return fmt.Sprintf("Criativo reprovado recebendo tráfego: %s", c.CreativeID),
					fmt.Sprintf(
						"O criativo %s está com status %s e ainda recebeu %d queries na janela.",
						c.CreativeID, c.ApprovalStatus, c.ReachedQueries,
					)
			},
			Impact: queryImpact,
			Attributes: func(c domain.CreativeFact, env Env) map[string]string {
				return map[string]string{"approval_status": c.ApprovalStatus}
			},
		},
		{
			SignalType: "creative_zero_engagement",
			Type:       domain.RecommendationCreativePause,
			ExpiryDays: th.CreativeReviewExpiryDays,
			Entity:     entity,
			Affected:   affected,
			Match: func(c domain.CreativeFact, env Env) bool {
				return c.Impressions >= th.CreativeZeroEngagementImpressions &&
					c.Clicks == 0 &&
					c.DaysObserved >= th.CreativeZeroEngagementMinDays
			},
			Classify: func(c domain.CreativeFact, env Env) (domain.Severity, domain.Confidence) {
				confidence := domain.ConfidenceMedium
				if c.DaysObserved >= th.CreativeHighConfidenceDays {
					confidence = domain.ConfidenceHigh
				}
				return spendSeverity(c.SpendUSD(), th.CreativeHighSpendUSD, th.CreativeMediumSpendUSD), confidence
			},
			Evidence: func(c domain.CreativeFact, env Env) []domain.Evidence {
				return []domain.Evidence{
					evidence(env, "impressions", float64(c.Impressions), float64(th.CreativeZeroEngagementImpressions), domain.ComparisonAbove, c.Impressions),
					evidence(env, "clicks", 0, 1, domain.ComparisonBelow, c.Impressions),
					evidence(env, "days_observed", float64(c.DaysObserved), float64(th.CreativeZeroEngagementMinDays), domain.ComparisonAbove, c.Impressions),
				}
			},
			Actions: func(c domain.CreativeFact, env Env) []domain.Action {
				return []domain.Action{pauseCreative(c, "Pausar e substituir por uma variação nova")}
			},
			Text: func(c domain.CreativeFact, env Env) (string, string) {
				return fmt.Sprintf("Criativo sem engajamento: %s", c.CreativeID),
					fmt.Sprintf(
						"%s teve %d impressões em %d dias sem nenhum clique (US$ %.2f gastos).",
						c.CreativeID, c.Impressions, c.DaysObserved, c.SpendUSD(),
					)
			},
			Impact: spendImpact,
		},
		{
			SignalType: "creative_low_ctr",
			Type:       domain.RecommendationCreativeReview,
			ExpiryDays: th.CreativeReviewExpiryDays,
			Entity:     entity,
			Affected:   affected,
			Match: func(c domain.CreativeFact, env Env) bool {
				return c.Impressions > th.CreativeLowCTRMinImpressions &&
					c.SpendUSD() > th.CreativeLowCTRMinSpendUSD &&
					env.AvgCTR > 0 &&
					c.CTR() < env.AvgCTR*th.CreativeLowCTRRatio
			},
			Classify: func(c domain.CreativeFact, env Env) (domain.Severity, domain.Confidence) {
				severity := domain.SeverityMedium
				if c.SpendUSD() > th.CreativeLowCTRHighSpendUSD {
					severity = domain.SeverityHigh
				}
				confidence := domain.ConfidenceMedium
				if c.Impressions > th.CreativeHighConfidenceImpressions {
					confidence = domain.ConfidenceHigh
				}
				return severity, confidence
			},
			Evidence: func(c domain.CreativeFact, env Env) []domain.Evidence {
				return []domain.Evidence{
					evidence(env, "ctr", c.CTR()*100, utils.RoundTo(env.AvgCTR*th.CreativeLowCTRRatio*100, 4), domain.ComparisonBelow, c.Impressions),
					evidence(env, "spend_usd", c.SpendUSD(), th.CreativeLowCTRMinSpendUSD, domain.ComparisonAbove, c.Impressions),
				}
			},
			Actions: func(c domain.CreativeFact, env Env) []domain.Action {
				return []domain.Action{
					reviewCreative(c, "Revisar mensagem, imagem e chamada para ação"),
					pauseCreative(c, "Pausar se o CTR não melhorar após a revisão"),
				}
			},
			Text: func(c domain.CreativeFact, env Env) (string, string) {
				return fmt.Sprintf("CTR baixo no criativo %s", c.CreativeID),
					fmt.Sprintf(
						"%s tem CTR de %.3f%% contra média da conta de %.3f%%.",
						c.CreativeID, c.CTR()*100, env.AvgCTR*100,
					)
			},
			Impact: spendImpact,
		},
		{
			SignalType: signalBrokenVideo,
			Type:       domain.RecommendationCreativePause,
			ExpiryDays: th.CreativeExpiryDays,
			Entity:     entity,
			Affected:   affected,
			Match: func(c domain.CreativeFact, env Env) bool {
				return c.IsVideo() && thumbnailFailed(c) && (c.ReachedQueries > 0 || c.Impressions > 0)
			},
			Classify: func(c domain.CreativeFact, env Env) (domain.Severity, domain.Confidence) {
				return domain.SeverityHigh, domain.ConfidenceHigh
			},
			Evidence: func(c domain.CreativeFact, env Env) []domain.Evidence {
				return []domain.Evidence{
					evidence(env, "reached_queries", float64(c.ReachedQueries), 0, domain.ComparisonAbove, c.ReachedQueries),
				}
			},
			Actions: func(c domain.CreativeFact, env Env) []domain.Action {
				return []domain.Action{pauseCreative(c, "Verificar o arquivo de vídeo, os transcodes e a resposta VAST")}
			},
			Text: func(c domain.CreativeFact, env Env) (string, string) {
				description := fmt.Sprintf("O vídeo %s não gera miniatura e continua recebendo tráfego.", c.CreativeID)
				if c.ThumbnailError != "" {
					description += fmt.Sprintf(" Erro: %s.", c.ThumbnailError)
				}
				return fmt.Sprintf("Vídeo quebrado: %s", c.CreativeID), description
			},
			Impact: queryImpact,
			Attributes: func(c domain.CreativeFact, env Env) map[string]string {
				return map[string]string{"thumbnail_status": c.ThumbnailStatus}
			},
		},
		{
			SignalType: signalBrokenVideo,
			Type:       domain.RecommendationCreativeReview,
			ExpiryDays: th.CreativeExpiryDays,
			Entity:     entity,
			Affected:   affected,
			Match: func(c domain.CreativeFact, env Env) bool {
				return c.IsVideo() && !thumbnailFailed(c) &&
					c.ReachedQueries > th.CreativeBrokenVideoMinQueries &&
					c.Impressions == 0
			},
			Classify: func(c domain.CreativeFact, env Env) (domain.Severity, domain.Confidence) {
				return domain.SeverityHigh, domain.ConfidenceMedium
			},
			Evidence: func(c domain.CreativeFact, env Env) []domain.Evidence {
				return []domain.Evidence{
					evidence(env, "reached_queries", float64(c.ReachedQueries), float64(th.CreativeBrokenVideoMinQueries), domain.ComparisonAbove, c.ReachedQueries),
					evidence(env, "impressions", 0, 1, domain.ComparisonBelow, c.ReachedQueries),
				}
			},
			Actions: func(c domain.CreativeFact, env Env) []domain.Action {
				return []domain.Action{
					reviewCreative(c, "Verificar o arquivo de vídeo, os transcodes e a resposta VAST"),
					pauseCreative(c, "Pausar até o vídeo voltar a renderizar"),
				}
			},
			Text: func(c domain.CreativeFact, env Env) (string, string) {
				return fmt.Sprintf("Vídeo sem nenhuma impressão: %s", c.CreativeID),
					fmt.Sprintf(
						"O vídeo %s recebeu %d queries e não venceu nenhuma, indício de falha de renderização.",
						c.CreativeID, c.ReachedQueries,
					)
			},
			Impact: queryImpact,
		},
		{
			SignalType: "creative_low_completion",
			Type:       domain.RecommendationCreativeReview,
			ExpiryDays: th.CreativeReviewExpiryDays,
			Entity:     entity,
			Affected:   affected,
			Match: func(c domain.CreativeFact, env Env) bool {
				return c.IsVideo() && c.VideoStarts > th.CreativeMinVideoStarts && c.CompletionRate() < th.CreativeMinCompletionRate
			},
			Classify: func(c domain.CreativeFact, env Env) (domain.Severity, domain.Confidence) {
				return domain.SeverityMedium, domain.ConfidenceMedium
			},
			Evidence: func(c domain.CreativeFact, env Env) []domain.Evidence {
				return []domain.Evidence{
					evidence(env, "completion_rate", c.CompletionRate(), th.CreativeMinCompletionRate, domain.ComparisonBelow, c.VideoStarts),
				}
			},
			Actions: func(c domain.CreativeFact, env Env) []domain.Action {
				return []domain.Action{reviewCreative(c, "Encurtar o vídeo ou antecipar a mensagem principal")}
			},
			Text: func(c domain.CreativeFact, env Env) (string, string) {
				return fmt.Sprintf("Baixa conclusão de vídeo: %s", c.CreativeID),
					fmt.Sprintf(
						"Apenas %.1f%% dos %d inícios do vídeo %s chegaram ao fim.",
						c.CompletionRate()*100, c.VideoStarts, c.CreativeID,
					)
			},
		},
		{
			SignalType: "creative_low_win_rate",
			Type:       domain.RecommendationCreativeReview,
			ExpiryDays: th.CreativeReviewExpiryDays,
			Entity:     entity,
			Affected:   affected,
			Match: func(c domain.CreativeFact, env Env) bool {
				return c.ReachedQueries > th.CreativeLowWinRateMinQueries && c.Impressions > 0 && c.WinRate() < th.CreativeLowWinRate
			},
			Classify: func(c domain.CreativeFact, env Env) (domain.Severity, domain.Confidence) {
				return domain.SeverityMedium, domain.ConfidenceMedium
			},
			Evidence: func(c domain.CreativeFact, env Env) []domain.Evidence {
				return []domain.Evidence{
					evidence(env, "win_rate", c.WinRate(), th.CreativeLowWinRate, domain.ComparisonBelow, c.ReachedQueries),
				}
			},
			Actions: func(c domain.CreativeFact, env Env) []domain.Action {
				return []domain.Action{reviewCreative(c, "Revisar estratégia de lance e preços mínimos")}
			},
			Text: func(c domain.CreativeFact, env Env) (string, string) {
				return fmt.Sprintf("Taxa de vitória baixa: %s", c.CreativeID),
					fmt.Sprintf(
						"%s venceu %.2f%% de %d queries.",
						c.CreativeID, c.WinRate()*100, c.ReachedQueries,
					)
			},
			Impact: queryImpact,
		},
	}
}
