package evaluating

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/vfg2006/traffic-advisor-api/internal/domain"
	"github.com/vfg2006/traffic-advisor-api/internal/usecases/detecting"
)

var testNow = time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)

// fakeDetector devolve recomendações fixas e conta as chamadas
type fakeDetector struct {
	name            string
	recommendations []domain.Recommendation
	err             error
	delay           time.Duration
	panics          bool
	calls           atomic.Int32
}

func (f *fakeDetector) Name() string {
	return f.name
}

func (f *fakeDetector) Detect(ctx context.Context, scope detecting.Scope) ([]domain.Recommendation, error) {
	f.calls.Add(1)

	if f.panics {
		panic("índice fora do intervalo")
	}

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if f.err != nil {
		return nil, f.err
	}

	return append([]domain.Recommendation(nil), f.recommendations...), nil
}

type fakePlanner struct {
	plan *domain.PretargetingPlan
	err  error
}

func (f *fakePlanner) Name() string {
	return "pretargeting_bundle"
}

func (f *fakePlanner) Plan(ctx context.Context, scope detecting.Scope, limit int) (*domain.PretargetingPlan, error) {
	return f.plan, f.err
}

func recommendation(recommendationType domain.RecommendationType, severity domain.Severity, target string) domain.Recommendation {
	return domain.Recommendation{
		ID:         string(recommendationType) + "-" + target,
		Type:       recommendationType,
		SignalType: string(recommendationType),
		EntityID:   target,
		Severity:   severity,
		Confidence: domain.ConfidenceMedium,
		Status:     domain.RecommendationStatusNew,
		Evidence: []domain.Evidence{{
			MetricName:  "waste_rate",
			MetricValue: 0.9,
			Threshold:   0.8,
			Comparison:  domain.ComparisonAbove,
		}},
		Actions: []domain.Action{{
			ActionType: domain.ActionReview,
			TargetType: domain.TargetConfig,
			TargetID:   target,
		}},
		AffectedCreatives: []string{},
		AffectedCampaigns: []string{},
		GeneratedAt:       testNow,
	}
}

func withSavings(r domain.Recommendation, monthly float64) domain.Recommendation {
	r.Impact.PotentialSavingsMonthly = monthly
	return r
}

func fullAvailability() domain.DataAvailability {
	return domain.DataAvailability{TrafficRows: 120, TroubleshootRows: 40, CreativeRows: 15}
}

func accountRows() []domain.FactRow {
	return []domain.FactRow{{
		DimensionKey: "acc-1",
		Traffic: domain.Traffic{
			ReachedQueries: 8_640_000,
			Impressions:    864_000,
			Clicks:         4_320,
			SpendMicros:    1_250_500_000,
		},
	}}
}
