package recommending_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/vfg2006/traffic-advisor-api/internal/config"
	"github.com/vfg2006/traffic-advisor-api/internal/domain"
	"github.com/vfg2006/traffic-advisor-api/internal/usecases/account"
	accountmocks "github.com/vfg2006/traffic-advisor-api/internal/usecases/account/mocks"
	"github.com/vfg2006/traffic-advisor-api/internal/usecases/evaluating"
	"github.com/vfg2006/traffic-advisor-api/internal/usecases/recommending"
	"github.com/vfg2006/traffic-advisor-api/internal/usecases/recommending/mocks"
	"github.com/vfg2006/traffic-advisor-api/internal/usecases/signaling"
	signalmocks "github.com/vfg2006/traffic-advisor-api/internal/usecases/signaling/mocks"
	"github.com/vfg2006/traffic-advisor-api/pkg/log"
)

func init() {
	log.SetupTestLogger()
}

type fixture struct {
	accounts  *accountmocks.MockAccountService
	evaluator *mocks.MockEvaluator
	signals   *signalmocks.MockManager
}

func newFixture(t *testing.T) fixture {
	ctrl := gomock.NewController(t)
	return fixture{
		accounts:  accountmocks.NewMockAccountService(ctrl),
		evaluator: mocks.NewMockEvaluator(ctrl),
		signals:   signalmocks.NewMockManager(ctrl),
	}
}

func (f fixture) service(persist bool) recommending.Recommender {
	cfg := &config.Config{Evaluation: config.Evaluation{WindowDays: 14, PersistSignals: persist}}
	return recommending.NewService(f.accounts, f.evaluator, f.signals, cfg)
}

func reportWith(recommendations ...domain.Recommendation) *domain.EvaluationReport {
	return &domain.EvaluationReport{
		AccountID:       "acc-1",
		WindowDays:      14,
		DataQuality:     domain.DataQuality{Score: 1, Sufficient: true},
		Recommendations: recommendations,
	}
}

func TestServiceRecommend(t *testing.T) {
	geo := domain.Recommendation{ID: "rec-1", Type: domain.RecommendationGeoExclusion, SignalType: "geo_underperforming", EntityID: "BR"}

	tests := []struct {
		name     string
		persist  bool
		setup    func(f fixture)
		validate func(t *testing.T, report *domain.EvaluationReport, err error)
	}{
		{
			name:    "Avalia com a janela padrão e grava os sinais",
			persist: true,
			setup: func(f fixture) {
				f.accounts.EXPECT().GetActiveAccount(gomock.Any(), "acc-1").Return(&domain.Account{ID: "acc-1"}, nil)
				f.evaluator.EXPECT().
					Evaluate(gomock.Any(), evaluating.Request{AccountID: "acc-1", WindowDays: 14, MinSeverity: domain.SeverityHigh}).
					Return(reportWith(geo), nil)
				f.signals.EXPECT().Record(gomock.Any(), "acc-1", []domain.Recommendation{geo}).Return(signaling.RecordSummary{Created: 1}, nil)
			},
			validate: func(t *testing.T, report *domain.EvaluationReport, err error) {
				require.NoError(t, err)
				assert.Len(t, report.Recommendations, 1)
			},
		},
		{
			name:    "Falha ao gravar sinais não derruba o relatório",
			persist: true,
			setup: func(f fixture) {
				f.accounts.EXPECT().GetActiveAccount(gomock.Any(), "acc-1").Return(&domain.Account{ID: "acc-1"}, nil)
				f.evaluator.EXPECT().Evaluate(gomock.Any(), gomock.Any()).Return(reportWith(geo), nil)
				f.signals.EXPECT().Record(gomock.Any(), "acc-1", gomock.Any()).Return(signaling.RecordSummary{Failed: 1}, signaling.ErrPersistence)
			},
			validate: func(t *testing.T, report *domain.EvaluationReport, err error) {
				require.NoError(t, err)
				assert.Equal(t, "rec-1", report.Recommendations[0].ID)
			},
		},
		{
			name:    "Sem persistência não grava sinais",
			persist: false,
			setup: func(f fixture) {
				f.accounts.EXPECT().GetActiveAccount(gomock.Any(), "acc-1").Return(&domain.Account{ID: "acc-1"}, nil)
				f.evaluator.EXPECT().Evaluate(gomock.Any(), gomock.Any()).Return(reportWith(geo), nil)
			},
			validate: func(t *testing.T, report *domain.EvaluationReport, err error) {
				require.NoError(t, err)
			},
		},
		{
			name:    "Conta inativa não é avaliada",
			persist: true,
			setup: func(f fixture) {
				f.accounts.EXPECT().GetActiveAccount(gomock.Any(), "acc-1").Return(nil, account.ErrAccountInactive)
			},
			validate: func(t *testing.T, report *domain.EvaluationReport, err error) {
				assert.Nil(t, report)
				assert.ErrorIs(t, err, account.ErrAccountInactive)
			},
		},
		{
			name:    "Erro do motor é propagado",
			persist: true,
			setup: func(f fixture) {
				f.accounts.EXPECT().GetActiveAccount(gomock.Any(), "acc-1").Return(&domain.Account{ID: "acc-1"}, nil)
				f.evaluator.EXPECT().Evaluate(gomock.Any(), gomock.Any()).Return(nil, evaluating.ErrFactsUnavailable)
			},
			validate: func(t *testing.T, report *domain.EvaluationReport, err error) {
				assert.ErrorIs(t, err, evaluating.ErrFactsUnavailable)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.setup(f)

			report, err := f.service(tt.persist).Recommend(context.Background(), recommending.Query{
				AccountID:   "acc-1",
				MinSeverity: domain.SeverityHigh,
			})
			tt.validate(t, report, err)
		})
	}
}

func TestServicePlan(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(f fixture)
		validate func(t *testing.T, plan *domain.PretargetingPlan, err error)
	}{
		{
			name: "Devolve o plano do motor",
			setup: func(f fixture) {
				f.accounts.EXPECT().GetActiveAccount(gomock.Any(), "acc-1").Return(&domain.Account{ID: "acc-1"}, nil)
				f.evaluator.EXPECT().
					Evaluate(gomock.Any(), evaluating.Request{AccountID: "acc-1", WindowDays: 30, IncludePlan: true, MaxConfigs: 5}).
					DoAndReturn(func(_ context.Context, _ evaluating.Request) (*domain.EvaluationReport, error) {
						report := reportWith()
						report.PretargetingPlan = &domain.PretargetingPlan{AccountID: "acc-1", ConfigLimit: 5, Bundles: []domain.Bundle{{Name: "HTML"}}}
						return report, nil
					})
			},
			validate: func(t *testing.T, plan *domain.PretargetingPlan, err error) {
				require.NoError(t, err)
				require.Len(t, plan.Bundles, 1)
				assert.Equal(t, "HTML", plan.Bundles[0].Name)
			},
		},
		{
			name: "Dados insuficientes devolvem plano vazio",
			setup: func(f fixture) {
				f.accounts.EXPECT().GetActiveAccount(gomock.Any(), "acc-1").Return(&domain.Account{ID: "acc-1"}, nil)
				f.evaluator.EXPECT().Evaluate(gomock.Any(), gomock.Any()).Return(&domain.EvaluationReport{AccountID: "acc-1"}, nil)
			},
			validate: func(t *testing.T, plan *domain.PretargetingPlan, err error) {
				require.NoError(t, err)
				assert.NotNil(t, plan.Bundles)
				assert.Empty(t, plan.Bundles)
				assert.Equal(t, 5, plan.ConfigLimit)
				assert.Contains(t, plan.Summary, "Dados insuficientes")
			},
		},
		{
			name: "Conta inexistente",
			setup: func(f fixture) {
				f.accounts.EXPECT().GetActiveAccount(gomock.Any(), "acc-1").Return(nil, errors.New("conta não encontrada"))
			},
			validate: func(t *testing.T, plan *domain.PretargetingPlan, err error) {
				assert.Error(t, err)
				assert.Nil(t, plan)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.setup(f)

			plan, err := f.service(false).Plan(context.Background(), recommending.Query{
				AccountID:  "acc-1",
				WindowDays: 30,
				MaxConfigs: 5,
			})
			tt.validate(t, plan, err)
		})
	}
}
