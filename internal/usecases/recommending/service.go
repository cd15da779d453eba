// Package recommending é a porta de entrada das avaliações: valida a conta,
// executa o motor de avaliação e registra as recomendações como sinais.
package recommending

import (
	"context"
	"time"

	"github.com/vfg2006/traffic-advisor-api/internal/config"
	"github.com/vfg2006/traffic-advisor-api/internal/domain"
	"github.com/vfg2006/traffic-advisor-api/internal/usecases/account"
	"github.com/vfg2006/traffic-advisor-api/internal/usecases/evaluating"
	"github.com/vfg2006/traffic-advisor-api/internal/usecases/signaling"
	"github.com/vfg2006/traffic-advisor-api/pkg/log"
)

//go:generate mockgen -source=service.go -destination=mocks/recommender.go -package=mocks

// Evaluator é implementado por *evaluating.Engine
type Evaluator interface {
	Evaluate(ctx context.Context, req evaluating.Request) (*domain.EvaluationReport, error)
}

type Recommender interface {
	Recommend(ctx context.Context, query Query) (*domain.EvaluationReport, error)
	Plan(ctx context.Context, query Query) (*domain.PretargetingPlan, error)
}

// Query descreve uma avaliação pedida pela API ou pelo agendador
type Query struct {
	AccountID   string
	WindowDays  int
	MinSeverity domain.Severity
	MaxConfigs  int
}

type Service struct {
	accounts       account.AccountService
	evaluator      Evaluator
	signals        signaling.Manager
	persistSignals bool
	windowDays     int
}

func NewService(
	accounts account.AccountService,
	evaluator Evaluator,
	signals signaling.Manager,
	cfg *config.Config,
) Recommender {
	windowDays := cfg.Evaluation.WindowDays
	if windowDays <= 0 {
		windowDays = evaluating.DefaultWindowDays
	}

	return &Service{
		accounts:       accounts,
		evaluator:      evaluator,
		signals:        signals,
		persistSignals: cfg.Evaluation.PersistSignals && signals != nil,
		windowDays:     windowDays,
	}
}

// Recommend avalia a conta e, quando habilitado, grava as recomendações como
// sinais. Falhas na gravação não afetam o relatório devolvido.
func (s *Service) Recommend(ctx context.Context, query Query) (*domain.EvaluationReport, error) {
	report, err := s.evaluate(ctx, query, false)
	if err != nil {
		return nil, err
	}

	if s.persistSignals && len(report.Recommendations) > 0 {
		started := time.Now()
		summary, err := s.signals.Record(ctx, query.AccountID, report.Recommendations)

		logger := log.ForAccount(ctx, query.AccountID).WithFields(log.Fields{
			"signals_created":   summary.Created,
			"signals_refreshed": summary.Refreshed,
			"duration_ms":       time.Since(started).Milliseconds(),
		})
		if err != nil {
			logger.WithError(err).Warn("Recomendações devolvidas sem persistência completa dos sinais")
		} else {
			logger.Debug("Sinais atualizados após a avaliação")
		}
	}

	return report, nil
}

// Plan devolve apenas o plano de pretargeting. Sem dados suficientes o plano
// volta vazio, com o motivo no resumo.
func (s *Service) Plan(ctx context.Context, query Query) (*domain.PretargetingPlan, error) {
	report, err := s.evaluate(ctx, query, true)
	if err != nil {
		return nil, err
	}

	if report.PretargetingPlan != nil {
		return report.PretargetingPlan, nil
	}

	return &domain.PretargetingPlan{
		AccountID:   query.AccountID,
		ConfigLimit: query.MaxConfigs,
		Bundles:     []domain.Bundle{},
		Summary:     planUnavailableReason(report),
	}, nil
}

func (s *Service) evaluate(ctx context.Context, query Query, includePlan bool) (*domain.EvaluationReport, error) {
	if _, err := s.accounts.GetActiveAccount(ctx, query.AccountID); err != nil {
		return nil, err
	}

	if query.WindowDays == 0 {
		query.WindowDays = s.windowDays
	}

	return s.evaluator.Evaluate(ctx, evaluating.Request{
		AccountID:   query.AccountID,
		WindowDays:  query.WindowDays,
		MinSeverity: query.MinSeverity,
		IncludePlan: includePlan,
		MaxConfigs:  query.MaxConfigs,
	})
}

func planUnavailableReason(report *domain.EvaluationReport) string {
	if !report.DataQuality.Sufficient {
		return "Dados insuficientes para montar o plano de pretargeting"
	}
	return "Inventário de criativos aprovados insuficiente para montar o plano de pretargeting"
}
