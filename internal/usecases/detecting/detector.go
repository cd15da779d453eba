// Package detecting transforma fatos agregados de tráfego em recomendações.
//
// Cada detector é uma lista de regras (Rule) avaliadas pelo mesmo executor:
// a regra decide se a linha dispara e como montar evidências, impacto e ações.
package detecting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vfg2006/traffic-advisor-api/internal/domain"
	"github.com/vfg2006/traffic-advisor-api/pkg/log"
)

// ErrNoData indica que o detector não encontrou fatos na janela
var ErrNoData = errors.New("sem dados para a janela solicitada")

// ErrDetectorPanic é usado quando um detector entra em pânico durante a execução
var ErrDetectorPanic = errors.New("pânico durante a execução do detector")

// Scope delimita uma avaliação: conta, janela e instante de referência
type Scope struct {
	AccountID  string
	WindowDays int
	Now        time.Time
}

func (s Scope) Filters() domain.FactFilters {
	return domain.FactFilters{AccountID: s.AccountID}
}

type Detector interface {
	Name() string
	Detect(ctx context.Context, scope Scope) ([]domain.Recommendation, error)
}

// Result é o desfecho explícito de uma execução de detector
type Result struct {
	Detector        string
	Status          domain.DetectorStatus
	Recommendations []domain.Recommendation
	Err             error
	Duration        time.Duration
}

// Report converte o resultado para o formato devolvido na API
func (r Result) Report() domain.DetectorReport {
	report := domain.DetectorReport{
		Name:            r.Detector,
		Status:          r.Status,
		Recommendations: len(r.Recommendations),
		DurationMs:      r.Duration.Milliseconds(),
	}
	if r.Err != nil {
		report.Error = r.Err.Error()
	}
	return report
}

// Run executa o detector isolando falhas: erro ou pânico viram status failed
// e nunca interrompem os demais detectores.
func Run(ctx context.Context, detector Detector, scope Scope) (result Result) {
	start := time.Now()
	logger := log.ForAccount(ctx, scope.AccountID).WithField("detector", detector.Name())

	result.Detector = detector.Name()

	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("Pânico no detector: %v", r)
			result = Result{
				Detector: detector.Name(),
				Status:   domain.DetectorStatusFailed,
				Err:      fmt.Errorf("%w: %v", ErrDetectorPanic, r),
			}
		}
		result.Duration = time.Since(start)
	}()

	recommendations, err := detector.Detect(ctx, scope)
	switch {
	case errors.Is(err, ErrNoData):
		logger.Debug("Detector sem dados na janela")
		result.Status = domain.DetectorStatusNoData
	case err != nil:
		logger.WithError(err).Error("Falha no detector, seguindo com os demais")
		result.Status = domain.DetectorStatusFailed
		result.Err = err
	default:
		logger.Debugf("Detector concluído com %d recomendações", len(recommendations))
		result.Status = domain.DetectorStatusOK
		result.Recommendations = recommendations
	}

	return result
}

// AccountTotals soma as linhas da dimensão conta na janela
func AccountTotals(ctx context.Context, provider FactProvider, scope Scope) (domain.Traffic, error) {
	rows, err := provider.GetAggregate(ctx, domain.DimensionAccount, scope.WindowDays, scope.Filters())
	if err != nil {
		return domain.Traffic{}, fmt.Errorf("erro ao buscar totais da conta: %w", err)
	}

	var totals domain.Traffic
	for _, row := range rows {
		totals = totals.Add(row.Traffic)
	}

	return totals, nil
}
