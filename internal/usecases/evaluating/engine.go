// Package evaluating orquestra uma avaliação completa de conta: portão de
// qualidade dos dados, execução paralela dos detectores com prazo, e a
// consolidação das recomendações em um relatório ordenado.
package evaluating

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vfg2006/traffic-advisor-api/internal/config"
	"github.com/vfg2006/traffic-advisor-api/internal/domain"
	"github.com/vfg2006/traffic-advisor-api/internal/usecases/detecting"
	"github.com/vfg2006/traffic-advisor-api/pkg/log"
)

const (
	MaxWindowDays     = 90
	DefaultWindowDays = 7

	defaultWorkers = 4
	defaultTimeout = 30 * time.Second
)

// ErrDetectorTimedOut é atribuído aos detectores que não terminaram no prazo
var ErrDetectorTimedOut = errors.New("detector não terminou dentro do prazo da avaliação")

// Planner monta o plano de pretargeting a partir do inventário da conta
type Planner interface {
	Name() string
	Plan(ctx context.Context, scope detecting.Scope, limit int) (*domain.PretargetingPlan, error)
}

type Request struct {
	AccountID   string
	WindowDays  int
	MinSeverity domain.Severity
	IncludePlan bool
	MaxConfigs  int
}

type Options struct {
	Workers     int
	Timeout     time.Duration
	MinSeverity domain.Severity
}

type Engine struct {
	provider   detecting.FactProvider
	detectors  []detecting.Detector
	planner    Planner
	thresholds config.Thresholds
	options    Options
	metrics    *Metrics
	now        func() time.Time
}

// NewEngine monta o motor com os detectores padrão, na ordem usada no relatório
func NewEngine(provider detecting.FactProvider, cfg *config.Config, metrics *Metrics) *Engine {
	th := cfg.Thresholds
	minSeverity, _ := domain.ParseSeverity(cfg.Evaluation.MinSeverity)

	detectors := []detecting.Detector{
		detecting.NewSizeDetector(provider, th),
		detecting.NewGeoDetector(provider, th),
		detecting.NewFraudDetector(provider, th),
		detecting.NewCreativeDetector(provider, th),
		detecting.NewConfigDetector(provider, th),
	}

	return New(provider, detectors, detecting.NewBundleRecommender(provider, th), th, Options{
		Workers:     cfg.Evaluation.DetectorWorkers,
		Timeout:     cfg.Evaluation.Timeout,
		MinSeverity: minSeverity,
	}, metrics)
}

func New(
	provider detecting.FactProvider,
	detectors []detecting.Detector,
	planner Planner,
	thresholds config.Thresholds,
	options Options,
	metrics *Metrics,
) *Engine {
	if options.Workers <= 0 {
		options.Workers = defaultWorkers
	}
	if options.Timeout <= 0 {
		options.Timeout = defaultTimeout
	}
	if !options.MinSeverity.Valid() {
		options.MinSeverity = domain.SeverityLow
	}

	return &Engine{
		provider:   provider,
		detectors:  detectors,
		planner:    planner,
		thresholds: thresholds,
		options:    options,
		metrics:    metrics,
		now:        time.Now,
	}
}

// Evaluate executa a avaliação da conta. Falhas de detectores individuais não
// abortam a avaliação: aparecem apenas no status de cada detector.
func (e *Engine) Evaluate(ctx context.Context, req Request) (*domain.EvaluationReport, error) {
	started := time.Now()
	logger := log.ForAccount(ctx, req.AccountID)

	minSeverity, err := e.validate(req)
	if err != nil {
		e.metrics.observeEvaluation("invalid", started)
		return nil, err
	}

	scope := detecting.Scope{
		AccountID:  req.AccountID,
		WindowDays: req.WindowDays,
		Now:        e.now().UTC(),
	}

	availability, err := e.provider.GetAvailability(ctx, scope.WindowDays, scope.Filters())
	if err != nil {
		e.metrics.observeEvaluation("error", started)
		return nil, NewEvaluationError(ErrFactsUnavailable, req.AccountID, err.Error())
	}

	quality := AssessDataQuality(availability, e.thresholds)
	if !quality.Sufficient {
		logger.Warnf("Dados insuficientes para avaliar a conta (score %.2f)", quality.Score)

		report := e.gatedReport(scope, quality, req.IncludePlan)
		e.metrics.observeReport(report)
		e.metrics.observeEvaluation("insufficient_data", started)
		return report, nil
	}

	// sem os totais o resumo sai zerado; os detectores buscam os próprios fatos
	totals, err := detecting.AccountTotals(ctx, e.provider, scope)
	if err != nil {
		logger.WithError(err).Warn("Erro ao buscar totais da conta, resumo sem totais")
		totals = domain.Traffic{}
	}

	results, plan := e.fanOut(ctx, scope, req)

	merged := make([]domain.Recommendation, 0)
	detectors := make([]domain.DetectorReport, 0, len(results))
	for _, result := range results {
		merged = append(merged, result.Recommendations...)
		detectors = append(detectors, result.Report())
	}

	recommendations := Rank(merged, minSeverity)

	report := &domain.EvaluationReport{
		AccountID:        scope.AccountID,
		WindowDays:       scope.WindowDays,
		GeneratedAt:      scope.Now,
		DataQuality:      quality,
		Recommendations:  recommendations,
		Summary:          Summarize(recommendations, totals, scope.WindowDays),
		PretargetingPlan: plan,
		Detectors:        detectors,
	}

	logger.WithField("recommendations", len(recommendations)).
		Infof("Avaliação concluída em %s", time.Since(started).Round(time.Millisecond))

	e.metrics.observeReport(report)
	e.metrics.observeEvaluation("ok", started)

	return report, nil
}

func (e *Engine) validate(req Request) (domain.Severity, error) {
	if req.AccountID == "" {
		return "", NewEvaluationError(ErrAccountIDRequired, req.AccountID, "")
	}

	if req.WindowDays < 1 || req.WindowDays > MaxWindowDays {
		return "", NewEvaluationError(ErrInvalidWindow, req.AccountID, fmt.Sprintf("recebido %d, permitido de 1 a %d", req.WindowDays, MaxWindowDays))
	}

	if req.MinSeverity == "" {
		return e.options.MinSeverity, nil
	}
	if !req.MinSeverity.Valid() {
		return "", NewEvaluationError(ErrInvalidSeverity, req.AccountID, string(req.MinSeverity))
	}

	return req.MinSeverity, nil
}

// gatedReport é o relatório devolvido quando o portão de qualidade barra a
// avaliação: nenhum detector roda e só o aviso de dados insuficientes é emitido.
func (e *Engine) gatedReport(scope detecting.Scope, quality domain.DataQuality, includePlan bool) *domain.EvaluationReport {
	advisory := []domain.Recommendation{insufficientDataAdvisory(scope, quality, e.thresholds)}

	detectors := make([]domain.DetectorReport, 0, len(e.detectors)+1)
	for _, detector := range e.detectors {
		detectors = append(detectors, domain.DetectorReport{Name: detector.Name(), Status: domain.DetectorStatusSkipped})
	}
	if includePlan && e.planner != nil {
		detectors = append(detectors, domain.DetectorReport{Name: e.planner.Name(), Status: domain.DetectorStatusSkipped})
	}

	return &domain.EvaluationReport{
		AccountID:       scope.AccountID,
		WindowDays:      scope.WindowDays,
		GeneratedAt:     scope.Now,
		DataQuality:     quality,
		Recommendations: advisory,
		Summary:         Summarize(advisory, domain.Traffic{}, scope.WindowDays),
		Detectors:       detectors,
	}
}

type outcome struct {
	index  int
	result detecting.Result
	plan   *domain.PretargetingPlan
}

type job struct {
	name string
	run  func(ctx context.Context) outcome
}

// fanOut roda os detectores (e o planner, quando pedido) em um pool limitado.
// Resultados que chegam depois do prazo são descartados e o detector fica
// como timed_out.
func (e *Engine) fanOut(ctx context.Context, scope detecting.Scope, req Request) ([]detecting.Result, *domain.PretargetingPlan) {
	jobs := make([]job, 0, len(e.detectors)+1)
	for _, detector := range e.detectors {
		detector := detector
		jobs = append(jobs, job{
			name: detector.Name(),
			run: func(ctx context.Context) outcome {
				return outcome{result: detecting.Run(ctx, detector, scope)}
			},
		})
	}
	if req.IncludePlan && e.planner != nil {
		jobs = append(jobs, job{
			name: e.planner.Name(),
			run: func(ctx context.Context) outcome {
				return e.runPlanner(ctx, scope, req.MaxConfigs)
			},
		})
	}

	runCtx, cancel := context.WithTimeout(ctx, e.options.Timeout)
	defer cancel()

	outcomes := make(chan outcome, len(jobs))
	done := make(chan struct{})

	group := new(errgroup.Group)
	group.SetLimit(e.options.Workers)

	go func() {
		defer close(done)
		for i, j := range jobs {
			i, j := i, j
			group.Go(func() error {
				if runCtx.Err() != nil {
					outcomes <- outcome{index: i, result: timedOut(j.name)}
					return nil
				}
				out := j.run(runCtx)
				out.index = i
				outcomes <- out
				return nil
			})
		}
		_ = group.Wait()
	}()

	results := make([]detecting.Result, len(jobs))
	received := make([]bool, len(jobs))
	var plan *domain.PretargetingPlan

	pending := len(jobs)
collect:
	for pending > 0 {
		select {
		case out := <-outcomes:
			pending--
			received[out.index] = true
			if out.result.Status == domain.DetectorStatusFailed && errors.Is(out.result.Err, context.DeadlineExceeded) {
				results[out.index] = timedOut(out.result.Detector)
				continue
			}
			results[out.index] = out.result
			if out.plan != nil {
				plan = out.plan
			}
		case <-runCtx.Done():
			break collect
		}
	}

	if pending == 0 {
		<-done
		return results, plan
	}

	logger := log.ForAccount(ctx, scope.AccountID)
	for i, ok := range received {
		if !ok {
			logger.WithField("detector", jobs[i].name).Warn("Detector excedeu o prazo da avaliação, resultado descartado")
			results[i] = timedOut(jobs[i].name)
		}
	}

	return results, plan
}

func (e *Engine) runPlanner(ctx context.Context, scope detecting.Scope, limit int) (out outcome) {
	start := time.Now()
	logger := log.ForAccount(ctx, scope.AccountID).WithField("detector", e.planner.Name())
	out.result.Detector = e.planner.Name()

	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("Pânico ao montar o plano de pretargeting: %v", r)
			out = outcome{result: detecting.Result{
				Detector: e.planner.Name(),
				Status:   domain.DetectorStatusFailed,
				Err:      fmt.Errorf("%w: %v", detecting.ErrDetectorPanic, r),
			}}
		}
		out.result.Duration = time.Since(start)
	}()

	plan, err := e.planner.Plan(ctx, scope, limit)
	switch {
	case errors.Is(err, detecting.ErrNoData):
		out.result.Status = domain.DetectorStatusNoData
	case err != nil:
		logger.WithError(err).Error("Falha ao montar o plano de pretargeting")
		out.result.Status = domain.DetectorStatusFailed
		out.result.Err = err
	default:
		out.result.Status = domain.DetectorStatusOK
		out.plan = plan
	}

	return out
}

func timedOut(name string) detecting.Result {
	return detecting.Result{
		Detector: name,
		Status:   domain.DetectorStatusTimedOut,
		Err:      ErrDetectorTimedOut,
	}
}
