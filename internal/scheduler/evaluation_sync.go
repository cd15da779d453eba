package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/vfg2006/traffic-advisor-api/infrastructure/repository"
	"github.com/vfg2006/traffic-advisor-api/internal/config"
	"github.com/vfg2006/traffic-advisor-api/internal/domain"
	"github.com/vfg2006/traffic-advisor-api/internal/usecases/recommending"
	"github.com/vfg2006/traffic-advisor-api/internal/usecases/signaling"
	"github.com/vfg2006/traffic-advisor-api/pkg/log"
)

// EvaluationSyncConfig representa a configuração do agendador de avaliações
type EvaluationSyncConfig struct {
	CronSchedule          string
	WindowDays            int
	MaxConcurrentAccounts int
	SyncEnabled           bool
}

// RunSummary resume uma rodada de avaliação de todas as contas ativas
type RunSummary struct {
	Accounts        int   `json:"accounts"`
	Evaluated       int   `json:"evaluated"`
	Failed          int   `json:"failed"`
	Recommendations int   `json:"recommendations"`
	ExpiredSignals  int64 `json:"expired_signals"`
}

// EvaluationSyncService agenda a avaliação periódica das contas ativas e a
// varredura dos sinais expirados
type EvaluationSyncService struct {
	scheduler   *gocron.Scheduler
	config      EvaluationSyncConfig
	accountRepo repository.AccountRepository
	recommender recommending.Recommender
	signals     signaling.Manager

	syncRunning         bool
	syncMutex           sync.Mutex
	lastSyncStartedAt   time.Time
	lastSyncCompletedAt time.Time
	lastSummary         RunSummary
}

func NewEvaluationSyncService(
	accountRepo repository.AccountRepository,
	recommender recommending.Recommender,
	signals signaling.Manager,
	appConfig *config.Config,
) *EvaluationSyncService {
	syncConfig := EvaluationSyncConfig{
		CronSchedule:          appConfig.Evaluation.CronSchedule,
		WindowDays:            appConfig.Evaluation.WindowDays,
		MaxConcurrentAccounts: appConfig.Evaluation.MaxConcurrentAccounts,
		SyncEnabled:           appConfig.Evaluation.Enabled,
	}
	if syncConfig.MaxConcurrentAccounts <= 0 {
		syncConfig.MaxConcurrentAccounts = 1
	}

	logrus.WithFields(logrus.Fields{
		"cron_schedule":           syncConfig.CronSchedule,
		"window_days":             syncConfig.WindowDays,
		"max_concurrent_accounts": syncConfig.MaxConcurrentAccounts,
		"sync_enabled":            syncConfig.SyncEnabled,
	}).Info("Configuração do agendador de avaliações carregada")

	return &EvaluationSyncService{
		scheduler:   gocron.NewScheduler(time.Local),
		config:      syncConfig,
		accountRepo: accountRepo,
		recommender: recommender,
		signals:     signals,
	}
}

// Start inicia o agendador; ele para quando o contexto é cancelado
func (s *EvaluationSyncService) Start(ctx context.Context) error {
	if !s.config.SyncEnabled {
		logrus.Info("Avaliação agendada desabilitada por configuração")
		return nil
	}

	logrus.WithField("cron", s.config.CronSchedule).Info("Iniciando agendador de avaliações")

	_, err := s.scheduler.Cron(s.config.CronSchedule).Do(func() {
		s.runExclusive(ctx)
	})
	if err != nil {
		return fmt.Errorf("erro ao agendar avaliações: %w", err)
	}

	s.scheduler.StartAsync()

	go func() {
		<-ctx.Done()
		logrus.Info("Parando agendador de avaliações")
		s.scheduler.Stop()
	}()

	return nil
}

// TriggerManualSync dispara uma rodada fora do agendamento. Retorna false se
// já existe uma rodada em andamento.
func (s *EvaluationSyncService) TriggerManualSync(ctx context.Context) bool {
	s.syncMutex.Lock()
	running := s.syncRunning
	s.syncMutex.Unlock()

	if running {
		logrus.Info("Avaliação já em andamento, ignorando solicitação manual")
		return false
	}

	logrus.Info("Iniciando avaliação manual de todas as contas ativas")
	go s.runExclusive(context.WithoutCancel(ctx))

	return true
}

func (s *EvaluationSyncService) runExclusive(ctx context.Context) {
	s.syncMutex.Lock()
	if s.syncRunning {
		s.syncMutex.Unlock()
		logrus.Info("Avaliação já em andamento, ignorando")
		return
	}
	s.syncRunning = true
	s.lastSyncStartedAt = time.Now()
	s.syncMutex.Unlock()

	summary := s.evaluateAll(ctx)

	s.syncMutex.Lock()
	s.syncRunning = false
	s.lastSyncCompletedAt = time.Now()
	s.lastSummary = summary
	s.syncMutex.Unlock()
}

// evaluateAll avalia cada conta ativa com concorrência limitada. A falha de
// uma conta não interrompe as demais.
func (s *EvaluationSyncService) evaluateAll(ctx context.Context) RunSummary {
	started := time.Now()
	var summary RunSummary

	accounts, err := s.accountRepo.ListAccounts(ctx, []domain.AccountStatus{domain.AccountStatusActive})
	if err != nil {
		logrus.WithError(err).Error("Erro ao buscar lista de contas para avaliação")
		return summary
	}
	summary.Accounts = len(accounts)

	if len(accounts) > 0 {
		var evaluated, failed, recommendations atomic.Int64

		g := new(errgroup.Group)
		g.SetLimit(s.config.MaxConcurrentAccounts)

		for _, account := range accounts {
			account := account
			g.Go(func() error {
				count, err := s.evaluateAccount(ctx, account)
				if err != nil {
					failed.Add(1)
					return nil
				}
				evaluated.Add(1)
				recommendations.Add(int64(count))
				return nil
			})
		}
		_ = g.Wait()

		summary.Evaluated = int(evaluated.Load())
		summary.Failed = int(failed.Load())
		summary.Recommendations = int(recommendations.Load())
	} else {
		logrus.Info("Nenhuma conta ativa encontrada para avaliação")
	}

	expired, err := s.signals.ExpireStale(ctx)
	if err != nil {
		logrus.WithError(err).Error("Erro ao expirar sinais antigos")
	}
	summary.ExpiredSignals = expired

	logrus.WithFields(logrus.Fields{
		"duration":        time.Since(started).String(),
		"accounts":        summary.Accounts,
		"evaluated":       summary.Evaluated,
		"failed":          summary.Failed,
		"recommendations": summary.Recommendations,
		"expired_signals": summary.ExpiredSignals,
	}).Info("Avaliação de contas concluída")

	return summary
}

func (s *EvaluationSyncService) evaluateAccount(ctx context.Context, account *domain.Account) (int, error) {
	logger := log.ForAccount(ctx, account.ID).WithField("account_name", account.Name)

	report, err := s.recommender.Recommend(ctx, recommending.Query{
		AccountID:  account.ID,
		WindowDays: s.config.WindowDays,
	})
	if err != nil {
		logger.WithError(err).Error("Erro ao avaliar conta")
		return 0, err
	}

	logger.WithFields(log.Fields{
		"recommendations": len(report.Recommendations),
		"data_quality":    report.DataQuality.Score,
	}).Info("Conta avaliada")

	return len(report.Recommendations), nil
}

// GetStatus retorna o status atual do agendador
func (s *EvaluationSyncService) GetStatus() map[string]any {
	s.syncMutex.Lock()
	defer s.syncMutex.Unlock()

	return map[string]any{
		"sync_enabled":           s.config.SyncEnabled,
		"sync_cron":              s.config.CronSchedule,
		"sync_window_days":       s.config.WindowDays,
		"sync_max_concurrent":    s.config.MaxConcurrentAccounts,
		"sync_running":           s.syncRunning,
		"last_sync_started_at":   s.lastSyncStartedAt,
		"last_sync_completed_at": s.lastSyncCompletedAt,
		"last_sync_summary":      s.lastSummary,
	}
}
