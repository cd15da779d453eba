// Package signaling transforma recomendações recorrentes em sinais
// persistidos: um sinal aberto por (conta, entidade, tipo de sinal), atualizado
// a cada nova detecção até ser resolvido por um operador ou expirar.
package signaling

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	jsoniter "github.com/json-iterator/go"

	"github.com/vfg2006/traffic-advisor-api/infrastructure/repository"
	"github.com/vfg2006/traffic-advisor-api/internal/domain"
	"github.com/vfg2006/traffic-advisor-api/pkg/apiErrors"
	"github.com/vfg2006/traffic-advisor-api/pkg/log"
	"github.com/vfg2006/traffic-advisor-api/pkg/utils"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

//go:generate mockgen -source=service.go -destination=mocks/manager.go -package=mocks

type Manager interface {
	Record(ctx context.Context, accountID string, recommendations []domain.Recommendation) (RecordSummary, error)
	List(ctx context.Context, accountID string, includeResolved bool) ([]*domain.Signal, error)
	Acknowledge(ctx context.Context, signalID string) (*domain.Signal, error)
	Resolve(ctx context.Context, signalID string, resolution domain.SignalResolution, resolvedBy string) (*domain.Signal, error)
	ExpireStale(ctx context.Context) (int64, error)
}

// RecordSummary conta o desfecho da gravação de uma avaliação
type RecordSummary struct {
	Created   int `json:"created"`
	Refreshed int `json:"refreshed"`
	Failed    int `json:"failed"`
}

type Service struct {
	signalRepo repository.SignalRepository
	validate   *validator.Validate
	now        func() time.Time
}

func NewService(signalRepo repository.SignalRepository) Manager {
	return &Service{
		signalRepo: signalRepo,
		validate:   validator.New(),
		now:        time.Now,
	}
}

// Record grava uma recomendação como sinal. Falhas de escrita são contadas e
// registradas em log, mas nunca interrompem a gravação das demais.
func (s *Service) Record(ctx context.Context, accountID string, recommendations []domain.Recommendation) (RecordSummary, error) {
	logger := log.ForAccount(ctx, accountID)
	var summary RecordSummary

	for _, recommendation := range recommendations {
		signal, err := FromRecommendation(accountID, recommendation)
		if err != nil {
			logger.WithError(err).Warnf("Recomendação %s ignorada ao gravar sinais", recommendation.ID)
			summary.Failed++
			continue
		}

		created, err := s.signalRepo.Upsert(ctx, &signal)
		if err != nil {
			logger.WithError(err).Errorf("Erro ao gravar sinal %s/%s", signal.EntityID, signal.SignalType)
			summary.Failed++
			continue
		}

		if created {
			summary.Created++
		} else {
			summary.Refreshed++
		}
	}

	logger.Debugf("Sinais gravados: %d novos, %d atualizados, %d falhas", summary.Created, summary.Refreshed, summary.Failed)

	if summary.Failed > 0 {
		return summary, NewSignalError(ErrPersistence, apiErrors.ErrDatabaseOperation, "", fmt.Sprintf("%d de %d sinais não gravados", summary.Failed, len(recommendations)))
	}

	return summary, nil
}

func (s *Service) List(ctx context.Context, accountID string, includeResolved bool) ([]*domain.Signal, error) {
	return s.signalRepo.List(ctx, domain.SignalFilter{
		AccountID:       accountID,
		IncludeResolved: includeResolved,
		Now:             s.now(),
	})
}

func (s *Service) Acknowledge(ctx context.Context, signalID string) (*domain.Signal, error) {
	if _, err := s.openSignal(ctx, signalID); err != nil {
		return nil, err
	}

	err := s.signalRepo.UpdateStatus(ctx, signalID, domain.RecommendationStatusAcknowledged)
	if err != nil {
		return nil, s.writeError(err, signalID)
	}

	return s.signalRepo.GetByID(ctx, signalID)
}

func (s *Service) Resolve(ctx context.Context, signalID string, resolution domain.SignalResolution, resolvedBy string) (*domain.Signal, error) {
	if err := s.validate.Struct(resolution); err != nil {
		return nil, NewSignalError(ErrInvalidResolution, apiErrors.ErrInvalidResolution, signalID, err.Error())
	}

	if _, err := s.openSignal(ctx, signalID); err != nil {
		return nil, err
	}

	notes := strings.TrimSpace(resolution.Notes)
	err := s.signalRepo.Resolve(ctx, signalID, resolution.Status, resolvedBy, notes, s.now())
	if err != nil {
		return nil, s.writeError(err, signalID)
	}

	log.ForContext(ctx).
		WithField("signal_id", signalID).
		Infof("Sinal marcado como %s por %s", resolution.Status, resolvedBy)

	return s.signalRepo.GetByID(ctx, signalID)
}

// ExpireStale resolve como "system" os sinais abertos cujo prazo já passou
func (s *Service) ExpireStale(ctx context.Context) (int64, error) {
	expired, err := s.signalRepo.ExpireStale(ctx, s.now())
	if err != nil {
		return 0, err
	}

	if expired > 0 {
		log.ForContext(ctx).Infof("%d sinais expirados resolvidos pelo sistema", expired)
	}

	return expired, nil
}

func (s *Service) openSignal(ctx context.Context, signalID string) (*domain.Signal, error) {
	signal, err := s.signalRepo.GetByID(ctx, signalID)
	if err != nil {
		return nil, err
	}
	if signal == nil {
		return nil, NewSignalError(ErrSignalNotFound, apiErrors.ErrSignalNotFound, signalID, "")
	}
	if signal.ResolvedAt != nil {
		return nil, NewSignalError(ErrSignalAlreadyResolved, apiErrors.ErrSignalAlreadyResolved, signalID, "")
	}
	// expirado aguarda a varredura de ExpireStale, que o resolve como "system"
	if !signal.IsOpen(s.now()) {
		return nil, NewSignalError(ErrSignalExpired, apiErrors.ErrSignalExpired, signalID, signal.ExpiresAt.Format(time.RFC3339))
	}

	return signal, nil
}

// writeError traduz a corrida em que o sinal foi resolvido entre a leitura e a escrita
func (s *Service) writeError(err error, signalID string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return NewSignalError(ErrSignalAlreadyResolved, apiErrors.ErrSignalAlreadyResolved, signalID, "")
	}
	return err
}

// FromRecommendation converte uma recomendação no sinal persistido da conta
func FromRecommendation(accountID string, recommendation domain.Recommendation) (domain.Signal, error) {
	if recommendation.EntityID == "" || recommendation.SignalType == "" {
		return domain.Signal{}, fmt.Errorf("recomendação %s sem entidade ou tipo de sinal", recommendation.ID)
	}

	evidence, err := json.Marshal(recommendation.Evidence)
	if err != nil {
		return domain.Signal{}, fmt.Errorf("erro ao serializar evidências: %w", err)
	}

	detectedAt := recommendation.GeneratedAt
	if detectedAt.IsZero() {
		detectedAt = time.Now()
	}

	return domain.Signal{
		ID:                 utils.GeneratePrefixedID("sig"),
		AccountID:          accountID,
		EntityID:           recommendation.EntityID,
		SignalType:         recommendation.SignalType,
		RecommendationType: recommendation.Type,
		Severity:           recommendation.Severity,
		Confidence:         recommendation.Confidence,
		Evidence:           evidence,
		Observation:        recommendation.Description,
		Recommendation:     recommendationText(recommendation),
		Status:             domain.RecommendationStatusNew,
		DetectedAt:         detectedAt,
		FirstDetectedAt:    detectedAt,
		ExpiresAt:          recommendation.ExpiresAt,
	}, nil
}

func recommendationText(recommendation domain.Recommendation) string {
	if len(recommendation.Actions) == 0 {
		return recommendation.Title
	}

	steps := make([]string, 0, len(recommendation.Actions))
	for _, action := range recommendation.Actions {
		target := action.TargetName
		if target == "" {
			target = action.TargetID
		}
		steps = append(steps, fmt.Sprintf("%s %s %s", action.ActionType, action.TargetType, target))
	}

	return fmt.Sprintf("%s: %s", recommendation.Title, strings.Join(steps, "; "))
}
