package signaling

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/vfg2006/traffic-advisor-api/infrastructure/repository"
	"github.com/vfg2006/traffic-advisor-api/infrastructure/repository/mocks"
	"github.com/vfg2006/traffic-advisor-api/internal/domain"
	"github.com/vfg2006/traffic-advisor-api/pkg/apiErrors"
	"github.com/vfg2006/traffic-advisor-api/pkg/log"
)

var testNow = time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)

func init() {
	log.SetupTestLogger()
}

func newTestService(repo repository.SignalRepository) *Service {
	return &Service{
		signalRepo: repo,
		validate:   validator.New(),
		now:        func() time.Time { return testNow },
	}
}

func geoRecommendation(country string) domain.Recommendation {
	expiresAt := testNow.Add(7 * 24 * time.Hour)
	return domain.Recommendation{
		ID:          "rec-" + country,
		Type:        domain.RecommendationGeoExclusion,
		SignalType:  "geo_underperforming",
		EntityID:    country,
		Severity:    domain.SeverityMedium,
		Confidence:  domain.ConfidenceHigh,
		Title:       "Excluir " + country,
		Description: "CTR abaixo de 50% da média da conta",
		Evidence: []domain.Evidence{
			{MetricName: "ctr_pct", MetricValue: 0.05, Threshold: 0.1, Comparison: domain.ComparisonBelow, TimePeriodDays: 7, SampleSize: 20000},
		},
		Actions: []domain.Action{
			{ActionType: domain.ActionExclude, TargetType: domain.TargetGeo, TargetID: country, TargetName: country},
		},
		GeneratedAt: testNow,
		ExpiresAt:   &expiresAt,
	}
}

func openSignal(id string) *domain.Signal {
	return &domain.Signal{ID: id, AccountID: "acc-1", EntityID: "BR", SignalType: "geo_underperforming", Status: domain.RecommendationStatusNew}
}

func TestFromRecommendation(t *testing.T) {
	signal, err := FromRecommendation("acc-1", geoRecommendation("BR"))
	require.NoError(t, err)

	assert.Contains(t, signal.ID, "sig")
	assert.Equal(t, domain.SignalKey{AccountID: "acc-1", EntityID: "BR", SignalType: "geo_underperforming"}, signal.Key())
	assert.Equal(t, domain.RecommendationGeoExclusion, signal.RecommendationType)
	assert.Equal(t, "CTR abaixo de 50% da média da conta", signal.Observation)
	assert.Equal(t, "Excluir BR: exclude geo BR", signal.Recommendation)
	assert.Equal(t, domain.RecommendationStatusNew, signal.Status)
	assert.True(t, signal.FirstDetectedAt.Equal(testNow))
	require.NotNil(t, signal.ExpiresAt)
	assert.JSONEq(t, `[{"metric_name":"ctr_pct","metric_value":0.05,"threshold":0.1,"comparison":"below","time_period_days":7,"sample_size":20000}]`, string(signal.Evidence))

	_, err = FromRecommendation("acc-1", domain.Recommendation{ID: "sem-entidade"})
	assert.Error(t, err)
}

func TestServiceRecord(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(repo *mocks.MockSignalRepository)
		validate func(t *testing.T, summary RecordSummary, err error)
	}{
		{
			name: "Novos e atualizados são contados separadamente",
			setup: func(repo *mocks.MockSignalRepository) {
				repo.EXPECT().Upsert(gomock.Any(), gomock.Any()).Return(true, nil)
				repo.EXPECT().Upsert(gomock.Any(), gomock.Any()).Return(false, nil)
			},
			validate: func(t *testing.T, summary RecordSummary, err error) {
				require.NoError(t, err)
				assert.Equal(t, RecordSummary{Created: 1, Refreshed: 1}, summary)
			},
		},
		{
			name: "Falha de escrita não interrompe as demais",
			setup: func(repo *mocks.MockSignalRepository) {
				repo.EXPECT().Upsert(gomock.Any(), gomock.Any()).Return(false, errors.New("disco cheio"))
				repo.EXPECT().Upsert(gomock.Any(), gomock.Any()).Return(true, nil)
			},
			validate: func(t *testing.T, summary RecordSummary, err error) {
				assert.ErrorIs(t, err, ErrPersistence)
				assert.Equal(t, RecordSummary{Created: 1, Failed: 1}, summary)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			repo := mocks.NewMockSignalRepository(ctrl)
			tt.setup(repo)

			summary, err := newTestService(repo).Record(context.Background(), "acc-1", []domain.Recommendation{
				geoRecommendation("BR"),
				geoRecommendation("CL"),
			})
			tt.validate(t, summary, err)
		})
	}
}

func TestServiceRecordUsesAccountScope(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockSignalRepository(ctrl)

	repo.EXPECT().Upsert(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, signal *domain.Signal) (bool, error) {
		assert.Equal(t, "acc-9", signal.AccountID)
		assert.Equal(t, "CL", signal.EntityID)
		return true, nil
	})

	_, err := newTestService(repo).Record(context.Background(), "acc-9", []domain.Recommendation{geoRecommendation("CL")})
	require.NoError(t, err)
}

func TestServiceList(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockSignalRepository(ctrl)

	repo.EXPECT().
		List(gomock.Any(), domain.SignalFilter{AccountID: "acc-1", IncludeResolved: true, Now: testNow}).
		Return([]*domain.Signal{openSignal("sig-1")}, nil)

	signals, err := newTestService(repo).List(context.Background(), "acc-1", true)
	require.NoError(t, err)
	assert.Len(t, signals, 1)
}

func TestServiceAcknowledge(t *testing.T) {
	resolvedAt := testNow.Add(-time.Hour)

	tests := []struct {
		name     string
		setup    func(repo *mocks.MockSignalRepository)
		validate func(t *testing.T, signal *domain.Signal, err error)
	}{
		{
			name: "Sinal aberto passa para acknowledged",
			setup: func(repo *mocks.MockSignalRepository) {
				acknowledged := openSignal("sig-1")
				acknowledged.Status = domain.RecommendationStatusAcknowledged

				gomock.InOrder(
					repo.EXPECT().GetByID(gomock.Any(), "sig-1").Return(openSignal("sig-1"), nil),
					repo.EXPECT().UpdateStatus(gomock.Any(), "sig-1", domain.RecommendationStatusAcknowledged).Return(nil),
					repo.EXPECT().GetByID(gomock.Any(), "sig-1").Return(acknowledged, nil),
				)
			},
			validate: func(t *testing.T, signal *domain.Signal, err error) {
				require.NoError(t, err)
				assert.Equal(t, domain.RecommendationStatusAcknowledged, signal.Status)
			},
		},
		{
			name: "Sinal inexistente",
			setup: func(repo *mocks.MockSignalRepository) {
				repo.EXPECT().GetByID(gomock.Any(), "sig-1").Return(nil, nil)
			},
			validate: func(t *testing.T, signal *domain.Signal, err error) {
				assert.Nil(t, signal)
				assert.ErrorIs(t, err, ErrSignalNotFound)

				var signalErr *SignalError
				require.ErrorAs(t, err, &signalErr)
				assert.Equal(t, apiErrors.ErrSignalNotFound, signalErr.Code)
			},
		},
		{
			name: "Sinal já resolvido",
			setup: func(repo *mocks.MockSignalRepository) {
				resolved := openSignal("sig-1")
				resolved.ResolvedAt = &resolvedAt
				repo.EXPECT().GetByID(gomock.Any(), "sig-1").Return(resolved, nil)
			},
			validate: func(t *testing.T, signal *domain.Signal, err error) {
				assert.ErrorIs(t, err, ErrSignalAlreadyResolved)
			},
		},
		{
			name: "Sinal expirado ainda não varrido",
			setup: func(repo *mocks.MockSignalRepository) {
				expired := openSignal("sig-1")
				expired.ExpiresAt = &testNow
				repo.EXPECT().GetByID(gomock.Any(), "sig-1").Return(expired, nil)
			},
			validate: func(t *testing.T, signal *domain.Signal, err error) {
				assert.Nil(t, signal)
				assert.ErrorIs(t, err, ErrSignalExpired)

				var signalErr *SignalError
				require.ErrorAs(t, err, &signalErr)
				assert.Equal(t, apiErrors.ErrSignalExpired, signalErr.Code)
			},
		},
		{
			name: "Sinal com validade futura continua aberto",
			setup: func(repo *mocks.MockSignalRepository) {
				expiresAt := testNow.Add(time.Second)
				open := openSignal("sig-1")
				open.ExpiresAt = &expiresAt

				repo.EXPECT().GetByID(gomock.Any(), "sig-1").Return(open, nil)
				repo.EXPECT().UpdateStatus(gomock.Any(), "sig-1", domain.RecommendationStatusAcknowledged).Return(nil)
				repo.EXPECT().GetByID(gomock.Any(), "sig-1").Return(open, nil)
			},
			validate: func(t *testing.T, signal *domain.Signal, err error) {
				require.NoError(t, err)
				assert.Equal(t, "sig-1", signal.ID)
			},
		},
		{
			name: "Resolvido entre a leitura e a escrita",
			setup: func(repo *mocks.MockSignalRepository) {
				repo.EXPECT().GetByID(gomock.Any(), "sig-1").Return(openSignal("sig-1"), nil)
				repo.EXPECT().UpdateStatus(gomock.Any(), "sig-1", gomock.Any()).Return(repository.ErrNotFound)
			},
			validate: func(t *testing.T, signal *domain.Signal, err error) {
				assert.ErrorIs(t, err, ErrSignalAlreadyResolved)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			repo := mocks.NewMockSignalRepository(ctrl)
			tt.setup(repo)

			signal, err := newTestService(repo).Acknowledge(context.Background(), "sig-1")
			tt.validate(t, signal, err)
		})
	}
}

func TestServiceResolve(t *testing.T) {
	tests := []struct {
		name       string
		resolution domain.SignalResolution
		setup      func(repo *mocks.MockSignalRepository)
		validate   func(t *testing.T, signal *domain.Signal, err error)
	}{
		{
			name:       "Resolução registra operador e notas",
			resolution: domain.SignalResolution{Status: domain.RecommendationStatusResolved, Notes: "  País excluído  "},
			setup: func(repo *mocks.MockSignalRepository) {
				resolved := openSignal("sig-1")
				resolved.Status = domain.RecommendationStatusResolved
				resolved.ResolvedAt = &testNow

				repo.EXPECT().GetByID(gomock.Any(), "sig-1").Return(openSignal("sig-1"), nil)
				repo.EXPECT().
					Resolve(gomock.Any(), "sig-1", domain.RecommendationStatusResolved, "ana@example.com", "País excluído", testNow).
					Return(nil)
				repo.EXPECT().GetByID(gomock.Any(), "sig-1").Return(resolved, nil)
			},
			validate: func(t *testing.T, signal *domain.Signal, err error) {
				require.NoError(t, err)
				assert.Equal(t, domain.RecommendationStatusResolved, signal.Status)
			},
		},
		{
			name:       "Dispensar também encerra o sinal",
			resolution: domain.SignalResolution{Status: domain.RecommendationStatusDismissed},
			setup: func(repo *mocks.MockSignalRepository) {
				repo.EXPECT().GetByID(gomock.Any(), "sig-1").Return(openSignal("sig-1"), nil)
				repo.EXPECT().
					Resolve(gomock.Any(), "sig-1", domain.RecommendationStatusDismissed, "ana@example.com", "", testNow).
					Return(nil)
				repo.EXPECT().GetByID(gomock.Any(), "sig-1").Return(openSignal("sig-1"), nil)
			},
			validate: func(t *testing.T, signal *domain.Signal, err error) {
				require.NoError(t, err)
			},
		},
		{
			name:       "Status fora de resolved/dismissed é rejeitado",
			resolution: domain.SignalResolution{Status: domain.RecommendationStatusAcknowledged},
			setup:      func(repo *mocks.MockSignalRepository) {},
			validate: func(t *testing.T, signal *domain.Signal, err error) {
				assert.ErrorIs(t, err, ErrInvalidResolution)
			},
		},
		{
			name:       "Status vazio é rejeitado",
			resolution: domain.SignalResolution{},
			setup:      func(repo *mocks.MockSignalRepository) {},
			validate: func(t *testing.T, signal *domain.Signal, err error) {
				assert.ErrorIs(t, err, ErrInvalidResolution)
			},
		},
		{
			name:       "Erro de banco é propagado",
			resolution: domain.SignalResolution{Status: domain.RecommendationStatusResolved},
			setup: func(repo *mocks.MockSignalRepository) {
				repo.EXPECT().GetByID(gomock.Any(), "sig-1").Return(nil, errors.New("conexão perdida"))
			},
			validate: func(t *testing.T, signal *domain.Signal, err error) {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "conexão perdida")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			repo := mocks.NewMockSignalRepository(ctrl)
			tt.setup(repo)

			signal, err := newTestService(repo).Resolve(context.Background(), "sig-1", tt.resolution, "ana@example.com")
			tt.validate(t, signal, err)
		})
	}
}

func TestServiceExpireStale(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockSignalRepository(ctrl)
	repo.EXPECT().ExpireStale(gomock.Any(), testNow).Return(int64(3), nil)

	expired, err := newTestService(repo).ExpireStale(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), expired)
}
