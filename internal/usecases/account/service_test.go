package account

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/vfg2006/traffic-advisor-api/infrastructure/repository/mocks"
	"github.com/vfg2006/traffic-advisor-api/internal/domain"
	"github.com/vfg2006/traffic-advisor-api/pkg/apiErrors"
	"github.com/vfg2006/traffic-advisor-api/pkg/log"
)

func init() {
	log.SetupTestLogger()
}

func TestServiceGetActiveAccount(t *testing.T) {
	tests := []struct {
		name      string
		accountID string
		setup     func(repo *mocks.MockAccountRepository)
		validate  func(t *testing.T, account *domain.Account, err error)
	}{
		{
			name:      "Conta ativa",
			accountID: "acc-1",
			setup: func(repo *mocks.MockAccountRepository) {
				repo.EXPECT().GetAccountByID(gomock.Any(), "acc-1").Return(&domain.Account{ID: "acc-1", Status: domain.AccountStatusActive}, nil)
			},
			validate: func(t *testing.T, account *domain.Account, err error) {
				require.NoError(t, err)
				assert.Equal(t, "acc-1", account.ID)
			},
		},
		{
			name:      "Conta inativa",
			accountID: "acc-1",
			setup: func(repo *mocks.MockAccountRepository) {
				repo.EXPECT().GetAccountByID(gomock.Any(), "acc-1").Return(&domain.Account{ID: "acc-1", Status: domain.AccountStatusInactive}, nil)
			},
			validate: func(t *testing.T, account *domain.Account, err error) {
				assert.ErrorIs(t, err, ErrAccountInactive)

				var accountErr *AccountError
				require.ErrorAs(t, err, &accountErr)
				assert.Equal(t, apiErrors.ErrAccountInactive, accountErr.Code)
			},
		},
		{
			name:      "Conta inexistente",
			accountID: "acc-x",
			setup: func(repo *mocks.MockAccountRepository) {
				repo.EXPECT().GetAccountByID(gomock.Any(), "acc-x").Return(nil, nil)
			},
			validate: func(t *testing.T, account *domain.Account, err error) {
				assert.ErrorIs(t, err, ErrAccountNotFound)
			},
		},
		{
			name:      "ID vazio",
			accountID: "",
			setup:     func(repo *mocks.MockAccountRepository) {},
			validate: func(t *testing.T, account *domain.Account, err error) {
				assert.ErrorIs(t, err, ErrAccountIDRequired)
			},
		},
		{
			name:      "Erro de banco",
			accountID: "acc-1",
			setup: func(repo *mocks.MockAccountRepository) {
				repo.EXPECT().GetAccountByID(gomock.Any(), "acc-1").Return(nil, errors.New("timeout"))
			},
			validate: func(t *testing.T, account *domain.Account, err error) {
				assert.ErrorIs(t, err, ErrFetchAccounts)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			repo := mocks.NewMockAccountRepository(ctrl)
			tt.setup(repo)

			account, err := NewService(repo).GetActiveAccount(context.Background(), tt.accountID)
			tt.validate(t, account, err)
		})
	}
}

func TestServiceListAccounts(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockAccountRepository(ctrl)
	statuses := []domain.AccountStatus{domain.AccountStatusActive}

	repo.EXPECT().ListAccounts(gomock.Any(), statuses).Return([]*domain.Account{{ID: "acc-1"}}, nil)

	accounts, err := NewService(repo).ListAccounts(context.Background(), statuses)
	require.NoError(t, err)
	assert.Len(t, accounts, 1)

	_, err = NewService(repo).ListAccounts(context.Background(), []domain.AccountStatus{"PAUSED"})
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestServiceUpdateStatus(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockAccountRepository(ctrl)

	repo.EXPECT().GetAccountByID(gomock.Any(), "acc-1").Return(&domain.Account{ID: "acc-1", Status: domain.AccountStatusActive}, nil)
	repo.EXPECT().UpdateStatus(gomock.Any(), "acc-1", domain.AccountStatusInactive).Return(nil)

	account, err := NewService(repo).UpdateStatus(context.Background(), "acc-1", domain.AccountStatusInactive)
	require.NoError(t, err)
	assert.False(t, account.IsActive())
}
