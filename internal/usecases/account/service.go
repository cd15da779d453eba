package account

import (
	"context"

	"github.com/vfg2006/traffic-advisor-api/infrastructure/repository"
	"github.com/vfg2006/traffic-advisor-api/internal/domain"
	"github.com/vfg2006/traffic-advisor-api/pkg/apiErrors"
	"github.com/vfg2006/traffic-advisor-api/pkg/log"
)

//go:generate mockgen -source=service.go -destination=mocks/account_service.go -package=mocks

type AccountService interface {
	ListAccounts(ctx context.Context, availableStatus []domain.AccountStatus) ([]*domain.Account, error)
	GetActiveAccount(ctx context.Context, accountID string) (*domain.Account, error)
	UpdateStatus(ctx context.Context, accountID string, status domain.AccountStatus) (*domain.Account, error)
}

type Service struct {
	accountRepository repository.AccountRepository
}

func NewService(accountRepository repository.AccountRepository) AccountService {
	return &Service{
		accountRepository: accountRepository,
	}
}

func (s *Service) ListAccounts(ctx context.Context, availableStatus []domain.AccountStatus) ([]*domain.Account, error) {
	for _, status := range availableStatus {
		if !validStatus(status) {
			return nil, NewAccountError(ErrInvalidStatus, apiErrors.ErrInvalidFormat, string(status))
		}
	}

	accounts, err := s.accountRepository.ListAccounts(ctx, availableStatus)
	if err != nil {
		log.ForContext(ctx).WithError(err).Error("Erro ao listar contas")
		return nil, NewAccountError(ErrFetchAccounts, apiErrors.ErrDatabaseOperation, "Falha ao listar contas no banco de dados")
	}

	return accounts, nil
}

// GetActiveAccount busca a conta e exige que esteja ativa para ser avaliada
func (s *Service) GetActiveAccount(ctx context.Context, accountID string) (*domain.Account, error) {
	account, err := s.getAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if !account.IsActive() {
		return nil, NewAccountErrorWithID(ErrAccountInactive, apiErrors.ErrAccountInactive, accountID, "Conta inativa não pode ser avaliada")
	}

	return account, nil
}

func (s *Service) UpdateStatus(ctx context.Context, accountID string, status domain.AccountStatus) (*domain.Account, error) {
	if !validStatus(status) {
		return nil, NewAccountErrorWithID(ErrInvalidStatus, apiErrors.ErrInvalidFormat, accountID, string(status))
	}

	account, err := s.getAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if err := s.accountRepository.UpdateStatus(ctx, accountID, status); err != nil {
		log.ForAccount(ctx, accountID).WithError(err).Error("Erro ao atualizar status da conta")
		return nil, NewAccountErrorWithID(ErrUpdateAccount, apiErrors.ErrDatabaseOperation, accountID, "Falha ao atualizar conta no banco de dados")
	}

	account.Status = status
	return account, nil
}

func (s *Service) getAccount(ctx context.Context, accountID string) (*domain.Account, error) {
	if accountID == "" {
		return nil, NewAccountError(ErrAccountIDRequired, apiErrors.ErrMissingRequiredData, "")
	}

	account, err := s.accountRepository.GetAccountByID(ctx, accountID)
	if err != nil {
		log.ForAccount(ctx, accountID).WithError(err).Error("Erro ao buscar conta")
		return nil, NewAccountErrorWithID(ErrFetchAccounts, apiErrors.ErrDatabaseOperation, accountID, "Erro ao buscar conta no banco de dados")
	}

	if account == nil {
		return nil, NewAccountErrorWithID(ErrAccountNotFound, apiErrors.ErrAccountNotFound, accountID, "Conta não encontrada")
	}

	return account, nil
}

func validStatus(status domain.AccountStatus) bool {
	return status == domain.AccountStatusActive || status == domain.AccountStatusInactive
}
