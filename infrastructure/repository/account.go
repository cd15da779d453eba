package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/vfg2006/traffic-advisor-api/infrastructure/database"
	"github.com/vfg2006/traffic-advisor-api/internal/domain"
	"github.com/vfg2006/traffic-advisor-api/pkg/log"
)

const accountsTable = "accounts a"

const accountColumns = "a.id, a.external_id, a.name, a.status, a.created_at, a.updated_at"

//go:generate mockgen -source=account.go -destination=mocks/account.go -package=mocks

type AccountRepository interface {
	GetAccountByID(ctx context.Context, accountID string) (*domain.Account, error)
	GetAccountByExternalID(ctx context.Context, externalID string) (*domain.Account, error)
	ListAccounts(ctx context.Context, availableStatus []domain.AccountStatus) ([]*domain.Account, error)
	SaveOrUpdate(ctx context.Context, accounts []*domain.Account) error
	UpdateStatus(ctx context.Context, accountID string, status domain.AccountStatus) error
}

type accountRepository struct {
	conn database.Conn
}

func NewAccountRepository(conn database.Conn) AccountRepository {
	return &accountRepository{
		conn: conn,
	}
}

func (a *accountRepository) GetAccountByExternalID(ctx context.Context, externalID string) (*domain.Account, error) {
	return a.getAccount(ctx, squirrel.Eq{"a.external_id": externalID})
}

func (a *accountRepository) GetAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	return a.getAccount(ctx, squirrel.Eq{"a.id": accountID})
}

func (a *accountRepository) getAccount(ctx context.Context, whereClause squirrel.Eq) (*domain.Account, error) {
	accountsSQL, accountsArgs, err := a.conn.Builder().
		Select(accountColumns).
		From(accountsTable).
		Where(whereClause).
		ToSql()
	if err != nil {
		return nil, err
	}

	acc, err := deserializeAccount(a.conn.QueryRow(ctx, accountsSQL, accountsArgs...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return acc, nil
}

// ListAccounts lista as contas ordenadas por nome; sem filtro devolve todas
func (a *accountRepository) ListAccounts(ctx context.Context, availableStatus []domain.AccountStatus) ([]*domain.Account, error) {
	queryBuilder := a.conn.Builder().
		Select(accountColumns).
		From(accountsTable).
		OrderBy("a.name ASC", "a.id ASC")

	if len(availableStatus) > 0 {
		statuses := make([]string, 0, len(availableStatus))
		for _, status := range availableStatus {
			statuses = append(statuses, string(status))
		}
		queryBuilder = queryBuilder.Where(squirrel.Eq{"a.status": statuses})
	}

	accountsSQL, accountsArgs, err := queryBuilder.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := a.conn.Query(ctx, accountsSQL, accountsArgs...)
	if err != nil {
		return nil, fmt.Errorf("erro ao listar contas: %w", err)
	}
	defer rows.Close()

	accounts := make([]*domain.Account, 0)
	for rows.Next() {
		acc, err := deserializeAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, acc)
	}

	return accounts, rows.Err()
}

func (a *accountRepository) SaveOrUpdate(ctx context.Context, accounts []*domain.Account) error {
	if len(accounts) == 0 {
		return nil
	}

	now := dbTime(time.Now())

	query := a.conn.Builder().
		Insert("accounts").
		Columns("id", "external_id", "name", "status", "created_at", "updated_at")

	for _, account := range accounts {
		status := account.Status
		if status == "" {
			status = domain.AccountStatusActive
		}

		query = query.Values(account.ID, account.ExternalID, account.Name, string(status), now, now)
	}

	// Em conflito mantém o ID e a data de criação originais
	query = query.Suffix(`
		ON CONFLICT (external_id) DO UPDATE SET
			name = excluded.name,
			status = excluded.status,
			updated_at = excluded.updated_at
	`)

	sqlQuery, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("erro ao montar a query: %w", err)
	}

	if _, err := a.conn.Exec(ctx, sqlQuery, args...); err != nil {
		return fmt.Errorf("erro ao gravar contas: %w", err)
	}

	log.ForContext(ctx).Debugf("%d contas gravadas", len(accounts))
	return nil
}

func (a *accountRepository) UpdateStatus(ctx context.Context, accountID string, status domain.AccountStatus) error {
	sqlQuery, args, err := a.conn.Builder().
		Update("accounts").
		Set("status", string(status)).
		Set("updated_at", dbTime(time.Now())).
		Where(squirrel.Eq{"id": accountID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("erro ao montar a query: %w", err)
	}

	result, err := a.conn.Exec(ctx, sqlQuery, args...)
	if err != nil {
		return fmt.Errorf("erro ao atualizar conta: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

func deserializeAccount(row rowScanner) (*domain.Account, error) {
	acc := &domain.Account{}
	var status string

	if err := row.Scan(
		&acc.ID,
		&acc.ExternalID,
		&acc.Name,
		&status,
		&acc.CreatedAt,
		&acc.UpdatedAt,
	); err != nil {
		return nil, err
	}
	acc.Status = domain.AccountStatus(status)

	return acc, nil
}
