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
)

const operatorsTable = "operators"

const operatorColumns = "id, name, email, password_hash, active, role_id, created_at, updated_at"

//go:generate mockgen -source=operator.go -destination=mocks/operator.go -package=mocks

type OperatorRepository interface {
	CreateOperator(ctx context.Context, operator *domain.Operator) (*domain.Operator, error)
	GetOperatorByEmail(ctx context.Context, email string) (*domain.Operator, error)
	GetOperatorByID(ctx context.Context, operatorID int) (*domain.Operator, error)
}

type operatorRepository struct {
	conn database.Conn
}

func NewOperatorRepository(conn database.Conn) OperatorRepository {
	return &operatorRepository{
		conn: conn,
	}
}

func (r *operatorRepository) CreateOperator(ctx context.Context, operator *domain.Operator) (*domain.Operator, error) {
	now := dbTime(time.Now())

	operatorsSQL, operatorsArgs, err := r.conn.Builder().
		Insert(operatorsTable).
		Columns("name", "email", "password_hash", "active", "role_id", "created_at", "updated_at").
		Values(operator.Name, operator.Email, operator.PasswordHash, operator.Active, operator.RoleID, now, now).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return nil, err
	}

	if err := r.conn.QueryRow(ctx, operatorsSQL, operatorsArgs...).Scan(&operator.ID); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, fmt.Errorf("operador %s já existe: %w", operator.Email, err)
		}
		return nil, fmt.Errorf("erro ao criar operador: %w", err)
	}

	operator.CreatedAt = now
	operator.UpdatedAt = now

	return operator, nil
}

func (r *operatorRepository) GetOperatorByEmail(ctx context.Context, email string) (*domain.Operator, error) {
	return r.getOperator(ctx, squirrel.Eq{"email": email})
}

func (r *operatorRepository) GetOperatorByID(ctx context.Context, operatorID int) (*domain.Operator, error) {
	return r.getOperator(ctx, squirrel.Eq{"id": operatorID})
}

func (r *operatorRepository) getOperator(ctx context.Context, whereClause squirrel.Eq) (*domain.Operator, error) {
	operatorsSQL, operatorsArgs, err := r.conn.Builder().
		Select(operatorColumns).
		From(operatorsTable).
		Where(whereClause).
		ToSql()
	if err != nil {
		return nil, err
	}

	operator := &domain.Operator{}
	err = r.conn.QueryRow(ctx, operatorsSQL, operatorsArgs...).Scan(
		&operator.ID,
		&operator.Name,
		&operator.Email,
		&operator.PasswordHash,
		&operator.Active,
		&operator.RoleID,
		&operator.CreatedAt,
		&operator.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("erro ao buscar operador: %w", err)
	}

	return operator, nil
}
