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

const signalsTable = "signals"

var signalColumns = []string{
	"id", "account_id", "entity_id", "signal_type", "recommendation_type", "severity", "confidence",
	"evidence", "observation", "recommendation", "status", "detected_at", "first_detected_at",
	"expires_at", "resolved_at", "resolved_by", "resolution_notes",
}

// O índice parcial uq_signals_open garante um único sinal aberto por chave;
// uma nova detecção atualiza o sinal aberto sem mexer no status nem na primeira detecção.
const signalUpsertSuffix = `ON CONFLICT (account_id, entity_id, signal_type) WHERE resolved_at IS NULL DO UPDATE SET
	recommendation_type = excluded.recommendation_type,
	severity = excluded.severity,
	confidence = excluded.confidence,
	evidence = excluded.evidence,
	observation = excluded.observation,
	recommendation = excluded.recommendation,
	detected_at = excluded.detected_at,
	expires_at = excluded.expires_at
RETURNING id`

//go:generate mockgen -source=signal.go -destination=mocks/signal.go -package=mocks

type SignalRepository interface {
	Upsert(ctx context.Context, signal *domain.Signal) (bool, error)
	GetByID(ctx context.Context, id string) (*domain.Signal, error)
	List(ctx context.Context, filter domain.SignalFilter) ([]*domain.Signal, error)
	UpdateStatus(ctx context.Context, id string, status domain.RecommendationStatus) error
	Resolve(ctx context.Context, id string, status domain.RecommendationStatus, resolvedBy, notes string, at time.Time) error
	ExpireStale(ctx context.Context, now time.Time) (int64, error)
}

type signalRepository struct {
	conn database.Conn
}

func NewSignalRepository(conn database.Conn) SignalRepository {
	return &signalRepository{
		conn: conn,
	}
}

// Upsert grava o sinal. Retorna true quando um novo sinal foi criado e false
// quando um sinal aberto com a mesma chave foi atualizado. Nos dois casos o
// sinal recebido passa a refletir o registro persistido.
func (r *signalRepository) Upsert(ctx context.Context, signal *domain.Signal) (bool, error) {
	newID := signal.ID

	query, args, err := r.conn.Builder().
		Insert(signalsTable).
		Columns(signalColumns[:14]...).
		Values(
			signal.ID,
			signal.AccountID,
			signal.EntityID,
			signal.SignalType,
			string(signal.RecommendationType),
			string(signal.Severity),
			string(signal.Confidence),
			string(signal.Evidence),
			signal.Observation,
			signal.Recommendation,
			string(signal.Status),
			dbTime(signal.DetectedAt),
			dbTime(signal.FirstDetectedAt),
			dbTimePtr(signal.ExpiresAt),
		).
		Suffix(signalUpsertSuffix).
		ToSql()
	if err != nil {
		return false, err
	}

	var storedID string
	if err := r.conn.QueryRow(ctx, query, args...).Scan(&storedID); err != nil {
		return false, fmt.Errorf("erro ao gravar sinal %s/%s: %w", signal.EntityID, signal.SignalType, err)
	}

	stored, err := r.GetByID(ctx, storedID)
	if err != nil {
		return false, err
	}
	if stored == nil {
		return false, ErrNotFound
	}
	*signal = *stored

	return signal.ID == newID, nil
}

func (r *signalRepository) GetByID(ctx context.Context, id string) (*domain.Signal, error) {
	query, args, err := r.conn.Builder().
		Select(signalColumns...).
		From(signalsTable).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, err
	}

	signal, err := scanSignal(r.conn.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("erro ao buscar sinal %s: %w", id, err)
	}

	return signal, nil
}

// List devolve os sinais da conta, mais recentes primeiro. Sem IncludeResolved
// só entram os sinais abertos e ainda não expirados.
func (r *signalRepository) List(ctx context.Context, filter domain.SignalFilter) ([]*domain.Signal, error) {
	queryBuilder := r.conn.Builder().
		Select(signalColumns...).
		From(signalsTable).
		Where(squirrel.Eq{"account_id": filter.AccountID}).
		OrderBy("detected_at DESC", "id ASC")

	if !filter.IncludeResolved {
		queryBuilder = queryBuilder.
			Where(squirrel.Eq{"resolved_at": nil}).
			Where(squirrel.Or{
				squirrel.Eq{"expires_at": nil},
				squirrel.Gt{"expires_at": dbTime(filter.Now)},
			})
	}

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("erro ao listar sinais: %w", err)
	}
	defer rows.Close()

	signals := make([]*domain.Signal, 0)
	for rows.Next() {
		signal, err := scanSignal(rows)
		if err != nil {
			return nil, err
		}
		signals = append(signals, signal)
	}

	return signals, rows.Err()
}

func (r *signalRepository) UpdateStatus(ctx context.Context, id string, status domain.RecommendationStatus) error {
	query, args, err := r.conn.Builder().
		Update(signalsTable).
		Set("status", string(status)).
		Where(squirrel.Eq{"id": id, "resolved_at": nil}).
		ToSql()
	if err != nil {
		return err
	}

	return r.execOne(ctx, query, args, id)
}

func (r *signalRepository) Resolve(ctx context.Context, id string, status domain.RecommendationStatus, resolvedBy, notes string, at time.Time) error {
	query, args, err := r.conn.Builder().
		Update(signalsTable).
		Set("status", string(status)).
		Set("resolved_at", dbTime(at)).
		Set("resolved_by", resolvedBy).
		Set("resolution_notes", notes).
		Where(squirrel.Eq{"id": id, "resolved_at": nil}).
		ToSql()
	if err != nil {
		return err
	}

	return r.execOne(ctx, query, args, id)
}

// ExpireStale resolve em nome do sistema os sinais abertos cujo prazo passou
func (r *signalRepository) ExpireStale(ctx context.Context, now time.Time) (int64, error) {
	query, args, err := r.conn.Builder().
		Update(signalsTable).
		Set("status", string(domain.RecommendationStatusResolved)).
		Set("resolved_at", dbTime(now)).
		Set("resolved_by", domain.ResolvedBySystem).
		Set("resolution_notes", "Expirado sem nova detecção").
		Where(squirrel.Eq{"resolved_at": nil}).
		Where(squirrel.NotEq{"expires_at": nil}).
		Where(squirrel.LtOrEq{"expires_at": dbTime(now)}).
		ToSql()
	if err != nil {
		return 0, err
	}

	result, err := r.conn.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("erro ao expirar sinais: %w", err)
	}

	return result.RowsAffected()
}

func (r *signalRepository) execOne(ctx context.Context, query string, args []interface{}, id string) error {
	result, err := r.conn.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("erro ao atualizar sinal %s: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSignal(row rowScanner) (*domain.Signal, error) {
	var (
		signal             domain.Signal
		recommendationType string
		severity           string
		confidence         string
		status             string
		evidence           []byte
		expiresAt          sql.NullTime
		resolvedAt         sql.NullTime
		resolvedBy         sql.NullString
		notes              sql.NullString
	)

	if err := row.Scan(
		&signal.ID,
		&signal.AccountID,
		&signal.EntityID,
		&signal.SignalType,
		&recommendationType,
		&severity,
		&confidence,
		&evidence,
		&signal.Observation,
		&signal.Recommendation,
		&status,
		&signal.DetectedAt,
		&signal.FirstDetectedAt,
		&expiresAt,
		&resolvedAt,
		&resolvedBy,
		&notes,
	); err != nil {
		return nil, err
	}

	signal.RecommendationType = domain.RecommendationType(recommendationType)
	signal.Severity = domain.Severity(severity)
	signal.Confidence = domain.Confidence(confidence)
	signal.Status = domain.RecommendationStatus(status)
	signal.Evidence = append([]byte(nil), evidence...)
	signal.DetectedAt = signal.DetectedAt.UTC()
	signal.FirstDetectedAt = signal.FirstDetectedAt.UTC()

	if expiresAt.Valid {
		t := expiresAt.Time.UTC()
		signal.ExpiresAt = &t
	}
	if resolvedAt.Valid {
		t := resolvedAt.Time.UTC()
		signal.ResolvedAt = &t
	}
	if resolvedBy.Valid {
		signal.ResolvedBy = &resolvedBy.String
	}
	if notes.Valid {
		signal.ResolutionNotes = &notes.String
	}

	return &signal, nil
}
