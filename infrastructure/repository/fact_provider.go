package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/vfg2006/traffic-advisor-api/infrastructure/database"
	"github.com/vfg2006/traffic-advisor-api/internal/domain"
	"github.com/vfg2006/traffic-advisor-api/internal/usecases/detecting"
	"github.com/vfg2006/traffic-advisor-api/pkg/log"
)

const (
	rtbDailyTable     = "rtb_daily r"
	creativesTable    = "creatives c"
	troubleshootTable = "troubleshooting_data"

	metricTypeFilteredBids = "filtered_bids"

	trafficColumns = "COALESCE(SUM(r.reached_queries), 0), COALESCE(SUM(r.impressions), 0), COALESCE(SUM(r.clicks), 0), COALESCE(SUM(r.spend_micros), 0)"
)

// dimensionColumns mapeia cada dimensão para a coluna de rtb_daily usada como chave
var dimensionColumns = map[domain.Dimension]string{
	domain.DimensionAccount:   "r.account_id",
	domain.DimensionSize:      "r.creative_size",
	domain.DimensionGeo:       "r.country",
	domain.DimensionDevice:    "r.device_type",
	domain.DimensionPublisher: "r.publisher_id",
	domain.DimensionCreative:  "r.creative_id",
	domain.DimensionFormat:    "c.format",
}

type factProvider struct {
	conn database.Conn
	now  func() time.Time
}

// NewFactProvider cria o provedor de fatos sobre as tabelas rtb_daily,
// creatives, thumbnail_status e troubleshooting_data
func NewFactProvider(conn database.Conn) detecting.FactProvider {
	return &factProvider{
		conn: conn,
		now:  time.Now,
	}
}

// since devolve a primeira data incluída na janela
func (p *factProvider) since(windowDays int) string {
	return dbDate(p.now().AddDate(0, 0, -windowDays))
}

func (p *factProvider) GetAggregate(ctx context.Context, dimension domain.Dimension, windowDays int, filters domain.FactFilters) ([]domain.FactRow, error) {
	keyColumn, ok := dimensionColumns[dimension]
	if !ok {
		return nil, fmt.Errorf("dimensão não suportada: %s", dimension)
	}

	columns := keyColumn + ", " + trafficColumns
	if dimension == domain.DimensionGeo {
		columns += ", COUNT(DISTINCT CASE WHEN r.impressions > 0 THEN r.creative_id END)"
	}

	queryBuilder := p.conn.Builder().
		Select(columns).
		From(rtbDailyTable).
		Where(squirrel.Eq{"r.account_id": filters.AccountID}).
		Where(squirrel.GtOrEq{"r.metric_date": p.since(windowDays)}).
		Where(squirrel.NotEq{keyColumn: nil}).
		GroupBy(keyColumn).
		OrderBy(keyColumn)

	if dimension == domain.DimensionFormat {
		queryBuilder = queryBuilder.Join("creatives c ON c.id = r.creative_id")
	}
	if filters.Format != "" {
		queryBuilder = queryBuilder.Where("r.creative_id IN (SELECT id FROM creatives WHERE UPPER(format) = ?)", strings.ToUpper(filters.Format))
	}

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := p.conn.Query(ctx, query, args...)
	if err != nil {
		return missingAsEmpty[domain.FactRow](ctx, "fatos agregados", err)
	}
	defer rows.Close()

	facts := make([]domain.FactRow, 0)
	for rows.Next() {
		var fact domain.FactRow
		dest := []interface{}{
			&fact.DimensionKey,
			&fact.ReachedQueries,
			&fact.Impressions,
			&fact.Clicks,
			&fact.SpendMicros,
		}

		var creatives int
		if dimension == domain.DimensionGeo {
			dest = append(dest, &creatives)
		}

		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		if dimension == domain.DimensionGeo {
			fact.CreativeCount = &creatives
		}

		facts = append(facts, fact)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	switch dimension {
	case domain.DimensionSize:
		return p.withSizeInventory(ctx, facts, filters)
	case domain.DimensionFormat:
		return p.withFormatInventory(ctx, facts, filters)
	}

	return facts, nil
}

// withSizeInventory preenche creative_count com os criativos aprovados de cada tamanho
func (p *factProvider) withSizeInventory(ctx context.Context, facts []domain.FactRow, filters domain.FactFilters) ([]domain.FactRow, error) {
	inventory, err := p.GetInventory(ctx, filters)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int, len(inventory))
	for _, item := range inventory {
		if item.Width > 0 && item.Height > 0 {
			counts[domain.SizeKey(item.Width, item.Height)] += item.Count
		}
	}

	for i := range facts {
		count := 0
		if w, h, ok := domain.ParseSize(facts[i].DimensionKey); ok {
			count = counts[domain.SizeKey(w, h)]
		}
		facts[i].CreativeCount = &count
	}

	return facts, nil
}

func (p *factProvider) withFormatInventory(ctx context.Context, facts []domain.FactRow, filters domain.FactFilters) ([]domain.FactRow, error) {
	inventory, err := p.GetInventory(ctx, filters)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int, len(inventory))
	for _, item := range inventory {
		counts[strings.ToUpper(item.Format)] += item.Count
	}

	for i := range facts {
		facts[i].DimensionKey = strings.ToUpper(facts[i].DimensionKey)
		count := counts[facts[i].DimensionKey]
		facts[i].CreativeCount = &count
	}

	return facts, nil
}

func (p *factProvider) GetCreatives(ctx context.Context, windowDays int, filters domain.FactFilters) ([]domain.CreativeFact, error) {
	queryBuilder := p.conn.Builder().
		Select(
			"c.id, c.format, c.approval_status, COALESCE(t.status, ''), COALESCE(t.error_reason, ''), "+trafficColumns+
				", COALESCE(SUM(r.video_starts), 0), COALESCE(SUM(r.video_completions), 0), COUNT(DISTINCT r.metric_date)",
		).
		From(creativesTable).
		LeftJoin("rtb_daily r ON r.creative_id = c.id AND r.metric_date >= ?", p.since(windowDays)).
		LeftJoin("thumbnail_status t ON t.creative_id = c.id").
		Where(squirrel.Eq{"c.account_id": filters.AccountID}).
		GroupBy("c.id", "c.format", "c.approval_status", "t.status", "t.error_reason").
		OrderBy("c.id")

	if filters.Format != "" {
		queryBuilder = queryBuilder.Where(squirrel.Eq{"UPPER(c.format)": strings.ToUpper(filters.Format)})
	}

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := p.conn.Query(ctx, query, args...)
	if err != nil {
		return missingAsEmpty[domain.CreativeFact](ctx, "criativos", err)
	}
	defer rows.Close()

	creatives := make([]domain.CreativeFact, 0)
	for rows.Next() {
		var creative domain.CreativeFact
		if err := rows.Scan(
			&creative.CreativeID,
			&creative.Format,
			&creative.ApprovalStatus,
			&creative.ThumbnailStatus,
			&creative.ThumbnailError,
			&creative.ReachedQueries,
			&creative.Impressions,
			&creative.Clicks,
			&creative.SpendMicros,
			&creative.VideoStarts,
			&creative.VideoCompletions,
			&creative.DaysObserved,
		); err != nil {
			return nil, err
		}

		creative.Format = strings.ToUpper(creative.Format)
		creative.ApprovalStatus = strings.ToUpper(creative.ApprovalStatus)
		creative.ThumbnailStatus = strings.ToLower(creative.ThumbnailStatus)

		creatives = append(creatives, creative)
	}

	return creatives, rows.Err()
}

// GetClickViolations conta, por publisher, os dias com mais cliques que impressões
func (p *factProvider) GetClickViolations(ctx context.Context, windowDays int, filters domain.FactFilters) ([]domain.ClickViolation, error) {
	daily := squirrel.
		Select("r.publisher_id, r.metric_date, SUM(r.clicks) AS clicks, SUM(r.impressions) AS impressions").
		From(rtbDailyTable).
		Where(squirrel.Eq{"r.account_id": filters.AccountID}).
		Where(squirrel.GtOrEq{"r.metric_date": p.since(windowDays)}).
		Where(squirrel.NotEq{"r.publisher_id": nil}).
		GroupBy("r.publisher_id", "r.metric_date")

	query, args, err := p.conn.Builder().
		Select("d.publisher_id, COUNT(*)").
		FromSelect(daily, "d").
		Where("d.clicks > d.impressions").
		GroupBy("d.publisher_id").
		OrderBy("d.publisher_id").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := p.conn.Query(ctx, query, args...)
	if err != nil {
		return missingAsEmpty[domain.ClickViolation](ctx, "violações de cliques", err)
	}
	defer rows.Close()

	violations := make([]domain.ClickViolation, 0)
	for rows.Next() {
		var violation domain.ClickViolation
		if err := rows.Scan(&violation.PublisherID, &violation.ViolationDays); err != nil {
			return nil, err
		}
		violations = append(violations, violation)
	}

	return violations, rows.Err()
}

func (p *factProvider) GetFilteredBids(ctx context.Context, windowDays int, filters domain.FactFilters) ([]domain.FilteredBidFact, error) {
	query, args, err := p.conn.Builder().
		Select("status_name, COALESCE(SUM(bid_count), 0), COALESCE(SUM(impression_count), 0)").
		From(troubleshootTable).
		Where(squirrel.Eq{"account_id": filters.AccountID, "metric_type": metricTypeFilteredBids}).
		Where(squirrel.GtOrEq{"collection_date": p.since(windowDays)}).
		GroupBy("status_name").
		OrderBy("COALESCE(SUM(bid_count), 0) DESC", "status_name").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := p.conn.Query(ctx, query, args...)
	if err != nil {
		return missingAsEmpty[domain.FilteredBidFact](ctx, "lances filtrados", err)
	}
	defer rows.Close()

	bids := make([]domain.FilteredBidFact, 0)
	for rows.Next() {
		var bid domain.FilteredBidFact
		if err := rows.Scan(&bid.Status, &bid.Bids, &bid.Impressions); err != nil {
			return nil, err
		}
		bids = append(bids, bid)
	}

	return bids, rows.Err()
}

// GetInventory conta os criativos aprovados por formato e tamanho
func (p *factProvider) GetInventory(ctx context.Context, filters domain.FactFilters) ([]domain.InventoryRow, error) {
	queryBuilder := p.conn.Builder().
		Select("UPPER(c.format), c.width, c.height, COUNT(*)").
		From(creativesTable).
		Where(squirrel.Eq{"c.account_id": filters.AccountID, "UPPER(c.approval_status)": domain.ApprovalApproved}).
		GroupBy("UPPER(c.format)", "c.width", "c.height").
		OrderBy("UPPER(c.format)", "c.width", "c.height")

	if filters.Format != "" {
		queryBuilder = queryBuilder.Where(squirrel.Eq{"UPPER(c.format)": strings.ToUpper(filters.Format)})
	}

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := p.conn.Query(ctx, query, args...)
	if err != nil {
		return missingAsEmpty[domain.InventoryRow](ctx, "inventário", err)
	}
	defer rows.Close()

	inventory := make([]domain.InventoryRow, 0)
	for rows.Next() {
		var item domain.InventoryRow
		if err := rows.Scan(&item.Format, &item.Width, &item.Height, &item.Count); err != nil {
			return nil, err
		}
		inventory = append(inventory, item)
	}

	return inventory, rows.Err()
}

// GetAvailability conta as linhas de cada fonte usadas pelo portão de qualidade
func (p *factProvider) GetAvailability(ctx context.Context, windowDays int, filters domain.FactFilters) (domain.DataAvailability, error) {
	var availability domain.DataAvailability
	since := p.since(windowDays)

	counts := []struct {
		table string
		where squirrel.Sqlizer
		dest  *int64
	}{
		{
			table: "rtb_daily",
			where: squirrel.And{squirrel.Eq{"account_id": filters.AccountID}, squirrel.GtOrEq{"metric_date": since}},
			dest:  &availability.TrafficRows,
		},
		{
			table: troubleshootTable,
			where: squirrel.And{squirrel.Eq{"account_id": filters.AccountID, "metric_type": metricTypeFilteredBids}, squirrel.GtOrEq{"collection_date": since}},
			dest:  &availability.TroubleshootRows,
		},
		{
			table: "creatives",
			where: squirrel.Eq{"account_id": filters.AccountID},
			dest:  &availability.CreativeRows,
		},
	}

	for _, c := range counts {
		query, args, err := p.conn.Builder().Select("COUNT(*)").From(c.table).Where(c.where).ToSql()
		if err != nil {
			return availability, err
		}

		if err := p.conn.QueryRow(ctx, query, args...).Scan(c.dest); err != nil {
			if database.IsMissingRelation(err) {
				log.ForContext(ctx).Debugf("Tabela %s ausente, contando como vazia", c.table)
				continue
			}
			return availability, fmt.Errorf("erro ao contar linhas de %s: %w", c.table, err)
		}
	}

	return availability, nil
}

// missingAsEmpty trata tabela ou coluna ausente como ausência de dados
func missingAsEmpty[T any](ctx context.Context, what string, err error) ([]T, error) {
	if database.IsMissingRelation(err) {
		log.ForContext(ctx).Debugf("Tabela de %s ausente, seguindo sem fatos", what)
		return make([]T, 0), nil
	}
	return nil, fmt.Errorf("erro ao buscar %s: %w", what, err)
}
