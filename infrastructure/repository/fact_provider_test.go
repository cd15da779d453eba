package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vfg2006/traffic-advisor-api/infrastructure/database"
	"github.com/vfg2006/traffic-advisor-api/internal/domain"
)

const insertTraffic = `INSERT INTO rtb_daily (account_id, metric_date, creative_id, creative_size, country, device_type, publisher_id,
	reached_queries, impressions, clicks, spend_micros, video_starts, video_completions)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func seedFacts(t *testing.T, conn database.Conn) {
	t.Helper()

	mustExec(t, conn, insertTraffic, "acc-1", "2026-01-14", "cr-1", "300x250", "Brazil", "MOBILE", "pub-1", 1000, 100, 5, 1_000_000, 0, 0)
	mustExec(t, conn, insertTraffic, "acc-1", "2026-01-13", "cr-2", "320x50", "Brazil", "DESKTOP", "pub-1", 2000, 0, 3, 0, 400, 20)
	mustExec(t, conn, insertTraffic, "acc-1", "2026-01-12", "cr-1", "300x250", "Chile", "MOBILE", "pub-2", 500, 50, 1, 500_000, 0, 0)
	// Fora da janela de 7 dias
	mustExec(t, conn, insertTraffic, "acc-1", "2025-12-01", "cr-1", "300x250", "Brazil", "MOBILE", "pub-1", 99_999, 9_999, 99, 9_000_000, 0, 0)
	// Outra conta
	mustExec(t, conn, insertTraffic, "acc-2", "2026-01-14", "cr-9", "728x90", "Chile", "MOBILE", "pub-9", 777, 7, 0, 0, 0, 0)

	insertCreative := `INSERT INTO creatives (id, account_id, format, width, height, approval_status) VALUES (?, ?, ?, ?, ?, ?)`
	mustExec(t, conn, insertCreative, "cr-1", "acc-1", "HTML", 300, 250, "APPROVED")
	mustExec(t, conn, insertCreative, "cr-2", "acc-1", "VIDEO", 320, 50, "DISAPPROVED")
	mustExec(t, conn, insertCreative, "cr-3", "acc-1", "html", 300, 250, "approved")
	mustExec(t, conn, insertCreative, "cr-9", "acc-2", "HTML", 728, 90, "APPROVED")

	mustExec(t, conn, `INSERT INTO thumbnail_status (creative_id, status, error_reason) VALUES (?, ?, ?)`, "cr-2", "FAILED", "timeout ao gerar thumbnail")

	insertTroubleshoot := `INSERT INTO troubleshooting_data (account_id, collection_date, metric_type, status_name, bid_count, impression_count) VALUES (?, ?, ?, ?, ?, ?)`
	mustExec(t, conn, insertTroubleshoot, "acc-1", "2026-01-14", "filtered_bids", "CREATIVE_NOT_APPROVED", 300, 0)
	mustExec(t, conn, insertTroubleshoot, "acc-1", "2026-01-13", "filtered_bids", "BID_BELOW_FLOOR", 100, 0)
	mustExec(t, conn, insertTroubleshoot, "acc-1", "2026-01-13", "bid_metrics", "BIDS", 999, 0)
}

func newTestFactProvider(conn database.Conn) *factProvider {
	return &factProvider{
		conn: conn,
		now:  func() time.Time { return testNow },
	}
}

func TestFactProviderGetAggregate(t *testing.T) {
	conn := newTestConn(t)
	seedFacts(t, conn)
	provider := newTestFactProvider(conn)
	filters := domain.FactFilters{AccountID: "acc-1"}

	tests := []struct {
		name      string
		dimension domain.Dimension
		validate  func(t *testing.T, rows []domain.FactRow)
	}{
		{
			name:      "Totais da conta ignoram linhas fora da janela e de outras contas",
			dimension: domain.DimensionAccount,
			validate: func(t *testing.T, rows []domain.FactRow) {
				require.Len(t, rows, 1)
				assert.Equal(t, "acc-1", rows[0].DimensionKey)
				assert.Equal(t, domain.Traffic{ReachedQueries: 3500, Impressions: 150, Clicks: 9, SpendMicros: 1_500_000}, rows[0].Traffic)
			},
		},
		{
			name:      "Tamanhos com contagem de criativos aprovados",
			dimension: domain.DimensionSize,
			validate: func(t *testing.T, rows []domain.FactRow) {
				require.Len(t, rows, 2)
				assert.Equal(t, "300x250", rows[0].DimensionKey)
				assert.Equal(t, int64(1500), rows[0].ReachedQueries)
				assert.Equal(t, 2, rows[0].Creatives())
				assert.Equal(t, "320x50", rows[1].DimensionKey)
				require.NotNil(t, rows[1].CreativeCount)
				assert.Equal(t, 0, rows[1].Creatives())
			},
		},
		{
			name:      "Países com criativos ativos distintos",
			dimension: domain.DimensionGeo,
			validate: func(t *testing.T, rows []domain.FactRow) {
				require.Len(t, rows, 2)
				assert.Equal(t, "Brazil", rows[0].DimensionKey)
				assert.Equal(t, int64(3000), rows[0].ReachedQueries)
				assert.Equal(t, 1, rows[0].Creatives())
				assert.Equal(t, "Chile", rows[1].DimensionKey)
			},
		},
		{
			name:      "Formatos via criativos",
			dimension: domain.DimensionFormat,
			validate: func(t *testing.T, rows []domain.FactRow) {
				require.Len(t, rows, 2)
				assert.Equal(t, "HTML", rows[0].DimensionKey)
				assert.Equal(t, int64(1500), rows[0].ReachedQueries)
				assert.Equal(t, 2, rows[0].Creatives())
				assert.Equal(t, "VIDEO", rows[1].DimensionKey)
				assert.Equal(t, 0, rows[1].Creatives())
			},
		},
		{
			name:      "Publishers",
			dimension: domain.DimensionPublisher,
			validate: func(t *testing.T, rows []domain.FactRow) {
				require.Len(t, rows, 2)
				assert.Equal(t, "pub-1", rows[0].DimensionKey)
				assert.Equal(t, int64(8), rows[0].Clicks)
				assert.Nil(t, rows[0].CreativeCount)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := provider.GetAggregate(context.Background(), tt.dimension, 7, filters)
			require.NoError(t, err)
			tt.validate(t, rows)
		})
	}
}

func TestFactProviderGetAggregateUnknownDimension(t *testing.T) {
	provider := newTestFactProvider(newTestConn(t))

	_, err := provider.GetAggregate(context.Background(), domain.Dimension("campaign"), 7, domain.FactFilters{AccountID: "acc-1"})
	assert.Error(t, err)
}

func TestFactProviderGetCreatives(t *testing.T) {
	conn := newTestConn(t)
	seedFacts(t, conn)

	creatives, err := newTestFactProvider(conn).GetCreatives(context.Background(), 7, domain.FactFilters{AccountID: "acc-1"})
	require.NoError(t, err)
	require.Len(t, creatives, 3)

	assert.Equal(t, "cr-1", creatives[0].CreativeID)
	assert.Equal(t, int64(1500), creatives[0].ReachedQueries)
	assert.Equal(t, 2, creatives[0].DaysObserved)
	assert.Equal(t, domain.ApprovalApproved, creatives[0].ApprovalStatus)

	video := creatives[1]
	assert.Equal(t, "cr-2", video.CreativeID)
	assert.True(t, video.IsVideo())
	assert.Equal(t, domain.ApprovalDisapproved, video.ApprovalStatus)
	assert.Equal(t, domain.ThumbnailFailed, video.ThumbnailStatus)
	assert.Equal(t, int64(400), video.VideoStarts)
	assert.Equal(t, 0.05, video.CompletionRate())

	idle := creatives[2]
	assert.Equal(t, "HTML", idle.Format)
	assert.Equal(t, int64(0), idle.ReachedQueries)
	assert.Equal(t, 0, idle.DaysObserved)
}

func TestFactProviderClickViolationsAndFilteredBids(t *testing.T) {
	conn := newTestConn(t)
	seedFacts(t, conn)
	provider := newTestFactProvider(conn)
	filters := domain.FactFilters{AccountID: "acc-1"}

	violations, err := provider.GetClickViolations(context.Background(), 7, filters)
	require.NoError(t, err)
	assert.Equal(t, []domain.ClickViolation{{PublisherID: "pub-1", ViolationDays: 1}}, violations)

	bids, err := provider.GetFilteredBids(context.Background(), 7, filters)
	require.NoError(t, err)
	require.Len(t, bids, 2)
	assert.Equal(t, "CREATIVE_NOT_APPROVED", bids[0].Status)
	assert.Equal(t, int64(300), bids[0].Bids)
	assert.Equal(t, "BID_BELOW_FLOOR", bids[1].Status)
}

func TestFactProviderInventoryAndAvailability(t *testing.T) {
	conn := newTestConn(t)
	seedFacts(t, conn)
	provider := newTestFactProvider(conn)
	filters := domain.FactFilters{AccountID: "acc-1"}

	inventory, err := provider.GetInventory(context.Background(), filters)
	require.NoError(t, err)
	assert.Equal(t, []domain.InventoryRow{{Format: "HTML", Width: 300, Height: 250, Count: 2}}, inventory)

	availability, err := provider.GetAvailability(context.Background(), 7, filters)
	require.NoError(t, err)
	assert.Equal(t, domain.DataAvailability{TrafficRows: 3, TroubleshootRows: 2, CreativeRows: 3}, availability)
}

func TestFactProviderMissingTable(t *testing.T) {
	conn := newTestConn(t)
	seedFacts(t, conn)
	mustExec(t, conn, "DROP TABLE troubleshooting_data")
	provider := newTestFactProvider(conn)
	filters := domain.FactFilters{AccountID: "acc-1"}

	bids, err := provider.GetFilteredBids(context.Background(), 7, filters)
	require.NoError(t, err)
	assert.NotNil(t, bids)
	assert.Empty(t, bids)

	availability, err := provider.GetAvailability(context.Background(), 7, filters)
	require.NoError(t, err)
	assert.Equal(t, int64(0), availability.TroubleshootRows)
	assert.Equal(t, int64(3), availability.TrafficRows)
}
