package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vfg2006/traffic-advisor-api/infrastructure/database"
	"github.com/vfg2006/traffic-advisor-api/infrastructure/migration"
	"github.com/vfg2006/traffic-advisor-api/internal/config"
	"github.com/vfg2006/traffic-advisor-api/pkg/log"
)

var testNow = time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)

// newTestConn abre um sqlite em memória com o esquema completo aplicado
func newTestConn(t *testing.T) database.Conn {
	t.Helper()
	log.SetupTestLogger()

	ctx := context.Background()
	conn, err := database.NewConnection(ctx, config.Database{Driver: database.DriverSQLite, DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.NoError(t, migration.Apply(ctx, conn))
	return conn
}

func mustExec(t *testing.T, conn database.Conn, query string, args ...interface{}) {
	t.Helper()
	_, err := conn.Exec(context.Background(), query, args...)
	require.NoError(t, err)
}
