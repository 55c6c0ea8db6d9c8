package pgstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSelectByIDsSQL(t *testing.T) {
	t.Parallel()

	t.Run("quotes identifiers", func(t *testing.T) {
		t.Parallel()

		sql := selectByIDsSQL("posts", "id")
		require.Equal(t, `SELECT * FROM "posts" WHERE "id" = ANY($1)`, sql)
	})

	t.Run("escapes embedded quotes", func(t *testing.T) {
		t.Parallel()

		sql := selectByIDsSQL(`po"sts`, "id")
		require.Equal(t, `SELECT * FROM "po""sts" WHERE "id" = ANY($1)`, sql)
	})
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig("postgres://localhost/app")
	require.Equal(t, "postgres://localhost/app", cfg.ConnectionString)
	require.Equal(t, time.Minute, cfg.HealthCheckPeriod)
	require.Equal(t, 10*time.Minute, cfg.MaxConnIdleTime)
	require.Equal(t, 30*time.Minute, cfg.MaxConnLifetime)
	require.Equal(t, 3, cfg.RetryAttempts)
	require.Equal(t, 5*time.Second, cfg.RetryInterval)
	require.Equal(t, int32(10), cfg.MaxOpenConns)
	require.Equal(t, int32(5), cfg.MinConns)
}
