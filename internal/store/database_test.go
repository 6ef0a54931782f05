//go:build database

package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// exerciseBackend runs the ledger lifecycle against a live database.
func exerciseBackend(t *testing.T, backend Backend, conn string) {
	t.Helper()
	ctx := context.Background()

	s, err := Open(ctx, backend, conn)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	require.NoError(t, s.SaveResponse(ctx, studyResponse("2024-01-10", 120)))
	got, err := s.ResponseByDate(ctx, "2024-01-10")
	require.NoError(t, err)
	assert.Equal(t, 120.0, got.Number("study_duration"))

	total, err := s.RecordDay(ctx, "2024-01-10", details(15, 10), time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 25, total)

	n, err := s.SeedRewards(ctx, []Reward{coffee})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.ErrorIs(t, s.AddReward(ctx, coffee), ErrDuplicate)

	_, remaining, err := s.Redeem(ctx, coffee, time.Date(2024, 1, 10, 22, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 5, remaining)
	_, _, err = s.Redeem(ctx, coffee, time.Time{})
	assert.ErrorIs(t, err, ErrInsufficientPoints)

	entries, err := s.PointsHistory(ctx, "")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, 5, entries[1].Balance)

	res, err := s.Rollback(ctx, "2024-01-10")
	require.NoError(t, err)
	assert.Equal(t, 25, res.PointsRemoved)
	assert.Equal(t, -20, res.Total)

	st, err := s.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, st.Redemptions)
}

func TestStoreWithMySQL(t *testing.T) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "mysql:8",
		ExposedPorts: []string{"3306/tcp"},
		Env: map[string]string{
			"MYSQL_ROOT_PASSWORD": "secret123",
			"MYSQL_DATABASE":      "studydiary",
		},
		WaitingFor: wait.ForLog("port: 3306  MySQL Community Server").WithStartupTimeout(60 * time.Second),
	}
	mysqlC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() { _ = mysqlC.Terminate(ctx) }()

	host, err := mysqlC.Host(ctx)
	require.NoError(t, err)
	port, err := mysqlC.MappedPort(ctx, "3306")
	require.NoError(t, err)

	conn := fmt.Sprintf("root:secret123@tcp(%s:%s)/studydiary?multiStatements=true", host, port.Port())
	exerciseBackend(t, MySQL, conn)
}

func TestStoreWithPostgres(t *testing.T) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:18-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_HOST_AUTH_METHOD": "trust",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).WithStartupTimeout(60 * time.Second),
	}
	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() { _ = pgC.Terminate(ctx) }()

	host, err := pgC.Host(ctx)
	require.NoError(t, err)
	port, err := pgC.MappedPort(ctx, "5432")
	require.NoError(t, err)

	conn := fmt.Sprintf("host=%s port=%s user=postgres dbname=postgres", host, port.Port())
	exerciseBackend(t, PostgreSQL, conn)
}
