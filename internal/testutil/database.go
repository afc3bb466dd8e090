package testutil

import (
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

// SetupMockDB returns a sqlmock-backed *sql.DB that is closed when the test ends.
func SetupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err, "failed to create mock db")

	t.Cleanup(func() {
		db.Close()
	})

	return db, mock
}

type TestRedis struct {
	Client *goredis.Client
	Server *miniredis.Miniredis
}

// SetupTestRedis starts an in-process redis and a client pointed at it.
func SetupTestRedis(t *testing.T) *TestRedis {
	t.Helper()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})

	t.Cleanup(func() {
		client.Close()
	})

	return &TestRedis{Client: client, Server: mr}
}
