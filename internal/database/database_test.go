package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"piggybank/internal/config"
)

func TestNewConfig(t *testing.T) {
	c, err := NewConfig(&config.Config{DBDriver: "postgres", DBHost: "db", DBPort: "5432", DBUser: "u", DBPassword: "p", DBName: "n", DBSSLMode: "disable"})
	require.NoError(t, err)
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=n sslmode=disable", c.DSN())
	assert.Equal(t, "postgres://u:p@db:5432/n?sslmode=disable", c.MigrateURL())

	_, err = NewConfig(&config.Config{DBDriver: "mysql"})
	assert.Error(t, err)
}

func TestSQLiteManager(t *testing.T) {
	path := filepath.Join(t.TempDir(), "piggybank.db")
	c, err := NewConfig(&config.Config{DBDriver: DriverSQLite, DBPath: path})
	require.NoError(t, err)

	m, err := NewManager(c)
	require.NoError(t, err)
	defer m.Close()

	require.NoError(t, m.RunMigrations())
	require.NoError(t, m.Ping(context.Background()))

	for _, table := range []string{"users", "accounts", "goals", "transactions", "purchase_requests", "interest_configs", "account_progress"} {
		assert.True(t, m.DB().Migrator().HasTable(table), table)
	}
}

func TestNewRedisDisabled(t *testing.T) {
	assert.Nil(t, NewRedis(&config.Config{}))
}
