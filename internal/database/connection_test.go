package database

import (
	"testing"

	"github.com/localnerve/voternet/internal/config"
	"github.com/localnerve/voternet/internal/logging"
	"github.com/localnerve/voternet/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDialectorNames(t *testing.T) {
	for _, dbType := range []string{"mysql", "mariadb", "postgres", "sqlite", "sqlite-pure", "sqlserver"} {
		d, err := Dialector(&config.Config{DBType: dbType, DBDatabase: "voternet"})
		require.NoError(t, err, dbType)
		assert.NotNil(t, d, dbType)
	}

	_, err := Dialector(&config.Config{DBType: "oracle"})
	assert.Error(t, err)
}

func TestConnectAndMigrateSQLite(t *testing.T) {
	cfg := &config.Config{DBType: "sqlite", DBDatabase: ":memory:", DBAppConnectionLimit: 4, LogLevel: "error"}

	db, err := Connect(cfg, logging.Discard())
	require.NoError(t, err)
	defer Close(db)

	require.NoError(t, AutoMigrate(db))
	for _, m := range models.All() {
		assert.True(t, db.Migrator().HasTable(m), "%T", m)
	}
}
