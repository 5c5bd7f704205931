package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/seojinpark/dtSim/pkg/config"
)

func newTestGormDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&SimulationRunRecord{}))
	return db
}

func TestNewRepositories(t *testing.T) {
	db := newTestGormDB(t)

	repos := NewRepositories(db)
	require.NotNil(t, repos)
	assert.NotNil(t, repos.Run)
}

func TestRepositories_Close(t *testing.T) {
	db := newTestGormDB(t)
	repos := NewRepositories(db)

	err := repos.Close()
	assert.NoError(t, err)
}

func TestRepositories_DB(t *testing.T) {
	db := newTestGormDB(t)
	repos := NewRepositories(db)

	assert.NotNil(t, repos.DB())
}

func TestRepositories_GormDB(t *testing.T) {
	db := newTestGormDB(t)
	repos := NewRepositories(db)

	assert.Equal(t, db, repos.GormDB())
}

func TestNewGormDB_SQLiteInMemory(t *testing.T) {
	db, err := NewGormDB(&config.DatabaseConfig{Type: "sqlite", Database: ":memory:"})
	require.NoError(t, err)
	require.NotNil(t, db)

	var count int64
	require.NoError(t, db.Model(&SimulationRunRecord{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestNewGormDB_UnsupportedType(t *testing.T) {
	_, err := NewGormDB(&config.DatabaseConfig{Type: "oracle"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database type")
}
