package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"property-maintenance-backend/config"
	"property-maintenance-backend/internal/model"
)

func TestInit_SQLiteMigratesAllTables(t *testing.T) {
	cfg := &config.DatabaseConfig{Driver: "sqlite", DSN: "file:dbinit?mode=memory&cache=shared"}

	gormDB, err := Init(cfg, zap.NewNop())
	require.NoError(t, err)
	defer Close(gormDB)

	for _, m := range []any{&model.Property{}, &model.MaintenanceTask{}, &model.TaskComment{}, &model.PushSubscription{}} {
		assert.True(t, gormDB.Migrator().HasTable(m), "expected table for %T", m)
	}
	assert.True(t, gormDB.Migrator().HasTable("subscription_property_mapping"))
}

func TestInit_RejectsUnknownDriver(t *testing.T) {
	_, err := Init(&config.DatabaseConfig{Driver: "oracle", DSN: "x"}, zap.NewNop())
	assert.ErrorContains(t, err, "unsupported database driver")
}

func TestInit_RequiresDSN(t *testing.T) {
	_, err := Init(&config.DatabaseConfig{Driver: "sqlite"}, zap.NewNop())
	assert.Error(t, err)
}
