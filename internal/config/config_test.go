package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "")
	t.Setenv("DATABASE_DSN", "")
	t.Setenv("REDIS_DB", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "helpdesk.db", cfg.Database.DSN)
	assert.Equal(t, 30*time.Second, cfg.App.RequestTimeout())
	assert.Equal(t, 2, cfg.Notification.Workers)
	assert.Equal(t, 3*time.Second, cfg.Notification.PushTimeout())
	assert.Equal(t, 25*time.Second, cfg.Notification.StreamHeartbeat())
}

func TestLoadRequiresDSNForServerDrivers(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "mysql")
	t.Setenv("DATABASE_DSN", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "oracle")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "POSTGRES")
	t.Setenv("DATABASE_DSN", "postgres://localhost/helpdesk")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("CLASSIFIER_MODEL_PATH", "models/ticket.json")
	t.Setenv("CLASSIFIER_TIMEOUT_SECONDS", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "models/ticket.json", cfg.Classifier.ModelPath)
	assert.Equal(t, 5*time.Second, cfg.Classifier.Timeout())
}
