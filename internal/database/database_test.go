package database

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"gorm.io/gorm/logger"

	"github.com/Tomlord1122/todo-server/internal/config"
)

func TestGormLogLevel(t *testing.T) {
	tests := []struct {
		level logrus.Level
		want  logger.LogLevel
	}{
		{logrus.TraceLevel, logger.Info},
		{logrus.DebugLevel, logger.Info},
		{logrus.InfoLevel, logger.Warn},
		{logrus.WarnLevel, logger.Warn},
		{logrus.ErrorLevel, logger.Error},
	}
	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, gormLogLevel(tt.level))
		})
	}
}

func TestMemoryService(t *testing.T) {
	svc := NewMemory()
	assert.Equal(t, "up", svc.Health()["status"])
	assert.Nil(t, svc.GetDB())
	assert.NoError(t, svc.Close())
}

func TestPostgresService(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping Postgres container test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	ctr, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("todos"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	host, err := ctr.Host(ctx)
	require.NoError(t, err)
	port, err := ctr.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	log := logrus.New()
	log.SetOutput(io.Discard)
	svc, err := New(config.Database{
		Host:            host,
		Port:            port.Int(),
		Username:        "postgres",
		Password:        "postgres",
		Name:            "todos",
		Schema:          "public",
		SSLMode:         "disable",
		MaxOpenConns:    5,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Minute,
	}, log)
	require.NoError(t, err)

	require.NoError(t, Migrate(svc.GetDB()))
	for _, model := range Models {
		assert.True(t, svc.GetDB().Migrator().HasTable(model))
	}

	health := svc.Health()
	assert.Equal(t, "up", health["status"])
	assert.Equal(t, "It's healthy", health["message"])

	require.NoError(t, svc.Close())
	assert.Equal(t, "down", svc.Health()["status"])
}

func TestOpenUnreachable(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)
	_, err := Open("host=127.0.0.1 port=1 user=x dbname=x sslmode=disable connect_timeout=1", log)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ping database")
}
