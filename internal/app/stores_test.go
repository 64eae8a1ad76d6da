package app

import (
	"context"
	"path/filepath"
	"testing"

	"resourceroom/internal/config"
	"resourceroom/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenStoresSQLite(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{
		DatabaseType: "sqlite",
		DatabasePath: filepath.Join(t.TempDir(), "app.db"),
		Timezone:     "UTC",
	}

	stores, err := OpenStores(ctx, cfg)
	require.NoError(t, err)
	defer stores.Close(ctx)

	assert.Equal(t, "sqlite", stores.Backend)
	assert.NoError(t, stores.Ping(ctx))

	teacher := &models.Teacher{Username: "jlee", Email: "jlee@school.test", PasswordHash: "x", FirstName: "J", LastName: "Lee", IsActive: true}
	require.NoError(t, stores.Teachers.Create(ctx, teacher))

	active, err := stores.Teachers.ListActive(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

func TestOpenStoresUnknownType(t *testing.T) {
	_, err := OpenStores(context.Background(), &config.Config{DatabaseType: "oracle"})
	assert.Error(t, err)
}

func TestOpenGoalCacheDisabled(t *testing.T) {
	c, err := OpenGoalCache(context.Background(), &config.Config{})
	assert.NoError(t, err)
	assert.Nil(t, c)
}
