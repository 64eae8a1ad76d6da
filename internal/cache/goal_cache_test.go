package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"resourceroom/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGoalKey(t *testing.T) {
	assert.Equal(t, "goals:t-1:2024-03-11", GoalKey("t-1", "2024-03-11"))
}

func TestEntryKeysArePerVersion(t *testing.T) {
	assert.Equal(t, "goals:t-1:2024-03-11:v0", entryKey("t-1", "2024-03-11", 0))
	assert.Equal(t, "goals:t-1:2024-03-11:v7", entryKey("t-1", "2024-03-11", 7))
	assert.Equal(t, "goals:t-1:2024-03-11:version", versionKey("t-1", "2024-03-11"))
}

func TestNewGoalCacheWithClient_DefaultTTL(t *testing.T) {
	c := NewGoalCacheWithClient(nil, 0)
	assert.Equal(t, DefaultTTL, c.ttl)
}

func TestGoalCache_Redis(t *testing.T) {
	url := os.Getenv("REDIS_TEST_URL")
	if url == "" {
		t.Skip("REDIS_TEST_URL not set")
	}

	ctx := context.Background()
	c, err := NewGoalCache(ctx, url, time.Minute)
	require.NoError(t, err)
	defer c.Close()

	teacherID := uuid.NewString()
	week := "2024-03-11"
	defer c.client.Del(ctx, versionKey(teacherID, week))

	v0, err := c.Version(ctx, teacherID, week)
	require.NoError(t, err)
	assert.Equal(t, int64(0), v0)

	_, err = c.Get(ctx, teacherID, week, v0)
	assert.ErrorIs(t, err, ErrCacheMiss)

	goals := []models.WeeklyGoal{{TeacherID: teacherID, Group: "math", Topic: "Sums", Goal: "10", Icon: "🔢"}}
	require.NoError(t, c.Set(ctx, teacherID, week, v0, goals))

	got, err := c.Get(ctx, teacherID, week, v0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Sums", got[0].Topic)

	require.NoError(t, c.Invalidate(ctx, teacherID, week))
	v1, err := c.Version(ctx, teacherID, week)
	require.NoError(t, err)
	assert.Equal(t, v0+1, v1)
	_, err = c.Get(ctx, teacherID, week, v1)
	assert.ErrorIs(t, err, ErrCacheMiss)

	// a fill that started before the invalidation lands on the old generation
	require.NoError(t, c.Set(ctx, teacherID, week, v0, []models.WeeklyGoal{{Topic: "stale"}}))
	_, err = c.Get(ctx, teacherID, week, v1)
	assert.ErrorIs(t, err, ErrCacheMiss)
}
