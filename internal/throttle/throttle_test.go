package throttle

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Attempt{}))
	return db
}

func TestLimiterBlocksAfterMax(t *testing.T) {
	l := NewLimiter(openTestDB(t), 3, 10*time.Minute)
	ctx := context.Background()

	require.NoError(t, l.Allow(ctx, "1.2.3.4"))
	for i := 0; i < 3; i++ {
		require.NoError(t, l.Hit(ctx, "1.2.3.4"))
	}
	assert.ErrorIs(t, l.Allow(ctx, "1.2.3.4"), ErrThrottled)

	// другой ключ не задет
	assert.NoError(t, l.Allow(ctx, "5.6.7.8"))

	// ниже лимита — пропускаем
	require.NoError(t, l.Reset(ctx, "1.2.3.4"))
	require.NoError(t, l.Hit(ctx, "1.2.3.4"))
	assert.NoError(t, l.Allow(ctx, "1.2.3.4"))
}

func TestLimiterWindowExpires(t *testing.T) {
	l := NewLimiter(openTestDB(t), 2, 10*time.Minute)
	ctx := context.Background()

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	require.NoError(t, l.Hit(ctx, "k"))
	require.NoError(t, l.Hit(ctx, "k"))
	assert.ErrorIs(t, l.Allow(ctx, "k"), ErrThrottled)

	// окно истекло — счётчик сбрасывается
	now = now.Add(11 * time.Minute)
	assert.NoError(t, l.Allow(ctx, "k"))
	assert.NoError(t, l.Allow(ctx, "k"))
}

func TestHitUpsertsCounter(t *testing.T) {
	db := openTestDB(t)
	l := NewLimiter(db, 5, time.Minute)
	ctx := context.Background()

	require.NoError(t, l.Hit(ctx, "k"))
	require.NoError(t, l.Hit(ctx, "k"))
	require.NoError(t, l.Hit(ctx, "k"))

	var a Attempt
	require.NoError(t, db.First(&a, "key = ?", "k").Error)
	assert.Equal(t, 3, a.Count)
}
