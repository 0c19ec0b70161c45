package oplog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Entry{}))
	return db
}

func TestRecorder_RecordAndRecent(t *testing.T) {
	rec := NewRecorder(newTestDB(t), zap.NewNop())

	rec.Info("device-sync", "first")
	rec.Warning("device-sync", "second")
	rec.Success("planning-sync", "third")

	entries, err := rec.Recent(10)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	// Newest first.
	assert.Equal(t, "third", entries[0].Message)
	assert.Equal(t, LevelSuccess, entries[0].Level)
	assert.Equal(t, "first", entries[2].Message)
	assert.Equal(t, LevelInfo, entries[2].Level)
}

func TestRecorder_RecentHonorsLimit(t *testing.T) {
	rec := NewRecorder(newTestDB(t), zap.NewNop())
	for i := 0; i < 5; i++ {
		rec.Info("test", "entry")
	}

	entries, err := rec.Recent(2)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestRecorder_NilDBDegradesToZapOnly(t *testing.T) {
	rec := NewRecorder(nil, zap.NewNop())

	// Must not panic.
	rec.Failure("device-sync", "boom")

	entries, err := rec.Recent(10)
	assert.NoError(t, err)
	assert.Nil(t, entries)
}
