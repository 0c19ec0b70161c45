package devices

import (
	"context"
	"fmt"
	"testing"

	"inventory-sync/core/appliance"
	"inventory-sync/core/oplog"
	"inventory-sync/feature/devices/models"
	"inventory-sync/feature/devices/sync"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// setupMockDB creates a mock GORM DB for testing.
func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to open mock sql db: %v", err)
	}

	dialector := mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open gorm db: %v", err)
	}

	return gormDB, mock
}

func TestListImported_QueriesNewestFirst(t *testing.T) {
	db, sqlMock := setupMockDB(t)
	logg := zap.NewNop()
	svc := NewService(db, logg, oplog.NewRecorder(nil, logg), sync.Options{})

	rows := sqlmock.NewRows([]string{"id", "slurpit_id", "hostname"}).
		AddRow(2, 101, "sw2").
		AddRow(1, 100, "sw1")
	// Relaxed matching; the LIMIT rendering differs across gorm versions.
	sqlMock.ExpectQuery("SELECT \\* FROM `imported_devices` ORDER BY id DESC").
		WillReturnRows(rows)

	imported, err := svc.ListImported(context.Background(), 10)

	require.NoError(t, err)
	require.Len(t, imported, 2)
	assert.Equal(t, "sw2", imported[0].Hostname)
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

func TestListImported_DefaultsLimit(t *testing.T) {
	db, sqlMock := setupMockDB(t)
	logg := zap.NewNop()
	svc := NewService(db, logg, oplog.NewRecorder(nil, logg), sync.Options{})

	sqlMock.ExpectQuery(".*").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := svc.ListImported(context.Background(), 0)
	assert.NoError(t, err)
}

func TestListAllImported_ReturnsEveryRow(t *testing.T) {
	_, db := setupTestApp(t)
	logg := zap.NewNop()
	svc := NewService(db, logg, oplog.NewRecorder(db, logg), sync.Options{})

	rows := make([]models.ImportedDevice, 0, 600)
	for i := 1; i <= 600; i++ {
		rows = append(rows, models.ImportedDevice{
			SlurpitID: int64(i),
			Hostname:  fmt.Sprintf("sw%d", i),
		})
	}
	require.NoError(t, db.CreateInBatches(rows, 256).Error)

	// The list view caps; the snapshot pull must not.
	capped, err := svc.ListImported(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, capped, 500)

	all, err := svc.ListAllImported(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 600)
}

func TestPushDevices_ValidationShortCircuits(t *testing.T) {
	db, sqlMock := setupMockDB(t)
	logg := zap.NewNop()
	svc := NewService(db, logg, oplog.NewRecorder(nil, logg), sync.Options{})

	// No queries expected: validation rejects before any store access.
	report, errs, err := svc.PushDevices(context.Background(), []appliance.RawDevice{
		{Hostname: "sw1"},
	})
	require.NoError(t, err)
	assert.Nil(t, report)
	assert.Contains(t, errs, "sw1")
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}
