package sync

import (
	"context"
	"testing"
	"time"

	"inventory-sync/core/appliance"
	"inventory-sync/core/inventory"
	"inventory-sync/core/oplog"
	"inventory-sync/feature/devices/models"

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
	require.NoError(t, db.AutoMigrate(
		&oplog.Entry{},
		&inventory.Device{},
		&inventory.Interface{},
		&inventory.IPAddress{},
		&models.StagedDevice{},
		&models.ImportedDevice{},
	))
	return db
}

func newTestOrchestrator(t *testing.T, opts Options) (*Orchestrator, *gorm.DB) {
	db := newTestDB(t)
	logg := zap.NewNop()
	rec := oplog.NewRecorder(db, logg)
	return NewOrchestrator(db, logg, rec, opts), db
}

func rawDevice(id int64, hostname, changed string) appliance.RawDevice {
	return appliance.RawDevice{
		ID:          appliance.FlexID(id),
		Hostname:    hostname,
		FQDN:        hostname + ".example.net",
		DeviceOS:    "ios",
		DeviceType:  "C9300",
		Brand:       "Cisco",
		IPv4:        "10.0.0.1",
		CreatedDate: "2024-01-01 00:00:00",
		ChangedDate: changed,
	}
}

func stageAndProcess(t *testing.T, o *Orchestrator, raws []appliance.RawDevice) *Report {
	ctx := context.Background()
	require.NoError(t, o.StartImport(ctx))
	_, err := o.ImportDevices(ctx, raws)
	require.NoError(t, err)
	report, err := o.ProcessImport(ctx, true)
	require.NoError(t, err)
	return report
}

func TestProcessImport_CreatesNewDevices(t *testing.T) {
	o, db := newTestOrchestrator(t, Options{})

	report := stageAndProcess(t, o, []appliance.RawDevice{
		rawDevice(100, "sw1", "2024-01-02 00:00:00"),
		rawDevice(101, "sw2", "2024-01-02 00:00:00"),
	})

	assert.Equal(t, 2, report.Created)
	assert.Zero(t, report.Conflicts)

	var count int64
	db.Model(&models.ImportedDevice{}).Count(&count)
	assert.EqualValues(t, 2, count)

	// Without unattended import nothing is onboarded.
	db.Model(&inventory.Device{}).Count(&count)
	assert.Zero(t, count)
}

func TestProcessImport_SecondRunIsNoop(t *testing.T) {
	o, _ := newTestOrchestrator(t, Options{})
	raws := []appliance.RawDevice{rawDevice(100, "sw1", "2024-01-02 00:00:00")}

	first := stageAndProcess(t, o, raws)
	assert.Equal(t, 1, first.Created)

	second := stageAndProcess(t, o, raws)
	assert.Zero(t, second.Created)
	assert.Zero(t, second.Changed)
	assert.Zero(t, second.Parted)
}

func TestProcessImport_ChangeRequiresNewerTimestamp(t *testing.T) {
	o, db := newTestOrchestrator(t, Options{})
	stageAndProcess(t, o, []appliance.RawDevice{rawDevice(100, "sw1", "2024-01-02 00:00:00")})

	// Same changed_at, different payload: not applied.
	stale := rawDevice(100, "sw1", "2024-01-02 00:00:00")
	stale.DeviceOS = "nxos"
	report := stageAndProcess(t, o, []appliance.RawDevice{stale})
	assert.Zero(t, report.Changed)

	// Strictly newer changed_at: applied.
	fresh := rawDevice(100, "sw1", "2024-01-03 00:00:00")
	fresh.DeviceOS = "nxos"
	report = stageAndProcess(t, o, []appliance.RawDevice{fresh})
	assert.Equal(t, 1, report.Changed)

	var imp models.ImportedDevice
	require.NoError(t, db.Where("slurpit_id = ?", 100).First(&imp).Error)
	assert.Equal(t, "nxos", imp.DeviceOS)
}

func TestProcessImport_EmptyFieldsNeverClobber(t *testing.T) {
	o, db := newTestOrchestrator(t, Options{})
	stageAndProcess(t, o, []appliance.RawDevice{rawDevice(100, "sw1", "2024-01-02 00:00:00")})

	fresh := rawDevice(100, "sw1", "2024-01-03 00:00:00")
	fresh.FQDN = ""
	fresh.Brand = ""
	report := stageAndProcess(t, o, []appliance.RawDevice{fresh})
	assert.Equal(t, 1, report.Changed)

	var imp models.ImportedDevice
	require.NoError(t, db.Where("slurpit_id = ?", 100).First(&imp).Error)
	assert.Equal(t, "sw1.example.net", imp.FQDN)
	assert.Equal(t, "Cisco", imp.Brand)
}

func TestProcessImport_PartedUnmappedIsDeleted(t *testing.T) {
	o, db := newTestOrchestrator(t, Options{})
	stageAndProcess(t, o, []appliance.RawDevice{
		rawDevice(100, "sw1", "2024-01-02 00:00:00"),
		rawDevice(101, "sw2", "2024-01-02 00:00:00"),
	})

	report := stageAndProcess(t, o, []appliance.RawDevice{
		rawDevice(100, "sw1", "2024-01-02 00:00:00"),
	})

	assert.Equal(t, 1, report.Parted)
	var count int64
	db.Model(&models.ImportedDevice{}).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestProcessImport_PartedMappedIsDecommissionedNotDeleted(t *testing.T) {
	o, db := newTestOrchestrator(t, Options{UnattendedImport: true})
	stageAndProcess(t, o, []appliance.RawDevice{rawDevice(100, "sw1", "2024-01-02 00:00:00")})

	var dev inventory.Device
	require.NoError(t, db.Where("name = ?", "sw1").First(&dev).Error)
	assert.Equal(t, inventory.StatusActive, dev.Status)

	report := stageAndProcess(t, o, nil)

	assert.Equal(t, 1, report.Decommissioned)
	assert.Zero(t, report.Parted)

	// The imported row and the inventory device both survive.
	var count int64
	db.Model(&models.ImportedDevice{}).Count(&count)
	assert.EqualValues(t, 1, count)
	require.NoError(t, db.Where("name = ?", "sw1").First(&dev).Error)
	assert.Equal(t, inventory.StatusDecommissioning, dev.Status)
}

func TestProcessImport_UnattendedOnboardsManagement(t *testing.T) {
	o, db := newTestOrchestrator(t, Options{UnattendedImport: true})
	stageAndProcess(t, o, []appliance.RawDevice{rawDevice(100, "sw1", "2024-01-02 00:00:00")})

	var dev inventory.Device
	require.NoError(t, db.Where("name = ?", "sw1").First(&dev).Error)
	assert.Equal(t, "10.0.0.1", dev.PrimaryIP4)
	assert.Equal(t, "C9300", dev.ModelName)

	var iface inventory.Interface
	require.NoError(t, db.Where("device_id = ? AND name = ?", dev.ID, ManagementInterfaceName).First(&iface).Error)

	var addr inventory.IPAddress
	require.NoError(t, db.Where("address = ?", "10.0.0.1").First(&addr).Error)
	require.NotNil(t, addr.InterfaceID)
	assert.Equal(t, iface.ID, *addr.InterfaceID)
}

func TestProcessImport_HostnameCollisionFlagsConflict(t *testing.T) {
	o, db := newTestOrchestrator(t, Options{})

	// An inventory device with the same name that no imported row owns.
	require.NoError(t, db.Create(&inventory.Device{Name: "sw1", Status: inventory.StatusActive}).Error)

	report := stageAndProcess(t, o, []appliance.RawDevice{rawDevice(100, "sw1", "2024-01-02 00:00:00")})

	assert.Equal(t, 1, report.Conflicts)
	var imp models.ImportedDevice
	require.NoError(t, db.Where("slurpit_id = ?", 100).First(&imp).Error)
	assert.True(t, imp.Conflict)
	assert.Nil(t, imp.MappedDeviceID)
}

func TestProcessImport_RenameOntoTakenNameFlagsConflict(t *testing.T) {
	o, db := newTestOrchestrator(t, Options{UnattendedImport: true})
	stageAndProcess(t, o, []appliance.RawDevice{rawDevice(100, "sw1", "2024-01-02 00:00:00")})

	// An unmanaged inventory device already holds the rename target.
	require.NoError(t, db.Create(&inventory.Device{Name: "clash", Status: inventory.StatusActive}).Error)

	renamed := rawDevice(100, "clash", "2024-01-03 00:00:00")
	report := stageAndProcess(t, o, []appliance.RawDevice{renamed})

	assert.Equal(t, 1, report.Changed)
	assert.Equal(t, 1, report.Conflicts)

	// The mapped device keeps its name instead of failing the unique index.
	var imp models.ImportedDevice
	require.NoError(t, db.Where("slurpit_id = ?", 100).First(&imp).Error)
	assert.True(t, imp.Conflict)
	require.NotNil(t, imp.MappedDeviceID)

	var dev inventory.Device
	require.NoError(t, db.First(&dev, *imp.MappedDeviceID).Error)
	assert.Equal(t, "sw1", dev.Name)
}

func TestProcessImport_DuplicateHostnameInBatchSkipsSecondID(t *testing.T) {
	o, _ := newTestOrchestrator(t, Options{})

	report := stageAndProcess(t, o, []appliance.RawDevice{
		rawDevice(100, "sw1", "2024-01-02 00:00:00"),
		rawDevice(200, "sw1", "2024-01-02 00:00:00"),
	})

	assert.Equal(t, 1, report.Created)
	assert.Equal(t, 1, report.Skipped)
}

func TestStage_DropsInvalidRecordsKeepsRest(t *testing.T) {
	o, _ := newTestOrchestrator(t, Options{})
	ctx := context.Background()
	require.NoError(t, o.StartImport(ctx))

	noType := rawDevice(101, "sw2", "2024-01-02 00:00:00")
	noType.DeviceType = ""
	badDate := rawDevice(102, "sw3", "not a date")

	n, err := o.ImportDevices(ctx, []appliance.RawDevice{
		rawDevice(100, "sw1", "2024-01-02 00:00:00"),
		noType,
		badDate,
	})

	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestStage_DuplicateApplianceIDLastWins(t *testing.T) {
	o, db := newTestOrchestrator(t, Options{})
	ctx := context.Background()
	require.NoError(t, o.StartImport(ctx))

	first := rawDevice(100, "sw1", "2024-01-02 00:00:00")
	second := rawDevice(100, "sw1", "2024-01-02 00:00:00")
	second.DeviceOS = "nxos"

	n, err := o.ImportDevices(ctx, []appliance.RawDevice{first, second})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	var st models.StagedDevice
	require.NoError(t, db.Where("slurpit_id = ?", 100).First(&st).Error)
	assert.Equal(t, "nxos", st.DeviceOS)
}

func TestValidateDevices(t *testing.T) {
	raws := []appliance.RawDevice{
		rawDevice(100, "sw1", "2024-01-02 00:00:00"),
		{Hostname: "sw2", DeviceType: "C9300", CreatedDate: "2024-01-01 00:00:00", ChangedDate: "2024-01-02 00:00:00"},
		{Hostname: "", ID: 1},
		rawDevice(103, "sw4", "yesterday"),
	}

	errs := ValidateDevices(raws)

	assert.Len(t, errs, 3)
	assert.Contains(t, errs["sw2"], "id is required")
	assert.Contains(t, errs["record 2"], "hostname is required")
	assert.Contains(t, errs["sw4"], "changeddate")
}

func TestSyncDevices_PushCreatesAndUpdates(t *testing.T) {
	o, db := newTestOrchestrator(t, Options{})
	ctx := context.Background()

	report, err := o.SyncDevices(ctx, []appliance.RawDevice{rawDevice(100, "sw1", "2024-01-02 00:00:00")})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Created)

	// Same batch again: idempotent.
	report, err = o.SyncDevices(ctx, []appliance.RawDevice{rawDevice(100, "sw1", "2024-01-02 00:00:00")})
	require.NoError(t, err)
	assert.Zero(t, report.Created)
	assert.Zero(t, report.Changed)

	// Newer change is applied.
	fresh := rawDevice(100, "sw1", "2024-01-03 00:00:00")
	fresh.IPv4 = "10.0.0.2"
	report, err = o.SyncDevices(ctx, []appliance.RawDevice{fresh})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Changed)

	var imp models.ImportedDevice
	require.NoError(t, db.Where("slurpit_id = ?", 100).First(&imp).Error)
	assert.Equal(t, "10.0.0.2", imp.IPv4)
	assert.Equal(t, time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), imp.DeviceChangedAt.UTC())
}

func TestSyncDevices_PushNeverTouchesStaging(t *testing.T) {
	o, db := newTestOrchestrator(t, Options{})
	ctx := context.Background()
	require.NoError(t, o.StartImport(ctx))
	_, err := o.ImportDevices(ctx, []appliance.RawDevice{rawDevice(1, "other", "2024-01-02 00:00:00")})
	require.NoError(t, err)

	_, err = o.SyncDevices(ctx, []appliance.RawDevice{rawDevice(100, "sw1", "2024-01-02 00:00:00")})
	require.NoError(t, err)

	var count int64
	db.Model(&models.StagedDevice{}).Count(&count)
	assert.EqualValues(t, 1, count)
}
