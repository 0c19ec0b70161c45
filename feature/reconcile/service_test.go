package reconcile

import (
	"context"
	"testing"

	"inventory-sync/core/diff"
	"inventory-sync/core/inventory"
	"inventory-sync/core/oplog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&oplog.Entry{},
		&inventory.Device{},
		&inventory.Interface{},
		&inventory.IPAddress{},
		&inventory.Prefix{},
		&inventory.VLAN{},
		&StagedInterface{},
		&StagedIPAddress{},
		&StagedPrefix{},
		&StagedVLAN{},
		&Settings{},
		&FieldMapping{},
	))

	logg := zap.NewNop()
	return NewService(db, logg, oplog.NewRecorder(db, logg)), db
}

func enableReconcile(t *testing.T, svc *Service, kind Kind, ignored string) {
	require.NoError(t, svc.SaveSettings(context.Background(), Settings{
		Kind:             string(kind),
		ReconcileEnabled: true,
		IgnoredFields:    ignored,
	}))
}

func TestIngest_ValidationRejectsWholeBatch(t *testing.T) {
	svc, db := newTestService(t)

	_, err := svc.Ingest(context.Background(), KindIPAddress, []diff.Record{
		{"address": "10.0.0.1/24", "status": "active"},
		{"status": "active"}, // missing address
	})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Errors, "record 1")

	// All-or-nothing: the valid record must not land either.
	var count int64
	db.Model(&inventory.IPAddress{}).Count(&count)
	assert.Zero(t, count)
}

func TestIngest_DirectModeCreatesAndUpdates(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	report, err := svc.Ingest(ctx, KindIPAddress, []diff.Record{
		{"address": "10.0.0.1/24", "status": "active", "dns_name": "gw.example.net"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Created)

	// Second push with one changed field and one empty field.
	report, err = svc.Ingest(ctx, KindIPAddress, []diff.Record{
		{"address": "10.0.0.1/24", "status": "reserved", "dns_name": ""},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Updated)

	var ip inventory.IPAddress
	require.NoError(t, db.Where("address = ?", "10.0.0.1/24").First(&ip).Error)
	assert.Equal(t, "reserved", ip.Status)
	// Empty candidate value must not clobber.
	assert.Equal(t, "gw.example.net", ip.DNSName)
}

func TestIngest_IdenticalPushIsNoop(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	rec := diff.Record{"address": "10.0.0.1/24", "status": "active"}

	_, err := svc.Ingest(ctx, KindIPAddress, []diff.Record{rec})
	require.NoError(t, err)

	report, err := svc.Ingest(ctx, KindIPAddress, []diff.Record{rec})
	require.NoError(t, err)
	assert.Zero(t, report.Created)
	assert.Zero(t, report.Updated)
	assert.Equal(t, 1, report.Noop)
}

func TestIngest_DuplicateKeysLastWins(t *testing.T) {
	svc, db := newTestService(t)

	report, err := svc.Ingest(context.Background(), KindIPAddress, []diff.Record{
		{"address": "10.0.0.1/24", "status": "active"},
		{"address": "10.0.0.1/24", "status": "deprecated"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Created)

	var ip inventory.IPAddress
	require.NoError(t, db.Where("address = ?", "10.0.0.1/24").First(&ip).Error)
	assert.Equal(t, "deprecated", ip.Status)
}

func TestIngest_VRFIsPartOfTheKey(t *testing.T) {
	svc, db := newTestService(t)

	report, err := svc.Ingest(context.Background(), KindIPAddress, []diff.Record{
		{"address": "10.0.0.1/24", "status": "active"},
		{"address": "10.0.0.1/24", "vrf": "mgmt", "status": "active"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Created)

	var count int64
	db.Model(&inventory.IPAddress{}).Count(&count)
	assert.EqualValues(t, 2, count)
}

func TestIngest_IgnoredFieldsAreNotApplied(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	_, err := svc.Ingest(ctx, KindPrefix, []diff.Record{
		{"prefix": "10.0.0.0/24", "status": "active", "site": "dc1"},
	})
	require.NoError(t, err)

	require.NoError(t, svc.SaveSettings(ctx, Settings{Kind: string(KindPrefix), IgnoredFields: "site"}))

	report, err := svc.Ingest(ctx, KindPrefix, []diff.Record{
		{"prefix": "10.0.0.0/24", "status": "active", "site": "dc2"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Noop)

	var p inventory.Prefix
	require.NoError(t, db.Where("prefix = ?", "10.0.0.0/24").First(&p).Error)
	assert.Equal(t, "dc1", p.Site)
}

func TestIngest_InterfaceWithoutDeviceIsSkipped(t *testing.T) {
	svc, db := newTestService(t)
	require.NoError(t, db.Create(&inventory.Device{Name: "sw1", Status: inventory.StatusActive}).Error)

	report, err := svc.Ingest(context.Background(), KindInterface, []diff.Record{
		{"hostname": "sw1", "name": "eth0", "type": "1000base-t"},
		{"hostname": "ghost", "name": "eth0", "type": "1000base-t"},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Created)
	assert.Equal(t, 1, report.Skipped)
	assert.Contains(t, report.Errors, "ghost/eth0")

	var count int64
	db.Model(&inventory.Interface{}).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestIngest_InterfaceKeyIsPerDevice(t *testing.T) {
	svc, db := newTestService(t)
	require.NoError(t, db.Create(&inventory.Device{Name: "sw1"}).Error)
	require.NoError(t, db.Create(&inventory.Device{Name: "sw2"}).Error)

	report, err := svc.Ingest(context.Background(), KindInterface, []diff.Record{
		{"hostname": "sw1", "name": "eth0"},
		{"hostname": "sw2", "name": "eth0"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Created)
}

func TestIngest_VLANFallbackToVIDOnlyWhenNameEmpty(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	_, err := svc.Ingest(ctx, KindVLAN, []diff.Record{
		{"vid": 10, "name": "users", "group": "campus", "status": "active"},
	})
	require.NoError(t, err)

	// Nameless candidate with the same vid and group matches the existing row.
	report, err := svc.Ingest(ctx, KindVLAN, []diff.Record{
		{"vid": 10, "name": "", "group": "campus", "status": "deprecated"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Updated)

	var vlan inventory.VLAN
	require.NoError(t, db.Where("vid = ?", 10).First(&vlan).Error)
	assert.Equal(t, "deprecated", vlan.Status)
	assert.Equal(t, "users", vlan.Name)

	// A named candidate that shares the vid but not the name is a new VLAN,
	// not an update of the existing one.
	report, err = svc.Ingest(ctx, KindVLAN, []diff.Record{
		{"vid": 10, "name": "guests", "group": "branch", "status": "active"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Created)
}

func TestIngest_ReconcileModeStagesInsteadOfWriting(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	enableReconcile(t, svc, KindPrefix, "")

	report, err := svc.Ingest(ctx, KindPrefix, []diff.Record{
		{"prefix": "10.0.0.0/24", "status": "active"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Staged)
	assert.Zero(t, report.Created)

	var count int64
	db.Model(&inventory.Prefix{}).Count(&count)
	assert.Zero(t, count)
	db.Model(&StagedPrefix{}).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestApply_MovesStagedIntoInventory(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	enableReconcile(t, svc, KindPrefix, "")

	_, err := svc.Ingest(ctx, KindPrefix, []diff.Record{
		{"prefix": "10.0.0.0/24", "status": "active"},
		{"prefix": "10.0.1.0/24", "status": "active"},
	})
	require.NoError(t, err)

	report, err := svc.Apply(ctx, KindPrefix, nil, true)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Created)

	var count int64
	db.Model(&inventory.Prefix{}).Count(&count)
	assert.EqualValues(t, 2, count)
	db.Model(&StagedPrefix{}).Count(&count)
	assert.Zero(t, count)
}

func TestApply_SelectedIDsOnly(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	enableReconcile(t, svc, KindPrefix, "")

	_, err := svc.Ingest(ctx, KindPrefix, []diff.Record{
		{"prefix": "10.0.0.0/24", "status": "active"},
		{"prefix": "10.0.1.0/24", "status": "active"},
	})
	require.NoError(t, err)

	staged, err := svc.ListStaged(ctx, KindPrefix)
	require.NoError(t, err)
	require.Len(t, staged, 2)

	report, err := svc.Apply(ctx, KindPrefix, []uint{staged[0].ID}, false)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Created)

	remaining, err := svc.ListStaged(ctx, KindPrefix)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, staged[1].ID, remaining[0].ID)
}

func TestApply_SkippedRowsStayStaged(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	enableReconcile(t, svc, KindInterface, "")

	_, err := svc.Ingest(ctx, KindInterface, []diff.Record{
		{"hostname": "ghost", "name": "eth0"},
	})
	require.NoError(t, err)

	report, err := svc.Apply(ctx, KindInterface, nil, true)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Skipped)

	var count int64
	db.Model(&StagedInterface{}).Count(&count)
	assert.EqualValues(t, 1, count)
	db.Model(&inventory.Interface{}).Count(&count)
	assert.Zero(t, count)
}

func TestApply_AbsentSpeedSurvivesStaging(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	enableReconcile(t, svc, KindInterface, "")

	dev := inventory.Device{Name: "sw1", Status: inventory.StatusActive}
	require.NoError(t, db.Create(&dev).Error)
	require.NoError(t, db.Create(&inventory.Interface{DeviceID: dev.ID, Name: "eth0", Speed: 1000}).Error)

	// No speed in the candidate: absent, not zero.
	_, err := svc.Ingest(ctx, KindInterface, []diff.Record{
		{"hostname": "sw1", "name": "eth0", "description": "uplink"},
	})
	require.NoError(t, err)

	report, err := svc.Apply(ctx, KindInterface, nil, true)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Updated)

	var iface inventory.Interface
	require.NoError(t, db.Where("device_id = ? AND name = ?", dev.ID, "eth0").First(&iface).Error)
	assert.Equal(t, int64(1000), iface.Speed)
	assert.Equal(t, "uplink", iface.Description)
}

func TestDecline_DiscardsWithoutWriting(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	enableReconcile(t, svc, KindVLAN, "")

	_, err := svc.Ingest(ctx, KindVLAN, []diff.Record{
		{"vid": 10, "name": "users", "group": "campus"},
	})
	require.NoError(t, err)

	declined, err := svc.Decline(ctx, KindVLAN, nil, true)
	require.NoError(t, err)
	assert.Equal(t, 1, declined)

	var count int64
	db.Model(&StagedVLAN{}).Count(&count)
	assert.Zero(t, count)
	db.Model(&inventory.VLAN{}).Count(&count)
	assert.Zero(t, count)
}

func TestGetSettings_DefaultsWhenUnconfigured(t *testing.T) {
	svc, _ := newTestService(t)

	settings, err := svc.GetSettings(context.Background(), KindPrefix)
	require.NoError(t, err)
	assert.False(t, settings.ReconcileEnabled)
	assert.Empty(t, settings.IgnoredSet())
}

func TestSettings_IgnoredSetParsing(t *testing.T) {
	s := Settings{IgnoredFields: "site, role ,,description"}
	set := s.IgnoredSet()
	assert.Equal(t, map[string]bool{"site": true, "role": true, "description": true}, set)
}

func TestSaveMapping_UpsertsByKindAndSource(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.SaveMapping(ctx, FieldMapping{Kind: "prefix", SourceField: "vlan", TargetField: "vlan_group"}))
	require.NoError(t, svc.SaveMapping(ctx, FieldMapping{Kind: "prefix", SourceField: "vlan", TargetField: "vlan"}))

	rows, err := svc.ListMappings(ctx, KindPrefix)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "vlan", rows[0].TargetField)
}

func TestSaveMapping_RequiresFields(t *testing.T) {
	svc, _ := newTestService(t)

	err := svc.SaveMapping(context.Background(), FieldMapping{Kind: "prefix"})
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}
