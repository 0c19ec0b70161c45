package planning

import (
	"context"
	"testing"

	"inventory-sync/core/oplog"
	"inventory-sync/core/storage/mocks"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestUpsertSnapshots_ArchivesToStorage(t *testing.T) {
	_, db := newTestService(t)
	mockClient := new(mocks.Client)
	logg := zap.NewNop()
	svc := NewService(db, logg, oplog.NewRecorder(db, logg), mockClient, "snapshots", true)

	mockClient.On("PutObject",
		mock.Anything, "snapshots", "snapshots/sw1/1/planning_result.json",
		mock.Anything, mock.Anything, mock.Anything,
	).Return(minio.UploadInfo{}, nil).Once()

	_, err := svc.UpsertSnapshots(context.Background(), []Snapshot{
		{Hostname: "sw1", PlanningID: 1, ResultType: ResultTypePlanning, Content: `{"v":1}`},
	})

	require.NoError(t, err)
	mockClient.AssertExpectations(t)
}

func TestUpsertSnapshots_ArchiveFailureIsBestEffort(t *testing.T) {
	_, db := newTestService(t)
	mockClient := new(mocks.Client)
	logg := zap.NewNop()
	svc := NewService(db, logg, oplog.NewRecorder(db, logg), mockClient, "snapshots", true)

	mockClient.On("PutObject", mock.Anything, "snapshots", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(minio.UploadInfo{}, assert.AnError)

	n, err := svc.UpsertSnapshots(context.Background(), []Snapshot{
		{Hostname: "sw1", PlanningID: 1, ResultType: ResultTypePlanning, Content: `{}`},
	})

	// The row is stored even when the archive write fails.
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestNewService_ArchiveRequiresClient(t *testing.T) {
	_, db := newTestService(t)
	logg := zap.NewNop()

	svc := NewService(db, logg, oplog.NewRecorder(db, logg), nil, "snapshots", true)
	assert.False(t, svc.archive)
}
