package cmd

import (
	"context"
	"log"

	"inventory-sync/core/appliance"
	"inventory-sync/core/config"
	"inventory-sync/core/database"
	"inventory-sync/core/logger"
	"inventory-sync/core/oplog"
	"inventory-sync/core/storage"

	"inventory-sync/feature/devices"
	devsync "inventory-sync/feature/devices/sync"
	"inventory-sync/feature/planning"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var syncSkipSnapshots bool

// syncCmd represents the sync command
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one full pull sync against the appliance",
	Long: `Fetches the device roster and planning definitions from the discovery
appliance, reconciles them into the local inventory, and pulls snapshot
content for every selected planning.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.LoadConfig(".")
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}

		logg, err := logger.New(&cfg.Log)
		if err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
		defer logg.Sync()

		if !cfg.Appliance.Configured() {
			logg.Fatal("Appliance URL is not configured")
		}

		db, err := database.Connect(cfg.Database)
		if err != nil {
			logg.Fatal("Failed to connect to database", zap.Error(err))
		}

		rec := oplog.NewRecorder(db, logg)
		client := appliance.NewClient(cfg.Appliance)

		var store storage.Client
		if cfg.Storage.Configured() {
			if store, err = storage.NewClient(cfg.Storage); err != nil {
				logg.Fatal("Failed to create storage client", zap.Error(err))
			}
		}

		ctx := cmd.Context()

		devSvc := devices.NewService(db, logg, rec, devsync.Options{
			UnattendedImport: cfg.Sync.UnattendedImport,
		})
		report, err := devSvc.Orchestrator().Run(ctx, client)
		if err != nil {
			logg.Fatal("Device sync failed", zap.Error(err))
		}
		if report == nil {
			logg.Warn("Device sync aborted, appliance unreachable")
			return
		}
		logg.Info("Device sync completed",
			zap.Int("parted", report.Parted),
			zap.Int("changed", report.Changed),
			zap.Int("created", report.Created),
			zap.Int("conflicts", report.Conflicts),
		)

		planSvc := planning.NewService(db, logg, rec, store, cfg.Storage.Bucket, cfg.Sync.ArchiveSnapshots)
		rawPlannings, err := client.GetPlannings(ctx)
		if err != nil {
			logg.Fatal("Planning fetch failed", zap.Error(err))
		}
		planReport, err := planSvc.SyncPlannings(ctx, rawPlannings, true)
		if err != nil {
			logg.Fatal("Planning sync failed", zap.Error(err))
		}
		logg.Info("Planning sync completed",
			zap.Int("created", planReport.Created),
			zap.Int("updated", planReport.Updated),
			zap.Int("deleted", planReport.Deleted),
		)

		if syncSkipSnapshots {
			return
		}
		if err := pullSnapshots(ctx, logg, client, devSvc, planSvc); err != nil {
			logg.Fatal("Snapshot pull failed", zap.Error(err))
		}
	},
}

// pullSnapshots fetches snapshot content for every selected, enabled
// planning across the imported device set. Individual fetch failures are
// logged and skipped; one unreachable device must not starve the rest.
func pullSnapshots(ctx context.Context, logg *zap.Logger, client *appliance.Client, devSvc *devices.Service, planSvc *planning.Service) error {
	plannings, err := planSvc.List(ctx)
	if err != nil {
		return err
	}
	imported, err := devSvc.ListAllImported(ctx)
	if err != nil {
		return err
	}

	pulled := 0
	for _, p := range plannings {
		if !p.Selected || p.Disabled {
			continue
		}
		for _, dev := range imported {
			results, err := client.GetSnapshot(ctx, dev.Hostname, p.ExternalID)
			if err != nil {
				logg.Warn("Snapshot fetch failed",
					zap.String("hostname", dev.Hostname),
					zap.Int64("planning_id", p.ExternalID),
					zap.Error(err),
				)
				continue
			}
			snaps := make([]planning.Snapshot, 0, len(results))
			for resultType, res := range results {
				snaps = append(snaps, planning.Snapshot{
					Hostname:   dev.Hostname,
					PlanningID: p.ExternalID,
					ResultType: resultType,
					Content:    string(res.Data),
				})
			}
			n, err := planSvc.UpsertSnapshots(ctx, snaps)
			if err != nil {
				return err
			}
			pulled += n
		}
	}
	logg.Info("Snapshot pull completed", zap.Int("stored", pulled))
	return nil
}

func init() {
	syncCmd.Flags().BoolVar(&syncSkipSnapshots, "skip-snapshots", false, "skip pulling snapshot content")
	RootCmd.AddCommand(syncCmd)
}
