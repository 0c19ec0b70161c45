package cmd

import (
	"log"

	"inventory-sync/core/config"
	"inventory-sync/core/database"
	"inventory-sync/core/inventory"
	"inventory-sync/core/logger"
	"inventory-sync/core/oplog"

	devmodels "inventory-sync/feature/devices/models"
	"inventory-sync/feature/planning"
	"inventory-sync/feature/reconcile"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	Long:  `Runs the auto-migrations for every table the service owns.`,
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

		db, err := database.Connect(cfg.Database)
		if err != nil {
			logg.Fatal("Failed to connect to database", zap.Error(err))
		}

		err = db.AutoMigrate(
			&oplog.Entry{},
			&inventory.Device{},
			&inventory.Interface{},
			&inventory.IPAddress{},
			&inventory.Prefix{},
			&inventory.VLAN{},
			&devmodels.StagedDevice{},
			&devmodels.ImportedDevice{},
			&planning.Planning{},
			&planning.Snapshot{},
			&reconcile.StagedInterface{},
			&reconcile.StagedIPAddress{},
			&reconcile.StagedPrefix{},
			&reconcile.StagedVLAN{},
			&reconcile.Settings{},
			&reconcile.FieldMapping{},
		)
		if err != nil {
			logg.Fatal("Migration failed", zap.Error(err))
		}
		logg.Info("Migration completed")
	},
}

func init() {
	RootCmd.AddCommand(migrateCmd)
}
