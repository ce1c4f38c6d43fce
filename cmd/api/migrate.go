package main

import (
	"fmt"

	pkgerrors "github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/Tomlord1122/todo-server/internal/config"
	"github.com/Tomlord1122/todo-server/internal/database"
	"github.com/Tomlord1122/todo-server/internal/logging"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the users and todos tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		cfg, err := config.Load(v)
		if err != nil {
			return pkgerrors.Wrap(err, "load config")
		}
		if cfg.Store != config.StorePostgres {
			return fmt.Errorf("migrate requires STORE=%s, got %q", config.StorePostgres, cfg.Store)
		}
		log := logging.New(cfg.Log)

		dbService, err := database.New(cfg.Database, log)
		if err != nil {
			return pkgerrors.Wrap(err, "connect to database")
		}
		defer dbService.Close()

		db := dbService.GetDB()
		for _, model := range database.Models {
			log.WithField("table", tableName(db, model)).Info("migrating")
		}
		if dryRun {
			log.Info("Dry run, no changes made.")
			return nil
		}
		if err := database.Migrate(db); err != nil {
			return err
		}
		log.Info("Database auto-migration complete.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.Flags().Bool("dry-run", false, "list the tables to migrate without changing them")
}

func tableName(db *gorm.DB, model any) string {
	stmt := &gorm.Statement{DB: db}
	if err := stmt.Parse(model); err != nil {
		return fmt.Sprintf("%T", model)
	}
	return stmt.Schema.Table
}
