package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"truckmates-route-service/internal/adapters/repositories"
	"truckmates-route-service/internal/config"
	"truckmates-route-service/internal/platform/db"
	"truckmates-route-service/internal/platform/obs"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfg      config.Config
	seedPath string
)

var rootCmd = &cobra.Command{
	Use:           "dbtool",
	Short:         "Schema and seed maintenance for the route database",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil {
			log.Println("No .env file found (using environment variables)")
		}

		var err error
		if cfg, err = config.Load(); err != nil {
			return err
		}
		_, err = obs.NewLogger(cfg.LogLevel)
		return err
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create tables and indexes",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(conn *sql.DB, _ db.Dialect) error {
			zap.L().Info("initializing database schema")
			if err := repositories.InitSchema(cmd.Context(), conn); err != nil {
				return fmt.Errorf("schema initialization failed: %w", err)
			}
			zap.L().Info("schema ready")
			return nil
		})
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the schema and load routes from a JSON seed file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := seedPath
		if path == "" {
			path = cfg.SeedPath
		}

		return withDB(func(conn *sql.DB, dialect db.Dialect) error {
			if err := repositories.InitSchema(cmd.Context(), conn); err != nil {
				return fmt.Errorf("schema initialization failed: %w", err)
			}

			zap.L().Info("seeding database", zap.String("path", path))
			if err := repositories.SeedFromJSON(cmd.Context(), conn, dialect, path); err != nil {
				return fmt.Errorf("seeding failed: %w", err)
			}
			zap.L().Info("seeding complete")
			return nil
		})
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedPath, "file", "", "seed file (defaults to SEED_PATH)")
	rootCmd.AddCommand(initCmd, seedCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func withDB(fn func(*sql.DB, db.Dialect) error) error {
	conn, dialect, err := db.Connect(cfg.DBDriver, cfg.DatabaseURL, cfg.DBPath)
	if err != nil {
		return err
	}
	defer conn.Close()

	return fn(conn, dialect)
}
