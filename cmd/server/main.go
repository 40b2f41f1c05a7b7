package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	"truckmates-route-service/internal/adapters/cache"
	"truckmates-route-service/internal/adapters/distance"
	"truckmates-route-service/internal/adapters/repositories"
	"truckmates-route-service/internal/api"
	"truckmates-route-service/internal/config"
	"truckmates-route-service/internal/platform/db"
	"truckmates-route-service/internal/platform/obs"
	"truckmates-route-service/internal/ports"
	"truckmates-route-service/internal/services"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfg    config.Config
	logger *zap.Logger

	portFlag string
	seedFlag bool
)

var rootCmd = &cobra.Command{
	Use:           "server",
	Short:         "TruckMates route sequencing service",
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
		if logger, err = obs.NewLogger(cfg.LogLevel); err != nil {
			return err
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&portFlag, "port", "", "listen port (overrides PORT)")
	serveCmd.Flags().BoolVar(&seedFlag, "seed", false, "create the schema and load SEED_PATH before serving")
	rootCmd.AddCommand(serveCmd)
}

// main is the application composition root.
func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if portFlag != "" {
		cfg.Port = portFlag
	}
	if cfg.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}

	conn, dialect, err := db.Connect(cfg.DBDriver, cfg.DatabaseURL, cfg.DBPath)
	if err != nil {
		return err
	}
	defer conn.Close()

	// Local SQLite runs always get a schema; seeding is opt-in.
	if dialect == db.SQLite || seedFlag {
		if err := repositories.InitSchema(ctx, conn); err != nil {
			return err
		}
	}
	if seedFlag {
		if err := repositories.SeedFromJSON(ctx, conn, dialect, cfg.SeedPath); err != nil {
			return err
		}
	}

	distanceCache, closeCache, err := newDistanceCache(ctx, conn, dialect)
	if err != nil {
		return err
	}
	defer closeCache()

	var (
		client   *distance.ORSClient
		geocoder ports.Geocoder = distance.UnavailableGeocoder{}
	)
	if cfg.ORS.APIKey != "" {
		client, err = distance.NewORSClient(cfg.ORS.APIKey, distance.ORSOptions{
			BaseURL:     cfg.ORS.BaseURL,
			Profile:     cfg.ORS.Profile,
			MaxAttempts: cfg.ORS.MaxAttempts,
		})
		if err != nil {
			return err
		}
		geocoder = distance.NewORSGeocoder(client, cache.NewSQLGeocodeCache(conn, dialect))
	} else {
		logger.Warn("ORS_API_KEY not set; distances fall back to great-circle and placeholder estimates")
	}

	estimator := distance.NewDefaultChain(distance.ChainOptions{
		Client:           client,
		Cache:            distanceCache,
		SpeedMPH:         cfg.Routing.AverageSpeedMPH,
		PlaceholderMiles: cfg.Routing.PlaceholderMiles,
	})

	router := api.NewRouter(api.Deps{
		Repo:      repositories.NewSQLRouteRepository(conn, dialect),
		Sequencer: services.NewSequencer(geocoder, estimator, cfg.Routing.LookupParallelism),
		Geocoder:  geocoder,
		Estimator: estimator,
		JWTSecret: cfg.JWTSecret,
	})

	// Write timeout covers cold-cache sequencing with external lookups.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening",
			zap.String("addr", srv.Addr),
			zap.String("db", dialect.String()),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newDistanceCache prefers Redis when REDIS_URL is set and falls back to the
// distance_cache table otherwise.
func newDistanceCache(ctx context.Context, conn *sql.DB, dialect db.Dialect) (ports.DistanceCache, func(), error) {
	if cfg.RedisURL == "" {
		return cache.NewSQLDistanceCache(conn, dialect), func() {}, nil
	}

	rdb, err := cache.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	return cache.NewRedisDistanceCache(rdb, cfg.Routing.DistanceCacheTTL), func() { _ = rdb.Close() }, nil
}
