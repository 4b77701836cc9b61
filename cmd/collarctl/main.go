// Command collarctl is the SmartCollar operations CLI.
//
// Usage:
//
//	collarctl sweep
//	collarctl check bpm --uid u1 --pet p1 --value 180
//	collarctl check temperature --uid u1 --pet p1 --value 40.5
//	collarctl check location --uid u1 --pet p1 --lat 40.71 --lon -74.00
//	collarctl notify --uid u1 --pet p1 --title "Test" --body "Hello"
//	collarctl distance 40.71 -74.00 40.73 -73.99
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/kohizeri/smartcollar-api/internal/alert"
	"github.com/kohizeri/smartcollar-api/internal/cache"
	"github.com/kohizeri/smartcollar-api/internal/collar"
	"github.com/kohizeri/smartcollar-api/internal/config"
	"github.com/kohizeri/smartcollar-api/internal/db"
	"github.com/kohizeri/smartcollar-api/internal/geo"
	"github.com/kohizeri/smartcollar-api/internal/push"
	"github.com/kohizeri/smartcollar-api/internal/reminder"
	"github.com/kohizeri/smartcollar-api/internal/store/postgres"
)

var logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:   "collarctl",
		Short: "SmartCollar backend operations CLI",
	}

	root.AddCommand(sweepCmd())
	root.AddCommand(checkCmd())
	root.AddCommand(notifyCmd())
	root.AddCommand(distanceCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// deps bundles the wiring every command that touches the backends needs.
type deps struct {
	cfg        *config.Config
	store      *postgres.Store
	gate       *alert.RedisGate
	dispatcher *alert.Dispatcher
	evaluator  *alert.Evaluator
}

// run connects to Postgres and Redis, builds the alerting engine, and
// invokes fn. All connections are closed before returning.
func run(fn func(ctx context.Context, d *deps) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	pool, err := db.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}

	st := postgres.New(pool.Pool, cache.New(false))

	var sender push.Sender = &push.LogSender{Logger: logger}
	if fcm, err := push.NewFCMSender(ctx, cfg.FCMCredentialsFile, logger); err != nil {
		return fmt.Errorf("init fcm: %w", err)
	} else if fcm != nil {
		sender = fcm
	}

	gate := alert.NewRedisGate(rdb, cfg.Cooldown, logger)
	dispatcher := alert.NewDispatcher(st, sender, logger)

	return fn(ctx, &deps{
		cfg:        cfg,
		store:      st,
		gate:       gate,
		dispatcher: dispatcher,
		evaluator:  alert.NewEvaluator(st, gate, dispatcher, logger),
	})
}

// --------------------------------------------------------------------------
// sweep command
// --------------------------------------------------------------------------

func sweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Run one reminder sweep now",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context, d *deps) error {
				sched := reminder.New(d.store, d.dispatcher, d.cfg.ReminderSweepInterval, logger)
				start := time.Now()
				fired, err := sched.Sweep(ctx)
				if err != nil {
					return err
				}
				logger.Info("Sweep finished",
					"fired", fired, "duration", time.Since(start).Round(time.Millisecond))
				return nil
			})
		},
	}
}

// --------------------------------------------------------------------------
// check command
// --------------------------------------------------------------------------

func checkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run one telemetry evaluation",
	}
	cmd.AddCommand(checkMetricCmd("bpm", collar.MetricBPM))
	cmd.AddCommand(checkMetricCmd("temperature", collar.MetricTemperature))
	cmd.AddCommand(checkLocationCmd())
	return cmd
}

func checkMetricCmd(use, metric string) *cobra.Command {
	var uid, pet string
	var value float64
	cmd := &cobra.Command{
		Use:   use,
		Short: "Evaluate a " + use + " reading",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context, d *deps) error {
				d.evaluator.EvaluateMetric(ctx, uid, pet, metric, value)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&uid, "uid", "", "Owner uid")
	cmd.Flags().StringVar(&pet, "pet", "", "Pet id")
	cmd.Flags().Float64Var(&value, "value", 0, "Reading value")
	cmd.MarkFlagRequired("uid")
	cmd.MarkFlagRequired("pet")
	cmd.MarkFlagRequired("value")
	return cmd
}

func checkLocationCmd() *cobra.Command {
	var uid, pet string
	var lat, lon float64
	cmd := &cobra.Command{
		Use:   "location",
		Short: "Evaluate a GPS position against the pet's geofence",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context, d *deps) error {
				d.evaluator.EvaluateLocation(ctx, uid, pet, lat, lon)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&uid, "uid", "", "Owner uid")
	cmd.Flags().StringVar(&pet, "pet", "", "Pet id")
	cmd.Flags().Float64Var(&lat, "lat", 0, "Latitude")
	cmd.Flags().Float64Var(&lon, "lon", 0, "Longitude")
	cmd.MarkFlagRequired("uid")
	cmd.MarkFlagRequired("pet")
	cmd.MarkFlagRequired("lat")
	cmd.MarkFlagRequired("lon")
	return cmd
}

// --------------------------------------------------------------------------
// notify command
// --------------------------------------------------------------------------

func notifyCmd() *cobra.Command {
	var uid, pet, title, body string
	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Send a test notification through the full dispatch path",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context, d *deps) error {
				d.dispatcher.Dispatch(ctx, uid, title, body, "test", pet)
				logger.Info("Dispatch complete", "uid", uid, "pet", pet)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&uid, "uid", "", "Owner uid")
	cmd.Flags().StringVar(&pet, "pet", "", "Pet id")
	cmd.Flags().StringVar(&title, "title", "SmartCollar Test", "Notification title")
	cmd.Flags().StringVar(&body, "body", "Test notification", "Notification body")
	cmd.MarkFlagRequired("uid")
	return cmd
}

// --------------------------------------------------------------------------
// distance command
// --------------------------------------------------------------------------

func distanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "distance <lat1> <lon1> <lat2> <lon2>",
		Short: "Compute great-circle distance in meters",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			coords := make([]float64, 4)
			for i, raw := range args {
				v, err := strconv.ParseFloat(raw, 64)
				if err != nil {
					return fmt.Errorf("invalid coordinate %q: %w", raw, err)
				}
				coords[i] = v
			}
			d := geo.Distance(coords[0], coords[1], coords[2], coords[3])
			fmt.Printf("%.2f m\n", d)
			return nil
		},
	}
}
