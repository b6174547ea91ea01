// Command simulator runs the fleet without the HTTP API and pushes every snapshot to the
// configured sinks (MQTT, Redis, MongoDB, webhook).
package main

import (
	"context"
	"math"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/ukydev/metro-telemetry/internal/app"
	"github.com/ukydev/metro-telemetry/internal/config"
	"github.com/ukydev/metro-telemetry/internal/models"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		log.WithError(err).Warn("Failed to load .env file")
	}
	cfg := config.Load()
	config.ConfigureLogging(cfg)
	if cfg.TickInterval <= 0 {
		log.Fatal("TICK_INTERVAL must be positive")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if cfg.SimDuration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.SimDuration)
		defer cancel()
	}

	if err := run(ctx, cfg); err != nil {
		log.WithError(err).Fatal("Simulation failed")
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	network, err := app.LoadNetwork(cfg.RoutesFile)
	if err != nil {
		return err
	}
	runner := app.NewRunner(network, cfg)

	mongoClient, err := app.ConnectMongo(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.DisconnectMongo(mongoClient)

	sinks, err := app.BuildSinks(ctx, cfg, mongoClient)
	if err != nil {
		return err
	}
	if len(sinks) == 0 {
		log.Warn("No sinks configured; snapshots are only logged")
	}
	waitDispatcher := app.StartDispatcher(ctx, runner, cfg, sinks)

	frames, unsubscribe := runner.Subscribe()
	reported := make(chan struct{})
	go func() {
		defer close(reported)
		reportLoop(frames, cfg.SimReportEvery)
	}()

	log.WithFields(log.Fields{
		"lines":    len(network.Lines),
		"vehicles": len(runner.Latest().Vehicles),
		"interval": cfg.TickInterval,
		"seed":     cfg.Seed,
		"duration": cfg.SimDuration,
	}).Info("Starting fleet simulation")

	runner.Run(ctx)

	unsubscribe()
	<-reported
	waitDispatcher()

	log.WithFields(summaryFields(runner.Latest())).Info("Simulation finished")
	return nil
}

// reportLoop logs a fleet summary every n-th snapshot until frames is closed.
func reportLoop(frames <-chan *models.FleetSnapshot, every int) {
	for snap := range frames {
		if every > 0 && snap.Sequence%uint64(every) == 0 {
			log.WithFields(summaryFields(snap)).Info("Fleet status")
		}
	}
}

func summaryFields(snap *models.FleetSnapshot) log.Fields {
	dwelling, braking := 0, 0
	var speed float64
	for _, v := range snap.Vehicles {
		if v.AtStation {
			dwelling++
		}
		if v.Telemetry.BrakingActive {
			braking++
		}
		speed += v.Telemetry.SpeedKmh
	}
	avg := 0.0
	if n := len(snap.Vehicles); n > 0 {
		avg = math.Round(speed/float64(n)*10) / 10
	}
	return log.Fields{
		"sequence":      snap.Sequence,
		"active":        snap.System.ActiveVehicles,
		"dwelling":      dwelling,
		"braking":       braking,
		"in_tunnel":     snap.System.VehiclesInTunnel,
		"avg_speed_kmh": avg,
		"energy_kwh":    snap.System.TotalEnergyKwh,
	}
}
