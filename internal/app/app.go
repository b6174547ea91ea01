// Package app assembles the simulation, its push sinks and its operator store from
// configuration. Both binaries start through it.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ukydev/metro-telemetry/internal/auth"
	"github.com/ukydev/metro-telemetry/internal/config"
	"github.com/ukydev/metro-telemetry/internal/db"
	"github.com/ukydev/metro-telemetry/internal/models"
	"github.com/ukydev/metro-telemetry/internal/publish"
	"github.com/ukydev/metro-telemetry/internal/sim"
	"github.com/ukydev/metro-telemetry/internal/topology"
)

const operatorCollection = "operators"

// LoadNetwork reads the route file, or the embedded network when path is empty.
func LoadNetwork(path string) (topology.Network, error) {
	if path == "" {
		return topology.Default(), nil
	}
	network, err := topology.LoadFile(path)
	if err != nil {
		return topology.Network{}, err
	}
	log.WithFields(log.Fields{
		"file":  path,
		"lines": len(network.Lines),
	}).Info("Loaded route network")
	return network, nil
}

// NewRunner builds the fleet on the system clock and wraps it in a runner.
func NewRunner(network topology.Network, cfg *config.Config) *sim.Runner {
	fleet := sim.NewFleetEngine(network.Lines, network.Physics, sim.SystemClock{}, sim.WithSeed(cfg.Seed))
	return sim.NewRunner(fleet, cfg.TickInterval)
}

// ConnectMongo connects when MONGO_URI is set and returns nil otherwise.
func ConnectMongo(ctx context.Context, cfg *config.Config) (*mongo.Client, error) {
	if cfg.MongoURI == "" {
		return nil, nil
	}
	client, err := db.ConnectMongo(ctx, cfg.MongoURI)
	if err != nil {
		return nil, err
	}
	log.WithField("database", cfg.MongoDB).Info("Connected to MongoDB")
	return client, nil
}

// DisconnectMongo closes client, if any, logging rather than returning a failure.
func DisconnectMongo(client *mongo.Client) {
	if client == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Disconnect(ctx); err != nil {
		log.WithError(err).Warn("MongoDB disconnect failed")
	}
}

// BuildSinks creates every sink the configuration enables. The caller owns
// mongoClient; the mongo sink does not disconnect it.
func BuildSinks(ctx context.Context, cfg *config.Config, mongoClient *mongo.Client) ([]publish.Sink, error) {
	var sinks []publish.Sink
	fail := func(err error) ([]publish.Sink, error) {
		for _, s := range sinks {
			s.Close()
		}
		return nil, err
	}

	if cfg.MQTTBrokerURL != "" {
		s, err := publish.NewMQTTSink(publish.MQTTConfig{
			BrokerURL:   cfg.MQTTBrokerURL,
			ClientID:    cfg.MQTTClientID,
			TopicPrefix: cfg.MQTTTopicPrefix,
			Username:    cfg.MQTTUsername,
			Password:    cfg.MQTTPassword,
		})
		if err != nil {
			return fail(err)
		}
		sinks = append(sinks, s)
	}

	if cfg.RedisAddr != "" {
		s, err := publish.NewRedisSink(ctx, publish.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			StateTTL: 30 * cfg.TickInterval,
		})
		if err != nil {
			return fail(err)
		}
		sinks = append(sinks, s)
	}

	if mongoClient != nil {
		coll := mongoClient.Database(cfg.MongoDB).Collection(cfg.MongoCollection)
		sinks = append(sinks, db.NewSink(&db.MongoCollection{Collection: coll}))
	}

	if cfg.WebhookURL != "" {
		sinks = append(sinks, publish.NewWebhookSink(cfg.WebhookURL, cfg.WebhookToken))
	}

	return sinks, nil
}

// StartDispatcher subscribes a dispatcher to the runner. The returned func blocks until
// the dispatcher has drained and closed its sinks, which happens once ctx is done.
func StartDispatcher(ctx context.Context, runner *sim.Runner, cfg *config.Config, sinks []publish.Sink) func() {
	if len(sinks) == 0 {
		return func() {}
	}

	names := make([]string, 0, len(sinks))
	for _, s := range sinks {
		names = append(names, s.Name())
	}
	log.WithField("sinks", names).Info("Publishing snapshots")

	dispatcher := publish.NewDispatcher(cfg.SinkQueueSize, cfg.SinkTimeout, sinks...)
	frames, unsubscribe := runner.Subscribe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		dispatcher.Run(ctx, frames)
	}()
	return func() {
		<-done
		unsubscribe()
	}
}

// Operators returns the account store used for token requests. With MongoDB configured
// accounts live in the operators collection and the configured operator is upserted into
// it; otherwise the configured operator is the only account.
func Operators(ctx context.Context, cfg *config.Config, authService *auth.Service, mongoClient *mongo.Client) (db.OperatorCollection, error) {
	boot, err := bootstrapOperator(cfg, authService)
	if err != nil {
		return nil, err
	}

	if mongoClient == nil {
		if boot == nil {
			return nil, errors.New("no operator account configured")
		}
		return db.NewMemoryOperatorCollection(*boot), nil
	}

	ops := &db.MongoOperatorCollection{Collection: mongoClient.Database(cfg.MongoDB).Collection(operatorCollection)}
	if boot != nil {
		if err := ops.UpsertOperator(ctx, *boot); err != nil {
			return nil, fmt.Errorf("seed operator %s: %w", boot.Username, err)
		}
		log.WithField("username", boot.Username).Info("Operator account seeded")
	}
	return ops, nil
}

func bootstrapOperator(cfg *config.Config, authService *auth.Service) (*models.Operator, error) {
	if cfg.OperatorUsername == "" {
		return nil, nil
	}
	hash := cfg.OperatorPasswordHash
	if hash == "" {
		if cfg.OperatorPassword == "" {
			return nil, errors.New("OPERATOR_PASSWORD or OPERATOR_PASSWORD_HASH is required")
		}
		var err error
		if hash, err = authService.HashPassword(cfg.OperatorPassword); err != nil {
			return nil, err
		}
	}
	return &models.Operator{
		Username:     cfg.OperatorUsername,
		PasswordHash: hash,
		Role:         models.RoleOperator,
		IsActive:     true,
		UpdatedAt:    time.Now().UTC(),
	}, nil
}
