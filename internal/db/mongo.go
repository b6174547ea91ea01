package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ukydev/metro-telemetry/internal/models"
)

var errNilCollection = errors.New("mongo collection is nil")

// ConnectMongo connects to MongoDB and verifies the connection with a ping.
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	if uri == "" {
		return nil, errors.New("mongo uri is empty")
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo.Connect error: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	// Ping to verify connection
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo.Ping error: %w", err)
	}
	return client, nil
}

// MongoCollection wraps a MongoDB collection holding one document per vehicle.
type MongoCollection struct {
	Collection *mongo.Collection
}

// UpsertVehicles replaces each vehicle's document with its latest status.
func (c *MongoCollection) UpsertVehicles(ctx context.Context, vehicles []models.VehicleStatus) error {
	if c.Collection == nil {
		return errNilCollection
	}
	if len(vehicles) == 0 {
		return nil
	}
	writes := make([]mongo.WriteModel, 0, len(vehicles))
	for _, v := range vehicles {
		writes = append(writes, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": v.ID}).
			SetReplacement(v).
			SetUpsert(true))
	}
	_, err := c.Collection.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false))
	return err
}

// Sink mirrors every snapshot into a VehicleStateCollection.
type Sink struct {
	vehicles VehicleStateCollection
}

// NewSink creates a sink. The mongo client is owned by the caller, which disconnects it.
func NewSink(vehicles VehicleStateCollection) *Sink {
	return &Sink{vehicles: vehicles}
}

func (s *Sink) Name() string { return "mongo" }

func (s *Sink) Publish(ctx context.Context, snap *models.FleetSnapshot) error {
	if err := s.vehicles.UpsertVehicles(ctx, snap.Vehicles); err != nil {
		return fmt.Errorf("upsert vehicle states: %w", err)
	}
	return nil
}

func (s *Sink) Close() error { return nil }
