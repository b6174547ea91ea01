package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ukydev/metro-telemetry/internal/models"
)

// RedisConfig configures the Redis sink.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	StateTTL time.Duration
}

// RedisSink keeps a live view of the fleet in Redis: a hash per vehicle, a geo set per line,
// and a pub/sub channel carrying every snapshot.
type RedisSink struct {
	client *redis.Client
	ttl    time.Duration
}

const fleetChannel = "fleet:telemetry"

// NewRedisSink connects and pings the server.
func NewRedisSink(ctx context.Context, cfg RedisConfig) (*RedisSink, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     10,
		MinIdleConns: 2,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	ttl := cfg.StateTTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisSink{client: client, ttl: ttl}, nil
}

func (s *RedisSink) Name() string { return "redis" }

func (s *RedisSink) Publish(ctx context.Context, snap *models.FleetSnapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	pipe := s.client.Pipeline()
	for i := range snap.Vehicles {
		v := &snap.Vehicles[i]
		key := vehicleStateKey(v.ID)
		pipe.HSet(ctx, key, vehicleFields(v))
		pipe.Expire(ctx, key, s.ttl)
		pipe.GeoAdd(ctx, lineGeoKey(v.Line), &redis.GeoLocation{
			Name:      v.ID,
			Longitude: v.Position.Lng,
			Latitude:  v.Position.Lat,
		})
	}
	pipe.Publish(ctx, fleetChannel, payload)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis pipeline failed: %w", err)
	}
	return nil
}

func (s *RedisSink) Close() error {
	return s.client.Close()
}

func vehicleStateKey(id string) string { return fmt.Sprintf("vehicle:%s:state", id) }

func lineGeoKey(line string) string { return fmt.Sprintf("line:%s:geo", line) }

// vehicleFields flattens a vehicle status into hash fields.
func vehicleFields(v *models.VehicleStatus) map[string]interface{} {
	return map[string]interface{}{
		"vehicle_id":           v.ID,
		"line":                 v.Line,
		"lat":                  v.Position.Lat,
		"lng":                  v.Position.Lng,
		"heading":              v.Position.Heading,
		"current_station_id":   v.Position.CurrentStationID,
		"next_station_id":      v.Position.NextStationID,
		"speed_kmh":            v.Telemetry.SpeedKmh,
		"b_chop_status":        v.Telemetry.BrakingActive,
		"energy_recovered_kwh": v.Telemetry.EnergyRecoveredKwh,
		"regen_braking_temp":   v.Telemetry.BrakingTempC,
		"door_status":          v.Telemetry.DoorStatus,
		"is_in_tunnel":         v.InTunnel,
		"comms_mode":           v.CommsMode,
		"direction":            v.Direction,
		"eta_seconds":          v.ETASeconds,
		"timestamp":            v.Timestamp.Unix(),
	}
}
