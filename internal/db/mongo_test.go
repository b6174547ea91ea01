package db

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ukydev/metro-telemetry/internal/models"
)

// MockVehicleStateCollection is a mock implementation of VehicleStateCollection
type MockVehicleStateCollection struct {
	mock.Mock
}

func (m *MockVehicleStateCollection) UpsertVehicles(ctx context.Context, vehicles []models.VehicleStatus) error {
	args := m.Called(ctx, vehicles)
	return args.Error(0)
}

func TestConnectMongo_EmptyURI(t *testing.T) {
	client, err := ConnectMongo(context.Background(), "")
	assert.Error(t, err)
	assert.Nil(t, client)
}

func TestConnectMongo_BadURI(t *testing.T) {
	client, err := ConnectMongo(context.Background(), "mongodb://bad:uri")
	if err == nil {
		t.Error("expected error for bad URI, got nil")
	}
	if client != nil {
		t.Error("expected nil client on error")
	}
}

func TestMongoCollection_NilCollection(t *testing.T) {
	coll := &MongoCollection{Collection: nil}

	err := coll.UpsertVehicles(context.Background(), []models.VehicleStatus{{ID: "LINE1-001"}})
	assert.Error(t, err)
}

func TestSink_Publish(t *testing.T) {
	snap := &models.FleetSnapshot{Vehicles: []models.VehicleStatus{{ID: "LINE2-001"}, {ID: "LINE2-002"}}}
	coll := new(MockVehicleStateCollection)
	coll.On("UpsertVehicles", mock.Anything, snap.Vehicles).Return(nil).Once()

	sink := NewSink(coll)
	assert.Equal(t, "mongo", sink.Name())
	require.NoError(t, sink.Publish(context.Background(), snap))
	assert.NoError(t, sink.Close())
	coll.AssertExpectations(t)
}

func TestSink_PublishError(t *testing.T) {
	snap := &models.FleetSnapshot{}
	coll := new(MockVehicleStateCollection)
	coll.On("UpsertVehicles", mock.Anything, snap.Vehicles).Return(assert.AnError).Once()

	err := NewSink(coll).Publish(context.Background(), snap)
	assert.ErrorIs(t, err, assert.AnError)
}

// Integration test (requires running MongoDB)
func TestMongoCollection_Integration(t *testing.T) {
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set, skipping integration test")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := ConnectMongo(ctx, uri)
	if err != nil {
		t.Skipf("failed to connect: %v, skipping integration test", err)
	}
	defer client.Disconnect(context.Background())

	collection := client.Database("test_metro").Collection("vehicle_states")
	collection.Drop(ctx)
	coll := &MongoCollection{Collection: collection}

	status := models.VehicleStatus{ID: "LINE3-001", Line: "line3", Telemetry: models.Telemetry{SpeedKmh: 42}}
	require.NoError(t, coll.UpsertVehicles(ctx, []models.VehicleStatus{status}))
	status.Telemetry.SpeedKmh = 50
	require.NoError(t, coll.UpsertVehicles(ctx, []models.VehicleStatus{status}))

	var found models.VehicleStatus
	require.NoError(t, collection.FindOne(ctx, map[string]interface{}{"_id": "LINE3-001"}).Decode(&found))
	assert.Equal(t, 50.0, found.Telemetry.SpeedKmh)

	count, err := collection.CountDocuments(ctx, map[string]interface{}{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count, "latest state only, no history")
}

func TestSink_CloseLeavesConnectionToOwner(t *testing.T) {
	coll := new(MockVehicleStateCollection)
	sink := NewSink(coll)

	assert.NoError(t, sink.Close())
	assert.NoError(t, sink.Close(), "closing twice is harmless")
	coll.AssertNotCalled(t, "UpsertVehicles", mock.Anything, mock.Anything)
}
