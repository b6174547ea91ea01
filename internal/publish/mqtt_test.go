package publish

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ukydev/metro-telemetry/internal/models"
)

type doneToken struct {
	err  error
	done chan struct{}
}

func newDoneToken(err error) *doneToken {
	t := &doneToken{err: err, done: make(chan struct{})}
	close(t.done)
	return t
}

func (t *doneToken) Wait() bool                     { return true }
func (t *doneToken) WaitTimeout(time.Duration) bool { return true }
func (t *doneToken) Done() <-chan struct{}          { return t.done }
func (t *doneToken) Error() error                   { return t.err }

type recordingClient struct {
	mu           sync.Mutex
	topics       []string
	payloads     [][]byte
	failOn       string
	disconnected bool
}

func (c *recordingClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.topics = append(c.topics, topic)
	c.payloads = append(c.payloads, payload.([]byte))
	if topic == c.failOn {
		return newDoneToken(errors.New("not authorized"))
	}
	return newDoneToken(nil)
}

func (c *recordingClient) Disconnect(uint) { c.disconnected = true }

func snapshotWithTwoVehicles() *models.FleetSnapshot {
	return &models.FleetSnapshot{
		Sequence: 4,
		Vehicles: []models.VehicleStatus{
			{ID: "LINE1-001", Line: "line1"},
			{ID: "LINE1-002", Line: "line1"},
		},
	}
}

func TestMQTTSink_Publish(t *testing.T) {
	client := &recordingClient{}
	sink := newMQTTSink(client, "metro/")

	require.NoError(t, sink.Publish(context.Background(), snapshotWithTwoVehicles()))

	assert.Equal(t, []string{
		"metro/fleet",
		"metro/vehicles/LINE1-001",
		"metro/vehicles/LINE1-002",
	}, client.topics)

	var fleet map[string]interface{}
	require.NoError(t, json.Unmarshal(client.payloads[0], &fleet))
	assert.Equal(t, float64(4), fleet["sequence"])

	var vehicle models.VehicleStatus
	require.NoError(t, json.Unmarshal(client.payloads[2], &vehicle))
	assert.Equal(t, "LINE1-002", vehicle.ID)
}

func TestMQTTSink_PublishError(t *testing.T) {
	client := &recordingClient{failOn: "metro/vehicles/LINE1-001"}
	sink := newMQTTSink(client, "metro")

	err := sink.Publish(context.Background(), snapshotWithTwoVehicles())
	assert.ErrorContains(t, err, "not authorized")
	assert.Len(t, client.topics, 2)
}

func TestMQTTSink_Close(t *testing.T) {
	client := &recordingClient{}
	sink := newMQTTSink(client, "metro")

	assert.Equal(t, "mqtt", sink.Name())
	assert.NoError(t, sink.Close())
	assert.True(t, client.disconnected)
}
