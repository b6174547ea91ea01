package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"

	"github.com/ukydev/metro-telemetry/internal/models"
)

// mqttClient is the subset of mqtt.Client the sink uses.
type mqttClient interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// MQTTConfig configures the MQTT sink.
type MQTTConfig struct {
	BrokerURL   string
	ClientID    string
	TopicPrefix string
	Username    string
	Password    string
}

// MQTTSink publishes the fleet snapshot to <prefix>/fleet and each vehicle to
// <prefix>/vehicles/<id>, QoS 0, not retained.
type MQTTSink struct {
	client mqttClient
	prefix string
}

// NewMQTTSink connects to the broker.
func NewMQTTSink(cfg MQTTConfig) (*MQTTSink, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.BrokerURL).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectTimeout(10 * time.Second).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			log.WithError(err).Warn("MQTT connection lost")
		})
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username).SetPassword(cfg.Password)
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(15 * time.Second) {
		return nil, fmt.Errorf("connect to mqtt broker %s: timed out", cfg.BrokerURL)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to mqtt broker %s: %w", cfg.BrokerURL, err)
	}

	log.WithFields(log.Fields{
		"broker": cfg.BrokerURL,
		"prefix": cfg.TopicPrefix,
	}).Info("Connected to MQTT broker")
	return newMQTTSink(client, cfg.TopicPrefix), nil
}

func newMQTTSink(client mqttClient, prefix string) *MQTTSink {
	return &MQTTSink{client: client, prefix: strings.TrimSuffix(prefix, "/")}
}

func (s *MQTTSink) Name() string { return "mqtt" }

func (s *MQTTSink) Publish(ctx context.Context, snap *models.FleetSnapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal fleet snapshot: %w", err)
	}
	if err := s.send(ctx, s.prefix+"/fleet", payload); err != nil {
		return err
	}

	for i := range snap.Vehicles {
		v := &snap.Vehicles[i]
		payload, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshal vehicle %s: %w", v.ID, err)
		}
		if err := s.send(ctx, s.prefix+"/vehicles/"+v.ID, payload); err != nil {
			return err
		}
	}
	return nil
}

func (s *MQTTSink) send(ctx context.Context, topic string, payload []byte) error {
	token := s.client.Publish(topic, 0, false, payload)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return fmt.Errorf("publish %s: %w", topic, ctx.Err())
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

func (s *MQTTSink) Close() error {
	s.client.Disconnect(250)
	return nil
}
