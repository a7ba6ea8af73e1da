package main

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// MQTTPublisher handles publishing computed link results to MQTT
type MQTTPublisher struct {
	client mqtt.Client
	config *MQTTConfig
}

// LinkResultMessage represents a computed link budget for MQTT publishing
type LinkResultMessage struct {
	Transmitter         string    `json:"transmitter"`
	Receiver            string    `json:"receiver"`
	FreeSpacePathLossDB string    `json:"free_space_path_loss_db"`
	ITWOMPathLossDB     string    `json:"itwom_path_loss_db"`
	FieldStrengthDBuVm  string    `json:"field_strength_dbuv_m"`
	JobID               string    `json:"job_id,omitempty"`
	Timestamp           time.Time `json:"timestamp"`
}

// generateClientID creates a random MQTT client ID
func generateClientID() string {
	bytes := make([]byte, 8)
	rand.Read(bytes)
	return "splatlink_" + hex.EncodeToString(bytes)
}

// NewMQTTPublisher creates a new MQTT publisher and connects to the broker
func NewMQTTPublisher(config *MQTTConfig) (*MQTTPublisher, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(config.Broker)
	opts.SetClientID(generateClientID())

	if config.Username != "" {
		opts.SetUsername(config.Username)
	}
	if config.Password != "" {
		opts.SetPassword(config.Password)
	}

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(10 * time.Second)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)

	opts.SetOnConnectHandler(func(client mqtt.Client) {
		log.Println("MQTT: Connected to broker")
	})
	opts.SetConnectionLostHandler(func(client mqtt.Client, err error) {
		log.Printf("MQTT: Connection lost: %v", err)
	})
	opts.SetReconnectingHandler(func(client mqtt.Client, opts *mqtt.ClientOptions) {
		log.Println("MQTT: Attempting to reconnect...")
	})

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	log.Printf("MQTT: Successfully connected to broker: %s", config.Broker)

	return &MQTTPublisher{
		client: client,
		config: config,
	}, nil
}

// PublishLinkResult publishes a computed link budget to MQTT
// Topic structure: {prefix}/links/{transmitter}/{receiver}
func (mp *MQTTPublisher) PublishLinkResult(outcome LinkOutcome, jobID string) error {
	if mp == nil || !mp.client.IsConnected() {
		return fmt.Errorf("MQTT not connected")
	}

	msg := LinkResultMessage{
		Transmitter:         outcome.Transmitter,
		Receiver:            outcome.Receiver,
		FreeSpacePathLossDB: outcome.FreeSpacePathLossDB,
		ITWOMPathLossDB:     outcome.ITWOMPathLossDB,
		FieldStrengthDBuVm:  outcome.FieldStrengthDBuVm,
		JobID:               jobID,
		Timestamp:           time.Now().UTC(),
	}

	topic := fmt.Sprintf("%s/links/%s/%s",
		mp.config.TopicPrefix,
		outcome.Transmitter,
		outcome.Receiver)

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	// Publish asynchronously
	token := mp.client.Publish(topic, mp.config.QoS, mp.config.Retain, data)

	go func() {
		if token.Wait() && token.Error() != nil {
			log.Printf("MQTT ERROR: Failed to publish to %s: %v", topic, token.Error())
		}
	}()

	return nil
}

// Disconnect gracefully disconnects from the MQTT broker
func (mp *MQTTPublisher) Disconnect() {
	if mp != nil && mp.client != nil && mp.client.IsConnected() {
		mp.client.Disconnect(250)
		log.Println("MQTT: Disconnected from broker")
	}
}
