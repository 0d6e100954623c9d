package bridge

import (
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"k8s.io/klog/v2"
)

// MQTTConfig configures an MQTT transport
type MQTTConfig struct {
	Broker         string
	ClientID       string
	PublishTopic   string
	SubscribeTopic string
	QoS            byte
	KeepAlive      time.Duration
	ConnectTimeout time.Duration
}

// DefaultMQTTConfig returns the configuration the trainer uses to talk
// to the game through a local broker
func DefaultMQTTConfig() MQTTConfig {
	return MQTTConfig{
		Broker:         "tcp://localhost:1883",
		ClientID:       "LunarLanderAI",
		PublishTopic:   "DATA_FROM_AI",
		SubscribeTopic: "DATA_FROM_ANDROID",
		QoS:            0,
		KeepAlive:      60 * time.Second,
		ConnectTimeout: 30 * time.Second,
	}
}

// Game returns the configuration for the game's side of the
// conversation: topics are swapped and the client id changed.
func (c MQTTConfig) Game() MQTTConfig {
	c.ClientID = "AndroidLunarLander"
	c.PublishTopic, c.SubscribeTopic = c.SubscribeTopic, c.PublishTopic
	return c
}

// Validate checks that the configuration can be used to connect
func (c MQTTConfig) Validate() error {
	if c.Broker == "" {
		return fmt.Errorf("broker cannot be empty")
	}
	if c.ClientID == "" {
		return fmt.Errorf("client id cannot be empty")
	}
	if c.PublishTopic == "" || c.SubscribeTopic == "" {
		return fmt.Errorf("topics cannot be empty")
	}
	if c.QoS > 2 {
		return fmt.Errorf("qos must be 0, 1 or 2")
	}
	return nil
}

// MQTT is a Transport over an MQTT broker. Subscriptions are made in the
// on-connect handler so that they are renewed after a reconnect.
type MQTT struct {
	config MQTTConfig

	mu     sync.Mutex
	client mqtt.Client
}

// NewMQTT returns a new, unconnected MQTT transport
func NewMQTT(c MQTTConfig) (*MQTT, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("newmqtt: %v", err)
	}
	return &MQTT{config: c}, nil
}

// Start connects to the broker
func (m *MQTT) Start(onConnect func(), onMessage func([]byte)) error {
	c := m.config

	opts := mqtt.NewClientOptions().
		AddBroker(c.Broker).
		SetClientID(c.ClientID).
		SetKeepAlive(c.KeepAlive).
		SetConnectTimeout(c.ConnectTimeout).
		SetAutoReconnect(true).
		SetOrderMatters(true)

	opts.SetOnConnectHandler(func(client mqtt.Client) {
		token := client.Subscribe(c.SubscribeTopic, c.QoS,
			func(_ mqtt.Client, msg mqtt.Message) {
				klog.V(2).InfoS("Message received", "topic", msg.Topic(),
					"bytes", len(msg.Payload()))
				onMessage(msg.Payload())
			})
		token.Wait()
		if err := token.Error(); err != nil {
			klog.ErrorS(err, "Could not subscribe", "topic", c.SubscribeTopic)
			return
		}
		klog.InfoS("Connected to broker", "broker", c.Broker, "clientID",
			c.ClientID, "subscribed", c.SubscribeTopic)
		if onConnect != nil {
			onConnect()
		}
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		klog.ErrorS(err, "Connection to broker lost", "broker", c.Broker)
	})

	client := mqtt.NewClient(opts)
	token := client.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("start: %w: %v", ErrNotConnected, err)
	}

	m.mu.Lock()
	m.client = client
	m.mu.Unlock()
	return nil
}

// Publish publishes payload to the publish topic and waits for the
// broker to acknowledge it at the configured QoS
func (m *MQTT) Publish(payload []byte) error {
	m.mu.Lock()
	client := m.client
	m.mu.Unlock()
	if client == nil {
		return fmt.Errorf("publish: %w", ErrNotConnected)
	}

	token := client.Publish(m.config.PublishTopic, m.config.QoS, false,
		payload)
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish: %v", err)
	}
	return nil
}

// Close disconnects from the broker
func (m *MQTT) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.client != nil {
		m.client.Disconnect(250)
		m.client = nil
	}
	return nil
}
