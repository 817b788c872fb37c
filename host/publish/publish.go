// Package publish forwards received samples to an MQTT broker.
package publish

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang/glog"

	"adsbridge/host/config"
	"adsbridge/protocol"
)

// ErrTimeout is returned when the broker does not acknowledge in time
var ErrTimeout = errors.New("publish: broker timeout")

// Client is the part of paho.Client the publisher uses
type Client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Disconnect(quiesce uint)
}

// Publisher sends each sample as a decimal payload on one topic
type Publisher struct {
	client  Client
	topic   string
	qos     byte
	timeout time.Duration

	published uint64
	failed    uint64
}

// ClientOptions builds the paho options for cfg
func ClientOptions(cfg config.MQTTConfig) *paho.ClientOptions {
	opts := paho.NewClientOptions()
	opts.AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetCleanSession(true).
		SetConnectTimeout(cfg.Timeout)
	opts.SetOnConnectHandler(func(paho.Client) {
		glog.Infof("connected to %s", cfg.Broker)
	})
	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		glog.Warningf("connection lost: %v", err)
	})
	return opts
}

// Connect dials the broker and returns a publisher for cfg.Topic
func Connect(cfg config.MQTTConfig) (*Publisher, error) {
	client := paho.NewClient(ClientOptions(cfg))
	token := client.Connect()
	if !token.WaitTimeout(cfg.Timeout) {
		client.Disconnect(0)
		return nil, fmt.Errorf("connect %s: %w", cfg.Broker, ErrTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect %s: %w", cfg.Broker, err)
	}
	return New(client, cfg), nil
}

// New wraps an already connected client
func New(client Client, cfg config.MQTTConfig) *Publisher {
	return &Publisher{
		client:  client,
		topic:   cfg.Topic,
		qos:     cfg.QoS,
		timeout: cfg.Timeout,
	}
}

// Publish sends one sample and waits for the broker to take it
func (p *Publisher) Publish(s protocol.Sample) error {
	payload := strconv.FormatUint(uint64(s.Value), 10)
	token := p.client.Publish(p.topic, p.qos, false, payload)
	if !token.WaitTimeout(p.timeout) {
		p.failed++
		return fmt.Errorf("publish %s: %w", p.topic, ErrTimeout)
	}
	if err := token.Error(); err != nil {
		p.failed++
		return fmt.Errorf("publish %s: %w", p.topic, err)
	}
	p.published++
	glog.V(1).Infof("PUB %q %s", p.topic, payload)
	return nil
}

// Run publishes samples from in until it is closed or ctx is cancelled.
// Failed publishes are logged and the sample is dropped.
func (p *Publisher) Run(ctx context.Context, in <-chan protocol.Sample) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case s, ok := <-in:
			if !ok {
				return nil
			}
			if err := p.Publish(s); err != nil {
				glog.Warningf("dropping sample %d: %v", s.Value, err)
			}
		}
	}
}

// Stats returns the number of samples published and dropped
func (p *Publisher) Stats() (published, failed uint64) {
	return p.published, p.failed
}

// Close disconnects from the broker
func (p *Publisher) Close() error {
	p.client.Disconnect(250)
	return nil
}
