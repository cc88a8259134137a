package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/litescript/ls-armillary/internal/engine"
	"github.com/litescript/ls-armillary/internal/logging"
)

// connectWait bounds the first connection attempt; retries continue after.
const connectWait = 5 * time.Second

// MQTTOptions configures an MQTTPublisher.
type MQTTOptions struct {
	Broker   string // tcp://host:1883
	Topic    string // frames go to Topic, summaries to Topic/summary
	ClientID string
	Username string
	Password string
	Session  string
	Logger   *logging.Logger
}

// MQTTPublisher publishes each frame to a broker. The summary is retained
// so new subscribers see the current sky at once.
type MQTTPublisher struct {
	client  mqtt.Client
	topic   string
	encoder *Encoder
	log     *logging.Logger
}

// NewMQTTPublisher connects to the broker. The client keeps retrying in the
// background if the first attempt fails.
func NewMQTTPublisher(ctx context.Context, o MQTTOptions) (*MQTTPublisher, error) {
	if o.Broker == "" {
		return nil, fmt.Errorf("mqtt: no broker")
	}
	if o.ClientID == "" {
		o.ClientID = "ls-armillary"
	}
	if o.Logger == nil {
		o.Logger = logging.Discard()
	}

	opts := mqtt.NewClientOptions().
		AddBroker(o.Broker).
		SetUsername(o.Username).
		SetPassword(o.Password).
		SetClientID(o.ClientID).
		SetDialer(&net.Dialer{KeepAlive: -1}).
		SetKeepAlive(60 * time.Second).
		SetPingTimeout(2 * time.Second).
		SetConnectRetry(true)

	log := o.Logger
	opts.SetOnConnectHandler(func(mqtt.Client) {
		log.Info("connected to MQTT broker %s", o.Broker)
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Warn("MQTT connection lost: %v", err)
	})

	p := &MQTTPublisher{
		client:  mqtt.NewClient(opts),
		topic:   o.Topic,
		encoder: NewEncoder(o.Session),
		log:     log,
	}

	log.Info("connecting to MQTT broker %s...", o.Broker)
	connectCtx, cancel := context.WithTimeout(ctx, connectWait)
	defer cancel()
	if err := wait(connectCtx, p.client.Connect()); err != nil {
		log.Warn("cannot connect to MQTT broker: %v", err)
	}
	return p, nil
}

// Topics returns the frame and summary topics.
func (p *MQTTPublisher) Topics() (frame, summary string) {
	return p.topic, SummaryTopic(p.topic)
}

// SummaryTopic is the retained summary topic under base.
func SummaryTopic(base string) string {
	return base + "/summary"
}

// Publish implements Publisher.
func (p *MQTTPublisher) Publish(ctx context.Context, f *engine.Frame) error {
	data, err := p.encoder.Encode(f)
	if err != nil {
		return err
	}
	summary, err := json.Marshal(Summarize(f))
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}

	frameTopic, summaryTopic := p.Topics()
	if err := wait(ctx, p.client.Publish(frameTopic, 0, false, data)); err != nil {
		return fmt.Errorf("publish %s: %w", frameTopic, err)
	}
	if err := wait(ctx, p.client.Publish(summaryTopic, 1, true, summary)); err != nil {
		return fmt.Errorf("publish %s: %w", summaryTopic, err)
	}
	p.log.Debug("published frame JD %.5f to %s", f.JulianDate, frameTopic)
	return nil
}

// Close implements Publisher.
func (p *MQTTPublisher) Close() error {
	p.client.Disconnect(250)
	return nil
}

func wait(ctx context.Context, tok mqtt.Token) error {
	select {
	case <-tok.Done():
		return tok.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}
