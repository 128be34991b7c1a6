package device

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/jypelle/vekimon/apimodel"
	"github.com/jypelle/vekimon/internal/srv/config"
	"github.com/sirupsen/logrus"
	"time"
)

const (
	mqttConnectTimeout = 5 * time.Second
	mqttPublishTimeout = 2 * time.Second
	mqttQuiesce        = 250
)

var errPublishTimeout = errors.New("mqtt publish timed out")

// mqttClient is the part of mqtt.Client the publisher uses.
type mqttClient interface {
	Connect() mqtt.Token
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// Publisher pushes retained status snapshots to an mqtt broker.
type Publisher struct {
	param  config.MqttParam
	client mqttClient
}

func NewPublisher(param config.MqttParam) *Publisher {
	publisher := &Publisher{param: param}
	if !param.Enabled {
		return publisher
	}

	opts := mqtt.NewClientOptions().
		AddBroker(param.Broker).
		SetClientID(param.ClientId).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(10 * time.Second).
		SetOnConnectHandler(func(mqtt.Client) {
			logrus.Infof("Connected to mqtt broker %s", param.Broker)
		}).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			logrus.WithError(err).Warnf("Lost mqtt broker %s", param.Broker)
		})
	if param.Username != "" {
		opts.SetUsername(param.Username)
		opts.SetPassword(param.Password)
	}
	publisher.client = mqtt.NewClient(opts)
	return publisher
}

func (p *Publisher) Enabled() bool {
	return p.client != nil
}

func (p *Publisher) StatusTopic() string {
	return p.param.Topic + "/status"
}

// Run keeps the broker connection open until ctx is done.
func (p *Publisher) Run(ctx context.Context) error {
	if p.client == nil {
		return nil
	}
	logrus.Infof("Start mqtt publisher device")
	defer logrus.Infof("Stop mqtt publisher device")

	token := p.client.Connect()
	if !token.WaitTimeout(mqttConnectTimeout) {
		logrus.Warnf("Mqtt broker %s not reachable yet, retrying in background", p.param.Broker)
	} else if err := token.Error(); err != nil {
		logrus.WithError(err).Warnf("Unable to connect to mqtt broker %s", p.param.Broker)
	}

	<-ctx.Done()
	p.client.Disconnect(mqttQuiesce)
	return nil
}

// Publish sends status as a retained message. It is a no-op when mqtt is disabled.
func (p *Publisher) Publish(status apimodel.Status) error {
	if p.client == nil {
		return nil
	}

	payload, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("encode status: %w", err)
	}

	token := p.client.Publish(p.StatusTopic(), 1, true, payload)
	if !token.WaitTimeout(mqttPublishTimeout) {
		return errPublishTimeout
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", p.StatusTopic(), err)
	}
	logrus.Debugf("Status published to %s", p.StatusTopic())
	return nil
}
