package app

import (
	"encoding/json"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/relabs-tech/lsm9ds0_imu/internal/imu"
)

// Publisher is the publishing half of mqtt.Client.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// Subscriber is the subscribing half of mqtt.Client.
type Subscriber interface {
	Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token
}

// connectMQTT connects a client, letting configure adjust the options (last
// will, handlers) before connecting.
func connectMQTT(broker, clientID string, logger *zap.SugaredLogger, configure func(*mqtt.ClientOptions)) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectTimeout(10 * time.Second).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			logger.Warnw("MQTT connection lost", "error", err)
		})
	if configure != nil {
		configure(opts)
	}

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, errors.Wrapf(token.Error(), "MQTT connect %s", broker)
	}
	logger.Infow("connected to MQTT broker", "broker", broker, "client_id", clientID)
	return client, nil
}

func publishJSON(p Publisher, topic string, retained bool, v interface{}) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "marshal for %s", topic)
	}
	if token := p.Publish(topic, 0, retained, payload); token.Wait() && token.Error() != nil {
		return errors.Wrapf(token.Error(), "MQTT publish %s", topic)
	}
	return nil
}

// subscribeJSON subscribes to topic and hands each decoded payload to fn.
// Payloads that do not decode are logged and dropped.
func subscribeJSON[T any](s Subscriber, topic string, logger *zap.SugaredLogger, fn func(T)) error {
	token := s.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var v T
		if err := json.Unmarshal(msg.Payload(), &v); err != nil {
			logger.Warnw("MQTT payload unmarshal error", "topic", msg.Topic(), "error", err)
			return
		}
		fn(v)
	})
	token.Wait()
	if token.Error() != nil {
		return errors.Wrapf(token.Error(), "MQTT subscribe %s", topic)
	}
	logger.Infow("subscribed", "topic", topic)
	return nil
}

func subscribeSamples(s Subscriber, topic string, logger *zap.SugaredLogger, fn func(imu.Sample)) error {
	return subscribeJSON(s, topic, logger, fn)
}

func mustJSON(v interface{}) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}
