// Package mqtt mirrors session notifications to an MQTT broker.
package mqtt

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	paho "github.com/eclipse/paho.mqtt.golang"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/muse/internal/app/notification"
	"github.com/osa030/muse/internal/infra/config"
)

const (
	statusOnline  = "online"
	statusOffline = "offline"
	publishWait   = 2 * time.Second
)

// client is the subset of paho.Client used for publishing.
type client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Disconnect(quiesce uint)
}

// Publisher publishes notifications. State updates are retained so a new
// consumer sees the current flags immediately; notes are not. A closed
// session has its retained state cleared.
type Publisher struct {
	client    client
	topicBase string
	qos       byte
}

// New connects to the broker and announces the server as online.
// The broker marks it offline through the will message on disconnect.
func New(cfg config.MQTTConfig) (*Publisher, error) {
	opts := paho.NewClientOptions().AddBroker(cfg.BrokerURL)
	opts.SetClientID(cfg.ClientID)
	opts.SetConnectTimeout(publishWait)
	opts.SetAutoReconnect(true)
	opts.SetWill(StatusTopic(cfg.TopicBase), statusOffline, cfg.QoS, true)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	c := paho.NewClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, errors.Wrapf(token.Error(), "failed to connect to MQTT broker %s", cfg.BrokerURL)
	}

	p := newPublisher(c, cfg.TopicBase, cfg.QoS)
	if err := p.publish(StatusTopic(cfg.TopicBase), true, []byte(statusOnline)); err != nil {
		c.Disconnect(250)
		return nil, err
	}
	zlog.Info().Msgf("mqtt: connected: broker=%s topic_base=%s", cfg.BrokerURL, cfg.TopicBase)
	return p, nil
}

func newPublisher(c client, topicBase string, qos byte) *Publisher {
	return &Publisher{client: c, topicBase: topicBase, qos: qos}
}

// StatusTopic returns the retained online/offline topic.
func StatusTopic(base string) string {
	return base + "/status"
}

// SessionTopic returns the topic for a session's notifications of kind.
func SessionTopic(base, sessionID string, kind notification.Kind) string {
	return fmt.Sprintf("%s/session/%s/%s", base, sessionID, kind)
}

// Send implements notification.Stream.
func (p *Publisher) Send(n *notification.Notification) error {
	if n.Kind == notification.KindClosed {
		// An empty retained message deletes the retained state at the broker
		return p.publish(SessionTopic(p.topicBase, n.SessionID, notification.KindState), true, []byte{})
	}

	payload, err := json.Marshal(n)
	if err != nil {
		return errors.Wrap(err, "failed to encode notification")
	}
	topic := SessionTopic(p.topicBase, n.SessionID, n.Kind)
	return p.publish(topic, n.Kind == notification.KindState, payload)
}

func (p *Publisher) publish(topic string, retained bool, payload []byte) error {
	token := p.client.Publish(topic, p.qos, retained, payload)
	if !token.WaitTimeout(publishWait) {
		return errors.Newf("timed out publishing to %s", topic)
	}
	if err := token.Error(); err != nil {
		return errors.Wrapf(err, "failed to publish to %s", topic)
	}
	return nil
}

// Close announces the server as offline and disconnects.
func (p *Publisher) Close() {
	if err := p.publish(StatusTopic(p.topicBase), true, []byte(statusOffline)); err != nil {
		zlog.Warn().Msgf("mqtt: offline status not published: error=%v", err)
	}
	p.client.Disconnect(250)
}
