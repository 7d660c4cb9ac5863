// Package tele publishes decoded messages to MQTT broker as JSON records.
//
// Topics:
//   <prefix>/<message id hex>  one record per message
//   <prefix>/error             errors reported via Error()
//   <prefix>/online            retained "1", will "0"
package tele

import (
	"encoding/json"
	"expvar"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/juju/errors"
	"github.com/temoto/sirf/helpers"
	"github.com/temoto/sirf/log2"
	"github.com/temoto/sirf/message"
)

const defaultNetworkTimeout = 30 * time.Second

var ErrClosed = errors.New("tele closed")

// Client is subset of mqtt.Client used here.
type Client interface {
	Connect() mqtt.Token
	Disconnect(quiesce uint)
	IsConnected() bool
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

type Stat struct {
	Published expvar.Int
	Errors    expvar.Int
}

type Record struct {
	ID      message.ID      `json:"id"`
	Name    string          `json:"name"`
	Time    int64           `json:"time"` // unix nanoseconds
	Message message.Message `json:"message"`
}

type Tele struct {
	log         *log2.Log
	config      Config
	m           Client
	qos         byte
	timeout     time.Duration
	topicPrefix string
	topicOnline string
	topicError  string
	stopOnce    sync.Once
	stopCh      chan struct{}
	wg          sync.WaitGroup

	Stat Stat
}

// New connects in background, Message before connect returns error.
func New(log *log2.Log, c Config) (*Tele, error) {
	if c.MqttBroker == "" {
		return nil, errors.NotValidf("tele mqtt_broker empty")
	}
	mqttLog := log.Clone(log2.LDebug)
	mqtt.CRITICAL = mqttLog
	mqtt.ERROR = mqttLog
	mqtt.WARN = mqttLog
	if c.MqttLogDebug {
		mqtt.DEBUG = mqttLog
	}

	t := newTele(log, c)
	clientID := c.clientID()
	networkTimeout := t.timeout
	keepalive := helpers.IntSecondDefault(c.KeepaliveSec, networkTimeout/2)
	mopt := mqtt.NewClientOptions().
		AddBroker(c.MqttBroker).
		SetAutoReconnect(true).
		SetBinaryWill(t.topicOnline, []byte{'0'}, 1, true).
		SetCleanSession(true).
		SetClientID(clientID).
		SetConnectTimeout(networkTimeout * 3).
		SetKeepAlive(keepalive).
		SetMaxReconnectInterval(networkTimeout * 3).
		SetOnConnectHandler(t.onConnect).
		SetConnectionLostHandler(t.onConnectionLost).
		SetOrderMatters(false).
		SetPingTimeout(networkTimeout).
		SetWriteTimeout(networkTimeout)
	if c.MqttPassword != "" {
		mopt.SetUsername(clientID).SetPassword(c.MqttPassword)
	}
	t.m = mqtt.NewClient(mopt)
	t.start()
	return t, nil
}

// NewClient uses provided client, for tests and custom transports.
func NewClient(log *log2.Log, c Config, m Client) *Tele {
	t := newTele(log, c)
	t.m = m
	t.start()
	return t
}

func newTele(log *log2.Log, c Config) *Tele {
	prefix := c.topicPrefix()
	qos := byte(0)
	if c.Qos > 0 && c.Qos <= 2 {
		qos = byte(c.Qos)
	}
	return &Tele{
		log:         log,
		config:      c,
		qos:         qos,
		timeout:     helpers.IntSecondDefault(c.NetworkTimeoutSec, defaultNetworkTimeout),
		topicPrefix: prefix,
		topicOnline: prefix + "/online",
		topicError:  prefix + "/error",
		stopCh:      make(chan struct{}),
	}
}

func (t *Tele) start() {
	t.wg.Add(1)
	go t.online()
}

func Topic(prefix string, id message.ID) string { return fmt.Sprintf("%s/%02x", prefix, uint8(id)) }

// Message publishes record, waits for broker ack within network timeout.
func (t *Tele) Message(m message.Message) error {
	r := Record{
		ID:      m.ID(),
		Name:    m.ID().String(),
		Time:    time.Now().UnixNano(),
		Message: m,
	}
	b, err := json.Marshal(r)
	if err != nil {
		return errors.Annotatef(err, "tele json id=%s", m.ID())
	}
	return t.publish(Topic(t.topicPrefix, m.ID()), false, b)
}

// Error publishes error text, failures are only counted.
// Signature fits log2.ErrorFunc.
func (t *Tele) Error(e error) {
	b, _ := json.Marshal(struct {
		Time  int64  `json:"time"`
		Error string `json:"error"`
	}{time.Now().UnixNano(), e.Error()})
	_ = t.publish(t.topicError, false, b)
}

func (t *Tele) Close() {
	t.stopOnce.Do(func() {
		close(t.stopCh)
		t.wg.Wait()
		if t.m.IsConnected() {
			t.tokenWait(t.m.Publish(t.topicOnline, 1, true, []byte{'0'}), "publish offline")
		}
		t.m.Disconnect(uint(t.timeout / time.Millisecond))
	})
}

func (t *Tele) isRunning() bool {
	select {
	case <-t.stopCh:
		return false
	default:
		return true
	}
}

func (t *Tele) publish(topic string, retained bool, payload []byte) error {
	if !t.isRunning() {
		return ErrClosed
	}
	err := t.tokenWait(t.m.Publish(topic, t.qos, retained, payload), "publish "+topic)
	if err != nil {
		t.Stat.Errors.Add(1)
		return err
	}
	t.Stat.Published.Add(1)
	return nil
}

func (t *Tele) online() {
	defer t.wg.Done()
	for t.isRunning() {
		if t.m.IsConnected() {
			return
		}
		if t.tokenWait(t.m.Connect(), "connect") == nil {
			return
		}
		select {
		case <-time.After(time.Second):
		case <-t.stopCh:
		}
	}
}

func (t *Tele) onConnect(c mqtt.Client) {
	t.log.Infof("tele mqtt connect")
	c.Publish(t.topicOnline, 1, true, []byte{'1'})
}

func (t *Tele) onConnectionLost(_ mqtt.Client, err error) {
	t.log.Infof("tele mqtt connection lost err=%v", err)
}

func (t *Tele) tokenWait(tok mqtt.Token, tag string) error {
	if !tok.WaitTimeout(t.timeout) {
		err := errors.Timeoutf("tele mqtt %s", tag)
		t.log.Debugf("%v", err)
		return err
	}
	if err := tok.Error(); err != nil {
		err = errors.Annotatef(err, "tele mqtt %s", tag)
		t.log.Debugf("%v", err)
		return err
	}
	return nil
}
