package adapters

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"telemetry-bridge/application"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/eclipse/paho.mqtt.golang/packets"
	"github.com/rs/zerolog"
)

const (
	MQTTDefaultPort             = 1883
	MQTTDefaultKeepAlive        = 60 * time.Second
	MQTTDefaultConnectTimeout   = 30 * time.Second
	MQTTDefaultSubscribeTimeout = 10 * time.Second

	mqttDisconnectQuiesce = 250
)

var (
	ErrMQTTConnectTimeout   = fmt.Errorf("connect timeout")
	ErrMQTTSubscribeTimeout = fmt.Errorf("subscribe timeout")
)

// BrokerURL builds a paho broker URL from a bare host and port. Values that
// already carry a scheme are returned unchanged.
func BrokerURL(broker string, port int) string {
	if strings.Contains(broker, "://") {
		return broker
	}
	if port == 0 {
		port = MQTTDefaultPort
	}
	return fmt.Sprintf("tcp://%s:%d", broker, port)
}

type MQTTClientParams struct {
	ClientID string
	Username string
	Password string
	MQTTUrl  string

	KeepAlive     time.Duration
	AutoReconnect bool

	ConnectTimeout   time.Duration
	SubscribeTimeout time.Duration

	NewClientFunc func(options *mqtt.ClientOptions) mqtt.Client

	Log zerolog.Logger
}

func (m *MQTTClientParams) EnsureDefaults() {
	if m.KeepAlive == 0 {
		m.KeepAlive = MQTTDefaultKeepAlive
	}

	if m.ConnectTimeout == 0 {
		m.ConnectTimeout = MQTTDefaultConnectTimeout
	}

	if m.SubscribeTimeout == 0 {
		m.SubscribeTimeout = MQTTDefaultSubscribeTimeout
	}

	if m.NewClientFunc == nil {
		m.NewClientFunc = mqtt.NewClient
	}
}

type subscription struct {
	qos     byte
	handler func(msg application.MQTTMessage)
}

type MQTTClient struct {
	params MQTTClientParams

	client mqtt.Client

	connected          uint64
	connectCount       uint64
	msgCount           uint64
	msgCountUpdateTime atomic.Pointer[time.Time]

	mu   sync.RWMutex
	subs map[string]subscription

	lost chan error

	log zerolog.Logger
}

func NewMQTTClient(params MQTTClientParams) *MQTTClient {
	params.EnsureDefaults()

	m := &MQTTClient{
		params: params,
		subs:   make(map[string]subscription),
		lost:   make(chan error, 1),
		log:    params.Log,
	}
	m.client = m.newMqttClient()

	t := time.Unix(0, 0)
	m.msgCountUpdateTime.Store(&t)

	return m
}

// Connect blocks until the broker acknowledges the connection. A refused
// CONNACK is reported as *application.ConnectionError carrying its code.
func (m *MQTTClient) Connect() error {
	if m.IsConnected() {
		return nil
	}

	m.log.Info().Msgf("connecting to broker at %s", m.params.MQTTUrl)

	token := m.client.Connect()
	if !token.WaitTimeout(m.params.ConnectTimeout) {
		return &application.ConnectionError{Err: ErrMQTTConnectTimeout}
	}

	if err := token.Error(); err != nil {
		if code, ok := refusedCode(token); ok {
			return &application.ConnectionError{Code: code}
		}
		return &application.ConnectionError{Err: err}
	}

	atomic.StoreUint64(&m.connected, 1)
	return nil
}

func (m *MQTTClient) Disconnect() {
	m.client.Disconnect(mqttDisconnectQuiesce)
	atomic.StoreUint64(&m.connected, 0)
	m.log.Info().Msg("disconnected")
}

func (m *MQTTClient) IsConnected() bool {
	if atomic.LoadUint64(&m.connected) == 0 {
		return false
	}
	return true
}

func (m *MQTTClient) ConnectionLost() <-chan error {
	return m.lost
}

func (m *MQTTClient) Status() application.MQTTStatus {
	return application.MQTTStatus{
		MessageCount:     atomic.LoadUint64(&m.msgCount),
		LastTimeReceived: *m.msgCountUpdateTime.Load(),
		Connected:        m.IsConnected(),
	}
}

// Subscribe registers handler for topic. The subscription is re-issued
// after every automatic reconnect.
func (m *MQTTClient) Subscribe(topic string, qos byte, handler func(msg application.MQTTMessage)) error {
	m.mu.Lock()
	m.subs[topic] = subscription{qos: qos, handler: handler}
	m.mu.Unlock()

	return m.subscribe(topic, qos, handler)
}

func (m *MQTTClient) subscribe(topic string, qos byte, handler func(msg application.MQTTMessage)) error {
	token := m.client.Subscribe(topic, qos, func(client mqtt.Client, msg mqtt.Message) {
		t := time.Now()
		m.msgCountUpdateTime.Store(&t)
		atomic.AddUint64(&m.msgCount, 1)

		handler(msg)
	})

	if !token.WaitTimeout(m.params.SubscribeTimeout) {
		return ErrMQTTSubscribeTimeout
	}
	if err := token.Error(); err != nil {
		return err
	}

	m.log.Info().Str("topic", topic).Uint8("qos", qos).Msg("subscribed")
	return nil
}

func (m *MQTTClient) PublishHandler(client mqtt.Client, msg mqtt.Message) {
	m.log.Debug().Str("topic", msg.Topic()).Msg("message without subscription ignored")
}

func (m *MQTTClient) OnConnect(client mqtt.Client) {
	m.log.Info().Msgf("connected")
	atomic.StoreUint64(&m.connected, 1)

	// the first connection is subscribed by the caller
	if atomic.AddUint64(&m.connectCount, 1) == 1 {
		return
	}

	m.mu.RLock()
	subs := make(map[string]subscription, len(m.subs))
	for topic, sub := range m.subs {
		subs[topic] = sub
	}
	m.mu.RUnlock()

	for topic, sub := range subs {
		if err := m.subscribe(topic, sub.qos, sub.handler); err != nil {
			m.log.Error().Err(err).Str("topic", topic).Msg("resubscribe failed")
		}
	}
}

func (m *MQTTClient) OnConnectionLost(client mqtt.Client, err error) {
	m.log.Warn().Msgf("connect lost: %v", err)
	atomic.StoreUint64(&m.connected, 0)

	if m.params.AutoReconnect {
		return
	}

	select {
	case m.lost <- err:
	default:
	}
}

func (m *MQTTClient) OnReconnecting(client mqtt.Client, options *mqtt.ClientOptions) {
	m.log.Info().Msg("reconnecting")
}

func (m *MQTTClient) newMqttClient() mqtt.Client {
	opts := mqtt.NewClientOptions()

	opts.AddBroker(m.params.MQTTUrl)
	opts.SetClientID(m.params.ClientID)
	opts.SetUsername(m.params.Username)
	opts.SetPassword(m.params.Password)
	opts.SetKeepAlive(m.params.KeepAlive)
	opts.SetConnectTimeout(m.params.ConnectTimeout)
	opts.SetCleanSession(true)
	opts.SetOrderMatters(true)
	opts.SetAutoReconnect(m.params.AutoReconnect)

	opts.SetDefaultPublishHandler(m.PublishHandler)
	opts.OnConnect = m.OnConnect
	opts.OnConnectionLost = m.OnConnectionLost
	opts.OnReconnecting = m.OnReconnecting

	return m.params.NewClientFunc(opts)
}

// refusedCode extracts a broker refusal code from a connect token.
func refusedCode(token mqtt.Token) (byte, bool) {
	ct, ok := token.(interface{ ReturnCode() byte })
	if !ok {
		return 0, false
	}

	code := ct.ReturnCode()
	if code == packets.Accepted || code > packets.ErrRefusedNotAuthorised {
		return 0, false
	}
	return code, true
}

var _ application.MQTTClient = &MQTTClient{}
