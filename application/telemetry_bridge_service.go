package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"
)

const DefaultReportInterval = 30 * time.Second

type TelemetryBridgeService interface {
	// Run connects, subscribes and processes messages on the calling
	// goroutine until ctx is cancelled or the broker connection is lost.
	Run(ctx context.Context) error

	// OnConnect reacts to the broker's CONNACK return code.
	OnConnect(resultCode byte) error

	// HandleMessage runs one payload through validation, rate limiting and
	// forwarding. The returned error is informational; it has been logged.
	HandleMessage(ctx context.Context, payload []byte) error

	State() SubscriptionState
	Status() BridgeStatus
}

type BridgeStatus struct {
	MQTT              MQTTStatus
	State             SubscriptionState
	ReadingsForwarded uint64
	MessagesDropped   uint64
}

type TelemetryBridgeServiceParams struct {
	MQTTClient  MQTTClient
	Forwarder   Forwarder
	Validator   *Validator
	RateLimiter *RateLimiter
	Metrics     Metrics
	Clock       Clock

	MQTTTopic string
	MQTTQoS   byte

	ReportInterval time.Duration

	Log zerolog.Logger
}

type telemetryBridgeService struct {
	params TelemetryBridgeServiceParams

	state     int32
	forwarded uint64
	dropped   uint64

	inbox    chan []byte
	done     chan struct{}
	doneOnce sync.Once

	log zerolog.Logger
}

func NewTelemetryBridgeService(params TelemetryBridgeServiceParams) (TelemetryBridgeService, error) {
	if params.MQTTClient == nil {
		return nil, fmt.Errorf("MQTTClient is nil")
	}
	if params.Forwarder == nil {
		return nil, fmt.Errorf("Forwarder is nil")
	}
	if params.MQTTTopic == "" {
		return nil, fmt.Errorf("MQTTTopic is empty")
	}

	if params.Clock == nil {
		params.Clock = time.Now
	}
	if params.Validator == nil {
		params.Validator = NewValidator(ValidatorParams{Clock: params.Clock})
	} else if params.Validator.params.Clock == nil {
		params.Validator = params.Validator.withClock(params.Clock)
	}
	if params.RateLimiter == nil {
		params.RateLimiter = NewRateLimiter(DefaultMinInterval)
	}
	if params.Metrics == nil {
		params.Metrics = NopMetrics{}
	}
	if params.ReportInterval <= 0 {
		params.ReportInterval = DefaultReportInterval
	}

	return &telemetryBridgeService{
		params: params,
		inbox:  make(chan []byte),
		done:   make(chan struct{}),
		log:    params.Log,
	}, nil
}

func (t *telemetryBridgeService) Run(ctx context.Context) error {
	defer t.stop()

	t.setState(StateConnecting)
	t.log.Info().Msg("connecting to broker")

	if err := t.params.MQTTClient.Connect(); err != nil {
		var connErr *ConnectionError
		if errors.As(err, &connErr) && connErr.Err == nil && connErr.Code != 0 {
			return t.OnConnect(connErr.Code)
		}

		t.setState(StateDisconnected)
		t.log.Error().Err(err).Msg("connection failed")
		if connErr != nil {
			return connErr
		}
		return &ConnectionError{Err: err}
	}
	defer t.params.MQTTClient.Disconnect()
	// paho waits for running callbacks on disconnect, so release the ones
	// blocked in enqueue first
	defer t.stop()

	if err := t.OnConnect(0); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg conc.WaitGroup

	// bridge reporter
	wg.Go(func() {
		t.report(ctx)
	})

	err := t.receiveLoop(ctx)
	cancel()

	wg.Wait()
	return err
}

func (t *telemetryBridgeService) OnConnect(resultCode byte) error {
	if resultCode != 0 {
		t.setState(StateDisconnected)
		t.log.Error().Uint8("code", resultCode).Msg("connection refused by broker")
		return &ConnectionError{Code: resultCode}
	}

	t.log.Info().Msgf("connected, subscribing to: %s", t.params.MQTTTopic)

	err := t.params.MQTTClient.Subscribe(t.params.MQTTTopic, t.params.MQTTQoS, t.enqueue)
	if err != nil {
		t.setState(StateDisconnected)
		t.log.Error().Err(err).Str("topic", t.params.MQTTTopic).Msg("subscribe failed")
		return &ConnectionError{Err: fmt.Errorf("subscribe %s: %w", t.params.MQTTTopic, err)}
	}

	t.setState(StateSubscribed)
	return nil
}

func (t *telemetryBridgeService) HandleMessage(ctx context.Context, payload []byte) (err error) {
	t.params.Metrics.MessageReceived()

	var pc panics.Catcher
	pc.Try(func() {
		err = t.process(ctx, payload)
	})

	if r := pc.Recovered(); r != nil {
		t.drop(DropReasonPanic)
		t.log.Error().
			Str("panic", fmt.Sprint(r.Value)).
			Bytes("stack", r.Stack).
			Msg("recovered while handling message")
		return r.AsError()
	}

	return err
}

func (t *telemetryBridgeService) State() SubscriptionState {
	s := SubscriptionState(atomic.LoadInt32(&t.state))
	if s == StateSubscribed && !t.params.MQTTClient.IsConnected() {
		return StateDisconnected
	}
	return s
}

func (t *telemetryBridgeService) Status() BridgeStatus {
	return BridgeStatus{
		MQTT:              t.params.MQTTClient.Status(),
		State:             t.State(),
		ReadingsForwarded: atomic.LoadUint64(&t.forwarded),
		MessagesDropped:   atomic.LoadUint64(&t.dropped),
	}
}

func (t *telemetryBridgeService) process(ctx context.Context, payload []byte) error {
	reading, err := t.params.Validator.Validate(payload)
	if err != nil {
		reason := DropReasonDecode
		if errors.Is(err, ErrValidation) {
			reason = DropReasonValidation
		}
		t.drop(reason)

		t.log.Warn().Err(err).Str("payload", string(payload)).Msg("received invalid message")
		return err
	}

	if !t.params.RateLimiter.Allow(t.params.Clock()) {
		t.drop(DropReasonRateLimited)

		t.log.Debug().Float64("value", reading.Value).Msg("skipping reading to avoid spamming")
		return ErrRateLimited
	}

	start := time.Now()
	if err := t.params.Forwarder.Forward(ctx, reading); err != nil {
		t.drop(DropReasonForward)

		t.log.Error().Err(err).Float64("value", reading.Value).Msg("error sending reading")
		return err
	}

	atomic.AddUint64(&t.forwarded, 1)
	t.params.Metrics.ReadingForwarded(time.Since(start))
	return nil
}

func (t *telemetryBridgeService) receiveLoop(ctx context.Context) error {
	lost := t.params.MQTTClient.ConnectionLost()

	t.log.Info().Msg("waiting for messages")
	defer t.log.Info().Msg("stop receiving")

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-lost:
			t.setState(StateDisconnected)
			t.log.Error().Err(err).Msg("connection lost")
			return &ConnectionError{Err: err}
		case payload := <-t.inbox:
			_ = t.HandleMessage(ctx, payload)
		}
	}
}

// enqueue is the subscription callback. It blocks until the receive loop
// takes the payload, so messages are handled one at a time in arrival order.
func (t *telemetryBridgeService) enqueue(msg MQTTMessage) {
	select {
	case t.inbox <- msg.Payload():
	case <-t.done:
		t.log.Debug().Str("topic", msg.Topic()).Msg("bridge stopped, message discarded")
	}
}

func (t *telemetryBridgeService) report(ctx context.Context) {
	ticker := time.NewTicker(t.params.ReportInterval)
	defer ticker.Stop()

	lastStatus := MQTTStatus{}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			status := t.Status()

			t.log.Info().
				Uint64("msg_received", status.MQTT.MessageCount-lastStatus.MessageCount).
				Uint64("readings_forwarded", status.ReadingsForwarded).
				Uint64("messages_dropped", status.MessagesDropped).
				Bool("is_connected", status.MQTT.Connected).
				Time("last_time_received", status.MQTT.LastTimeReceived).
				Str("state", status.State.String()).
				Msg("bridge report")

			lastStatus = status.MQTT
		}
	}
}

func (t *telemetryBridgeService) stop() {
	t.doneOnce.Do(func() { close(t.done) })
}

func (t *telemetryBridgeService) drop(reason DropReason) {
	atomic.AddUint64(&t.dropped, 1)
	t.params.Metrics.MessageDropped(reason)
}

func (t *telemetryBridgeService) setState(s SubscriptionState) {
	atomic.StoreInt32(&t.state, int32(s))
}

var _ TelemetryBridgeService = &telemetryBridgeService{}
