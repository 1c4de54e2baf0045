package application

import "time"

type MQTTStatus struct {
	MessageCount     uint64
	LastTimeReceived time.Time
	Connected        bool
}

type MQTTMessage interface {
	Topic() string
	Payload() []byte
}

type MQTTClient interface {
	Connect() error
	Subscribe(topic string, qos byte, handler func(msg MQTTMessage)) error
	Disconnect()

	// ConnectionLost delivers an error when the broker connection drops and
	// will not be re-established by the client itself.
	ConnectionLost() <-chan error

	IsConnected() bool
	Status() MQTTStatus
}
