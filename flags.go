package main

import (
	"time"

	"github.com/urfave/cli/v2"
)

var FlagLogLevel = &cli.StringFlag{
	Name:     "log-level",
	EnvVars:  []string{"LOG_LEVEL"},
	Value:    "info",
	Required: false,
}

var FlagLogWriter = &cli.StringFlag{
	Name:     "log-writer",
	Usage:    "one of: [console, json]",
	EnvVars:  []string{"LOG_WRITER"},
	Value:    "console",
	Required: false,
}

var FlagBaseTopic = &cli.StringFlag{
	Name:     "base-topic",
	Usage:    "readings are received on {base-topic}/readings",
	EnvVars:  []string{"BASE_TOPIC"},
	Value:    "Eason/ece140/sensors",
	Required: false,
}

var FlagWebServerURL = &cli.StringFlag{
	Name:     "web-server-url",
	Usage:    "storage api endpoint readings are posted to",
	EnvVars:  []string{"WEB_SERVER_URL"},
	Value:    "http://localhost:6543/api/temperature",
	Required: false,
}

var FlagMQTTBroker = &cli.StringFlag{
	Name:     "mqtt-broker",
	Usage:    "broker host or tcp://broker:port",
	EnvVars:  []string{"MQTT_BROKER"},
	Value:    "broker.hivemq.com",
	Required: false,
}

var FlagMQTTPort = &cli.IntFlag{
	Name:     "mqtt-port",
	EnvVars:  []string{"MQTT_PORT"},
	Value:    1883,
	Required: false,
}

var FlagMQTTKeepAlive = &cli.DurationFlag{
	Name:     "mqtt-keepalive",
	EnvVars:  []string{"MQTT_KEEPALIVE"},
	Value:    60 * time.Second,
	Required: false,
}

var FlagMQTTClientID = &cli.StringFlag{
	Name:     "mqtt-client-id",
	Usage:    "defaults to a random telemetry-bridge-<uuid>",
	EnvVars:  []string{"MQTT_CLIENT_ID"},
	Required: false,
}

var FlagMQTTUsername = &cli.StringFlag{
	Name:     "mqtt-username",
	EnvVars:  []string{"MQTT_USERNAME"},
	Required: false,
}

var FlagMQTTPassword = &cli.StringFlag{
	Name:     "mqtt-password",
	EnvVars:  []string{"MQTT_PASSWORD"},
	Required: false,
}

var FlagMQTTQoS = &cli.UintFlag{
	Name:     "mqtt-qos",
	Usage:    "one of: [0, 1, 2]",
	EnvVars:  []string{"MQTT_QOS"},
	Value:    0,
	Required: false,
}

var FlagMQTTAutoReconnect = &cli.BoolFlag{
	Name:     "mqtt-auto-reconnect",
	Usage:    "reconnect and resubscribe instead of exiting when the broker connection drops",
	EnvVars:  []string{"MQTT_AUTO_RECONNECT"},
	Required: false,
}

var FlagMinInterval = &cli.DurationFlag{
	Name:     "min-interval",
	Usage:    "minimum spacing between forwarded readings",
	EnvVars:  []string{"MIN_INTERVAL"},
	Value:    5 * time.Second,
	Required: false,
}

var FlagForwardTimeout = &cli.DurationFlag{
	Name:     "forward-timeout",
	EnvVars:  []string{"FORWARD_TIMEOUT"},
	Value:    5 * time.Second,
	Required: false,
}

var FlagForwardRetries = &cli.IntFlag{
	Name:     "forward-retries",
	Usage:    "retries for failed forwards, 0 drops the reading on first failure",
	EnvVars:  []string{"FORWARD_RETRIES"},
	Value:    0,
	Required: false,
}

var FlagReadingField = &cli.StringFlag{
	Name:     "reading-field",
	Usage:    "payload field holding the measurement",
	EnvVars:  []string{"READING_FIELD"},
	Value:    "temperature",
	Required: false,
}

var FlagReadingUnit = &cli.StringFlag{
	Name:     "reading-unit",
	EnvVars:  []string{"READING_UNIT"},
	Value:    "C",
	Required: false,
}

var FlagStatusAddr = &cli.StringFlag{
	Name:     "status-addr",
	Usage:    "address for /health, /status and /metrics, e.g. :9100 (disabled when empty)",
	EnvVars:  []string{"STATUS_ADDR"},
	Required: false,
}
