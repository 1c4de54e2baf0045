package adapters

import (
	"bytes"
	"testing"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestPahoLogger(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf).Level(zerolog.DebugLevel)

	NewPahoLogger(log, zerolog.WarnLevel).Println("[client]", "connection lost")
	assert.Contains(t, buf.String(), `"level":"warn"`)
	assert.Contains(t, buf.String(), `"message":"[client] connection lost"`)

	buf.Reset()
	NewPahoLogger(log, zerolog.ErrorLevel).Printf("[net] %s: %d\n", "write error", 3)
	assert.Contains(t, buf.String(), `"level":"error"`)
	assert.Contains(t, buf.String(), `"message":"[net] write error: 3"`)

	buf.Reset()
	NewPahoLogger(log, zerolog.TraceLevel).Println("[pinger] ping sent")
	assert.Empty(t, buf.String())
}

func TestSetPahoLoggers(t *testing.T) {
	critical, errLog, warn, debug := mqtt.CRITICAL, mqtt.ERROR, mqtt.WARN, mqtt.DEBUG
	defer func() {
		mqtt.CRITICAL, mqtt.ERROR, mqtt.WARN, mqtt.DEBUG = critical, errLog, warn, debug
	}()

	var buf bytes.Buffer
	SetPahoLoggers(zerolog.New(&buf))

	mqtt.WARN.Println("[store] memorystore closed")
	assert.Contains(t, buf.String(), "memorystore closed")
	assert.IsType(t, &PahoLogger{}, mqtt.ERROR)
	assert.IsType(t, &PahoLogger{}, mqtt.CRITICAL)
	assert.IsType(t, &PahoLogger{}, mqtt.DEBUG)
}
