package adapters

import (
	"fmt"
	"strings"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
)

// PahoLogger routes paho's internal logging into zerolog.
type PahoLogger struct {
	log   zerolog.Logger
	level zerolog.Level
}

func NewPahoLogger(log zerolog.Logger, level zerolog.Level) *PahoLogger {
	return &PahoLogger{log: log, level: level}
}

func (p *PahoLogger) Println(v ...interface{}) {
	p.log.WithLevel(p.level).Msg(strings.TrimSpace(fmt.Sprintln(v...)))
}

func (p *PahoLogger) Printf(format string, v ...interface{}) {
	p.log.WithLevel(p.level).Msg(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

// SetPahoLoggers replaces paho's package level loggers.
func SetPahoLoggers(log zerolog.Logger) {
	mqtt.CRITICAL = NewPahoLogger(log, zerolog.ErrorLevel)
	mqtt.ERROR = NewPahoLogger(log, zerolog.ErrorLevel)
	mqtt.WARN = NewPahoLogger(log, zerolog.WarnLevel)
	mqtt.DEBUG = NewPahoLogger(log, zerolog.TraceLevel)
}

var _ mqtt.Logger = &PahoLogger{}
