package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"telemetry-bridge/adapters"
	"telemetry-bridge/application"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

var Flags = []cli.Flag{
	FlagLogLevel,
	FlagLogWriter,
	FlagBaseTopic,
	FlagWebServerURL,
	FlagMQTTBroker,
	FlagMQTTPort,
	FlagMQTTKeepAlive,
	FlagMQTTClientID,
	FlagMQTTUsername,
	FlagMQTTPassword,
	FlagMQTTQoS,
	FlagMQTTAutoReconnect,
	FlagMinInterval,
	FlagForwardTimeout,
	FlagForwardRetries,
	FlagReadingField,
	FlagReadingUnit,
	FlagStatusAddr,
}

func main() {
	// replaced in Before once the log flags are parsed
	logger := baseLogger(os.Stderr)

	app := cli.App{
		Name:    "telemetry-bridge",
		Usage:   "forward MQTT sensor readings to the storage api",
		Version: "v0.1.0",
		Flags:   Flags,
		Before: func(ctx *cli.Context) error {
			l, err := newLogger(ctx.String(FlagLogWriter.Name), os.Stderr)
			if err != nil {
				return err
			}
			logger = l

			level, err := zerolog.ParseLevel(ctx.String(FlagLogLevel.Name))
			if err != nil {
				return err
			}

			zerolog.SetGlobalLevel(level)
			adapters.SetPahoLoggers(logger.With().Str("module", "paho").Logger())

			return nil
		},
		Action: func(ctx *cli.Context) error {
			logger.Info().Msg("service starting...")

			appCtx, cancel := context.WithCancel(logger.WithContext(context.Background()))
			defer cancel()

			go func() {
				c := make(chan os.Signal, 1)
				signal.Notify(c, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

				<-c

				logger.Warn().Msg("interrupt signal received")
				cancel()
			}()

			qos := ctx.Uint(FlagMQTTQoS.Name)
			if qos > 2 {
				return fmt.Errorf("invalid mqtt qos: %d", qos)
			}

			clientID := ctx.String(FlagMQTTClientID.Name)
			if clientID == "" {
				clientID = fmt.Sprintf("telemetry-bridge-%s", uuid.NewString())
			}

			brokerURL := adapters.BrokerURL(ctx.String(FlagMQTTBroker.Name), ctx.Int(FlagMQTTPort.Name))
			logger.Info().Msgf("mqtt broker: %s, client id: %s", brokerURL, clientID)

			mqttClient := adapters.NewMQTTClient(adapters.MQTTClientParams{
				ClientID:      clientID,
				Username:      ctx.String(FlagMQTTUsername.Name),
				Password:      ctx.String(FlagMQTTPassword.Name),
				MQTTUrl:       brokerURL,
				KeepAlive:     ctx.Duration(FlagMQTTKeepAlive.Name),
				AutoReconnect: ctx.Bool(FlagMQTTAutoReconnect.Name),
				Log:           logger.With().Str("module", "mqtt-client").Logger(),
			})

			forwarder, err := adapters.NewHTTPForwarder(adapters.HTTPForwarderParams{
				URL:        ctx.String(FlagWebServerURL.Name),
				Timeout:    ctx.Duration(FlagForwardTimeout.Name),
				MaxRetries: ctx.Int(FlagForwardRetries.Name),
				Log:        logger.With().Str("module", "forwarder").Logger(),
			})
			if err != nil {
				return err
			}

			registry := prometheus.NewRegistry()
			registry.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)

			clock := application.Clock(time.Now)
			topic := application.ReadingsTopic(ctx.String(FlagBaseTopic.Name))

			bridge, err := application.NewTelemetryBridgeService(application.TelemetryBridgeServiceParams{
				MQTTClient: mqttClient,
				Forwarder:  forwarder,
				Validator: application.NewValidator(application.ValidatorParams{
					Field: ctx.String(FlagReadingField.Name),
					Unit:  ctx.String(FlagReadingUnit.Name),
					Clock: clock,
				}),
				RateLimiter: application.NewRateLimiter(ctx.Duration(FlagMinInterval.Name)),
				Metrics:     adapters.NewPrometheusMetrics(registry),
				Clock:       clock,
				MQTTTopic:   topic,
				MQTTQoS:     byte(qos),
				Log:         logger.With().Str("module", "bridge").Logger(),
			})
			if err != nil {
				return err
			}

			g, gCtx := errgroup.WithContext(appCtx)

			if addr := ctx.String(FlagStatusAddr.Name); addr != "" {
				statusServer, err := adapters.NewStatusServer(adapters.StatusServerParams{
					Addr:     addr,
					Status:   bridge.Status,
					Gatherer: registry,
					Log:      logger.With().Str("module", "status-server").Logger(),
				})
				if err != nil {
					return err
				}

				g.Go(func() error {
					return statusServer.Run(gCtx)
				})
			}

			g.Go(func() error {
				// the status server has nothing to report once the bridge is gone
				defer cancel()
				return bridge.Run(gCtx)
			})

			logger.Info().Msg("service started")
			if err := g.Wait(); err != nil {
				return err
			}

			logger.Info().Msg("service terminating...")
			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Err(err).Msg("service terminated")
		os.Exit(1)
	}
}

func baseLogger(w io.Writer) zerolog.Logger {
	return zerolog.New(w).With().Timestamp().
		Str("service", "telemetry-bridge").
		Str("module", "main").
		Logger()
}

func newLogger(writer string, out io.Writer) (zerolog.Logger, error) {
	switch writer {
	case "console":
		return baseLogger(zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339Nano,
		}), nil
	case "json":
		return baseLogger(out), nil
	default:
		return zerolog.Logger{}, fmt.Errorf("invalid log writer: %s", writer)
	}
}
