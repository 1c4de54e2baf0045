package adapters

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"telemetry-bridge/application"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

const (
	StatusServerDefaultShutdownTimeout   = 5 * time.Second
	StatusServerDefaultReadHeaderTimeout = 3 * time.Second
)

type StatusServerParams struct {
	Addr string

	Status   func() application.BridgeStatus
	Gatherer prometheus.Gatherer

	ShutdownTimeout   time.Duration
	ReadHeaderTimeout time.Duration

	Log zerolog.Logger
}

func (s *StatusServerParams) EnsureDefaults() {
	if s.Gatherer == nil {
		s.Gatherer = prometheus.DefaultGatherer
	}

	if s.ShutdownTimeout == 0 {
		s.ShutdownTimeout = StatusServerDefaultShutdownTimeout
	}

	if s.ReadHeaderTimeout == 0 {
		s.ReadHeaderTimeout = StatusServerDefaultReadHeaderTimeout
	}
}

type statusResponse struct {
	State             string    `json:"state"`
	Connected         bool      `json:"connected"`
	MessageCount      uint64    `json:"message_count"`
	ReadingsForwarded uint64    `json:"readings_forwarded"`
	MessagesDropped   uint64    `json:"messages_dropped"`
	LastTimeReceived  time.Time `json:"last_time_received"`
}

// StatusServer exposes liveness, bridge status and Prometheus metrics.
type StatusServer struct {
	params StatusServerParams

	server *http.Server

	log zerolog.Logger
}

func NewStatusServer(params StatusServerParams) (*StatusServer, error) {
	if params.Addr == "" {
		return nil, fmt.Errorf("status server address is empty")
	}
	if params.Status == nil {
		return nil, fmt.Errorf("status func is nil")
	}

	params.EnsureDefaults()

	s := &StatusServer{params: params, log: params.Log}
	s.server = &http.Server{
		Addr:              params.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: params.ReadHeaderTimeout,
	}
	return s, nil
}

func (s *StatusServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/status", s.handleStatus)
	mux.Handle("/metrics", promhttp.HandlerFor(s.params.Gatherer, promhttp.HandlerOpts{}))
	return mux
}

// Run serves until ctx is cancelled and then shuts the server down.
func (s *StatusServer) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.log.Info().Msgf("status server listening on %s", s.params.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("status server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.params.ShutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("status server shutdown: %w", err)
	}

	s.log.Info().Msg("status server stopped")
	return nil
}

func (s *StatusServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := s.params.Status()
	if !status.MQTT.Connected {
		http.Error(w, "NOT CONNECTED", http.StatusServiceUnavailable)
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *StatusServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := s.params.Status()

	w.Header().Set("Content-Type", "application/json")
	err := json.NewEncoder(w).Encode(statusResponse{
		State:             status.State.String(),
		Connected:         status.MQTT.Connected,
		MessageCount:      status.MQTT.MessageCount,
		ReadingsForwarded: status.ReadingsForwarded,
		MessagesDropped:   status.MessagesDropped,
		LastTimeReceived:  status.MQTT.LastTimeReceived,
	})
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to write status response")
	}
}
