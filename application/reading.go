package application

import "time"

const (
	// TimestampLayout is the local-time format the storage API expects.
	TimestampLayout = "2006-01-02 15:04:05"

	DefaultUnit  = "C"
	DefaultField = "temperature"
)

// Reading is one validated sensor measurement ready to be persisted.
type Reading struct {
	Value     float64 `json:"value"`
	Unit      string  `json:"unit"`
	Timestamp string  `json:"timestamp"`
}

// Clock returns the current time. Tests replace it to control time.
type Clock func() time.Time
