package application

import "time"

type DropReason string

const (
	DropReasonDecode      DropReason = "decode"
	DropReasonValidation  DropReason = "validation"
	DropReasonRateLimited DropReason = "rate_limited"
	DropReasonForward     DropReason = "forward"
	DropReasonPanic       DropReason = "panic"
)

type Metrics interface {
	MessageReceived()
	MessageDropped(reason DropReason)
	ReadingForwarded(took time.Duration)
}

type NopMetrics struct{}

func (NopMetrics) MessageReceived()               {}
func (NopMetrics) MessageDropped(DropReason)      {}
func (NopMetrics) ReadingForwarded(time.Duration) {}

var _ Metrics = NopMetrics{}
