package application

import "context"

// Forwarder delivers one reading to the storage API. Failures are returned
// as *ForwardError and are never retried by the caller.
type Forwarder interface {
	Forward(ctx context.Context, reading Reading) error
}
