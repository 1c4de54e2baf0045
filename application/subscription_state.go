package application

type SubscriptionState int32

const (
	StateUninitialized SubscriptionState = iota
	StateConnecting
	StateSubscribed
	StateDisconnected
)

func (s SubscriptionState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateConnecting:
		return "connecting"
	case StateSubscribed:
		return "subscribed"
	case StateDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}
