package config

import "time"

// Timing groups the daemon's cadence knobs. These are code-level defaults
// rather than file configuration: they encode protocol behavior (how fast the
// delivery loop spins, how often the device link is retried, how websocket
// liveness is probed) that operators should not normally touch.
type Timing struct {
	// DeliveryInterval is the idle delay between fan-out delivery cycles.
	DeliveryInterval time.Duration

	// ReconnectDelay is the pause between device open attempts.
	ReconnectDelay time.Duration

	// WriteWait bounds a single websocket write.
	WriteWait time.Duration
	// PongWait is how long a subscriber may stay silent before it is
	// considered gone; PingPeriod must be shorter.
	PongWait   time.Duration
	PingPeriod time.Duration

	// ShutdownTimeout bounds graceful HTTP server shutdown.
	ShutdownTimeout time.Duration
}

// DefaultTiming returns the baseline cadence values.
func DefaultTiming() Timing {
	return Timing{
		DeliveryInterval: 10 * time.Millisecond,
		ReconnectDelay:   2 * time.Second,
		WriteWait:        10 * time.Second,
		PongWait:         60 * time.Second,
		PingPeriod:       54 * time.Second, // under PongWait so pings keep the link alive
		ShutdownTimeout:  5 * time.Second,
	}
}
