package wssession

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DefaultOpenTimeout bounds AwaitOpen when the caller's context has no deadline.
const DefaultOpenTimeout = 10 * time.Second

type Option func(*Coordinator)

func WithLogger(l logger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithOpenTimeout sets the bound applied by AwaitOpen when its context carries no deadline.
// Zero or a negative value disables the bound and AwaitOpen may block until the gate fires.
func WithOpenTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		c.openTimeout = d
	}
}

// WithHeader adds a request header sent with the handshake.
func WithHeader(key, value string) Option {
	return func(c *Coordinator) {
		if c.header == nil {
			c.header = make(http.Header)
		}
		c.header.Add(key, value)
	}
}

// WithMessageHandler registers h for every message received while the session is open.
func WithMessageHandler(h MessageHandler) Option {
	return func(c *Coordinator) {
		c.messageHandler = h
	}
}

// WithMetrics registers the session counters on reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(c *Coordinator) {
		c.registerer = reg
	}
}
