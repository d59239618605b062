package wssession

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/fasthttp/websocket"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// Coordinator drives a single connection attempt. It turns the transport's asynchronous
// callbacks into a blocking AwaitOpen followed by synchronous Send and Close calls.
//
// A Coordinator is single use: once Closed or Errored it stays there, and reconnecting takes a
// new Coordinator.
type Coordinator struct {
	id        string
	transport Transport
	logger    logger
	emitter   *EventEmitterCallback[EventType, Event]
	gate      *openGate
	metrics   *metrics

	header         http.Header
	openTimeout    time.Duration
	messageHandler MessageHandler
	registerer     prometheus.Registerer

	mu       sync.Mutex
	state    State
	endpoint url.URL
	lastErr  error

	releaseOnce sync.Once
}

// New builds an idle session and registers it as the event handler of the transport produced by
// factory.
func New(factory TransportFactory, opts ...Option) (*Coordinator, error) {
	c := &Coordinator{
		id:          uuid.NewString(),
		logger:      noopLogger{},
		emitter:     NewEventEmitter[EventType, Event](),
		gate:        newOpenGate(),
		metrics:     newMetrics(),
		openTimeout: DefaultOpenTimeout,
		state:       StateIdle,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.registerer != nil {
		if err := c.metrics.register(c.registerer); err != nil {
			return nil, errors.Wrap(err, "cannot register session metrics")
		}
	}

	c.logger = c.logger.WithField("session", c.id)

	if factory == nil {
		factory = NoopTransportFactory
	}
	c.transport = factory(c)

	return c, nil
}

func (c *Coordinator) ID() string {
	return c.id
}

func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state
}

// Endpoint returns the URL given to Connect, or the zero URL before that.
func (c *Coordinator) Endpoint() url.URL {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.endpoint
}

// Err returns the last error reported by the transport, wrapped as *TransportError.
func (c *Coordinator) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.lastErr
}

// On registers listener for event. Listeners are called on the goroutine that produced the
// event and must not block.
func (c *Coordinator) On(event EventType, listener func(Event)) {
	c.emitter.On(event, listener)
}

// Connect validates endpoint and starts the handshake without waiting for it.
func (c *Coordinator) Connect(ctx context.Context, endpoint string) error {
	u, err := parseEndpoint(endpoint)
	if err != nil {
		c.log().Errorf("refusing to connect: %s", err)
		return err
	}

	c.mu.Lock()
	if c.state != StateIdle {
		state := c.state
		c.mu.Unlock()
		return errors.Wrapf(ErrAlreadyStarted, "session is %s", state)
	}
	c.endpoint = *u
	c.logger = c.logger.WithField("endpoint", u.String())
	c.setState(StateConnecting)
	c.mu.Unlock()

	c.log().Debugf("connecting to %s", u.String())

	params := OpenConnectionParams{URL: *u, Header: c.header.Clone()}
	if err := c.transport.Connect(ctx, params); err != nil {
		c.log().Errorf("transport refused to start: %s", err)
		if failure := c.fail(err); failure != nil {
			return failure
		}
		return newConnectionFailedError(err)
	}

	return nil
}

// AwaitOpen blocks until the handshake completes or fails. When ctx has no deadline the session
// open timeout applies, unless it was disabled with WithOpenTimeout(0). After the outcome is
// known every call returns it immediately.
func (c *Coordinator) AwaitOpen(ctx context.Context) error {
	if _, ok := ctx.Deadline(); !ok && c.openTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.openTimeout)
		defer cancel()
	}

	return c.gate.wait(ctx)
}

// Send queues a text frame with payload.
func (c *Coordinator) Send(payload string) error {
	return c.SendMessage(NewTextMessage(payload))
}

func (c *Coordinator) SendMessage(m Message) error {
	c.mu.Lock()
	state := c.state
	c.mu.Unlock()

	if state != StateOpen {
		return errors.Wrapf(ErrNotOpen, "session is %s", state)
	}

	if err := c.transport.Send(m); err != nil {
		c.log().Warnf("cannot send %s: %s", m.Type(), err)
		return err
	}

	c.metrics.sent.Inc()
	c.log().Debugf("=> %s", m)

	return nil
}

// Close ends the session from any state. Pending AwaitOpen calls fail with ErrConnectionFailed.
// Closing a session that is already Closed or Errored only makes sure the transport is released.
func (c *Coordinator) Close(reason string) error {
	c.mu.Lock()
	from := c.state
	if from.IsTerminal() {
		c.mu.Unlock()
		return c.release(reason)
	}
	c.setState(StateClosed)
	c.gate.signal(newConnectionFailedError(errors.New("closed before open")))
	c.mu.Unlock()

	c.log().Infof("closing session: %s", reason)

	var err error
	if from == StateIdle {
		// nothing was dialed
		c.releaseOnce.Do(func() {})
	} else {
		err = c.release(reason)
	}

	c.emitter.Emit(EventClose, Event{
		Type:   EventClose,
		Code:   websocket.CloseNormalClosure,
		Reason: reason,
	})

	return err
}

func (c *Coordinator) OnOpen() {
	c.mu.Lock()
	if c.state != StateConnecting {
		state := c.state
		c.mu.Unlock()
		c.log().Debugf("ignoring open while %s", state)
		return
	}
	c.setState(StateOpen)
	c.gate.signal(nil)
	c.mu.Unlock()

	c.log().Infof("connected")
	c.emitter.Emit(EventOpen, Event{Type: EventOpen})
}

func (c *Coordinator) OnMessage(m Message) {
	if c.State() != StateOpen {
		c.log().Debugf("dropping %s received outside open state", m.Type())
		return
	}

	c.metrics.received.Inc()
	c.log().Debugf("<= %s", m)

	if c.messageHandler != nil {
		c.messageHandler(c, m)
	}
	c.emitter.Emit(EventMessage, Event{Type: EventMessage, Message: m})
}

func (c *Coordinator) OnClose(code int, reason string, remote bool) {
	c.mu.Lock()
	if c.state.IsTerminal() {
		c.mu.Unlock()
		return
	}
	c.setState(StateClosed)
	c.gate.signal(newConnectionFailedError(errors.Errorf("closed before open: code=%d reason=%q", code, reason)))
	c.mu.Unlock()

	c.log().Infof("connection closed: code=%d reason=%q remote=%t", code, reason, remote)
	c.emitter.Emit(EventClose, Event{
		Type:   EventClose,
		Code:   code,
		Reason: reason,
		Remote: remote,
	})
}

func (c *Coordinator) OnError(err error) {
	if err == nil {
		err = errors.New("unspecified transport error")
	}
	if c.fail(err) == nil {
		c.log().Debugf("ignoring late transport error: %s", err)
		return
	}

	c.emitter.Emit(EventError, Event{Type: EventError, Err: c.Err()})
}

// fail moves a live session to Errored and completes the gate with the failure. It returns that
// failure, or nil when the session had already ended.
func (c *Coordinator) fail(err error) error {
	c.mu.Lock()
	if c.state.IsTerminal() {
		c.mu.Unlock()
		return nil
	}
	te := wrapTransportError(err, c.endpoint)
	c.lastErr = te
	c.setState(StateErrored)
	failure := newConnectionFailedError(te)
	c.gate.signal(failure)
	c.mu.Unlock()

	c.log().Errorf("transport error: %s", err)

	return failure
}

func (c *Coordinator) log() logger {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.logger
}

// setState must be called with c.mu held. Transitions the state machine does not allow are
// refused.
func (c *Coordinator) setState(next State) bool {
	from := c.state
	if !from.CanTransition(next) {
		c.logger.Warnf("refusing transition from %s to %s", from, next)
		return false
	}
	c.state = next
	c.metrics.transition(from, next)
	return true
}

func (c *Coordinator) release(reason string) (err error) {
	c.releaseOnce.Do(func() {
		err = c.transport.Close(websocket.CloseNormalClosure, reason)
	})
	return
}

func parseEndpoint(endpoint string) (*url.URL, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidEndpoint, err.Error())
	}

	switch u.Scheme {
	case "ws", "wss":
	default:
		return nil, errors.Wrapf(ErrInvalidEndpoint, "unsupported scheme %q in %q", u.Scheme, endpoint)
	}

	if u.Host == "" || u.Hostname() == "" {
		return nil, errors.Wrapf(ErrInvalidEndpoint, "missing host in %q", endpoint)
	}

	return u, nil
}
