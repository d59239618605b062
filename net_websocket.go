package wssession

import (
	"context"
	"io"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fasthttp/websocket"
	"github.com/pkg/errors"
)

const defaultWriteTimeout = time.Second

type (
	CloseChan chan struct{}

	ErrAdapter func(*websocket.Conn, *http.Response, error) error

	KeepAliveMessageFactory func() Message

	TransportOption func(*WsTransport)

	// WsTransport is the Transport backed by fasthttp/websocket. The handshake runs on its own
	// goroutine; once open, one goroutine reads frames and another one writes them.
	WsTransport struct {
		handler                 EventHandler
		logger                  logger
		dialer                  *websocket.Dialer
		onDialErr               ErrAdapter
		writeTimeout            time.Duration
		pingInterval            time.Duration
		keepAliveMessageFactory KeepAliveMessageFactory

		mu         sync.Mutex
		started    bool
		conn       *websocket.Conn
		cancelDial context.CancelFunc

		opened      atomic.Bool
		closedLocal atomic.Bool

		send            chan Message
		closeChan       CloseChan
		closeOnce       sync.Once
		closeReason     error
		closeReasonOnce sync.Once
	}
)

// WithWriteTimeout sets the deadline applied to every frame write.
func WithWriteTimeout(d time.Duration) TransportOption {
	return func(w *WsTransport) {
		if d > 0 {
			w.writeTimeout = d
		}
	}
}

// WithHandshakeTimeout bounds the opening handshake. The dialer given to the factory is copied,
// not modified.
func WithHandshakeTimeout(d time.Duration) TransportOption {
	return func(w *WsTransport) {
		dialer := *w.dialer
		dialer.HandshakeTimeout = d
		w.dialer = &dialer
	}
}

// WithKeepAlive sends a ping frame every interval while the connection is open.
func WithKeepAlive(interval time.Duration) TransportOption {
	return func(w *WsTransport) {
		w.pingInterval = interval
	}
}

// WithKeepAliveMessage replaces the frame sent by WithKeepAlive.
func WithKeepAliveMessage(factory KeepAliveMessageFactory) TransportOption {
	return func(w *WsTransport) {
		w.keepAliveMessageFactory = factory
	}
}

// WithDialErrorAdapter lets the caller classify handshake failures. A nil return means the dial
// succeeded.
func WithDialErrorAdapter(adapter ErrAdapter) TransportOption {
	return func(w *WsTransport) {
		w.onDialErr = adapter
	}
}

func NewWebsocketTransport(
	handler EventHandler,
	logger logger,
	dialer *websocket.Dialer,
	opts ...TransportOption,
) *WsTransport {
	if logger == nil {
		logger = noopLogger{}
	}
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}

	w := &WsTransport{
		handler:      handler,
		logger:       logger.WithField("net", "ws_transport"),
		dialer:       dialer,
		writeTimeout: defaultWriteTimeout,
		keepAliveMessageFactory: func() Message {
			return NewPingMessage(nil)
		},
		send:      make(chan Message),
		closeChan: make(CloseChan),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

func NewWebsocketTransportFactory(
	logger logger,
	dialer *websocket.Dialer,
	opts ...TransportOption,
) TransportFactory {
	return func(handler EventHandler) Transport {
		return NewWebsocketTransport(handler, logger, dialer, opts...)
	}
}

// Connect starts the handshake in the background. It can only be called once.
func (w *WsTransport) Connect(ctx context.Context, p OpenConnectionParams) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.started {
		return ErrAlreadyStarted
	}
	if w.isClosed() {
		return ErrConnectionClosed
	}

	w.started = true

	dialCtx, cancel := context.WithCancel(ctx)
	w.cancelDial = cancel

	go w.dial(dialCtx, cancel, p)

	return nil
}

// Send hands m to the writer goroutine.
func (w *WsTransport) Send(m Message) error {
	if !w.opened.Load() {
		return ErrNotOpen
	}
	if w.isClosed() {
		return w.closeErrOr(ErrConnectionClosed)
	}

	select {
	case <-w.closeChan:
		return w.closeErrOr(ErrConnectionClosed)
	case w.send <- m:
		return nil
	}
}

// Close sends a close frame when connected and tears the connection down. A handshake still in
// flight is cancelled. No event is reported for a close started here.
func (w *WsTransport) Close(code int, reason string) (err error) {
	w.closeOnce.Do(func() {
		w.closedLocal.Store(true)
		w.setCloseReason(ErrConnectionClosed)

		w.mu.Lock()
		conn, cancel := w.conn, w.cancelDial
		close(w.closeChan)
		w.mu.Unlock()

		if cancel != nil {
			cancel()
		}

		if conn == nil {
			return
		}

		w.logger.Infof("closing connection from our side: code=%d reason=%q", code, reason)
		deadline := time.Now().Add(w.writeTimeout)
		if werr := conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline); werr != nil &&
			!errors.Is(werr, websocket.ErrCloseSent) {
			w.logger.Debugf("cannot write close frame: %s", werr)
		}
		err = conn.Close()
	})

	return
}

// CloseChan is closed once the connection is torn down, whatever the cause.
func (w *WsTransport) CloseChan() CloseChan {
	return w.closeChan
}

// CloseErr returns why the connection ended.
func (w *WsTransport) CloseErr() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.closeReason
}

func (w *WsTransport) dial(ctx context.Context, cancel context.CancelFunc, p OpenConnectionParams) {
	defer cancel()

	conn, resp, err := w.dialer.DialContext(ctx, p.URL.String(), p.Header)

	err = w.handleDialError(conn, resp, err)
	if err == nil && conn == nil {
		err = errors.Wrap(ErrCannotConnect, "dial reported success without a connection")
	}
	if err != nil {
		if w.closedLocal.Load() {
			return
		}
		w.logger.Errorf("connection err to %s: %s", p.URL.String(), err)
		w.setCloseReason(err)
		w.shutdown()
		w.handler.OnError(err)
		return
	}

	w.mu.Lock()
	if w.isClosed() {
		w.mu.Unlock()
		_ = conn.Close()
		return
	}
	w.conn = conn
	w.mu.Unlock()

	w.logger.Debugf("success opening connection to %s", p.URL.String())

	conn.SetPingHandler(func(appData string) error {
		w.logger.Debugln("<= [PING]")
		w.handler.OnMessage(NewPingMessage([]byte(appData)))
		err := conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(w.writeTimeout))
		if errors.Is(err, websocket.ErrCloseSent) {
			return nil
		}
		if e, ok := err.(net.Error); ok && e.Timeout() {
			return nil
		}
		return err
	})

	conn.SetPongHandler(func(appData string) error {
		w.logger.Debugln("<= [PONG]")
		w.handler.OnMessage(NewPongMessage([]byte(appData)))
		return nil
	})

	w.opened.Store(true)

	go w.write(conn)

	w.handler.OnOpen()

	go w.read(conn)

	if w.pingInterval > 0 {
		go w.keepAlive()
	}
}

func (w *WsTransport) read(conn *websocket.Conn) {
	for {
		messageType, bts, err := conn.ReadMessage()
		if err != nil {
			if w.closedLocal.Load() {
				return
			}

			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) {
				w.logger.Debugf("<= [CLOSE] %d %s", closeErr.Code, closeErr.Text)
				w.setCloseReason(ErrConnectionClosed)
				w.shutdown()
				w.handler.OnClose(closeErr.Code, closeErr.Text, true)
				return
			}

			w.logger.Errorf("error occurred on websocket read: %s", err)
			wrapped := errors.Wrap(ErrConnectionClosed, "error occurred on websocket read: "+err.Error())
			w.setCloseReason(wrapped)
			w.shutdown()
			w.handler.OnError(wrapped)
			return
		}

		// message types from ReadMessage are either binary or text
		switch messageType {
		case websocket.BinaryMessage:
			w.logger.Debugln("<= [BIN]")
			w.handler.OnMessage(NewBinaryMessage(bts))
		default:
			w.logger.Debugf("<= [DATA] %s", string(bts))
			w.handler.OnMessage(NewTextMessage(string(bts)))
		}
	}
}

func (w *WsTransport) write(conn *websocket.Conn) {
	for {
		select {
		case <-w.closeChan:
			return
		case msg := <-w.send:
			deadline := time.Now().Add(w.writeTimeout)
			_ = conn.SetWriteDeadline(deadline)

			var err error

			switch msg.Type() {
			case PingMessage:
				w.logger.Debugln("=> [PING]")
				err = conn.WriteControl(websocket.PingMessage, msg.Data(), deadline)
				if e, ok := err.(net.Error); ok && e.Timeout() {
					err = nil
				}
			case PongMessage:
				w.logger.Debugln("=> [PONG]")
				err = conn.WriteControl(websocket.PongMessage, msg.Data(), deadline)
			case CloseMessage:
				code := websocket.CloseNormalClosure
				if cf, ok := msg.(CloseFrame); ok {
					code = cf.Code
				}
				w.logger.Debugln("=> [CLOSE]")
				err = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, msg.Text()), deadline)
			case BinaryMessage:
				w.logger.Debugln("=> [BIN]")
				err = conn.WriteMessage(websocket.BinaryMessage, msg.Data())
			default:
				w.logger.Infof("=> [DATA] %s", msg.Data())
				err = conn.WriteMessage(websocket.TextMessage, msg.Data())
			}

			if err != nil {
				if w.closedLocal.Load() {
					return
				}
				if websocket.IsCloseError(err,
					websocket.CloseGoingAway,
					websocket.CloseAbnormalClosure,
				) {
					err = ErrConnectionClosed
				} else {
					err = errors.Wrap(ErrConnectionClosed, err.Error())
				}
				w.setCloseReason(err)
				w.shutdown()
				w.handler.OnError(err)
				return
			}
		}
	}
}

func (w *WsTransport) keepAlive() {
	ticker := time.NewTicker(w.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.closeChan:
			return
		case <-ticker.C:
			if err := w.Send(w.keepAliveMessageFactory()); err != nil {
				return
			}
		}
	}
}

// shutdown tears the connection down without a close handshake. Used when the connection is
// already gone.
func (w *WsTransport) shutdown() {
	w.closeOnce.Do(func() {
		w.mu.Lock()
		conn := w.conn
		close(w.closeChan)
		w.mu.Unlock()

		if conn != nil {
			_ = conn.Close()
		}
	})
}

// isClosed must be called with w.mu held, or after the transport stopped.
func (w *WsTransport) isClosed() bool {
	select {
	case <-w.closeChan:
		return true
	default:
		return false
	}
}

func (w *WsTransport) setCloseReason(err error) {
	w.closeReasonOnce.Do(func() {
		w.mu.Lock()
		w.closeReason = err
		w.mu.Unlock()
	})
}

func (w *WsTransport) closeErrOr(fallback error) error {
	if err := w.CloseErr(); err != nil {
		return err
	}
	return fallback
}

func (w *WsTransport) handleDialError(conn *websocket.Conn, resp *http.Response, err error) error {
	if w.onDialErr != nil {
		return w.onDialErr(conn, resp, err)
	}

	if err == nil {
		return nil
	}

	// 1. Check HTTP errors first
	var msg string

	if resp != nil {
		if resp.Body != nil {
			bts, rerr := io.ReadAll(resp.Body)
			if rerr == nil {
				msg = string(bts)
			}
		}
		if resp.StatusCode == http.StatusTooManyRequests {
			return errors.Wrap(ErrRateLimit, msg)
		}
	}

	// 2. Network errors
	return errors.Wrap(ErrCannotConnect, err.Error())
}
