package hass

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	handshakeTimeout = 5 * time.Second
	writeTimeout     = 5 * time.Second
	dialRetries      = 3
)

// ErrSocketClosed is returned to in-flight requests when the connection drops.
var ErrSocketClosed = errors.New("websocket closed")

// Socket renders templates over the Home Assistant WebSocket API. The
// connection is opened lazily, authenticated once and shared by all callers.
type Socket struct {
	url        string
	token      string
	dialer     *websocket.Dialer
	log        *zap.SugaredLogger
	newBackOff func() backoff.BackOff

	dialMu sync.Mutex

	mu      sync.Mutex
	conn    *websocket.Conn
	nextID  int
	pending map[int]chan wsMessage

	writeMu sync.Mutex
}

// NewSocket prepares a Socket for the instance at baseURL. No connection is
// made until the first request.
func NewSocket(baseURL, token string, log *zap.SugaredLogger) (*Socket, error) {
	base, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Socket{
		url:    websocketURL(base),
		token:  token,
		dialer: &websocket.Dialer{HandshakeTimeout: handshakeTimeout},
		log:    log,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 250 * time.Millisecond
			b.MaxInterval = 2 * time.Second
			b.MaxElapsedTime = 5 * time.Second
			return backoff.WithMaxRetries(b, dialRetries)
		},
		pending: make(map[int]chan wsMessage),
	}, nil
}

// RenderTemplate subscribes to template, waits for the first rendered value
// and unsubscribes again.
func (s *Socket) RenderTemplate(ctx context.Context, template string) (string, error) {
	conn, err := s.connection(ctx)
	if err != nil {
		return "", err
	}

	id, ch := s.register()
	defer s.forget(id)

	req := wsMessage{ID: id, Type: "render_template", Template: template, ReportErrors: true}
	if err := s.write(conn, req); err != nil {
		return "", fmt.Errorf("send render_template: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			s.unsubscribe(conn, id)
			return "", ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return "", ErrSocketClosed
			}
			switch msg.Type {
			case "result":
				if msg.Success != nil && !*msg.Success {
					return "", fmt.Errorf("render_template rejected: %s", errorText(msg))
				}
			case "event":
				if msg.Event == nil {
					continue
				}
				if msg.Event.Error != "" {
					// Warnings are followed by a rendered value; errors are not.
					if msg.Event.Level == "WARNING" {
						s.log.Debugw("template warning", "template", template, "warning", msg.Event.Error)
						continue
					}
					s.unsubscribe(conn, id)
					return "", fmt.Errorf("render_template: %s", msg.Event.Error)
				}
				s.unsubscribe(conn, id)
				return stringify(msg.Event.Result), nil
			}
		}
	}
}

// Close drops the connection; in-flight requests fail with ErrSocketClosed.
func (s *Socket) Close() error {
	s.mu.Lock()
	conn := s.conn
	s.conn = nil
	s.closePendingLocked()
	s.mu.Unlock()

	if conn == nil {
		return nil
	}
	s.writeMu.Lock()
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	s.writeMu.Unlock()
	return conn.Close()
}

func (s *Socket) connection(ctx context.Context) (*websocket.Conn, error) {
	s.dialMu.Lock()
	defer s.dialMu.Unlock()

	s.mu.Lock()
	if s.conn != nil {
		conn := s.conn
		s.mu.Unlock()
		return conn, nil
	}
	s.mu.Unlock()

	var conn *websocket.Conn
	op := func() error {
		c, err := s.dial(ctx)
		if err != nil {
			return err
		}
		conn = c
		return nil
	}
	notify := func(err error, wait time.Duration) {
		s.log.Debugw("websocket dial failed", "url", s.url, "error", err, "retry_in", wait)
	}
	if err := backoff.RetryNotify(op, backoff.WithContext(s.newBackOff(), ctx), notify); err != nil {
		return nil, fmt.Errorf("connect websocket: %w", err)
	}

	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()
	s.log.Infow("websocket connected", "url", s.url)

	go s.readLoop(conn)
	return conn, nil
}

func (s *Socket) dial(ctx context.Context) (*websocket.Conn, error) {
	conn, _, err := s.dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return nil, err
	}
	_ = conn.SetReadDeadline(time.Now().Add(handshakeTimeout))

	var hello wsMessage
	if err := conn.ReadJSON(&hello); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("read auth_required: %w", err)
	}
	if hello.Type != "auth_required" {
		_ = conn.Close()
		return nil, fmt.Errorf("unexpected handshake message %q", hello.Type)
	}
	if err := conn.WriteJSON(wsMessage{Type: "auth", AccessToken: s.token}); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("send auth: %w", err)
	}
	var reply wsMessage
	if err := conn.ReadJSON(&reply); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("read auth reply: %w", err)
	}
	switch reply.Type {
	case "auth_ok":
	case "auth_invalid":
		_ = conn.Close()
		return nil, backoff.Permanent(fmt.Errorf("%w: %s", ErrUnauthorized, reply.Message))
	default:
		_ = conn.Close()
		return nil, fmt.Errorf("unexpected auth reply %q", reply.Type)
	}

	_ = conn.SetReadDeadline(time.Time{})
	return conn, nil
}

func (s *Socket) readLoop(conn *websocket.Conn) {
	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			s.drop(conn, err)
			return
		}
		s.dispatch(msg)
	}
}

func (s *Socket) dispatch(msg wsMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch, ok := s.pending[msg.ID]
	if !ok {
		return
	}
	// Sent under the lock so drop cannot close ch concurrently.
	select {
	case ch <- msg:
	default:
		s.log.Debugw("dropping websocket message for busy subscriber", "id", msg.ID, "type", msg.Type)
	}
}

func (s *Socket) register() (int, chan wsMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	ch := make(chan wsMessage, 4)
	s.pending[s.nextID] = ch
	return s.nextID, ch
}

func (s *Socket) forget(id int) {
	s.mu.Lock()
	delete(s.pending, id)
	s.mu.Unlock()
}

func (s *Socket) unsubscribe(conn *websocket.Conn, subscription int) {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.mu.Unlock()
	if err := s.write(conn, wsMessage{ID: id, Type: "unsubscribe_events", Subscription: subscription}); err != nil {
		s.log.Debugw("unsubscribe failed", "subscription", subscription, "error", err)
	}
}

func (s *Socket) write(conn *websocket.Conn, msg wsMessage) error {
	s.writeMu.Lock()
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	err := conn.WriteJSON(msg)
	s.writeMu.Unlock()
	if err != nil {
		s.drop(conn, err)
	}
	return err
}

// drop forgets conn if it is still the active connection and fails every
// pending request.
func (s *Socket) drop(conn *websocket.Conn, cause error) {
	s.mu.Lock()
	active := s.conn == conn
	if active {
		s.conn = nil
		s.closePendingLocked()
	}
	s.mu.Unlock()

	if active {
		s.log.Warnw("websocket disconnected", "url", s.url, "error", cause)
	}
	_ = conn.Close()
}

func (s *Socket) closePendingLocked() {
	for id, ch := range s.pending {
		close(ch)
		delete(s.pending, id)
	}
}

func errorText(msg wsMessage) string {
	if msg.Error != nil {
		if msg.Error.Message != "" {
			return msg.Error.Message
		}
		return msg.Error.Code
	}
	return "unknown error"
}

func websocketURL(base *url.URL) string {
	u := *base
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = "/api/websocket"
	return u.String()
}
