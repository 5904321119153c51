package hass

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Connection is the backend a card resolves values against: REST for entity
// state and as the fallback template transport, WebSocket as the primary one.
// Every Connection carries a fresh ID so holders can notice when it is replaced.
type Connection struct {
	id     string
	rest   *Client
	socket *Socket
}

// Dial builds a Connection for baseURL. The WebSocket is opened lazily.
func Dial(baseURL, token string, log *zap.SugaredLogger) (*Connection, error) {
	rest, err := NewClient(baseURL, token)
	if err != nil {
		return nil, fmt.Errorf("init rest client: %w", err)
	}
	socket, err := NewSocket(baseURL, token, log)
	if err != nil {
		return nil, fmt.Errorf("init websocket client: %w", err)
	}
	return &Connection{id: uuid.NewString(), rest: rest, socket: socket}, nil
}

// ID identifies this connection instance.
func (c *Connection) ID() string {
	return c.id
}

// BaseURL returns the instance URL.
func (c *Connection) BaseURL() string {
	return c.rest.BaseURL().String()
}

// Ping checks the REST API.
func (c *Connection) Ping(ctx context.Context) error {
	return c.rest.Ping(ctx)
}

// State looks up entityID; ErrNotFound means the backend has no such entity.
func (c *Connection) State(ctx context.Context, entityID string) (State, error) {
	return c.rest.State(ctx, entityID)
}

// RenderTemplate uses the WebSocket transport.
func (c *Connection) RenderTemplate(ctx context.Context, template string) (string, error) {
	return c.socket.RenderTemplate(ctx, template)
}

// RenderTemplateFallback uses the REST transport.
func (c *Connection) RenderTemplateFallback(ctx context.Context, template string) (string, error) {
	return c.rest.RenderTemplate(ctx, template)
}

// Close releases the WebSocket.
func (c *Connection) Close() error {
	return c.socket.Close()
}
