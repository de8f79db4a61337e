package gateway

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"blackjack-lite/apps/server/internal/codec"
	"blackjack-lite/apps/server/internal/engine"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 65536
	submitTimeout  = 5 * time.Second
)

// Submitter is the part of the engine the gateway drives.
type Submitter interface {
	Submit(ctx context.Context, intent engine.Intent) error
	// Post enqueues without a deadline; used for Disconnect.
	Post(intent engine.Intent)
}

type Options struct {
	// AllowedOrigins restricts the websocket upgrade. Empty allows any origin.
	AllowedOrigins []string
	SendBuffer     int
}

// Connection represents a WebSocket client connection
type Connection struct {
	ID      string
	conn    *websocket.Conn
	send    chan []byte
	gateway *Gateway
	remote  string
}

// Gateway owns the sockets. It turns client frames into engine intents and
// implements engine.Sender for the way back.
type Gateway struct {
	mu          sync.RWMutex
	connections map[string]*Connection
	engine      Submitter
	upgrader    websocket.Upgrader
	sendBuffer  int
	logger      *zap.Logger
}

func New(eng Submitter, opts Options, logger *zap.Logger) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = 256
	}
	g := &Gateway{
		connections: make(map[string]*Connection),
		engine:      eng,
		sendBuffer:  opts.SendBuffer,
		logger:      logger.Named("gateway"),
	}
	g.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     originChecker(opts.AllowedOrigins),
	}
	return g
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[strings.TrimRight(strings.ToLower(o), "/")] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := strings.ToLower(r.Header.Get("Origin"))
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}

// HandleWebSocket handles WebSocket upgrade and connection
func (g *Gateway) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Warn("upgrade failed", zap.String("remote", r.RemoteAddr), zap.Error(err))
		return
	}

	c := &Connection{
		ID:      uuid.NewString(),
		conn:    conn,
		send:    make(chan []byte, g.sendBuffer),
		gateway: g,
		remote:  r.RemoteAddr,
	}
	g.mu.Lock()
	g.connections[c.ID] = c
	total := len(g.connections)
	g.mu.Unlock()

	g.logger.Info("client connected",
		zap.String("conn_id", c.ID),
		zap.String("remote", c.remote),
		zap.Int("total", total))

	go c.readPump()
	go c.writePump()
}

// SendTo queues data for connID without blocking. It reports false when the
// connection is gone or its buffer is full.
func (g *Gateway) SendTo(connID string, data []byte) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	c, ok := g.connections[connID]
	if !ok {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// Count returns the number of open sockets.
func (g *Gateway) Count() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.connections)
}

// CloseAll closes every socket; their read pumps then report the disconnects.
func (g *Gateway) CloseAll() {
	g.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(g.connections))
	for _, c := range g.connections {
		conns = append(conns, c.conn)
	}
	g.mu.RUnlock()
	for _, conn := range conns {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(time.Second))
		_ = conn.Close()
	}
}

func (g *Gateway) removeConnection(c *Connection) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.connections[c.ID]; !ok {
		return false
	}
	delete(g.connections, c.ID)
	close(c.send)
	g.logger.Info("client disconnected",
		zap.String("conn_id", c.ID),
		zap.Int("total", len(g.connections)))
	return true
}

func (c *Connection) readPump() {
	defer func() {
		if c.gateway.removeConnection(c) {
			c.gateway.engine.Post(engine.Disconnect{ConnID: c.ID})
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.gateway.logger.Debug("read error", zap.String("conn_id", c.ID), zap.Error(err))
			}
			return
		}
		c.handleMessage(message)
	}
}

func (c *Connection) handleMessage(data []byte) {
	env, err := codec.Decode(data)
	if err != nil {
		c.gateway.logger.Debug("bad frame", zap.String("conn_id", c.ID), zap.Error(err))
		c.sendError(ErrMalformed)
		return
	}
	intent, err := IntentFor(c.ID, env)
	if err != nil {
		c.sendError(err)
		return
	}
	if err := c.gateway.submit(intent); err != nil {
		c.sendError(err)
	}
}

func (g *Gateway) submit(intent engine.Intent) error {
	ctx, cancel := context.WithTimeout(context.Background(), submitTimeout)
	defer cancel()
	return g.engine.Submit(ctx, intent)
}

func (c *Connection) sendError(err error) {
	data, encErr := codec.Encode(codec.EventError, engine.ErrorPayload(err))
	if encErr != nil {
		return
	}
	c.gateway.SendTo(c.ID, data)
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
