package server

import (
	"context"
	"log/slog"
	"net/http"
	"runtime/debug"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ripple-dev/ripple/pkg/graph"
	"github.com/ripple-dev/ripple/pkg/middleware"
	"github.com/ripple-dev/ripple/pkg/session"
)

const (
	// maxMessageSize bounds inbound WebSocket messages.
	maxMessageSize = 64 * 1024

	writeTimeout = 10 * time.Second
	pongTimeout  = 60 * time.Second
	pingInterval = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || origin == "http://"+r.Host || origin == "https://"+r.Host
	},
}

// liveClient is one WebSocket connection and its write lock.
type liveClient struct {
	conn   *websocket.Conn
	mu     sync.Mutex // protects conn writes
	logger *slog.Logger
}

func (c *liveClient) send(msg *ServerMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()

	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := c.conn.WriteJSON(msg); err != nil {
		c.logger.Warn("websocket write failed", "error", err)
		return
	}
	middleware.RecordWSMessage("out")
}

func (c *liveClient) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout))
}

// handleLive upgrades the connection, builds a session, and runs its
// event loop until the client goes away.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	client := &liveClient{conn: conn, logger: s.logger}

	sess, err := s.sessions.Create(func(sess *session.Session) error {
		surface := &wsSurface{client: client}
		return s.config.Build(sess, surface)
	})
	if err != nil {
		s.logger.Error("session build failed", "error", err)
		_ = conn.WriteJSON(&ServerMessage{
			Type:   MsgErrors,
			Errors: []WireError{{Message: "session setup failed"}},
		})
		return
	}
	middleware.RecordSessionCreate()
	defer func() {
		s.sessions.Close(sess.ID)
		middleware.RecordSessionDestroy()
	}()

	sess.OnPass(middleware.RecordPass)
	client.logger = sess.Logger()
	client.send(&ServerMessage{Type: MsgHello, SessionID: sess.ID})

	events := make(chan ClientMessage, s.config.MaxEventQueue)
	done := make(chan struct{})
	go s.readLoop(conn, events, done)

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg := <-events:
			s.handleEvent(r.Context(), sess, client, msg)
		case <-ticker.C:
			if err := client.ping(); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

// readLoop pumps inbound messages into the event queue. Messages that
// arrive while the queue is full are dropped with a warning.
func (s *Server) readLoop(conn *websocket.Conn, events chan<- ClientMessage, done chan<- struct{}) {
	defer close(done)

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongTimeout))
	})

	for {
		var msg ClientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("websocket read failed", "error", err)
			}
			return
		}
		middleware.RecordWSMessage("in")

		select {
		case events <- msg:
		default:
			s.logger.Warn("event queue full, dropping message", "key", msg.Key)
		}
	}
}

// handleEvent applies one client message and drains the resulting passes.
func (s *Server) handleEvent(ctx context.Context, sess *session.Session, client *liveClient, msg ClientMessage) {
	defer func() {
		if r := recover(); r != nil {
			sess.Logger().Error("event handler panic",
				"panic", r,
				"stack", string(debug.Stack()))
			client.send(&ServerMessage{
				Type:   MsgErrors,
				Errors: []WireError{{Message: "internal error"}},
			})
		}
	}()

	if msg.Type != MsgSet {
		sess.Logger().Warn("unknown message type", "type", msg.Type)
		return
	}

	if err := sess.Set(msg.Key, msg.Value); err != nil {
		client.send(&ServerMessage{
			Type:   MsgErrors,
			Errors: []WireError{{Node: msg.Key, Message: err.Error()}},
		})
		return
	}

	if s.config.EnableTracing {
		_, span := middleware.StartPass(ctx, sess.ID)
		results := sess.Flush()
		middleware.EndPass(span, results)
		reportErrors(client, results)
		return
	}
	reportErrors(client, sess.Flush())
}

// reportErrors forwards node failures from a drain to the client.
func reportErrors(client *liveClient, results []*graph.PassResult) {
	var wireErrs []WireError
	for _, result := range results {
		for _, ne := range result.Errors {
			wireErrs = append(wireErrs, WireError{Node: ne.Key, Message: ne.Err.Error()})
		}
	}
	if len(wireErrs) > 0 {
		client.send(&ServerMessage{Type: MsgErrors, Errors: wireErrs})
	}
}
