package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/yourusername/bgrules/pkg/engine"
)

const (
	wsBuffer       = 256
	wsWriteWait    = 10 * time.Second
	wsPongWait     = 60 * time.Second
	wsPingPeriod   = (wsPongWait * 9) / 10
	wsMaxMessageSz = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // local presentation clients are served from any origin
	},
}

// WSClient is one WebSocket connection bound to a game.
type WSClient struct {
	conn     *websocket.Conn
	handlers *Handlers
	session  *Session
	send     chan WSResponse
	done     chan struct{}
}

// WebSocket handles /api/games/{id}/ws. The client sends intents and
// receives their replies plus every event of the game as it happens.
func (h *Handlers) WebSocket(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	if h.pool != nil {
		if !h.pool.TryAcquireStream() {
			writeError(w, http.StatusServiceUnavailable, "too many open streams", "SERVER_BUSY")
			return
		}
		defer h.pool.ReleaseStream()
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "game", s.ID, "error", err)
		return
	}
	h.logger.Debug("websocket connected", "game", s.ID, "remote", r.RemoteAddr)

	feed, cancel := s.Watch(wsBuffer)
	client := &WSClient{
		conn:     conn,
		handlers: h,
		session:  s,
		send:     make(chan WSResponse, wsBuffer),
		done:     make(chan struct{}),
	}
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		client.writePump(feed)
	}()

	client.reply(client.state(""))
	client.readPump()

	close(client.done)
	cancel()
	<-finished
	h.logger.Debug("websocket closed", "game", s.ID)
}

// writePump is the connection's only writer.
func (c *WSClient) writePump(feed <-chan engine.Event) {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		var msg WSResponse
		select {
		case <-c.done:
			return
		case msg = <-c.send:
		case ev, ok := <-feed:
			if !ok {
				c.write(WSResponse{Type: "closed"})
				return
			}
			msg = WSResponse{Type: "event", Event: &ev}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
			continue
		}
		if err := c.write(msg); err != nil {
			return
		}
	}
}

func (c *WSClient) write(msg WSResponse) error {
	c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return c.conn.WriteJSON(msg)
}

func (c *WSClient) readPump() {
	defer c.conn.Close()
	c.conn.SetReadLimit(wsMaxMessageSz)
	c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
		return nil
	})

	for {
		var msg WSMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
		c.reply(c.handleMessage(msg))
	}
}

// reply queues msg unless the writer has gone away.
func (c *WSClient) reply(msg WSResponse) {
	select {
	case c.send <- msg:
	case <-c.done:
	}
}

func (c *WSClient) state(id string) WSResponse {
	g := gameResponse(c.session)
	return WSResponse{Type: "state", ID: id, Game: &g}
}

func (c *WSClient) fail(id string, err error) WSResponse {
	_, body := classify(err)
	return WSResponse{Type: "error", ID: id, Error: body.Error, Code: body.Code, Reason: body.Reason}
}

func (c *WSClient) handleMessage(msg WSMessage) WSResponse {
	g := c.session.Game
	m := c.handlers.metrics
	c.session.touch(time.Now())

	var err error
	switch msg.Type {
	case "roll":
		if _, err = g.RequestRoll(); err == nil {
			m.observeRoll()
		}
	case "move":
		var mv engine.Move
		if mv, err = engine.ParseMove(msg.Move); err != nil {
			return WSResponse{Type: "error", ID: msg.ID, Error: err.Error(), Code: "INVALID_MOVE"}
		}
		err = g.SubmitMove(mv.From, mv.To)
		m.observeMove(err)
	case "select":
		if msg.At == nil {
			return WSResponse{Type: "error", ID: msg.ID, Error: "select requires \"at\"", Code: "INVALID_LOCATION"}
		}
		_, err = g.Select(*msg.At)
	case "undo":
		if err = g.RequestUndo(); err == nil {
			m.observeHistory("undo")
		}
	case "redo":
		if err = g.RequestRedo(); err == nil {
			m.observeHistory("redo")
		}
	case "snapshot":
	case "ping":
		return WSResponse{Type: "pong", ID: msg.ID}
	default:
		return WSResponse{Type: "error", ID: msg.ID, Error: "unknown message type", Code: "UNKNOWN_TYPE"}
	}
	if err != nil {
		return c.fail(msg.ID, err)
	}
	return c.state(msg.ID)
}
