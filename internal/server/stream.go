package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/invisible-tech/streamwatch/internal/types"
)

// Websocket stream message types.
const (
	MessageTypeEvent   = "event"
	MessageTypeAnomaly = "anomaly"
	MessageTypeMetrics = "metrics"
)

const (
	streamSendBuffer = 256
	streamWriteWait  = 10 * time.Second
)

// StreamMessage is the envelope for frames on /api/v1/stream.
type StreamMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The stream carries no client-specific state; origin policy belongs to
	// the embedding deployment.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// streamClient is one websocket consumer of the three engine streams.
type streamClient struct {
	conn      *websocket.Conn
	send      chan StreamMessage
	done      chan struct{}
	closeOnce sync.Once
	log       *logrus.Logger
}

// handleStream upgrades the connection and fans all three engine streams to
// it as typed messages. The client's send buffer is bounded; when it fills,
// the oldest unsent message is dropped, same policy as engine subscribers.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).Debug("Websocket upgrade failed")
		return
	}
	client := &streamClient{
		conn: conn,
		send: make(chan StreamMessage, streamSendBuffer),
		done: make(chan struct{}),
		log:  s.log,
	}
	unsubscribes := []func(){
		s.engine.SubscribeEvents(func(ev types.Event) {
			client.enqueue(StreamMessage{Type: MessageTypeEvent, Data: ev})
		}),
		s.engine.SubscribeAnomalies(func(a types.Anomaly) {
			client.enqueue(StreamMessage{Type: MessageTypeAnomaly, Data: a})
		}),
		s.engine.SubscribeMetrics(func(m types.MetricsSnapshot) {
			client.enqueue(StreamMessage{Type: MessageTypeMetrics, Data: m})
		}),
	}
	s.log.WithField("remote", r.RemoteAddr).Info("Stream client connected")

	go client.writeLoop()
	client.readLoop()

	for _, unsubscribe := range unsubscribes {
		unsubscribe()
	}
	client.close()
	s.log.WithField("remote", r.RemoteAddr).Info("Stream client disconnected")
}

// enqueue adds msg to the send buffer, dropping the oldest unsent message
// if the buffer is full.
func (c *streamClient) enqueue(msg StreamMessage) {
	select {
	case c.send <- msg:
		return
	default:
	}
	select {
	case <-c.send:
	default:
	}
	select {
	case c.send <- msg:
	default:
	}
}

func (c *streamClient) writeLoop() {
	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				c.log.WithError(err).Debug("Stream write failed")
				c.close()
				return
			}
		}
	}
}

// readLoop consumes (and discards) client frames until the connection
// closes; the stream is one-way.
func (c *streamClient) readLoop() {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *streamClient) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}
