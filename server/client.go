package server

import (
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dotside-studios/davi-card-agent/nfcsession"
	"github.com/dotside-studios/davi-card-agent/protocol"
)

// Client is a view connected over WebSocket. It implements
// nfcsession.Notifier so it can be attached to the session broadcaster.
//
// All writes go through a single write pump; Send never blocks.
type Client struct {
	ID         string
	RemoteAddr string

	conn   *websocket.Conn
	send   chan any
	done   chan struct{}
	mu     sync.Mutex
	closed bool
}

func newClient(id, remoteAddr string, conn *websocket.Conn) *Client {
	return &Client{
		ID:         id,
		RemoteAddr: remoteAddr,
		conn:       conn,
		send:       make(chan any, clientSendBuffer),
		done:       make(chan struct{}),
	}
}

// Send queues msg for the client. It reports false if the client is closed
// or too slow to keep up.
func (c *Client) Send(msg any) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		log.Printf("[server] Client %s send buffer full, dropping message", c.ID)
		return false
	}
}

// SendResponse queues a response to request id.
func (c *Client) SendResponse(id, responseType string, payload any) bool {
	return c.Send(protocol.WebSocketResponse{
		ID:      id,
		Type:    responseType,
		Success: true,
		Payload: payload,
	})
}

// SendError queues a structured error response.
func (c *Client) SendError(id, code, message string) bool {
	return c.Send(protocol.WebSocketResponse{
		ID:      id,
		Type:    protocol.WSTypeError,
		Success: false,
		Error:   message,
		Payload: protocol.ErrorPayload{Code: code},
	})
}

func (c *Client) Notify(n nfcsession.Notice) {
	c.Send(protocol.WebSocketMessage{
		Type:    protocol.WSTypeNotice,
		Payload: protocol.NoticePayload{Title: n.Title, Message: n.Message},
	})
}

func (c *Client) TagDiscovered(tag nfcsession.TagDescriptor) {
	c.Send(protocol.WebSocketMessage{
		Type:    protocol.WSTypeTagDiscovered,
		Payload: tagPayload(tag),
	})
}

func (c *Client) StateChanged(state nfcsession.State) {
	c.Send(protocol.WebSocketMessage{
		Type:    protocol.WSTypeSessionState,
		Payload: protocol.SessionStatePayload{State: state.String()},
	})
}

// Close stops the write pump and closes the connection.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.done)
	c.conn.Close()
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				log.Printf("[server] WebSocket write error for %s: %v", c.ID, err)
				c.Close()
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}
		}
	}
}

func tagPayload(tag nfcsession.TagDescriptor) protocol.TagPayload {
	p := protocol.TagPayload{
		ID:        tag.ID,
		Type:      tag.Type,
		TechTypes: tag.TechTypes,
	}
	for _, rec := range tag.NdefMessage {
		p.NdefMessage = append(p.NdefMessage, protocol.NDEFRecordPayload{
			TNF:     rec.TNF,
			Type:    rec.Type,
			ID:      rec.ID,
			Payload: rec.Payload,
			Text:    rec.Text,
			URI:     rec.URI,
		})
	}
	return p
}
