package session

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"realm/internal/chat"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 256
)

// client is one websocket connection. account, player and name are only
// touched by the connection's read goroutine.
type client struct {
	l    logrus.FieldLogger
	conn *websocket.Conn
	send chan []byte

	account string
	player  string
	name    string
}

func newClient(l logrus.FieldLogger, conn *websocket.Conn) *client {
	return &client{l: l, conn: conn, send: make(chan []byte, sendBuffer)}
}

// push queues a message without blocking. A full buffer drops the message.
func (cl *client) push(msg outbound) bool {
	raw, err := json.Marshal(msg)
	if err != nil {
		cl.l.WithError(err).Errorf("Unable to encode [%s] message.", msg.Type)
		return false
	}
	select {
	case cl.send <- raw:
		return true
	default:
		cl.l.Warnf("Send buffer full, dropping [%s] message.", msg.Type)
		return false
	}
}

// Deliver implements chat.Recipient.
func (cl *client) Deliver(msg chat.Message) bool {
	return cl.push(outbound{Type: MsgChat, Chat: &msg})
}

func (cl *client) writePump(ctx context.Context) error {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = cl.conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			cl.flush()
			_ = cl.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return nil
		case msg := <-cl.send:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := cl.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return err
			}
		case <-ticker.C:
			if err := cl.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return err
			}
		}
	}
}

// flush writes whatever is still queued, so a final error reaches the client
// before the close frame.
func (cl *client) flush() {
	for {
		select {
		case msg := <-cl.send:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := cl.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		default:
			return
		}
	}
}
