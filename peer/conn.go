package peer

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	writeWait   = 10 * time.Second
	pongWait    = 60 * time.Second
	pingPeriod  = (pongWait * 9) / 10
	sendBufSize = 256
	recvBufSize = 256
	readLimit   = 64 * 1024
)

var (
	ErrClosed     = errors.New("relay connection closed")
	ErrSendBuffer = errors.New("relay send buffer full")
)

// Conn is a game.Transport over a relay websocket. Inbound frames arrive on
// Frames; Done closes when the connection ends.
type Conn struct {
	ws   *websocket.Conn
	log  zerolog.Logger
	send chan string
	recv chan string
	done chan struct{}

	closeOnce sync.Once
	mu        sync.Mutex
	err       error
}

// Dial connects to a relay socket URL and starts the pumps
func Dial(ctx context.Context, url string, log zerolog.Logger) (*Conn, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
		ReadBufferSize:   4096,
		WriteBufferSize:  4096,
	}
	ws, resp, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		if resp != nil {
			return nil, &HandshakeError{Status: resp.StatusCode, Err: err}
		}
		return nil, err
	}
	return newConn(ws, log), nil
}

// HandshakeError reports a relay that refused the socket
type HandshakeError struct {
	Status int
	Err    error
}

func (e *HandshakeError) Error() string {
	return "relay refused socket: " + http.StatusText(e.Status) + ": " + e.Err.Error()
}

func (e *HandshakeError) Unwrap() error { return e.Err }

func newConn(ws *websocket.Conn, log zerolog.Logger) *Conn {
	c := &Conn{
		ws:   ws,
		log:  log,
		send: make(chan string, sendBufSize),
		recv: make(chan string, recvBufSize),
		done: make(chan struct{}),
	}
	go c.readPump()
	go c.writePump()
	return c
}

// Send queues a frame for the other peer
func (c *Conn) Send(frame string) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}
	select {
	case c.send <- frame:
		return nil
	default:
		return ErrSendBuffer
	}
}

// Frames delivers inbound frames in arrival order
func (c *Conn) Frames() <-chan string {
	return c.recv
}

// Done is closed when the connection has ended
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// Err returns why the connection ended, or nil while it is open
func (c *Conn) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Close ends the connection with a normal close frame
func (c *Conn) Close() error {
	c.end(ErrClosed, true)
	return nil
}

func (c *Conn) shutdown(err error) {
	c.end(err, false)
}

func (c *Conn) end(err error, notify bool) {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.err = err
		c.mu.Unlock()
		close(c.done)
		if notify {
			c.ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
		}
		c.ws.Close()
	})
}

func (c *Conn) readPump() {
	c.ws.SetReadLimit(readLimit)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		msgType, message, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warn().Err(err).Msg("relay read")
			}
			c.shutdown(err)
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		select {
		case c.recv <- string(message):
		case <-c.done:
			return
		}
	}
}

func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case frame := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
				c.shutdown(err)
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.shutdown(err)
				return
			}
		case <-c.done:
			return
		}
	}
}
