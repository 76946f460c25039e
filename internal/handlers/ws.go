package handlers

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/chepyr/task-scheduler/internal/app"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// writeWait bounds a single socket write.
	writeWait = 10 * time.Second
	// sendBuffer is how many events may queue for a socket before it is
	// dropped as too slow.
	sendBuffer = 16
)

// wsClient is one open socket. Only writePump writes to conn.
type wsClient struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

func newWSClient(conn *websocket.Conn) *wsClient {
	return &wsClient{
		conn: conn,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}
}

func (c *wsClient) close() {
	c.once.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

func (c *wsClient) writePump(log *zap.Logger) {
	defer c.close()
	for {
		select {
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Debug("websocket write failed", zap.Error(err))
				return
			}
		case <-c.done:
			return
		}
	}
}

// WSHub fans task events out to every open socket of the user they concern.
type WSHub struct {
	connections map[string]map[*wsClient]bool
	mutex       sync.Mutex
	log         *zap.Logger
}

func NewWSHub(log *zap.Logger) *WSHub {
	if log == nil {
		log = zap.NewNop()
	}
	return &WSHub{connections: make(map[string]map[*wsClient]bool), log: log}
}

// Publish queues ev for all of username's sockets and never waits on the
// network. A socket whose queue is full is closed and dropped.
func (h *WSHub) Publish(username string, ev app.Event) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	clients, exists := h.connections[username]
	if !exists {
		return
	}

	message, err := json.Marshal(ev)
	if err != nil {
		h.log.Error("failed to marshal task event", zap.Error(err))
		return
	}

	for client := range clients {
		select {
		case client.send <- message:
		case <-client.done:
			delete(clients, client)
		default:
			h.log.Debug("dropping slow websocket", zap.String("username", username))
			delete(clients, client)
			client.close()
		}
	}
	if len(clients) == 0 {
		delete(h.connections, username)
	}
}

func (h *WSHub) add(username string, client *wsClient) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if h.connections[username] == nil {
		h.connections[username] = make(map[*wsClient]bool)
	}
	h.connections[username][client] = true
}

func (h *WSHub) remove(username string, client *wsClient) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if clients, ok := h.connections[username]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.connections, username)
		}
	}
}

// CloseUser closes every socket of username, as on logout.
func (h *WSHub) CloseUser(username string) {
	h.mutex.Lock()
	clients := h.connections[username]
	delete(h.connections, username)
	h.mutex.Unlock()

	for client := range clients {
		client.close()
	}
}

// Count reports the open sockets for username.
func (h *WSHub) Count(username string) int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.connections[username])
}

// HandleWebSocket handles GET /ws. The socket only receives; anything the
// client sends is discarded.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())

	upgrader := websocket.Upgrader{CheckOrigin: h.checkOrigin}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response.
		h.Log.Warn("websocket upgrade failed", zap.String("ip", clientIP(r)), zap.Error(err))
		return
	}

	client := newWSClient(conn)
	h.WSHub.add(sess.Username, client)
	go client.writePump(h.Log)
	defer func() {
		h.WSHub.remove(sess.Username, client)
		client.close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// checkOrigin accepts any origin when none are configured, and requests
// without an Origin header.
func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if len(h.AllowedOrigins) == 0 || origin == "" {
		return true
	}
	for _, allowed := range h.AllowedOrigins {
		if strings.EqualFold(origin, allowed) {
			return true
		}
	}
	return false
}

// clientIP prefers the first X-Forwarded-For hop over the peer address.
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
