package websocket

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/piresc/vidcredit/internal/pkg/constants"
	"github.com/piresc/vidcredit/internal/pkg/logger"
	"github.com/piresc/vidcredit/internal/pkg/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 32
)

// Client is one open socket of a user
type Client struct {
	UserID string
	conn   *websocket.Conn
	send   chan []byte
	once   sync.Once
}

func (cl *Client) close() {
	cl.once.Do(func() { close(cl.send) })
}

// Manager tracks every open socket per user and fans messages out to them
type Manager struct {
	sync.RWMutex
	clients  map[string]map[*Client]struct{}
	upgrader websocket.Upgrader
}

// NewManager creates a new WebSocket manager
func NewManager() *Manager {
	return &Manager{
		clients: make(map[string]map[*Client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Serve upgrades the request and blocks until the socket closes. The caller
// must already have authenticated userID.
func (m *Manager) Serve(c echo.Context, userID string) error {
	conn, err := m.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	client := &Client{UserID: userID, conn: conn, send: make(chan []byte, sendBuffer)}
	m.AddClient(client)
	logger.Info("WebSocket client connected", logger.String("user_id", userID))

	go m.writePump(client)
	m.readPump(client)

	m.RemoveClient(client)
	logger.Info("WebSocket client disconnected", logger.String("user_id", userID))
	return nil
}

// AddClient registers client under its user
func (m *Manager) AddClient(client *Client) {
	m.Lock()
	defer m.Unlock()
	set, ok := m.clients[client.UserID]
	if !ok {
		set = make(map[*Client]struct{})
		m.clients[client.UserID] = set
	}
	set[client] = struct{}{}
}

// RemoveClient unregisters client and stops its writer
func (m *Manager) RemoveClient(client *Client) {
	m.Lock()
	if set, ok := m.clients[client.UserID]; ok {
		delete(set, client)
		if len(set) == 0 {
			delete(m.clients, client.UserID)
		}
	}
	m.Unlock()
	client.close()
}

// Deliver sends an already encoded message to every open socket of userID and
// returns how many sockets accepted it
func (m *Manager) Deliver(userID string, msg models.WSMessage) int {
	payload, err := json.Marshal(msg)
	if err != nil {
		return 0
	}

	m.RLock()
	defer m.RUnlock()

	delivered := 0
	for client := range m.clients[userID] {
		select {
		case client.send <- payload:
			delivered++
		default:
			logger.Warn("WebSocket send buffer full, dropping message",
				logger.String("user_id", userID),
				logger.String("event", msg.Event))
		}
	}
	return delivered
}

func (m *Manager) readPump(client *Client) {
	conn := client.conn
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg models.WSMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("WebSocket read error",
					logger.String("user_id", client.UserID),
					logger.Err(err))
			}
			return
		}

		switch msg.Event {
		case constants.EventPing:
			m.reply(client, constants.EventPong, map[string]int64{"ts": time.Now().Unix()})
		default:
			m.reply(client, constants.EventError, models.WSErrorMessage{
				Code:    constants.ErrorInvalidFormat,
				Message: fmt.Sprintf("unsupported event %q", msg.Event),
			})
		}
	}
}

func (m *Manager) reply(client *Client, event string, data interface{}) {
	msg, err := models.NewWSMessage(event, data)
	if err != nil {
		return
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return
	}

	m.RLock()
	defer m.RUnlock()
	if _, ok := m.clients[client.UserID][client]; !ok {
		return
	}
	select {
	case client.send <- payload:
	default:
	}
}

func (m *Manager) writePump(client *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		client.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-client.send:
			_ = client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = client.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
