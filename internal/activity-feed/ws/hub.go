package ws

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

var (
	wsConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "feed_ws_connections",
		Help: "Clientes WebSocket conectados ao feed",
	})
	wsMessagesSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "feed_ws_messages_sent_total",
		Help: "Total de mensagens do feed enviadas via WS",
	})
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type clientConn struct {
	id   string
	conn *websocket.Conn
}

// Hub mantém os clientes WebSocket do feed e faz broadcast dos eventos
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*clientConn
	log     *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{clients: make(map[string]*clientConn), log: log}
}

func (h *Hub) add(c *clientConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.id] = c
	wsConnections.Inc()
	h.log.Info("ws client connected", zap.String("client_id", c.id))
}

func (h *Hub) remove(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[id]; ok {
		delete(h.clients, id)
		wsConnections.Dec()
		h.log.Info("ws client disconnected", zap.String("client_id", id))
	}
}

// Broadcast envia o valor serializado para todos os clientes conectados
func (h *Hub) Broadcast(v any) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	msg, _ := json.Marshal(v)
	for id, c := range h.clients {
		c.conn.SetWriteDeadline(time.Now().Add(2 * time.Second))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			h.log.Warn("ws write failed", zap.String("client_id", id), zap.Error(err))
			_ = c.conn.Close()
		} else {
			wsMessagesSent.Inc()
		}
	}
}

// Handler faz o upgrade da conexão e mantém o cliente registrado no hub
func (h *Hub) Handler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	id := fmt.Sprintf("%d", time.Now().UnixNano())
	c := &clientConn{id: id, conn: conn}
	h.add(c)

	go func() {
		defer func() {
			h.remove(id)
			_ = conn.Close()
		}()
		_ = conn.SetReadDeadline(time.Time{})
		for {
			// descarta mensagens do cliente só pra detectar desconexão
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
