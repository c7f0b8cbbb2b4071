package ws

import (
	"context"
	"sync"
	"time"

	"pig_webapp/internal/logger"
	"pig_webapp/internal/metrics"
	"pig_webapp/internal/repository"
	"pig_webapp/internal/store"
)

// Hub ведет реестр живых подключений и их общие зависимости
type Hub struct {
	Rooms     store.Store
	Stats     repository.Stats
	PublicURL string

	mu      sync.Mutex
	clients map[string]*Client
}

func NewHub(rooms store.Store, stats repository.Stats, publicURL string) *Hub {
	return &Hub{
		Rooms:     rooms,
		Stats:     stats,
		PublicURL: publicURL,
		clients:   make(map[string]*Client),
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c.ID] = c
	n := len(h.clients)
	h.mu.Unlock()

	metrics.WSConnections.Set(float64(n))
	logger.Info("клиент подключен", "client", c.ID, "user", c.UserID, "total", n)
}

// Unregister снимает клиента с учета и разбирает его сессию:
// выходим из сетевой комнаты, гасим отложенные колбэки движка
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c.ID]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c.ID)
	n := len(h.clients)
	h.mu.Unlock()

	if c.Session != nil {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		c.Session.Leave(ctx)
		cancel()
	}
	c.Engine.Teardown()

	metrics.WSConnections.Set(float64(n))
	logger.Info("клиент отключен", "client", c.ID, "user", c.UserID, "total", n)
}

// ClientCount возвращает число живых подключений
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Shutdown закрывает все подключения при остановке сервиса
func (h *Hub) Shutdown(timeout time.Duration) {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		h.Unregister(c)
		_ = c.Conn.Close()
	}

	deadline := time.After(timeout)
	for _, c := range clients {
		select {
		case <-c.Done:
		case <-deadline:
			return
		}
	}
}
