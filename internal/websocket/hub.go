package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"hana-assistant-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const clusterChannel = "assistant_surface_events"

// FrameHandler receives the inbound frames of every surface.
type FrameHandler interface {
	HandleFrame(surfaceID uuid.UUID, userID string, frame Frame)
	// Detached is called when the last local connection of a surface closes.
	Detached(surfaceID uuid.UUID)
}

type Hub struct {
	// Registered clients: SurfaceID -> connections (one per open tab)
	clients map[uuid.UUID][]*Client

	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	// Redis connection for cross-instance fan-out
	rdb *redis.Client

	handler FrameHandler
	logger  logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[uuid.UUID][]*Client),
		rdb:        rdb,
		logger:     log,
	}
}

// Handle sets the receiver of inbound frames. Call before Run.
func (h *Hub) Handle(handler FrameHandler) {
	h.handler = handler
}

func (h *Hub) Run() {
	if h.rdb != nil {
		go h.subscribeToRedis()
	}

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.SurfaceID] = append(h.clients[client.SurfaceID], client)
			h.mu.Unlock()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{"surface_id": client.SurfaceID})

		case client := <-h.unregister:
			h.mu.Lock()
			detached := false
			if clients, ok := h.clients[client.SurfaceID]; ok {
				for i, c := range clients {
					if c == client {
						h.clients[client.SurfaceID] = append(clients[:i], clients[i+1:]...)
						close(client.Send)
						break
					}
				}
				if len(h.clients[client.SurfaceID]) == 0 {
					delete(h.clients, client.SurfaceID)
					detached = true
				}
			}
			h.mu.Unlock()

			if detached {
				h.logger.Info("Hub", "Surface has no connections left", map[string]interface{}{"surface_id": client.SurfaceID})
				if h.handler != nil {
					go h.handler.Detached(client.SurfaceID)
				}
			}
		}
	}
}

// SendToSurface delivers data to every connection of a surface on this and,
// through Redis, every other instance. It reports whether a local
// connection received it.
func (h *Hub) SendToSurface(surfaceID uuid.UUID, data []byte) bool {
	delivered := h.deliverLocal(surfaceID, data)

	if h.rdb != nil && !delivered {
		payload, _ := json.Marshal(map[string]interface{}{
			"target_surface_id": surfaceID.String(),
			"message":           json.RawMessage(data),
		})
		if err := h.rdb.Publish(context.Background(), clusterChannel, payload).Err(); err != nil {
			h.logger.Warn("Hub", "Failed to publish to cluster", map[string]interface{}{"error": err.Error()})
		}
	}

	return delivered
}

// Connected reports whether the surface has a local connection.
func (h *Hub) Connected(surfaceID uuid.UUID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[surfaceID]) > 0
}

func (h *Hub) deliverLocal(surfaceID uuid.UUID, data []byte) bool {
	h.mu.RLock()
	clients := append([]*Client(nil), h.clients[surfaceID]...)
	h.mu.RUnlock()

	delivered := false
	for _, client := range clients {
		select {
		case client.Send <- data:
			delivered = true
		default:
			h.logger.Warn("Hub", "Client Send buffer full, dropping connection", map[string]interface{}{"surface_id": surfaceID})
			go func(c *Client) { h.unregister <- c }(client)
		}
	}
	return delivered
}

func (h *Hub) dispatch(client *Client, frame Frame) {
	if h.handler == nil {
		return
	}
	h.handler.HandleFrame(client.SurfaceID, client.UserID, frame)
}

func (h *Hub) subscribeToRedis() {
	ctx := context.Background()
	pubsub := h.rdb.Subscribe(ctx, clusterChannel)
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		var payload struct {
			TargetSurfaceID string          `json:"target_surface_id"`
			Message         json.RawMessage `json:"message"`
		}
		if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
			h.logger.Warn("Hub", "Cluster message parse error", map[string]interface{}{"error": err.Error()})
			continue
		}

		sid, err := uuid.Parse(payload.TargetSurfaceID)
		if err != nil {
			continue
		}
		h.deliverLocal(sid, payload.Message)
	}
}
