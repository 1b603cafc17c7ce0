package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"care-triage-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const clusterChannel = "care_triage_case_events"

// Frame is what a live client receives.
type Frame struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type clusterMessage struct {
	Origin       string          `json:"origin"`
	TargetCaseID string          `json:"target_case_id"`
	Message      json.RawMessage `json:"message"`
}

// Hub fans case frames out to the websocket clients watching that case.
// With Redis configured, frames are also relayed to the other instances.
type Hub struct {
	// Registered clients: CaseId -> watchers of that case
	clients map[uuid.UUID][]*Client

	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	mu sync.RWMutex

	// Redis connection for cross-instance communication
	rdb      *redis.Client
	instance string

	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		clients:    make(map[uuid.UUID][]*Client),
		rdb:        rdb,
		instance:   uuid.NewString(),
		logger:     log,
	}
}

// Run processes registrations until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	if h.rdb != nil {
		go h.subscribeToRedis(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			close(h.done)
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.CaseId] = append(h.clients[client.CaseId], client)
			h.mu.Unlock()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{"case_id": client.CaseId.String()})

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.CaseId]; ok {
				for i, c := range clients {
					if c == client {
						h.clients[client.CaseId] = append(clients[:i], clients[i+1:]...)
						close(client.Send)
						break
					}
				}
				if len(h.clients[client.CaseId]) == 0 {
					delete(h.clients, client.CaseId)
				}
			}
			h.mu.Unlock()
			h.logger.Info("Hub", "Client unregistered", map[string]interface{}{"case_id": client.CaseId.String()})
		}
	}
}

// ClientCount reports local watchers of caseId.
func (h *Hub) ClientCount(caseId uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[caseId])
}

// SendToCase delivers a frame to local watchers and, with Redis, to
// watchers connected to other instances.
func (h *Hub) SendToCase(caseId uuid.UUID, frameType string, data interface{}) {
	payload, err := json.Marshal(Frame{Type: frameType, Data: data})
	if err != nil {
		h.logger.Error("Hub", "Failed to encode frame", map[string]interface{}{"case_id": caseId.String(), "error": err.Error()})
		return
	}

	h.deliverLocal(caseId, payload)

	if h.rdb != nil {
		msg, _ := json.Marshal(clusterMessage{Origin: h.instance, TargetCaseID: caseId.String(), Message: payload})
		if err := h.rdb.Publish(context.Background(), clusterChannel, msg).Err(); err != nil {
			h.logger.Warn("Hub", "Failed to relay frame to cluster", map[string]interface{}{
				"case_id": caseId.String(),
				"error":   err.Error(),
			})
		}
	}
}

// deliverLocal never blocks: a client whose buffer is full misses the frame.
func (h *Hub) deliverLocal(caseId uuid.UUID, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients[caseId] {
		select {
		case client.Send <- payload:
		default:
			h.logger.Warn("Hub", "Client send buffer full, dropping frame", map[string]interface{}{"case_id": caseId.String()})
		}
	}
}

func (h *Hub) subscribeToRedis(ctx context.Context) {
	pubsub := h.rdb.Subscribe(ctx, clusterChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var payload clusterMessage
			if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
				h.logger.Warn("Hub", "Redis message parse error", map[string]interface{}{"error": err.Error()})
				continue
			}
			// Our own frames were already delivered locally.
			if payload.Origin == h.instance {
				continue
			}
			caseId, err := uuid.Parse(payload.TargetCaseID)
			if err != nil {
				continue
			}
			h.deliverLocal(caseId, payload.Message)
		}
	}
}
