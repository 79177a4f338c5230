package websocket

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/dom/todo-api/internal/domain"
	"github.com/google/uuid"
)

const broadcastBuffer = 256

// Hub tracks live connections per user and fans task events out to the
// owning user's clients only.
type Hub struct {
	clients    map[uuid.UUID]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan *userMessage
	stop       chan struct{}
	done       chan struct{} // closed when Run() exits
	stopped    bool
	mu         sync.RWMutex
}

type userMessage struct {
	userID uuid.UUID
	data   []byte
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *userMessage, broadcastBuffer),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.stop:
			h.mu.Lock()
			h.stopped = true
			for _, set := range h.clients {
				for client := range set {
					client.Close()
				}
			}
			h.clients = make(map[uuid.UUID]map[*Client]bool)
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			if h.stopped {
				h.mu.Unlock()
				client.Close()
				continue
			}
			set, ok := h.clients[client.userID]
			if !ok {
				set = make(map[*Client]bool)
				h.clients[client.userID] = set
			}
			set[client] = true
			h.mu.Unlock()
			client.enqueue(mustMessage(MessageTypeConnected, ConnectedPayload{UserID: client.userID.String()}))

		case client := <-h.unregister:
			h.mu.Lock()
			h.remove(client)
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients[msg.userID] {
				select {
				case client.send <- msg.data:
				default:
					log.Printf("WARN [websocket.Hub] dropping slow client for user %s", msg.userID)
					h.remove(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// remove must be called with h.mu held.
func (h *Hub) remove(client *Client) {
	set, ok := h.clients[client.userID]
	if !ok {
		return
	}
	if _, ok := set[client]; !ok {
		return
	}
	delete(set, client)
	if len(set) == 0 {
		delete(h.clients, client.userID)
	}
	client.Close()
}

// Stop gracefully shuts down the hub and closes every client.
// It blocks until Run has returned.
func (h *Hub) Stop() {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return
	}
	h.stopped = true
	h.mu.Unlock()

	close(h.stop)
	<-h.done
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		client.Close()
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// ClientCount reports how many connections userID currently holds.
func (h *Hub) ClientCount(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// PublishTaskEvent queues event for ownerID's connections. It never blocks
// the caller; events are dropped when the queue is full.
func (h *Hub) PublishTaskEvent(ownerID uuid.UUID, event domain.TaskEvent) {
	if h == nil {
		return
	}

	msg, err := NewMessage(MessageType(event.Type), TaskEventPayload{
		TaskID: event.TaskID.String(),
		Task:   event.Task,
	})
	if err != nil {
		log.Printf("ERROR [websocket.Hub] failed to build task event: %v", err)
		return
	}
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("ERROR [websocket.Hub] failed to marshal task event: %v", err)
		return
	}

	select {
	case h.broadcast <- &userMessage{userID: ownerID, data: data}:
	case <-h.done:
	default:
		log.Printf("WARN [websocket.Hub] broadcast queue full, dropping %s for user %s", event.Type, ownerID)
	}
}
