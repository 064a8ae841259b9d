// Package live implements a Hub for pushing event-day updates to watchers.
// Displays in the hall (and club devices) subscribe to a topic and get
// notified the moment the operator advances or rewinds the timeplan, so they
// re-fetch the prediction instead of polling it on a timer.
package live

import "sync"

// Topic names used by the handlers.
const TopicTimeplan = "timeplan"

// Client represents a single connected watcher.
type Client struct {
	Topic string      // Which topic this client is watching
	Send  chan []byte // Buffered channel of outgoing messages; the Hub writes here
}

// Message is a unit of data to broadcast to all clients watching a topic.
type Message struct {
	Topic string
	Data  []byte // Raw bytes to send (typically a small JSON notification)
}

// Hub manages all active watcher connections, grouped by topic.
// It runs in its own goroutine and processes registration, unregistration and
// broadcast events through channels, keeping all map mutation on one
// goroutine. The RWMutex covers the read from the broadcast path.
type Hub struct {
	// clients maps topic -> set of Client pointers. A map[*Client]bool is the
	// usual Go stand-in for a set type.
	clients map[string]map[*Client]bool

	broadcast  chan *Message
	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex
}

// NewHub creates an empty Hub. The broadcast channel is buffered so handlers
// don't block when the hub goroutine is briefly busy; register and unregister
// are unbuffered because those must complete synchronously.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		broadcast:  make(chan *Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run is the Hub's main event loop. Call it in a goroutine ("go hub.Run()").
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.Topic] == nil {
				h.clients[client.Topic] = make(map[*Client]bool)
			}
			h.clients[client.Topic][client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.remove(client)

		case msg := <-h.broadcast:
			h.mu.RLock()
			var slow []*Client
			for client := range h.clients[msg.Topic] {
				select {
				case client.Send <- msg.Data:
				default:
					// Client too slow to drain its buffer — drop it rather
					// than blocking the broadcast loop for everyone else.
					slow = append(slow, client)
				}
			}
			h.mu.RUnlock()

			for _, client := range slow {
				h.remove(client)
			}
		}
	}
}

// remove drops a client from its topic set and closes its Send channel,
// which signals the connection's writer goroutine to stop.
func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	clients, ok := h.clients[client.Topic]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}
	delete(clients, client)
	close(client.Send)
	if len(clients) == 0 {
		delete(h.clients, client.Topic)
	}
}

// Broadcast sends data to all clients currently watching the given topic.
// Handlers call this after every timeplan mutation.
func (h *Hub) Broadcast(topic string, data []byte) {
	h.broadcast <- &Message{Topic: topic, Data: data}
}

// Register adds a client so it starts receiving broadcasts for its topic.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client when its connection closes.
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}
