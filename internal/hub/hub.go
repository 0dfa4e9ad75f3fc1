// Package hub fans ranking changes out to the clients watching a category.
package hub

import (
	"encoding/json"
	"log"
	"sync"
)

// clientBuffer is how many undelivered events a slow client may hold.
const clientBuffer = 16

// Event types published by the handlers.
const (
	RankingSaved   = "ranking.saved"
	RankingDeleted = "ranking.deleted"
)

// Event represents a real-time event to be sent to clients.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Client receives encoded events. The channel is closed on Unsubscribe.
type Client chan []byte

// Hub manages the watchers of each category.
type Hub struct {
	categories map[int]map[Client]bool
	mu         sync.RWMutex
}

// New returns a Hub with no watchers.
func New() *Hub {
	return &Hub{
		categories: make(map[int]map[Client]bool),
	}
}

// Subscribe registers a new client for the category's events.
func (h *Hub) Subscribe(categoryCode int) Client {
	client := make(Client, clientBuffer)

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.categories[categoryCode]; !ok {
		h.categories[categoryCode] = make(map[Client]bool)
	}
	h.categories[categoryCode][client] = true
	return client
}

// Unsubscribe removes a client and closes its channel.
func (h *Hub) Unsubscribe(categoryCode int, client Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.categories[categoryCode]
	if !ok || !clients[client] {
		return
	}
	delete(clients, client)
	close(client)
	if len(clients) == 0 {
		delete(h.categories, categoryCode)
	}
}

// Publish sends an event to every client of the category. Clients whose
// buffer is full miss the event.
func (h *Hub) Publish(categoryCode int, event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients, ok := h.categories[categoryCode]
	if !ok {
		return
	}
	message, err := json.Marshal(event)
	if err != nil {
		log.Printf("hub: encode %s event: %v", event.Type, err)
		return
	}
	for client := range clients {
		select {
		case client <- message:
		default:
		}
	}
}

// Subscribers counts the clients watching the category.
func (h *Hub) Subscribers(categoryCode int) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.categories[categoryCode])
}
