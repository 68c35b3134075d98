package websocket

import (
	"log"
	"sync"
)

// Conn is the part of a websocket connection the hub writes to.
type Conn interface {
	WriteJSON(v interface{}) error
	Close() error
}

type Client struct {
	UserID uint
	Conn   Conn
}

// Event is pushed to every connected recipient.
type Event struct {
	Type       string      `json:"type"`
	Payload    interface{} `json:"payload"`
	Recipients []uint      `json:"-"`
}

const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
)

var clients = make(map[uint]Conn)
var clientsMu sync.RWMutex
var Register = make(chan *Client)
var Unregister = make(chan *Client)
var Broadcast = make(chan *Event, 256)

// Publish queues e without blocking. Events are dropped when the queue is full.
func Publish(e *Event) {
	select {
	case Broadcast <- e:
	default:
		log.Printf("Broadcast queue full, dropping %s event", e.Type)
	}
}

func RunHub() {
	for {
		select {
		case client := <-Register:
			log.Printf("Client registered: %d", client.UserID)
			clientsMu.Lock()
			if old, ok := clients[client.UserID]; ok && old != client.Conn {
				old.Close()
			}
			clients[client.UserID] = client.Conn
			clientsMu.Unlock()
		case client := <-Unregister:
			log.Printf("Client unregistered: %d", client.UserID)
			clientsMu.Lock()
			if conn, ok := clients[client.UserID]; ok && conn == client.Conn {
				delete(clients, client.UserID)
			}
			clientsMu.Unlock()
		case event := <-Broadcast:
			deliver(event)
		}
	}
}

func deliver(event *Event) {
	var failed []uint

	clientsMu.RLock()
	for _, userID := range event.Recipients {
		conn, ok := clients[userID]
		if !ok {
			continue
		}
		if err := conn.WriteJSON(event); err != nil {
			log.Printf("Error sending %s to client %d: %v", event.Type, userID, err)
			conn.Close()
			failed = append(failed, userID)
		}
	}
	clientsMu.RUnlock()

	if len(failed) == 0 {
		return
	}
	clientsMu.Lock()
	for _, userID := range failed {
		delete(clients, userID)
	}
	clientsMu.Unlock()
}
