package services

import (
	"encoding/json"
	"errors"
	"log"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Hub tracks connected websocket clients and routes room/session events
// between them and the session service. It implements Notifier.
type Hub struct {
	clients    map[*Client]bool
	byID       map[string]*Client
	register   chan *Client
	unregister chan *Client
	mutex      sync.RWMutex
	sessions   *SessionService
}

// Client is one websocket connection plus its session context: which
// room it is in, under what name, and whether it is spectating. The
// context lives here, keyed by connection, rather than in closures over
// the handler.
type Client struct {
	hub       *Hub
	id        string
	socket    *websocket.Conn
	send      chan []byte
	roomCode  string
	name      string
	spectator bool
}

// Message is the wire envelope in both directions. Inbound payloads are
// decoded into the typed structs below before they reach the session
// service; unknown event types are dropped at this boundary.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type outMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

type createRoomPayload struct {
	Difficulty string `json:"difficulty"`
	Name       string `json:"name"`
}

type joinRoomPayload struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type spectateRoomPayload struct {
	Code string `json:"code"`
}

type cellPayload struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

type chatPayload struct {
	Text string `json:"text"`
}

type reactionPayload struct {
	Emoji string `json:"emoji"`
}

type watchPlayerPayload struct {
	TargetID string `json:"targetId"`
}

func NewHub(sessions *SessionService) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		byID:       make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		sessions:   sessions,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			h.byID[client.id] = client
			h.mutex.Unlock()
			log.Printf("Client connected: %s - Total clients: %d", client.id, len(h.clients))

		case client := <-h.unregister:
			h.mutex.Lock()
			roomCode := client.roomCode
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				delete(h.byID, client.id)
				close(client.send)
			}
			h.mutex.Unlock()
			log.Printf("Client disconnected: %s from room %q - Total clients: %d", client.id, roomCode, len(h.clients))

			if roomCode != "" {
				h.sessions.Disconnect(h, roomCode, client.id)
			}
		}
	}
}

// ToClient sends one event to a single client. Part of Notifier.
func (h *Hub) ToClient(clientID string, event string, payload interface{}) {
	data, err := json.Marshal(outMessage{Type: event, Payload: payload})
	if err != nil {
		log.Printf("Error marshaling %s for client %s: %v", event, clientID, err)
		return
	}

	h.mutex.RLock()
	defer h.mutex.RUnlock()
	client, ok := h.byID[clientID]
	if !ok {
		return
	}
	select {
	case client.send <- data:
	default:
		log.Printf("Client %s send buffer full, dropping %s", clientID, event)
	}
}

// ToRoom sends one event to every participant of a room, players and
// spectators alike. Part of Notifier.
func (h *Hub) ToRoom(code string, event string, payload interface{}) {
	data, err := json.Marshal(outMessage{Type: event, Payload: payload})
	if err != nil {
		log.Printf("Error marshaling %s for room %s: %v", event, code, err)
		return
	}

	h.mutex.RLock()
	defer h.mutex.RUnlock()
	for client := range h.clients {
		if client.roomCode != code {
			continue
		}
		select {
		case client.send <- data:
		default:
			log.Printf("Client %s send buffer full, dropping %s", client.id, event)
		}
	}
}

// CloseRoom broadcasts room-closed to everyone still attached to the
// room and clears their session context. Room codes can be reallocated,
// so a stale roomCode on a lingering client must not survive teardown.
// Part of Notifier.
func (h *Hub) CloseRoom(code string) {
	data, err := json.Marshal(outMessage{Type: "room-closed", Payload: gin.H{"message": "Room closed"}})
	if err != nil {
		log.Printf("Error marshaling room-closed for room %s: %v", code, err)
		return
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()
	for client := range h.clients {
		if client.roomCode != code {
			continue
		}
		client.roomCode = ""
		client.name = ""
		client.spectator = false
		select {
		case client.send <- data:
		default:
			log.Printf("Client %s send buffer full, dropping room-closed", client.id)
		}
	}
}

// RegisterClient wires a fresh websocket connection into the hub and
// starts its pumps.
func (h *Hub) RegisterClient(conn *websocket.Conn) *Client {
	client := &Client{
		hub:    h,
		id:     uuid.NewString(),
		socket: conn,
		send:   make(chan []byte, 256),
	}

	h.register <- client

	go client.writePump()
	go client.readPump()

	return client
}

func (h *Hub) setSession(client *Client, roomCode, name string, spectator bool) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	client.roomCode = roomCode
	client.name = name
	client.spectator = spectator
}

func (h *Hub) session(client *Client) (roomCode, name string, spectator bool) {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return client.roomCode, client.name, client.spectator
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.socket.Close()
	}()

	for {
		_, data, err := c.socket.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket read error: %v", err)
			}
			break
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Printf("Error unmarshaling message from %s: %v", c.id, err)
			continue
		}

		c.handleMessage(msg)
	}
}

func (c *Client) writePump() {
	defer c.socket.Close()

	for message := range c.send {
		if err := c.socket.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	c.socket.WriteMessage(websocket.CloseMessage, []byte{})
}

func (c *Client) handleMessage(msg Message) {
	hub := c.hub
	roomCode, name, _ := hub.session(c)

	switch msg.Type {
	case "create-room":
		var payload createRoomPayload
		if !c.decode(msg, &payload) {
			return
		}
		code, playerName, err := hub.sessions.CreateRoom(hub, c.id, payload.Difficulty, payload.Name)
		if err != nil {
			c.sendError(err)
			return
		}
		hub.setSession(c, code, playerName, false)

	case "join-room":
		var payload joinRoomPayload
		if !c.decode(msg, &payload) {
			return
		}
		playerName, err := hub.sessions.JoinRoom(hub, c.id, payload.Code, payload.Name)
		if err != nil {
			c.sendError(err)
			return
		}
		hub.setSession(c, payload.Code, playerName, false)

	case "spectate-room":
		var payload spectateRoomPayload
		if !c.decode(msg, &payload) {
			return
		}
		if err := hub.sessions.SpectateRoom(hub, c.id, payload.Code); err != nil {
			c.sendError(err)
			return
		}
		hub.setSession(c, payload.Code, "Spectator", true)

	case "start-game":
		if err := hub.sessions.StartGame(hub, roomCode, c.id); err != nil {
			c.sendError(err)
		}

	case "reveal":
		var payload cellPayload
		if !c.decode(msg, &payload) {
			return
		}
		hub.sessions.Reveal(hub, roomCode, c.id, payload.Row, payload.Col)

	case "flag":
		var payload cellPayload
		if !c.decode(msg, &payload) {
			return
		}
		hub.sessions.Flag(hub, roomCode, c.id, payload.Row, payload.Col)

	case "timeout":
		hub.sessions.Timeout(hub, roomCode, c.id)

	case "chat-msg":
		var payload chatPayload
		if !c.decode(msg, &payload) {
			return
		}
		hub.sessions.Chat(hub, roomCode, name, payload.Text)

	case "reaction":
		var payload reactionPayload
		if !c.decode(msg, &payload) {
			return
		}
		hub.sessions.Reaction(hub, roomCode, name, payload.Emoji)

	case "watch-player":
		var payload watchPlayerPayload
		if !c.decode(msg, &payload) {
			return
		}
		hub.sessions.WatchPlayer(hub, roomCode, c.id, payload.TargetID)

	case "ping":
		data, _ := json.Marshal(outMessage{Type: "pong"})
		select {
		case c.send <- data:
		default:
		}

	default:
		log.Printf("Unknown message type %q from client %s", msg.Type, c.id)
	}
}

func (c *Client) decode(msg Message, dest interface{}) bool {
	if len(msg.Payload) == 0 {
		c.sendError(errors.New("missing payload"))
		return false
	}
	if err := json.Unmarshal(msg.Payload, dest); err != nil {
		log.Printf("Bad %s payload from client %s: %v", msg.Type, c.id, err)
		c.sendError(errors.New("malformed payload"))
		return false
	}
	return true
}

// sendError reports a recoverable condition to this client only.
func (c *Client) sendError(err error) {
	c.hub.ToClient(c.id, "error-msg", errorText(err))
}

func errorText(err error) string {
	switch {
	case errors.Is(err, ErrRoomNotFound):
		return "Room not found"
	case errors.Is(err, ErrRoomFull):
		return "Room is full"
	case errors.Is(err, ErrGameAlreadyStarted):
		return "Game already in progress"
	case errors.Is(err, ErrInvalidDifficulty):
		return "Invalid difficulty"
	case errors.Is(err, ErrUnauthorizedStart):
		return "Only the host can start the game"
	default:
		return err.Error()
	}
}
