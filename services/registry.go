package services

import (
	"crypto/rand"
	"sync"
)

// roomCodeAlphabet avoids visually ambiguous characters (no 0/O/1/I).
// 32 characters, so a random byte maps uniformly.
const roomCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const roomCodeLength = 6

// RoomRegistry owns the set of live rooms. It is constructor-injected
// into the session service so tests can run isolated registries.
type RoomRegistry struct {
	mutex sync.RWMutex
	rooms map[string]*Room
}

func NewRoomRegistry() *RoomRegistry {
	return &RoomRegistry{
		rooms: make(map[string]*Room),
	}
}

// Create allocates a unique room code and stores a new lobby-state room.
func (reg *RoomRegistry) Create(difficulty string, seed uint32, hostID string) *Room {
	reg.mutex.Lock()
	defer reg.mutex.Unlock()

	code := generateRoomCode()
	for _, exists := reg.rooms[code]; exists; _, exists = reg.rooms[code] {
		code = generateRoomCode()
	}

	room := &Room{
		Code:       code,
		Difficulty: difficulty,
		Seed:       seed,
		HostID:     hostID,
		Players:    make(map[string]*Player),
		Spectators: make(map[string]bool),
	}
	reg.rooms[code] = room
	return room
}

func (reg *RoomRegistry) Get(code string) (*Room, bool) {
	reg.mutex.RLock()
	defer reg.mutex.RUnlock()
	room, ok := reg.rooms[code]
	return room, ok
}

func (reg *RoomRegistry) Remove(code string) {
	reg.mutex.Lock()
	defer reg.mutex.Unlock()
	delete(reg.rooms, code)
}

func (reg *RoomRegistry) Count() int {
	reg.mutex.RLock()
	defer reg.mutex.RUnlock()
	return len(reg.rooms)
}

func generateRoomCode() string {
	bytes := make([]byte, roomCodeLength)
	rand.Read(bytes)
	code := make([]byte, roomCodeLength)
	for i, b := range bytes {
		code[i] = roomCodeAlphabet[int(b)%len(roomCodeAlphabet)]
	}
	return string(code)
}
