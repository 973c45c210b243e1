package services

import (
	"encoding/json"
	"testing"
)

func newHubClient(h *Hub, id string) *Client {
	client := &Client{hub: h, id: id, send: make(chan []byte, 8)}
	h.mutex.Lock()
	h.clients[client] = true
	h.byID[id] = client
	h.mutex.Unlock()
	return client
}

// Room codes can be reallocated after teardown, so a lingering client
// must come out of CloseRoom with no session context left.
func TestCloseRoomDetachesLingeringClients(t *testing.T) {
	sessions := NewSessionService(NewRoomRegistry(), NewMemoryStore())
	h := NewHub(sessions)

	spectator := newHubClient(h, "spec")
	h.setSession(spectator, "ABCDEF", "Spectator", true)
	other := newHubClient(h, "other")
	h.setSession(other, "ZZZZZZ", "Bob", false)

	h.CloseRoom("ABCDEF")

	roomCode, name, isSpectator := h.session(spectator)
	if roomCode != "" || name != "" || isSpectator {
		t.Errorf("session context not cleared: %q %q %v", roomCode, name, isSpectator)
	}

	select {
	case data := <-spectator.send:
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("bad room-closed frame: %v", err)
		}
		if msg.Type != "room-closed" {
			t.Errorf("frame type = %q, want room-closed", msg.Type)
		}
	default:
		t.Fatal("no room-closed frame delivered")
	}

	if roomCode, _, _ := h.session(other); roomCode != "ZZZZZZ" {
		t.Error("unrelated client's session was cleared")
	}
	if len(other.send) != 0 {
		t.Error("unrelated client received room-closed")
	}

	// Broadcasts to the dead code must no longer reach the client.
	h.ToRoom("ABCDEF", "player-list", nil)
	if len(spectator.send) != 0 {
		t.Error("detached client still receives events for the old code")
	}
}
