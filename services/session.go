package services

import (
	"context"
	"fmt"
	"log"
	"math"
	"sort"
	"time"

	"minerace/game"

	"github.com/gin-gonic/gin"
)

// Notifier delivers events to connected clients. The websocket hub is
// the production implementation; tests inject a recording fake.
type Notifier interface {
	ToClient(clientID string, event string, payload interface{})
	ToRoom(code string, event string, payload interface{})
	// CloseRoom tells everyone still attached to a room that it is gone
	// and detaches them, so a reallocated code never reaches old clients.
	CloseRoom(code string)
}

// deadlineGrace pads the server-side deadline past the configured time
// limit so a client's own timeout signal normally lands first.
const deadlineGrace = 3 * time.Second

const maxChatLength = 200

// SessionService enforces the room state machine and mediates all
// gameplay moves. Rooms live only in memory; the registry and the
// leaderboard store are injected.
type SessionService struct {
	registry *RoomRegistry
	store    LeaderboardStore
	grace    time.Duration
}

func NewSessionService(registry *RoomRegistry, store LeaderboardStore) *SessionService {
	return &SessionService{
		registry: registry,
		store:    store,
		grace:    deadlineGrace,
	}
}

// CreateRoom allocates a room with a fresh seed and adds the creator as
// host. Returns the room code and assigned player name for the caller's
// session.
func (s *SessionService) CreateRoom(n Notifier, clientID, difficulty, name string) (string, string, error) {
	config, ok := game.Difficulties[difficulty]
	if !ok {
		return "", "", ErrInvalidDifficulty
	}

	seed := uint32(time.Now().UnixMilli())
	room := s.registry.Create(difficulty, seed, clientID)

	room.mutex.Lock()
	defer room.mutex.Unlock()

	if name == "" {
		name = "Player 1"
	}
	room.addPlayer(clientID, name)

	log.Printf("Room %s created (difficulty %s, seed %d) by %s", room.Code, difficulty, seed, name)

	n.ToClient(clientID, "room-created", gin.H{
		"code":       room.Code,
		"difficulty": difficulty,
		"timeLimit":  config.TimeLimit,
		"players":    room.playerList(),
	})
	return room.Code, name, nil
}

// JoinRoom adds a player to a lobby-state room. Joining is rejected
// once the game has started or the room is at capacity. Returns the
// assigned player name.
func (s *SessionService) JoinRoom(n Notifier, clientID, code, name string) (string, error) {
	room, ok := s.registry.Get(code)
	if !ok {
		return "", ErrRoomNotFound
	}

	room.mutex.Lock()
	defer room.mutex.Unlock()

	if room.Started {
		return "", ErrGameAlreadyStarted
	}
	if len(room.Players) >= maxPlayersPerRoom {
		return "", ErrRoomFull
	}

	if name == "" {
		name = fmt.Sprintf("Player %d", len(room.Players)+1)
	}
	room.addPlayer(clientID, name)

	config := game.Difficulties[room.Difficulty]
	n.ToClient(clientID, "room-joined", gin.H{
		"code":       room.Code,
		"difficulty": room.Difficulty,
		"timeLimit":  config.TimeLimit,
		"players":    room.playerList(),
	})
	n.ToRoom(code, "player-list", room.playerList())
	return name, nil
}

// SpectateRoom registers a non-playing observer. Spectators receive
// progress broadcasts and chat but never hold a board.
func (s *SessionService) SpectateRoom(n Notifier, clientID, code string) error {
	room, ok := s.registry.Get(code)
	if !ok {
		return ErrRoomNotFound
	}

	room.mutex.Lock()
	defer room.mutex.Unlock()

	room.Spectators[clientID] = true

	config := game.Difficulties[room.Difficulty]
	n.ToClient(clientID, "spectate-joined", gin.H{
		"code":       room.Code,
		"difficulty": room.Difficulty,
		"players":    room.playerList(),
		"started":    room.Started,
		"rows":       config.Rows,
		"cols":       config.Cols,
	})
	return nil
}

// StartGame freezes the roster and moves the room to IN_PROGRESS. Each
// player gets an independently generated board from the shared seed, so
// all layouts are identical, and an individual start timestamp so
// elapsed time measures actual play. A server-side deadline timer per
// player backs up the client-reported timeout.
func (s *SessionService) StartGame(n Notifier, code, clientID string) error {
	room, ok := s.registry.Get(code)
	if !ok {
		return ErrRoomNotFound
	}

	room.mutex.Lock()
	defer room.mutex.Unlock()

	if room.HostID != clientID {
		return ErrUnauthorizedStart
	}
	if room.Started {
		return ErrGameAlreadyStarted
	}

	room.Started = true
	config := game.Difficulties[room.Difficulty]
	now := time.Now()

	for _, player := range room.Players {
		board, err := game.Generate(room.Difficulty, room.Seed)
		if err != nil {
			return err
		}
		player.Board = board
		player.StartedAt = now

		playerID := player.ID
		player.deadline = time.AfterFunc(
			time.Duration(config.TimeLimit)*time.Second+s.grace,
			func() { s.forceTimeout(n, code, playerID) },
		)
	}

	log.Printf("Game started in room %s with %d players", code, len(room.Players))

	players := room.playerList()
	for _, player := range room.Players {
		n.ToClient(player.ID, "game-started", gin.H{
			"board":     player.Board.ClientView(false),
			"rows":      config.Rows,
			"cols":      config.Cols,
			"timeLimit": config.TimeLimit,
			"players":   players,
		})
	}
	for spectatorID := range room.Spectators {
		n.ToClient(spectatorID, "game-started-spectator", gin.H{
			"rows":    config.Rows,
			"cols":    config.Cols,
			"players": players,
		})
	}
	return nil
}

// Reveal applies a reveal move to the acting player's private board.
// Moves before start or after the player finished are silent no-ops.
func (s *SessionService) Reveal(n Notifier, code, clientID string, row, col int) {
	room, ok := s.registry.Get(code)
	if !ok {
		return
	}

	room.mutex.Lock()
	defer room.mutex.Unlock()

	if !room.Started {
		return
	}
	player := room.Players[clientID]
	if player == nil || player.Finished {
		return
	}

	result := player.Board.Reveal(row, col)

	if result.HitMine {
		elapsed := time.Since(player.StartedAt).Seconds()
		player.finish(false, elapsed)

		n.ToClient(clientID, "game-over", gin.H{
			"won":          false,
			"board":        player.Board.ClientView(true),
			"time":         elapsed,
			"explodedCell": gin.H{"r": row, "c": col},
		})
		n.ToRoom(code, "player-update", room.playerList())
		n.ToRoom(code, "opponent-progress", buildProgress(room))
		s.checkAllFinished(n, room)
		return
	}

	if player.Board.CheckWin() {
		elapsed := time.Since(player.StartedAt).Seconds()
		player.finish(true, elapsed)

		view := player.Board.ClientView(true)
		name := player.Name
		difficulty := room.Difficulty

		n.ToRoom(code, "player-update", room.playerList())
		n.ToRoom(code, "opponent-progress", buildProgress(room))
		s.checkAllFinished(n, room)

		// Only the winner's own confirmation waits on the best-time
		// upsert; a store failure degrades to a plain win.
		go func() {
			payload := gin.H{"won": true, "board": view, "time": elapsed}
			best, err := s.store.UpsertBest(context.Background(), name, difficulty, "multiplayer", elapsed)
			if err != nil {
				log.Printf("Best-time upsert failed for %s in room %s: %v", name, code, err)
			} else {
				payload["isNewBest"] = best.IsNewBest
				payload["previousBest"] = best.PreviousBest
			}
			n.ToClient(clientID, "game-over", payload)
		}()
		return
	}

	n.ToClient(clientID, "reveal-result", gin.H{"cells": result.Cells})
	if len(result.Cells) > 0 {
		n.ToRoom(code, "opponent-progress", buildProgress(room))
	}
}

// Flag toggles a flag on the acting player's board, with the same
// stale-move guards as Reveal.
func (s *SessionService) Flag(n Notifier, code, clientID string, row, col int) {
	room, ok := s.registry.Get(code)
	if !ok {
		return
	}

	room.mutex.Lock()
	defer room.mutex.Unlock()

	if !room.Started {
		return
	}
	player := room.Players[clientID]
	if player == nil || player.Finished {
		return
	}

	changed, flagged := player.Board.ToggleFlag(row, col)
	if !changed {
		return
	}
	n.ToClient(clientID, "flag-result", gin.H{"row": row, "col": col, "flagged": flagged})
	n.ToRoom(code, "opponent-progress", buildProgress(room))
}

// Timeout handles a client reporting its own countdown reaching zero.
func (s *SessionService) Timeout(n Notifier, code, clientID string) {
	s.timeoutPlayer(n, code, clientID, false)
}

// forceTimeout fires from the per-player deadline timer when no client
// signal arrived in time. The server clock is the source of truth.
func (s *SessionService) forceTimeout(n Notifier, code, playerID string) {
	s.timeoutPlayer(n, code, playerID, true)
}

func (s *SessionService) timeoutPlayer(n Notifier, code, playerID string, forced bool) {
	room, ok := s.registry.Get(code)
	if !ok {
		return
	}

	room.mutex.Lock()
	defer room.mutex.Unlock()

	if !room.Started {
		return
	}
	player := room.Players[playerID]
	if player == nil || player.Finished {
		return
	}

	config := game.Difficulties[room.Difficulty]
	limit := float64(config.TimeLimit)
	player.finish(false, limit)
	player.TimedOut = true

	if forced {
		log.Printf("No timeout signal from player %s in room %s, deadline enforced", playerID, code)
	}

	n.ToClient(playerID, "game-over", gin.H{
		"won":     false,
		"board":   player.Board.ClientView(true),
		"time":    limit,
		"timeout": true,
	})
	n.ToRoom(code, "player-update", room.playerList())
	n.ToRoom(code, "opponent-progress", buildProgress(room))
	s.checkAllFinished(n, room)
}

// WatchPlayer sends a spectating client a snapshot of one player's
// board. The view stays mine-redacted until that player has finished.
func (s *SessionService) WatchPlayer(n Notifier, code, clientID, targetID string) {
	room, ok := s.registry.Get(code)
	if !ok {
		return
	}

	room.mutex.Lock()
	defer room.mutex.Unlock()

	target := room.Players[targetID]
	if target == nil || target.Board == nil {
		return
	}
	n.ToClient(clientID, "watch-board", gin.H{
		"targetId": targetID,
		"name":     target.Name,
		"rows":     target.Board.Rows,
		"cols":     target.Board.Cols,
		"board":    target.Board.ClientView(target.Finished),
	})
}

// Chat relays a room-scoped chat message with the sender's name.
func (s *SessionService) Chat(n Notifier, code, name, text string) {
	if text == "" {
		return
	}
	// Truncate on rune boundaries so a clipped message stays valid UTF-8.
	if runes := []rune(text); len(runes) > maxChatLength {
		text = string(runes[:maxChatLength])
	}
	if _, ok := s.registry.Get(code); !ok {
		return
	}
	n.ToRoom(code, "chat-msg", gin.H{"name": name, "text": text})
}

// Reaction relays an emoji reaction to the room.
func (s *SessionService) Reaction(n Notifier, code, name, emoji string) {
	if emoji == "" || len(emoji) > 16 {
		return
	}
	if _, ok := s.registry.Get(code); !ok {
		return
	}
	n.ToRoom(code, "reaction", gin.H{"name": name, "emoji": emoji})
}

// Disconnect removes a participant. Host status transfers to the
// longest-joined remaining player; a room with no players left is torn
// down and lingering spectators are told.
func (s *SessionService) Disconnect(n Notifier, code, clientID string) {
	room, ok := s.registry.Get(code)
	if !ok {
		return
	}

	room.mutex.Lock()
	defer room.mutex.Unlock()

	if room.Spectators[clientID] {
		delete(room.Spectators, clientID)
		return
	}

	player := room.Players[clientID]
	if player == nil {
		return
	}
	delete(room.Players, clientID)
	if player.deadline != nil {
		player.deadline.Stop()
	}

	if len(room.Players) == 0 {
		s.registry.Remove(code)
		n.CloseRoom(code)
		log.Printf("Room %s torn down, last player left", code)
		return
	}

	if room.HostID == clientID {
		room.HostID = room.sortedPlayers()[0].ID
	}
	n.ToRoom(code, "player-list", room.playerList())
	if room.Started {
		// The departed player may have been the last one still playing.
		s.checkAllFinished(n, room)
	}
}

// checkAllFinished emits the final ranking exactly once when every
// current player has finished. Assumes the room mutex is held.
func (s *SessionService) checkAllFinished(n Notifier, room *Room) {
	if room.completed || !room.allFinished() {
		return
	}
	room.completed = true

	leaderboard := room.playerList()
	sort.SliceStable(leaderboard, func(i, j int) bool {
		if leaderboard[i].Won != leaderboard[j].Won {
			return leaderboard[i].Won
		}
		return finishSeconds(leaderboard[i].Time) < finishSeconds(leaderboard[j].Time)
	})

	log.Printf("Match complete in room %s", room.Code)
	n.ToRoom(room.Code, "match-complete", gin.H{"leaderboard": leaderboard})
}

func finishSeconds(t *float64) float64 {
	if t == nil {
		return math.Inf(1)
	}
	return *t
}
