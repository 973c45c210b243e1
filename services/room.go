package services

import (
	"sync"
	"time"

	"minerace/game"
)

const maxPlayersPerRoom = 8

// Room is one multiplayer match. All players share the same seed, so
// their boards start with an identical mine layout; revealed and flagged
// state diverges per player from there. The mutex serializes every
// state-changing operation on the room, so two simultaneous moves from
// different players never interleave.
type Room struct {
	Code       string
	Difficulty string
	Seed       uint32
	HostID     string
	Started    bool

	mutex      sync.Mutex
	Players    map[string]*Player
	Spectators map[string]bool
	completed  bool
	joinSeq    int
}

// Player is one (room, connection) pair. The board is private to the
// player; opponents only ever see aggregate progress until game over.
type Player struct {
	ID         string
	Name       string
	Board      *game.Board
	Finished   bool
	Won        bool
	TimedOut   bool
	FinishTime *float64 // seconds; nil while still playing
	StartedAt  time.Time
	joinOrder  int
	deadline   *time.Timer
}

// PlayerSummary is the roster entry broadcast as player-list /
// player-update and ranked into the final match leaderboard.
type PlayerSummary struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Finished bool     `json:"finished"`
	Won      bool     `json:"won"`
	Time     *float64 `json:"time"`
	IsHost   bool     `json:"isHost"`
}

func (r *Room) addPlayer(id, name string) *Player {
	player := &Player{
		ID:        id,
		Name:      name,
		joinOrder: r.joinSeq,
	}
	r.joinSeq++
	r.Players[id] = player
	return player
}

// playerList assumes r.mutex is held. Order is join order, so rosters
// render stably across broadcasts.
func (r *Room) playerList() []PlayerSummary {
	list := make([]PlayerSummary, 0, len(r.Players))
	for _, player := range r.sortedPlayers() {
		list = append(list, PlayerSummary{
			ID:       player.ID,
			Name:     player.Name,
			Finished: player.Finished,
			Won:      player.Won,
			Time:     player.FinishTime,
			IsHost:   player.ID == r.HostID,
		})
	}
	return list
}

func (r *Room) sortedPlayers() []*Player {
	players := make([]*Player, 0, len(r.Players))
	for _, player := range r.Players {
		players = append(players, player)
	}
	for i := 1; i < len(players); i++ {
		for j := i; j > 0 && players[j].joinOrder < players[j-1].joinOrder; j-- {
			players[j], players[j-1] = players[j-1], players[j]
		}
	}
	return players
}

func (r *Room) allFinished() bool {
	if len(r.Players) == 0 {
		return false
	}
	for _, player := range r.Players {
		if !player.Finished {
			return false
		}
	}
	return true
}

// finish transitions a player to FINISHED and stops their deadline
// timer. A finished player accepts no further moves.
func (p *Player) finish(won bool, finishTime float64) {
	p.Finished = true
	p.Won = won
	p.FinishTime = &finishTime
	if p.deadline != nil {
		p.deadline.Stop()
		p.deadline = nil
	}
}
