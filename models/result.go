package models

import (
	"time"

	"gorm.io/gorm"
)

// GameResult is one finished game recorded for the leaderboard. Raw
// rows are kept per game; best-time views aggregate to each player's
// personal best, the wins view tallies won rows.
type GameResult struct {
	ID         uint           `json:"id" gorm:"primaryKey"`
	PlayerName string         `json:"player_name" gorm:"not null;index"`
	Difficulty string         `json:"difficulty" gorm:"not null;index"` // easy, medium
	Mode       string         `json:"mode" gorm:"not null"`             // singleplayer, multiplayer
	TimeSecs   float64        `json:"time_secs" gorm:"not null"`
	Won        bool           `json:"won" gorm:"not null;default:false"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `json:"-" gorm:"index"`
}
