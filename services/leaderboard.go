package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"minerace/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// LeaderboardEntry is one row of a best-times view: a player's personal
// best winning time for a (difficulty, mode) pair.
type LeaderboardEntry struct {
	Name string    `json:"name"`
	Time float64   `json:"time"`
	Date time.Time `json:"date"`
}

// WinsEntry is one row of the most-wins view.
type WinsEntry struct {
	Name string `json:"name"`
	Wins int    `json:"wins"`
}

// BestResult reports whether a submitted winning time beat the player's
// previous personal best.
type BestResult struct {
	IsNewBest    bool     `json:"isNewBest"`
	PreviousBest *float64 `json:"previousBest"`
}

// LeaderboardStore persists finished games and serves the leaderboard
// views. The session service only depends on this interface; the
// storage technology behind it is interchangeable.
type LeaderboardStore interface {
	// UpsertBest records a winning time and reports how it compares to
	// the player's previous best for the same difficulty and mode.
	UpsertBest(ctx context.Context, name, difficulty, mode string, timeSecs float64) (BestResult, error)
	// Add records a finished game without personal-best bookkeeping.
	Add(ctx context.Context, name, difficulty, mode string, timeSecs float64, won bool) error
	BestTimes(ctx context.Context, difficulty, mode string, limit int) ([]LeaderboardEntry, error)
	MostWins(ctx context.Context, difficulty string, limit int) ([]WinsEntry, error)
}

const leaderboardCacheTTL = time.Minute

// DBStore is the gorm-backed store with a best-effort redis cache in
// front of the two aggregate views. Every failure on the read path
// degrades to an empty result; gameplay never depends on this store
// succeeding.
type DBStore struct {
	db    *gorm.DB
	redis *redis.Client
}

func NewDBStore(db *gorm.DB, redisClient *redis.Client) *DBStore {
	return &DBStore{
		db:    db,
		redis: redisClient,
	}
}

func (s *DBStore) UpsertBest(ctx context.Context, name, difficulty, mode string, timeSecs float64) (BestResult, error) {
	var previous models.GameResult
	err := s.db.WithContext(ctx).
		Where("player_name = ? AND difficulty = ? AND mode = ? AND won = ?", name, difficulty, mode, true).
		Order("time_secs ASC").
		First(&previous).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return BestResult{}, err
	}

	if addErr := s.Add(ctx, name, difficulty, mode, timeSecs, true); addErr != nil {
		return BestResult{}, addErr
	}

	result := BestResult{IsNewBest: true}
	if err == nil {
		best := previous.TimeSecs
		result.PreviousBest = &best
		result.IsNewBest = timeSecs < best
	}
	return result, nil
}

func (s *DBStore) Add(ctx context.Context, name, difficulty, mode string, timeSecs float64, won bool) error {
	entry := models.GameResult{
		PlayerName: name,
		Difficulty: difficulty,
		Mode:       mode,
		TimeSecs:   timeSecs,
		Won:        won,
	}
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return err
	}
	s.invalidateCache(ctx, difficulty, mode)
	return nil
}

func (s *DBStore) BestTimes(ctx context.Context, difficulty, mode string, limit int) ([]LeaderboardEntry, error) {
	cacheKey := fmt.Sprintf("lb:best:%s:%s:%d", mode, difficulty, limit)
	var entries []LeaderboardEntry
	if s.cacheGet(ctx, cacheKey, &entries) {
		return entries, nil
	}

	err := s.db.WithContext(ctx).Model(&models.GameResult{}).
		Select("player_name AS name, MIN(time_secs) AS time, MAX(created_at) AS date").
		Where("difficulty = ? AND mode = ? AND won = ?", difficulty, mode, true).
		Group("player_name").
		Order("time ASC").
		Limit(limit).
		Scan(&entries).Error
	if err != nil {
		log.Printf("Leaderboard best-times query failed: %v", err)
		return []LeaderboardEntry{}, nil
	}
	if entries == nil {
		entries = []LeaderboardEntry{}
	}

	s.cacheSet(ctx, cacheKey, entries)
	return entries, nil
}

func (s *DBStore) MostWins(ctx context.Context, difficulty string, limit int) ([]WinsEntry, error) {
	cacheKey := fmt.Sprintf("lb:wins:%s:%d", difficulty, limit)
	var entries []WinsEntry
	if s.cacheGet(ctx, cacheKey, &entries) {
		return entries, nil
	}

	err := s.db.WithContext(ctx).Model(&models.GameResult{}).
		Select("player_name AS name, COUNT(*) AS wins").
		Where("difficulty = ? AND mode = ? AND won = ?", difficulty, "multiplayer", true).
		Group("player_name").
		Order("wins DESC").
		Limit(limit).
		Scan(&entries).Error
	if err != nil {
		log.Printf("Leaderboard most-wins query failed: %v", err)
		return []WinsEntry{}, nil
	}
	if entries == nil {
		entries = []WinsEntry{}
	}

	s.cacheSet(ctx, cacheKey, entries)
	return entries, nil
}

func (s *DBStore) cacheGet(ctx context.Context, key string, dest interface{}) bool {
	if s.redis == nil {
		return false
	}
	data, err := s.redis.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			log.Printf("Redis error reading %s: %v", key, err)
		}
		return false
	}
	if err := json.Unmarshal([]byte(data), dest); err != nil {
		log.Printf("Failed to unmarshal cached leaderboard %s: %v", key, err)
		return false
	}
	return true
}

func (s *DBStore) cacheSet(ctx context.Context, key string, value interface{}) {
	if s.redis == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, key, data, leaderboardCacheTTL).Err(); err != nil {
		log.Printf("Redis error caching %s: %v", key, err)
	}
}

func (s *DBStore) invalidateCache(ctx context.Context, difficulty, mode string) {
	if s.redis == nil {
		return
	}
	patterns := []string{
		fmt.Sprintf("lb:best:%s:%s:*", mode, difficulty),
		fmt.Sprintf("lb:wins:%s:*", difficulty),
	}
	for _, pattern := range patterns {
		keys, err := s.redis.Keys(ctx, pattern).Result()
		if err != nil {
			log.Printf("Redis error scanning %s: %v", pattern, err)
			continue
		}
		if len(keys) > 0 {
			s.redis.Del(ctx, keys...)
		}
	}
}
