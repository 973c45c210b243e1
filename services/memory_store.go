package services

import (
	"context"
	"sort"
	"sync"
	"time"
)

const memoryStoreCap = 200

type memoryResult struct {
	Name       string
	Difficulty string
	Mode       string
	TimeSecs   float64
	Won        bool
	Date       time.Time
}

// MemoryStore is a bounded in-process LeaderboardStore. It backs the
// server when postgres is unreachable and the unit tests.
type MemoryStore struct {
	mutex   sync.Mutex
	results []memoryResult
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) UpsertBest(ctx context.Context, name, difficulty, mode string, timeSecs float64) (BestResult, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	result := BestResult{IsNewBest: true}
	for _, r := range s.results {
		if r.Name == name && r.Difficulty == difficulty && r.Mode == mode && r.Won {
			if result.PreviousBest == nil || r.TimeSecs < *result.PreviousBest {
				best := r.TimeSecs
				result.PreviousBest = &best
			}
		}
	}
	if result.PreviousBest != nil {
		result.IsNewBest = timeSecs < *result.PreviousBest
	}

	s.append(memoryResult{
		Name:       name,
		Difficulty: difficulty,
		Mode:       mode,
		TimeSecs:   timeSecs,
		Won:        true,
		Date:       time.Now(),
	})
	return result, nil
}

func (s *MemoryStore) Add(ctx context.Context, name, difficulty, mode string, timeSecs float64, won bool) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.append(memoryResult{
		Name:       name,
		Difficulty: difficulty,
		Mode:       mode,
		TimeSecs:   timeSecs,
		Won:        won,
		Date:       time.Now(),
	})
	return nil
}

// append assumes the mutex is held.
func (s *MemoryStore) append(r memoryResult) {
	s.results = append(s.results, r)
	if len(s.results) > memoryStoreCap {
		s.results = s.results[len(s.results)-memoryStoreCap:]
	}
}

func (s *MemoryStore) BestTimes(ctx context.Context, difficulty, mode string, limit int) ([]LeaderboardEntry, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	best := make(map[string]LeaderboardEntry)
	for _, r := range s.results {
		if r.Difficulty != difficulty || r.Mode != mode || !r.Won {
			continue
		}
		entry, seen := best[r.Name]
		if !seen || r.TimeSecs < entry.Time {
			best[r.Name] = LeaderboardEntry{Name: r.Name, Time: r.TimeSecs, Date: r.Date}
		}
	}

	entries := make([]LeaderboardEntry, 0, len(best))
	for _, entry := range best {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Time < entries[j].Time })
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (s *MemoryStore) MostWins(ctx context.Context, difficulty string, limit int) ([]WinsEntry, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	wins := make(map[string]int)
	for _, r := range s.results {
		if r.Difficulty == difficulty && r.Mode == "multiplayer" && r.Won {
			wins[r.Name]++
		}
	}

	entries := make([]WinsEntry, 0, len(wins))
	for name, count := range wins {
		entries = append(entries, WinsEntry{Name: name, Wins: count})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Wins > entries[j].Wins })
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}
