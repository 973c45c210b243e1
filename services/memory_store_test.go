package services

import (
	"context"
	"testing"
)

func TestUpsertBestPersonalBestSemantics(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	first, err := store.UpsertBest(ctx, "Alice", "easy", "multiplayer", 60)
	if err != nil {
		t.Fatal(err)
	}
	if !first.IsNewBest || first.PreviousBest != nil {
		t.Errorf("first submission = %+v, want new best with no previous", first)
	}

	faster, _ := store.UpsertBest(ctx, "Alice", "easy", "multiplayer", 45)
	if !faster.IsNewBest || faster.PreviousBest == nil || *faster.PreviousBest != 60 {
		t.Errorf("45s after 60s = %+v, want isNewBest with previous 60", faster)
	}

	slower, _ := store.UpsertBest(ctx, "Alice", "easy", "multiplayer", 70)
	if slower.IsNewBest || slower.PreviousBest == nil || *slower.PreviousBest != 45 {
		t.Errorf("70s after 45s = %+v, want not-best with previous 45", slower)
	}
}

func TestBestTimesKeepsOnlyPersonalBest(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	store.UpsertBest(ctx, "Alice", "easy", "multiplayer", 60)
	store.UpsertBest(ctx, "Alice", "easy", "multiplayer", 45)
	store.UpsertBest(ctx, "Bob", "easy", "multiplayer", 50)
	store.UpsertBest(ctx, "Carol", "medium", "multiplayer", 30)       // other difficulty
	store.UpsertBest(ctx, "Dave", "easy", "singleplayer", 10)         // other mode
	store.Add(ctx, "Eve", "easy", "multiplayer", 20, false)           // a loss

	entries, err := store.BestTimes(ctx, "easy", "multiplayer", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2: %+v", len(entries), entries)
	}
	if entries[0].Name != "Alice" || entries[0].Time != 45 {
		t.Errorf("first entry = %+v, want Alice at 45", entries[0])
	}
	if entries[1].Name != "Bob" || entries[1].Time != 50 {
		t.Errorf("second entry = %+v, want Bob at 50", entries[1])
	}
}

func TestMostWins(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		store.UpsertBest(ctx, "Alice", "easy", "multiplayer", float64(40+i))
	}
	store.UpsertBest(ctx, "Bob", "easy", "multiplayer", 50)
	store.Add(ctx, "Bob", "easy", "multiplayer", 120, false)

	entries, err := store.MostWins(ctx, "easy", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Name != "Alice" || entries[0].Wins != 3 {
		t.Errorf("top entry = %+v, want Alice with 3 wins", entries[0])
	}
	if entries[1].Wins != 1 {
		t.Errorf("Bob wins = %d, want 1 (losses don't count)", entries[1].Wins)
	}
}

func TestMemoryStoreBounded(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	for i := 0; i < memoryStoreCap+50; i++ {
		store.Add(ctx, "Grinder", "easy", "singleplayer", float64(i), true)
	}
	store.mutex.Lock()
	defer store.mutex.Unlock()
	if len(store.results) != memoryStoreCap {
		t.Errorf("store holds %d results, want cap %d", len(store.results), memoryStoreCap)
	}
}
