package services

// ProgressEntry is the per-player aggregate pushed to every room
// participant after each state-changing move. It is the only channel a
// player learns about an opponent's advancement through: reveal and
// flag counts only, never board contents.
type ProgressEntry struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Revealed int      `json:"revealed"`
	Flagged  int      `json:"flagged"`
	Total    int      `json:"total"`
	Finished bool     `json:"finished"`
	Won      bool     `json:"won"`
	Time     *float64 `json:"time"`
}

// buildProgress assumes the room mutex is held.
func buildProgress(room *Room) []ProgressEntry {
	progress := make([]ProgressEntry, 0, len(room.Players))
	for _, player := range room.sortedPlayers() {
		entry := ProgressEntry{
			ID:       player.ID,
			Name:     player.Name,
			Finished: player.Finished,
			Won:      player.Won,
			Time:     player.FinishTime,
		}
		if player.Board != nil {
			entry.Revealed = player.Board.RevealedCount()
			entry.Flagged = player.Board.FlaggedCount()
			entry.Total = player.Board.TotalCells()
		}
		progress = append(progress, entry)
	}
	return progress
}
