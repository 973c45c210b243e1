package game

import "errors"

// ErrUnknownDifficulty is returned by Generate for difficulties
// outside the configured tiers.
var ErrUnknownDifficulty = errors.New("unknown difficulty")

// Difficulty fixes board dimensions, mine count and the match time limit.
type Difficulty struct {
	Rows      int `json:"rows"`
	Cols      int `json:"cols"`
	Mines     int `json:"mines"`
	TimeLimit int `json:"timeLimit"` // seconds
}

var Difficulties = map[string]Difficulty{
	"easy":   {Rows: 9, Cols: 9, Mines: 10, TimeLimit: 120},
	"medium": {Rows: 16, Cols: 16, Mines: 40, TimeLimit: 600},
}

type Cell struct {
	Mine          bool `json:"mine"`
	Revealed      bool `json:"revealed"`
	Flagged       bool `json:"flagged"`
	AdjacentMines int  `json:"adjacentMines"`
}

type Board struct {
	Rows  int
	Cols  int
	Mines int
	Cells [][]Cell
}

// rng is a mulberry32 generator. Every client engine uses the same
// mixing function, so a shared (difficulty, seed) pair yields the same
// mine layout everywhere.
type rng struct {
	state uint32
}

func newRNG(seed uint32) *rng {
	return &rng{state: seed}
}

func (r *rng) next() float64 {
	r.state += 0x6d2b79f5
	t := r.state
	t = (t ^ (t >> 15)) * (t | 1)
	t ^= t + (t^(t>>7))*(t|61)
	return float64(t^(t>>14)) / 4294967296
}

// Generate builds a fresh board for the given difficulty. Mines are
// placed by rejection sampling from the seeded generator, then adjacency
// counts are computed for every non-mine cell. Identical (difficulty,
// seed) inputs always produce identical boards.
func Generate(difficulty string, seed uint32) (*Board, error) {
	config, ok := Difficulties[difficulty]
	if !ok {
		return nil, ErrUnknownDifficulty
	}

	cells := make([][]Cell, config.Rows)
	for r := range cells {
		cells[r] = make([]Cell, config.Cols)
	}

	board := &Board{
		Rows:  config.Rows,
		Cols:  config.Cols,
		Mines: config.Mines,
		Cells: cells,
	}

	rand := newRNG(seed)
	placed := 0
	for placed < config.Mines {
		r := int(rand.next() * float64(config.Rows))
		c := int(rand.next() * float64(config.Cols))
		if !board.Cells[r][c].Mine {
			board.Cells[r][c].Mine = true
			placed++
		}
	}

	board.recalcAdjacent()
	return board, nil
}

func (b *Board) recalcAdjacent() {
	for r := 0; r < b.Rows; r++ {
		for c := 0; c < b.Cols; c++ {
			if b.Cells[r][c].Mine {
				continue
			}
			count := 0
			for dr := -1; dr <= 1; dr++ {
				for dc := -1; dc <= 1; dc++ {
					nr, nc := r+dr, c+dc
					if b.inBounds(nr, nc) && b.Cells[nr][nc].Mine {
						count++
					}
				}
			}
			b.Cells[r][c].AdjacentMines = count
		}
	}
}

func (b *Board) inBounds(r, c int) bool {
	return r >= 0 && r < b.Rows && c >= 0 && c < b.Cols
}

// RevealedCell reports one cell opened by a reveal.
type RevealedCell struct {
	Row           int  `json:"r"`
	Col           int  `json:"c"`
	AdjacentMines int  `json:"adjacentMines"`
	Mine          bool `json:"mine,omitempty"`
}

type RevealResult struct {
	HitMine bool
	Cells   []RevealedCell
}

// Reveal opens the cell at (row, col). Already-revealed and flagged
// cells are a no-op. Hitting a mine reveals just that cell and reports
// HitMine. Otherwise a breadth-first flood fill expands through
// zero-adjacency cells, clearing flags as it opens them; the fill never
// crosses into a mine.
func (b *Board) Reveal(row, col int) RevealResult {
	if !b.inBounds(row, col) {
		return RevealResult{Cells: []RevealedCell{}}
	}

	cell := &b.Cells[row][col]
	if cell.Revealed || cell.Flagged {
		return RevealResult{Cells: []RevealedCell{}}
	}

	if cell.Mine {
		cell.Revealed = true
		return RevealResult{
			HitMine: true,
			Cells:   []RevealedCell{{Row: row, Col: col, Mine: true}},
		}
	}

	var revealed []RevealedCell
	visited := make([][]bool, b.Rows)
	for r := range visited {
		visited[r] = make([]bool, b.Cols)
	}

	queue := [][2]int{{row, col}}
	visited[row][col] = true

	for len(queue) > 0 {
		r, c := queue[0][0], queue[0][1]
		queue = queue[1:]

		current := &b.Cells[r][c]
		if current.Revealed || current.Mine {
			continue
		}

		current.Revealed = true
		current.Flagged = false
		revealed = append(revealed, RevealedCell{Row: r, Col: c, AdjacentMines: current.AdjacentMines})

		if current.AdjacentMines == 0 {
			for dr := -1; dr <= 1; dr++ {
				for dc := -1; dc <= 1; dc++ {
					nr, nc := r+dr, c+dc
					if b.inBounds(nr, nc) && !visited[nr][nc] {
						visited[nr][nc] = true
						queue = append(queue, [2]int{nr, nc})
					}
				}
			}
		}
	}

	return RevealResult{Cells: revealed}
}

// ToggleFlag flips the flag on an unrevealed cell and reports the new
// state. Revealed cells cannot be flagged.
func (b *Board) ToggleFlag(row, col int) (changed, flagged bool) {
	if !b.inBounds(row, col) {
		return false, false
	}
	cell := &b.Cells[row][col]
	if cell.Revealed {
		return false, false
	}
	cell.Flagged = !cell.Flagged
	return true, cell.Flagged
}

// CheckWin reports whether every non-mine cell has been revealed.
// Flags play no part in the win condition.
func (b *Board) CheckWin() bool {
	for r := 0; r < b.Rows; r++ {
		for c := 0; c < b.Cols; c++ {
			if !b.Cells[r][c].Mine && !b.Cells[r][c].Revealed {
				return false
			}
		}
	}
	return true
}

// EnsureSafeFirstClick relocates a mine under the first clicked cell to
// the first non-mine, non-target cell in row-major order and recomputes
// adjacency counts. Single-player only; multiplayer boards are fixed
// before any click so every player faces the same layout.
func (b *Board) EnsureSafeFirstClick(row, col int) {
	if !b.inBounds(row, col) || !b.Cells[row][col].Mine {
		return
	}
	b.Cells[row][col].Mine = false
	for r := 0; r < b.Rows; r++ {
		for c := 0; c < b.Cols; c++ {
			if !b.Cells[r][c].Mine && !(r == row && c == col) {
				b.Cells[r][c].Mine = true
				b.recalcAdjacent()
				return
			}
		}
	}
}

func (b *Board) RevealedCount() int {
	count := 0
	for r := 0; r < b.Rows; r++ {
		for c := 0; c < b.Cols; c++ {
			if b.Cells[r][c].Revealed {
				count++
			}
		}
	}
	return count
}

func (b *Board) FlaggedCount() int {
	count := 0
	for r := 0; r < b.Rows; r++ {
		for c := 0; c < b.Cols; c++ {
			if b.Cells[r][c].Flagged {
				count++
			}
		}
	}
	return count
}

// TotalCells returns rows*cols.
func (b *Board) TotalCells() int {
	return b.Rows * b.Cols
}
